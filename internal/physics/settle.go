// Package physics implements the offline settling pass for the
// physics-scattered placement strategy: rigid bodies are dropped once,
// integrated to convergence, and their final transforms handed back.
// This is not a live physics engine; it runs synchronously before any
// chunk is populated.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/rng"
)

const (
	// Fixed integration timestep (1/60 s).
	dt = 1.0 / 60.0

	gravity = 9.81

	// Spin is damped on every ground contact.
	angularContactDamping = 0.85

	// Below these speeds a grounded body snaps to rest.
	restLinearEps  = 0.03
	restAngularEps = 0.05

	// Initial jitter applied at spawn.
	spawnLinearJitter  = 0.5
	spawnAngularJitter = 2.0
)

// GroundFunc answers the ground height under (x,z). A nil GroundFunc
// means a flat floor at the drop bounds' base height.
type GroundFunc func(x, z float32) float32

// Config drives one settling pass.
type Config struct {
	BodyCount  int
	StepCount  int     // integration steps; defaults to 240 (4 s)
	DropHeight float32 // spawn height above the floor
	Radius     float32 // body collision sphere radius

	// Horizontal drop region, centered on (CenterX, CenterZ).
	CenterX, CenterZ float32
	HalfExtentX      float32
	HalfExtentZ      float32
	FloorY           float32

	Restitution float32
	Friction    float32
	Ground      GroundFunc
}

// Result is the final resting transform of one body.
type Result struct {
	Pos    mgl32.Vec3
	Orient mgl32.Quat
}

type body struct {
	pos    mgl32.Vec3
	vel    mgl32.Vec3
	orient mgl32.Quat
	angVel mgl32.Vec3
	atRest bool
}

// Settle runs the drop simulation to completion and returns one result
// per body. The outcome is a pure function of cfg and seed: no clock, no
// global random state.
func Settle(cfg Config, seed uint32) []Result {
	if cfg.BodyCount <= 0 {
		return nil
	}
	steps := cfg.StepCount
	if steps <= 0 {
		steps = 240
	}
	radius := cfg.Radius
	if radius <= 0 {
		radius = 0.5
	}

	src := rng.New(seed)
	bodies := make([]body, cfg.BodyCount)
	for i := range bodies {
		x := cfg.CenterX + float32(src.Range(-1, 1))*cfg.HalfExtentX
		z := cfg.CenterZ + float32(src.Range(-1, 1))*cfg.HalfExtentZ
		bodies[i] = body{
			pos: mgl32.Vec3{x, cfg.FloorY + cfg.DropHeight, z},
			vel: mgl32.Vec3{
				float32(src.Range(-spawnLinearJitter, spawnLinearJitter)),
				0,
				float32(src.Range(-spawnLinearJitter, spawnLinearJitter)),
			},
			orient: mgl32.QuatIdent(),
			angVel: mgl32.Vec3{
				float32(src.Range(-spawnAngularJitter, spawnAngularJitter)),
				float32(src.Range(-spawnAngularJitter, spawnAngularJitter)),
				float32(src.Range(-spawnAngularJitter, spawnAngularJitter)),
			},
		}
	}

	for step := 0; step < steps; step++ {
		for i := range bodies {
			integrate(&bodies[i], &cfg, radius)
		}
		resolvePairs(bodies, radius)
	}

	out := make([]Result, len(bodies))
	for i, b := range bodies {
		out[i] = Result{Pos: b.pos, Orient: b.orient.Normalize()}
	}
	return out
}

// integrate advances one body by a single semi-implicit Euler step and
// resolves ground contact.
func integrate(b *body, cfg *Config, radius float32) {
	if b.atRest {
		return
	}

	b.vel = b.vel.Sub(mgl32.Vec3{0, gravity * dt, 0})
	b.pos = b.pos.Add(b.vel.Mul(dt))

	// First-order quaternion derivative: q' = q + 0.5 * w*q * dt.
	w := mgl32.Quat{W: 0, V: b.angVel}
	dq := w.Mul(b.orient)
	b.orient = mgl32.Quat{
		W: b.orient.W + 0.5*dq.W*dt,
		V: b.orient.V.Add(dq.V.Mul(0.5 * dt)),
	}.Normalize()

	// Ground contact.
	floor := cfg.FloorY
	if cfg.Ground != nil {
		floor = cfg.Ground(b.pos.X(), b.pos.Z())
	}
	if b.pos.Y()-radius < floor {
		b.pos = mgl32.Vec3{b.pos.X(), floor + radius, b.pos.Z()}
		vy := b.vel.Y()
		if vy < 0 {
			vy = -vy * cfg.Restitution
		}
		b.vel = mgl32.Vec3{b.vel.X() * cfg.Friction, vy, b.vel.Z() * cfg.Friction}
		b.angVel = b.angVel.Mul(angularContactDamping)

		if b.vel.Len() < restLinearEps && b.angVel.Len() < restAngularEps {
			b.vel = mgl32.Vec3{}
			b.angVel = mgl32.Vec3{}
			b.atRest = true
		}
	}

	// Bodies never leave the drop region.
	b.pos = mgl32.Vec3{
		clamp(b.pos.X(), cfg.CenterX-cfg.HalfExtentX, cfg.CenterX+cfg.HalfExtentX),
		b.pos.Y(),
		clamp(b.pos.Z(), cfg.CenterZ-cfg.HalfExtentZ, cfg.CenterZ+cfg.HalfExtentZ),
	}
}

// resolvePairs applies an equal-mass elastic impulse between every pair
// closer than the contact distance and still closing. O(n^2) is fine for
// a one-shot pass over at most a few thousand bodies.
func resolvePairs(bodies []body, radius float32) {
	minDist := 2 * radius
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := &bodies[i], &bodies[j]
			d := b.pos.Sub(a.pos)
			dist := d.Len()
			if dist >= minDist || dist == 0 {
				continue
			}
			n := d.Mul(1 / dist)

			rel := b.vel.Sub(a.vel)
			closing := rel.Dot(n)
			if closing >= 0 {
				continue
			}

			// Equal masses: exchange the normal velocity components.
			impulse := n.Mul(closing)
			a.vel = a.vel.Add(impulse)
			b.vel = b.vel.Sub(impulse)
			a.atRest = false
			b.atRest = false

			// Push apart to the contact distance.
			overlap := (minDist - dist) / 2
			a.pos = a.pos.Sub(n.Mul(overlap))
			b.pos = b.pos.Add(n.Mul(overlap))
		}
	}
}

func clamp(v, lo, hi float32) float32 {
	return float32(math.Min(math.Max(float64(v), float64(lo)), float64(hi)))
}
