package main

import (
	"flag"
	"log"
	"math"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
	"scatter3d/internal/config"
	"scatter3d/internal/profiling"
	"scatter3d/internal/scatter"
)

func init() { runtime.LockOSThread() }

const (
	winW = 1280
	winH = 720

	nearPlane = 0.1
	farPlane  = 2000.0
	fovDeg    = 60.0

	moveSpeed  = 40.0
	fastSpeed  = 120.0
	mouseSense = 0.1
)

func main() {
	cfgPath := flag.String("config", "", "scatter config file (yaml or json)")
	vis := flag.Float64("vis", 0, "override visibility range")
	flag.Parse()

	file := defaultFile()
	if *cfgPath != "" {
		var err error
		file, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	baseDir := "."
	if *cfgPath != "" {
		baseDir = filepath.Dir(*cfgPath)
	}

	engCfg, err := file.EngineConfig(baseDir)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *vis > 0 {
		engCfg.VisibilityRange = *vis
	}
	strategy, err := file.BuildStrategy(engCfg)
	if err != nil {
		log.Fatalf("strategy: %v", err)
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(winW, winH, "scatterview", nil, nil)
	if err != nil {
		panic(err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		panic(err)
	}
	glfw.SwapInterval(1)

	normCfg := engCfg.Normalized()
	renderer, err := newRenderer(normCfg.MaxInstances)
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}

	eng, err := scatter.NewEngine(engCfg, strategy, renderer)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	fly := &flyCamera{pos: mgl32.Vec3{0, 30, 60}, yaw: -90, pitch: -20}
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	fly.install(window)

	keys := newKeyLatch(window)
	debug := false
	frustum := true
	lastTime := time.Now()
	statTick := time.Now()

	for !window.ShouldClose() {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		profiling.ResetFrame()
		fly.move(window, dt)
		cam := fly.camera()

		if keys.pressed(glfw.KeyEscape) {
			window.SetShouldClose(true)
		}
		if keys.pressed(glfw.KeyF) {
			frustum = !frustum
			eng.SetFrustumCulling(frustum)
		}
		if keys.pressed(glfw.KeyR) {
			eng.RegenerateAll(cam)
		}
		if keys.pressed(glfw.KeyG) {
			debug = !debug
			eng.ToggleDebug(debug)
		}
		if keys.pressed(glfw.KeyEqual) {
			eng.SetDensity(eng.Config().Density * 1.25)
			eng.RegenerateAll(cam)
		}
		if keys.pressed(glfw.KeyMinus) {
			eng.SetDensity(eng.Config().Density * 0.8)
			eng.RegenerateAll(cam)
		}

		func() {
			defer profiling.Track("scatter.Update")()
			eng.Update(cam)
		}()

		renderer.draw(cam)

		if debug && time.Since(statTick) > time.Second {
			statTick = time.Now()
			s := eng.Stats()
			log.Printf("instances %d/%d chunks %d/%d shortfall %d | %s",
				s.InstancesActive, s.InstancesMax, s.ChunksActive, s.ChunksTotal,
				s.Shortfall, profiling.TopN(3))
		}

		window.SwapBuffers()
		glfw.PollEvents()
	}
}

// defaultFile is the built-in demo setup used when no config file is
// given: noise-gated surface scatter around the origin.
func defaultFile() *config.File {
	return &config.File{
		Strategy:        "surface",
		Density:         0.05,
		VisibilityRange: 400,
		Seed:            1337,
		MeshCount:       3,
		Noise: &config.NoiseFile{
			Enabled:   true,
			Scale:     0.008,
			Threshold: 0.45,
		},
		LOD: &config.LODFile{
			Levels: []config.LODLevelFile{
				{Distance: 0, Density: 1},
				{Distance: 150, Density: 0.5},
				{Distance: 300, Density: 0.2, Scale: 0.7},
			},
			BlendDistance: 40,
		},
	}
}

// flyCamera is a free-fly camera driven by WASD plus mouse look.
type flyCamera struct {
	pos        mgl32.Vec3
	yaw, pitch float64

	lastX, lastY float64
	firstMouse   bool
}

func (f *flyCamera) install(window *glfw.Window) {
	f.firstMouse = true
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if f.firstMouse {
			f.lastX, f.lastY = xpos, ypos
			f.firstMouse = false
		}
		f.yaw += (xpos - f.lastX) * mouseSense
		f.pitch += (f.lastY - ypos) * mouseSense
		f.lastX, f.lastY = xpos, ypos
		if f.pitch > 89 {
			f.pitch = 89
		}
		if f.pitch < -89 {
			f.pitch = -89
		}
	})
}

func (f *flyCamera) front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(f.yaw))
	p := mgl32.DegToRad(float32(f.pitch))
	return mgl32.Vec3{
		float32(math.Cos(float64(y)) * math.Cos(float64(p))),
		float32(math.Sin(float64(p))),
		float32(math.Sin(float64(y)) * math.Cos(float64(p))),
	}.Normalize()
}

func (f *flyCamera) move(window *glfw.Window, dt float64) {
	speed := float32(moveSpeed)
	if window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		speed = fastSpeed
	}
	front := f.front()
	right := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()

	dir := mgl32.Vec3{}
	if window.GetKey(glfw.KeyW) == glfw.Press {
		dir = dir.Add(front)
	}
	if window.GetKey(glfw.KeyS) == glfw.Press {
		dir = dir.Sub(front)
	}
	if window.GetKey(glfw.KeyA) == glfw.Press {
		dir = dir.Sub(right)
	}
	if window.GetKey(glfw.KeyD) == glfw.Press {
		dir = dir.Add(right)
	}
	if window.GetKey(glfw.KeySpace) == glfw.Press {
		dir = dir.Add(mgl32.Vec3{0, 1, 0})
	}
	if window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		dir = dir.Sub(mgl32.Vec3{0, 1, 0})
	}
	if dir.Len() > 0 {
		f.pos = f.pos.Add(dir.Normalize().Mul(speed * float32(dt)))
	}
}

func (f *flyCamera) camera() camera.Camera {
	return camera.LookAt(f.pos, f.pos.Add(f.front()),
		mgl32.DegToRad(fovDeg), float32(winW)/float32(winH), nearPlane, farPlane)
}

// keyLatch turns held keys into single press events.
type keyLatch struct {
	window *glfw.Window
	down   map[glfw.Key]bool
}

func newKeyLatch(window *glfw.Window) *keyLatch {
	return &keyLatch{window: window, down: make(map[glfw.Key]bool)}
}

func (k *keyLatch) pressed(key glfw.Key) bool {
	isDown := k.window.GetKey(key) == glfw.Press
	was := k.down[key]
	k.down[key] = isDown
	return isDown && !was
}
