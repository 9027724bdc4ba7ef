package scatter

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformSink is the rendering-side per-instance transform store. The
// engine writes transforms as chunks activate and hides them on
// deactivation; what "hidden" means (zero scale, skip in the draw list)
// is the sink's business.
type TransformSink interface {
	SetTransform(id int, pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3)
	Hide(id int)
}

// MeshAssigner is an optional sink upgrade: sinks that care which source
// mesh variant an instance uses implement it and receive the variant
// index right before SetTransform.
type MeshAssigner interface {
	SetMesh(id, mesh int)
}

// Transform is one instance's stored state in a MemorySink.
type Transform struct {
	Pos     mgl32.Vec3
	Rot     mgl32.Quat
	Scale   mgl32.Vec3
	Mesh    int
	Visible bool
}

// MemorySink stores transforms in a slice indexed by handle. It serves
// library users without a renderer and every test in this repo.
type MemorySink struct {
	transforms []Transform
}

// NewMemorySink creates a sink with room for capacity handles.
func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{transforms: make([]Transform, capacity)}
}

func (m *MemorySink) SetTransform(id int, pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) {
	if id < 0 || id >= len(m.transforms) {
		return
	}
	t := &m.transforms[id]
	t.Pos, t.Rot, t.Scale, t.Visible = pos, rot, scale, true
}

func (m *MemorySink) SetMesh(id, mesh int) {
	if id < 0 || id >= len(m.transforms) {
		return
	}
	m.transforms[id].Mesh = mesh
}

func (m *MemorySink) Hide(id int) {
	if id < 0 || id >= len(m.transforms) {
		return
	}
	m.transforms[id].Visible = false
}

// Get returns the transform for a handle and whether the handle is in
// range.
func (m *MemorySink) Get(id int) (Transform, bool) {
	if id < 0 || id >= len(m.transforms) {
		return Transform{}, false
	}
	return m.transforms[id], true
}

// VisibleCount returns how many stored transforms are currently visible.
func (m *MemorySink) VisibleCount() int {
	n := 0
	for i := range m.transforms {
		if m.transforms[i].Visible {
			n++
		}
	}
	return n
}

// Visible returns all currently visible transforms.
func (m *MemorySink) Visible() []Transform {
	out := make([]Transform, 0, len(m.transforms))
	for i := range m.transforms {
		if m.transforms[i].Visible {
			out = append(out, m.transforms[i])
		}
	}
	return out
}
