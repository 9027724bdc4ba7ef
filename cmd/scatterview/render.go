package main

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
)

// Unit cube with per-face normals, two triangles per face.
var cubeVertices = []float32{
	-0.5, -0.5, 0.5, 0, 0, 1,
	0.5, -0.5, 0.5, 0, 0, 1,
	0.5, 0.5, 0.5, 0, 0, 1,
	0.5, 0.5, 0.5, 0, 0, 1,
	-0.5, 0.5, 0.5, 0, 0, 1,
	-0.5, -0.5, 0.5, 0, 0, 1,
	0.5, -0.5, -0.5, 0, 0, -1,
	-0.5, -0.5, -0.5, 0, 0, -1,
	-0.5, 0.5, -0.5, 0, 0, -1,
	-0.5, 0.5, -0.5, 0, 0, -1,
	0.5, 0.5, -0.5, 0, 0, -1,
	0.5, -0.5, -0.5, 0, 0, -1,
	-0.5, -0.5, -0.5, -1, 0, 0,
	-0.5, -0.5, 0.5, -1, 0, 0,
	-0.5, 0.5, 0.5, -1, 0, 0,
	-0.5, 0.5, 0.5, -1, 0, 0,
	-0.5, 0.5, -0.5, -1, 0, 0,
	-0.5, -0.5, -0.5, -1, 0, 0,
	0.5, -0.5, 0.5, 1, 0, 0,
	0.5, -0.5, -0.5, 1, 0, 0,
	0.5, 0.5, -0.5, 1, 0, 0,
	0.5, 0.5, -0.5, 1, 0, 0,
	0.5, 0.5, 0.5, 1, 0, 0,
	0.5, -0.5, 0.5, 1, 0, 0,
	-0.5, 0.5, 0.5, 0, 1, 0,
	0.5, 0.5, 0.5, 0, 1, 0,
	0.5, 0.5, -0.5, 0, 1, 0,
	0.5, 0.5, -0.5, 0, 1, 0,
	-0.5, 0.5, -0.5, 0, 1, 0,
	-0.5, 0.5, 0.5, 0, 1, 0,
	-0.5, -0.5, -0.5, 0, -1, 0,
	0.5, -0.5, -0.5, 0, -1, 0,
	0.5, -0.5, 0.5, 0, -1, 0,
	0.5, -0.5, 0.5, 0, -1, 0,
	-0.5, -0.5, 0.5, 0, -1, 0,
	-0.5, -0.5, -0.5, 0, -1, 0,
}

var vertexShader = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in mat4 instanceModel;
layout(location = 6) in vec3 instanceColor;
uniform mat4 view;
uniform mat4 proj;
out vec3 Normal;
out vec3 Color;
void main() {
	Normal = mat3(instanceModel) * aNormal;
	Color = instanceColor;
	gl_Position = proj * view * instanceModel * vec4(aPos, 1.0);
}
`

var fragmentShader = `#version 410 core
in vec3 Normal;
in vec3 Color;
uniform vec3 lightDir;
out vec4 FragColor;
void main() {
	vec3 n = normalize(Normal);
	float diff = max(dot(n, -lightDir), 0.35);
	FragColor = vec4(Color * diff, 1.0);
}
`

// Per-instance buffer layout: 16 model floats + 3 color floats.
const instanceFloats = 19

// meshPalette colors mesh variants apart; indexed modulo.
var meshPalette = []mgl32.Vec3{
	{0.35, 0.75, 0.35},
	{0.75, 0.60, 0.30},
	{0.45, 0.50, 0.80},
	{0.80, 0.40, 0.45},
}

// renderer is a scatter.TransformSink that keeps one model matrix per
// handle and uploads the visible set to an instance VBO each frame.
type renderer struct {
	program     uint32
	vao         uint32
	vbo         uint32
	instanceVBO uint32

	projLoc  int32
	viewLoc  int32
	lightLoc int32

	models  []mgl32.Mat4
	meshes  []int
	visible []bool
	dirty   bool

	packed []float32
}

func newRenderer(maxInstances int) (*renderer, error) {
	program, err := newProgram(vertexShader, fragmentShader)
	if err != nil {
		return nil, err
	}

	r := &renderer{
		program: program,
		models:  make([]mgl32.Mat4, maxInstances),
		meshes:  make([]int, maxInstances),
		visible: make([]bool, maxInstances),
		packed:  make([]float32, 0, maxInstances*instanceFloats),
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(cubeVertices)*4, gl.Ptr(cubeVertices), gl.STATIC_DRAW)

	stride := int32(6 * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))

	// A mat4 attribute occupies four consecutive locations.
	gl.GenBuffers(1, &r.instanceVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	instStride := int32(instanceFloats * 4)
	for col := uint32(0); col < 4; col++ {
		loc := 2 + col
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, 4, gl.FLOAT, false, instStride, gl.PtrOffset(int(col)*4*4))
		gl.VertexAttribDivisor(loc, 1)
	}
	gl.EnableVertexAttribArray(6)
	gl.VertexAttribPointer(6, 3, gl.FLOAT, false, instStride, gl.PtrOffset(16*4))
	gl.VertexAttribDivisor(6, 1)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	r.projLoc = gl.GetUniformLocation(program, gl.Str("proj\x00"))
	r.viewLoc = gl.GetUniformLocation(program, gl.Str("view\x00"))
	r.lightLoc = gl.GetUniformLocation(program, gl.Str("lightDir\x00"))
	return r, nil
}

func (r *renderer) SetTransform(id int, pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) {
	if id < 0 || id >= len(r.models) {
		return
	}
	r.models[id] = mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
	r.visible[id] = true
	r.dirty = true
}

func (r *renderer) SetMesh(id, mesh int) {
	if id < 0 || id >= len(r.meshes) {
		return
	}
	r.meshes[id] = mesh
	r.dirty = true
}

func (r *renderer) Hide(id int) {
	if id < 0 || id >= len(r.visible) {
		return
	}
	r.visible[id] = false
	r.dirty = true
}

// draw repacks the instance buffer when transforms changed since the
// last frame and issues one instanced draw call.
func (r *renderer) draw(cam camera.Camera) {
	if r.dirty {
		r.packed = r.packed[:0]
		for id, vis := range r.visible {
			if !vis {
				continue
			}
			m := r.models[id]
			r.packed = append(r.packed, m[:]...)
			c := meshPalette[r.meshes[id]%len(meshPalette)]
			r.packed = append(r.packed, c.X(), c.Y(), c.Z())
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
		if len(r.packed) > 0 {
			gl.BufferData(gl.ARRAY_BUFFER, len(r.packed)*4, gl.Ptr(r.packed), gl.DYNAMIC_DRAW)
		}
		r.dirty = false
	}

	gl.ClearColor(0.53, 0.81, 0.92, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	count := len(r.packed) / instanceFloats
	if count == 0 {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.projLoc, 1, false, &cam.Proj[0])
	gl.UniformMatrix4fv(r.viewLoc, 1, false, &cam.View[0])
	light := mgl32.Vec3{0.5, 1.0, 0.3}.Normalize()
	gl.Uniform3f(r.lightLoc, light.X(), light.Y(), light.Z())

	gl.BindVertexArray(r.vao)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, int32(len(cubeVertices)/6), int32(count))
}

func newProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("failed to link program: %v", infoLog)
	}
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("failed to compile shader: %v", infoLog)
	}
	return shader, nil
}
