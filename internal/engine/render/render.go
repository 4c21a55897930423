// Package render draws the normalized model and its annotation markers
// with OpenGL 4.1 core.
package render

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/forma3d/formaview/internal/annotate"
	"github.com/forma3d/formaview/internal/engine/shader"
	"github.com/forma3d/formaview/internal/logger"
	"github.com/forma3d/formaview/internal/scene"
	"github.com/forma3d/formaview/pkg/math"
)

// Flat-shaded surfaces: the normal comes from screen-space derivatives,
// so meshes without authored normals still read as solid CAD surfaces.
const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec3 vWorldPos;

void main() {
	vWorldPos = (uModel * vec4(aPos, 1.0)).xyz;
	gl_Position = uMVP * vec4(aPos, 1.0);
}
` + "\x00"

const meshFragmentShader = `
#version 410 core

in vec3 vWorldPos;

uniform vec3 uColor;
uniform vec3 uLightDir;

out vec4 FragColor;

void main() {
	vec3 normal = normalize(cross(dFdx(vWorldPos), dFdy(vWorldPos)));
	float diffuse = abs(dot(normal, normalize(uLightDir)));
	vec3 shaded = uColor * (0.35 + 0.65 * diffuse);
	FragColor = vec4(shaded, 1.0);
}
` + "\x00"

const surfaceColorR, surfaceColorG, surfaceColorB = 0.72, 0.74, 0.78

// markerRadius is in scene units; the canonical 2-unit model keeps marker
// size consistent across files.
const markerRadius = 0.035

// meshBuffers owns one object's GPU geometry. It satisfies scene.Releaser
// so disposal of the model tears the buffers down exactly once.
type meshBuffers struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	indexed    bool
	vertices   int32
}

// Release deletes the GL buffers. Must run on the main thread with the
// context current, which model disposal guarantees.
func (b *meshBuffers) Release() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.ebo != 0 {
		gl.DeleteBuffers(1, &b.ebo)
		b.ebo = 0
	}
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	width  int
	height int

	program  uint32
	locMVP   int32
	locModel int32
	locColor int32
	locLight int32

	buffers map[*scene.Object]*meshBuffers

	marker *meshBuffers
}

// New creates a renderer. Must be called after the GL context exists.
func New(width, height int) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.13, 0.14, 0.17, 1.0)

	program, err := shader.CompileProgram(meshVertexShader, meshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}

	r := &Renderer{
		width:    width,
		height:   height,
		program:  program,
		locMVP:   shader.GetUniform(program, "uMVP"),
		locModel: shader.GetUniform(program, "uModel"),
		locColor: shader.GetUniform(program, "uColor"),
		locLight: shader.GetUniform(program, "uLightDir"),
		buffers:  make(map[*scene.Object]*meshBuffers),
	}
	r.marker = uploadMesh(octahedronPositions(markerRadius), octahedronIndices())

	gl.Viewport(0, 0, int32(width), int32(height))
	return r, nil
}

// Close cleans up renderer-owned resources. Per-object buffers are owned
// by their model and released through its disposal instead.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.marker != nil {
		r.marker.Release()
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.width = width
	r.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// UploadModel creates GPU buffers for every object of a freshly loaded
// model and hands them to the objects for lifecycle ownership.
func (r *Renderer) UploadModel(m *scene.Model) {
	r.buffers = make(map[*scene.Object]*meshBuffers, len(m.Objects()))
	for _, obj := range m.Objects() {
		buf := uploadMesh(obj.Positions, obj.Indices)
		r.buffers[obj] = buf
		obj.AttachResources(buf, nil)
	}
	logger.Debug("model uploaded",
		zap.String("name", m.Name),
		zap.Int("objects", len(m.Objects())),
	)
}

// DrawModel draws every visible object under the model's canonical
// placement. Hidden layers are skipped entirely.
func (r *Renderer) DrawModel(m *scene.Model, viewProj math.Mat4) {
	if m == nil || m.Disposed() {
		return
	}

	mvp := viewProj.Mul(m.Matrix())
	modelMatrix := m.Matrix()

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.locMVP, 1, false, mvp.Ptr())
	gl.UniformMatrix4fv(r.locModel, 1, false, modelMatrix.Ptr())
	gl.Uniform3f(r.locColor, surfaceColorR, surfaceColorG, surfaceColorB)
	gl.Uniform3f(r.locLight, 0.4, 1.0, 0.6)

	for _, obj := range m.Objects() {
		if !obj.Visible {
			continue
		}
		buf, ok := r.buffers[obj]
		if !ok || buf.vao == 0 {
			continue
		}
		drawMesh(buf)
	}
}

// DrawMarkers draws one octahedron per annotation in its author's color.
// The selected marker is drawn brighter and slightly larger.
func (r *Renderer) DrawMarkers(markers []annotate.Marker, viewProj math.Mat4) {
	if len(markers) == 0 || r.marker == nil {
		return
	}

	gl.UseProgram(r.program)
	gl.Uniform3f(r.locLight, 0.4, 1.0, 0.6)

	for _, mk := range markers {
		placement := math.Translate(mk.Position.X, mk.Position.Y, mk.Position.Z)
		color := mk.Color
		if mk.Selected {
			placement = placement.Mul(math.Scale(1.5, 1.5, 1.5))
			color = [3]float32{
				color[0] + (1-color[0])*0.5,
				color[1] + (1-color[1])*0.5,
				color[2] + (1-color[2])*0.5,
			}
		}
		mvp := viewProj.Mul(placement)
		gl.UniformMatrix4fv(r.locMVP, 1, false, mvp.Ptr())
		gl.UniformMatrix4fv(r.locModel, 1, false, placement.Ptr())
		gl.Uniform3f(r.locColor, color[0], color[1], color[2])
		drawMesh(r.marker)
	}
}

func uploadMesh(positions []float32, indices []uint32) *meshBuffers {
	buf := &meshBuffers{}
	if len(positions) < 9 {
		return buf
	}

	gl.GenVertexArrays(1, &buf.vao)
	gl.BindVertexArray(buf.vao)

	gl.GenBuffers(1, &buf.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(positions)*4, unsafe.Pointer(&positions[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	if len(indices) > 0 {
		buf.indexed = true
		buf.indexCount = int32(len(indices))
		gl.GenBuffers(1, &buf.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)
	} else {
		buf.vertices = int32(len(positions) / 3)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	return buf
}

func drawMesh(buf *meshBuffers) {
	gl.BindVertexArray(buf.vao)
	if buf.indexed {
		gl.DrawElements(gl.TRIANGLES, buf.indexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, buf.vertices)
	}
	gl.BindVertexArray(0)
}

// octahedronPositions returns the six vertices of an octahedron with the
// given radius, centered at the origin.
func octahedronPositions(radius float32) []float32 {
	return []float32{
		radius, 0, 0,
		-radius, 0, 0,
		0, radius, 0,
		0, -radius, 0,
		0, 0, radius,
		0, 0, -radius,
	}
}

func octahedronIndices() []uint32 {
	return []uint32{
		2, 0, 4,
		2, 4, 1,
		2, 1, 5,
		2, 5, 0,
		3, 4, 0,
		3, 1, 4,
		3, 5, 1,
		3, 0, 5,
	}
}
