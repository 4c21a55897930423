// Package ui2d provides a simple 2D overlay rendering layer using OpenGL:
// solid panels and bitmap text drawn over the 3D viewport.
package ui2d

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/forma3d/formaview/internal/engine/shader"
)

const solidVertexShader = `
#version 410 core

layout (location = 0) in vec2 aPos;
layout (location = 1) in vec4 aColor;

uniform mat4 uProjection;

out vec4 vColor;

void main() {
	gl_Position = uProjection * vec4(aPos, 0.0, 1.0);
	vColor = aColor;
}
`

const solidFragmentShader = `
#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
	FragColor = vColor;
}
`

const textVertexShader = `
#version 410 core

layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aTexCoord;
layout (location = 2) in vec4 aColor;

uniform mat4 uProjection;

out vec2 vTexCoord;
out vec4 vColor;

void main() {
	gl_Position = uProjection * vec4(aPos, 0.0, 1.0);
	vTexCoord = aTexCoord;
	vColor = aColor;
}
`

const textFragmentShader = `
#version 410 core

uniform sampler2D uTexture;

in vec2 vTexCoord;
in vec4 vColor;
out vec4 FragColor;

void main() {
	float coverage = texture(uTexture, vTexCoord).r;
	FragColor = vec4(vColor.rgb, vColor.a * coverage);
}
`

// Renderer queues solid quads and glyph quads during a frame and flushes
// them in one pass over the 3D scene.
type Renderer struct {
	screenWidth  int
	screenHeight int

	solidProgram uint32
	textProgram  uint32

	solidProj int32
	textProj  int32
	textTex   int32

	solidVAO uint32
	solidVBO uint32
	textVAO  uint32
	textVBO  uint32

	solidVertices []float32
	textVertices  []float32

	font *Font
}

// New creates the overlay renderer. Requires a current GL context.
func New(width, height int) (*Renderer, error) {
	r := &Renderer{
		screenWidth:   width,
		screenHeight:  height,
		solidVertices: make([]float32, 0, 4096),
		textVertices:  make([]float32, 0, 4096),
	}

	var err error
	r.solidProgram, err = shader.CompileProgram(solidVertexShader, solidFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("solid shader: %w", err)
	}
	r.textProgram, err = shader.CompileProgram(textVertexShader, textFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("text shader: %w", err)
	}

	r.solidProj = shader.MustGetUniform(r.solidProgram, "uProjection")
	r.textProj = shader.MustGetUniform(r.textProgram, "uProjection")
	r.textTex = shader.MustGetUniform(r.textProgram, "uTexture")

	r.createSolidBuffers()
	r.createTextBuffers()
	r.font = NewFont()

	return r, nil
}

// Resize updates the screen dimensions.
func (r *Renderer) Resize(width, height int) {
	r.screenWidth = width
	r.screenHeight = height
}

// ScreenSize returns the current screen dimensions.
func (r *Renderer) ScreenSize() (int, int) {
	return r.screenWidth, r.screenHeight
}

// Begin starts a new overlay frame.
func (r *Renderer) Begin() {
	r.solidVertices = r.solidVertices[:0]
	r.textVertices = r.textVertices[:0]
}

// End flushes all queued elements on top of whatever is in the framebuffer.
func (r *Renderer) End() {
	var prevBlend, prevDepth int32
	gl.GetIntegerv(gl.BLEND, &prevBlend)
	gl.GetIntegerv(gl.DEPTH_TEST, &prevDepth)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)

	proj := orthoMatrix(0, float32(r.screenWidth), float32(r.screenHeight), 0)

	// Panels first, text on top.
	if len(r.solidVertices) > 0 {
		gl.UseProgram(r.solidProgram)
		gl.UniformMatrix4fv(r.solidProj, 1, false, &proj[0])

		gl.BindVertexArray(r.solidVAO)
		gl.BindBuffer(gl.ARRAY_BUFFER, r.solidVBO)
		gl.BufferData(gl.ARRAY_BUFFER, len(r.solidVertices)*4, unsafe.Pointer(&r.solidVertices[0]), gl.STREAM_DRAW)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(r.solidVertices)/6)) // 6 floats per vertex
	}

	if len(r.textVertices) > 0 && r.font != nil {
		gl.UseProgram(r.textProgram)
		gl.UniformMatrix4fv(r.textProj, 1, false, &proj[0])
		gl.Uniform1i(r.textTex, 0)

		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.font.TextureID())

		gl.BindVertexArray(r.textVAO)
		gl.BindBuffer(gl.ARRAY_BUFFER, r.textVBO)
		gl.BufferData(gl.ARRAY_BUFFER, len(r.textVertices)*4, unsafe.Pointer(&r.textVertices[0]), gl.STREAM_DRAW)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(r.textVertices)/8)) // 8 floats per vertex
	}

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)

	if prevBlend == gl.FALSE {
		gl.Disable(gl.BLEND)
	}
	if prevDepth == gl.TRUE {
		gl.Enable(gl.DEPTH_TEST)
	}
}

// Close releases renderer resources.
func (r *Renderer) Close() {
	if r.font != nil {
		r.font.Close()
	}
	if r.solidVAO != 0 {
		gl.DeleteVertexArrays(1, &r.solidVAO)
	}
	if r.solidVBO != 0 {
		gl.DeleteBuffers(1, &r.solidVBO)
	}
	if r.textVAO != 0 {
		gl.DeleteVertexArrays(1, &r.textVAO)
	}
	if r.textVBO != 0 {
		gl.DeleteBuffers(1, &r.textVBO)
	}
	if r.solidProgram != 0 {
		gl.DeleteProgram(r.solidProgram)
	}
	if r.textProgram != 0 {
		gl.DeleteProgram(r.textProgram)
	}
}

// DrawRect draws a filled rectangle.
func (r *Renderer) DrawRect(x, y, width, height float32, color Color) {
	r.addQuad(x, y, width, height, color)
}

// DrawRectOutline draws a rectangle outline.
func (r *Renderer) DrawRectOutline(x, y, width, height, thickness float32, color Color) {
	r.addQuad(x, y, width, thickness, color)
	r.addQuad(x, y+height-thickness, width, thickness, color)
	r.addQuad(x, y+thickness, thickness, height-thickness*2, color)
	r.addQuad(x+width-thickness, y+thickness, thickness, height-thickness*2, color)
}

// DrawPanel draws a panel with border.
func (r *Renderer) DrawPanel(x, y, width, height float32, bg, border Color) {
	r.DrawRect(x, y, width, height, bg)
	r.DrawRectOutline(x, y, width, height, 1, border)
}

// DrawText draws text at the given position.
func (r *Renderer) DrawText(x, y float32, text string, scale float32, color Color) {
	if r.font == nil {
		return
	}

	gw, gh := r.font.GlyphSize()
	charW := float32(gw) * scale
	charH := float32(gh) * scale

	curX := x
	for _, char := range text {
		if char == '\n' {
			curX = x
			y += charH
			continue
		}

		u0, v0, u1, v1 := r.font.GetGlyphUV(char)
		r.addGlyphQuad(curX, y, charW, charH, u0, v0, u1, v1, color)
		curX += charW
	}
}

// MeasureText returns the width and height of rendered text.
func (r *Renderer) MeasureText(text string, scale float32) (float32, float32) {
	if r.font == nil {
		return 0, 0
	}
	return r.font.MeasureText(text, scale)
}

// addQuad adds a solid color quad to the vertex buffer.
// Vertex format: x, y, r, g, b, a (6 floats).
func (r *Renderer) addQuad(x, y, w, h float32, c Color) {
	r.solidVertices = append(r.solidVertices,
		x, y, c.R, c.G, c.B, c.A,
		x+w, y, c.R, c.G, c.B, c.A,
		x+w, y+h, c.R, c.G, c.B, c.A,

		x, y, c.R, c.G, c.B, c.A,
		x+w, y+h, c.R, c.G, c.B, c.A,
		x, y+h, c.R, c.G, c.B, c.A,
	)
}

// addGlyphQuad adds a textured quad to the text vertex buffer.
// Vertex format: x, y, u, v, r, g, b, a (8 floats).
func (r *Renderer) addGlyphQuad(x, y, w, h, u0, v0, u1, v1 float32, c Color) {
	r.textVertices = append(r.textVertices,
		x, y, u0, v0, c.R, c.G, c.B, c.A,
		x+w, y, u1, v0, c.R, c.G, c.B, c.A,
		x+w, y+h, u1, v1, c.R, c.G, c.B, c.A,

		x, y, u0, v0, c.R, c.G, c.B, c.A,
		x+w, y+h, u1, v1, c.R, c.G, c.B, c.A,
		x, y+h, u0, v1, c.R, c.G, c.B, c.A,
	)
}

func (r *Renderer) createSolidBuffers() {
	gl.GenVertexArrays(1, &r.solidVAO)
	gl.BindVertexArray(r.solidVAO)

	gl.GenBuffers(1, &r.solidVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.solidVBO)

	// pos(2) + color(4) = 6 floats
	stride := int32(6 * 4)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, stride, 2*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (r *Renderer) createTextBuffers() {
	gl.GenVertexArrays(1, &r.textVAO)
	gl.BindVertexArray(r.textVAO)

	gl.GenBuffers(1, &r.textVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.textVBO)

	// pos(2) + texcoord(2) + color(4) = 8 floats
	stride := int32(8 * 4)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 2*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 4*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// orthoMatrix builds a top-left-origin orthographic projection.
func orthoMatrix(left, right, bottom, top float32) [16]float32 {
	return [16]float32{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, -1, 0,
		-(right + left) / (right - left), -(top + bottom) / (top - bottom), 0, 1,
	}
}
