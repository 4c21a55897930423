package ui2d

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

const (
	glyphWidth  = 8
	glyphHeight = 8

	firstGlyph = ' '
	lastGlyph  = '~'

	atlasCols   = 16
	atlasRows   = (lastGlyph - firstGlyph + atlasCols) / atlasCols
	atlasWidth  = atlasCols * glyphWidth
	atlasHeight = atlasRows * glyphHeight
)

// glyphRows is the builtin 8x8 bitmap font covering printable ASCII.
// One byte per pixel row, bit 7 leftmost.
var glyphRows = [lastGlyph - firstGlyph + 1][glyphHeight]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // space
	{0x20, 0x20, 0x20, 0x20, 0x20, 0x00, 0x20, 0x00}, // !
	{0x50, 0x50, 0x50, 0x00, 0x00, 0x00, 0x00, 0x00}, // "
	{0x50, 0x50, 0xF8, 0x50, 0xF8, 0x50, 0x50, 0x00}, // #
	{0x20, 0x78, 0xA0, 0x70, 0x28, 0xF0, 0x20, 0x00}, // $
	{0xC0, 0xC8, 0x10, 0x20, 0x40, 0x98, 0x18, 0x00}, // %
	{0x40, 0xA0, 0xA0, 0x40, 0xA8, 0x90, 0x68, 0x00}, // &
	{0x20, 0x20, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00}, // '
	{0x10, 0x20, 0x40, 0x40, 0x40, 0x20, 0x10, 0x00}, // (
	{0x40, 0x20, 0x10, 0x10, 0x10, 0x20, 0x40, 0x00}, // )
	{0x00, 0x20, 0xA8, 0x70, 0xA8, 0x20, 0x00, 0x00}, // *
	{0x00, 0x20, 0x20, 0xF8, 0x20, 0x20, 0x00, 0x00}, // +
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x20, 0x20, 0x40}, // ,
	{0x00, 0x00, 0x00, 0xF8, 0x00, 0x00, 0x00, 0x00}, // -
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x60, 0x60, 0x00}, // .
	{0x00, 0x08, 0x10, 0x20, 0x40, 0x80, 0x00, 0x00}, // /
	{0x70, 0x88, 0x98, 0xA8, 0xC8, 0x88, 0x70, 0x00}, // 0
	{0x20, 0x60, 0x20, 0x20, 0x20, 0x20, 0x70, 0x00}, // 1
	{0x70, 0x88, 0x08, 0x10, 0x20, 0x40, 0xF8, 0x00}, // 2
	{0xF8, 0x10, 0x20, 0x10, 0x08, 0x88, 0x70, 0x00}, // 3
	{0x10, 0x30, 0x50, 0x90, 0xF8, 0x10, 0x10, 0x00}, // 4
	{0xF8, 0x80, 0xF0, 0x08, 0x08, 0x88, 0x70, 0x00}, // 5
	{0x30, 0x40, 0x80, 0xF0, 0x88, 0x88, 0x70, 0x00}, // 6
	{0xF8, 0x08, 0x10, 0x20, 0x40, 0x40, 0x40, 0x00}, // 7
	{0x70, 0x88, 0x88, 0x70, 0x88, 0x88, 0x70, 0x00}, // 8
	{0x70, 0x88, 0x88, 0x78, 0x08, 0x10, 0x60, 0x00}, // 9
	{0x00, 0x60, 0x60, 0x00, 0x60, 0x60, 0x00, 0x00}, // :
	{0x00, 0x60, 0x60, 0x00, 0x60, 0x20, 0x40, 0x00}, // ;
	{0x10, 0x20, 0x40, 0x80, 0x40, 0x20, 0x10, 0x00}, // <
	{0x00, 0x00, 0xF8, 0x00, 0xF8, 0x00, 0x00, 0x00}, // =
	{0x40, 0x20, 0x10, 0x08, 0x10, 0x20, 0x40, 0x00}, // >
	{0x70, 0x88, 0x08, 0x10, 0x20, 0x00, 0x20, 0x00}, // ?
	{0x70, 0x88, 0xA8, 0xB8, 0xB0, 0x80, 0x78, 0x00}, // @
	{0x70, 0x88, 0x88, 0xF8, 0x88, 0x88, 0x88, 0x00}, // A
	{0xF0, 0x88, 0x88, 0xF0, 0x88, 0x88, 0xF0, 0x00}, // B
	{0x70, 0x88, 0x80, 0x80, 0x80, 0x88, 0x70, 0x00}, // C
	{0xE0, 0x90, 0x88, 0x88, 0x88, 0x90, 0xE0, 0x00}, // D
	{0xF8, 0x80, 0x80, 0xF0, 0x80, 0x80, 0xF8, 0x00}, // E
	{0xF8, 0x80, 0x80, 0xF0, 0x80, 0x80, 0x80, 0x00}, // F
	{0x70, 0x88, 0x80, 0xB8, 0x88, 0x88, 0x78, 0x00}, // G
	{0x88, 0x88, 0x88, 0xF8, 0x88, 0x88, 0x88, 0x00}, // H
	{0x70, 0x20, 0x20, 0x20, 0x20, 0x20, 0x70, 0x00}, // I
	{0x38, 0x10, 0x10, 0x10, 0x10, 0x90, 0x60, 0x00}, // J
	{0x88, 0x90, 0xA0, 0xC0, 0xA0, 0x90, 0x88, 0x00}, // K
	{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0xF8, 0x00}, // L
	{0x88, 0xD8, 0xA8, 0xA8, 0x88, 0x88, 0x88, 0x00}, // M
	{0x88, 0xC8, 0xA8, 0x98, 0x88, 0x88, 0x88, 0x00}, // N
	{0x70, 0x88, 0x88, 0x88, 0x88, 0x88, 0x70, 0x00}, // O
	{0xF0, 0x88, 0x88, 0xF0, 0x80, 0x80, 0x80, 0x00}, // P
	{0x70, 0x88, 0x88, 0x88, 0xA8, 0x90, 0x68, 0x00}, // Q
	{0xF0, 0x88, 0x88, 0xF0, 0xA0, 0x90, 0x88, 0x00}, // R
	{0x78, 0x80, 0x80, 0x70, 0x08, 0x08, 0xF0, 0x00}, // S
	{0xF8, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x00}, // T
	{0x88, 0x88, 0x88, 0x88, 0x88, 0x88, 0x70, 0x00}, // U
	{0x88, 0x88, 0x88, 0x88, 0x88, 0x50, 0x20, 0x00}, // V
	{0x88, 0x88, 0x88, 0xA8, 0xA8, 0xA8, 0x50, 0x00}, // W
	{0x88, 0x88, 0x50, 0x20, 0x50, 0x88, 0x88, 0x00}, // X
	{0x88, 0x88, 0x50, 0x20, 0x20, 0x20, 0x20, 0x00}, // Y
	{0xF8, 0x08, 0x10, 0x20, 0x40, 0x80, 0xF8, 0x00}, // Z
	{0x70, 0x40, 0x40, 0x40, 0x40, 0x40, 0x70, 0x00}, // [
	{0x00, 0x80, 0x40, 0x20, 0x10, 0x08, 0x00, 0x00}, // backslash
	{0x70, 0x10, 0x10, 0x10, 0x10, 0x10, 0x70, 0x00}, // ]
	{0x20, 0x50, 0x88, 0x00, 0x00, 0x00, 0x00, 0x00}, // ^
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF8}, // _
	{0x40, 0x20, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00}, // `
	{0x00, 0x00, 0x70, 0x08, 0x78, 0x88, 0x78, 0x00}, // a
	{0x80, 0x80, 0xF0, 0x88, 0x88, 0x88, 0xF0, 0x00}, // b
	{0x00, 0x00, 0x70, 0x80, 0x80, 0x88, 0x70, 0x00}, // c
	{0x08, 0x08, 0x78, 0x88, 0x88, 0x88, 0x78, 0x00}, // d
	{0x00, 0x00, 0x70, 0x88, 0xF8, 0x80, 0x70, 0x00}, // e
	{0x30, 0x48, 0x40, 0xE0, 0x40, 0x40, 0x40, 0x00}, // f
	{0x00, 0x00, 0x78, 0x88, 0x88, 0x78, 0x08, 0x70}, // g
	{0x80, 0x80, 0xF0, 0x88, 0x88, 0x88, 0x88, 0x00}, // h
	{0x20, 0x00, 0x60, 0x20, 0x20, 0x20, 0x70, 0x00}, // i
	{0x10, 0x00, 0x30, 0x10, 0x10, 0x10, 0x90, 0x60}, // j
	{0x80, 0x80, 0x90, 0xA0, 0xC0, 0xA0, 0x90, 0x00}, // k
	{0x60, 0x20, 0x20, 0x20, 0x20, 0x20, 0x70, 0x00}, // l
	{0x00, 0x00, 0xD0, 0xA8, 0xA8, 0xA8, 0xA8, 0x00}, // m
	{0x00, 0x00, 0xF0, 0x88, 0x88, 0x88, 0x88, 0x00}, // n
	{0x00, 0x00, 0x70, 0x88, 0x88, 0x88, 0x70, 0x00}, // o
	{0x00, 0x00, 0xF0, 0x88, 0x88, 0xF0, 0x80, 0x80}, // p
	{0x00, 0x00, 0x78, 0x88, 0x88, 0x78, 0x08, 0x08}, // q
	{0x00, 0x00, 0xB0, 0xC8, 0x80, 0x80, 0x80, 0x00}, // r
	{0x00, 0x00, 0x78, 0x80, 0x70, 0x08, 0xF0, 0x00}, // s
	{0x40, 0x40, 0xE0, 0x40, 0x40, 0x48, 0x30, 0x00}, // t
	{0x00, 0x00, 0x88, 0x88, 0x88, 0x98, 0x68, 0x00}, // u
	{0x00, 0x00, 0x88, 0x88, 0x88, 0x50, 0x20, 0x00}, // v
	{0x00, 0x00, 0x88, 0xA8, 0xA8, 0xA8, 0x50, 0x00}, // w
	{0x00, 0x00, 0x88, 0x50, 0x20, 0x50, 0x88, 0x00}, // x
	{0x00, 0x00, 0x88, 0x88, 0x88, 0x78, 0x08, 0x70}, // y
	{0x00, 0x00, 0xF8, 0x10, 0x20, 0x40, 0xF8, 0x00}, // z
	{0x18, 0x20, 0x20, 0x40, 0x20, 0x20, 0x18, 0x00}, // {
	{0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x00}, // |
	{0xC0, 0x20, 0x20, 0x10, 0x20, 0x20, 0xC0, 0x00}, // }
	{0x00, 0x00, 0x40, 0xA8, 0x10, 0x00, 0x00, 0x00}, // ~
}

// glyphIndex maps a rune to its atlas cell. Runes outside the table render
// as '?'.
func glyphIndex(r rune) int {
	if r < firstGlyph || r > lastGlyph {
		r = '?'
	}
	return int(r - firstGlyph)
}

// buildAtlas rasterizes the glyph table into a single-channel pixel sheet,
// atlasWidth by atlasHeight, one byte per pixel.
func buildAtlas() []byte {
	pixels := make([]byte, atlasWidth*atlasHeight)
	for i, rows := range glyphRows {
		cellX := (i % atlasCols) * glyphWidth
		cellY := (i / atlasCols) * glyphHeight
		for y, row := range rows {
			for x := 0; x < glyphWidth; x++ {
				if row&(0x80>>x) != 0 {
					pixels[(cellY+y)*atlasWidth+cellX+x] = 0xFF
				}
			}
		}
	}
	return pixels
}

// glyphUV returns the atlas texture coordinates of a rune's cell.
func glyphUV(r rune) (u0, v0, u1, v1 float32) {
	i := glyphIndex(r)
	col := float32(i % atlasCols)
	row := float32(i / atlasCols)
	u0 = col * glyphWidth / atlasWidth
	v0 = row * glyphHeight / atlasHeight
	u1 = u0 + float32(glyphWidth)/atlasWidth
	v1 = v0 + float32(glyphHeight)/atlasHeight
	return
}

// Font is the builtin glyph atlas uploaded as a GL texture.
type Font struct {
	texture uint32
}

// NewFont uploads the atlas. Requires a current GL context.
func NewFont() *Font {
	f := &Font{}

	pixels := buildAtlas()
	gl.GenTextures(1, &f.texture)
	gl.BindTexture(gl.TEXTURE_2D, f.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, atlasWidth, atlasHeight, 0,
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return f
}

// TextureID returns the GL texture handle of the atlas.
func (f *Font) TextureID() uint32 {
	return f.texture
}

// GlyphSize returns the unscaled cell size of one glyph.
func (f *Font) GlyphSize() (int, int) {
	return glyphWidth, glyphHeight
}

// GetGlyphUV returns the texture coordinates for a rune.
func (f *Font) GetGlyphUV(r rune) (u0, v0, u1, v1 float32) {
	return glyphUV(r)
}

// MeasureText returns the rendered size of text, honoring newlines.
func (f *Font) MeasureText(text string, scale float32) (float32, float32) {
	charW := float32(glyphWidth) * scale
	charH := float32(glyphHeight) * scale

	var maxCols, cols int
	lines := 1
	for _, r := range text {
		if r == '\n' {
			lines++
			cols = 0
			continue
		}
		cols++
		if cols > maxCols {
			maxCols = cols
		}
	}
	return float32(maxCols) * charW, float32(lines) * charH
}

// Close releases the atlas texture.
func (f *Font) Close() {
	if f.texture != 0 {
		gl.DeleteTextures(1, &f.texture)
		f.texture = 0
	}
}
