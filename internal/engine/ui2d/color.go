package ui2d

// Color represents an RGBA color with float components (0.0 to 1.0).
type Color struct {
	R, G, B, A float32
}

// UI theme colors.
var (
	ColorPanelBg     = Color{0.08, 0.08, 0.12, 0.92}
	ColorPanelBorder = Color{0.3, 0.3, 0.4, 1}
	ColorRowActive   = Color{0.1, 0.3, 0.5, 1}
	ColorInputBg     = Color{0.05, 0.05, 0.08, 1}
	ColorText        = Color{0.9, 0.9, 0.9, 1}
	ColorTextDim     = Color{0.5, 0.5, 0.6, 1}
	ColorHighlight   = Color{0.2, 0.6, 0.9, 1}
	ColorError       = Color{0.9, 0.35, 0.3, 1}
)
