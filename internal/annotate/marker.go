package annotate

import (
	"github.com/forma3d/formaview/pkg/math"
)

// Marker is one renderable annotation indicator.
type Marker struct {
	AnnotationID string
	Position     math.Vec3
	Color        [3]float32
	Selected     bool
}

// Markers rebuilds the marker set from the current annotation list. Counts
// are small, so a full rebuild beats tracking incremental diffs.
func (m *Manager) Markers() []Marker {
	markers := make([]Marker, len(m.list))
	for i, a := range m.list {
		markers[i] = Marker{
			AnnotationID: a.ID,
			Position:     a.Position,
			Color:        AuthorColor(a.AuthorID),
			Selected:     a.ID == m.selected,
		}
	}
	return markers
}

// markerHues are the hue stops markers cycle through, in degrees.
var markerHues = [...]float32{0, 30, 60, 120, 180, 220, 270, 310}

const (
	markerSaturation = 0.7
	markerLightness  = 0.5
)

// AuthorColor derives a stable RGB color from an author id, so one user's
// markers always look alike. Unknown authors get a neutral gray.
func AuthorColor(authorID string) [3]float32 {
	if authorID == "" {
		return [3]float32{0.61, 0.64, 0.69}
	}

	var h int32
	for _, r := range authorID {
		h = h<<5 - h + r
	}
	if h < 0 {
		h = -h
	}
	hue := markerHues[int(h)%len(markerHues)]

	return hslToRGB(hue, markerSaturation, markerLightness)
}

func hslToRGB(hue, s, l float32) [3]float32 {
	c := (1 - absf(2*l-1)) * s
	x := c * (1 - absf(modf(hue/60, 2)-1))
	m := l - c/2

	var r, g, b float32
	switch {
	case hue < 60:
		r, g, b = c, x, 0
	case hue < 120:
		r, g, b = x, c, 0
	case hue < 180:
		r, g, b = 0, c, x
	case hue < 240:
		r, g, b = 0, x, c
	case hue < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return [3]float32{r + m, g + m, b + m}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func modf(x, y float32) float32 {
	for x >= y {
		x -= y
	}
	return x
}
