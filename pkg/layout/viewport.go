package layout

import "math"

// Extent is the size of the drawing surface needed for a layout.
type Extent struct {
	MaxWidth  float64 `json:"max_width"`
	MaxHeight float64 `json:"max_height"`
}

// ExtentOf returns the right-most box edge and the lowest box top of l.
// MaxHeight is the largest node y, not y + height; hosts pad the surface
// themselves. An empty layout has a zero extent.
func ExtentOf(l Layout) Extent {
	if len(l.Nodes) == 0 {
		return Extent{}
	}
	ext := Extent{MaxWidth: math.Inf(-1), MaxHeight: math.Inf(-1)}
	for _, b := range l.Nodes {
		ext.MaxWidth = math.Max(ext.MaxWidth, b.X+b.Width)
		ext.MaxHeight = math.Max(ext.MaxHeight, b.Y)
	}
	return ext
}
