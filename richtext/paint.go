package richtext

import "image/color"

// FontStyle selects a face inside a font family.
type FontStyle int

const (
	StyleRegular FontStyle = iota
	StyleBold
	StyleItalic
	StyleBoldItalic
)

// Paint is the resolved drawing state for one run of text. It is a plain
// value: copying a Paint clones it, so styles never leak between runs.
type Paint struct {
	Family        string     `json:"family,omitempty"`
	Style         FontStyle  `json:"style,omitempty"`
	Size          float64    `json:"size"`
	Color         color.RGBA `json:"color"`
	Background    color.RGBA `json:"background"`
	Underline     bool       `json:"underline,omitempty"`
	Strikethrough bool       `json:"strikethrough,omitempty"`
	// ScaleX stretches glyph advances horizontally, 0 means 1.
	ScaleX float64 `json:"scaleX,omitempty"`
}

// HasBackground reports whether a background fill is requested.
func (p Paint) HasBackground() bool { return p.Background.A != 0 }

// HorizontalScale returns ScaleX with the zero value mapped to 1.
func (p Paint) HorizontalScale() float64 {
	if p.ScaleX == 0 {
		return 1
	}
	return p.ScaleX
}

// FontMetrics follows the usual raster convention: y grows downward, so
// Top and Ascent are negative offsets from the baseline, Descent and
// Bottom positive ones.
type FontMetrics struct {
	Top     float64 `json:"top"`
	Ascent  float64 `json:"ascent"`
	Descent float64 `json:"descent"`
	Bottom  float64 `json:"bottom"`
	Leading float64 `json:"leading"`
}

// Height is the distance between the ascent and descent lines.
func (m FontMetrics) Height() float64 { return m.Descent - m.Ascent }

// Measurer is the host font system queried for advances and metrics.
type Measurer interface {
	Advance(p Paint, s string) float64
	Metrics(p Paint) FontMetrics
}

// Canvas receives the primitive draw commands.
type Canvas interface {
	DrawRect(left, top, right, bottom float64, p Paint)
	DrawText(s string, start, end int, x, y float64, p Paint)
}
