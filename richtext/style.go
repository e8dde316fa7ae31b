package richtext

import "image/color"

// Capability tags what a style does to the text it covers.
type Capability uint8

const (
	// CapMetric styles change advances or vertical metrics.
	CapMetric Capability = 1 << iota
	// CapPaint styles only change how glyphs are painted.
	CapPaint
	// CapReplacement styles replace their range with an opaque object.
	CapReplacement
)

// Has reports whether all bits of c are set.
func (c Capability) Has(o Capability) bool { return c&o == o }

// Style is anything that can be attached to a range of a Text.
type Style interface {
	Capabilities() Capability
}

// MetricStyle alters the measurement state of a paint. The change also
// holds for drawing, so a metric style is never applied a second time as
// a paint style.
type MetricStyle interface {
	Style
	UpdateMeasure(p *Paint)
}

// PaintStyle alters the draw state of a paint.
type PaintStyle interface {
	Style
	UpdateDraw(p *Paint)
}

// Replacement is an opaque inline object that measures and draws itself.
type Replacement interface {
	Style
	Size(m Measurer, p Paint, t *Text, start, end int) (float64, FontMetrics)
	Draw(c Canvas, p Paint, t *Text, start, end int, x, top, y, bottom float64)
}

// RelativeSize scales the text size.
type RelativeSize float64

func (RelativeSize) Capabilities() Capability  { return CapMetric }
func (s RelativeSize) UpdateMeasure(p *Paint) { p.Size *= float64(s) }

// AbsoluteSize sets the text size in host units.
type AbsoluteSize float64

func (AbsoluteSize) Capabilities() Capability  { return CapMetric }
func (s AbsoluteSize) UpdateMeasure(p *Paint) { p.Size = float64(s) }

// Typeface switches family and/or face style. An empty Family keeps the
// current one.
type Typeface struct {
	Family string
	Style  FontStyle
}

func (Typeface) Capabilities() Capability { return CapMetric }

func (t Typeface) UpdateMeasure(p *Paint) {
	if t.Family != "" {
		p.Family = t.Family
	}
	p.Style = t.Style
}

// ScaleX stretches glyphs horizontally.
type ScaleX float64

func (ScaleX) Capabilities() Capability { return CapMetric }

func (s ScaleX) UpdateMeasure(p *Paint) { p.ScaleX = p.HorizontalScale() * float64(s) }

// Foreground sets the text color.
type Foreground color.RGBA

func (Foreground) Capabilities() Capability { return CapPaint }
func (f Foreground) UpdateDraw(p *Paint)    { p.Color = color.RGBA(f) }

// Background sets the fill drawn behind the text.
type Background color.RGBA

func (Background) Capabilities() Capability { return CapPaint }
func (b Background) UpdateDraw(p *Paint)    { p.Background = color.RGBA(b) }

// Underline turns underlining on.
type Underline struct{}

func (Underline) Capabilities() Capability { return CapPaint }
func (Underline) UpdateDraw(p *Paint)      { p.Underline = true }

// Strikethrough turns striking on.
type Strikethrough struct{}

func (Strikethrough) Capabilities() Capability { return CapPaint }
func (Strikethrough) UpdateDraw(p *Paint)      { p.Strikethrough = true }

// Box is a fixed size inline placeholder, for example an image. Ascent is
// the part above the baseline, so the box sits on the baseline when
// Ascent equals Height.
type Box struct {
	Width  float64
	Height float64
	Fill   color.RGBA
}

func (*Box) Capabilities() Capability { return CapReplacement }

func (b *Box) Size(_ Measurer, _ Paint, _ *Text, _, _ int) (float64, FontMetrics) {
	return b.Width, FontMetrics{Top: -b.Height, Ascent: -b.Height}
}

func (b *Box) Draw(c Canvas, p Paint, _ *Text, _, _ int, x, _, y, _ float64) {
	if b.Fill.A == 0 {
		return
	}
	p.Color = b.Fill
	c.DrawRect(x, y-b.Height, x+b.Width, y, p)
}
