package ruby

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ByLCY/furigana/richtext"
)

// SizedSegment is a Segment after measurement and, once a side has been
// distributed, with its padding and placement filled in.
type SizedSegment struct {
	Segment
	Width       float64              `json:"width"`
	Metrics     richtext.FontMetrics `json:"metrics"`
	Paint       richtext.Paint       `json:"paint"`
	SpaceBefore float64              `json:"spaceBefore"`
	SpaceAfter  float64              `json:"spaceAfter"`
	// X is the left edge of the content relative to the side origin.
	X float64 `json:"x"`
	// Nested is the layout of a nested cell stretched to its slot.
	Nested *Layout `json:"nested,omitempty"`
}

// Slot is the full horizontal extent allotted to the segment.
func (s *SizedSegment) Slot() float64 { return s.SpaceBefore + s.Width + s.SpaceAfter }

// Side holds the segments of one side of a cell and their merged metrics.
type Side struct {
	Text     *richtext.Text       `json:"-"`
	Segments []*SizedSegment      `json:"segments"`
	Metrics  richtext.FontMetrics `json:"metrics"`
	// Width is the natural width, the plain sum of segment widths.
	Width float64 `json:"width"`
}

// Layout is the complete placement of one ruby cell.
type Layout struct {
	Base       Side `json:"base"`
	Annotation Side `json:"annotation"`
	// Width is round(max(base, annotation, expand)).
	Width float64 `json:"width"`
	// Metrics is the combined extent reported to the host.
	Metrics         richtext.FontMetrics `json:"metrics"`
	BaseAlign       Alignment            `json:"baseAlign"`
	AnnotationAlign Alignment            `json:"annotationAlign"`
	Depth           int                  `json:"depth"`
}

// MergeMetrics folds m into acc: the highest ascent and top, the lowest
// descent and bottom, the largest leading.
func MergeMetrics(acc, m richtext.FontMetrics) richtext.FontMetrics {
	acc.Ascent = math.Min(acc.Ascent, m.Ascent)
	acc.Top = math.Min(acc.Top, m.Top)
	acc.Descent = math.Max(acc.Descent, m.Descent)
	acc.Bottom = math.Max(acc.Bottom, m.Bottom)
	acc.Leading = math.Max(acc.Leading, m.Leading)
	return acc
}

// Stack combines base and annotation metrics with the annotation block
// sitting on top of the base ascent line.
func Stack(base, annotation richtext.FontMetrics) richtext.FontMetrics {
	return richtext.FontMetrics{
		Ascent:  base.Ascent + (annotation.Ascent - annotation.Descent),
		Top:     base.Ascent + (annotation.Top - annotation.Descent),
		Descent: base.Descent,
		Bottom:  base.Bottom,
		Leading: base.Leading,
	}
}

// Measure sizes every segment of [start, end) of t with p as the ambient
// paint. self is skipped in style queries.
func (e *Engine) Measure(p richtext.Paint, t *richtext.Text, start, end int, self richtext.Style) (Side, error) {
	return e.measure(p, t, start, end, self, 0)
}

func (e *Engine) measure(p richtext.Paint, t *richtext.Text, start, end int, self richtext.Style, depth int) (Side, error) {
	side := Side{Text: t}
	for _, seg := range e.Segment(t, start, end, self) {
		sized := &SizedSegment{Segment: seg, Paint: p}
		switch seg.Kind {
		case Leaf:
			sized.Paint = seg.Styles.Apply(p)
			sized.Width = e.m.Advance(sized.Paint, t.Slice(seg.Start, seg.End))
			sized.Metrics = e.m.Metrics(sized.Paint)
		case Nested:
			nested, err := e.layout(seg.Cell, p, t, seg.Start, seg.End, 0, depth+1)
			if err != nil {
				return side, err
			}
			sized.Width = nested.Width
			sized.Metrics = nested.Metrics
			sized.Nested = nested
		case Opaque:
			if seg.Object != nil {
				sized.Width, sized.Metrics = seg.Object.Size(e.m, p, t, seg.Start, seg.End)
			}
		}
		side.Width += sized.Width
		side.Metrics = MergeMetrics(side.Metrics, sized.Metrics)
		side.Segments = append(side.Segments, sized)
	}
	return side, nil
}

// Layout lays cell out over [start, end) of the host text t. The cell is at
// least expand wide; pass 0 for its natural width.
func (e *Engine) Layout(cell *Cell, p richtext.Paint, t *richtext.Text, start, end int, expand float64) (*Layout, error) {
	return e.layout(cell, p, t, start, end, expand, 0)
}

func (e *Engine) layout(cell *Cell, p richtext.Paint, t *richtext.Text, start, end int, expand float64, depth int) (*Layout, error) {
	if cell == nil {
		return nil, fmt.Errorf("ruby: nil cell")
	}
	if depth > e.maxDepth {
		e.log.Warn("Ruby nesting limit reached", zap.Int("depth", depth), zap.Int("limit", e.maxDepth))
		return nil, fmt.Errorf("%w: more than %d levels", ErrNestingTooDeep, e.maxDepth)
	}
	l := &Layout{BaseAlign: cell.base, AnnotationAlign: cell.over, Depth: depth}
	if end <= start {
		e.log.Debug("Empty ruby range", zap.Int("start", start), zap.Int("end", end))
		return l, nil
	}

	base, err := e.measure(p, t, start, end, cell, depth)
	if err != nil {
		return nil, err
	}
	// the annotation follows the size resolved for the first base segment
	inherit := p
	if len(base.Segments) > 0 {
		inherit.Size = base.Segments[0].Paint.Size
	}
	ann := cell.annotation
	over, err := e.measure(inherit, ann, 0, ann.Len(), cell, depth)
	if err != nil {
		return nil, err
	}

	l.Width = math.Round(math.Max(math.Max(base.Width, over.Width), expand))
	Distribute(base.Segments, l.Width, cell.base)
	Distribute(over.Segments, l.Width, cell.over)
	if err := e.place(&base, depth); err != nil {
		return nil, err
	}
	if err := e.place(&over, depth); err != nil {
		return nil, err
	}
	l.Base, l.Annotation = base, over
	l.Metrics = Stack(base.Metrics, over.Metrics)

	e.log.Debug("Ruby cell laid out",
		zap.Int("depth", depth),
		zap.Float64("width", l.Width),
		zap.Float64("base", base.Width),
		zap.Float64("annotation", over.Width),
		zap.Stringer("baseAlign", cell.base),
		zap.Stringer("annotationAlign", cell.over))
	return l, nil
}

// place assigns X offsets along the side and stretches nested cells to the
// slot the distribution gave them.
func (e *Engine) place(side *Side, depth int) error {
	cursor := 0.0
	for _, seg := range side.Segments {
		seg.X = cursor + seg.SpaceBefore
		if seg.Kind == Nested && seg.Nested != nil {
			if slot := seg.Slot(); slot > seg.Nested.Width {
				nested, err := e.layout(seg.Cell, seg.Paint, side.Text, seg.Start, seg.End, slot, depth+1)
				if err != nil {
					return err
				}
				seg.Nested = nested
			}
		}
		cursor += seg.Slot()
	}
	return nil
}

// Size implements the host measurement contract: the rounded advance of
// the cell and its combined vertical metrics.
func (e *Engine) Size(cell *Cell, p richtext.Paint, t *richtext.Text, start, end int) (int, richtext.FontMetrics, error) {
	l, err := e.layout(cell, p, t, start, end, 0, 0)
	if err != nil {
		return 0, richtext.FontMetrics{}, err
	}
	return int(l.Width), l.Metrics, nil
}
