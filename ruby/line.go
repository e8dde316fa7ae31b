package ruby

import (
	"github.com/ByLCY/furigana/richtext"
)

// MeasureLine lays out the whole of t as a single unbroken line: ruby cells
// and other replacements become atomic segments, and consecutive leaf
// segments sharing a paint are merged into runs.
func (e *Engine) MeasureLine(p richtext.Paint, t *richtext.Text) (*Side, error) {
	side, err := e.measure(p, t, 0, t.Len(), nil, 0)
	if err != nil {
		return nil, err
	}
	side.Segments = e.mergeRuns(t, side.Segments)

	x := 0.0
	side.Width = 0
	for _, seg := range side.Segments {
		seg.X = x
		x += seg.Width
		side.Width += seg.Width
	}
	return &side, nil
}

func (e *Engine) mergeRuns(t *richtext.Text, segs []*SizedSegment) []*SizedSegment {
	if len(segs) < 2 {
		return segs
	}
	out := segs[:1]
	for _, seg := range segs[1:] {
		prev := out[len(out)-1]
		if prev.Kind == Leaf && seg.Kind == Leaf && prev.Paint == seg.Paint && prev.End == seg.Start {
			prev.End = seg.End
			prev.Width = e.m.Advance(prev.Paint, t.Slice(prev.Start, prev.End))
			continue
		}
		out = append(out, seg)
	}
	return out
}

// DrawLine renders a measured line with its left edge at x and baseline
// at y.
func (e *Engine) DrawLine(c richtext.Canvas, line *Side, x, y float64) {
	if line == nil {
		return
	}
	e.renderSide(c, line, x, y+line.Metrics.Top, y, y+line.Metrics.Bottom)
}
