package ruby

import (
	"github.com/ByLCY/furigana/richtext"
)

// Draw lays cell out over [start, end) of t and renders it with the base
// baseline at y and the left edge at x. top and bottom are the line box
// the host reserved for the cell.
func (e *Engine) Draw(c richtext.Canvas, cell *Cell, p richtext.Paint, t *richtext.Text, start, end int, x, top, y, bottom float64) error {
	l, err := e.layout(cell, p, t, start, end, 0, 0)
	if err != nil {
		return err
	}
	e.Render(c, l, x, top, y, bottom)
	return nil
}

// Render issues the draw calls for a finished layout. The annotation
// baseline is placed so that its descent line coincides with the base
// ascent line.
func (e *Engine) Render(c richtext.Canvas, l *Layout, x, top, y, bottom float64) {
	if l == nil || len(l.Base.Segments) == 0 && len(l.Annotation.Segments) == 0 {
		return
	}
	e.renderSide(c, &l.Base, x, top, y, bottom)

	ay := AnnotationBaseline(l, y)
	e.renderSide(c, &l.Annotation, x, ay+l.Annotation.Metrics.Top, ay, ay+l.Annotation.Metrics.Bottom)
}

// AnnotationBaseline returns the annotation baseline for a cell whose base
// baseline sits at y.
func AnnotationBaseline(l *Layout, y float64) float64 {
	return y + l.Base.Metrics.Ascent - l.Annotation.Metrics.Descent
}

func (e *Engine) renderSide(c richtext.Canvas, side *Side, x, top, y, bottom float64) {
	n := len(side.Segments)
	cursor := x
	for i, seg := range side.Segments {
		if seg.Kind == Leaf && seg.Paint.HasBackground() {
			e.fillBackground(c, seg, cursor, y, i == 0, i == n-1)
		}
		switch seg.Kind {
		case Leaf:
			s := side.Text.String()
			c.DrawText(s, seg.Start, seg.End, cursor+seg.SpaceBefore, y, seg.Paint)
			if e.fillGaps {
				if i > 0 {
					e.fillGap(c, seg.Paint, cursor, seg.SpaceBefore, y)
				}
				if i < n-1 {
					e.fillGap(c, seg.Paint, cursor+seg.SpaceBefore+seg.Width, seg.SpaceAfter, y)
				}
			}
		case Nested:
			if seg.Nested != nil {
				e.Render(c, seg.Nested, cursor, top, y, bottom)
			}
		case Opaque:
			if seg.Object != nil {
				seg.Object.Draw(c, seg.Paint, side.Text, seg.Start, seg.End, cursor+seg.SpaceBefore, top, y, bottom)
			}
		}
		cursor += seg.Slot()
	}
}

// fillBackground covers the segment and its interior padding. The outer
// padding of edge segments is left to whatever surrounds the cell.
func (e *Engine) fillBackground(c richtext.Canvas, seg *SizedSegment, cursor, y float64, first, last bool) {
	left := cursor
	if first {
		left += seg.SpaceBefore
	}
	right := cursor + seg.SpaceBefore + seg.Width
	if !last {
		right += seg.SpaceAfter
	}
	p := seg.Paint
	p.Color = p.Background
	c.DrawRect(left, y+seg.Metrics.Top, right, y+seg.Metrics.Bottom, p)
}

// fillGap stretches a single space over an interior gap so decorations
// carry across it.
func (e *Engine) fillGap(c richtext.Canvas, p richtext.Paint, x, gap, y float64) {
	if gap <= 0 || !p.Underline && !p.Strikethrough {
		return
	}
	adv := e.m.Advance(p, " ")
	if adv <= 0 {
		return
	}
	p.ScaleX = p.HorizontalScale() * gap / adv
	c.DrawText(" ", 0, 1, x, y, p)
}
