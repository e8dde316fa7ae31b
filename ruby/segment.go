package ruby

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/ByLCY/furigana/richtext"
)

// SegmentKind tells the variants of Segment apart.
type SegmentKind int

const (
	// Leaf is a styled run of text.
	Leaf SegmentKind = iota
	// Nested is a ruby cell occupying the whole segment.
	Nested
	// Opaque is any other replacement object.
	Opaque
)

func (k SegmentKind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Nested:
		return "nested"
	case Opaque:
		return "opaque"
	}
	return "unknown"
}

// MarshalText lets kinds show up by name in debug JSON.
func (k SegmentKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// StyleSet is the resolved set of styles covering one leaf segment.
type StyleSet struct {
	Metric []richtext.MetricStyle
	Paint  []richtext.PaintStyle
}

// Apply returns a copy of p with every style of the set applied.
func (s StyleSet) Apply(p richtext.Paint) richtext.Paint {
	for _, st := range s.Metric {
		st.UpdateMeasure(&p)
	}
	for _, st := range s.Paint {
		st.UpdateDraw(&p)
	}
	return p
}

// Segment is an atomic layout unit over [Start, End).
type Segment struct {
	Kind   SegmentKind          `json:"kind"`
	Start  int                  `json:"start"`
	End    int                  `json:"end"`
	Styles StyleSet             `json:"-"`
	Cell   *Cell                `json:"-"`
	Object richtext.Replacement `json:"-"`
}

// Segment splits [start, end) of t into atomic segments. Replacement spans
// always win over styling: when one starts inside the unit at the cursor,
// the cursor jumps to the furthest end among those spans and the whole
// range becomes one opaque segment, represented by the last of them. self
// is excluded from every query.
func (e *Engine) Segment(t *richtext.Text, start, end int, self richtext.Style) []Segment {
	if t == nil || end <= start {
		return nil
	}
	if end > t.Len() {
		end = t.Len()
	}
	replacements := t.Spans(start, end, richtext.CapReplacement, self)
	metrics := t.Spans(start, end, richtext.CapMetric, self)
	paints := t.Spans(start, end, richtext.CapPaint, self)
	s := t.String()

	var out []Segment
	cursor := start
	for cursor < end {
		unit := e.advance(s, cursor, end)
		next := unit

		var last *richtext.Span
		for _, sp := range replacements {
			if sp.Start < cursor || sp.Start >= unit {
				continue
			}
			last = sp
			if sp.End > next {
				next = sp.End
			}
		}
		if last != nil {
			if next > end {
				next = end
			}
			out = append(out, replacementSegment(last.Style, cursor, next))
			cursor = next
			continue
		}

		var set StyleSet
		for _, sp := range metrics {
			if sp.Start <= cursor && sp.End >= next {
				if ms, ok := sp.Style.(richtext.MetricStyle); ok {
					set.Metric = append(set.Metric, ms)
				}
			}
		}
		for _, sp := range paints {
			if sp.Start <= cursor && sp.End >= next {
				if ps, ok := sp.Style.(richtext.PaintStyle); ok {
					set.Paint = append(set.Paint, ps)
				}
			}
		}
		out = append(out, Segment{Kind: Leaf, Start: cursor, End: next, Styles: set})
		cursor = next
	}
	return out
}

func replacementSegment(st richtext.Style, start, end int) Segment {
	seg := Segment{Kind: Opaque, Start: start, End: end}
	switch r := st.(type) {
	case *Cell:
		seg.Kind = Nested
		seg.Cell = r
	case richtext.Replacement:
		seg.Object = r
	}
	return seg
}

// advance returns the offset following the unit at cursor.
func (e *Engine) advance(s string, cursor, end int) int {
	if e.grain == Grapheme {
		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s[cursor:end], -1)
		if n := len(cluster); n > 0 {
			return cursor + n
		}
	}
	_, n := utf8.DecodeRuneInString(s[cursor:end])
	if n <= 0 {
		n = 1
	}
	return cursor + n
}
