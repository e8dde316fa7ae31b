package ruby

import (
	"image/color"
	"testing"

	"github.com/ByLCY/furigana/richtext"
)

func checkCoverage(t *testing.T, segs []Segment, start, end int) {
	t.Helper()
	cursor := start
	for _, s := range segs {
		if s.Start != cursor || s.End <= s.Start {
			t.Fatalf("segments not contiguous at %d: %+v", cursor, s)
		}
		cursor = s.End
	}
	if cursor != end {
		t.Fatalf("segments cover up to %d, want %d", cursor, end)
	}
}

func TestSegmentCodePoints(t *testing.T) {
	e := newTestEngine(t, Options{})
	txt := richtext.Plain("a漢b")
	segs := e.Segment(txt, 0, txt.Len(), nil)
	if len(segs) != 3 {
		t.Fatalf("got %d segments", len(segs))
	}
	checkCoverage(t, segs, 0, txt.Len())
	if segs[1].Start != 1 || segs[1].End != 4 {
		t.Fatalf("multi byte code point split: %+v", segs[1])
	}
}

func TestSegmentGraphemes(t *testing.T) {
	s := "e\u0301x"
	txt := richtext.Plain(s)

	cp := newTestEngine(t, Options{}).Segment(txt, 0, txt.Len(), nil)
	if len(cp) != 3 {
		t.Fatalf("code point segments: %d", len(cp))
	}
	gr := newTestEngine(t, Options{Granularity: Grapheme}).Segment(txt, 0, txt.Len(), nil)
	if len(gr) != 2 {
		t.Fatalf("grapheme segments: %d", len(gr))
	}
	checkCoverage(t, gr, 0, txt.Len())
}

func TestSegmentReplacementsAreOpaque(t *testing.T) {
	e := newTestEngine(t, Options{})
	box := &richtext.Box{Width: 3, Height: 3}
	inner := NewCell(richtext.Plain("r"))
	b := richtext.NewBuilder().Append("a")
	b.AppendStyled("bc", box)
	b.Append("d")
	b.AppendStyled("ef", inner, richtext.Underline{})
	txt := b.Text()

	segs := e.Segment(txt, 0, txt.Len(), nil)
	checkCoverage(t, segs, 0, txt.Len())
	kinds := []SegmentKind{Leaf, Opaque, Leaf, Nested}
	if len(segs) != len(kinds) {
		t.Fatalf("got %d segments: %+v", len(segs), segs)
	}
	for i, k := range kinds {
		if segs[i].Kind != k {
			t.Fatalf("segment %d: got %s want %s", i, segs[i].Kind, k)
		}
	}
	if segs[1].Object != box || segs[3].Cell != inner {
		t.Fatalf("replacement identity lost")
	}
}

func TestSegmentResolvesCoveringStyles(t *testing.T) {
	e := newTestEngine(t, Options{})
	red := color.RGBA{R: 255, A: 255}
	b := richtext.NewBuilder()
	b.AppendStyled("ab", richtext.RelativeSize(2), richtext.Foreground(red))
	b.Append("c")
	txt := b.Text()

	segs := e.Segment(txt, 0, txt.Len(), nil)
	if len(segs[0].Styles.Metric) != 1 || len(segs[0].Styles.Paint) != 1 {
		t.Fatalf("styles of first segment: %+v", segs[0].Styles)
	}
	if len(segs[2].Styles.Metric) != 0 || len(segs[2].Styles.Paint) != 0 {
		t.Fatalf("styles leaked onto unstyled text")
	}
	p := segs[0].Styles.Apply(richtext.Paint{Size: 10})
	if p.Size != 20 || p.Color != red {
		t.Fatalf("resolved paint %+v", p)
	}
}

func TestSegmentEmptyRange(t *testing.T) {
	e := newTestEngine(t, Options{})
	if segs := e.Segment(richtext.Plain("abc"), 2, 2, nil); len(segs) != 0 {
		t.Fatalf("empty range produced %d segments", len(segs))
	}
	if segs := e.Segment(nil, 0, 3, nil); len(segs) != 0 {
		t.Fatalf("nil text produced %d segments", len(segs))
	}
}
