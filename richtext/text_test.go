package richtext

import (
	"image/color"
	"testing"
)

func TestSpansFilterByCapability(t *testing.T) {
	b := NewBuilder()
	b.AppendStyled("ab", RelativeSize(0.5), Foreground(color.RGBA{R: 255, A: 255}))
	b.Append("cd")
	txt := b.Text()

	if got := len(txt.Spans(0, txt.Len(), CapMetric, nil)); got != 1 {
		t.Fatalf("metric spans: got %d want 1", got)
	}
	if got := len(txt.Spans(0, txt.Len(), CapPaint, nil)); got != 1 {
		t.Fatalf("paint spans: got %d want 1", got)
	}
	if got := len(txt.Spans(2, 4, CapPaint, nil)); got != 0 {
		t.Fatalf("spans outside [2,4) leaked: %d", got)
	}
}

func TestSpansExcludeByIdentity(t *testing.T) {
	first := &Box{Width: 1, Height: 1}
	second := &Box{Width: 1, Height: 1} // same value, different instance
	b := NewBuilder()
	b.AppendStyled("x", first, second)
	txt := b.Text()

	got := txt.Spans(0, 1, CapReplacement, first)
	if len(got) != 1 {
		t.Fatalf("expected one span after exclusion, got %d", len(got))
	}
	if got[0].Style != second {
		t.Fatalf("exclusion removed the wrong instance")
	}
}

func TestSetSpanValidatesRange(t *testing.T) {
	b := NewBuilder().Append("漢字")
	if err := b.SetSpan(Underline{}, 0, 10); err == nil {
		t.Fatalf("out of range span accepted")
	}
	if err := b.SetSpan(Underline{}, 1, 3); err == nil {
		t.Fatalf("span splitting a code point accepted")
	}
	if err := b.SetSpan(Underline{}, 0, 3); err != nil {
		t.Fatalf("valid span rejected: %v", err)
	}
	if err := b.SetSpan(nil, 0, 3); err == nil {
		t.Fatalf("nil style accepted")
	}
}

func TestBuilderSnapshotIsImmutable(t *testing.T) {
	b := NewBuilder().Append("a")
	snap := b.Text()
	b.AppendStyled("b", Underline{})
	if snap.String() != "a" || len(snap.AllSpans()) != 0 {
		t.Fatalf("snapshot observed later appends: %q %d", snap.String(), len(snap.AllSpans()))
	}
}

func TestPaintStylesCompose(t *testing.T) {
	p := Paint{Size: 20}
	RelativeSize(0.5).UpdateMeasure(&p)
	ScaleX(2).UpdateMeasure(&p)
	Underline{}.UpdateDraw(&p)
	if p.Size != 10 || p.HorizontalScale() != 2 || !p.Underline {
		t.Fatalf("unexpected paint %+v", p)
	}
	if p.HasBackground() {
		t.Fatalf("background reported without a fill")
	}
}

func TestWrapOrdersGroupBeforeInner(t *testing.T) {
	b := NewBuilder().Append("x")
	m := b.Mark()
	b.AppendStyled("ab", AbsoluteSize(3))
	if err := b.Wrap(m, AbsoluteSize(9)); err != nil {
		t.Fatal(err)
	}
	spans := b.Text().Spans(1, 3, CapMetric, nil)
	if len(spans) != 2 {
		t.Fatalf("got %d spans", len(spans))
	}
	p := Paint{}
	for _, sp := range spans {
		sp.Style.(MetricStyle).UpdateMeasure(&p)
	}
	if p.Size != 3 {
		t.Fatalf("inner size should win, got %g", p.Size)
	}
	if spans[0].Start != 1 || spans[0].End != 3 {
		t.Fatalf("group span covers [%d,%d)", spans[0].Start, spans[0].End)
	}
}
