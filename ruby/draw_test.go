package ruby

import (
	"image/color"
	"testing"

	"github.com/ByLCY/furigana/richtext"
)

func TestDrawPlacesAnnotationAboveBase(t *testing.T) {
	e := newTestEngine(t, Options{})
	cell := NewCell(smaller("かんじ"))
	host := rubyText(t, "漢字", cell)

	var rec recorder
	if err := e.Draw(&rec, cell, basePaint, host, 0, host.Len(), 10, 86, 100, 102.5); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	want := []op{
		{text: "漢", x: 10, y: 100},
		{text: "字", x: 20, y: 100},
		{text: "か", x: 12.5, y: 91},
		{text: "ん", x: 17.5, y: 91},
		{text: "じ", x: 22.5, y: 91},
	}
	got := rec.texts()
	if len(got) != len(want) {
		t.Fatalf("got %d text ops, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].text != w.text || !near(got[i].x, w.x) || !near(got[i].y, w.y) {
			t.Fatalf("op %d: got %q at (%g,%g), want %q at (%g,%g)",
				i, got[i].text, got[i].x, got[i].y, w.text, w.x, w.y)
		}
	}
	if got[2].paint.Size != 5 {
		t.Fatalf("annotation size %g, want 5", got[2].paint.Size)
	}
}

func TestAnnotationTouchesBaseForEveryAlignment(t *testing.T) {
	e := newTestEngine(t, Options{})
	for _, ba := range []Alignment{Start, End, Center, Justify, JIS} {
		for _, aa := range []Alignment{Start, End, Center, Justify, JIS} {
			cell := NewAlignedCell(smaller("abcdef"), ba, aa)
			host := rubyText(t, "漢字", cell)
			l, err := e.Layout(cell, basePaint, host, 0, host.Len(), 0)
			if err != nil {
				t.Fatal(err)
			}
			const y = 50.0
			ay := AnnotationBaseline(l, y)
			if !near(ay+l.Annotation.Metrics.Descent, y+l.Base.Metrics.Ascent) {
				t.Fatalf("%s/%s: annotation descent %g, base ascent %g",
					ba, aa, ay+l.Annotation.Metrics.Descent, y+l.Base.Metrics.Ascent)
			}
		}
	}
}

func TestDrawBackgroundCoversInteriorGaps(t *testing.T) {
	e := newTestEngine(t, Options{})
	red := color.RGBA{R: 255, A: 255}
	cell := NewAlignedCell(richtext.Plain("wxyz"), Justify, Center)
	b := richtext.NewBuilder().AppendStyled("ab", richtext.Background(red))
	if err := b.SetSpan(cell, 0, 2); err != nil {
		t.Fatal(err)
	}
	host := b.Text()

	var rec recorder
	if err := e.Draw(&rec, cell, basePaint, host, 0, 2, 0, 86, 100, 102.5); err != nil {
		t.Fatal(err)
	}
	var rects []op
	for _, o := range rec.ops {
		if o.kind == "rect" {
			rects = append(rects, o)
		}
	}
	if len(rects) != 2 {
		t.Fatalf("got %d rects", len(rects))
	}
	if !near(rects[0].l, 0) || !near(rects[0].r, 20) || !near(rects[1].l, 20) || !near(rects[1].r, 40) {
		t.Fatalf("rect bounds: %+v %+v", rects[0], rects[1])
	}
	if !near(rects[0].t, 90) || !near(rects[0].b, 102.5) {
		t.Fatalf("rect extent: top %g bottom %g", rects[0].t, rects[0].b)
	}
	if rects[0].paint.Color != red {
		t.Fatalf("rect painted with %+v", rects[0].paint.Color)
	}
	if rec.ops[0].kind != "rect" {
		t.Fatalf("background must be drawn before the glyphs")
	}
}

func gapFillers(rec *recorder) []op {
	var out []op
	for _, o := range rec.texts() {
		if o.text == " " {
			out = append(out, o)
		}
	}
	return out
}

func TestDrawFillsJustifiedGapsForDecorations(t *testing.T) {
	cell := NewAlignedCell(richtext.Plain("uvwxyz"), Justify, Center)
	b := richtext.NewBuilder().AppendStyled("ab", richtext.Underline{})
	if err := b.SetSpan(cell, 0, 2); err != nil {
		t.Fatal(err)
	}
	host := b.Text()

	var rec recorder
	e := newTestEngine(t, Options{})
	if err := e.Draw(&rec, cell, basePaint, host, 0, 2, 0, 86, 100, 102.5); err != nil {
		t.Fatal(err)
	}
	fill := gapFillers(&rec)
	if len(fill) != 2 {
		t.Fatalf("got %d gap fillers", len(fill))
	}
	for _, f := range fill {
		if !near(f.paint.ScaleX, 2) || !f.paint.Underline {
			t.Fatalf("filler paint %+v", f.paint)
		}
	}
	if !near(fill[0].x, 10) || !near(fill[1].x, 30) {
		t.Fatalf("filler positions %g %g", fill[0].x, fill[1].x)
	}

	rec = recorder{}
	e = newTestEngine(t, Options{DisableGapFill: true})
	if err := e.Draw(&rec, cell, basePaint, host, 0, 2, 0, 86, 100, 102.5); err != nil {
		t.Fatal(err)
	}
	if n := len(gapFillers(&rec)); n != 0 {
		t.Fatalf("gap fill disabled but %d fillers drawn", n)
	}
}

func TestDrawNestedCells(t *testing.T) {
	e := newTestEngine(t, Options{})
	host, outer, _ := nestedHost(t, "A")

	var rec recorder
	if err := e.Draw(&rec, outer, basePaint, host, 0, host.Len(), 0, 80, 100, 102.5); err != nil {
		t.Fatal(err)
	}
	ys := map[string]float64{}
	for _, o := range rec.texts() {
		ys[o.text] = o.y
	}
	assertNear(t, "outer base", ys["A"], 100)
	assertNear(t, "inner base", ys["b"], 91)
	assertNear(t, "inner annotation", ys["x"], 86.5)
}

func TestDrawOpaqueInsideAnnotation(t *testing.T) {
	e := newTestEngine(t, Options{})
	fill := color.RGBA{B: 255, A: 255}
	ann := richtext.NewBuilder().AppendStyled("￼", &richtext.Box{Width: 4, Height: 4, Fill: fill}).Text()
	cell := NewCell(ann)
	host := rubyText(t, "ab", cell)

	var rec recorder
	if err := e.Draw(&rec, cell, basePaint, host, 0, host.Len(), 0, 80, 100, 102.5); err != nil {
		t.Fatal(err)
	}
	var box *op
	for i := range rec.ops {
		if rec.ops[i].kind == "rect" {
			box = &rec.ops[i]
		}
	}
	if box == nil {
		t.Fatalf("box not drawn")
	}
	// centered in a 20 wide cell, sitting on the annotation baseline 92
	if !near(box.l, 8) || !near(box.r, 12) || !near(box.b, 92) || !near(box.t, 88) {
		t.Fatalf("box at %+v", *box)
	}
}
