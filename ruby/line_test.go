package ruby

import (
	"testing"

	"github.com/ByLCY/furigana/richtext"
)

func TestMeasureLineMergesRuns(t *testing.T) {
	e := newTestEngine(t, Options{})
	cell := NewCell(smaller("かんじ"))
	b := richtext.NewBuilder().Append("ab")
	start := b.Len()
	b.Append("漢字")
	if err := b.SetSpan(cell, start, b.Len()); err != nil {
		t.Fatal(err)
	}
	b.AppendStyled("cd", richtext.Underline{})
	host := b.Text()

	line, err := e.MeasureLine(basePaint, host)
	if err != nil {
		t.Fatalf("MeasureLine: %v", err)
	}
	kinds := []SegmentKind{Leaf, Nested, Leaf}
	if len(line.Segments) != len(kinds) {
		t.Fatalf("got %d runs", len(line.Segments))
	}
	for i, k := range kinds {
		if line.Segments[i].Kind != k {
			t.Fatalf("run %d: %s want %s", i, line.Segments[i].Kind, k)
		}
	}
	assertNear(t, "width", line.Width, 60)
	assertNear(t, "cell x", line.Segments[1].X, 20)
	assertNear(t, "tail x", line.Segments[2].X, 40)
	assertNear(t, "ascent", line.Metrics.Ascent, -13)

	var rec recorder
	e.DrawLine(&rec, line, 5, 100)
	texts := rec.texts()
	if texts[0].text != "ab" || !near(texts[0].x, 5) {
		t.Fatalf("first run: %+v", texts[0])
	}
	last := texts[len(texts)-1]
	if last.text != "cd" || !near(last.x, 45) || !last.paint.Underline {
		t.Fatalf("last run: %+v", last)
	}
}

func TestMeasureLineEmpty(t *testing.T) {
	e := newTestEngine(t, Options{})
	line, err := e.MeasureLine(basePaint, richtext.Plain(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(line.Segments) != 0 || line.Width != 0 {
		t.Fatalf("empty line: %+v", line)
	}
}
