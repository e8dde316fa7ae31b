package ruby

import (
	"image/color"
	"math"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap/zaptest"

	"github.com/ByLCY/furigana/richtext"
)

// unitMeasurer gives every code point an advance of one em and derives the
// vertical metrics from the size with exact fractions.
type unitMeasurer struct{}

func (unitMeasurer) Advance(p richtext.Paint, s string) float64 {
	return float64(utf8.RuneCountInString(s)) * p.Size * p.HorizontalScale()
}

func (unitMeasurer) Metrics(p richtext.Paint) richtext.FontMetrics {
	return richtext.FontMetrics{
		Top:     -p.Size,
		Ascent:  -p.Size * 4 / 5,
		Descent: p.Size / 5,
		Bottom:  p.Size / 4,
	}
}

type op struct {
	kind       string
	text       string
	x, y       float64
	l, t, r, b float64
	paint      richtext.Paint
}

// recorder captures draw calls in order.
type recorder struct {
	ops []op
}

func (r *recorder) DrawRect(l, t, rt, b float64, p richtext.Paint) {
	r.ops = append(r.ops, op{kind: "rect", l: l, t: t, r: rt, b: b, paint: p})
}

func (r *recorder) DrawText(s string, start, end int, x, y float64, p richtext.Paint) {
	r.ops = append(r.ops, op{kind: "text", text: s[start:end], x: x, y: y, paint: p})
}

func (r *recorder) texts() []op {
	var out []op
	for _, o := range r.ops {
		if o.kind == "text" {
			out = append(out, o)
		}
	}
	return out
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	return NewEngine(unitMeasurer{}, opts)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func assertNear(t *testing.T, what string, got, want float64) {
	t.Helper()
	if !near(got, want) {
		t.Fatalf("%s: got %g want %g", what, got, want)
	}
}

// rubyText builds a host text whose whole content is covered by cell.
func rubyText(t *testing.T, base string, cell *Cell) *richtext.Text {
	t.Helper()
	b := richtext.NewBuilder().Append(base)
	if err := b.SetSpan(cell, 0, len(base)); err != nil {
		t.Fatalf("SetSpan: %v", err)
	}
	return b.Text()
}

// smaller returns s styled at half the ambient size.
func smaller(s string) *richtext.Text {
	return richtext.NewBuilder().AppendStyled(s, richtext.RelativeSize(0.5)).Text()
}

var basePaint = richtext.Paint{Size: 10, Color: color.RGBA{A: 255}}
