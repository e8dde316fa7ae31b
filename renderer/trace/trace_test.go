package trace

import (
	"encoding/json"
	"math"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ByLCY/furigana/dsl"
	"github.com/ByLCY/furigana/layout"
	"github.com/ByLCY/furigana/richtext"
	"github.com/ByLCY/furigana/ruby"
)

func TestMeasurerUsesCellWidths(t *testing.T) {
	m := NewMeasurer()
	p := richtext.Paint{Size: 10}
	cases := map[string]float64{"a": 5, "漢": 10, "かな": 20, "": 0}
	for s, want := range cases {
		if got := m.Advance(p, s); math.Abs(got-want) > 1e-9 {
			t.Fatalf("Advance(%q) = %g，期望 %g", s, got, want)
		}
	}
	p.ScaleX = 0.5
	if got := m.Advance(p, "漢"); got != 5 {
		t.Fatalf("ScaleX 未生效: %g", got)
	}
	if mt := m.Metrics(richtext.Paint{Size: 10}); mt.Ascent != -8 || mt.Bottom != 2.5 {
		t.Fatalf("度量错误: %+v", mt)
	}
}

func TestRecordPlacesAnnotationAboveBase(t *testing.T) {
	r := New(ruby.Options{Logger: zaptest.NewLogger(t)})
	doc, err := dsl.ParseString(`doc T v1 {
  page A5 margin 10mm {
    line size 10mm { ruby { base { "漢字" } over { "かんじ" } } }
  }
}`)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	res, err := layout.Build(doc, nil, layout.BuildOptions{Backend: r})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	pages := r.Record(res)
	if len(pages) != 1 {
		t.Fatalf("期望 1 页，实际 %d", len(pages))
	}
	var base, ann []Op
	for _, op := range pages[0].Ops {
		if op.Kind != "text" {
			continue
		}
		if op.Paint.Size == 10 {
			base = append(base, op)
		} else {
			ann = append(ann, op)
		}
	}
	if len(base) != 2 || len(ann) != 3 {
		t.Fatalf("期望 2 个基字与 3 个注释字，实际 %d/%d", len(base), len(ann))
	}
	// 基线 = 10 + 14，注释基线 = 基线 - 8 - 1
	if base[0].Y != 24 || ann[0].Y != 15 {
		t.Fatalf("纵向位置错误: base=%g ann=%g", base[0].Y, ann[0].Y)
	}
	if base[0].X != 10 || ann[0].X != 12.5 {
		t.Fatalf("横向位置错误: base=%g ann=%g", base[0].X, ann[0].X)
	}

	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	var decoded struct {
		Pages []Page `json:"pages"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("输出不是合法 JSON: %v", err)
	}
	if len(decoded.Pages[0].Ops) != len(pages[0].Ops) {
		t.Fatalf("JSON 中的指令数量不一致")
	}
}
