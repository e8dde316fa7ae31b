// Package trace 提供不依赖字体文件的后端：按终端列宽估算字宽，并把绘制指令记录为 JSON，
// 用于调试排版结果或在没有字体的环境下做回归比对。
package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/ByLCY/furigana/layout"
	"github.com/ByLCY/furigana/renderer"
	"github.com/ByLCY/furigana/richtext"
	"github.com/ByLCY/furigana/ruby"
)

// 纵向度量相对字号的比例。
const (
	topRatio     = 1.0
	ascentRatio  = 0.8
	descentRatio = 0.2
	bottomRatio  = 0.25
)

// Measurer 把一个终端列当作半个字号宽：全角字符占两列即一个字号。
type Measurer struct {
	cond *runewidth.Condition
}

var _ richtext.Measurer = (*Measurer)(nil)

// NewMeasurer 创建度量器。East Asian Ambiguous 字符按窄字处理。
func NewMeasurer() *Measurer {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	return &Measurer{cond: cond}
}

func (m *Measurer) Advance(p richtext.Paint, s string) float64 {
	return float64(m.cond.StringWidth(s)) * p.Size / 2 * p.HorizontalScale()
}

func (m *Measurer) Metrics(p richtext.Paint) richtext.FontMetrics {
	return richtext.FontMetrics{
		Top:     -p.Size * topRatio,
		Ascent:  -p.Size * ascentRatio,
		Descent: p.Size * descentRatio,
		Bottom:  p.Size * bottomRatio,
	}
}

// Op 是一条绘制指令。
type Op struct {
	Kind   string         `json:"kind"` // "rect" | "text"
	Text   string         `json:"text,omitempty"`
	X      float64        `json:"x,omitempty"`
	Y      float64        `json:"y,omitempty"`
	Left   float64        `json:"left,omitempty"`
	Top    float64        `json:"top,omitempty"`
	Right  float64        `json:"right,omitempty"`
	Bottom float64        `json:"bottom,omitempty"`
	Paint  richtext.Paint `json:"paint"`
}

// Recorder 按顺序记录绘制指令，实现 richtext.Canvas。
type Recorder struct {
	Ops []Op
}

var _ richtext.Canvas = (*Recorder)(nil)

func (r *Recorder) DrawRect(left, top, right, bottom float64, p richtext.Paint) {
	r.Ops = append(r.Ops, Op{Kind: "rect", Left: left, Top: top, Right: right, Bottom: bottom, Paint: p})
}

func (r *Recorder) DrawText(s string, start, end int, x, y float64, p richtext.Paint) {
	r.Ops = append(r.Ops, Op{Kind: "text", Text: s[start:end], X: x, Y: y, Paint: p})
}

// Page 是一页的绘制记录。
type Page struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Ops    []Op    `json:"ops"`
}

// Renderer 使用 Measurer 度量，Render 输出每页绘制指令的 JSON。
type Renderer struct {
	engine *ruby.Engine
	log    *zap.Logger

	mu    sync.Mutex
	fonts map[string]layout.FontResource
}

var _ renderer.Backend = (*Renderer)(nil)

// New 创建 trace 后端，opts 传给 ruby 引擎。
func New(opts ruby.Options) *Renderer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		engine: ruby.NewEngine(NewMeasurer(), opts),
		log:    log,
		fonts:  map[string]layout.FontResource{},
	}
}

func (r *Renderer) Engine() *ruby.Engine { return r.engine }

// RegisterFonts 只记录字体名称，字宽与字体无关。
func (r *Renderer) RegisterFonts(fonts map[string]layout.FontResource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, f := range fonts {
		r.fonts[name] = f
	}
	return nil
}

// Record 重放布局结果并返回每页的绘制指令。
func (r *Renderer) Record(result *layout.Result) []Page {
	if result == nil {
		return nil
	}
	pages := make([]Page, 0, len(result.Pages))
	for _, page := range result.Pages {
		rec := &Recorder{}
		if page.Background != nil && page.Background.A > 0 {
			rec.DrawRect(0, 0, page.Width, page.Height, richtext.Paint{Color: page.Background.RGBA()})
		}
		for _, lb := range page.Lines {
			r.engine.DrawLine(rec, lb.Runs, lb.X, lb.Baseline)
		}
		pages = append(pages, Page{Width: page.Width, Height: page.Height, Ops: rec.Ops})
	}
	return pages
}

func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	pages := r.Record(result)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(struct {
		Meta  layout.DocumentMeta `json:"meta"`
		Pages []Page              `json:"pages"`
	}{result.Meta, pages}); err != nil {
		return nil, err
	}
	r.log.Debug("Recorded draw operations", zap.Int("pages", len(pages)))
	return buf.Bytes(), nil
}
