package layout

import (
	"image/color"

	"github.com/ByLCY/furigana/ruby"
)

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有长度均以毫米为单位，y 轴向下。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]Color        `json:"colors"`
	Styles map[string]Style        `json:"styles"`
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* 形式。
type FontResource struct {
	Name      string `json:"name"`
	Src       string `json:"src"`
	Style     string `json:"style,omitempty"`
	Family    string `json:"family"`    // 渲染器使用的 Family 名称
	IsBuiltin bool   `json:"isBuiltin"` // 是否为内建字体
	Fallback  string `json:"fallback,omitempty"`
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// RGBA 转为标准库颜色，供 richtext.Paint 使用。
func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// Page 记录页面尺寸、边距与排好的行。
type Page struct {
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Margin     Margin    `json:"margin"`
	Background *Color    `json:"background,omitempty"`
	Lines      []LineBox `json:"lines"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// LineBox 是一行已定位的文本，Runs 保存 ruby 引擎的完整排版结果。
// Top/Bottom 为行框的上下边界，Baseline 为基线位置。
type LineBox struct {
	Content  string     `json:"content"`
	X        float64    `json:"x"`
	Top      float64    `json:"top"`
	Baseline float64    `json:"baseline"`
	Bottom   float64    `json:"bottom"`
	Width    float64    `json:"width"`
	Font     string     `json:"font"`
	FontSize float64    `json:"fontSize"`
	Align    string     `json:"align,omitempty"`
	Runs     *ruby.Side `json:"runs"`
	Debug    *LineDebug `json:"debug,omitempty"`
}

// LineDebug holds optional debug info displayed only when enabled by BuildOptions.
type LineDebug struct {
	RawUnits *RawUnits `json:"rawUnits,omitempty"`
}

// RawUnits describes original author-specified units for key fields.
type RawUnits struct {
	FontSize   *RawLengthJSON     `json:"fontSize,omitempty"`
	LineHeight *RawLineHeightJSON `json:"lineHeight,omitempty"`
}

// RawLengthJSON is a JSON-friendly representation of Length.
type RawLengthJSON struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// RawLineHeightJSON is a JSON-friendly representation of LineHeightSpec.
type RawLineHeightJSON struct {
	Kind   string  `json:"kind"` // "factor" | "absolute"
	Factor float64 `json:"factor,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// Style 用于描述可继承的文本样式。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
