package layout

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/furigana/binding"
	"github.com/ByLCY/furigana/dsl"
	"github.com/ByLCY/furigana/richtext"
	"github.com/ByLCY/furigana/ruby"
)

const (
	defaultFontSizePt   = 12.0
	defaultLineGap      = 2.0 // mm
	annotationSizeRatio = 0.5
	objectReplacement   = "￼"
)

var black = Color{A: 255}

// Build 根据 DSL AST 生成页面与行的布局结果。行内的 ruby 由 opts.Engine 排版。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	engine := opts.Engine
	if engine == nil && opts.Backend != nil {
		engine = opts.Backend.Engine()
	}
	if engine == nil {
		return nil, fmt.Errorf("layout: 缺少 ruby 排版引擎")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	res, err := collectResources(doc, opts.DefaultFont)
	if err != nil {
		return nil, err
	}
	if opts.Backend != nil {
		if err := opts.Backend.RegisterFonts(res.Fonts); err != nil {
			return nil, fmt.Errorf("注册字体失败: %w", err)
		}
	}
	meta := collectMeta(doc, data)

	sections := doc.Pages()
	if len(sections) == 0 {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}

	b := &builder{res: res, data: data, engine: engine, log: log, debug: opts.Debug}
	var pages []Page
	for _, section := range sections {
		out, err := b.buildPages(section)
		if err != nil {
			return nil, err
		}
		pages = append(pages, out...)
	}
	log.Debug("Layout complete", zap.Int("pages", len(pages)), zap.Int("fonts", len(res.Fonts)))

	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      meta,
	}, nil
}

type builder struct {
	res    ResourceSet
	data   any
	engine *ruby.Engine
	log    *zap.Logger
	debug  DebugOptions
}

func (b *builder) buildPages(section *dsl.PageSection) ([]Page, error) {
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", section.Pos, err)
	}
	if section.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}
	margin := resolveMargin(section.Spec.Params)
	var background *Color
	if bg := pageParam(section.Spec.Params, "background"); bg != "" {
		c, err := resolveColor(bg, b.res, Color{})
		if err != nil {
			return nil, fmt.Errorf("%s: page background: %w", section.Pos, err)
		}
		background = &c
	}
	collector := newPageCollector(width, height, margin, background)

	contentWidth := width - margin.Left - margin.Right
	for _, cmd := range section.Block.Commands() {
		switch cmd.Name {
		case "line":
			lb, gap, err := b.composeLine(cmd, margin.Left, contentWidth)
			if err != nil {
				return nil, err
			}
			collector.place(lb, gap)
		case "space":
			if len(cmd.Args) > 0 {
				collector.advance(parseMM(cmd.Args[0].Value))
			}
		case "break":
			collector.breakPage()
		default:
			// 其余命令暂未实现，忽略即可
			b.log.Warn("Ignoring unknown page command", zap.String("command", cmd.Name), zap.Stringer("pos", cmd.Pos))
		}
	}
	return collector.pages(), nil
}

// composeLine 构建一行富文本并交给 ruby 引擎测量，返回相对行顶（y=0）的行框与行后间距。
func (b *builder) composeLine(cmd *dsl.Command, left, width float64) (LineBox, float64, error) {
	name, inline := parseArgs(cmd.Args, true)
	attrs := mergeStyleAttributes(name, inline, b.res.Styles)
	fontName := attrs["font"]
	if fontName == "" {
		// 首个标识符既可以是样式名也可以是字体名
		if _, ok := b.res.Fonts[name]; ok {
			fontName = name
		} else {
			fontName = defaultFontName
		}
	}
	font, err := resolveFontResource(fontName, b.res)
	if err != nil {
		return LineBox{}, 0, fmt.Errorf("%s: %w", cmd.Pos, err)
	}

	size := Length{Value: defaultFontSizePt, Unit: UnitPT}
	if spec, ok := ParseSize(attrs["size"]); ok {
		if spec.Factor > 0 {
			size.Value *= spec.Factor
		} else {
			size = spec.Absolute
		}
	}
	fg, err := resolveColor(attrs["color"], b.res, black)
	if err != nil {
		return LineBox{}, 0, fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	paint := richtext.Paint{
		Family: font.Name,
		Style:  parseFace(attrs["face"]),
		Size:   size.ToMM(),
		Color:  fg.RGBA(),
	}

	tb := richtext.NewBuilder()
	if err := b.appendRuns(tb, cmd.Block); err != nil {
		return LineBox{}, 0, err
	}
	text := tb.Text()
	side, err := b.engine.MeasureLine(paint, text)
	if err != nil {
		return LineBox{}, 0, fmt.Errorf("%s: %w", cmd.Pos, err)
	}

	metrics := side.Metrics
	if len(side.Segments) == 0 {
		metrics = b.engine.Measurer().Metrics(paint)
	}
	natural := metrics.Bottom - metrics.Top
	pitch := natural
	var lh LineHeightSpec
	hasLH := false
	if v := firstNonEmpty(attrs["line-height"], attrs["leading"]); v != "" {
		if lh, hasLH = ParseLineHeight(v); hasLH {
			pitch = math.Max(natural, lh.Resolve(size, UnitMM))
		}
	}
	baseline := (pitch-natural)/2 - metrics.Top

	gap := defaultLineGap
	if v := attrs["gap"]; v != "" {
		gap = parseMM(v)
	}

	lb := LineBox{
		Content:  text.String(),
		X:        left + alignOffset(width, side.Width, attrs["align"]),
		Top:      0,
		Baseline: baseline,
		Bottom:   pitch,
		Width:    side.Width,
		Font:     font.Name,
		FontSize: paint.Size,
		Align:    attrs["align"],
		Runs:     side,
	}
	if side.Width > width {
		b.log.Warn("Line overflows the content box",
			zap.String("content", lb.Content), zap.Float64("width", side.Width), zap.Float64("available", width))
	}
	if b.debug.RawUnits {
		raw := &RawUnits{FontSize: &RawLengthJSON{Value: size.Value, Unit: UnitToString(size.Unit)}}
		if hasLH {
			raw.LineHeight = lh.raw()
		}
		lb.Debug = &LineDebug{RawUnits: raw}
	}
	return lb, gap, nil
}

// appendRuns 依次处理 block 内的文本字面量与 ruby/box/span 命令。
func (b *builder) appendRuns(tb *richtext.Builder, block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, st := range block.Statements {
		switch {
		case st.Text != nil:
			name, inline := parseArgs(st.Text.Options, true)
			styles, err := b.runStyles(mergeStyleAttributes(name, inline, b.res.Styles))
			if err != nil {
				return fmt.Errorf("%s: %w", st.Text.Pos, err)
			}
			tb.AppendStyled(b.literal(string(st.Text.Value)), styles...)
		case st.Command != nil:
			if err := b.appendCommand(tb, st.Command); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) appendCommand(tb *richtext.Builder, cmd *dsl.Command) error {
	switch cmd.Name {
	case "ruby":
		return b.appendRuby(tb, cmd)
	case "box":
		return b.appendBox(tb, cmd)
	case "span":
		return b.appendGroup(tb, cmd)
	case "aozora":
		return b.appendAozora(tb, cmd)
	default:
		b.log.Warn("Ignoring unknown inline command", zap.String("command", cmd.Name), zap.Stringer("pos", cmd.Pos))
		return nil
	}
}

// appendGroup 追加 cmd 内的所有文本，并用 cmd 自身的样式覆盖整组。
func (b *builder) appendGroup(tb *richtext.Builder, cmd *dsl.Command) error {
	name, inline := parseArgs(cmd.Args, true)
	styles, err := b.runStyles(mergeStyleAttributes(name, inline, b.res.Styles))
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	mark := tb.Mark()
	if err := b.appendRuns(tb, cmd.Block); err != nil {
		return err
	}
	return tb.Wrap(mark, styles...)
}

func (b *builder) appendRuby(tb *richtext.Builder, cmd *dsl.Command) error {
	name, inline := parseArgs(cmd.Args, true)
	attrs := mergeStyleAttributes(name, inline, b.res.Styles)
	baseAlign, err := ruby.ParseAlignment(attrs["base"])
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	overAlign, err := ruby.ParseAlignment(attrs["over"])
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	baseCmd := cmd.Child("base")
	if baseCmd == nil {
		return fmt.Errorf("%s: ruby 缺少 base", cmd.Pos)
	}

	ann := richtext.NewBuilder()
	if overCmd := cmd.Child("over"); overCmd != nil {
		name, inline := parseArgs(overCmd.Args, true)
		overAttrs := mergeStyleAttributes(name, inline, b.res.Styles)
		if overAttrs["size"] == "" {
			overAttrs["size"] = fmt.Sprintf("%gx", annotationSizeRatio)
		}
		styles, err := b.runStyles(overAttrs)
		if err != nil {
			return fmt.Errorf("%s: %w", overCmd.Pos, err)
		}
		mark := ann.Mark()
		if err := b.appendRuns(ann, overCmd.Block); err != nil {
			return err
		}
		if err := ann.Wrap(mark, styles...); err != nil {
			return err
		}
	}

	start := tb.Len()
	if err := b.appendGroup(tb, baseCmd); err != nil {
		return err
	}
	if tb.Len() == start {
		b.log.Warn("Ruby without base text", zap.Stringer("pos", cmd.Pos))
		return nil
	}
	cell := ruby.NewAlignedCell(ann.Text(), baseAlign, overAlign)
	return tb.SetSpan(cell, start, tb.Len())
}

// appendAozora 按青空文库记法展开文本：｜東京《とうきょう》 或 漢字《かんじ》。
// 属性 reading 指定注音使用的样式，base/over 为对齐方式。
func (b *builder) appendAozora(tb *richtext.Builder, cmd *dsl.Command) error {
	name, inline := parseArgs(cmd.Args, true)
	attrs := mergeStyleAttributes(name, inline, b.res.Styles)
	baseAlign, err := ruby.ParseAlignment(attrs["base"])
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	overAlign, err := ruby.ParseAlignment(attrs["over"])
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	if name := attrs["reading"]; name != "" {
		if _, ok := b.res.Styles[name]; !ok {
			return fmt.Errorf("%s: style %s 未定义", cmd.Pos, name)
		}
	}
	readingAttrs := mergeStyleAttributes(attrs["reading"], nil, b.res.Styles)
	if readingAttrs["size"] == "" {
		readingAttrs["size"] = fmt.Sprintf("%gx", annotationSizeRatio)
	}
	readingStyles, err := b.runStyles(readingAttrs)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	groupStyles, err := b.runStyles(attrs)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}

	if cmd.Block == nil {
		return nil
	}
	mark := tb.Mark()
	for _, st := range cmd.Block.Commands() {
		b.log.Warn("Ignoring command inside aozora block", zap.String("command", st.Name), zap.Stringer("pos", st.Pos))
	}
	for _, st := range cmd.Block.Statements {
		if st.Text == nil {
			continue
		}
		name, inline := parseArgs(st.Text.Options, true)
		styles, err := b.runStyles(mergeStyleAttributes(name, inline, b.res.Styles))
		if err != nil {
			return fmt.Errorf("%s: %w", st.Text.Pos, err)
		}
		for _, run := range dsl.SplitAozora(b.literal(string(st.Text.Value))) {
			start := tb.Len()
			tb.AppendStyled(run.Base, styles...)
			if !run.IsRuby() {
				continue
			}
			ann := richtext.NewBuilder().AppendStyled(run.Reading, readingStyles...).Text()
			if err := tb.SetSpan(ruby.NewAlignedCell(ann, baseAlign, overAlign), start, tb.Len()); err != nil {
				return err
			}
		}
	}
	return tb.Wrap(mark, groupStyles...)
}

// appendBox 追加一个固定尺寸的占位对象：box W H [color C]。
func (b *builder) appendBox(tb *richtext.Builder, cmd *dsl.Command) error {
	if len(cmd.Args) < 2 {
		return fmt.Errorf("%s: box 需要宽与高", cmd.Pos)
	}
	w, okW := ParseLength(cmd.Args[0].Value)
	h, okH := ParseLength(cmd.Args[1].Value)
	if !okW || !okH || w.Value <= 0 || h.Value <= 0 {
		return fmt.Errorf("%s: box 尺寸无效", cmd.Pos)
	}
	_, attrs := parseArgs(cmd.Args[2:], false)
	fill, err := resolveColor(attrs["color"], b.res, Color{})
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	tb.AppendStyled(objectReplacement, &richtext.Box{Width: w.ToMM(), Height: h.ToMM(), Fill: fill.RGBA()})
	return nil
}

// runStyles 把属性表翻译为 richtext 样式。
func (b *builder) runStyles(attrs map[string]string) ([]richtext.Style, error) {
	var styles []richtext.Style
	if v := attrs["size"]; v != "" {
		spec, ok := ParseSize(v)
		if !ok {
			return nil, fmt.Errorf("无法解析字号 %s", v)
		}
		if spec.Factor > 0 {
			styles = append(styles, richtext.RelativeSize(spec.Factor))
		} else {
			styles = append(styles, richtext.AbsoluteSize(spec.Absolute.ToMM()))
		}
	}
	if attrs["font"] != "" || attrs["face"] != "" {
		family := attrs["font"]
		if family != "" {
			if _, ok := b.res.Fonts[family]; !ok {
				return nil, fmt.Errorf("字体 %s 未定义", family)
			}
		}
		styles = append(styles, richtext.Typeface{Family: family, Style: parseFace(attrs["face"])})
	}
	if v := attrs["scale"]; v != "" {
		spec, ok := ParseSize(strings.TrimSuffix(v, "x") + "x")
		if !ok {
			return nil, fmt.Errorf("无法解析横向缩放 %s", v)
		}
		styles = append(styles, richtext.ScaleX(spec.Factor))
	}
	if v := attrs["color"]; v != "" {
		c, err := resolveColor(v, b.res, black)
		if err != nil {
			return nil, err
		}
		styles = append(styles, richtext.Foreground(c.RGBA()))
	}
	if v := firstNonEmpty(attrs["background"], attrs["bg"]); v != "" {
		c, err := resolveColor(v, b.res, Color{})
		if err != nil {
			return nil, err
		}
		styles = append(styles, richtext.Background(c.RGBA()))
	}
	switch strings.ToLower(attrs["decoration"]) {
	case "underline":
		styles = append(styles, richtext.Underline{})
	case "strike", "strikethrough", "line-through":
		styles = append(styles, richtext.Strikethrough{})
	case "both":
		styles = append(styles, richtext.Underline{}, richtext.Strikethrough{})
	}
	return styles, nil
}

// literal 做数据绑定并统一为 NFC，避免组合字符在对齐时被拆开测量。
func (b *builder) literal(s string) string {
	return norm.NFC.String(binding.Interpolate(s, b.data))
}

func parseFace(v string) richtext.FontStyle {
	switch strings.ToLower(v) {
	case "bold":
		return richtext.StyleBold
	case "italic":
		return richtext.StyleItalic
	case "bold-italic", "bolditalic":
		return richtext.StyleBoldItalic
	default:
		return richtext.StyleRegular
	}
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}

	width := base[0]
	height := base[1]
	for _, token := range spec.Params {
		if token.Value == "landscape" {
			width, height = height, width
		}
	}
	return width, height, nil
}

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"A6":     {105, 148},
	"B5":     {176, 250},
	"B6":     {125, 176},
	"LETTER": {215.9, 279.4},
}

// resolveMargin 解析 margin 之后的 1~4 个长度，语义同 CSS。
func resolveMargin(params []*dsl.Lexeme) Margin {
	margin := Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	for i := 0; i < len(params); i++ {
		if params[i].Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			l, ok := ParseLength(params[j].Value)
			if !ok {
				break
			}
			vals = append(vals, l.ToMM())
		}
		switch len(vals) {
		case 1:
			v := vals[0]
			margin = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin
}

func pageParam(params []*dsl.Lexeme, key string) string {
	for i := 0; i+1 < len(params); i++ {
		if params[i].Value == key {
			return params[i+1].Value
		}
	}
	return ""
}

func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}

	cursor := 0
	var style string
	if allowStyle && args[0].Type == "Ident" && len(args)%2 == 1 {
		style = args[0].Value
		cursor = 1
	}

	for cursor < len(args)-1 {
		result[args[cursor].Value] = args[cursor+1].Value
		cursor += 2
	}
	return style, result
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if style != "" {
		if s, ok := styles[style]; ok {
			for k, v := range s.Props {
				out[k] = v
			}
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

func alignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch strings.ToLower(align) {
	case "center", "middle":
		return (container - width) / 2
	case "right", "end":
		return container - width
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// pageCollector 自上而下堆叠行，放不下时换页。
type pageCollector struct {
	width, height float64
	margin        Margin
	background    *Color
	done          []Page
	current       *Page
	cursorY       float64
}

func newPageCollector(width, height float64, margin Margin, background *Color) *pageCollector {
	pc := &pageCollector{width: width, height: height, margin: margin, background: background}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() {
	if pc.current != nil {
		pc.done = append(pc.done, *pc.current)
	}
	pc.current = &Page{Width: pc.width, Height: pc.height, Margin: pc.margin, Background: pc.background}
	pc.cursorY = pc.margin.Top
}

func (pc *pageCollector) contentBottom() float64 { return pc.height - pc.margin.Bottom }

// place 将相对行顶的行框平移到当前游标处。
func (pc *pageCollector) place(lb LineBox, gap float64) {
	if pc.cursorY+lb.Bottom > pc.contentBottom() && len(pc.current.Lines) > 0 {
		pc.newPage()
	}
	lb.Top += pc.cursorY
	lb.Baseline += pc.cursorY
	lb.Bottom += pc.cursorY
	pc.current.Lines = append(pc.current.Lines, lb)
	pc.cursorY = lb.Bottom + gap
}

func (pc *pageCollector) advance(dy float64) {
	pc.cursorY += dy
	if pc.cursorY > pc.contentBottom() {
		pc.newPage()
	}
}

func (pc *pageCollector) breakPage() {
	if len(pc.current.Lines) > 0 {
		pc.newPage()
	}
}

func (pc *pageCollector) pages() []Page {
	out := append([]Page(nil), pc.done...)
	return append(out, *pc.current)
}
