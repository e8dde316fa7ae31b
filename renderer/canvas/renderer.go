package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/furigana/fonts"
	"github.com/ByLCY/furigana/layout"
	"github.com/ByLCY/furigana/renderer"
	"github.com/ByLCY/furigana/richtext"
	"github.com/ByLCY/furigana/ruby"
)

// Format 选择输出文件格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// svgPageGap 是 SVG 输出中上下相邻页面的间距（mm）。
const svgPageGap = 10.0

// Renderer draws layout results via github.com/tdewolff/canvas. It is also
// the font measurer of its ruby engine, so the widths used during layout
// are the ones drawn.
type Renderer struct {
	baseDir string
	format  Format
	log     *zap.Logger
	engine  *ruby.Engine

	// injected resources
	fontBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	resources      map[string]layout.FontResource
	fontFamilies   map[string]*fontFamilyEntry
	faces          map[faceKey]*canvas.FontFace
	fallbackFamily *fontFamilyEntry
}

var (
	_ renderer.Backend  = (*Renderer)(nil)
	_ richtext.Measurer = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	styles map[canvas.FontStyle]bool
}

type faceKey struct {
	family string
	style  richtext.FontStyle
	size   float64
	color  color.RGBA
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
	Format  Format
	Logger  *zap.Logger
	// Engine is passed to the ruby engine; its Logger defaults to Logger.
	Engine ruby.Options
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a PDF renderer rooted at baseDir for resolving font files.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	format := opts.Format
	if format == "" {
		format = FormatPDF
	}
	r := &Renderer{
		baseDir:      opts.BaseDir,
		format:       format,
		log:          log,
		fontBlobs:    map[string][]byte{},
		resources:    map[string]layout.FontResource{},
		fontFamilies: map[string]*fontFamilyEntry{},
		faces:        map[faceKey]*canvas.FontFace{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				// 使用时再报错
				log.Warn("Cannot read injected font", zap.String("name", name), zap.Error(err))
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	engineOpts := opts.Engine
	if engineOpts.Logger == nil {
		engineOpts.Logger = log.Named("ruby")
	}
	r.engine = ruby.NewEngine(r, engineOpts)
	return r
}

// Engine returns the ruby engine measuring with this renderer's fonts.
func (r *Renderer) Engine() *ruby.Engine { return r.engine }

// RegisterFonts makes the document fonts known to the measurer. Every font
// is loaded eagerly so a broken src fails before layout starts.
func (r *Renderer) RegisterFonts(fontRes map[string]layout.FontResource) error {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	var errs error
	for name, font := range fontRes {
		if prev, ok := r.resources[name]; ok && prev == font {
			continue
		}
		r.resources[name] = font
		delete(r.fontFamilies, name)
		for key := range r.faces {
			if key.family == name {
				delete(r.faces, key)
			}
		}
		entry, err := r.loadFamily(font)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("字体 %s: %w", name, err))
			continue
		}
		r.fontFamilies[name] = entry
	}
	return errs
}

// Advance implements richtext.Measurer. Widths are in millimeters.
func (r *Renderer) Advance(p richtext.Paint, s string) float64 {
	if s == "" || p.Size <= 0 {
		return 0
	}
	face := r.face(p)
	if face == nil {
		return 0
	}
	return face.TextWidth(s) * p.HorizontalScale()
}

// Metrics implements richtext.Measurer. The canvas metrics are positive
// distances; the line gap is split evenly above and below.
func (r *Renderer) Metrics(p richtext.Paint) richtext.FontMetrics {
	if p.Size <= 0 {
		return richtext.FontMetrics{}
	}
	face := r.face(p)
	if face == nil {
		return richtext.FontMetrics{}
	}
	m := face.Metrics()
	return richtext.FontMetrics{
		Top:     -(m.Ascent + m.LineGap/2),
		Ascent:  -m.Ascent,
		Descent: m.Descent,
		Bottom:  m.Descent + m.LineGap/2,
		Leading: m.LineGap,
	}
}

// Render renders the result into PDF or SVG bytes.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	if err := r.RegisterFonts(result.Resources.Fonts); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var err error
	switch r.format {
	case FormatSVG:
		err = r.renderSVG(&buf, result)
	case FormatPDF:
		err = r.renderPDF(&buf, result)
	default:
		err = fmt.Errorf("不支持的输出格式：%s", r.format)
	}
	if err != nil {
		return nil, err
	}
	r.log.Debug("Rendered document", zap.String("format", string(r.format)), zap.Int("pages", len(result.Pages)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (r *Renderer) renderPDF(w io.Writer, result *layout.Result) error {
	writer := pdf.New(w, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		r.drawPage(&pageCanvas{r: r, ctx: ctx, height: page.Height}, page)
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return nil
}

// renderSVG 把所有页面自上而下排进同一张 SVG。
func (r *Renderer) renderSVG(w io.Writer, result *layout.Result) error {
	width, height := 0.0, 0.0
	for i, page := range result.Pages {
		width = math.Max(width, page.Width)
		if i > 0 {
			height += svgPageGap
		}
		height += page.Height
	}
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	offset := 0.0
	for _, page := range result.Pages {
		r.drawPage(&pageCanvas{r: r, ctx: ctx, height: height, dy: offset}, page)
		offset += page.Height + svgPageGap
	}

	writer := svg.New(w, width, height, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 SVG 失败: %w", err)
	}
	return nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(pc *pageCanvas, page layout.Page) {
	if page.Background != nil && page.Background.A > 0 {
		pc.DrawRect(0, 0, page.Width, page.Height, richtext.Paint{Color: page.Background.RGBA()})
	}
	for _, lb := range page.Lines {
		r.engine.DrawLine(pc, lb.Runs, lb.X, lb.Baseline)
	}
}

// pageCanvas 把 ruby 引擎的绘制指令（y 轴向下，mm）转换为 canvas 调用。
// canvas 使用默认的 y 轴向上坐标系，这里自行翻转，横向缩放才能直接用视图矩阵表达。
type pageCanvas struct {
	r      *Renderer
	ctx    *canvas.Context
	height float64 // 整张画布的高度
	dy     float64 // 当前页面在画布中的纵向偏移
}

var _ richtext.Canvas = (*pageCanvas)(nil)

func (pc *pageCanvas) flip(y float64) float64 { return pc.height - (pc.dy + y) }

func (pc *pageCanvas) DrawRect(left, top, right, bottom float64, p richtext.Paint) {
	if right <= left || bottom <= top || p.Color.A == 0 {
		return
	}
	pc.ctx.SetFillColor(colorOf(p.Color))
	pc.ctx.SetStrokeColor(canvas.Transparent)
	pc.ctx.DrawPath(left, pc.flip(bottom), canvas.Rectangle(right-left, bottom-top))
}

func (pc *pageCanvas) DrawText(s string, start, end int, x, y float64, p richtext.Paint) {
	run := s[start:end]
	if strings.TrimSpace(run) != "" && p.Color.A > 0 {
		face := pc.r.face(p)
		if face == nil {
			return
		}
		text := canvas.NewTextLine(face, run, canvas.Left)
		if scale := p.HorizontalScale(); scale != 1 {
			pc.ctx.Push()
			pc.ctx.ComposeView(canvas.Identity.Translate(x, pc.flip(y)).Scale(scale, 1))
			pc.ctx.DrawText(0, 0, text)
			pc.ctx.Pop()
		} else {
			pc.ctx.DrawText(x, pc.flip(y), text)
		}
	}
	if p.Underline || p.Strikethrough {
		pc.decorate(run, x, y, p)
	}
}

// decorate 以细矩形绘制下划线与删除线，间隙填充的空格同样会画出线段。
func (pc *pageCanvas) decorate(run string, x, y float64, p richtext.Paint) {
	width := pc.r.Advance(p, run)
	if width <= 0 {
		return
	}
	thickness := math.Max(p.Size/18, 0.05)
	if p.Underline {
		top := y + p.Size*0.12
		pc.DrawRect(x, top, x+width, top+thickness, p)
	}
	if p.Strikethrough {
		mid := y - p.Size*0.28
		pc.DrawRect(x, mid-thickness/2, x+width, mid+thickness/2, p)
	}
}

func (r *Renderer) face(p richtext.Paint) *canvas.FontFace {
	key := faceKey{family: p.Family, style: p.Style, size: p.Size, color: p.Color}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if face, ok := r.faces[key]; ok {
		return face
	}

	entry := r.familyLocked(p.Family)
	if entry == nil {
		return nil
	}
	style := entry.pick(canvasStyle(p.Style))
	// 字号以 mm 传入，canvas 的字体面需要 pt
	face := entry.family.Face(toPt(p.Size), colorOf(p.Color), style, canvas.FontNormal)
	r.faces[key] = face
	return face
}

// familyLocked 返回已注册的字体族，未知或加载失败时退回内置字体。调用方需持有 fontMu。
func (r *Renderer) familyLocked(name string) *fontFamilyEntry {
	if entry, ok := r.fontFamilies[name]; ok {
		return entry
	}
	if font, ok := r.resources[name]; ok {
		entry, err := r.loadFamily(font)
		if err == nil {
			r.fontFamilies[name] = entry
			return entry
		}
		r.log.Warn("Font failed to load, using fallback", zap.String("family", name), zap.Error(err))
	} else {
		r.log.Debug("Unknown font family, using fallback", zap.String("family", name))
	}
	fallback, err := r.fallback()
	if err != nil {
		r.log.Error("Fallback font unavailable", zap.Error(err))
		return nil
	}
	r.fontFamilies[name] = fallback
	return fallback
}

func (r *Renderer) loadFamily(font layout.FontResource) (*fontFamilyEntry, error) {
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	entry := &fontFamilyEntry{family: canvas.NewFontFamily(familyName), styles: map[canvas.FontStyle]bool{}}

	if _, injected := r.fontBlobs[builtinName(font.Src)]; fonts.IsBuiltin(font.Src) && !injected {
		fam, err := fonts.LoadFamily(font.Src)
		if err != nil {
			return nil, err
		}
		if err := entry.loadFamily(fam); err != nil {
			return nil, err
		}
		return entry, nil
	}

	data, err := r.loadFontBytes(font)
	if err != nil {
		return nil, err
	}
	style := parseFontStyle(font.Style)
	if err := entry.family.LoadFont(data, 0, style); err != nil {
		return nil, err
	}
	entry.styles[style] = true
	return entry, nil
}

func (e *fontFamilyEntry) loadFamily(fam fonts.Family) error {
	faces := []struct {
		style canvas.FontStyle
		data  []byte
	}{
		{canvas.FontRegular, fam.Regular},
		{canvas.FontBold, fam.Bold},
		{canvas.FontItalic, fam.Italic},
		{canvas.FontBold | canvas.FontItalic, fam.BoldItalic},
	}
	for _, f := range faces {
		if f.data == nil {
			continue
		}
		if err := e.family.LoadFont(f.data, 0, f.style); err != nil {
			return err
		}
		e.styles[f.style] = true
	}
	return nil
}

// pick 在缺少所需字形时依次退回去掉斜体、常规体，最后任取一个已加载的字形。
func (e *fontFamilyEntry) pick(style canvas.FontStyle) canvas.FontStyle {
	for _, s := range []canvas.FontStyle{style, style &^ canvas.FontItalic, canvas.FontRegular} {
		if e.styles[s] {
			return s
		}
	}
	for s := range e.styles {
		return s
	}
	return canvas.FontRegular
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	src := font.Src
	if fonts.IsBuiltin(src) {
		if blob, ok := r.fontBlobs[builtinName(src)]; ok {
			return blob, nil
		}
		return fonts.Load(src)
	}
	// Path based
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fallback() (*fontFamilyEntry, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	fam, err := fonts.LoadFamily("goregular")
	if err != nil {
		return nil, err
	}
	entry := &fontFamilyEntry{family: canvas.NewFontFamily("furigana-fallback"), styles: map[canvas.FontStyle]bool{}}
	if err := entry.loadFamily(fam); err != nil {
		return nil, err
	}
	r.fallbackFamily = entry
	return entry, nil
}

func builtinName(src string) string {
	for _, prefix := range []string{"builtin:", "built-in:", "embed:"} {
		src = strings.TrimPrefix(src, prefix)
	}
	return src
}

func canvasStyle(s richtext.FontStyle) canvas.FontStyle {
	switch s {
	case richtext.StyleBold:
		return canvas.FontBold
	case richtext.StyleItalic:
		return canvas.FontItalic
	case richtext.StyleBoldItalic:
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func colorOf(c color.RGBA) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
