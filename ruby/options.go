package ruby

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ByLCY/furigana/richtext"
)

// DefaultMaxDepth bounds ruby nesting when Options.MaxDepth is zero.
const DefaultMaxDepth = 32

// ErrNestingTooDeep is returned when ruby cells nest deeper than allowed,
// which for well formed input means a cell reaches itself through its
// annotations.
var ErrNestingTooDeep = errors.New("ruby: nesting too deep")

// Granularity selects the atomic unit of leaf segments.
type Granularity int

const (
	// CodePoint splits leaf text into single code points.
	CodePoint Granularity = iota
	// Grapheme keeps extended grapheme clusters together, so combining
	// marks and emoji sequences are never pulled apart by justification.
	Grapheme
)

// Options configures an Engine.
type Options struct {
	MaxDepth    int
	Granularity Granularity
	// DisableGapFill stops the engine from drawing stretched spaces into
	// interior gaps. The fillers keep underline and strikethrough
	// continuous across justified text.
	DisableGapFill bool
	Logger         *zap.Logger
}

// Engine measures and draws ruby cells using the host font system. It
// holds no layout state; every call recomputes from the current text.
type Engine struct {
	m        richtext.Measurer
	maxDepth int
	grain    Granularity
	fillGaps bool
	log      *zap.Logger
}

// NewEngine binds the engine to a measurer.
func NewEngine(m richtext.Measurer, opts Options) *Engine {
	e := &Engine{
		m:        m,
		maxDepth: opts.MaxDepth,
		grain:    opts.Granularity,
		fillGaps: !opts.DisableGapFill,
		log:      opts.Logger,
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Measurer exposes the bound font system.
func (e *Engine) Measurer() richtext.Measurer { return e.m }
