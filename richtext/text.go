// Package richtext models the host side of the ruby engine: a text buffer
// with styled spans, the resolved paint state and the measurement and
// drawing services a font backend provides.
package richtext

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Span attaches a Style to the byte range [Start, End) of a Text.
type Span struct {
	Style Style `json:"-"`
	Start int   `json:"start"`
	End   int   `json:"end"`
}

// Text is an immutable string with attached spans. Offsets are byte
// offsets into the string and always fall on code point boundaries.
type Text struct {
	s     string
	spans []*Span
}

// Plain wraps s without any styling.
func Plain(s string) *Text { return &Text{s: s} }

// String returns the raw characters.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return t.s
}

// Len is the length in bytes.
func (t *Text) Len() int {
	if t == nil {
		return 0
	}
	return len(t.s)
}

// Slice returns the characters of [start, end).
func (t *Text) Slice(start, end int) string {
	if t == nil || start >= end {
		return ""
	}
	return t.s[start:end]
}

// AllSpans returns every span in insertion order.
func (t *Text) AllSpans() []*Span {
	if t == nil {
		return nil
	}
	out := make([]*Span, len(t.spans))
	copy(out, t.spans)
	return out
}

// Spans returns, in insertion order, the spans intersecting [start, end)
// whose style carries capability c. Zero width spans are kept when they
// sit inside the range. A span whose style is exclude is skipped; the
// comparison is by interface identity, so exclude must be a pointer for
// the check to single out one instance.
func (t *Text) Spans(start, end int, c Capability, exclude Style) []*Span {
	if t == nil {
		return nil
	}
	var out []*Span
	for _, sp := range t.spans {
		if exclude != nil && sp.Style == exclude {
			continue
		}
		if !sp.Style.Capabilities().Has(c) {
			continue
		}
		overlaps := sp.Start < end && sp.End > start
		empty := sp.Start == sp.End && sp.Start >= start && sp.Start <= end
		if overlaps || empty {
			out = append(out, sp)
		}
	}
	return out
}

// Builder assembles a Text run by run.
type Builder struct {
	sb    strings.Builder
	spans []*Span
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// Len is the current length in bytes.
func (b *Builder) Len() int { return b.sb.Len() }

// Append adds unstyled characters.
func (b *Builder) Append(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// AppendStyled adds s and covers it with every given style.
func (b *Builder) AppendStyled(s string, styles ...Style) *Builder {
	start := b.sb.Len()
	b.sb.WriteString(s)
	for _, st := range styles {
		b.spans = append(b.spans, &Span{Style: st, Start: start, End: b.sb.Len()})
	}
	return b
}

// SetSpan attaches st to [start, end) of what has been appended so far.
func (b *Builder) SetSpan(st Style, start, end int) error {
	if st == nil {
		return fmt.Errorf("richtext: nil style")
	}
	s := b.sb.String()
	if start < 0 || end < start || end > len(s) {
		return fmt.Errorf("richtext: span [%d,%d) out of range [0,%d)", start, end, len(s))
	}
	if !boundary(s, start) || !boundary(s, end) {
		return fmt.Errorf("richtext: span [%d,%d) splits a code point", start, end)
	}
	b.spans = append(b.spans, &Span{Style: st, Start: start, End: end})
	return nil
}

// Mark records the current end of a builder, see Wrap.
type Mark struct {
	offset int
	spans  int
}

// Mark returns the current position.
func (b *Builder) Mark() Mark { return Mark{offset: b.sb.Len(), spans: len(b.spans)} }

// Wrap covers everything appended since m with styles. The new spans are
// ordered before the spans added since m, so styling applied inside the
// group overrides the group's own.
func (b *Builder) Wrap(m Mark, styles ...Style) error {
	if m.offset > b.sb.Len() || m.spans > len(b.spans) {
		return fmt.Errorf("richtext: stale mark")
	}
	wrapped := make([]*Span, 0, len(styles))
	for _, st := range styles {
		if st == nil {
			return fmt.Errorf("richtext: nil style")
		}
		wrapped = append(wrapped, &Span{Style: st, Start: m.offset, End: b.sb.Len()})
	}
	inner := append([]*Span(nil), b.spans[m.spans:]...)
	b.spans = append(append(b.spans[:m.spans], wrapped...), inner...)
	return nil
}

// Text freezes the builder content. The builder can keep growing; the
// returned Text does not observe later changes.
func (b *Builder) Text() *Text {
	spans := make([]*Span, len(b.spans))
	for i, sp := range b.spans {
		cp := *sp
		spans[i] = &cp
	}
	return &Text{s: b.sb.String(), spans: spans}
}

func boundary(s string, i int) bool {
	return i == len(s) || utf8.RuneStart(s[i])
}
