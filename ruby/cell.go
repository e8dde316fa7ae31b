// Package ruby lays out ruby cells: a base run with a smaller annotation
// stacked directly above it. Annotations may carry ruby cells of their
// own, to any depth.
package ruby

import (
	"fmt"
	"strings"

	"github.com/ByLCY/furigana/richtext"
)

// Alignment decides how the extra width of a cell side is distributed.
type Alignment int

const (
	Start Alignment = iota
	End
	Center
	Justify
	// JIS justifies and also pads both outer edges with half a unit.
	JIS
)

var alignmentNames = [...]string{"start", "end", "center", "justify", "jis"}

func (a Alignment) String() string {
	if a < 0 || int(a) >= len(alignmentNames) {
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
	return alignmentNames[a]
}

// MarshalText lets alignments show up by name in debug JSON.
func (a Alignment) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseAlignment accepts the canonical names and the common aliases.
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "begin", "left":
		return Start, nil
	case "end", "right":
		return End, nil
	case "", "center", "middle":
		return Center, nil
	case "justify", "justified":
		return Justify, nil
	case "jis", "jis-justify", "jisjustify":
		return JIS, nil
	}
	return Center, fmt.Errorf("ruby: unknown alignment %q", s)
}

// Cell is a ruby annotation attached as a replacement span over its base
// range. A Cell owns its annotation text but never the base, which lives
// in the host buffer. Cells are immutable after construction and must be
// used through their pointer: the pointer is the identity the engine
// filters out of its own style queries.
type Cell struct {
	annotation *richtext.Text
	base       Alignment
	over       Alignment
}

var _ richtext.Style = (*Cell)(nil)

// NewCell centers both sides.
func NewCell(annotation *richtext.Text) *Cell {
	return NewAlignedCell(annotation, Center, Center)
}

// NewAlignedCell sets the base and annotation alignments explicitly. A
// ruby cell nested inside annotation is laid out with its own base
// alignment, not with annotationAlign.
func NewAlignedCell(annotation *richtext.Text, baseAlign, annotationAlign Alignment) *Cell {
	if annotation == nil {
		annotation = richtext.Plain("")
	}
	return &Cell{annotation: annotation, base: baseAlign, over: annotationAlign}
}

// Capabilities marks the cell as an opaque replacement for its range.
func (*Cell) Capabilities() richtext.Capability { return richtext.CapReplacement }

// Annotation returns the guide text.
func (c *Cell) Annotation() *richtext.Text { return c.annotation }

// BaseAlignment governs the base side.
func (c *Cell) BaseAlignment() Alignment { return c.base }

// AnnotationAlignment governs the annotation side.
func (c *Cell) AnnotationAlignment() Alignment { return c.over }
