package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	markupLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:|]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	kinds = newTokenKinds(markupLexer)
)

// tokenKinds maps the lexer's token types to rule names and keeps the
// types the hand-written atoms look at.
type tokenKinds struct {
	names                   map[lexer.TokenType]string
	newline, lbrace, rbrace lexer.TokenType
	symbol, str             lexer.TokenType
}

func newTokenKinds(def lexer.Definition) tokenKinds {
	symbols := def.Symbols()
	k := tokenKinds{names: make(map[lexer.TokenType]string, len(symbols))}
	for name, tt := range symbols {
		k.names[tt] = name
	}
	lookup := func(name string) lexer.TokenType {
		tt, ok := symbols[name]
		if !ok {
			panic(fmt.Sprintf("dsl: token %s not defined", name))
		}
		return tt
	}
	k.newline = lookup("Newline")
	k.lbrace = lookup("LBrace")
	k.rbrace = lookup("RBrace")
	k.symbol = lookup("Symbol")
	k.str = lookup("String")
	return k
}

func (k tokenKinds) name(tt lexer.TokenType) string {
	if name, ok := k.names[tt]; ok {
		return name
	}
	return fmt.Sprintf("#%d", tt)
}

// nesting counts open parentheses and brackets inside an expression.
type nesting struct{ paren, bracket int }

func (n nesting) open() bool { return n.paren > 0 || n.bracket > 0 }

func (n *nesting) track(raw string) {
	switch raw {
	case "(":
		n.paren++
	case ")":
		n.paren = max(n.paren-1, 0)
	case "[":
		n.bracket++
	case "]":
		n.bracket = max(n.bracket-1, 0)
	}
}

// boundary reports whether tok ends the current argument list. With list
// set it also ends a value inside an array or inline object.
func (k tokenKinds) boundary(tok *lexer.Token, n nesting, list bool) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case k.newline, k.lbrace, k.rbrace:
		return !n.open()
	case k.symbol:
		switch tok.Value {
		case ";":
			return !n.open()
		case ",":
			return list && !n.open()
		case "]":
			return list && n.bracket == 0
		}
	}
	return false
}

// Lexeme is a single token kept verbatim, used for command arguments and
// bare expressions.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if kinds.boundary(lex.Peek(), nesting{}, false) {
		return participle.NextMatch
	}
	return l.read(lex)
}

func (l *Lexeme) read(lex *lexer.PeekingLexer) error {
	tok := lex.Next()
	if tok.EOF() {
		return participle.NextMatch
	}
	val := tok.Value
	if tok.Type == kinds.str {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return err
		}
		val = unquoted
	}
	*l = Lexeme{Type: kinds.name(tok.Type), Value: val, Raw: tok.Value, Pos: tok.Pos}
	return nil
}

// Expression records raw tokens, used for bare identifiers such as
// `align: justify`.
type Expression struct {
	Parts []*Lexeme
}

// Parse implements participle.Parseable.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var (
		parts []*Lexeme
		n     nesting
	)
	for !kinds.boundary(lex.Peek(), n, true) {
		part := &Lexeme{}
		if err := part.read(lex); err != nil {
			return err
		}
		n.track(part.Raw)
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return participle.NextMatch
	}
	e.Parts = parts
	return nil
}

// String joins the raw parts, as written.
func (e *Expression) String() string {
	var sb strings.Builder
	for _, part := range e.Parts {
		sb.WriteString(part.Value)
	}
	return sb.String()
}
