package dsl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Run is one piece of text written in Aozora Bunko ruby notation. Plain
// text has an empty Reading.
type Run struct {
	Base    string
	Reading string
}

// IsRuby reports whether the run carries an annotation.
func (r Run) IsRuby() bool { return r.Reading != "" }

const (
	readingOpen  = "《"
	readingClose = "》"
)

// SplitAozora splits s into runs. Two forms are recognised:
//
//	｜東京《とうきょう》  the base runs from the bar to the opening bracket
//	漢字《かんじ》        the base is the kanji run right before the bracket
//
// The ASCII bar is accepted in place of ｜. Brackets that do not form a
// complete annotation are kept as text.
func SplitAozora(s string) []Run {
	var (
		out  []Run
		text strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			out = append(out, Run{Base: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '｜' || r == '|':
			if base, reading, n, ok := explicitRuby(s[i+size:]); ok {
				flush()
				out = append(out, Run{Base: base, Reading: reading})
				i += size + n
				continue
			}
		case strings.HasPrefix(s[i:], readingOpen):
			if reading, n, ok := closeReading(s[i+size:]); ok {
				pending := text.String()
				if cut := kanjiSuffix(pending); cut < len(pending) {
					text.Reset()
					text.WriteString(pending[:cut])
					flush()
					out = append(out, Run{Base: pending[cut:], Reading: reading})
					i += size + n
					continue
				}
			}
		}
		text.WriteString(s[i : i+size])
		i += size
	}
	flush()
	return out
}

// explicitRuby parses `base《reading》` after a bar and returns the bytes consumed.
func explicitRuby(rest string) (string, string, int, bool) {
	j := strings.Index(rest, readingOpen)
	if j <= 0 {
		return "", "", 0, false
	}
	base := rest[:j]
	if strings.ContainsAny(base, "\n｜|》") {
		return "", "", 0, false
	}
	reading, n, ok := closeReading(rest[j+len(readingOpen):])
	if !ok {
		return "", "", 0, false
	}
	return base, reading, j + len(readingOpen) + n, true
}

func closeReading(rest string) (string, int, bool) {
	k := strings.Index(rest, readingClose)
	if k <= 0 {
		return "", 0, false
	}
	reading := rest[:k]
	if strings.ContainsAny(reading, "\n"+readingOpen) {
		return "", 0, false
	}
	return reading, k + len(readingClose), true
}

// kanjiSuffix returns the offset where the trailing kanji run of s starts.
func kanjiSuffix(s string) int {
	cut := len(s)
	for cut > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:cut])
		if !isKanji(r) {
			break
		}
		cut -= size
	}
	return cut
}

// 々 〆 〇 and ヶ sit outside the Han script but belong to kanji runs.
func isKanji(r rune) bool {
	switch r {
	case '々', '〆', '〇', 'ヶ':
		return true
	}
	return unicode.Is(unicode.Han, r)
}
