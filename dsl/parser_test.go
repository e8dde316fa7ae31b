package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/furigana/dsl"
)

const sampleDSL = `
doc Primer v1 {
  meta {
    title: "Reading practice"
    keywords: [
      "ruby"
      "furigana"
    ]
  }

  resources {
    font Body {
      src: "builtin:goregular"
    }

    color Accent = #0F62FE
    style Guide { size: 0.5x; color: Accent }
  }

  page A5 landscape margin 12mm {
    line Body size 14pt align center {
      "今日は、" color Accent
      ruby base justify over center {
        base { "漢字" }
        over Guide { "かん"; ruby { base { "じ" } over { "ji" } } }
      }
      box 4mm 4mm color Accent
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Primer" || doc.Version != "v1" {
		t.Fatalf("unexpected header %s %s", doc.Name, doc.Version)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	if kind := doc.Sections[1].Kind(); kind != "resources" {
		t.Fatalf("expected resources section, got %s", kind)
	}

	meta := doc.Sections[0].Meta
	if meta == nil || len(meta.Block.Statements) < 2 {
		t.Fatalf("meta section missing statements")
	}
	title := meta.Block.Statements[0].Assignment
	if title == nil || string(*title.Value.String) != "Reading practice" {
		t.Fatalf("unexpected title %+v", meta.Block.Statements[0])
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected 2 keywords")
	}

	res := doc.Sections[1].Resources.Block.Commands()
	if len(res) != 3 || res[1].Name != "color" || res[1].Args[len(res[1].Args)-1].Value != "#0F62FE" {
		t.Fatalf("unexpected resources: %+v", res)
	}
	style := res[2]
	if style.Block == nil || len(style.Block.Statements) != 2 {
		t.Fatalf("style block should hold two assignments")
	}
	if got := style.Block.Statements[1].Assignment.Value.Expr.String(); got != "Accent" {
		t.Fatalf("unexpected color expression %q", got)
	}

	pages := doc.Pages()
	if len(pages) != 1 {
		t.Fatalf("expected one page, got %d", len(pages))
	}
	page := pages[0]
	if page.Spec.Size != "A5" || len(page.Spec.Params) != 3 || page.Spec.Params[2].Value != "12mm" {
		t.Fatalf("unexpected page spec %+v", page.Spec)
	}

	lines := page.Block.Commands()
	if len(lines) != 1 || lines[0].Name != "line" {
		t.Fatalf("expected a single line command")
	}
	line := lines[0]
	if got := tokensToString(line.Args); got != "Body size 14pt align center" {
		t.Fatalf("unexpected line args %q", got)
	}

	first := line.Block.Statements[0].Text
	if first == nil || string(first.Value) != "今日は、" {
		t.Fatalf("expected leading text literal, got %+v", line.Block.Statements[0])
	}
	if got := tokensToString(first.Options); got != "color Accent" {
		t.Fatalf("unexpected literal options %q", got)
	}

	rubyCmd := line.Block.Statements[1].Command
	if rubyCmd == nil || rubyCmd.Name != "ruby" {
		t.Fatalf("expected ruby command")
	}
	base := rubyCmd.Child("base")
	over := rubyCmd.Child("over")
	if base == nil || over == nil {
		t.Fatalf("ruby must have base and over children")
	}
	if len(over.Args) != 1 || over.Args[0].Value != "Guide" {
		t.Fatalf("unexpected over args %+v", over.Args)
	}
	inner := over.Block.Statements[1].Command
	if inner == nil || inner.Name != "ruby" || inner.Child("over") == nil {
		t.Fatalf("nested ruby not parsed inside annotation")
	}

	box := line.Block.Statements[2].Command
	if box == nil || box.Name != "box" || len(box.Args) != 4 {
		t.Fatalf("unexpected box %+v", box)
	}
}

func TestParseReportsPosition(t *testing.T) {
	_, err := dsl.Parse("broken.ruby", strings.NewReader("doc X v1 {\n  page A4 {\n"))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "broken.ruby") {
		t.Fatalf("error should carry the file name: %v", err)
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}

func TestParseAozoraBlock(t *testing.T) {
	doc, err := dsl.ParseString(`doc A v1 {
  page A6 {
    line { aozora Body reading Guide { "漢字《かんじ》を読む" } }
  }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	line := doc.Pages()[0].Block.Commands()[0]
	cmd := line.Child("aozora")
	if cmd == nil || len(cmd.Args) != 3 {
		t.Fatalf("aozora command not parsed: %+v", line.Block)
	}
	text := cmd.Block.Statements[0].Text
	if text == nil {
		t.Fatalf("aozora block should hold a text literal")
	}
	runs := dsl.SplitAozora(string(text.Value))
	if len(runs) != 2 || runs[0].Reading != "かんじ" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}
