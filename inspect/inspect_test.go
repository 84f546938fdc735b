package inspect_test

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"pstyle/config"
	"pstyle/css"
	"pstyle/css/props"
	"pstyle/dom"
	"pstyle/inspect"
	"pstyle/style"
)

func render(t *testing.T, conf config.OutputConfig, r inspect.Report) string {
	t.Helper()
	var buf bytes.Buffer
	if err := inspect.NewWriter(&conf).Write(&buf, r); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return buf.String()
}

func TestTokens(t *testing.T) {
	r := inspect.Tokens("inline", `h1::before { content: string(chapter, last) " " counter(c) 2em }`, false)
	if len(r.Tokens) == 0 {
		t.Fatal("no tokens")
	}
	for _, tok := range r.Tokens {
		if tok.Kind == "Whitespace" {
			t.Fatal("whitespace tokens are reported")
		}
	}

	var fn *inspect.Token
	for i := range r.Tokens {
		if r.Tokens[i].Kind == "Function" && r.Tokens[i].Data == "string" {
			fn = &r.Tokens[i]
		}
	}
	if fn == nil {
		t.Fatal("string() function not reported")
	}
	if len(fn.Args) != 3 || fn.Args[0].Data != "chapter" || fn.Args[2].Data != "last" {
		t.Errorf("string() args = %+v", fn.Args)
	}

	last := r.Tokens[len(r.Tokens)-2]
	if last.Kind != "Dimension" || last.Number != 2 || last.Unit != "em" {
		t.Errorf("dimension token = %+v", last)
	}

	text := render(t, config.OutputConfig{Format: config.OutputFormatText}, r)
	if !strings.HasPrefix(text, "# inline\n") {
		t.Errorf("text output starts with %q", text)
	}
	if !strings.Contains(text, "Function \"string\"\n  Ident \"chapter\"\n  Comma \",\"\n  Ident \"last\"\n") {
		t.Errorf("function args are not nested:\n%s", text)
	}
	if !strings.Contains(text, "Dimension \"2em\" unit=em\n") {
		t.Errorf("dimension line missing:\n%s", text)
	}
}

func TestStylesheet(t *testing.T) {
	p := css.NewParser(zap.NewNop(), props.NewRegistry(zap.NewNop()))
	sheet := p.Parse([]byte(`
@import url(base.css) print;
@namespace fb url(http://www.gribuser.ru/xml/fictionbook/2.0);
h1 { color: red !important }
@media print { p.note { font-size: 10pt } }
@page :first { margin: 1in }
@font-face { font-family: Serif; src: url(serif.ttf) }
p:hover { color: red }
`), "book.css")

	r := inspect.Stylesheet("book.css", sheet)
	if len(r.Rules) != 2 {
		t.Fatalf("rules = %+v", r.Rules)
	}
	if r.Rules[0].Selector != "h1" || !r.Rules[0].Declarations[0].Important {
		t.Errorf("first rule = %+v", r.Rules[0])
	}
	if r.Rules[1].Media != "print" || r.Rules[1].Specificity != [3]int{0, 1, 1} {
		t.Errorf("media rule = %+v", r.Rules[1])
	}
	if len(r.Imports) != 1 || r.Imports[0].URL != "base.css" || r.Imports[0].Media != "print" {
		t.Errorf("imports = %+v", r.Imports)
	}
	if r.Namespaces["fb"] == "" {
		t.Errorf("namespaces = %v", r.Namespaces)
	}
	if len(r.Pages) != 1 || r.Pages[0].Selector != ":first" {
		t.Errorf("pages = %+v", r.Pages)
	}
	if len(r.FontFaces) != 1 || r.FontFaces[0].Family != "Serif" {
		t.Errorf("font faces = %+v", r.FontFaces)
	}
	if len(r.Warnings) == 0 {
		t.Error("unsupported selector was not reported")
	}

	out := render(t, config.OutputConfig{}, r)
	var back map[string]any
	if err := yaml.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if back["source"] != "book.css" {
		t.Errorf("source = %v", back["source"])
	}
	if _, ok := back["CSS"]; ok {
		t.Error("normalized text leaked into YAML")
	}

	text := render(t, config.OutputConfig{Format: config.OutputFormatText}, r)
	if !strings.Contains(text, "h1 { color: rgb(255, 0, 0) !important }") {
		t.Errorf("normalized stylesheet missing:\n%s", text)
	}
	if !strings.Contains(text, "/* dropped: ") {
		t.Errorf("warnings missing:\n%s", text)
	}
}

func sampleDocument() (*dom.Node, *dom.Node) {
	doc := dom.NewDocument()
	body := doc.AppendChild(dom.NewElement("body"))
	h1 := body.AppendChild(dom.NewElement("h1", dom.Attr{Name: "class", Value: "title"}))
	h1.AppendChild(dom.NewText("One"))
	body.AppendChild(dom.NewElement("p")).AppendChild(dom.NewText("text"))
	body.AppendChild(dom.NewElement("h1")).AppendChild(dom.NewText("Two"))
	return doc, h1
}

func TestMatch(t *testing.T) {
	doc, _ := sampleDocument()
	sel, err := css.ParseSelectorText("body > h1")
	if err != nil {
		t.Fatal(err)
	}
	r := inspect.Match(sel, doc)
	want := []string{"body > h1.title", "body > h1"}
	if strings.Join(r.Matches, "|") != strings.Join(want, "|") {
		t.Errorf("matches = %v, want %v", r.Matches, want)
	}

	text := render(t, config.OutputConfig{Format: config.OutputFormatText}, r)
	if !strings.HasPrefix(text, "body > h1 (0,0,2): 2 matches\n") {
		t.Errorf("text = %q", text)
	}
}

func TestStyling(t *testing.T) {
	eng := style.NewEngine(zap.NewNop(), nil, css.Medium{Type: "print"})
	eng.AddStylesheet(style.OriginAuthor, eng.Parser().Parse([]byte(`
body { counter-reset: ch }
h1 { counter-increment: ch; string-set: title content(); break-before: page; color: navy }
h1::before { content: counter(ch) ". " }
`)))

	doc, h1 := sampleDocument()
	res, err := eng.Style(doc)
	if err != nil {
		t.Fatal(err)
	}

	r := inspect.Styling(eng, doc, res, "book.html", []string{"color"})
	if r.Medium != "print" || r.Pages != 2 || r.Synthesized != 2 {
		t.Errorf("summary = %s/%d/%d", r.Medium, r.Pages, r.Synthesized)
	}

	var before *inspect.Element
	for i := range r.Elements {
		if r.Elements[i].Path == "body > h1.title > ::before" {
			before = &r.Elements[i]
		}
	}
	if before == nil {
		t.Fatalf("generated box not reported: %+v", r.Elements)
	}
	if before.Generated != "1. " || before.Depth != 2 {
		t.Errorf("generated element = %+v", *before)
	}
	if len(before.Matched) != 1 || before.Matched[0].Selector != "h1::before" || before.Matched[0].Origin != "author" {
		t.Errorf("matched = %+v", before.Matched)
	}
	if got := r.Elements[1].Properties["color"]; got != "rgb(0, 0, 128)" {
		t.Errorf("h1 color = %q", got)
	}
	if _, ok := res.Styles[h1]; !ok {
		t.Error("heading is not styled")
	}

	if len(r.Running) != 2 {
		t.Fatalf("running = %+v", r.Running)
	}
	if rs := r.Running[1].Strings[0]; rs.Name != "title" || rs.First != "Two" || rs.Start != "One" {
		t.Errorf("page 2 strings = %+v", rs)
	}

	text := render(t, config.OutputConfig{Format: config.OutputFormatText}, r)
	for _, want := range []string{
		"# book.html medium=print pages=2 synthesized=2\n",
		"h1.title color=rgb(0, 0, 128)\n",
		"::before content=\"1. \"",
		"title: first=\"Two\"",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text output misses %q:\n%s", want, text)
		}
	}

	custom := render(t, config.OutputConfig{
		Format:   config.OutputFormatText,
		Template: `{{ range .Strings }}{{ .Page }}:{{ .Value | upper }};{{ end }}`,
	}, r)
	if custom != "1:ONE;2:TWO;" {
		t.Errorf("custom template output = %q", custom)
	}
}

func TestWriter_BadTemplate(t *testing.T) {
	w := inspect.NewWriter(&config.OutputConfig{Format: config.OutputFormatText, Template: "{{ .Broken "})
	if err := w.Write(&bytes.Buffer{}, inspect.MatchReport{}); err == nil {
		t.Error("expected template error")
	}
}
