package css_test

import (
	"errors"
	"image/color"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"pstyle/css"
	"pstyle/css/props"
)

func newParser() *css.Parser {
	log := zap.NewNop()
	return css.NewParser(log, props.NewRegistry(log))
}

// topRules collects top-level rules, @media blocks are not flattened.
func topRules(sheet *css.Stylesheet) []*css.StyleRule {
	var rules []*css.StyleRule
	for _, item := range sheet.Items {
		if item.Rule != nil {
			rules = append(rules, item.Rule)
		}
	}
	return rules
}

func TestParser_ElementSelector(t *testing.T) {
	sheet := newParser().Parse([]byte(`p { text-indent: 1em; }`))

	rules := topRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	rule := rules[0]
	if rule.Selector.String() != "p" {
		t.Errorf("expected selector 'p', got '%s'", rule.Selector)
	}
	val, ok := rule.GetProperty("text-indent")
	if !ok {
		t.Fatal("expected text-indent property")
	}
	if val.Kind != css.ValueDimension || val.Number != 1 || val.Unit != "em" {
		t.Errorf("expected 1em, got %s", val)
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	sheet := newParser().Parse([]byte(`h2, h3, h4 { font-size: 120%; }`))

	rules := topRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected one rule for grouped selector, got %d", len(rules))
	}
	alts := css.Alternatives(rules[0].Selector)
	expected := []string{"h2", "h3", "h4"}
	if len(alts) != len(expected) {
		t.Fatalf("expected %d alternatives, got %d", len(expected), len(alts))
	}
	for i, alt := range alts {
		if alt.String() != expected[i] {
			t.Errorf("alternative %d: expected '%s', got '%s'", i, expected[i], alt)
		}
	}
}

func TestParser_ShorthandMargin(t *testing.T) {
	sheet := newParser().Parse([]byte(`p { margin: 1em 2em; }`))
	rule := topRules(sheet)[0]

	want := map[string]string{
		"margin-top":    "1em",
		"margin-right":  "2em",
		"margin-bottom": "1em",
		"margin-left":   "2em",
	}
	if len(rule.Declarations) != len(want) {
		t.Errorf("expected %d longhands, got %d: %s", len(want), len(rule.Declarations), rule.Declarations)
	}
	for name, v := range want {
		got, ok := rule.GetProperty(name)
		if !ok || got.String() != v {
			t.Errorf("%s = %s, want %s", name, got, v)
		}
	}
	if _, ok := rule.GetProperty("margin"); ok {
		t.Error("shorthand itself must not be stored")
	}
}

func TestParser_Important(t *testing.T) {
	sheet := newParser().Parse([]byte(`p { color: red !important; color: blue; font-style: italic ! important }`))
	rule := topRules(sheet)[0]

	color, _ := rule.Declarations.Get("color")
	if !color.Important || color.Value.String() != "rgb(255, 0, 0)" {
		t.Errorf("normal declaration replaced important one: %s", color)
	}
	style, _ := rule.Declarations.Get("font-style")
	if !style.Important || style.Value.String() != "italic" {
		t.Errorf("font-style = %s", style)
	}
}

func TestParser_ErrorRecovery(t *testing.T) {
	input := []byte(`
		p { color: red; bogus: 1; width: -5px; margin-top: 2px }
		p:hover { color: red }
		h1 { color: ; font-weight: bold }
		div { 12px }
		span { color: blue }
	`)
	sheet := newParser().Parse(input)

	rules := topRules(sheet)
	got := make([]string, len(rules))
	for i, r := range rules {
		got[i] = r.String()
	}
	want := []string{
		"p { color: rgb(255, 0, 0); margin-top: 2px }",
		"h1 { font-weight: bold }",
		"div { }",
		"span { color: rgb(0, 0, 255) }",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rules =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if len(sheet.Warnings) != 5 {
		t.Errorf("expected 5 warnings, got %d: %v", len(sheet.Warnings), sheet.Warnings)
	}
	if err := sheet.Err(); !errors.Is(err, css.ErrDropped) {
		t.Errorf("Err() = %v", err)
	}
}

func TestParser_UnterminatedInput(t *testing.T) {
	sheet := newParser().Parse([]byte(`p { color: red; } h1 { font-weight: bold`))
	rules := topRules(sheet)
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if v, ok := rules[1].GetProperty("font-weight"); !ok || !v.IsKeyword("bold") {
		t.Errorf("unterminated rule lost its declaration: %s", rules[1])
	}
	if len(sheet.Warnings) == 0 {
		t.Error("expected a warning for unterminated block")
	}
}

func TestParser_RawValues(t *testing.T) {
	sheet := css.NewParser(zap.NewNop(), nil).Parse([]byte(`p { anything: goes  here }`))
	v, ok := topRules(sheet)[0].GetProperty("anything")
	if !ok || v.Kind != css.ValueRaw || v.String() != "goes here" {
		t.Errorf("raw value = %v", v)
	}
}

func TestParser_CustomProperty(t *testing.T) {
	sheet := newParser().Parse([]byte(`html, body { --Accent: #ABC  ; }`))
	v, ok := topRules(sheet)[0].GetProperty("--accent")
	if !ok {
		t.Fatal("custom property missing")
	}
	if v.Kind != css.ValueRaw || v.String() != "#ABC" {
		t.Errorf("custom property = %s", v)
	}
}

func TestParser_FontFace(t *testing.T) {
	sheet := newParser().Parse([]byte(`
		@font-face {
			font-family: "MyFont";
			src: url("fonts/myfont.woff2");
			font-weight: bold;
			font-style: italic;
		}
	`))

	faces := sheet.FontFaces()
	if len(faces) != 1 {
		t.Fatalf("expected 1 font-face, got %d", len(faces))
	}
	ff := faces[0]
	if ff.Family != "MyFont" {
		t.Errorf("expected family 'MyFont', got '%s'", ff.Family)
	}
	if ff.Weight != "bold" {
		t.Errorf("expected weight 'bold', got '%s'", ff.Weight)
	}
	if ff.Style != "italic" {
		t.Errorf("expected style 'italic', got '%s'", ff.Style)
	}
	if !strings.Contains(ff.Src, "fonts/myfont.woff2") {
		t.Errorf("unexpected src '%s'", ff.Src)
	}
}

func TestParser_Import(t *testing.T) {
	sheet := newParser().Parse([]byte(`
		@import "other.css";
		@import url("another.css") print, screen;
		@import 42;
		p { margin: 0; }
	`))

	if len(sheet.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(sheet.Items))
	}
	imports := sheet.Imports()
	if !reflect.DeepEqual(imports, []string{"other.css", "another.css"}) {
		t.Errorf("imports = %v", imports)
	}
	if types := sheet.Items[1].Import.Media.Types(); !reflect.DeepEqual(types, []string{"print", "screen"}) {
		t.Errorf("import media = %v", types)
	}
	if sheet.Items[2].Rule == nil {
		t.Fatal("expected third item to be a rule")
	}
	if len(sheet.Warnings) != 1 {
		t.Errorf("expected warning for malformed @import, got %v", sheet.Warnings)
	}
}

func TestParser_Namespace(t *testing.T) {
	sheet := newParser().Parse([]byte(`
		@namespace url(http://www.w3.org/1999/xhtml);
		@namespace fb "http://www.gribuser.ru/xml/fictionbook/2.0";
		fb|p { color: red }
	`))
	ns := sheet.Namespaces()
	want := map[string]string{
		"":   "http://www.w3.org/1999/xhtml",
		"fb": "http://www.gribuser.ru/xml/fictionbook/2.0",
	}
	if !reflect.DeepEqual(ns, want) {
		t.Errorf("namespaces = %v", ns)
	}
	if rules := topRules(sheet); len(rules) != 1 || rules[0].Selector.String() != "fb|p" {
		t.Errorf("namespaced rule not parsed: %v", rules)
	}
}

func TestParser_Page(t *testing.T) {
	sheet := newParser().Parse([]byte(`
		@page { size: A4; margin: 2cm }
		@page :first { margin-top: 4cm; @top-center { content: string(chapter) } }
	`))
	pages := sheet.PageRules()
	if len(pages) != 2 {
		t.Fatalf("expected 2 page rules, got %d", len(pages))
	}
	if pages[0].Selector != "" || pages[1].Selector != ":first" {
		t.Errorf("page selectors = %q, %q", pages[0].Selector, pages[1].Selector)
	}
	if v, ok := pages[0].Declarations.Get("size"); !ok || v.Value.String() != "A4" {
		t.Errorf("size = %v", v)
	}
	if v, ok := pages[1].Declarations.Get("margin-top"); !ok || v.Value.String() != "4cm" {
		t.Errorf("margin-top = %v", v)
	}
}

func TestParser_Media(t *testing.T) {
	sheet := newParser().Parse([]byte(`
		p { color: black }
		@media print { p { color: red } }
		@media screen and (min-width: 500px) { p { color: blue } }
		@media not print { h1 { color: green } }
		@supports (display: grid) { div { color: red } }
	`))

	if n := len(sheet.AllRules()); n != 4 {
		t.Errorf("expected 4 rules overall, got %d", n)
	}

	tests := []struct {
		medium css.Medium
		want   []string
	}{
		{css.Medium{Type: "print"}, []string{"p", "p"}},
		{css.Medium{Type: "screen", Width: 800}, []string{"p", "p", "h1"}},
		{css.Medium{Type: "screen", Width: 320}, []string{"p", "h1"}},
	}
	for _, tt := range tests {
		t.Run(tt.medium.Type, func(t *testing.T) {
			var got []string
			for _, r := range sheet.StyleRules(tt.medium) {
				got = append(got, r.Selector.String())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StyleRules(%v) = %v, want %v", tt.medium, got, tt.want)
			}
		})
	}
}

func TestMediaQuery_Evaluate(t *testing.T) {
	tests := []struct {
		query    string
		medium   css.Medium
		expected bool
	}{
		{"all", css.Medium{Type: "print"}, true},
		{"print", css.Medium{Type: "print"}, true},
		{"PRINT", css.Medium{Type: "print"}, true},
		{"screen", css.Medium{Type: "print"}, false},
		{"not screen", css.Medium{Type: "print"}, true},
		{"only print", css.Medium{Type: "print"}, true},
		{"print, screen", css.Medium{Type: "screen"}, true},
		{"(min-width: 500px)", css.Medium{Width: 600}, true},
		{"(max-width: 5in)", css.Medium{Width: 600}, false},
		{"(width: 0)", css.Medium{}, true},
		{"print and (orientation: portrait)", css.Medium{Type: "print", Width: 600, Height: 800}, true},
		{"print and (orientation: landscape)", css.Medium{Type: "print", Width: 600, Height: 800}, false},
		{"(color)", css.Medium{Type: "screen"}, true},
		{"(hover)", css.Medium{Type: "screen"}, false},
		{"not (hover)", css.Medium{Type: "screen"}, true},
		{"print garbage", css.Medium{Type: "print"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ml := css.ParseMediaList(css.Tokenize(tt.query))
			if got := ml.Matches(tt.medium); got != tt.expected {
				t.Errorf("%q.Matches(%+v) = %v, want %v", tt.query, tt.medium, got, tt.expected)
			}
		})
	}
}

func TestParser_Comments(t *testing.T) {
	sheet := newParser().Parse([]byte(`
		/* leading */
		p /* inside selector */ { /* inside block */ color: red; /* trailing */ }
	`))
	rules := topRules(sheet)
	if len(rules) != 1 || len(rules[0].Declarations) != 1 {
		t.Fatalf("unexpected rules: %v", rules)
	}
	if len(sheet.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sheet.Warnings)
	}
}

func TestParser_ParseDeclarations(t *testing.T) {
	decls, warnings := newParser().ParseDeclarations(`color: red; margin: 1px 2px 3px 4px; nope: 1`)
	if len(decls) != 5 {
		t.Errorf("expected 5 declarations, got %d: %s", len(decls), decls)
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", warnings)
	}
	if d, _ := decls.Get("margin-left"); d.Value.String() != "4px" {
		t.Errorf("margin-left = %s", d.Value)
	}
}

func TestStylesheet_String_SimpleRule(t *testing.T) {
	sheet := newParser().Parse([]byte(`h1 { background-color: rgb(255, 0, 0) }`))
	if got := sheet.String(); got != "h1 { background-color: rgb(255, 0, 0) }\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestStylesheet_String_SourceOrder(t *testing.T) {
	sheet := newParser().Parse([]byte(`
		@import "reset.css";
		p { margin-top: 0; }
		@font-face { font-family: "MyFont"; src: url("f.woff"); }
		@media print { h1 { color: red; } }
		.footer { font-size: small; }
	`))

	want := strings.Join([]string{
		`@import url("reset.css");`,
		`p { margin-top: 0 }`,
		`@font-face { font-family: "MyFont"; src: url("f.woff") }`,
		`@media print { h1 { color: rgb(255, 0, 0) } }`,
		`.footer { font-size: small }`,
	}, "\n") + "\n"
	if got := sheet.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestStylesheet_RoundTrip(t *testing.T) {
	p := newParser()
	inputs := []string{
		`h1 { background-color: rgb(255, 0, 0) }`,
		`h1 { background-color: #f00 }`,
		`p.x > a[href^="http"]::after { content: " (" attr(href) ")"; color: red !important }`,
		`@media print and (min-width: 10cm) { body { margin: 1em 2em } }`,
		`h1 { string-set: chapter content(), title "T"; animation: 2s ease-in 1s infinite alternate fade }`,
		`@page :first { margin: 0 }`,
		`@namespace fb url("urn:fb"); fb|section > fb|title { break-before: page }`,
		`p { color: #00ff0088 }`,
		`p { color: rgba(10, 20, 30, 0.5); background-color: #0000000d }`,
		`li:first-child::before { content: "*" }`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := p.Parse([]byte(input))
			if len(first.Warnings) > 0 {
				t.Fatalf("warnings: %v", first.Warnings)
			}
			text := first.String()
			second := p.Parse([]byte(text))
			if !reflect.DeepEqual(first, second) {
				t.Errorf("reparse of\n%s\nproduced a different stylesheet:\n%s", text, second)
			}
			if again := second.String(); again != text {
				t.Errorf("serialization not stable:\n%s\n%s", text, again)
			}
			a, b := first.AllRules(), second.AllRules()
			if len(a) != len(b) {
				t.Fatalf("rules: %d, reparsed %d", len(a), len(b))
			}
			for i := range a {
				for _, d := range a[i].Declarations {
					got, ok := b[i].GetProperty(d.Property)
					if !ok || !got.Equal(d.Value) {
						t.Errorf("%s: %s reparsed as %s", d.Property, d.Value, got)
					}
				}
			}
		})
	}
}

func TestValue_ColorAlphaRoundTrip(t *testing.T) {
	p := newParser()
	for a := range 256 {
		c := css.Color(color.RGBA{R: 1, G: 2, B: 3, A: uint8(a)})
		sheet := p.Parse([]byte("p { color: " + c.String() + " }"))
		rules := sheet.AllRules()
		if len(rules) != 1 {
			t.Fatalf("alpha %d: %s was not parsed", a, c)
		}
		got, ok := rules[0].GetProperty("color")
		if !ok || !got.Equal(c) {
			t.Errorf("alpha %d: %s reparsed as %s", a, c, got)
		}
	}

	if got := css.Color(color.RGBA{A: 0x88}).String(); got != "rgba(0, 0, 0, 0.533)" {
		t.Errorf("alpha 0x88 = %s", got)
	}
	if got := css.Color(color.RGBA{A: 0x80}).String(); got != "rgba(0, 0, 0, 0.5)" {
		t.Errorf("alpha 0x80 = %s", got)
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	sheet := newParser().Parse([]byte(`p { margin-top: 0; }`))

	var buf strings.Builder
	n, err := sheet.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo returned error: %v", err)
	}
	if int64(buf.Len()) != n {
		t.Errorf("WriteTo returned %d but wrote %d bytes", n, buf.Len())
	}
	if !strings.Contains(buf.String(), "margin-top: 0") {
		t.Errorf("expected 'margin-top: 0' in output, got: %s", buf.String())
	}
}

func TestRulesBySelector(t *testing.T) {
	sheet := newParser().Parse([]byte(`p { color: red } div p { color: blue } p { font-style: italic }`))
	if got := len(sheet.RulesBySelector("p")); got != 2 {
		t.Errorf("expected 2 'p' rules, got %d", got)
	}
	if got := len(sheet.RulesBySelector("div p")); got != 1 {
		t.Errorf("expected 1 'div p' rule, got %d", got)
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		value css.Value
		want  string
	}{
		{css.Keyword("bold"), "bold"},
		{css.Number(1.5), "1.5"},
		{css.Number(2), "2"},
		{css.Dimension(-0.5, "em"), "-0.5em"},
		{css.Percentage(50), "50%"},
		{css.String(`say "hi"`), `"say \"hi\""`},
		{css.URL("a.png"), `url("a.png")`},
		{css.Function("counter", css.Keyword("c"), css.Comma, css.Keyword("upper-roman")), "counter(c, upper-roman)"},
		{css.Function("cubic-bezier", css.Number(0.1), css.Comma, css.Number(0.7), css.Comma, css.Number(1), css.Comma, css.Number(0.1)), "cubic-bezier(0.1, 0.7, 1, 0.1)"},
		{css.List(" ", css.String("a"), css.Function("attr", css.Keyword("x"))), `"a" attr(x)`},
		{css.List(",", css.Keyword("a"), css.Keyword("b")), "a, b"},
		{css.List(",", css.Keyword("only")), "only"},
	}
	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValue_Predicates(t *testing.T) {
	if !css.Keyword("Bold").IsKeyword("bold") {
		t.Error("IsKeyword must ignore case")
	}
	if css.String("bold").IsKeyword("bold") {
		t.Error("string is not a keyword")
	}
	for _, v := range []css.Value{css.Number(0), css.Dimension(1, "px"), css.Percentage(10)} {
		if !v.IsNumeric() {
			t.Errorf("%s must be numeric", v)
		}
	}
	if css.Keyword("auto").IsNumeric() {
		t.Error("keyword is not numeric")
	}
	if !(css.Value{}).IsZero() || css.Keyword("x").IsZero() {
		t.Error("IsZero is wrong")
	}
	if !css.Dimension(1, "px").Equal(css.Dimension(1, "px")) || css.Dimension(1, "px").Equal(css.Dimension(1, "em")) {
		t.Error("Equal is wrong")
	}
}
