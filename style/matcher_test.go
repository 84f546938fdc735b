package style_test

import (
	"testing"

	"pstyle/css"
	"pstyle/dom"
	"pstyle/style"
)

// sample builds
//
//	html
//	  body
//	    div.foo#main lang=en-US
//	      "text"
//	      p.first
//	      p.second title="Hello World"
//	      a href=...
//	    span.foo
func sample() (doc *dom.Node, nodes map[string]*dom.Node) {
	doc = dom.NewDocument()
	html := doc.AppendChild(dom.NewElement("html"))
	body := html.AppendChild(dom.NewElement("body"))
	div := body.AppendChild(dom.NewElement("div",
		dom.Attr{Name: "class", Value: "foo wide"},
		dom.Attr{Name: "id", Value: "main"},
		dom.Attr{Name: "lang", Value: "en-US"}))
	div.AppendChild(dom.NewText("text"))
	p1 := div.AppendChild(dom.NewElement("p", dom.Attr{Name: "class", Value: "first"}))
	div.AppendChild(dom.NewText("  "))
	p2 := div.AppendChild(dom.NewElement("p",
		dom.Attr{Name: "class", Value: "second"},
		dom.Attr{Name: "title", Value: "Hello World"}))
	a := div.AppendChild(dom.NewElement("a", dom.Attr{Name: "href", Value: "https://example.com/book.pdf"}))
	a.Clickable = true
	span := body.AppendChild(dom.NewElement("span", dom.Attr{Name: "class", Value: "foo"}))
	return doc, map[string]*dom.Node{
		"html": html, "body": body, "div": div, "p1": p1, "p2": p2, "a": a, "span": span,
	}
}

func mustSelector(t *testing.T, text string) css.Selector {
	t.Helper()
	sel, err := css.ParseSelectorText(text)
	if err != nil {
		t.Fatalf("ParseSelectorText(%q): %v", text, err)
	}
	return sel
}

func TestMatcher_Matches(t *testing.T) {
	_, n := sample()

	tests := []struct {
		selector string
		node     string
		want     bool
	}{
		{"html div.foo", "div", true},
		{"div.foo", "div", true},
		{"span.foo", "div", false},
		{"span.foo", "span", true},
		{"*", "span", true},
		{"DIV", "div", true},
		{"#main", "div", true},
		{"#Main", "div", false},
		{".wide.foo", "div", true},
		{".wide.bar", "div", false},
		{"body > div", "div", true},
		{"html > div", "div", false},
		{"html div > p", "p1", true},
		{"body p", "p2", true},
		{"p + p", "p2", true},
		{"p + p", "p1", false},
		{"p.first ~ a", "a", true},
		{"p.second + a", "a", true},
		{"div ~ span", "span", true},
		{"div + span", "span", true},
		{"[title]", "p2", true},
		{"[title]", "p1", false},
		{`[title="Hello World"]`, "p2", true},
		{`[title*=world]`, "p2", true},
		{`[title*=""]`, "p2", false},
		{`[title~=World]`, "p2", true},
		{`[title~=Wor]`, "p2", false},
		{`[href^=https]`, "a", true},
		{`[href$=".pdf"]`, "a", true},
		{`[href$=""]`, "a", false},
		{`[lang|=en]`, "div", true},
		{`[lang|=en-US]`, "div", true},
		{`[lang|=e]`, "div", false},
		{"a:link", "a", true},
		{"p:link", "p1", false},
		{"p:first-child", "p1", true},
		{"p:first-child", "p2", false},
		{"div, span", "span", true},
		{"div p.second, a", "p2", true},
		{"*|p", "p1", true},
		{"html || p", "p1", false},
		{"body div p a", "a", true},
		{"span p", "p1", false},
	}
	var m style.Matcher
	for _, tt := range tests {
		t.Run(tt.selector+"/"+tt.node, func(t *testing.T) {
			if got := m.Matches(mustSelector(t, tt.selector), n[tt.node]); got != tt.want {
				t.Errorf("Matches(%q, %s) = %v, want %v", tt.selector, tt.node, got, tt.want)
			}
		})
	}
}

func TestMatcher_Backtracking(t *testing.T) {
	// a > b c must find the b whose parent is a even when a nearer b exists
	doc := dom.NewDocument()
	a := doc.AppendChild(dom.NewElement("a"))
	outer := a.AppendChild(dom.NewElement("b"))
	inner := outer.AppendChild(dom.NewElement("x")).AppendChild(dom.NewElement("b"))
	c := inner.AppendChild(dom.NewElement("c"))

	var m style.Matcher
	if !m.Matches(mustSelector(t, "a > b c"), c) {
		t.Error("expected match through the outer b")
	}
	if m.Matches(mustSelector(t, "a > x c"), c) {
		t.Error("x is not a child of a")
	}
}

func TestMatcher_FirstChild(t *testing.T) {
	doc := dom.NewDocument()
	div := doc.AppendChild(dom.NewElement("div"))
	div.AppendChild(dom.NewText("lead "))
	first := div.AppendChild(dom.NewElement("p"))
	second := div.AppendChild(dom.NewElement("p"))
	div.AppendChild(dom.NewText(" tail"))
	third := div.AppendChild(dom.NewElement("p"))

	var m style.Matcher
	sel := mustSelector(t, "p:first-child")
	for i, tt := range []struct {
		node *dom.Node
		want bool
	}{{first, true}, {second, false}, {third, false}} {
		if got := m.Matches(sel, tt.node); got != tt.want {
			t.Errorf("element %d: got %v, want %v", i, got, tt.want)
		}
	}
	// text nodes never match
	if m.Matches(sel, div.Nodes()[0]) {
		t.Error("text node matched :first-child")
	}
	if !m.Matches(mustSelector(t, "div > :first-child"), first) {
		t.Error("bare :first-child did not match")
	}
}

func TestMatcher_AbsentValues(t *testing.T) {
	var m style.Matcher
	if m.Matches(mustSelector(t, "p"), nil) {
		t.Error("nil box matched")
	}
	if m.Matches(nil, dom.NewElement("p")) {
		t.Error("nil selector matched")
	}
	// detached element has no parent to satisfy a combinator
	if m.Matches(mustSelector(t, "div p"), dom.NewElement("p")) {
		t.Error("detached element matched descendant selector")
	}
}

func TestMatcher_Namespace(t *testing.T) {
	doc := dom.NewDocument()
	el := doc.AppendChild(dom.NewElement("section"))
	el.Prefix = "fb"

	var m style.Matcher
	if !m.Matches(mustSelector(t, "fb|section"), el) {
		t.Error("fb|section did not match")
	}
	if m.Matches(mustSelector(t, "x|section"), el) {
		t.Error("x|section matched")
	}
}

func TestMatcher_StructuralPseudoElement(t *testing.T) {
	doc := dom.NewDocument()
	ul := doc.AppendChild(dom.NewElement("ul"))
	var items []*dom.Node
	for range 3 {
		items = append(items, ul.AppendChild(dom.NewElement("li")))
	}
	before := make([]dom.Box, len(items))
	after := make([]dom.Box, len(items))
	for i, li := range items {
		before[i], _ = li.EnsurePseudo(dom.PseudoBefore)
		after[i], _ = li.EnsurePseudo(dom.PseudoAfter)
	}

	tests := []struct {
		selector string
		boxes    []dom.Box
		want     []bool
	}{
		{"li:first-child::before", before, []bool{true, false, false}},
		{"li:first-child::after", after, []bool{true, false, false}},
		{"li:first-child::before", after, []bool{false, false, false}},
		{"li:nth-child(2)::after", after, []bool{false, true, false}},
		{"ul > li:nth-child(3)::before", before, []bool{false, false, true}},
		{":first-child::before", before, []bool{true, false, false}},
		{"li:first-child:nth-child(1)", []dom.Box{items[0], items[1], items[2]}, []bool{true, false, false}},
		{"li:first-child:nth-child(2)", []dom.Box{items[0], items[1], items[2]}, []bool{false, false, false}},
	}
	var m style.Matcher
	for _, tt := range tests {
		sel := mustSelector(t, tt.selector)
		for i, b := range tt.boxes {
			if got := m.Matches(sel, b); got != tt.want[i] {
				t.Errorf("%s on item %d: got %v, want %v", tt.selector, i+1, got, tt.want[i])
			}
		}
	}

	// compounds built by hand may keep the structural part in the middle
	flat := css.Compound{Parts: []css.Selector{css.Type{Name: "li"}, css.FirstChild{Offset: 0}, css.PseudoElement{Name: "before"}}}
	if !m.Matches(flat, before[0]) || m.Matches(flat, before[1]) {
		t.Error("hand built compound matched wrong boxes")
	}
}
