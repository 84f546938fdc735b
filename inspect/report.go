// Package inspect turns tokens, stylesheets and styling results into plain
// report structures suitable for YAML or template output.
package inspect

import (
	"slices"
	"strings"

	"pstyle/css"
	"pstyle/dom"
	"pstyle/gcpm"
	"pstyle/style"
)

// Report is anything Writer can output.
type Report interface {
	// Kind names default text template of the report.
	Kind() string
}

type Token struct {
	Kind   string  `yaml:"kind"`
	Data   string  `yaml:"data,omitempty"`
	Number float64 `yaml:"number,omitempty"`
	Unit   string  `yaml:"unit,omitempty"`
	Args   []Token `yaml:"args,omitempty"`
}

type TokenReport struct {
	Source string  `yaml:"source"`
	Tokens []Token `yaml:"tokens"`
}

func (TokenReport) Kind() string { return "tokens" }

func convertTokens(tokens []css.Token, whitespace bool) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == css.TokenWhitespace && !whitespace {
			continue
		}
		tok := Token{Kind: t.Kind.String(), Data: t.Data}
		switch t.Kind {
		case css.TokenNumber, css.TokenPercentage, css.TokenDimension:
			tok.Number, tok.Unit = t.Number, t.Unit
		case css.TokenString:
			tok.Data = t.Text()
		case css.TokenFunction:
			tok.Args = convertTokens(t.Args, whitespace)
		}
		out = append(out, tok)
	}
	return out
}

// Tokens reports tokens of CSS text. Whitespace tokens are left out unless
// requested.
func Tokens(source, text string, whitespace bool) TokenReport {
	return TokenReport{Source: source, Tokens: convertTokens(css.Tokenize(text), whitespace)}
}

type Declaration struct {
	Property  string `yaml:"property"`
	Value     string `yaml:"value"`
	Important bool   `yaml:"important,omitempty"`
}

type Rule struct {
	Selector     string        `yaml:"selector"`
	Specificity  [3]int        `yaml:"specificity,flow"`
	Media        string        `yaml:"media,omitempty"`
	Declarations []Declaration `yaml:"declarations"`
}

type Page struct {
	Selector     string        `yaml:"selector,omitempty"`
	Declarations []Declaration `yaml:"declarations"`
}

type Import struct {
	URL   string `yaml:"url"`
	Media string `yaml:"media,omitempty"`
}

type FontFace struct {
	Family string `yaml:"family"`
	Src    string `yaml:"src,omitempty"`
	Style  string `yaml:"style,omitempty"`
	Weight string `yaml:"weight,omitempty"`
}

type SheetReport struct {
	Source     string            `yaml:"source"`
	Imports    []Import          `yaml:"imports,omitempty"`
	Namespaces map[string]string `yaml:"namespaces,omitempty"`
	Rules      []Rule            `yaml:"rules"`
	Pages      []Page            `yaml:"pages,omitempty"`
	FontFaces  []FontFace        `yaml:"font_faces,omitempty"`
	Warnings   []string          `yaml:"warnings,omitempty"`
	// CSS is normalized stylesheet text.
	CSS string `yaml:"-"`
}

func (SheetReport) Kind() string { return "stylesheet" }

func declarations(ds css.Declarations) []Declaration {
	out := make([]Declaration, 0, len(ds))
	for _, d := range ds {
		out = append(out, Declaration{Property: d.Property, Value: d.Value.String(), Important: d.Important})
	}
	return out
}

func collectRules(items []css.StylesheetItem, media string, out []Rule) []Rule {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			out = append(out, Rule{
				Selector:     item.Rule.Selector.String(),
				Specificity:  item.Rule.Selector.Specificity(),
				Media:        media,
				Declarations: declarations(item.Rule.Declarations),
			})
		case item.Media != nil:
			nested := item.Media.Media.String()
			if media != "" {
				nested = media + " and " + nested
			}
			out = collectRules(item.Media.Items, nested, out)
		}
	}
	return out
}

// Stylesheet reports everything parser kept from a stylesheet.
func Stylesheet(source string, sheet *css.Stylesheet) SheetReport {
	r := SheetReport{
		Source:     source,
		Namespaces: sheet.Namespaces(),
		Rules:      collectRules(sheet.Items, "", nil),
		Warnings:   sheet.Warnings,
		CSS:        sheet.String(),
	}
	for _, item := range sheet.Items {
		if imp := item.Import; imp != nil {
			r.Imports = append(r.Imports, Import{URL: imp.URL, Media: imp.Media.String()})
		}
	}
	for _, p := range sheet.PageRules() {
		r.Pages = append(r.Pages, Page{Selector: p.Selector, Declarations: declarations(p.Declarations)})
	}
	for _, ff := range sheet.FontFaces() {
		r.FontFaces = append(r.FontFaces, FontFace(ff))
	}
	return r
}

// Path returns box description prefixed by its ancestors.
func Path(b dom.Box) string {
	var parts []string
	for ; b != nil; b = b.Parent() {
		if !b.IsElement() && b.PseudoKind() == dom.PseudoNone {
			continue
		}
		parts = append(parts, dom.Describe(b))
	}
	slices.Reverse(parts)
	return strings.Join(parts, " > ")
}

type MatchReport struct {
	Selector    string   `yaml:"selector"`
	Specificity [3]int   `yaml:"specificity,flow"`
	Matches     []string `yaml:"matches"`
}

func (MatchReport) Kind() string { return "match" }

// Match reports boxes of the tree matched by the selector, in document order.
func Match(sel css.Selector, root dom.Box) MatchReport {
	r := MatchReport{Selector: sel.String(), Specificity: sel.Specificity(), Matches: []string{}}
	var m style.Matcher
	dom.Walk(root, func(b dom.Box, _ int) error { //nolint:errcheck
		if m.Matches(sel, b) {
			r.Matches = append(r.Matches, Path(b))
		}
		return nil
	})
	return r
}

type MatchedRule struct {
	Selector    string `yaml:"selector"`
	Specificity [3]int `yaml:"specificity,flow"`
	Origin      string `yaml:"origin"`
	Order       int    `yaml:"order"`
}

type Element struct {
	Path       string            `yaml:"path"`
	Depth      int               `yaml:"depth"`
	Generated  string            `yaml:"generated,omitempty"`
	Matched    []MatchedRule     `yaml:"matched,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

type RunningString struct {
	Name  string `yaml:"name"`
	First string `yaml:"first"`
	Start string `yaml:"start"`
	Last  string `yaml:"last"`
}

type PageStrings struct {
	Page    int             `yaml:"page"`
	Strings []RunningString `yaml:"strings"`
}

type StyleReport struct {
	Source      string             `yaml:"source"`
	Medium      string             `yaml:"medium"`
	Pages       int                `yaml:"pages"`
	Synthesized int                `yaml:"synthesized"`
	Elements    []Element          `yaml:"elements"`
	Strings     []gcpm.NamedString `yaml:"strings,omitempty"`
	Running     []PageStrings      `yaml:"running,omitempty"`
	// Tree is annotated box tree.
	Tree string `yaml:"-"`
}

func (StyleReport) Kind() string { return "style" }

func depth(b dom.Box) int {
	d := 0
	for p := b.Parent(); p != nil && p.Parent() != nil; p = p.Parent() {
		d++
	}
	return d
}

func properties(c *style.Computed, names []string) map[string]string {
	if len(names) == 0 {
		return c.Strings()
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		if v := c.Get(name); !v.IsZero() {
			out[name] = v.String()
		}
	}
	return out
}

// Styling reports styling result of the document. When names is not empty
// only those properties are reported, with initial values filled in.
func Styling(eng *style.Engine, root dom.Box, res *style.Result, source string, names []string) StyleReport {
	r := StyleReport{
		Source:      source,
		Pages:       res.Pages,
		Synthesized: res.Synthesized,
		Strings:     res.Strings.All(),
	}
	r.Medium = eng.Medium().Type

	for _, b := range res.Boxes {
		el := Element{
			Path:       Path(b),
			Depth:      depth(b),
			Generated:  res.Generated[b],
			Properties: properties(res.Styles[b], names),
		}
		for _, mr := range eng.MatchedRules(b) {
			el.Matched = append(el.Matched, MatchedRule{
				Selector:    mr.Selector.String(),
				Specificity: mr.Specificity,
				Origin:      mr.Origin.String(),
				Order:       mr.Order,
			})
		}
		r.Elements = append(r.Elements, el)
	}

	var seen []string
	for _, ns := range r.Strings {
		if !slices.Contains(seen, ns.Name) {
			seen = append(seen, ns.Name)
		}
	}
	if len(seen) > 0 {
		for page := 1; page <= res.Pages; page++ {
			ps := PageStrings{Page: page}
			for _, name := range seen {
				ps.Strings = append(ps.Strings, RunningString{
					Name:  name,
					First: res.Strings.Lookup(name, page, gcpm.First),
					Start: res.Strings.Lookup(name, page, gcpm.Start),
					Last:  res.Strings.Lookup(name, page, gcpm.Last),
				})
			}
			r.Running = append(r.Running, ps)
		}
	}

	r.Tree = dom.Dump(root, func(b dom.Box) string {
		var sb strings.Builder
		if text, ok := res.Generated[b]; ok {
			sb.WriteString(" content=")
			sb.WriteString(quote(text))
		}
		c, ok := res.Styles[b]
		if !ok || len(names) == 0 {
			return sb.String()
		}
		for _, name := range names {
			if v, ok := c.Lookup(name); ok {
				sb.WriteString(" ")
				sb.WriteString(name)
				sb.WriteString("=")
				sb.WriteString(v.String())
			}
		}
		return sb.String()
	})
	return r
}

func quote(s string) string {
	return css.String(s).String()
}
