package style

import (
	"cmp"
	_ "embed"
	"errors"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"pstyle/css"
	"pstyle/css/props"
	"pstyle/dom"
	"pstyle/gcpm"
)

// DefaultStylesheet holds user agent rules for HTML and FictionBook
// documents.
//
//go:embed default.css
var DefaultStylesheet []byte

// ErrNoDocument is returned when there is nothing to style.
var ErrNoDocument = errors.New("no document to style")

// Origin of a stylesheet, later origins win for normal declarations and lose
// for important ones (inline styles excepted).
type Origin int

const (
	OriginUserAgent Origin = iota
	OriginAuthor
	OriginInline
)

func (o Origin) String() string {
	switch o {
	case OriginUserAgent:
		return "user-agent"
	case OriginAuthor:
		return "author"
	case OriginInline:
		return "inline"
	}
	return "unknown"
}

// MatchedRule is a rule applicable to a box.
type MatchedRule struct {
	Rule *css.StyleRule
	// Selector is the most specific alternative which matched.
	Selector    css.Selector
	Specificity css.Specificity
	Origin      Origin
	// Order is the position of the rule among all rules of the engine.
	Order int
}

type sheetEntry struct {
	origin Origin
	sheet  *css.Stylesheet
}

// Engine resolves property values for document boxes from a set of
// stylesheets. Stylesheets and the registry are shared read-only, Style
// mutates the tree it is given and must not run concurrently on one
// document.
type Engine struct {
	log      *zap.Logger
	registry *props.Registry
	parser   *css.Parser
	medium   css.Medium
	sheets   []sheetEntry
	// rules of all sheets applicable to the medium, in cascade order
	ordered []orderedRule
	matcher Matcher
}

// NewEngine creates engine for the medium. When registry is nil a default
// one is built.
func NewEngine(log *zap.Logger, registry *props.Registry, medium css.Medium) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if registry == nil {
		registry = props.NewRegistry(log)
	}
	return &Engine{
		log:      log.Named("style"),
		registry: registry,
		parser:   css.NewParser(log, registry),
		medium:   medium,
	}
}

// Registry returns property registry used by the engine.
func (e *Engine) Registry() *props.Registry {
	return e.registry
}

// Medium returns medium rules are selected for.
func (e *Engine) Medium() css.Medium {
	return e.medium
}

// Parser returns CSS parser bound to the engine registry.
func (e *Engine) Parser() *css.Parser {
	return e.parser
}

// AddStylesheet appends a stylesheet. Order matters: of two rules with equal
// origin and specificity the one added later wins.
func (e *Engine) AddStylesheet(origin Origin, sheet *css.Stylesheet) {
	if sheet == nil {
		return
	}
	e.sheets = append(e.sheets, sheetEntry{origin: origin, sheet: sheet})
	for _, r := range sheet.StyleRules(e.medium) {
		e.ordered = append(e.ordered, orderedRule{rule: r, origin: origin})
	}
}

// AddUserAgentStylesheet parses and adds DefaultStylesheet.
func (e *Engine) AddUserAgentStylesheet() {
	e.AddStylesheet(OriginUserAgent, e.parser.Parse(DefaultStylesheet, "user-agent"))
}

type orderedRule struct {
	rule   *css.StyleRule
	origin Origin
}

func (e *Engine) rules() []orderedRule {
	return e.ordered
}

// Rules returns style rules applicable to the engine medium in cascade
// order.
func (e *Engine) Rules() []*css.StyleRule {
	ordered := e.rules()
	rules := make([]*css.StyleRule, len(ordered))
	for i, r := range ordered {
		rules[i] = r.rule
	}
	return rules
}

// MatchedRules returns rules whose selector matches box, in stylesheet and
// then source order. Inline style attributes are not included.
func (e *Engine) MatchedRules(box dom.Box) []MatchedRule {
	var matched []MatchedRule
	for i, r := range e.rules() {
		var (
			best  css.Selector
			found bool
		)
		for _, alt := range css.Alternatives(r.rule.Selector) {
			if !e.matcher.Matches(alt, box) {
				continue
			}
			if !found || best.Specificity().Less(alt.Specificity()) {
				best, found = alt, true
			}
		}
		if found {
			matched = append(matched, MatchedRule{
				Rule:        r.rule,
				Selector:    best,
				Specificity: best.Specificity(),
				Origin:      r.origin,
				Order:       i,
			})
		}
	}
	return matched
}

type cascaded struct {
	decl        css.Declaration
	origin      Origin
	specificity css.Specificity
	order       int
}

// rank orders origins and importance: user agent, author, inline for normal
// declarations, then author, inline and user agent for important ones.
func (c cascaded) rank() int {
	if !c.decl.Important {
		return int(c.origin)
	}
	if c.origin == OriginUserAgent {
		return 5
	}
	return 2 + int(c.origin)
}

func compareCascaded(a, b cascaded) int {
	if r := cmp.Compare(a.rank(), b.rank()); r != 0 {
		return r
	}
	for i := range a.specificity {
		if r := cmp.Compare(a.specificity[i], b.specificity[i]); r != 0 {
			return r
		}
	}
	return cmp.Compare(a.order, b.order)
}

// Computed holds resolved values of one box. Properties never set fall back
// to their initial value.
type Computed struct {
	registry *props.Registry
	values   map[string]css.Value
}

// Get returns resolved value or the initial value of the property.
func (c *Computed) Get(name string) css.Value {
	if c == nil {
		return css.Value{}
	}
	if v, ok := c.values[name]; ok {
		return v
	}
	return c.registry.Initial(name)
}

// Lookup returns value only when it was cascaded or inherited.
func (c *Computed) Lookup(name string) (css.Value, bool) {
	if c == nil {
		return css.Value{}, false
	}
	v, ok := c.values[name]
	return v, ok
}

// Names returns sorted names of cascaded and inherited properties.
func (c *Computed) Names() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.values))
}

// Strings returns values as CSS text.
func (c *Computed) Strings() map[string]string {
	out := make(map[string]string, len(c.values))
	for name, v := range c.values {
		out[name] = v.String()
	}
	return out
}

// Resolve computes values of box. Declarations are ordered by importance and
// origin, then specificity, then order; the last one wins. Inherited
// properties not set on box come from parent.
func (e *Engine) Resolve(box dom.Box, parent *Computed) *Computed {
	var decls []cascaded
	matched := e.MatchedRules(box)
	for _, mr := range matched {
		for _, d := range mr.Rule.Declarations {
			decls = append(decls, cascaded{decl: d, origin: mr.Origin, specificity: mr.Specificity, order: mr.Order})
		}
	}
	if box.IsElement() {
		if text, ok := box.Attr("style"); ok && strings.TrimSpace(text) != "" {
			inline, warnings := e.parser.ParseDeclarations(text)
			for _, w := range warnings {
				e.log.Debug("Inline style", zap.String("tag", box.TagName()), zap.String("warning", w))
			}
			for _, d := range inline {
				decls = append(decls, cascaded{decl: d, origin: OriginInline, order: len(e.sheets) + len(matched)})
			}
		}
	}
	slices.SortStableFunc(decls, compareCascaded)

	c := &Computed{registry: e.registry, values: make(map[string]css.Value)}
	if parent != nil {
		for name, v := range parent.values {
			if e.registry.IsInherited(name) {
				c.values[name] = v
			}
		}
	}
	for _, d := range decls {
		name, v := d.decl.Property, d.decl.Value
		switch {
		case v.IsKeyword("inherit"), v.IsKeyword("unset") && e.registry.IsInherited(name):
			if pv, ok := parent.Lookup(name); ok {
				c.values[name] = pv
				continue
			}
			v = e.registry.Initial(name)
		case v.IsKeyword("initial"), v.IsKeyword("unset"):
			v = e.registry.Initial(name)
		}
		if v.IsZero() {
			delete(c.values, name)
			continue
		}
		c.values[name] = v
	}
	return c
}

// Result of styling a document.
type Result struct {
	// Boxes are styled boxes in document order, generated boxes included.
	Boxes  []dom.Box
	Styles map[dom.Box]*Computed
	// Generated is the text of generated boxes with content.
	Generated map[dom.Box]string
	// Strings are named strings set by string-set.
	Strings *gcpm.Strings
	// Pages is the number of pages forced breaks divide the document into.
	Pages int
	// Synthesized counts generated boxes added to the tree.
	Synthesized int
}

func forcesPage(v css.Value) bool {
	for _, k := range []string{"always", "page", "left", "right", "recto", "verso"} {
		if v.IsKeyword(k) {
			return true
		}
	}
	return false
}

// Style generates pseudo-element boxes and then resolves every box in
// document order, maintaining counters, generated content and named
// strings. Pages are only approximated by forced breaks since layout is not
// known here.
func (e *Engine) Style(root dom.Box) (*Result, error) {
	if root == nil {
		return nil, ErrNoDocument
	}
	res := &Result{
		Styles:    make(map[dom.Box]*Computed),
		Generated: make(map[dom.Box]string),
		Strings:   &gcpm.Strings{},
		Pages:     1,
	}
	res.Synthesized = SynthesizePseudoElements(root, e.Rules())

	var (
		counters   = gcpm.NewCounters()
		ctx        = &gcpm.Context{Counters: counters, Strings: res.Strings, Page: 1}
		hasContent bool
	)

	evaluate := func(v css.Value, el dom.Box, c *Computed) string {
		ctx.Page = res.Pages
		ctx.Quotes = gcpm.ParseQuotes(c.Get("quotes"))
		ctx.Attr = func(name string) (string, bool) { return el.Attr(name) }
		ctx.Text = func(part string) string {
			switch part {
			case "before":
				return res.Generated[dom.PseudoChild(el, dom.PseudoBefore)]
			case "after":
				return res.Generated[dom.PseudoChild(el, dom.PseudoAfter)]
			case "first-letter":
				for _, r := range strings.TrimSpace(dom.TextContent(el)) {
					return string(r)
				}
				return ""
			}
			return strings.TrimSpace(dom.TextContent(el))
		}
		return gcpm.Evaluate(v, ctx)
	}
	assignStrings := func(el dom.Box, c *Computed) {
		for _, a := range gcpm.ParseStringSet(c.Get("string-set")) {
			res.Strings.Set(a.Name, evaluate(a.Content, el, c), res.Pages)
		}
	}

	var visit func(b dom.Box, parent *Computed)
	visit = func(b dom.Box, parent *Computed) {
		if !b.IsElement() && b.PseudoKind() == dom.PseudoNone {
			if b.Parent() != nil {
				hasContent = hasContent || strings.TrimSpace(b.Text()) != ""
				return
			}
			// document
			for _, child := range b.Children() {
				visit(child, parent)
			}
			return
		}

		c := e.Resolve(b, parent)
		res.Boxes = append(res.Boxes, b)
		res.Styles[b] = c
		if c.Get("display").IsKeyword("none") {
			return
		}
		if hasContent && (forcesPage(c.Get("break-before")) || forcesPage(c.Get("page-break-before"))) {
			res.Pages++
			hasContent = false
		}
		counters.Apply(c.Get("counter-reset"), c.Get("counter-increment"))

		if b.PseudoKind() != dom.PseudoNone {
			host := b.Parent()
			if content := c.Get("content"); !content.IsKeyword("normal") && !content.IsKeyword("none") && !content.IsZero() {
				text := evaluate(content, host, c)
				res.Generated[b] = text
				hasContent = hasContent || strings.TrimSpace(text) != ""
			}
			assignStrings(host, c)
			return
		}

		// strings of an element see the text generated before it
		children := b.Children()
		if len(children) > 0 && children[0].PseudoKind() == dom.PseudoBefore {
			counters.Push()
			visit(children[0], c)
			assignStrings(b, c)
			for _, child := range children[1:] {
				visit(child, c)
			}
			counters.Pop()
		} else {
			assignStrings(b, c)
			counters.Push()
			for _, child := range children {
				visit(child, c)
			}
			counters.Pop()
		}
		if forcesPage(c.Get("break-after")) || forcesPage(c.Get("page-break-after")) {
			res.Pages++
			hasContent = false
		}
	}
	visit(root, nil)

	e.log.Debug("Styled document",
		zap.Int("boxes", len(res.Boxes)),
		zap.Int("generated", res.Synthesized),
		zap.Int("strings", len(res.Strings.All())),
		zap.Int("pages", res.Pages))
	return res, nil
}
