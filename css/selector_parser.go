package css

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedSelector is returned for syntactically valid selectors this
// engine cannot match (unknown pseudo-classes and the like).
var ErrUnsupportedSelector = errors.New("unsupported selector")

// ErrInvalidSelector is returned for malformed selectors.
var ErrInvalidSelector = errors.New("invalid selector")

// ParseSelectorText tokenizes and parses a selector.
func ParseSelectorText(text string) (Selector, error) {
	return ParseSelector(Tokenize(text))
}

// ParseSelector parses a selector (possibly a comma separated group) from
// tokens. A failure in any alternative fails the whole group, so the rule
// owning it is dropped.
func ParseSelector(tokens []Token) (Selector, error) {
	groups := SplitOn(tokens, TokenComma)
	alts := make([]Selector, 0, len(groups))
	for _, g := range groups {
		g = TrimWhitespace(g)
		if len(g) == 0 {
			return nil, fmt.Errorf("%w: empty selector in group '%s'", ErrInvalidSelector, Serialize(tokens))
		}
		p := &selectorParser{tokens: g}
		sel, err := p.parseComplex()
		if err != nil {
			return nil, err
		}
		alts = append(alts, sel)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return SelectorList{Alternatives: alts}, nil
}

type selectorParser struct {
	tokens []Token
	pos    int
}

func (p *selectorParser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *selectorParser) peek(off int) (Token, bool) {
	if p.pos+off < len(p.tokens) {
		return p.tokens[p.pos+off], true
	}
	return Token{}, false
}

func (p *selectorParser) skipWhitespace() bool {
	skipped := false
	for !p.done() && p.tokens[p.pos].Kind == TokenWhitespace {
		p.pos++
		skipped = true
	}
	return skipped
}

func (p *selectorParser) errorf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s in '%s'", base, fmt.Sprintf(format, args...), Serialize(p.tokens))
}

// parseComplex reads compounds separated by combinators and links them
// rightmost first.
func (p *selectorParser) parseComplex() (Selector, error) {
	var (
		compounds   []Selector
		combinators []*Combinator
	)
	for {
		c, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		compounds = append(compounds, c)

		sawSpace := p.skipWhitespace()
		if p.done() {
			break
		}
		comb, err := p.parseCombinator(sawSpace)
		if err != nil {
			return nil, err
		}
		p.skipWhitespace()
		if p.done() {
			return nil, p.errorf(ErrInvalidSelector, "dangling combinator '%s'", strings.TrimSpace(comb.Delimiter))
		}
		combinators = append(combinators, comb)
	}

	// pseudo-elements are only allowed on the subject
	for _, c := range compounds[:len(compounds)-1] {
		if _, ok := PseudoElementOf(c); ok {
			return nil, p.errorf(ErrInvalidSelector, "pseudo-element is not on the subject")
		}
	}

	if len(compounds) == 1 {
		return compounds[0], nil
	}
	cx := Complex{Subject: compounds[len(compounds)-1]}
	for i := len(compounds) - 2; i >= 0; i-- {
		cx.Links = append(cx.Links, Link{Combinator: combinators[i], Selector: compounds[i]})
	}
	return cx, nil
}

func (p *selectorParser) parseCombinator(sawSpace bool) (*Combinator, error) {
	t := p.tokens[p.pos]
	switch {
	case t.IsDelim('>'):
		if n1, ok := p.peek(1); ok && n1.IsDelim('>') {
			if n2, ok := p.peek(2); ok && n2.IsDelim('>') {
				p.pos += 3
				return Deep, nil
			}
		}
		p.pos++
		return Child, nil
	case t.IsDelim('+'):
		p.pos++
		return AdjacentSibling, nil
	case t.IsDelim('~'):
		p.pos++
		return Sibling, nil
	case t.Kind == TokenColumn:
		p.pos++
		return Column, nil
	case sawSpace:
		return Descendant, nil
	}
	return nil, p.errorf(ErrInvalidSelector, "unexpected '%s'", t.String())
}

// parseCompound reads simple selectors up to whitespace, a combinator or the
// end of input.
func (p *selectorParser) parseCompound() (Selector, error) {
	var parts []Selector
loop:
	for !p.done() {
		t := p.tokens[p.pos]
		switch {
		case t.Kind == TokenIdent || t.IsDelim('*'):
			if len(parts) > 0 {
				return nil, p.errorf(ErrInvalidSelector, "type selector '%s' must come first", t.Data)
			}
			parts = append(parts, typeOrAll(t))
			p.pos++
		case t.IsDelim('|'):
			var err error
			if parts, err = p.parseNamespace(parts); err != nil {
				return nil, err
			}
		case t.Kind == TokenHash:
			parts = append(parts, ID{Name: strings.TrimPrefix(t.Data, "#")})
			p.pos++
		case t.IsDelim('.'):
			n, ok := p.peek(1)
			if !ok || n.Kind != TokenIdent {
				return nil, p.errorf(ErrInvalidSelector, "class name expected")
			}
			parts = append(parts, Class{Name: n.Data})
			p.pos += 2
		case t.Kind == TokenLeftBracket:
			sel, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			parts = append(parts, sel)
		case t.Kind == TokenColon:
			sel, err := p.parsePseudo()
			if err != nil {
				return nil, err
			}
			parts = append(parts, sel)
		default:
			break loop
		}
	}
	if len(parts) == 0 {
		if p.done() {
			return nil, p.errorf(ErrInvalidSelector, "selector expected")
		}
		return nil, p.errorf(ErrInvalidSelector, "unexpected '%s'", p.tokens[p.pos].String())
	}
	return orderCompound(parts, p)
}

func typeOrAll(t Token) Selector {
	if t.IsDelim('*') {
		return All{}
	}
	return Type{Name: t.Data}
}

// parseNamespace handles "prefix|E", "*|E" and "|E" by applying the namespace
// combinator transform to the type selector read so far.
func (p *selectorParser) parseNamespace(parts []Selector) ([]Selector, error) {
	var left Selector = Type{Name: ""}
	switch len(parts) {
	case 0:
	case 1:
		left = parts[0]
	default:
		return nil, p.errorf(ErrInvalidSelector, "namespace prefix must come first")
	}
	n, ok := p.peek(1)
	if !ok || !(n.Kind == TokenIdent || n.IsDelim('*')) {
		return nil, p.errorf(ErrInvalidSelector, "type selector expected after '|'")
	}
	sel, ok := NamespaceComb.Transform(left, typeOrAll(n))
	if !ok {
		return nil, p.errorf(ErrInvalidSelector, "bad namespace prefix")
	}
	p.pos += 2
	return sel.(Compound).Parts, nil
}

func (p *selectorParser) parseAttribute() (Selector, error) {
	p.pos++ // [
	p.skipWhitespace()
	name, ok := p.peek(0)
	if !ok || name.Kind != TokenIdent {
		return nil, p.errorf(ErrInvalidSelector, "attribute name expected")
	}
	attr := strings.ToLower(name.Data)
	p.pos++
	p.skipWhitespace()

	op, ok := p.peek(0)
	if !ok {
		return nil, p.errorf(ErrInvalidSelector, "unterminated attribute selector")
	}
	if op.Kind == TokenRightBracket {
		p.pos++
		return AttrAvailable{Attr: attr}, nil
	}
	p.pos++
	p.skipWhitespace()
	val, ok := p.peek(0)
	if !ok || (val.Kind != TokenIdent && val.Kind != TokenString) {
		return nil, p.errorf(ErrInvalidSelector, "attribute value expected")
	}
	value := val.Text()
	p.pos++
	p.skipWhitespace()
	// case sensitivity flags are accepted and ignored
	if f, ok := p.peek(0); ok && (f.Is("i") || f.Is("s")) {
		p.pos++
		p.skipWhitespace()
	}
	if end, ok := p.peek(0); !ok || end.Kind != TokenRightBracket {
		return nil, p.errorf(ErrInvalidSelector, "']' expected")
	}
	p.pos++

	switch {
	case op.IsDelim('='):
		return AttrMatch{Attr: attr, Value: value}, nil
	case op.Kind == TokenIncludeMatch:
		return AttrInList{Attr: attr, Value: value}, nil
	case op.Kind == TokenSubstringMatch:
		return AttrContains{Attr: attr, Value: value}, nil
	case op.Kind == TokenPrefixMatch:
		return AttrPrefix{Attr: attr, Value: value}, nil
	case op.Kind == TokenSuffixMatch:
		return AttrSuffix{Attr: attr, Value: value}, nil
	case op.Kind == TokenDashMatch:
		return AttrDash{Attr: attr, Value: value}, nil
	}
	return nil, p.errorf(ErrInvalidSelector, "unknown attribute operator '%s'", op.Data)
}

func (p *selectorParser) parsePseudo() (Selector, error) {
	p.pos++ // :
	element := false
	if t, ok := p.peek(0); ok && t.Kind == TokenColon {
		element = true
		p.pos++
	}
	t, ok := p.peek(0)
	if !ok {
		return nil, p.errorf(ErrInvalidSelector, "pseudo selector name expected")
	}
	p.pos++

	if t.Kind == TokenFunction {
		if !element && t.IsFunction("nth-child") {
			args := Significant(t.Args)
			if len(args) == 1 && args[0].Kind == TokenNumber && args[0].Number >= 1 && args[0].Number == float64(int(args[0].Number)) {
				return FirstChild{Offset: int(args[0].Number) - 1}, nil
			}
		}
		return nil, p.errorf(ErrUnsupportedSelector, "'%s'", t.String())
	}
	if t.Kind != TokenIdent {
		return nil, p.errorf(ErrInvalidSelector, "pseudo selector name expected")
	}

	name := t.Lower()
	switch {
	case name == "before" || name == "after":
		// single colon form is the legacy CSS2 syntax for the same thing
		return PseudoElement{Name: name}, nil
	case element:
		return nil, p.errorf(ErrUnsupportedSelector, "pseudo-element '::%s'", t.Data)
	case name == "link":
		return PseudoClass{Name: name}, nil
	case name == "first-child":
		return FirstChild{Offset: 0}, nil
	}
	return nil, p.errorf(ErrUnsupportedSelector, "pseudo-class ':%s'", t.Data)
}

// orderCompound keeps pseudo-elements and structural pseudo-classes last in
// every compound. Each structural pseudo-class wraps everything before it, so
// "li:first-child::before" becomes ((li :first-child) ::before). A
// pseudo-element must be the final member.
func orderCompound(parts []Selector, p *selectorParser) (Selector, error) {
	var (
		plain      []Selector
		structural []Selector
		pseudo     Selector
	)
	for _, s := range parts {
		if pseudo != nil {
			return nil, p.errorf(ErrInvalidSelector, "'%s' after pseudo-element", s.String())
		}
		switch s.(type) {
		case PseudoElement:
			pseudo = s
		case FirstChild:
			structural = append(structural, s)
		default:
			plain = append(plain, s)
		}
	}

	cur := plain
	for _, s := range structural {
		if len(cur) > 0 && hasTerminal(cur) {
			cur = []Selector{Compound{Parts: cur}}
		}
		cur = append(cur, s)
	}
	if pseudo != nil {
		if len(cur) > 0 && hasTerminal(cur) {
			cur = []Selector{Compound{Parts: cur}}
		}
		cur = append(cur, pseudo)
	}
	if len(cur) == 1 {
		return cur[0], nil
	}
	return Compound{Parts: cur}, nil
}

func hasTerminal(parts []Selector) bool {
	switch parts[len(parts)-1].(type) {
	case PseudoElement, FirstChild:
		return true
	}
	return false
}
