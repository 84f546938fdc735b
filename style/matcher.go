// Package style decides which rules apply to document boxes and resolves
// their property values.
package style

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"pstyle/css"
	"pstyle/dom"
)

// Matcher decides whether selectors apply to boxes. Matching has no side
// effects: generated boxes must already be in the tree, see
// SynthesizePseudoElements.
type Matcher struct{}

// Matches reports whether sel applies to box. Absent boxes, parents and
// attributes never match.
func (m Matcher) Matches(sel css.Selector, box dom.Box) bool {
	if box == nil || sel == nil {
		return false
	}
	switch s := sel.(type) {
	case css.SelectorList:
		for _, alt := range s.Alternatives {
			if m.Matches(alt, box) {
				return true
			}
		}
		return false
	case css.Complex:
		return m.matchComplex(s, box)
	case css.Compound:
		return m.matchCompound(s, box)
	case css.PseudoElement, css.FirstChild:
		return m.matchCompound(css.Compound{Parts: []css.Selector{s}}, box)
	default:
		return box.IsElement() && m.matchSimple(s, box)
	}
}

func (m Matcher) matchCompound(c css.Compound, box dom.Box) bool {
	terminal, rest, ok := c.Terminal()
	if !ok {
		return box.IsElement() && m.matchParts(c.Parts, box)
	}
	switch t := terminal.(type) {
	case css.PseudoElement:
		// generated box matches when the rest matches the element it was
		// generated for
		kind := dom.PseudoKindOf(t.Name)
		if kind == dom.PseudoNone || box.PseudoKind() != kind {
			return false
		}
		host := box.Parent()
		return host != nil && host.IsElement() && m.matchParts(rest.Parts, host)
	case css.FirstChild:
		if dom.ElementIndex(box) != t.Offset {
			return false
		}
		host := elementHost(box)
		return host != nil && m.matchParts(rest.Parts, host)
	}
	return false
}

// elementHost returns the nearest box, starting with b itself, which is a
// real element.
func elementHost(b dom.Box) dom.Box {
	for ; b != nil; b = b.Parent() {
		if b.IsElement() {
			return b
		}
	}
	return nil
}

func (m Matcher) matchParts(parts []css.Selector, box dom.Box) bool {
	for _, p := range parts {
		if !m.matchSimple(p, box) {
			return false
		}
	}
	return true
}

// matchSimple handles a single compound member against an element.
func (m Matcher) matchSimple(sel css.Selector, box dom.Box) bool {
	switch s := sel.(type) {
	case css.All:
		return true
	case css.Type:
		return strings.EqualFold(box.TagName(), s.Name)
	case css.Class:
		v, ok := box.Attr("class")
		return ok && slices.Contains(strings.Fields(v), s.Name)
	case css.ID:
		v, ok := box.Attr("id")
		return ok && v == s.Name
	case css.AttrAvailable:
		_, ok := box.Attr(s.Attr)
		return ok
	case css.AttrMatch:
		v, ok := box.Attr(s.Attr)
		return ok && v == s.Value
	case css.AttrContains:
		v, ok := box.Attr(s.Attr)
		return ok && s.Value != "" && strings.Contains(fold(v), fold(s.Value))
	case css.AttrInList:
		v, ok := box.Attr(s.Attr)
		return ok && slices.Contains(strings.Fields(v), s.Value)
	case css.AttrPrefix:
		v, ok := box.Attr(s.Attr)
		return ok && s.Value != "" && strings.HasPrefix(v, s.Value)
	case css.AttrSuffix:
		v, ok := box.Attr(s.Attr)
		return ok && s.Value != "" && strings.HasSuffix(v, s.Value)
	case css.AttrDash:
		v, ok := box.Attr(s.Attr)
		return ok && (v == s.Value || strings.HasPrefix(v, s.Value+"-"))
	case css.Namespace:
		return s.Prefix == "*" || box.Namespace() == s.Prefix
	case css.PseudoClass:
		return s.Name == "link" && box.IsClickable()
	case css.FirstChild:
		return dom.ElementIndex(box) == s.Offset
	case css.PseudoElement:
		// only valid as the last member of a compound
		return false
	case css.Compound, css.Complex, css.SelectorList:
		return m.Matches(s, box)
	}
	return false
}

// fold is Unicode case folding; a Caser keeps state so one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// matchComplex walks links right to left. Descendant and sibling links
// backtrack: a later link may need a different ancestor than the nearest
// matching one.
func (m Matcher) matchComplex(c css.Complex, box dom.Box) bool {
	if !m.Matches(c.Subject, box) {
		return false
	}
	// relations of a generated box are those of its element
	if box.PseudoKind() != dom.PseudoNone {
		box = box.Parent()
	}
	return m.matchLinks(c.Links, box)
}

func (m Matcher) matchLinks(links []css.Link, box dom.Box) bool {
	if len(links) == 0 {
		return true
	}
	link, rest := links[0], links[1:]
	switch link.Combinator.Kind {
	case css.CombChild:
		parent := box.Parent()
		return parent != nil && m.Matches(link.Selector, parent) && m.matchLinks(rest, parent)
	case css.CombDescendant, css.CombDeep:
		for a := box.Parent(); a != nil; a = a.Parent() {
			if m.Matches(link.Selector, a) && m.matchLinks(rest, a) {
				return true
			}
		}
		return false
	case css.CombAdjacentSibling:
		prev := dom.PreviousElements(box)
		return len(prev) > 0 && m.Matches(link.Selector, prev[0]) && m.matchLinks(rest, prev[0])
	case css.CombSibling:
		for _, p := range dom.PreviousElements(box) {
			if m.Matches(link.Selector, p) && m.matchLinks(rest, p) {
				return true
			}
		}
		return false
	case css.CombColumn, css.CombNamespace:
		// column relations need table layout, namespace links are rewritten
		// by the parser and never reach here
		return false
	}
	return false
}
