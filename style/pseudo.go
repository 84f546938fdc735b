package style

import (
	"pstyle/css"
	"pstyle/dom"
)

// candidate stands in for a generated box that does not exist yet, so the pure
// matcher can tell whether creating it would be useful.
type candidate struct {
	host dom.Box
	kind dom.PseudoKind
}

func (p candidate) TagName() string            { return "" }
func (p candidate) Namespace() string          { return "" }
func (p candidate) Attr(string) (string, bool) { return "", false }
func (p candidate) Parent() dom.Box            { return p.host }
func (p candidate) Children() []dom.Box        { return nil }
func (p candidate) IsElement() bool            { return false }
func (p candidate) PseudoKind() dom.PseudoKind { return p.kind }
func (p candidate) IsClickable() bool          { return false }
func (p candidate) Text() string               { return "" }

// pseudoSelectors returns selector alternatives targeting generated boxes,
// grouped by kind.
func pseudoSelectors(rules []*css.StyleRule) map[dom.PseudoKind][]css.Selector {
	out := make(map[dom.PseudoKind][]css.Selector)
	for _, r := range rules {
		for _, alt := range css.Alternatives(r.Selector) {
			name, ok := css.PseudoElementOf(alt)
			if !ok {
				continue
			}
			if kind := dom.PseudoKindOf(name); kind != dom.PseudoNone {
				out[kind] = append(out[kind], alt)
			}
		}
	}
	return out
}

// SynthesizePseudoElements adds a generated ::before or ::after child to
// every element some rule targets with that pseudo-element. It runs once per
// document before matching, repeated runs add nothing. Boxes which cannot
// host children are skipped. Returns the number of boxes created.
func SynthesizePseudoElements(root dom.Box, rules []*css.StyleRule) int {
	selectors := pseudoSelectors(rules)
	if len(selectors) == 0 {
		return 0
	}
	var m Matcher
	created := 0
	dom.Walk(root, func(b dom.Box, _ int) error { //nolint:errcheck
		if !b.IsElement() {
			return nil
		}
		host, ok := b.(dom.MutableBox)
		if !ok {
			return nil
		}
		for _, kind := range []dom.PseudoKind{dom.PseudoBefore, dom.PseudoAfter} {
			for _, sel := range selectors[kind] {
				if !m.Matches(sel, candidate{host: b, kind: kind}) {
					continue
				}
				if _, isNew := host.EnsurePseudo(kind); isNew {
					created++
				}
				break
			}
		}
		return nil
	})
	return created
}
