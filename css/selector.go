package css

import (
	"strconv"
	"strings"
)

// SelectorKind identifies a selector variant. Matching code switches over it
// exhaustively.
type SelectorKind int

const (
	SelAll SelectorKind = iota
	SelType
	SelClass
	SelID
	SelAttrAvailable
	SelAttrMatch
	SelAttrContains
	SelAttrInList
	SelAttrPrefix
	SelAttrSuffix
	SelAttrDash
	SelNamespace
	SelPseudoClass
	SelPseudoElement
	SelFirstChild
	SelCompound
	SelComplex
	SelList
)

// Selector is an immutable selector AST node. The set of implementations is
// closed: all of them live in this file.
type Selector interface {
	Kind() SelectorKind
	// String returns CSS text for the selector.
	String() string
	// Specificity returns (ids, classes, types) counts.
	Specificity() Specificity

	selector()
}

// Specificity of a selector, compared lexicographically.
type Specificity [3]int

// Less reports whether s has lower specificity than o.
func (s Specificity) Less(o Specificity) bool {
	for i := range s {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

func (s Specificity) add(o Specificity) Specificity {
	return Specificity{s[0] + o[0], s[1] + o[1], s[2] + o[2]}
}

// Simple selectors.

type (
	// All is the universal selector "*".
	All struct{}
	// Type matches element tag name, case-insensitively.
	Type struct{ Name string }
	// Class matches one of the whitespace separated class names.
	Class struct{ Name string }
	// ID matches the id attribute.
	ID struct{ Name string }
	// AttrAvailable is [attr].
	AttrAvailable struct{ Attr string }
	// AttrMatch is [attr=value].
	AttrMatch struct{ Attr, Value string }
	// AttrContains is [attr*=value], compared case-insensitively.
	AttrContains struct{ Attr, Value string }
	// AttrInList is [attr~=value].
	AttrInList struct{ Attr, Value string }
	// AttrPrefix is [attr^=value].
	AttrPrefix struct{ Attr, Value string }
	// AttrSuffix is [attr$=value].
	AttrSuffix struct{ Attr, Value string }
	// AttrDash is [attr|=value].
	AttrDash struct{ Attr, Value string }
	// Namespace restricts the element namespace prefix, "*" matches any.
	Namespace struct{ Prefix string }
	// PseudoClass is a ":name" selector. Only "link" is ever matched.
	PseudoClass struct{ Name string }
	// PseudoElement is "::before" or "::after".
	PseudoElement struct{ Name string }
	// FirstChild matches an element at zero-based Offset among its parent's
	// element children. ":first-child" has Offset 0.
	FirstChild struct{ Offset int }
)

func (All) Kind() SelectorKind           { return SelAll }
func (Type) Kind() SelectorKind          { return SelType }
func (Class) Kind() SelectorKind         { return SelClass }
func (ID) Kind() SelectorKind            { return SelID }
func (AttrAvailable) Kind() SelectorKind { return SelAttrAvailable }
func (AttrMatch) Kind() SelectorKind     { return SelAttrMatch }
func (AttrContains) Kind() SelectorKind  { return SelAttrContains }
func (AttrInList) Kind() SelectorKind    { return SelAttrInList }
func (AttrPrefix) Kind() SelectorKind    { return SelAttrPrefix }
func (AttrSuffix) Kind() SelectorKind    { return SelAttrSuffix }
func (AttrDash) Kind() SelectorKind      { return SelAttrDash }
func (Namespace) Kind() SelectorKind     { return SelNamespace }
func (PseudoClass) Kind() SelectorKind   { return SelPseudoClass }
func (PseudoElement) Kind() SelectorKind { return SelPseudoElement }
func (FirstChild) Kind() SelectorKind    { return SelFirstChild }

func (All) String() string             { return "*" }
func (s Type) String() string          { return s.Name }
func (s Class) String() string         { return "." + s.Name }
func (s ID) String() string            { return "#" + s.Name }
func (s AttrAvailable) String() string { return "[" + s.Attr + "]" }
func (s AttrMatch) String() string     { return attrString(s.Attr, "=", s.Value) }
func (s AttrContains) String() string  { return attrString(s.Attr, "*=", s.Value) }
func (s AttrInList) String() string    { return attrString(s.Attr, "~=", s.Value) }
func (s AttrPrefix) String() string    { return attrString(s.Attr, "^=", s.Value) }
func (s AttrSuffix) String() string    { return attrString(s.Attr, "$=", s.Value) }
func (s AttrDash) String() string      { return attrString(s.Attr, "|=", s.Value) }
func (s Namespace) String() string     { return s.Prefix + "|" }
func (s PseudoClass) String() string   { return ":" + s.Name }
func (s PseudoElement) String() string { return "::" + s.Name }

func (s FirstChild) String() string {
	if s.Offset == 0 {
		return ":first-child"
	}
	return ":nth-child(" + strconv.Itoa(s.Offset+1) + ")"
}

func attrString(attr, op, value string) string {
	return "[" + attr + op + `"` + escapeDoubleQuoted(value) + `"]`
}

func (All) Specificity() Specificity           { return Specificity{} }
func (Type) Specificity() Specificity          { return Specificity{0, 0, 1} }
func (Class) Specificity() Specificity         { return Specificity{0, 1, 0} }
func (ID) Specificity() Specificity            { return Specificity{1, 0, 0} }
func (AttrAvailable) Specificity() Specificity { return Specificity{0, 1, 0} }
func (AttrMatch) Specificity() Specificity     { return Specificity{0, 1, 0} }
func (AttrContains) Specificity() Specificity  { return Specificity{0, 1, 0} }
func (AttrInList) Specificity() Specificity    { return Specificity{0, 1, 0} }
func (AttrPrefix) Specificity() Specificity    { return Specificity{0, 1, 0} }
func (AttrSuffix) Specificity() Specificity    { return Specificity{0, 1, 0} }
func (AttrDash) Specificity() Specificity      { return Specificity{0, 1, 0} }
func (Namespace) Specificity() Specificity     { return Specificity{} }
func (PseudoClass) Specificity() Specificity   { return Specificity{0, 1, 0} }
func (PseudoElement) Specificity() Specificity { return Specificity{0, 0, 1} }
func (FirstChild) Specificity() Specificity    { return Specificity{0, 1, 0} }

func (All) selector()           {}
func (Type) selector()          {}
func (Class) selector()         {}
func (ID) selector()            {}
func (AttrAvailable) selector() {}
func (AttrMatch) selector()     {}
func (AttrContains) selector()  {}
func (AttrInList) selector()    {}
func (AttrPrefix) selector()    {}
func (AttrSuffix) selector()    {}
func (AttrDash) selector()      {}
func (Namespace) selector()     {}
func (PseudoClass) selector()   {}
func (PseudoElement) selector() {}
func (FirstChild) selector()    {}

// Compound is a sequence of simple selectors that must all match the same
// element. Only the last part may be a PseudoElement or FirstChild.
type Compound struct {
	Parts []Selector
}

func (Compound) Kind() SelectorKind { return SelCompound }
func (Compound) selector()          {}

func (c Compound) String() string {
	var sb strings.Builder
	for i, p := range c.Parts {
		// universal selector is implied in front of anything but a type
		if _, ok := p.(All); ok && i+1 < len(c.Parts) {
			if _, next := c.Parts[i+1].(Type); !next {
				continue
			}
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}

func (c Compound) Specificity() Specificity {
	var s Specificity
	for _, p := range c.Parts {
		s = s.add(p.Specificity())
	}
	return s
}

// Terminal returns the last part when it is a pseudo-element or first-child
// selector, together with the remaining parts.
func (c Compound) Terminal() (Selector, Compound, bool) {
	if len(c.Parts) == 0 {
		return nil, c, false
	}
	last := c.Parts[len(c.Parts)-1]
	switch last.(type) {
	case PseudoElement, FirstChild:
		return last, Compound{Parts: c.Parts[:len(c.Parts)-1]}, true
	}
	return nil, c, false
}

// Link is one step of a complex selector: the compound on the left of
// Combinator.
type Link struct {
	Combinator *Combinator
	Selector   Selector
}

// Complex is a chain of compound selectors. Subject is the rightmost compound,
// Links are stored rightmost first, so Links[0] is the compound immediately to
// the left of Subject.
type Complex struct {
	Subject Selector
	Links   []Link
}

func (Complex) Kind() SelectorKind { return SelComplex }
func (Complex) selector()          {}

func (c Complex) String() string {
	var sb strings.Builder
	for i := len(c.Links) - 1; i >= 0; i-- {
		sb.WriteString(c.Links[i].Selector.String())
		sb.WriteString(c.Links[i].Combinator.Delimiter)
	}
	sb.WriteString(c.Subject.String())
	return sb.String()
}

func (c Complex) Specificity() Specificity {
	s := c.Subject.Specificity()
	for _, l := range c.Links {
		s = s.add(l.Selector.Specificity())
	}
	return s
}

// SelectorList is a comma separated group of alternatives.
type SelectorList struct {
	Alternatives []Selector
}

func (SelectorList) Kind() SelectorKind { return SelList }
func (SelectorList) selector()          {}

func (l SelectorList) String() string {
	parts := make([]string, len(l.Alternatives))
	for i, a := range l.Alternatives {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Specificity of a list is the highest specificity of its alternatives; the
// cascade uses the alternative that actually matched whenever it can.
func (l SelectorList) Specificity() Specificity {
	var s Specificity
	for _, a := range l.Alternatives {
		if as := a.Specificity(); s.Less(as) {
			s = as
		}
	}
	return s
}

// Alternatives returns list members, or the selector itself.
func Alternatives(s Selector) []Selector {
	if l, ok := s.(SelectorList); ok {
		return l.Alternatives
	}
	return []Selector{s}
}

// Subject returns the compound that must match the element being styled.
func Subject(s Selector) Selector {
	if c, ok := s.(Complex); ok {
		return c.Subject
	}
	return s
}

// PseudoElementOf returns the pseudo-element name a selector targets, if any.
func PseudoElementOf(s Selector) (string, bool) {
	switch v := Subject(s).(type) {
	case PseudoElement:
		return v.Name, true
	case Compound:
		if t, _, ok := v.Terminal(); ok {
			if pe, ok := t.(PseudoElement); ok {
				return pe.Name, true
			}
		}
	}
	return "", false
}
