// Package dom holds the document tree the styling engine works on.
package dom

import "strings"

// PseudoKind tells whether a box was generated for a pseudo-element.
type PseudoKind int

const (
	PseudoNone PseudoKind = iota
	PseudoBefore
	PseudoAfter
)

func (k PseudoKind) String() string {
	switch k {
	case PseudoBefore:
		return "before"
	case PseudoAfter:
		return "after"
	}
	return ""
}

// PseudoKindOf maps a pseudo-element name to its kind, PseudoNone for names
// which never produce boxes.
func PseudoKindOf(name string) PseudoKind {
	switch strings.ToLower(name) {
	case "before":
		return PseudoBefore
	case "after":
		return PseudoAfter
	}
	return PseudoNone
}

// Box is a document node as seen by the selector matcher. Absent values are
// reported as empty strings, false or nil, never as errors.
type Box interface {
	// TagName is the local element name, empty for non elements.
	TagName() string
	// Namespace is the element namespace prefix.
	Namespace() string
	Attr(name string) (string, bool)
	Parent() Box
	Children() []Box
	// IsElement is true for real elements only: text nodes and generated
	// pseudo-element boxes are not elements.
	IsElement() bool
	PseudoKind() PseudoKind
	IsClickable() bool
	// Text is the character data of text nodes.
	Text() string
}

// MutableBox is a Box which can host generated pseudo-element children.
type MutableBox interface {
	Box
	// EnsurePseudo returns the generated child of the given kind, creating it
	// when missing. Before boxes are kept first and after boxes last among
	// children. Reports whether the box was created.
	EnsurePseudo(kind PseudoKind) (Box, bool)
}

// PseudoChild returns generated child of the given kind.
func PseudoChild(b Box, kind PseudoKind) Box {
	if b == nil {
		return nil
	}
	for _, c := range b.Children() {
		if c.PseudoKind() == kind {
			return c
		}
	}
	return nil
}

// ElementIndex returns zero-based position of b among the element children
// of its parent, -1 if b is not an element or has no parent.
func ElementIndex(b Box) int {
	if b == nil || !b.IsElement() {
		return -1
	}
	parent := b.Parent()
	if parent == nil {
		return -1
	}
	i := 0
	for _, c := range parent.Children() {
		if !c.IsElement() {
			continue
		}
		if c == b {
			return i
		}
		i++
	}
	return -1
}

// PreviousElements returns element siblings preceding b, nearest first.
func PreviousElements(b Box) []Box {
	if b == nil {
		return nil
	}
	parent := b.Parent()
	if parent == nil {
		return nil
	}
	var prev []Box
	for _, c := range parent.Children() {
		if c == b {
			break
		}
		if c.IsElement() {
			prev = append(prev, c)
		}
	}
	for i, j := 0, len(prev)-1; i < j; i, j = i+1, j-1 {
		prev[i], prev[j] = prev[j], prev[i]
	}
	return prev
}

// TextContent concatenates text of all descendant text nodes, generated boxes
// are skipped.
func TextContent(b Box) string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(Box)
	walk = func(n Box) {
		for _, c := range n.Children() {
			switch {
			case c.PseudoKind() != PseudoNone:
			case c.IsElement():
				walk(c)
			default:
				sb.WriteString(c.Text())
			}
		}
	}
	walk(b)
	return sb.String()
}

// Walk visits b and its descendants in document order. Children of a box are
// listed after fn returns for it, generated children fn adds are visited too.
func Walk(b Box, fn func(b Box, depth int) error) error {
	var visit func(n Box, depth int) error
	visit = func(n Box, depth int) error {
		if err := fn(n, depth); err != nil {
			return err
		}
		for _, c := range n.Children() {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if b == nil {
		return nil
	}
	return visit(b, 0)
}
