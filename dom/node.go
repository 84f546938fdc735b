package dom

import (
	"slices"
	"strings"
)

// NodeKind classifies Node.
type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	PseudoNode
)

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is the concrete Box built by the document loaders.
type Node struct {
	Kind      NodeKind
	Tag       string // local name, lowercased for HTML
	Prefix    string // namespace prefix
	Attrs     []Attr // in source order
	Data      string // character data of text nodes
	Pseudo    PseudoKind
	Clickable bool

	parent   *Node
	children []*Node
}

// NewDocument returns an empty document node.
func NewDocument() *Node {
	return &Node{Kind: DocumentNode}
}

// NewElement returns a detached element.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Attrs: attrs}
}

// NewText returns a detached text node.
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

func (n *Node) TagName() string {
	if n.Kind != ElementNode {
		return ""
	}
	return n.Tag
}

func (n *Node) Namespace() string { return n.Prefix }

// Attr looks attribute up ignoring ASCII case of its name. Generated boxes
// have no attributes of their own.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr adds or replaces an attribute.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

func (n *Node) Parent() Box {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []Box {
	boxes := make([]Box, len(n.children))
	for i, c := range n.children {
		boxes[i] = c
	}
	return boxes
}

// Nodes returns child nodes without conversion to Box.
func (n *Node) Nodes() []*Node {
	return n.children
}

func (n *Node) IsElement() bool        { return n.Kind == ElementNode }
func (n *Node) PseudoKind() PseudoKind { return n.Pseudo }
func (n *Node) IsClickable() bool      { return n.Clickable }
func (n *Node) Text() string           { return n.Data }

// AppendChild attaches c as the last child, detaching it from its previous
// parent first.
func (n *Node) AppendChild(c *Node) *Node {
	n.InsertChild(len(n.children), c)
	return c
}

// InsertChild attaches c at position i.
func (n *Node) InsertChild(i int, c *Node) {
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	i = max(0, min(i, len(n.children)))
	n.children = slices.Insert(n.children, i, c)
	c.parent = n
}

// RemoveChild detaches c, reports whether it was a child of n.
func (n *Node) RemoveChild(c *Node) bool {
	i := slices.Index(n.children, c)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	c.parent = nil
	return true
}

// EnsurePseudo implements MutableBox. Repeated calls return the same node and
// only move it back to its place if other children were added since.
func (n *Node) EnsurePseudo(kind PseudoKind) (Box, bool) {
	if kind == PseudoNone || n.Kind != ElementNode {
		return nil, false
	}
	var existing *Node
	for _, c := range n.children {
		if c.Pseudo == kind {
			existing = c
			break
		}
	}
	created := existing == nil
	if created {
		existing = &Node{Kind: PseudoNode, Pseudo: kind, Tag: "::" + kind.String()}
	}
	if kind == PseudoBefore {
		n.InsertChild(0, existing)
	} else {
		n.InsertChild(len(n.children), existing)
	}
	return existing, created
}
