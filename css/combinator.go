package css

// CombinatorKind enumerates supported combinators.
type CombinatorKind int

const (
	CombDescendant CombinatorKind = iota
	CombChild
	CombAdjacentSibling
	CombSibling
	CombNamespace
	CombColumn
	CombDeep
)

// Combinator joins two compound selectors. Values are singletons, compare
// pointers or Kind.
type Combinator struct {
	Kind      CombinatorKind
	Delimiter string
	// Transform, when set, replaces the pair (left, right) by a single
	// selector instead of linking them.
	Transform func(left, right Selector) (Selector, bool)
}

var (
	Descendant      = &Combinator{Kind: CombDescendant, Delimiter: " "}
	Child           = &Combinator{Kind: CombChild, Delimiter: " > "}
	AdjacentSibling = &Combinator{Kind: CombAdjacentSibling, Delimiter: " + "}
	Sibling         = &Combinator{Kind: CombSibling, Delimiter: " ~ "}
	Column          = &Combinator{Kind: CombColumn, Delimiter: " || "}
	Deep            = &Combinator{Kind: CombDeep, Delimiter: " >>> "}
	NamespaceComb   = &Combinator{Kind: CombNamespace, Delimiter: "|", Transform: namespaceTransform}
)

// namespaceTransform rewrites "prefix|E" into the compound "Namespace(prefix) E".
// Left must be a bare type or universal selector naming the prefix.
func namespaceTransform(left, right Selector) (Selector, bool) {
	var prefix string
	switch l := left.(type) {
	case Type:
		prefix = l.Name
	case All:
		prefix = "*"
	default:
		return nil, false
	}
	parts := []Selector{Namespace{Prefix: prefix}}
	if c, ok := right.(Compound); ok {
		parts = append(parts, c.Parts...)
	} else {
		parts = append(parts, right)
	}
	return Compound{Parts: parts}, true
}

func (c *Combinator) String() string {
	return c.Delimiter
}
