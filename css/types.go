package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
)

// Declaration is a single "property: value" pair of a declaration block.
type Declaration struct {
	Property  string // lowercased longhand name
	Value     Value
	Important bool
}

// String returns CSS text for the declaration.
func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value.String() + " !important"
	}
	return d.Property + ": " + d.Value.String()
}

// Declarations is an ordered declaration block. A property appears at most
// once, at the position of its first declaration.
type Declarations []Declaration

// Get returns declaration for a property.
func (ds Declarations) Get(name string) (Declaration, bool) {
	for _, d := range ds {
		if d.Property == name {
			return d, true
		}
	}
	return Declaration{}, false
}

// Set adds or replaces a declaration. A normal declaration never replaces an
// important one.
func (ds *Declarations) Set(d Declaration) {
	for i, old := range *ds {
		if old.Property == d.Property {
			if old.Important && !d.Important {
				return
			}
			(*ds)[i] = d
			return
		}
	}
	*ds = append(*ds, d)
}

// String returns declarations joined with "; ".
func (ds Declarations) String() string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

// StyleRule is a selector with its declaration block.
type StyleRule struct {
	Selector     Selector
	Declarations Declarations
}

// GetProperty returns the value for a property, or empty Value if not found.
func (r *StyleRule) GetProperty(name string) (Value, bool) {
	d, ok := r.Declarations.Get(name)
	return d.Value, ok
}

// String returns the rule as a single line: "h1 { color: rgb(255, 0, 0) }".
func (r *StyleRule) String() string {
	if len(r.Declarations) == 0 {
		return r.Selector.String() + " { }"
	}
	return r.Selector.String() + " { " + r.Declarations.String() + " }"
}

// MediaRule is an @media block with its query list and nested items.
type MediaRule struct {
	Media MediaList
	Items []StylesheetItem
}

// PageRule is an @page block. Selector is the page pseudo-class text
// (":first", ":left", ":right") or empty.
type PageRule struct {
	Selector     string
	Declarations Declarations
}

// FontFace represents an @font-face declaration.
type FontFace struct {
	Family string // font-family value
	Src    string // src value (URL or local reference)
	Style  string // font-style: normal, italic
	Weight string // font-weight: normal, bold, 400, 700
}

// ImportRule is an @import with optional media list.
type ImportRule struct {
	URL   string
	Media MediaList
}

// NamespaceRule is an @namespace declaration; Prefix is empty for the default
// namespace.
type NamespaceRule struct {
	Prefix string
	URI    string
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one field is non-nil.
type StylesheetItem struct {
	Rule      *StyleRule
	Media     *MediaRule
	Page      *PageRule
	FontFace  *FontFace
	Import    *ImportRule
	Namespace *NamespaceRule
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Dropped rules and declarations
}

// ErrDropped marks parse problems which caused part of the input to be
// ignored.
var ErrDropped = errors.New("css dropped")

// Err returns all warnings combined into a single error, or nil.
func (s *Stylesheet) Err() error {
	var err error
	for _, w := range s.Warnings {
		err = multierr.Append(err, fmt.Errorf("%w: %s", ErrDropped, w))
	}
	return err
}

// StyleRules returns style rules applicable to the medium in source order,
// descending into matching @media blocks.
func (s *Stylesheet) StyleRules(m Medium) []*StyleRule {
	return collectRules(s.Items, m, nil)
}

func collectRules(items []StylesheetItem, m Medium, out []*StyleRule) []*StyleRule {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			out = append(out, item.Rule)
		case item.Media != nil && item.Media.Media.Matches(m):
			out = collectRules(item.Media.Items, m, out)
		}
	}
	return out
}

// AllRules returns every style rule including those in @media blocks
// regardless of the medium.
func (s *Stylesheet) AllRules() []*StyleRule {
	var walk func(items []StylesheetItem, out []*StyleRule) []*StyleRule
	walk = func(items []StylesheetItem, out []*StyleRule) []*StyleRule {
		for _, item := range items {
			switch {
			case item.Rule != nil:
				out = append(out, item.Rule)
			case item.Media != nil:
				out = walk(item.Media.Items, out)
			}
		}
		return out
	}
	return walk(s.Items, nil)
}

// Imports returns all @import URLs from the stylesheet in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, item.Import.URL)
		}
	}
	return urls
}

// FontFaces returns all @font-face declarations from the stylesheet in source order.
// Only font-faces with a non-empty Family are included.
func (s *Stylesheet) FontFaces() []FontFace {
	var faces []FontFace
	for _, item := range s.Items {
		if item.FontFace != nil && item.FontFace.Family != "" {
			faces = append(faces, *item.FontFace)
		}
	}
	return faces
}

// Namespaces maps declared prefixes to namespace URIs.
func (s *Stylesheet) Namespaces() map[string]string {
	ns := make(map[string]string)
	for _, item := range s.Items {
		if item.Namespace != nil {
			ns[item.Namespace.Prefix] = item.Namespace.URI
		}
	}
	return ns
}

// PageRules returns @page rules in source order.
func (s *Stylesheet) PageRules() []*PageRule {
	var pages []*PageRule
	for _, item := range s.Items {
		if item.Page != nil {
			pages = append(pages, item.Page)
		}
	}
	return pages
}

// RulesBySelector returns all top-level rules whose selector text equals selector.
func (s *Stylesheet) RulesBySelector(selector string) []*StyleRule {
	var matches []*StyleRule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector.String() == selector {
			matches = append(matches, item.Rule)
		}
	}
	return matches
}

// WriteTo writes the stylesheet to w in source order, one item per line,
// implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, item := range s.Items {
		n, err := io.WriteString(w, item.String()+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// String returns CSS text for the item.
func (item StylesheetItem) String() string {
	switch {
	case item.Rule != nil:
		return item.Rule.String()
	case item.Media != nil:
		parts := make([]string, 0, len(item.Media.Items))
		for _, nested := range item.Media.Items {
			parts = append(parts, nested.String())
		}
		return "@media " + item.Media.Media.String() + " { " + strings.Join(parts, " ") + " }"
	case item.Page != nil:
		sel := "@page"
		if item.Page.Selector != "" {
			sel += " " + item.Page.Selector
		}
		if len(item.Page.Declarations) == 0 {
			return sel + " { }"
		}
		return sel + " { " + item.Page.Declarations.String() + " }"
	case item.FontFace != nil:
		return writeFontFace(item.FontFace)
	case item.Import != nil:
		if len(item.Import.Media) > 0 {
			return fmt.Sprintf(`@import url("%s") %s;`, escapeDoubleQuoted(item.Import.URL), item.Import.Media)
		}
		return fmt.Sprintf(`@import url("%s");`, escapeDoubleQuoted(item.Import.URL))
	case item.Namespace != nil:
		if item.Namespace.Prefix == "" {
			return fmt.Sprintf(`@namespace url("%s");`, escapeDoubleQuoted(item.Namespace.URI))
		}
		return fmt.Sprintf(`@namespace %s url("%s");`, item.Namespace.Prefix, escapeDoubleQuoted(item.Namespace.URI))
	}
	return ""
}

// writeFontFace writes properties in a stable order.
func writeFontFace(ff *FontFace) string {
	var parts []string
	if ff.Family != "" {
		parts = append(parts, fmt.Sprintf(`font-family: "%s"`, escapeDoubleQuoted(ff.Family)))
	}
	if ff.Src != "" {
		parts = append(parts, "src: "+ff.Src)
	}
	if ff.Style != "" {
		parts = append(parts, "font-style: "+ff.Style)
	}
	if ff.Weight != "" {
		parts = append(parts, "font-weight: "+ff.Weight)
	}
	return "@font-face { " + strings.Join(parts, "; ") + " }"
}
