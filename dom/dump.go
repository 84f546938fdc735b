package dom

import (
	"fmt"
	"strconv"
	"strings"
)

// treeWriter builds indented multi-line debug output.
type treeWriter struct {
	sb     strings.Builder
	indent string
}

func (tw *treeWriter) pad(depth int) {
	for range depth {
		tw.sb.WriteString(tw.indent)
	}
}

func (tw *treeWriter) line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
}

func (tw *treeWriter) text(depth int, label, value string) {
	tw.pad(depth)
	tw.sb.WriteString(label)
	tw.sb.WriteString(": ")
	if value != "" {
		value = strconv.Quote(value)
	}
	tw.sb.WriteString(value)
	tw.sb.WriteByte('\n')
}

// Describe returns a one line selector-like description of a box.
func Describe(b Box) string {
	if b == nil {
		return "<nil>"
	}
	if k := b.PseudoKind(); k != PseudoNone {
		return "::" + k.String()
	}
	if !b.IsElement() {
		if b.Parent() == nil {
			return "#document"
		}
		return "#text"
	}
	var sb strings.Builder
	if ns := b.Namespace(); ns != "" {
		sb.WriteString(ns)
		sb.WriteByte('|')
	}
	sb.WriteString(b.TagName())
	if id, ok := b.Attr("id"); ok && id != "" {
		sb.WriteByte('#')
		sb.WriteString(id)
	}
	if class, ok := b.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			sb.WriteByte('.')
			sb.WriteString(c)
		}
	}
	if b.IsClickable() {
		sb.WriteString(":link")
	}
	return sb.String()
}

// Dump renders the box tree, one box per line. Whitespace only text is
// omitted, annotate may add a suffix to every box line.
func Dump(root Box, annotate func(Box) string) string {
	tw := &treeWriter{indent: "  "}
	Walk(root, func(b Box, depth int) error { //nolint:errcheck
		if !b.IsElement() && b.PseudoKind() == PseudoNone && b.Parent() != nil {
			if text := strings.TrimSpace(b.Text()); text != "" {
				tw.text(depth, "text", text)
			}
			return nil
		}
		suffix := ""
		if annotate != nil {
			suffix = annotate(b)
		}
		tw.line(depth, "%s%s", Describe(b), suffix)
		return nil
	})
	return tw.sb.String()
}
