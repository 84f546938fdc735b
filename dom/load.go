package dom

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Format of a document source.
type Format int

const (
	FormatHTML Format = iota
	FormatXML
)

// FormatOf guesses document format from the file name. XHTML, FB2 and
// anything unknown ending in xml are read as XML.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xhtml", ".xht", ".xml", ".fb2", ".svg", ".opf":
		return FormatXML
	}
	return FormatHTML
}

// Load reads a document in the given format.
func Load(r io.Reader, format Format, log *zap.Logger) (*Node, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch format {
	case FormatXML:
		return ParseXML(r, log)
	default:
		return ParseHTML(r, log)
	}
}

// ParseHTML reads an HTML document with the HTML5 parsing algorithm. The
// returned node is the document, the html element is its child.
func ParseHTML(r io.Reader, log *zap.Logger) (*Node, error) {
	src, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse HTML: %w", err)
	}
	doc := NewDocument()
	var count int
	var convert func(dst *Node, src *html.Node)
	convert = func(dst *Node, src *html.Node) {
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.ElementNode:
				el := NewElement(c.Data)
				for _, a := range c.Attr {
					name := a.Key
					if a.Namespace != "" {
						name = a.Namespace + ":" + a.Key
					}
					el.Attrs = append(el.Attrs, Attr{Name: name, Value: a.Val})
				}
				el.Clickable = isLink(el)
				dst.AppendChild(el)
				count++
				convert(el, c)
			case html.TextNode:
				dst.AppendChild(NewText(c.Data))
			}
		}
	}
	convert(doc, src)
	log.Debug("Parsed HTML document", zap.Int("elements", count))
	return doc, nil
}

// ParseXML reads XHTML, FB2 or any other XML document. Reading is permissive
// and honors the declared encoding.
func ParseXML(r io.Reader, log *zap.Logger) (*Node, error) {
	src := etree.NewDocument()
	src.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if _, err := src.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to parse XML: %w", err)
	}
	root := src.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	doc := NewDocument()
	var count int
	var convert func(dst *Node, src *etree.Element)
	convert = func(dst *Node, src *etree.Element) {
		el := NewElement(src.Tag)
		el.Prefix = src.Space
		for _, a := range src.Attr {
			el.Attrs = append(el.Attrs, Attr{Name: a.FullKey(), Value: a.Value})
		}
		el.Clickable = isLink(el)
		dst.AppendChild(el)
		count++
		for _, tok := range src.Child {
			switch t := tok.(type) {
			case *etree.Element:
				convert(el, t)
			case *etree.CharData:
				el.AppendChild(NewText(t.Data))
			}
		}
	}
	convert(doc, root)
	log.Debug("Parsed XML document", zap.String("root", root.FullTag()), zap.Int("elements", count))
	return doc, nil
}

// isLink marks hyperlinks, FB2 uses a namespaced href.
func isLink(el *Node) bool {
	switch el.Tag {
	case "a", "area", "link":
	default:
		return false
	}
	for _, a := range el.Attrs {
		if a.Name == "href" || strings.HasSuffix(a.Name, ":href") {
			return true
		}
	}
	return false
}

// Stylesheets returns CSS text embedded in the document: HTML style elements
// and FB2 stylesheet elements of type text/css, in document order.
func Stylesheets(doc *Node) []string {
	var sheets []string
	Walk(doc, func(b Box, _ int) error { //nolint:errcheck
		n, ok := b.(*Node)
		if !ok || n.Kind != ElementNode {
			return nil
		}
		switch n.Tag {
		case "style":
		case "stylesheet":
			if t, ok := n.Attr("type"); ok && !strings.EqualFold(t, "text/css") {
				return nil
			}
		default:
			return nil
		}
		if text := strings.TrimSpace(TextContent(n)); text != "" {
			sheets = append(sheets, text)
		}
		return nil
	})
	return sheets
}

// LinkedStylesheets returns href values of <link rel="stylesheet"> elements.
func LinkedStylesheets(doc *Node) []string {
	var hrefs []string
	Walk(doc, func(b Box, _ int) error { //nolint:errcheck
		if b.TagName() != "link" {
			return nil
		}
		rel, _ := b.Attr("rel")
		if !strings.EqualFold(strings.TrimSpace(rel), "stylesheet") {
			return nil
		}
		if href, ok := b.Attr("href"); ok && href != "" {
			hrefs = append(hrefs, href)
		}
		return nil
	})
	return hrefs
}
