package gcpm

import (
	"strings"

	"pstyle/css"
)

// DefaultQuotes are used when the quotes property is auto.
var DefaultQuotes = []string{"“", "”", "‘", "’"}

// Context supplies the state content evaluation depends on. Fields may be
// left nil, the corresponding functions then produce empty text.
type Context struct {
	Counters *Counters
	Strings  *Strings
	// Page the evaluated box is on, used by string().
	Page int
	// Attr returns attributes of the element the content belongs to.
	Attr func(name string) (string, bool)
	// Text returns text for content(text|before|after|first-letter|marker).
	Text func(part string) string
	// Quotes are open/close pairs, outermost first.
	Quotes []string
	// QuoteDepth is the current nesting level, open-quote and close-quote
	// change it.
	QuoteDepth int
}

// Evaluate renders a content list to text.
func Evaluate(v css.Value, ctx *Context) string {
	if ctx == nil {
		ctx = &Context{}
	}
	var sb strings.Builder
	for _, item := range flatten(v) {
		switch item.Kind {
		case css.ValueString:
			sb.WriteString(item.Text)
		case css.ValueKeyword:
			sb.WriteString(ctx.quote(strings.ToLower(item.Keyword)))
		case css.ValueFunction:
			sb.WriteString(ctx.function(item))
		}
	}
	return sb.String()
}

func (ctx *Context) quote(kw string) string {
	quotes := ctx.Quotes
	if quotes == nil {
		quotes = DefaultQuotes
	}
	pick := func(depth, offset int) string {
		if len(quotes) < 2 || depth < 0 {
			return ""
		}
		i := min(depth, len(quotes)/2-1)*2 + offset
		return quotes[i]
	}
	switch kw {
	case "open-quote":
		q := pick(ctx.QuoteDepth, 0)
		ctx.QuoteDepth++
		return q
	case "close-quote":
		if ctx.QuoteDepth == 0 {
			return ""
		}
		ctx.QuoteDepth--
		return pick(ctx.QuoteDepth, 1)
	case "no-open-quote":
		ctx.QuoteDepth++
	case "no-close-quote":
		if ctx.QuoteDepth > 0 {
			ctx.QuoteDepth--
		}
	}
	return ""
}

// argText returns text of the first value of an argument group.
func argText(groups [][]css.Value, i int) string {
	if i >= len(groups) || len(groups[i]) == 0 {
		return ""
	}
	switch v := groups[i][0]; v.Kind {
	case css.ValueKeyword:
		return v.Keyword
	case css.ValueString:
		return v.Text
	default:
		return v.String()
	}
}

func (ctx *Context) function(f css.Value) string {
	args := f.SplitArgs()
	name := argText(args, 0)
	switch strings.ToLower(f.Name) {
	case "string":
		if ctx.Strings == nil {
			return ""
		}
		policy, err := ParsePolicy(argText(args, 1))
		if err != nil {
			policy = First
		}
		return ctx.Strings.Lookup(name, ctx.Page, policy)
	case "counter":
		if ctx.Counters == nil {
			return ""
		}
		return FormatCounter(ctx.Counters.Value(name), argText(args, 1))
	case "counters":
		if ctx.Counters == nil {
			return ""
		}
		values := ctx.Counters.Values(name)
		if len(values) == 0 {
			values = []int{0}
		}
		parts := make([]string, len(values))
		for i, n := range values {
			parts[i] = FormatCounter(n, argText(args, 2))
		}
		return strings.Join(parts, argText(args, 1))
	case "attr":
		if ctx.Attr == nil {
			return ""
		}
		v, _ := ctx.Attr(name)
		return v
	case "content":
		if ctx.Text == nil {
			return ""
		}
		if name == "" {
			name = "text"
		}
		return ctx.Text(strings.ToLower(name))
	}
	return ""
}

// Assignment is one "name content-list" pair of a string-set value.
type Assignment struct {
	Name    string
	Content css.Value
}

// ParseStringSet splits a converted string-set value into assignments.
func ParseStringSet(v css.Value) []Assignment {
	if v.IsZero() || v.IsKeyword("none") {
		return nil
	}
	items := []css.Value{v}
	if v.Kind == css.ValueList && v.Separator == "," {
		items = v.Items
	}
	var out []Assignment
	for _, item := range items {
		parts := flatten(item)
		if len(parts) < 2 || parts[0].Kind != css.ValueKeyword {
			continue
		}
		out = append(out, Assignment{Name: parts[0].Keyword, Content: css.List(" ", parts[1:]...)})
	}
	return out
}

// ParseQuotes returns quote pairs of a quotes value, nil for auto and an
// empty slice for none.
func ParseQuotes(v css.Value) []string {
	if v.IsKeyword("none") {
		return []string{}
	}
	var quotes []string
	for _, item := range flatten(v) {
		if item.Kind == css.ValueString {
			quotes = append(quotes, item.Text)
		}
	}
	if len(quotes) < 2 {
		return nil
	}
	return quotes[:len(quotes)&^1]
}
