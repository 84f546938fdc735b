package css

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueKeyword
	ValueNumber
	ValueDimension
	ValuePercentage
	ValueString
	ValueColor
	ValueURL
	ValueFunction
	ValueList
	ValueRaw
)

// Value is a parsed CSS property value. Which fields are meaningful depends on
// Kind:
//
//	ValueKeyword    Keyword (original casing kept, compare with IsKeyword)
//	ValueNumber     Number
//	ValueDimension  Number, Unit (lowercased)
//	ValuePercentage Number, Unit == "%"
//	ValueString     Text (unquoted)
//	ValueColor      Color
//	ValueURL        Text (the url itself)
//	ValueFunction   Name, Args (significant arguments, commas kept as Separator values)
//	ValueList       Items, Separator (" ", "," or "/")
//	ValueRaw        Raw tokens, serialized verbatim
type Value struct {
	Kind ValueKind

	Keyword   string
	Number    float64
	Unit      string
	Text      string
	Color     color.RGBA
	Name      string
	Args      []Value
	Items     []Value
	Separator string
	Tokens    []Token
}

// Constructors used by converters and tests.

func Keyword(k string) Value                 { return Value{Kind: ValueKeyword, Keyword: k} }
func Number(n float64) Value                 { return Value{Kind: ValueNumber, Number: n} }
func Dimension(n float64, unit string) Value { return Value{Kind: ValueDimension, Number: n, Unit: unit} }
func Percentage(n float64) Value             { return Value{Kind: ValuePercentage, Number: n, Unit: "%"} }
func String(s string) Value                  { return Value{Kind: ValueString, Text: s} }
func URL(u string) Value                     { return Value{Kind: ValueURL, Text: u} }
func Color(c color.RGBA) Value               { return Value{Kind: ValueColor, Color: c} }

// Function builds a function value.
func Function(name string, args ...Value) Value {
	return Value{Kind: ValueFunction, Name: name, Args: args}
}

// List builds a list value. Lists of a single item collapse to that item.
func List(sep string, items ...Value) Value {
	if len(items) == 1 {
		return items[0]
	}
	return Value{Kind: ValueList, Separator: sep, Items: items}
}

// Raw keeps tokens which were not converted to anything more specific.
func Raw(tokens []Token) Value {
	return Value{Kind: ValueRaw, Tokens: tokens}
}

// IsZero returns true for the empty value.
func (v Value) IsZero() bool {
	return v.Kind == ValueNone
}

// IsKeyword returns true if the value is the given keyword, ignoring ASCII case.
func (v Value) IsKeyword(k string) bool {
	return v.Kind == ValueKeyword && strings.EqualFold(v.Keyword, k)
}

// IsNumeric returns true if the value has a numeric component.
func (v Value) IsNumeric() bool {
	switch v.Kind {
	case ValueNumber, ValueDimension, ValuePercentage:
		return true
	}
	return false
}

// Values returns list items, or the value itself wrapped in a slice.
func (v Value) Values() []Value {
	switch v.Kind {
	case ValueNone:
		return nil
	case ValueList:
		return v.Items
	}
	return []Value{v}
}

// Equal reports structural equality.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueKeyword:
		return v.Keyword == o.Keyword
	case ValueNumber:
		return v.Number == o.Number
	case ValueDimension, ValuePercentage:
		return v.Number == o.Number && v.Unit == o.Unit
	case ValueString, ValueURL:
		return v.Text == o.Text
	case ValueColor:
		return v.Color == o.Color
	case ValueFunction:
		return strings.EqualFold(v.Name, o.Name) && equalValues(v.Args, o.Args)
	case ValueList:
		return v.Separator == o.Separator && equalValues(v.Items, o.Items)
	case ValueRaw:
		return Serialize(v.Tokens) == Serialize(o.Tokens)
	}
	return true
}

func equalValues(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// String returns canonical CSS text for the value.
func (v Value) String() string {
	switch v.Kind {
	case ValueKeyword:
		return v.Keyword
	case ValueNumber:
		return formatNumber(v.Number)
	case ValueDimension, ValuePercentage:
		return formatNumber(v.Number) + v.Unit
	case ValueString:
		return `"` + escapeDoubleQuoted(v.Text) + `"`
	case ValueURL:
		return `url("` + escapeDoubleQuoted(v.Text) + `")`
	case ValueColor:
		return formatColor(v.Color)
	case ValueFunction:
		var sb strings.Builder
		sb.WriteString(v.Name)
		sb.WriteByte('(')
		for i, a := range v.Args {
			if a.Kind == ValueKeyword && a.Keyword == "," {
				sb.WriteString(", ")
				continue
			}
			if i > 0 && !(v.Args[i-1].Kind == ValueKeyword && v.Args[i-1].Keyword == ",") {
				sb.WriteByte(' ')
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte(')')
		return sb.String()
	case ValueList:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = it.String()
		}
		switch v.Separator {
		case ",":
			return strings.Join(parts, ", ")
		case "/":
			return strings.Join(parts, " / ")
		default:
			return strings.Join(parts, " ")
		}
	case ValueRaw:
		return Serialize(v.Tokens)
	}
	return ""
}

// Comma is the separator placed between function arguments.
var Comma = Value{Kind: ValueKeyword, Keyword: ","}

// SplitArgs splits function arguments on Comma separators.
func (v Value) SplitArgs() [][]Value {
	if v.Kind != ValueFunction {
		return nil
	}
	var (
		groups [][]Value
		cur    []Value
	)
	for _, a := range v.Args {
		if a.Kind == ValueKeyword && a.Keyword == "," {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, a)
	}
	return append(groups, cur)
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatColor(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, formatAlpha(c.A))
}

// formatAlpha returns the shortest decimal that reads back as the same byte,
// three digits always do.
func formatAlpha(a uint8) string {
	for _, scale := range []float64{100, 1000} {
		v := math.Round(float64(a)/255*scale) / scale
		if uint8(math.Round(v*255)) == a || scale == 1000 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// escapeDoubleQuoted escapes a string for use inside CSS double quotes.
func escapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, "\"\\\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
