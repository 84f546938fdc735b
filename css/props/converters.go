// Package props holds per-property value converters, the property registry
// and the shorthand expansion engine.
package props

import (
	"strings"

	"pstyle/css"
)

// Converter reads a value from the head of a whitespace-free token run and
// reports how many tokens it used. Converters never look past what they
// need, so they compose: the shorthand engine and the combinators below feed
// them successive slices of the same run.
type Converter interface {
	Consume(tokens []css.Token) (v css.Value, n int, ok bool)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(tokens []css.Token) (css.Value, int, bool)

// Consume implements Converter.
func (f ConverterFunc) Consume(tokens []css.Token) (css.Value, int, bool) {
	return f(tokens)
}

// Convert applies c to the complete token run, whitespace is ignored. It
// fails unless every token was used.
func Convert(c Converter, tokens []css.Token) (css.Value, bool) {
	sig := css.Significant(tokens)
	if len(sig) == 0 {
		return css.Value{}, false
	}
	v, n, ok := c.Consume(sig)
	if !ok || n != len(sig) {
		return css.Value{}, false
	}
	return v, true
}

// single wraps a one-token predicate.
func single(fn func(t css.Token) (css.Value, bool)) Converter {
	return ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
		if len(tokens) == 0 {
			return css.Value{}, 0, false
		}
		v, ok := fn(tokens[0])
		if !ok {
			return css.Value{}, 0, false
		}
		return v, 1, true
	})
}

// Keywords accepts one of the listed identifiers. The value is normalized to
// lowercase.
func Keywords(words ...string) Converter {
	return single(func(t css.Token) (css.Value, bool) {
		if t.Kind != css.TokenIdent {
			return css.Value{}, false
		}
		for _, w := range words {
			if strings.EqualFold(t.Data, w) {
				return css.Keyword(w), true
			}
		}
		return css.Value{}, false
	})
}

var lengthUnits = map[string]bool{
	"px": true, "em": true, "rem": true, "ex": true, "ch": true,
	"pt": true, "pc": true, "in": true, "cm": true, "mm": true, "q": true,
	"vw": true, "vh": true, "vmin": true, "vmax": true,
}

// Length accepts a dimension with a length unit or unitless zero.
var Length = single(func(t css.Token) (css.Value, bool) {
	switch t.Kind {
	case css.TokenDimension:
		unit := strings.ToLower(t.Unit)
		if lengthUnits[unit] {
			return css.Dimension(t.Number, unit), true
		}
	case css.TokenNumber:
		if t.Number == 0 {
			return css.Number(0), true
		}
	}
	return css.Value{}, false
})

// Percent accepts a percentage.
var Percent = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenPercentage {
		return css.Percentage(t.Number), true
	}
	return css.Value{}, false
})

// Time accepts s and ms dimensions.
var Time = single(func(t css.Token) (css.Value, bool) {
	if t.Kind != css.TokenDimension {
		return css.Value{}, false
	}
	switch unit := strings.ToLower(t.Unit); unit {
	case "s", "ms":
		return css.Dimension(t.Number, unit), true
	}
	return css.Value{}, false
})

// Angle accepts deg, rad, grad and turn dimensions.
var Angle = single(func(t css.Token) (css.Value, bool) {
	if t.Kind != css.TokenDimension {
		return css.Value{}, false
	}
	switch unit := strings.ToLower(t.Unit); unit {
	case "deg", "rad", "grad", "turn":
		return css.Dimension(t.Number, unit), true
	}
	return css.Value{}, false
})

// Num accepts any number.
var Num = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenNumber {
		return css.Number(t.Number), true
	}
	return css.Value{}, false
})

// NonNegative restricts numeric results of c to values >= 0.
func NonNegative(c Converter) Converter {
	return ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
		v, n, ok := c.Consume(tokens)
		if !ok || (v.IsNumeric() && v.Number < 0) {
			return css.Value{}, 0, false
		}
		return v, n, true
	})
}

// Integer accepts numbers without fractional part.
var Integer = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenNumber && t.Number == float64(int64(t.Number)) && !strings.ContainsAny(t.Data, ".eE") {
		return css.Number(t.Number), true
	}
	return css.Value{}, false
})

// Str accepts a quoted string.
var Str = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenString {
		return css.String(t.Text()), true
	}
	return css.Value{}, false
})

// URL accepts url(...) in any of its forms.
var URL = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenString {
		return css.Value{}, false
	}
	if u, ok := css.URLValue(t); ok {
		return css.URL(u), true
	}
	return css.Value{}, false
})

// reserved identifiers may not be used as custom names.
var reserved = map[string]bool{
	"inherit": true, "initial": true, "unset": true, "default": true, "none": true,
}

// CustomIdent accepts any identifier which is not a CSS-wide keyword. The
// author's casing is kept, names are case-sensitive.
var CustomIdent = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenIdent && !reserved[t.Lower()] {
		return css.Keyword(t.Data), true
	}
	return css.Value{}, false
})

// Or tries converters in order and returns the first match.
func Or(cs ...Converter) Converter {
	return ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
		for _, c := range cs {
			if v, n, ok := c.Consume(tokens); ok {
				return v, n, true
			}
		}
		return css.Value{}, 0, false
	})
}

// Repeat accepts between min and max space separated occurrences of c; max
// of 0 means unlimited.
func Repeat(c Converter, min, max int) Converter {
	return ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
		var (
			items []css.Value
			used  int
		)
		for used < len(tokens) && (max == 0 || len(items) < max) {
			v, n, ok := c.Consume(tokens[used:])
			if !ok || n == 0 {
				break
			}
			items = append(items, v)
			used += n
		}
		if len(items) < min || len(items) == 0 {
			return css.Value{}, 0, false
		}
		return css.List(" ", items...), used, true
	})
}

// CommaList accepts one or more comma separated occurrences of c.
func CommaList(c Converter) Converter {
	return ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
		var (
			items []css.Value
			used  int
		)
		for {
			v, n, ok := c.Consume(tokens[used:])
			if !ok || n == 0 {
				return css.Value{}, 0, false
			}
			items = append(items, v)
			used += n
			if used >= len(tokens) || tokens[used].Kind != css.TokenComma {
				break
			}
			used++
		}
		return css.List(",", items...), used, true
	})
}

// Func accepts a function with the given name whose significant arguments
// are fully consumed by args. The result keeps the function shape.
func Func(name string, args Converter) Converter {
	return single(func(t css.Token) (css.Value, bool) {
		if !t.IsFunction(name) {
			return css.Value{}, false
		}
		sig := css.Significant(t.Args)
		if len(sig) == 0 {
			return css.Value{}, false
		}
		v, n, ok := args.Consume(sig)
		if !ok || n != len(sig) {
			return css.Value{}, false
		}
		return css.Value{Kind: css.ValueFunction, Name: strings.ToLower(name), Args: flattenArgs(v)}, true
	})
}

// flattenArgs turns a comma list back into function arguments separated by
// css.Comma.
func flattenArgs(v css.Value) []css.Value {
	if v.Kind != css.ValueList {
		return []css.Value{v}
	}
	if v.Separator != "," {
		return v.Items
	}
	out := make([]css.Value, 0, 2*len(v.Items))
	for i, it := range v.Items {
		if i > 0 {
			out = append(out, css.Comma)
		}
		out = append(out, it.Values()...)
	}
	return out
}

// Seq accepts each converter once in the given order; optional converters may
// be skipped.
func Seq(cs ...Converter) Converter {
	return ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
		var (
			items []css.Value
			used  int
		)
		for _, c := range cs {
			v, n, ok := c.Consume(tokens[used:])
			if !ok {
				if _, optional := c.(optionalConverter); optional {
					continue
				}
				return css.Value{}, 0, false
			}
			if n == 0 {
				continue
			}
			items = append(items, v)
			used += n
		}
		if len(items) == 0 {
			return css.Value{}, 0, false
		}
		return css.List(" ", items...), used, true
	})
}

type optionalConverter struct{ Converter }

// Optional marks a Seq member which may be absent.
func Optional(c Converter) Converter {
	return optionalConverter{c}
}

// Comma accepts a comma token, used inside Seq for function arguments.
var Comma = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenComma {
		return css.Comma, true
	}
	return css.Value{}, false
})

// Any keeps arbitrary tokens verbatim.
var Any = ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
	if len(tokens) == 0 {
		return css.Value{}, 0, false
	}
	return css.Raw(tokens), len(tokens), true
})

// Generic converts each remaining token on its own, keeping functions with
// their arguments. Used for properties whose grammar is not checked.
var Generic = ConverterFunc(func(tokens []css.Token) (css.Value, int, bool) {
	if len(tokens) == 0 {
		return css.Value{}, 0, false
	}
	items := make([]css.Value, 0, len(tokens))
	for _, t := range tokens {
		items = append(items, css.TokenValue(t))
	}
	return css.List(" ", items...), len(tokens), true
})
