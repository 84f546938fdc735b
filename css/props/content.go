package props

import (
	"strings"

	"pstyle/css"
)

// Ident accepts any identifier keeping its casing.
var Ident = single(func(t css.Token) (css.Value, bool) {
	if t.Kind == css.TokenIdent {
		return css.Keyword(t.Data), true
	}
	return css.Value{}, false
})

// identIn accepts one of the listed identifiers but, unlike Keywords, keeps
// the author's casing. Used for keyword arguments of functional values.
func identIn(words ...string) Converter {
	return single(func(t css.Token) (css.Value, bool) {
		if t.Kind != css.TokenIdent {
			return css.Value{}, false
		}
		for _, w := range words {
			if strings.EqualFold(t.Data, w) {
				return css.Keyword(t.Data), true
			}
		}
		return css.Value{}, false
	})
}

// TimingFunction accepts easing keywords, cubic-bezier() and steps().
var TimingFunction = Or(
	Keywords("ease", "linear", "ease-in", "ease-out", "ease-in-out", "step-start", "step-end"),
	Func("cubic-bezier", Seq(Num, Comma, Num, Comma, Num, Comma, Num)),
	Func("steps", Seq(Integer, Optional(Comma), Optional(Keywords("start", "end", "jump-start", "jump-end", "jump-none", "jump-both")))),
)

// StringPolicies lists the page selection keywords accepted by string().
var StringPolicies = []string{"first", "start", "last", "first-except"}

// CounterStyles lists list-style-type keywords usable in counter().
var CounterStyles = []string{
	"decimal", "decimal-leading-zero", "lower-roman", "upper-roman",
	"lower-alpha", "upper-alpha", "lower-latin", "upper-latin",
	"disc", "circle", "square", "none",
}

var (
	stringFunc = Func("string", Seq(CustomIdent, Optional(Comma), Optional(identIn(StringPolicies...))))

	counterFunc = Func("counter", Seq(CustomIdent, Optional(Comma), Optional(identIn(CounterStyles...))))

	countersFunc = Func("counters", Seq(CustomIdent, Comma, Str, Optional(Comma), Optional(identIn(CounterStyles...))))

	attrFunc = Func("attr", Ident)

	contentItem = Or(
		Str,
		URL,
		stringFunc,
		counterFunc,
		countersFunc,
		attrFunc,
		Keywords("open-quote", "close-quote", "no-open-quote", "no-close-quote"),
	)
)

// contentFunc is the content([text|before|after|first-letter]) form
// allowed in string-set.
var contentFunc = single(func(t css.Token) (css.Value, bool) {
	if !t.IsFunction("content") {
		return css.Value{}, false
	}
	switch args := css.Significant(t.Args); {
	case len(args) == 0:
		return css.Function("content"), true
	case len(args) == 1:
		if v, ok := Convert(identIn("text", "before", "after", "first-letter", "marker"), args); ok {
			return css.Function("content", v), true
		}
	}
	return css.Value{}, false
})

// ContentList accepts values of the content property: "normal", "none" or a
// sequence of strings, quotes and generating functions.
var ContentList = Or(
	Keywords("normal", "none"),
	Repeat(contentItem, 1, 0),
)

// StringSet accepts "none" or a comma separated list of a custom name
// followed by a content list.
var StringSet = Or(
	Keywords("none"),
	CommaList(Seq(CustomIdent, Repeat(Or(contentItem, contentFunc), 1, 0))),
)

// CounterList accepts counter-reset and counter-increment values: "none" or
// pairs of a counter name and an optional integer.
var CounterList = Or(
	Keywords("none"),
	Repeat(Seq(CustomIdent, Optional(Integer)), 1, 0),
)
