package props

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
	"strings"

	"go.uber.org/zap"

	"pstyle/css"
)

var (
	// ErrUnknownProperty is returned for properties the registry has no entry for.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrInvalidValue is returned when the property converter rejects a value.
	ErrInvalidValue = errors.New("invalid value")
)

// Property describes a longhand property.
type Property struct {
	Name      string
	Converter Converter
	Initial   css.Value
	Inherited bool
}

// Registry is an immutable set of known properties and shorthands. It is
// built once and passed to the parser and the cascade, it is safe for
// concurrent use.
type Registry struct {
	log        *zap.Logger
	properties map[string]Property
	shorthands map[string]Shorthand
}

// NewRegistry returns registry with all supported properties. Extra
// properties are added after the built-in ones and replace them on name
// clash.
func NewRegistry(log *zap.Logger, extra ...Property) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		log:        log.Named("css-props"),
		properties: make(map[string]Property),
		shorthands: make(map[string]Shorthand),
	}
	for _, p := range builtinProperties() {
		r.properties[p.Name] = p
	}
	for _, p := range extra {
		r.properties[p.Name] = p
	}
	for _, sh := range builtinShorthands(r) {
		r.shorthands[sh.Name] = sh
	}
	return r
}

// Lookup returns longhand property description.
func (r *Registry) Lookup(name string) (Property, bool) {
	p, ok := r.properties[name]
	return p, ok
}

// Shorthand returns shorthand description.
func (r *Registry) Shorthand(name string) (Shorthand, bool) {
	sh, ok := r.shorthands[name]
	return sh, ok
}

// IsInherited reports whether the property inherits by default. Custom
// properties always do.
func (r *Registry) IsInherited(name string) bool {
	if strings.HasPrefix(name, "--") {
		return true
	}
	return r.properties[name].Inherited
}

// Initial returns initial value of the property, zero Value when unknown.
func (r *Registry) Initial(name string) css.Value {
	return r.properties[name].Initial
}

// Names returns sorted names of all longhands and shorthands.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.properties)+len(r.shorthands))
	for name := range r.properties {
		names = append(names, name)
	}
	for name := range r.shorthands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// isWideKeyword returns CSS-wide keyword if value consists of one.
func isWideKeyword(value []css.Token) (css.Value, bool) {
	sig := css.Significant(value)
	if len(sig) != 1 {
		return css.Value{}, false
	}
	for _, k := range []string{"inherit", "initial", "unset"} {
		if sig[0].Is(k) {
			return css.Keyword(k), true
		}
	}
	return css.Value{}, false
}

// Declare implements css.PropertySet. Shorthands are expanded into their
// longhands, custom properties are kept as raw tokens.
func (r *Registry) Declare(property string, value []css.Token) ([]css.Declaration, error) {
	if strings.HasPrefix(property, "--") {
		return []css.Declaration{{Property: property, Value: css.Raw(css.TrimWhitespace(value))}}, nil
	}

	if sh, ok := r.shorthands[property]; ok {
		names := sh.Longhands()
		if kw, ok := isWideKeyword(value); ok {
			decls := make([]css.Declaration, 0, len(names))
			for _, name := range names {
				decls = append(decls, css.Declaration{Property: name, Value: kw})
			}
			return decls, nil
		}
		expanded, err := sh.Expand(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", property, err)
		}
		decls := make([]css.Declaration, 0, len(names))
		for _, name := range names {
			decls = append(decls, css.Declaration{Property: name, Value: css.List(",", expanded[name]...)})
		}
		r.log.Debug("Expanded shorthand", zap.String("property", property), zap.Int("longhands", len(decls)))
		return decls, nil
	}

	p, ok := r.properties[property]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, property)
	}
	if kw, ok := isWideKeyword(value); ok {
		return []css.Declaration{{Property: property, Value: kw}}, nil
	}
	v, ok := Convert(p.Converter, value)
	if !ok {
		return nil, fmt.Errorf("%w for %s: %s", ErrInvalidValue, property, css.Serialize(value))
	}
	return []css.Declaration{{Property: property, Value: v}}, nil
}

var (
	black       = css.Color(color.RGBA{A: 0xff})
	transparent = css.Color(color.RGBA{})

	lengthPercent       = Or(Length, Percent)
	nonNegLengthPercent = NonNegative(lengthPercent)
	autoOrLength        = Or(Keywords("auto"), nonNegLengthPercent)
	borderStyle         = Keywords("none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset")
	borderWidth         = Or(Keywords("thin", "medium", "thick"), NonNegative(Length))
	fontFamily          = CommaList(Or(Str, Repeat(Ident, 1, 0)))
	listStyleType       = Or(Keywords(CounterStyles...), Str)
	imageOrNone         = Or(Keywords("none"), URL)
	decorationLine      = Or(Keywords("none"), Repeat(Keywords("underline", "overline", "line-through", "blink"), 1, 4))
	decorationStyle     = Keywords("solid", "double", "dotted", "dashed", "wavy")
	breakKeywords       = Keywords("auto", "avoid", "always", "all", "page", "left", "right", "recto", "verso", "column")

	animationName      = Or(Keywords("none"), CustomIdent)
	iterationCount     = Or(Keywords("infinite"), NonNegative(Num))
	animationDirection = Keywords("normal", "reverse", "alternate", "alternate-reverse")
	fillMode           = Keywords("none", "forwards", "backwards", "both")
	playState          = Keywords("running", "paused")
	transitionProperty = Or(Keywords("all", "none"), CustomIdent)
)

func builtinProperties() []Property {
	props := []Property{
		{Name: "display", Converter: Keywords("inline", "block", "inline-block", "list-item", "none", "table", "table-row", "table-cell", "table-caption", "flex", "grid", "contents", "run-in"), Initial: css.Keyword("inline")},
		{Name: "position", Converter: Keywords("static", "relative", "absolute", "fixed"), Initial: css.Keyword("static")},
		{Name: "float", Converter: Keywords("none", "left", "right"), Initial: css.Keyword("none")},
		{Name: "clear", Converter: Keywords("none", "left", "right", "both"), Initial: css.Keyword("none")},
		{Name: "visibility", Converter: Keywords("visible", "hidden", "collapse"), Initial: css.Keyword("visible"), Inherited: true},
		{Name: "overflow", Converter: Keywords("visible", "hidden", "scroll", "auto"), Initial: css.Keyword("visible")},
		{Name: "opacity", Converter: Num, Initial: css.Number(1)},
		{Name: "direction", Converter: Keywords("ltr", "rtl"), Initial: css.Keyword("ltr"), Inherited: true},

		{Name: "color", Converter: Color, Initial: black, Inherited: true},
		{Name: "background-color", Converter: Color, Initial: transparent},
		{Name: "background-image", Converter: imageOrNone, Initial: css.Keyword("none")},

		{Name: "font-family", Converter: fontFamily, Initial: css.Keyword("serif"), Inherited: true},
		{Name: "font-size", Converter: Or(Keywords("xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large", "smaller", "larger"), nonNegLengthPercent), Initial: css.Keyword("medium"), Inherited: true},
		{Name: "font-style", Converter: Keywords("normal", "italic", "oblique"), Initial: css.Keyword("normal"), Inherited: true},
		{Name: "font-variant", Converter: Keywords("normal", "small-caps"), Initial: css.Keyword("normal"), Inherited: true},
		{Name: "font-weight", Converter: Or(Keywords("normal", "bold", "bolder", "lighter"), Integer), Initial: css.Keyword("normal"), Inherited: true},
		{Name: "line-height", Converter: Or(Keywords("normal"), NonNegative(Num), nonNegLengthPercent), Initial: css.Keyword("normal"), Inherited: true},

		{Name: "text-align", Converter: Keywords("left", "right", "center", "justify", "start", "end"), Initial: css.Keyword("start"), Inherited: true},
		{Name: "text-indent", Converter: lengthPercent, Initial: css.Number(0), Inherited: true},
		{Name: "text-transform", Converter: Keywords("none", "capitalize", "uppercase", "lowercase"), Initial: css.Keyword("none"), Inherited: true},
		{Name: "white-space", Converter: Keywords("normal", "pre", "nowrap", "pre-wrap", "pre-line"), Initial: css.Keyword("normal"), Inherited: true},
		{Name: "vertical-align", Converter: Or(Keywords("baseline", "sub", "super", "top", "text-top", "middle", "bottom", "text-bottom"), lengthPercent), Initial: css.Keyword("baseline")},
		{Name: "letter-spacing", Converter: Or(Keywords("normal"), Length), Initial: css.Keyword("normal"), Inherited: true},
		{Name: "word-spacing", Converter: Or(Keywords("normal"), Length), Initial: css.Keyword("normal"), Inherited: true},
		{Name: "hyphens", Converter: Keywords("none", "manual", "auto"), Initial: css.Keyword("manual"), Inherited: true},
		{Name: "text-decoration-line", Converter: decorationLine, Initial: css.Keyword("none")},
		{Name: "text-decoration-style", Converter: decorationStyle, Initial: css.Keyword("solid")},
		{Name: "text-decoration-color", Converter: Color, Initial: css.Keyword("currentcolor")},

		{Name: "width", Converter: autoOrLength, Initial: css.Keyword("auto")},
		{Name: "height", Converter: autoOrLength, Initial: css.Keyword("auto")},
		{Name: "min-width", Converter: nonNegLengthPercent, Initial: css.Number(0)},
		{Name: "min-height", Converter: nonNegLengthPercent, Initial: css.Number(0)},
		{Name: "max-width", Converter: Or(Keywords("none"), nonNegLengthPercent), Initial: css.Keyword("none")},
		{Name: "max-height", Converter: Or(Keywords("none"), nonNegLengthPercent), Initial: css.Keyword("none")},

		{Name: "list-style-type", Converter: listStyleType, Initial: css.Keyword("disc"), Inherited: true},
		{Name: "list-style-position", Converter: Keywords("inside", "outside"), Initial: css.Keyword("outside"), Inherited: true},
		{Name: "list-style-image", Converter: imageOrNone, Initial: css.Keyword("none"), Inherited: true},

		{Name: "outline-width", Converter: borderWidth, Initial: css.Keyword("medium")},
		{Name: "outline-style", Converter: borderStyle, Initial: css.Keyword("none")},
		{Name: "outline-color", Converter: Color, Initial: css.Keyword("currentcolor")},

		{Name: "page-break-before", Converter: breakKeywords, Initial: css.Keyword("auto")},
		{Name: "page-break-after", Converter: breakKeywords, Initial: css.Keyword("auto")},
		{Name: "page-break-inside", Converter: Keywords("auto", "avoid"), Initial: css.Keyword("auto")},
		{Name: "break-before", Converter: breakKeywords, Initial: css.Keyword("auto")},
		{Name: "break-after", Converter: breakKeywords, Initial: css.Keyword("auto")},
		{Name: "break-inside", Converter: Keywords("auto", "avoid", "avoid-page", "avoid-column"), Initial: css.Keyword("auto")},
		{Name: "orphans", Converter: NonNegative(Integer), Initial: css.Number(2), Inherited: true},
		{Name: "widows", Converter: NonNegative(Integer), Initial: css.Number(2), Inherited: true},
		{Name: "page", Converter: Or(Keywords("auto"), CustomIdent), Initial: css.Keyword("auto")},
		{Name: "size", Converter: Generic, Initial: css.Keyword("auto")},

		{Name: "column-count", Converter: Or(Keywords("auto"), NonNegative(Integer)), Initial: css.Keyword("auto")},
		{Name: "column-width", Converter: Or(Keywords("auto"), NonNegative(Length)), Initial: css.Keyword("auto")},
		{Name: "column-gap", Converter: Or(Keywords("normal"), nonNegLengthPercent), Initial: css.Keyword("normal")},

		{Name: "content", Converter: ContentList, Initial: css.Keyword("normal")},
		{Name: "quotes", Converter: Or(Keywords("none", "auto"), Repeat(Str, 2, 0)), Initial: css.Keyword("auto"), Inherited: true},
		{Name: "counter-reset", Converter: CounterList, Initial: css.Keyword("none")},
		{Name: "counter-increment", Converter: CounterList, Initial: css.Keyword("none")},
		{Name: "string-set", Converter: StringSet, Initial: css.Keyword("none")},

		{Name: "animation-name", Converter: CommaList(animationName), Initial: css.Keyword("none")},
		{Name: "animation-duration", Converter: CommaList(Time), Initial: css.Dimension(0, "s")},
		{Name: "animation-timing-function", Converter: CommaList(TimingFunction), Initial: css.Keyword("ease")},
		{Name: "animation-delay", Converter: CommaList(Time), Initial: css.Dimension(0, "s")},
		{Name: "animation-iteration-count", Converter: CommaList(iterationCount), Initial: css.Number(1)},
		{Name: "animation-direction", Converter: CommaList(animationDirection), Initial: css.Keyword("normal")},
		{Name: "animation-fill-mode", Converter: CommaList(fillMode), Initial: css.Keyword("none")},
		{Name: "animation-play-state", Converter: CommaList(playState), Initial: css.Keyword("running")},

		{Name: "transition-property", Converter: CommaList(transitionProperty), Initial: css.Keyword("all")},
		{Name: "transition-duration", Converter: CommaList(Time), Initial: css.Dimension(0, "s")},
		{Name: "transition-timing-function", Converter: CommaList(TimingFunction), Initial: css.Keyword("ease")},
		{Name: "transition-delay", Converter: CommaList(Time), Initial: css.Dimension(0, "s")},
	}
	for _, side := range sides {
		props = append(props,
			Property{Name: "margin-" + side, Converter: Or(Keywords("auto"), lengthPercent), Initial: css.Number(0)},
			Property{Name: "padding-" + side, Converter: nonNegLengthPercent, Initial: css.Number(0)},
			Property{Name: "border-" + side + "-width", Converter: borderWidth, Initial: css.Keyword("medium")},
			Property{Name: "border-" + side + "-style", Converter: borderStyle, Initial: css.Keyword("none")},
			Property{Name: "border-" + side + "-color", Converter: Color, Initial: css.Keyword("currentcolor")},
		)
	}
	return props
}

// slot builds a shorthand slot from a registered longhand. List valued
// longhands are unwrapped since the engine handles fragments itself.
func (r *Registry) slot(longhand string, c Converter) Slot {
	return Slot{Longhand: longhand, Converter: c, Initial: r.properties[longhand].Initial}
}

func builtinShorthands(r *Registry) []Shorthand {
	sideNames := func(pattern string) []string {
		names := make([]string, 0, len(sides))
		for _, side := range sides {
			names = append(names, fmt.Sprintf(pattern, side))
		}
		return names
	}
	border := func(name string, targets func(part string) []string) Shorthand {
		return Shorthand{
			Name: name,
			Slots: []Slot{
				{Longhand: name + "-width", Converter: borderWidth, Initial: css.Keyword("medium")},
				{Longhand: name + "-style", Converter: borderStyle, Initial: css.Keyword("none")},
				{Longhand: name + "-color", Converter: Color, Initial: css.Keyword("currentcolor")},
			},
			FanOut: map[string][]string{
				name + "-width": targets("width"),
				name + "-style": targets("style"),
				name + "-color": targets("color"),
			},
		}
	}

	shorthands := []Shorthand{
		{
			// slot order decides which time value is the duration and which
			// the delay, name comes last so keywords win over identifiers
			Name: "animation",
			List: true,
			Slots: []Slot{
				r.slot("animation-duration", Time),
				r.slot("animation-timing-function", TimingFunction),
				r.slot("animation-delay", Time),
				r.slot("animation-iteration-count", iterationCount),
				r.slot("animation-direction", animationDirection),
				r.slot("animation-fill-mode", fillMode),
				r.slot("animation-play-state", playState),
				r.slot("animation-name", animationName),
			},
		},
		{
			Name: "transition",
			List: true,
			Slots: []Slot{
				r.slot("transition-duration", Time),
				r.slot("transition-timing-function", TimingFunction),
				r.slot("transition-delay", Time),
				r.slot("transition-property", transitionProperty),
			},
		},
		{
			Name: "list-style",
			Slots: []Slot{
				r.slot("list-style-type", listStyleType),
				r.slot("list-style-position", Keywords("inside", "outside")),
				r.slot("list-style-image", imageOrNone),
			},
		},
		{
			Name: "outline",
			Slots: []Slot{
				r.slot("outline-width", borderWidth),
				r.slot("outline-style", borderStyle),
				r.slot("outline-color", Color),
			},
		},
		{
			Name: "text-decoration",
			Slots: []Slot{
				r.slot("text-decoration-line", decorationLine),
				r.slot("text-decoration-style", decorationStyle),
				r.slot("text-decoration-color", Color),
			},
		},
		{
			Name: "columns",
			Slots: []Slot{
				r.slot("column-width", Or(Keywords("auto"), NonNegative(Length))),
				r.slot("column-count", Or(Keywords("auto"), NonNegative(Integer))),
			},
		},
		border("border", func(part string) []string { return sideNames("border-%s-" + part) }),
		{Name: "margin", Sides: "margin-%s", Converter: Or(Keywords("auto"), lengthPercent)},
		{Name: "padding", Sides: "padding-%s", Converter: nonNegLengthPercent},
		{Name: "border-width", Sides: "border-%s-width", Converter: borderWidth},
		{Name: "border-style", Sides: "border-%s-style", Converter: borderStyle},
		{Name: "border-color", Sides: "border-%s-color", Converter: Color},
	}
	for _, side := range sides {
		shorthands = append(shorthands, border("border-"+side, func(part string) []string {
			return []string{"border-" + side + "-" + part}
		}))
	}
	return shorthands
}
