package css

import (
	"strings"
)

// Medium describes the output the stylesheet is applied to.
type Medium struct {
	Type   string  // "print", "screen", ...
	Width  float64 // page or viewport width in px, 0 if unknown
	Height float64 // page or viewport height in px, 0 if unknown
}

// MediaQuery represents a single parsed media query.
type MediaQuery struct {
	Raw      string         // Original media query string
	Only     bool           // "only" modifier, has no effect on evaluation
	Negated  bool           // true if "not" modifier was used on main type
	Type     string         // Media type, lowercased, empty when only features are given
	Features []MediaFeature // "and (...)" conditions
}

// MediaFeature represents a single "(name[: value])" condition.
type MediaFeature struct {
	Name  string // lowercased feature name
	Value Value  // zero Value when the feature is used as a boolean
}

// MediaList is a comma separated list of queries. An empty list matches
// every medium.
type MediaList []MediaQuery

// String returns CSS text for the list.
func (ml MediaList) String() string {
	parts := make([]string, len(ml))
	for i, q := range ml {
		parts[i] = q.Raw
	}
	return strings.Join(parts, ", ")
}

// Types returns media types named by the list, in order and without duplicates.
func (ml MediaList) Types() []string {
	var (
		types []string
		seen  = map[string]bool{}
	)
	for _, q := range ml {
		t := q.Type
		if t == "" {
			t = "all"
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}

// Matches returns true if any query of the list matches m.
func (ml MediaList) Matches(m Medium) bool {
	if len(ml) == 0 {
		return true
	}
	for _, q := range ml {
		if q.Evaluate(m) {
			return true
		}
	}
	return false
}

// Evaluate returns true if this media query matches the given medium.
// Unknown media features never match.
func (mq MediaQuery) Evaluate(m Medium) bool {
	typeMatches := true
	switch mq.Type {
	case "", "all":
	default:
		typeMatches = strings.EqualFold(mq.Type, m.Type)
	}
	if typeMatches {
		// Evaluate all features (AND logic)
		for _, f := range mq.Features {
			if !f.evaluate(m) {
				typeMatches = false
				break
			}
		}
	}
	if mq.Negated {
		return !typeMatches
	}
	return typeMatches
}

func (f MediaFeature) evaluate(m Medium) bool {
	px, hasLength := lengthInPx(f.Value)
	switch f.Name {
	case "width":
		return hasLength && m.Width == px
	case "min-width":
		return hasLength && m.Width >= px
	case "max-width":
		return hasLength && m.Width <= px
	case "height":
		return hasLength && m.Height == px
	case "min-height":
		return hasLength && m.Height >= px
	case "max-height":
		return hasLength && m.Height <= px
	case "orientation":
		portrait := m.Height >= m.Width
		switch {
		case f.Value.IsKeyword("portrait"):
			return portrait
		case f.Value.IsKeyword("landscape"):
			return !portrait
		}
	case "color":
		return strings.EqualFold(m.Type, "screen")
	}
	return false
}

// lengthInPx converts absolute lengths to CSS pixels.
func lengthInPx(v Value) (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Number, v.Number == 0
	case ValueDimension:
		switch v.Unit {
		case "px":
			return v.Number, true
		case "in":
			return v.Number * 96, true
		case "cm":
			return v.Number * 96 / 2.54, true
		case "mm":
			return v.Number * 96 / 25.4, true
		case "pt":
			return v.Number * 96 / 72, true
		case "pc":
			return v.Number * 16, true
		case "em", "rem":
			return v.Number * 16, true
		}
	}
	return 0, false
}

// ParseMediaList parses media query prelude tokens.
func ParseMediaList(tokens []Token) MediaList {
	var ml MediaList
	for _, group := range SplitOn(tokens, TokenComma) {
		group = TrimWhitespace(group)
		if len(group) == 0 {
			continue
		}
		ml = append(ml, parseMediaQuery(group))
	}
	return ml
}

// parseMediaQuery parses "[not|only] type [and (feature)]*" and
// "(feature) [and (feature)]*". Anything it cannot understand becomes a
// feature that never matches, so the query fails closed.
func parseMediaQuery(tokens []Token) MediaQuery {
	mq := MediaQuery{Raw: Serialize(tokens)}
	sig := Significant(tokens)

	i := 0
	if i < len(sig) && sig[i].Is("not") {
		mq.Negated = true
		i++
	} else if i < len(sig) && sig[i].Is("only") {
		mq.Only = true
		i++
	}
	if i < len(sig) && sig[i].Kind == TokenIdent && !sig[i].Is("and") {
		mq.Type = sig[i].Lower()
		i++
	}
	for i < len(sig) {
		t := sig[i]
		switch {
		case t.Is("and"):
			i++
			continue
		case t.Kind == TokenLeftParen:
			end := i + 1
			for end < len(sig) && sig[end].Kind != TokenRightParen {
				end++
			}
			mq.Features = append(mq.Features, parseMediaFeature(sig[i+1:min(end, len(sig))]))
			i = end + 1
			continue
		}
		mq.Features = append(mq.Features, MediaFeature{Name: "unsupported:" + t.String()})
		i++
	}
	return mq
}

func parseMediaFeature(tokens []Token) MediaFeature {
	if len(tokens) == 0 || tokens[0].Kind != TokenIdent {
		return MediaFeature{Name: "unsupported:" + Serialize(tokens)}
	}
	f := MediaFeature{Name: tokens[0].Lower()}
	if len(tokens) >= 3 && tokens[1].Kind == TokenColon {
		f.Value = TokenValue(tokens[2])
	}
	return f
}

// TokenValue converts a single token into a plain value, used where no
// property converter is involved.
func TokenValue(t Token) Value {
	switch t.Kind {
	case TokenIdent:
		return Keyword(t.Data)
	case TokenNumber:
		return Number(t.Number)
	case TokenDimension:
		return Dimension(t.Number, strings.ToLower(t.Unit))
	case TokenPercentage:
		return Percentage(t.Number)
	case TokenString:
		return String(t.Text())
	case TokenURL:
		u, _ := URLValue(t)
		return URL(u)
	case TokenComma:
		return Comma
	case TokenFunction:
		// argument keywords keep the casing they were written with
		args := make([]Value, 0, len(t.Args))
		for _, a := range Significant(t.Args) {
			args = append(args, TokenValue(a))
		}
		return Function(t.Data, args...)
	}
	return Raw([]Token{t})
}
