package props

import (
	"errors"
	"fmt"

	"pstyle/css"
)

var (
	// ErrNoConverter is returned when a shorthand fragment contains a token
	// which none of the remaining slots accepts.
	ErrNoConverter = errors.New("no converter accepts value")
	// ErrFragmentCount is returned for comma separated values of a shorthand
	// which does not allow lists, or for empty list fragments.
	ErrFragmentCount = errors.New("bad number of value fragments")
)

// Slot binds a converter to the longhand it produces. Several slots may share
// the same lexical shape (two time values in animation); which one gets a
// value is decided by slot order alone.
type Slot struct {
	Longhand  string
	Converter Converter
	Initial   css.Value
}

// Expand distributes the value tokens of a shorthand over slots. Tokens are
// split on top level commas into fragments. Within a fragment every token run
// goes to the first not yet used slot whose converter accepts it, slots left
// without a value get their initial value. The result maps each longhand to
// its per-fragment values, aligned by fragment index.
func Expand(tokens []css.Token, slots []Slot) (map[string][]css.Value, error) {
	fragments := css.SplitOn(tokens, css.TokenComma)
	result := make(map[string][]css.Value, len(slots))

	for fi, fragment := range fragments {
		sig := css.Significant(fragment)
		if len(sig) == 0 {
			return nil, fmt.Errorf("%w: fragment %d is empty", ErrFragmentCount, fi+1)
		}

		values := make([]css.Value, len(slots))
		used := make([]bool, len(slots))
		for pos := 0; pos < len(sig); {
			matched := false
			for i, s := range slots {
				if used[i] {
					continue
				}
				v, n, ok := s.Converter.Consume(sig[pos:])
				if !ok || n == 0 {
					continue
				}
				values[i], used[i] = v, true
				pos += n
				matched = true
				break
			}
			if !matched {
				return nil, fmt.Errorf("%w: '%s'", ErrNoConverter, sig[pos].String())
			}
		}

		for i, s := range slots {
			if !used[i] {
				values[i] = s.Initial
			}
			result[s.Longhand] = append(result[s.Longhand], values[i])
		}
	}
	return result, nil
}

// Shorthand describes how a shorthand property expands.
type Shorthand struct {
	Name string
	// Slots for the generic engine, in tie-break order.
	Slots []Slot
	// List allows comma separated fragments (animation, transition).
	List bool
	// Sides, when set, makes this a box shorthand taking one to four values
	// for top, right, bottom and left. It is a name pattern with a single %s.
	Sides     string
	Converter Converter
	// FanOut maps a slot longhand onto several real longhands (border).
	FanOut map[string][]string
}

var sides = [4]string{"top", "right", "bottom", "left"}

// Longhands returns expanded property names in declaration order.
func (sh Shorthand) Longhands() []string {
	if sh.Sides != "" {
		names := make([]string, 0, len(sides))
		for _, side := range sides {
			names = append(names, fmt.Sprintf(sh.Sides, side))
		}
		return names
	}
	var names []string
	for _, s := range sh.Slots {
		if fan, ok := sh.FanOut[s.Longhand]; ok {
			names = append(names, fan...)
			continue
		}
		names = append(names, s.Longhand)
	}
	return names
}

// Expand converts shorthand value tokens into per-longhand value lists.
func (sh Shorthand) Expand(tokens []css.Token) (map[string][]css.Value, error) {
	if sh.Sides != "" {
		return sh.expandSides(tokens)
	}
	if !sh.List && len(css.SplitOn(tokens, css.TokenComma)) > 1 {
		return nil, fmt.Errorf("%w: %s does not accept a list", ErrFragmentCount, sh.Name)
	}
	m, err := Expand(tokens, sh.Slots)
	if err != nil {
		return nil, err
	}
	for from, to := range sh.FanOut {
		vals, ok := m[from]
		if !ok {
			continue
		}
		delete(m, from)
		for _, name := range to {
			m[name] = vals
		}
	}
	return m, nil
}

// expandSides handles the 1 to 4 value box notation: a single value applies
// to every side, two give vertical and horizontal, three give top,
// horizontal and bottom.
func (sh Shorthand) expandSides(tokens []css.Token) (map[string][]css.Value, error) {
	sig := css.Significant(tokens)
	var vals []css.Value
	for pos := 0; pos < len(sig); {
		v, n, ok := sh.Converter.Consume(sig[pos:])
		if !ok || n == 0 {
			return nil, fmt.Errorf("%w: '%s'", ErrNoConverter, sig[pos].String())
		}
		vals = append(vals, v)
		pos += n
	}
	var top, right, bottom, left css.Value
	switch len(vals) {
	case 1:
		top, right, bottom, left = vals[0], vals[0], vals[0], vals[0]
	case 2:
		top, right, bottom, left = vals[0], vals[1], vals[0], vals[1]
	case 3:
		top, right, bottom, left = vals[0], vals[1], vals[2], vals[1]
	case 4:
		top, right, bottom, left = vals[0], vals[1], vals[2], vals[3]
	default:
		return nil, fmt.Errorf("%w: %s takes 1 to 4 values, got %d", ErrFragmentCount, sh.Name, len(vals))
	}
	m := make(map[string][]css.Value, 4)
	for i, v := range []css.Value{top, right, bottom, left} {
		m[fmt.Sprintf(sh.Sides, sides[i])] = []css.Value{v}
	}
	return m, nil
}
