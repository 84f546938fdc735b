package gcpm

import (
	"strconv"
	"strings"

	"pstyle/css"
)

// Counters keeps CSS counters while the document is walked in order. Every
// element level is a frame: counters reset inside a frame are dropped when
// the walk leaves it.
type Counters struct {
	values map[string][]int
	frames [][]string
}

// NewCounters returns counters with a single root frame.
func NewCounters() *Counters {
	return &Counters{values: make(map[string][]int), frames: [][]string{nil}}
}

// Push opens a frame for the children of the current element.
func (c *Counters) Push() {
	c.frames = append(c.frames, nil)
}

// Pop closes the innermost frame.
func (c *Counters) Pop() {
	if len(c.frames) <= 1 {
		return
	}
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	for _, name := range top {
		if stack := c.values[name]; len(stack) > 0 {
			c.values[name] = stack[:len(stack)-1]
		}
	}
}

// Reset creates a counter instance in the current frame. A sibling resetting
// the same counter reuses the instance.
func (c *Counters) Reset(name string, v int) {
	top := len(c.frames) - 1
	for _, n := range c.frames[top] {
		if n == name {
			stack := c.values[name]
			stack[len(stack)-1] = v
			return
		}
	}
	c.frames[top] = append(c.frames[top], name)
	c.values[name] = append(c.values[name], v)
}

// Increment adds by to the innermost instance, creating one when the counter
// was never reset.
func (c *Counters) Increment(name string, by int) {
	stack := c.values[name]
	if len(stack) == 0 {
		c.Reset(name, 0)
		stack = c.values[name]
	}
	stack[len(stack)-1] += by
}

// Value returns the innermost instance, 0 when missing.
func (c *Counters) Value(name string) int {
	if stack := c.values[name]; len(stack) > 0 {
		return stack[len(stack)-1]
	}
	return 0
}

// Values returns all nested instances, outermost first.
func (c *Counters) Values(name string) []int {
	return c.values[name]
}

// Apply handles counter-reset and counter-increment values of one box.
// Resets happen before increments.
func (c *Counters) Apply(reset, increment css.Value) {
	for _, p := range counterPairs(reset, 0) {
		c.Reset(p.name, p.value)
	}
	for _, p := range counterPairs(increment, 1) {
		c.Increment(p.name, p.value)
	}
}

type counterPair struct {
	name  string
	value int
}

// counterPairs reads "name [int] name [int]..." lists, def is used when the
// integer is omitted.
func counterPairs(v css.Value, def int) []counterPair {
	var pairs []counterPair
	for _, item := range flatten(v) {
		switch item.Kind {
		case css.ValueKeyword:
			if item.IsKeyword("none") || item.IsKeyword("initial") || item.IsKeyword("inherit") || item.IsKeyword("unset") {
				continue
			}
			pairs = append(pairs, counterPair{name: item.Keyword, value: def})
		case css.ValueNumber:
			if len(pairs) > 0 {
				pairs[len(pairs)-1].value = int(item.Number)
			}
		}
	}
	return pairs
}

// flatten unwraps nested space separated lists.
func flatten(v css.Value) []css.Value {
	if v.Kind != css.ValueList || v.Separator == "," {
		if v.IsZero() {
			return nil
		}
		return []css.Value{v}
	}
	var out []css.Value
	for _, it := range v.Items {
		out = append(out, flatten(it)...)
	}
	return out
}

// FormatCounter renders a counter value in a list-style-type style.
// Unknown styles fall back to decimal.
func FormatCounter(n int, style string) string {
	switch strings.ToLower(style) {
	case "none":
		return ""
	case "disc":
		return "•"
	case "circle":
		return "◦"
	case "square":
		return "▪"
	case "decimal-leading-zero":
		if n >= 0 && n < 10 {
			return "0" + strconv.Itoa(n)
		}
	case "lower-roman":
		if s, ok := roman(n); ok {
			return strings.ToLower(s)
		}
	case "upper-roman":
		if s, ok := roman(n); ok {
			return s
		}
	case "lower-alpha", "lower-latin":
		if s, ok := alpha(n); ok {
			return strings.ToLower(s)
		}
	case "upper-alpha", "upper-latin":
		if s, ok := alpha(n); ok {
			return s
		}
	}
	return strconv.Itoa(n)
}

func roman(n int) (string, bool) {
	if n <= 0 || n >= 4000 {
		return "", false
	}
	var (
		sb     strings.Builder
		values = []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
		digits = []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	)
	for i, v := range values {
		for n >= v {
			sb.WriteString(digits[i])
			n -= v
		}
	}
	return sb.String(), true
}

// alpha is bijective base 26: 1 is A, 26 is Z, 27 is AA.
func alpha(n int) (string, bool) {
	if n <= 0 {
		return "", false
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b), true
}
