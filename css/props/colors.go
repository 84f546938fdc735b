package props

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"pstyle/css"
)

// Color accepts named colors, hex notation, rgb[a]() and hsl[a]().
// "currentcolor" is kept as a keyword, everything else resolves to RGBA.
var Color = single(func(t css.Token) (css.Value, bool) {
	switch t.Kind {
	case css.TokenIdent:
		name := t.Lower()
		switch name {
		case "transparent":
			return css.Color(color.RGBA{}), true
		case "currentcolor":
			return css.Keyword(name), true
		case "rebeccapurple":
			return css.Color(color.RGBA{R: 0x66, G: 0x33, B: 0x99, A: 0xff}), true
		}
		if c, ok := colornames.Map[name]; ok {
			return css.Color(c), true
		}
	case css.TokenHash:
		if c, ok := parseHex(strings.TrimPrefix(t.Data, "#")); ok {
			return css.Color(c), true
		}
	case css.TokenFunction:
		switch strings.ToLower(t.Data) {
		case "rgb", "rgba":
			if c, ok := parseRGB(t.Args); ok {
				return css.Color(c), true
			}
		case "hsl", "hsla":
			if c, ok := parseHSL(t.Args); ok {
				return css.Color(c), true
			}
		}
	}
	return css.Value{}, false
})

func parseHex(s string) (color.RGBA, bool) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	nib := func(shift uint) uint8 { return uint8((v>>shift)&0xf) * 0x11 }
	byt := func(shift uint) uint8 { return uint8(v >> shift) }
	switch len(s) {
	case 3:
		return color.RGBA{R: nib(8), G: nib(4), B: nib(0), A: 0xff}, true
	case 4:
		return color.RGBA{R: nib(12), G: nib(8), B: nib(4), A: nib(0)}, true
	case 6:
		return color.RGBA{R: byt(16), G: byt(8), B: byt(0), A: 0xff}, true
	case 8:
		return color.RGBA{R: byt(24), G: byt(16), B: byt(8), A: byt(0)}, true
	}
	return color.RGBA{}, false
}

// colorArgs returns numeric arguments of a color function accepting both the
// comma and the space/slash syntax.
func colorArgs(args []css.Token) ([]css.Token, bool) {
	var out []css.Token
	for _, a := range css.Significant(args) {
		switch {
		case a.Kind == css.TokenComma, a.IsDelim('/'):
		case a.Kind == css.TokenNumber, a.Kind == css.TokenPercentage, a.Kind == css.TokenDimension:
			out = append(out, a)
		default:
			return nil, false
		}
	}
	return out, len(out) == 3 || len(out) == 4
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

func channel(t css.Token) (uint8, bool) {
	switch t.Kind {
	case css.TokenNumber:
		return uint8(math.Round(clamp(t.Number, 0, 255))), true
	case css.TokenPercentage:
		return uint8(math.Round(clamp(t.Number, 0, 100) * 2.55)), true
	}
	return 0, false
}

func alpha(args []css.Token) (uint8, bool) {
	if len(args) < 4 {
		return 0xff, true
	}
	switch a := args[3]; a.Kind {
	case css.TokenNumber:
		return uint8(math.Round(clamp(a.Number, 0, 1) * 255)), true
	case css.TokenPercentage:
		return uint8(math.Round(clamp(a.Number, 0, 100) * 2.55)), true
	}
	return 0, false
}

func parseRGB(tokens []css.Token) (color.RGBA, bool) {
	args, ok := colorArgs(tokens)
	if !ok {
		return color.RGBA{}, false
	}
	var c color.RGBA
	for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
		v, ok := channel(args[i])
		if !ok {
			return color.RGBA{}, false
		}
		*dst = v
	}
	if c.A, ok = alpha(args); !ok {
		return color.RGBA{}, false
	}
	return c, true
}

func parseHSL(tokens []css.Token) (color.RGBA, bool) {
	args, ok := colorArgs(tokens)
	if !ok || args[1].Kind != css.TokenPercentage || args[2].Kind != css.TokenPercentage {
		return color.RGBA{}, false
	}
	var h float64
	switch a := args[0]; {
	case a.Kind == css.TokenNumber:
		h = a.Number
	case a.Kind == css.TokenDimension && strings.EqualFold(a.Unit, "deg"):
		h = a.Number
	case a.Kind == css.TokenDimension && strings.EqualFold(a.Unit, "turn"):
		h = a.Number * 360
	case a.Kind == css.TokenDimension && strings.EqualFold(a.Unit, "rad"):
		h = a.Number * 180 / math.Pi
	default:
		return color.RGBA{}, false
	}
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	s := clamp(args[1].Number, 0, 100) / 100
	l := clamp(args[2].Number, 0, 100) / 100

	var m2 float64
	if l <= 0.5 {
		m2 = l * (s + 1)
	} else {
		m2 = l + s - l*s
	}
	m1 := l*2 - m2
	conv := func(f float64) uint8 { return uint8(math.Round(clamp(f, 0, 1) * 255)) }
	c := color.RGBA{
		R: conv(hueToRGB(m1, m2, h+1.0/3)),
		G: conv(hueToRGB(m1, m2, h)),
		B: conv(hueToRGB(m1, m2, h-1.0/3)),
	}
	if c.A, ok = alpha(args); !ok {
		return color.RGBA{}, false
	}
	return c, true
}

func hueToRGB(m1, m2, h float64) float64 {
	if h < 0 {
		h++
	}
	if h > 1 {
		h--
	}
	switch {
	case h*6 < 1:
		return m1 + (m2-m1)*h*6
	case h*2 < 1:
		return m2
	case h*3 < 2:
		return m1 + (m2-m1)*(2.0/3-h)*6
	}
	return m1
}
