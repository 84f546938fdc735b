package props_test

import (
	"errors"
	"testing"

	"pstyle/css"
	"pstyle/css/props"
)

func TestExpand_AnimationSlots(t *testing.T) {
	r := props.NewRegistry(nil)
	sh, ok := r.Shorthand("animation")
	if !ok {
		t.Fatal("animation shorthand not registered")
	}

	tests := []struct {
		name  string
		value string
		want  map[string]string
	}{
		{
			name:  "duration before delay",
			value: "2s ease-in 1s infinite alternate fade",
			want: map[string]string{
				"animation-duration":        "2s",
				"animation-timing-function": "ease-in",
				"animation-delay":           "1s",
				"animation-iteration-count": "infinite",
				"animation-direction":       "alternate",
				"animation-name":            "fade",
				"animation-fill-mode":       "none",
				"animation-play-state":      "running",
			},
		},
		{
			name:  "loose order",
			value: "fade alternate 2s infinite 1s ease-in",
			want: map[string]string{
				"animation-duration":        "2s",
				"animation-timing-function": "ease-in",
				"animation-delay":           "1s",
				"animation-name":            "fade",
			},
		},
		{
			name:  "defaults",
			value: "spin",
			want: map[string]string{
				"animation-name":     "spin",
				"animation-duration": "0s",
				"animation-delay":    "0s",
			},
		},
		{
			name:  "timing function",
			value: "1s cubic-bezier(0.1, 0.7, 1, 0.1) slide",
			want: map[string]string{
				"animation-timing-function": "cubic-bezier(0.1, 0.7, 1, 0.1)",
				"animation-name":            "slide",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sh.Expand(css.Tokenize(tt.value))
			if err != nil {
				t.Fatalf("Expand(%q) error: %v", tt.value, err)
			}
			for longhand, want := range tt.want {
				vals := got[longhand]
				if len(vals) != 1 {
					t.Fatalf("%s: expected 1 value, got %d", longhand, len(vals))
				}
				if vals[0].String() != want {
					t.Errorf("%s = %q, want %q", longhand, vals[0].String(), want)
				}
			}
		})
	}
}

func TestExpand_FragmentsAligned(t *testing.T) {
	r := props.NewRegistry(nil)
	sh, _ := r.Shorthand("transition")

	got, err := sh.Expand(css.Tokenize("opacity 1s, transform 2s ease-out 0.5s"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}

	wantProps := []string{"opacity", "transform"}
	wantDelay := []string{"0s", "0.5s"}
	wantTiming := []string{"ease", "ease-out"}
	for i := range 2 {
		if s := got["transition-property"][i].String(); s != wantProps[i] {
			t.Errorf("fragment %d property = %q, want %q", i, s, wantProps[i])
		}
		if s := got["transition-delay"][i].String(); s != wantDelay[i] {
			t.Errorf("fragment %d delay = %q, want %q", i, s, wantDelay[i])
		}
		if s := got["transition-timing-function"][i].String(); s != wantTiming[i] {
			t.Errorf("fragment %d timing = %q, want %q", i, s, wantTiming[i])
		}
	}
}

func TestExpand_Errors(t *testing.T) {
	r := props.NewRegistry(nil)

	tests := []struct {
		shorthand string
		value     string
		want      error
	}{
		{"animation", "2s 1s 3s fade", props.ErrNoConverter},
		{"animation", "fade, ", props.ErrFragmentCount},
		{"animation", "fade 12px", props.ErrNoConverter},
		{"border", "1px solid red, 2px", props.ErrFragmentCount},
		{"margin", "1px 2px 3px 4px 5px", props.ErrFragmentCount},
		{"padding", "-1px", props.ErrNoConverter},
	}

	for _, tt := range tests {
		t.Run(tt.shorthand+": "+tt.value, func(t *testing.T) {
			sh, ok := r.Shorthand(tt.shorthand)
			if !ok {
				t.Fatalf("shorthand %s not registered", tt.shorthand)
			}
			_, err := sh.Expand(css.Tokenize(tt.value))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestExpand_Sides(t *testing.T) {
	r := props.NewRegistry(nil)
	sh, _ := r.Shorthand("margin")

	tests := []struct {
		value                    string
		top, right, bottom, left string
	}{
		{"1em", "1em", "1em", "1em", "1em"},
		{"1em 2px", "1em", "2px", "1em", "2px"},
		{"1em auto 0", "1em", "auto", "0", "auto"},
		{"1px 2px 3px 4px", "1px", "2px", "3px", "4px"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := sh.Expand(css.Tokenize(tt.value))
			if err != nil {
				t.Fatalf("Expand error: %v", err)
			}
			for name, want := range map[string]string{
				"margin-top": tt.top, "margin-right": tt.right,
				"margin-bottom": tt.bottom, "margin-left": tt.left,
			} {
				if s := got[name][0].String(); s != want {
					t.Errorf("%s = %q, want %q", name, s, want)
				}
			}
		})
	}
}

func TestExpand_BorderFanOut(t *testing.T) {
	r := props.NewRegistry(nil)
	sh, _ := r.Shorthand("border")

	got, err := sh.Expand(css.Tokenize("solid 2px #00f"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	for _, side := range []string{"top", "right", "bottom", "left"} {
		if s := got["border-"+side+"-width"][0].String(); s != "2px" {
			t.Errorf("border-%s-width = %q", side, s)
		}
		if s := got["border-"+side+"-style"][0].String(); s != "solid" {
			t.Errorf("border-%s-style = %q", side, s)
		}
		if s := got["border-"+side+"-color"][0].String(); s != "rgb(0, 0, 255)" {
			t.Errorf("border-%s-color = %q", side, s)
		}
	}
	if len(sh.Longhands()) != 12 {
		t.Errorf("expected 12 longhands, got %d", len(sh.Longhands()))
	}
}
