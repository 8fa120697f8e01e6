// Package palette generates series colours from a background colour and the
// highlight colours used for the selected column.
package palette

import (
	"image/color"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/lo"
)

var (
	White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black = color.NRGBA{A: 0xff}
)

// Opacities of the background colour in each generated slot. Past eight
// series the spectrum repeats.
var (
	darkOpacities  = [...]float32{.75, .50, .25, .10, .85, .75, .50, .25}
	lightOpacities = [...]float32{.85, .75, .50, .25, .75, .50, .25, .10}
)

// IsDark reports whether c sits in the dark half of the luminance range.
func IsDark(c color.NRGBA) bool {
	base := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	return 1-base/255 > 0.5
}

// Contrast returns white on dark colours and black on light ones.
func Contrast(c color.NRGBA) color.NRGBA {
	if IsDark(c) {
		return White
	}
	return Black
}

// MaterialSpectrum builds n colours by blending bg towards white and black
// at varying opacities.
func MaterialSpectrum(bg color.NRGBA, n int) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	dark := IsDark(bg)
	opacities := lightOpacities
	if dark {
		opacities = darkOpacities
	}
	out := make([]color.NRGBA, n)
	for i := range out {
		op := i % len(opacities)
		mask := Black
		if (dark && op < 4) || (!dark && op >= 4) {
			mask = White
		}
		out[i] = blend(bg, mask, opacities[op])
	}
	return out
}

func blend(c, mask color.NRGBA, alpha float32) color.NRGBA {
	mix := func(a, b uint8) uint8 {
		v := math.Round(float64(a)*float64(alpha)) + math.Round(float64(b)*float64(1-alpha))
		return uint8(max(0, min(v, 255)))
	}
	return color.NRGBA{R: mix(c.R, mask.R), G: mix(c.G, mask.G), B: mix(c.B, mask.B), A: 0xff}
}

// Complementary rotates the hue of c by half a turn.
func Complementary(c color.NRGBA) color.NRGBA {
	h, s, v := toColorful(c).Hsv()
	r, g, b := colorful.Hsv(math.Mod(h+180, 360), s, v).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: c.A}
}

// Highlights returns the complementary colour of every entry.
func Highlights(p []color.NRGBA) []color.NRGBA {
	return lo.Map(p, func(c color.NRGBA, _ int) color.NRGBA {
		return Complementary(c)
	})
}

// Series returns the palette of n series: the user colours first, the
// remaining slots generated from bg.
func Series(bg color.NRGBA, user []color.NRGBA, n int) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.NRGBA, 0, n)
	out = append(out, user[:min(len(user), n)]...)
	return append(out, MaterialSpectrum(bg, n-len(out))...)
}

// Equal compares two palettes.
func Equal(a, b []color.NRGBA) bool {
	return slices.Equal(a, b)
}

// Distinct returns n colours of equal saturation and value with hues spread
// by the golden ratio. HSV keeps every hue inside the RGB gamut.
func Distinct(n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		hue := math.Mod(float64(i)*math.Phi, 1) * 360
		r, g, b := colorful.Hsv(hue, 0.65, 0.85).RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 0xff}
	}
	return out
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
