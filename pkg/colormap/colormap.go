// Package colormap provides runtime color schemes built from colormap
// settings.
package colormap

import (
	"fmt"
	"image/color"
	"math"
)

// Colormap maps normalized values [0, 1] to colors.
type Colormap interface {
	At(t float64) color.Color
	AtIndex(i int) color.Color
	// Len is the number of stored colors.
	Len() int
}

// LinearColormap is a linear interpolation colormap.
type LinearColormap struct {
	colors []color.NRGBA
}

// NewLinear returns a LinearColormap over colors. At least two colors are
// required.
func NewLinear(colors []color.NRGBA) (LinearColormap, error) {
	if len(colors) < 2 {
		return LinearColormap{}, fmt.Errorf("linear colormap needs at least 2 colors, got %d", len(colors))
	}
	return LinearColormap{colors: append([]color.NRGBA(nil), colors...)}, nil
}

// At returns the color at position t (0-1).
func (c LinearColormap) At(t float64) color.Color {
	if t <= 0 || math.IsNaN(t) {
		return c.colors[0]
	}
	if t >= 1 {
		return c.colors[len(c.colors)-1]
	}

	idx := t * float64(len(c.colors)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(c.colors) {
		upper = len(c.colors) - 1
	}

	frac := idx - float64(lower)
	return interpolate(c.colors[lower], c.colors[upper], frac)
}

// AtIndex returns color at index i (wraps around).
func (c LinearColormap) AtIndex(i int) color.Color {
	return c.colors[wrap(i, len(c.colors))]
}

func (c LinearColormap) Len() int { return len(c.colors) }

// Colors returns a copy of the stored colors.
func (c LinearColormap) Colors() []color.NRGBA {
	return append([]color.NRGBA(nil), c.colors...)
}

func interpolate(c1, c2 color.NRGBA, t float64) color.NRGBA {
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
	}
	return color.NRGBA{
		R: lerp(c1.R, c2.R),
		G: lerp(c1.G, c2.G),
		B: lerp(c1.B, c2.B),
		A: lerp(c1.A, c2.A),
	}
}

// CategoricalColormap provides distinct colors for categories.
type CategoricalColormap struct {
	colors []color.NRGBA
}

// NewCategorical returns a CategoricalColormap over colors.
func NewCategorical(colors []color.NRGBA) (CategoricalColormap, error) {
	if len(colors) == 0 {
		return CategoricalColormap{}, fmt.Errorf("categorical colormap needs at least 1 color")
	}
	return CategoricalColormap{colors: append([]color.NRGBA(nil), colors...)}, nil
}

// At returns color at position t.
func (c CategoricalColormap) At(t float64) color.Color {
	if t <= 0 || math.IsNaN(t) {
		return c.colors[0]
	}
	idx := int(t * float64(len(c.colors)))
	if idx >= len(c.colors) {
		idx = len(c.colors) - 1
	}
	return c.colors[idx]
}

// AtIndex returns color at index.
func (c CategoricalColormap) AtIndex(i int) color.Color {
	return c.colors[wrap(i, len(c.colors))]
}

func (c CategoricalColormap) Len() int { return len(c.colors) }

// Colors returns a copy of the stored colors.
func (c CategoricalColormap) Colors() []color.NRGBA {
	return append([]color.NRGBA(nil), c.colors...)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
