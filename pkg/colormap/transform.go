package colormap

import (
	"fmt"
	"image/color"
)

// Reversed returns c with its color order flipped.
func Reversed(c Colormap) Colormap {
	switch m := c.(type) {
	case LinearColormap:
		return LinearColormap{colors: reverse(m.colors)}
	case CategoricalColormap:
		return CategoricalColormap{colors: reverse(m.colors)}
	case reversed:
		return m.Colormap
	}
	return reversed{c}
}

type reversed struct {
	Colormap
}

func (r reversed) At(t float64) color.Color { return r.Colormap.At(1 - t) }

func (r reversed) AtIndex(i int) color.Color {
	return r.Colormap.AtIndex(r.Colormap.Len() - 1 - wrap(i, r.Colormap.Len()))
}

func reverse(colors []color.NRGBA) []color.NRGBA {
	out := make([]color.NRGBA, len(colors))
	for i, c := range colors {
		out[len(colors)-1-i] = c
	}
	return out
}

// Resample returns c with n colors. Categorical colormaps repeat or truncate
// their colors; others are sampled evenly.
func Resample(c Colormap, n int) (Colormap, error) {
	if n < 1 {
		return nil, fmt.Errorf("resample: n must be positive, got %d", n)
	}
	if _, ok := c.(CategoricalColormap); ok {
		colors := make([]color.NRGBA, n)
		for i := range colors {
			colors[i] = toNRGBA(c.AtIndex(i))
		}
		return CategoricalColormap{colors: colors}, nil
	}
	colors := sample(c, n)
	if n == 1 {
		return CategoricalColormap{colors: colors}, nil
	}
	return LinearColormap{colors: colors}, nil
}

func sample(c Colormap, n int) []color.NRGBA {
	colors := make([]color.NRGBA, n)
	for i := range colors {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		colors[i] = toNRGBA(c.At(t))
	}
	return colors
}

// Concat joins colormaps end to end, sampling ns[i] colors from cs[i].
func Concat(cs []Colormap, ns []int) (Colormap, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("concat: no colormaps given")
	}
	if len(cs) != len(ns) {
		return nil, fmt.Errorf("concat: %d colormaps but %d color counts", len(cs), len(ns))
	}
	var colors []color.NRGBA
	for i, c := range cs {
		if ns[i] < 1 {
			return nil, fmt.Errorf("concat: color count %d must be positive", ns[i])
		}
		r, err := Resample(c, ns[i])
		if err != nil {
			return nil, err
		}
		for j := 0; j < ns[i]; j++ {
			colors = append(colors, toNRGBA(r.AtIndex(j)))
		}
	}
	if len(colors) < 2 {
		return CategoricalColormap{colors: colors}, nil
	}
	return LinearColormap{colors: colors}, nil
}
