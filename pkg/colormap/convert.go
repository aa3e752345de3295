package colormap

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/cbarreg/server/pkg/colorspace"
)

// DefaultSegments is the number of colors sampled from segment data when no
// count is given.
const DefaultSegments = 256

// Kind is a colormap construction type.
type Kind string

const (
	Listed          Kind = "ListedColormap"
	LinearSegmented Kind = "LinearSegmentedColormap"
)

// Segment is one anchor of a segmented channel: at position X the channel
// jumps from Y0 (left) to Y1 (right).
type Segment struct {
	X, Y0, Y1 float64
}

// ToNRGBA converts one row of internal color values in space to sRGB.
func ToNRGBA(space colorspace.Space, row []float64) (color.NRGBA, error) {
	codec, err := colorspace.Lookup(space)
	if err != nil {
		return color.NRGBA{}, err
	}
	ext, err := codec.Encode([][]float64{row})
	if err != nil {
		return color.NRGBA{}, err
	}
	v := ext[0]
	alpha := uint8(255)
	var c colorful.Color
	switch space {
	case colorspace.RGB:
		c = colorful.Color{R: v[0] / 255, G: v[1] / 255, B: v[2] / 255}
	case colorspace.RGBA:
		c = colorful.Color{R: v[0] / 255, G: v[1] / 255, B: v[2] / 255}
		alpha = unitToByte(v[3] / 100)
	case colorspace.HSV:
		c = colorful.Hsv(v[0], v[1]/100, v[2]/100)
	case colorspace.LCH:
		c = colorful.Hcl(v[2], v[1]/100, v[0]/100)
	case colorspace.HCL:
		c = colorful.Hcl(v[0], v[1]/100, v[2]/100)
	case colorspace.CIELUV:
		c = colorful.Luv(v[0]/100, v[1]/100, v[2]/100)
	case colorspace.CIELAB:
		c = colorful.Lab(v[0]/100, v[1]/100, v[2]/100)
	case colorspace.CIEXYZ:
		c = colorful.Xyz(v[0]/100, v[1]/100, v[2]/100)
	case colorspace.CMYK:
		k := 1 - row[3]
		c = colorful.Color{R: (1 - row[0]) * k, G: (1 - row[1]) * k, B: (1 - row[2]) * k}
	default:
		return color.NRGBA{}, fmt.Errorf("color space %q has no numeric conversion", space)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func unitToByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// PaletteColors converts a palette in internal units to sRGB colors.
func PaletteColors(space colorspace.Space, p colorspace.Palette) ([]color.NRGBA, error) {
	if space.Symbolic() {
		out := make([]color.NRGBA, len(p.Symbols))
		for i, s := range p.Symbols {
			c, err := colorspace.ParseColor(s)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}
	out := make([]color.NRGBA, len(p.Values))
	for i, row := range p.Values {
		c, err := ToNRGBA(space, row)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// FromPalette builds a colormap from a palette in internal units. n, when
// positive, resamples the result.
func FromPalette(kind Kind, space colorspace.Space, p colorspace.Palette, n int) (Colormap, error) {
	colors, err := PaletteColors(space, p)
	if err != nil {
		return nil, err
	}
	var c Colormap
	switch kind {
	case Listed:
		c, err = NewCategorical(colors)
	case LinearSegmented:
		if len(colors) == 1 {
			colors = append(colors, colors[0])
		}
		c, err = NewLinear(colors)
	default:
		return nil, fmt.Errorf("unknown colormap type %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if n > 0 && n != c.Len() {
		return Resample(c, n)
	}
	return c, nil
}

// FromSegments samples n colors (DefaultSegments when n <= 0) from
// per-channel segment data keyed red, green, blue and optionally alpha.
func FromSegments(segments map[string][]Segment, n int) (Colormap, error) {
	if n <= 0 {
		n = DefaultSegments
	}
	for _, ch := range []string{"red", "green", "blue"} {
		if len(segments[ch]) == 0 {
			return nil, fmt.Errorf("segment data is missing the %q channel", ch)
		}
	}
	colors := make([]color.NRGBA, n)
	for i := range colors {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1)
		}
		alpha := 1.0
		if segs, ok := segments["alpha"]; ok && len(segs) > 0 {
			alpha = segmentValue(segs, x)
		}
		colors[i] = color.NRGBA{
			R: unitToByte(segmentValue(segments["red"], x)),
			G: unitToByte(segmentValue(segments["green"], x)),
			B: unitToByte(segmentValue(segments["blue"], x)),
			A: unitToByte(alpha),
		}
	}
	if n == 1 {
		return NewCategorical(colors)
	}
	return NewLinear(colors)
}

// segmentValue interpolates between the right value of the anchor at or below
// x and the left value of the next anchor.
func segmentValue(segs []Segment, x float64) float64 {
	if x <= segs[0].X {
		return segs[0].Y1
	}
	last := segs[len(segs)-1]
	if x >= last.X {
		return last.Y0
	}
	i := sort.Search(len(segs), func(i int) bool { return segs[i].X > x })
	lo, hi := segs[i-1], segs[i]
	if hi.X == lo.X {
		return hi.Y0
	}
	frac := (x - lo.X) / (hi.X - lo.X)
	return lo.Y1 + frac*(hi.Y0-lo.Y1)
}
