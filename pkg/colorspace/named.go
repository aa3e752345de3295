package colorspace

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

var hexPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Single-letter base colors.
var baseColors = map[string]color.NRGBA{
	"b": {0, 0, 255, 255},
	"g": {0, 128, 0, 255},
	"r": {255, 0, 0, 255},
	"c": {0, 191, 191, 255},
	"m": {191, 0, 191, 255},
	"y": {191, 191, 0, 255},
	"k": {0, 0, 0, 255},
	"w": {255, 255, 255, 255},
}

// Tableau palette.
var tableauColors = map[string]string{
	"tab:blue":   "#1f77b4",
	"tab:orange": "#ff7f0e",
	"tab:green":  "#2ca02c",
	"tab:red":    "#d62728",
	"tab:purple": "#9467bd",
	"tab:brown":  "#8c564b",
	"tab:pink":   "#e377c2",
	"tab:gray":   "#7f7f7f",
	"tab:grey":   "#7f7f7f",
	"tab:olive":  "#bcbd22",
	"tab:cyan":   "#17becf",
}

// IsHexColor reports whether s is #rgb, #rgba, #rrggbb or #rrggbbaa.
func IsHexColor(s string) bool {
	return hexPattern.MatchString(s)
}

// IsNamedColor reports whether s is a known color name. Matching is
// case-insensitive.
func IsNamedColor(s string) bool {
	_, ok := lookupName(s)
	return ok
}

func lookupName(s string) (color.NRGBA, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := baseColors[key]; ok {
		return c, true
	}
	if h, ok := tableauColors[key]; ok {
		c, err := parseHex(h)
		return c, err == nil
	}
	c, ok := colornames.Map[key]
	return color.NRGBAModel.Convert(c).(color.NRGBA), ok
}

// ParseColor converts a color name or hex string to non-premultiplied RGBA.
func ParseColor(s string) (color.NRGBA, error) {
	if IsHexColor(s) {
		return parseHex(s)
	}
	if c, ok := lookupName(s); ok {
		return c, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: '%s'", ErrInvalidColor, s)
}

func parseHex(s string) (color.NRGBA, error) {
	if !IsHexColor(s) {
		return color.NRGBA{}, fmt.Errorf("%w: '%s' is not a hex color", ErrInvalidColor, s)
	}
	digits := s[1:]
	alpha := uint8(255)
	switch len(digits) {
	case 4:
		a, err := strconv.ParseUint(strings.Repeat(digits[3:], 2), 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: '%s': %v", ErrInvalidColor, s, err)
		}
		alpha = uint8(a)
		digits = digits[:3]
	case 8:
		a, err := strconv.ParseUint(digits[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: '%s': %v", ErrInvalidColor, s, err)
		}
		alpha = uint8(a)
		digits = digits[:6]
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: '%s': %v", ErrInvalidColor, s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
