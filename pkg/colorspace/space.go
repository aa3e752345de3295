// Package colorspace converts color arrays between the external units used in
// configuration files (e.g. RGB 0-255, hue in degrees) and the internal units
// used to build colormaps (e.g. 0-1, hue in radians).
package colorspace

import (
	"fmt"
	"math"
	"strings"
)

// Space identifies a color space.
type Space string

const (
	RGB    Space = "rgb"
	RGBA   Space = "rgba"
	HSV    Space = "hsv"
	LCH    Space = "lch"
	HCL    Space = "hcl"
	CIELUV Space = "cieluv"
	CIELAB Space = "cielab"
	CIEXYZ Space = "ciexyz"
	CMYK   Space = "cmyk"
	Name   Space = "name"
	Hex    Space = "hex"
)

// Spaces lists every recognized color space.
var Spaces = []Space{RGB, RGBA, HSV, LCH, HCL, CIELUV, CIELAB, CIEXYZ, CMYK, Name, Hex}

// ParseSpace returns the Space named by s. Matching is case-insensitive.
func ParseSpace(s string) (Space, error) {
	want := Space(strings.ToLower(strings.TrimSpace(s)))
	for _, sp := range Spaces {
		if sp == want {
			return sp, nil
		}
	}
	return "", fmt.Errorf("%w '%s'. Valid options are %v", ErrUnknownSpace, s, Spaces)
}

// Symbolic reports whether colors in the space are strings rather than numbers.
func (s Space) Symbolic() bool {
	return s == Name || s == Hex
}

// Channel describes one numeric channel of a color space.
type Channel struct {
	Name        string
	InternalMin float64
	InternalMax float64
	ExternalMin float64
	ExternalMax float64
	// Hue channels are circular and stored in radians internally.
	Hue bool
}

func unit(name string, externalMax float64) Channel {
	return Channel{Name: name, InternalMin: 0, InternalMax: 1, ExternalMin: 0, ExternalMax: externalMax}
}

func signed(name string, externalMin, externalMax float64) Channel {
	return Channel{Name: name, InternalMin: -1, InternalMax: 1, ExternalMin: externalMin, ExternalMax: externalMax}
}

func hue(name string) Channel {
	return Channel{Name: name, InternalMin: 0, InternalMax: 2 * math.Pi, ExternalMin: 0, ExternalMax: 360, Hue: true}
}

// channelTable is static configuration: per space, the channel ranges.
var channelTable = map[Space][]Channel{
	RGB:    {unit("R", 255), unit("G", 255), unit("B", 255)},
	RGBA:   {unit("R", 255), unit("G", 255), unit("B", 255), unit("A", 100)},
	HSV:    {hue("H"), unit("S", 100), unit("V", 100)},
	LCH:    {unit("L", 100), unit("C", 200), hue("H")},
	HCL:    {hue("H"), unit("C", 200), unit("L", 100)},
	CIELUV: {unit("L", 100), signed("U", -100, 100), signed("V", -100, 100)},
	CIELAB: {unit("L", 100), signed("A", -128, 127), signed("B", -128, 127)},
	CIEXYZ: {unit("X", 100), unit("Y", 100), unit("Z", 100)},
	CMYK:   {unit("C", 100), unit("M", 100), unit("Y", 100), unit("K", 100)},
}

// ChannelsOf returns a copy of the channel table entry for s, or nil for
// symbolic spaces.
func ChannelsOf(s Space) []Channel {
	chs := channelTable[s]
	if chs == nil {
		return nil
	}
	out := make([]Channel, len(chs))
	copy(out, chs)
	return out
}
