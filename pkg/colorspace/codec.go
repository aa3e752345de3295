package colorspace

import (
	"fmt"
	"strings"
)

// Codec converts color rows of one color space between internal and external
// units and validates them against either range.
type Codec interface {
	Space() Space
	Channels() []Channel
	Encode(rows [][]float64) ([][]float64, error)
	Decode(rows [][]float64) ([][]float64, error)
	CheckInternal(rows [][]float64) error
	IsWithinInternal(rows [][]float64) bool
	CheckExternal(rows [][]float64, strict bool) error
	IsWithinExternal(rows [][]float64, strict bool) bool
}

// Lookup returns the codec for space.
func Lookup(space Space) (Codec, error) {
	if space.Symbolic() {
		return passthrough{space: space}, nil
	}
	chs, ok := channelTable[space]
	if !ok {
		return nil, fmt.Errorf("%w '%s'. Valid options are %v", ErrUnknownSpace, space, Spaces)
	}
	return &codec{space: space, channels: chs}, nil
}

// HueEncode converts a hue in radians to degrees.
func HueEncode(v, internalMin, internalMax, externalMin, externalMax float64) float64 {
	return (v-internalMin)*(externalMax-externalMin)/(internalMax-internalMin) + externalMin
}

// HueDecode converts a hue in degrees to radians.
func HueDecode(v, internalMin, internalMax, externalMin, externalMax float64) float64 {
	return (v-externalMin)*(internalMax-internalMin)/(externalMax-externalMin) + internalMin
}

func linearRescale(v, fromMin, fromMax, toMin, toMax float64) float64 {
	return (v-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

type codec struct {
	space    Space
	channels []Channel
}

func (c *codec) Space() Space { return c.space }

func (c *codec) Channels() []Channel { return ChannelsOf(c.space) }

func (c *codec) channelNames() string {
	names := make([]string, len(c.channels))
	for i, ch := range c.channels {
		names[i] = ch.Name
	}
	return strings.Join(names, ", ")
}

func (c *codec) checkShape(rows [][]float64) error {
	if len(rows) == 0 {
		return ErrEmptyArray
	}
	for i, row := range rows {
		if len(row) != len(c.channels) {
			return fmt.Errorf("%w: %s expects %d channels (%s), row %d has %d",
				ErrChannelCount, strings.ToUpper(string(c.space)), len(c.channels), c.channelNames(), i, len(row))
		}
	}
	return nil
}

func (c *codec) convert(rows [][]float64, encode bool) ([][]float64, error) {
	if err := c.checkShape(rows); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		conv := make([]float64, len(row))
		for j, ch := range c.channels {
			v := row[j]
			switch {
			case ch.Hue && encode:
				conv[j] = HueEncode(v, ch.InternalMin, ch.InternalMax, ch.ExternalMin, ch.ExternalMax)
			case ch.Hue:
				conv[j] = HueDecode(v, ch.InternalMin, ch.InternalMax, ch.ExternalMin, ch.ExternalMax)
			case encode:
				conv[j] = linearRescale(v, ch.InternalMin, ch.InternalMax, ch.ExternalMin, ch.ExternalMax)
			default:
				conv[j] = linearRescale(v, ch.ExternalMin, ch.ExternalMax, ch.InternalMin, ch.InternalMax)
			}
		}
		out[i] = conv
	}
	return out, nil
}

// Encode converts internal rows to external units.
func (c *codec) Encode(rows [][]float64) ([][]float64, error) {
	return c.convert(rows, true)
}

// Decode converts external rows to internal units.
func (c *codec) Decode(rows [][]float64) ([][]float64, error) {
	return c.convert(rows, false)
}

func (c *codec) checkRange(rows [][]float64, external bool) error {
	if err := c.checkShape(rows); err != nil {
		return err
	}
	for j, ch := range c.channels {
		lo, hi, which := ch.InternalMin, ch.InternalMax, "internal"
		if external {
			lo, hi, which = ch.ExternalMin, ch.ExternalMax, "external"
		}
		for _, row := range rows {
			// NaN fails both comparisons.
			if !(row[j] >= lo && row[j] <= hi) {
				return &RangeError{Channel: ch.Name, Which: which, Min: lo, Max: hi}
			}
		}
	}
	return nil
}

func (c *codec) CheckInternal(rows [][]float64) error {
	return c.checkRange(rows, false)
}

func (c *codec) IsWithinInternal(rows [][]float64) bool {
	return c.CheckInternal(rows) == nil
}

// CheckExternal validates rows against the external range. With strict set,
// rows that lie entirely within the internal range are rejected as ambiguous.
func (c *codec) CheckExternal(rows [][]float64, strict bool) error {
	if err := c.checkRange(rows, true); err != nil {
		return err
	}
	if strict && c.IsWithinInternal(rows) {
		return fmt.Errorf("%w: all %s values are within the internal data range; provide colors in external units",
			ErrRange, strings.ToUpper(string(c.space)))
	}
	return nil
}

func (c *codec) IsWithinExternal(rows [][]float64, strict bool) bool {
	return c.CheckExternal(rows, strict) == nil
}

// passthrough serves the name and hex spaces. Conversions return copies and
// numeric range checks always fail.
type passthrough struct {
	space Space
}

func (p passthrough) Space() Space { return p.space }

func (p passthrough) Channels() []Channel { return nil }

func (p passthrough) Encode(rows [][]float64) ([][]float64, error) { return copyRows(rows), nil }

func (p passthrough) Decode(rows [][]float64) ([][]float64, error) { return copyRows(rows), nil }

func (p passthrough) CheckInternal([][]float64) error {
	return fmt.Errorf("%w: %s", ErrSymbolic, p.space)
}

func (p passthrough) IsWithinInternal([][]float64) bool { return false }

func (p passthrough) CheckExternal([][]float64, bool) error {
	return fmt.Errorf("%w: %s", ErrSymbolic, p.space)
}

func (p passthrough) IsWithinExternal([][]float64, bool) bool { return false }

func copyRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
