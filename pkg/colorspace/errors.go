package colorspace

import (
	"errors"
	"fmt"
	"strconv"
)

// Common validation errors
var (
	ErrUnknownSpace = errors.New("invalid color_space")
	ErrNotNumeric   = errors.New("color array must contain only numbers")
	ErrDimension    = errors.New("color array must be 2-dimensional")
	ErrChannelCount = errors.New("unexpected number of color channels")
	ErrEmptyArray   = errors.New("color array must not be empty")
	ErrRange        = errors.New("color values out of range")
	ErrSymbolic     = errors.New("symbolic color space has no numeric range")
	ErrInvalidColor = errors.New("invalid color")
)

// RangeError reports a channel whose values fall outside the expected range.
// It matches ErrRange with errors.Is.
type RangeError struct {
	Channel string
	// Which is "internal" or "external".
	Which string
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("Channel '%s' values are not within the %s data range. Expected range (%s, %s).",
		e.Channel, e.Which, formatBound(e.Min), formatBound(e.Max))
}

// Is makes errors.Is(err, ErrRange) true.
func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
