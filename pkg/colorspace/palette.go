package colorspace

import (
	"fmt"
	"reflect"
)

// Palette holds the colors of a colormap. Symbolic spaces use Symbols,
// numeric spaces use Values (one row per color).
type Palette struct {
	Symbols []string
	Values  [][]float64
}

// Len returns the number of colors.
func (p Palette) Len() int {
	if p.Symbols != nil {
		return len(p.Symbols)
	}
	return len(p.Values)
}

// Copy returns a deep copy of p.
func (p Palette) Copy() Palette {
	out := Palette{Values: copyRows(p.Values)}
	if p.Symbols != nil {
		out.Symbols = append([]string(nil), p.Symbols...)
	}
	return out
}

// Any returns the palette as a plain value suitable for YAML or JSON output.
func (p Palette) Any() any {
	if p.Symbols != nil {
		return append([]string(nil), p.Symbols...)
	}
	return copyRows(p.Values)
}

// ToFloat converts a decoded YAML or JSON number to float64. Booleans are not
// numbers.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asSlice(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, false
	}
	return rv, true
}

// ParseArray converts a decoded YAML/JSON value into numeric color rows.
// The value must be a non-empty 2-D array of numbers.
func ParseArray(v any) ([][]float64, error) {
	switch rows := v.(type) {
	case [][]float64:
		if len(rows) == 0 {
			return nil, ErrEmptyArray
		}
		return copyRows(rows), nil
	case string:
		return nil, fmt.Errorf("%w: got a string", ErrNotNumeric)
	}
	outer, ok := asSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotNumeric, v)
	}
	if outer.Len() == 0 {
		return nil, ErrEmptyArray
	}
	out := make([][]float64, outer.Len())
	for i := 0; i < outer.Len(); i++ {
		elem := outer.Index(i).Interface()
		if _, isNum := ToFloat(elem); isNum {
			return nil, fmt.Errorf("%w: got a 1-D array", ErrDimension)
		}
		if s, isStr := elem.(string); isStr {
			return nil, fmt.Errorf("%w: got %q", ErrNotNumeric, s)
		}
		inner, ok := asSlice(elem)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrNotNumeric, elem)
		}
		row := make([]float64, inner.Len())
		for j := 0; j < inner.Len(); j++ {
			x := inner.Index(j).Interface()
			f, ok := ToFloat(x)
			if ok {
				row[j] = f
				continue
			}
			if _, nested := asSlice(x); nested {
				return nil, fmt.Errorf("%w: got a 3-D array", ErrDimension)
			}
			return nil, fmt.Errorf("%w: got %v (%T)", ErrNotNumeric, x, x)
		}
		out[i] = row
	}
	return out, nil
}

// ParseSymbols converts a decoded YAML/JSON value into a 1-D list of color
// strings.
func ParseSymbols(v any) ([]string, error) {
	if ss, ok := v.([]string); ok {
		if len(ss) == 0 {
			return nil, ErrEmptyArray
		}
		return append([]string(nil), ss...), nil
	}
	if _, isStr := v.(string); isStr {
		return nil, fmt.Errorf("%w: expected a list of color strings, got a single string", ErrInvalidColor)
	}
	list, ok := asSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of color strings, got %T", ErrInvalidColor, v)
	}
	if list.Len() == 0 {
		return nil, ErrEmptyArray
	}
	out := make([]string, list.Len())
	for i := 0; i < list.Len(); i++ {
		elem := list.Index(i).Interface()
		s, ok := elem.(string)
		if !ok {
			if _, nested := asSlice(elem); nested {
				return nil, fmt.Errorf("%w: color names must be a 1-D list", ErrDimension)
			}
			return nil, fmt.Errorf("%w: expected a color string, got %v (%T)", ErrInvalidColor, elem, elem)
		}
		out[i] = s
	}
	return out, nil
}

// ParsePalette converts a decoded value into a Palette for space, validating
// the shape and, for symbolic spaces, each color string. Numeric ranges are
// not checked.
func ParsePalette(v any, space Space) (Palette, error) {
	if space.Symbolic() {
		syms, err := ParseSymbols(v)
		if err != nil {
			return Palette{}, err
		}
		if err := CheckSymbols(syms, space); err != nil {
			return Palette{}, err
		}
		return Palette{Symbols: syms}, nil
	}
	c, err := Lookup(space)
	if err != nil {
		return Palette{}, err
	}
	rows, err := ParseArray(v)
	if err != nil {
		return Palette{}, err
	}
	if err := c.(*codec).checkShape(rows); err != nil {
		return Palette{}, err
	}
	return Palette{Values: rows}, nil
}

// CheckSymbols validates color strings for the name or hex space.
func CheckSymbols(syms []string, space Space) error {
	for _, s := range syms {
		switch space {
		case Hex:
			if !IsHexColor(s) {
				return fmt.Errorf("%w: '%s' is not a valid hex color", ErrInvalidColor, s)
			}
		default:
			if !IsNamedColor(s) && !IsHexColor(s) {
				return fmt.Errorf("%w: '%s' is not a valid color name", ErrInvalidColor, s)
			}
		}
	}
	return nil
}

// EncodeColors converts a palette from internal to external units. Symbolic
// palettes are returned unchanged.
func EncodeColors(p Palette, space Space) (Palette, error) {
	if space.Symbolic() {
		return p.Copy(), nil
	}
	c, err := Lookup(space)
	if err != nil {
		return Palette{}, err
	}
	rows, err := c.Encode(p.Values)
	if err != nil {
		return Palette{}, err
	}
	return Palette{Values: rows}, nil
}

// DecodeColors converts a palette from external to internal units. Symbolic
// palettes are returned unchanged.
func DecodeColors(p Palette, space Space) (Palette, error) {
	if space.Symbolic() {
		return p.Copy(), nil
	}
	c, err := Lookup(space)
	if err != nil {
		return Palette{}, err
	}
	rows, err := c.Decode(p.Values)
	if err != nil {
		return Palette{}, err
	}
	return Palette{Values: rows}, nil
}

// CheckValidInternalDataRange checks numeric rows against the internal range.
func CheckValidInternalDataRange(rows [][]float64, space Space) error {
	c, err := Lookup(space)
	if err != nil {
		return err
	}
	return c.CheckInternal(rows)
}

// IsWithinInternalDataRange reports whether rows are within the internal range.
func IsWithinInternalDataRange(rows [][]float64, space Space) bool {
	return CheckValidInternalDataRange(rows, space) == nil
}

// CheckValidExternalDataRange checks numeric rows against the external range.
func CheckValidExternalDataRange(rows [][]float64, space Space, strict bool) error {
	c, err := Lookup(space)
	if err != nil {
		return err
	}
	return c.CheckExternal(rows, strict)
}

// IsWithinExternalDataRange reports whether rows are within the external range.
func IsWithinExternalDataRange(rows [][]float64, space Space, strict bool) bool {
	return CheckValidExternalDataRange(rows, space, strict) == nil
}
