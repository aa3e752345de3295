package settings

import (
	"errors"

	"github.com/cbarreg/server/pkg/colorspace"
)

// ColormapType is the colormap construction type.
type ColormapType string

const (
	ListedColormap          ColormapType = "ListedColormap"
	LinearSegmentedColormap ColormapType = "LinearSegmentedColormap"
)

var colormapTypes = []ColormapType{ListedColormap, LinearSegmentedColormap}

// DefaultSegmentedColors is the natural length of a segmented colormap.
const DefaultSegmentedColors = 256

// Colormap dictionary keys.
var cmapKeys = []string{"colormap_type", "color_space", "color_palette", "segmentdata", "n", "auxiliary", "reversed", "name"}

// Segment is one anchor (x, y0, y1) of a segmented channel.
type Segment struct {
	X, Y0, Y1 float64
}

// ColormapSpec is a validated colormap dictionary.
type ColormapSpec struct {
	Type  ColormapType
	Space colorspace.Space
	// Palette is set unless Segments is.
	Palette  colorspace.Palette
	Segments map[string][]Segment
	N        *int
	Reversed bool
	// Decoded reports whether Palette holds internal units.
	Decoded   bool
	Auxiliary map[string]any
}

// NaturalLength is the number of colors the colormap has without
// resampling.
func (s *ColormapSpec) NaturalLength() int {
	if s.N != nil {
		return *s.N
	}
	if s.Type == ListedColormap {
		return s.Palette.Len()
	}
	return DefaultSegmentedColors
}

// InternalPalette returns the palette in internal units.
func (s *ColormapSpec) InternalPalette() (colorspace.Palette, error) {
	if s.Decoded {
		return s.Palette.Copy(), nil
	}
	return colorspace.DecodeColors(s.Palette, s.Space)
}

// Dict renders the colormap as a normalized dictionary.
func (s *ColormapSpec) Dict() map[string]any {
	d := map[string]any{
		"colormap_type": string(s.Type),
		"color_space":   string(s.Space),
		"n":             nil,
	}
	if s.N != nil {
		d["n"] = *s.N
	}
	if s.Segments != nil {
		seg := make(map[string]any, len(s.Segments))
		for ch, entries := range s.Segments {
			rows := make([][]float64, len(entries))
			for i, e := range entries {
				rows[i] = []float64{e.X, e.Y0, e.Y1}
			}
			seg[ch] = rows
		}
		d["segmentdata"] = seg
	} else {
		d["color_palette"] = s.Palette.Any()
	}
	if s.Reversed {
		d["reversed"] = true
	}
	if s.Auxiliary != nil {
		d["auxiliary"] = cloneValue(s.Auxiliary)
	}
	return d
}

// ParseCmapDict validates a colormap dictionary. decodedColors tells whether
// the palette holds internal (decoded) values or external ones; the palette
// is range-checked accordingly. Independent field failures are aggregated
// into a *ValidationError of kind ErrInvalidColormap.
func ParseCmapDict(d map[string]any, decodedColors bool) (*ColormapSpec, error) {
	if d == nil {
		return nil, typeErr("the colormap dictionary must be a mapping, got nil")
	}
	if len(d) == 0 {
		return nil, &ValidationError{Kind: ErrInvalidColormap, Problems: []error{
			emptyErr("The colormap dictionary can not be empty."),
		}}
	}
	return parseCmap(d, decodedColors, cmapKeys)
}

func parseCmap(d map[string]any, decodedColors bool, allowed []string) (*ColormapSpec, error) {
	var problems []error
	spec := &ColormapSpec{Decoded: decodedColors}

	if extra := unknownKeys(d, allowed...); len(extra) > 0 {
		problems = append(problems, schemaErr("Invalid colormap parameters %s. Accepted parameters are %s",
			quoteAll(extra), quoteAll(allowed)))
	}

	typeOK := false
	switch v := d["colormap_type"].(type) {
	case string:
		for _, t := range colormapTypes {
			if ColormapType(v) == t {
				spec.Type, typeOK = t, true
			}
		}
		if !typeOK {
			problems = append(problems, schemaErr("Colormap 'type' must be one of %v, got '%s'", colormapTypes, v))
		}
	case nil:
		problems = append(problems, schemaErr("Colormap 'type' must be one of %v; 'colormap_type' is missing", colormapTypes))
	default:
		problems = append(problems, schemaErr("Colormap 'type' must be one of %v, got %v", colormapTypes, v))
	}

	spaceOK := false
	switch v := d["color_space"].(type) {
	case string:
		sp, err := colorspace.ParseSpace(v)
		if err != nil {
			problems = append(problems, schemaErr("Invalid color_space '%s'. Valid options are %v", v, colorspace.Spaces))
		} else {
			spec.Space, spaceOK = sp, true
		}
	case nil:
		problems = append(problems, schemaErr("'color_space' is required. Valid options are %v", colorspace.Spaces))
	default:
		problems = append(problems, schemaErr("Invalid color_space %v. Valid options are %v", v, colorspace.Spaces))
	}

	palette, hasPalette := d["color_palette"]
	hasPalette = hasPalette && palette != nil
	segdata, hasSegments := d["segmentdata"]
	hasSegments = hasSegments && segdata != nil

	switch {
	case hasPalette && hasSegments:
		problems = append(problems, schemaErr("Specify either 'color_palette' or 'segmentdata', not both"))
	case !hasPalette && !hasSegments:
		problems = append(problems, schemaErr("One of 'color_palette' or 'segmentdata' must be provided"))
	case hasSegments:
		if typeOK && spec.Type == ListedColormap {
			problems = append(problems, schemaErr("'segmentdata' requires 'LinearSegmentedColormap', use 'color_palette' for 'ListedColormap'"))
			break
		}
		segs, err := parseSegmentData(segdata)
		if err != nil {
			problems = append(problems, err)
		}
		spec.Segments = segs
	case spaceOK:
		p, err := parsePalette(palette, spec.Space, decodedColors)
		if err != nil {
			problems = append(problems, err)
		} else if p.Len() < 2 {
			problems = append(problems, emptyErr("The 'colors' array must have at least 2 colors."))
		}
		spec.Palette = p
	}

	if v, ok := d["n"]; ok && v != nil {
		n, ok := asInt(v)
		switch {
		case !ok:
			problems = append(problems, schemaErr("'n' must be an integer, got %v", v))
		case n <= 0:
			problems = append(problems, schemaErr("'n' must be a positive integer, got %d", n))
		default:
			spec.N = &n
		}
	}

	if v, ok := d["reversed"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			problems = append(problems, schemaErr("'reversed' must be a boolean, got %v", v))
		}
		spec.Reversed = b
	}
	if v, ok := d["auxiliary"]; ok && v != nil {
		m, ok := asMap(v)
		if !ok {
			problems = append(problems, schemaErr("'auxiliary' must be a mapping, got %T", v))
		}
		spec.Auxiliary = m
	}
	if v, ok := d["name"]; ok && v != nil {
		if _, ok := v.(string); !ok {
			problems = append(problems, schemaErr("'name' must be a string, got %v", v))
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Kind: ErrInvalidColormap, Problems: problems}
	}
	return spec, nil
}

func parsePalette(v any, space colorspace.Space, decodedColors bool) (colorspace.Palette, error) {
	if l, ok := asList(v); ok && len(l) == 0 {
		return colorspace.Palette{}, emptyErr("The 'colors' array must not be empty.")
	}
	p, err := colorspace.ParsePalette(v, space)
	if err != nil {
		if errors.Is(err, colorspace.ErrEmptyArray) {
			return colorspace.Palette{}, emptyErr("The 'colors' array must not be empty.")
		}
		return colorspace.Palette{}, schemaErr("Invalid 'color_palette': %v", err)
	}
	if space.Symbolic() {
		return p, nil
	}
	if decodedColors {
		err = colorspace.CheckValidInternalDataRange(p.Values, space)
	} else {
		err = colorspace.CheckValidExternalDataRange(p.Values, space, false)
	}
	if err != nil {
		return colorspace.Palette{}, err
	}
	return p, nil
}

// segmentChannels lists the required channels followed by the optional alpha.
var segmentChannels = []string{"red", "green", "blue", "alpha"}

func parseSegmentData(v any) (map[string][]Segment, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, schemaErr("'segmentdata' must be a mapping of channel to segments, got %T", v)
	}
	if len(m) == 0 {
		return nil, emptyErr("'segmentdata' must not be empty.")
	}
	if extra := unknownKeys(m, segmentChannels...); len(extra) > 0 {
		return nil, schemaErr("Unknown segmentdata channels %s. Valid channels are %s", quoteAll(extra), quoteAll(segmentChannels))
	}
	for _, ch := range segmentChannels[:3] {
		if _, ok := m[ch]; !ok {
			return nil, schemaErr("segmentdata is missing the '%s' channel", ch)
		}
	}
	out := make(map[string][]Segment, len(m))
	for _, ch := range sortedKeys(m) {
		entries, ok := asList(m[ch])
		if !ok || len(entries) < 2 {
			return nil, schemaErr("segmentdata channel '%s' must be a list of at least 2 entries", ch)
		}
		segs := make([]Segment, len(entries))
		for i, e := range entries {
			xs, ok := asFloatList(e)
			if !ok || len(xs) != 3 {
				return nil, schemaErr("segmentdata channel '%s' entry %d must be a tuple of three floats (x, y0, y1)", ch, i)
			}
			segs[i] = Segment{X: xs[0], Y0: xs[1], Y1: xs[2]}
		}
		for i := 1; i < len(segs); i++ {
			if !(segs[i].X > segs[i-1].X) {
				return nil, consistencyErr("segmentdata channel '%s' x values must be monotonically increasing", ch)
			}
		}
		if segs[0].X != 0 || segs[len(segs)-1].X != 1 {
			return nil, consistencyErr("segmentdata channel '%s' x values must start at 0 and end at 1", ch)
		}
		out[ch] = segs
	}
	return out, nil
}

// ValidateCmapDict validates a colormap dictionary and returns a normalized
// copy: the palette is coerced to []string or [][]float64 and a missing 'n'
// is set to nil. Unrecognized input keys are rejected.
func ValidateCmapDict(d map[string]any, decodedColors bool) (map[string]any, error) {
	spec, err := ParseCmapDict(d, decodedColors)
	if err != nil {
		return nil, err
	}
	out := spec.Dict()
	if name, ok := d["name"].(string); ok {
		out["name"] = name
	}
	return out, nil
}
