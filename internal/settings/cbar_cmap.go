package settings

import (
	"github.com/cbarreg/server/pkg/colormap"
	"github.com/cbarreg/server/pkg/colorspace"
)

// CmapSettings is the validated 'cmap' section of a colorbar. Exactly one of
// Names and Inline is set.
type CmapSettings struct {
	// Names lists named colormaps; more than one are concatenated.
	Names []string
	// N holds the color count per name, or nil when not given.
	N      []int
	Inline *ColormapSpec

	// Colors for bad, over and under values: a name or hex string, an RGB(A)
	// []float64 in [0, 1], or nil.
	BadColor, OverColor, UnderColor any
	BadAlpha, OverAlpha, UnderAlpha *float64
}

var extremeColorKeys = []string{"bad_color", "over_color", "under_color", "bad_alpha", "over_alpha", "under_alpha"}

// ColorCount returns the number of colors the cmap section defines, and
// false when it is determined by resampling instead.
func (c *CmapSettings) ColorCount() (int, bool) {
	if c.Inline != nil {
		if c.Inline.N != nil {
			return *c.Inline.N, true
		}
		if c.Inline.Type == ListedColormap {
			return c.Inline.Palette.Len(), true
		}
		return 0, false
	}
	if c.N == nil {
		return 0, false
	}
	total := 0
	for _, n := range c.N {
		total += n
	}
	return total, true
}

// knownColormap reports whether name is a registered or built-in colormap.
func knownColormap(name string, lookup ColormapLookup) bool {
	if lookup != nil && lookup.HasColormap(name) {
		return true
	}
	_, ok := colormap.Builtin(name)
	return ok
}

func parseCbarCmap(v any, lookup ColormapLookup) (*CmapSettings, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, schemaErr("'cmap' must be a mapping, got %T", v)
	}
	if len(m) == 0 {
		return nil, emptyErr("'cmap' can not be empty; specify 'name' or an inline colormap")
	}
	var (
		c   *CmapSettings
		err error
	)
	switch {
	case m["name"] != nil:
		c, err = parseNamedCmap(m, lookup)
	case m["colormap_type"] != nil || m["color_palette"] != nil || m["segmentdata"] != nil || m["color_space"] != nil:
		c, err = parseInlineCmap(m)
	default:
		return nil, schemaErr("'cmap' must specify 'name' or an inline colormap ('colormap_type', 'color_space', 'color_palette')")
	}
	if err != nil {
		return nil, err
	}
	if err := parseExtremeColors(m, c); err != nil {
		return nil, err
	}
	return c, nil
}

func parseNamedCmap(m map[string]any, lookup ColormapLookup) (*CmapSettings, error) {
	allowed := append([]string{"name", "n"}, extremeColorKeys...)
	if extra := unknownKeys(m, allowed...); len(extra) > 0 {
		return nil, schemaErr("Invalid cmap parameters %s. Accepted parameters are %s", quoteAll(extra), quoteAll(allowed))
	}
	c := &CmapSettings{}
	switch name := m["name"].(type) {
	case string:
		c.Names = []string{name}
	default:
		names, ok := asStringList(name)
		if !ok || len(names) == 0 {
			return nil, schemaErr("cmap 'name' must be a string or a non-empty list of strings, got %v", name)
		}
		c.Names = names
	}
	for _, name := range c.Names {
		if !knownColormap(name, lookup) {
			return nil, schemaErr("The '%s' colormap is not registered", name)
		}
	}

	nv, ok := m["n"]
	if !ok || nv == nil {
		return c, nil
	}
	if len(c.Names) == 1 {
		n, ok := asInt(nv)
		if !ok || n <= 0 {
			return nil, schemaErr("cmap 'n' must be a positive integer, got %v", nv)
		}
		c.N = []int{n}
		return c, nil
	}
	list, ok := asList(nv)
	if !ok || len(list) != len(c.Names) {
		return nil, schemaErr("If cmap 'name' is a list, 'n' must be a list of %d positive integers, got %v", len(c.Names), nv)
	}
	c.N = make([]int, len(list))
	for i, x := range list {
		n, ok := asInt(x)
		if !ok || n <= 0 {
			return nil, schemaErr("cmap 'n' values must be positive integers, got %v", x)
		}
		c.N[i] = n
	}
	return c, nil
}

func parseInlineCmap(m map[string]any) (*CmapSettings, error) {
	allowed := append([]string{"colormap_type", "color_space", "color_palette", "segmentdata", "n"}, extremeColorKeys...)
	spec, err := parseCmap(m, false, allowed)
	if err != nil {
		return nil, err
	}
	return &CmapSettings{Inline: spec}, nil
}

func parseExtremeColors(m map[string]any, c *CmapSettings) error {
	for _, key := range []string{"bad_color", "over_color", "under_color"} {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		col, err := parseColorValue(key, v)
		if err != nil {
			return err
		}
		switch key {
		case "bad_color":
			c.BadColor = col
		case "over_color":
			c.OverColor = col
		case "under_color":
			c.UnderColor = col
		}
	}
	for _, key := range []string{"bad_alpha", "over_alpha", "under_alpha"} {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		f, ok := asFloat(v)
		if !ok || f < 0 || f > 1 {
			return schemaErr("'%s' must be a number between 0 and 1, got %v", key, v)
		}
		switch key {
		case "bad_alpha":
			c.BadAlpha = &f
		case "over_alpha":
			c.OverAlpha = &f
		case "under_alpha":
			c.UnderAlpha = &f
		}
	}
	return nil
}

// parseColorValue accepts "none", a color name, a hex string or an RGB(A)
// tuple with components in [0, 1].
func parseColorValue(key string, v any) (any, error) {
	if s, ok := v.(string); ok {
		if s == "none" || colorspace.IsNamedColor(s) || colorspace.IsHexColor(s) {
			return s, nil
		}
		return nil, schemaErr("'%s' must be a valid color name or hex string, got %q", key, s)
	}
	fs, ok := asFloatList(v)
	if !ok || (len(fs) != 3 && len(fs) != 4) {
		return nil, schemaErr("'%s' must be a color string or a tuple of three floats (RGB) or four floats (RGBA), got %v", key, v)
	}
	for _, f := range fs {
		if f < 0 || f > 1 {
			return nil, schemaErr("'%s' components must be between 0 and 1, got %v", key, f)
		}
	}
	return fs, nil
}
