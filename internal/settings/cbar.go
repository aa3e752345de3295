package settings

// CbarSettings are the colorbar display options.
type CbarSettings struct {
	Extend string
	// ExtendFrac is "auto", a float64 or a []float64 of length 2.
	ExtendFrac any
	ExtendRect bool
	Label      *string
}

var cbarKeys = []string{"extend", "extendfrac", "extendrect", "label"}

// Dict returns the settings including defaults.
func (c CbarSettings) Dict() map[string]any {
	d := map[string]any{
		"extend":     c.Extend,
		"extendfrac": cloneValue(c.ExtendFrac),
		"extendrect": c.ExtendRect,
		"label":      nil,
	}
	if c.Label != nil {
		d["label"] = *c.Label
	}
	return d
}

// ParseCbarSettings validates colorbar display options. Validation stops at
// the first failure.
func ParseCbarSettings(m map[string]any) (CbarSettings, error) {
	c := CbarSettings{Extend: "neither", ExtendFrac: "auto"}
	if extra := unknownKeys(m, cbarKeys...); len(extra) > 0 {
		return c, schemaErr("Invalid colorbar parameters %s. Accepted parameters are %s", quoteAll(extra), quoteAll(cbarKeys))
	}
	if v, ok := m["extend"]; ok && v != nil {
		s, ok := v.(string)
		if !ok || !validExtend(s) {
			return c, schemaErr("'extend' must be one of %v, got %v", extendOptions, v)
		}
		c.Extend = s
	}
	if v, ok := m["extendfrac"]; ok && v != nil {
		frac, err := parseExtendFrac(v)
		if err != nil {
			return c, err
		}
		c.ExtendFrac = frac
	}
	if v, ok := m["extendrect"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return c, schemaErr("'extendrect' must be a boolean, got %v", v)
		}
		c.ExtendRect = b
	}
	if v, ok := m["label"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return c, schemaErr("'label' must be a string, got %v", v)
		}
		c.Label = &s
	}
	return c, nil
}

func parseExtendFrac(v any) (any, error) {
	inUnit := func(f float64) bool { return f >= 0 && f <= 1 }
	if s, ok := v.(string); ok {
		if s != "auto" {
			return nil, schemaErr("'extendfrac' must be 'auto', a number or a list of two numbers, got %q", s)
		}
		return s, nil
	}
	if f, ok := asFloat(v); ok {
		if !inUnit(f) {
			return nil, schemaErr("'extendfrac' must be between 0 and 1, got %v", f)
		}
		return f, nil
	}
	fs, ok := asFloatList(v)
	if !ok || len(fs) != 2 {
		return nil, schemaErr("'extendfrac' must be 'auto', a number or a list of two numbers, got %v", v)
	}
	for _, f := range fs {
		if !inUnit(f) {
			return nil, schemaErr("'extendfrac' values must be between 0 and 1, got %v", f)
		}
	}
	return fs, nil
}

// CheckCbarSettings validates colorbar display options.
func CheckCbarSettings(m map[string]any) error {
	_, err := ParseCbarSettings(m)
	return err
}
