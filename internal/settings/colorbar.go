package settings

import (
	"fmt"
)

// ColorbarLookup returns the raw, unresolved colorbar dictionary registered
// under name.
type ColorbarLookup interface {
	LookupColorbar(name string) (map[string]any, error)
}

// ColorbarLookupFunc adapts a function to ColorbarLookup.
type ColorbarLookupFunc func(name string) (map[string]any, error)

func (f ColorbarLookupFunc) LookupColorbar(name string) (map[string]any, error) { return f(name) }

// ColormapLookup reports whether a named colormap is registered.
type ColormapLookup interface {
	HasColormap(name string) bool
}

// ColormapLookupFunc adapts a function to ColormapLookup.
type ColormapLookupFunc func(name string) bool

func (f ColormapLookupFunc) HasColormap(name string) bool { return f(name) }

// Colorbar is a validated standalone colorbar.
type Colorbar struct {
	Cmap      *CmapSettings
	Norm      Norm
	Cbar      CbarSettings
	Auxiliary map[string]any
}

var colorbarKeys = []string{"cmap", "norm", "cbar", "auxiliary"}

// Validator validates colorbar dictionaries against the registered
// colorbars and colormaps. Either lookup may be nil: without Colorbars every
// reference is invalid; without Colormaps only built-in colormap names
// resolve.
type Validator struct {
	Colorbars ColorbarLookup
	Colormaps ColormapLookup
}

// IsReference reports whether d is a reference colorbar dictionary.
func IsReference(d map[string]any) bool {
	_, ok := d["reference"]
	return ok
}

// ValidateCbarDict validates a colorbar dictionary registered (or about to
// be registered) under name, which may be empty. It returns a copy of d
// with defaults filled in; every input key and value is kept.
//
// Failures of the cmap, norm and cbar sections and of their consistency are
// all reported, aggregated into one *ValidationError of kind
// ErrInvalidConfiguration.
func (v *Validator) ValidateCbarDict(d map[string]any, name string) (map[string]any, error) {
	if d == nil {
		return nil, typeErr("the colorbar dictionary must be a mapping, got nil")
	}
	if len(d) == 0 {
		return nil, &ValidationError{Kind: ErrInvalidConfiguration, Name: name, Problems: []error{
			emptyErr("The colorbar dictionary can not be empty."),
		}}
	}
	if IsReference(d) {
		if err := v.checkReference(d, name); err != nil {
			return nil, &ValidationError{Kind: ErrInvalidConfiguration, Name: name, Problems: []error{err}}
		}
		out := Clone(d)
		if _, ok := out["auxiliary"]; !ok {
			out["auxiliary"] = map[string]any{}
		}
		return out, nil
	}
	cb, err := v.parseStandalone(d, name)
	if err != nil {
		return nil, err
	}
	return mergeDefaults(d, cb), nil
}

// ParseCbarDict validates a standalone colorbar dictionary and returns its
// typed settings. Reference dictionaries are resolved first.
func (v *Validator) ParseCbarDict(d map[string]any, name string) (*Colorbar, error) {
	if d == nil {
		return nil, typeErr("the colorbar dictionary must be a mapping, got nil")
	}
	if IsReference(d) {
		if err := v.checkReference(d, name); err != nil {
			return nil, &ValidationError{Kind: ErrInvalidConfiguration, Name: name, Problems: []error{err}}
		}
		leaf, leafName, err := v.resolve(d, name)
		if err != nil {
			return nil, err
		}
		return v.parseStandalone(leaf, leafName)
	}
	if len(d) == 0 {
		return nil, &ValidationError{Kind: ErrInvalidConfiguration, Name: name, Problems: []error{
			emptyErr("The colorbar dictionary can not be empty."),
		}}
	}
	return v.parseStandalone(d, name)
}

func (v *Validator) parseStandalone(d map[string]any, name string) (*Colorbar, error) {
	var problems []error
	if extra := unknownKeys(d, colorbarKeys...); len(extra) > 0 {
		problems = append(problems, schemaErr("Invalid colorbar parameters %s. Accepted parameters are %s",
			quoteAll(extra), quoteAll(append(colorbarKeys, "reference"))))
	}

	cb := &Colorbar{}
	if raw, ok := d["cmap"]; !ok || raw == nil {
		problems = append(problems, withLabel("Colormap validation error", schemaErr("'cmap' is required")))
	} else if cmap, err := parseCbarCmap(raw, v.Colormaps); err != nil {
		problems = append(problems, withLabel("Colormap validation error", err))
	} else {
		cb.Cmap = cmap
	}

	normMap, err := section(d, "norm")
	if err == nil {
		cb.Norm, err = ParseNorm(normMap)
	}
	if err != nil {
		problems = append(problems, withLabel("Norm validation error", err))
	}

	cbarMap, err := section(d, "cbar")
	if err == nil {
		cb.Cbar, err = ParseCbarSettings(cbarMap)
	}
	if err != nil {
		problems = append(problems, withLabel("Colorbar validation error", err))
	}

	if raw, ok := d["auxiliary"]; ok && raw != nil {
		aux, ok := asMap(raw)
		if !ok {
			problems = append(problems, schemaErr("'auxiliary' must be a mapping, got %T", raw))
		}
		cb.Auxiliary = aux
	}

	if cb.Cmap != nil && cb.Norm != nil {
		if err := checkDiscreteConsistency(cb.Cmap, cb.Norm); err != nil {
			problems = append(problems, withLabel("Categorical Colormap validation error", err))
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Kind: ErrInvalidConfiguration, Name: name, Problems: problems}
	}
	return cb, nil
}

// section returns d[key] as a mapping; absent or null is an empty mapping.
func section(d map[string]any, key string) (map[string]any, error) {
	raw, ok := d[key]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, schemaErr("'%s' must be a mapping, got %T", key, raw)
	}
	return m, nil
}

func checkDiscreteConsistency(cmap *CmapSettings, norm Norm) error {
	want, ok := discreteColors(norm)
	if !ok {
		return nil
	}
	got, ok := cmap.ColorCount()
	if !ok {
		return nil
	}
	if got == want {
		return nil
	}
	switch {
	case cmap.Inline != nil && cmap.Inline.N == nil:
		return consistencyErr("The colormap palette has %d colors but the '%s' requires %d", got, norm.NormName(), want)
	case len(cmap.N) > 1:
		return consistencyErr("The sum of cmap 'n' (%d) must be %d for the '%s'", got, want, norm.NormName())
	}
	return consistencyErr("cmap 'n' (%d) must be %d for the '%s'", got, want, norm.NormName())
}

// mergeDefaults returns a copy of d whose norm and cbar sections carry every
// default, with the values from d taking precedence.
func mergeDefaults(d map[string]any, cb *Colorbar) map[string]any {
	out := Clone(d)
	out["norm"] = overlay(cb.Norm.Dict(), d["norm"])
	out["cbar"] = overlay(cb.Cbar.Dict(), d["cbar"])
	if m, ok := asMap(d["cmap"]); ok {
		cm := Clone(m)
		if _, ok := cm["n"]; !ok {
			cm["n"] = nil
		}
		out["cmap"] = cm
	}
	if _, ok := out["auxiliary"]; !ok || out["auxiliary"] == nil {
		out["auxiliary"] = map[string]any{}
	}
	return out
}

func overlay(defaults map[string]any, given any) map[string]any {
	m, ok := asMap(given)
	if !ok {
		return defaults
	}
	for k, v := range m {
		defaults[k] = cloneValue(v)
	}
	return defaults
}

// checkReference validates the shape of a reference dictionary and walks
// its chain.
func (v *Validator) checkReference(d map[string]any, name string) error {
	if extra := unknownKeys(d, "reference", "auxiliary"); len(extra) > 0 {
		return schemaErr("If 'reference' is specified, no other parameter is accepted (got %s)", quoteAll(extra))
	}
	if aux, ok := d["auxiliary"]; ok && aux != nil {
		if _, ok := asMap(aux); !ok {
			return schemaErr("'auxiliary' must be a mapping, got %T", aux)
		}
	}
	_, _, err := v.resolve(d, name)
	return err
}

// resolve follows the reference chain starting at d until it reaches a
// standalone dictionary, returning it with its registered name.
func (v *Validator) resolve(d map[string]any, name string) (map[string]any, string, error) {
	visited := map[string]bool{}
	if name != "" {
		visited[name] = true
	}
	current := d
	currentName := name
	for IsReference(current) {
		ref, ok := current["reference"].(string)
		if !ok || ref == "" {
			return nil, "", schemaErr("'reference' must be a non-empty string, got %v", current["reference"])
		}
		if visited[ref] {
			return nil, "", fmt.Errorf("%w: Circular reference detected with %s", ErrReference, ref)
		}
		visited[ref] = true
		if v.Colorbars == nil {
			return nil, "", fmt.Errorf("%w: The %s colorbar is not registered. Invalid reference", ErrReference, ref)
		}
		next, err := v.Colorbars.LookupColorbar(ref)
		if err != nil || next == nil {
			return nil, "", fmt.Errorf("%w: The %s colorbar is not registered. Invalid reference", ErrReference, ref)
		}
		current, currentName = next, ref
	}
	if len(current) == 0 {
		return nil, "", fmt.Errorf("%w: The %s colorbar is empty. Invalid reference", ErrReference, currentName)
	}
	return current, currentName, nil
}

// ResolveReference returns a copy of the standalone dictionary that the
// colorbar registered as name resolves to. A standalone colorbar resolves
// to itself.
func (v *Validator) ResolveReference(name string) (map[string]any, error) {
	if v.Colorbars == nil {
		return nil, fmt.Errorf("%w: The %s colorbar is not registered", ErrReference, name)
	}
	d, err := v.Colorbars.LookupColorbar(name)
	if err != nil {
		return nil, err
	}
	leaf, _, err := v.resolve(d, name)
	if err != nil {
		return nil, err
	}
	return Clone(leaf), nil
}

// CheckCbarDict validates d and discards the normalized copy.
func (v *Validator) CheckCbarDict(d map[string]any, name string) error {
	_, err := v.ValidateCbarDict(d, name)
	return err
}
