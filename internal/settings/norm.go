package settings

import (
	"sort"
	"strconv"
)

// Norm is a validated normalization setting with defaults applied.
type Norm interface {
	// NormName is the variant name as written in the "name" key.
	NormName() string
	// Dict returns the settings as a dictionary including defaults.
	Dict() map[string]any
}

// Range holds the optional data limits shared by most norms.
type Range struct {
	VMin *float64
	VMax *float64
}

func (r Range) put(d map[string]any) {
	d["vmin"] = floatOrNil(r.VMin)
	d["vmax"] = floatOrNil(r.VMax)
}

// LinearNorm is Norm (and NoNorm when NoNorm is set).
type LinearNorm struct {
	Range
	Clip   bool
	NoNorm bool
}

func (n LinearNorm) NormName() string {
	if n.NoNorm {
		return "NoNorm"
	}
	return "Norm"
}

func (n LinearNorm) Dict() map[string]any {
	d := map[string]any{"name": n.NormName(), "clip": n.Clip}
	n.put(d)
	return d
}

type BoundaryNorm struct {
	Boundaries []float64
	NColors    int
	Clip       bool
	Extend     string
}

func (BoundaryNorm) NormName() string { return "BoundaryNorm" }

func (n BoundaryNorm) Dict() map[string]any {
	return map[string]any{
		"name":       n.NormName(),
		"boundaries": append([]float64(nil), n.Boundaries...),
		"ncolors":    n.NColors,
		"clip":       n.Clip,
		"extend":     n.Extend,
	}
}

// Category is one integer class with its label.
type Category struct {
	Value int
	Label string
}

// CategoryNorm maps integer values to labelled classes, sorted by value.
type CategoryNorm struct {
	Categories []Category
}

func (CategoryNorm) NormName() string { return "CategoryNorm" }

func (n CategoryNorm) Dict() map[string]any {
	cats := make(map[int]string, len(n.Categories))
	for _, c := range n.Categories {
		cats[c.Value] = c.Label
	}
	return map[string]any{"name": n.NormName(), "categories": cats}
}

// Boundaries returns the class edges: every category value plus one past the
// last.
func (n CategoryNorm) Boundaries() []float64 {
	b := make([]float64, 0, len(n.Categories)+1)
	for _, c := range n.Categories {
		b = append(b, float64(c.Value))
	}
	return append(b, float64(n.Categories[len(n.Categories)-1].Value+1))
}

// CategorizeNorm bins continuous values into labelled intervals.
type CategorizeNorm struct {
	Boundaries []float64
	Labels     []string
}

func (CategorizeNorm) NormName() string { return "CategorizeNorm" }

func (n CategorizeNorm) Dict() map[string]any {
	return map[string]any{
		"name":       n.NormName(),
		"boundaries": append([]float64(nil), n.Boundaries...),
		"labels":     append([]string(nil), n.Labels...),
	}
}

type TwoSlopeNorm struct {
	Range
	VCenter float64
}

func (TwoSlopeNorm) NormName() string { return "TwoSlopeNorm" }

func (n TwoSlopeNorm) Dict() map[string]any {
	d := map[string]any{"name": n.NormName(), "vcenter": n.VCenter}
	n.put(d)
	return d
}

type CenteredNorm struct {
	VCenter   float64
	HalfRange *float64
	Clip      bool
}

func (CenteredNorm) NormName() string { return "CenteredNorm" }

func (n CenteredNorm) Dict() map[string]any {
	return map[string]any{
		"name":      n.NormName(),
		"vcenter":   n.VCenter,
		"halfrange": floatOrNil(n.HalfRange),
		"clip":      n.Clip,
	}
}

type LogNorm struct {
	Range
	Clip bool
}

func (LogNorm) NormName() string { return "LogNorm" }

func (n LogNorm) Dict() map[string]any {
	d := map[string]any{"name": n.NormName(), "clip": n.Clip}
	n.put(d)
	return d
}

type SymLogNorm struct {
	Range
	LinThresh float64
	LinScale  float64
	Base      float64
	Clip      bool
}

func (SymLogNorm) NormName() string { return "SymLogNorm" }

func (n SymLogNorm) Dict() map[string]any {
	d := map[string]any{
		"name":      n.NormName(),
		"linthresh": n.LinThresh,
		"linscale":  n.LinScale,
		"base":      n.Base,
		"clip":      n.Clip,
	}
	n.put(d)
	return d
}

type PowerNorm struct {
	Range
	Gamma float64
	Clip  bool
}

func (PowerNorm) NormName() string { return "PowerNorm" }

func (n PowerNorm) Dict() map[string]any {
	d := map[string]any{"name": n.NormName(), "gamma": n.Gamma, "clip": n.Clip}
	n.put(d)
	return d
}

type AsinhNorm struct {
	Range
	LinearWidth *float64
	Clip        bool
}

func (AsinhNorm) NormName() string { return "AsinhNorm" }

func (n AsinhNorm) Dict() map[string]any {
	d := map[string]any{"name": n.NormName(), "linear_width": floatOrNil(n.LinearWidth), "clip": n.Clip}
	n.put(d)
	return d
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// Extend values shared by BoundaryNorm and the colorbar settings.
var extendOptions = []string{"neither", "both", "min", "max"}

func validExtend(s string) bool {
	for _, e := range extendOptions {
		if s == e {
			return true
		}
	}
	return false
}

// expectedBoundaryColors is the number of colors a BoundaryNorm needs for
// the given extend mode.
func expectedBoundaryColors(nBoundaries int, extend string) int {
	switch extend {
	case "both":
		return nBoundaries + 1
	case "min", "max":
		return nBoundaries
	default:
		return nBoundaries - 1
	}
}

// normFields reads typed values out of a norm dictionary. A nil value counts
// as absent.
type normFields struct {
	norm string
	m    map[string]any
}

func (f normFields) present(key string) bool {
	v, ok := f.m[key]
	return ok && v != nil
}

func (f normFields) optFloat(key string) (*float64, error) {
	if !f.present(key) {
		return nil, nil
	}
	v, ok := asFloat(f.m[key])
	if !ok {
		return nil, schemaErr("'%s' must be a number for '%s', got %v", key, f.norm, f.m[key])
	}
	return &v, nil
}

func (f normFields) reqFloat(key string) (float64, error) {
	v, err := f.optFloat(key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, schemaErr("'%s' is required for '%s'", key, f.norm)
	}
	return *v, nil
}

func (f normFields) floatDefault(key string, def float64) (float64, error) {
	v, err := f.optFloat(key)
	if err != nil || v == nil {
		return def, err
	}
	return *v, nil
}

func (f normFields) clip() (bool, error) {
	if !f.present("clip") {
		return false, nil
	}
	b, ok := f.m["clip"].(bool)
	if !ok {
		return false, schemaErr("'clip' must be a boolean for '%s', got %v", f.norm, f.m["clip"])
	}
	return b, nil
}

func (f normFields) limits() (Range, error) {
	vmin, err := f.optFloat("vmin")
	if err != nil {
		return Range{}, err
	}
	vmax, err := f.optFloat("vmax")
	if err != nil {
		return Range{}, err
	}
	if vmin != nil && vmax != nil && !(*vmin < *vmax) {
		return Range{}, consistencyErr("'vmin' must be less than 'vmax' for '%s'", f.norm)
	}
	return Range{VMin: vmin, VMax: vmax}, nil
}

// boundaries reads an increasing list of at least three numbers.
func (f normFields) boundaries() ([]float64, error) {
	if !f.present("boundaries") {
		return nil, schemaErr("'boundaries' is required for '%s'", f.norm)
	}
	b, ok := asFloatList(f.m["boundaries"])
	if !ok {
		return nil, schemaErr("'boundaries' must be a list of numbers for '%s'", f.norm)
	}
	if len(b) < 3 {
		return nil, schemaErr("'boundaries' must have at least 3 values for '%s', got %d", f.norm, len(b))
	}
	if !strictlyIncreasing(b) {
		return nil, consistencyErr("'boundaries' must be monotonically increasing for '%s'", f.norm)
	}
	return b, nil
}

type normParser func(f normFields) (Norm, error)

var normParsers = map[string]struct {
	keys  []string
	parse normParser
}{
	"Norm":           {[]string{"vmin", "vmax", "clip"}, parseLinear(false)},
	"Normalize":      {[]string{"vmin", "vmax", "clip"}, parseLinear(false)},
	"NoNorm":         {[]string{"vmin", "vmax", "clip"}, parseLinear(true)},
	"BoundaryNorm":   {[]string{"boundaries", "ncolors", "clip", "extend"}, parseBoundary},
	"CategoryNorm":   {[]string{"categories"}, parseCategory},
	"CategorizeNorm": {[]string{"boundaries", "labels"}, parseCategorize},
	"TwoSlopeNorm":   {[]string{"vcenter", "vmin", "vmax"}, parseTwoSlope},
	"CenteredNorm":   {[]string{"vcenter", "halfrange", "clip"}, parseCentered},
	"LogNorm":        {[]string{"vmin", "vmax", "clip"}, parseLog},
	"SymLogNorm":     {[]string{"linthresh", "linscale", "base", "vmin", "vmax", "clip"}, parseSymLog},
	"PowerNorm":      {[]string{"gamma", "vmin", "vmax", "clip"}, parsePower},
	"AsinhNorm":      {[]string{"linear_width", "vmin", "vmax", "clip"}, parseAsinh},
}

// NormNames lists the accepted norm names.
func NormNames() []string {
	names := make([]string, 0, len(normParsers))
	for n := range normParsers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseNorm validates a norm dictionary and returns its typed settings. A
// nil or empty dictionary is the default linear Norm. Validation stops at
// the first failure.
func ParseNorm(m map[string]any) (Norm, error) {
	name := "Norm"
	if v, ok := m["name"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, schemaErr("norm 'name' must be a string, got %v", v)
		}
		name = s
	}
	p, ok := normParsers[name]
	if !ok {
		return nil, schemaErr("Invalid norm '%s'. Valid options are %v", name, NormNames())
	}
	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k != "name" {
			fields[k] = v
		}
	}
	if extra := unknownKeys(fields, p.keys...); len(extra) > 0 {
		return nil, schemaErr("Invalid parameters %s for normalization type '%s'. Accepted parameters are %s",
			quoteAll(extra), name, quoteAll(p.keys))
	}
	return p.parse(normFields{norm: name, m: fields})
}

// CheckNormSettings validates a norm dictionary.
func CheckNormSettings(m map[string]any) error {
	_, err := ParseNorm(m)
	return err
}

func parseLinear(noNorm bool) normParser {
	return func(f normFields) (Norm, error) {
		r, err := f.limits()
		if err != nil {
			return nil, err
		}
		clip, err := f.clip()
		if err != nil {
			return nil, err
		}
		return LinearNorm{Range: r, Clip: clip, NoNorm: noNorm}, nil
	}
}

func parseBoundary(f normFields) (Norm, error) {
	b, err := f.boundaries()
	if err != nil {
		return nil, err
	}
	clip, err := f.clip()
	if err != nil {
		return nil, err
	}
	extend := "neither"
	if f.present("extend") {
		s, ok := f.m["extend"].(string)
		if !ok || !validExtend(s) {
			return nil, schemaErr("'extend' must be one of %v for 'BoundaryNorm', got %v", extendOptions, f.m["extend"])
		}
		extend = s
	}
	if clip && extend != "neither" {
		return nil, consistencyErr("'clip' can not be true when 'extend' is '%s' for 'BoundaryNorm'", extend)
	}
	expected := expectedBoundaryColors(len(b), extend)
	ncolors := expected
	if f.present("ncolors") {
		n, ok := asInt(f.m["ncolors"])
		if !ok {
			return nil, schemaErr("'ncolors' must be an integer for 'BoundaryNorm', got %v", f.m["ncolors"])
		}
		if n < 2 {
			return nil, schemaErr("'ncolors' must be at least 2 for 'BoundaryNorm', got %d", n)
		}
		if n < expected {
			return nil, consistencyErr("'ncolors' (%d) must be at least %d for %d boundaries with extend '%s'",
				n, expected, len(b), extend)
		}
		ncolors = n
	}
	return BoundaryNorm{Boundaries: b, NColors: ncolors, Clip: clip, Extend: extend}, nil
}

func parseCategory(f normFields) (Norm, error) {
	if !f.present("categories") {
		return nil, schemaErr("'categories' is required for 'CategoryNorm'")
	}
	cats, err := parseCategories(f.m["categories"])
	if err != nil {
		return nil, err
	}
	if len(cats) < 2 {
		return nil, schemaErr("'categories' must have at least 2 entries for 'CategoryNorm', got %d", len(cats))
	}
	return CategoryNorm{Categories: cats}, nil
}

func parseCategories(v any) ([]Category, error) {
	var cats []Category
	add := func(k any, label any) error {
		var key int
		switch kk := k.(type) {
		case string:
			n, err := strconv.Atoi(kk)
			if err != nil {
				return schemaErr("'categories' keys must be integers, got %q", kk)
			}
			key = n
		default:
			n, ok := asInt(kk)
			if !ok {
				return schemaErr("'categories' keys must be integers, got %v", kk)
			}
			key = n
		}
		s, ok := label.(string)
		if !ok {
			return schemaErr("'categories' values must be strings, got %v", label)
		}
		cats = append(cats, Category{Value: key, Label: s})
		return nil
	}
	switch m := v.(type) {
	case map[any]any:
		for k, val := range m {
			if err := add(k, val); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for k, val := range m {
			if err := add(k, val); err != nil {
				return nil, err
			}
		}
	case map[int]string:
		for k, val := range m {
			cats = append(cats, Category{Value: k, Label: val})
		}
	case map[int]any:
		for k, val := range m {
			if err := add(k, val); err != nil {
				return nil, err
			}
		}
	case map[string]string:
		for k, val := range m {
			if err := add(k, val); err != nil {
				return nil, err
			}
		}
	default:
		return nil, schemaErr("'categories' must be a mapping of integer to label, got %T", v)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Value < cats[j].Value })
	return cats, nil
}

func parseCategorize(f normFields) (Norm, error) {
	b, err := f.boundaries()
	if err != nil {
		return nil, err
	}
	if !f.present("labels") {
		return nil, schemaErr("'labels' is required for 'CategorizeNorm'")
	}
	labels, ok := asStringList(f.m["labels"])
	if !ok {
		return nil, schemaErr("'labels' must be a list of strings for 'CategorizeNorm'")
	}
	if len(labels) != len(b)-1 {
		return nil, consistencyErr("'labels' must have %d entries (one less than 'boundaries'), got %d", len(b)-1, len(labels))
	}
	return CategorizeNorm{Boundaries: b, Labels: labels}, nil
}

func parseTwoSlope(f normFields) (Norm, error) {
	vcenter, err := f.reqFloat("vcenter")
	if err != nil {
		return nil, err
	}
	r, err := f.limits()
	if err != nil {
		return nil, err
	}
	if r.VMin != nil && !(*r.VMin < vcenter) {
		return nil, consistencyErr("'vmin' must be less than 'vcenter' for 'TwoSlopeNorm'")
	}
	if r.VMax != nil && !(*r.VMax > vcenter) {
		return nil, consistencyErr("'vmax' must be larger than 'vcenter' for 'TwoSlopeNorm'")
	}
	return TwoSlopeNorm{Range: r, VCenter: vcenter}, nil
}

func parseCentered(f normFields) (Norm, error) {
	vcenter, err := f.floatDefault("vcenter", 0)
	if err != nil {
		return nil, err
	}
	half, err := f.optFloat("halfrange")
	if err != nil {
		return nil, err
	}
	if half != nil && !(*half > 0) {
		return nil, schemaErr("'halfrange' must be positive for 'CenteredNorm'")
	}
	clip, err := f.clip()
	if err != nil {
		return nil, err
	}
	return CenteredNorm{VCenter: vcenter, HalfRange: half, Clip: clip}, nil
}

func parseLog(f normFields) (Norm, error) {
	r, err := f.limits()
	if err != nil {
		return nil, err
	}
	if r.VMin != nil && !(*r.VMin > 0) {
		return nil, schemaErr("LogNorm vmin should be a positive value.")
	}
	clip, err := f.clip()
	if err != nil {
		return nil, err
	}
	return LogNorm{Range: r, Clip: clip}, nil
}

func parseSymLog(f normFields) (Norm, error) {
	linthresh, err := f.reqFloat("linthresh")
	if err != nil {
		return nil, err
	}
	if !(linthresh > 0) {
		return nil, schemaErr("'linthresh' must be positive for 'SymLogNorm'")
	}
	linscale, err := f.floatDefault("linscale", 1)
	if err != nil {
		return nil, err
	}
	if !(linscale > 0) {
		return nil, schemaErr("'linscale' must be positive for 'SymLogNorm'")
	}
	base, err := f.floatDefault("base", 10)
	if err != nil {
		return nil, err
	}
	if !(base > 0) {
		return nil, schemaErr("'base' must be positive for 'SymLogNorm'")
	}
	r, err := f.limits()
	if err != nil {
		return nil, err
	}
	clip, err := f.clip()
	if err != nil {
		return nil, err
	}
	return SymLogNorm{Range: r, LinThresh: linthresh, LinScale: linscale, Base: base, Clip: clip}, nil
}

func parsePower(f normFields) (Norm, error) {
	gamma, err := f.reqFloat("gamma")
	if err != nil {
		return nil, err
	}
	r, err := f.limits()
	if err != nil {
		return nil, err
	}
	clip, err := f.clip()
	if err != nil {
		return nil, err
	}
	return PowerNorm{Range: r, Gamma: gamma, Clip: clip}, nil
}

func parseAsinh(f normFields) (Norm, error) {
	width, err := f.optFloat("linear_width")
	if err != nil {
		return nil, err
	}
	if width != nil && !(*width > 0) {
		return nil, schemaErr("'linear_width' must be positive for 'AsinhNorm'")
	}
	r, err := f.limits()
	if err != nil {
		return nil, err
	}
	clip, err := f.clip()
	if err != nil {
		return nil, err
	}
	return AsinhNorm{Range: r, LinearWidth: width, Clip: clip}, nil
}

// discreteColors returns the number of colors a discrete norm requires.
func discreteColors(n Norm) (int, bool) {
	switch v := n.(type) {
	case CategoryNorm:
		return len(v.Categories), true
	case CategorizeNorm:
		return len(v.Boundaries) - 1, true
	case BoundaryNorm:
		return expectedBoundaryColors(len(v.Boundaries), v.Extend), true
	}
	return 0, false
}
