// Package registry keeps named colormap and colorbar dictionaries loaded
// from YAML files or added at runtime.
package registry

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cbarreg/server/internal/settings"
	"github.com/cbarreg/server/internal/settingsio"
	"github.com/cbarreg/server/pkg/colormap"
)

var (
	ErrNotRegistered     = errors.New("not registered")
	ErrAlreadyRegistered = errors.New("already registered")
)

type colormapEntry struct {
	// dict holds internal units. It is nil when the file could not be
	// decoded; err then says why.
	dict     map[string]any
	filepath string
	err      error
}

// ColormapRegistry maps colormap names to colormap dictionaries.
type ColormapRegistry struct {
	mu      sync.RWMutex
	entries map[string]*colormapEntry
	gen     atomic.Uint64
}

// NewColormapRegistry creates an empty registry.
func NewColormapRegistry() *ColormapRegistry {
	return &ColormapRegistry{entries: make(map[string]*colormapEntry)}
}

// Generation changes every time the registry is modified.
func (r *ColormapRegistry) Generation() uint64 {
	return r.gen.Load()
}

func (r *ColormapRegistry) put(name string, e *colormapEntry, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok && !force {
		return fmt.Errorf("colormap '%s' %w; use force to replace it", name, ErrAlreadyRegistered)
	}
	r.entries[name] = e
	r.gen.Add(1)
	return nil
}

// Register adds the colormap file at path under its file name. The file is
// not validated; an undecodable file is kept and reported by Validate.
func (r *ColormapRegistry) Register(path string, force bool) error {
	name := settingsio.NameFromPath(path)
	raw, err := settingsio.ReadYAML(path)
	if err != nil {
		return err
	}
	e := &colormapEntry{filepath: path}
	if e.dict, e.err = settingsio.DecodeCmapDict(raw); e.err != nil {
		log.Printf("[ColormapRegistry] %s: cannot decode palette: %v", path, e.err)
	}
	return r.put(name, e, force)
}

// RegisterDir registers every YAML file below dir and returns how many were
// added.
func (r *ColormapRegistry) RegisterDir(dir string, force bool) (int, error) {
	files, err := settingsio.ListYAMLFiles(dir)
	if err != nil {
		return 0, err
	}
	var errs []error
	n := 0
	for _, f := range files {
		if err := r.Register(f, force); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// AddCmapDict validates d, which holds internal units, and registers it
// under name.
func (r *ColormapRegistry) AddCmapDict(d map[string]any, name string, force bool) error {
	if name == "" {
		return fmt.Errorf("colormap name must not be empty")
	}
	if _, err := settings.ValidateCmapDict(d, true); err != nil {
		return err
	}
	return r.put(name, &colormapEntry{dict: settings.Clone(d)}, force)
}

// Unregister removes name.
func (r *ColormapRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("colormap '%s' %w", name, ErrNotRegistered)
	}
	delete(r.entries, name)
	r.gen.Add(1)
	return nil
}

// Reset removes every colormap.
func (r *ColormapRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*colormapEntry)
	r.gen.Add(1)
}

// Names returns the registered names, sorted.
func (r *ColormapRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *ColormapRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// HasColormap reports whether name resolves to a registered or built-in
// colormap, including "_r" variants.
func (r *ColormapRegistry) HasColormap(name string) bool {
	if _, _, ok := r.lookup(name); ok {
		return true
	}
	_, ok := colormap.Builtin(name)
	return ok
}

// lookup finds name or, for a "_r" name, its base entry.
func (r *ColormapRegistry) lookup(name string) (*colormapEntry, bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e, false, true
	}
	if base, ok := strings.CutSuffix(name, colormap.ReversedSuffix); ok {
		if e, ok := r.entries[base]; ok {
			return e, true, true
		}
	}
	return nil, false, false
}

// Available lists registered names, optionally restricted to an
// auxiliary category and extended with the "_r" variants.
func (r *ColormapRegistry) Available(category string, includeReversed bool) []string {
	r.mu.RLock()
	var names []string
	for name, e := range r.entries {
		if category != "" && (e.dict == nil || !inCategory(e.dict, category)) {
			continue
		}
		names = append(names, name)
		if includeReversed {
			names = append(names, name+colormap.ReversedSuffix)
		}
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// GetCmapDict returns a copy of the dictionary registered as name, in
// internal units. A "_r" name returns the base dictionary with 'reversed'
// flipped.
func (r *ColormapRegistry) GetCmapDict(name string) (map[string]any, error) {
	e, rev, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("colormap '%s' %w. Available colormaps: %v", name, ErrNotRegistered, r.Names())
	}
	if e.err != nil {
		return nil, fmt.Errorf("colormap '%s': %w", name, e.err)
	}
	d := settings.Clone(e.dict)
	if rev {
		wasReversed, _ := d["reversed"].(bool)
		d["reversed"] = !wasReversed
	}
	return d, nil
}

// Filepath returns the file name was registered from; it is empty for
// dictionaries added at runtime.
func (r *ColormapRegistry) Filepath(name string) (string, error) {
	e, _, ok := r.lookup(name)
	if !ok {
		return "", fmt.Errorf("colormap '%s' %w", name, ErrNotRegistered)
	}
	return e.filepath, nil
}

// Validate validates name, or every colormap when name is empty.
func (r *ColormapRegistry) Validate(name string) error {
	names := []string{name}
	if name == "" {
		names = r.Names()
	}
	var errs []error
	for _, n := range names {
		d, err := r.GetCmapDict(n)
		if err == nil {
			_, err = settings.ValidateCmapDict(d, true)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("colormap '%s': %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// Colormap builds the runtime colormap for a registered or built-in name.
func (r *ColormapRegistry) Colormap(name string) (colormap.Colormap, error) {
	if _, _, ok := r.lookup(name); !ok {
		if c, ok := colormap.Builtin(name); ok {
			return c, nil
		}
		return nil, fmt.Errorf("colormap '%s' %w", name, ErrNotRegistered)
	}
	d, err := r.GetCmapDict(name)
	if err != nil {
		return nil, err
	}
	spec, err := settings.ParseCmapDict(d, true)
	if err != nil {
		return nil, err
	}
	return BuildColormap(spec)
}

// BuildColormap turns a validated colormap into a runtime colormap.
func BuildColormap(spec *settings.ColormapSpec) (colormap.Colormap, error) {
	n := 0
	if spec.N != nil {
		n = *spec.N
	}
	var (
		c   colormap.Colormap
		err error
	)
	if spec.Segments != nil {
		segs := make(map[string][]colormap.Segment, len(spec.Segments))
		for ch, entries := range spec.Segments {
			out := make([]colormap.Segment, len(entries))
			for i, e := range entries {
				out[i] = colormap.Segment{X: e.X, Y0: e.Y0, Y1: e.Y1}
			}
			segs[ch] = out
		}
		c, err = colormap.FromSegments(segs, n)
	} else {
		p, perr := spec.InternalPalette()
		if perr != nil {
			return nil, perr
		}
		c, err = colormap.FromPalette(colormap.Kind(spec.Type), spec.Space, p, n)
	}
	if err != nil {
		return nil, err
	}
	if spec.Reversed {
		c = colormap.Reversed(c)
	}
	return c, nil
}

// CbarColormap builds the runtime colormap of a colorbar's cmap section.
func (r *ColormapRegistry) CbarColormap(cs *settings.CmapSettings) (colormap.Colormap, error) {
	if cs.Inline != nil {
		return BuildColormap(cs.Inline)
	}
	maps := make([]colormap.Colormap, len(cs.Names))
	for i, name := range cs.Names {
		c, err := r.Colormap(name)
		if err != nil {
			return nil, err
		}
		maps[i] = c
	}
	if len(maps) == 1 {
		if cs.N != nil {
			return colormap.Resample(maps[0], cs.N[0])
		}
		return maps[0], nil
	}
	ns := cs.N
	if ns == nil {
		ns = make([]int, len(maps))
		for i, c := range maps {
			ns[i] = c.Len()
		}
	}
	return colormap.Concat(maps, ns)
}

// inCategory reports whether auxiliary.category (a string or a list of
// strings) contains category, ignoring case.
func inCategory(d map[string]any, category string) bool {
	aux, ok := d["auxiliary"].(map[string]any)
	if !ok {
		return false
	}
	switch c := aux["category"].(type) {
	case string:
		return strings.EqualFold(c, category)
	case []any:
		for _, v := range c {
			if s, ok := v.(string); ok && strings.EqualFold(s, category) {
				return true
			}
		}
	case []string:
		for _, s := range c {
			if strings.EqualFold(s, category) {
				return true
			}
		}
	}
	return false
}
