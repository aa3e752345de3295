package registry

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cbarreg/server/internal/settings"
	"github.com/cbarreg/server/internal/settingsio"
)

type colorbarEntry struct {
	dict     map[string]any
	filepath string
}

// ColorbarRegistry maps colorbar names to colorbar dictionaries. It serves
// as the colorbar lookup of its own validator.
type ColorbarRegistry struct {
	mu        sync.RWMutex
	entries   map[string]colorbarEntry
	colormaps settings.ColormapLookup
	gen       atomic.Uint64
}

// NewColorbarRegistry creates an empty registry. colormaps resolves named
// colormaps during validation and may be nil.
func NewColorbarRegistry(colormaps settings.ColormapLookup) *ColorbarRegistry {
	return &ColorbarRegistry{
		entries:   make(map[string]colorbarEntry),
		colormaps: colormaps,
	}
}

// Generation changes every time the registry is modified.
func (r *ColorbarRegistry) Generation() uint64 {
	return r.gen.Load()
}

// Validator returns a validator bound to this registry.
func (r *ColorbarRegistry) Validator() *settings.Validator {
	return &settings.Validator{Colorbars: r, Colormaps: r.colormaps}
}

// Register adds every colorbar in the file at path. With validate set, the
// new colorbars are validated once all are in place and the file is rolled
// back if any fails.
func (r *ColorbarRegistry) Register(path string, force, validate bool) error {
	dicts, err := settingsio.ReadCbarDicts(path)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(dicts))
	for name := range dicts {
		names = append(names, name)
	}
	sort.Strings(names)

	r.mu.Lock()
	if !force {
		for _, name := range names {
			if _, ok := r.entries[name]; ok {
				r.mu.Unlock()
				return fmt.Errorf("colorbar '%s' from %s %w; use force to replace it", name, path, ErrAlreadyRegistered)
			}
		}
	}
	previous := make(map[string]colorbarEntry)
	for _, name := range names {
		if old, ok := r.entries[name]; ok {
			previous[name] = old
		}
		r.entries[name] = colorbarEntry{dict: dicts[name], filepath: path}
	}
	r.gen.Add(1)
	r.mu.Unlock()

	if !validate {
		return nil
	}
	var errs []error
	for _, name := range names {
		if err := r.Validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	r.mu.Lock()
	for _, name := range names {
		if old, ok := previous[name]; ok {
			r.entries[name] = old
		} else {
			delete(r.entries, name)
		}
	}
	r.gen.Add(1)
	r.mu.Unlock()
	log.Printf("[ColorbarRegistry] rejected %s: %d invalid colorbars", path, len(errs))
	return errors.Join(errs...)
}

// RegisterDir registers every YAML file below dir and returns how many
// files were added. With validate set, rejected files are retried until a
// pass adds nothing, so a reference may point into a file that sorts later.
func (r *ColorbarRegistry) RegisterDir(dir string, force, validate bool) (int, error) {
	files, err := settingsio.ListYAMLFiles(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	pending := files
	for {
		var failed []string
		var errs []error
		for _, f := range pending {
			if err := r.Register(f, force, validate); err != nil {
				failed = append(failed, f)
				errs = append(errs, err)
				continue
			}
			n++
		}
		if len(failed) == 0 || len(failed) == len(pending) || !validate {
			return n, errors.Join(errs...)
		}
		pending = failed
	}
}

// AddCbarDict validates d and registers it under name.
func (r *ColorbarRegistry) AddCbarDict(d map[string]any, name string, force bool) error {
	if name == "" {
		return fmt.Errorf("colorbar name must not be empty")
	}
	if !force && r.Has(name) {
		return fmt.Errorf("colorbar '%s' %w; use force to replace it", name, ErrAlreadyRegistered)
	}
	if _, err := r.Validator().ValidateCbarDict(d, name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok && !force {
		return fmt.Errorf("colorbar '%s' %w; use force to replace it", name, ErrAlreadyRegistered)
	}
	r.entries[name] = colorbarEntry{dict: settings.Clone(d)}
	r.gen.Add(1)
	return nil
}

// Unregister removes name.
func (r *ColorbarRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("colorbar '%s' %w", name, ErrNotRegistered)
	}
	delete(r.entries, name)
	r.gen.Add(1)
	return nil
}

// Reset removes every colorbar.
func (r *ColorbarRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]colorbarEntry)
	r.gen.Add(1)
}

// Names returns the registered names, sorted.
func (r *ColorbarRegistry) Names() []string {
	return r.filter(func(string, map[string]any) bool { return true })
}

// Has reports whether name is registered.
func (r *ColorbarRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

func (r *ColorbarRegistry) filter(keep func(name string, d map[string]any) bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, e := range r.entries {
		if keep(name, e.dict) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Standalone returns the names of colorbars that are not references.
func (r *ColorbarRegistry) Standalone() []string {
	return r.filter(func(_ string, d map[string]any) bool { return !settings.IsReference(d) })
}

// Referenced returns the names of reference colorbars.
func (r *ColorbarRegistry) Referenced() []string {
	return r.filter(func(_ string, d map[string]any) bool { return settings.IsReference(d) })
}

// Available lists colorbar names, optionally restricted to an auxiliary
// category and without references. A reference without its own category
// inherits the category of the colorbar it resolves to.
func (r *ColorbarRegistry) Available(category string, excludeReferenced bool) []string {
	var names []string
	for _, name := range r.Names() {
		d, err := r.LookupColorbar(name)
		if err != nil {
			continue
		}
		isRef := settings.IsReference(d)
		if excludeReferenced && isRef {
			continue
		}
		if category != "" && !inCategory(d, category) {
			if !isRef || hasCategory(d) {
				continue
			}
			leaf, err := r.Validator().ResolveReference(name)
			if err != nil || !inCategory(leaf, category) {
				continue
			}
		}
		names = append(names, name)
	}
	return names
}

func hasCategory(d map[string]any) bool {
	aux, ok := d["auxiliary"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = aux["category"]
	return ok
}

// LookupColorbar returns a copy of the raw dictionary registered as name.
func (r *ColorbarRegistry) LookupColorbar(name string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("colorbar '%s' %w", name, ErrNotRegistered)
	}
	return settings.Clone(e.dict), nil
}

// GetCbarDict returns a copy of the dictionary registered as name. With
// resolveReference set, reference chains are followed to the standalone
// colorbar.
func (r *ColorbarRegistry) GetCbarDict(name string, resolveReference bool) (map[string]any, error) {
	if !resolveReference {
		return r.LookupColorbar(name)
	}
	return r.Validator().ResolveReference(name)
}

// Filepath returns the file name was registered from.
func (r *ColorbarRegistry) Filepath(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("colorbar '%s' %w", name, ErrNotRegistered)
	}
	return e.filepath, nil
}

// Validate validates name, or every colorbar when name is empty.
func (r *ColorbarRegistry) Validate(name string) error {
	names := []string{name}
	if name == "" {
		names = r.Names()
	}
	v := r.Validator()
	var errs []error
	for _, n := range names {
		d, err := r.LookupColorbar(n)
		if err == nil {
			_, err = v.ValidateCbarDict(d, n)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("colorbar '%s': %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// Colorbar returns the typed settings of name, resolving references.
func (r *ColorbarRegistry) Colorbar(name string) (*settings.Colorbar, error) {
	d, err := r.LookupColorbar(name)
	if err != nil {
		return nil, err
	}
	return r.Validator().ParseCbarDict(d, name)
}
