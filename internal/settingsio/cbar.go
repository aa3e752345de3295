package settingsio

import (
	"fmt"
	"sort"

	"github.com/cbarreg/server/internal/settings"
)

var colorbarSectionKeys = []string{"cmap", "norm", "cbar", "reference"}

// IsSingleColorbarSettings reports whether d is one colorbar dictionary
// rather than a mapping of names to colorbars.
func IsSingleColorbarSettings(d map[string]any) bool {
	for _, k := range colorbarSectionKeys {
		if _, ok := d[k]; ok {
			return true
		}
	}
	return false
}

// ReadCbarDicts reads a file holding one or more named colorbars. A file
// holding a single bare colorbar is named after the file.
func ReadCbarDicts(path string) (map[string]map[string]any, error) {
	d, err := ReadYAML(path)
	if err != nil {
		return nil, err
	}
	if IsSingleColorbarSettings(d) {
		return map[string]map[string]any{NameFromPath(path): d}, nil
	}
	out := make(map[string]map[string]any, len(d))
	for name, v := range d {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: colorbar '%s' is not a mapping", path, name)
		}
		out[name] = m
	}
	return out, nil
}

// ReadCbarDict reads a file holding exactly one colorbar.
func ReadCbarDict(path string) (map[string]any, error) {
	dicts, err := ReadCbarDicts(path)
	if err != nil {
		return nil, err
	}
	if len(dicts) != 1 {
		names := make([]string, 0, len(dicts))
		for n := range dicts {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%s holds %d colorbars %v, expected one", path, len(dicts), names)
	}
	for _, d := range dicts {
		return d, nil
	}
	return nil, nil
}

// WriteCbarDicts writes named colorbars to one file.
func WriteCbarDicts(dicts map[string]map[string]any, path string, force bool) error {
	out := make(map[string]any, len(dicts))
	for name, d := range dicts {
		out[name] = settings.Clone(d)
	}
	return WriteYAML(path, out, force)
}

// WriteCbarDict writes one colorbar. It is stored under the file's name,
// which is the name it is read back with.
func WriteCbarDict(d map[string]any, path string, force bool) error {
	return WriteCbarDicts(map[string]map[string]any{NameFromPath(path): d}, path, force)
}
