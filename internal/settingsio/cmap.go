package settingsio

import (
	"fmt"

	"github.com/cbarreg/server/internal/settings"
	"github.com/cbarreg/server/pkg/colorspace"
)

func convertPalette(d map[string]any, encode bool) (map[string]any, error) {
	out := settings.Clone(d)
	raw, ok := d["color_palette"]
	if !ok || raw == nil {
		return out, nil
	}
	name, ok := d["color_space"].(string)
	if !ok {
		return nil, fmt.Errorf("'color_space' is required to convert 'color_palette'")
	}
	space, err := colorspace.ParseSpace(name)
	if err != nil {
		return nil, err
	}
	p, err := colorspace.ParsePalette(raw, space)
	if err != nil {
		return nil, fmt.Errorf("invalid 'color_palette': %w", err)
	}
	if encode {
		p, err = colorspace.EncodeColors(p, space)
	} else {
		p, err = colorspace.DecodeColors(p, space)
	}
	if err != nil {
		return nil, err
	}
	out["color_palette"] = p.Any()
	return out, nil
}

// DecodeCmapDict returns a copy of d with its palette converted from
// external to internal units.
func DecodeCmapDict(d map[string]any) (map[string]any, error) {
	return convertPalette(d, false)
}

// EncodeCmapDict returns a copy of d with its palette converted from
// internal to external units.
func EncodeCmapDict(d map[string]any) (map[string]any, error) {
	return convertPalette(d, true)
}

// ReadCmapDict reads a colormap file. With decode set the palette is
// returned in internal units; with validate set the dictionary is checked
// in the units it is returned in.
func ReadCmapDict(path string, decode, validate bool) (map[string]any, error) {
	d, err := ReadYAML(path)
	if err != nil {
		return nil, err
	}
	if decode {
		if d, err = DecodeCmapDict(d); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if validate {
		if _, err := settings.ValidateCmapDict(d, decode); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return d, nil
}

// WriteCmapDict writes a colormap dictionary. With encode set, d holds
// internal units and is converted to external units first. Files always
// store external units.
func WriteCmapDict(d map[string]any, path string, force, encode, validate bool) error {
	if d["color_space"] == nil {
		return fmt.Errorf("the colormap dictionary has no 'color_space'")
	}
	if d["color_palette"] == nil && d["segmentdata"] == nil {
		return fmt.Errorf("the colormap dictionary has no 'color_palette'")
	}
	if validate {
		if _, err := settings.ValidateCmapDict(d, encode); err != nil {
			return err
		}
	}
	out := d
	if encode {
		var err error
		if out, err = EncodeCmapDict(d); err != nil {
			return err
		}
	}
	return WriteYAML(path, out, force)
}
