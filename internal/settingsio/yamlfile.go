// Package settingsio reads and writes colormap and colorbar dictionaries as
// YAML files. Files ending in ".zst" hold zstd-compressed YAML.
package settingsio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cbarreg/server/internal/settings"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// ErrExists is returned when writing over an existing file without force.
var ErrExists = errors.New("file already exists")

var (
	zstdOnce sync.Once
	zstdDec  *zstd.Decoder
	zstdEnc  *zstd.Encoder
	zstdErr  error
)

func codecs() (*zstd.Decoder, *zstd.Encoder, error) {
	zstdOnce.Do(func() {
		zstdDec, zstdErr = zstd.NewReader(nil)
		if zstdErr != nil {
			zstdErr = fmt.Errorf("failed to create zstd decoder: %w", zstdErr)
			return
		}
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			zstdErr = fmt.Errorf("failed to create zstd encoder: %w", zstdErr)
		}
	})
	return zstdDec, zstdEnc, zstdErr
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// ReadYAML reads a YAML mapping from path. Nested mappings with non-string
// keys are returned keyed by strings.
func ReadYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if compressed(path) {
		dec, _, err := codecs()
		if err != nil {
			return nil, err
		}
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress %s failed: %w", path, err)
		}
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if out == nil {
		return map[string]any{}, nil
	}
	return settings.Clone(out), nil
}

// WriteYAML writes v to path as YAML, creating parent directories. An
// existing file is only replaced when force is set.
func WriteYAML(path string, v any, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use force to overwrite)", ErrExists, path)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if compressed(path) {
		_, enc, err := codecs()
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NameFromPath returns the file name without directory and YAML (and zstd)
// extensions.
func NameFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".zst")
	for _, ext := range []string{".yaml", ".yml"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// IsYAMLFile reports whether path has a YAML extension, optionally followed
// by ".zst".
func IsYAMLFile(path string) bool {
	p := strings.TrimSuffix(path, ".zst")
	return strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml")
}

// ListYAMLFiles returns every YAML file below dir, sorted by path.
func ListYAMLFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsYAMLFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
