package settings

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cbarreg/server/pkg/colorspace"
)

func validCmapDict() map[string]any {
	return map[string]any{
		"colormap_type": "ListedColormap",
		"color_space":   "rgb",
		"color_palette": []any{[]any{0, 0, 0}, []any{1, 1, 1}},
	}
}

func TestValidateCmapDictValid(t *testing.T) {
	t.Parallel()

	got, err := ValidateCmapDict(validCmapDict(), true)
	if err != nil {
		t.Fatalf("expected valid colormap, got %v", err)
	}
	want := map[string]any{
		"colormap_type": "ListedColormap",
		"color_space":   "rgb",
		"color_palette": [][]float64{{0, 0, 0}, {1, 1, 1}},
		"n":             nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected normalized dict (-want +got):\n%s", diff)
	}
}

func TestValidateCmapDictNamedPalette(t *testing.T) {
	t.Parallel()

	d := map[string]any{
		"colormap_type": "ListedColormap",
		"color_space":   "name",
		"color_palette": []any{"red", "blue"},
	}
	got, err := ValidateCmapDict(d, true)
	if err != nil {
		t.Fatalf("expected valid named palette, got %v", err)
	}
	if diff := cmp.Diff([]string{"red", "blue"}, got["color_palette"]); diff != "" {
		t.Fatalf("unexpected palette (-want +got):\n%s", diff)
	}

	d["color_palette"] = []any{"red", "notacolor"}
	if _, err := ValidateCmapDict(d, true); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error for unknown name, got %v", err)
	}
}

func TestValidateCmapDictOptionalN(t *testing.T) {
	t.Parallel()

	d := validCmapDict()
	d["n"] = 5
	got, err := ValidateCmapDict(d, true)
	if err != nil {
		t.Fatal(err)
	}
	if got["n"] != 5 {
		t.Fatalf("expected n=5, got %v", got["n"])
	}

	d["n"] = -1
	if _, err := ValidateCmapDict(d, true); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error for negative n, got %v", err)
	}
}

func TestValidateCmapDictErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(d map[string]any)
		kind   error
		substr string
	}{
		{"invalid type", func(d map[string]any) { d["colormap_type"] = "InvalidType" }, ErrSchema, "Colormap 'type' must be one of"},
		{"invalid space", func(d map[string]any) { d["color_space"] = "INVALID" }, ErrSchema, "Invalid color_space"},
		{"empty palette", func(d map[string]any) { d["color_palette"] = []any{} }, ErrEmpty, "The 'colors' array must not be empty"},
		{"missing palette", func(d map[string]any) { delete(d, "color_palette") }, ErrSchema, "must be provided"},
		{"unknown key", func(d map[string]any) { d["bogus"] = 1 }, ErrSchema, "bogus"},
		{"internal range", func(d map[string]any) { d["color_palette"] = []any{[]any{0, 0, 255}, []any{0, 0, 0}} }, ErrRange, "internal data range"},
		{"one-dimensional", func(d map[string]any) { d["color_palette"] = []any{0, 0, 0} }, ErrSchema, "2-dimensional"},
		{"linear single color", func(d map[string]any) {
			d["colormap_type"] = "LinearSegmentedColormap"
			d["color_palette"] = []any{[]any{0, 0, 0}}
		}, ErrEmpty, "must have at least 2 colors"},
		{"listed single color", func(d map[string]any) {
			d["color_space"] = "name"
			d["color_palette"] = []any{"red"}
		}, ErrEmpty, "The 'colors' array must have at least 2 colors."},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := validCmapDict()
			tt.mutate(d)
			_, err := ValidateCmapDict(d, true)
			if !errors.Is(err, ErrInvalidColormap) {
				t.Fatalf("expected ErrInvalidColormap, got %v", err)
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Fatalf("expected %q in %q", tt.substr, err.Error())
			}
		})
	}
}

func TestValidateCmapDictAggregates(t *testing.T) {
	t.Parallel()

	d := map[string]any{
		"colormap_type": "Nope",
		"color_space":   "nope",
		"color_palette": []any{[]any{0, 0, 0}},
	}
	_, err := ValidateCmapDict(d, true)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Problems) != 2 {
		t.Fatalf("expected 2 problems, got %d: %v", len(verr.Problems), verr.Problems)
	}
}

func TestValidateCmapDictExternalRGBA(t *testing.T) {
	t.Parallel()

	d := map[string]any{
		"colormap_type": "ListedColormap",
		"color_space":   "rgba",
		"color_palette": []any{[]any{0, 0, 0, 100}, []any{255, 255, 255, 0}},
	}
	if _, err := ValidateCmapDict(d, false); err != nil {
		t.Fatalf("expected external RGBA palette to pass, got %v", err)
	}
	d["color_palette"] = []any{[]any{0, 0, 0, -1}, []any{255, 255, 255, 0}}
	_, err := ValidateCmapDict(d, false)
	if err == nil || !strings.Contains(err.Error(), "Channel 'A' values are not within the external data range. Expected range (0, 100)") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCmapDictDoesNotMutate(t *testing.T) {
	t.Parallel()

	d := validCmapDict()
	before := Clone(d)
	if _, err := ValidateCmapDict(d, true); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, d); diff != "" {
		t.Fatalf("input was mutated (-before +after):\n%s", diff)
	}
}

func TestValidateCmapDictEmptyAndNil(t *testing.T) {
	t.Parallel()

	if _, err := ValidateCmapDict(nil, true); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType for nil, got %v", err)
	}
	if _, err := ValidateCmapDict(map[string]any{}, true); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestSegmentData(t *testing.T) {
	t.Parallel()

	seg := func(entries ...[]any) []any {
		out := make([]any, len(entries))
		for i, e := range entries {
			out[i] = e
		}
		return out
	}
	valid := map[string]any{
		"colormap_type": "LinearSegmentedColormap",
		"color_space":   "rgb",
		"segmentdata": map[string]any{
			"red":   seg([]any{0.0, 0.0, 0.0}, []any{0.5, 1.0, 1.0}, []any{1.0, 1.0, 1.0}),
			"green": seg([]any{0.0, 0.0, 0.0}, []any{1.0, 1.0, 1.0}),
			"blue":  seg([]any{0.0, 0.0, 0.0}, []any{1.0, 0.0, 0.0}),
		},
	}
	spec, err := ParseCmapDict(valid, true)
	if err != nil {
		t.Fatalf("expected valid segmentdata, got %v", err)
	}
	if spec.NaturalLength() != DefaultSegmentedColors {
		t.Fatalf("unexpected natural length %d", spec.NaturalLength())
	}

	bad := Clone(valid)
	bad["segmentdata"].(map[string]any)["red"] = seg([]any{1.0, 0.0, 0.0}, []any{0.5, 1.0, 1.0}, []any{1.0, 1.0, 1.0})
	_, err = ParseCmapDict(bad, true)
	if err == nil || !strings.Contains(err.Error(), "must be monotonically increasing") {
		t.Fatalf("expected monotonic error, got %v", err)
	}

	bad = Clone(valid)
	bad["segmentdata"].(map[string]any)["red"] = seg([]any{0.0, 0.0}, []any{1.0, 1.0, 1.0})
	_, err = ParseCmapDict(bad, true)
	if err == nil || !strings.Contains(err.Error(), "a tuple of three floats") {
		t.Fatalf("expected tuple error, got %v", err)
	}

	bad = Clone(valid)
	channels := bad["segmentdata"].(map[string]any)
	channels["r"] = channels["red"]
	delete(channels, "red")
	_, err = ParseCmapDict(bad, true)
	if !errors.Is(err, ErrSchema) || !strings.Contains(err.Error(), `Unknown segmentdata channels ["r"]`) {
		t.Fatalf("expected unknown channel error, got %v", err)
	}

	bad = Clone(valid)
	delete(bad["segmentdata"].(map[string]any), "blue")
	_, err = ParseCmapDict(bad, true)
	if !errors.Is(err, ErrSchema) || !strings.Contains(err.Error(), "missing the 'blue' channel") {
		t.Fatalf("expected missing channel error, got %v", err)
	}

	withAlpha := Clone(valid)
	withAlpha["segmentdata"].(map[string]any)["alpha"] = seg([]any{0.0, 1.0, 1.0}, []any{1.0, 0.5, 0.5})
	if _, err := ParseCmapDict(withAlpha, true); err != nil {
		t.Fatalf("alpha channel should be accepted, got %v", err)
	}

	bad = Clone(valid)
	bad["colormap_type"] = "ListedColormap"
	if _, err := ParseCmapDict(bad, true); !errors.Is(err, ErrSchema) {
		t.Fatalf("ListedColormap should reject segmentdata, got %v", err)
	}
}

func TestColormapSpecInternalPalette(t *testing.T) {
	t.Parallel()

	d := map[string]any{
		"colormap_type": "ListedColormap",
		"color_space":   "hsv",
		"color_palette": []any{[]any{180, 50, 100}, []any{0, 0, 0}},
	}
	spec, err := ParseCmapDict(d, false)
	if err != nil {
		t.Fatal(err)
	}
	p, err := spec.InternalPalette()
	if err != nil {
		t.Fatal(err)
	}
	if !colorspace.IsWithinInternalDataRange(p.Values, colorspace.HSV) {
		t.Fatalf("decoded palette should be within internal range: %v", p.Values)
	}
}
