package settings

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mapColorbars is an in-memory ColorbarLookup.
type mapColorbars map[string]map[string]any

func (m mapColorbars) LookupColorbar(name string) (map[string]any, error) {
	d, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("colorbar %q not registered", name)
	}
	return d, nil
}

func newValidator(cbars mapColorbars) *Validator {
	return &Validator{
		Colorbars: cbars,
		Colormaps: ColormapLookupFunc(func(name string) bool { return name == "custom" }),
	}
}

func standaloneDict() map[string]any {
	return map[string]any{
		"cmap": map[string]any{"name": "viridis"},
		"norm": map[string]any{"name": "Norm", "vmin": 0, "vmax": 10},
	}
}

func TestValidateCbarDictNilAndEmpty(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	if _, err := v.ValidateCbarDict(nil, "x"); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType for nil, got %v", err)
	}
	_, err := v.ValidateCbarDict(map[string]any{}, "x")
	if !errors.Is(err, ErrEmpty) || !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected empty configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "The colorbar dictionary can not be empty.") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestValidateCbarDictFillsDefaults(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	in := standaloneDict()
	got, err := v.ValidateCbarDict(in, "temp")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"cmap":      map[string]any{"name": "viridis", "n": nil},
		"norm":      map[string]any{"name": "Norm", "vmin": 0, "vmax": 10, "clip": false},
		"cbar":      map[string]any{"extend": "neither", "extendfrac": "auto", "extendrect": false, "label": nil},
		"auxiliary": map[string]any{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected validated dict (-want +got):\n%s", diff)
	}
	if _, ok := in["cbar"]; ok {
		t.Fatalf("input was mutated")
	}
}

func TestValidateCbarDictSuperset(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	in := map[string]any{
		"cmap":      map[string]any{"name": "custom", "n": 5, "bad_color": "none", "over_alpha": 0.5},
		"norm":      map[string]any{"name": "LogNorm", "vmin": 1},
		"cbar":      map[string]any{"extend": "max", "label": "mm/h"},
		"auxiliary": map[string]any{"category": "precipitation"},
	}
	got, err := v.ValidateCbarDict(in, "")
	if err != nil {
		t.Fatal(err)
	}
	for key, section := range in {
		gotSection := got[key].(map[string]any)
		for k, val := range section.(map[string]any) {
			if diff := cmp.Diff(val, gotSection[k]); diff != "" {
				t.Fatalf("%s.%s changed (-in +out):\n%s", key, k, diff)
			}
		}
	}
}

func TestValidateCbarDictAggregates(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	in := map[string]any{
		"cmap": map[string]any{"name": "doesnotexist"},
		"norm": map[string]any{"name": "Bogus"},
		"cbar": map[string]any{"extend": "sideways"},
	}
	_, err := v.ValidateCbarDict(in, "broken")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Problems) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(verr.Problems), verr.Problems)
	}
	msg := err.Error()
	for _, want := range []string{"Invalid configuration", "Colormap validation error", "Norm validation error", "Colorbar validation error"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("aggregated error should expose its schema problems")
	}
	if got := Messages(err); len(got) != 3 {
		t.Fatalf("expected 3 messages, got %v", got)
	}
}

func TestValidateCbarDictMissingCmap(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	_, err := v.ValidateCbarDict(map[string]any{"norm": map[string]any{}}, "")
	if !errors.Is(err, ErrSchema) || !strings.Contains(err.Error(), "'cmap' is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCategoryNormColorCount(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	dict := func(n int) map[string]any {
		return map[string]any{
			"cmap": map[string]any{"name": "viridis", "n": n},
			"norm": map[string]any{"name": "CategoryNorm", "categories": map[any]any{1: "a", 2: "b", 3: "c"}},
		}
	}
	_, err := v.ValidateCbarDict(dict(4), "")
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("expected consistency error for n=4, got %v", err)
	}
	if !strings.Contains(err.Error(), "Categorical Colormap validation error") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, err := v.ValidateCbarDict(dict(3), ""); err != nil {
		t.Fatalf("expected n=3 to pass, got %v", err)
	}
}

func TestBoundaryNormColorCount(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	dict := func(n int) map[string]any {
		return map[string]any{
			"cmap": map[string]any{"name": "viridis", "n": n},
			"norm": map[string]any{"name": "BoundaryNorm", "boundaries": []any{0, 1, 2}, "extend": "both"},
		}
	}
	if _, err := v.ValidateCbarDict(dict(3), ""); !errors.Is(err, ErrConsistency) {
		t.Fatalf("expected consistency error for 3 colors, got %v", err)
	}
	if _, err := v.ValidateCbarDict(dict(4), ""); err != nil {
		t.Fatalf("expected 4 colors to pass, got %v", err)
	}
}

func TestNamedCmapList(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	d := map[string]any{
		"cmap": map[string]any{"name": []any{"viridis", "magma_r"}, "n": []any{2, 3}},
		"norm": map[string]any{"name": "CategorizeNorm", "boundaries": []any{0, 1, 2, 3, 4, 5}, "labels": []any{"a", "b", "c", "d", "e"}},
	}
	if _, err := v.ValidateCbarDict(d, ""); err != nil {
		t.Fatalf("expected concatenated colormaps to pass, got %v", err)
	}
	d["cmap"] = map[string]any{"name": []any{"viridis", "magma"}, "n": []any{2}}
	if _, err := v.ValidateCbarDict(d, ""); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error for n length mismatch, got %v", err)
	}
	d["cmap"] = map[string]any{"name": []any{"viridis", "magma"}, "n": []any{2, 2}}
	_, err := v.ValidateCbarDict(d, "")
	if !errors.Is(err, ErrConsistency) || !strings.Contains(err.Error(), "The sum of cmap 'n'") {
		t.Fatalf("expected sum mismatch, got %v", err)
	}
}

func TestInlineCmap(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	d := map[string]any{
		"cmap": map[string]any{
			"colormap_type": "ListedColormap",
			"color_space":   "hex",
			"color_palette": []any{"#ff0000", "#00ff00"},
			"bad_color":     []any{0.5, 0.5, 0.5},
		},
		"norm": map[string]any{"name": "BoundaryNorm", "boundaries": []any{0, 1, 2}},
	}
	if _, err := v.ValidateCbarDict(d, ""); err != nil {
		t.Fatalf("expected inline cmap to pass, got %v", err)
	}
	d["norm"] = map[string]any{"name": "BoundaryNorm", "boundaries": []any{0, 1, 2, 3}}
	if _, err := v.ValidateCbarDict(d, ""); !errors.Is(err, ErrConsistency) {
		t.Fatalf("expected palette length mismatch, got %v", err)
	}
}

func TestMinimalInlineColorbar(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	got, err := v.ValidateCbarDict(map[string]any{
		"cmap": map[string]any{
			"colormap_type": "ListedColormap",
			"color_space":   "name",
			"color_palette": []any{"red", "blue"},
		},
	}, "")
	if err != nil {
		t.Fatalf("expected minimal colorbar to pass, got %v", err)
	}
	cmap, ok := got["cmap"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected cmap %T", got["cmap"])
	}
	palette, ok := asList(cmap["color_palette"])
	if !ok || len(palette) != 2 {
		t.Fatalf("expected a 2-color palette, got %v", cmap["color_palette"])
	}

	_, err = v.ValidateCbarDict(map[string]any{
		"cmap": map[string]any{
			"colormap_type": "ListedColormap",
			"color_space":   "name",
			"color_palette": []any{"red"},
		},
	}, "")
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected a single color palette to be rejected, got %v", err)
	}
}

func TestExtremeColors(t *testing.T) {
	t.Parallel()

	v := newValidator(nil)
	for _, bad := range []any{"#12", []any{0, 0}, []any{0, 0, 2}, "notacolor"} {
		d := map[string]any{"cmap": map[string]any{"name": "viridis", "over_color": bad}}
		if _, err := v.ValidateCbarDict(d, ""); !errors.Is(err, ErrSchema) {
			t.Fatalf("over_color %v: expected schema error, got %v", bad, err)
		}
	}
	d := map[string]any{"cmap": map[string]any{"name": "viridis", "bad_alpha": 1.5}}
	if _, err := v.ValidateCbarDict(d, ""); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error for alpha, got %v", err)
	}
}

func TestReferenceShape(t *testing.T) {
	t.Parallel()

	cbars := mapColorbars{"source": standaloneDict()}
	v := newValidator(cbars)
	got, err := v.ValidateCbarDict(map[string]any{"reference": "source"}, "alias")
	if err != nil {
		t.Fatal(err)
	}
	if got["reference"] != "source" {
		t.Fatalf("unexpected validated reference %v", got)
	}

	_, err = v.ValidateCbarDict(map[string]any{"reference": "source", "cmap": map[string]any{}}, "alias")
	if !errors.Is(err, ErrSchema) || !strings.Contains(err.Error(), "no other parameter is accepted") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = v.ValidateCbarDict(map[string]any{"reference": "missing"}, "alias")
	if !errors.Is(err, ErrReference) || !strings.Contains(err.Error(), "Invalid reference") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReferenceChain(t *testing.T) {
	t.Parallel()

	cbars := mapColorbars{
		"source": standaloneDict(),
		"first":  {"reference": "source"},
		"second": {"reference": "first"},
		"third":  {"reference": "second"},
	}
	v := newValidator(cbars)

	if _, err := v.ValidateCbarDict(cbars["third"], "third"); err != nil {
		t.Fatalf("depth-3 chain should validate, got %v", err)
	}
	leaf, err := v.ResolveReference("third")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(standaloneDict(), leaf); diff != "" {
		t.Fatalf("unexpected resolved dict (-want +got):\n%s", diff)
	}

	// Registering third's dict as "first" closes the loop.
	_, err = v.ValidateCbarDict(cbars["third"], "first")
	if !errors.Is(err, ErrReference) {
		t.Fatalf("expected reference error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Circular reference detected with first") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestSelfReference(t *testing.T) {
	t.Parallel()

	v := newValidator(mapColorbars{})
	_, err := v.ValidateCbarDict(map[string]any{"reference": "me"}, "me")
	if !errors.Is(err, ErrReference) || !strings.Contains(err.Error(), "Circular reference detected with me") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReferenceLoopBeyondName(t *testing.T) {
	t.Parallel()

	v := newValidator(mapColorbars{
		"a": {"reference": "b"},
		"b": {"reference": "a"},
	})
	_, err := v.ValidateCbarDict(map[string]any{"reference": "a"}, "c")
	if !errors.Is(err, ErrReference) {
		t.Fatalf("expected reference error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Circular reference detected with a") {
		t.Fatalf("message should name the revisited colorbar, got %q", err.Error())
	}
}

func TestParseCbarDictResolvesReference(t *testing.T) {
	t.Parallel()

	cbars := mapColorbars{"source": standaloneDict()}
	v := newValidator(cbars)
	cb, err := v.ParseCbarDict(map[string]any{"reference": "source"}, "alias")
	if err != nil {
		t.Fatal(err)
	}
	if cb.Cmap.Names[0] != "viridis" {
		t.Fatalf("expected the referenced cmap, got %v", cb.Cmap.Names)
	}
}
