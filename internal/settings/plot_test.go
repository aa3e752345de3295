package settings

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlotSettingsCategoryNorm(t *testing.T) {
	t.Parallel()

	v := &Validator{}
	cb, err := v.ParseCbarDict(map[string]any{
		"cmap": map[string]any{"name": "tab10", "n": 3},
		"norm": map[string]any{"name": "CategoryNorm", "categories": map[any]any{0: "water", 1: "land", 2: "ice"}},
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	k := PlotSettings(cb)
	if diff := cmp.Diff([]float64{0.5, 1.5, 2.5}, k.Ticks); diff != "" {
		t.Fatalf("unexpected ticks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"water", "land", "ice"}, k.TickLabels); diff != "" {
		t.Fatalf("unexpected labels (-want +got):\n%s", diff)
	}
}

func TestPlotSettingsCategorizeNorm(t *testing.T) {
	t.Parallel()

	v := &Validator{}
	cb, err := v.ParseCbarDict(map[string]any{
		"cmap": map[string]any{"name": "viridis"},
		"norm": map[string]any{"name": "CategorizeNorm", "boundaries": []any{0, 10, 30}, "labels": []any{"light", "heavy"}},
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	k := PlotSettings(cb)
	if diff := cmp.Diff([]float64{5, 20}, k.Ticks); diff != "" {
		t.Fatalf("unexpected ticks (-want +got):\n%s", diff)
	}
	if k.NormName != "CategorizeNorm" || k.Extend != "neither" {
		t.Fatalf("unexpected kwargs %+v", k)
	}
}

func TestPlotSettingsBoundaryExtend(t *testing.T) {
	t.Parallel()

	v := &Validator{}
	cb, err := v.ParseCbarDict(map[string]any{
		"cmap": map[string]any{"name": "viridis"},
		"norm": map[string]any{"name": "BoundaryNorm", "boundaries": []any{0, 1, 2}, "extend": "max"},
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := PlotSettings(cb).Extend; got != "max" {
		t.Fatalf("expected extend from norm, got %q", got)
	}
}
