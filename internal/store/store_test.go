package store

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	d := map[string]any{
		"cmap": map[string]any{"name": "viridis", "n": 5},
		"norm": map[string]any{"name": "Norm", "vmin": 0.5},
	}
	if err := s.Put(KindColorbar, "TEMP", d); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(KindColorbar, "TEMP")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatalf("expected an entry")
	}
	if diff := cmp.Diff(d, got.Dict); diff != "" {
		t.Fatalf("dict mismatch (-want +got):\n%s", diff)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("unexpected timestamps %v %v", got.CreatedAt, got.UpdatedAt)
	}

	missing, err := s.Get(KindColormap, "TEMP")
	if err != nil || missing != nil {
		t.Fatalf("kinds are separate namespaces, got %v, %v", missing, err)
	}
}

func TestPutReplaces(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	if err := s.Put(KindColormap, "a", map[string]any{"n": 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(KindColormap, "a", map[string]any{"n": 2}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(KindColormap, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Dict["n"] != 2 {
		t.Fatalf("expected replaced value, got %v", got.Dict)
	}
}

func TestListDelete(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	for _, name := range []string{"b", "a", "c"} {
		if err := s.Put(KindColormap, name, map[string]any{"name": name}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Put(KindColorbar, "x", map[string]any{"reference": "y"}); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Delete(KindColormap, "b")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if ok, _ := s.Delete(KindColormap, "b"); ok {
		t.Fatalf("second delete should report nothing removed")
	}

	entries, err := s.List(KindColormap)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"a", "c"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}
