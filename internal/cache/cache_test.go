package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestQueryKey(t *testing.T) {
	base := "query:/api/colormaps@3"

	t.Run("nilParams", func(t *testing.T) {
		got := QueryKey("/api/colormaps", 3, nil)
		if got != base {
			t.Fatalf("expected %q, got %q", base, got)
		}
	})

	t.Run("stableParams", func(t *testing.T) {
		p := map[string]string{"category": "diverging", "include_reversed": "true"}
		key1 := QueryKey("/api/colormaps", 3, p)
		key2 := QueryKey("/api/colormaps", 3, map[string]string{"include_reversed": "true", "category": "diverging"})
		if key1 != key2 {
			t.Fatalf("expected stable key, got %q vs %q", key1, key2)
		}
		if !strings.HasPrefix(key1, base+":") {
			t.Fatalf("expected hashed suffix, got %q", key1)
		}
	})

	t.Run("generation", func(t *testing.T) {
		if QueryKey("/api/colormaps", 3, nil) == QueryKey("/api/colormaps", 4, nil) {
			t.Fatalf("keys of different generations must differ")
		}
	})
}

func TestPreviewKey(t *testing.T) {
	got := PreviewKey("colormap", "viridis", 7, 256, 32)
	want := "preview:colormap:viridis@7:256x32"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestManager(t *testing.T) {
	m, err := NewManager(Config{PreviewCacheSizeMB: 8, PreviewTTL: time.Minute, QueryCacheSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if _, ok := m.GetPreview("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	png := []byte{0x89, 'P', 'N', 'G'}
	if err := m.SetPreview("a", png); err != nil {
		t.Fatal(err)
	}
	got, ok := m.GetPreview("a")
	if !ok || !bytes.Equal(got, png) {
		t.Fatalf("GetPreview = %v, %v", got, ok)
	}

	m.SetQuery("q1", []byte("1"))
	m.SetQuery("q2", []byte("2"))
	m.SetQuery("q3", []byte("3"))
	if _, ok := m.GetQuery("q1"); ok {
		t.Fatalf("expected q1 to be evicted")
	}
	if v, ok := m.GetQuery("q3"); !ok || string(v) != "3" {
		t.Fatalf("GetQuery(q3) = %q, %v", v, ok)
	}

	stats := m.Stats()
	if stats["query_cache_len"] != 2 {
		t.Fatalf("unexpected stats %v", stats)
	}
}
