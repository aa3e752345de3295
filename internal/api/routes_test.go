package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cbarreg/server/internal/cache"
	"github.com/cbarreg/server/internal/registry"
	"github.com/cbarreg/server/internal/render"
	"github.com/cbarreg/server/internal/service"
	"github.com/cbarreg/server/internal/store"
	"github.com/google/go-cmp/cmp"
)

// setupTestServer wires every component against a temporary store.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cmaps := registry.NewColormapRegistry()
	return setupTestServerWith(t, cmaps, registry.NewColorbarRegistry(cmaps))
}

func setupTestServerWith(t *testing.T, cmaps *registry.ColormapRegistry, cbars *registry.ColorbarRegistry) *httptest.Server {
	t.Helper()

	cacheManager, err := cache.NewManager(cache.Config{
		PreviewCacheSizeMB: 8,
		PreviewTTL:         time.Minute,
		QueryCacheSize:     100,
	})
	if err != nil {
		t.Fatalf("Failed to initialize cache: %v", err)
	}
	t.Cleanup(func() { cacheManager.Close() })

	st, err := store.Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := service.NewSettingsService(service.SettingsServiceConfig{
		Colormaps: cmaps,
		Colorbars: cbars,
		Store:     st,
		Cache:     cacheManager,
		Renderer:  render.NewPreviewRenderer(render.Config{Width: 64, Height: 16}),
		Title:     "Test colorbars",
	})

	srv := httptest.NewServer(NewRouter(RouterConfig{
		Service:     svc,
		Cache:       cacheManager,
		CORSOrigins: []string{"http://localhost:3000"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func decodeValidation(t *testing.T, data []byte) validationResponse {
	t.Helper()
	var v validationResponse
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("invalid validation response %s: %v", data, err)
	}
	return v
}

const greyBody = `{"colormap_type": "ListedColormap", "color_space": "rgb", "color_palette": [[0, 0, 0], [255, 255, 255]], "auxiliary": {"category": "sequential"}}`

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)
	status, body := do(t, srv, http.MethodGet, "/health", "")
	if status != http.StatusOK || string(body) != "OK" {
		t.Fatalf("health = %d %q", status, body)
	}
}

func TestColormapLifecycle(t *testing.T) {
	srv := setupTestServer(t)

	if status, body := do(t, srv, http.MethodPost, "/api/colormaps/grey", greyBody); status != http.StatusCreated {
		t.Fatalf("POST = %d %s", status, body)
	}
	if status, _ := do(t, srv, http.MethodPost, "/api/colormaps/grey", greyBody); status != http.StatusConflict {
		t.Fatalf("duplicate POST = %d, want 409", status)
	}
	if status, body := do(t, srv, http.MethodPost, "/api/colormaps/grey?force=true", greyBody); status != http.StatusCreated {
		t.Fatalf("forced POST = %d %s", status, body)
	}

	status, body := do(t, srv, http.MethodGet, "/api/colormaps/grey", "")
	if status != http.StatusOK {
		t.Fatalf("GET = %d %s", status, body)
	}
	var d map[string]any
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatal(err)
	}
	want := []any{[]any{0.0, 0.0, 0.0}, []any{255.0, 255.0, 255.0}}
	if diff := cmp.Diff(want, d["color_palette"]); diff != "" {
		t.Fatalf("GET returns external units (-want +got):\n%s", diff)
	}

	status, body = do(t, srv, http.MethodGet, "/api/colormaps?category=sequential&include_reversed=true", "")
	if status != http.StatusOK {
		t.Fatalf("list = %d %s", status, body)
	}
	var list struct {
		Colormaps []string `json:"colormaps"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"grey", "grey_r"}, list.Colormaps); diff != "" {
		t.Fatalf("list (-want +got):\n%s", diff)
	}

	status, body = do(t, srv, http.MethodGet, "/api/colormaps/grey_r/preview.png", "")
	if status != http.StatusOK {
		t.Fatalf("preview = %d %s", status, body)
	}
	if _, err := png.Decode(bytes.NewReader(body)); err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}

	if status, _ := do(t, srv, http.MethodDelete, "/api/colormaps/grey", ""); status != http.StatusNoContent {
		t.Fatalf("DELETE = %d", status)
	}
	if status, _ := do(t, srv, http.MethodGet, "/api/colormaps/grey", ""); status != http.StatusNotFound {
		t.Fatalf("GET after DELETE = %d, want 404", status)
	}
}

func TestColormapRejected(t *testing.T) {
	srv := setupTestServer(t)

	bad := `{"colormap_type": "Nope", "color_space": "rgb", "color_palette": [[0, 0, 0], [255, 255, 255]]}`
	status, body := do(t, srv, http.MethodPost, "/api/colormaps/bad", bad)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("POST invalid = %d %s", status, body)
	}
	v := decodeValidation(t, body)
	if v.Valid || len(v.Errors) == 0 || !strings.Contains(v.Errors[0], "Colormap 'type' must be one of") {
		t.Fatalf("unexpected response %+v", v)
	}

	if status, _ := do(t, srv, http.MethodPost, "/api/colormaps/bad", "{not json"); status != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", status)
	}
	if status, _ := do(t, srv, http.MethodGet, "/api/colormaps/nope/preview.png", ""); status != http.StatusNotFound {
		t.Fatalf("unknown preview = %d, want 404", status)
	}
}

func TestColorbarEndpoints(t *testing.T) {
	srv := setupTestServer(t)

	cbar := `{"cmap": {"name": "viridis", "n": 3}, "norm": {"name": "CategoryNorm", "categories": {"0": "low", "1": "mid", "2": "high"}}}`
	if status, body := do(t, srv, http.MethodPost, "/api/colorbars/CLASSES", cbar); status != http.StatusCreated {
		t.Fatalf("POST = %d %s", status, body)
	}
	if status, body := do(t, srv, http.MethodPost, "/api/colorbars/ALIAS", `{"reference": "CLASSES"}`); status != http.StatusCreated {
		t.Fatalf("POST reference = %d %s", status, body)
	}

	status, body := do(t, srv, http.MethodGet, "/api/colorbars?exclude_referenced=true", "")
	if status != http.StatusOK {
		t.Fatalf("list = %d %s", status, body)
	}
	var list struct {
		Colorbars []string `json:"colorbars"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"CLASSES"}, list.Colorbars); diff != "" {
		t.Fatalf("list (-want +got):\n%s", diff)
	}

	status, body = do(t, srv, http.MethodGet, "/api/colorbars/ALIAS?resolve_reference=true", "")
	if status != http.StatusOK || !strings.Contains(string(body), "viridis") {
		t.Fatalf("resolved GET = %d %s", status, body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/colorbars/ALIAS/plot", "")
	if status != http.StatusOK {
		t.Fatalf("plot = %d %s", status, body)
	}
	var plot struct {
		Norm       string    `json:"norm"`
		Ticks      []float64 `json:"ticks"`
		TickLabels []string  `json:"ticklabels"`
	}
	if err := json.Unmarshal(body, &plot); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"low", "mid", "high"}, plot.TickLabels); diff != "" {
		t.Fatalf("tick labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 1.5, 2.5}, plot.Ticks); diff != "" {
		t.Fatalf("ticks (-want +got):\n%s", diff)
	}

	status, body = do(t, srv, http.MethodGet, "/api/colorbars/CLASSES/preview.png", "")
	if status != http.StatusOK {
		t.Fatalf("preview = %d %s", status, body)
	}

	if status, _ := do(t, srv, http.MethodPost, "/api/colorbars/LOOP", `{"reference": "LOOP"}`); status != http.StatusUnprocessableEntity {
		t.Fatalf("self reference = %d, want 422", status)
	}
	if status, _ := do(t, srv, http.MethodDelete, "/api/colorbars/MISSING", ""); status != http.StatusNotFound {
		t.Fatalf("DELETE unknown = %d, want 404", status)
	}
}

func TestColorbarFromYAMLWithIntegerCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landcover.yaml")
	content := `landcover:
  cmap:
    name: viridis
    n: 2
  norm:
    name: CategoryNorm
    categories:
      0: water
      1: forest
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cmaps := registry.NewColormapRegistry()
	cbars := registry.NewColorbarRegistry(cmaps)
	if err := cbars.Register(path, false, true); err != nil {
		t.Fatalf("register: %v", err)
	}
	srv := setupTestServerWith(t, cmaps, cbars)

	status, body := do(t, srv, http.MethodGet, "/api/colorbars/landcover", "")
	if status != http.StatusOK {
		t.Fatalf("GET = %d %s", status, body)
	}
	var d struct {
		Norm struct {
			Categories map[string]string `json:"categories"`
		} `json:"norm"`
	}
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatalf("invalid body %q: %v", body, err)
	}
	if diff := cmp.Diff(map[string]string{"0": "water", "1": "forest"}, d.Norm.Categories); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}

	status, body = do(t, srv, http.MethodGet, "/api/colorbars/landcover/plot", "")
	if status != http.StatusOK || !strings.Contains(string(body), "forest") {
		t.Fatalf("plot = %d %s", status, body)
	}
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"bad": func() {}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestValidateEndpoints(t *testing.T) {
	srv := setupTestServer(t)

	status, body := do(t, srv, http.MethodPost, "/api/validate/colorbar?name=T", `{"cmap": {"name": "viridis"}}`)
	if status != http.StatusOK {
		t.Fatalf("valid colorbar = %d %s", status, body)
	}
	v := decodeValidation(t, body)
	if !v.Valid || len(v.Errors) != 0 || v.Settings["norm"] == nil {
		t.Fatalf("expected defaults in normalized settings, got %+v", v)
	}

	// Two independent problems are both reported.
	bad := `{"cmap": {"name": "not_a_cmap"}, "norm": {"name": "Norm", "vmin": 2, "vmax": 1}}`
	status, body = do(t, srv, http.MethodPost, "/api/validate/colorbar", bad)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("invalid colorbar = %d %s", status, body)
	}
	if v := decodeValidation(t, body); v.Valid || len(v.Errors) != 2 {
		t.Fatalf("expected two problems, got %+v", v)
	}

	internal := `{"colormap_type": "ListedColormap", "color_space": "rgb", "color_palette": [[0.5, 0.5, 0.5], [1, 1, 1]]}`
	if status, body := do(t, srv, http.MethodPost, "/api/validate/colormap?decoded=true", internal); status != http.StatusOK {
		t.Fatalf("decoded colormap = %d %s", status, body)
	}
	outOfRange := `{"colormap_type": "ListedColormap", "color_space": "rgb", "color_palette": [[300, 0, 0]]}`
	if status, _ := do(t, srv, http.MethodPost, "/api/validate/colormap", outOfRange); status != http.StatusUnprocessableEntity {
		t.Fatalf("out of range colormap = %d, want 422", status)
	}
	if status, _ := do(t, srv, http.MethodPost, "/api/validate/colormap?decoded=maybe", internal); status != http.StatusBadRequest {
		t.Fatalf("bad flag = %d, want 400", status)
	}
}
