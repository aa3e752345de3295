// Package api provides HTTP handlers for the colorbar server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cbarreg/server/internal/cache"
	"github.com/cbarreg/server/internal/registry"
	"github.com/cbarreg/server/internal/service"
	"github.com/cbarreg/server/internal/settings"
	"github.com/cbarreg/server/pkg/colormap"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// maxBodyBytes bounds POSTed dictionaries.
const maxBodyBytes = 1 << 20

// RouterConfig contains router configuration.
type RouterConfig struct {
	Service     *service.SettingsService
	Cache       *cache.Manager
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	svc := cfg.Service
	r.Route("/api", func(r chi.Router) {
		r.Get("/info", infoHandler(svc, cfg.Cache))

		r.Route("/colormaps", func(r chi.Router) {
			r.Get("/", colormapsHandler(svc))
			r.Get("/{name}", colormapHandler(svc))
			r.Post("/{name}", colormapAddHandler(svc))
			r.Put("/{name}", colormapAddHandler(svc))
			r.Delete("/{name}", colormapDeleteHandler(svc))
			r.Get("/{name}/preview.png", colormapPreviewHandler(svc))
		})

		r.Route("/colorbars", func(r chi.Router) {
			r.Get("/", colorbarsHandler(svc))
			r.Get("/{name}", colorbarHandler(svc))
			r.Post("/{name}", colorbarAddHandler(svc))
			r.Put("/{name}", colorbarAddHandler(svc))
			r.Delete("/{name}", colorbarDeleteHandler(svc))
			r.Get("/{name}/plot", colorbarPlotHandler(svc))
			r.Get("/{name}/preview.png", colorbarPreviewHandler(svc))
		})

		r.Route("/validate", func(r chi.Router) {
			r.Post("/colorbar", validateColorbarHandler(svc))
			r.Post("/colormap", validateColormapHandler(svc))
		})
	})

	return r
}

// validationResponse is the body of validation endpoints and of rejected
// POSTs.
type validationResponse struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors"`
	Settings map[string]any `json:"settings,omitempty"`
}

// writeJSON encodes v before writing the header so an encoding failure can
// still be reported as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write(data)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var verr *settings.ValidationError
	switch {
	case errors.Is(err, registry.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.As(err, &verr),
		errors.Is(err, settings.ErrSchema),
		errors.Is(err, settings.ErrRange),
		errors.Is(err, settings.ErrConsistency),
		errors.Is(err, settings.ErrReference),
		errors.Is(err, settings.ErrEmpty),
		errors.Is(err, settings.ErrType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrNotRegistered):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError writes err with its status. Validation failures use the
// validation response body.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusUnprocessableEntity {
		writeJSON(w, status, validationResponse{Valid: false, Errors: settings.Messages(err)})
		return
	}
	http.Error(w, err.Error(), status)
}

// decodeDict reads a JSON object from the request body.
func decodeDict(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	var d map[string]any
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("body must be a JSON object")
	}
	return d, nil
}

// parseBool reads a boolean query parameter; absent means false.
func parseBool(r *http.Request, key string) (bool, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return b, nil
}

func infoHandler(svc *service.SettingsService, cm *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"title":     svc.Title(),
			"colormaps": len(svc.Colormaps().Names()),
			"colorbars": len(svc.Colorbars().Names()),
			"builtins":  colormap.BuiltinNames(),
		}
		if cm != nil {
			response["cache"] = cm.Stats()
		}
		writeJSON(w, http.StatusOK, response)
	}
}

func colormapsHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := strings.TrimSpace(r.URL.Query().Get("category"))
		includeReversed, err := parseBool(r, "include_reversed")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		params := map[string]string{"category": category, "include_reversed": strconv.FormatBool(includeReversed)}
		data, err := svc.CachedJSON("/api/colormaps", params, func() (any, error) {
			return map[string]any{
				"colormaps": svc.Colormaps().Available(category, includeReversed),
			}, nil
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeRawJSON(w, data)
	}
}

func colormapHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.ColormapDict(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func colormapAddHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		force, err := parseBool(r, "force")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := decodeDict(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := svc.AddColormap(d, name, force || r.Method == http.MethodPut); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"name": name})
	}
}

func colormapDeleteHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RemoveColormap(chi.URLParam(r, "name")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func colormapPreviewHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.ColormapPreview(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

func colorbarsHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := strings.TrimSpace(r.URL.Query().Get("category"))
		excludeReferenced, err := parseBool(r, "exclude_referenced")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		params := map[string]string{"category": category, "exclude_referenced": strconv.FormatBool(excludeReferenced)}
		data, err := svc.CachedJSON("/api/colorbars", params, func() (any, error) {
			return map[string]any{
				"colorbars": svc.Colorbars().Available(category, excludeReferenced),
			}, nil
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeRawJSON(w, data)
	}
}

func colorbarHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolve, err := parseBool(r, "resolve_reference")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := svc.Colorbars().GetCbarDict(chi.URLParam(r, "name"), resolve)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func colorbarAddHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		force, err := parseBool(r, "force")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := decodeDict(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := svc.AddColorbar(d, name, force || r.Method == http.MethodPut); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"name": name})
	}
}

func colorbarDeleteHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RemoveColorbar(chi.URLParam(r, "name")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func colorbarPlotHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kw, err := svc.PlotSettings(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, kw)
	}
}

func colorbarPreviewHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.ColorbarPreview(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

func validateColorbarHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := decodeDict(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		out, err := svc.Colorbars().Validator().ValidateCbarDict(d, name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, validationResponse{Valid: true, Errors: []string{}, Settings: out})
	}
}

func validateColormapHandler(svc *service.SettingsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decoded, err := parseBool(r, "decoded")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := decodeDict(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := settings.ValidateCmapDict(d, decoded)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, validationResponse{Valid: true, Errors: []string{}, Settings: out})
	}
}
