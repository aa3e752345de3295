// Package service provides business logic for the colorbar server.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/cbarreg/server/internal/cache"
	"github.com/cbarreg/server/internal/registry"
	"github.com/cbarreg/server/internal/render"
	"github.com/cbarreg/server/internal/settings"
	"github.com/cbarreg/server/internal/settingsio"
	"github.com/cbarreg/server/internal/store"
)

// SettingsServiceConfig contains settings service configuration.
type SettingsServiceConfig struct {
	Colormaps *registry.ColormapRegistry
	Colorbars *registry.ColorbarRegistry
	// Store is optional; without it runtime additions are not persisted.
	Store    *store.Store
	Cache    *cache.Manager
	Renderer *render.PreviewRenderer
	Title    string
}

// SettingsService serves colormap and colorbar settings.
type SettingsService struct {
	colormaps *registry.ColormapRegistry
	colorbars *registry.ColorbarRegistry
	store     *store.Store
	cache     *cache.Manager
	renderer  *render.PreviewRenderer
	title     string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(cfg SettingsServiceConfig) *SettingsService {
	return &SettingsService{
		colormaps: cfg.Colormaps,
		colorbars: cfg.Colorbars,
		store:     cfg.Store,
		cache:     cfg.Cache,
		renderer:  cfg.Renderer,
		title:     cfg.Title,
	}
}

// Title returns the display title.
func (s *SettingsService) Title() string { return s.title }

// Colormaps returns the colormap registry.
func (s *SettingsService) Colormaps() *registry.ColormapRegistry { return s.colormaps }

// Colorbars returns the colorbar registry.
func (s *SettingsService) Colorbars() *registry.ColorbarRegistry { return s.colorbars }

// generation changes whenever either registry does.
func (s *SettingsService) generation() uint64 {
	return s.colormaps.Generation() + s.colorbars.Generation()
}

// CachedJSON returns the JSON encoding of build(), cached under path and
// params for the current registry generation.
func (s *SettingsService) CachedJSON(path string, params map[string]string, build func() (any, error)) ([]byte, error) {
	key := cache.QueryKey(path, s.generation(), params)
	if s.cache != nil {
		if data, ok := s.cache.GetQuery(key); ok {
			return data, nil
		}
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetQuery(key, data)
	}
	return data, nil
}

// ColormapDict returns the colormap registered as name in external units.
func (s *SettingsService) ColormapDict(name string) (map[string]any, error) {
	d, err := s.colormaps.GetCmapDict(name)
	if err != nil {
		return nil, err
	}
	return settingsio.EncodeCmapDict(d)
}

// AddColormap registers d, given in external units, under name and
// persists it.
func (s *SettingsService) AddColormap(d map[string]any, name string, force bool) error {
	internal, err := settingsio.DecodeCmapDict(d)
	if err != nil {
		return fmt.Errorf("%w: %w", settings.ErrSchema, err)
	}
	if err := s.colormaps.AddCmapDict(internal, name, force); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Put(store.KindColormap, name, d); err != nil {
			return fmt.Errorf("failed to persist colormap '%s': %w", name, err)
		}
	}
	return nil
}

// RemoveColormap unregisters name and drops it from the store.
func (s *SettingsService) RemoveColormap(name string) error {
	if err := s.colormaps.Unregister(name); err != nil {
		return err
	}
	if s.store != nil {
		if _, err := s.store.Delete(store.KindColormap, name); err != nil {
			return fmt.Errorf("failed to delete colormap '%s': %w", name, err)
		}
	}
	return nil
}

// AddColorbar validates d and registers it under name, persisting it.
func (s *SettingsService) AddColorbar(d map[string]any, name string, force bool) error {
	if err := s.colorbars.AddCbarDict(d, name, force); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Put(store.KindColorbar, name, d); err != nil {
			return fmt.Errorf("failed to persist colorbar '%s': %w", name, err)
		}
	}
	return nil
}

// RemoveColorbar unregisters name and drops it from the store.
func (s *SettingsService) RemoveColorbar(name string) error {
	if err := s.colorbars.Unregister(name); err != nil {
		return err
	}
	if s.store != nil {
		if _, err := s.store.Delete(store.KindColorbar, name); err != nil {
			return fmt.Errorf("failed to delete colorbar '%s': %w", name, err)
		}
	}
	return nil
}

// PlotSettings returns the plot keyword arguments of colorbar name.
func (s *SettingsService) PlotSettings(name string) (settings.PlotKwargs, error) {
	cb, err := s.colorbars.Colorbar(name)
	if err != nil {
		return settings.PlotKwargs{}, err
	}
	return settings.PlotSettings(cb), nil
}

// ColormapPreview returns a PNG strip of colormap name.
func (s *SettingsService) ColormapPreview(name string) ([]byte, error) {
	w, h := s.renderer.Size()
	key := cache.PreviewKey("colormap", name, s.generation(), w, h)
	if data, ok := s.cache.GetPreview(key); ok {
		return data, nil
	}

	cmap, err := s.colormaps.Colormap(name)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.RenderColormap(cmap)
	if err != nil {
		return nil, fmt.Errorf("failed to render colormap: %w", err)
	}

	s.cache.SetPreview(key, data)
	return data, nil
}

// ColorbarPreview returns a PNG colorbar of colorbar name, with extend
// triangles as the plot settings give them.
func (s *SettingsService) ColorbarPreview(name string) ([]byte, error) {
	w, h := s.renderer.Size()
	key := cache.PreviewKey("colorbar", name, s.generation(), w, h)
	if data, ok := s.cache.GetPreview(key); ok {
		return data, nil
	}

	cb, err := s.colorbars.Colorbar(name)
	if err != nil {
		return nil, err
	}
	cmap, err := s.colormaps.CbarColormap(cb.Cmap)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.RenderColorbar(cmap, settings.PlotSettings(cb).Extend)
	if err != nil {
		return nil, fmt.Errorf("failed to render colorbar: %w", err)
	}

	s.cache.SetPreview(key, data)
	return data, nil
}

// LoadStore registers every persisted dictionary, replacing file entries
// of the same name. Colorbars are retried until no more can be added, so
// references load regardless of name order.
func (s *SettingsService) LoadStore() (int, error) {
	if s.store == nil {
		return 0, nil
	}
	var errs []error
	n := 0

	cmaps, err := s.store.List(store.KindColormap)
	if err != nil {
		return 0, err
	}
	for _, e := range cmaps {
		internal, err := settingsio.DecodeCmapDict(e.Dict)
		if err == nil {
			err = s.colormaps.AddCmapDict(internal, e.Name, true)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("stored colormap '%s': %w", e.Name, err))
			continue
		}
		n++
	}

	cbars, err := s.store.List(store.KindColorbar)
	if err != nil {
		return n, errors.Join(append(errs, err)...)
	}
	pending := cbars
	for len(pending) > 0 {
		var failed []*store.Entry
		var lastErrs []error
		for _, e := range pending {
			if err := s.colorbars.AddCbarDict(e.Dict, e.Name, true); err != nil {
				failed = append(failed, e)
				lastErrs = append(lastErrs, fmt.Errorf("stored colorbar '%s': %w", e.Name, err))
				continue
			}
			n++
		}
		if len(failed) == len(pending) {
			errs = append(errs, lastErrs...)
			break
		}
		pending = failed
	}
	if len(errs) > 0 {
		log.Printf("[SettingsService] %d stored entries could not be loaded", len(errs))
	}
	return n, errors.Join(errs...)
}
