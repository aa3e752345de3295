// Package main is the entry point for the colorbar registry server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbarreg/server/internal/api"
	"github.com/cbarreg/server/internal/cache"
	"github.com/cbarreg/server/internal/config"
	"github.com/cbarreg/server/internal/registry"
	"github.com/cbarreg/server/internal/render"
	"github.com/cbarreg/server/internal/service"
	"github.com/cbarreg/server/internal/store"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	check := flag.Bool("check", false, "Validate every registered colormap and colorbar, then exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	colormaps, colorbars := loadRegistries(cfg.Registry)

	if *check {
		os.Exit(runCheck(colormaps, colorbars))
	}

	log.Printf("Starting colorbar server on port %d", cfg.Server.Port)

	ctx := context.Background()

	cacheManager, err := cache.NewManager(cache.Config{
		PreviewCacheSizeMB: cfg.Cache.PreviewSizeMB,
		PreviewTTL:         time.Duration(cfg.Cache.PreviewTTLMinutes) * time.Minute,
		QueryCacheSize:     cfg.Cache.QueryCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	previewRenderer := render.NewPreviewRenderer(render.Config{
		Width:  cfg.Render.PreviewWidth,
		Height: cfg.Render.PreviewHeight,
	})

	var settingsStore *store.Store
	if cfg.Registry.StorePath != "" {
		settingsStore, err = store.Open(cfg.Registry.StorePath)
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		defer settingsStore.Close()
	}

	settingsService := service.NewSettingsService(service.SettingsServiceConfig{
		Colormaps: colormaps,
		Colorbars: colorbars,
		Store:     settingsStore,
		Cache:     cacheManager,
		Renderer:  previewRenderer,
		Title:     cfg.Server.Title,
	})

	n, err := settingsService.LoadStore()
	if err != nil {
		log.Printf("Some stored settings could not be loaded: %v", err)
	}
	if settingsStore != nil {
		log.Printf("Loaded %d stored entries from %s", n, cfg.Registry.StorePath)
	}

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Service:     settingsService,
		Cache:       cacheManager,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// loadRegistries registers the configured colormap directories, then the
// colorbar directories. Bad files are logged and skipped.
func loadRegistries(cfg config.RegistryConfig) (*registry.ColormapRegistry, *registry.ColorbarRegistry) {
	colormaps := registry.NewColormapRegistry()
	for _, dir := range cfg.ColormapDirs {
		n, err := colormaps.RegisterDir(dir, false)
		if err != nil {
			log.Printf("  [colormaps] %s: %v", dir, err)
		}
		log.Printf("  [colormaps] Loaded %d file(s) from: %s", n, dir)
	}

	colorbars := registry.NewColorbarRegistry(colormaps)
	for _, dir := range cfg.ColorbarDirs {
		n, err := colorbars.RegisterDir(dir, false, cfg.Validate())
		if err != nil {
			log.Printf("  [colorbars] %s: %v", dir, err)
		}
		log.Printf("  [colorbars] Loaded %d file(s) from: %s", n, dir)
	}
	return colormaps, colorbars
}

// runCheck validates both registries and returns the process exit code.
func runCheck(colormaps *registry.ColormapRegistry, colorbars *registry.ColorbarRegistry) int {
	code := 0
	if err := colormaps.Validate(""); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		code = 1
	}
	if err := colorbars.Validate(""); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		code = 1
	}
	if code == 0 {
		fmt.Printf("%d colormaps and %d colorbars are valid\n", len(colormaps.Names()), len(colorbars.Names()))
	}
	return code
}
