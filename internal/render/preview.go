// Package render draws colormap and colorbar previews using fogleman/gg.
package render

import (
	"bytes"
	"image/color"
	"image/png"
	"sync"

	"github.com/cbarreg/server/pkg/colormap"
	"github.com/fogleman/gg"
)

// Config contains renderer configuration.
type Config struct {
	Width  int
	Height int
}

// PreviewRenderer renders horizontal colormap strips to PNG.
type PreviewRenderer struct {
	config      Config
	contextPool sync.Pool
	bufferPool  sync.Pool
}

// NewPreviewRenderer creates a new preview renderer.
func NewPreviewRenderer(cfg Config) *PreviewRenderer {
	if cfg.Width <= 0 {
		cfg.Width = 256
	}
	if cfg.Height <= 0 {
		cfg.Height = 32
	}
	return &PreviewRenderer{
		config: cfg,
		contextPool: sync.Pool{
			New: func() any {
				return gg.NewContext(cfg.Width, cfg.Height)
			},
		},
		bufferPool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, 8*1024))
			},
		},
	}
}

// Size returns the preview width and height in pixels.
func (r *PreviewRenderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// RenderColormap draws cmap across the whole image.
func (r *PreviewRenderer) RenderColormap(cmap colormap.Colormap) ([]byte, error) {
	dc := r.contextPool.Get().(*gg.Context)
	defer r.contextPool.Put(dc)

	dc.SetColor(color.Transparent)
	dc.Clear()
	drawStrip(dc, cmap, 0, float64(r.config.Width), float64(r.config.Height))
	return r.encodeContext(dc)
}

// RenderColorbar draws cmap as a colorbar. extend is one of "neither",
// "min", "max" or "both"; extended ends get a triangle filled with the end
// color of cmap.
func (r *PreviewRenderer) RenderColorbar(cmap colormap.Colormap, extend string) ([]byte, error) {
	dc := r.contextPool.Get().(*gg.Context)
	defer r.contextPool.Put(dc)

	dc.SetColor(color.Transparent)
	dc.Clear()

	w, h := float64(r.config.Width), float64(r.config.Height)
	arrow := h * 0.75
	if arrow > w/4 {
		arrow = w / 4
	}
	lower := extend == "min" || extend == "both"
	upper := extend == "max" || extend == "both"

	x0, x1 := 0.0, w
	if lower {
		x0 = arrow
	}
	if upper {
		x1 = w - arrow
	}
	drawStrip(dc, cmap, x0, x1, h)

	if lower {
		dc.SetColor(cmap.At(0))
		dc.MoveTo(x0, 0)
		dc.LineTo(0, h/2)
		dc.LineTo(x0, h)
		dc.ClosePath()
		dc.Fill()
	}
	if upper {
		dc.SetColor(cmap.At(1))
		dc.MoveTo(x1, 0)
		dc.LineTo(w, h/2)
		dc.LineTo(x1, h)
		dc.ClosePath()
		dc.Fill()
	}
	return r.encodeContext(dc)
}

// drawStrip fills columns x0 to x1 with cmap sampled at column centres.
func drawStrip(dc *gg.Context, cmap colormap.Colormap, x0, x1, h float64) {
	width := x1 - x0
	if width <= 0 {
		return
	}
	for x := x0; x < x1; x++ {
		t := (x - x0 + 0.5) / width
		dc.SetColor(cmap.At(t))
		dc.DrawRectangle(x, 0, 1, h)
		dc.Fill()
	}
}

func (r *PreviewRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// The buffer goes back to the pool.
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
