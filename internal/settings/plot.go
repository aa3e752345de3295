package settings

// PlotKwargs holds what a renderer needs to draw a colorbar.
type PlotKwargs struct {
	Cmap *CmapSettings `json:"-"`
	Norm Norm          `json:"-"`
	Cbar CbarSettings  `json:"-"`

	NormName   string    `json:"norm"`
	Boundaries []float64 `json:"boundaries,omitempty"`
	Ticks      []float64 `json:"ticks,omitempty"`
	TickLabels []string  `json:"ticklabels,omitempty"`
	Extend     string    `json:"extend"`
	ExtendFrac any       `json:"extendfrac"`
	ExtendRect bool      `json:"extendrect"`
	Label      *string   `json:"label"`
}

// PlotSettings derives plot options from a validated colorbar. Categorical
// norms get one tick per class, centered in its interval.
func PlotSettings(cb *Colorbar) PlotKwargs {
	k := PlotKwargs{
		Cmap:       cb.Cmap,
		Norm:       cb.Norm,
		Cbar:       cb.Cbar,
		NormName:   cb.Norm.NormName(),
		Extend:     cb.Cbar.Extend,
		ExtendFrac: cb.Cbar.ExtendFrac,
		ExtendRect: cb.Cbar.ExtendRect,
		Label:      cb.Cbar.Label,
	}
	switch n := cb.Norm.(type) {
	case CategoryNorm:
		k.Boundaries = n.Boundaries()
		k.Ticks = midpoints(k.Boundaries)
		k.TickLabels = make([]string, len(n.Categories))
		for i, c := range n.Categories {
			k.TickLabels[i] = c.Label
		}
	case CategorizeNorm:
		k.Boundaries = append([]float64(nil), n.Boundaries...)
		k.Ticks = midpoints(n.Boundaries)
		k.TickLabels = append([]string(nil), n.Labels...)
	case BoundaryNorm:
		k.Boundaries = append([]float64(nil), n.Boundaries...)
		k.Ticks = append([]float64(nil), n.Boundaries...)
		// The norm's extend wins when the colorbar does not set one.
		if k.Extend == "neither" {
			k.Extend = n.Extend
		}
	}
	return k
}

func midpoints(b []float64) []float64 {
	if len(b) < 2 {
		return nil
	}
	out := make([]float64, len(b)-1)
	for i := range out {
		out[i] = (b[i] + b[i+1]) / 2
	}
	return out
}
