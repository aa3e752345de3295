package colormap

import (
	"image/color"
	"sort"
	"strings"
)

// ReversedSuffix marks the reversed variant of a named colormap.
const ReversedSuffix = "_r"

// Viridis colormap (matplotlib viridis)
var Viridis = LinearColormap{
	colors: []color.NRGBA{
		{68, 1, 84, 255},
		{72, 35, 116, 255},
		{64, 67, 135, 255},
		{52, 94, 141, 255},
		{41, 120, 142, 255},
		{32, 144, 140, 255},
		{34, 167, 132, 255},
		{68, 190, 112, 255},
		{121, 209, 81, 255},
		{189, 222, 38, 255},
		{253, 231, 37, 255},
	},
}

// Plasma colormap
var Plasma = LinearColormap{
	colors: []color.NRGBA{
		{13, 8, 135, 255},
		{75, 3, 161, 255},
		{125, 3, 168, 255},
		{168, 34, 150, 255},
		{203, 70, 121, 255},
		{229, 107, 93, 255},
		{248, 148, 65, 255},
		{253, 195, 40, 255},
		{240, 249, 33, 255},
	},
}

// Inferno colormap
var Inferno = LinearColormap{
	colors: []color.NRGBA{
		{0, 0, 4, 255},
		{40, 11, 84, 255},
		{101, 21, 110, 255},
		{159, 42, 99, 255},
		{212, 72, 66, 255},
		{245, 125, 21, 255},
		{250, 193, 39, 255},
		{252, 255, 164, 255},
	},
}

// Magma colormap
var Magma = LinearColormap{
	colors: []color.NRGBA{
		{0, 0, 4, 255},
		{28, 16, 68, 255},
		{79, 18, 123, 255},
		{129, 37, 129, 255},
		{181, 54, 122, 255},
		{229, 80, 100, 255},
		{251, 135, 97, 255},
		{254, 194, 135, 255},
		{252, 253, 191, 255},
	},
}

// Greys runs from white to black.
var Greys = LinearColormap{
	colors: []color.NRGBA{
		{255, 255, 255, 255},
		{0, 0, 0, 255},
	},
}

// Tab10 is the ten-color Tableau palette.
var Tab10 = CategoricalColormap{
	colors: Tab20.colors[:10],
}

// Tab20 is the Tableau palette with light variants.
var Tab20 = CategoricalColormap{
	colors: []color.NRGBA{
		{31, 119, 180, 255},  // Blue
		{255, 127, 14, 255},  // Orange
		{44, 160, 44, 255},   // Green
		{214, 39, 40, 255},   // Red
		{148, 103, 189, 255}, // Purple
		{140, 86, 75, 255},   // Brown
		{227, 119, 194, 255}, // Pink
		{127, 127, 127, 255}, // Gray
		{188, 189, 34, 255},  // Olive
		{23, 190, 207, 255},  // Cyan
		{174, 199, 232, 255}, // Light blue
		{255, 187, 120, 255}, // Light orange
		{152, 223, 138, 255}, // Light green
		{255, 152, 150, 255}, // Light red
		{197, 176, 213, 255}, // Light purple
		{196, 156, 148, 255}, // Light brown
		{247, 182, 210, 255}, // Light pink
		{199, 199, 199, 255}, // Light gray
		{219, 219, 141, 255}, // Light olive
		{158, 218, 229, 255}, // Light cyan
	},
}

var builtins = map[string]Colormap{
	"viridis":     Viridis,
	"plasma":      Plasma,
	"inferno":     Inferno,
	"magma":       Magma,
	"Greys":       Greys,
	"tab10":       Tab10,
	"tab20":       Tab20,
	"categorical": Tab20,
}

// Builtin returns the built-in colormap called name. A trailing "_r" selects
// the reversed colormap.
func Builtin(name string) (Colormap, bool) {
	if c, ok := builtins[name]; ok {
		return c, true
	}
	if base, ok := strings.CutSuffix(name, ReversedSuffix); ok {
		if c, ok := builtins[base]; ok {
			return Reversed(c), true
		}
	}
	return nil, false
}

// BuiltinNames returns the sorted names of the built-in colormaps.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
