package scene

import (
	"math"

	"github.com/gorustyt/planarnav/common"
)

// Heightmap is a regular grid of height samples, row major from Origin.
// Samples set to NaN mark holes without terrain.
type Heightmap struct {
	Origin   common.Vec2 `yaml:"origin"`
	CellSize float64     `yaml:"cell_size"`
	Width    int         `yaml:"width"`
	Height   int         `yaml:"height"`
	Values   []float64   `yaml:"values"`
}

func NewHeightmap(origin common.Vec2, cellSize float64, width, height int) *Heightmap {
	return &Heightmap{
		Origin:   origin,
		CellSize: cellSize,
		Width:    width,
		Height:   height,
		Values:   make([]float64, width*height),
	}
}

func (h *Heightmap) Set(x, y int, v float64) {
	h.Values[y*h.Width+x] = v
}

func (h *Heightmap) at(x, y int) float64 {
	return h.Values[y*h.Width+x]
}

// HeightAt interpolates bilinearly between the four surrounding samples.
func (h *Heightmap) HeightAt(p common.Vec2) float64 {
	if h.Width < 2 || h.Height < 2 || h.CellSize <= 0 || len(h.Values) < h.Width*h.Height {
		return math.Inf(-1)
	}
	fx := (p[0] - h.Origin[0]) / h.CellSize
	fy := (p[1] - h.Origin[1]) / h.CellSize
	if fx < 0 || fy < 0 || fx > float64(h.Width-1) || fy > float64(h.Height-1) {
		return math.Inf(-1)
	}
	x0 := min(int(fx), h.Width-2)
	y0 := min(int(fy), h.Height-2)
	tx, ty := fx-float64(x0), fy-float64(y0)

	v00, v10 := h.at(x0, y0), h.at(x0+1, y0)
	v01, v11 := h.at(x0, y0+1), h.at(x0+1, y0+1)
	v := (v00*(1-tx)+v10*tx)*(1-ty) + (v01*(1-tx)+v11*tx)*ty
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
