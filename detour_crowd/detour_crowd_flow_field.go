package detour_crowd

import (
	"math"

	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
)

var flowOffsets = [8][2]int{
	{1, 0}, {0, 1}, {-1, 0}, {0, -1}, // orthogonal
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1}, // diagonal
}

type flowNode struct {
	cell   int
	dist   float64
	_index int
}

func (n *flowNode) SetIndex(index int) { n._index = index }
func (n *flowNode) GetIndex() int      { return n._index }

// FlowField is a square grid of steering directions converging on Target.
// The target sits on the center cell. Cells are addressed row major.
type FlowField struct {
	Target  common.Vec2
	Origin  common.Vec2 // center of cell (0,0)
	Spacing float64
	Size    int

	Dirs    []common.Vec2
	Dist    []float64
	Blocked []bool
}

// NewFlowField sizes a grid covering radius around target. The cell count per
// side is capped at maxCells by widening the spacing.
func NewFlowField(target common.Vec2, radius, spacing float64, maxCells int, log *zap.Logger) *FlowField {
	log = logger.OrNop(log)
	if spacing <= 0 {
		spacing = 1
	}
	n := int(math.Ceil(2*radius/spacing)) + 1
	if n%2 == 0 {
		n++
	}
	if maxCells > 0 && n > maxCells {
		capped := maxCells
		if capped%2 == 0 {
			capped--
		}
		capped = max(capped, 1)
		if capped > 1 {
			spacing = 2 * radius / float64(capped-1)
		}
		log.Warn("flow field cell cap hit",
			zap.Int("wanted", n), zap.Int("cells", capped), zap.Float64("spacing", spacing))
		n = capped
	}
	half := float64(n / 2)
	f := &FlowField{
		Target:  target,
		Origin:  target.Sub(common.Vec2{half * spacing, half * spacing}),
		Spacing: spacing,
		Size:    n,
		Dirs:    make([]common.Vec2, n*n),
		Dist:    make([]float64, n*n),
		Blocked: make([]bool, n*n),
	}
	return f
}

func (f *FlowField) index(x, y int) int { return y*f.Size + x }

func (f *FlowField) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Size && y < f.Size
}

func (f *FlowField) TargetCell() (int, int) { return f.Size / 2, f.Size / 2 }

func (f *FlowField) CellCenter(x, y int) common.Vec2 {
	return f.Origin.Add(common.Vec2{float64(x) * f.Spacing, float64(y) * f.Spacing})
}

func (f *FlowField) CellBounds(x, y int) common.AABB {
	c := f.CellCenter(x, y)
	h := f.Spacing / 2
	return common.AABB{Min: c.Sub(common.Vec2{h, h}), Max: c.Add(common.Vec2{h, h})}
}

// Cell returns the cell containing p.
func (f *FlowField) Cell(p common.Vec2) (int, int, bool) {
	g := p.Sub(f.Origin).Mul(1 / f.Spacing)
	x, y := int(math.Floor(g[0]+0.5)), int(math.Floor(g[1]+0.5))
	return x, y, f.inside(x, y)
}

// canStep reports whether (x,y)+o is a legal move. Diagonal moves need both
// orthogonal neighbours open so paths never cut a blocked corner.
func (f *FlowField) canStep(x, y int, o [2]int) bool {
	nx, ny := x+o[0], y+o[1]
	if !f.inside(nx, ny) || f.Blocked[f.index(nx, ny)] {
		return false
	}
	if o[0] != 0 && o[1] != 0 {
		return !f.Blocked[f.index(x+o[0], y)] && !f.Blocked[f.index(x, y+o[1])]
	}
	return true
}

// Build fills the blocked mask from blocked, runs a Dijkstra wavefront out of
// the target cell and points every reached cell at its nearest neighbour.
// Blocked and unreached cells keep pointing straight at the target.
// A diagonal move needs both orthogonal neighbours free, so a cell whose
// only opening is a blocked corner stays unreached.
func (f *FlowField) Build(blocked func(cell common.AABB) bool) {
	n := f.Size
	tx, ty := f.TargetCell()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			i := f.index(x, y)
			f.Dirs[i] = common.VnormalizeSafe(f.Target.Sub(f.CellCenter(x, y)))
			f.Dist[i] = math.Inf(1)
			f.Blocked[i] = blocked != nil && blocked(f.CellBounds(x, y))
		}
	}
	f.Blocked[f.index(tx, ty)] = false

	nodes := make([]flowNode, n*n)
	for i := range nodes {
		nodes[i] = flowNode{cell: i, dist: math.Inf(1), _index: -1}
	}
	open := common.NewNodeQueue[*flowNode](func(a, b *flowNode) bool { return a.dist < b.dist })
	start := &nodes[f.index(tx, ty)]
	start.dist = 0
	open.Offer(start)
	for !open.Empty() {
		cur := open.Poll()
		f.Dist[cur.cell] = cur.dist
		x, y := cur.cell%n, cur.cell/n
		for k, o := range flowOffsets {
			if !f.canStep(x, y, o) {
				continue
			}
			cost := 1.0
			if k >= 4 {
				cost = math.Sqrt2
			}
			nb := &nodes[f.index(x+o[0], y+o[1])]
			d := cur.dist + cost
			if d >= nb.dist {
				continue
			}
			nb.dist = d
			if open.Contains(nb) {
				open.Update(nb)
			} else {
				open.Offer(nb)
			}
		}
	}

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			i := f.index(x, y)
			if f.Blocked[i] || math.IsInf(f.Dist[i], 1) || (x == tx && y == ty) {
				continue
			}
			f.Dirs[i] = f.bestDirection(x, y)
		}
	}
}

// bestDirection picks the neighbour with the lowest distance. Even cells look
// at diagonals first and odd cells at orthogonals first, so ties alternate.
func (f *FlowField) bestDirection(x, y int) common.Vec2 {
	best, bestDist := -1, math.Inf(1)
	first := 0
	if (x+y)%2 == 0 {
		first = 4
	}
	for j := 0; j < 8; j++ {
		k := (first + j) % 8
		o := flowOffsets[k]
		if !f.canStep(x, y, o) {
			continue
		}
		if d := f.Dist[f.index(x+o[0], y+o[1])]; d < bestDist {
			best, bestDist = k, d
		}
	}
	if best < 0 {
		return f.Dirs[f.index(x, y)]
	}
	o := flowOffsets[best]
	return common.VnormalizeSafe(common.Vec2{float64(o[0]), float64(o[1])})
}

// Reached reports whether the wavefront arrived at cell (x,y).
func (f *FlowField) Reached(x, y int) bool {
	return f.inside(x, y) && !math.IsInf(f.Dist[f.index(x, y)], 1)
}

func (f *FlowField) Direction(x, y int) common.Vec2 { return f.Dirs[f.index(x, y)] }

// Sample blends the four cell directions around p bilinearly. Outside the grid
// it points at the target.
func (f *FlowField) Sample(p common.Vec2) common.Vec2 {
	toTarget := common.VnormalizeSafe(f.Target.Sub(p))
	if f.Size < 2 {
		return toTarget
	}
	g := p.Sub(f.Origin).Mul(1 / f.Spacing)
	last := float64(f.Size - 1)
	if g[0] < 0 || g[1] < 0 || g[0] > last || g[1] > last {
		return toTarget
	}
	x0 := min(int(g[0]), f.Size-2)
	y0 := min(int(g[1]), f.Size-2)
	fx, fy := g[0]-float64(x0), g[1]-float64(y0)

	d00 := f.Dirs[f.index(x0, y0)]
	d10 := f.Dirs[f.index(x0+1, y0)]
	d01 := f.Dirs[f.index(x0, y0+1)]
	d11 := f.Dirs[f.index(x0+1, y0+1)]
	v := common.Vlerp(common.Vlerp(d00, d10, fx), common.Vlerp(d01, d11, fx), fy)
	if v = common.VnormalizeSafe(v); v == (common.Vec2{}) {
		return toTarget
	}
	return v
}
