package recast

import (
	"math"

	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
	"github.com/gorustyt/planarnav/scene"
)

type HeightObstacleOptions struct {
	// Flood fill seed, a point known to lie on terrain.
	Start common.Vec2
	// Grid spacing of the height samples.
	Spacing float64
	// Largest height step between neighbouring samples that is still walkable.
	TraversableHeight float64
	// Width of an emitted sliver along the steep direction.
	SliverThickness float64
	// Cells outside Bounds are never visited.
	Bounds   common.AABB
	MaxCells int
	// Skip reports cells covered by static obstacles; those are neither
	// visited nor turned into slivers.
	Skip func(p common.Vec2) bool
	Log  *zap.Logger
}

type floodCell struct{ x, y int }

var floodDirs = [4]floodCell{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// SynthesizeHeightObstacles flood fills a regular grid from opt.Start and
// emits a thin rectangle across every step between neighbouring cells whose
// height difference exceeds opt.TraversableHeight. Cells without terrain
// (height -Inf) are treated as an infinite step.
func SynthesizeHeightObstacles(heights scene.HeightSampler, opt HeightObstacleOptions) []common.Polygon {
	log := logger.OrNop(opt.Log)
	if heights == nil || opt.Spacing <= 0 || opt.Bounds.IsEmpty() {
		return nil
	}
	if !opt.Bounds.Contains(opt.Start) {
		log.Debug("height flood: start outside bounds", zap.Float64s("start", opt.Start[:]))
		return nil
	}
	thickness := opt.SliverThickness
	if thickness <= 0 {
		thickness = opt.Spacing * 0.25
	}
	pos := func(c floodCell) common.Vec2 {
		return opt.Start.Add(common.Vec2{float64(c.x), float64(c.y)}.Mul(opt.Spacing))
	}
	skip := func(p common.Vec2) bool {
		return opt.Skip != nil && opt.Skip(p)
	}

	startH := heights.HeightAt(opt.Start)
	if math.IsInf(startH, -1) || math.IsNaN(startH) {
		log.Debug("height flood: no terrain at start", zap.Float64s("start", opt.Start[:]))
		return nil
	}

	seen := map[floodCell]float64{{}: startH}
	queue := []floodCell{{}}
	var slivers []common.Polygon
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		h := seen[cur]
		p := pos(cur)
		for _, d := range floodDirs {
			next := floodCell{cur.x + d.x, cur.y + d.y}
			if _, ok := seen[next]; ok {
				continue
			}
			np := pos(next)
			if !opt.Bounds.Contains(np) || skip(np) {
				continue
			}
			nh := heights.HeightAt(np)
			if math.IsNaN(nh) || math.IsInf(nh, -1) || math.Abs(nh-h) > opt.TraversableHeight {
				slivers = append(slivers, sliver(p, np, opt.Spacing, thickness))
				continue
			}
			if opt.MaxCells > 0 && len(seen) >= opt.MaxCells {
				log.Warn("height flood: cell cap reached", zap.Int("cells", len(seen)))
				return slivers
			}
			seen[next] = nh
			queue = append(queue, next)
		}
	}
	log.Debug("height flood: done", zap.Int("cells", len(seen)), zap.Int("slivers", len(slivers)))
	return slivers
}

// sliver is a rectangle centered between a and b, thickness long along a->b and
// slightly longer than spacing across it so neighbouring slivers overlap.
func sliver(a, b common.Vec2, spacing, thickness float64) common.Polygon {
	mid := common.Vlerp(a, b, 0.5)
	along := common.VnormalizeSafe(b.Sub(a))
	across := common.Vec2{-along[1], along[0]}
	ha := along.Mul(thickness * 0.5)
	hc := across.Mul((spacing + thickness) * 0.5)
	poly := common.Polygon{
		mid.Sub(ha).Sub(hc),
		mid.Add(ha).Sub(hc),
		mid.Add(ha).Add(hc),
		mid.Sub(ha).Add(hc),
	}
	if common.IsClockwise(poly) {
		return poly.Reversed()
	}
	return poly
}
