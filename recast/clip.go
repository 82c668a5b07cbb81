package recast

import (
	"math"

	polyclip "github.com/ctessum/polyclip-go"
	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
)

// ClipOptions tunes the boolean cleanup of walkable and obstacle polygons.
type ClipOptions struct {
	// Coordinates are rounded to multiples of SnapPrecision before clipping.
	SnapPrecision float64
	// Output contours with a smaller absolute area are dropped.
	MinArea float64
	Log     *zap.Logger
}

func (o ClipOptions) logger() *zap.Logger {
	return logger.OrNop(o.Log)
}

func (o ClipOptions) snap(v float64) float64 {
	if o.SnapPrecision <= 0 {
		return v
	}
	return math.Round(v/o.SnapPrecision) * o.SnapPrecision
}

// ClipPolygons returns the walkable area minus the obstacle area as a list of
// simple contours. Each input set is unioned first so overlaps inside a set are
// resolved. Outer contours wind counterclockwise and holes clockwise, so the
// signed areas of the result add up to the walkable area.
func ClipPolygons(walkable, obstacles []common.Polygon, opt ClipOptions) []common.Polygon {
	log := opt.logger()
	walk := unionAll(walkable, opt)
	if len(walk) == 0 {
		log.Debug("clip: no walkable area, nothing to triangulate",
			zap.Int("walkable", len(walkable)), zap.Int("obstacles", len(obstacles)))
		return nil
	}
	obs := unionAll(obstacles, opt)
	result := walk
	if len(obs) > 0 {
		result = walk.Construct(polyclip.DIFFERENCE, obs)
	}
	out := cleanContours(result, opt)
	if len(out) == 0 {
		log.Debug("clip: obstacles cover the walkable area, nothing to triangulate")
	}
	return out
}

// ClipToRegion intersects the union of polys with box.
func ClipToRegion(polys []common.Polygon, box common.AABB, opt ClipOptions) []common.Polygon {
	if box.IsEmpty() {
		return nil
	}
	all := unionAll(polys, opt)
	if len(all) == 0 {
		return nil
	}
	region := toClip([]common.Polygon{box.Corners()}, opt)
	return cleanContours(all.Construct(polyclip.INTERSECTION, region), opt)
}

func toClip(polys []common.Polygon, opt ClipOptions) polyclip.Polygon {
	out := make(polyclip.Polygon, 0, len(polys))
	for _, p := range polys {
		c := make(polyclip.Contour, 0, len(p))
		for _, v := range p {
			pt := polyclip.Point{X: opt.snap(v[0]), Y: opt.snap(v[1])}
			if len(c) > 0 && c[len(c)-1] == pt {
				continue
			}
			c = append(c, pt)
		}
		for len(c) > 1 && c[0] == c[len(c)-1] {
			c = c[:len(c)-1]
		}
		out = append(out, c)
	}
	return out
}

// unionAll merges every valid polygon of the set, one at a time.
func unionAll(polys []common.Polygon, opt ClipOptions) polyclip.Polygon {
	var acc polyclip.Polygon
	for i, p := range polys {
		c := toClip([]common.Polygon{p}, opt)
		if !validContour(c[0]) {
			opt.logger().Debug("clip: skipping degenerate polygon", zap.Int("index", i), zap.Int("points", len(p)))
			continue
		}
		if acc == nil {
			acc = c
			continue
		}
		acc = acc.Construct(polyclip.UNION, c)
	}
	return acc
}

func validContour(c polyclip.Contour) bool {
	if len(c) < 3 {
		return false
	}
	return math.Abs(common.PolygonArea(fromContour(c))) > 0
}

func fromContour(c polyclip.Contour) common.Polygon {
	out := make(common.Polygon, 0, len(c))
	for _, p := range c {
		out = append(out, common.Vec2{p.X, p.Y})
	}
	return out
}

// cleanContours drops repeated and collinear vertices and slivers, then fixes
// winding from the nesting depth of each contour.
func cleanContours(poly polyclip.Polygon, opt ClipOptions) []common.Polygon {
	out := make([]common.Polygon, 0, len(poly))
	for _, c := range poly {
		p := simplifyRing(fromContour(c))
		if len(p) < 3 || math.Abs(common.PolygonArea(p)) <= opt.MinArea {
			continue
		}
		out = append(out, p)
	}
	for i, p := range out {
		depth := 0
		for j, o := range out {
			if i != j && contourInside(p, o) {
				depth++
			}
		}
		hole := depth%2 == 1
		if hole != common.IsClockwise(p) {
			out[i] = p.Reversed()
		}
	}
	return out
}

func simplifyRing(p common.Polygon) common.Polygon {
	changed := true
	for changed && len(p) >= 3 {
		changed = false
		n := len(p)
		out := make(common.Polygon, 0, n)
		for i := 0; i < n; i++ {
			prev := p[common.Prev(i, n)]
			cur := p[i]
			next := p[common.Next(i, n)]
			if cur == prev || common.Collinear(prev, cur, next) {
				changed = true
				continue
			}
			out = append(out, cur)
		}
		if changed {
			p = out
		}
	}
	return p
}

// contourInside reports whether ring p lies inside ring o, judged by the first
// vertex of p that is not on the boundary of o.
func contourInside(p, o common.Polygon) bool {
	for _, v := range p {
		if d, _ := common.DistanceToPolygonEdge(v, o); d < 1e-12 {
			continue
		}
		return common.IsPointInsidePolygon(v, o)
	}
	return false
}
