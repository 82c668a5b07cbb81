package bvh

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/gorustyt/planarnav/common"
)

// Overlaps tests two shapes for intersection. Touching boundaries count as overlap.
func Overlaps(a, b common.Shape) bool {
	if a.Kind > b.Kind {
		a, b = b, a
	}
	switch a.Kind {
	case common.ShapeAABB:
		switch b.Kind {
		case common.ShapeAABB:
			return a.AABB.Overlaps(b.AABB)
		case common.ShapeDisk:
			return diskBox(b.Disk, a.AABB)
		default:
			return polygonPolygon(a.AABB.Corners(), b.Polygon)
		}
	case common.ShapeDisk:
		switch b.Kind {
		case common.ShapeDisk:
			r := a.Disk.Radius + b.Disk.Radius
			return common.VdistSqr(a.Disk.Center, b.Disk.Center) <= r*r
		default:
			return diskPolygon(a.Disk, b.Polygon)
		}
	default:
		return polygonPolygon(a.Polygon, b.Polygon)
	}
}

func diskBox(d common.Disk, b common.AABB) bool {
	return common.VdistSqr(d.Center, b.ClosestPoint(d.Center)) <= d.Radius*d.Radius
}

func diskPolygon(d common.Disk, poly common.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	if len(poly) >= 3 && common.IsPointInsidePolygon(d.Center, poly) {
		return true
	}
	dist, _ := common.DistanceToPolygonEdge(d.Center, poly)
	return dist <= d.Radius
}

func polygonPolygon(a, b common.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if !common.PolygonBounds(a).Overlaps(common.PolygonBounds(b)) {
		return false
	}
	for i := range a {
		a0, a1 := a[i], a[common.Next(i, len(a))]
		for j := range b {
			if common.SegmentsIntersect(a0, a1, b[j], b[common.Next(j, len(b))]) {
				return true
			}
		}
	}
	// 边不相交时只可能是包含关系
	if len(b) >= 3 && common.IsPointInsidePolygon(a[0], b) {
		return true
	}
	return len(a) >= 3 && common.IsPointInsidePolygon(b[0], a)
}

// Distance returns the distance from p to the shape and the closest point on it.
// Points inside the shape are at distance 0 and are their own closest point.
func Distance(p common.Vec2, s common.Shape) (float64, common.Vec2) {
	switch s.Kind {
	case common.ShapeAABB:
		c := s.AABB.ClosestPoint(p)
		return common.Vdist(p, c), c
	case common.ShapeDisk:
		d := common.Vdist(p, s.Disk.Center)
		if d <= s.Disk.Radius {
			return 0, p
		}
		dir := p.Sub(s.Disk.Center).Mul(1 / d)
		return d - s.Disk.Radius, s.Disk.Center.Add(dir.Mul(s.Disk.Radius))
	default:
		if len(s.Polygon) == 0 {
			return math.Inf(1), p
		}
		if len(s.Polygon) >= 3 && common.IsPointInsidePolygon(p, s.Polygon) {
			return 0, p
		}
		return common.DistanceToPolygonEdge(p, s.Polygon)
	}
}

// RaycastShape returns the distance along the unit direction dir at which the
// ray from origin first touches s, limited to maxDist. A ray starting inside
// the shape hits at 0.
func RaycastShape(origin, dir common.Vec2, maxDist float64, s common.Shape) (float64, bool) {
	switch s.Kind {
	case common.ShapeAABB:
		return rayBox(origin, dir, toRect(s.AABB), maxDist)
	case common.ShapeDisk:
		return rayDisk(origin, dir, s.Disk, maxDist)
	default:
		return rayPolygon(origin, dir, s.Polygon, maxDist)
	}
}

func rayBox(o, dir common.Vec2, box r2.Rect, maxDist float64) (float64, bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin, tmax := 0.0, maxDist
	lo, hi := box.Lo(), box.Hi()
	origin := [2]float64{o[0], o[1]}
	bmin := [2]float64{lo.X, lo.Y}
	bmax := [2]float64{hi.X, hi.Y}
	for i := 0; i < 2; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < bmin[i] || origin[i] > bmax[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (bmin[i] - origin[i]) * inv
		t2 := (bmax[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

func rayDisk(o, dir common.Vec2, d common.Disk, maxDist float64) (float64, bool) {
	m := o.Sub(d.Center)
	c := m.Dot(m) - d.Radius*d.Radius
	if c <= 0 {
		return 0, true
	}
	b := m.Dot(dir)
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t > maxDist {
		return 0, false
	}
	return max(t, 0), true
}

func rayPolygon(o, dir common.Vec2, poly common.Polygon, maxDist float64) (float64, bool) {
	if len(poly) >= 3 && common.IsPointInsidePolygon(o, poly) {
		return 0, true
	}
	best, hit := maxDist, false
	for i := range poly {
		a, b := poly[i], poly[common.Next(i, len(poly))]
		s := b.Sub(a)
		denom := common.Vperp(dir, s)
		if math.Abs(denom) < 1e-12 {
			continue
		}
		ao := a.Sub(o)
		t := common.Vperp(ao, s) / denom
		u := common.Vperp(ao, dir) / denom
		if t >= 0 && t <= best && u >= 0 && u <= 1 {
			best, hit = t, true
		}
	}
	return best, hit
}

func toRect(b common.AABB) r2.Rect {
	if b.IsEmpty() {
		return r2.EmptyRect()
	}
	return r2.RectFromPoints(r2.Point{X: b.Min[0], Y: b.Min[1]}, r2.Point{X: b.Max[0], Y: b.Max[1]})
}

func fromRect(r r2.Rect) common.AABB {
	if r.IsEmpty() {
		return common.EmptyAABB()
	}
	lo, hi := r.Lo(), r.Hi()
	return common.AABB{Min: common.Vec2{lo.X, lo.Y}, Max: common.Vec2{hi.X, hi.Y}}
}

func perimeter(r r2.Rect) float64 {
	if r.IsEmpty() {
		return 0
	}
	s := r.Size()
	return 2 * (s.X + s.Y)
}
