package common

import "math"

// Polygon is an implicitly closed ring of points.
type Polygon []Vec2

// IsPointLeftOfLine returns true iff p is strictly to the left of the directed
// line through a to b.
func IsPointLeftOfLine(p, a, b Vec2) bool {
	return Orient2D(a, b, p) > 0
}

// IsPointRightOfLine returns true iff p is strictly to the right of the directed
// line through a to b.
func IsPointRightOfLine(p, a, b Vec2) bool {
	return Orient2D(a, b, p) < 0
}

func Left(a, b, c Vec2) bool {
	return Orient2D(a, b, c) > 0
}

func LeftOn(a, b, c Vec2) bool {
	return Orient2D(a, b, c) >= 0
}

func Collinear(a, b, c Vec2) bool {
	return Orient2D(a, b, c) == 0
}

// Exclusive or: true iff exactly one argument is true.
func Xorb(x, y bool) bool {
	return x != y
}

// Returns true iff ab properly intersects cd: they share
// a point interior to both segments.  The properness of the
// intersection is ensured by using strict leftness.
func IntersectProp(a, b, c, d Vec2) bool {
	// Eliminate improper cases.
	if Collinear(a, b, c) || Collinear(a, b, d) ||
		Collinear(c, d, a) || Collinear(c, d, b) {
		return false
	}
	return Xorb(Left(a, b, c), Left(a, b, d)) && Xorb(Left(c, d, a), Left(c, d, b))
}

// Returns T iff (a,b,c) are collinear and point c lies
// on the closed segement ab.
func Between(a, b, c Vec2) bool {
	if !Collinear(a, b, c) {
		return false
	}
	// If ab not vertical, check betweenness on x; else on y.
	if a[0] != b[0] {
		return ((a[0] <= c[0]) && (c[0] <= b[0])) || ((a[0] >= c[0]) && (c[0] >= b[0]))
	}
	return ((a[1] <= c[1]) && (c[1] <= b[1])) || ((a[1] >= c[1]) && (c[1] >= b[1]))
}

// SegmentsIntersect returns true iff segments ab and cd intersect, properly or improperly.
func SegmentsIntersect(a, b, c, d Vec2) bool {
	if IntersectProp(a, b, c, d) {
		return true
	}
	return Between(a, b, c) || Between(a, b, d) ||
		Between(c, d, a) || Between(c, d, b)
}

// PolygonArea returns the signed area, positive for counterclockwise rings.
func PolygonArea(poly Polygon) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	var area float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		area += poly[j][0]*poly[i][1] - poly[i][0]*poly[j][1]
	}
	return area * 0.5
}

// IsClockwise reports whether the ring winds clockwise. Rings with fewer than
// three points are never clockwise.
func IsClockwise(poly Polygon) bool {
	if len(poly) < 3 {
		return false
	}
	return PolygonArea(poly) < 0
}

// IsPointInsidePolygon applies the even-odd rule with a horizontal ray.
// Edges are half-open: a point on an edge shared by two polygons is claimed by
// exactly one of them away from the shared vertices.
func IsPointInsidePolygon(p Vec2, poly Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi[1] > p[1]) != (pj[1] > p[1]) {
			// 交点的x坐标
			x := (pj[0]-pi[0])*(p[1]-pi[1])/(pj[1]-pi[1]) + pi[0]
			if p[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// GetNearestPointOnLineSegment projects p onto segment ab, clamped to the segment.
func GetNearestPointOnLineSegment(p, a, b Vec2) Vec2 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / l2
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a.Add(ab.Mul(t))
}

// ComputeCenterOfPolygon returns the arithmetic mean of the vertices.
func ComputeCenterOfPolygon(poly Polygon) Vec2 {
	if len(poly) == 0 {
		return Vec2{}
	}
	var c Vec2
	for _, p := range poly {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(poly)))
}

// PolygonBounds returns the axis aligned bounds of the ring.
func PolygonBounds(poly Polygon) AABB {
	box := EmptyAABB()
	for _, p := range poly {
		box = box.AddPoint(p)
	}
	return box
}

// Reversed returns a copy of the ring with the opposite winding.
func (poly Polygon) Reversed() Polygon {
	out := make(Polygon, len(poly))
	for i, p := range poly {
		out[len(poly)-1-i] = p
	}
	return out
}

// Clone returns a copy of the ring.
func (poly Polygon) Clone() Polygon {
	return append(Polygon(nil), poly...)
}

// DistanceToPolygonEdge returns the distance from p to the nearest edge of the ring
// and the nearest point on it.
func DistanceToPolygonEdge(p Vec2, poly Polygon) (float64, Vec2) {
	best := math.Inf(1)
	var closest Vec2
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		q := GetNearestPointOnLineSegment(p, poly[j], poly[i])
		if d := VdistSqr(p, q); d < best {
			best = d
			closest = q
		}
	}
	return math.Sqrt(best), closest
}
