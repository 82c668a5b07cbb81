package common

import "math"

type ShapeKind uint8

const (
	ShapeAABB ShapeKind = iota
	ShapeDisk
	ShapePolygon
	ShapeKindCount
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeAABB:
		return "aabb"
	case ShapeDisk:
		return "disk"
	case ShapePolygon:
		return "polygon"
	}
	return "unknown"
}

// AABB is an axis aligned box. Min > Max on any axis means empty.
type AABB struct {
	Min Vec2 `yaml:"min"`
	Max Vec2 `yaml:"max"`
}

func EmptyAABB() AABB {
	return AABB{
		Min: Vec2{math.Inf(1), math.Inf(1)},
		Max: Vec2{math.Inf(-1), math.Inf(-1)},
	}
}

func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1]
}

func (b AABB) AddPoint(p Vec2) AABB {
	return AABB{
		Min: Vec2{min(b.Min[0], p[0]), min(b.Min[1], p[1])},
		Max: Vec2{max(b.Max[0], p[0]), max(b.Max[1], p[1])},
	}
}

func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vec2{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1])},
		Max: Vec2{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1])},
	}
}

func (b AABB) Overlaps(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1]
}

func (b AABB) Contains(p Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b AABB) Center() Vec2 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() Vec2 {
	return b.Max.Sub(b.Min)
}

func (b AABB) Expand(margin float64) AABB {
	return AABB{Min: b.Min.Sub(Vec2{margin, margin}), Max: b.Max.Add(Vec2{margin, margin})}
}

// Corners returns the box as a counterclockwise ring.
func (b AABB) Corners() Polygon {
	return Polygon{b.Min, {b.Max[0], b.Min[1]}, b.Max, {b.Min[0], b.Max[1]}}
}

// ClosestPoint clamps p into the box.
func (b AABB) ClosestPoint(p Vec2) Vec2 {
	return Vec2{Clamp(p[0], b.Min[0], b.Max[0]), Clamp(p[1], b.Min[1], b.Max[1])}
}

type Disk struct {
	Center Vec2    `yaml:"center"`
	Radius float64 `yaml:"radius"`
}

func (d Disk) Bounds() AABB {
	r := Vec2{d.Radius, d.Radius}
	return AABB{Min: d.Center.Sub(r), Max: d.Center.Add(r)}
}

// ToPolygon approximates the disk with a counterclockwise regular polygon whose
// edges stay outside the circle.
func (d Disk) ToPolygon(segments int) Polygon {
	if segments < 3 {
		segments = 3
	}
	// 外接多边形，保证圆完全在多边形内
	r := d.Radius / math.Cos(math.Pi/float64(segments))
	out := make(Polygon, segments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(segments)
		out[i] = d.Center.Add(Vec2{math.Cos(a) * r, math.Sin(a) * r})
	}
	return out
}

// Shape is a tagged union over the three collider kinds.
type Shape struct {
	Kind    ShapeKind
	AABB    AABB
	Disk    Disk
	Polygon Polygon
}

func BoxShape(b AABB) Shape        { return Shape{Kind: ShapeAABB, AABB: b} }
func DiskShape(d Disk) Shape       { return Shape{Kind: ShapeDisk, Disk: d} }
func PolygonShape(p Polygon) Shape { return Shape{Kind: ShapePolygon, Polygon: p} }

func (s Shape) Bounds() AABB {
	switch s.Kind {
	case ShapeAABB:
		return s.AABB
	case ShapeDisk:
		return s.Disk.Bounds()
	default:
		return PolygonBounds(s.Polygon)
	}
}

func (s Shape) Center() Vec2 {
	switch s.Kind {
	case ShapeAABB:
		return s.AABB.Center()
	case ShapeDisk:
		return s.Disk.Center
	default:
		return ComputeCenterOfPolygon(s.Polygon)
	}
}

// ToPolygon converts the shape into a ring; disks use the given segment count.
func (s Shape) ToPolygon(diskSegments int) Polygon {
	switch s.Kind {
	case ShapeAABB:
		return s.AABB.Corners()
	case ShapeDisk:
		return s.Disk.ToPolygon(diskSegments)
	default:
		return s.Polygon.Clone()
	}
}
