package debug_utils

import (
	"github.com/gorustyt/planarnav/common"
)

type DuDebugCategory uint8

const (
	DU_DRAW_NAVMESH DuDebugCategory = iota
	DU_DRAW_PATH
	DU_DRAW_FLOW_FIELD
	DU_DRAW_BVH
	DU_DRAW_AVOIDANCE
	DU_DRAW_CATEGORY_COUNT
)

var categoryNames = [DU_DRAW_CATEGORY_COUNT]string{"navmesh", "path", "flow_field", "bvh", "avoidance"}

func (c DuDebugCategory) String() string {
	if c < DU_DRAW_CATEGORY_COUNT {
		return categoryNames[c]
	}
	return "unknown"
}

// ParseCategory maps a category name back to its value.
func ParseCategory(name string) (DuDebugCategory, bool) {
	for i, n := range categoryNames {
		if n == name {
			return DuDebugCategory(i), true
		}
	}
	return 0, false
}

// Visibility is one bit per category; the zero value hides everything.
type Visibility uint32

const AllVisible Visibility = 1<<DU_DRAW_CATEGORY_COUNT - 1

func (v Visibility) Visible(c DuDebugCategory) bool { return v&(1<<c) != 0 }

func (v *Visibility) Set(c DuDebugCategory, on bool) {
	if on {
		*v |= 1 << c
	} else {
		*v &^= 1 << c
	}
}

func (v *Visibility) Toggle(c DuDebugCategory) { *v ^= 1 << c }

// DuDebugDraw receives debug primitives in world plane coordinates.
type DuDebugDraw interface {
	Line(cat DuDebugCategory, a, b common.Vec2, color Colorb)
	Circle(cat DuDebugCategory, center common.Vec2, radius float64, color Colorb)
}

type DuLine struct {
	Cat   DuDebugCategory
	A, B  common.Vec2
	Color Colorb
}

type DuCircle struct {
	Cat    DuDebugCategory
	Center common.Vec2
	Radius float64
	Color  Colorb
}

// DuDisplayList records primitives so they can be counted, inspected or
// replayed into another sink later.
type DuDisplayList struct {
	Lines   []DuLine
	Circles []DuCircle
}

func NewDuDisplayList(cap int) *DuDisplayList {
	if cap < 8 {
		cap = 8
	}
	return &DuDisplayList{Lines: make([]DuLine, 0, cap)}
}

func (d *DuDisplayList) Line(cat DuDebugCategory, a, b common.Vec2, color Colorb) {
	d.Lines = append(d.Lines, DuLine{Cat: cat, A: a, B: b, Color: color})
}

func (d *DuDisplayList) Circle(cat DuDebugCategory, center common.Vec2, radius float64, color Colorb) {
	d.Circles = append(d.Circles, DuCircle{Cat: cat, Center: center, Radius: radius, Color: color})
}

func (d *DuDisplayList) Clear() {
	d.Lines = d.Lines[:0]
	d.Circles = d.Circles[:0]
}

// Count returns how many primitives of cat were recorded.
func (d *DuDisplayList) Count(cat DuDebugCategory) int {
	n := 0
	for i := range d.Lines {
		if d.Lines[i].Cat == cat {
			n++
		}
	}
	for i := range d.Circles {
		if d.Circles[i].Cat == cat {
			n++
		}
	}
	return n
}

func (d *DuDisplayList) Bounds() common.AABB {
	b := common.EmptyAABB()
	for _, l := range d.Lines {
		b = b.AddPoint(l.A).AddPoint(l.B)
	}
	for _, c := range d.Circles {
		b = b.Union(common.Disk{Center: c.Center, Radius: c.Radius}.Bounds())
	}
	return b
}

// Draw replays the list into dd, dropping hidden categories.
func (d *DuDisplayList) Draw(dd DuDebugDraw, vis Visibility) {
	if dd == nil {
		return
	}
	for _, l := range d.Lines {
		if vis.Visible(l.Cat) {
			dd.Line(l.Cat, l.A, l.B, l.Color)
		}
	}
	for _, c := range d.Circles {
		if vis.Visible(c.Cat) {
			dd.Circle(c.Cat, c.Center, c.Radius, c.Color)
		}
	}
}

func DuAppendArrow(dd DuDebugDraw, cat DuDebugCategory, a, b common.Vec2, head float64, col Colorb) {
	dd.Line(cat, a, b, col)
	dir := common.VnormalizeSafe(b.Sub(a))
	if dir == (common.Vec2{}) || head <= 0 {
		return
	}
	side := common.Vec2{-dir[1], dir[0]}
	back := b.Sub(dir.Mul(head))
	dd.Line(cat, b, back.Add(side.Mul(head*0.5)), col)
	dd.Line(cat, b, back.Sub(side.Mul(head*0.5)), col)
}

func DuAppendBoxWire(dd DuDebugDraw, cat DuDebugCategory, box common.AABB, col Colorb) {
	c := box.Corners()
	for i := range c {
		dd.Line(cat, c[i], c[(i+1)%len(c)], col)
	}
}

func DuAppendCross(dd DuDebugDraw, cat DuDebugCategory, p common.Vec2, size float64, col Colorb) {
	dd.Line(cat, p.Sub(common.Vec2{size, size}), p.Add(common.Vec2{size, size}), col)
	dd.Line(cat, p.Sub(common.Vec2{size, -size}), p.Add(common.Vec2{size, -size}), col)
}

func DuAppendPolygon(dd DuDebugDraw, cat DuDebugCategory, poly common.Polygon, col Colorb) {
	for i := range poly {
		dd.Line(cat, poly[i], poly[(i+1)%len(poly)], col)
	}
}

// DuAppendShape outlines a collider shape.
func DuAppendShape(dd DuDebugDraw, cat DuDebugCategory, s common.Shape, col Colorb) {
	switch s.Kind {
	case common.ShapeAABB:
		DuAppendBoxWire(dd, cat, s.AABB, col)
	case common.ShapeDisk:
		dd.Circle(cat, s.Disk.Center, s.Disk.Radius, col)
	default:
		DuAppendPolygon(dd, cat, s.Polygon, col)
	}
}
