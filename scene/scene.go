package scene

import (
	"fmt"
	"math"

	"github.com/gorustyt/planarnav/common"
)

type EntityID uint32

const InvalidEntity EntityID = 0

type Layer uint8

const (
	LayerNone Layer = iota
	LayerTerrain
	LayerStaticObstacle
	LayerCharacter
)

var layerNames = map[Layer]string{
	LayerNone:           "none",
	LayerTerrain:        "terrain",
	LayerStaticObstacle: "static_obstacle",
	LayerCharacter:      "character",
}

func (l Layer) String() string {
	if s, ok := layerNames[l]; ok {
		return s
	}
	return fmt.Sprintf("layer(%d)", uint8(l))
}

func (l *Layer) UnmarshalText(text []byte) error {
	for k, v := range layerNames {
		if v == string(text) {
			*l = k
			return nil
		}
	}
	return fmt.Errorf("unknown collision layer %q", text)
}

func (l Layer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Transform maps local shape space into the world plane. A zero Scale means unit scale.
type Transform struct {
	Position common.Vec2 `yaml:"position"`
	Rotation float64     `yaml:"rotation"`
	Scale    common.Vec2 `yaml:"scale"`
}

func Translation(p common.Vec2) Transform {
	return Transform{Position: p}
}

func (t Transform) scale() common.Vec2 {
	if t.Scale == (common.Vec2{}) {
		return common.Vec2{1, 1}
	}
	return t.Scale
}

func (t Transform) Apply(p common.Vec2) common.Vec2 {
	s := t.scale()
	x, y := p[0]*s[0], p[1]*s[1]
	if t.Rotation != 0 {
		sin, cos := math.Sincos(t.Rotation)
		x, y = x*cos-y*sin, x*sin+y*cos
	}
	return common.Vec2{x + t.Position[0], y + t.Position[1]}
}

// WorldShape converts a local shape into world space. A rotated box becomes
// the CCW polygon of its rotated corners; disks scale by the larger scale axis.
func WorldShape(local common.Shape, tf Transform) common.Shape {
	switch local.Kind {
	case common.ShapeAABB:
		if tf.Rotation != 0 {
			return common.PolygonShape(worldRing(local.AABB.Corners(), tf))
		}
		box := common.EmptyAABB()
		for _, c := range local.AABB.Corners() {
			box = box.AddPoint(tf.Apply(c))
		}
		return common.BoxShape(box)
	case common.ShapeDisk:
		s := tf.scale()
		r := local.Disk.Radius * max(math.Abs(s[0]), math.Abs(s[1]))
		return common.DiskShape(common.Disk{Center: tf.Apply(local.Disk.Center), Radius: r})
	default:
		out := make(common.Polygon, len(local.Polygon))
		for i, p := range local.Polygon {
			out[i] = tf.Apply(p)
		}
		return common.PolygonShape(out)
	}
}

// worldRing transforms ring and keeps it counterclockwise under mirroring scales.
func worldRing(ring common.Polygon, tf Transform) common.Polygon {
	out := make(common.Polygon, len(ring))
	for i, p := range ring {
		out[i] = tf.Apply(p)
	}
	if common.PolygonArea(out) < 0 {
		return out.Reversed()
	}
	return out
}

// Source enumerates collider components of the host scene.
type Source interface {
	// EachShape calls fn for every entity carrying a collider of the given kind on layer.
	EachShape(kind common.ShapeKind, layer Layer, fn func(id EntityID, local common.Shape, tf Transform))
	// Shape looks up a single entity. ok is false once the entity or its collider is gone.
	Shape(id EntityID) (local common.Shape, tf Transform, layer Layer, ok bool)
}

// HeightSampler returns the terrain height at a planar position, or -Inf where
// there is no terrain.
type HeightSampler interface {
	HeightAt(p common.Vec2) float64
}

type HeightFunc func(p common.Vec2) float64

func (f HeightFunc) HeightAt(p common.Vec2) float64 { return f(p) }

// Positions resolves entity references to their current planar position.
type Positions interface {
	Position(id EntityID) (common.Vec2, bool)
}

// WorldShapeOf fetches and converts an entity shape in one step.
func WorldShapeOf(src Source, id EntityID) (common.Shape, bool) {
	local, tf, _, ok := src.Shape(id)
	if !ok {
		return common.Shape{}, false
	}
	return WorldShape(local, tf), true
}
