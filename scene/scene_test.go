package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/planarnav/common"
)

func TestTransformApply(t *testing.T) {
	tf := Transform{Position: common.V2(1, 2), Rotation: math.Pi / 2, Scale: common.V2(2, 2)}
	p := tf.Apply(common.V2(1, 0))
	assert.InDelta(t, 1.0, p[0], 1e-12)
	assert.InDelta(t, 4.0, p[1], 1e-12)
	assert.Equal(t, common.V2(3, 3), Translation(common.V2(2, 2)).Apply(common.V2(1, 1)))
}

func TestWorldShape(t *testing.T) {
	box := common.BoxShape(common.AABB{Min: common.V2(-1, -1), Max: common.V2(1, 1)})
	w := WorldShape(box, Transform{Position: common.V2(5, 5)})
	require.Equal(t, common.ShapeAABB, w.Kind)
	assert.Equal(t, common.V2(4, 4), w.AABB.Min)
	assert.Equal(t, common.V2(6, 6), w.AABB.Max)

	w = WorldShape(box, Transform{Position: common.V2(5, 5), Rotation: math.Pi / 4})
	b := w.Bounds()
	assert.InDelta(t, 5-math.Sqrt2, b.Min[0], 1e-9)
	assert.InDelta(t, 5+math.Sqrt2, b.Max[1], 1e-9)

	disk := common.DiskShape(common.Disk{Radius: 1})
	w = WorldShape(disk, Transform{Position: common.V2(2, 0), Scale: common.V2(1, 3)})
	assert.Equal(t, 3.0, w.Disk.Radius)
	assert.Equal(t, common.V2(2, 0), w.Disk.Center)
}

func TestWorldShapeRotatedBox(t *testing.T) {
	box := common.BoxShape(common.AABB{Min: common.V2(-1, -1), Max: common.V2(1, 1)})
	w := WorldShape(box, Transform{Position: common.V2(5, 5), Rotation: math.Pi / 4})
	require.Equal(t, common.ShapePolygon, w.Kind)
	require.Len(t, w.Polygon, 4)
	// 旋转不改变面积，外包盒的面积是 8
	assert.InDelta(t, 4, common.PolygonArea(w.Polygon), 1e-9)
	assert.True(t, common.IsPointInsidePolygon(common.V2(5, 5), w.Polygon))
	assert.False(t, common.IsPointInsidePolygon(common.V2(4.1, 4.1), w.Polygon), "corner of the old bounding box")

	// 镜像缩放仍然得到逆时针的环
	w = WorldShape(box, Transform{Rotation: math.Pi / 6, Scale: common.V2(-2, 1)})
	assert.InDelta(t, 8, common.PolygonArea(w.Polygon), 1e-9)
}

func TestMemoryIteratesByLayerAndKind(t *testing.T) {
	m := NewMemory()
	a := m.Add(LayerTerrain, common.BoxShape(common.AABB{Max: common.V2(1, 1)}), Transform{})
	b := m.Add(LayerStaticObstacle, common.DiskShape(common.Disk{Radius: 1}), Transform{})
	m.Add(LayerTerrain, common.DiskShape(common.Disk{Radius: 1}), Transform{})

	var ids []EntityID
	m.EachShape(common.ShapeAABB, LayerTerrain, func(id EntityID, _ common.Shape, _ Transform) {
		ids = append(ids, id)
	})
	assert.Equal(t, []EntityID{a}, ids)

	require.True(t, m.SetPosition(b, common.V2(3, 3)))
	p, ok := m.Position(b)
	require.True(t, ok)
	assert.Equal(t, common.V2(3, 3), p)

	require.True(t, m.Remove(b))
	_, ok = m.Position(b)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestHeightmap(t *testing.T) {
	h := NewHeightmap(common.V2(0, 0), 1, 3, 3)
	h.Set(1, 0, 2)
	assert.InDelta(t, 1.0, h.HeightAt(common.V2(0.5, 0)), 1e-12)
	assert.True(t, math.IsInf(h.HeightAt(common.V2(-1, 0)), -1))
	h.Set(2, 2, math.NaN())
	assert.True(t, math.IsInf(h.HeightAt(common.V2(1.5, 1.5)), -1))
}

func TestParseFile(t *testing.T) {
	f, err := Parse([]byte(`
entities:
  - layer: terrain
    aabb: {min: [0, 0], max: [10, 10]}
  - layer: static_obstacle
    polygon: [[4, 4], [6, 4], [6, 6], [4, 6]]
  - layer: character
    disk: {center: [0, 0], radius: 0.5}
    position: [1, 5]
agents:
  - position: [1, 5]
    radius: 0.5
    speed: 2
    target: [9, 5]
`))
	require.NoError(t, err)
	m, err := f.Build()
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	require.Len(t, f.Agents, 1)
	assert.Equal(t, common.V2(9, 5), *f.Agents[0].Target)

	p, ok := m.Position(3)
	require.True(t, ok)
	assert.Equal(t, common.V2(1, 5), p)

	_, err = Parse([]byte("entities:\n  - layer: lava\n"))
	assert.Error(t, err)
}

func TestBuildRejectsAmbiguousEntity(t *testing.T) {
	f := &File{Entities: []EntitySpec{{Layer: LayerTerrain}}}
	_, err := f.Build()
	assert.Error(t, err)
}
