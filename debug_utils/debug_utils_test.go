package debug_utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/planarnav/bvh"
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/rw"
	"github.com/gorustyt/planarnav/config"
	"github.com/gorustyt/planarnav/detour_crowd"
	"github.com/gorustyt/planarnav/recast"
	"github.com/gorustyt/planarnav/scene"
)

// unit square split along its diagonal
func squareMesh() *recast.TriMesh {
	return &recast.TriMesh{
		Verts:     []common.Vec2{common.V2(0, 0), common.V2(1, 0), common.V2(1, 1), common.V2(0, 1)},
		Tris:      [][3]int{{0, 1, 2}, {0, 2, 3}},
		Neighbors: [][3]int{{-1, -1, 1}, {0, -1, -1}},
	}
}

func TestVisibility(t *testing.T) {
	var v Visibility
	for c := DuDebugCategory(0); c < DU_DRAW_CATEGORY_COUNT; c++ {
		assert.False(t, v.Visible(c))
		assert.True(t, AllVisible.Visible(c))
		got, ok := ParseCategory(c.String())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
	v.Set(DU_DRAW_BVH, true)
	assert.True(t, v.Visible(DU_DRAW_BVH))
	assert.False(t, v.Visible(DU_DRAW_PATH))
	v.Toggle(DU_DRAW_BVH)
	assert.False(t, v.Visible(DU_DRAW_BVH))
	v = AllVisible
	v.Set(DU_DRAW_NAVMESH, false)
	assert.False(t, v.Visible(DU_DRAW_NAVMESH))
	assert.True(t, v.Visible(DU_DRAW_AVOIDANCE))

	_, ok := ParseCategory("nope")
	assert.False(t, ok)
}

func TestDrawNavMesh(t *testing.T) {
	dl := NewDuDisplayList(0)
	DuDebugDrawNavMesh(dl, 0, squareMesh())
	DuDebugDrawNavMesh(dl, AllVisible, &recast.TriMesh{})
	DuDebugDrawNavMesh(nil, AllVisible, squareMesh())
	assert.Empty(t, dl.Lines, "hidden category draws nothing")

	DuDebugDrawNavMesh(dl, AllVisible, squareMesh())
	assert.Equal(t, 5, dl.Count(DU_DRAW_NAVMESH), "4 boundary edges and the shared diagonal once")
	b := dl.Bounds()
	assert.Equal(t, common.V2(0, 0), b.Min)
	assert.Equal(t, common.V2(1, 1), b.Max)

	dl.Clear()
	DuDebugDrawPolygons(dl, AllVisible, []common.Polygon{squareMesh().Triangle(0)})
	assert.Equal(t, 3, dl.Count(DU_DRAW_NAVMESH))
}

func TestDrawPathAndReplay(t *testing.T) {
	dl := NewDuDisplayList(0)
	path := []common.Vec2{common.V2(0, 0), common.V2(1, 0), common.V2(1, 1)}
	DuDebugDrawPath(dl, AllVisible, path)
	DuDebugDrawNavMesh(dl, AllVisible, squareMesh())
	assert.Equal(t, 5, dl.Count(DU_DRAW_PATH))

	var only Visibility
	only.Set(DU_DRAW_PATH, true)
	replay := NewDuDisplayList(0)
	dl.Draw(replay, only)
	assert.Equal(t, 5, replay.Count(DU_DRAW_PATH))
	assert.Equal(t, 0, replay.Count(DU_DRAW_NAVMESH))
	assert.Len(t, replay.Lines, 2)
	assert.Len(t, replay.Circles, 3)
}

func TestDrawBVH(t *testing.T) {
	mem := scene.NewMemory()
	for i := 0; i < 3; i++ {
		x := float64(i) * 3
		mem.Add(scene.LayerStaticObstacle, common.BoxShape(common.AABB{Min: common.V2(x, 0), Max: common.V2(x+1, 1)}), scene.Transform{})
	}
	tree := bvh.New(scene.LayerStaticObstacle, config.BVHConfig{MaxLeafShapes: 1, SplitCandidates: 8}, nil)
	tree.Build(mem)
	require.Len(t, tree.Nodes(), 5)

	dl := NewDuDisplayList(0)
	DuDebugDrawBVH(dl, AllVisible, tree)
	assert.Equal(t, 4*len(tree.Nodes()), dl.Count(DU_DRAW_BVH))

	dl.Clear()
	DuDebugDrawBVH(dl, AllVisible, bvh.New(scene.LayerStaticObstacle, config.BVHConfig{}, nil))
	DuDebugDrawBVH(dl, AllVisible, nil)
	assert.Empty(t, dl.Lines)
}

func TestDrawFlowFieldAndAgent(t *testing.T) {
	f := detour_crowd.NewFlowField(common.V2(0, 0), 1, 1, 64, nil)
	require.Equal(t, 3, f.Size)
	corner := f.CellCenter(0, 0)
	f.Build(func(b common.AABB) bool { return b.Contains(corner) })

	dl := NewDuDisplayList(0)
	DuDebugDrawFlowField(dl, AllVisible, f)
	// 7 arrows of 3 lines, 1 cross of 2 lines, the target marker
	assert.Len(t, dl.Lines, 7*3+2)
	assert.Len(t, dl.Circles, 1)

	a := &detour_crowd.Agent{
		Position: common.V2(0, 0), Radius: 0.5, Velocity: common.V2(1, 0),
		Path: []common.Vec2{common.V2(2, 0), common.V2(2, 2)},
	}
	dl.Clear()
	DuDebugDrawAgent(dl, AllVisible, a, 3)
	assert.Equal(t, 1+3+2+3, dl.Count(DU_DRAW_PATH))
	assert.Equal(t, 1, dl.Count(DU_DRAW_AVOIDANCE))

	var noPath Visibility
	noPath.Set(DU_DRAW_AVOIDANCE, true)
	dl.Clear()
	DuDebugDrawAgent(dl, noPath, a, 3)
	assert.Equal(t, 0, dl.Count(DU_DRAW_PATH))
	require.Len(t, dl.Circles, 1)
	assert.InDelta(t, 1.5, dl.Circles[0].Radius, 1e-12)
}

func TestNavMeshProtoRoundTrip(t *testing.T) {
	mesh := squareMesh()
	polys := []common.Polygon{{common.V2(0, 0), common.V2(1, 0), common.V2(1, 1), common.V2(0, 1)}}
	data, err := EncodeNavMesh(mesh, polys)
	require.NoError(t, err)

	got, gotPolys, err := DecodeNavMesh(data)
	require.NoError(t, err)
	assert.Equal(t, mesh, got)
	assert.Equal(t, polys, gotPolys)

	data, err = EncodeNavMesh(nil, nil)
	require.NoError(t, err)
	got, gotPolys, err = DecodeNavMesh(data)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Empty(t, gotPolys)

	_, _, err = DecodeNavMesh([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)

	bad := squareMesh()
	bad.Tris[1][2] = 9
	data, err = EncodeNavMesh(bad, nil)
	require.NoError(t, err)
	_, _, err = DecodeNavMesh(data)
	assert.ErrorIs(t, err, ErrBadDump)
}

func TestNavMeshBinRoundTrip(t *testing.T) {
	mesh := squareMesh()
	data := EncodeNavMeshBin(mesh)
	got, err := DecodeNavMeshBin(data)
	require.NoError(t, err)
	assert.Equal(t, mesh, got)

	_, err = DecodeNavMeshBin(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrBadDump)
	assert.True(t, errors.Is(err, rw.ErrShortRead))

	_, err = DecodeNavMeshBin([]byte("nope nope nope"))
	assert.ErrorIs(t, err, ErrBadDump)
}

func TestDumpObj(t *testing.T) {
	w := rw.NewBinWriter()
	require.True(t, DuDumpNavMeshToObj(squareMesh(), w))
	out := string(w.GetWriteBytes())
	assert.Equal(t, 4, strings.Count(out, "\nv "))
	assert.Contains(t, out, "v 1.000000 0 1.000000\n")
	assert.Contains(t, out, "f 1 3 4\n")
	assert.False(t, DuDumpNavMeshToObj(squareMesh(), nil))
}

func TestColors(t *testing.T) {
	a, b := DuRGBA(0, 100, 200, 255), DuRGBA(200, 0, 100, 55)
	assert.Equal(t, a, DuLerpCol(a, b, 0))
	assert.Equal(t, b, DuLerpCol(a, b, 255))
	assert.Equal(t, DuRGBA(0, 50, 100, 255), DuDarkenCol(a))
	assert.Equal(t, uint8(7), DuTransCol(a, 7).A())

	var c Colorb
	c.FromInt(a.Int())
	assert.Equal(t, a, c)
	assert.NotEqual(t, DuIntToCol(1, 255), DuIntToCol(2, 255))
}
