package recast

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/scene"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Error(msg)
	}
}

func square(x0, y0, x1, y1 float64) common.Polygon {
	return common.Polygon{common.V2(x0, y0), common.V2(x1, y0), common.V2(x1, y1), common.V2(x0, y1)}
}

func signedArea(polys []common.Polygon) float64 {
	var a float64
	for _, p := range polys {
		a += common.PolygonArea(p)
	}
	return a
}

var defaultClip = ClipOptions{SnapPrecision: 1e-6, MinArea: 1e-9}

func triangulate(polys []common.Polygon) *TriMesh {
	return Triangulate(polys, TriangulateOptions{VertexEpsilon: 1e-9})
}

func checkAdjacency(t *testing.T, m *TriMesh) {
	t.Helper()
	for i, nbs := range m.Neighbors {
		for e, j := range nbs {
			if j < 0 {
				continue
			}
			require.Less(t, j, m.Len())
			back := m.SharedEdge(j, i)
			require.GreaterOrEqual(t, back, 0, "triangle %d lists %d but not the other way", i, j)
			// 共享边方向相反
			a, b := m.Tris[i][e], m.Tris[i][(e+1)%3]
			assert.Equal(t, b, m.Tris[j][back])
			assert.Equal(t, a, m.Tris[j][(back+1)%3])
		}
	}
}

func checkCCW(t *testing.T, m *TriMesh) {
	t.Helper()
	for i := range m.Tris {
		assertTrue(t, common.PolygonArea(m.Triangle(i)) > 0, "triangle is not counterclockwise")
	}
}

func TestClipHole(t *testing.T) {
	out := ClipPolygons([]common.Polygon{square(0, 0, 10, 10)}, []common.Polygon{square(4, 4, 6, 6)}, defaultClip)
	require.Len(t, out, 2)
	assert.InDelta(t, 96, signedArea(out), 1e-9)
	var outer, hole int
	for _, p := range out {
		if common.IsClockwise(p) {
			hole++
			assert.InDelta(t, -4, common.PolygonArea(p), 1e-9)
		} else {
			outer++
			assert.InDelta(t, 100, common.PolygonArea(p), 1e-9)
		}
	}
	assert.Equal(t, 1, outer)
	assert.Equal(t, 1, hole)
}

func TestClipEmptyWalkable(t *testing.T) {
	assert.Empty(t, ClipPolygons(nil, []common.Polygon{square(0, 0, 1, 1)}, defaultClip))
}

func TestClipObstacleOutside(t *testing.T) {
	out := ClipPolygons([]common.Polygon{square(0, 0, 10, 10)}, []common.Polygon{square(20, 20, 21, 21)}, defaultClip)
	assert.InDelta(t, 100, signedArea(out), 1e-9)
}

func TestClipUnionsWalkable(t *testing.T) {
	out := ClipPolygons([]common.Polygon{square(0, 0, 2, 2), square(1, 1, 3, 3)}, nil, defaultClip)
	require.Len(t, out, 1)
	assert.InDelta(t, 7, signedArea(out), 1e-9)
}

func TestClipSkipsDegenerate(t *testing.T) {
	line := common.Polygon{common.V2(0, 0), common.V2(1, 1), common.V2(2, 2)}
	out := ClipPolygons([]common.Polygon{square(0, 0, 1, 1), line, {common.V2(5, 5)}}, nil, defaultClip)
	assert.InDelta(t, 1, signedArea(out), 1e-9)
}

func TestClipToRegion(t *testing.T) {
	box := common.AABB{Min: common.V2(5, 5), Max: common.V2(20, 20)}
	out := ClipToRegion([]common.Polygon{square(0, 0, 10, 10)}, box, defaultClip)
	assert.InDelta(t, 25, signedArea(out), 1e-9)
	assert.Empty(t, ClipToRegion([]common.Polygon{square(0, 0, 10, 10)}, common.EmptyAABB(), defaultClip))
}

func TestClipJitterStable(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		j := func() float64 { return (rng.Float64() - 0.5) * 1e-9 }
		walk := common.Polygon{common.V2(j(), j()), common.V2(10+j(), j()), common.V2(10+j(), 10+j()), common.V2(j(), 10+j())}
		obs := square(4+j(), 4+j(), 6+j(), 6+j())
		out := ClipPolygons([]common.Polygon{walk}, []common.Polygon{obs}, defaultClip)
		require.Len(t, out, 2)
		assert.InDelta(t, 96, signedArea(out), 1e-4)
	}
}

func TestTriangulateSquare(t *testing.T) {
	m := triangulate([]common.Polygon{square(0, 0, 1, 1)})
	require.Equal(t, 2, m.Len())
	assert.Len(t, m.Verts, 4)
	assert.InDelta(t, 1, m.Area(), 1e-12)
	checkAdjacency(t, m)
	checkCCW(t, m)
}

func TestTriangulateClockwiseInput(t *testing.T) {
	m := triangulate([]common.Polygon{square(0, 0, 3, 2).Reversed()})
	assert.InDelta(t, 6, m.Area(), 1e-12)
	checkCCW(t, m)
}

func TestTriangulateHole(t *testing.T) {
	polys := ClipPolygons([]common.Polygon{square(0, 0, 10, 10)}, []common.Polygon{square(4, 4, 6, 6)}, defaultClip)
	m := triangulate(polys)
	require.Greater(t, m.Len(), 0)
	assert.InDelta(t, 96, m.Area(), 1e-9)
	checkAdjacency(t, m)
	checkCCW(t, m)
	for i := range m.Tris {
		c := common.ComputeCenterOfPolygon(m.Triangle(i))
		inHole := c[0] > 4 && c[0] < 6 && c[1] > 4 && c[1] < 6
		assertTrue(t, !inHole, "triangle inside the hole survived")
	}
	assert.Equal(t, -1, m.FindTriangle(common.V2(5, 5)))
	assert.GreaterOrEqual(t, m.FindTriangle(common.V2(1, 5)), 0)
}

func TestFindTriangleOnEdges(t *testing.T) {
	polys := ClipPolygons([]common.Polygon{square(0, 0, 10, 10)}, []common.Polygon{square(4, 4, 6, 6)}, defaultClip)
	m := triangulate(polys)
	require.Greater(t, m.Len(), 0)

	onEdges := []common.Vec2{
		// outer boundary, every side and a corner
		common.V2(5, 0), common.V2(10, 5), common.V2(5, 10), common.V2(0, 5), common.V2(10, 10),
		// faces of the hole
		common.V2(4, 5), common.V2(6, 5), common.V2(5, 4), common.V2(5, 6),
	}
	for _, p := range onEdges {
		tri := m.FindTriangle(p)
		require.GreaterOrEqual(t, tri, 0, "point %v on the walkable boundary", p)
		d, _ := common.DistanceToPolygonEdge(p, m.Triangle(tri))
		assert.LessOrEqual(t, d, EdgeSnapDistance)
	}

	for _, p := range []common.Vec2{common.V2(5, 5), common.V2(5, 6-1e-3), common.V2(10.001, 5), common.V2(-1, -1)} {
		assert.Equal(t, -1, m.FindTriangle(p), "point %v is off the mesh", p)
	}
}

func TestTriangulateEmpty(t *testing.T) {
	assert.Equal(t, 0, triangulate(nil).Len())
	assert.Equal(t, 0, triangulate([]common.Polygon{{common.V2(0, 0), common.V2(1, 0)}}).Len())
	// 三个重合点去重后不足三个
	p := common.V2(3, 3)
	assert.Equal(t, 0, triangulate([]common.Polygon{{p, p, p}}).Len())
	var nilMesh *TriMesh
	assert.Equal(t, 0, nilMesh.Len())
}

func TestTriangulateSharedVertices(t *testing.T) {
	m := triangulate([]common.Polygon{square(0, 0, 1, 1), square(1, 0, 2, 1), square(0, 1, 2, 2)})
	assert.InDelta(t, 4, m.Area(), 1e-12)
	checkAdjacency(t, m)
	// 重合顶点只保留一份
	assert.Len(t, m.Verts, 8)

	seen := map[int]bool{0: true}
	queue := []int{0}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range m.Neighbors[cur] {
			if nb >= 0 && !seen[nb] {
				seen[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	assert.Len(t, seen, m.Len(), "mesh is cracked")
}

func TestTriangulateCollinearBoundary(t *testing.T) {
	// 边上有共线点，约束边需要在这些点处拆分
	poly := common.Polygon{
		common.V2(0, 0), common.V2(1, 0), common.V2(2, 0), common.V2(3, 0),
		common.V2(3, 1), common.V2(0, 1),
	}
	m := triangulate([]common.Polygon{poly})
	assert.InDelta(t, 3, m.Area(), 1e-12)
	checkAdjacency(t, m)
	checkCCW(t, m)
}

func starPolygon(rng *rand.Rand, n int) common.Polygon {
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = rng.Float64() * 2 * math.Pi
	}
	sort.Float64s(angles)
	poly := make(common.Polygon, 0, n)
	for _, a := range angles {
		r := 0.3 + rng.Float64()
		poly = append(poly, common.V2(math.Cos(a)*r, math.Sin(a)*r))
	}
	return poly
}

func TestTriangulateAreaConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 60; i++ {
		poly := starPolygon(rng, 3+rng.Intn(30))
		want := math.Abs(common.PolygonArea(poly))
		m := triangulate([]common.Polygon{poly})
		require.InDelta(t, want, m.Area(), 1e-9*math.Max(1, want), "iteration %d", i)
		checkAdjacency(t, m)
		checkCCW(t, m)
	}
}

func TestTriangulateClippedAreaConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		var obstacles []common.Polygon
		for k := 0; k < 1+rng.Intn(5); k++ {
			x, y := 1+rng.Float64()*7, 1+rng.Float64()*7
			obstacles = append(obstacles, square(x, y, x+0.5+rng.Float64(), y+0.5+rng.Float64()))
		}
		polys := ClipPolygons([]common.Polygon{square(0, 0, 10, 10)}, obstacles, defaultClip)
		m := triangulate(polys)
		require.InDelta(t, signedArea(polys), m.Area(), 1e-7, "iteration %d", i)
		checkAdjacency(t, m)
	}
}

func TestHeightObstaclesStep(t *testing.T) {
	heights := scene.HeightFunc(func(p common.Vec2) float64 {
		if p[0] < 5 {
			return 0
		}
		return 2
	})
	opt := HeightObstacleOptions{
		Start:             common.V2(1, 1),
		Spacing:           1,
		TraversableHeight: 0.75,
		SliverThickness:   0.25,
		Bounds:            common.AABB{Min: common.V2(0, 0), Max: common.V2(10, 10)},
	}
	slivers := SynthesizeHeightObstacles(heights, opt)
	require.Len(t, slivers, 11)
	for _, s := range slivers {
		c := common.ComputeCenterOfPolygon(s)
		assert.InDelta(t, 4.5, c[0], 1e-12)
		assertTrue(t, !common.IsClockwise(s), "sliver winds clockwise")
	}

	polys := ClipPolygons([]common.Polygon{square(0, 0, 10, 10)}, slivers, defaultClip)
	assert.InDelta(t, 100-0.25*10, signedArea(polys), 1e-6)
	m := triangulate(polys)
	assert.InDelta(t, 97.5, m.Area(), 1e-6)
}

func TestHeightObstaclesFlat(t *testing.T) {
	flat := scene.HeightFunc(func(common.Vec2) float64 { return 1 })
	opt := HeightObstacleOptions{
		Start:             common.V2(0, 0),
		Spacing:           1,
		TraversableHeight: 0.5,
		Bounds:            common.AABB{Min: common.V2(-3, -3), Max: common.V2(3, 3)},
	}
	assert.Empty(t, SynthesizeHeightObstacles(flat, opt))
}

func TestHeightObstaclesSkipAndCap(t *testing.T) {
	hole := scene.HeightFunc(func(p common.Vec2) float64 {
		if p[0] > 2 {
			return math.Inf(-1)
		}
		return 0
	})
	opt := HeightObstacleOptions{
		Start:             common.V2(0, 0),
		Spacing:           1,
		TraversableHeight: 0.5,
		Bounds:            common.AABB{Min: common.V2(0, 0), Max: common.V2(4, 0)},
	}
	// 一行格子，x=3 处没有地形
	require.Len(t, SynthesizeHeightObstacles(hole, opt), 1)

	opt.Skip = func(p common.Vec2) bool { return p[0] > 1.5 }
	assert.Empty(t, SynthesizeHeightObstacles(hole, opt))

	opt.Skip = nil
	opt.MaxCells = 2
	assert.Empty(t, SynthesizeHeightObstacles(hole, opt))

	opt.Start = common.V2(3, 0)
	opt.MaxCells = 0
	assert.Empty(t, SynthesizeHeightObstacles(hole, opt), "no terrain at the seed")
}
