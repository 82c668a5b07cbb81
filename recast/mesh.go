package recast

import (
	"math"

	"github.com/gorustyt/planarnav/common"
)

// TriMesh is a planar triangle mesh with edge adjacency.
type TriMesh struct {
	Verts []common.Vec2
	// Counterclockwise vertex indices.
	Tris [][3]int
	// Neighbors[t][e] is the triangle across edge (Tris[t][e], Tris[t][e+1]),
	// or -1 on the mesh boundary.
	Neighbors [][3]int
}

func (m *TriMesh) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Tris)
}

func (m *TriMesh) Triangle(t int) common.Polygon {
	tri := m.Tris[t]
	return common.Polygon{m.Verts[tri[0]], m.Verts[tri[1]], m.Verts[tri[2]]}
}

func (m *TriMesh) Vertex(t, corner int) common.Vec2 {
	return m.Verts[m.Tris[t][corner%3]]
}

// Area is the summed area of all triangles.
func (m *TriMesh) Area() float64 {
	var a float64
	for t := range m.Tris {
		a += math.Abs(common.PolygonArea(m.Triangle(t)))
	}
	return a
}

// SharedEdge returns the edge index of t that borders nb, or -1.
func (m *TriMesh) SharedEdge(t, nb int) int {
	if t < 0 || t >= len(m.Neighbors) {
		return -1
	}
	for e, n := range m.Neighbors[t] {
		if n == nb {
			return e
		}
	}
	return -1
}

// EdgeSnapDistance is how far outside every triangle a point may lie and still
// be located. It catches points on boundary edges, which the half-open
// containment test leaves unclaimed.
const EdgeSnapDistance = 1e-6

// FindTriangle returns the first triangle containing p under the even-odd rule.
// A point that no triangle claims goes to the nearest triangle within
// EdgeSnapDistance. Returns -1 otherwise.
func (m *TriMesh) FindTriangle(p common.Vec2) int {
	if m == nil {
		return -1
	}
	for t := range m.Tris {
		if common.IsPointInsidePolygon(p, m.Triangle(t)) {
			return t
		}
	}
	best, bestDist := -1, EdgeSnapDistance
	for t := range m.Tris {
		if d, _ := common.DistanceToPolygonEdge(p, m.Triangle(t)); d <= bestDist {
			best, bestDist = t, d
		}
	}
	return best
}
