package debug_utils

import (
	"github.com/gorustyt/planarnav/bvh"
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/recast"
)

var (
	navMeshInnerCol    = DuRGBA(0, 192, 255, 96)
	navMeshBoundaryCol = DuRGBA(0, 48, 64, 220)
	pathCol            = DuRGBA(255, 196, 0, 255)
	bvhLeafCol         = DuRGBA(64, 255, 64, 160)
)

// DuDebugDrawNavMesh outlines every triangle. Shared edges are drawn once and
// mesh boundary edges in a darker color.
func DuDebugDrawNavMesh(dd DuDebugDraw, vis Visibility, mesh *recast.TriMesh) {
	if dd == nil || !vis.Visible(DU_DRAW_NAVMESH) || mesh.Len() == 0 {
		return
	}
	for t, tri := range mesh.Tris {
		for e := 0; e < 3; e++ {
			nb := mesh.Neighbors[t][e]
			a, b := mesh.Verts[tri[e]], mesh.Verts[tri[(e+1)%3]]
			switch {
			case nb < 0:
				dd.Line(DU_DRAW_NAVMESH, a, b, navMeshBoundaryCol)
			case t < nb:
				dd.Line(DU_DRAW_NAVMESH, a, b, navMeshInnerCol)
			}
		}
	}
}

// DuDebugDrawPolygons outlines the cleaned walkable contours, holes darker.
func DuDebugDrawPolygons(dd DuDebugDraw, vis Visibility, polys []common.Polygon) {
	if dd == nil || !vis.Visible(DU_DRAW_NAVMESH) {
		return
	}
	for i, poly := range polys {
		col := DuIntToCol(i, 255)
		if common.IsClockwise(poly) {
			col = DuDarkenCol(col)
		}
		DuAppendPolygon(dd, DU_DRAW_NAVMESH, poly, col)
	}
}

func DuDebugDrawPath(dd DuDebugDraw, vis Visibility, path []common.Vec2) {
	if dd == nil || !vis.Visible(DU_DRAW_PATH) {
		return
	}
	for i := 0; i+1 < len(path); i++ {
		dd.Line(DU_DRAW_PATH, path[i], path[i+1], pathCol)
	}
	for _, p := range path {
		dd.Circle(DU_DRAW_PATH, p, 0.1, DuDarkenCol(pathCol))
	}
}

// DuDebugDrawBVH draws every node box, leaves in one color and interior nodes
// colored by depth.
func DuDebugDrawBVH(dd DuDebugDraw, vis Visibility, tree *bvh.BVH) {
	if dd == nil || !vis.Visible(DU_DRAW_BVH) || tree == nil {
		return
	}
	nodes := tree.Nodes()
	if len(nodes) == 0 {
		return
	}
	type item struct{ node, depth int }
	stack := common.NewStack[item]()
	stack.Push(item{})
	for !stack.Empty() {
		it := stack.Pop()
		n := &nodes[it.node]
		if n.IsLeaf() {
			DuAppendBoxWire(dd, DU_DRAW_BVH, n.Bounds(), bvhLeafCol)
			continue
		}
		DuAppendBoxWire(dd, DU_DRAW_BVH, n.Bounds(), DuTransCol(DuIntToCol(it.depth+1, 255), 96))
		stack.Push(item{n.Start, it.depth + 1})
		stack.Push(item{n.Start + 1, it.depth + 1})
	}
}
