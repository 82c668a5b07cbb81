package detour

import (
	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/recast"
)

// Portal is the edge crossed when leaving one corridor triangle for the next,
// with Left and Right as seen by an agent walking the corridor.
type Portal struct {
	Left, Right common.Vec2
}

// getPortalPoints returns the shared edge of two adjacent triangles.
func getPortalPoints(mesh *recast.TriMesh, from, to int) (Portal, bool) {
	e := mesh.SharedEdge(from, to)
	if e < 0 {
		return Portal{}, false
	}
	// 三角形逆时针，离开 from 时边的终点在左侧
	return Portal{Left: mesh.Vertex(from, e+1), Right: mesh.Vertex(from, e)}, true
}

// CorridorPortals converts a triangle corridor into its portals. ok is false
// when two consecutive triangles are not adjacent.
func CorridorPortals(mesh *recast.TriMesh, corridor []int) ([]Portal, bool) {
	if len(corridor) == 0 {
		return nil, false
	}
	portals := make([]Portal, 0, len(corridor))
	for i := 0; i+1 < len(corridor); i++ {
		p, ok := getPortalPoints(mesh, corridor[i], corridor[i+1])
		if !common.Assert(ok, "corridor triangles %d and %d are not adjacent", corridor[i], corridor[i+1]) {
			return nil, false
		}
		portals = append(portals, p)
	}
	return portals, true
}

// StringPull runs the simple stupid funnel algorithm over the portals and
// returns the shortest polyline from start to goal that crosses every portal.
func StringPull(start, goal common.Vec2, portals []Portal) []common.Vec2 {
	portals = append(portals[:len(portals):len(portals)], Portal{Left: goal, Right: goal})
	pts := []common.Vec2{start}
	appendPoint := func(p common.Vec2) {
		if pts[len(pts)-1] != p {
			pts = append(pts, p)
		}
	}

	portalApex, portalLeft, portalRight := start, start, start
	apexIndex, leftIndex, rightIndex := 0, 0, 0
	for i := 0; i < len(portals); i++ {
		left, right := portals[i].Left, portals[i].Right

		// Right vertex.
		if common.Orient2D(portalApex, portalRight, right) >= 0 {
			if portalApex == portalRight || common.Orient2D(portalApex, portalLeft, right) < 0 {
				// Tighten the funnel.
				portalRight = right
				rightIndex = i
			} else {
				// Right over left, insert left to path and restart scan from portal left point.
				appendPoint(portalLeft)
				portalApex = portalLeft
				apexIndex = leftIndex
				portalLeft, portalRight = portalApex, portalApex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}

		// Left vertex.
		if common.Orient2D(portalApex, portalLeft, left) <= 0 {
			if portalApex == portalLeft || common.Orient2D(portalApex, portalRight, left) > 0 {
				portalLeft = left
				leftIndex = i
			} else {
				appendPoint(portalRight)
				portalApex = portalRight
				apexIndex = rightIndex
				portalLeft, portalRight = portalApex, portalApex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}
	}
	appendPoint(goal)
	return pts
}

// FindStraightPath string-pulls start and goal through the corridor. It
// returns nil when the corridor is empty or broken. Short corridors take the
// same funnel: one triangle has no portal and yields {start, goal}.
func FindStraightPath(mesh *recast.TriMesh, corridor []int, start, goal common.Vec2, log *zap.Logger) []common.Vec2 {
	portals, ok := CorridorPortals(mesh, corridor)
	if !ok {
		if log != nil {
			log.Debug("funnel: invalid corridor", zap.Ints("corridor", corridor))
		}
		return nil
	}
	return StringPull(start, goal, portals)
}
