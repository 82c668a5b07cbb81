package detour_crowd

import (
	"math"

	"github.com/gorustyt/planarnav/bvh"
	"github.com/gorustyt/planarnav/common"
)

// AvoidanceVelocity pushes away from every shape of tree within radius of pos.
// Each shape contributes 1 - d/radius along the direction from its closest
// point; the sum is clamped to unit length.
func AvoidanceVelocity(tree *bvh.BVH, pos common.Vec2, radius float64) common.Vec2 {
	if tree == nil || radius <= 0 {
		return common.Vec2{}
	}
	var acc common.Vec2
	tree.Query(common.DiskShape(common.Disk{Center: pos, Radius: radius}), func(h bvh.Hit) {
		d, closest := bvh.Distance(pos, h.Shape)
		if d >= radius {
			return
		}
		away := pos.Sub(closest)
		if d == 0 {
			// inside, push out from the center
			away = pos.Sub(h.Shape.Center())
		}
		away = common.VnormalizeSafe(away)
		acc = acc.Add(away.Mul(1 - d/radius))
	}, nil)
	return common.VclampLen(acc, 1)
}

// RaycastAvoidance casts rays evenly spread around pos and steers away from
// the hits, weighted by how close they are.
func RaycastAvoidance(tree *bvh.BVH, pos common.Vec2, radius float64, rays int) common.Vec2 {
	if tree == nil || radius <= 0 || rays <= 0 {
		return common.Vec2{}
	}
	var acc common.Vec2
	for k := 0; k < rays; k++ {
		a := 2 * math.Pi * float64(k) / float64(rays)
		dir := common.Vec2{math.Cos(a), math.Sin(a)}
		hit, ok := tree.Raycast(pos, dir, radius)
		if !ok {
			continue
		}
		acc = acc.Sub(dir.Mul(1 - hit.T/radius))
	}
	return common.VclampLen(acc, 1)
}

// SeparationVelocity repels agent i from the other agents found in the grid
// within radius. scratch is reused for the grid query and handed back.
func SeparationVelocity(grid *DtProximityGrid, agents []*Agent, i int, radius float64, scratch []int) (common.Vec2, []int) {
	if grid == nil || radius <= 0 {
		return common.Vec2{}, scratch
	}
	self := agents[i]
	box := common.Disk{Center: self.Position, Radius: radius}.Bounds()
	var acc common.Vec2
	scratch = grid.QueryItems(box, scratch[:0])
	for _, j := range scratch {
		if j == i || j < 0 || j >= len(agents) || agents[j] == nil {
			continue
		}
		other := agents[j]
		d := common.Vdist(self.Position, other.Position) - other.Radius
		if d >= radius {
			continue
		}
		d = max(d, 0)
		away := common.VnormalizeSafe(self.Position.Sub(other.Position))
		if away == (common.Vec2{}) {
			// stacked agents split by index
			away = common.Vec2{1, 0}
			if j > i {
				away = common.Vec2{-1, 0}
			}
		}
		acc = acc.Add(away.Mul(1 - d/radius))
	}
	return common.VclampLen(acc, 1), scratch
}

// CombineVelocities keeps dominant intact and tops it up with recessive, scaled
// down so that the result never exceeds unit length. A zero recessive returns
// dominant unchanged.
func CombineVelocities(dominant, recessive common.Vec2) common.Vec2 {
	if recessive == (common.Vec2{}) {
		return dominant
	}
	budget := 1 - dominant.Len()
	if budget <= 0 {
		return dominant
	}
	if l := recessive.Len(); l > budget {
		recessive = recessive.Mul(budget / l)
	}
	return dominant.Add(recessive)
}
