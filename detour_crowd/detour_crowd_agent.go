package detour_crowd

import (
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/scene"
)

// Agent is one steered character. Velocity is the desired steering vector of
// the last tick, at most unit length; the host multiplies it by Speed.
type Agent struct {
	Entity   scene.EntityID
	Position common.Vec2
	Radius   float64
	Speed    float64
	Target   Target
	// Swarm agents follow the shared flow field instead of a private path.
	Swarm bool

	Path     []common.Vec2
	Velocity common.Vec2

	pathGoal common.Vec2
	hasPath  bool
	queued   DtPathQueueRef
}

func (a *Agent) Bounds() common.AABB {
	return common.Disk{Center: a.Position, Radius: a.Radius}.Bounds()
}

// PathFollowVelocity consumes waypoints the agent has reached and steers to the
// next one, or straight at goal once the path is used up. The result is a
// unit vector while the waypoint is farther than one tick of travel and is
// scaled down below that so the agent does not overshoot.
func (a *Agent) PathFollowVelocity(dt, reachMultiple float64, goal common.Vec2, hasGoal bool) common.Vec2 {
	step := a.Speed * dt
	reach := step * reachMultiple
	for len(a.Path) > 0 && common.Vdist(a.Position, a.Path[0]) <= reach {
		a.Path = a.Path[1:]
	}

	var next common.Vec2
	switch {
	case len(a.Path) > 0:
		next = a.Path[0]
	case hasGoal:
		next = goal
	default:
		return common.Vec2{}
	}
	to := next.Sub(a.Position)
	dist := to.Len()
	if dist == 0 {
		return common.Vec2{}
	}
	if dist > step {
		return to.Mul(1 / dist)
	}
	return to.Mul(1 / step)
}
