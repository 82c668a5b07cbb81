package detour_crowd

import (
	"math"

	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/bvh"
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
	"github.com/gorustyt/planarnav/config"
	"github.com/gorustyt/planarnav/scene"
)

// Crowd steers a set of agents one tick at a time. It owns the static
// obstacle BVH, the agent proximity grid, the shared flow field and the path
// request queue. Update must not run concurrently with anything that reads
// those.
type Crowd struct {
	cfg config.CrowdConfig
	log *zap.Logger

	agents      []*Agent
	activeCount int

	statics      *bvh.BVH
	staticsDirty bool
	grid         *DtProximityGrid
	pathq        *DtPathQueue

	flow    *FlowField
	flowAge float64

	tick    int
	scratch []int // proximity query ids
}

func NewCrowd(cfg config.CrowdConfig, bvhCfg config.BVHConfig, nav PathQuerier, log *zap.Logger) *Crowd {
	log = logger.OrNop(log)
	maxAgents := max(cfg.MaxAgents, 1)
	stride := max(cfg.RequeryStride, 1)
	return &Crowd{
		cfg:          cfg,
		log:          log,
		statics:      bvh.New(scene.LayerStaticObstacle, bvhCfg, log),
		staticsDirty: true,
		grid:         NewDtProximityGrid(maxAgents*4, cfg.ProximityCellSize),
		pathq:        NewDtPathQueue(max(maxAgents/stride, 8), nav),
	}
}

// AddAgent registers a copy of a and returns its index, or -1 when the crowd
// is full.
func (c *Crowd) AddAgent(a Agent) int {
	if c.activeCount >= max(c.cfg.MaxAgents, 1) {
		c.log.Warn("crowd is full", zap.Int("max_agents", c.cfg.MaxAgents))
		return -1
	}
	a.queued = DT_PATHQ_INVALID
	a.hasPath = false
	c.activeCount++
	for i, v := range c.agents {
		if v == nil {
			c.agents[i] = &a
			return i
		}
	}
	c.agents = append(c.agents, &a)
	return len(c.agents) - 1
}

func (c *Crowd) RemoveAgent(idx int) {
	a := c.GetAgent(idx)
	if a == nil {
		return
	}
	c.pathq.Cancel(a.queued)
	c.agents[idx] = nil
	c.activeCount--
}

func (c *Crowd) GetAgent(idx int) *Agent {
	if idx < 0 || idx >= len(c.agents) {
		return nil
	}
	return c.agents[idx]
}

// Agents returns the agent slots; removed agents leave nil holes.
func (c *Crowd) Agents() []*Agent { return c.agents }

func (c *Crowd) GetActiveAgentCount() int { return c.activeCount }

func (c *Crowd) Statics() *bvh.BVH { return c.statics }

func (c *Crowd) Grid() *DtProximityGrid { return c.grid }

func (c *Crowd) FlowField() *FlowField { return c.flow }

func (c *Crowd) PathQueue() *DtPathQueue { return c.pathq }

// MarkStaticsDirty rebuilds the obstacle BVH on the next tick instead of
// refitting it. Needed whenever obstacles are added or removed.
func (c *Crowd) MarkStaticsDirty() { c.staticsDirty = true }

// Update computes a desired velocity for every agent. positions resolves
// entity targets and may be nil.
func (c *Crowd) Update(dt float64, src scene.Source, positions scene.Positions) {
	c.tick++
	switch {
	case src == nil:
	case c.staticsDirty:
		c.statics.Build(src)
		c.staticsDirty = false
	default:
		c.statics.Refit(src)
	}

	c.grid.Clear()
	for i, a := range c.agents {
		if a != nil {
			c.grid.AddItem(i, a.Bounds())
		}
	}

	goals := make([]common.Vec2, len(c.agents))
	hasGoal := make([]bool, len(c.agents))
	for i, a := range c.agents {
		if a != nil {
			goals[i], hasGoal[i] = a.Target.GetTargetPosition(positions)
		}
	}

	c.updateFlowField(dt, goals, hasGoal)
	onFlow := make([]bool, len(c.agents))
	for i, a := range c.agents {
		onFlow[i] = a != nil && a.Swarm && hasGoal[i] && c.flowReaches(goals[i])
	}
	c.requestPaths(goals, hasGoal, onFlow)

	reach := c.cfg.WaypointReachMultiple
	for i, a := range c.agents {
		if a == nil {
			continue
		}
		var follow common.Vec2
		if onFlow[i] {
			follow = c.swarmVelocity(a, dt, goals[i])
		} else {
			follow = a.PathFollowVelocity(dt, reach, goals[i], hasGoal[i])
		}

		avoidRadius := a.Radius * c.cfg.AvoidanceRadiusFactor
		var avoid common.Vec2
		// path agents already route around statics through the navmesh
		if onFlow[i] {
			avoid = AvoidanceVelocity(c.statics, a.Position, avoidRadius)
			if c.cfg.RaycastAvoidance {
				avoid = avoid.Add(RaycastAvoidance(c.statics, a.Position, avoidRadius, c.cfg.RayCount))
			}
		}
		var sep common.Vec2
		sep, c.scratch = SeparationVelocity(c.grid, c.agents, i, avoidRadius, c.scratch)
		avoid = common.VclampLen(avoid.Add(sep), 1)
		a.Velocity = CombineVelocities(avoid, follow)
	}
}

// requestPaths queues re-queries for agents not steered by the flow field.
// New position targets are queried at once, everything else only on its
// round robin turn.
func (c *Crowd) requestPaths(goals []common.Vec2, hasGoal, onFlow []bool) {
	stride := max(c.cfg.RequeryStride, 1)
	for i, a := range c.agents {
		if a == nil {
			continue
		}
		if onFlow[i] {
			c.pathq.Cancel(a.queued)
			a.queued = DT_PATHQ_INVALID
			a.Path, a.hasPath = nil, false
			continue
		}
		if !hasGoal[i] {
			c.pathq.Cancel(a.queued)
			a.queued = DT_PATHQ_INVALID
			a.Path, a.hasPath = nil, false
			continue
		}
		moved := a.Target.Kind() == TargetPosition && goals[i] != a.pathGoal
		if a.queued != DT_PATHQ_INVALID {
			if !moved {
				continue
			}
			c.pathq.Cancel(a.queued)
			a.queued = DT_PATHQ_INVALID
		}
		if a.hasPath && !moved && i%stride != c.tick%stride {
			continue
		}
		a.queued = c.pathq.Request(a.Position, goals[i])
		if a.queued == DT_PATHQ_INVALID {
			c.log.Debug("path queue full", zap.Int("agent", i))
			continue
		}
		a.pathGoal = goals[i]
	}

	budget := int(math.Ceil(float64(c.activeCount) / float64(stride)))
	c.pathq.Update(max(budget, 1))

	for _, a := range c.agents {
		if a == nil || a.queued == DT_PATHQ_INVALID {
			continue
		}
		if c.pathq.GetRequestStatus(a.queued) == 0 {
			continue
		}
		path, status := c.pathq.GetPathResult(a.queued)
		a.queued = DT_PATHQ_INVALID
		if status.DtStatusFailed() {
			c.log.Debug("agent path fell back to a direct line", zap.Stringer("status", status))
		}
		// the first point is where the agent stood when it asked
		if len(path) > 0 {
			path = path[1:]
		}
		a.Path, a.hasPath = path, true
	}
}

// updateFlowField rebuilds the shared field every FlowFieldInterval seconds
// around the target of the first swarm agent that has one. Swarm agents with
// other targets fall back to queued paths.
func (c *Crowd) updateFlowField(dt float64, goals []common.Vec2, hasGoal []bool) {
	target, found := common.Vec2{}, false
	spacing := math.Inf(1)
	for i, a := range c.agents {
		if a == nil || !a.Swarm {
			continue
		}
		spacing = min(spacing, a.Radius)
		if !found && hasGoal[i] {
			target, found = goals[i], true
		}
	}
	if !found {
		c.flow = nil
		return
	}
	c.flowAge += dt
	if c.flowReaches(target) && c.flowAge < c.cfg.FlowFieldInterval {
		return
	}
	c.flowAge = 0
	spacing = max(spacing, c.cfg.MinFlowFieldSpacing)
	c.flow = NewFlowField(target, c.cfg.FlowFieldRadius, spacing, c.cfg.MaxFlowFieldCells, c.log)
	c.flow.Build(func(cell common.AABB) bool {
		return c.statics.Any(common.BoxShape(cell))
	})
	c.log.Debug("flow field rebuilt",
		zap.Int("cells", c.flow.Size), zap.Float64("spacing", c.flow.Spacing))
}

// flowReaches reports whether the current field leads to goal. A field built
// for another swarm target must not steer the agent.
func (c *Crowd) flowReaches(goal common.Vec2) bool {
	return c.flow != nil && common.Vdist(goal, c.flow.Target) <= c.flow.Spacing
}

func (c *Crowd) swarmVelocity(a *Agent, dt float64, goal common.Vec2) common.Vec2 {
	to := goal.Sub(a.Position)
	dist := to.Len()
	step := a.Speed * dt
	if dist == 0 {
		return common.Vec2{}
	}
	if step > 0 && dist <= step {
		return to.Mul(1 / step)
	}
	return c.flow.Sample(a.Position)
}

// Advance moves every agent by its velocity for dt. Hosts with their own
// physics integrate Velocity themselves.
func (c *Crowd) Advance(dt float64) {
	for _, a := range c.agents {
		if a != nil {
			a.Position = a.Position.Add(a.Velocity.Mul(a.Speed * dt))
		}
	}
}
