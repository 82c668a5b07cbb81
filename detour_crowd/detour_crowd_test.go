package detour_crowd

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/planarnav/bvh"
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/config"
	"github.com/gorustyt/planarnav/detour"
	"github.com/gorustyt/planarnav/scene"
)

func init() {
	common.DebugAssertions = true
}

func box(x0, y0, x1, y1 float64) common.Shape {
	return common.BoxShape(common.AABB{Min: common.V2(x0, y0), Max: common.V2(x1, y1)})
}

func staticTree(t *testing.T, mem *scene.Memory) *bvh.BVH {
	t.Helper()
	tree := bvh.New(scene.LayerStaticObstacle, config.Default().BVH, nil)
	tree.Build(mem)
	return tree
}

func TestCombineVelocitiesBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		a, r := rng.Float64()*2*math.Pi, rng.Float64()
		dominant := common.V2(math.Cos(a)*r, math.Sin(a)*r)
		b, l := rng.Float64()*2*math.Pi, rng.Float64()*3
		recessive := common.V2(math.Cos(b)*l, math.Sin(b)*l)

		got := CombineVelocities(dominant, recessive)
		assert.LessOrEqual(t, got.Len(), 1+1e-12)
		assert.Equal(t, dominant, CombineVelocities(dominant, common.Vec2{}))
		// the dominant part is never scaled
		rest := got.Sub(dominant)
		assert.InDelta(t, 0, common.Vperp(rest, recessive), 1e-9)
		assert.GreaterOrEqual(t, rest.Dot(recessive), -1e-12)
	}

	// room left: plain sum
	got := CombineVelocities(common.V2(0.5, 0), common.V2(0, 0.25))
	assert.InDelta(t, 0.5, got[0], 1e-12)
	assert.InDelta(t, 0.25, got[1], 1e-12)
	// full dominant wins
	assert.Equal(t, common.V2(0, 1), CombineVelocities(common.V2(0, 1), common.V2(1, 0)))
}

func TestTarget(t *testing.T) {
	mem := scene.NewMemory()
	id := mem.Add(scene.LayerCharacter, common.DiskShape(common.Disk{Radius: 0.5}), scene.Translation(common.V2(3, 4)))

	var tg Target
	assert.False(t, tg.IsChasing())
	_, ok := tg.GetTargetPosition(mem)
	assert.False(t, ok)

	tg.SetTargetPosition(common.V2(1, 2))
	assert.True(t, tg.IsChasing())
	assert.Equal(t, TargetPosition, tg.Kind())
	p, ok := tg.GetTargetPosition(nil)
	require.True(t, ok)
	assert.Equal(t, common.V2(1, 2), p)

	tg.SetTargetEntity(id)
	assert.Equal(t, TargetEntity, tg.Kind())
	p, ok = tg.GetTargetPosition(mem)
	require.True(t, ok)
	assert.Equal(t, common.V2(3, 4), p)

	mem.SetPosition(id, common.V2(5, 5))
	p, _ = tg.GetTargetPosition(mem)
	assert.Equal(t, common.V2(5, 5), p)

	_, ok = tg.GetTargetPosition(nil)
	assert.False(t, ok)

	mem.Remove(id)
	_, ok = tg.GetTargetPosition(mem)
	assert.False(t, ok, "a despawned entity is no target")
	assert.True(t, tg.IsChasing())

	tg.SetTargetEntity(scene.InvalidEntity)
	assert.False(t, tg.IsChasing())

	tg.SetTargetPosition(common.V2(1, 1))
	tg.ClearTarget()
	assert.Equal(t, TargetNone, tg.Kind())
	assert.Equal(t, "none", tg.Kind().String())
}

func TestPathFollowVelocity(t *testing.T) {
	a := &Agent{Speed: 1, Path: []common.Vec2{common.V2(0.1, 0), common.V2(5, 0)}}
	v := a.PathFollowVelocity(0.1, 2, common.V2(5, 0), true)
	assert.Len(t, a.Path, 1, "reached waypoint is consumed")
	assert.InDelta(t, 1, v[0], 1e-12)
	assert.InDelta(t, 0, v[1], 1e-12)

	// empty path steers at the goal, scaled down inside one tick of travel
	a.Path = nil
	v = a.PathFollowVelocity(0.1, 2, common.V2(0.05, 0), true)
	assert.InDelta(t, 0.5, v[0], 1e-12)

	v = a.PathFollowVelocity(0.1, 2, common.V2(0, 3), true)
	assert.InDelta(t, 1, v.Len(), 1e-12)

	assert.Equal(t, common.Vec2{}, a.PathFollowVelocity(0.1, 2, common.Vec2{}, false))
	assert.Equal(t, common.Vec2{}, a.PathFollowVelocity(0.1, 2, common.Vec2{}, true))
}

func TestAvoidanceVelocity(t *testing.T) {
	mem := scene.NewMemory()
	mem.Add(scene.LayerStaticObstacle, box(1, -1, 2, 1), scene.Transform{})
	tree := staticTree(t, mem)

	v := AvoidanceVelocity(tree, common.V2(0, 0), 3)
	assert.InDelta(t, -2.0/3, v[0], 1e-12)
	assert.InDelta(t, 0, v[1], 1e-12)

	assert.Equal(t, common.Vec2{}, AvoidanceVelocity(tree, common.V2(-5, 0), 3))
	assert.Equal(t, common.Vec2{}, AvoidanceVelocity(nil, common.V2(0, 0), 3))

	// surrounded: clamped
	for _, s := range []common.Shape{box(-2, -1, -1, 1), box(-1, 1, 1, 2), box(0.2, 0.2, 0.5, 0.5)} {
		mem.Add(scene.LayerStaticObstacle, s, scene.Transform{})
	}
	tree = staticTree(t, mem)
	v = AvoidanceVelocity(tree, common.V2(0, 0), 3)
	assert.LessOrEqual(t, v.Len(), 1+1e-12)
}

func TestRaycastAvoidance(t *testing.T) {
	mem := scene.NewMemory()
	mem.Add(scene.LayerStaticObstacle, box(1, -0.5, 2, 0.5), scene.Transform{})
	tree := staticTree(t, mem)

	v := RaycastAvoidance(tree, common.V2(0, 0), 2, 8)
	assert.InDelta(t, -0.5, v[0], 1e-9)
	assert.InDelta(t, 0, v[1], 1e-9)

	assert.Equal(t, common.Vec2{}, RaycastAvoidance(tree, common.V2(0, 0), 0.5, 8))
	assert.Equal(t, common.Vec2{}, RaycastAvoidance(tree, common.V2(0, 0), 2, 0))
}

func TestSeparationVelocity(t *testing.T) {
	agents := []*Agent{
		{Position: common.V2(0, 0), Radius: 0.5},
		{Position: common.V2(1, 0), Radius: 0.5},
		nil,
		{Position: common.V2(10, 10), Radius: 0.5},
	}
	grid := NewDtProximityGrid(16, 2)
	for i, a := range agents {
		if a != nil {
			grid.AddItem(i, a.Bounds())
		}
	}
	v, scratch := SeparationVelocity(grid, agents, 0, 1.5, nil)
	assert.InDelta(t, -2.0/3, v[0], 1e-12)
	assert.InDelta(t, 0, v[1], 1e-12)
	assert.NotEmpty(t, scratch)

	v, _ = SeparationVelocity(grid, agents, 3, 1.5, scratch)
	assert.Equal(t, common.Vec2{}, v)

	// stacked agents are pushed apart in opposite directions
	agents[1].Position = agents[0].Position
	grid.Clear()
	grid.AddItem(0, agents[0].Bounds())
	grid.AddItem(1, agents[1].Bounds())
	v0, _ := SeparationVelocity(grid, agents, 0, 1.5, nil)
	v1, _ := SeparationVelocity(grid, agents, 1, 1.5, nil)
	assert.InDelta(t, 0, v0.Add(v1).Len(), 1e-12)
	assert.Greater(t, v0.Len(), 0.0)
}

func TestProximityGrid(t *testing.T) {
	g := NewDtProximityGrid(8, 1)
	g.AddItem(1, common.AABB{Min: common.V2(0.1, 0.1), Max: common.V2(0.9, 0.9)})
	g.AddItem(2, common.AABB{Min: common.V2(0.5, 0.5), Max: common.V2(1.5, 0.9)})
	g.AddItem(3, common.AABB{Min: common.V2(-3, -3), Max: common.V2(-2.5, -2.5)})

	assert.Equal(t, 2, g.GetItemCountAt(0, 0))
	assert.Equal(t, 1, g.GetItemCountAt(1, 0))
	assert.Equal(t, 0, g.GetItemCountAt(5, 5))
	assert.Equal(t, [4]int{-3, -3, 1, 0}, g.GetBounds())

	ids := g.QueryItems(common.AABB{Min: common.V2(0, 0), Max: common.V2(1.9, 0.5)}, nil)
	assert.ElementsMatch(t, []int{1, 2}, ids, "ids spanning cells are reported once")

	ids = g.QueryItems(common.AABB{Min: common.V2(-3, -3), Max: common.V2(-2, -2)}, []int{42})
	assert.Equal(t, []int{42, 3}, ids)

	// pool exhausted
	for i := 0; i < 20; i++ {
		g.AddItem(10+i, common.AABB{Min: common.V2(5, 5), Max: common.V2(5.5, 5.5)})
	}
	assert.LessOrEqual(t, g.GetItemCountAt(5, 5), 8)

	g.Clear()
	assert.Equal(t, 0, g.GetItemCountAt(0, 0))
	assert.Empty(t, g.QueryItems(common.AABB{Min: common.V2(-10, -10), Max: common.V2(10, 10)}, nil))
}

func blockedCells(f *FlowField, cells map[[2]int]bool) func(common.AABB) bool {
	return func(b common.AABB) bool {
		x, y, ok := f.Cell(b.Center())
		return ok && cells[[2]int{x, y}]
	}
}

func TestFlowFieldOpen(t *testing.T) {
	f := NewFlowField(common.V2(0, 0), 5, 1, 64, nil)
	require.Equal(t, 11, f.Size)
	tx, ty := f.TargetCell()
	assert.Equal(t, common.V2(0, 0), f.CellCenter(tx, ty))
	f.Build(nil)

	for y := 0; y < f.Size; y++ {
		for x := 0; x < f.Size; x++ {
			require.True(t, f.Reached(x, y))
		}
	}
	// octile distance
	assert.InDelta(t, 5, f.Dist[f.index(0, 5)], 1e-12)
	assert.InDelta(t, 5*math.Sqrt2, f.Dist[f.index(0, 0)], 1e-12)
	assert.InDelta(t, 2+3*math.Sqrt2, f.Dist[f.index(0, 2)], 1e-12)

	d := f.Direction(0, 5)
	assert.InDelta(t, 1, d[0], 1e-12)
	assert.InDelta(t, 0, d[1], 1e-12)
	d = f.Direction(10, 10)
	assert.InDelta(t, -math.Sqrt2/2, d[0], 1e-12)
	assert.InDelta(t, -math.Sqrt2/2, d[1], 1e-12)

	// sampling on a cell center returns that cell's direction
	s := f.Sample(f.CellCenter(0, 5))
	assert.InDelta(t, 1, s[0], 1e-12)
	// outside the grid: straight at the target
	s = f.Sample(common.V2(-20, 0))
	assert.InDelta(t, 1, s[0], 1e-12)
	assert.InDelta(t, 0, s[1], 1e-12)
	s = f.Sample(common.V2(-2.5, 1.3))
	assert.InDelta(t, 1, s.Len(), 1e-9)
}

func TestFlowFieldBlockedPocket(t *testing.T) {
	f := NewFlowField(common.V2(0, 0), 5, 1, 64, nil)
	walls := map[[2]int]bool{}
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			if x != 2 || y != 2 {
				walls[[2]int{x, y}] = true
			}
		}
	}
	f.Build(blockedCells(f, walls))

	for y := 0; y < f.Size; y++ {
		for x := 0; x < f.Size; x++ {
			i := f.index(x, y)
			switch {
			case walls[[2]int{x, y}]:
				assert.True(t, f.Blocked[i])
				assert.False(t, f.Reached(x, y))
			case x == 2 && y == 2:
				assert.False(t, f.Reached(x, y), "pocket is sealed")
			default:
				assert.True(t, f.Reached(x, y), "cell %d,%d", x, y)
			}
		}
	}
	// unreached cells still point at the target
	want := common.VnormalizeSafe(f.Target.Sub(f.CellCenter(2, 2)))
	assert.InDelta(t, want[0], f.Direction(2, 2)[0], 1e-12)
	assert.InDelta(t, want[1], f.Direction(2, 2)[1], 1e-12)
}

func TestFlowFieldNoCornerCutting(t *testing.T) {
	f := NewFlowField(common.V2(0, 0), 5, 1, 64, nil)
	f.Build(blockedCells(f, map[[2]int]bool{{6, 5}: true, {5, 6}: true}))
	require.True(t, f.Reached(6, 6))
	assert.Greater(t, f.Dist[f.index(6, 6)], math.Sqrt2+1e-9)
	d := f.Direction(6, 6)
	assert.False(t, d[0] < -0.5 && d[1] < -0.5, "must not step through the blocked corner")

	// the grid corner only touches the rest diagonally
	f.Build(blockedCells(f, map[[2]int]bool{{1, 0}: true, {0, 1}: true}))
	assert.False(t, f.Reached(0, 0))
	assert.True(t, f.Reached(1, 1))
	toTarget := common.VnormalizeSafe(f.Target.Sub(f.CellCenter(0, 0)))
	assert.InDelta(t, 0, common.Vdist(toTarget, f.Direction(0, 0)), 1e-9)
}

// reachable floods with the same move rules the field uses.
func reachable(f *FlowField) []bool {
	seen := make([]bool, f.Size*f.Size)
	tx, ty := f.TargetCell()
	queue := [][2]int{{tx, ty}}
	seen[f.index(tx, ty)] = true
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, o := range flowOffsets {
			nx, ny := c[0]+o[0], c[1]+o[1]
			if nx < 0 || ny < 0 || nx >= f.Size || ny >= f.Size || f.Blocked[f.index(nx, ny)] {
				continue
			}
			if o[0] != 0 && o[1] != 0 && (f.Blocked[f.index(c[0]+o[0], c[1])] || f.Blocked[f.index(c[0], c[1]+o[1])]) {
				continue
			}
			if !seen[f.index(nx, ny)] {
				seen[f.index(nx, ny)] = true
				queue = append(queue, [2]int{nx, ny})
			}
		}
	}
	return seen
}

func TestFlowFieldReachability(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for round := 0; round < 20; round++ {
		f := NewFlowField(common.V2(1, 1), 6, 0.5, 64, nil)
		walls := map[[2]int]bool{}
		for i := 0; i < f.Size*f.Size/3; i++ {
			walls[[2]int{rng.Intn(f.Size), rng.Intn(f.Size)}] = true
		}
		f.Build(blockedCells(f, walls))
		want := reachable(f)
		for i := range want {
			x, y := i%f.Size, i/f.Size
			require.Equal(t, want[i], f.Reached(x, y), "round %d cell %d,%d", round, x, y)
			if !want[i] {
				d := common.VnormalizeSafe(f.Target.Sub(f.CellCenter(x, y)))
				require.Equal(t, d, f.Direction(x, y))
			}
		}
	}
}

func TestFlowFieldCellCap(t *testing.T) {
	f := NewFlowField(common.V2(0, 0), 10, 0.1, 21, nil)
	assert.Equal(t, 21, f.Size)
	assert.InDelta(t, 1, f.Spacing, 1e-12)
	assert.Equal(t, common.V2(-10, -10), f.Origin)
}

func crowdScene() *scene.Memory {
	mem := scene.NewMemory()
	mem.Add(scene.LayerTerrain, box(0, 0, 20, 20), scene.Transform{})
	mem.Add(scene.LayerStaticObstacle, box(8, 8, 12, 12), scene.Transform{})
	return mem
}

func crowdConfig() config.CrowdConfig {
	cfg := config.Default().Crowd
	cfg.FlowFieldRadius = 20
	return cfg
}

func TestCrowdPathAgentReachesTarget(t *testing.T) {
	mem := crowdScene()
	nav := detour.NewNavMesh(config.Default().NavMesh, nil)
	nav.Generate(mem, nil)
	require.Greater(t, nav.TriangleCount(), 0)

	c := NewCrowd(crowdConfig(), config.Default().BVH, nav, nil)
	a := Agent{Position: common.V2(2, 10), Radius: 0.3, Speed: 2}
	goal := common.V2(18, 10)
	a.Target.SetTargetPosition(goal)
	idx := c.AddAgent(a)
	require.Equal(t, 0, idx)

	const dt = 0.05
	c.Update(dt, mem, mem)
	agent := c.GetAgent(idx)
	require.NotEmpty(t, agent.Path, "first tick answers the new target")
	assert.Equal(t, goal, agent.Path[len(agent.Path)-1])
	assert.Greater(t, len(agent.Path), 1, "path bends around the obstacle")
	assert.Equal(t, 1, c.Statics().Len())

	for i := 0; i < 400; i++ {
		c.Update(dt, mem, mem)
		require.LessOrEqual(t, agent.Velocity.Len(), 1+1e-9)
		c.Advance(dt)
	}
	assert.InDelta(t, 0, common.Vdist(agent.Position, goal), 1e-6)
}

func TestCrowdSwarm(t *testing.T) {
	mem := crowdScene()
	c := NewCrowd(crowdConfig(), config.Default().BVH, nil, nil)
	goal := common.V2(18, 10)
	starts := []common.Vec2{common.V2(2, 8), common.V2(2, 12), common.V2(3, 10), common.V2(1, 10)}
	for _, p := range starts {
		a := Agent{Position: p, Radius: 0.3, Speed: 2, Swarm: true}
		a.Target.SetTargetPosition(goal)
		require.GreaterOrEqual(t, c.AddAgent(a), 0)
	}

	const dt = 0.05
	c.Update(dt, mem, mem)
	f := c.FlowField()
	require.NotNil(t, f)
	assert.Equal(t, goal, f.Target)
	assert.InDelta(t, 0.3, f.Spacing, 1e-12)
	cx, cy, ok := f.Cell(common.V2(10, 10))
	require.True(t, ok)
	assert.True(t, f.Blocked[f.index(cx, cy)])

	for i := 0; i < 300; i++ {
		c.Update(dt, mem, mem)
		c.Advance(dt)
	}
	for i, a := range c.Agents() {
		assert.Less(t, common.Vdist(a.Position, goal), 3.0, "agent %d", i)
		assert.Empty(t, a.Path)
	}
}

func TestCrowdSwarmOtherTarget(t *testing.T) {
	mem := crowdScene()
	nav := detour.NewNavMesh(config.Default().NavMesh, nil)
	nav.Generate(mem, nil)
	c := NewCrowd(crowdConfig(), config.Default().BVH, nav, nil)

	goals := []common.Vec2{common.V2(18, 2), common.V2(2, 18)}
	starts := []common.Vec2{common.V2(2, 2), common.V2(18, 18)}
	for i := range goals {
		a := Agent{Position: starts[i], Radius: 0.3, Speed: 2, Swarm: true}
		a.Target.SetTargetPosition(goals[i])
		require.Equal(t, i, c.AddAgent(a))
	}

	const dt = 0.05
	c.Update(dt, mem, mem)
	require.NotNil(t, c.FlowField())
	assert.Equal(t, goals[0], c.FlowField().Target)
	assert.Empty(t, c.GetAgent(0).Path)
	other := c.GetAgent(1)
	require.NotEmpty(t, other.Path, "field leads elsewhere, agent asks for a path")
	assert.Equal(t, goals[1], other.Path[len(other.Path)-1])
	assert.Greater(t, other.Velocity.Dot(goals[1].Sub(other.Position)), 0.0)

	for i := 0; i < 300; i++ {
		c.Update(dt, mem, mem)
		c.Advance(dt)
	}
	for i, a := range c.Agents() {
		assert.Less(t, common.Vdist(a.Position, goals[i]), 3.0, "agent %d", i)
	}

	// retargeting the field owner moves the field with it
	c.GetAgent(0).Target.SetTargetPosition(common.V2(2, 2))
	c.Update(dt, mem, mem)
	assert.Equal(t, common.V2(2, 2), c.FlowField().Target)
}

type countingQuerier struct{ calls int }

func (q *countingQuerier) FindPath(start, end common.Vec2) ([]common.Vec2, detour.DtStatus) {
	q.calls++
	return []common.Vec2{start, end}, detour.DT_SUCCESS
}

func TestCrowdRequeryStride(t *testing.T) {
	cfg := crowdConfig()
	cfg.RequeryStride = 4
	q := &countingQuerier{}
	c := NewCrowd(cfg, config.Default().BVH, q, nil)
	for i := 0; i < 16; i++ {
		a := Agent{Position: common.V2(float64(i)*3, 0), Radius: 0.3, Speed: 1}
		a.Target.SetTargetPosition(common.V2(float64(i)*3, 100))
		c.AddAgent(a)
	}
	for tick := 1; tick <= 20; tick++ {
		before := q.calls
		c.Update(0.05, nil, nil)
		assert.LessOrEqual(t, q.calls-before, 4, "tick %d", tick)
		if tick >= 4 {
			for i, a := range c.Agents() {
				require.NotEmpty(t, a.Path, "tick %d agent %d", tick, i)
			}
		}
	}
	assert.Greater(t, q.calls, 16, "paths keep being refreshed")

	// a new position target replaces whatever was queued
	agent := c.GetAgent(5)
	agent.Target.SetTargetPosition(common.V2(0, -50))
	for tick := 0; tick < 8 && agent.Path[0] != common.V2(0, -50); tick++ {
		c.Update(0.05, nil, nil)
	}
	assert.Equal(t, common.V2(0, -50), agent.Path[0])
}

func TestCrowdEntityTarget(t *testing.T) {
	mem := scene.NewMemory()
	prey := mem.Add(scene.LayerCharacter, common.DiskShape(common.Disk{Radius: 0.5}), scene.Translation(common.V2(10, 0)))
	q := &countingQuerier{}
	c := NewCrowd(crowdConfig(), config.Default().BVH, q, nil)
	a := Agent{Position: common.V2(0, 0), Radius: 0.3, Speed: 1}
	a.Target.SetTargetEntity(prey)
	idx := c.AddAgent(a)

	c.Update(0.05, mem, mem)
	agent := c.GetAgent(idx)
	assert.Equal(t, []common.Vec2{common.V2(10, 0)}, agent.Path)
	assert.InDelta(t, 1, agent.Velocity[0], 1e-12)

	mem.Remove(prey)
	c.Update(0.05, mem, mem)
	assert.Nil(t, agent.Path)
	assert.Equal(t, common.Vec2{}, agent.Velocity, "no target, stand still")
	assert.True(t, agent.Target.IsChasing())
}

func TestCrowdCapacity(t *testing.T) {
	cfg := crowdConfig()
	cfg.MaxAgents = 2
	c := NewCrowd(cfg, config.Default().BVH, nil, nil)
	assert.Equal(t, 0, c.AddAgent(Agent{Radius: 0.3}))
	assert.Equal(t, 1, c.AddAgent(Agent{Position: common.V2(10, 0), Radius: 0.3}))
	assert.Equal(t, -1, c.AddAgent(Agent{Radius: 0.3}))

	c.RemoveAgent(0)
	assert.Nil(t, c.GetAgent(0))
	assert.Equal(t, 1, c.GetActiveAgentCount())
	assert.Equal(t, 0, c.AddAgent(Agent{Position: common.V2(-10, 0), Radius: 0.3}))
	assert.Nil(t, c.GetAgent(7))

	// no scene, no target: nothing moves
	c.Update(0.05, nil, nil)
	for _, a := range c.Agents() {
		assert.Equal(t, common.Vec2{}, a.Velocity)
	}
}
