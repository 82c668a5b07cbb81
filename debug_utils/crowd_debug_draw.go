package debug_utils

import (
	"math"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/detour_crowd"
)

var (
	flowCol        = DuRGBA(128, 128, 255, 160)
	flowNearCol    = DuRGBA(255, 255, 255, 200)
	flowBlockedCol = DuRGBA(255, 64, 32, 160)
	agentCol       = DuRGBA(220, 220, 220, 255)
	swarmCol       = DuRGBA(255, 128, 220, 255)
	avoidCol       = DuRGBA(255, 64, 64, 64)
)

// DuDebugDrawFlowField draws one arrow per reached cell, fading with the
// distance to the target, and a cross on each blocked cell.
func DuDebugDrawFlowField(dd DuDebugDraw, vis Visibility, f *detour_crowd.FlowField) {
	if dd == nil || !vis.Visible(DU_DRAW_FLOW_FIELD) || f == nil {
		return
	}
	arrow := f.Spacing * 0.4
	far := math.Max(float64(f.Size/2)*math.Sqrt2, 1)
	for y := 0; y < f.Size; y++ {
		for x := 0; x < f.Size; x++ {
			c := f.CellCenter(x, y)
			if f.Blocked[y*f.Size+x] {
				DuAppendCross(dd, DU_DRAW_FLOW_FIELD, c, f.Spacing*0.25, flowBlockedCol)
				continue
			}
			if !f.Reached(x, y) {
				continue
			}
			d := f.Direction(x, y)
			if d == (common.Vec2{}) {
				continue
			}
			u := math.Min(f.Dist[y*f.Size+x]/far, 1)
			col := DuLerpCol(flowNearCol, flowCol, uint8(u*255))
			DuAppendArrow(dd, DU_DRAW_FLOW_FIELD, c, c.Add(d.Mul(arrow)), arrow*0.3, col)
		}
	}
	dd.Circle(DU_DRAW_FLOW_FIELD, f.Target, f.Spacing*0.5, flowCol)
}

// DuDebugDrawAgent draws the body and velocity, the remaining path and the
// avoidance radius, each under its own category.
func DuDebugDrawAgent(dd DuDebugDraw, vis Visibility, a *detour_crowd.Agent, avoidanceFactor float64) {
	if dd == nil || a == nil {
		return
	}
	col := agentCol
	if a.Swarm {
		col = swarmCol
	}
	if vis.Visible(DU_DRAW_PATH) {
		dd.Circle(DU_DRAW_PATH, a.Position, a.Radius, col)
		if a.Velocity != (common.Vec2{}) {
			DuAppendArrow(dd, DU_DRAW_PATH, a.Position, a.Position.Add(a.Velocity.Mul(a.Radius*2)), a.Radius*0.5, col)
		}
		if len(a.Path) > 0 {
			DuDebugDrawPath(dd, vis, append([]common.Vec2{a.Position}, a.Path...))
		}
	}
	if vis.Visible(DU_DRAW_AVOIDANCE) && avoidanceFactor > 0 {
		dd.Circle(DU_DRAW_AVOIDANCE, a.Position, a.Radius*avoidanceFactor, avoidCol)
	}
}

// DuDebugDrawCrowd draws every agent, the flow field and the obstacle BVH.
func DuDebugDrawCrowd(dd DuDebugDraw, vis Visibility, c *detour_crowd.Crowd, avoidanceFactor float64) {
	if dd == nil || c == nil {
		return
	}
	DuDebugDrawFlowField(dd, vis, c.FlowField())
	DuDebugDrawBVH(dd, vis, c.Statics())
	for _, a := range c.Agents() {
		DuDebugDrawAgent(dd, vis, a, avoidanceFactor)
	}
}
