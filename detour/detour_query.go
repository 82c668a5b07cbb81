package detour

import (
	"math"

	"github.com/gorustyt/planarnav/common"
)

var inf = math.Inf(1)

// AStarSearch returns the node ids of a cheapest path from start to end,
// both inclusive. The result is empty when end cannot be reached or either
// id is invalid.
func (g *Graph) AStarSearch(start, end int) []int {
	n := len(g.Nodes)
	if start < 0 || start >= n || end < 0 || end >= n {
		return nil
	}
	if start == end {
		return []int{start}
	}
	goal := g.Nodes[end].Pos

	g.pool.Resize(n)
	g.pool.Clear()
	g.openList.Reset()
	g.seq = 0

	startNode := g.pool.GetNode(start)
	startNode.Cost = 0
	startNode.Total = common.Vdist(g.Nodes[start].Pos, goal)
	startNode.Flags = DT_NODE_OPEN
	g.offer(startNode)

	for !g.openList.Empty() {
		// Remove node from open list and put it in closed list.
		bestNode := g.openList.Poll()
		bestNode.Flags &= ^uint32(DT_NODE_OPEN)
		bestNode.Flags |= DT_NODE_CLOSED

		// Reached the goal, stop searching.
		if bestNode.Id == end {
			return g.pathToNode(bestNode)
		}

		for _, e := range g.Nodes[bestNode.Id].Edges {
			if e.To < 0 || e.To >= n || e.To == bestNode.Pidx {
				continue
			}
			neighbourNode := g.pool.GetNode(e.To)
			cost := bestNode.Cost + e.Weight
			total := cost + common.Vdist(g.Nodes[e.To].Pos, goal)

			// The node is already in open list and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_OPEN > 0 && total >= neighbourNode.Total {
				continue
			}
			// The node is already visited and process, and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_CLOSED > 0 && total >= neighbourNode.Total {
				continue
			}

			neighbourNode.Pidx = bestNode.Id
			neighbourNode.Flags &= ^uint32(DT_NODE_CLOSED)
			neighbourNode.Cost = cost
			neighbourNode.Total = total

			if neighbourNode.Flags&DT_NODE_OPEN > 0 {
				// Already in open, update node location.
				g.openList.Update(neighbourNode)
			} else {
				neighbourNode.Flags |= DT_NODE_OPEN
				g.offer(neighbourNode)
			}
		}
	}
	return nil
}

func (g *Graph) offer(node *DtNode) {
	node.seq = g.seq
	g.seq++
	g.openList.Offer(node)
}

func (g *Graph) pathToNode(endNode *DtNode) []int {
	var path []int
	for node := endNode; ; {
		path = append(path, node.Id)
		if node.Pidx < 0 {
			break
		}
		parent, ok := g.pool.FindNode(node.Pidx)
		if !common.Assert(ok && len(path) <= len(g.Nodes), "broken parent chain at node %d", node.Id) {
			return nil
		}
		node = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
