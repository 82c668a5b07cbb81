package detour

import (
	"github.com/gorustyt/planarnav/common"
)

type Edge struct {
	Weight float64
	To     int
}

type Node struct {
	ID    int
	Pos   common.Vec2
	Edges []Edge
}

// Graph is an arena of nodes addressed by index. Searches reuse per-graph
// scratch state, so a Graph must not be searched concurrently.
type Graph struct {
	Nodes    []Node
	pool     *DtNodePool
	openList common.NodeQueue[*DtNode]
	seq      int
}

func NewGraph(capacity int) *Graph {
	return &Graph{
		Nodes:    make([]Node, 0, capacity),
		pool:     NewDtNodePool(capacity),
		openList: common.NewNodeQueue[*DtNode](dtNodeLess),
	}
}

func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

func (g *Graph) AddNode(pos common.Vec2) int {
	id := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, Pos: pos})
	return id
}

// AddEdge adds a directed edge. The weight defaults to the distance between
// the two node positions.
func (g *Graph) AddEdge(from, to int, weights ...float64) bool {
	if !common.Assert(from >= 0 && from < len(g.Nodes) && to >= 0 && to < len(g.Nodes),
		"graph edge %d->%d out of range [0,%d)", from, to, len(g.Nodes)) {
		return false
	}
	w := common.Vdist(g.Nodes[from].Pos, g.Nodes[to].Pos)
	if len(weights) > 0 {
		w = weights[0]
	}
	g.Nodes[from].Edges = append(g.Nodes[from].Edges, Edge{Weight: w, To: to})
	return true
}

// PathCost sums the weights of the edges along path. Missing edges cost +Inf.
func (g *Graph) PathCost(path []int) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		w, ok := g.edgeWeight(path[i], path[i+1])
		if !ok {
			return inf
		}
		total += w
	}
	return total
}

func (g *Graph) edgeWeight(from, to int) (float64, bool) {
	if from < 0 || from >= len(g.Nodes) {
		return 0, false
	}
	best, ok := inf, false
	for _, e := range g.Nodes[from].Edges {
		if e.To == to && e.Weight < best {
			best, ok = e.Weight, true
		}
	}
	return best, ok
}
