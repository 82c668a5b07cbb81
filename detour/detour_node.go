package detour

const (
	DT_NODE_OPEN   = 0x01
	DT_NODE_CLOSED = 0x02
)

// DtNode is the search state of one graph node during a single query.
// Flags == 0 means the node has not been reached yet.
type DtNode struct {
	Id     int     ///< Graph node the search node corresponds to.
	Cost   float64 ///< Cost from the start node.
	Total  float64 ///< Cost plus heuristic.
	Pidx   int     ///< Parent node, -1 at the start.
	Flags  uint32  ///< Node flags. A combination of DT_NODE_OPEN and DT_NODE_CLOSED.
	seq    int     // 入队顺序，总代价相同时先入先出
	_index int     //堆中移除和更新对象用
}

func (node *DtNode) SetIndex(index int) {
	node._index = index
}

func (node *DtNode) GetIndex() int {
	return node._index
}

func dtNodeLess(a, b *DtNode) bool {
	if a.Total != b.Total {
		return a.Total < b.Total
	}
	return a.seq < b.seq
}

// DtNodePool owns one search node per graph node. Only the nodes touched by the
// last query are reset.
type DtNodePool struct {
	nodes   []DtNode
	touched []int
}

func NewDtNodePool(size int) *DtNodePool {
	return &DtNodePool{nodes: make([]DtNode, size)}
}

func (p *DtNodePool) Clear() {
	for _, id := range p.touched {
		p.nodes[id] = DtNode{}
	}
	p.touched = p.touched[:0]
}

// Resize grows the pool to cover size graph nodes.
func (p *DtNodePool) Resize(size int) {
	if size <= len(p.nodes) {
		return
	}
	// 只在查询之外扩容，查询过程中节点地址保持不变
	nodes := make([]DtNode, size)
	copy(nodes, p.nodes)
	p.nodes = nodes
}

func (p *DtNodePool) GetNode(id int) *DtNode {
	node := &p.nodes[id]
	if node.Flags == 0 {
		*node = DtNode{Id: id, Pidx: -1, _index: -1}
		p.touched = append(p.touched, id)
	}
	return node
}

func (p *DtNodePool) FindNode(id int) (*DtNode, bool) {
	if id < 0 || id >= len(p.nodes) || p.nodes[id].Flags == 0 {
		return nil, false
	}
	return &p.nodes[id], true
}
