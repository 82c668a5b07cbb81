package bvh

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
	"github.com/gorustyt/planarnav/config"
	"github.com/gorustyt/planarnav/scene"
)

// Node is a BVH node. Leaves hold Count shapes starting at Start in the shared
// entry array: NumAABB boxes, then NumDisk disks, then polygons. Interior nodes
// have Count == 0 and Start is the index of the left child; the right child
// follows it.
type Node struct {
	Box     r2.Rect
	Start   int
	NumAABB int
	NumDisk int
	Count   int
}

func (n *Node) IsLeaf() bool { return n.Count > 0 }

func (n *Node) Bounds() common.AABB { return fromRect(n.Box) }

type entry struct {
	id       scene.EntityID
	shape    common.Shape // world space
	box      r2.Rect
	centroid r2.Point
	live     bool
}

type Hit struct {
	ID    scene.EntityID
	Shape common.Shape
}

type RayHit struct {
	ID    scene.EntityID
	T     float64
	Point common.Vec2
}

// BVH is a bounding volume hierarchy over the shapes of one collision layer.
type BVH struct {
	layer   scene.Layer
	cfg     config.BVHConfig
	log     *zap.Logger
	entries []entry
	nodes   []Node
}

func New(layer scene.Layer, cfg config.BVHConfig, log *zap.Logger) *BVH {
	if cfg.MaxLeafShapes <= 0 {
		cfg.MaxLeafShapes = 2
	}
	if cfg.SplitCandidates <= 0 {
		cfg.SplitCandidates = 16
	}
	log = logger.OrNop(log)
	return &BVH{layer: layer, cfg: cfg, log: log}
}

func (b *BVH) Layer() scene.Layer { return b.layer }

func (b *BVH) Len() int { return len(b.entries) }

func (b *BVH) Nodes() []Node { return b.nodes }

func (b *BVH) Bounds() common.AABB {
	if len(b.nodes) == 0 {
		return common.EmptyAABB()
	}
	return b.nodes[0].Bounds()
}

func makeEntry(id scene.EntityID, world common.Shape) entry {
	box := toRect(world.Bounds())
	return entry{id: id, shape: world, box: box, centroid: box.Center(), live: true}
}

type buildTask struct {
	node int
}

// Build gathers every shape of the layer and partitions them from scratch.
func (b *BVH) Build(src scene.Source) {
	b.entries = b.entries[:0]
	for kind := common.ShapeAABB; kind < common.ShapeKindCount; kind++ {
		src.EachShape(kind, b.layer, func(id scene.EntityID, local common.Shape, tf scene.Transform) {
			b.entries = append(b.entries, makeEntry(id, scene.WorldShape(local, tf)))
		})
	}
	n := len(b.entries)
	b.nodes = b.nodes[:0]
	if n == 0 {
		return
	}
	// 预留全部节点，构建过程中不会扩容
	if cap(b.nodes) < 2*n-1 {
		b.nodes = make([]Node, 0, 2*n-1)
	}
	b.nodes = append(b.nodes, Node{Start: 0, Count: n})

	tieBreak := 0
	stack := common.NewStackCap[buildTask](64)
	stack.Push(buildTask{node: 0})
	for !stack.Empty() {
		task := stack.Pop()
		node := &b.nodes[task.node]
		lo, cnt := node.Start, node.Count
		node.Box = b.rangeBox(lo, cnt)
		if cnt <= b.cfg.MaxLeafShapes {
			b.finishLeaf(task.node)
			continue
		}
		mid := b.partition(lo, cnt, &tieBreak)
		left := len(b.nodes)
		b.nodes = append(b.nodes,
			Node{Start: lo, Count: mid - lo},
			Node{Start: mid, Count: lo + cnt - mid},
		)
		node = &b.nodes[task.node]
		node.Start = left
		node.Count = 0
		stack.Push(buildTask{node: left + 1})
		stack.Push(buildTask{node: left})
	}
	b.log.Debug("bvh built",
		zap.Stringer("layer", b.layer), zap.Int("shapes", n), zap.Int("nodes", len(b.nodes)))
}

func (b *BVH) rangeBox(lo, cnt int) r2.Rect {
	box := r2.EmptyRect()
	for i := lo; i < lo+cnt; i++ {
		if b.entries[i].live {
			box = box.AddRect(b.entries[i].box)
		}
	}
	return box
}

func (b *BVH) finishLeaf(idx int) {
	node := &b.nodes[idx]
	leaf := b.entries[node.Start : node.Start+node.Count]
	sort.SliceStable(leaf, func(i, j int) bool { return leaf[i].shape.Kind < leaf[j].shape.Kind })
	node.NumAABB, node.NumDisk = 0, 0
	for _, e := range leaf {
		switch e.shape.Kind {
		case common.ShapeAABB:
			node.NumAABB++
		case common.ShapeDisk:
			node.NumDisk++
		}
	}
}

func axisOf(p r2.Point, axis int) float64 {
	if axis == 0 {
		return p.X
	}
	return p.Y
}

// partition reorders [lo, lo+cnt) around the cheapest sampled split plane and
// returns the first index of the right half.
func (b *BVH) partition(lo, cnt int, tieBreak *int) int {
	items := b.entries[lo : lo+cnt]
	cb := r2.EmptyRect()
	for _, e := range items {
		cb = cb.AddPoint(e.centroid)
	}
	size := cb.Size()
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	extent := axisOf(size, axis)
	start := axisOf(cb.Lo(), axis)

	bestCost, bestPos := math.Inf(1), math.NaN()
	if extent > 0 {
		k := b.cfg.SplitCandidates
		for i := 0; i < k; i++ {
			pos := start + extent*float64(i+1)/float64(k+1)
			lb, rb := r2.EmptyRect(), r2.EmptyRect()
			nl, nr := 0, 0
			for _, e := range items {
				if axisOf(e.centroid, axis) < pos {
					lb = lb.AddRect(e.box)
					nl++
				} else {
					rb = rb.AddRect(e.box)
					nr++
				}
			}
			if nl == 0 || nr == 0 {
				continue
			}
			if cost := float64(nl)*perimeter(lb) + float64(nr)*perimeter(rb); cost < bestCost {
				bestCost, bestPos = cost, pos
			}
		}
	}

	if !math.IsNaN(bestPos) {
		i, j := 0, len(items)-1
		for i <= j {
			if axisOf(items[i].centroid, axis) < bestPos {
				i++
				continue
			}
			items[i], items[j] = items[j], items[i]
			j--
		}
		return lo + i
	}

	// 质心重合或没有可用的划分，退化为中位数划分；相等时交替放到两侧
	sort.SliceStable(items, func(i, j int) bool {
		return axisOf(items[i].centroid, axis) < axisOf(items[j].centroid, axis)
	})
	mid := cnt / 2
	if cnt%2 == 1 {
		mid += *tieBreak & 1
		*tieBreak++
	}
	return lo + mid
}

// Refit recomputes world shapes and node boxes without repartitioning.
// Entities that disappeared from src are skipped by later queries.
func (b *BVH) Refit(src scene.Source) {
	for i := range b.entries {
		e := &b.entries[i]
		world, ok := scene.WorldShapeOf(src, e.id)
		if !ok || world.Kind != e.shape.Kind {
			e.live = false
			continue
		}
		*e = makeEntry(e.id, world)
	}
	// 子节点的下标总是大于父节点
	for i := len(b.nodes) - 1; i >= 0; i-- {
		node := &b.nodes[i]
		if node.IsLeaf() {
			node.Box = b.rangeBox(node.Start, node.Count)
			continue
		}
		node.Box = b.nodes[node.Start].Box.AddRect(b.nodes[node.Start+1].Box)
	}
}

// Query calls onIntersect for every shape overlapping the query shape. The
// traversal stops as soon as shouldReturn, when set, reports true.
func (b *BVH) Query(shape common.Shape, onIntersect func(Hit), shouldReturn func() bool) {
	if len(b.nodes) == 0 {
		return
	}
	qbox := toRect(shape.Bounds())
	stack := common.NewStackCap[int](32)
	stack.Push(0)
	for !stack.Empty() {
		node := &b.nodes[stack.Pop()]
		if !node.Box.Intersects(qbox) {
			continue
		}
		if !node.IsLeaf() {
			l, r := node.Start, node.Start+1
			if b.nodes[r].Box.Intersects(qbox) {
				stack.Push(r)
			}
			if b.nodes[l].Box.Intersects(qbox) {
				stack.Push(l)
			}
			continue
		}
		for i := node.Start; i < node.Start+node.Count; i++ {
			e := &b.entries[i]
			if !e.live || !e.box.Intersects(qbox) || !Overlaps(shape, e.shape) {
				continue
			}
			onIntersect(Hit{ID: e.id, Shape: e.shape})
			if shouldReturn != nil && shouldReturn() {
				return
			}
		}
	}
}

func (b *BVH) QueryAll(shape common.Shape) []scene.EntityID {
	var ids []scene.EntityID
	b.Query(shape, func(h Hit) { ids = append(ids, h.ID) }, nil)
	return ids
}

// Any reports whether any shape overlaps the query shape.
func (b *BVH) Any(shape common.Shape) bool {
	found := false
	b.Query(shape, func(Hit) { found = true }, func() bool { return found })
	return found
}

// Raycast returns the nearest shape hit by the ray within maxDist. dir must be
// unit length.
func (b *BVH) Raycast(origin, dir common.Vec2, maxDist float64) (RayHit, bool) {
	var best RayHit
	found := false
	if len(b.nodes) == 0 || maxDist <= 0 {
		return best, false
	}
	limit := maxDist
	stack := common.NewStackCap[int](32)
	stack.Push(0)
	for !stack.Empty() {
		node := &b.nodes[stack.Pop()]
		if _, ok := rayBox(origin, dir, node.Box, limit); !ok {
			continue
		}
		if !node.IsLeaf() {
			stack.Push(node.Start + 1)
			stack.Push(node.Start)
			continue
		}
		for i := node.Start; i < node.Start+node.Count; i++ {
			e := &b.entries[i]
			if !e.live {
				continue
			}
			if t, ok := RaycastShape(origin, dir, limit, e.shape); ok && (!found || t < best.T) {
				best = RayHit{ID: e.id, T: t, Point: origin.Add(dir.Mul(t))}
				limit = t
				found = true
			}
		}
	}
	return best, found
}
