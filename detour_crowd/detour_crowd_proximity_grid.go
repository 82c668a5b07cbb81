package detour_crowd

import (
	"math"

	"github.com/gorustyt/planarnav/common"
)

const gridNull = -1

type Item struct {
	id   int
	x, y int
	next int
}

// DtProximityGrid is a spatial hash of agent bounds. Items are rebuilt every
// tick; once the pool is exhausted further cells are silently dropped.
type DtProximityGrid struct {
	m_cellSize    float64
	m_invCellSize float64
	m_pool        []Item
	m_poolHead    int

	m_buckets []int

	m_bounds [4]int
}

func (d *DtProximityGrid) GetBounds() [4]int    { return d.m_bounds }
func (d *DtProximityGrid) GetCellSize() float64 { return d.m_cellSize }

func hashPos2(x, y, n int) int {
	return ((x * 73856093) ^ (y * 19349663)) & (n - 1)
}

func nextPow2(v int) int {
	n := 1
	for n < v {
		n <<= 1
	}
	return n
}

func NewDtProximityGrid(poolSize int, cellSize float64) *DtProximityGrid {
	if poolSize <= 0 {
		poolSize = 1
	}
	if cellSize <= 0 {
		cellSize = 1
	}
	d := &DtProximityGrid{
		m_cellSize:    cellSize,
		m_invCellSize: 1 / cellSize,
		m_buckets:     make([]int, nextPow2(poolSize)),
		m_pool:        make([]Item, poolSize),
	}
	d.Clear()
	return d
}

func (d *DtProximityGrid) Clear() {
	for i := range d.m_buckets {
		d.m_buckets[i] = gridNull
	}
	d.m_poolHead = 0
	d.m_bounds = [4]int{math.MaxInt32, math.MaxInt32, math.MinInt32, math.MinInt32}
}

func (d *DtProximityGrid) cell(v float64) int {
	return int(math.Floor(v * d.m_invCellSize))
}

// AddItem registers id in every cell overlapped by the box.
func (d *DtProximityGrid) AddItem(id int, box common.AABB) {
	iminx, iminy := d.cell(box.Min[0]), d.cell(box.Min[1])
	imaxx, imaxy := d.cell(box.Max[0]), d.cell(box.Max[1])

	d.m_bounds[0] = min(d.m_bounds[0], iminx)
	d.m_bounds[1] = min(d.m_bounds[1], iminy)
	d.m_bounds[2] = max(d.m_bounds[2], imaxx)
	d.m_bounds[3] = max(d.m_bounds[3], imaxy)

	for y := iminy; y <= imaxy; y++ {
		for x := iminx; x <= imaxx; x++ {
			if d.m_poolHead >= len(d.m_pool) {
				return
			}
			h := hashPos2(x, y, len(d.m_buckets))
			idx := d.m_poolHead
			d.m_poolHead++
			d.m_pool[idx] = Item{id: id, x: x, y: y, next: d.m_buckets[h]}
			d.m_buckets[h] = idx
		}
	}
}

// QueryItems appends the distinct ids found in the cells overlapped by box.
func (d *DtProximityGrid) QueryItems(box common.AABB, ids []int) []int {
	iminx, iminy := d.cell(box.Min[0]), d.cell(box.Min[1])
	imaxx, imaxy := d.cell(box.Max[0]), d.cell(box.Max[1])
	start := len(ids)

	for y := iminy; y <= imaxy; y++ {
		for x := iminx; x <= imaxx; x++ {
			h := hashPos2(x, y, len(d.m_buckets))
			for idx := d.m_buckets[h]; idx != gridNull; idx = d.m_pool[idx].next {
				item := &d.m_pool[idx]
				if item.x != x || item.y != y {
					continue
				}
				found := false
				for _, v := range ids[start:] {
					if v == item.id {
						found = true
						break
					}
				}
				if !found {
					ids = append(ids, item.id)
				}
			}
		}
	}
	return ids
}

func (d *DtProximityGrid) GetItemCountAt(x, y int) int {
	n := 0
	h := hashPos2(x, y, len(d.m_buckets))
	for idx := d.m_buckets[h]; idx != gridNull; idx = d.m_pool[idx].next {
		item := &d.m_pool[idx]
		if item.x == x && item.y == y {
			n++
		}
	}
	return n
}
