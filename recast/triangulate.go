package recast

import (
	"math"

	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
)

type TriangulateOptions struct {
	// Vertices closer than this (per axis, after rounding) are merged.
	VertexEpsilon float64
	// Upper bound on edge flips spent recovering constraint edges.
	MaxFlips int
	Log      *zap.Logger
}

type cdtTri struct {
	v    [3]int
	n    [3]int
	c    [3]bool // 约束边
	dead bool
}

type cdt struct {
	pts   []common.Vec2
	tris  []cdtTri
	vt    []int // 顶点 -> 任一相邻三角形
	last  int
	flips int
	opt   TriangulateOptions
	log   *zap.Logger
}

const superVerts = 3

// Triangulate builds a constrained Delaunay triangulation of the contours and
// keeps the triangles inside them under the even-odd rule, which removes both
// the exterior and the holes.
func Triangulate(polys []common.Polygon, opt TriangulateOptions) *TriMesh {
	log := logger.OrNop(opt.Log)
	if opt.MaxFlips <= 0 {
		opt.MaxFlips = 1 << 20
	}

	pts, rings := weldVertices(polys, opt.VertexEpsilon)
	if len(pts) < 3 {
		log.Debug("triangulate: fewer than three vertices", zap.Int("verts", len(pts)))
		return &TriMesh{}
	}

	c := newCdt(pts, opt, log)
	for i := superVerts; i < len(c.pts); i++ {
		c.insertPoint(i)
	}
	for _, ring := range rings {
		for i := range ring {
			a, b := ring[i], ring[common.Next(i, len(ring))]
			if a != b {
				c.insertConstraint(a, b)
			}
		}
	}
	return c.extract(polys)
}

// weldVertices merges coincident vertices and returns the contours as index rings.
// Indices are offset by the three super triangle vertices.
func weldVertices(polys []common.Polygon, eps float64) ([]common.Vec2, [][]int) {
	type key [2]float64
	quant := func(v common.Vec2) key {
		if eps <= 0 {
			return key{v[0], v[1]}
		}
		return key{math.Round(v[0] / eps), math.Round(v[1] / eps)}
	}
	index := map[key]int{}
	var pts []common.Vec2
	rings := make([][]int, 0, len(polys))
	for _, poly := range polys {
		ring := make([]int, 0, len(poly))
		for _, v := range poly {
			k := quant(v)
			id, ok := index[k]
			if !ok {
				id = len(pts) + superVerts
				index[k] = id
				pts = append(pts, v)
			}
			if len(ring) > 0 && ring[len(ring)-1] == id {
				continue
			}
			ring = append(ring, id)
		}
		for len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		if len(ring) >= 2 {
			rings = append(rings, ring)
		}
	}
	return pts, rings
}

func newCdt(pts []common.Vec2, opt TriangulateOptions, log *zap.Logger) *cdt {
	box := common.EmptyAABB()
	for _, p := range pts {
		box = box.AddPoint(p)
	}
	mid := box.Center()
	d := max(box.Size()[0], box.Size()[1])
	if d <= 0 {
		d = 1
	}
	all := make([]common.Vec2, 0, len(pts)+superVerts)
	all = append(all,
		common.Vec2{mid[0] - 20*d, mid[1] - d},
		common.Vec2{mid[0] + 20*d, mid[1] - d},
		common.Vec2{mid[0], mid[1] + 20*d},
	)
	all = append(all, pts...)

	c := &cdt{
		pts:  all,
		tris: make([]cdtTri, 0, 2*len(all)+1),
		vt:   make([]int, len(all)),
		opt:  opt,
		log:  log,
	}
	for i := range c.vt {
		c.vt[i] = -1
	}
	c.addTri(cdtTri{v: [3]int{0, 1, 2}, n: [3]int{-1, -1, -1}})
	return c
}

func (c *cdt) addTri(t cdtTri) int {
	idx := len(c.tris)
	c.tris = append(c.tris, t)
	c.touch(idx)
	return idx
}

func (c *cdt) setTri(idx int, t cdtTri) {
	c.tris[idx] = t
	c.touch(idx)
}

func (c *cdt) touch(idx int) {
	for _, v := range c.tris[idx].v {
		c.vt[v] = idx
	}
	c.last = idx
}

func (c *cdt) triPts(t int) (common.Vec2, common.Vec2, common.Vec2) {
	v := c.tris[t].v
	return c.pts[v[0]], c.pts[v[1]], c.pts[v[2]]
}

// edgeIndex returns the index of the directed edge a->b in t, or -1.
func (c *cdt) edgeIndex(t, a, b int) int {
	v := c.tris[t].v
	for e := 0; e < 3; e++ {
		if v[e] == a && v[(e+1)%3] == b {
			return e
		}
	}
	return -1
}

func (c *cdt) replaceNeighbor(t, old, nw int) {
	if t < 0 {
		return
	}
	for e := 0; e < 3; e++ {
		if c.tris[t].n[e] == old {
			c.tris[t].n[e] = nw
			return
		}
	}
}

// locate walks from the last touched triangle towards p.
func (c *cdt) locate(p common.Vec2) int {
	t := c.last
	if t < 0 || t >= len(c.tris) || c.tris[t].dead {
		t = -1
		for i := range c.tris {
			if !c.tris[i].dead {
				t = i
				break
			}
		}
	}
	for steps := 0; t >= 0 && steps <= len(c.tris); steps++ {
		tri := &c.tris[t]
		moved := false
		for e := 0; e < 3; e++ {
			a, b := c.pts[tri.v[e]], c.pts[tri.v[(e+1)%3]]
			if common.Orient2D(a, b, p) < 0 {
				t = tri.n[e]
				moved = true
				break
			}
		}
		if !moved {
			return t
		}
	}
	// 游走失败时退化为线性扫描
	for i := range c.tris {
		if c.tris[i].dead {
			continue
		}
		a, b, cc := c.triPts(i)
		if common.Orient2D(a, b, p) >= 0 && common.Orient2D(b, cc, p) >= 0 && common.Orient2D(cc, a, p) >= 0 {
			return i
		}
	}
	return -1
}

type cavityEdge struct {
	a, b  int
	outer int
}

// insertPoint adds vertex pi with Bowyer-Watson: remove every triangle whose
// circumcircle strictly contains the point and fan the cavity from it.
func (c *cdt) insertPoint(pi int) {
	p := c.pts[pi]
	start := c.locate(p)
	if start < 0 {
		c.log.Warn("triangulate: vertex outside super triangle", zap.Int("vertex", pi))
		return
	}

	bad := map[int]bool{start: true}
	order := []int{start}
	for i := 0; i < len(order); i++ {
		for _, nb := range c.tris[order[i]].n {
			if nb < 0 || bad[nb] {
				continue
			}
			a, b, cc := c.triPts(nb)
			if common.InCircle(a, b, cc, p) > 0 {
				bad[nb] = true
				order = append(order, nb)
			}
		}
	}

	var boundary []cavityEdge
	for _, t := range order {
		tri := c.tris[t]
		for e := 0; e < 3; e++ {
			if nb := tri.n[e]; nb < 0 || !bad[nb] {
				boundary = append(boundary, cavityEdge{a: tri.v[e], b: tri.v[(e+1)%3], outer: nb})
			}
		}
	}

	slots := order
	for _, t := range order {
		c.tris[t].dead = true
	}
	created := make([]int, len(boundary))
	byStart := make(map[int]int, len(boundary))
	byEnd := make(map[int]int, len(boundary))
	for i, be := range boundary {
		tri := cdtTri{v: [3]int{be.a, be.b, pi}, n: [3]int{be.outer, -1, -1}}
		var idx int
		if i < len(slots) {
			idx = slots[i]
			c.setTri(idx, tri)
		} else {
			idx = c.addTri(tri)
		}
		created[i] = idx
		byStart[be.a] = idx
		byEnd[be.b] = idx
		if be.outer >= 0 {
			if k := c.edgeIndex(be.outer, be.b, be.a); k >= 0 {
				c.tris[be.outer].n[k] = idx
			}
		}
	}
	for i, be := range boundary {
		tri := &c.tris[created[i]]
		tri.n[1] = byStart[be.b]
		tri.n[2] = byEnd[be.a]
	}
}

// around visits the triangles incident to vertex a, passing the corner index of a.
// fn returns true to stop.
func (c *cdt) around(a int, fn func(t, i int) bool) {
	start := c.vt[a]
	if start < 0 || c.tris[start].dead {
		start = -1
		for t := range c.tris {
			if !c.tris[t].dead && (c.tris[t].v[0] == a || c.tris[t].v[1] == a || c.tris[t].v[2] == a) {
				start = t
				break
			}
		}
		if start < 0 {
			return
		}
	}
	corner := func(t int) int {
		for i, v := range c.tris[t].v {
			if v == a {
				return i
			}
		}
		return -1
	}
	t := start
	for {
		i := corner(t)
		if i < 0 {
			return
		}
		if fn(t, i) {
			return
		}
		// 逆时针绕顶点旋转
		t = c.tris[t].n[(i+2)%3]
		if t == start {
			return
		}
		if t < 0 {
			break
		}
	}
	// 碰到边界时从起点反方向继续
	t = c.tris[start].n[corner(start)]
	for t >= 0 && t != start {
		i := corner(t)
		if i < 0 || fn(t, i) {
			return
		}
		t = c.tris[t].n[i]
	}
}

// findEdge returns the triangle holding the directed edge a->b and its index.
func (c *cdt) findEdge(a, b int) (int, int) {
	ft, fe := -1, -1
	c.around(a, func(t, i int) bool {
		if c.tris[t].v[(i+1)%3] == b {
			ft, fe = t, i
			return true
		}
		return false
	})
	return ft, fe
}

func (c *cdt) markConstrained(t, e int) {
	tri := &c.tris[t]
	tri.c[e] = true
	a, b := tri.v[e], tri.v[(e+1)%3]
	if nb := tri.n[e]; nb >= 0 {
		if k := c.edgeIndex(nb, b, a); k >= 0 {
			c.tris[nb].c[k] = true
		}
	}
}

func (c *cdt) insertConstraint(a, b int) {
	work := [][2]int{{a, b}}
	for len(work) > 0 {
		seg := work[len(work)-1]
		work = work[:len(work)-1]
		a, b := seg[0], seg[1]
		if a == b {
			continue
		}
		if t, e := c.findEdge(a, b); t >= 0 {
			c.markConstrained(t, e)
			continue
		}
		if t, e := c.findEdge(b, a); t >= 0 {
			c.markConstrained(t, e)
			continue
		}
		crossed, split, ok := c.crossingEdges(a, b)
		if split >= 0 {
			work = append(work, [2]int{a, split}, [2]int{split, b})
			continue
		}
		if !ok {
			c.log.Warn("triangulate: cannot recover constraint edge",
				zap.Int("a", a), zap.Int("b", b))
			continue
		}
		if !c.flipOut(a, b, crossed) {
			c.log.Warn("triangulate: flip budget exhausted", zap.Int("flips", c.flips))
			continue
		}
		if t, e := c.findEdge(a, b); t >= 0 {
			c.markConstrained(t, e)
		} else if t, e := c.findEdge(b, a); t >= 0 {
			c.markConstrained(t, e)
		}
	}
}

// crossingEdges lists the edges properly crossed by segment a-b, each stored with
// its right endpoint first. When a vertex lies on the segment it is returned as
// split instead.
func (c *cdt) crossingEdges(a, b int) (crossed [][2]int, split int, ok bool) {
	pa, pb := c.pts[a], c.pts[b]
	dir := pb.Sub(pa)
	split = -1
	start, startEdge := -1, -1
	var u, w int
	c.around(a, func(t, i int) bool {
		tu, tw := c.tris[t].v[(i+1)%3], c.tris[t].v[(i+2)%3]
		ou := common.Orient2D(pa, pb, c.pts[tu])
		ow := common.Orient2D(pa, pb, c.pts[tw])
		if ou == 0 && c.pts[tu].Sub(pa).Dot(dir) > 0 {
			split = tu
			return true
		}
		if ow == 0 && c.pts[tw].Sub(pa).Dot(dir) > 0 {
			split = tw
			return true
		}
		if ou < 0 && ow > 0 {
			start, startEdge = t, (i+1)%3
			u, w = tu, tw
			return true
		}
		return false
	})
	if split >= 0 {
		return nil, split, true
	}
	if start < 0 {
		return nil, -1, false
	}

	t, e := start, startEdge
	for steps := 0; steps <= len(c.tris); steps++ {
		if c.tris[t].c[e] {
			// 约束边互相交叉，输入不是合法的平面划分
			return nil, -1, false
		}
		crossed = append(crossed, [2]int{u, w})
		nt := c.tris[t].n[e]
		if nt < 0 {
			return nil, -1, false
		}
		k := c.edgeIndex(nt, w, u)
		if k < 0 {
			return nil, -1, false
		}
		x := c.tris[nt].v[(k+2)%3]
		if x == b {
			return crossed, -1, true
		}
		ox := common.Orient2D(pa, pb, c.pts[x])
		switch {
		case ox == 0:
			return nil, x, true
		case ox < 0:
			u, e = x, (k+2)%3
		default:
			w, e = x, (k+1)%3
		}
		t = nt
	}
	return nil, -1, false
}

// flip swaps the diagonal of the quad formed by t and its neighbor across edge k.
// It returns the new diagonal endpoints.
func (c *cdt) flip(t, k int) (int, int) {
	t1 := c.tris[t]
	u, w, p1 := t1.v[k], t1.v[(k+1)%3], t1.v[(k+2)%3]
	A, cA := t1.n[(k+1)%3], t1.c[(k+1)%3]
	B, cB := t1.n[(k+2)%3], t1.c[(k+2)%3]

	t2i := t1.n[k]
	t2 := c.tris[t2i]
	k2 := c.edgeIndex(t2i, w, u)
	p2 := t2.v[(k2+2)%3]
	C, cC := t2.n[(k2+1)%3], t2.c[(k2+1)%3]
	D, cD := t2.n[(k2+2)%3], t2.c[(k2+2)%3]

	c.setTri(t, cdtTri{v: [3]int{u, p2, p1}, n: [3]int{C, t2i, B}, c: [3]bool{cC, false, cB}})
	c.setTri(t2i, cdtTri{v: [3]int{w, p1, p2}, n: [3]int{A, t, D}, c: [3]bool{cA, false, cD}})
	c.replaceNeighbor(A, t, t2i)
	c.replaceNeighbor(C, t2i, t)
	c.flips++
	return p1, p2
}

// quad returns the far vertices of the two triangles around edge k of t and
// whether the quad is strictly convex.
func (c *cdt) quad(t, k int) (p1, p2 int, convex bool) {
	tri := c.tris[t]
	u, w := tri.v[k], tri.v[(k+1)%3]
	p1 = tri.v[(k+2)%3]
	nt := tri.n[k]
	if nt < 0 {
		return p1, -1, false
	}
	k2 := c.edgeIndex(nt, w, u)
	if k2 < 0 {
		return p1, -1, false
	}
	p2 = c.tris[nt].v[(k2+2)%3]
	ou := common.Orient2D(c.pts[p1], c.pts[p2], c.pts[u])
	ow := common.Orient2D(c.pts[p1], c.pts[p2], c.pts[w])
	return p1, p2, (ou > 0 && ow < 0) || (ou < 0 && ow > 0)
}

// flipOut removes the crossed edges by flipping until a-b becomes an edge,
// then restores the Delaunay property around the new edges.
func (c *cdt) flipOut(a, b int, crossed [][2]int) bool {
	pa, pb := c.pts[a], c.pts[b]
	queue := crossed
	var created [][2]int
	for len(queue) > 0 {
		if c.flips >= c.opt.MaxFlips {
			return false
		}
		e := queue[0]
		queue = queue[1:]
		t, k := c.findEdge(e[0], e[1])
		if t < 0 {
			continue
		}
		if _, _, convex := c.quad(t, k); !convex {
			queue = append(queue, e)
			c.flips++
			continue
		}
		n1, n2 := c.flip(t, k)
		if common.IntersectProp(pa, pb, c.pts[n1], c.pts[n2]) {
			queue = append(queue, [2]int{n1, n2})
		} else {
			created = append(created, [2]int{n1, n2})
		}
	}

	for changed := true; changed; {
		changed = false
		for i, e := range created {
			if (e[0] == a && e[1] == b) || (e[0] == b && e[1] == a) {
				continue
			}
			t, k := c.findEdge(e[0], e[1])
			if t < 0 || c.tris[t].c[k] {
				continue
			}
			_, p2, convex := c.quad(t, k)
			if !convex {
				continue
			}
			x, y, z := c.triPts(t)
			if common.InCircle(x, y, z, c.pts[p2]) > 0 {
				if c.flips >= c.opt.MaxFlips {
					return true
				}
				n1, n2 := c.flip(t, k)
				created[i] = [2]int{n1, n2}
				changed = true
			}
		}
	}
	return true
}

// extract drops super triangle fans and triangles outside the contours, then
// compacts vertices and adjacency.
func (c *cdt) extract(polys []common.Polygon) *TriMesh {
	type ring struct {
		poly common.Polygon
		box  common.AABB
	}
	rings := make([]ring, 0, len(polys))
	for _, p := range polys {
		if len(p) >= 3 {
			rings = append(rings, ring{poly: p, box: common.PolygonBounds(p)})
		}
	}

	keep := make([]int, len(c.tris))
	kept := 0
	for t := range c.tris {
		keep[t] = -1
		tri := c.tris[t]
		if tri.dead || tri.v[0] < superVerts || tri.v[1] < superVerts || tri.v[2] < superVerts {
			continue
		}
		a, b, cc := c.triPts(t)
		centroid := a.Add(b).Add(cc).Mul(1.0 / 3.0)
		depth := 0
		for _, r := range rings {
			if r.box.Contains(centroid) && common.IsPointInsidePolygon(centroid, r.poly) {
				depth++
			}
		}
		if depth%2 == 1 {
			keep[t] = kept
			kept++
		}
	}

	mesh := &TriMesh{
		Tris:      make([][3]int, 0, kept),
		Neighbors: make([][3]int, 0, kept),
	}
	vertMap := make(map[int]int)
	for t := range c.tris {
		if keep[t] < 0 {
			continue
		}
		tri := c.tris[t]
		var out, nbs [3]int
		for i, v := range tri.v {
			id, ok := vertMap[v]
			if !ok {
				id = len(mesh.Verts)
				vertMap[v] = id
				mesh.Verts = append(mesh.Verts, c.pts[v])
			}
			out[i] = id
			nbs[i] = -1
			if nb := tri.n[i]; nb >= 0 && keep[nb] >= 0 {
				nbs[i] = keep[nb]
			}
		}
		mesh.Tris = append(mesh.Tris, out)
		mesh.Neighbors = append(mesh.Neighbors, nbs)
	}
	c.log.Debug("triangulate: done",
		zap.Int("verts", len(mesh.Verts)), zap.Int("tris", len(mesh.Tris)), zap.Int("flips", c.flips))
	return mesh
}
