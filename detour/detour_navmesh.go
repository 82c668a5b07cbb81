package detour

import (
	"go.uber.org/zap"

	"github.com/gorustyt/planarnav/bvh"
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/common/logger"
	"github.com/gorustyt/planarnav/config"
	"github.com/gorustyt/planarnav/recast"
	"github.com/gorustyt/planarnav/scene"
)

// NavMesh owns the triangulated walkable area of a scene and answers path
// queries over it. It is rebuilt wholesale by Generate. Generation and
// queries must not run concurrently.
type NavMesh struct {
	cfg       config.NavMeshConfig
	log       *zap.Logger
	mesh      *recast.TriMesh
	polys     []common.Polygon
	graph     *Graph
	statics   *bvh.BVH
	dirty     bool
	generated bool
	focus     common.Vec2
	hasFocus  bool
}

func NewNavMesh(cfg config.NavMeshConfig, log *zap.Logger) *NavMesh {
	log = logger.OrNop(log)
	return &NavMesh{
		cfg:     cfg,
		log:     log,
		mesh:    &recast.TriMesh{},
		graph:   NewGraph(0),
		statics: bvh.New(scene.LayerStaticObstacle, config.BVHConfig{}, log),
		dirty:   true,
	}
}

func (n *NavMesh) NeedsRegeneration() bool { return n.dirty }

// MarkDirty flags the scene geometry as changed.
func (n *NavMesh) MarkDirty() { n.dirty = true }

func (n *NavMesh) WasGenerated() bool { return n.generated }

func (n *NavMesh) Mesh() *recast.TriMesh { return n.mesh }

// Polygons are the cleaned contours the mesh was triangulated from.
func (n *NavMesh) Polygons() []common.Polygon { return n.polys }

func (n *NavMesh) Graph() *Graph { return n.graph }

func (n *NavMesh) TriangleCount() int { return n.mesh.Len() }

// Focus returns the point the last generation was centered on.
func (n *NavMesh) Focus() (common.Vec2, bool) { return n.focus, n.hasFocus }

// SetFocus moves the generation center without regenerating.
func (n *NavMesh) SetFocus(p common.Vec2) {
	n.focus, n.hasFocus = p, true
}

// MaybeRegenerate regenerates when the mesh is dirty or, with a generation
// radius set, when focus moved farther than RegenDistance from the last center.
func (n *NavMesh) MaybeRegenerate(src scene.Source, heights scene.HeightSampler, focus common.Vec2) bool {
	moved := n.cfg.GenerationRadius > 0 &&
		(!n.hasFocus || common.Vdist(focus, n.focus) > n.cfg.RegenDistance)
	if !n.dirty && !moved {
		return false
	}
	n.SetFocus(focus)
	n.Generate(src, heights)
	return true
}

// Generate rebuilds the mesh from the terrain and static obstacle colliders of
// src. heights may be nil, which disables height based obstacles.
func (n *NavMesh) Generate(src scene.Source, heights scene.HeightSampler) {
	walkable := n.layerPolygons(src, scene.LayerTerrain)
	obstacles := n.layerPolygons(src, scene.LayerStaticObstacle)
	clipOpt := recast.ClipOptions{SnapPrecision: n.cfg.SnapPrecision, MinArea: n.cfg.MinPolygonArea, Log: n.log}

	if n.cfg.GenerationRadius > 0 && n.hasFocus {
		r := n.cfg.GenerationRadius
		region := common.AABB{Min: n.focus.Sub(common.Vec2{r, r}), Max: n.focus.Add(common.Vec2{r, r})}
		walkable = recast.ClipToRegion(walkable, region, clipOpt)
	}

	if heights != nil && n.cfg.HeightSampleSpacing > 0 && len(walkable) > 0 {
		n.statics.Build(src)
		obstacles = append(obstacles, n.heightObstacles(walkable, heights)...)
	}

	n.polys = recast.ClipPolygons(walkable, obstacles, clipOpt)
	n.mesh = recast.Triangulate(n.polys, recast.TriangulateOptions{
		VertexEpsilon: n.cfg.VertexEpsilon,
		MaxFlips:      n.cfg.MaxConstraintFlips,
		Log:           n.log,
	})
	n.graph = buildGraph(n.mesh)
	n.dirty = false
	n.generated = true
	n.log.Info("navmesh generated",
		zap.Int("walkable", len(walkable)),
		zap.Int("obstacles", len(obstacles)),
		zap.Int("polygons", len(n.polys)),
		zap.Int("triangles", n.mesh.Len()))
}

func (n *NavMesh) layerPolygons(src scene.Source, layer scene.Layer) []common.Polygon {
	var out []common.Polygon
	for kind := common.ShapeAABB; kind < common.ShapeKindCount; kind++ {
		src.EachShape(kind, layer, func(_ scene.EntityID, local common.Shape, tf scene.Transform) {
			out = append(out, scene.WorldShape(local, tf).ToPolygon(n.cfg.DiskSegments))
		})
	}
	return out
}

func (n *NavMesh) heightObstacles(walkable []common.Polygon, heights scene.HeightSampler) []common.Polygon {
	bounds := common.EmptyAABB()
	for _, p := range walkable {
		bounds = bounds.Union(common.PolygonBounds(p))
	}
	start := bounds.Center()
	switch {
	case n.cfg.FloodStart != nil:
		start = *n.cfg.FloodStart
	case n.hasFocus && bounds.Contains(n.focus):
		start = n.focus
	}
	return recast.SynthesizeHeightObstacles(heights, recast.HeightObstacleOptions{
		Start:             start,
		Spacing:           n.cfg.HeightSampleSpacing,
		TraversableHeight: n.cfg.TraversableHeight,
		SliverThickness:   n.cfg.SliverThickness,
		Bounds:            bounds,
		MaxCells:          n.cfg.MaxFloodCells,
		Skip: func(p common.Vec2) bool {
			return n.statics.Any(common.DiskShape(common.Disk{Center: p}))
		},
		Log: n.log,
	})
}

// buildGraph places one node per triangle and links neighbouring triangles.
func buildGraph(mesh *recast.TriMesh) *Graph {
	g := NewGraph(mesh.Len())
	for t := range mesh.Tris {
		g.AddNode(common.ComputeCenterOfPolygon(mesh.Triangle(t)))
	}
	for t, nbs := range mesh.Neighbors {
		for _, nb := range nbs {
			if nb < 0 {
				continue
			}
			if !common.Assert(nb < mesh.Len(), "triangle %d links to missing triangle %d", t, nb) {
				continue
			}
			g.AddEdge(t, nb)
		}
	}
	return g
}

// FindTriangle returns the triangle containing p, or -1.
func (n *NavMesh) FindTriangle(p common.Vec2) int {
	return n.mesh.FindTriangle(p)
}

// FindPath returns a path from start to end and how it was obtained. On
// failure the path is the direct segment {start, end}.
func (n *NavMesh) FindPath(start, end common.Vec2) ([]common.Vec2, DtStatus) {
	direct := []common.Vec2{start, end}
	if n.mesh.Len() == 0 {
		return direct, DT_FAILURE | DT_NO_MESH
	}
	startRef, endRef := n.FindTriangle(start), n.FindTriangle(end)
	if startRef < 0 || endRef < 0 {
		return direct, DT_FAILURE | DT_INVALID_PARAM
	}
	if startRef == endRef {
		return direct, DT_SUCCESS
	}
	corridor := n.graph.AStarSearch(startRef, endRef)
	if len(corridor) == 0 {
		return direct, DT_FAILURE | DT_UNREACHABLE
	}
	path := FindStraightPath(n.mesh, corridor, start, end, n.log)
	if len(path) == 0 {
		return direct, DT_FAILURE | DT_BROKEN_CORRIDOR
	}
	path[0] = start
	if path[len(path)-1] != end {
		path = append(path, end)
	}
	return path, DT_SUCCESS
}

// FindQuickestPath always returns a usable polyline from start to end,
// degrading to the direct segment when the mesh cannot answer.
func (n *NavMesh) FindQuickestPath(start, end common.Vec2) []common.Vec2 {
	path, status := n.FindPath(start, end)
	if status.DtStatusFailed() {
		n.log.Debug("path query fell back to a direct line",
			zap.Stringer("status", status),
			zap.Float64s("start", start[:]),
			zap.Float64s("end", end[:]))
	}
	return path
}
