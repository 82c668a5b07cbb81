package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gorustyt/planarnav/common"
)

type Config struct {
	NavMesh NavMeshConfig `yaml:"navmesh"`
	BVH     BVHConfig     `yaml:"bvh"`
	Crowd   CrowdConfig   `yaml:"crowd"`
	Log     LogConfig     `yaml:"log"`
}

type NavMeshConfig struct {
	// Input coordinates are rounded to this grid before clipping.
	SnapPrecision float64 `yaml:"snap_precision"`
	// Contours with a smaller absolute area are dropped after clipping.
	MinPolygonArea float64 `yaml:"min_polygon_area"`
	// Vertices closer than this are merged before triangulation.
	VertexEpsilon float64 `yaml:"vertex_epsilon"`
	DiskSegments  int     `yaml:"disk_segments"`

	// Height obstacle synthesis. A zero spacing disables it.
	HeightSampleSpacing float64      `yaml:"height_sample_spacing"`
	TraversableHeight   float64      `yaml:"traversable_height"`
	SliverThickness     float64      `yaml:"sliver_thickness"`
	MaxFloodCells       int          `yaml:"max_flood_cells"`
	FloodStart          *common.Vec2 `yaml:"flood_start"`

	// Walkable geometry is clipped to a square of this half extent around the
	// focus point. Zero keeps everything.
	GenerationRadius float64 `yaml:"generation_radius"`
	// MaybeRegenerate rebuilds once the focus moved farther than this.
	RegenDistance float64 `yaml:"regen_distance"`

	MaxConstraintFlips int `yaml:"max_constraint_flips"`
}

type BVHConfig struct {
	MaxLeafShapes   int `yaml:"max_leaf_shapes"`
	SplitCandidates int `yaml:"split_candidates"`
}

type CrowdConfig struct {
	// Waypoints are consumed once the agent is within this many ticks of travel.
	WaypointReachMultiple float64 `yaml:"waypoint_reach_multiple"`
	AvoidanceRadiusFactor float64 `yaml:"avoidance_radius_factor"`
	RayCount              int     `yaml:"ray_count"`
	RaycastAvoidance      bool    `yaml:"raycast_avoidance"`
	// Only every RequeryStride-th agent recomputes its path on a given tick.
	RequeryStride int `yaml:"requery_stride"`

	FlowFieldInterval   float64 `yaml:"flow_field_interval"`
	FlowFieldRadius     float64 `yaml:"flow_field_radius"`
	MinFlowFieldSpacing float64 `yaml:"min_flow_field_spacing"`
	MaxFlowFieldCells   int     `yaml:"max_flow_field_cells"`

	ProximityCellSize float64 `yaml:"proximity_cell_size"`
	MaxAgents         int     `yaml:"max_agents"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
	Compress    bool   `yaml:"compress"`
	Development bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		NavMesh: NavMeshConfig{
			SnapPrecision:       1e-4,
			MinPolygonArea:      1e-6,
			VertexEpsilon:       1e-9,
			DiskSegments:        16,
			HeightSampleSpacing: 1,
			TraversableHeight:   0.75,
			SliverThickness:     0.25,
			MaxFloodCells:       1 << 16,
			RegenDistance:       16,
			MaxConstraintFlips:  1 << 20,
		},
		BVH: BVHConfig{
			MaxLeafShapes:   2,
			SplitCandidates: 16,
		},
		Crowd: CrowdConfig{
			WaypointReachMultiple: 2,
			AvoidanceRadiusFactor: 3,
			RayCount:              8,
			RaycastAvoidance:      true,
			RequeryStride:         8,
			FlowFieldInterval:     0.25,
			FlowFieldRadius:       32,
			MinFlowFieldSpacing:   0.25,
			MaxFlowFieldCells:     256,
			ProximityCellSize:     2,
			MaxAgents:             1024,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  64,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	n := c.NavMesh
	if n.SnapPrecision < 0 {
		errs = append(errs, errors.New("navmesh.snap_precision must not be negative"))
	}
	if n.DiskSegments < 3 {
		errs = append(errs, errors.New("navmesh.disk_segments must be at least 3"))
	}
	if n.HeightSampleSpacing < 0 {
		errs = append(errs, errors.New("navmesh.height_sample_spacing must not be negative"))
	}
	if n.HeightSampleSpacing > 0 && n.TraversableHeight <= 0 {
		errs = append(errs, errors.New("navmesh.traversable_height must be positive"))
	}
	if n.MaxFloodCells <= 0 || n.MaxConstraintFlips <= 0 {
		errs = append(errs, errors.New("navmesh caps must be positive"))
	}
	if c.BVH.MaxLeafShapes < 1 || c.BVH.SplitCandidates < 1 {
		errs = append(errs, errors.New("bvh.max_leaf_shapes and bvh.split_candidates must be positive"))
	}
	cr := c.Crowd
	if cr.RequeryStride < 1 {
		errs = append(errs, errors.New("crowd.requery_stride must be at least 1"))
	}
	if cr.FlowFieldRadius <= 0 || cr.MinFlowFieldSpacing <= 0 || cr.MaxFlowFieldCells < 1 {
		errs = append(errs, errors.New("crowd flow field radius, spacing and cell cap must be positive"))
	}
	if cr.ProximityCellSize <= 0 || cr.MaxAgents < 1 {
		errs = append(errs, errors.New("crowd.proximity_cell_size and crowd.max_agents must be positive"))
	}
	if cr.AvoidanceRadiusFactor <= 0 {
		errs = append(errs, errors.New("crowd.avoidance_radius_factor must be positive"))
	}
	return errors.Join(errs...)
}
