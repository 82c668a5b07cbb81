package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gorustyt/planarnav/common"
)

// File is the YAML layout of a scene description.
type File struct {
	Entities  []EntitySpec `yaml:"entities"`
	Heightmap *Heightmap   `yaml:"heightmap"`
	Agents    []AgentSpec  `yaml:"agents"`
}

type EntitySpec struct {
	Layer     Layer          `yaml:"layer"`
	AABB      *common.AABB   `yaml:"aabb"`
	Disk      *common.Disk   `yaml:"disk"`
	Polygon   common.Polygon `yaml:"polygon"`
	Transform `yaml:",inline"`
}

type AgentSpec struct {
	Position common.Vec2  `yaml:"position"`
	Radius   float64      `yaml:"radius"`
	Speed    float64      `yaml:"speed"`
	Target   *common.Vec2 `yaml:"target"`
	Swarm    bool         `yaml:"swarm"`
}

func (s EntitySpec) shape() (common.Shape, error) {
	n := 0
	var shape common.Shape
	if s.AABB != nil {
		n++
		shape = common.BoxShape(*s.AABB)
	}
	if s.Disk != nil {
		n++
		shape = common.DiskShape(*s.Disk)
	}
	if len(s.Polygon) > 0 {
		n++
		shape = common.PolygonShape(s.Polygon)
	}
	if n != 1 {
		return common.Shape{}, fmt.Errorf("entity needs exactly one of aabb, disk, polygon (got %d)", n)
	}
	return shape, nil
}

func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return f, nil
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	return Parse(data)
}

// Build instantiates the described entities into a fresh Memory scene.
func (f *File) Build() (*Memory, error) {
	m := NewMemory()
	for i, spec := range f.Entities {
		shape, err := spec.shape()
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		m.Add(spec.Layer, shape, spec.Transform)
	}
	if f.Heightmap != nil {
		m.SetHeights(f.Heightmap)
	}
	return m, nil
}
