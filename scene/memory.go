package scene

import (
	"github.com/gorustyt/planarnav/common"
)

type Entity struct {
	ID        EntityID
	Layer     Layer
	Shape     common.Shape
	Transform Transform
}

// Memory is a map backed scene used by tools and tests. Iteration follows
// insertion order so that builds are reproducible.
type Memory struct {
	entities map[EntityID]*Entity
	order    []EntityID
	nextID   EntityID
	heights  HeightSampler
}

func NewMemory() *Memory {
	return &Memory{entities: map[EntityID]*Entity{}, nextID: 1}
}

func (m *Memory) Add(layer Layer, shape common.Shape, tf Transform) EntityID {
	id := m.nextID
	m.nextID++
	m.entities[id] = &Entity{ID: id, Layer: layer, Shape: shape, Transform: tf}
	m.order = append(m.order, id)
	return id
}

func (m *Memory) Remove(id EntityID) bool {
	if _, ok := m.entities[id]; !ok {
		return false
	}
	delete(m.entities, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *Memory) Entity(id EntityID) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

func (m *Memory) Len() int {
	return len(m.order)
}

func (m *Memory) SetTransform(id EntityID, tf Transform) bool {
	e, ok := m.entities[id]
	if ok {
		e.Transform = tf
	}
	return ok
}

func (m *Memory) SetPosition(id EntityID, p common.Vec2) bool {
	e, ok := m.entities[id]
	if ok {
		e.Transform.Position = p
	}
	return ok
}

func (m *Memory) EachShape(kind common.ShapeKind, layer Layer, fn func(id EntityID, local common.Shape, tf Transform)) {
	for _, id := range m.order {
		e := m.entities[id]
		if e.Layer == layer && e.Shape.Kind == kind {
			fn(id, e.Shape, e.Transform)
		}
	}
}

func (m *Memory) Shape(id EntityID) (common.Shape, Transform, Layer, bool) {
	e, ok := m.entities[id]
	if !ok {
		return common.Shape{}, Transform{}, LayerNone, false
	}
	return e.Shape, e.Transform, e.Layer, true
}

func (m *Memory) Position(id EntityID) (common.Vec2, bool) {
	e, ok := m.entities[id]
	if !ok {
		return common.Vec2{}, false
	}
	return e.Transform.Position, true
}

func (m *Memory) SetHeights(h HeightSampler) {
	m.heights = h
}

// Heights returns the terrain sampler, nil when the scene has none.
func (m *Memory) Heights() HeightSampler {
	return m.heights
}
