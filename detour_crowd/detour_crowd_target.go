package detour_crowd

import (
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/scene"
)

type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetPosition
	TargetEntity
)

func (k TargetKind) String() string {
	switch k {
	case TargetPosition:
		return "position"
	case TargetEntity:
		return "entity"
	default:
		return "none"
	}
}

// Target is what an agent moves toward: nothing, a fixed point, or another
// entity followed by id.
type Target struct {
	kind   TargetKind
	pos    common.Vec2
	entity scene.EntityID
}

func (t *Target) SetTargetPosition(p common.Vec2) {
	*t = Target{kind: TargetPosition, pos: p}
}

// SetTargetEntity follows id. The invalid entity clears the target.
func (t *Target) SetTargetEntity(id scene.EntityID) {
	if id == scene.InvalidEntity {
		t.ClearTarget()
		return
	}
	*t = Target{kind: TargetEntity, entity: id}
}

func (t *Target) ClearTarget() { *t = Target{} }

func (t Target) Kind() TargetKind { return t.kind }

func (t Target) Entity() scene.EntityID { return t.entity }

// IsChasing reports whether any target is set.
func (t Target) IsChasing() bool { return t.kind != TargetNone }

// GetTargetPosition resolves the target. An entity that no longer exists, or
// has no resolver, resolves to no target.
func (t Target) GetTargetPosition(resolver scene.Positions) (common.Vec2, bool) {
	switch t.kind {
	case TargetPosition:
		return t.pos, true
	case TargetEntity:
		if resolver == nil {
			return common.Vec2{}, false
		}
		return resolver.Position(t.entity)
	}
	return common.Vec2{}, false
}
