package loom

import "fmt"

// Entity is a 64-bit opaque identifier (§3.1). Id 0 is reserved "none".
type Entity uint64

// None is the reserved zero entity.
const None Entity = 0

// Valid reports whether e is non-zero. It says nothing about whether e
// is currently alive in any particular index — use World.IsAlive for
// that.
func (e Entity) Valid() bool { return e != None }

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d)", uint64(e))
}

// IsComponentID reports whether e falls below Config.HiComponentID,
// meaning it names a component type and may use dense per-component
// storage (§3.1).
func (e Entity) IsComponentID() bool {
	return uint64(e) < Config.HiComponentID
}

// checkRange validates e against the configured handle bounds,
// returning an InvalidEntity error on breach. Id 0 is always invalid
// for this check, independent of MinHandle.
func checkRange(e Entity) error {
	if e == None {
		return newError(InvalidEntity, "entity id 0 is reserved")
	}
	v := uint64(e)
	if v < Config.MinHandle || v > Config.MaxHandle {
		return newError(InvalidEntity, "entity id %d outside range [%d,%d]", v, Config.MinHandle, Config.MaxHandle)
	}
	return nil
}

// ComponentID names a registered component type. It is an Entity below
// Config.HiComponentID by convention (§3.1); the distinct name exists
// purely for readability at call sites.
type ComponentID = Entity
