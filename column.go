package loom

import "unsafe"

// Hooks customizes how a component's bytes are treated across row
// lifecycle events (§4.3, §9). Any nil hook falls back to raw-byte
// semantics: zero-fill on init, no-op on fini, overwrite on replace and
// on merge.
type Hooks struct {
	Init    func(dst []byte)
	Fini    func(dst []byte)
	Replace func(dst, src []byte)
	Merge   func(dst, src []byte)
}

type componentMeta struct {
	id    ComponentID
	size  int
	align int
	hooks Hooks
}

func (m *componentMeta) init(dst []byte) {
	if m.hooks.Init != nil {
		m.hooks.Init(dst)
		return
	}
	clear(dst)
}

func (m *componentMeta) fini(dst []byte) {
	if m.hooks.Fini != nil {
		m.hooks.Fini(dst)
	}
}

func (m *componentMeta) replace(dst, src []byte) {
	if m.hooks.Replace != nil {
		m.hooks.Replace(dst, src)
		return
	}
	copy(dst, src)
}

func (m *componentMeta) merge(dst, src []byte) {
	if m.hooks.Merge != nil {
		m.hooks.Merge(dst, src)
		return
	}
	copy(dst, src)
}

// registry holds per-component layout and hooks, keyed densely below
// Config.HiComponentID and sparsely above it — the same split the spec
// asks the entity index and table edges to use (§3.1).
type registry struct {
	lo []*componentMeta
	hi map[ComponentID]*componentMeta
}

func newRegistry() *registry {
	return &registry{
		lo: make([]*componentMeta, Config.HiComponentID),
		hi: make(map[ComponentID]*componentMeta),
	}
}

// allocate records layout and hooks for id, which the caller must have
// already drawn from the world's single entity/component counter
// (§3.1: component ids are entity ids, from the same sequence).
func (r *registry) allocate(id ComponentID, size, align int, hooks Hooks) *componentMeta {
	m := &componentMeta{id: id, size: size, align: align, hooks: hooks}
	r.set(id, m)
	return m
}

func (r *registry) set(id ComponentID, m *componentMeta) {
	if uint64(id) < Config.HiComponentID {
		r.lo[id] = m
	} else {
		r.hi[id] = m
	}
}

func (r *registry) get(id ComponentID) *componentMeta {
	if uint64(id) < Config.HiComponentID {
		if int(id) >= len(r.lo) {
			return nil
		}
		return r.lo[id]
	}
	return r.hi[id]
}

// Component is a registered component type's handle. It carries no
// type parameter so it can travel through Type/Table plumbing; use
// Accessor[T] to read/write typed values.
type Component struct {
	meta *componentMeta
}

// ID returns the component's identifying entity id.
func (c Component) ID() ComponentID { return c.meta.id }

// Size returns the component's byte size (0 for a tag component).
func (c Component) Size() int { return c.meta.size }

// Accessor provides typed access to a component's column data.
type Accessor[T any] struct {
	Component
}

// RegisterComponent registers a new component type T on w, returning a
// typed accessor for it. hooks may be nil for raw-byte semantics.
func RegisterComponent[T any](w *World, hooks *Hooks) Accessor[T] {
	var zero T
	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	h := Hooks{}
	if hooks != nil {
		h = *hooks
	}
	id := w.allocateEntity()
	meta := w.registry.allocate(ComponentID(id), size, align, h)
	return Accessor[T]{Component{meta: meta}}
}

// At returns a pointer into row's slot of t's column for this
// component. The table must actually contain the component; callers
// that aren't sure should check with Table.Contains first.
func (a Accessor[T]) At(t *Table, row int) *T {
	col := t.columnFor(a.meta.id)
	if col == nil || col.size == 0 {
		return nil
	}
	start := row * col.size
	return (*T)(unsafe.Pointer(&col.bytes[start]))
}

// Get is an alias for At kept for call sites that read more naturally
// as "get the value at this row".
func (a Accessor[T]) Get(t *Table, row int) *T { return a.At(t, row) }

// column is one component's contiguous byte storage within a table.
type column struct {
	id    ComponentID
	size  int
	bytes []byte
}

func newColumn(meta *componentMeta, capacity int) *column {
	c := &column{id: meta.id, size: meta.size}
	if meta.size > 0 {
		c.bytes = make([]byte, 0, meta.size*capacity)
	}
	return c
}

func (c *column) len() int {
	if c.size == 0 {
		return 0
	}
	return len(c.bytes) / c.size
}

func (c *column) grow(n int) {
	if c.size == 0 {
		return
	}
	c.bytes = append(c.bytes, make([]byte, n*c.size)...)
}

func (c *column) slot(row int) []byte {
	if c.size == 0 {
		return nil
	}
	return c.bytes[row*c.size : (row+1)*c.size]
}

// swapRemove moves the last element into row's slot and shrinks the
// column by one, mirroring the table's entity swap-remove.
func (c *column) swapRemove(row int) {
	if c.size == 0 {
		return
	}
	last := c.len() - 1
	if row != last {
		copy(c.slot(row), c.slot(last))
	}
	c.bytes = c.bytes[:last*c.size]
}
