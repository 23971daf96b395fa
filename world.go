package loom

import "sync"

// World owns every subsystem described in §3-§4: the component
// registry, the type trie, the table arena and type graph, the
// registered queries, and the stage set that buffers structural
// mutation during iteration.
type World struct {
	registry *registry
	trie     *TypeTrie

	tables       []*Table
	tablesByType map[TypeHandle]*Table

	queries []*Query

	mainStage    *Stage
	tempStage    *Stage
	workerStages []*Stage

	mu             sync.RWMutex
	lockingEnabled bool

	iterating bool
	merging   bool

	autoMerge bool

	// prefabOf maps an entity to the prefab entity it inherits shared
	// components from (§ SUPPLEMENTED prefab inheritance, SPEC_FULL.md).
	prefabOf map[Entity]Entity
	// parentOf maps an entity to its Container-relationship parent, used
	// to resolve FromContainer columns and Cascade depth.
	parentOf map[Entity]Entity

	nextHandle uint64
	freeList   []Entity
}

// NewWorld constructs an empty world. Tunables come from the package
// level Config var; adjust it before calling NewWorld if the defaults
// don't fit.
func NewWorld() *World {
	w := &World{
		registry:     newRegistry(),
		trie:         NewTypeTrie(),
		tablesByType: make(map[TypeHandle]*Table),
		prefabOf:     make(map[Entity]Entity),
		parentOf:     make(map[Entity]Entity),
		autoMerge:    true,
		nextHandle:   Config.MinHandle,
	}
	w.mainStage = newStage(w, 0, "main")
	w.tempStage = newStage(w, 1, "temp")
	root := w.getOrCreateTable(w.trie.Root())
	root.SetFlag(FlagHasBuiltins, true)
	return w
}

// SetLockingEnabled toggles whether externally-initiated mutations
// take the world mutex (§5's locking_enabled).
func (w *World) SetLockingEnabled(on bool) { w.lockingEnabled = on }

// SetAutoMerge toggles whether Merge is invoked implicitly; callers
// that want explicit frame boundaries should disable it and call
// Merge themselves.
func (w *World) SetAutoMerge(on bool) { w.autoMerge = on }

func (w *World) lock() {
	if w.lockingEnabled {
		w.mu.Lock()
	}
}

func (w *World) unlock() {
	if w.lockingEnabled {
		w.mu.Unlock()
	}
}

func (w *World) beginIteration() { w.iterating = true }

func (w *World) endIteration() {
	w.iterating = false
	if w.autoMerge {
		w.Merge()
	}
}

// activeStage returns the stage structural mutations should route to
// right now: the main stage when no iteration is in flight, otherwise
// the temp stage (§4.6).
func (w *World) activeStage() *Stage {
	if w.iterating {
		return w.tempStage
	}
	return w.mainStage
}

// WorkerStage returns (creating if necessary) the stage bound to
// worker id, used by the parallel scheduling mode described in §5.
func (w *World) WorkerStage(id uint32) *Stage {
	for _, s := range w.workerStages {
		if s.id == id+2 {
			return s
		}
	}
	s := newStage(w, id+2, "worker")
	w.workerStages = append(w.workerStages, s)
	return s
}

// getOrCreateTable returns the table for handle, creating and wiring
// it into every matching query's cache if this is the first time the
// type has been seen (§4.4, §4.5).
func (w *World) getOrCreateTable(handle TypeHandle) *Table {
	if t, ok := w.tablesByType[handle]; ok {
		return t
	}
	t := newTable(w, uint32(len(w.tables)), handle)
	w.tables = append(w.tables, t)
	w.tablesByType[handle] = t
	w.onTableCreated(t)
	return t
}

// allocateEntity returns an entity id, reusing the most recently
// released id from the free list when there is one and otherwise
// drawing the next id from the counter. Allocation is world-scoped (not
// per-stage) so ids never collide across concurrently active stages.
func (w *World) allocateEntity() Entity {
	if n := len(w.freeList); n > 0 {
		e := w.freeList[n-1]
		w.freeList = w.freeList[:n-1]
		return e
	}
	e := Entity(w.nextHandle)
	w.nextHandle++
	return e
}

func (w *World) releaseEntity(e Entity) {
	w.freeList = append(w.freeList, e)
}

func (w *World) recordIndex(stage *Stage) *entityIndex {
	if stage == nil || stage.isMain() {
		return w.mainStage.index
	}
	return stage.index
}

// lookupRecord resolves e's current record, consulting stage's shadow
// index first and falling back to the main index (§4.6 shadowing).
func (w *World) lookupRecord(stage *Stage, e Entity) *Record {
	if stage != nil && !stage.isMain() {
		if r := stage.index.get(e); r != nil && r.Valid() {
			return r
		}
	}
	return w.mainStage.index.get(e)
}

// Create allocates a new entity with exactly the given component ids
// (order-independent) and places it in the owning table, routed
// through the currently active stage (§6).
func (w *World) Create(ids ...ComponentID) (Entity, error) {
	return w.CreateIn(w.activeStage(), ids...)
}

// CreateIn is Create with an explicit stage, for callers driving their
// own worker stage.
func (w *World) CreateIn(stage *Stage, ids ...ComponentID) (Entity, error) {
	if stage == w.mainStage && w.iterating {
		return None, newError(StageViolation, "create routed directly to the main stage while iteration is in progress; use the active stage")
	}
	sorted, err := sortIDs(ids)
	if err != nil {
		return None, err
	}
	w.lock()
	defer w.unlock()

	handle := w.trie.Intern(sorted)
	t := w.getOrCreateTable(handle)

	idx := w.recordIndex(stage)
	e := w.allocateEntity()
	row := t.appendRaw(stage, e)
	idx.set(e, newRecord(t, int32(row)))
	stage.markDirty(t)
	w.onTableDirty(t)
	return e, nil
}

// IsAlive reports whether e currently has a live record, consulting
// the main index.
func (w *World) IsAlive(e Entity) bool {
	return w.mainStage.index.alive(e)
}

// Destroy removes e from its table and frees its id for reuse, routed
// through the active stage. During iteration this only tombstones the
// shadow record; the row is actually removed at merge time (§4.6).
func (w *World) Destroy(e Entity) error {
	if err := checkRange(e); err != nil {
		return err
	}
	stage := w.activeStage()
	w.lock()
	defer w.unlock()

	if !stage.isMain() {
		rec := w.lookupRecord(stage, e)
		if rec == nil || !rec.Valid() {
			return newError(InvalidEntity, "entity %s is not alive", e)
		}
		stage.index.set(e, Record{}) // tombstone: present but empty
		stage.markDirty(rec.Table())
		return nil
	}

	rec := w.mainStage.index.get(e)
	if rec == nil || !rec.Valid() {
		return newError(InvalidEntity, "entity %s is not alive", e)
	}
	t := rec.Table()
	row := int(rec.Row())
	t.finiRow(w.mainStage, row)
	moved, hadMove := t.removeRowRaw(w.mainStage, row)
	if hadMove {
		mrec := w.mainStage.index.get(moved)
		assertInvariant(mrec != nil && mrec.Table() == t, "moved entity %s has no record in table it was swapped into", moved)
		*mrec = mrec.WithRow(int32(row))
	}
	w.mainStage.index.remove(e)
	w.releaseEntity(e)
	w.onTableDirty(t)
	return nil
}

// AddComponent transitions e into the table for its type ∪ {c},
// leaving existing component data intact across the move (§4.3/§4.4),
// routed through the currently active stage.
func (w *World) AddComponent(e Entity, c ComponentID) error {
	return w.AddComponentIn(WorldCtx(w), e, c)
}

// AddComponentIn is AddComponent routed through an explicit Context
// (§6: add_component accepts a stage reference and routes accordingly).
func (w *World) AddComponentIn(ctx Context, e Entity, c ComponentID) error {
	return w.structuralChange(ctx.Stage(), e, func(t *Table) (*Table, error) { return t.findOrCreateAdd(c) })
}

// RemoveComponent transitions e into the table for its type \ {c},
// routed through the currently active stage.
func (w *World) RemoveComponent(e Entity, c ComponentID) error {
	return w.RemoveComponentIn(WorldCtx(w), e, c)
}

// RemoveComponentIn is RemoveComponent routed through an explicit
// Context.
func (w *World) RemoveComponentIn(ctx Context, e Entity, c ComponentID) error {
	return w.structuralChange(ctx.Stage(), e, func(t *Table) (*Table, error) { return t.findOrCreateRemove(c), nil })
}

// structuralChange resolves e's destination table via resolve and
// moves it there. On the main stage (and only when iteration is not
// in progress) the move happens immediately against main data. On any
// other stage the move is staged: the entity's shadow record is
// updated to point at the resolved destination table with a
// not-yet-materialized row (record.noRow). At merge time the entity's
// main-stage row is moved straight into that recorded destination table
// (§4.6, merge.go's "entity existed before stage began and moved within
// it" case); resolve is not run again.
func (w *World) structuralChange(stage *Stage, e Entity, resolve func(*Table) (*Table, error)) error {
	if err := checkRange(e); err != nil {
		return err
	}
	if stage == w.mainStage && w.iterating {
		return newError(StageViolation, "structural change routed directly to the main stage while iteration is in progress; use the active stage")
	}
	w.lock()
	defer w.unlock()

	if !stage.isMain() {
		cur := w.lookupRecord(stage, e)
		if cur == nil || !cur.Valid() {
			return newError(InvalidEntity, "entity %s is not alive", e)
		}
		src := cur.Table()
		dst, err := resolve(src)
		if err != nil {
			return err
		}
		if dst == src {
			return nil
		}
		stage.index.set(e, newRecord(dst, noRow))
		stage.markDirty(src)
		stage.markDirty(dst)
		return nil
	}

	rec := w.mainStage.index.get(e)
	if rec == nil || !rec.Valid() {
		return newError(InvalidEntity, "entity %s is not alive", e)
	}
	src := rec.Table()
	dst, err := resolve(src)
	if err != nil {
		return err
	}
	if dst == src {
		return nil
	}
	row := int(rec.Row())
	newRow, moved, hadMove := src.moveRowTo(w.mainStage, row, dst)
	if hadMove {
		mrec := w.mainStage.index.get(moved)
		*mrec = mrec.WithRow(int32(row))
	}
	w.mainStage.index.set(e, newRecord(dst, int32(newRow)).WithWatched(rec.Watched()))
	w.onTableDirty(src)
	w.onTableDirty(dst)
	return nil
}

// SetComponent overwrites e's data for component c via the component's
// replace hook (or raw copy), without any structural change. e must
// already carry c. Routed through the currently active stage.
func (w *World) SetComponent(e Entity, c ComponentID, value []byte) error {
	return w.SetComponentIn(WorldCtx(w), e, c, value)
}

// SetComponentIn is SetComponent routed through an explicit Context.
func (w *World) SetComponentIn(ctx Context, e Entity, c ComponentID, value []byte) error {
	if err := checkRange(e); err != nil {
		return err
	}
	stage := ctx.Stage()
	rec := w.lookupRecord(stage, e)
	if rec == nil || !rec.Valid() {
		return newError(InvalidEntity, "entity %s is not alive", e)
	}
	if rec.Row() < 0 {
		return newError(Internal, "entity %s has a pending staged structural change; merge before SetComponent", e)
	}
	t := rec.Table()
	idx, ok := t.columnIndex[c]
	if !ok {
		return newError(UnknownComponent, "entity %s has no component %s", e, c)
	}
	meta := w.registry.get(c)
	if meta == nil || meta.size != len(value) {
		return newError(UnknownComponent, "component %s size mismatch", c)
	}
	data := &t.main
	if !stage.isMain() {
		if sr := stage.index.get(e); sr != nil && sr.Valid() {
			data = t.dataFor(stage)
		}
	}
	meta.replace(data.columns[idx].slot(int(rec.Row())), value)
	return nil
}

// SetPrefab marks e as a prefab template (§ SUPPLEMENTED features).
func (w *World) SetPrefab(e Entity) {
	t := w.mainStage.index.get(e)
	if t != nil && t.Valid() {
		t.Table().SetFlag(FlagIsPrefab, true)
	}
}

// InheritFrom records that e inherits shared components from prefab,
// consulted by Shared/Container signature columns during iteration.
func (w *World) InheritFrom(e, prefab Entity) {
	w.prefabOf[e] = prefab
	w.parentOf[e] = prefab
	if rec := w.mainStage.index.get(e); rec != nil && rec.Valid() {
		rec.Table().SetFlag(FlagHasPrefab, true)
	}
}

// prefabTableFor returns the table holding t's prefab row, if any
// entity in t has one recorded. Table-level resolution here is a
// cheap default: per-row call sites (query iteration) can resolve a
// more precise per-entity prefab using parentOf directly.
func (w *World) prefabTableFor(t *Table) *Table {
	if !t.HasFlag(FlagHasPrefab) {
		return nil
	}
	for _, e := range t.main.entities {
		if p, ok := w.prefabOf[e]; ok {
			if rec := w.mainStage.index.get(p); rec != nil && rec.Valid() {
				return rec.Table()
			}
		}
	}
	return nil
}

// cascadeDepth returns t's depth in the Container/parent relationship,
// used to order Cascade columns (§8 scenario 5). Depth 0 means t has
// no tracked parent relationship.
func (w *World) cascadeDepth(t *Table) int {
	depth := 0
	for _, e := range t.main.entities {
		d := w.entityDepth(e, 0)
		if d > depth {
			depth = d
		}
	}
	return depth
}

func (w *World) entityDepth(e Entity, guard int) int {
	if guard > len(w.parentOf) {
		return guard // cycle guard; parentOf should never cycle in practice
	}
	parent, ok := w.parentOf[e]
	if !ok {
		return 0
	}
	return 1 + w.entityDepth(parent, guard+1)
}
