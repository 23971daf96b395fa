package loom

import "github.com/TheBitDrifter/mask"

// tableFlags is the bitset over §3.4's { Staged, IsPrefab, HasPrefab,
// HasBuiltins }.
type tableFlags uint8

const (
	FlagStaged tableFlags = 1 << iota
	FlagIsPrefab
	FlagHasPrefab
	FlagHasBuiltins
)

// edge is the cached add/remove transition from one table to another
// via a single component id (§3.5). A nil field means "not yet
// computed", never "does not exist".
type edge struct {
	add    *Table
	remove *Table
}

// tableData is one stage's view of a table's rows: the entities and
// component columns that stage currently sees for this table (§3.6).
// Only the main stage's tableData is canonical; a non-main stage's
// tableData holds rows pending merge.
type tableData struct {
	entities []Entity
	columns  []*column
}

// Table is an archetype: storage for every entity whose type is
// exactly t.typ (§3.4).
type Table struct {
	world *World
	id    uint32
	typ   TypeHandle

	componentIDs []ComponentID
	columnIndex  map[ComponentID]int

	main      tableData
	stageData map[uint32]*tableData

	loEdges []edge
	hiEdges map[ComponentID]edge

	flags tableFlags

	onInsert []func(row int)

	// compMask is a dense bitmask over component ids < Config.HiComponentID,
	// kept for fast superset/subset tests and exposed through Mask().
	// Query matching in this package does not read it; it checks ids
	// through columnIndex. Component ids at or above
	// Config.HiComponentID are not represented here.
	compMask mask.Mask256
}

func newTable(w *World, id uint32, typ TypeHandle) *Table {
	t := &Table{
		world:        w,
		id:           id,
		typ:          typ,
		componentIDs: typ.IDs(),
		columnIndex:  make(map[ComponentID]int, typ.Len()),
		loEdges:      make([]edge, Config.HiComponentID),
		hiEdges:      make(map[ComponentID]edge),
	}
	t.main.columns = make([]*column, typ.Len())
	for i, id := range t.componentIDs {
		t.columnIndex[id] = i
		meta := w.registry.get(id)
		t.main.columns[i] = newColumn(meta, 0)
		if uint64(id) < Config.HiComponentID {
			t.compMask.Mark(uint32(id))
		}
	}
	return t
}

// ID returns the table's stable arena index.
func (t *Table) ID() uint32 { return t.id }

// Type returns the interned type handle this table stores.
func (t *Table) Type() TypeHandle { return t.typ }

// Flags returns the table's flag bitset.
func (t *Table) Flags() tableFlags { return t.flags }

// SetFlag sets or clears a flag.
func (t *Table) SetFlag(f tableFlags, on bool) {
	if on {
		t.flags |= f
	} else {
		t.flags &^= f
	}
}

// HasFlag reports whether f is set.
func (t *Table) HasFlag(f tableFlags) bool { return t.flags&f != 0 }

// Contains reports whether id is a component of this table's type.
func (t *Table) Contains(id ComponentID) bool {
	_, ok := t.columnIndex[id]
	return ok
}

// Mask returns the fast-path dense component bitmask.
func (t *Table) Mask() mask.Mask256 { return t.compMask }

func (t *Table) columnFor(id ComponentID) *column {
	idx, ok := t.columnIndex[id]
	if !ok {
		return nil
	}
	return t.main.columns[idx]
}

// Len returns the number of rows in the main stage's view of the
// table.
func (t *Table) Len() int { return len(t.main.entities) }

// EntityAt returns the entity stored at row in the main stage.
func (t *Table) EntityAt(row int) Entity { return t.main.entities[row] }

func (t *Table) dataFor(stage *Stage) *tableData {
	if stage == nil || stage.isMain() {
		return &t.main
	}
	if t.stageData == nil {
		t.stageData = make(map[uint32]*tableData)
	}
	d, ok := t.stageData[stage.id]
	if !ok {
		d = &tableData{columns: make([]*column, len(t.componentIDs))}
		for i, id := range t.componentIDs {
			d.columns[i] = newColumn(t.world.registry.get(id), 0)
		}
		t.stageData[stage.id] = d
	}
	return d
}

// stagedData returns the non-main per-stage data for stage, or nil if
// none has been recorded. Used by merge to iterate pending rows
// without creating one.
func (t *Table) stagedData(stage *Stage) *tableData {
	if t.stageData == nil {
		return nil
	}
	return t.stageData[stage.id]
}

func (t *Table) dropStagedData(stage *Stage) {
	if t.stageData != nil {
		delete(t.stageData, stage.id)
	}
}

// appendRaw reserves a new row for entity, zero/init-initialising every
// column, and returns the row index. It does not touch the entity
// index; callers are responsible for installing the resulting Record.
func (t *Table) appendRaw(stage *Stage, e Entity) int {
	d := t.dataFor(stage)
	row := len(d.entities)
	d.entities = append(d.entities, e)
	for i, id := range t.componentIDs {
		meta := t.world.registry.get(id)
		d.columns[i].grow(1)
		meta.init(d.columns[i].slot(row))
	}
	for _, hook := range t.onInsert {
		hook(row)
	}
	return row
}

// finiRow runs every column's fini hook over row, without removing it.
// Used before a full row removal (entity destruction).
func (t *Table) finiRow(stage *Stage, row int) {
	d := t.dataFor(stage)
	for i, id := range t.componentIDs {
		meta := t.world.registry.get(id)
		meta.fini(d.columns[i].slot(row))
	}
}

// removeRowRaw swap-removes row with no fini calls (callers that need
// finalization must call finiRow first). It reports the entity that
// was moved into row's slot, and whether any entity actually moved —
// false when row was already the last row, per the documented
// continue-without-update path (§9 open question, pinned by
// TestSwapRemove_LastRowNoop).
func (t *Table) removeRowRaw(stage *Stage, row int) (moved Entity, hadMove bool) {
	d := t.dataFor(stage)
	last := len(d.entities) - 1
	if row == last {
		d.entities = d.entities[:last]
		for _, c := range d.columns {
			c.swapRemove(row)
		}
		return None, false
	}
	moved = d.entities[last]
	d.entities[row] = moved
	d.entities = d.entities[:last]
	for _, c := range d.columns {
		c.swapRemove(row)
	}
	return moved, true
}

// moveRowTo performs a cross-table structural transition (§4.3): shared
// components are copied (via each component's merge hook if present,
// else raw bytes), destination-only components are zero/init'd by the
// append, and source-only components are fini'd before the row is
// dropped. Column matching is by component id, never by position.
func (t *Table) moveRowTo(stage *Stage, row int, dst *Table) (newRow int, moved Entity, hadMove bool) {
	d := t.dataFor(stage)
	entity := d.entities[row]
	newRow = dst.appendRaw(stage, entity)
	dd := dst.dataFor(stage)

	for _, id := range t.componentIDs {
		srcIdx := t.columnIndex[id]
		meta := t.world.registry.get(id)
		if dstIdx, ok := dst.columnIndex[id]; ok {
			meta.merge(dd.columns[dstIdx].slot(newRow), d.columns[srcIdx].slot(row))
		} else {
			meta.fini(d.columns[srcIdx].slot(row))
		}
	}

	moved, hadMove = t.removeRowRaw(stage, row)
	return newRow, moved, hadMove
}

// findOrCreateAdd resolves the table whose type is t.typ ∪ {c}
// (§4.4). When c is already in t.typ the result is t itself —
// idempotence falls directly out of interning the same id sequence.
// Returns TypeTooLarge if the destination type would exceed
// Config.MaxEntitiesInType (§3.3, the same bound sortIDs enforces for
// Create).
func (t *Table) findOrCreateAdd(c ComponentID) (*Table, error) {
	if d := t.getEdge(c).add; d != nil {
		return d, nil
	}
	destIDs := insertSorted(t.typ.IDs(), c)
	if len(destIDs) > Config.MaxEntitiesInType {
		return nil, newError(TypeTooLarge, "type would have %d ids, max is %d", len(destIDs), Config.MaxEntitiesInType)
	}
	handle := t.world.trie.Intern(destIDs)
	dst := t.world.getOrCreateTable(handle)
	t.setEdgeAdd(c, dst)
	if dst != t {
		dst.setEdgeRemove(c, t)
	}
	return dst, nil
}

// findOrCreateRemove resolves the table whose type is t.typ \ {c},
// symmetric to findOrCreateAdd.
func (t *Table) findOrCreateRemove(c ComponentID) *Table {
	if d := t.getEdge(c).remove; d != nil {
		return d
	}
	destIDs := removeSorted(t.typ.IDs(), c)
	handle := t.world.trie.Intern(destIDs)
	dst := t.world.getOrCreateTable(handle)
	t.setEdgeRemove(c, dst)
	if dst != t {
		dst.setEdgeAdd(c, t)
	}
	return dst
}

func (t *Table) getEdge(c ComponentID) edge {
	if uint64(c) < Config.HiComponentID {
		return t.loEdges[c]
	}
	return t.hiEdges[c]
}

func (t *Table) setEdgeAdd(c ComponentID, dst *Table) {
	if uint64(c) < Config.HiComponentID {
		t.loEdges[c].add = dst
		return
	}
	e := t.hiEdges[c]
	e.add = dst
	t.hiEdges[c] = e
}

func (t *Table) setEdgeRemove(c ComponentID, dst *Table) {
	if uint64(c) < Config.HiComponentID {
		t.loEdges[c].remove = dst
		return
	}
	e := t.hiEdges[c]
	e.remove = dst
	t.hiEdges[c] = e
}
