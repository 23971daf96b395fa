package loom

import (
	"sort"

	"go.uber.org/zap"
)

// Merge applies every non-main stage's buffered mutations into the
// main stage, in ascending stage id order for determinism (§4.6).
// It takes the world mutex for its duration.
func (w *World) Merge() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.merging = true
	defer func() { w.merging = false }()

	stages := make([]*Stage, 0, len(w.workerStages)+1)
	stages = append(stages, w.tempStage)
	stages = append(stages, w.workerStages...)
	sort.Slice(stages, func(i, j int) bool { return stages[i].id < stages[j].id })

	for _, s := range stages {
		w.mergeStage(s)
	}
}

func (w *World) mergeStage(s *Stage) {
	entities := 0
	s.index.eachRaw(func(e Entity, shadow *Record) {
		w.mergeEntity(s, e, shadow)
		entities++
	})

	for _, t := range s.dirtyTables {
		w.onTableDirty(t)
		t.dropStagedData(s)
	}

	logDebug("stage merged",
		zap.Uint32("stage", s.id),
		zap.Int("entities", entities),
		zap.Int("tables", len(s.dirtyTables)),
	)

	s.reset()
}

// mergeEntity resolves one shadow record from stage s. A zero-value
// Record (Valid()==false but present in the stage index) is a
// tombstone: the entity was destroyed within the stage.
func (w *World) mergeEntity(s *Stage, e Entity, shadow *Record) {
	mainRec := w.mainStage.index.get(e)

	if !shadow.Valid() {
		if mainRec == nil || !mainRec.Valid() {
			return
		}
		t := mainRec.Table()
		row := int(mainRec.Row())
		t.finiRow(w.mainStage, row)
		moved, hadMove := t.removeRowRaw(w.mainStage, row)
		if hadMove {
			mr := w.mainStage.index.get(moved)
			*mr = mr.WithRow(int32(row))
		}
		w.mainStage.index.remove(e)
		w.releaseEntity(e)
		w.mainStage.markDirty(t)
		return
	}

	dstTable := shadow.Table()
	mainDst := w.adoptStagedTable(dstTable)

	if mainRec == nil || !mainRec.Valid() {
		// Entity was created within the stage: copy its row across into
		// the corresponding main-stage table.
		row := int(shadow.Row())
		newRow := w.copyStagedRow(s, dstTable, row, mainDst, e)
		w.mainStage.index.set(e, newRecord(mainDst, int32(newRow)))
		w.mainStage.markDirty(mainDst)
		return
	}

	// Entity existed before the stage began and moved tables within it.
	srcTable := mainRec.Table()
	row := int(mainRec.Row())
	newRow, moved, hadMove := srcTable.moveRowTo(w.mainStage, row, mainDst)
	if hadMove {
		mr := w.mainStage.index.get(moved)
		*mr = mr.WithRow(int32(row))
	}
	w.mainStage.index.set(e, newRecord(mainDst, int32(newRow)).WithWatched(mainRec.Watched()))
	w.mainStage.markDirty(srcTable)
	w.mainStage.markDirty(mainDst)
}

// adoptStagedTable grafts a table that was only ever created inside a
// worker stage into the main tablesByType/tables arena (§4.6 step 2).
// A table created through the normal findOrCreateAdd/Remove machinery
// is already registered on w.tables regardless of which stage caused
// its creation, so this is a no-op in the common case; it exists so a
// future fully-isolated worker-local trie/table arena can graft in
// without touching call sites.
func (w *World) adoptStagedTable(t *Table) *Table {
	if existing, ok := w.tablesByType[t.typ]; ok {
		return existing
	}
	w.tables = append(w.tables, t)
	w.tablesByType[t.typ] = t
	w.onTableCreated(t)
	return t
}

// copyStagedRow copies row's component bytes from src's staged data
// (under stage s) into dst's main data, returning the new row.
func (w *World) copyStagedRow(s *Stage, src *Table, row int, dst *Table, e Entity) int {
	sd := src.stagedData(s)
	newRow := dst.appendRaw(w.mainStage, e)
	if sd == nil {
		return newRow
	}
	dd := dst.dataFor(w.mainStage)
	for _, id := range src.componentIDs {
		srcIdx := src.columnIndex[id]
		dstIdx, ok := dst.columnIndex[id]
		if !ok {
			continue
		}
		meta := w.registry.get(id)
		meta.replace(dd.columns[dstIdx].slot(newRow), sd.columns[srcIdx].slot(row))
	}
	return newRow
}
