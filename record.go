package loom

// Record locates a live entity's data: which table holds it, which row
// within that table, and whether it is watched (§3.2). row packs the
// watched flag into its high bit, as the spec calls out, so the two
// travel together through every transition that doesn't explicitly
// toggle it.
type Record struct {
	table *Table
	packedRow int32
}

const watchedBit = int32(1) << 31

// noRow is the sentinel row for a record that occupies no row in its
// table: a worker stage's shadow record for an entity whose structural
// change is staged but not yet materialized. An entity with the empty
// type does not use it; it gets a real row in the root table.
const noRow int32 = -1

func newRecord(t *Table, row int32) Record {
	return Record{table: t, packedRow: row}
}

// Row returns the row index, with the watched flag masked off.
func (r Record) Row() int32 {
	if r.packedRow == noRow {
		return noRow
	}
	return r.packedRow &^ watchedBit
}

// Watched reports the watched flag, independent of the sign used for
// noRow.
func (r Record) Watched() bool {
	if r.packedRow == noRow {
		return false
	}
	return r.packedRow&watchedBit != 0
}

// WithRow returns a copy of r with its row replaced, preserving the
// watched flag.
func (r Record) WithRow(row int32) Record {
	if row < 0 {
		return Record{table: r.table, packedRow: row}
	}
	if r.Watched() {
		row |= watchedBit
	}
	return Record{table: r.table, packedRow: row}
}

// WithWatched returns a copy of r with the watched flag set to w.
func (r Record) WithWatched(w bool) Record {
	if r.packedRow == noRow {
		return r
	}
	row := r.packedRow &^ watchedBit
	if w {
		row |= watchedBit
	}
	return Record{table: r.table, packedRow: row}
}

// Table returns the table this record points into.
func (r Record) Table() *Table { return r.table }

// Valid reports whether the record names a table at all.
func (r Record) Valid() bool { return r.table != nil }
