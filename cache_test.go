package loom

import "testing"

func TestTableCachePartition(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	root := w.getOrCreateTable(w.trie.Root())
	tbl, err := root.findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}

	c := newTableCache()
	c.insert(tbl)
	if c.Len() != 0 || len(c.emptyTables) != 1 {
		t.Fatalf("insert() of empty table: tables=%d empty=%d, want 0/1", c.Len(), len(c.emptyTables))
	}

	if _, err := w.Create(a.ID()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	c.setEmpty(tbl)
	if c.Len() != 1 || len(c.emptyTables) != 0 {
		t.Fatalf("setEmpty() after first row: tables=%d empty=%d, want 1/0", c.Len(), len(c.emptyTables))
	}
	if c.index[tbl.id] != 0 {
		t.Errorf("index[tbl.id] = %d, want 0", c.index[tbl.id])
	}
}

func TestTableCacheSetEmptyRoundTrip(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	tbl, err := w.getOrCreateTable(w.trie.Root()).findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}
	w.Create(a.ID())

	c := newTableCache()
	c.insert(tbl) // has a row already, lands in tables

	c.demote(tbl)
	if len(c.emptyTables) != 1 {
		t.Fatalf("demote() did not move table to emptyTables")
	}
	c.promote(tbl)
	if c.Len() != 1 {
		t.Fatalf("promote() did not restore table to tables")
	}
}

func TestTableCacheSwapRemoveRepairsIndex(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	b := RegisterComponent[struct{ V int }](w, nil)
	root := w.getOrCreateTable(w.trie.Root())
	t1, err := root.findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}
	t2, err := t1.findOrCreateAdd(b.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}

	c := newTableCache()
	c.insert(t1)
	c.insert(t2)
	c.remove(t1)

	if len(c.emptyTables) != 1 || c.emptyTables[0] != t2 {
		t.Fatalf("remove() left emptyTables = %v, want [t2]", c.emptyTables)
	}
	if c.index[t2.id] != encodeEmpty(0) {
		t.Errorf("index[t2.id] not repaired after swap-remove")
	}
}
