package loom

import "testing"

func TestFindOrCreateAddIdempotent(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)

	root := w.getOrCreateTable(w.trie.Root())
	withA, err := root.findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}
	again, err := withA.findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}

	if again != withA {
		t.Errorf("findOrCreateAdd() of already-present component did not return same table")
	}
	if root.findOrCreateRemove(a.ID()) != root {
		t.Errorf("findOrCreateRemove() of absent component did not return source table")
	}
}

func TestFindOrCreateAddEdgeReuse(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	root := w.getOrCreateTable(w.trie.Root())

	d1, err := root.findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}
	d2, err := root.findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() error = %v", err)
	}
	if d1 != d2 {
		t.Errorf("findOrCreateAdd() cache miss on second call")
	}
	if d1.findOrCreateRemove(a.ID()) != root {
		t.Errorf("findOrCreateRemove() did not resolve back to source via cached edge")
	}
}

func TestSwapRemove_LastRowNoop(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	e1, _ := w.Create(a.ID())
	_ = e1

	rec := w.mainStage.index.get(e1)
	tbl := rec.Table()

	moved, hadMove := tbl.removeRowRaw(w.mainStage, int(rec.Row()))
	if hadMove {
		t.Errorf("removeRowRaw() of the only/last row reported a move, want none")
	}
	if moved != None {
		t.Errorf("removeRowRaw() of the only/last row returned %v, want None", moved)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() after removing only row = %d, want 0", tbl.Len())
	}
}

func TestSwapRemoveRepairsMovedRecord(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	e1, _ := w.Create(a.ID())
	e2, _ := w.Create(a.ID())

	rec1 := w.mainStage.index.get(e1)
	tbl := rec1.Table()

	moved, hadMove := tbl.removeRowRaw(w.mainStage, 0)
	if !hadMove || moved != e2 {
		t.Fatalf("removeRowRaw() moved = %v, hadMove = %v, want e2 moved", moved, hadMove)
	}
	if tbl.EntityAt(0) != e2 {
		t.Errorf("EntityAt(0) = %v after swap-remove, want %v", tbl.EntityAt(0), e2)
	}
}

func TestFindOrCreateAddRejectsOversizedType(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	b := RegisterComponent[struct{ V int }](w, nil)

	saved := Config.MaxEntitiesInType
	Config.MaxEntitiesInType = 1
	defer func() { Config.MaxEntitiesInType = saved }()

	root := w.getOrCreateTable(w.trie.Root())
	withA, err := root.findOrCreateAdd(a.ID())
	if err != nil {
		t.Fatalf("findOrCreateAdd() of first component error = %v", err)
	}
	if _, err := withA.findOrCreateAdd(b.ID()); !IsKind(err, TypeTooLarge) {
		t.Errorf("findOrCreateAdd() past the cap = %v, want TypeTooLarge", err)
	}
}

func TestAddComponentPropagatesTypeTooLarge(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	b := RegisterComponent[struct{ V int }](w, nil)
	e, _ := w.Create(a.ID())

	saved := Config.MaxEntitiesInType
	Config.MaxEntitiesInType = 1
	defer func() { Config.MaxEntitiesInType = saved }()

	if err := w.AddComponent(e, b.ID()); !IsKind(err, TypeTooLarge) {
		t.Errorf("AddComponent() past the cap = %v, want TypeTooLarge", err)
	}
}

func TestMoveRowToPreservesSharedComponent(t *testing.T) {
	w := NewWorld()
	pos := RegisterComponent[testPosition](w, nil)
	tag := RegisterComponent[struct{}](w, nil)

	e, _ := w.Create(pos.ID())
	rec := w.mainStage.index.get(e)
	p := pos.At(rec.Table(), int(rec.Row()))
	p.X, p.Y = 3, 4

	if err := w.AddComponent(e, tag.ID()); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}

	rec2 := w.mainStage.index.get(e)
	if !rec2.Table().Contains(tag.ID()) {
		t.Fatalf("entity's new table does not contain added component")
	}
	got := pos.At(rec2.Table(), int(rec2.Row()))
	if got.X != 3 || got.Y != 4 {
		t.Errorf("shared component not preserved across table move, got %+v", *got)
	}
}
