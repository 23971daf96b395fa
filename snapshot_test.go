package loom

import "testing"

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	b := RegisterComponent[struct{ V int }](w, nil)

	e1, _ := w.Create(a.ID())
	e2, _ := w.Create(a.ID(), b.ID())
	rec1 := w.mainStage.index.get(e1)
	a.At(rec1.Table(), int(rec1.Row())).X = 7
	a.At(rec1.Table(), int(rec1.Row())).Y = 8

	data, err := w.Snapshot(nil)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	w2 := NewWorld()
	RegisterComponent[testPosition](w2, nil)
	RegisterComponent[struct{ V int }](w2, nil)
	if err := w2.Restore(data); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if !w2.IsAlive(e1) || !w2.IsAlive(e2) {
		t.Fatalf("Restore() lost an entity: e1 alive=%v e2 alive=%v", w2.IsAlive(e1), w2.IsAlive(e2))
	}

	rrec := w2.mainStage.index.get(e1)
	got := a.At(rrec.Table(), int(rrec.Row()))
	if got.X != 7 || got.Y != 8 {
		t.Errorf("restored component = %+v, want {7 8}", *got)
	}

	rrec2 := w2.mainStage.index.get(e2)
	if !rrec2.Table().Contains(b.ID()) {
		t.Errorf("restored entity missing component it had pre-snapshot")
	}
}

func TestSnapshotRestoreIsIdempotent(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	w.Create(a.ID())
	w.Create(a.ID())

	data1, err := w.Snapshot(nil)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	w2 := NewWorld()
	RegisterComponent[testPosition](w2, nil)
	if err := w2.Restore(data1); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	data2, err := w2.Snapshot(nil)
	if err != nil {
		t.Fatalf("second Snapshot() error = %v", err)
	}

	if len(data1) != len(data2) {
		t.Fatalf("snapshot -> restore -> snapshot changed length: %d vs %d", len(data1), len(data2))
	}
	for i := range data1 {
		if data1[i] != data2[i] {
			t.Fatalf("snapshot -> restore -> snapshot differs at byte %d", i)
			break
		}
	}
}

func TestSnapshotFilterExcludesTables(t *testing.T) {
	w := NewWorld()
	a := RegisterComponent[testPosition](w, nil)
	b := RegisterComponent[struct{ V int }](w, nil)
	w.Create(a.ID())
	w.Create(b.ID())

	onlyA := func(tb *Table) bool { return tb.Contains(a.ID()) && !tb.Contains(b.ID()) }
	data, err := w.Snapshot(onlyA)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	w2 := NewWorld()
	RegisterComponent[testPosition](w2, nil)
	RegisterComponent[struct{ V int }](w2, nil)
	if err := w2.Restore(data); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	total := 0
	for _, tb := range w2.tables {
		total += tb.Len()
	}
	if total != 1 {
		t.Errorf("filtered restore holds %d entities total, want 1", total)
	}
}
