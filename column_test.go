package loom

import "testing"

type testPosition struct{ X, Y float64 }

func TestRegisterComponentAndColumnRoundTrip(t *testing.T) {
	w := NewWorld()
	position := RegisterComponent[testPosition](w, nil)

	if position.Size() != 16 {
		t.Errorf("Size() = %d, want 16", position.Size())
	}

	e, err := w.Create(position.ID())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	rec := w.mainStage.index.get(e)
	pos := position.At(rec.Table(), int(rec.Row()))
	pos.X, pos.Y = 1, 2

	rec2 := w.mainStage.index.get(e)
	got := position.At(rec2.Table(), int(rec2.Row()))
	if got.X != 1 || got.Y != 2 {
		t.Errorf("At() = %+v, want {1 2}", *got)
	}
}

func TestComponentHooksCustomInit(t *testing.T) {
	w := NewWorld()
	calledInit := false
	acc := RegisterComponent[testPosition](w, &Hooks{
		Init: func(dst []byte) { calledInit = true },
	})
	if _, err := w.Create(acc.ID()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !calledInit {
		t.Errorf("custom Init hook was not called")
	}
}

func TestRegistryDenseSparseSplit(t *testing.T) {
	r := newRegistry()
	lo := r.allocate(4, 4, 4, Hooks{})
	if uint64(lo.id) >= Config.HiComponentID {
		t.Fatalf("allocated id %d should be below HiComponentID", lo.id)
	}
	if got := r.get(lo.id); got != lo {
		t.Errorf("get() = %v, want %v", got, lo)
	}

	hi := &componentMeta{id: ComponentID(Config.HiComponentID + 5), size: 8}
	r.set(hi.id, hi)
	if got := r.get(hi.id); got != hi {
		t.Errorf("get() of hi id = %v, want %v", got, hi)
	}
}

func TestColumnSwapRemove(t *testing.T) {
	meta := &componentMeta{size: 4}
	c := newColumn(meta, 0)
	c.grow(3)
	copy(c.slot(0), []byte{1, 1, 1, 1})
	copy(c.slot(1), []byte{2, 2, 2, 2})
	copy(c.slot(2), []byte{3, 3, 3, 3})

	c.swapRemove(0)
	if c.len() != 2 {
		t.Fatalf("len() = %d, want 2", c.len())
	}
	if c.slot(0)[0] != 3 {
		t.Errorf("swapRemove did not move last element into removed slot")
	}
}
