package loom

import "testing"

func TestEntityIndexLoHiSplit(t *testing.T) {
	ix := newEntityIndex()

	lo := Entity(5)
	ix.set(lo, newRecord(nil, 1))
	if !ix.alive(lo) {
		t.Errorf("alive(%v) = false, want true", lo)
	}

	hi := Entity(Config.HiEntityID + 5)
	ix.set(hi, newRecord(nil, 2))
	if !ix.alive(hi) {
		t.Errorf("alive(%v) = false, want true", hi)
	}

	ix.remove(lo)
	if ix.alive(lo) {
		t.Errorf("alive(%v) = true after remove, want false", lo)
	}
}

func TestEntityIndexBoundaryAtHiEntityID(t *testing.T) {
	ix := newEntityIndex()
	boundary := Entity(Config.HiEntityID)

	ix.set(boundary, newRecord(nil, 7))
	r := ix.get(boundary)
	if r == nil || r.Row() != 7 {
		t.Fatalf("get(HiEntityID) = %v, want row 7", r)
	}

	below := Entity(Config.HiEntityID - 1)
	ix.set(below, newRecord(nil, 9))
	if r := ix.get(below); r == nil || r.Row() != 9 {
		t.Errorf("get(HiEntityID-1) = %v, want row 9", r)
	}
}

func TestEntityIndexEachSkipsTombstones(t *testing.T) {
	ix := newEntityIndex()
	a, b := Entity(1), Entity(2)
	ix.set(a, newRecord(nil, 0))
	ix.set(b, newRecord(nil, 1))
	ix.remove(b)

	seen := map[Entity]bool{}
	ix.each(func(e Entity, r *Record) { seen[e] = true })
	if !seen[a] || seen[b] {
		t.Errorf("each() seen = %v, want only %v", seen, a)
	}

	rawSeen := map[Entity]bool{}
	ix.eachRaw(func(e Entity, r *Record) { rawSeen[e] = true })
	if !rawSeen[a] || !rawSeen[b] {
		t.Errorf("eachRaw() seen = %v, want both %v and %v", rawSeen, a, b)
	}
}
