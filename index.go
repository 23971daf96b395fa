package loom

import "github.com/kamstrup/intmap"

// Entity index (§4.1): a hybrid sparse-set. Ids below Config.HiEntityID
// live in a preallocated, never-reallocated dense array so that taking
// &lo[id] is safe for the process lifetime; ids at or above that
// threshold spill into a sparse map of heap-boxed records, mirroring
// the table/registry split used throughout the rest of the package.
type entityIndex struct {
	lo []*Record
	hi *intmap.Map[uint64, *Record]
}

func newEntityIndex() *entityIndex {
	return &entityIndex{
		lo: make([]*Record, Config.HiEntityID),
		hi: intmap.New[uint64, *Record](64),
	}
}

// get returns the record for e, or nil if e has never been assigned
// one.
func (ix *entityIndex) get(e Entity) *Record {
	if uint64(e) < Config.HiEntityID {
		if int(e) >= len(ix.lo) {
			return nil
		}
		return ix.lo[e]
	}
	r, _ := ix.hi.Get(uint64(e))
	return r
}

// set installs rec as e's record, allocating storage on first use.
func (ix *entityIndex) set(e Entity, rec Record) *Record {
	if uint64(e) < Config.HiEntityID {
		r := ix.lo[e]
		if r == nil {
			r = new(Record)
			ix.lo[e] = r
		}
		*r = rec
		return r
	}
	r, ok := ix.hi.Get(uint64(e))
	if !ok {
		r = new(Record)
		ix.hi.Put(uint64(e), r)
	}
	*r = rec
	return r
}

// remove clears e's record. The pointer slot itself is kept (for lo)
// so that any previously-taken *Record observes the cleared state
// rather than dangling; hi entries are deleted outright since nothing
// but the index itself should hold their address across a removal.
func (ix *entityIndex) remove(e Entity) {
	if uint64(e) < Config.HiEntityID {
		if r := ix.lo[e]; r != nil {
			*r = Record{}
		}
		return
	}
	ix.hi.Del(uint64(e))
}

// alive reports whether e currently has a valid, non-empty record.
func (ix *entityIndex) alive(e Entity) bool {
	r := ix.get(e)
	return r != nil && r.Valid()
}

// each iterates every live entity and its record. Order is
// unspecified.
func (ix *entityIndex) each(fn func(Entity, *Record)) {
	ix.eachRaw(func(e Entity, r *Record) {
		if r.Valid() {
			fn(e, r)
		}
	})
}

// eachRaw iterates every slot that has ever been set, live or
// tombstoned (a zero-value Record written by set, or by remove for an
// id below HiEntityID, rather than a never-touched slot; remove deletes
// hi ids outright, so they are not visited afterwards). Merge needs to see tombstones; ordinary
// iteration (each) does not.
func (ix *entityIndex) eachRaw(fn func(Entity, *Record)) {
	for id, r := range ix.lo {
		if r != nil {
			fn(Entity(id), r)
		}
	}
	ix.hi.ForEach(func(id uint64, r *Record) {
		if r != nil {
			fn(Entity(id), r)
		}
	})
}
