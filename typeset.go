package loom

import "sort"

// sortIDs returns a sorted copy of ids with duplicates removed, and
// validates the result against Config.MaxEntitiesInType (§3.3).
func sortIDs(ids []ComponentID) ([]ComponentID, error) {
	out := make([]ComponentID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	deduped := out[:0]
	for i, id := range out {
		if i == 0 || id != out[i-1] {
			deduped = append(deduped, id)
		}
	}
	if len(deduped) > Config.MaxEntitiesInType {
		return nil, newError(TypeTooLarge, "type has %d ids, max is %d", len(deduped), Config.MaxEntitiesInType)
	}
	return deduped, nil
}

// insertSorted inserts id into the sorted, deduplicated slice ids,
// returning a new slice. If id is already present, ids is returned
// unchanged (same backing array).
func insertSorted(ids []ComponentID, id ComponentID) []ComponentID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	out := make([]ComponentID, len(ids)+1)
	copy(out, ids[:i])
	out[i] = id
	copy(out[i+1:], ids[i:])
	return out
}

// removeSorted removes id from the sorted slice ids if present,
// returning a new slice.
func removeSorted(ids []ComponentID, id ComponentID) []ComponentID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i >= len(ids) || ids[i] != id {
		return ids
	}
	out := make([]ComponentID, len(ids)-1)
	copy(out, ids[:i])
	copy(out[i:], ids[i+1:])
	return out
}

func containsID(ids []ComponentID, id ComponentID) bool {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	return i < len(ids) && ids[i] == id
}
