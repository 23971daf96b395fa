package loom

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/kamstrup/intmap"
)

// TypeHandle identifies an interned Type (§3.3). Two handles are equal
// iff the underlying id sequences are equal — pointer identity suffices
// once interned, so callers never need to compare sequences at runtime.
type TypeHandle = *typeNode

// typeNode is one node of the type trie (§4.2): it represents the type
// formed by the sorted ids from the root down to itself.
type typeNode struct {
	ids    []ComponentID
	parent *typeNode
	addedID ComponentID

	childrenDense []*typeNode
	childrenSparse *intmap.Map[uint64, []sparseChild]

	// next threads every interned node in creation order, for linear
	// scans (see TypeTrie.Each) without walking the trie.
	next *typeNode
}

type sparseChild struct {
	id    ComponentID
	child *typeNode
}

// IDs returns the sorted component ids of the type this handle names.
// The returned slice must not be mutated.
func (n *typeNode) IDs() []ComponentID { return n.ids }

// Len returns the number of ids in the type.
func (n *typeNode) Len() int { return len(n.ids) }

// Contains reports whether id is a member of the type.
func (n *typeNode) Contains(id ComponentID) bool { return containsID(n.ids, id) }

func (n *typeNode) maxID() ComponentID {
	if len(n.ids) == 0 {
		return 0
	}
	return n.ids[len(n.ids)-1]
}

// TypeTrie interns sorted component-id sequences into shared
// TypeHandles (§4.2), so that two calls with equal sequences return
// identical handles.
type TypeTrie struct {
	root  *typeNode
	head  *typeNode
	tail  *typeNode
	count int
}

// NewTypeTrie creates an empty trie whose root represents the empty
// type.
func NewTypeTrie() *TypeTrie {
	root := &typeNode{ids: []ComponentID{}}
	t := &TypeTrie{root: root, head: root, tail: root}
	t.count = 1
	return t
}

// Root returns the handle for the empty type.
func (t *TypeTrie) Root() TypeHandle { return t.root }

// Intern returns the handle for sortedIDs, creating trie nodes for any
// prefix not yet observed. sortedIDs must already be sorted ascending
// with no duplicates (see sortIDs).
func (t *TypeTrie) Intern(sortedIDs []ComponentID) TypeHandle {
	n := t.root
	for _, id := range sortedIDs {
		n = t.childOrCreate(n, id)
	}
	return n
}

// HandleOf performs a non-inserting lookup; it returns nil if no node
// for sortedIDs has been interned yet.
func (t *TypeTrie) HandleOf(sortedIDs []ComponentID) TypeHandle {
	n := t.root
	for _, id := range sortedIDs {
		child := t.child(n, id)
		if child == nil {
			return nil
		}
		n = child
	}
	return n
}

func (t *TypeTrie) child(n *typeNode, id ComponentID) *typeNode {
	offset := uint64(id) - uint64(n.maxID())
	if len(n.ids) > 0 && id <= n.maxID() {
		// Only reachable via malformed input (ids not ascending); no
		// trie node can represent it as a direct child.
		return nil
	}
	if offset < Config.MaxChildNodes {
		if n.childrenDense == nil {
			return nil
		}
		return n.childrenDense[offset]
	}
	if n.childrenSparse == nil {
		return nil
	}
	bucket := bucketHash(id) % Config.BucketCount
	entries, ok := n.childrenSparse.Get(bucket)
	if !ok {
		return nil
	}
	for _, e := range entries {
		if e.id == id {
			return e.child
		}
	}
	return nil
}

func (t *TypeTrie) childOrCreate(n *typeNode, id ComponentID) *typeNode {
	if c := t.child(n, id); c != nil {
		return c
	}

	childIDs := make([]ComponentID, len(n.ids)+1)
	copy(childIDs, n.ids)
	childIDs[len(n.ids)] = id
	child := &typeNode{ids: childIDs, parent: n, addedID: id}

	offset := uint64(id) - uint64(n.maxID())
	if offset < Config.MaxChildNodes {
		if n.childrenDense == nil {
			n.childrenDense = make([]*typeNode, Config.MaxChildNodes)
		}
		n.childrenDense[offset] = child
	} else {
		if n.childrenSparse == nil {
			n.childrenSparse = intmap.New[uint64, []sparseChild](8)
			logDebug("type trie node spilled into bucketed sparse children")
		}
		bucket := bucketHash(id) % Config.BucketCount
		entries, _ := n.childrenSparse.Get(bucket)
		entries = append(entries, sparseChild{id: id, child: child})
		n.childrenSparse.Put(bucket, entries)
	}

	t.tail.next = child
	t.tail = child
	t.count++
	return child
}

// Each calls fn for every interned node in creation order, including
// the root, for debugging and scan tooling.
func (t *TypeTrie) Each(fn func(TypeHandle)) {
	for n := t.head; n != nil; n = n.next {
		fn(n)
	}
}

// Count returns the number of interned types, including the root.
func (t *TypeTrie) Count() int { return t.count }

func bucketHash(id ComponentID) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	return xxhash.Sum64(buf[:])
}
