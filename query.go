package loom

// FromKind selects where a signature column's component is looked up
// (§6).
type FromKind int

const (
	FromSelf FromKind = iota
	FromOwned
	FromShared
	FromContainer
	FromSystem
	FromEmpty
	FromEntity
	FromCascade
)

// OperKind selects how a signature column participates in table
// matching (§6).
type OperKind int

const (
	OperAnd OperKind = iota
	OperOr
	OperNot
	OperOptional
)

// InOutKind documents a column's access mode; it has no effect on
// matching, only on what a system is permitted to do with the data it
// names.
type InOutKind int

const (
	InOut InOutKind = iota
	In
	Out
)

// SignatureColumn is one already-parsed predicate of a query's
// signature. The signature-expression parser that produces these from
// source text is an external collaborator; this package only consumes
// compiled columns.
type SignatureColumn struct {
	FromKind  FromKind
	OperKind  OperKind
	InOutKind InOutKind

	// IsType selects whether Source/TypeIDs names a single component or
	// an entire type (a set of ids that must all be present together).
	IsType bool

	Source  ComponentID
	TypeIDs []ComponentID
}

func (c SignatureColumn) ids() []ComponentID {
	if c.IsType {
		return c.TypeIDs
	}
	return []ComponentID{c.Source}
}

// Query is a registered, compiled signature (§6): a list of columns
// plus the table cache that tracks which tables currently match it.
type Query struct {
	world   *World
	columns []SignatureColumn
	cache   *tableCache
}

// QueryHandle identifies a registered query.
type QueryHandle = *Query

// MatchedTable is one table yielded by Iterate (§6): table and columns
// (signature column index -> table column index, or a negative index
// into refs for a non-Self source), plus cascade depth.
type MatchedTable struct {
	Table   *Table
	Columns []int32
	refs    []*Table
	Depth   int
}

// RefTable returns the resolved table a negative Columns entry points
// into (Container/Shared sources), given the decoded -(i+1) index.
func (m MatchedTable) RefTable(i int) *Table { return m.refs[i] }

// matchesTable reports whether t satisfies every And/Or/Not column of
// the query at the type level. Container/Cascade columns are skipped
// here since their source isn't t's own type (compile resolves them per
// table), and Optional columns never exclude a table.
func (q *Query) matchesTable(t *Table) bool {
	var orGroup []SignatureColumn
	for _, c := range q.columns {
		switch c.FromKind {
		case FromContainer, FromCascade:
			continue
		}
		switch c.OperKind {
		case OperAnd:
			if !containsAll(t, c.ids()) {
				return false
			}
		case OperNot:
			if containsAny(t, c.ids()) {
				return false
			}
		case OperOr:
			orGroup = append(orGroup, c)
		case OperOptional:
			// never excludes
		}
	}
	if len(orGroup) > 0 {
		matched := false
		for _, c := range orGroup {
			if containsAll(t, c.ids()) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func containsAll(t *Table, ids []ComponentID) bool {
	for _, id := range ids {
		if !t.Contains(id) {
			return false
		}
	}
	return true
}

func containsAny(t *Table, ids []ComponentID) bool {
	for _, id := range ids {
		if t.Contains(id) {
			return true
		}
	}
	return false
}

// compile builds the Columns/refs mapping for t, resolving
// Container/Shared sources against t's prefab parent when one is set
// (§4's SUPPLEMENTED prefab inheritance; see SPEC_FULL.md).
func (q *Query) compile(t *Table) MatchedTable {
	m := MatchedTable{Table: t, Columns: make([]int32, len(q.columns))}
	for i, c := range q.columns {
		switch c.FromKind {
		case FromSelf, FromOwned:
			if c.IsType {
				m.Columns[i] = -1
				continue
			}
			if idx, ok := t.columnIndex[c.Source]; ok {
				m.Columns[i] = int32(idx)
			} else {
				m.Columns[i] = -1
			}
		case FromShared, FromContainer:
			ref := t.world.prefabTableFor(t)
			if ref == nil {
				m.Columns[i] = -1
				continue
			}
			refIdx := len(m.refs)
			m.refs = append(m.refs, ref)
			m.Columns[i] = encodeEmpty(refIdx)
		default:
			m.Columns[i] = -1
		}
	}
	m.Depth = t.world.cascadeDepth(t)
	return m
}

// RegisterQuery compiles signature into a Query and seeds its cache
// from every table already interned, per §4.5/§6.
func (w *World) RegisterQuery(columns []SignatureColumn) *Query {
	q := &Query{world: w, columns: columns, cache: newTableCache()}
	for _, t := range w.tables {
		if q.matchesTable(t) {
			q.cache.insert(t)
		}
	}
	w.queries = append(w.queries, q)
	return q
}

// All builds an all-required (And, Self, component) signature column,
// the common case for simple queries.
func All(ids ...ComponentID) []SignatureColumn {
	cols := make([]SignatureColumn, len(ids))
	for i, id := range ids {
		cols[i] = SignatureColumn{FromKind: FromSelf, OperKind: OperAnd, Source: id}
	}
	return cols
}

// Iterate returns one MatchedTable per non-empty table currently in
// q's cache, ordered by ascending Cascade depth so that §8 scenario 5
// holds without the caller needing to sort. The returned slice is a
// snapshot of the table set as it existed at the call: tables created
// or populated while the caller loops over it are not added to it and
// show up in the next Iterate. The world counts as iterating only while
// the slice is built; with auto-merge on, the pending stages are merged
// before Iterate returns, and mutations made while looping over the
// result apply to the main stage directly.
func (w *World) Iterate(q *Query) []MatchedTable {
	w.beginIteration()
	defer w.endIteration()

	matched := make([]MatchedTable, 0, q.cache.Len())
	q.cache.nonEmpty(func(t *Table) {
		matched = append(matched, q.compile(t))
	})
	insertionSortByDepth(matched)
	return matched
}

func insertionSortByDepth(m []MatchedTable) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && m[j-1].Depth > m[j].Depth; j-- {
			m[j-1], m[j] = m[j], m[j-1]
		}
	}
}

// onTableDirty re-evaluates every registered query's membership for t,
// called by merge for each table in a stage's dirtyTables list (§4.6
// step 3).
func (w *World) onTableDirty(t *Table) {
	for _, q := range w.queries {
		matches := q.matchesTable(t)
		_, present := q.cache.index[t.id]
		switch {
		case matches && !present:
			q.cache.insert(t)
		case matches && present:
			q.cache.setEmpty(t)
		case !matches && present:
			q.cache.remove(t)
		}
	}
}

// onTableCreated registers a brand-new table with every query it
// matches (it always starts in empty_tables, since a fresh table has
// no rows yet).
func (w *World) onTableCreated(t *Table) {
	for _, q := range w.queries {
		if q.matchesTable(t) {
			q.cache.insert(t)
		}
	}
}
