package loom

import "go.uber.org/zap"

// tableCache partitions a query's matched tables into those with at
// least one row ("tables") and those with none ("emptyTables"), so
// iteration never has to skip past archetypes that currently hold
// nothing (§4.5). index maps a table's arena id to its slot: a
// non-negative value is an index into tables, a negative value v
// decodes to an index into emptyTables via -(v+1).
type tableCache struct {
	tables      []*Table
	emptyTables []*Table
	index       map[uint32]int32
}

func newTableCache() *tableCache {
	return &tableCache{index: make(map[uint32]int32)}
}

func encodeEmpty(i int) int32 { return int32(-(i + 1)) }
func decodeEmpty(v int32) int { return int(-v - 1) }

// insert adds t to the cache, placing it in tables or emptyTables
// according to its current row count. No-op if t is already present.
func (c *tableCache) insert(t *Table) {
	if _, ok := c.index[t.id]; ok {
		return
	}
	if t.Len() > 0 {
		c.index[t.id] = int32(len(c.tables))
		c.tables = append(c.tables, t)
		return
	}
	c.index[t.id] = encodeEmpty(len(c.emptyTables))
	c.emptyTables = append(c.emptyTables, t)
}

// remove drops t from the cache entirely, swap-removing from whichever
// partition it currently occupies and patching the moved table's slot.
func (c *tableCache) remove(t *Table) {
	v, ok := c.index[t.id]
	if !ok {
		return
	}
	delete(c.index, t.id)
	if v >= 0 {
		i := int(v)
		last := len(c.tables) - 1
		c.tables[i] = c.tables[last]
		c.tables = c.tables[:last]
		if i != last {
			c.index[c.tables[i].id] = int32(i)
		}
		return
	}
	i := decodeEmpty(v)
	last := len(c.emptyTables) - 1
	c.emptyTables[i] = c.emptyTables[last]
	c.emptyTables = c.emptyTables[:last]
	if i != last {
		c.index[c.emptyTables[i].id] = encodeEmpty(i)
	}
}

// promote moves t from emptyTables into tables. Called when a table
// that previously held zero rows receives its first row.
func (c *tableCache) promote(t *Table) {
	v, ok := c.index[t.id]
	if !ok || v >= 0 {
		return
	}
	i := decodeEmpty(v)
	last := len(c.emptyTables) - 1
	c.emptyTables[i] = c.emptyTables[last]
	c.emptyTables = c.emptyTables[:last]
	if i != last {
		c.index[c.emptyTables[i].id] = encodeEmpty(i)
	}
	c.index[t.id] = int32(len(c.tables))
	c.tables = append(c.tables, t)
	logDebug("table cache promoted table", zap.Uint32("table", t.id))
}

// demote moves t from tables into emptyTables. Called when a table's
// last row is removed.
func (c *tableCache) demote(t *Table) {
	v, ok := c.index[t.id]
	if !ok || v < 0 {
		return
	}
	i := int(v)
	last := len(c.tables) - 1
	c.tables[i] = c.tables[last]
	c.tables = c.tables[:last]
	if i != last {
		c.index[c.tables[i].id] = int32(i)
	}
	c.index[t.id] = encodeEmpty(len(c.emptyTables))
	c.emptyTables = append(c.emptyTables, t)
	logDebug("table cache demoted table", zap.Uint32("table", t.id))
}

// setEmpty reconciles t's partition with its current row count; call
// after any append/remove that might cross the zero boundary.
func (c *tableCache) setEmpty(t *Table) {
	v, ok := c.index[t.id]
	if !ok {
		return
	}
	empty := t.Len() == 0
	if empty && v >= 0 {
		c.demote(t)
	} else if !empty && v < 0 {
		c.promote(t)
	}
}

// nonEmpty calls fn for every table currently holding at least one
// row.
func (c *tableCache) nonEmpty(fn func(*Table)) {
	for _, t := range c.tables {
		fn(t)
	}
}

// Len returns the number of non-empty tables in the cache.
func (c *tableCache) Len() int { return len(c.tables) }
