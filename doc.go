/*
Package loom provides the archetype-based storage core of an
Entity-Component-System (ECS): the entity index, the type trie, the
archetype table, the type graph of add/remove edges between tables, the
table cache used by queries, and the staged mutation model that keeps
iteration safe under concurrent modification.

Loom does not parse signature expressions, schedule systems, or pace
frames — it is the storage and indexing layer those concerns sit on top
of.

Core Concepts:

  - Entity: a 64-bit opaque identifier.
  - Component: a registered, typed byte layout named by a low-numbered
    entity id.
  - Type: the sorted set of component ids an entity carries; types are
    interned so that equal types share a handle.
  - Table: column-major storage for every entity of one exact type.
  - Stage: a mutation buffer — the main stage, a temp stage, and one
    stage per worker thread — that defers structural changes while
    iteration is in progress.

Basic Usage:

	w := loom.NewWorld()

	position := loom.RegisterComponent[Position](w, nil)
	velocity := loom.RegisterComponent[Velocity](w, nil)

	e, _ := w.Create(position.ID(), velocity.ID())

	q := w.RegisterQuery(loom.All(position.ID(), velocity.ID()))
	for _, m := range w.Iterate(q) {
		for row := 0; row < m.Table.Len(); row++ {
			pos := position.At(m.Table, row)
			vel := velocity.At(m.Table, row)
			pos.X += vel.X
			pos.Y += vel.Y
		}
	}

Loom is the storage core of a small hobby game-engine but works fine
standalone.
*/
package loom
