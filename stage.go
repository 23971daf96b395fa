package loom

// Stage isolates a batch of structural mutations from the world's main
// data until they are explicitly merged (§5). Stage 0 is always the
// main stage; the temp stage and any worker stages carry id ≥ 1.
type Stage struct {
	world *World
	id    uint32
	name  string

	index *entityIndex

	// dirtyTables lists every table touched while this stage was open,
	// in first-touch order, so merge only has to revisit tables that
	// actually changed.
	dirtyTables []*Table
	seenTable   map[*Table]bool
}

func newStage(w *World, id uint32, name string) *Stage {
	return &Stage{
		world:     w,
		id:        id,
		name:      name,
		index:     newEntityIndex(),
		seenTable: make(map[*Table]bool),
	}
}

// ID returns the stage's numeric id. 0 is always the main stage.
func (s *Stage) ID() uint32 { return s.id }

func (s *Stage) isMain() bool { return s.id == 0 }

func (s *Stage) markDirty(t *Table) {
	if s.isMain() || s.seenTable[t] {
		return
	}
	s.seenTable[t] = true
	s.dirtyTables = append(s.dirtyTables, t)
}

// reset clears the stage's bookkeeping after a successful merge,
// leaving it ready for reuse with a freshly allocated, empty index.
func (s *Stage) reset() {
	s.index = newEntityIndex()
	s.dirtyTables = s.dirtyTables[:0]
	s.seenTable = make(map[*Table]bool)
}
