package loom_test

import (
	"fmt"

	"github.com/kilnworks/loom"
)

type Position struct{ X, Y float64 }
type Velocity struct{ X, Y float64 }

func Example() {
	w := loom.NewWorld()

	position := loom.RegisterComponent[Position](w, nil)
	velocity := loom.RegisterComponent[Velocity](w, nil)

	w.Create(position.ID(), velocity.ID())

	q := w.RegisterQuery(loom.All(position.ID(), velocity.ID()))
	for _, m := range w.Iterate(q) {
		for row := 0; row < m.Table.Len(); row++ {
			vel := velocity.At(m.Table, row)
			vel.X, vel.Y = 1, 2
		}
	}

	for _, m := range w.Iterate(q) {
		for row := 0; row < m.Table.Len(); row++ {
			pos := position.At(m.Table, row)
			vel := velocity.At(m.Table, row)
			pos.X += vel.X
			pos.Y += vel.Y
			fmt.Println(pos.X, pos.Y)
		}
	}
	// Output: 1 2
}
