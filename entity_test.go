package loom

import "testing"

func TestEntityValid(t *testing.T) {
	tests := []struct {
		name string
		e    Entity
		want bool
	}{
		{"zero is invalid", None, false},
		{"one is valid", Entity(1), true},
		{"large id is valid", Entity(1 << 40), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntityIsComponentID(t *testing.T) {
	if !Entity(1).IsComponentID() {
		t.Errorf("Entity(1).IsComponentID() = false, want true")
	}
	if Entity(Config.HiComponentID).IsComponentID() {
		t.Errorf("Entity(HiComponentID).IsComponentID() = true, want false")
	}
}

func TestCheckRange(t *testing.T) {
	if err := checkRange(None); !IsKind(err, InvalidEntity) {
		t.Errorf("checkRange(None) = %v, want InvalidEntity", err)
	}
	if err := checkRange(Entity(Config.MinHandle)); err != nil {
		t.Errorf("checkRange(MinHandle) = %v, want nil", err)
	}
	if err := checkRange(Entity(Config.MaxHandle + 1)); !IsKind(err, InvalidEntity) {
		t.Errorf("checkRange(MaxHandle+1) = %v, want InvalidEntity", err)
	}
}
