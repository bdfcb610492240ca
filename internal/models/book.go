package models

import "fmt"

// Role identifies one of the two configured instruments. The pair is
// directionally opposed: RolePrimary profits when natural gas rises,
// RoleInverse when it falls.
type Role int

const (
	// RolePrimary is the long natural gas instrument (e.g. BOIL).
	RolePrimary Role = iota
	// RoleInverse is the inverse instrument (e.g. KOLD).
	RoleInverse

	roleCount
)

// Other returns the opposing role.
func (r Role) Other() Role {
	if r == RolePrimary {
		return RoleInverse
	}
	return RolePrimary
}

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleInverse:
		return "inverse"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Roles lists both roles in their fixed evaluation order.
func Roles() [2]Role {
	return [2]Role{RolePrimary, RoleInverse}
}

type bookSlot struct {
	position *Position
	stop     *ActiveStop
}

// Book holds the open positions and their stops in a fixed two-slot
// record keyed by Role. The slot layout makes the mutual-exclusivity
// invariant structural: a caller must close before opening, and there
// is nowhere to put a second position for the same instrument.
type Book struct {
	slots [roleCount]bookSlot
}

// Open installs a position and its stop in the slot for role. The slot
// must be empty and, because the pair is mutually exclusive, so must
// the opposing slot.
func (b *Book) Open(role Role, pos *Position, stop *ActiveStop) error {
	if err := pos.Validate(); err != nil {
		return err
	}
	if stop == nil {
		return fmt.Errorf("book: open %s requires an active stop", role)
	}
	if b.slots[role].position != nil {
		return fmt.Errorf("book: %s slot already holds %s", role, b.slots[role].position.Symbol)
	}
	if other := b.slots[role.Other()].position; other != nil {
		return fmt.Errorf("book: mutual exclusivity violated, %s slot holds %s", role.Other(), other.Symbol)
	}
	b.slots[role] = bookSlot{position: pos, stop: stop}
	return nil
}

// Close empties the slot for role and returns the position that was
// held there, or nil if the slot was already empty.
func (b *Book) Close(role Role) *Position {
	pos := b.slots[role].position
	b.slots[role] = bookSlot{}
	return pos
}

// Position returns the open position for role, or nil.
func (b *Book) Position(role Role) *Position {
	return b.slots[role].position
}

// Stop returns the active stop for role, or nil.
func (b *Book) Stop(role Role) *ActiveStop {
	return b.slots[role].stop
}

// OpenCount returns how many slots hold a position (0 or 1 when mutual
// exclusivity holds).
func (b *Book) OpenCount() int {
	n := 0
	for _, slot := range b.slots {
		if slot.position != nil {
			n++
		}
	}
	return n
}

// Positions returns copies of all open positions.
func (b *Book) Positions() []Position {
	out := make([]Position, 0, roleCount)
	for _, slot := range b.slots {
		if slot.position != nil {
			out = append(out, *slot.position)
		}
	}
	return out
}

// Reset empties both slots.
func (b *Book) Reset() {
	for i := range b.slots {
		b.slots[i] = bookSlot{}
	}
}
