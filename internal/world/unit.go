package world

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMovementPoints is returned when a unit without moves is asked to move.
	ErrNoMovementPoints = errors.New("no movement points remaining")
	// ErrOffBoard is returned for coordinates outside the grid.
	ErrOffBoard = errors.New("coordinate is off the board")
	// ErrUnknownUnit is returned when a unit id is not registered.
	ErrUnknownUnit = errors.New("unknown unit")
)

// Unit is a counter on the board.
type Unit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Attack   int    `json:"attack"`
	Defense  int    `json:"defense"`
	Movement int    `json:"movement"` // Movement allowance per turn

	faction        *Faction
	movesRemaining int
	hex            *Hex   // Containing hex; nil when unplaced or eliminated
	movePath       []*Hex // Hexes traversed this turn
	opponents      []*Unit
}

// NewUnit creates an unplaced unit with a full movement allowance.
func NewUnit(id, name string, faction *Faction, unitType string, attack, defense, movement int) *Unit {
	return &Unit{
		ID:             id,
		Name:           name,
		Type:           unitType,
		Attack:         attack,
		Defense:        defense,
		Movement:       movement,
		faction:        faction,
		movesRemaining: movement,
	}
}

func (u *Unit) Faction() *Faction { return u.faction }

// OwningPlayer returns the player controlling the unit's faction.
func (u *Unit) OwningPlayer() *Player { return u.faction.OwningPlayer() }

// IsOwnedBy reports whether p controls the unit.
func (u *Unit) IsOwnedBy(p *Player) bool { return u.OwningPlayer() == p }

// ContainingHex returns the hex holding the unit, or nil.
func (u *Unit) ContainingHex() *Hex { return u.hex }

func (u *Unit) MovesRemaining() int { return u.movesRemaining }

// MovePath returns the hexes traversed this turn.
func (u *Unit) MovePath() []*Hex {
	out := make([]*Hex, len(u.movePath))
	copy(out, u.movePath)
	return out
}

// AddToMovePath appends a traversed hex.
func (u *Unit) AddToMovePath(h *Hex) { u.movePath = append(u.movePath, h) }

func (u *Unit) HasMovePath() bool { return len(u.movePath) > 0 }

// CombatOpponents returns the enemy units this unit is paired with.
func (u *Unit) CombatOpponents() []*Unit {
	out := make([]*Unit, len(u.opponents))
	copy(out, u.opponents)
	return out
}

// IsMovable reports whether the UI may issue a move: moves remain and a
// human controls the unit. CPU units move through autoplay only.
func (u *Unit) IsMovable() bool {
	return u.movesRemaining > 0 && u.OwningPlayer().IsHuman()
}

// Move relocates the unit into dest and recomputes its combat pairing from
// the hexes adjacent to dest. Contact with an enemy ends movement; otherwise
// the terrain cost of dest is deducted.
func (u *Unit) Move(dest *Hex, adjacent []*Hex) error {
	if u.movesRemaining <= 0 {
		return fmt.Errorf("move %s: %w", u.ID, ErrNoMovementPoints)
	}
	if dest == nil {
		return fmt.Errorf("move %s: %w", u.ID, ErrOffBoard)
	}

	place(u, dest)
	u.updateCombatOpponents(adjacent)

	if len(u.opponents) > 0 {
		u.movesRemaining = 0
		return nil
	}
	u.movesRemaining -= dest.MoveCost()
	if u.movesRemaining < 0 {
		u.movesRemaining = 0
	}
	return nil
}

// ResetMovesRemaining restores the full movement allowance.
func (u *Unit) ResetMovesRemaining() {
	u.movesRemaining = u.Movement
}

// ResetCombat drops every pairing this unit takes part in, on both sides.
func (u *Unit) ResetCombat() {
	for _, o := range u.opponents {
		o.dropOpponent(u)
	}
	u.opponents = nil
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s (%s)", u.Name, u.faction)
}

// updateCombatOpponents pairs the unit's stack with the enemy occupants of
// each adjacent hex whose first unit belongs to another player.
func (u *Unit) updateCombatOpponents(adjacent []*Hex) {
	u.ResetCombat()
	owner := u.OwningPlayer()
	for _, h := range adjacent {
		first := h.FirstUnit()
		if first == nil || first.OwningPlayer() == owner {
			continue
		}
		for _, enemy := range h.units {
			if enemy.OwningPlayer() == owner {
				continue
			}
			for _, friend := range u.hex.units {
				pair(friend, enemy)
			}
		}
	}
}

// pair records a and b as opponents of each other.
func pair(a, b *Unit) {
	a.addOpponent(b)
	b.addOpponent(a)
}

func (u *Unit) addOpponent(o *Unit) {
	for _, existing := range u.opponents {
		if existing == o {
			return
		}
	}
	u.opponents = append(u.opponents, o)
}

func (u *Unit) dropOpponent(o *Unit) {
	for i, existing := range u.opponents {
		if existing == o {
			u.opponents = append(u.opponents[:i], u.opponents[i+1:]...)
			return
		}
	}
}

// place moves u into to, or detaches it when to is nil. Every position
// change goes through here so Unit.hex and Hex.units never disagree.
func place(u *Unit, to *Hex) {
	if u.hex == to {
		return
	}
	if u.hex != nil {
		u.hex.detach(u)
	}
	u.hex = to
	if to != nil {
		to.units = append(to.units, u)
	}
}
