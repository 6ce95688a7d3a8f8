package world

import (
	"fmt"
	"log/slog"
)

// Board holds the full rectangular hex grid, the live units, and the
// selection and hover pointers used by the UI.
type Board struct {
	rows    int
	columns int
	hexes   map[HexCoord]*Hex
	order   []*Hex // Row-major, for stable iteration

	units     []*Unit // Registration order
	unitIndex map[string]*Unit

	selected *Hex
	hover    *Hex
	players  *Players
}

// NewBoard creates a board with every hex of a rows × columns grid.
func NewBoard(rows, columns int) *Board {
	b := &Board{
		rows:      rows,
		columns:   columns,
		hexes:     make(map[HexCoord]*Hex, rows*columns),
		order:     make([]*Hex, 0, rows*columns),
		unitIndex: make(map[string]*Unit),
	}
	for row := 0; row < rows; row++ {
		for column := 0; column < columns; column++ {
			h := newHex(row, column)
			b.hexes[h.Coord] = h
			b.order = append(b.order, h)
		}
	}
	return b
}

func (b *Board) Rows() int    { return b.rows }
func (b *Board) Columns() int { return b.columns }

// SetPlayers wires the turn rotation used by the ownership predicates.
func (b *Board) SetPlayers(players *Players) { b.players = players }

func (b *Board) currentPlayer() *Player { return b.players.Current() }

// Hex returns the hex at the coordinate, or nil if off the board.
func (b *Board) Hex(c HexCoord) *Hex { return b.hexes[c] }

// HexAt is Hex by row and column.
func (b *Board) HexAt(row, column int) *Hex {
	return b.hexes[HexCoord{Row: row, Column: column}]
}

// InBounds reports whether the coordinate is on the grid.
func (b *Board) InBounds(c HexCoord) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Column >= 0 && c.Column < b.columns
}

// Hexes returns every hex in row-major order.
func (b *Board) Hexes() []*Hex {
	out := make([]*Hex, len(b.order))
	copy(out, b.order)
	return out
}

// Units returns the live units in registration order.
func (b *Board) Units() []*Unit {
	out := make([]*Unit, len(b.units))
	copy(out, b.units)
	return out
}

// UnitByID looks up a live unit.
func (b *Board) UnitByID(id string) *Unit { return b.unitIndex[id] }

// AddUnit registers the unit and, when at is given, places it there. No
// legality check is made: placement is authoritative.
func (b *Board) AddUnit(u *Unit, at *HexCoord) error {
	var target *Hex
	if at != nil {
		target = b.Hex(*at)
		if target == nil {
			return fmt.Errorf("add unit %s at %s: %w", u.ID, at, ErrOffBoard)
		}
	}
	if _, ok := b.unitIndex[u.ID]; !ok {
		b.units = append(b.units, u)
		b.unitIndex[u.ID] = u
	}
	if target != nil {
		place(u, target)
	}
	return nil
}

// RemoveUnit detaches the unit from its hex and drops it from the registry.
// Removing an unregistered unit only logs a warning.
func (b *Board) RemoveUnit(u *Unit) {
	if _, ok := b.unitIndex[u.ID]; !ok {
		slog.Warn("did not find unit to remove", "unit", u.ID, "name", u.Name)
		return
	}
	u.ResetCombat()
	place(u, nil)
	delete(b.unitIndex, u.ID)
	for i, existing := range b.units {
		if existing == u {
			b.units = append(b.units[:i], b.units[i+1:]...)
			break
		}
	}
}

// MoveUnit moves u one step into dest, paying the movement cost.
func (b *Board) MoveUnit(u *Unit, dest *Hex) error {
	if dest == nil {
		return fmt.Errorf("move %s: %w", u.ID, ErrOffBoard)
	}
	return u.Move(dest, b.AdjacentHexes(dest))
}

// UpdateUnitPosition places u in to without movement cost or pairing, as
// done for animation steps and server-driven repositioning.
func (b *Board) UpdateUnitPosition(u *Unit, to *Hex) {
	place(u, to)
}

// SelectedHex returns the selected hex, or nil.
func (b *Board) SelectedHex() *Hex { return b.selected }

// HoverHex returns the hovered hex, or nil.
func (b *Board) HoverHex() *Hex { return b.hover }

// SelectHex is the main interaction entry point. Selecting a hex adjacent
// to a selected hex whose first unit is movable issues a move command.
// Returns the previous selection.
func (b *Board) SelectHex(target *Hex) *Hex {
	prev := b.selected
	if target == prev {
		return prev
	}

	switch {
	case prev == nil:
	case b.IsOppositionHex(prev):
		prev.selected = false
	case !prev.IsEmpty() && prev.IsAdjacent(target) &&
		prev.FirstUnit().IsMovable() && !b.IsOppositionHex(target):
		mover := prev.FirstUnit()
		if err := b.MoveUnit(mover, target); err != nil {
			slog.Warn("move command rejected", "unit", mover.ID, "error", err)
		} else {
			slog.Debug("unit moved", "unit", mover.ID, "to", target.Coord, "moves_remaining", mover.movesRemaining)
		}
		prev.selected = false
		b.SetHoverHex(nil)
	default:
		prev.selected = false
	}

	b.selected = target
	if target != nil {
		target.selected = true
	}
	return prev
}

// SetHoverHex tracks the pointer. When a friendly, not yet moved stack is
// selected and the hovered hex is an adjacent non-enemy hex, the hovered hex
// records where the move arrow starts. Returns the previous hover target.
func (b *Board) SetHoverHex(h *Hex) *Hex {
	prev := b.hover
	b.hover = h
	if prev == h {
		return prev
	}

	if h != nil && b.selected != nil && !b.selected.IsEmpty() &&
		!b.selected.HasUnitMoves() &&
		h.IsAdjacent(b.selected) &&
		b.IsOwnHexSelected() &&
		!b.IsOppositionHex(h) {
		h.moveHoverFrom = b.selected
	}

	if prev != nil {
		prev.moveHoverFrom = nil
	}
	return prev
}

// AdjacentHexes returns the on-board neighbors of h.
func (b *Board) AdjacentHexes(h *Hex) []*Hex {
	if h == nil {
		return nil
	}
	out := make([]*Hex, 0, 6)
	for _, c := range h.Coord.Neighbors() {
		if b.InBounds(c) {
			out = append(out, b.hexes[c])
		}
	}
	return out
}

// HexAndAdjacent returns h followed by its on-board neighbors.
func (b *Board) HexAndAdjacent(h *Hex) []*Hex {
	if h == nil {
		return nil
	}
	return append([]*Hex{h}, b.AdjacentHexes(h)...)
}

// HexNeighborhoods returns the union of HexAndAdjacent over hexes, without
// duplicates. Renderers use it to find the cells touched by a change.
func (b *Board) HexNeighborhoods(hexes ...*Hex) []*Hex {
	seen := make(map[*Hex]bool)
	var out []*Hex
	for _, h := range hexes {
		for _, n := range b.HexAndAdjacent(h) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// IsOwnHexSelected reports whether the selected hex is led by a unit of the
// current player.
func (b *Board) IsOwnHexSelected() bool {
	if b.selected == nil || b.selected.IsEmpty() {
		return false
	}
	return b.selected.FirstUnit().OwningPlayer() == b.currentPlayer()
}

// IsOppositionHex reports whether h is led by a unit of another player than
// the current one.
func (b *Board) IsOppositionHex(h *Hex) bool {
	if h == nil || h.IsEmpty() {
		return false
	}
	return h.FirstUnit().OwningPlayer() != b.currentPlayer()
}

// HasCombat reports whether any occupied hex has a paired first unit.
func (b *Board) HasCombat() bool {
	for _, h := range b.order {
		if h.HasCombat() {
			return true
		}
	}
	return false
}

// OccupiedHexes returns the hexes holding at least one unit.
func (b *Board) OccupiedHexes() []*Hex {
	var out []*Hex
	for _, h := range b.order {
		if !h.IsEmpty() {
			out = append(out, h)
		}
	}
	return out
}

// ResetMovesRemaining restores every unit's allowance and clears move paths.
func (b *Board) ResetMovesRemaining() {
	for _, u := range b.units {
		u.ResetMovesRemaining()
		u.movePath = nil
	}
}

// ResetCombat clears every pairing on the board.
func (b *Board) ResetCombat() {
	for _, u := range b.units {
		u.opponents = nil
	}
}

// RefreshCombat recomputes all pairings from current positions.
func (b *Board) RefreshCombat() {
	b.ResetCombat()
	for _, h := range b.OccupiedHexes() {
		owner := h.FirstUnit().OwningPlayer()
		for _, n := range b.AdjacentHexes(h) {
			other := n.FirstUnit()
			if other == nil || other.OwningPlayer() == owner {
				continue
			}
			for _, friend := range h.units {
				if friend.OwningPlayer() != owner {
					continue
				}
				for _, enemy := range n.units {
					if enemy.OwningPlayer() != owner {
						pair(friend, enemy)
					}
				}
			}
		}
	}
}

// Owners returns the distinct players owning at least one placed unit.
func (b *Board) Owners() []*Player {
	seen := make(map[*Player]bool)
	var out []*Player
	for _, u := range b.units {
		if u.hex == nil {
			continue
		}
		p := u.OwningPlayer()
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func (b *Board) String() string {
	return fmt.Sprintf("Board(rows=%d, columns=%d, units=%d)", b.rows, b.columns, len(b.units))
}
