// Package world provides the hex grid, terrain, units, and the battle board.
// Uses offset coordinates (row, column) with odd columns shifted down.
package world

import "fmt"

// HexCoord represents a position on the board using offset coordinates.
type HexCoord struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Neighbor offsets depend on column parity.
var (
	evenColumnNeighbors = [6]HexCoord{
		{Row: -1, Column: 0},  // North
		{Row: -1, Column: 1},  // Northeast
		{Row: 0, Column: 1},   // Southeast
		{Row: 1, Column: 0},   // South
		{Row: 0, Column: -1},  // Southwest
		{Row: -1, Column: -1}, // Northwest
	}
	oddColumnNeighbors = [6]HexCoord{
		{Row: -1, Column: 0}, // North
		{Row: 0, Column: 1},  // Northeast
		{Row: 1, Column: 1},  // Southeast
		{Row: 1, Column: 0},  // South
		{Row: 1, Column: -1}, // Southwest
		{Row: 0, Column: -1}, // Northwest
	}
)

// Neighbors returns the six adjacent coordinates. No bounds checking is done;
// callers filter against the board.
func (h HexCoord) Neighbors() [6]HexCoord {
	dirs := evenColumnNeighbors
	if h.Column%2 != 0 {
		dirs = oddColumnNeighbors
	}
	var result [6]HexCoord
	for i, d := range dirs {
		result[i] = HexCoord{Row: h.Row + d.Row, Column: h.Column + d.Column}
	}
	return result
}

// IsAdjacent reports whether other is one of the six neighbors of h.
func (h HexCoord) IsAdjacent(other HexCoord) bool {
	for _, n := range h.Neighbors() {
		if n == other {
			return true
		}
	}
	return false
}

func (h HexCoord) String() string {
	return fmt.Sprintf("%d,%d", h.Row, h.Column)
}

// cube converts odd-q offset coordinates to cube coordinates.
func (h HexCoord) cube() (x, y, z int) {
	x = h.Column
	z = h.Row - (h.Column-(h.Column&1))/2
	y = -x - z
	return x, y, z
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	ax, ay, az := a.cube()
	bx, by, bz := b.cube()
	return (abs(ax-bx) + abs(ay-by) + abs(az-bz)) / 2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Terrain describes the ground of a hex and what it costs to enter.
type Terrain struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	MoveCost int    `json:"move_cost"`
}

// NewTerrain creates a terrain descriptor. Move costs below 1 are raised to 1.
func NewTerrain(name, color string, moveCost int) *Terrain {
	if moveCost < 1 {
		moveCost = 1
	}
	return &Terrain{Name: name, Color: color, MoveCost: moveCost}
}

// Standard terrain types.
var (
	TerrainOpen   = NewTerrain("open", "#C6AA5C", 1)
	TerrainForest = NewTerrain("forest", "#2F6B2F", 2)
	TerrainRough  = NewTerrain("rough", "#8C7B6B", 3)
)

// Hex is a single cell of the board. Units are kept in stacking order; the
// first occupant represents the cell in combat.
type Hex struct {
	Coord HexCoord

	units         []*Unit
	selected      bool
	moveHoverFrom *Hex
	terrain       *Terrain
	objective     *Objective
}

func newHex(row, column int) *Hex {
	return &Hex{Coord: HexCoord{Row: row, Column: column}}
}

// Row returns the hex row.
func (h *Hex) Row() int { return h.Coord.Row }

// Column returns the hex column.
func (h *Hex) Column() int { return h.Coord.Column }

// Units returns a copy of the occupants in stacking order.
func (h *Hex) Units() []*Unit {
	out := make([]*Unit, len(h.units))
	copy(out, h.units)
	return out
}

// FirstUnit returns the combat-representative occupant, or nil.
func (h *Hex) FirstUnit() *Unit {
	if len(h.units) == 0 {
		return nil
	}
	return h.units[0]
}

// IsEmpty reports whether no unit occupies the hex.
func (h *Hex) IsEmpty() bool {
	return len(h.units) == 0
}

// IsAdjacent reports whether other is a neighbor. A nil hex or the hex
// itself is never adjacent.
func (h *Hex) IsAdjacent(other *Hex) bool {
	if other == nil || other == h {
		return false
	}
	return h.Coord.IsAdjacent(other.Coord)
}

func (h *Hex) IsSelected() bool { return h.selected }

// MoveHoverFrom returns the hex a hovered move would start from, or nil.
func (h *Hex) MoveHoverFrom() *Hex { return h.moveHoverFrom }

func (h *Hex) Terrain() *Terrain { return h.terrain }

// SetTerrain assigns the terrain descriptor; nil means open ground.
func (h *Hex) SetTerrain(t *Terrain) { h.terrain = t }

func (h *Hex) Objective() *Objective { return h.objective }

func (h *Hex) SetObjective(o *Objective) { h.objective = o }

// MoveCost is the movement points needed to enter this hex.
func (h *Hex) MoveCost() int {
	if h.terrain == nil {
		return 1
	}
	return h.terrain.MoveCost
}

// HasCombat reports whether the first occupant has combat opponents.
func (h *Hex) HasCombat() bool {
	first := h.FirstUnit()
	return first != nil && len(first.opponents) > 0
}

// HasUnitMoves reports whether any occupant has a recorded move path.
func (h *Hex) HasUnitMoves() bool {
	for _, u := range h.units {
		if len(u.movePath) > 0 {
			return true
		}
	}
	return false
}

func (h *Hex) String() string {
	return fmt.Sprintf("Hex(%s)", h.Coord)
}

// detach removes u from the occupant list, keeping stacking order.
func (h *Hex) detach(u *Unit) bool {
	for i, occupant := range h.units {
		if occupant == u {
			h.units = append(h.units[:i], h.units[i+1:]...)
			return true
		}
	}
	return false
}
