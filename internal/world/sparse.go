package world

import (
	"fmt"
	"log/slog"
)

// SparseUnit is the minimal per-unit position exchanged with the resolver.
type SparseUnit struct {
	ID     string `json:"id"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

// Coord returns the unit's position as a coordinate.
func (s SparseUnit) Coord() HexCoord {
	return HexCoord{Row: s.Row, Column: s.Column}
}

// CombatResult reports the outcome of one battle as decided by the resolver.
type CombatResult struct {
	Code    string `json:"combat_result_code"`
	Text    string `json:"combat_result_text"`
	Odds    [2]int `json:"odds"`
	DieRoll int    `json:"die_roll"`
}

func (r CombatResult) String() string {
	return fmt.Sprintf("%s (%d:%d, roll %d)", r.Text, r.Odds[0], r.Odds[1], r.DieRoll)
}

// SparseBoard is the snapshot body sent to and returned by the resolver.
type SparseBoard struct {
	Units             []SparseUnit   `json:"units"`
	LastCombatResults []CombatResult `json:"last_combat_results,omitempty"`
}

// MovementPlan is one unit's path as planned by the resolver, start included.
type MovementPlan struct {
	UnitID string     `json:"unit_id"`
	Path   []HexCoord `json:"path"`
}

// GameModel is the game state embedded in a movement response.
type GameModel struct {
	ID    string     `json:"id"`
	Board BoardModel `json:"board"`
}

// BoardModel carries the authoritative unit positions of a GameModel.
type BoardModel struct {
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Units   []SparseUnit `json:"units"`
}

// MovementResponse is what the resolver returns for a movement request.
type MovementResponse struct {
	Plans []MovementPlan `json:"plans"`
	Game  *GameModel     `json:"game,omitempty"`
}

// ReconcileReport summarizes what ApplySparseUnits changed.
type ReconcileReport struct {
	Moved      []string `json:"moved"`
	Eliminated []string `json:"eliminated"`
	Unknown    []string `json:"unknown"`
}

// SparseBoard snapshots every placed unit's position in registration order.
func (b *Board) SparseBoard() SparseBoard {
	units := make([]SparseUnit, 0, len(b.units))
	for _, u := range b.units {
		if u.hex == nil {
			continue
		}
		units = append(units, SparseUnit{ID: u.ID, Row: u.hex.Coord.Row, Column: u.hex.Coord.Column})
	}
	return SparseBoard{Units: units}
}

// ApplySparseUnits reconciles the board with an authoritative unit list.
// Listed units are repositioned. Units that were on the board and are missing
// from the list are eliminated, and so are units sent to a coordinate off the
// grid. Registered units that were never placed stay registered unless the
// list places them. Ids the board does not know are logged and ignored. When
// an id repeats, the first entry wins and later ones are logged and ignored.
func (b *Board) ApplySparseUnits(units []SparseUnit) ReconcileReport {
	var report ReconcileReport

	wasPlaced := make(map[string]bool, len(b.units))
	for _, u := range b.units {
		if u.hex != nil {
			wasPlaced[u.ID] = true
		}
	}

	handled := make(map[string]bool, len(units))
	kept := make(map[string]bool, len(units))
	for _, su := range units {
		u := b.unitIndex[su.ID]
		if u == nil {
			slog.Warn("reconcile payload names unknown unit", "unit", su.ID)
			report.Unknown = append(report.Unknown, su.ID)
			continue
		}
		if handled[su.ID] {
			slog.Warn("reconcile payload repeats unit, ignoring", "unit", su.ID, "coord", su.Coord())
			continue
		}
		handled[su.ID] = true

		target := b.Hex(su.Coord())
		if target == nil {
			slog.Warn("reconcile target off board, eliminating", "unit", su.ID, "coord", su.Coord())
			continue
		}
		kept[su.ID] = true
		if u.hex != target {
			place(u, target)
			report.Moved = append(report.Moved, u.ID)
		}
	}

	for _, u := range b.Units() {
		if kept[u.ID] || (!wasPlaced[u.ID] && !handled[u.ID]) {
			continue
		}
		b.RemoveUnit(u)
		report.Eliminated = append(report.Eliminated, u.ID)
	}
	if len(report.Eliminated) > 0 {
		slog.Info("units eliminated", "count", len(report.Eliminated), "units", report.Eliminated)
	}
	return report
}
