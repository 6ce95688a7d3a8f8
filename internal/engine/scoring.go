package engine

import (
	"log/slog"

	"github.com/talgya/battle-hexes/internal/world"
)

// ScoreTracker keeps objective points per player name. It is guarded by the
// owning game's lock.
type ScoreTracker struct {
	points map[string]int
}

// NewScoreTracker creates an empty tracker.
func NewScoreTracker() *ScoreTracker {
	return &ScoreTracker{points: make(map[string]int)}
}

// Add gives points to a player.
func (s *ScoreTracker) Add(player string, points int) {
	s.points[player] += points
}

// Snapshot copies the current scores.
func (s *ScoreTracker) Snapshot() map[string]int {
	out := make(map[string]int, len(s.points))
	for k, v := range s.points {
		out[k] = v
	}
	return out
}

// awardHeldObjectives scores every hold objective where p has a unit that is
// not engaged in combat.
func (s *ScoreTracker) awardHeldObjectives(b *world.Board, p *world.Player) {
	for _, h := range b.Objectives() {
		obj := h.Objective()
		if obj.Type != world.ObjectiveHold {
			continue
		}
		for _, u := range h.Units() {
			if u.IsOwnedBy(p) && len(u.CombatOpponents()) == 0 {
				s.Add(p.Name, obj.Points)
				slog.Debug("objective held", "player", p.Name, "hex", h.Coord, "points", obj.Points)
				break
			}
		}
	}
}
