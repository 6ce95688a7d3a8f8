package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/battle-hexes/internal/events"
	"github.com/talgya/battle-hexes/internal/world"
)

// DefaultStepDelay is the pause between animation steps.
const DefaultStepDelay = 300 * time.Millisecond

// Animator walks a unit along a planned path one hex per step.
type Animator struct {
	StepDelay time.Duration
}

// NewAnimator creates an animator with the given step delay.
func NewAnimator(stepDelay time.Duration) *Animator {
	return &Animator{StepDelay: stepDelay}
}

// Animate places the unit on each hex of path after the first, recording
// the move path and publishing a redraw per step. Movement points are not
// charged. Paths shorter than two hexes do nothing.
func (a *Animator) Animate(ctx context.Context, g *Game, unitID string, path []world.HexCoord) error {
	if len(path) < 2 {
		return nil
	}

	for _, c := range path[1:] {
		ok := true
		g.mu.Lock()
		u := g.board.UnitByID(unitID)
		dest := g.board.Hex(c)
		switch {
		case u == nil:
			slog.Warn("planned unit not on board", "game", g.id, "unit", unitID)
			ok = false
		case dest == nil:
			slog.Warn("planned step off board", "game", g.id, "unit", unitID, "coord", c)
			ok = false
		default:
			if !u.HasMovePath() && u.ContainingHex() != nil {
				u.AddToMovePath(u.ContainingHex())
			}
			g.board.UpdateUnitPosition(u, dest)
			u.AddToMovePath(dest)
		}
		g.mu.Unlock()
		if !ok {
			break
		}

		g.notify(events.TopicBoardRedraw)
		if err := sleep(ctx, a.StepDelay); err != nil {
			return err
		}
	}

	g.RefreshCombat()
	g.notify(events.TopicMenuUpdate)
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
