package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultThinkDelay is the pause before each CPU action.
const DefaultThinkDelay = 500 * time.Millisecond

// AutomatedController plays a CPU player's turn against the resolver.
type AutomatedController struct {
	ThinkDelay time.Duration
	Animator   *Animator
}

// NewAutomatedController creates a CPU controller.
func NewAutomatedController(thinkDelay time.Duration, animator *Animator) *AutomatedController {
	if animator == nil {
		animator = NewAnimator(0)
	}
	return &AutomatedController{ThinkDelay: thinkDelay, Animator: animator}
}

// TakeTurn runs phases until the turn passes to another player or the game
// ends. A failed resolver call stops the loop and is returned; nothing is
// retried or rolled back.
func (c *AutomatedController) TakeTurn(ctx context.Context, g *Game) error {
	me := g.CurrentPlayer()
	for {
		if g.IsGameOver() || g.CurrentPlayer() != me {
			return nil
		}
		if err := sleep(ctx, c.ThinkDelay); err != nil {
			return err
		}
		if g.IsGameOver() {
			return nil
		}

		phase := g.CurrentPhase()
		if err := c.step(ctx, g, phase); err != nil {
			slog.Error("cpu step failed", "game", g.ID(), "player", me.Name, "phase", phase, "error", err)
			return fmt.Errorf("%s phase: %w", phase, err)
		}
	}
}

func (c *AutomatedController) step(ctx context.Context, g *Game, phase Phase) error {
	switch phase {
	case PhaseMovement:
		if err := c.movement(ctx, g); err != nil {
			return err
		}
	case PhaseCombat:
		if err := g.ResolveCombat(ctx, nil); err != nil {
			return err
		}
	case PhaseEndTurn:
		if err := g.endTurn(ctx); err != nil {
			return err
		}
	}
	g.EndPhase()
	return nil
}

func (c *AutomatedController) movement(ctx context.Context, g *Game) error {
	if g.resolver == nil {
		return ErrNoResolver
	}
	resp, err := g.resolver.Movement(ctx, g.id, g.SparseBoard())
	if err != nil {
		return err
	}
	for _, plan := range resp.Plans {
		if err := c.Animator.Animate(ctx, g, plan.UnitID, plan.Path); err != nil {
			return err
		}
	}
	if resp.Game != nil {
		g.ApplyUnits(resp.Game.Board.Units)
	}
	g.RefreshCombat()
	return nil
}
