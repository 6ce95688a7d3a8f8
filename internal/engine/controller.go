package engine

import (
	"context"

	"github.com/talgya/battle-hexes/internal/events"
)

// Controller takes a player's turn. TakeTurn returns when the turn has
// passed to another player or when it must wait for outside input.
type Controller interface {
	TakeTurn(ctx context.Context, g *Game) error
}

// HumanController waits for the UI: it refreshes the menu and returns.
type HumanController struct{}

// TakeTurn implements Controller.
func (HumanController) TakeTurn(ctx context.Context, g *Game) error {
	g.notify(events.TopicMenuUpdate)
	return nil
}
