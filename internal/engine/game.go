// Package engine runs a battle: the phase and turn state machine, the
// controllers that take turns, and the CPU autoplay loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/battle-hexes/internal/events"
	"github.com/talgya/battle-hexes/internal/world"
)

// Phase names one step of a player's turn.
type Phase string

const (
	PhaseMovement Phase = "Movement"
	PhaseCombat   Phase = "Combat"
	PhaseEndTurn  Phase = "End Turn"
)

// DefaultPhases is the turn sequence used unless WithPhases overrides it.
var DefaultPhases = []Phase{PhaseMovement, PhaseCombat, PhaseEndTurn}

// ErrNoResolver is returned when a remote call is needed but no resolver is set.
var ErrNoResolver = errors.New("no resolver configured")

// Resolver decides CPU movement and combat outcomes for a game.
type Resolver interface {
	Movement(ctx context.Context, gameID string, board world.SparseBoard) (*world.MovementResponse, error)
	Combat(ctx context.Context, gameID string, board world.SparseBoard) (*world.SparseBoard, error)
	EndTurn(ctx context.Context, gameID string, board world.SparseBoard) error
}

// CombatOutcome is passed to the ResolveCombat completion callback.
type CombatOutcome struct {
	Results []world.CombatResult
	Report  world.ReconcileReport
}

// Game is one battle session. Every exported method is safe for concurrent
// use; network calls and delays run without holding the lock.
type Game struct {
	mu sync.Mutex

	id       string
	board    *world.Board
	players  *world.Players
	phases   []Phase
	phaseIdx int
	turn     int

	controllers map[string]Controller // Player ID → controller
	resolver    Resolver
	publisher   events.Publisher
	scores      *ScoreTracker
	lastCombat  []world.CombatResult

	driving atomic.Bool
	pending atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Game.
type Option func(*Game)

// WithPhases replaces the default phase sequence.
func WithPhases(phases ...Phase) Option {
	return func(g *Game) {
		if len(phases) > 0 {
			g.phases = phases
		}
	}
}

// WithResolver sets the remote resolver.
func WithResolver(r Resolver) Option {
	return func(g *Game) { g.resolver = r }
}

// WithPublisher sets where redraw and menu notifications go.
func WithPublisher(p events.Publisher) Option {
	return func(g *Game) { g.publisher = p }
}

// WithController assigns the controller for a player.
func WithController(playerID string, c Controller) Option {
	return func(g *Game) { g.controllers[playerID] = c }
}

// NewGame creates a game on board for the given rotation. Players without an
// explicit controller get a HumanController or a default AutomatedController
// by kind.
func NewGame(id string, board *world.Board, players *world.Players, opts ...Option) *Game {
	g := &Game{
		id:          id,
		board:       board,
		players:     players,
		phases:      DefaultPhases,
		turn:        1,
		controllers: make(map[string]Controller),
		publisher:   events.Discard{},
		scores:      NewScoreTracker(),
	}
	for _, opt := range opts {
		opt(g)
	}
	board.SetPlayers(players)
	for _, p := range players.All() {
		if _, ok := g.controllers[p.ID]; ok {
			continue
		}
		if p.IsHuman() {
			g.controllers[p.ID] = HumanController{}
		} else {
			g.controllers[p.ID] = NewAutomatedController(DefaultThinkDelay, NewAnimator(DefaultStepDelay))
		}
	}
	return g
}

// ID returns the game id.
func (g *Game) ID() string { return g.id }

// CurrentPhase returns the active phase.
func (g *Game) CurrentPhase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phases[g.phaseIdx]
}

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *world.Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players.Current()
}

// Turn returns the 1-based player turn counter.
func (g *Game) Turn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// Phases returns the phase sequence.
func (g *Game) Phases() []Phase {
	out := make([]Phase, len(g.phases))
	copy(out, g.phases)
	return out
}

// Players returns the players in turn order.
func (g *Game) Players() []*world.Player {
	return g.players.All()
}

// EndPhase advances to the next phase. Past the last phase the turn passes
// to the next player and movement allowances are restored. Combat is
// skipped when no units are engaged. Reports whether the player changed.
func (g *Game) EndPhase() bool {
	g.mu.Lock()
	from := g.phases[g.phaseIdx]
	switched := g.endPhaseLocked()
	to, player := g.phases[g.phaseIdx], g.players.Current()
	g.mu.Unlock()

	slog.Info("phase ended", "game", g.id, "from", from, "to", to, "player", player.Name, "turn_switched", switched)
	g.notify(events.TopicMenuUpdate)
	return switched
}

func (g *Game) endPhaseLocked() bool {
	switched := false
	for range g.phases {
		if g.phases[g.phaseIdx] == PhaseMovement {
			g.scores.awardHeldObjectives(g.board, g.players.Current())
		}
		g.phaseIdx++
		if g.phaseIdx >= len(g.phases) {
			g.phaseIdx = 0
			g.players.Next()
			g.board.ResetMovesRemaining()
			g.turn++
			switched = true
		}
		if g.phases[g.phaseIdx] == PhaseCombat && !g.board.HasCombat() {
			continue
		}
		break
	}
	return switched
}

// FinishPhase ends the current phase on behalf of a player. Leaving End
// Turn first tells the resolver the turn is over, since the resolver tracks
// whose turn it is; if that call fails the phase does not advance and the
// error is returned. A game without a resolver advances locally.
func (g *Game) FinishPhase(ctx context.Context) (bool, error) {
	if g.CurrentPhase() == PhaseEndTurn {
		err := g.endTurn(ctx)
		switch {
		case errors.Is(err, ErrNoResolver):
			slog.Debug("no resolver, ending turn locally", "game", g.id)
		case err != nil:
			return false, err
		}
	}
	return g.EndPhase(), nil
}

// endTurn reports the end of the current player's turn to the resolver.
func (g *Game) endTurn(ctx context.Context) error {
	if g.resolver == nil {
		return ErrNoResolver
	}
	if err := g.resolver.EndTurn(ctx, g.id, g.SparseBoard()); err != nil {
		return fmt.Errorf("end turn: %w", err)
	}
	return nil
}

// IsGameOver reports whether at most one player still has units on the board.
func (g *Game) IsGameOver() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.board.Owners()) <= 1
}

// ResolveCombat sends the board to the resolver, applies the returned
// positions and eliminations, clears all pairings, and calls onDone.
func (g *Game) ResolveCombat(ctx context.Context, onDone func(CombatOutcome)) error {
	if g.resolver == nil {
		return ErrNoResolver
	}
	snapshot := g.SparseBoard()

	resp, err := g.resolver.Combat(ctx, g.id, snapshot)
	if err != nil {
		return fmt.Errorf("resolve combat: %w", err)
	}

	g.mu.Lock()
	report := g.board.ApplySparseUnits(resp.Units)
	g.board.ResetCombat()
	g.lastCombat = resp.LastCombatResults
	g.mu.Unlock()

	for _, r := range resp.LastCombatResults {
		slog.Info("combat result", "game", g.id, "result", r.Code, "odds", fmt.Sprintf("%d:%d", r.Odds[0], r.Odds[1]), "die_roll", r.DieRoll)
	}

	g.notify(events.TopicBoardRedraw)
	g.notify(events.TopicMenuUpdate)
	if onDone != nil {
		onDone(CombatOutcome{Results: resp.LastCombatResults, Report: report})
	}
	return nil
}

// LastCombatResults returns the results of the most recent combat.
func (g *Game) LastCombatResults() []world.CombatResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]world.CombatResult, len(g.lastCombat))
	copy(out, g.lastCombat)
	return out
}

// SelectHex selects the hex at c, or clears the selection when c is nil,
// and returns the previously selected coordinate.
func (g *Game) SelectHex(c *world.HexCoord) (*world.HexCoord, error) {
	g.mu.Lock()
	var target *world.Hex
	if c != nil {
		if target = g.board.Hex(*c); target == nil {
			g.mu.Unlock()
			return nil, fmt.Errorf("select %s: %w", c, world.ErrOffBoard)
		}
	}
	prev := coordOf(g.board.SelectHex(target))
	g.mu.Unlock()

	g.notify(events.TopicBoardRedraw)
	g.notify(events.TopicMenuUpdate)
	return prev, nil
}

// SetHoverHex moves the hover target to c, or clears it when c is nil, and
// returns the previous hover coordinate.
func (g *Game) SetHoverHex(c *world.HexCoord) (*world.HexCoord, error) {
	g.mu.Lock()
	var target *world.Hex
	if c != nil {
		if target = g.board.Hex(*c); target == nil {
			g.mu.Unlock()
			return nil, fmt.Errorf("hover %s: %w", c, world.ErrOffBoard)
		}
	}
	prev := coordOf(g.board.SetHoverHex(target))
	g.mu.Unlock()

	g.notify(events.TopicBoardRedraw)
	return prev, nil
}

func coordOf(h *world.Hex) *world.HexCoord {
	if h == nil {
		return nil
	}
	c := h.Coord
	return &c
}

// SparseBoard snapshots unit positions.
func (g *Game) SparseBoard() world.SparseBoard {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.SparseBoard()
}

// ApplyUnits reconciles the board with an authoritative unit list.
func (g *Game) ApplyUnits(units []world.SparseUnit) world.ReconcileReport {
	g.mu.Lock()
	report := g.board.ApplySparseUnits(units)
	g.mu.Unlock()
	g.notify(events.TopicBoardRedraw)
	return report
}

// RefreshCombat recomputes combat pairings from unit positions.
func (g *Game) RefreshCombat() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.board.RefreshCombat()
}

// View runs fn with the board locked. fn must not retain the board or call
// back into the game.
func (g *Game) View(fn func(b *world.Board)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.board)
}

// Scores returns the points earned so far per player name.
func (g *Game) Scores() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scores.Snapshot()
}

// Status is a summary of the game for menus and the API.
type Status struct {
	GameID            string               `json:"game_id"`
	Turn              int                  `json:"turn"`
	TurnLabel         string               `json:"turn_label"`
	Phase             Phase                `json:"phase"`
	Phases            []Phase              `json:"phases"`
	Player            string               `json:"player"`
	PlayerKind        world.PlayerKind     `json:"player_kind"`
	HasCombat         bool                 `json:"has_combat"`
	GameOver          bool                 `json:"game_over"`
	Winner            string               `json:"winner,omitempty"`
	Scores            map[string]int       `json:"scores"`
	LastCombatResults []world.CombatResult `json:"last_combat_results,omitempty"`
}

// Status returns a consistent summary of the game.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.players.Current()
	s := Status{
		GameID:            g.id,
		Turn:              g.turn,
		TurnLabel:         humanize.Ordinal(g.turn) + " turn",
		Phase:             g.phases[g.phaseIdx],
		Phases:            g.Phases(),
		Player:            p.Name,
		PlayerKind:        p.Kind,
		HasCombat:         g.board.HasCombat(),
		Scores:            g.scores.Snapshot(),
		LastCombatResults: append([]world.CombatResult(nil), g.lastCombat...),
	}
	owners := g.board.Owners()
	if len(owners) <= 1 {
		s.GameOver = true
		if len(owners) == 1 {
			s.Winner = owners[0].Name
		}
	}
	return s
}

// Kick makes sure a driver is running the current controller's turn. It
// returns immediately; the driver keeps going while turns pass between
// automated controllers and stops when a turn waits for input, the game is
// over, or ctx is canceled.
func (g *Game) Kick(ctx context.Context) {
	g.pending.Store(true)
	if !g.driving.CompareAndSwap(false, true) {
		return
	}
	g.wg.Add(1)
	go g.drive(ctx)
}

// Wait blocks until no driver is running.
func (g *Game) Wait() {
	g.wg.Wait()
}

func (g *Game) drive(ctx context.Context) {
	defer g.wg.Done()
	for {
		for g.pending.Swap(false) {
			g.runTurns(ctx)
		}
		g.driving.Store(false)
		// A Kick that lost the race above still needs a driver.
		if !g.pending.Load() || !g.driving.CompareAndSwap(false, true) {
			return
		}
	}
}

func (g *Game) runTurns(ctx context.Context) {
	for ctx.Err() == nil && !g.IsGameOver() {
		player := g.CurrentPlayer()
		c := g.controllers[player.ID]
		if c == nil {
			slog.Warn("no controller for player", "game", g.id, "player", player.Name)
			return
		}
		if err := c.TakeTurn(ctx, g); err != nil {
			slog.Error("turn stalled", "game", g.id, "player", player.Name, "error", err)
			return
		}
		if g.CurrentPlayer() == player {
			return
		}
	}
	if g.IsGameOver() {
		g.notify(events.TopicMenuUpdate)
	}
}

// notify publishes a notice about the current state. Must be called without
// the lock held.
func (g *Game) notify(topic string) {
	g.mu.Lock()
	n := events.Notice{
		GameID: g.id,
		Turn:   g.turn,
		Phase:  string(g.phases[g.phaseIdx]),
		Player: g.players.Current().Name,
		At:     time.Now(),
	}
	g.mu.Unlock()

	if err := g.publisher.Publish(context.Background(), topic, n); err != nil {
		slog.Warn("notification dropped", "topic", topic, "error", err)
	}
}
