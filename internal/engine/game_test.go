package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/battle-hexes/internal/events"
	"github.com/talgya/battle-hexes/internal/world"
)

type recordingPublisher struct {
	mu      sync.Mutex
	notices map[string]int
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{notices: make(map[string]int)}
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ events.Notice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices[topic]++
	return nil
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notices[topic]
}

type fakeResolver struct {
	movement func(world.SparseBoard) (*world.MovementResponse, error)
	combat   func(world.SparseBoard) (*world.SparseBoard, error)
	endTurn  func(world.SparseBoard) error
}

func (f *fakeResolver) Movement(_ context.Context, _ string, b world.SparseBoard) (*world.MovementResponse, error) {
	return f.movement(b)
}

func (f *fakeResolver) Combat(_ context.Context, _ string, b world.SparseBoard) (*world.SparseBoard, error) {
	return f.combat(b)
}

func (f *fakeResolver) EndTurn(_ context.Context, _ string, b world.SparseBoard) error {
	return f.endTurn(b)
}

type setup struct {
	board   *world.Board
	players *world.Players
	a, b    *world.Player
	fa, fb  *world.Faction
}

func newSetup(t *testing.T, kindA, kindB world.PlayerKind) *setup {
	t.Helper()
	fa := &world.Faction{ID: "fa", Name: "Northern Host"}
	fb := &world.Faction{ID: "fb", Name: "Southern Host"}
	a := world.NewPlayer("a", "Player A", kindA, fa)
	b := world.NewPlayer("b", "Player B", kindB, fb)
	players, err := world.NewPlayers(a, b)
	require.NoError(t, err)
	return &setup{board: world.NewBoard(10, 10), players: players, a: a, b: b, fa: fa, fb: fb}
}

func (s *setup) unit(t *testing.T, id string, f *world.Faction, row, column int) *world.Unit {
	t.Helper()
	u := world.NewUnit(id, id, f, "Infantry", 4, 4, 4)
	require.NoError(t, s.board.AddUnit(u, &world.HexCoord{Row: row, Column: column}))
	return u
}

func TestEndPhaseSkipsCombatWithoutContact(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	u := s.unit(t, "u1", s.fa, 1, 1)
	s.unit(t, "u2", s.fb, 8, 8)
	g := NewGame("g1", s.board, s.players)

	require.NoError(t, s.board.MoveUnit(u, s.board.HexAt(1, 2)))
	assert.Equal(t, 3, u.MovesRemaining())

	assert.False(t, g.EndPhase())
	assert.Equal(t, PhaseEndTurn, g.CurrentPhase())
	assert.Equal(t, s.a, g.CurrentPlayer())

	assert.True(t, g.EndPhase())
	assert.Equal(t, PhaseMovement, g.CurrentPhase())
	assert.Equal(t, s.b, g.CurrentPlayer())
	assert.Equal(t, 2, g.Turn())
	assert.Equal(t, 4, u.MovesRemaining())
}

func TestFinishPhaseReportsEndTurn(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	s.unit(t, "u1", s.fa, 1, 1)
	s.unit(t, "u2", s.fb, 8, 8)

	var reported []world.SparseBoard
	fail := errors.New("resolver down")
	var endTurnErr error
	res := &fakeResolver{endTurn: func(b world.SparseBoard) error {
		reported = append(reported, b)
		return endTurnErr
	}}
	g := NewGame("g1", s.board, s.players, WithResolver(res))
	ctx := context.Background()

	switched, err := g.FinishPhase(ctx)
	require.NoError(t, err)
	assert.False(t, switched)
	assert.Empty(t, reported)

	endTurnErr = fail
	switched, err = g.FinishPhase(ctx)
	require.ErrorIs(t, err, fail)
	assert.False(t, switched)
	assert.Equal(t, PhaseEndTurn, g.CurrentPhase())
	assert.Equal(t, s.a, g.CurrentPlayer())

	endTurnErr = nil
	switched, err = g.FinishPhase(ctx)
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, s.b, g.CurrentPlayer())
	require.Len(t, reported, 2)
	assert.Len(t, reported[1].Units, 2)
}

func TestFinishPhaseWithoutResolver(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	s.unit(t, "u1", s.fa, 1, 1)
	s.unit(t, "u2", s.fb, 8, 8)
	g := NewGame("g1", s.board, s.players)

	_, err := g.FinishPhase(context.Background())
	require.NoError(t, err)
	switched, err := g.FinishPhase(context.Background())
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, s.b, g.CurrentPlayer())
}

func TestEndPhaseEntersCombatOnContact(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	s.unit(t, "u1", s.fa, 2, 2)
	s.unit(t, "u2", s.fb, 2, 3)
	s.board.RefreshCombat()
	g := NewGame("g1", s.board, s.players)

	assert.False(t, g.EndPhase())
	assert.Equal(t, PhaseCombat, g.CurrentPhase())
}

func TestEndPhaseTerminatesWhenEveryPhaseSkips(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	g := NewGame("g1", s.board, s.players, WithPhases(PhaseCombat))

	assert.True(t, g.EndPhase())
	assert.Equal(t, PhaseCombat, g.CurrentPhase())
}

func TestIsGameOver(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	s.unit(t, "u1", s.fa, 2, 2)
	s.unit(t, "u2", s.fa, 4, 4)
	g := NewGame("g1", s.board, s.players)
	assert.True(t, g.IsGameOver())
	assert.Equal(t, "Player A", g.Status().Winner)

	s.unit(t, "u3", s.fb, 7, 7)
	assert.False(t, g.IsGameOver())
	assert.False(t, g.Status().GameOver)
}

func TestResolveCombat(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	attacker := s.unit(t, "u1", s.fa, 2, 2)
	defender := s.unit(t, "u2", s.fb, 2, 3)
	s.board.RefreshCombat()

	var sent world.SparseBoard
	res := &fakeResolver{combat: func(b world.SparseBoard) (*world.SparseBoard, error) {
		sent = b
		return &world.SparseBoard{
			Units: []world.SparseUnit{{ID: "u1", Row: 2, Column: 2}},
			LastCombatResults: []world.CombatResult{
				{Code: "DE", Text: "Defender Eliminated", Odds: [2]int{1, 1}, DieRoll: 6},
			},
		}, nil
	}}
	pub := newRecordingPublisher()
	g := NewGame("g1", s.board, s.players, WithResolver(res), WithPublisher(pub))

	var outcome CombatOutcome
	require.NoError(t, g.ResolveCombat(context.Background(), func(o CombatOutcome) { outcome = o }))

	assert.Len(t, sent.Units, 2)
	assert.Equal(t, []string{"u2"}, outcome.Report.Eliminated)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "DE", g.LastCombatResults()[0].Code)
	assert.Nil(t, defender.ContainingHex())
	assert.Empty(t, attacker.CombatOpponents())
	assert.True(t, g.IsGameOver())
	assert.Equal(t, 1, pub.count(events.TopicBoardRedraw))
}

func TestResolveCombatFailureLeavesBoard(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	s.unit(t, "u1", s.fa, 2, 2)
	s.unit(t, "u2", s.fb, 2, 3)
	s.board.RefreshCombat()

	boom := errors.New("connection refused")
	res := &fakeResolver{combat: func(world.SparseBoard) (*world.SparseBoard, error) { return nil, boom }}
	g := NewGame("g1", s.board, s.players, WithResolver(res))

	called := false
	err := g.ResolveCombat(context.Background(), func(CombatOutcome) { called = true })
	require.ErrorIs(t, err, boom)
	assert.False(t, called)
	assert.Len(t, s.board.Units(), 2)
	assert.True(t, s.board.HasCombat())

	assert.ErrorIs(t, NewGame("g2", s.board, s.players).ResolveCombat(context.Background(), nil), ErrNoResolver)
}

func TestHoldObjectiveScoresAtEndOfMovement(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerHuman)
	s.board.HexAt(2, 2).SetObjective(&world.Objective{Type: world.ObjectiveHold, Points: 5})
	s.board.HexAt(8, 8).SetObjective(&world.Objective{Type: world.ObjectiveHold, Points: 2})
	s.unit(t, "u1", s.fa, 2, 2)
	s.unit(t, "u2", s.fb, 8, 8)
	g := NewGame("g1", s.board, s.players)

	g.EndPhase()
	assert.Equal(t, map[string]int{"Player A": 5}, g.Scores())

	g.EndPhase()
	g.EndPhase()
	assert.Equal(t, map[string]int{"Player A": 5, "Player B": 2}, g.Scores())
}

func TestStatus(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerCPU)
	s.unit(t, "u1", s.fa, 2, 2)
	s.unit(t, "u2", s.fb, 8, 8)
	g := NewGame("g1", s.board, s.players)

	st := g.Status()
	assert.Equal(t, "g1", st.GameID)
	assert.Equal(t, "1st turn", st.TurnLabel)
	assert.Equal(t, PhaseMovement, st.Phase)
	assert.Equal(t, DefaultPhases, st.Phases)
	assert.Equal(t, "Player A", st.Player)
	assert.Equal(t, world.PlayerHuman, st.PlayerKind)
	assert.False(t, st.HasCombat)
	assert.False(t, st.GameOver)
}

func TestSelectAndHoverThroughGame(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerCPU)
	u := s.unit(t, "u1", s.fa, 2, 2)
	s.unit(t, "u2", s.fb, 8, 8)
	pub := newRecordingPublisher()
	g := NewGame("g1", s.board, s.players, WithPublisher(pub))

	prev, err := g.SelectHex(&world.HexCoord{Row: 2, Column: 2})
	require.NoError(t, err)
	assert.Nil(t, prev)

	_, err = g.SetHoverHex(&world.HexCoord{Row: 3, Column: 2})
	require.NoError(t, err)
	g.View(func(b *world.Board) {
		assert.Equal(t, b.HexAt(2, 2), b.HexAt(3, 2).MoveHoverFrom())
	})

	prev, err = g.SelectHex(&world.HexCoord{Row: 3, Column: 2})
	require.NoError(t, err)
	assert.Equal(t, &world.HexCoord{Row: 2, Column: 2}, prev)
	assert.Equal(t, s.board.HexAt(3, 2), u.ContainingHex())

	_, err = g.SelectHex(&world.HexCoord{Row: 20, Column: 2})
	assert.ErrorIs(t, err, world.ErrOffBoard)
	assert.Greater(t, pub.count(events.TopicBoardRedraw), 0)
}

func TestEndToEndApproachTriggersCombat(t *testing.T) {
	s := newSetup(t, world.PlayerHuman, world.PlayerCPU)
	u1 := s.unit(t, "U1", s.fa, 3, 3)
	u2 := s.unit(t, "U2", s.fb, 6, 6)
	g := NewGame("g1", s.board, s.players)

	var path []*world.Hex
	g.View(func(b *world.Board) {
		path = b.ShortestPath(u1, b.HexAt(5, 5))
	})
	require.Len(t, path, 4)

	_, err := g.SelectHex(&path[0].Coord)
	require.NoError(t, err)
	for i, h := range path[1:] {
		if i == len(path)-2 {
			assert.Equal(t, 2, u1.MovesRemaining())
			assert.False(t, g.Status().HasCombat)
		}
		_, err := g.SelectHex(&h.Coord)
		require.NoError(t, err)
		assert.Equal(t, h, u1.ContainingHex())
	}

	assert.Equal(t, 0, u1.MovesRemaining())
	assert.Contains(t, u1.CombatOpponents(), u2)
	assert.True(t, g.Status().HasCombat)

	g.EndPhase()
	assert.Equal(t, PhaseCombat, g.CurrentPhase())
}
