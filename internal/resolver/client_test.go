package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/battle-hexes/internal/world"
)

func TestMovement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/games/g-1/movement", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in world.SparseBoard
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, []world.SparseUnit{{ID: "u1", Row: 2, Column: 3}}, in.Units)

		w.Write([]byte(`{
			"plans": [{"unit_id": "u1", "path": [{"row": 2, "column": 3}, {"row": 3, "column": 3}]}],
			"game": {"id": "g-1", "board": {"rows": 10, "columns": 10, "units": [{"id": "u1", "row": 3, "column": 3}]}}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	resp, err := c.Movement(context.Background(), "g-1", world.SparseBoard{
		Units: []world.SparseUnit{{ID: "u1", Row: 2, Column: 3}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Plans, 1)
	assert.Equal(t, "u1", resp.Plans[0].UnitID)
	assert.Equal(t, []world.HexCoord{{Row: 2, Column: 3}, {Row: 3, Column: 3}}, resp.Plans[0].Path)
	require.NotNil(t, resp.Game)
	assert.Equal(t, []world.SparseUnit{{ID: "u1", Row: 3, Column: 3}}, resp.Game.Board.Units)
}

func TestCombat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/g-1/combat", r.URL.Path)
		w.Write([]byte(`{
			"units": [{"id": "u1", "row": 3, "column": 3}],
			"last_combat_results": [{"combat_result_code": "DE", "combat_result_text": "Defender Eliminated", "odds": [3, 1], "die_roll": 4}]
		}`))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL).Combat(context.Background(), "g-1", world.SparseBoard{})
	require.NoError(t, err)
	assert.Len(t, out.Units, 1)
	require.Len(t, out.LastCombatResults, 1)
	assert.Equal(t, "DE", out.LastCombatResults[0].Code)
	assert.Equal(t, [2]int{3, 1}, out.LastCombatResults[0].Odds)
	assert.Equal(t, 4, out.LastCombatResults[0].DieRoll)
}

func TestEndTurnAcceptsEmptyBody(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/games/g-1/end-turn", r.URL.Path)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL).EndTurn(context.Background(), "g-1", world.SparseBoard{}))
	assert.True(t, called)
}

func TestNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "game not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Combat(context.Background(), "missing", world.SparseBoard{})
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "game not found")
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewClient(srv.URL).EndTurn(ctx, "g-1", world.SparseBoard{})
	assert.ErrorIs(t, err, context.Canceled)
}
