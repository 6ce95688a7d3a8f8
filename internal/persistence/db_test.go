package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPreferencesRoundTrip(t *testing.T) {
	db := openTestDB(t)

	_, err := db.LoadPreferences()
	require.ErrorIs(t, err, ErrNoPreferences)

	def, err := db.LoadPreferencesOrDefault()
	require.NoError(t, err)
	assert.Equal(t, "elim_1", def.ScenarioID)
	assert.Equal(t, []string{"human", "random"}, def.PlayerTypes)

	saved := Preferences{
		ScenarioID:  "elim_1",
		PlayerTypes: []string{"human", "cpu"},
		GameID:      "g-42",
		Seed:        1234,
		Rows:        12,
		Columns:     14,
		SavedAt:     time.Unix(1700000000, 0),
	}
	require.NoError(t, db.SavePreferences(saved))

	saved.GameID = "g-43"
	require.NoError(t, db.SavePreferences(saved))

	got, err := db.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "g-43", got.GameID)
	assert.Equal(t, []string{"human", "cpu"}, got.PlayerTypes)
	assert.Equal(t, int64(1234), got.Seed)
	assert.Equal(t, 12, got.Rows)
	assert.Equal(t, 14, got.Columns)
	assert.True(t, saved.SavedAt.Equal(got.SavedAt))
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveMeta("last_winner", "Player 1"))
	v, err := db.GetMeta("last_winner")
	require.NoError(t, err)
	assert.Equal(t, "Player 1", v)

	_, err = db.GetMeta("missing")
	assert.Error(t, err)
}
