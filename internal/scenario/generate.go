// Package scenario builds local battles: a board with noise-based terrain,
// a hold objective, and two opposing lines of units.
package scenario

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/battle-hexes/internal/world"
)

// Config holds scenario generation parameters.
type Config struct {
	ScenarioID   string // Preset to apply; empty uses the fields below as given
	GameID       string // Empty means a random id
	Rows         int
	Columns      int
	Seed         int64 // 0 = random
	UnitsPerSide int
	PlayerTypes  []string // Per seat: "human", or anything else for the CPU

	ForestLevel float64 // Noise threshold for forest (0.0–1.0)
	RoughLevel  float64 // Noise threshold for rough ground (0.0–1.0)

	ObjectivePoints int // Points per turn for holding the center
}

// DefaultConfig returns a 10x10 human versus CPU battle.
func DefaultConfig() Config {
	return Config{
		ScenarioID:   DefaultScenarioID,
		Rows:         10,
		Columns:      10,
		UnitsPerSide: 3,
		PlayerTypes:  []string{"human", "random"},
		ForestLevel:  0.55,
		RoughLevel:   0.68,

		ObjectivePoints: 5,
	}
}

// Scenario is a generated battle ready to hand to engine.NewGame.
type Scenario struct {
	ID      string // Preset id, empty for a custom battle
	Name    string
	GameID  string
	Seed    int64
	Board   *world.Board
	Players *world.Players
}

var sides = []struct {
	name, faction, color string
}{
	{"Player 1", "Red Army", "#C81010"},
	{"Player 2", "Blue Army", "#1010C8"},
}

// ParsePlayerKind maps a stored player type to a kind.
func ParsePlayerKind(s string) world.PlayerKind {
	if strings.EqualFold(s, "human") {
		return world.PlayerHuman
	}
	return world.PlayerCPU
}

// Generate creates a scenario. The same seed always gives the same board,
// unit ids included.
func Generate(cfg Config) (*Scenario, error) {
	name := "Custom battle"
	if cfg.ScenarioID != "" {
		preset, err := Lookup(cfg.ScenarioID)
		if err != nil {
			return nil, err
		}
		preset.apply(&cfg)
		name = preset.Name
	}
	if cfg.Rows < 3 || cfg.Columns < 4 {
		return nil, fmt.Errorf("board %dx%d too small for a battle", cfg.Rows, cfg.Columns)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	gameID := cfg.GameID
	if gameID == "" {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("game id: %w", err)
		}
		gameID = id.String()
	}

	board := world.NewBoard(cfg.Rows, cfg.Columns)
	paintTerrain(board, seed, cfg)

	center := board.HexAt(cfg.Rows/2, cfg.Columns/2)
	center.SetTerrain(world.TerrainOpen)
	center.SetObjective(&world.Objective{Type: world.ObjectiveHold, Points: cfg.ObjectivePoints})

	var players []*world.Player
	for i, side := range sides {
		kind := world.PlayerCPU
		if i < len(cfg.PlayerTypes) {
			kind = ParsePlayerKind(cfg.PlayerTypes[i])
		}
		faction := &world.Faction{ID: fmt.Sprintf("faction-%d", i+1), Name: side.faction, CounterColor: side.color}
		players = append(players, world.NewPlayer(fmt.Sprintf("player-%d", i+1), side.name, kind, faction))
	}
	rotation, err := world.NewPlayers(players...)
	if err != nil {
		return nil, err
	}
	board.SetPlayers(rotation)

	n := cfg.UnitsPerSide
	if n < 1 {
		n = 1
	}
	if n > cfg.Rows {
		n = cfg.Rows
	}
	columns := []int{1, cfg.Columns - 2}
	for i, p := range players {
		for j := 0; j < n; j++ {
			id, err := uuid.NewRandomFromReader(rng)
			if err != nil {
				return nil, fmt.Errorf("unit id: %w", err)
			}
			u := world.NewUnit(id.String(), fmt.Sprintf("%s %d", p.Factions[0].Name, j+1), p.Factions[0], "Infantry", 4, 4, 4)
			at := world.HexCoord{Row: (j + 1) * cfg.Rows / (n + 1), Column: columns[i]}
			if err := board.AddUnit(u, &at); err != nil {
				return nil, err
			}
		}
	}

	return &Scenario{ID: cfg.ScenarioID, Name: name, GameID: gameID, Seed: seed, Board: board, Players: rotation}, nil
}

// paintTerrain assigns terrain from layered simplex noise.
func paintTerrain(b *world.Board, seed int64, cfg Config) {
	noise := opensimplex.NewNormalized(seed)
	for _, h := range b.Hexes() {
		// Odd columns sit half a hex lower.
		x := float64(h.Column()) * 0.866
		y := float64(h.Row())
		if h.Column()%2 != 0 {
			y += 0.5
		}
		v := octaveNoise(noise, x, y, 3, 0.15, 0.5)
		switch {
		case v >= cfg.RoughLevel:
			h.SetTerrain(world.TerrainRough)
		case v >= cfg.ForestLevel:
			h.SetTerrain(world.TerrainForest)
		default:
			h.SetTerrain(world.TerrainOpen)
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns how many hexes carry each terrain.
func TerrainCounts(b *world.Board) map[string]int {
	counts := make(map[string]int)
	for _, h := range b.Hexes() {
		name := world.TerrainOpen.Name
		if t := h.Terrain(); t != nil {
			name = t.Name
		}
		counts[name]++
	}
	return counts
}
