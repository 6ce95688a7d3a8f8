package scenario

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScenario is returned for a scenario id with no preset.
var ErrUnknownScenario = errors.New("unknown scenario")

// DefaultScenarioID names the preset used on a first run.
const DefaultScenarioID = "elim_1"

// Preset is a named battle type. Generate applies it over the Config fields
// it names; board size and seed still come from the Config.
type Preset struct {
	ID              string
	Name            string
	UnitsPerSide    int
	ForestLevel     float64
	RoughLevel      float64
	ObjectivePoints int
}

var presets = map[string]Preset{
	"elim_1": {ID: "elim_1", Name: "Elimination Demo 1", UnitsPerSide: 3, ForestLevel: 0.55, RoughLevel: 0.68, ObjectivePoints: 5},
	"elim_2": {ID: "elim_2", Name: "Elimination Demo 2", UnitsPerSide: 5, ForestLevel: 0.45, RoughLevel: 0.60, ObjectivePoints: 10},
}

// Lookup returns the preset with the given id.
func Lookup(id string) (Preset, error) {
	p, ok := presets[id]
	if !ok {
		return Preset{}, fmt.Errorf("scenario %q: %w", id, ErrUnknownScenario)
	}
	return p, nil
}

// IDs lists the preset ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p Preset) apply(cfg *Config) {
	cfg.UnitsPerSide = p.UnitsPerSide
	cfg.ForestLevel = p.ForestLevel
	cfg.RoughLevel = p.RoughLevel
	cfg.ObjectivePoints = p.ObjectivePoints
}
