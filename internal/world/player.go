package world

import "errors"

// PlayerKind tells whether a player is driven by a person or by the CPU.
type PlayerKind string

const (
	PlayerHuman PlayerKind = "Human"
	PlayerCPU   PlayerKind = "Computer"
)

// Faction groups units under one owning player.
type Faction struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CounterColor string `json:"counter_color"`

	owner *Player
}

// OwningPlayer returns the player controlling the faction, or nil.
func (f *Faction) OwningPlayer() *Player {
	if f == nil {
		return nil
	}
	return f.owner
}

func (f *Faction) String() string { return f.Name }

// Player is one side of the battle.
type Player struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     PlayerKind `json:"type"`
	Factions []*Faction `json:"factions"`
}

// NewPlayer creates a player and takes ownership of the given factions.
func NewPlayer(id, name string, kind PlayerKind, factions ...*Faction) *Player {
	p := &Player{ID: id, Name: name, Kind: kind, Factions: factions}
	for _, f := range factions {
		f.owner = p
	}
	return p
}

// IsHuman reports whether moves for this player come from the UI.
func (p *Player) IsHuman() bool {
	return p != nil && p.Kind == PlayerHuman
}

// HasFaction reports whether f belongs to p.
func (p *Player) HasFaction(f *Faction) bool {
	return f != nil && f.owner == p
}

func (p *Player) String() string {
	if p == nil {
		return "<none>"
	}
	return p.Name
}

// Players is the round-robin turn rotation. Exactly one player is current.
type Players struct {
	all     []*Player
	current int
}

// NewPlayers builds a rotation starting with the first player.
func NewPlayers(players ...*Player) (*Players, error) {
	if len(players) == 0 {
		return nil, errors.New("players cannot be empty")
	}
	return &Players{all: players}, nil
}

// Current returns the player whose turn it is.
func (ps *Players) Current() *Player {
	if ps == nil {
		return nil
	}
	return ps.all[ps.current]
}

// Next advances the rotation and returns the new current player.
func (ps *Players) Next() *Player {
	ps.current = (ps.current + 1) % len(ps.all)
	return ps.all[ps.current]
}

// All returns the players in turn order.
func (ps *Players) All() []*Player {
	out := make([]*Player, len(ps.all))
	copy(out, ps.all)
	return out
}

// ByID looks up a player by id.
func (ps *Players) ByID(id string) *Player {
	for _, p := range ps.all {
		if p.ID == id {
			return p
		}
	}
	return nil
}
