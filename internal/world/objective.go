package world

// ObjectiveHold scores for the player occupying the hex at the end of its
// movement phase.
const ObjectiveHold = "hold"

// Objective is a scoring location attached to a hex.
type Objective struct {
	Type   string `json:"type"`
	Points int    `json:"points"`
}

// Objectives returns the hexes carrying an objective, in row-major order.
func (b *Board) Objectives() []*Hex {
	var out []*Hex
	for _, h := range b.order {
		if h.objective != nil {
			out = append(out, h)
		}
	}
	return out
}
