package world

// Battle is one defending unit and the attacking units adjacent to it.
type Battle struct {
	Defender  *Unit   `json:"defender"`
	Attackers []*Unit `json:"attackers"`
}

// FindBattles groups the board into battles from attacker's point of view.
// Every placed unit not owned by attacker is a candidate defender; its
// attackers are the attacker-owned occupants of the adjacent hexes.
// Defenders with nobody next to them are left out.
func (b *Board) FindBattles(attacker *Player) []Battle {
	var battles []Battle
	for _, defender := range b.units {
		if defender.hex == nil || defender.IsOwnedBy(attacker) {
			continue
		}
		var attackers []*Unit
		for _, n := range b.AdjacentHexes(defender.hex) {
			for _, u := range n.units {
				if u.IsOwnedBy(attacker) {
					attackers = append(attackers, u)
				}
			}
		}
		if len(attackers) == 0 {
			continue
		}
		battles = append(battles, Battle{Defender: defender, Attackers: attackers})
	}
	return battles
}
