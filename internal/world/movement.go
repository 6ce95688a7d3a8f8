package world

import (
	"container/heap"
	"sort"
)

type reachNode struct {
	hex   *Hex
	spent int
	index int // heap index
}

type reachQueue []*reachNode

func (q reachQueue) Len() int { return len(q) }
func (q reachQueue) Less(i, j int) bool {
	if q[i].spent != q[j].spent {
		return q[i].spent < q[j].spent
	}
	// Ties resolve row-major so paths are deterministic.
	a, b := q[i].hex.Coord, q[j].hex.Coord
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Column < b.Column
}
func (q reachQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *reachQueue) Push(x any)   { n := x.(*reachNode); n.index = len(*q); *q = append(*q, n) }
func (q *reachQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

// EnemyAdjacent reports whether a hex next to h is led by a unit of another
// player than p.
func (b *Board) EnemyAdjacent(h *Hex, p *Player) bool {
	for _, n := range b.AdjacentHexes(h) {
		if first := n.FirstUnit(); first != nil && first.OwningPlayer() != p {
			return true
		}
	}
	return false
}

// reach runs a Dijkstra search from u's hex. Entering a hex needs at least
// one movement point left and costs its terrain cost, floored at zero as in
// Unit.Move. Enemy-held hexes are never entered and a hex next to an enemy
// ends the search along that branch.
func (b *Board) reach(u *Unit) (spent map[*Hex]int, prev map[*Hex]*Hex) {
	spent = make(map[*Hex]int)
	prev = make(map[*Hex]*Hex)
	start := u.hex
	if start == nil {
		return spent, prev
	}
	owner := u.OwningPlayer()
	budget := u.movesRemaining

	spent[start] = 0
	q := &reachQueue{}
	heap.Init(q)
	heap.Push(q, &reachNode{hex: start})
	done := make(map[*Hex]bool)

	for q.Len() > 0 {
		cur := heap.Pop(q).(*reachNode)
		if done[cur.hex] {
			continue
		}
		done[cur.hex] = true
		if cur.spent >= budget {
			continue
		}
		if cur.hex != start && b.EnemyAdjacent(cur.hex, owner) {
			continue
		}
		for _, n := range b.AdjacentHexes(cur.hex) {
			if first := n.FirstUnit(); first != nil && first.OwningPlayer() != owner {
				continue
			}
			cost := cur.spent + n.MoveCost()
			if cost > budget {
				cost = budget
			}
			if old, ok := spent[n]; ok && old <= cost {
				continue
			}
			spent[n] = cost
			prev[n] = cur.hex
			heap.Push(q, &reachNode{hex: n, spent: cost})
		}
	}
	return spent, prev
}

// ReachableHexes returns the hexes u can reach this phase, cheapest first,
// with the start hex left out.
func (b *Board) ReachableHexes(u *Unit) []*Hex {
	spent, _ := b.reach(u)
	out := make([]*Hex, 0, len(spent))
	for h := range spent {
		if h != u.hex {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if spent[out[i]] != spent[out[j]] {
			return spent[out[i]] < spent[out[j]]
		}
		a, c := out[i].Coord, out[j].Coord
		if a.Row != c.Row {
			return a.Row < c.Row
		}
		return a.Column < c.Column
	})
	return out
}

// ShortestPath returns the cheapest path from u's hex to dest, start
// included, or nil when dest cannot be reached.
func (b *Board) ShortestPath(u *Unit, dest *Hex) []*Hex {
	if dest == nil || u.hex == nil {
		return nil
	}
	if dest == u.hex {
		return []*Hex{dest}
	}
	_, prev := b.reach(u)
	if _, ok := prev[dest]; !ok {
		return nil
	}
	var path []*Hex
	for h := dest; h != nil; h = prev[h] {
		path = append(path, h)
		if h == u.hex {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
