package table

import (
	"sort"

	"github.com/thoas/go-funk"

	"github.com/cardroomhq/holdem/internal/eval"
)

// Pot is the main pot or a side pot. Eligible holds the positions of seats
// that contributed to this layer and have not folded.
type Pot struct {
	Amount   int
	Eligible []int
}

// BuildPots splits the hand's total contributions into a main pot and side
// pots. A side pot layer forms at each distinct all-in contribution level;
// folded seats' chips stay in the amounts but never in the eligibility sets.
// The sum of all pot amounts always equals the sum of all TotalBets.
func BuildPots(seats []*Seat) []Pot {
	// Contribution caps where a layer boundary forms: each all-in seat
	// still in the hand caps a layer at its total contribution.
	capSet := make(map[int]bool)
	maxContribution := 0
	for _, s := range seats {
		if s.InHand() && s.IsAllIn {
			capSet[s.TotalBet] = true
		}
		if s.InHand() && s.TotalBet > maxContribution {
			maxContribution = s.TotalBet
		}
	}

	caps := make([]int, 0, len(capSet)+1)
	for c := range capSet {
		if c > 0 && c < maxContribution {
			caps = append(caps, c)
		}
	}
	caps = append(caps, maxContribution)
	sort.Ints(caps)

	var pots []Pot
	prev := 0
	for _, level := range caps {
		pot := Pot{}
		for _, s := range seats {
			if !s.dealtIn {
				continue
			}
			contribution := min(s.TotalBet, level) - prev
			if contribution > 0 {
				pot.Amount += contribution
			}
			if s.InHand() && s.TotalBet >= level {
				pot.Eligible = append(pot.Eligible, s.Position)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}

	// Overcontributions above the last eligible level (e.g. a raise nobody
	// could call) flow back to their lone contributor as a one-seat pot.
	for _, s := range seats {
		if s.dealtIn && s.TotalBet > prev {
			pots = append(pots, Pot{Amount: s.TotalBet - prev, Eligible: []int{s.Position}})
		}
	}

	return pots
}

// Distribute pays out each pot to its best-ranked eligible seats and returns
// winnings by position. Ties split evenly; remainder chips go one at a time
// to the tied seats closest to the button in deal order, which keeps the
// split deterministic and conserves every chip.
func Distribute(pots []Pot, scores map[int]eval.Score, dealOrder []int) map[int]int {
	winnings := make(map[int]int)

	for _, pot := range pots {
		var best eval.Score
		var winners []int
		for _, pos := range dealOrder {
			if !funk.ContainsInt(pot.Eligible, pos) {
				continue
			}
			score, ok := scores[pos]
			if !ok {
				continue
			}
			switch eval.Compare(score, best) {
			case 1:
				best = score
				winners = []int{pos}
			case 0:
				if len(winners) > 0 {
					winners = append(winners, pos)
				}
			}
		}
		if len(winners) == 0 {
			// No scored contender (everyone else folded): pay the pot to
			// its eligible seats in deal order.
			winners = append(winners, pot.Eligible...)
		}
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		// winners is already in deal order, so remainder chips land on the
		// seats closest to the button first.
		for i, pos := range winners {
			winnings[pos] += share
			if i < remainder {
				winnings[pos]++
			}
		}
	}

	return winnings
}
