package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroomhq/holdem/internal/deck"
	"github.com/cardroomhq/holdem/internal/eval"
)

func contributed(position, total int, folded, allIn bool) *Seat {
	return &Seat{
		Position:  position,
		TotalBet:  total,
		HasFolded: folded,
		IsAllIn:   allIn,
		dealtIn:   true,
	}
}

func potTotal(pots []Pot) int {
	sum := 0
	for _, p := range pots {
		sum += p.Amount
	}
	return sum
}

func TestSinglePotNoAllIns(t *testing.T) {
	seats := []*Seat{
		contributed(0, 100, false, false),
		contributed(1, 100, false, false),
		contributed(2, 100, true, false),
	}

	pots := BuildPots(seats)
	require.Len(t, pots, 1)
	assert.Equal(t, 300, pots[0].Amount)
	// Folded chips stay in the pot but the folder is not eligible
	assert.Equal(t, []int{0, 1}, pots[0].Eligible)
}

func TestSidePotShortAllIn(t *testing.T) {
	// Short stack all-in for 50 against two seats at 500 each
	seats := []*Seat{
		contributed(0, 50, false, true),
		contributed(1, 500, false, false),
		contributed(2, 500, false, false),
	}

	pots := BuildPots(seats)
	require.Len(t, pots, 2)

	assert.Equal(t, 150, pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].Eligible)

	assert.Equal(t, 900, pots[1].Amount)
	assert.Equal(t, []int{1, 2}, pots[1].Eligible)

	assert.Equal(t, 1050, potTotal(pots))
}

func TestLayeredAllIns(t *testing.T) {
	seats := []*Seat{
		contributed(0, 25, false, true),
		contributed(1, 75, false, true),
		contributed(2, 200, false, false),
		contributed(3, 200, false, false),
	}

	pots := BuildPots(seats)
	require.Len(t, pots, 3)

	assert.Equal(t, 100, pots[0].Amount) // 25 from each of four seats
	assert.Equal(t, []int{0, 1, 2, 3}, pots[0].Eligible)
	assert.Equal(t, 150, pots[1].Amount) // next 50 from three seats
	assert.Equal(t, []int{1, 2, 3}, pots[1].Eligible)
	assert.Equal(t, 250, pots[2].Amount) // final 125 from two seats
	assert.Equal(t, []int{2, 3}, pots[2].Eligible)

	assert.Equal(t, 500, potTotal(pots))
}

func TestUncalledOvercontributionRefunded(t *testing.T) {
	// Seat 1 raised to 300 and seat 0 could only cover 100 all-in
	seats := []*Seat{
		contributed(0, 100, false, true),
		contributed(1, 300, false, false),
	}

	pots := BuildPots(seats)
	require.Len(t, pots, 2)
	assert.Equal(t, 200, pots[0].Amount)
	assert.Equal(t, []int{0, 1}, pots[0].Eligible)
	// The uncalled 200 comes back as a pot only seat 1 can win
	assert.Equal(t, 200, pots[1].Amount)
	assert.Equal(t, []int{1}, pots[1].Eligible)
}

func score(t *testing.T, shorthand string) eval.Score {
	t.Helper()
	return eval.Best(deck.MustParseCards(shorthand))
}

func TestDistributeShortStackWinsMainOnly(t *testing.T) {
	pots := []Pot{
		{Amount: 150, Eligible: []int{0, 1, 2}},
		{Amount: 900, Eligible: []int{1, 2}},
	}
	scores := map[int]eval.Score{
		0: score(t, "AhAdAcKsKh"), // best hand, short stack
		1: score(t, "KcKdQh9s2c"),
		2: score(t, "QcQdJh8s3c"),
	}

	winnings := Distribute(pots, scores, []int{0, 1, 2})
	assert.Equal(t, 150, winnings[0])
	assert.Equal(t, 900, winnings[1])
	assert.Zero(t, winnings[2])
}

func TestDistributeSplitWithRemainder(t *testing.T) {
	pots := []Pot{{Amount: 101, Eligible: []int{0, 1}}}
	tied := score(t, "AhKhQhJhTh")
	scores := map[int]eval.Score{0: tied, 1: tied}

	// Deal order puts seat 1 closer to the button, so it takes the odd chip
	winnings := Distribute(pots, scores, []int{1, 0})
	assert.Equal(t, 51, winnings[1])
	assert.Equal(t, 50, winnings[0])
}

func TestDistributeConservesChips(t *testing.T) {
	pots := []Pot{
		{Amount: 97, Eligible: []int{0, 1, 2}},
		{Amount: 403, Eligible: []int{1, 2}},
	}
	tied := score(t, "9h9d9cKsQh")
	scores := map[int]eval.Score{0: tied, 1: tied, 2: tied}

	winnings := Distribute(pots, scores, []int{2, 0, 1})
	total := 0
	for _, w := range winnings {
		total += w
	}
	assert.Equal(t, 500, total)
}

func TestDistributeFoldedPotFallsBackToEligible(t *testing.T) {
	// Everyone in the side pot folded later; the chips still pay out
	pots := []Pot{{Amount: 80, Eligible: []int{3}}}
	winnings := Distribute(pots, map[int]eval.Score{}, []int{3})
	assert.Equal(t, 80, winnings[3])
}
