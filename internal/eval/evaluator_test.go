package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroomhq/holdem/internal/deck"
)

func TestBestCategories(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		want  Category
	}{
		{"royal flush with noise", "AhKhQhJhTh2c3d", RoyalFlush},
		{"straight flush king high", "KhQhJhTh9h2c3d", StraightFlush},
		{"steel wheel", "Ah2h3h4h5h9c9d", StraightFlush},
		{"quads", "7c7d7h7s2c3d4h", FourOfAKind},
		{"full house deuces over treys", "2c2d2h3s3c4d5h", FullHouse},
		{"flush beats the pair", "Ah9h7h4h2h9c9d", Flush},
		{"broadway straight", "AcKdQhJsTc2c3d", Straight},
		{"wheel straight", "Ac2d3h4s5c9c8d", Straight},
		{"trips", "8c8d8h2s4c6dJs", ThreeOfAKind},
		{"two pair", "JcJd4h4sAc7d2h", TwoPair},
		{"one pair", "QcQd2h5s7c9dKh", Pair},
		{"high card", "Ac3d5h7s9cJdQh", HighCard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Best(deck.MustParseCards(tt.cards))
			assert.Equal(t, tt.want, score.Category(), "got %s", score)
		})
	}
}

func TestFullHouseTiebreak(t *testing.T) {
	// Trips rank dominates: 3s full of 2s beats 2s full of aces
	low := Best(deck.MustParseCards("2c2d2hAsAc4d5h"))
	high := Best(deck.MustParseCards("3c3d3h2s2c4d5h"))

	require.Equal(t, FullHouse, low.Category())
	require.Equal(t, FullHouse, high.Category())
	assert.Equal(t, 1, Compare(high, low))
}

func TestAceLowStraightRanksBelowSixHigh(t *testing.T) {
	wheel := Evaluate5(deck.MustParseCards("Ac2d3h4s5c"))
	sixHigh := Evaluate5(deck.MustParseCards("2c3d4h5s6c"))

	require.Equal(t, Straight, wheel.Category())
	require.Equal(t, Straight, sixHigh.Category())
	assert.Equal(t, 1, Compare(sixHigh, wheel))
}

func TestKickerDecidesPair(t *testing.T) {
	// Same pair of queens, ace kicker beats king kicker
	aceKicker := Evaluate5(deck.MustParseCards("QcQd2h5sAc"))
	kingKicker := Evaluate5(deck.MustParseCards("QhQs2d5cKc"))

	assert.Equal(t, 1, Compare(aceKicker, kingKicker))
}

func TestIdenticalHandsTie(t *testing.T) {
	// Same board plays for both: identical best five
	board := "AcKdQh7s7c"
	a := Best(deck.MustParseCards(board + "2d3h"))
	b := Best(deck.MustParseCards(board + "2s3c"))
	assert.Equal(t, 0, Compare(a, b))
}

func TestBestUsesAllSevenCombinations(t *testing.T) {
	// The straight needs one hole card and four board cards; a naive
	// hole-pair-plus-board evaluation would miss it.
	score := Best(deck.MustParseCards("9c2d5h6s7cTd8h"))
	assert.Equal(t, Straight, score.Category())
}

func TestBestWithFiveAndSixCards(t *testing.T) {
	five := Best(deck.MustParseCards("AcAdAhAs2c"))
	assert.Equal(t, FourOfAKind, five.Category())

	six := Best(deck.MustParseCards("AcAdAhAs2c2d"))
	assert.Equal(t, FourOfAKind, six.Category())
}

func TestBestRejectsShortInput(t *testing.T) {
	assert.Equal(t, Score(0), Best(deck.MustParseCards("AcAd")))
	assert.Equal(t, Score(0), Evaluate5(deck.MustParseCards("AcAdAh")))
}

func TestCategoryOrdering(t *testing.T) {
	ordered := []Category{
		HighCard, Pair, TwoPair, ThreeOfAKind, Straight,
		Flush, FullHouse, FourOfAKind, StraightFlush, RoyalFlush,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, pack(ordered[i]), pack(ordered[i-1]))
	}
}
