// Package eval scores poker hands. A Score totally orders hands: the
// category lives in the high bits and the tiebreak ranks below it, so two
// scores compare with plain integer comparison.
package eval

import (
	"sort"

	"github.com/cardroomhq/holdem/internal/deck"
)

// Category is the class of a five-card poker hand
type Category uint32

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns a human-readable category description
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// Score is a packed hand strength: category in bits 20+, then up to five
// tiebreak ranks in descending significance, one nibble each (0 for deuce
// through 12 for ace). Higher scores beat lower scores; equal scores tie.
type Score uint32

// Category returns the hand category encoded in the score
func (s Score) Category() Category {
	return Category(s >> 20)
}

// String returns the category description
func (s Score) String() string {
	return s.Category().String()
}

func pack(cat Category, ranks ...deck.Rank) Score {
	s := Score(cat) << 20
	shift := 16
	for _, r := range ranks {
		s |= Score(r-deck.Two) << shift
		shift -= 4
	}
	return s
}

// Evaluate5 scores exactly five cards
func Evaluate5(cards []deck.Card) Score {
	if len(cards) != 5 {
		return 0
	}

	ranks := make([]deck.Rank, 5)
	flush := true
	for i, c := range cards {
		ranks[i] = c.Rank
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	straightHigh := straightHighCard(ranks)

	if flush && straightHigh > 0 {
		if straightHigh == deck.Ace {
			return pack(RoyalFlush)
		}
		return pack(StraightFlush, straightHigh)
	}

	// Group ranks by multiplicity. ranks is sorted descending so groups of
	// equal size come out with the higher rank first.
	type group struct {
		rank  deck.Rank
		count int
	}
	var groups []group
	for _, r := range ranks {
		if len(groups) > 0 && groups[len(groups)-1].rank == r {
			groups[len(groups)-1].count++
		} else {
			groups = append(groups, group{rank: r, count: 1})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].count > groups[j].count })

	switch {
	case groups[0].count == 4:
		return pack(FourOfAKind, groups[0].rank, groups[1].rank)
	case groups[0].count == 3 && groups[1].count == 2:
		return pack(FullHouse, groups[0].rank, groups[1].rank)
	case flush:
		return pack(Flush, ranks...)
	case straightHigh > 0:
		return pack(Straight, straightHigh)
	case groups[0].count == 3:
		return pack(ThreeOfAKind, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2 && groups[1].count == 2:
		return pack(TwoPair, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2:
		return pack(Pair, groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank)
	default:
		return pack(HighCard, ranks...)
	}
}

// straightHighCard returns the high card of a straight formed by the five
// descending-sorted ranks, or 0 if they do not form one. The wheel
// (A-2-3-4-5) counts as a five-high straight.
func straightHighCard(ranks []deck.Rank) deck.Rank {
	run := true
	for i := 1; i < 5; i++ {
		if ranks[i-1] != ranks[i]+1 {
			run = false
			break
		}
	}
	if run {
		return ranks[0]
	}

	if ranks[0] == deck.Ace && ranks[1] == deck.Five && ranks[2] == deck.Four &&
		ranks[3] == deck.Three && ranks[4] == deck.Two {
		return deck.Five
	}
	return 0
}

// Best scores the strongest five-card hand available from five to seven
// cards by enumerating every five-card combination and keeping the maximum.
func Best(cards []deck.Card) Score {
	n := len(cards)
	if n < 5 || n > 7 {
		return 0
	}
	if n == 5 {
		return Evaluate5(cards)
	}

	var best Score
	combo := make([]deck.Card, 5)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			if s := Evaluate5(combo); s > best {
				best = s
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			combo[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return best
}

// Compare returns 1 if a beats b, -1 if b beats a, and 0 for a tie
func Compare(a, b Score) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
