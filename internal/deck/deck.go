package deck

import (
	"errors"
	"math/rand"
)

// ErrDeckExhausted is returned when a deal asks for more cards than remain.
// With a 52-card deck and at most ten seats this indicates a broken hand
// lifecycle rather than a recoverable condition.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck represents a shuffled deck of playing cards
type Deck struct {
	cards []Card
	next  int
}

// New creates a standard 52-card deck shuffled with the supplied source.
// Callers own the RNG; tests pass a seeded one for deterministic deals.
func New(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Hearts; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	d.shuffle(rng)
	return d
}

// shuffle performs a Fisher-Yates shuffle
func (d *Deck) shuffle(rng *rand.Rand) {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the next n cards
func (d *Deck) Deal(n int) ([]Card, error) {
	if d.next+n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	cards := d.cards[d.next : d.next+n]
	d.next += n
	return cards, nil
}

// Burn discards the top card before a community-card tranche
func (d *Deck) Burn() error {
	_, err := d.Deal(1)
	return err
}

// Remaining returns the number of undealt cards
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
