package table

import "github.com/cardroomhq/holdem/internal/deck"

// Seat is one player's state at the table. Stack and bets are table chips,
// kept separate from any off-table balance.
type Seat struct {
	Username     string
	Position     int
	Stack        int
	CurrentBet   int // chips committed in the active betting round
	TotalBet     int // chips committed across the whole hand
	HoleCards    []deck.Card
	HasFolded    bool
	IsAllIn      bool
	IsDealer     bool
	IsSmallBlind bool
	IsBigBlind   bool
	IsNextToPlay bool
	AvatarColor  string

	startStack int  // stack at hand start, for delta reporting
	dealtIn    bool // seat received hole cards this hand
	departed   bool // seat left mid-hand; removed at settlement
}

// CanAct reports whether the seat still has decisions to make this round
func (s *Seat) CanAct() bool {
	return s.dealtIn && !s.HasFolded && !s.IsAllIn && !s.departed
}

// InHand reports whether the seat is still contending for the pot
func (s *Seat) InHand() bool {
	return s.dealtIn && !s.HasFolded
}

// commit moves up to n chips from the stack into the current bet, marking
// the seat all-in when the stack empties. Returns the amount moved.
func (s *Seat) commit(n int) int {
	if n > s.Stack {
		n = s.Stack
	}
	s.Stack -= n
	s.CurrentBet += n
	s.TotalBet += n
	if s.Stack == 0 {
		s.IsAllIn = true
	}
	return n
}

// resetForHand clears per-hand state ahead of a new deal
func (s *Seat) resetForHand() {
	s.CurrentBet = 0
	s.TotalBet = 0
	s.HoleCards = nil
	s.HasFolded = false
	s.IsAllIn = false
	s.IsDealer = false
	s.IsSmallBlind = false
	s.IsBigBlind = false
	s.IsNextToPlay = false
	s.startStack = s.Stack
	s.dealtIn = false
}
