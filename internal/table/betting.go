package table

import "fmt"

// Action is a player action within a betting round
type Action int

const (
	Fold Action = iota
	Check
	Call
	Bet
)

func (a Action) String() string {
	return [...]string{"fold", "check", "call", "bet"}[a]
}

// ParseAction maps a wire action name to an Action
func ParseAction(s string) (Action, bool) {
	switch s {
	case "fold":
		return Fold, true
	case "check":
		return Check, true
	case "call":
		return Call, true
	case "bet":
		return Bet, true
	default:
		return 0, false
	}
}

// BettingRound tracks the state of one betting round. It operates on seats
// passed to it and holds no reference to the table.
type BettingRound struct {
	CurrentBet int // highest round commitment by any seat
	MinRaise   int // big blind, or the size of the last raise if larger
	bigBlind   int
	acted      map[int]bool // position -> acted this round
	lastRaiser int          // position, -1 when unraised
	bbPosition int          // position owed the preflop option, -1 otherwise
	bbActed    bool
}

// NewBettingRound opens a fresh betting round. bbPosition is the big blind's
// seat position when the round is preflop (the blind post is forced, so the
// big blind keeps the option to raise); pass -1 for later streets.
func NewBettingRound(bigBlind, bbPosition int) *BettingRound {
	return &BettingRound{
		MinRaise:   bigBlind,
		bigBlind:   bigBlind,
		acted:      make(map[int]bool),
		lastRaiser: -1,
		bbPosition: bbPosition,
	}
}

// CanCheck reports whether the seat owes nothing this round
func (br *BettingRound) CanCheck(s *Seat) bool {
	return s.CurrentBet == br.CurrentBet
}

// CanCall reports whether the seat has an outstanding bet to match
func (br *BettingRound) CanCall(s *Seat) bool {
	return br.CurrentBet > s.CurrentBet
}

// Apply validates and applies one action for the acting seat, mutating the
// seat and round state. amount is the additional chips pushed and is only
// meaningful for Bet. A rejected action mutates nothing.
func (br *BettingRound) Apply(s *Seat, action Action, amount int) error {
	switch action {
	case Fold:
		s.HasFolded = true

	case Check:
		if !br.CanCheck(s) {
			return fmt.Errorf("%w: cannot check, %d to call", ErrIllegalAction, br.CurrentBet-s.CurrentBet)
		}

	case Call:
		if !br.CanCall(s) {
			return fmt.Errorf("%w: nothing to call", ErrIllegalAction)
		}
		s.commit(br.CurrentBet - s.CurrentBet)

	case Bet:
		if amount < 1 {
			return fmt.Errorf("%w: bet must be positive", ErrIllegalAction)
		}
		if amount > s.Stack {
			return fmt.Errorf("%w: bet %d exceeds stack %d", ErrIllegalAction, amount, s.Stack)
		}
		target := s.CurrentBet + amount
		if target < br.CurrentBet+br.MinRaise && amount < s.Stack {
			return fmt.Errorf("%w: minimum raise to %d", ErrIllegalAction, br.CurrentBet+br.MinRaise)
		}
		s.commit(amount)
		if target > br.CurrentBet {
			// A full raise grows the raise size and reopens everyone's
			// decision. A short all-in only raises the price to call: the
			// minimum raise stays where it was.
			if raise := target - br.CurrentBet; raise >= br.MinRaise {
				br.MinRaise = raise
				br.lastRaiser = s.Position
				br.acted = make(map[int]bool)
			}
			br.CurrentBet = target
		}

	default:
		return fmt.Errorf("%w: unknown action", ErrIllegalAction)
	}

	br.markActed(s.Position)
	return nil
}

// markActed records that the seat at position took an action this round
func (br *BettingRound) markActed(position int) {
	br.acted[position] = true
	if position == br.bbPosition {
		br.bbActed = true
	}
}

// Complete reports whether the round is closed: every seat that can still
// act has matched the current bet and acted at least once, with the big
// blind's preflop option honored.
func (br *BettingRound) Complete(seats []*Seat) bool {
	for _, s := range seats {
		if !s.CanAct() {
			continue
		}
		if s.CurrentBet != br.CurrentBet {
			return false
		}
		if !br.acted[s.Position] {
			return false
		}
	}

	// Preflop the big blind posted without choosing; if nobody raised, the
	// option to do so is still owed.
	if br.bbPosition >= 0 && br.lastRaiser == -1 && !br.bbActed {
		for _, s := range seats {
			if s.Position == br.bbPosition && s.CanAct() {
				return false
			}
		}
	}

	return true
}
