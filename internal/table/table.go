// Package table implements the single-writer state machine for one Hold'em
// table: seating, hand lifecycle, betting rounds, pot assembly, and showdown
// settlement. All methods must be called from one goroutine; Runner provides
// that serialization for live tables.
package table

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cardroomhq/holdem/internal/deck"
	"github.com/cardroomhq/holdem/internal/eval"
)

// Phase is the table's position in the hand lifecycle
type Phase int

const (
	Waiting Phase = iota
	Preflop
	Flop
	Turn
	River
	Showdown
)

func (p Phase) String() string {
	return [...]string{"waiting", "preflop", "flop", "turn", "river", "showdown"}[p]
}

// Config carries the table parameters supplied by the table directory
type Config struct {
	MaxPlayers int
	SmallBlind int
	BigBlind   int
	BuyIn      int
}

// Result reports a settled hand. Deltas are net chips per username across
// the hand and always sum to zero.
type Result struct {
	HandID  string
	Deltas  map[string]int
	Winners map[string]int
}

// messageLogSize bounds the rolling log included in every broadcast
const messageLogSize = 10

// Table owns all mutable state for one poker table
type Table struct {
	id     string
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger

	phase        Phase
	seats        []*Seat // sorted by position
	button       int     // dealer position, -1 before the first hand
	deck         *deck.Deck
	community    []deck.Card
	betting      *BettingRound
	potCollected int // chips gathered from completed rounds
	handID       string
	turnSerial   int // bumped every time the action is assigned
	messages     []string
	unavailable  bool

	onHandEnd func(Result)
}

// New creates an empty table in the waiting phase
func New(id string, cfg Config, rng *rand.Rand, logger *log.Logger) *Table {
	return &Table{
		id:     id,
		cfg:    cfg,
		rng:    rng,
		logger: logger.WithPrefix("table").With("table", id),
		phase:  Waiting,
		button: -1,
	}
}

// SetHandEndHook registers a callback invoked once per settled hand, after
// all stacks are updated and before the table returns to waiting.
func (t *Table) SetHandEndHook(fn func(Result)) {
	t.onHandEnd = fn
}

// ID returns the table identifier
func (t *Table) ID() string { return t.id }

// Config returns the table parameters
func (t *Table) Config() Config { return t.cfg }

// Phase returns the current lifecycle phase
func (t *Table) Phase() Phase { return t.phase }

// HandID returns the identifier of the hand in progress, or "" while waiting
func (t *Table) HandID() string { return t.handID }

// Unavailable reports whether the table was taken out of play after an
// invariant violation
func (t *Table) Unavailable() bool { return t.unavailable }

// Seat returns the seat for a username, or nil
func (t *Table) Seat(username string) *Seat {
	for _, s := range t.seats {
		if s.Username == username {
			return s
		}
	}
	return nil
}

// Seats returns the seat list ordered by position
func (t *Table) Seats() []*Seat { return t.seats }

// Community returns the board cards dealt so far
func (t *Table) Community() []deck.Card { return t.community }

// CanCheck reports whether the named seat could legally check right now
func (t *Table) CanCheck(username string) bool {
	seat := t.Seat(username)
	return seat != nil && seat.IsNextToPlay && t.betting != nil && t.betting.CanCheck(seat)
}

// CanCall reports whether the named seat has a live bet to match
func (t *Table) CanCall(username string) bool {
	seat := t.Seat(username)
	return seat != nil && seat.IsNextToPlay && t.betting != nil && t.betting.CanCall(seat)
}

// Pot returns all chips at stake: collected pots plus live round bets
func (t *Table) Pot() int {
	total := t.potCollected
	for _, s := range t.seats {
		total += s.CurrentBet
	}
	return total
}

// Join seats a new player with the configured buy-in as their stack. A join
// during a hand takes effect immediately for seating but the player is only
// dealt in from the next hand.
func (t *Table) Join(username, avatarColor string) error {
	if t.unavailable {
		return ErrTableUnavailable
	}
	if t.Seat(username) != nil {
		return ErrAlreadySeated
	}
	if len(t.seats) >= t.cfg.MaxPlayers {
		return ErrTableFull
	}

	taken := make(map[int]bool, len(t.seats))
	for _, s := range t.seats {
		taken[s.Position] = true
	}
	position := 0
	for taken[position] {
		position++
	}

	seat := &Seat{
		Username:    username,
		Position:    position,
		Stack:       t.cfg.BuyIn,
		AvatarColor: avatarColor,
	}
	t.seats = append(t.seats, seat)
	sort.Slice(t.seats, func(i, j int) bool { return t.seats[i].Position < t.seats[j].Position })

	t.logger.Info("player joined", "player", username, "position", position, "stack", seat.Stack)
	t.addMessage(fmt.Sprintf("%s joined the table.", username))
	return nil
}

// Leave removes a player. Mid-hand the seat folds immediately and is removed
// once the hand settles; between hands it is removed at once.
func (t *Table) Leave(username string) error {
	seat := t.Seat(username)
	if seat == nil {
		return ErrNotSeated
	}

	t.addMessage(fmt.Sprintf("%s left the table.", username))
	t.logger.Info("player left", "player", username)

	if t.phase != Waiting && seat.dealtIn {
		seat.departed = true
		if !seat.HasFolded {
			t.forceFold(seat)
		}
		return nil
	}

	t.removeSeat(seat)
	return nil
}

func (t *Table) removeSeat(seat *Seat) {
	for i, s := range t.seats {
		if s == seat {
			t.seats = append(t.seats[:i], t.seats[i+1:]...)
			return
		}
	}
}

// CanStartHand reports whether a new deal may begin
func (t *Table) CanStartHand() bool {
	return t.phase == Waiting && !t.unavailable && len(t.fundedSeats()) >= 2
}

func (t *Table) fundedSeats() []*Seat {
	var funded []*Seat
	for _, s := range t.seats {
		if s.Stack > 0 {
			funded = append(funded, s)
		}
	}
	return funded
}

// StartHand rotates the button, posts blinds, deals hole cards, and opens
// the preflop betting round.
func (t *Table) StartHand() error {
	if !t.CanStartHand() {
		return fmt.Errorf("cannot start hand in phase %s with %d funded seats", t.phase, len(t.fundedSeats()))
	}

	t.handID = uuid.New().String()
	t.community = nil
	t.potCollected = 0

	for _, s := range t.seats {
		s.resetForHand()
	}
	players := t.fundedSeats()
	for _, s := range players {
		s.dealtIn = true
	}

	// Button moves to the next occupied, funded seat clockwise
	t.button = t.nextDealtInPosition(t.button)
	dealer := t.seatAt(t.button)
	dealer.IsDealer = true

	// Heads-up the button posts the small blind; otherwise blinds sit
	// clockwise from the button.
	var sb, bb *Seat
	if len(players) == 2 {
		sb = dealer
		bb = t.seatAt(t.nextDealtInPosition(sb.Position))
	} else {
		sb = t.seatAt(t.nextDealtInPosition(t.button))
		bb = t.seatAt(t.nextDealtInPosition(sb.Position))
	}
	sb.IsSmallBlind = true
	bb.IsBigBlind = true
	sbPosted := sb.commit(t.cfg.SmallBlind)
	bbPosted := bb.commit(t.cfg.BigBlind)

	t.betting = NewBettingRound(t.cfg.BigBlind, bb.Position)
	t.betting.CurrentBet = t.cfg.BigBlind

	t.deck = deck.New(t.rng)
	for _, s := range t.dealOrderSeats() {
		cards, err := t.deck.Deal(2)
		if err != nil {
			t.markUnavailable(err)
			return err
		}
		s.HoleCards = cards
	}

	t.phase = Preflop
	t.logger.Info("hand started", "hand", t.handID, "players", len(players),
		"button", t.button, "smallBlind", sb.Username, "bigBlind", bb.Username)
	t.addMessage(fmt.Sprintf("new hand: %s posts small blind %d, %s posts big blind %d.",
		sb.Username, sbPosted, bb.Username, bbPosted))

	// First action goes to the seat after the big blind
	t.setNextToPlay(t.nextActorAfter(bb.Position))
	if t.currentActor() == nil {
		// Blinds put everyone all-in; run the board out
		t.closeRound()
	}
	return nil
}

// Apply validates and applies one gameplay action from a player. Rejected
// actions leave the table untouched.
func (t *Table) Apply(username string, action Action, amount int) error {
	if t.unavailable {
		return ErrTableUnavailable
	}
	seat := t.Seat(username)
	if seat == nil {
		return ErrNotSeated
	}
	if t.betting == nil || !seat.IsNextToPlay {
		return ErrOutOfTurn
	}

	if err := t.betting.Apply(seat, action, amount); err != nil {
		return err
	}

	t.logAction(seat, action, amount)
	seat.IsNextToPlay = false
	t.advance(seat.Position)
	return nil
}

// forceFold folds a seat outside its turn (disconnect, departure)
func (t *Table) forceFold(seat *Seat) {
	seat.HasFolded = true
	t.betting.markActed(seat.Position)
	t.addMessage(fmt.Sprintf("%s folded.", seat.Username))

	wasActing := seat.IsNextToPlay
	seat.IsNextToPlay = false
	if wasActing {
		t.advance(seat.Position)
	} else if t.contenders() == 1 || t.betting.Complete(t.seats) {
		t.advance(seat.Position)
	}
}

// advance moves the hand forward after an action at the given position:
// award the pot when one contender remains, close the round when betting is
// complete, otherwise pass the turn clockwise.
func (t *Table) advance(from int) {
	if t.contenders() == 1 {
		t.settleFoldWin()
		return
	}
	if t.betting.Complete(t.seats) {
		t.closeRound()
		return
	}
	next := t.nextActorAfter(from)
	if next == nil {
		t.closeRound()
		return
	}
	t.setNextToPlay(next)
}

// closeRound sweeps round bets into the pot and deals the next street, or
// settles the hand when the river round just closed. With no actors left
// (everyone all-in) it keeps dealing until showdown.
func (t *Table) closeRound() {
	for _, s := range t.seats {
		t.potCollected += s.CurrentBet
		s.CurrentBet = 0
	}
	t.clearNextToPlay()

	if t.phase == River {
		t.settleShowdown()
		return
	}

	var count int
	switch t.phase {
	case Preflop:
		t.phase = Flop
		count = 3
	case Flop:
		t.phase = Turn
		count = 1
	case Turn:
		t.phase = River
		count = 1
	default:
		return
	}

	if err := t.deck.Burn(); err != nil {
		t.markUnavailable(err)
		return
	}
	cards, err := t.deck.Deal(count)
	if err != nil {
		t.markUnavailable(err)
		return
	}
	t.community = append(t.community, cards...)
	t.addMessage(fmt.Sprintf("dealing the %s: %s", t.phase, strings.Join(deck.Strings(t.community), " ")))

	t.betting = NewBettingRound(t.cfg.BigBlind, -1)

	// First action on later streets is the first active seat clockwise
	// from the button.
	next := t.nextActorAfter(t.button)
	if next == nil {
		t.closeRound()
		return
	}
	t.setNextToPlay(next)
}

// settleFoldWin awards the entire pot to the last contender without dealing
// further cards or revealing hands.
func (t *Table) settleFoldWin() {
	for _, s := range t.seats {
		t.potCollected += s.CurrentBet
		s.CurrentBet = 0
	}
	t.clearNextToPlay()

	var winner *Seat
	for _, s := range t.seats {
		if s.InHand() {
			winner = s
			break
		}
	}
	if winner == nil {
		t.markUnavailable(fmt.Errorf("no contender left for pot of %d", t.potCollected))
		return
	}

	winner.Stack += t.potCollected
	t.addMessage(fmt.Sprintf("%s wins %d.", winner.Username, t.potCollected))
	t.logger.Info("hand won by fold", "hand", t.handID, "winner", winner.Username, "pot", t.potCollected)
	t.finishHand(map[string]int{winner.Username: t.potCollected})
}

// settleShowdown ranks the remaining hands, builds main and side pots, and
// pays every chip out.
func (t *Table) settleShowdown() {
	t.phase = Showdown
	before := t.chipTotal()

	scores := make(map[int]eval.Score)
	for _, s := range t.seats {
		if !s.InHand() {
			continue
		}
		score := eval.Best(append(append([]deck.Card{}, s.HoleCards...), t.community...))
		scores[s.Position] = score
		t.addMessage(fmt.Sprintf("%s shows %s (%s).", s.Username,
			strings.Join(deck.Strings(s.HoleCards), " "), score))
	}

	pots := BuildPots(t.seats)
	winnings := Distribute(pots, scores, t.dealOrder())

	winners := make(map[string]int)
	for pos, amount := range winnings {
		seat := t.seatAt(pos)
		seat.Stack += amount
		winners[seat.Username] = amount
		t.addMessage(fmt.Sprintf("%s wins %d with %s.", seat.Username, amount, scores[pos]))
		t.logger.Info("pot awarded", "hand", t.handID, "winner", seat.Username,
			"amount", amount, "category", scores[pos].String())
	}
	t.potCollected = 0

	if after := t.chipTotal(); after != before {
		t.markUnavailable(fmt.Errorf("chip conservation violated: %d != %d", after, before))
		return
	}

	t.finishHand(winners)
}

// finishHand reports deltas, drops departed seats, and returns to waiting
func (t *Table) finishHand(winners map[string]int) {
	deltas := make(map[string]int)
	for _, s := range t.seats {
		if s.dealtIn {
			deltas[s.Username] = s.Stack - s.startStack
		}
	}

	result := Result{HandID: t.handID, Deltas: deltas, Winners: winners}

	for i := len(t.seats) - 1; i >= 0; i-- {
		if t.seats[i].departed {
			t.removeSeat(t.seats[i])
		}
	}
	for _, s := range t.seats {
		s.CurrentBet = 0
		s.HoleCards = nil
		s.IsNextToPlay = false
	}

	t.phase = Waiting
	t.handID = ""
	t.betting = nil
	t.potCollected = 0
	t.community = nil

	if t.onHandEnd != nil {
		t.onHandEnd(result)
	}
}

// NextToAct returns the acting seat's username and whether a check is legal
// for it, or ok=false when no betting round is open.
func (t *Table) NextToAct() (username string, canCheck bool, ok bool) {
	seat := t.currentActor()
	if seat == nil || t.betting == nil {
		return "", false, false
	}
	return seat.Username, t.betting.CanCheck(seat), true
}

func (t *Table) currentActor() *Seat {
	for _, s := range t.seats {
		if s.IsNextToPlay {
			return s
		}
	}
	return nil
}

func (t *Table) setNextToPlay(seat *Seat) {
	t.clearNextToPlay()
	if seat != nil {
		seat.IsNextToPlay = true
		t.turnSerial++
	}
}

// turnToken identifies the current turn. It changes whenever the action is
// assigned, including when the same seat holds it on consecutive streets, so
// a timer armed for an earlier turn can never fire into a later one.
func (t *Table) turnToken() string {
	return fmt.Sprintf("%s/%d", t.handID, t.turnSerial)
}

func (t *Table) clearNextToPlay() {
	for _, s := range t.seats {
		s.IsNextToPlay = false
	}
}

// contenders counts seats still in the hand
func (t *Table) contenders() int {
	n := 0
	for _, s := range t.seats {
		if s.InHand() {
			n++
		}
	}
	return n
}

// nextActorAfter finds the next seat clockwise from position that can act
func (t *Table) nextActorAfter(position int) *Seat {
	if len(t.seats) == 0 {
		return nil
	}
	order := t.positionsFrom(position)
	for _, pos := range order {
		s := t.seatAt(pos)
		if s != nil && s.CanAct() {
			return s
		}
	}
	return nil
}

// nextDealtInPosition finds the next dealt-in (or about to be dealt-in,
// i.e. funded) seat position clockwise from the given position
func (t *Table) nextDealtInPosition(position int) int {
	order := t.positionsFrom(position)
	for _, pos := range order {
		s := t.seatAt(pos)
		if s != nil && (s.dealtIn || (t.phase == Waiting && s.Stack > 0)) {
			return pos
		}
	}
	return position
}

// positionsFrom lists occupied positions clockwise starting after position
func (t *Table) positionsFrom(position int) []int {
	var order []int
	for _, s := range t.seats {
		if s.Position > position {
			order = append(order, s.Position)
		}
	}
	for _, s := range t.seats {
		if s.Position <= position {
			order = append(order, s.Position)
		}
	}
	return order
}

// dealOrder lists dealt-in positions clockwise from the seat after the
// button; the small blind acts first and remainder chips land closest to
// the button.
func (t *Table) dealOrder() []int {
	var order []int
	for _, pos := range t.positionsFrom(t.button) {
		if s := t.seatAt(pos); s != nil && s.dealtIn {
			order = append(order, pos)
		}
	}
	return order
}

// dealOrderSeats resolves dealOrder into seats
func (t *Table) dealOrderSeats() []*Seat {
	var seats []*Seat
	for _, pos := range t.dealOrder() {
		seats = append(seats, t.seatAt(pos))
	}
	return seats
}

func (t *Table) seatAt(position int) *Seat {
	for _, s := range t.seats {
		if s.Position == position {
			return s
		}
	}
	return nil
}

// chipTotal sums every chip the table tracks: stacks, live bets, and pots
func (t *Table) chipTotal() int {
	total := t.potCollected
	for _, s := range t.seats {
		total += s.Stack + s.CurrentBet
	}
	return total
}

func (t *Table) logAction(seat *Seat, action Action, amount int) {
	switch action {
	case Fold:
		t.addMessage(fmt.Sprintf("%s folded.", seat.Username))
	case Check:
		t.addMessage(fmt.Sprintf("%s checked.", seat.Username))
	case Call:
		if seat.IsAllIn {
			t.addMessage(fmt.Sprintf("%s called all-in for %d.", seat.Username, seat.CurrentBet))
		} else {
			t.addMessage(fmt.Sprintf("%s called %d.", seat.Username, seat.CurrentBet))
		}
	case Bet:
		if seat.IsAllIn {
			t.addMessage(fmt.Sprintf("%s is all-in for %d.", seat.Username, seat.CurrentBet))
		} else {
			t.addMessage(fmt.Sprintf("%s bet %d.", seat.Username, amount))
		}
	}
}

func (t *Table) addMessage(msg string) {
	t.messages = append(t.messages, msg)
	if len(t.messages) > messageLogSize {
		t.messages = t.messages[len(t.messages)-messageLogSize:]
	}
}

// Messages returns the rolling action log, most recent last
func (t *Table) Messages() []string {
	return t.messages
}

// markUnavailable takes the table out of play after an invariant violation
func (t *Table) markUnavailable(err error) {
	t.logger.Error("invariant violation, marking table unavailable", "error", err, "hand", t.handID)
	t.unavailable = true
	t.clearNextToPlay()
}
