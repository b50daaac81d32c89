package table

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{MaxPlayers: 6, SmallBlind: 5, BigBlind: 10, BuyIn: 1000}
}

func testTable(t *testing.T, players int) *Table {
	t.Helper()
	tbl := New("t1", testConfig(), rand.New(rand.NewSource(1)), log.New(io.Discard))
	for i := 0; i < players; i++ {
		require.NoError(t, tbl.Join(fmt.Sprintf("player%d", i), "#336699"))
	}
	return tbl
}

// checkOrCall plays the acting seat's passive option
func checkOrCall(t *testing.T, tbl *Table) {
	t.Helper()
	username, canCheck, ok := tbl.NextToAct()
	require.True(t, ok, "expected a seat to be next to play")
	action := Call
	if canCheck {
		action = Check
	}
	require.NoError(t, tbl.Apply(username, action, 0))
}

// playToShowdown checks or calls every decision until the hand settles
func playToShowdown(t *testing.T, tbl *Table) {
	t.Helper()
	for i := 0; tbl.Phase() != Waiting; i++ {
		require.Less(t, i, 100, "hand did not settle")
		checkOrCall(t, tbl)
	}
}

func TestJoinAssignsLowestFreePosition(t *testing.T) {
	tbl := testTable(t, 3)
	require.NoError(t, tbl.Leave("player1"))
	require.NoError(t, tbl.Join("newcomer", "#ff0000"))
	assert.Equal(t, 1, tbl.Seat("newcomer").Position)
	assert.Equal(t, 1000, tbl.Seat("newcomer").Stack)
}

func TestJoinRejections(t *testing.T) {
	tbl := testTable(t, 6)
	assert.ErrorIs(t, tbl.Join("player0", "#000000"), ErrAlreadySeated)
	assert.ErrorIs(t, tbl.Join("latecomer", "#000000"), ErrTableFull)
}

func TestLeaveUnknownPlayer(t *testing.T) {
	tbl := testTable(t, 2)
	assert.ErrorIs(t, tbl.Leave("stranger"), ErrNotSeated)
}

func TestStartHandPostsBlinds(t *testing.T) {
	tbl := testTable(t, 3)
	require.True(t, tbl.CanStartHand())
	require.NoError(t, tbl.StartHand())

	assert.Equal(t, Preflop, tbl.Phase())
	assert.NotEmpty(t, tbl.HandID())

	dealer := tbl.Seat("player0")
	sb := tbl.Seat("player1")
	bb := tbl.Seat("player2")
	assert.True(t, dealer.IsDealer)
	assert.True(t, sb.IsSmallBlind)
	assert.Equal(t, 5, sb.CurrentBet)
	assert.True(t, bb.IsBigBlind)
	assert.Equal(t, 10, bb.CurrentBet)
	assert.Equal(t, 15, tbl.Pot())

	for _, s := range tbl.Seats() {
		assert.Len(t, s.HoleCards, 2)
	}

	// Three-handed the button acts first preflop
	username, _, ok := tbl.NextToAct()
	require.True(t, ok)
	assert.Equal(t, "player0", username)
}

func TestHeadsUpButtonPostsSmallBlind(t *testing.T) {
	tbl := testTable(t, 2)
	require.NoError(t, tbl.StartHand())

	dealer := tbl.Seat("player0")
	assert.True(t, dealer.IsDealer)
	assert.True(t, dealer.IsSmallBlind)
	assert.True(t, tbl.Seat("player1").IsBigBlind)

	// Button acts first preflop heads-up
	username, _, ok := tbl.NextToAct()
	require.True(t, ok)
	assert.Equal(t, "player0", username)

	// Big blind acts first on later streets
	checkOrCall(t, tbl) // button calls
	checkOrCall(t, tbl) // big blind checks the option
	require.Equal(t, Flop, tbl.Phase())
	username, _, ok = tbl.NextToAct()
	require.True(t, ok)
	assert.Equal(t, "player1", username)
}

func TestDealerButtonRotates(t *testing.T) {
	tbl := testTable(t, 3)

	var dealers []string
	for hand := 0; hand < 3; hand++ {
		require.NoError(t, tbl.StartHand())
		for _, s := range tbl.Seats() {
			if s.IsDealer {
				dealers = append(dealers, s.Username)
			}
		}
		playToShowdown(t, tbl)
	}

	assert.Equal(t, []string{"player0", "player1", "player2"}, dealers)
}

func TestExactlyOneSeatNextToPlay(t *testing.T) {
	tbl := testTable(t, 4)
	require.NoError(t, tbl.StartHand())

	for i := 0; tbl.Phase() != Waiting; i++ {
		require.Less(t, i, 100)
		acting := 0
		for _, s := range tbl.Seats() {
			if s.IsNextToPlay {
				acting++
			}
		}
		assert.Equal(t, 1, acting)
		checkOrCall(t, tbl)
	}
}

func TestChipConservationAcrossHands(t *testing.T) {
	tbl := testTable(t, 4)

	total := func() int {
		sum := tbl.Pot()
		for _, s := range tbl.Seats() {
			sum += s.Stack
		}
		return sum
	}

	for hand := 0; hand < 5; hand++ {
		require.NoError(t, tbl.StartHand())
		playToShowdown(t, tbl)
		assert.Equal(t, 4000, total(), "hand %d leaked chips", hand)
	}
	assert.False(t, tbl.Unavailable())
}

func TestFoldWinEndsHandWithoutShowdown(t *testing.T) {
	tbl := testTable(t, 3)
	require.NoError(t, tbl.StartHand())

	var result *Result
	tbl.SetHandEndHook(func(r Result) { result = &r })

	// Everyone folds to the big blind
	username, _, _ := tbl.NextToAct()
	require.NoError(t, tbl.Apply(username, Fold, 0))
	username, _, _ = tbl.NextToAct()
	require.NoError(t, tbl.Apply(username, Fold, 0))

	require.NotNil(t, result)
	assert.Equal(t, Waiting, tbl.Phase())
	// Big blind collects both blinds without showing cards
	assert.Equal(t, 1005, tbl.Seat("player2").Stack)
	assert.Equal(t, 15, result.Winners["player2"])
}

func TestOutOfTurnRejected(t *testing.T) {
	tbl := testTable(t, 3)
	require.NoError(t, tbl.StartHand())

	// player1 is the small blind; the button acts first
	err := tbl.Apply("player1", Call, 0)
	assert.ErrorIs(t, err, ErrOutOfTurn)

	err = tbl.Apply("stranger", Fold, 0)
	assert.ErrorIs(t, err, ErrNotSeated)
}

func TestIllegalCheckLeavesStateUntouched(t *testing.T) {
	tbl := testTable(t, 3)
	require.NoError(t, tbl.StartHand())

	username, canCheck, ok := tbl.NextToAct()
	require.True(t, ok)
	require.False(t, canCheck, "first actor owes the big blind")

	seat := tbl.Seat(username)
	stack := seat.Stack
	pot := tbl.Pot()

	err := tbl.Apply(username, Check, 0)
	require.ErrorIs(t, err, ErrIllegalAction)

	assert.Equal(t, stack, seat.Stack)
	assert.Equal(t, pot, tbl.Pot())
	assert.True(t, seat.IsNextToPlay, "turn does not pass on a rejected action")
}

func TestLeaveMidHandFoldsAndRemovesAfterSettlement(t *testing.T) {
	tbl := testTable(t, 3)
	require.NoError(t, tbl.StartHand())

	// The big blind leaves while the button holds the action
	require.NoError(t, tbl.Leave("player2"))
	left := tbl.Seat("player2")
	require.NotNil(t, left, "seat stays until the hand settles")
	assert.True(t, left.HasFolded)

	playToShowdown(t, tbl)
	assert.Nil(t, tbl.Seat("player2"))
	assert.Len(t, tbl.Seats(), 2)
}

func TestLeaveByActingSeatPassesTurn(t *testing.T) {
	tbl := testTable(t, 3)
	require.NoError(t, tbl.StartHand())

	username, _, ok := tbl.NextToAct()
	require.True(t, ok)
	require.NoError(t, tbl.Leave(username))

	next, _, ok := tbl.NextToAct()
	require.True(t, ok)
	assert.NotEqual(t, username, next)
}

func TestHandEndDeltasSumToZero(t *testing.T) {
	tbl := testTable(t, 4)

	var results []Result
	tbl.SetHandEndHook(func(r Result) { results = append(results, r) })

	for hand := 0; hand < 3; hand++ {
		require.NoError(t, tbl.StartHand())
		playToShowdown(t, tbl)
	}

	require.Len(t, results, 3)
	for _, r := range results {
		assert.NotEmpty(t, r.HandID)
		sum := 0
		for _, delta := range r.Deltas {
			sum += delta
		}
		assert.Zero(t, sum, "hand %s deltas do not balance", r.HandID)
	}
}

func TestAllInRunOutReachesShowdown(t *testing.T) {
	tbl := testTable(t, 2)
	require.NoError(t, tbl.StartHand())

	username, _, _ := tbl.NextToAct()
	seat := tbl.Seat(username)
	require.NoError(t, tbl.Apply(username, Bet, seat.Stack))
	username, _, _ = tbl.NextToAct()
	require.NoError(t, tbl.Apply(username, Call, 0))

	// Both all-in preflop: the board runs out and the hand settles
	assert.Equal(t, Waiting, tbl.Phase())
	total := 0
	for _, s := range tbl.Seats() {
		total += s.Stack
	}
	assert.Equal(t, 2000, total)
}

func TestUnavailableTableRejectsEverything(t *testing.T) {
	tbl := testTable(t, 2)
	tbl.markUnavailable(errors.New("boom"))

	assert.ErrorIs(t, tbl.Join("newcomer", "#000000"), ErrTableUnavailable)
	assert.ErrorIs(t, tbl.Apply("player0", Check, 0), ErrTableUnavailable)
	assert.False(t, tbl.CanStartHand())
}

func TestMessageLogBounded(t *testing.T) {
	tbl := testTable(t, 2)
	for i := 0; i < 30; i++ {
		tbl.addMessage(fmt.Sprintf("message %d", i))
	}
	messages := tbl.Messages()
	require.Len(t, messages, messageLogSize)
	assert.Equal(t, "message 29", messages[len(messages)-1])
}

func TestZeroStackSeatSitsOutNextHand(t *testing.T) {
	tbl := testTable(t, 3)
	tbl.Seat("player1").Stack = 0

	require.True(t, tbl.CanStartHand())
	require.NoError(t, tbl.StartHand())

	assert.False(t, tbl.Seat("player1").dealtIn)
	assert.Empty(t, tbl.Seat("player1").HoleCards)
}
