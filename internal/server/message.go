package server

import (
	"fmt"

	"github.com/cardroomhq/holdem/internal/deck"
	"github.com/cardroomhq/holdem/internal/table"
)

// maxBetAmount bounds the bet amount accepted at the boundary
const maxBetAmount = 999_999_999

// GameAction is the single inbound message shape: a table or gameplay
// action from a client.
type GameAction struct {
	Action string `json:"action"`
	Player string `json:"player"`
	Amount int    `json:"amount,omitempty"`
}

// Validate checks the message shape before it reaches the engine
func (a GameAction) Validate() error {
	switch a.Action {
	case "join", "leave", "fold", "check", "call":
		return nil
	case "bet":
		if a.Amount < 1 || a.Amount > maxBetAmount {
			return fmt.Errorf("%w: bet amount must be between 1 and %d", table.ErrIllegalAction, maxBetAmount)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", a.Action)
	}
}

// PlayerState is one seat as rendered to clients
type PlayerState struct {
	Username     string `json:"username"`
	Position     int    `json:"position"`
	GameChips    int    `json:"game_chips"`
	CurrentBet   int    `json:"current_bet"`
	IsDealer     bool   `json:"is_dealer"`
	IsSmallBlind bool   `json:"is_small_blind"`
	IsBigBlind   bool   `json:"is_big_blind"`
	HasFolded    bool   `json:"has_folded"`
	IsNextToPlay bool   `json:"is_next_to_play"`
	UserCanCheck bool   `json:"user_can_check"`
	UserCanCall  bool   `json:"user_can_call"`
	AvatarColor  string `json:"avatar_color"`
}

// GameState is the single outbound message shape: a full snapshot of the
// table as seen by one recipient. HoleCards is populated only in the copy
// addressed to the owning seat; Error only on a rejected action's
// originating connection.
type GameState struct {
	Type            string        `json:"type"`
	GameStatus      string        `json:"game_status"`
	CurrentPhase    string        `json:"current_phase"`
	CurrentUsername string        `json:"current_username,omitempty"`
	Players         []PlayerState `json:"players"`
	Pot             int           `json:"pot"`
	CommunityCards  []string      `json:"community_cards"`
	HoleCards       []string      `json:"hole_cards,omitempty"`
	TotalUserChips  int           `json:"total_user_chips"`
	Messages        []string      `json:"messages"`
	Error           string        `json:"error,omitempty"`
}

// snapshotState renders the table for one viewer. Called on the table's
// runner goroutine; everything mutable is copied out.
func snapshotState(t *table.Table, viewer string, viewerChips int) *GameState {
	status := "waiting"
	switch {
	case t.Unavailable():
		status = "finished"
	case t.Phase() != table.Waiting:
		status = "active"
	}

	state := &GameState{
		Type:           "update_game_state",
		GameStatus:     status,
		CurrentPhase:   t.Phase().String(),
		Players:        make([]PlayerState, 0, len(t.Seats())),
		Pot:            t.Pot(),
		CommunityCards: deck.Strings(t.Community()),
		TotalUserChips: viewerChips,
		Messages:       append([]string(nil), t.Messages()...),
	}

	if username, _, ok := t.NextToAct(); ok {
		state.CurrentUsername = username
	}

	for _, s := range t.Seats() {
		state.Players = append(state.Players, PlayerState{
			Username:     s.Username,
			Position:     s.Position,
			GameChips:    s.Stack,
			CurrentBet:   s.CurrentBet,
			IsDealer:     s.IsDealer,
			IsSmallBlind: s.IsSmallBlind,
			IsBigBlind:   s.IsBigBlind,
			HasFolded:    s.HasFolded,
			IsNextToPlay: s.IsNextToPlay,
			UserCanCheck: t.CanCheck(s.Username),
			UserCanCall:  t.CanCall(s.Username),
			AvatarColor:  s.AvatarColor,
		})
		if s.Username == viewer {
			state.HoleCards = deck.Strings(s.HoleCards)
		}
	}

	return state
}
