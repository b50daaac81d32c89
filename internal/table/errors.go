package table

import "errors"

// Action rejection taxonomy. Every rejection leaves table state untouched
// and is reported only to the originating connection.
var (
	// ErrNotSeated rejects any action other than join from an unseated sender
	ErrNotSeated = errors.New("player is not seated at this table")

	// ErrOutOfTurn rejects a gameplay action from a seat that is not next to play
	ErrOutOfTurn = errors.New("it is not your turn to act")

	// ErrIllegalAction rejects an action that is out of order for the betting
	// round: checking when a call is owed, calling with nothing to call, or
	// betting outside the legal range
	ErrIllegalAction = errors.New("illegal action")

	// ErrTableFull rejects a join when every seat is taken
	ErrTableFull = errors.New("table is full")

	// ErrAlreadySeated rejects a join from a player who already has a seat
	ErrAlreadySeated = errors.New("player is already seated")

	// ErrTableUnavailable marks a table that hit an unrecoverable invariant
	// violation and was taken out of play pending restart
	ErrTableUnavailable = errors.New("table is unavailable")
)
