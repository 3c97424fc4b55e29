package errors

import "errors"

// Engine faults. Every one of these is caught at the operation boundary and
// converted into a (success=false, message) result; only the HTTP layer maps
// them to status codes directly.
var (
	ErrInvalidTileCode   = errors.New("tile code out of range")
	ErrNotYourTurn       = errors.New("not this seat's turn")
	ErrNoMatchingTriplet = errors.New("no matching triplet to promote")
	ErrSessionMismatch   = errors.New("session id does not match the live session")
	ErrStoreUnavailable  = errors.New("state store unavailable")

	ErrSeatOutOfRange       = errors.New("seat must be between 0 and 3")
	ErrUnsupportedOperation = errors.New("unsupported operation kind")
	ErrGameAlreadyStarted   = errors.New("game already started")
	ErrGameNotStarted       = errors.New("game not started")
	ErrDrawPileEmpty        = errors.New("draw pile is empty")
)

// Replay and operator faults.
var (
	ErrRecordNotFound          = errors.New("game record not found")
	ErrOperatorNotFound        = errors.New("operator not found")
	ErrInvalidOperatorPassword = errors.New("invalid operator credentials")
	ErrOperatorDisabled        = errors.New("operator account disabled")
	ErrUnauthorized            = errors.New("unauthorized")
)
