package game

import (
	"fmt"

	"mahjong-service/internal/tile"
	appErr "mahjong-service/pkg/errors"
)

type OpKind string

const (
	OpAddKnownTile  OpKind = "add_known_tile"
	OpDiscard       OpKind = "discard"
	OpClaimTriplet  OpKind = "claim_triplet"
	OpKongConcealed OpKind = "kong_concealed"
	OpKongClaimed   OpKind = "kong_claimed"
	OpKongPromoted  OpKind = "kong_promoted"
)

// OperationRequest is the wire contract for a single tagged player action.
// Delta is only meaningful for add_known_tile on hidden seats, where it
// adjusts the tracked tile count by a signed amount (default +1).
type OperationRequest struct {
	Seat        int       `json:"seat"`
	Kind        OpKind    `json:"kind" binding:"required"`
	Tile        tile.Tile `json:"tile"`
	ClaimedFrom *int      `json:"claimedFrom,omitempty"`
	Delta       int       `json:"delta,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
}

type OperationResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	State   *GameState `json:"state,omitempty"`
}

// Processor routes a tagged operation to its handler and mutates the state
// in place. No fault propagates past Apply: every error, including a panic
// inside a handler, becomes a (false, message) result. There is no rollback;
// a handler that fails midway leaves its earlier mutations in place.
type Processor struct {
	melds MeldEngine
}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) Apply(s *GameState, op OperationRequest) (ok bool, msg string) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			msg = fmt.Sprintf("operation failed: %v", r)
		}
	}()

	if op.SessionID != "" && op.SessionID != s.SessionID {
		return false, fmt.Sprintf("%v: %s", appErr.ErrSessionMismatch, op.SessionID)
	}
	if op.Seat < 0 || op.Seat >= SeatCount {
		return false, appErr.ErrSeatOutOfRange.Error()
	}
	s.EnsureHands()

	switch op.Kind {
	case OpAddKnownTile:
		return p.applyAddKnownTile(s, op)
	case OpDiscard:
		return p.applyDiscard(s, op)
	case OpClaimTriplet:
		hand := s.Hands[op.Seat]
		m := p.melds.ClaimTriplet(hand, op.Tile, op.Seat, op.ClaimedFrom)
		s.AppendAction(op.Seat, ActionClaimTriplet, m.Tiles[:1])
		return true, "triplet claimed"
	case OpKongConcealed:
		hand := s.Hands[op.Seat]
		m := p.melds.KongConcealed(hand, op.Tile, op.Seat)
		s.AppendAction(op.Seat, ActionKongConcealed, m.Tiles[:1])
		return true, "concealed kong declared"
	case OpKongClaimed:
		hand := s.Hands[op.Seat]
		m := p.melds.KongClaimed(hand, op.Tile, op.Seat, op.ClaimedFrom)
		s.AppendAction(op.Seat, ActionKongClaimed, m.Tiles[:1])
		return true, "claimed kong declared"
	case OpKongPromoted:
		hand := s.Hands[op.Seat]
		m, err := p.melds.KongPromoted(hand, op.Tile, op.Seat)
		if err != nil {
			return false, err.Error()
		}
		s.AppendAction(op.Seat, ActionKongPromoted, m.Tiles[:1])
		return true, "triplet promoted to kong"
	default:
		return false, fmt.Sprintf("%v: %s", appErr.ErrUnsupportedOperation, op.Kind)
	}
}

// applyAddKnownTile appends an identity to the self seat's known list; for
// hidden seats it synthesizes "this seat now holds N tiles" by moving the
// counter by a signed delta without inventing concrete tiles.
func (p *Processor) applyAddKnownTile(s *GameState, op OperationRequest) (bool, string) {
	hand := s.Hands[op.Seat]
	if hand.Known() {
		hand.KnownTiles = append(hand.KnownTiles, op.Tile)
		hand.syncCount()
		return true, "tile added to hand"
	}

	delta := op.Delta
	if delta == 0 {
		delta = 1
	}
	hand.TileCount += delta
	if hand.TileCount < 0 {
		hand.TileCount = 0
	}
	return true, fmt.Sprintf("tile count adjusted to %d", hand.TileCount)
}

// applyDiscard records a discard for the seat. A tile absent from the self
// seat's known list still discards cleanly: the list is left untouched and
// only the piles move, since the caller is the source of truth.
func (p *Processor) applyDiscard(s *GameState, op OperationRequest) (bool, string) {
	turns := NewTurnController(s)
	if err := turns.Authorize(op.Seat); err != nil {
		return false, err.Error()
	}

	hand := s.Hands[op.Seat]
	if hand.Known() {
		for i, tl := range hand.KnownTiles {
			if tl == op.Tile {
				hand.KnownTiles = append(hand.KnownTiles[:i], hand.KnownTiles[i+1:]...)
				break
			}
		}
		hand.syncCount()
	} else if hand.TileCount > 0 {
		hand.TileCount--
	}

	s.DiscardPile = append(s.DiscardPile, op.Tile)
	s.PerPlayerDiscards[op.Seat] = append(s.PerPlayerDiscards[op.Seat], op.Tile)
	s.AppendAction(op.Seat, ActionDiscard, []tile.Tile{op.Tile})

	if !s.ManualMode {
		turns.Advance()
	}
	return true, "tile discarded"
}
