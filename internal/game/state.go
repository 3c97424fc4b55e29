package game

import (
	"time"

	"github.com/google/uuid"

	"mahjong-service/internal/tile"
)

// SelfSeat is the one seat whose exact tiles are tracked. Every other seat is
// count-only: the engine knows how many tiles they hold, never which ones.
const SelfSeat = 0

const SeatCount = 4

type MeldKind string

const (
	MeldTriplet MeldKind = "triplet"
	MeldKong    MeldKind = "kong"
)

type KongVariant string

const (
	KongConcealed KongVariant = "concealed"
	KongClaimed   KongVariant = "claimed"
	KongPromoted  KongVariant = "promoted"
)

// Meld is an exposed or concealed combination. All tiles in a meld share one
// identity; this variant has no sequential melds.
type Meld struct {
	ID           string      `json:"id"`
	Kind         MeldKind    `json:"kind"`
	Tiles        []tile.Tile `json:"tiles"`
	Concealed    bool        `json:"concealed"`
	KongVariant  KongVariant `json:"kongVariant,omitempty"`
	ClaimedFrom  *int        `json:"claimedFrom,omitempty"`
	PromotedFrom *string     `json:"promotedFrom,omitempty"`
	Timestamp    int64       `json:"timestamp"`
}

// HandState tracks one seat. For the self seat KnownTiles is always non-nil
// (possibly empty) and TileCount mirrors its length. For the other seats
// KnownTiles stays nil and only TileCount moves. The nil-vs-empty distinction
// is semantic ("unknown identities" vs "known to hold zero tiles") and must
// survive JSON round trips: nil marshals as null, empty as [].
type HandState struct {
	KnownTiles  []tile.Tile `json:"knownTiles"`
	TileCount   int         `json:"tileCount"`
	Melds       []Meld      `json:"melds"`
	MissingSuit *tile.Suit  `json:"missingSuit,omitempty"`
}

// Known reports whether this hand's tile identities are tracked.
func (h *HandState) Known() bool {
	return h.KnownTiles != nil
}

func (h *HandState) syncCount() {
	if h.Known() {
		h.TileCount = len(h.KnownTiles)
	}
}

type ActionKind string

const (
	ActionDeal          ActionKind = "deal"
	ActionDiscard       ActionKind = "discard"
	ActionClaimTriplet  ActionKind = "claim_triplet"
	ActionKongConcealed ActionKind = "kong_concealed"
	ActionKongClaimed   ActionKind = "kong_claimed"
	ActionKongPromoted  ActionKind = "kong_promoted"
)

// Action is an append-only log entry; never mutated after creation.
type Action struct {
	Seat      int         `json:"seat"`
	Kind      ActionKind  `json:"kind"`
	Tiles     []tile.Tile `json:"tiles"`
	Sequence  int64       `json:"sequence"`
	Timestamp int64       `json:"timestamp"`
}

// GameState is the full session document. It is mutated only by the session
// service (which serializes every operation) and persisted wholesale after
// each mutation.
type GameState struct {
	SessionID         string              `json:"sessionId"`
	Hands             map[int]*HandState  `json:"hands"`
	DiscardPile       []tile.Tile         `json:"discardPile"`
	PerPlayerDiscards map[int][]tile.Tile `json:"perPlayerDiscards"`
	ActionLog         []Action            `json:"actionLog"`
	CurrentPlayer     int                 `json:"currentPlayer"`
	Started           bool                `json:"started"`
	ManualMode        bool                `json:"manualMode"`
	DrawPile          []tile.Tile         `json:"drawPile"`
	LastAction        *Action             `json:"lastAction,omitempty"`
	Version           int64               `json:"version"`
}

// NewGameState builds a fresh session: new id, shuffled 108-tile wall, four
// empty hands, empty piles and log.
func NewGameState(manualMode bool) *GameState {
	s := &GameState{
		SessionID:         uuid.NewString(),
		Hands:             make(map[int]*HandState, SeatCount),
		DiscardPile:       []tile.Tile{},
		PerPlayerDiscards: make(map[int][]tile.Tile, SeatCount),
		ActionLog:         []Action{},
		CurrentPlayer:     0,
		ManualMode:        manualMode,
		DrawPile:          tile.NewDrawPile(),
	}
	s.EnsureHands()
	return s
}

// EnsureHands lazily creates the four seats and repairs structures missing
// from imported documents. The self seat always ends up with a non-nil tile
// list; hidden seats keep theirs nil.
func (s *GameState) EnsureHands() {
	if s.Hands == nil {
		s.Hands = make(map[int]*HandState, SeatCount)
	}
	if s.PerPlayerDiscards == nil {
		s.PerPlayerDiscards = make(map[int][]tile.Tile, SeatCount)
	}
	for seat := 0; seat < SeatCount; seat++ {
		h, ok := s.Hands[seat]
		if !ok || h == nil {
			h = &HandState{}
			s.Hands[seat] = h
		}
		if seat == SelfSeat && h.KnownTiles == nil {
			h.KnownTiles = []tile.Tile{}
		}
		if h.Melds == nil {
			h.Melds = []Meld{}
		}
		h.syncCount()
		if _, ok := s.PerPlayerDiscards[seat]; !ok {
			s.PerPlayerDiscards[seat] = []tile.Tile{}
		}
	}
	if s.DiscardPile == nil {
		s.DiscardPile = []tile.Tile{}
	}
	if s.ActionLog == nil {
		s.ActionLog = []Action{}
	}
	if s.CurrentPlayer < 0 || s.CurrentPlayer >= SeatCount {
		s.CurrentPlayer = 0
	}
}

// AppendAction logs an immutable action entry and records it as the last
// action taken.
func (s *GameState) AppendAction(seat int, kind ActionKind, tiles []tile.Tile) {
	action := Action{
		Seat:      seat,
		Kind:      kind,
		Tiles:     append([]tile.Tile(nil), tiles...),
		Sequence:  int64(len(s.ActionLog) + 1),
		Timestamp: time.Now().UnixMilli(),
	}
	s.ActionLog = append(s.ActionLog, action)
	s.LastAction = &action
}

// VisibleTiles returns every tile whose identity is publicly known: all
// discards, exposed meld tiles, and the self seat's hand.
func (s *GameState) VisibleTiles() []tile.Tile {
	visible := append([]tile.Tile(nil), s.DiscardPile...)
	for _, hand := range s.Hands {
		for _, meld := range hand.Melds {
			if !meld.Concealed {
				visible = append(visible, meld.Tiles...)
			}
		}
		if hand.Known() {
			visible = append(visible, hand.KnownTiles...)
		}
	}
	return visible
}

// RemainingTileCounts estimates how many copies of each tile code are still
// unseen: four per identity minus everything visible.
func (s *GameState) RemainingTileCounts() map[int]int {
	remaining := make(map[int]int, 34)
	for _, info := range tile.CodeTable() {
		remaining[info.Code] = 4
	}
	for _, tl := range s.VisibleTiles() {
		code, err := tile.Encode(tl)
		if err != nil {
			continue
		}
		if remaining[code] > 0 {
			remaining[code]--
		}
	}
	return remaining
}

// Clone returns a deep copy safe to hand outside the session lock.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Hands = make(map[int]*HandState, len(s.Hands))
	for seat, hand := range s.Hands {
		h := *hand
		if hand.KnownTiles != nil {
			h.KnownTiles = append([]tile.Tile{}, hand.KnownTiles...)
		}
		h.Melds = make([]Meld, len(hand.Melds))
		for i, meld := range hand.Melds {
			m := meld
			m.Tiles = append([]tile.Tile(nil), meld.Tiles...)
			h.Melds[i] = m
		}
		out.Hands[seat] = &h
	}
	out.DiscardPile = append([]tile.Tile{}, s.DiscardPile...)
	out.PerPlayerDiscards = make(map[int][]tile.Tile, len(s.PerPlayerDiscards))
	for seat, tiles := range s.PerPlayerDiscards {
		out.PerPlayerDiscards[seat] = append([]tile.Tile{}, tiles...)
	}
	out.ActionLog = append([]Action{}, s.ActionLog...)
	out.DrawPile = append([]tile.Tile{}, s.DrawPile...)
	if s.LastAction != nil {
		la := *s.LastAction
		la.Tiles = append([]tile.Tile(nil), s.LastAction.Tiles...)
		out.LastAction = &la
	}
	return &out
}
