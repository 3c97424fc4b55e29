package game

import (
	"time"

	"github.com/google/uuid"

	"mahjong-service/internal/tile"
	appErr "mahjong-service/pkg/errors"
)

// fillerTile pads a known hand that is shorter than a reduction requires.
// The upstream caller, not this engine, is the source of truth for whether a
// reduction is legal, so the engine never rejects on underflow.
var fillerTile = tile.Tile{Suit: tile.SuitCharacters, Rank: 1}

// MeldEngine applies triplet-claim and kong transitions to a HandState.
// Apart from kong promotion, every operation is total: it self-heals instead
// of failing on insufficient data.
type MeldEngine struct{}

// ClaimTriplet appends an exposed 3-tile meld of t. The self seat contributes
// two tiles from its known list (the third is the claimed discard); hidden
// seats are charged three against their counter.
func (MeldEngine) ClaimTriplet(h *HandState, t tile.Tile, seat int, claimedFrom *int) Meld {
	m := Meld{
		ID:          uuid.NewString(),
		Kind:        MeldTriplet,
		Tiles:       repeatTile(t, 3),
		Concealed:   false,
		ClaimedFrom: claimedFrom,
		Timestamp:   time.Now().UnixMilli(),
	}
	h.Melds = append(h.Melds, m)
	if seat == SelfSeat {
		reduceHand(h, 2, t)
	} else {
		reduceHand(h, 3, t)
	}
	return m
}

// KongConcealed appends a concealed 4-tile meld. The kong is built entirely
// from tiles the seat already held, so every seat is reduced by four.
func (MeldEngine) KongConcealed(h *HandState, t tile.Tile, seat int) Meld {
	m := Meld{
		ID:          uuid.NewString(),
		Kind:        MeldKong,
		Tiles:       repeatTile(t, 4),
		Concealed:   true,
		KongVariant: KongConcealed,
		Timestamp:   time.Now().UnixMilli(),
	}
	h.Melds = append(h.Melds, m)
	reduceHand(h, 4, t)
	return m
}

// KongClaimed appends an exposed 4-tile meld completed by a claimed discard.
// The self seat contributes three tiles; hidden seats are charged the whole
// block of four against their counter.
func (MeldEngine) KongClaimed(h *HandState, t tile.Tile, seat int, claimedFrom *int) Meld {
	m := Meld{
		ID:          uuid.NewString(),
		Kind:        MeldKong,
		Tiles:       repeatTile(t, 4),
		Concealed:   false,
		KongVariant: KongClaimed,
		ClaimedFrom: claimedFrom,
		Timestamp:   time.Now().UnixMilli(),
	}
	h.Melds = append(h.Melds, m)
	if seat == SelfSeat {
		reduceHand(h, 3, t)
	} else {
		reduceHand(h, 4, t)
	}
	return m
}

// KongPromoted upgrades an existing triplet of t to a kong. This is the one
// genuinely validated precondition in the engine: without a matching triplet
// it fails with ErrNoMatchingTriplet and the hand is left unchanged.
func (MeldEngine) KongPromoted(h *HandState, t tile.Tile, seat int) (Meld, error) {
	idx := -1
	for i, meld := range h.Melds {
		if meld.Kind == MeldTriplet && len(meld.Tiles) > 0 && meld.Tiles[0] == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Meld{}, appErr.ErrNoMatchingTriplet
	}

	removed := h.Melds[idx]
	h.Melds = append(h.Melds[:idx], h.Melds[idx+1:]...)

	promotedFrom := removed.ID
	m := Meld{
		ID:           uuid.NewString(),
		Kind:         MeldKong,
		Tiles:        repeatTile(t, 4),
		Concealed:    false,
		KongVariant:  KongPromoted,
		PromotedFrom: &promotedFrom,
		Timestamp:    time.Now().UnixMilli(),
	}
	h.Melds = append(h.Melds, m)
	// The seat adds exactly the one tile it just drew.
	reduceHand(h, 1, t)
	return m, nil
}

func repeatTile(t tile.Tile, n int) []tile.Tile {
	tiles := make([]tile.Tile, n)
	for i := range tiles {
		tiles[i] = t
	}
	return tiles
}

// reduceHand removes n tiles from a known hand, preferring exact identity
// matches and padding with a filler first so the removal never underflows.
// Count-only hands just move the counter, clamped at zero.
func reduceHand(h *HandState, n int, preferred tile.Tile) {
	if !h.Known() {
		h.TileCount -= n
		if h.TileCount < 0 {
			h.TileCount = 0
		}
		return
	}

	for len(h.KnownTiles) < n {
		h.KnownTiles = append(h.KnownTiles, fillerTile)
	}
	for i := 0; i < n; i++ {
		idx := 0
		for j, tl := range h.KnownTiles {
			if tl == preferred {
				idx = j
				break
			}
		}
		h.KnownTiles = append(h.KnownTiles[:idx], h.KnownTiles[idx+1:]...)
	}
	h.syncCount()
}
