package game_test

import (
	"encoding/json"
	"strings"
	"testing"

	"mahjong-service/internal/game"
	"mahjong-service/internal/tile"
)

func TestNewGameStateShape(t *testing.T) {
	s := game.NewGameState(true)

	if s.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if len(s.Hands) != game.SeatCount {
		t.Fatalf("expected %d hands, got %d", game.SeatCount, len(s.Hands))
	}
	if len(s.DrawPile) != 108 {
		t.Fatalf("expected 108 draw tiles, got %d", len(s.DrawPile))
	}
	if !s.Hands[game.SelfSeat].Known() {
		t.Fatal("self seat must have a non-nil known list")
	}
	for seat := 1; seat < game.SeatCount; seat++ {
		if s.Hands[seat].Known() {
			t.Fatalf("seat %d must be count-only", seat)
		}
	}
	if s.Started || s.CurrentPlayer != 0 {
		t.Fatalf("unexpected initial flags: started=%v current=%d", s.Started, s.CurrentPlayer)
	}
}

// The null-vs-empty distinction on knownTiles carries meaning (unknown
// identities vs known-empty hand) and must survive serialization exactly.
func TestHandStateNullVersusEmptyRoundTrip(t *testing.T) {
	s := game.NewGameState(true)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal envelope failed: %v", err)
	}
	var hands map[string]map[string]json.RawMessage
	if err := json.Unmarshal(doc["hands"], &hands); err != nil {
		t.Fatalf("unmarshal hands failed: %v", err)
	}
	if string(hands["0"]["knownTiles"]) != "[]" {
		t.Fatalf("seat 0 knownTiles must marshal as [], got %s", hands["0"]["knownTiles"])
	}
	for _, seat := range []string{"1", "2", "3"} {
		if string(hands[seat]["knownTiles"]) != "null" {
			t.Fatalf("seat %s knownTiles must marshal as null, got %s", seat, hands[seat]["knownTiles"])
		}
	}

	var restored game.GameState
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("round trip unmarshal failed: %v", err)
	}
	if !restored.Hands[0].Known() {
		t.Fatal("seat 0 lost its known-empty list in the round trip")
	}
	for seat := 1; seat < game.SeatCount; seat++ {
		if restored.Hands[seat].Known() {
			t.Fatalf("seat %d gained a known list in the round trip", seat)
		}
	}
}

func TestRemainingTileCounts(t *testing.T) {
	s := game.NewGameState(true)
	twoCircles := tile.Tile{Suit: tile.SuitCircles, Rank: 2}
	s.Hands[0].KnownTiles = append(s.Hands[0].KnownTiles, twoCircles)
	s.DiscardPile = append(s.DiscardPile, twoCircles, twoCircles)

	remaining := s.RemainingTileCounts()
	code, _ := tile.Encode(twoCircles)
	if remaining[code] != 1 {
		t.Fatalf("expected 1 remaining copy, got %d", remaining[code])
	}

	honorCode, _ := tile.Encode(tile.Tile{Suit: tile.SuitHonor, Rank: 1})
	if remaining[honorCode] != 4 {
		t.Fatalf("honor codes stay at 4 when unseen, got %d", remaining[honorCode])
	}
	if len(remaining) != 34 {
		t.Fatalf("expected all 34 codes, got %d", len(remaining))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := game.NewGameState(true)
	s.Hands[0].KnownTiles = append(s.Hands[0].KnownTiles, tile.Tile{Suit: tile.SuitBamboo, Rank: 1})

	clone := s.Clone()
	clone.Hands[0].KnownTiles[0].Rank = 9
	clone.DiscardPile = append(clone.DiscardPile, tile.Tile{Suit: tile.SuitCircles, Rank: 5})
	clone.CurrentPlayer = 3

	if s.Hands[0].KnownTiles[0].Rank != 1 {
		t.Fatal("clone mutation leaked into the original hand")
	}
	if len(s.DiscardPile) != 0 {
		t.Fatal("clone mutation leaked into the original discard pile")
	}
	if s.CurrentPlayer != 0 {
		t.Fatal("clone mutation leaked into the original turn state")
	}
}

func TestEnsureHandsRepairsImportedDocument(t *testing.T) {
	raw := `{"sessionId":"imported","hands":{"0":{"knownTiles":[],"tileCount":0,"melds":[]}},"currentPlayer":9}`
	var s game.GameState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	s.EnsureHands()

	if len(s.Hands) != game.SeatCount {
		t.Fatalf("expected %d hands after repair, got %d", game.SeatCount, len(s.Hands))
	}
	if s.CurrentPlayer != 0 {
		t.Fatalf("out-of-range current player must be reset, got %d", s.CurrentPlayer)
	}
	if s.Hands[1].Known() {
		t.Fatal("repaired hidden seats must stay count-only")
	}
	if !strings.EqualFold(s.SessionID, "imported") {
		t.Fatalf("session id must survive repair, got %q", s.SessionID)
	}
}
