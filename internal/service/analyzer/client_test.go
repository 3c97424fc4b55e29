package analyzer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mahjong-service/internal/game"
	"mahjong-service/internal/service/analyzer"
	"mahjong-service/pkg/logger"
)

func init() {
	logger.InitLogger("debug")
}

func TestHTTPClientPostsStateAndTarget(t *testing.T) {
	var gotTarget int
	var gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req struct {
			GameState    *game.GameState `json:"gameState"`
			TargetPlayer int             `json:"targetPlayer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		gotTarget = req.TargetPlayer
		if req.GameState != nil {
			gotSession = req.GameState.SessionID
		}

		recommended := "5B"
		json.NewEncoder(w).Encode(analyzer.Result{
			RecommendedDiscard: &recommended,
			WinProbability:     0.42,
		})
	}))
	defer srv.Close()

	state := game.NewGameState(true)
	client := analyzer.NewHTTPClient(srv.URL, time.Second)
	result, err := client.Analyze(context.Background(), state, 2)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if gotTarget != 2 || gotSession != state.SessionID {
		t.Fatalf("request payload wrong: target=%d session=%q", gotTarget, gotSession)
	}
	if result.RecommendedDiscard == nil || *result.RecommendedDiscard != "5B" {
		t.Fatalf("unexpected recommendation: %+v", result.RecommendedDiscard)
	}
	if result.WinProbability != 0.42 {
		t.Fatalf("unexpected win probability %v", result.WinProbability)
	}
}

func TestHTTPClientRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := analyzer.NewHTTPClient(srv.URL, time.Second)
	if _, err := client.Analyze(context.Background(), game.NewGameState(true), 0); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestLocalClientReportsRemainingCounts(t *testing.T) {
	state := game.NewGameState(true)
	result, err := analyzer.NewLocalClient().Analyze(context.Background(), state, 0)
	if err != nil {
		t.Fatalf("local analyze failed: %v", err)
	}
	if len(result.RemainingTilesCount) != 34 {
		t.Fatalf("expected 34 tile codes, got %d", len(result.RemainingTilesCount))
	}
}

func TestNewFallsBackWithoutBaseURL(t *testing.T) {
	if _, ok := analyzer.New("", 0).(*analyzer.LocalClient); !ok {
		t.Fatal("empty base URL must yield the local client")
	}
	if _, ok := analyzer.New("http://example.invalid", 0).(*analyzer.HTTPClient); !ok {
		t.Fatal("configured base URL must yield the HTTP client")
	}
}
