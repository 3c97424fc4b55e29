package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mahjong-service/internal/game"
	"mahjong-service/pkg/logger"

	"go.uber.org/zap"
)

// Result is the advisory output for one seat: what to throw, what the hand is
// waiting on, and how much of the wall is still unseen.
type Result struct {
	RecommendedDiscard  *string            `json:"recommendedDiscard,omitempty"`
	DiscardScores       map[string]float64 `json:"discardScores,omitempty"`
	ListenTiles         []string           `json:"listenTiles,omitempty"`
	WinProbability      float64            `json:"winProbability"`
	RemainingTilesCount map[int]int        `json:"remainingTilesCount"`
	Suggestions         []string           `json:"suggestions,omitempty"`
}

// Client scores a game state for a target seat. The engine never acts on the
// result; it only relays it.
type Client interface {
	Analyze(ctx context.Context, state *game.GameState, targetSeat int) (*Result, error)
}

type analyzeRequest struct {
	GameState    *game.GameState `json:"gameState"`
	TargetPlayer int             `json:"targetPlayer"`
}

// HTTPClient calls an external analyzer service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Analyze(ctx context.Context, state *game.GameState, targetSeat int) (*Result, error) {
	body, err := json.Marshal(analyzeRequest{GameState: state, TargetPlayer: targetSeat})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analyzer response: %w", err)
	}
	return &result, nil
}

// LocalClient is the fallback when no analyzer service is configured. It only
// reports what the engine can compute itself: unseen tile counts.
type LocalClient struct{}

func NewLocalClient() *LocalClient {
	return &LocalClient{}
}

func (c *LocalClient) Analyze(ctx context.Context, state *game.GameState, targetSeat int) (*Result, error) {
	return &Result{
		RemainingTilesCount: state.RemainingTileCounts(),
		Suggestions:         []string{"analyzer service not configured; counts only"},
	}, nil
}

// New picks the HTTP client when a base URL is configured, the local fallback
// otherwise.
func New(baseURL string, timeout time.Duration) Client {
	if baseURL == "" {
		logger.Log.Info("no analyzer configured, using local tile counts")
		return NewLocalClient()
	}
	logger.Log.Info("using external analyzer", zap.String("baseURL", baseURL))
	return NewHTTPClient(baseURL, timeout)
}
