package store

import (
	"context"
	"encoding/json"
	"fmt"

	"mahjong-service/internal/game"
	appErr "mahjong-service/pkg/errors"
	"mahjong-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store persists the whole session document under a single redis key.
// A store outage at startup degrades to a fresh session instead of failing
// the process; a write failure is surfaced to the caller but never rolls
// back the in-memory state.
type Store struct {
	rdb        *redis.Client
	key        string
	manualMode bool
}

func New(rdb *redis.Client, key string, manualMode bool) *Store {
	return &Store{rdb: rdb, key: key, manualMode: manualMode}
}

func (s *Store) LoadOrCreate(ctx context.Context) *game.GameState {
	data, err := s.rdb.Get(ctx, s.key).Result()
	if err == nil {
		var state game.GameState
		if jsonErr := json.Unmarshal([]byte(data), &state); jsonErr != nil {
			logger.Log.Warn("stored state is unreadable, starting fresh", zap.Error(jsonErr))
		} else {
			state.EnsureHands()
			logger.Log.Info("session state loaded",
				zap.String("sessionID", state.SessionID),
				zap.Int64("version", state.Version),
			)
			return &state
		}
	} else if err != redis.Nil {
		logger.Log.Warn("state load failed, starting fresh", zap.Error(err))
	}

	return game.NewGameState(s.manualMode)
}

func (s *Store) Save(ctx context.Context, state *game.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStoreUnavailable, err)
	}
	return nil
}
