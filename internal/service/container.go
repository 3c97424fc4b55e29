package service

import (
	"context"
	"time"

	"mahjong-service/internal/config"
	"mahjong-service/internal/service/analyzer"
	"mahjong-service/internal/service/operator"
	"mahjong-service/internal/service/replay"
	"mahjong-service/internal/service/session"
	"mahjong-service/internal/store"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Session  *session.Service
	Replay   *replay.Service
	Operator *operator.Service
	Analyzer analyzer.Client
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	cfg := config.GlobalConfig
	replaySvc := replay.NewService(db)
	stateStore := store.New(rdb, cfg.Game.StateKey, cfg.Game.ManualMode)

	return &Container{
		Session:  session.NewService(stateStore, replaySvc, cfg.Game.ManualMode),
		Replay:   replaySvc,
		Operator: operator.NewService(db),
		Analyzer: analyzer.New(cfg.Analyzer.BaseURL, time.Duration(cfg.Analyzer.TimeoutSeconds)*time.Second),
	}
}

func (c *Container) Start(ctx context.Context) error {
	if err := c.Operator.EnsureDefaultOperator(ctx); err != nil {
		return err
	}
	return c.Session.Start(ctx)
}
