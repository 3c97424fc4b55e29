package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mahjong-service/internal/game"
	"mahjong-service/internal/model"
	appErr "mahjong-service/pkg/errors"
	"mahjong-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service archives superseded sessions and serves them back for replay.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type RecordSummary struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"sessionId"`
	ActionCount int       `json:"actionCount"`
	ArchivedAt  time.Time `json:"archivedAt"`
}

type ListResult struct {
	Items []RecordSummary `json:"items"`
	Total int64           `json:"total"`
}

// Archive stores the final state of a session. Re-archiving the same session
// overwrites the previous row, so a crash between archive and reset stays
// harmless. Sessions that never saw an action are not worth keeping.
func (s *Service) Archive(ctx context.Context, state *game.GameState) error {
	if state == nil || len(state.ActionLog) == 0 {
		return nil
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	actionsJSON, err := json.Marshal(state.ActionLog)
	if err != nil {
		return fmt.Errorf("encode action log: %w", err)
	}

	record := model.GameRecord{
		SessionID:   state.SessionID,
		StateJSON:   stateJSON,
		ActionsJSON: actionsJSON,
		ActionCount: len(state.ActionLog),
		ArchivedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state_json", "actions_json", "action_count", "archived_at"}),
		}).
		Create(&record).Error; err != nil {
		return err
	}

	logger.Log.Info("session archived",
		zap.String("sessionID", state.SessionID),
		zap.Int("actions", record.ActionCount),
	)
	return nil
}

func (s *Service) List(ctx context.Context, page, size int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.GameRecord{}).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var records []model.GameRecord
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Model(&model.GameRecord{}).
			Order("archived_at DESC").
			Limit(size).
			Offset(offset).
			Find(&records).Error; err != nil {
			return nil, err
		}
	}

	items := make([]RecordSummary, 0, len(records))
	for _, r := range records {
		items = append(items, RecordSummary{
			ID:          r.ID,
			SessionID:   r.SessionID,
			ActionCount: r.ActionCount,
			ArchivedAt:  r.ArchivedAt,
		})
	}
	return &ListResult{Items: items, Total: total}, nil
}

// Get decodes the archived final state of one session.
func (s *Service) Get(ctx context.Context, sessionID string) (*game.GameState, error) {
	record, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var state game.GameState
	if err := json.Unmarshal(record.StateJSON, &state); err != nil {
		return nil, fmt.Errorf("decode archived state: %w", err)
	}
	return &state, nil
}

// ExportJSON returns the raw archived document for download.
func (s *Service) ExportJSON(ctx context.Context, sessionID string) ([]byte, error) {
	record, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return record.StateJSON, nil
}

func (s *Service) find(ctx context.Context, sessionID string) (*model.GameRecord, error) {
	var record model.GameRecord
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}
