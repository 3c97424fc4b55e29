package replay_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"mahjong-service/internal/game"
	"mahjong-service/internal/model"
	replaysvc "mahjong-service/internal/service/replay"
	"mahjong-service/internal/tile"
	appErr "mahjong-service/pkg/errors"
	"mahjong-service/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	logger.InitLogger("debug")
}

func newTestService(t *testing.T) (*gorm.DB, *replaysvc.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.GameRecord{}); err != nil {
		t.Fatalf("failed to migrate game record model: %v", err)
	}
	if err := db.Exec("DELETE FROM game_records").Error; err != nil {
		t.Fatalf("failed to clear game records: %v", err)
	}
	return db, replaysvc.NewService(db)
}

func finishedState(t *testing.T) *game.GameState {
	t.Helper()
	state := game.NewGameState(true)
	state.AppendAction(0, game.ActionDiscard, []tile.Tile{{Suit: tile.SuitBamboo, Rank: 5}})
	return state
}

func TestArchiveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestService(t)
	state := finishedState(t)

	if err := svc.Archive(ctx, state); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	loaded, err := svc.Get(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.SessionID != state.SessionID {
		t.Fatalf("expected session %q, got %q", state.SessionID, loaded.SessionID)
	}
	if len(loaded.ActionLog) != 1 || loaded.ActionLog[0].Kind != game.ActionDiscard {
		t.Fatalf("action log did not survive the round trip: %+v", loaded.ActionLog)
	}
	if loaded.Hands[0].KnownTiles == nil {
		t.Fatal("self hand must stay non-nil through archive")
	}
	if loaded.Hands[1].KnownTiles != nil {
		t.Fatal("hidden hand must stay nil through archive")
	}
}

func TestArchiveSkipsEmptySessions(t *testing.T) {
	ctx := context.Background()
	db, svc := newTestService(t)

	if err := svc.Archive(ctx, game.NewGameState(true)); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	var count int64
	if err := db.Model(&model.GameRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("session without actions must not be archived, got %d rows", count)
	}
}

func TestArchiveOverwritesSameSession(t *testing.T) {
	ctx := context.Background()
	db, svc := newTestService(t)
	state := finishedState(t)

	if err := svc.Archive(ctx, state); err != nil {
		t.Fatalf("first archive failed: %v", err)
	}
	state.AppendAction(1, game.ActionDiscard, nil)
	if err := svc.Archive(ctx, state); err != nil {
		t.Fatalf("second archive failed: %v", err)
	}

	var count int64
	if err := db.Model(&model.GameRecord{}).Where("session_id = ?", state.SessionID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per session, got %d", count)
	}

	var record model.GameRecord
	if err := db.Where("session_id = ?", state.SessionID).First(&record).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if record.ActionCount != 2 {
		t.Fatalf("expected the newer archive to win, got %d actions", record.ActionCount)
	}
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestService(t)

	for i := 0; i < 3; i++ {
		if err := svc.Archive(ctx, finishedState(t)); err != nil {
			t.Fatalf("archive %d failed: %v", i, err)
		}
	}

	result, err := svc.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected total 3, got %d", result.Total)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items on the first page, got %d", len(result.Items))
	}

	second, err := svc.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second.Items) != 1 {
		t.Fatalf("expected 1 item on the second page, got %d", len(second.Items))
	}
}

func TestGetUnknownSession(t *testing.T) {
	_, svc := newTestService(t)

	_, err := svc.Get(context.Background(), "no-such-session")
	if !errors.Is(err, appErr.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestExportJSONIsValidDocument(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestService(t)
	state := finishedState(t)

	if err := svc.Archive(ctx, state); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	raw, err := svc.ExportJSON(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var decoded game.GameState
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("export is not a valid state document: %v", err)
	}
	if decoded.SessionID != state.SessionID {
		t.Fatalf("exported the wrong session: %q", decoded.SessionID)
	}
}
