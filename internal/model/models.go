package model

import (
	"time"

	"gorm.io/datatypes"
)

// Operator is a back-office account allowed to reset sessions, import state
// and browse archived records.
type Operator struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GameRecord is a finished (or superseded) session archived for replay.
// StateJSON holds the final GameState document; ActionsJSON duplicates its
// action log so listings do not need to decode the whole state.
type GameRecord struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	SessionID   string         `gorm:"uniqueIndex;size:64;not null"`
	StateJSON   datatypes.JSON `gorm:"type:jsonb"`
	ActionsJSON datatypes.JSON `gorm:"type:jsonb"`
	ActionCount int
	ArchivedAt  time.Time
	CreatedAt   time.Time
}
