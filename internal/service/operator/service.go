package operator

import (
	"context"
	"strings"
	"time"

	"mahjong-service/internal/config"
	"mahjong-service/internal/model"
	pkgAuth "mahjong-service/pkg/auth"
	appErr "mahjong-service/pkg/errors"
	"mahjong-service/pkg/logger"
	"mahjong-service/pkg/utils/random"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service authenticates back-office operators. Operators guard the
// destructive endpoints: session reset, bulk state import and the replay
// archive.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type LoginResult struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expireAt"`
	Operator OperatorInfo `json:"operator"`
}

type OperatorInfo struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, appErr.ErrInvalidOperatorPassword
	}

	var op model.Operator
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&op).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrOperatorNotFound
		}
		return nil, err
	}
	if !strings.EqualFold(op.Status, "active") {
		return nil, appErr.ErrOperatorDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, appErr.ErrInvalidOperatorPassword
	}

	token, err := pkgAuth.GenerateOperatorToken(op.ID)
	if err != nil {
		return nil, err
	}
	expireAt := time.Now().Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)

	now := time.Now()
	if err := s.db.WithContext(ctx).
		Model(&op).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"updated_at":    now,
		}).Error; err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		Operator: sanitize(op),
	}, nil
}

// EnsureDefaultOperator bootstraps the first account. When no password is
// configured a one-time password is generated and written to the log, so a
// fresh deployment is never locked out but never ships a baked-in secret.
func (s *Service) EnsureDefaultOperator(ctx context.Context) error {
	cfg := config.GlobalConfig.Operator
	if cfg.DefaultUsername == "" {
		logger.Log.Warn("default operator not configured; skipping bootstrap")
		return nil
	}

	var exists int64
	if err := s.db.WithContext(ctx).
		Model(&model.Operator{}).
		Where("username = ?", cfg.DefaultUsername).
		Count(&exists).Error; err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	password := cfg.DefaultPassword
	if password == "" {
		password = random.Code(16)
		logger.Log.Warn("generated one-time operator password",
			zap.String("username", cfg.DefaultUsername),
			zap.String("password", password),
		)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	op := model.Operator{
		Username:     cfg.DefaultUsername,
		PasswordHash: string(hash),
		DisplayName:  cfg.DefaultUsername,
		Status:       "active",
	}
	if err := s.db.WithContext(ctx).Create(&op).Error; err != nil {
		return err
	}
	logger.Log.Info("default operator account created",
		zap.String("username", cfg.DefaultUsername))
	return nil
}

func sanitize(op model.Operator) OperatorInfo {
	return OperatorInfo{
		ID:          op.ID,
		Username:    op.Username,
		DisplayName: op.DisplayName,
		Status:      op.Status,
		LastLoginAt: op.LastLoginAt,
		CreatedAt:   op.CreatedAt,
	}
}
