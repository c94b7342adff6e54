package repository

import (
	"context"

	"gorm.io/gorm"

	"pointsgame/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, tx *gorm.DB, session *model.GameSession) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(session).Error
}

// ListByTelegramID 按用户倒序取最近的结算记录
func (r *SessionRepository) ListByTelegramID(ctx context.Context, telegramID int64, limit int) ([]*model.GameSession, error) {
	var sessions []*model.GameSession
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) CountByTelegramID(ctx context.Context, telegramID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.GameSession{}).
		Where("telegram_id = ?", telegramID).
		Count(&total).Error
	return total, err
}
