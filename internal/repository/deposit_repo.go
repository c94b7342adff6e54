package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"pointsgame/internal/model"
)

var (
	ErrDepositNotFound      = errors.New("充值单不存在")
	ErrDepositStatusInvalid = errors.New("充值单状态不合法")
)

type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, tx *gorm.DB, deposit *model.Deposit) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(deposit).Error
}

func (r *DepositRepository) GetByID(ctx context.Context, id int64) (*model.Deposit, error) {
	var deposit model.Deposit
	err := r.db.WithContext(ctx).First(&deposit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

// UpdateStatus 条件状态流转
// WHERE 带上 fromStatus，RowsAffected == 0 即状态已被他人改过（幂等保护）
func (r *DepositRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus, processedBy, adminNote string) error {
	if !model.CanDepositTransitionTo(fromStatus, toStatus) {
		return ErrDepositStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.Deposit{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":       toStatus,
			"processed_by": processedBy,
			"admin_note":   adminNote,
			"processed_at": &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDepositStatusInvalid
	}

	return nil
}

func (r *DepositRepository) ListByTelegramID(ctx context.Context, telegramID int64, limit int) ([]*model.Deposit, error) {
	var deposits []*model.Deposit
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Order("created_at DESC").
		Limit(limit).
		Find(&deposits).Error
	return deposits, err
}

func (r *DepositRepository) ListAll(ctx context.Context) ([]*model.Deposit, error) {
	var deposits []*model.Deposit
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&deposits).Error
	return deposits, err
}

// ListPendingBefore 查询挂起超过指定时间的充值单（提醒任务用）
func (r *DepositRepository) ListPendingBefore(ctx context.Context, beforeTime time.Time, limit int) ([]*model.Deposit, error) {
	var deposits []*model.Deposit
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.DepositStatusPending, beforeTime).
		Order("created_at ASC").
		Limit(limit).
		Find(&deposits).Error
	return deposits, err
}
