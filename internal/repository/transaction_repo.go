package repository

import (
	"context"

	"gorm.io/gorm"

	"pointsgame/internal/model"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.PointsTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

// GetByRefNoAndType 按业务单号 + 流水类型查流水，查无返回 nil
// 入账前用它做幂等兜底：同一单号同一类型的流水只允许存在一条
func (r *TransactionRepository) GetByRefNoAndType(ctx context.Context, refNo, transType string) (*model.PointsTransaction, error) {
	var trans model.PointsTransaction
	err := r.db.WithContext(ctx).
		Where("ref_no = ? AND type = ?", refNo, transType).
		First(&trans).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &trans, nil
}

func (r *TransactionRepository) ListByTelegramID(ctx context.Context, telegramID int64, page, pageSize int) ([]*model.PointsTransaction, int64, error) {
	var transactions []*model.PointsTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PointsTransaction{}).Where("telegram_id = ?", telegramID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}
