package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pointsgame/internal/model"
)

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrBalanceNotEnough = errors.New("余额不足")
	ErrOptimisticLock   = errors.New("乐观锁冲突，请重试")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetOrCreate 按 Telegram ID 取用户，不存在则创建
// 并发下依赖 telegram_id 唯一索引 + OnConflict DoNothing 保证只创建一条
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64) (*model.User, bool, error) {
	user, err := r.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, false, nil
	}

	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	newUser := &model.User{
		TelegramID: telegramID,
		IsActive:   true,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoNothing: true,
		}).
		Create(newUser).Error

	if err != nil {
		return nil, false, err
	}

	user, err = r.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// UpdateProfile 刷新展示字段和登录时间，绝不动余额和统计
func (r *UserRepository) UpdateProfile(ctx context.Context, telegramID int64, username, firstName, lastName string, isAdmin bool, lastLogin time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]interface{}{
			"username":   username,
			"first_name": firstName,
			"last_name":  lastName,
			"is_admin":   isAdmin,
			"last_login": lastLogin,
		}).Error
}

// ApplySettlement 一条 UPDATE 完成单局结算的全部账户变更：
// 扣注、加派彩、累计统计、局数 +1、版本号 +1
// WHERE 同时校验余额充足和版本号未变，二者任一不满足都不会更新任何字段
func (r *UserRepository) ApplySettlement(ctx context.Context, tx *gorm.DB, telegramID int64, betAmount, winAmount, lossAmount decimal.Decimal, version int) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("telegram_id = ? AND balance >= ? AND version = ?", telegramID, betAmount, version).
		Updates(map[string]interface{}{
			"balance":       gorm.Expr("balance - ? + ?", betAmount, winAmount),
			"total_wagered": gorm.Expr("total_wagered + ?", betAmount),
			"total_won":     gorm.Expr("total_won + ?", winAmount),
			"total_lost":    gorm.Expr("total_lost + ?", lossAmount),
			"games_played":  gorm.Expr("games_played + 1"),
			"version":       gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		user, err := r.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(betAmount) {
			return ErrBalanceNotEnough
		}
		return ErrOptimisticLock
	}

	return nil
}

// Deduct 条件扣减余额（提现预留），余额不足或版本冲突时零更新
func (r *UserRepository) Deduct(ctx context.Context, tx *gorm.DB, telegramID int64, amount decimal.Decimal, version int) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("telegram_id = ? AND balance >= ? AND version = ?", telegramID, amount, version).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance - ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		user, err := r.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(amount) {
			return ErrBalanceNotEnough
		}
		return ErrOptimisticLock
	}

	return nil
}

// Credit 加余额（充值入账/提现退款/手工加分）
func (r *UserRepository) Credit(ctx context.Context, tx *gorm.DB, telegramID int64, amount decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetBanned 封禁/解封，is_active 与 is_banned 同步取反
func (r *UserRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_banned": banned,
			"is_active": !banned,
			"version":   gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}
