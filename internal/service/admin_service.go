package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pointsgame/internal/model"
	"pointsgame/internal/repository"
	"pointsgame/pkg/idgen"
)

// AdminService 管理端操作
// 每次调用都按操作者 Telegram ID 现查 is_admin，不做任何缓存
type AdminService struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// RequireAdmin 校验操作者是管理员，返回操作者账户
// 操作者不存在同样按无权限处理，不泄露账户是否存在
func (s *AdminService) RequireAdmin(ctx context.Context, adminTelegramID int64) (*model.User, error) {
	admin, err := s.userRepo.GetByTelegramID(ctx, adminTelegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotAdmin
		}
		return nil, err
	}
	if !admin.IsAdmin {
		return nil, ErrNotAdmin
	}
	return admin, nil
}

func (s *AdminService) ListUsers(ctx context.Context, adminTelegramID int64) ([]*model.User, error) {
	if _, err := s.RequireAdmin(ctx, adminTelegramID); err != nil {
		return nil, err
	}
	return s.userRepo.ListAll(ctx)
}

// AddPoints 管理员手工加分，入账 + 流水同一事务
func (s *AdminService) AddPoints(ctx context.Context, adminTelegramID, userID int64, points decimal.Decimal) (*model.User, error) {
	admin, err := s.RequireAdmin(ctx, adminTelegramID)
	if err != nil {
		return nil, err
	}

	if !points.IsPositive() {
		return nil, errors.New("加分数量必须大于0")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Credit(ctx, tx, user.TelegramID, points); err != nil {
			return fmt.Errorf("加分失败: %w", err)
		}

		transaction := &model.PointsTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        user.ID,
			TelegramID:    user.TelegramID,
			RefNo:         idgen.GenerateAdjustNo(),
			Amount:        points,
			Type:          model.TransactionTypeAdminCredit,
			BalanceBefore: user.Balance,
			BalanceAfter:  user.Balance.Add(points),
			Remark:        fmt.Sprintf("管理员加分-%s", admin.Username),
		}
		if err := s.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("管理员加分: admin=%d, userID=%d, points=%s", adminTelegramID, userID, points.String())

	return s.userRepo.GetByID(ctx, userID)
}

// SetBanned 封禁/解封用户
func (s *AdminService) SetBanned(ctx context.Context, adminTelegramID, userID int64, banned bool) error {
	if _, err := s.RequireAdmin(ctx, adminTelegramID); err != nil {
		return err
	}

	if err := s.userRepo.SetBanned(ctx, userID, banned); err != nil {
		return err
	}

	action := "解封"
	if banned {
		action = "封禁"
	}
	log.Printf("管理员%s用户: admin=%d, userID=%d", action, adminTelegramID, userID)
	return nil
}
