package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pointsgame/internal/config"
	"pointsgame/internal/infrastructure/lock"
	"pointsgame/internal/model"
	"pointsgame/internal/repository"
	"pointsgame/pkg/idgen"
)

// WithdrawalService 提现申请与人工处理
//
// 积分在申请时即扣除（悲观预留）：
//   - reject 原数退回
//   - approve / paid 只推进状态，不再碰余额
type WithdrawalService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	userRepo        *repository.UserRepository
	withdrawalRepo  *repository.WithdrawalRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewWithdrawalService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *WithdrawalService {
	return &WithdrawalService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		userRepo:        repository.NewUserRepository(db),
		withdrawalRepo:  repository.NewWithdrawalRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

type WithdrawalRequest struct {
	TelegramID     int64           `json:"telegram_id" binding:"required"`
	Points         decimal.Decimal `json:"points" binding:"required"`
	PaymentMethod  string          `json:"payment_method" binding:"required"`
	PaymentDetails string          `json:"payment_details" binding:"required"`
}

// Request 提交提现申请并立即扣除积分
func (s *WithdrawalService) Request(ctx context.Context, req *WithdrawalRequest) (*model.Withdrawal, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}

	if user.IsBanned {
		return nil, ErrUserBanned
	}

	if req.Points.LessThan(s.cfg.Business.MinWithdrawal()) {
		return nil, ErrBelowMinimum
	}

	if user.Balance.LessThan(req.Points) {
		return nil, repository.ErrBalanceNotEnough
	}

	// 同一用户的提现申请与下注共用一把锁，避免和结算并发竞争余额
	playLock := lock.NewPlayLock(s.redisClient, req.TelegramID)
	err = playLock.Lock(ctx, 100*time.Millisecond, 30)
	if err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer playLock.Unlock(ctx)

	user, err = s.userRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}
	if user.Balance.LessThan(req.Points) {
		return nil, repository.ErrBalanceNotEnough
	}

	withdrawalNo := idgen.GenerateWithdrawalNo()

	// 1积分 = 1 Birr
	withdrawal := &model.Withdrawal{
		WithdrawalNo:   withdrawalNo,
		UserID:         user.ID,
		TelegramID:     user.TelegramID,
		Points:         req.Points,
		Amount:         req.Points,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		Status:         model.WithdrawalStatusPending,
	}

	// 预留扣款事务：扣余额 + 建单 + 流水同时落库
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Deduct(ctx, tx, req.TelegramID, req.Points, user.Version); err != nil {
			return err
		}

		if err := s.withdrawalRepo.Create(ctx, tx, withdrawal); err != nil {
			return fmt.Errorf("创建提现单失败: %w", err)
		}

		transaction := &model.PointsTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        user.ID,
			TelegramID:    user.TelegramID,
			RefNo:         withdrawalNo,
			Amount:        req.Points.Neg(),
			Type:          model.TransactionTypeWithdraw,
			BalanceBefore: user.Balance,
			BalanceAfter:  user.Balance.Sub(req.Points),
			Remark:        fmt.Sprintf("提现预留-%s", withdrawalNo),
		}
		if err := s.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("提现申请已受理: withdrawalNo=%s, telegramID=%d, points=%s",
		withdrawalNo, user.TelegramID, req.Points.String())
	return withdrawal, nil
}

// Approve 审核通过，pending -> approved，不动余额（积分已预留）
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID int64, processedBy, adminNote string) error {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.withdrawalRepo.UpdateStatus(ctx, tx, withdrawalID, model.WithdrawalStatusPending, model.WithdrawalStatusApproved, processedBy, adminNote); err != nil {
			if errors.Is(err, repository.ErrWithdrawalStatusInvalid) {
				return ErrInvalidTransition
			}
			return fmt.Errorf("更新提现单状态失败: %w", err)
		}
		return s.writeResultMessage(ctx, tx, withdrawal, model.WithdrawalStatusApproved, processedBy)
	})

	if err != nil {
		return err
	}

	log.Printf("提现审核通过: withdrawalNo=%s, telegramID=%d", withdrawal.WithdrawalNo, withdrawal.TelegramID)
	return nil
}

// Reject 驳回并退款，只允许从 pending 驳回
//
// 【关键点】状态流转和退款在同一事务：WHERE status = pending 命中 0 行
// 说明已被处理过，直接返回 InvalidTransition，退款不会重复执行
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID int64, processedBy, adminNote string) error {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	if withdrawal.Status != model.WithdrawalStatusPending {
		return ErrInvalidTransition
	}

	processLock := lock.NewWithdrawalLock(s.redisClient, withdrawalID)
	err = processLock.Lock(ctx, 100*time.Millisecond, 30)
	if err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer processLock.Unlock(ctx)

	user, err := s.userRepo.GetByTelegramID(ctx, withdrawal.TelegramID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.withdrawalRepo.UpdateStatus(ctx, tx, withdrawalID, model.WithdrawalStatusPending, model.WithdrawalStatusRejected, processedBy, adminNote); err != nil {
			if errors.Is(err, repository.ErrWithdrawalStatusInvalid) {
				return ErrInvalidTransition
			}
			return fmt.Errorf("更新提现单状态失败: %w", err)
		}

		if err := s.userRepo.Credit(ctx, tx, withdrawal.TelegramID, withdrawal.Points); err != nil {
			return fmt.Errorf("退款失败: %w", err)
		}

		transaction := &model.PointsTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        withdrawal.UserID,
			TelegramID:    withdrawal.TelegramID,
			RefNo:         withdrawal.WithdrawalNo,
			Amount:        withdrawal.Points,
			Type:          model.TransactionTypeRefund,
			BalanceBefore: user.Balance,
			BalanceAfter:  user.Balance.Add(withdrawal.Points),
			Remark:        fmt.Sprintf("提现驳回退款-%s", withdrawal.WithdrawalNo),
		}
		if err := s.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		return s.writeResultMessage(ctx, tx, withdrawal, model.WithdrawalStatusRejected, processedBy)
	})

	if err != nil {
		return err
	}

	log.Printf("提现驳回退款: withdrawalNo=%s, telegramID=%d, points=%s",
		withdrawal.WithdrawalNo, withdrawal.TelegramID, withdrawal.Points.String())
	return nil
}

// MarkPaid 标记打款完成，approved -> paid，不动余额
func (s *WithdrawalService) MarkPaid(ctx context.Context, withdrawalID int64, processedBy, adminNote string) error {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.withdrawalRepo.UpdateStatus(ctx, tx, withdrawalID, model.WithdrawalStatusApproved, model.WithdrawalStatusPaid, processedBy, adminNote); err != nil {
			if errors.Is(err, repository.ErrWithdrawalStatusInvalid) {
				return ErrInvalidTransition
			}
			return fmt.Errorf("更新提现单状态失败: %w", err)
		}
		return s.writeResultMessage(ctx, tx, withdrawal, model.WithdrawalStatusPaid, processedBy)
	})

	if err != nil {
		return err
	}

	log.Printf("提现已打款: withdrawalNo=%s, telegramID=%d", withdrawal.WithdrawalNo, withdrawal.TelegramID)
	return nil
}

func (s *WithdrawalService) writeResultMessage(ctx context.Context, tx *gorm.DB, withdrawal *model.Withdrawal, status, processedBy string) error {
	msgPayload := map[string]interface{}{
		"withdrawal_no": withdrawal.WithdrawalNo,
		"telegram_id":   withdrawal.TelegramID,
		"points":        withdrawal.Points.String(),
		"amount":        withdrawal.Amount.String(),
		"status":        status,
		"processed_by":  processedBy,
		"processed_at":  time.Now().Format(time.RFC3339),
	}
	payloadBytes, _ := json.Marshal(msgPayload)

	outboxMsg := &model.OutboxMessage{
		MessageKey: withdrawal.WithdrawalNo,
		Topic:      s.cfg.Kafka.Topic.WithdrawalResult,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}

// History 用户提现记录，倒序，条数由配置限定
func (s *WithdrawalService) History(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error) {
	if _, err := s.userRepo.GetByTelegramID(ctx, telegramID); err != nil {
		return nil, err
	}
	return s.withdrawalRepo.ListByTelegramID(ctx, telegramID, s.cfg.Business.RequestHistoryLimit)
}

func (s *WithdrawalService) ListAll(ctx context.Context) ([]*model.Withdrawal, error) {
	return s.withdrawalRepo.ListAll(ctx)
}
