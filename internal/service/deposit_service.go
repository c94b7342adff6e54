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

// DepositService 充值申请的提交与人工审核
// approve 是唯一给账户加积分的路径，状态流转和入账在同一事务内完成
type DepositService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	userRepo        *repository.UserRepository
	depositRepo     *repository.DepositRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewDepositService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *DepositService {
	return &DepositService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		userRepo:        repository.NewUserRepository(db),
		depositRepo:     repository.NewDepositRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

type DepositRequest struct {
	TelegramID   int64           `json:"telegram_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Points       decimal.Decimal `json:"points" binding:"required"`
	PaymentProof string          `json:"payment_proof"`
}

// Request 提交充值申请，初始状态 pending，不动余额
func (s *DepositService) Request(ctx context.Context, req *DepositRequest) (*model.Deposit, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}

	if user.IsBanned {
		return nil, ErrUserBanned
	}

	deposit := &model.Deposit{
		DepositNo:    idgen.GenerateDepositNo(),
		UserID:       user.ID,
		TelegramID:   user.TelegramID,
		Amount:       req.Amount,
		Points:       req.Points,
		Status:       model.DepositStatusPending,
		PaymentProof: req.PaymentProof,
	}

	if err := s.depositRepo.Create(ctx, nil, deposit); err != nil {
		return nil, err
	}

	return deposit, nil
}

// Approve 审核通过并入账
//
// 【关键点】入账只能发生一次：
// 1. 按充值单维度加分布式锁，挡住并发审核
// 2. 状态流转带 fromStatus 条件，重复审核命中 0 行即返回 AlreadyProcessed
// 3. 状态流转 + 入账 + 流水 + 发件箱在同一事务，崩溃不会出现"已审未入账"
func (s *DepositService) Approve(ctx context.Context, depositID int64, processedBy, adminNote string) error {
	deposit, err := s.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return err
	}

	if deposit.Status != model.DepositStatusPending {
		return ErrAlreadyProcessed
	}

	processLock := lock.NewDepositLock(s.redisClient, depositID)
	err = processLock.Lock(ctx, 100*time.Millisecond, 30)
	if err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer processLock.Unlock(ctx)

	// 幂等兜底：该单号已有入账流水说明上一次审核已经完成
	existing, err := s.transactionRepo.GetByRefNoAndType(ctx, deposit.DepositNo, model.TransactionTypeDeposit)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyProcessed
	}

	user, err := s.userRepo.GetByTelegramID(ctx, deposit.TelegramID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.depositRepo.UpdateStatus(ctx, tx, depositID, model.DepositStatusPending, model.DepositStatusApproved, processedBy, adminNote); err != nil {
			if errors.Is(err, repository.ErrDepositStatusInvalid) {
				return ErrAlreadyProcessed
			}
			return fmt.Errorf("更新充值单状态失败: %w", err)
		}

		if err := s.userRepo.Credit(ctx, tx, deposit.TelegramID, deposit.Points); err != nil {
			return fmt.Errorf("充值入账失败: %w", err)
		}

		transaction := &model.PointsTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			UserID:        deposit.UserID,
			TelegramID:    deposit.TelegramID,
			RefNo:         deposit.DepositNo,
			Amount:        deposit.Points,
			Type:          model.TransactionTypeDeposit,
			BalanceBefore: user.Balance,
			BalanceAfter:  user.Balance.Add(deposit.Points),
			Remark:        fmt.Sprintf("充值入账-%s", deposit.DepositNo),
		}
		if err := s.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		return s.writeResultMessage(ctx, tx, deposit, model.DepositStatusApproved, processedBy)
	})

	if err != nil {
		return err
	}

	log.Printf("充值审核通过: depositNo=%s, telegramID=%d, points=%s",
		deposit.DepositNo, deposit.TelegramID, deposit.Points.String())
	return nil
}

// Reject 审核驳回，只推进状态，不动余额
func (s *DepositService) Reject(ctx context.Context, depositID int64, processedBy, adminNote string) error {
	deposit, err := s.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return err
	}

	if deposit.Status != model.DepositStatusPending {
		return ErrAlreadyProcessed
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.depositRepo.UpdateStatus(ctx, tx, depositID, model.DepositStatusPending, model.DepositStatusRejected, processedBy, adminNote); err != nil {
			if errors.Is(err, repository.ErrDepositStatusInvalid) {
				return ErrAlreadyProcessed
			}
			return fmt.Errorf("更新充值单状态失败: %w", err)
		}

		return s.writeResultMessage(ctx, tx, deposit, model.DepositStatusRejected, processedBy)
	})

	if err != nil {
		return err
	}

	log.Printf("充值审核驳回: depositNo=%s, telegramID=%d", deposit.DepositNo, deposit.TelegramID)
	return nil
}

func (s *DepositService) writeResultMessage(ctx context.Context, tx *gorm.DB, deposit *model.Deposit, status, processedBy string) error {
	msgPayload := map[string]interface{}{
		"deposit_no":   deposit.DepositNo,
		"telegram_id":  deposit.TelegramID,
		"amount":       deposit.Amount.String(),
		"points":       deposit.Points.String(),
		"status":       status,
		"processed_by": processedBy,
		"processed_at": time.Now().Format(time.RFC3339),
	}
	payloadBytes, _ := json.Marshal(msgPayload)

	outboxMsg := &model.OutboxMessage{
		MessageKey: deposit.DepositNo,
		Topic:      s.cfg.Kafka.Topic.DepositResult,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}

// History 用户充值记录，倒序，条数由配置限定
func (s *DepositService) History(ctx context.Context, telegramID int64) ([]*model.Deposit, error) {
	if _, err := s.userRepo.GetByTelegramID(ctx, telegramID); err != nil {
		return nil, err
	}
	return s.depositRepo.ListByTelegramID(ctx, telegramID, s.cfg.Business.RequestHistoryLimit)
}

func (s *DepositService) ListAll(ctx context.Context) ([]*model.Deposit, error) {
	return s.depositRepo.ListAll(ctx)
}
