package job

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"pointsgame/internal/config"
	"pointsgame/internal/model"
	"pointsgame/internal/repository"
)

// PendingRequestReminder 挂单提醒任务
// 定期扫描挂起过久的充值/提现申请，写管理员告警消息到发件箱
// 申请本身不做任何状态变更，人工审核是唯一的推进路径
type PendingRequestReminder struct {
	db             *gorm.DB
	depositRepo    *repository.DepositRepository
	withdrawalRepo *repository.WithdrawalRepository
	outboxRepo     *repository.OutboxRepository
	cfg            *config.Config
	stopCh         chan struct{}
	interval       time.Duration
	batchSize      int
}

func NewPendingRequestReminder(db *gorm.DB, cfg *config.Config) *PendingRequestReminder {
	return &PendingRequestReminder{
		db:             db,
		depositRepo:    repository.NewDepositRepository(db),
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		outboxRepo:     repository.NewOutboxRepository(db),
		cfg:            cfg,
		stopCh:         make(chan struct{}),
		interval:       10 * time.Minute,
		batchSize:      100,
	}
}

func (j *PendingRequestReminder) Start(ctx context.Context) {
	log.Println("[PendingRequestReminder] 挂单提醒任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[PendingRequestReminder] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[PendingRequestReminder] 任务停止")
			return
		case <-ticker.C:
			j.remindStaleRequests(ctx)
		}
	}
}

func (j *PendingRequestReminder) Stop() {
	close(j.stopCh)
}

func (j *PendingRequestReminder) remindStaleRequests(ctx context.Context) {
	beforeTime := time.Now().Add(-time.Duration(j.cfg.Business.PendingReminderHours) * time.Hour)

	deposits, err := j.depositRepo.ListPendingBefore(ctx, beforeTime, j.batchSize)
	if err != nil {
		log.Printf("[PendingRequestReminder] 查询挂起充值单失败: %v", err)
	} else {
		for _, deposit := range deposits {
			j.writeAlert(ctx, "deposit", deposit.DepositNo, deposit.TelegramID, deposit.CreatedAt)
		}
	}

	withdrawals, err := j.withdrawalRepo.ListPendingBefore(ctx, beforeTime, j.batchSize)
	if err != nil {
		log.Printf("[PendingRequestReminder] 查询挂起提现单失败: %v", err)
	} else {
		for _, withdrawal := range withdrawals {
			j.writeAlert(ctx, "withdrawal", withdrawal.WithdrawalNo, withdrawal.TelegramID, withdrawal.CreatedAt)
		}
	}
}

func (j *PendingRequestReminder) writeAlert(ctx context.Context, kind, refNo string, telegramID int64, createdAt time.Time) {
	msgPayload := map[string]interface{}{
		"kind":        kind,
		"ref_no":      refNo,
		"telegram_id": telegramID,
		"pending_for": time.Since(createdAt).String(),
		"created_at":  createdAt.Format(time.RFC3339),
	}
	payloadBytes, _ := json.Marshal(msgPayload)

	outboxMsg := &model.OutboxMessage{
		MessageKey: refNo,
		Topic:      j.cfg.Kafka.Topic.AdminAlert,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := j.outboxRepo.Create(ctx, nil, outboxMsg); err != nil {
		log.Printf("[PendingRequestReminder] 写入告警消息失败: refNo=%s, err=%v", refNo, err)
		return
	}
	log.Printf("[PendingRequestReminder] 挂单提醒: kind=%s, refNo=%s, telegramID=%d", kind, refNo, telegramID)
}
