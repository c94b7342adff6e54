package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
	WithdrawalStatusPaid     = "paid"
)

// ValidWithdrawalTransitions 提现申请状态机
// rejected / paid 为终态；approve 和 paid 都不再动余额（积分在申请时已扣）
var ValidWithdrawalTransitions = map[string][]string{
	WithdrawalStatusPending:  {WithdrawalStatusApproved, WithdrawalStatusRejected},
	WithdrawalStatusApproved: {WithdrawalStatusPaid},
}

func CanWithdrawalTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidWithdrawalTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Withdrawal 提现申请表
//
// 【重要】积分在申请时即从余额扣除（悲观预留），不是在审核时：
//   - reject 将预留的积分原数退回
//   - approve / paid 只推进状态，不再碰余额
type Withdrawal struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	WithdrawalNo   string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdrawal_no"`
	UserID         int64           `gorm:"index;not null" json:"user_id"`
	TelegramID     int64           `gorm:"index;not null" json:"telegram_id"`
	Points         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"points"` // 申请时已扣除的积分
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"` // 等值法币金额，1积分=1 Birr
	PaymentMethod  string          `gorm:"type:varchar(100);not null" json:"payment_method"`
	PaymentDetails string          `gorm:"type:text;not null" json:"payment_details"`
	Status         string          `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	AdminNote      string          `gorm:"type:text" json:"admin_note"`
	ProcessedBy    string          `gorm:"type:varchar(255)" json:"processed_by"`
	ProcessedAt    *time.Time      `json:"processed_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
