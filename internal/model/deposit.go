package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DepositStatusPending  = "pending"
	DepositStatusApproved = "approved"
	DepositStatusRejected = "rejected"
)

// ValidDepositTransitions 充值申请状态机
// approved / rejected 为终态
var ValidDepositTransitions = map[string][]string{
	DepositStatusPending: {DepositStatusApproved, DepositStatusRejected},
}

func CanDepositTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidDepositTransitions[currentStatus]
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

// Deposit 充值申请表
// 用户提交凭证后由管理员人工审核，approve 是唯一给账户加积分的路径
type Deposit struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	DepositNo    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"deposit_no"`
	UserID       int64           `gorm:"index;not null" json:"user_id"`
	TelegramID   int64           `gorm:"index;not null" json:"telegram_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"` // 法币金额（Birr）
	Points       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"points"` // 审核通过后入账的积分
	Status       string          `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	PaymentProof string          `gorm:"type:text" json:"payment_proof"`
	AdminNote    string          `gorm:"type:text" json:"admin_note"`
	ProcessedBy  string          `gorm:"type:varchar(255)" json:"processed_by"`
	ProcessedAt  *time.Time      `json:"processed_at"`
	CreatedAt    time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Deposit) TableName() string {
	return "deposits"
}
