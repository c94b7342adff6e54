package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 流水类型常量
// ============================================================================

const (
	TransactionTypeDeposit     = "DEPOSIT"      // 充值审核通过入账
	TransactionTypeWithdraw    = "WITHDRAW"     // 提现申请扣款
	TransactionTypeRefund      = "REFUND"       // 提现驳回退款
	TransactionTypeAdminCredit = "ADMIN_CREDIT" // 管理员手工加分
)

// ============================================================================
// 积分流水实体
// ============================================================================

// PointsTransaction 积分流水表
// 记录充值/提现/退款/手工加分的每一笔余额变动，是对账的核心依据
// （游戏结算的变动记录在 game_sessions 表，自带 balance_after 快照）
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 每笔流水必须关联业务单号 —— 便于对账
// 3. 记录交易前后余额 —— 便于校验余额一致性
type PointsTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	TelegramID    int64           `gorm:"index;not null" json:"telegram_id"`
	RefNo         string          `gorm:"type:varchar(64);index;not null" json:"ref_no"` // 关联业务单号（充值单/提现单）
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`     // 变动积分（正数入账，负数出账）
	Type          string          `gorm:"type:varchar(20);not null" json:"type"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	Remark        string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (PointsTransaction) TableName() string {
	return "points_transaction"
}
