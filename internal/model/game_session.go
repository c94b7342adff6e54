package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 游戏类型常量
// ============================================================================

const (
	GameTypePlinko = "plinko"
	GameTypeSlots  = "slots"
	GameTypeWheel  = "wheel"
	GameTypeCards  = "cards"
	GameTypeMining = "mining"
)

// AllGameTypes 全部游戏类型，顺序固定
var AllGameTypes = []string{
	GameTypePlinko,
	GameTypeSlots,
	GameTypeWheel,
	GameTypeCards,
	GameTypeMining,
}

const (
	GameResultWin  = "win"
	GameResultLoss = "loss"
)

// GameSession 游戏结算记录表
// 每一局游戏一条记录，只追加，不修改，不删除
//
// 自洽校验：win 时 points_change = bet_amount*multiplier - bet_amount，
// loss 时 points_change = -bet_amount；balance_after 等于本次结算后的用户余额
type GameSession struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionNo    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_no"` // 局号（全局唯一）
	UserID       int64           `gorm:"index;not null" json:"user_id"`
	TelegramID   int64           `gorm:"index;not null" json:"telegram_id"`
	GameType     string          `gorm:"type:varchar(20);index;not null" json:"game_type"`
	BetAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"bet_amount"`
	Result       string          `gorm:"type:varchar(10);not null" json:"result"` // win / loss
	Multiplier   decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"multiplier"`
	PointsChange decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"points_change"` // 有符号积分变动
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"` // 结算后余额快照
	GameData     string          `gorm:"type:text" json:"game_data"`                       // 客户端上传的游戏数据，原样保存
	CreatedAt    time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (GameSession) TableName() string {
	return "game_sessions"
}
