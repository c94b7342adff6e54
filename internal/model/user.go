package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User 用户账户表
// 以 Telegram ID 为外部身份，记录用户的积分余额和累计统计
// 余额和统计字段只能通过 service 层的结算入口修改
type User struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramID   int64           `gorm:"uniqueIndex;not null" json:"telegram_id"` // Telegram 用户ID，外部身份标识
	Username     string          `gorm:"type:varchar(255)" json:"username"`
	FirstName    string          `gorm:"type:varchar(255)" json:"first_name"`
	LastName     string          `gorm:"type:varchar(255)" json:"last_name"`
	Balance      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`       // 可用积分余额，任何已提交的变更后必须 >= 0
	TotalWagered decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_wagered"` // 累计下注（只增不减）
	TotalWon     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_won"`     // 累计赢取（只增不减）
	TotalLost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_lost"`    // 累计输掉（只增不减）
	GamesPlayed  int             `gorm:"not null;default:0" json:"games_played"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	IsBanned     bool            `gorm:"not null;default:false" json:"is_banned"`
	IsAdmin      bool            `gorm:"not null;default:false" json:"is_admin"`
	Version      int             `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	LastLogin    *time.Time      `json:"last_login"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Profit 累计盈亏 = 累计赢取 - 累计输掉
func (u *User) Profit() decimal.Decimal {
	return u.TotalWon.Sub(u.TotalLost)
}
