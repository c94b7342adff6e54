package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pointsgame/internal/config"
	"pointsgame/internal/model"
	"pointsgame/internal/repository"
)

// AuthService 基于 Telegram 身份的登录/建号
// 管理员身份集合在构造时注入（来自配置），不依赖可变全局变量
type AuthService struct {
	db              *gorm.DB
	cfg             *config.Config
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	adminIDs        map[int64]struct{}
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	adminIDs := make(map[int64]struct{}, len(cfg.Business.AdminTelegramIDs))
	for _, id := range cfg.Business.AdminTelegramIDs {
		adminIDs[id] = struct{}{}
	}
	return &AuthService{
		db:              db,
		cfg:             cfg,
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		adminIDs:        adminIDs,
	}
}

type AuthRequest struct {
	TelegramID int64  `json:"telegram_id" binding:"required"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

type AuthResponse struct {
	User    *model.User `json:"user"`
	IsAdmin bool        `json:"is_admin"`
	Message string      `json:"message"`
}

// Authenticate 按 Telegram ID 取号或建号
// 已存在的账户只刷新展示字段和登录时间，余额和统计绝不重置
func (s *AuthService) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResponse, error) {
	user, created, err := s.userRepo.GetOrCreate(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}

	// 配置里的管理员身份只升不降，避免线上手工提权被配置覆盖
	_, inAdminSet := s.adminIDs[req.TelegramID]
	isAdmin := user.IsAdmin || inAdminSet

	now := time.Now()
	if err := s.userRepo.UpdateProfile(ctx, req.TelegramID, req.Username, req.FirstName, req.LastName, isAdmin, now); err != nil {
		return nil, err
	}

	user, err = s.userRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}

	if user.IsBanned {
		return nil, ErrUserBanned
	}

	message := "Welcome back!"
	if created {
		message = "Welcome!"
	}

	return &AuthResponse{
		User:    user,
		IsAdmin: user.IsAdmin,
		Message: message,
	}, nil
}

func (s *AuthService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

type UserStats struct {
	Balance      float64 `json:"balance"`
	TotalWagered float64 `json:"total_wagered"`
	TotalWon     float64 `json:"total_won"`
	TotalLost    float64 `json:"total_lost"`
	GamesPlayed  int     `json:"games_played"`
	Profit       float64 `json:"profit"`
}

// Stats 账户生涯统计，profit = total_won - total_lost
func (s *AuthService) Stats(ctx context.Context, telegramID int64) (*UserStats, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	balance, _ := user.Balance.Float64()
	totalWagered, _ := user.TotalWagered.Float64()
	totalWon, _ := user.TotalWon.Float64()
	totalLost, _ := user.TotalLost.Float64()
	profit, _ := user.Profit().Float64()

	return &UserStats{
		Balance:      balance,
		TotalWagered: totalWagered,
		TotalWon:     totalWon,
		TotalLost:    totalLost,
		GamesPlayed:  user.GamesPlayed,
		Profit:       profit,
	}, nil
}

// Transactions 积分流水（充值/提现/退款/手工加分），分页倒序
// 游戏结算的变动走 game_sessions 表，不在这份流水里
func (s *AuthService) Transactions(ctx context.Context, telegramID int64, page, pageSize int) ([]*model.PointsTransaction, int64, error) {
	if _, err := s.userRepo.GetByTelegramID(ctx, telegramID); err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.cfg.Business.RequestHistoryLimit
	}

	return s.transactionRepo.ListByTelegramID(ctx, telegramID, page, pageSize)
}
