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
	"pointsgame/internal/game"
	"pointsgame/internal/infrastructure/lock"
	"pointsgame/internal/model"
	"pointsgame/internal/repository"
	"pointsgame/pkg/idgen"
)

// GameService 游戏结算引擎
// 一次 Play = 校验资格 -> 判定输赢 -> 单事务内改余额/统计 + 落结算记录 + 写发件箱
type GameService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	resolver    *game.Resolver
	userRepo    *repository.UserRepository
	sessionRepo *repository.SessionRepository
	outboxRepo  *repository.OutboxRepository
}

func NewGameService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *GameService {
	return &GameService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		resolver:    game.NewResolver(),
		userRepo:    repository.NewUserRepository(db),
		sessionRepo: repository.NewSessionRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type PlayRequest struct {
	TelegramID int64                  `json:"telegram_id" binding:"required"`
	GameType   string                 `json:"game_type" binding:"required"`
	BetAmount  decimal.Decimal        `json:"bet_amount" binding:"required"`
	GameData   map[string]interface{} `json:"game_data"`
}

type PlayResponse struct {
	Result       string                 `json:"result"`
	Multiplier   float64                `json:"multiplier"`
	PointsChange float64                `json:"points_change"`
	NewBalance   float64                `json:"new_balance"`
	GameData     map[string]interface{} `json:"game_data"`
}

// settlement 单局结算的全部数字，由纯函数 settleOutcome 计算，便于单测对账
type settlement struct {
	winAmount    decimal.Decimal // win 时 = bet * multiplier，loss 时为 0
	lossAmount   decimal.Decimal // loss 时 = bet，win 时为 0
	pointsChange decimal.Decimal // 有符号积分变动
}

// settleOutcome 按判定结果计算结算数字，固定小数运算，不走浮点
// win:  points_change = bet*multiplier - bet
// loss: points_change = -bet
func settleOutcome(betAmount decimal.Decimal, outcome game.Outcome) settlement {
	if outcome.IsWin() {
		winAmount := betAmount.Mul(outcome.Multiplier)
		return settlement{
			winAmount:    winAmount,
			lossAmount:   decimal.Zero,
			pointsChange: winAmount.Sub(betAmount),
		}
	}
	return settlement{
		winAmount:    decimal.Zero,
		lossAmount:   betAmount,
		pointsChange: betAmount.Neg(),
	}
}

// paramsFromGameData 把客户端上传的 game_data 转成判定参数
// 字段缺失取零值，mines 缺省为 3（与客户端默认布雷数一致）
func paramsFromGameData(gameData map[string]interface{}) game.Params {
	params := game.Params{Mines: 3}
	if gameData == nil {
		return params
	}

	if v, ok := gameData["multiplier"]; ok {
		if d, err := decimal.NewFromString(fmt.Sprintf("%v", v)); err == nil {
			params.Multiplier = d
		}
	}
	if v, ok := gameData["won"].(bool); ok {
		params.Won = v
	}
	if v, ok := gameData["hit_mine"].(bool); ok {
		params.HitMine = v
	}
	if v, ok := gameData["revealed"].(float64); ok {
		params.Revealed = int(v)
	}
	if v, ok := gameData["mines"].(float64); ok {
		params.Mines = int(v)
	}
	return params
}

// Play 下注并结算一局
//
// 【关键点】结算是整个系统最核心的操作，需要保证：
// 1. 资格校验：封禁用户、余额不足的请求不产生任何变更
// 2. 原子性：余额/统计变更、结算记录、发件箱消息必须同时成功或同时失败
// 3. 并发安全：同一用户的两笔并发下注必须串行化，
//    通过按用户维度的分布式锁 + 余额条件更新 + 乐观锁版本号三重保证
func (s *GameService) Play(ctx context.Context, req *PlayRequest) (*PlayResponse, error) {
	if !req.BetAmount.IsPositive() {
		return nil, ErrInvalidBetAmount
	}

	user, err := s.userRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}

	if user.IsBanned {
		return nil, ErrUserBanned
	}

	if user.Balance.LessThan(req.BetAmount) {
		return nil, repository.ErrBalanceNotEnough
	}

	// 先判定输赢再进事务，判定是纯计算，失败时不留任何痕迹
	outcome, err := s.resolver.Resolve(req.GameType, req.BetAmount, paramsFromGameData(req.GameData))
	if err != nil {
		return nil, err
	}

	// 按用户维度加锁，同一用户的并发下注串行化
	playLock := lock.NewPlayLock(s.redisClient, req.TelegramID)
	err = playLock.Lock(ctx, 100*time.Millisecond, 30)
	if err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer playLock.Unlock(ctx)

	// 拿到锁后重读，取最新余额和版本号
	user, err = s.userRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}
	if user.Balance.LessThan(req.BetAmount) {
		return nil, repository.ErrBalanceNotEnough
	}

	result := settleOutcome(req.BetAmount, outcome)
	balanceAfter := user.Balance.Sub(req.BetAmount).Add(result.winAmount)

	gameDataBytes, _ := json.Marshal(req.GameData)
	sessionNo := idgen.GenerateSessionNo()

	session := &model.GameSession{
		SessionNo:    sessionNo,
		UserID:       user.ID,
		TelegramID:   user.TelegramID,
		GameType:     req.GameType,
		BetAmount:    req.BetAmount,
		Result:       outcome.Result,
		Multiplier:   outcome.Multiplier,
		PointsChange: result.pointsChange,
		BalanceAfter: balanceAfter,
		GameData:     string(gameDataBytes),
	}

	// 结算事务
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.ApplySettlement(ctx, tx, req.TelegramID, req.BetAmount, result.winAmount, result.lossAmount, user.Version); err != nil {
			if errors.Is(err, repository.ErrBalanceNotEnough) {
				return err
			}
			if errors.Is(err, repository.ErrOptimisticLock) {
				return err
			}
			return fmt.Errorf("结算扣款失败: %w", err)
		}

		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return fmt.Errorf("记录结算失败: %w", err)
		}

		msgPayload := map[string]interface{}{
			"session_no":    sessionNo,
			"telegram_id":   user.TelegramID,
			"game_type":     req.GameType,
			"bet_amount":    req.BetAmount.String(),
			"result":        outcome.Result,
			"multiplier":    outcome.Multiplier.String(),
			"points_change": result.pointsChange.String(),
			"balance_after": balanceAfter.String(),
			"settled_at":    time.Now().Format(time.RFC3339),
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: sessionNo,
			Topic:      s.cfg.Kafka.Topic.GameResult,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("结算完成: sessionNo=%s, telegramID=%d, game=%s, result=%s, pointsChange=%s",
		sessionNo, user.TelegramID, req.GameType, outcome.Result, result.pointsChange.String())

	multiplierFloat, _ := outcome.Multiplier.Float64()
	pointsChangeFloat, _ := result.pointsChange.Float64()
	newBalanceFloat, _ := balanceAfter.Float64()

	return &PlayResponse{
		Result:       outcome.Result,
		Multiplier:   multiplierFloat,
		PointsChange: pointsChangeFloat,
		NewBalance:   newBalanceFloat,
		GameData:     req.GameData,
	}, nil
}

// History 最近结算记录，倒序，条数由配置限定，同时返回生涯总局数
func (s *GameService) History(ctx context.Context, telegramID int64) ([]*model.GameSession, int64, error) {
	if _, err := s.userRepo.GetByTelegramID(ctx, telegramID); err != nil {
		return nil, 0, err
	}

	sessions, err := s.sessionRepo.ListByTelegramID(ctx, telegramID, s.cfg.Business.SessionHistoryLimit)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.sessionRepo.CountByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

type GameStatus struct {
	IsEnabled          bool   `json:"is_enabled"`
	MaintenanceMessage string `json:"maintenance_message"`
}

// Statuses 各游戏开放状态，目前全部开放
func (s *GameService) Statuses() map[string]GameStatus {
	statuses := make(map[string]GameStatus, len(model.AllGameTypes))
	for _, gameType := range model.AllGameTypes {
		statuses[gameType] = GameStatus{IsEnabled: true}
	}
	return statuses
}
