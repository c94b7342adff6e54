package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pointsgame/internal/config"
	"pointsgame/internal/game"
	"pointsgame/internal/repository"
	"pointsgame/internal/service"
	"pointsgame/pkg/response"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	authService       *service.AuthService
	gameService       *service.GameService
	depositService    *service.DepositService
	withdrawalService *service.WithdrawalService
	adminService      *service.AdminService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		authService:       service.NewAuthService(db, cfg),
		gameService:       service.NewGameService(db, rdb, cfg),
		depositService:    service.NewDepositService(db, rdb, cfg),
		withdrawalService: service.NewWithdrawalService(db, rdb, cfg),
		adminService:      service.NewAdminService(db),
	}
}

// writeError 把领域错误映射为稳定的错误码/文案，未识别的错误归为服务端错误
// 乐观锁冲突走 500 系，调用方可安全重试（事务保证无半截状态）
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		response.BusinessError(c, response.CodeUserNotFound, err.Error())
	case errors.Is(err, service.ErrUserBanned):
		response.BusinessError(c, response.CodeUserBanned, err.Error())
	case errors.Is(err, service.ErrNotAdmin):
		response.BusinessError(c, response.CodeNotAdmin, err.Error())
	case errors.Is(err, service.ErrInvalidBetAmount):
		response.ParamError(c, err.Error())
	case errors.Is(err, repository.ErrBalanceNotEnough):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, game.ErrInvalidGameType):
		response.BusinessError(c, response.CodeInvalidGameType, err.Error())
	case errors.Is(err, repository.ErrDepositNotFound):
		response.BusinessError(c, response.CodeDepositNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyProcessed):
		response.BusinessError(c, response.CodeAlreadyProcessed, err.Error())
	case errors.Is(err, repository.ErrWithdrawalNotFound):
		response.BusinessError(c, response.CodeWithdrawalNotFound, err.Error())
	case errors.Is(err, service.ErrBelowMinimum):
		response.BusinessError(c, response.CodeBelowMinimum, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		response.BusinessError(c, response.CodeInvalidTransition, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

func telegramIDQuery(c *gin.Context, key string) (int64, bool) {
	idStr := c.Query(key)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.ParamError(c, key+" 参数错误")
		return 0, false
	}
	return id, true
}

// ============================================================
// 认证与用户接口
// ============================================================

// TelegramAuth 通过 Telegram 身份登录/建号
// POST /api/v1/auth/telegram
func (h *Handler) TelegramAuth(c *gin.Context) {
	var req service.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Authenticate(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// GetBalance 查询用户余额
// GET /api/v1/user/balance?telegram_id=xxx
func (h *Handler) GetBalance(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c, "telegram_id")
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), telegramID)
	if err != nil {
		writeError(c, err)
		return
	}

	balance, _ := user.Balance.Float64()
	response.Success(c, gin.H{
		"telegram_id": user.TelegramID,
		"balance":     balance,
	})
}

// GetStats 查询用户生涯统计
// GET /api/v1/user/stats?telegram_id=xxx
func (h *Handler) GetStats(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c, "telegram_id")
	if !ok {
		return
	}

	stats, err := h.authService.Stats(c.Request.Context(), telegramID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}

// GetTransactions 查询用户积分流水（分页）
// GET /api/v1/user/transactions?telegram_id=xxx&page=1&page_size=20
func (h *Handler) GetTransactions(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c, "telegram_id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	transactions, total, err := h.authService.Transactions(c.Request.Context(), telegramID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"transactions": transactions,
		"total":        total,
	})
}

// ============================================================
// 游戏接口
// ============================================================

// Play 下注并结算一局
// POST /api/v1/game/play
//
// 【关键点】结算是整个系统最核心的操作，见 GameService.Play
func (h *Handler) Play(c *gin.Context) {
	var req service.PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.gameService.Play(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// GameHistory 最近游戏记录
// GET /api/v1/game/history?telegram_id=xxx
func (h *Handler) GameHistory(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c, "telegram_id")
	if !ok {
		return
	}

	sessions, total, err := h.gameService.History(c.Request.Context(), telegramID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"sessions": sessions,
		"total":    total,
	})
}

// GameStatus 各游戏开放状态
// GET /api/v1/game/status
func (h *Handler) GameStatus(c *gin.Context) {
	response.Success(c, h.gameService.Statuses())
}

// ============================================================
// 充值接口
// ============================================================

// RequestDeposit 提交充值申请
// POST /api/v1/deposit/request
func (h *Handler) RequestDeposit(c *gin.Context) {
	var req service.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	deposit, err := h.depositService.Request(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message": "充值申请已提交，等待管理员审核",
		"deposit": deposit,
	})
}

// DepositHistory 用户充值记录
// GET /api/v1/deposit/history?telegram_id=xxx
func (h *Handler) DepositHistory(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c, "telegram_id")
	if !ok {
		return
	}

	deposits, err := h.depositService.History(c.Request.Context(), telegramID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, deposits)
}

// ============================================================
// 提现接口
// ============================================================

// RequestWithdrawal 提交提现申请（积分立即扣除）
// POST /api/v1/withdrawal/request
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req service.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	withdrawal, err := h.withdrawalService.Request(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message":    "提现申请已提交，管理员将尽快处理",
		"withdrawal": withdrawal,
	})
}

// WithdrawalHistory 用户提现记录
// GET /api/v1/withdrawal/history?telegram_id=xxx
func (h *Handler) WithdrawalHistory(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c, "telegram_id")
	if !ok {
		return
	}

	withdrawals, err := h.withdrawalService.History(c.Request.Context(), telegramID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, withdrawals)
}

// ============================================================
// 管理接口
// 每个接口都按 admin_id 现查管理员身份，不做缓存
// ============================================================

// AdminListUsers 用户列表
// GET /api/v1/admin/users?admin_id=xxx
func (h *Handler) AdminListUsers(c *gin.Context) {
	adminID, ok := telegramIDQuery(c, "admin_id")
	if !ok {
		return
	}

	users, err := h.adminService.ListUsers(c.Request.Context(), adminID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, users)
}

// AdminAddPointsRequest 手工加分请求
type AdminAddPointsRequest struct {
	AdminID int64           `json:"admin_id" binding:"required"`
	UserID  int64           `json:"user_id" binding:"required"`
	Points  decimal.Decimal `json:"points" binding:"required"`
}

// AdminAddPoints 手工加分
// POST /api/v1/admin/points/add
func (h *Handler) AdminAddPoints(c *gin.Context) {
	var req AdminAddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.adminService.AddPoints(c.Request.Context(), req.AdminID, req.UserID, req.Points)
	if err != nil {
		writeError(c, err)
		return
	}

	newBalance, _ := user.Balance.Float64()
	response.Success(c, gin.H{
		"message":     "加分成功",
		"new_balance": newBalance,
	})
}

// AdminBanUserRequest 封禁/解封请求
type AdminBanUserRequest struct {
	AdminID int64 `json:"admin_id" binding:"required"`
	UserID  int64 `json:"user_id" binding:"required"`
	Ban     *bool `json:"ban" binding:"required"`
}

// AdminBanUser 封禁/解封用户
// POST /api/v1/admin/user/ban
func (h *Handler) AdminBanUser(c *gin.Context) {
	var req AdminBanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.adminService.SetBanned(c.Request.Context(), req.AdminID, req.UserID, *req.Ban); err != nil {
		writeError(c, err)
		return
	}

	message := "已解封"
	if *req.Ban {
		message = "已封禁"
	}
	response.Success(c, gin.H{"message": message})
}

// AdminListDeposits 全部充值单
// GET /api/v1/admin/deposits?admin_id=xxx
func (h *Handler) AdminListDeposits(c *gin.Context) {
	adminID, ok := telegramIDQuery(c, "admin_id")
	if !ok {
		return
	}

	if _, err := h.adminService.RequireAdmin(c.Request.Context(), adminID); err != nil {
		writeError(c, err)
		return
	}

	deposits, err := h.depositService.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, deposits)
}

// AdminProcessDepositRequest 充值审核请求
type AdminProcessDepositRequest struct {
	AdminID   int64  `json:"admin_id" binding:"required"`
	DepositID int64  `json:"deposit_id" binding:"required"`
	AdminNote string `json:"admin_note"`
}

// AdminApproveDeposit 充值审核通过并入账
// POST /api/v1/admin/deposit/approve
func (h *Handler) AdminApproveDeposit(c *gin.Context) {
	var req AdminProcessDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	admin, err := h.adminService.RequireAdmin(c.Request.Context(), req.AdminID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.depositService.Approve(c.Request.Context(), req.DepositID, admin.Username, req.AdminNote); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "充值已审核通过，积分已入账"})
}

// AdminRejectDeposit 充值审核驳回
// POST /api/v1/admin/deposit/reject
func (h *Handler) AdminRejectDeposit(c *gin.Context) {
	var req AdminProcessDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	admin, err := h.adminService.RequireAdmin(c.Request.Context(), req.AdminID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.depositService.Reject(c.Request.Context(), req.DepositID, admin.Username, req.AdminNote); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "充值已驳回"})
}

// AdminListWithdrawals 全部提现单
// GET /api/v1/admin/withdrawals?admin_id=xxx
func (h *Handler) AdminListWithdrawals(c *gin.Context) {
	adminID, ok := telegramIDQuery(c, "admin_id")
	if !ok {
		return
	}

	if _, err := h.adminService.RequireAdmin(c.Request.Context(), adminID); err != nil {
		writeError(c, err)
		return
	}

	withdrawals, err := h.withdrawalService.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, withdrawals)
}

// AdminProcessWithdrawalRequest 提现处理请求
type AdminProcessWithdrawalRequest struct {
	AdminID      int64  `json:"admin_id" binding:"required"`
	WithdrawalID int64  `json:"withdrawal_id" binding:"required"`
	Action       string `json:"action" binding:"required"` // approve / reject / paid
	AdminNote    string `json:"admin_note"`
}

// AdminProcessWithdrawal 提现审核/驳回/标记打款
// POST /api/v1/admin/withdrawal/process
func (h *Handler) AdminProcessWithdrawal(c *gin.Context) {
	var req AdminProcessWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	admin, err := h.adminService.RequireAdmin(c.Request.Context(), req.AdminID)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case "approve":
		err = h.withdrawalService.Approve(ctx, req.WithdrawalID, admin.Username, req.AdminNote)
	case "reject":
		err = h.withdrawalService.Reject(ctx, req.WithdrawalID, admin.Username, req.AdminNote)
	case "paid":
		err = h.withdrawalService.MarkPaid(ctx, req.WithdrawalID, admin.Username, req.AdminNote)
	default:
		response.ParamError(c, "无效的 action: "+req.Action)
		return
	}

	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "处理成功"})
}
