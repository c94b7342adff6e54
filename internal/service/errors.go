package service

import "errors"

// 领域错误，全部为终态、不可重试，由 handler 映射为稳定的响应码
// （可重试的事务冲突是 repository.ErrOptimisticLock，与这里区分开）
var (
	ErrUserBanned        = errors.New("账户已被封禁")
	ErrNotAdmin          = errors.New("无管理员权限")
	ErrInvalidBetAmount  = errors.New("下注金额必须大于0")
	ErrBelowMinimum      = errors.New("低于最低提现额度")
	ErrAlreadyProcessed  = errors.New("已处理，请勿重复操作")
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
)
