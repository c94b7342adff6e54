package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pointsgame/pkg/idgen"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【为什么需要分布式锁？】
//
// 场景：同一用户同时发起两笔下注（网络抖动导致重复提交，或多端同时操作）
//
// 如果没有分布式锁：
//   goroutine1: 查询余额=100 -> 通过校验 -> 扣注80
//   goroutine2: 查询余额=100 -> 通过校验 -> 扣注80  余额被扣成 -60！
//
// 加了分布式锁：
//   goroutine1: 获取锁 -> 余额=100 -> 扣注80 -> 余额=20 -> 释放锁
//   goroutine2: 获取锁失败，等待... -> 获取锁 -> 余额=20 -> 余额不足，拒绝
//
// 数据库层还有余额条件更新 + 乐观锁版本号兜底，锁挡住的是绝大多数冲突，
// 漏网的并发由条件更新命中 0 行来拒绝
//
// 【Redis 分布式锁原理】
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：使用 Lua 脚本保证原子性
//
// ============================================================================

var (
	ErrLockFailed  = errors.New("获取分布式锁失败")
	ErrLockExpired = errors.New("锁已过期")
)

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 锁的 value（用于验证锁的持有者）
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
//
// 使用 Lua 脚本保证"检查持有者 + 删除"的原子性：
// 持有锁的调用方处理超时后锁自动过期、被别人拿走，这时不校验 value
// 就会把别人的锁删掉
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================================
// 便捷函数：按业务维度的锁
// ============================================================================

// NewPlayLock 结算锁（按用户维度）
//
// 同一用户的下注结算和提现扣款共用这把锁串行执行；
// 不同用户互不影响，可以完全并发
func NewPlayLock(client *redis.Client, telegramID int64) *DistributedLock {
	key := fmt.Sprintf("play:lock:user:%d", telegramID)
	return NewDistributedLock(client, key, lockValue(), 30*time.Second)
}

// NewDepositLock 充值审核锁（按充值单维度），挡住并发审核同一单
func NewDepositLock(client *redis.Client, depositID int64) *DistributedLock {
	key := fmt.Sprintf("deposit:lock:id:%d", depositID)
	return NewDistributedLock(client, key, lockValue(), 30*time.Second)
}

// NewWithdrawalLock 提现处理锁（按提现单维度）
func NewWithdrawalLock(client *redis.Client, withdrawalID int64) *DistributedLock {
	key := fmt.Sprintf("withdrawal:lock:id:%d", withdrawalID)
	return NewDistributedLock(client, key, lockValue(), 30*time.Second)
}

// lockValue 每次加锁生成唯一持有者标识
func lockValue() string {
	return fmt.Sprintf("%d", idgen.NextID())
}
