package game

import (
	"errors"
	"math/rand"

	"github.com/shopspring/decimal"

	"pointsgame/internal/model"
)

var ErrInvalidGameType = errors.New("无效的游戏类型")

// ============================================================================
// 游戏结果判定
// ============================================================================
//
// 【信任边界】plinko / wheel / cards / mining 的输赢标志由客户端上报
// （物理/动画在客户端本地计算），服务端只做合法性校验后照单结算。
// slots 是唯一由服务端自主抽奖的游戏，随机源可注入以便测试。

// Params 客户端上传的游戏参数
// 不同游戏只用到其中一部分字段，未上传的字段取零值
type Params struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Won        bool            `json:"won"`
	HitMine    bool            `json:"hit_mine"`
	Revealed   int             `json:"revealed"`
	Mines      int             `json:"mines"`
}

// Outcome 单局判定结果
type Outcome struct {
	Result     string          // win / loss
	Multiplier decimal.Decimal // 赔率，loss 时为 0
}

func (o Outcome) IsWin() bool {
	return o.Result == model.GameResultWin
}

// Resolver 按游戏类型判定单局输赢，纯计算，无副作用
type Resolver struct {
	randFloat func() float64 // slots 抽奖随机源，测试时注入固定值
}

func NewResolver() *Resolver {
	return &Resolver{randFloat: rand.Float64}
}

// NewResolverWithRand 使用指定随机源创建判定器（测试用）
func NewResolverWithRand(randFloat func() float64) *Resolver {
	return &Resolver{randFloat: randFloat}
}

// Resolve 判定一局游戏
// 未知的 gameType 返回 ErrInvalidGameType
func (r *Resolver) Resolve(gameType string, betAmount decimal.Decimal, params Params) (Outcome, error) {
	switch gameType {
	case model.GameTypePlinko:
		return r.resolvePlinko(params), nil
	case model.GameTypeSlots:
		return r.resolveSlots(), nil
	case model.GameTypeWheel:
		return r.resolveWheel(params), nil
	case model.GameTypeCards:
		return r.resolveCards(params), nil
	case model.GameTypeMining:
		return r.resolveMining(params), nil
	default:
		return Outcome{}, ErrInvalidGameType
	}
}

var (
	decimalOne        = decimal.NewFromInt(1)
	decimalThree      = decimal.NewFromInt(3)
	decimalTen        = decimal.NewFromInt(10)
	decimalCardsWin   = decimal.RequireFromString("2.5")
	decimalSlotsMid   = decimal.NewFromInt(3)
	decimalSlotsLow   = decimal.RequireFromString("1.5")
	decimalMiningStep = decimal.RequireFromString("0.2")
)

func loss() Outcome {
	return Outcome{Result: model.GameResultLoss, Multiplier: decimal.Zero}
}

// resolvePlinko 客户端上报赔率与输赢标志，赔率 >= 1 才算赢
func (r *Resolver) resolvePlinko(params Params) Outcome {
	if params.Won && params.Multiplier.GreaterThanOrEqual(decimalOne) {
		return Outcome{Result: model.GameResultWin, Multiplier: params.Multiplier}
	}
	return loss()
}

// resolveSlots 服务端抽奖：1% 中 10 倍，4% 中 3 倍，10% 中 1.5 倍，其余输
func (r *Resolver) resolveSlots() Outcome {
	rand := r.randFloat()

	if rand < 0.01 {
		return Outcome{Result: model.GameResultWin, Multiplier: decimalTen}
	}
	if rand < 0.05 {
		return Outcome{Result: model.GameResultWin, Multiplier: decimalSlotsMid}
	}
	if rand < 0.15 {
		return Outcome{Result: model.GameResultWin, Multiplier: decimalSlotsLow}
	}
	return loss()
}

// resolveWheel 客户端上报赔率与输赢标志，赔率 > 0 才算赢
func (r *Resolver) resolveWheel(params Params) Outcome {
	if params.Won && params.Multiplier.GreaterThan(decimal.Zero) {
		return Outcome{Result: model.GameResultWin, Multiplier: params.Multiplier}
	}
	return loss()
}

// resolveCards 客户端上报输赢标志，赢固定 2.5 倍
func (r *Resolver) resolveCards(params Params) Outcome {
	if params.Won {
		return Outcome{Result: model.GameResultWin, Multiplier: decimalCardsWin}
	}
	return loss()
}

// resolveMining 没踩雷且至少翻开一格才算赢
// 赔率 = 1.0 + revealed * 0.2 * (mines / 3)
func (r *Resolver) resolveMining(params Params) Outcome {
	if !params.HitMine && params.Revealed > 0 {
		multiplier := decimalOne.Add(
			decimal.NewFromInt(int64(params.Revealed)).
				Mul(decimalMiningStep).
				Mul(decimal.NewFromInt(int64(params.Mines)).Div(decimalThree)),
		)
		return Outcome{Result: model.GameResultWin, Multiplier: multiplier}
	}
	return loss()
}
