package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"pointsgame/internal/game"
	"pointsgame/internal/model"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestSettleOutcomeWin(t *testing.T) {
	bet := dec(t, "20")
	outcome := game.Outcome{Result: model.GameResultWin, Multiplier: dec(t, "2.5")}

	result := settleOutcome(bet, outcome)

	if !result.winAmount.Equal(dec(t, "50")) {
		t.Fatalf("expected winAmount 50, got %s", result.winAmount)
	}
	if !result.lossAmount.IsZero() {
		t.Fatalf("expected lossAmount 0, got %s", result.lossAmount)
	}
	if !result.pointsChange.Equal(dec(t, "30")) {
		t.Fatalf("expected pointsChange 30, got %s", result.pointsChange)
	}
}

func TestSettleOutcomeLoss(t *testing.T) {
	bet := dec(t, "20")
	outcome := game.Outcome{Result: model.GameResultLoss, Multiplier: decimal.Zero}

	result := settleOutcome(bet, outcome)

	if !result.winAmount.IsZero() {
		t.Fatalf("expected winAmount 0, got %s", result.winAmount)
	}
	if !result.lossAmount.Equal(bet) {
		t.Fatalf("expected lossAmount %s, got %s", bet, result.lossAmount)
	}
	if !result.pointsChange.Equal(dec(t, "-20")) {
		t.Fatalf("expected pointsChange -20, got %s", result.pointsChange)
	}
}

// 倍率 1.0 的赢局：不赚不亏，积分变动为 0
func TestSettleOutcomeBreakEven(t *testing.T) {
	bet := dec(t, "15")
	outcome := game.Outcome{Result: model.GameResultWin, Multiplier: dec(t, "1")}

	result := settleOutcome(bet, outcome)

	if !result.pointsChange.IsZero() {
		t.Fatalf("expected pointsChange 0, got %s", result.pointsChange)
	}
	if !result.winAmount.Equal(bet) {
		t.Fatalf("expected winAmount %s, got %s", bet, result.winAmount)
	}
}

// 账务守恒：连续多局后 balance = 初始 + Σwin - Σbet，
// 与 total_won - total_lost 的口径一致
func TestSettlementBalanceConservation(t *testing.T) {
	balance := dec(t, "100")
	totalWagered := decimal.Zero
	totalWon := decimal.Zero
	totalLost := decimal.Zero

	rounds := []struct {
		bet     string
		outcome game.Outcome
	}{
		{"10", game.Outcome{Result: model.GameResultWin, Multiplier: dec(t, "2.5")}},
		{"20", game.Outcome{Result: model.GameResultLoss}},
		{"5", game.Outcome{Result: model.GameResultWin, Multiplier: dec(t, "1.5")}},
		{"30", game.Outcome{Result: model.GameResultLoss}},
		{"7.25", game.Outcome{Result: model.GameResultWin, Multiplier: dec(t, "10")}},
	}

	initial := balance
	for _, round := range rounds {
		bet := dec(t, round.bet)
		result := settleOutcome(bet, round.outcome)

		balance = balance.Sub(bet).Add(result.winAmount)
		totalWagered = totalWagered.Add(bet)
		totalWon = totalWon.Add(result.winAmount)
		totalLost = totalLost.Add(result.lossAmount)
	}

	expected := initial.Add(totalWon).Sub(totalWagered)
	if !balance.Equal(expected) {
		t.Fatalf("balance %s != initial + totalWon - totalWagered = %s", balance, expected)
	}
	if !totalWagered.Equal(dec(t, "72.25")) {
		t.Fatalf("expected totalWagered 72.25, got %s", totalWagered)
	}
	if !totalLost.Equal(dec(t, "50")) {
		t.Fatalf("expected totalLost 50, got %s", totalLost)
	}
}

func TestParamsFromGameData(t *testing.T) {
	// JSON 反序列化后数字都是 float64
	gameData := map[string]interface{}{
		"multiplier": 3.5,
		"won":        true,
		"hit_mine":   false,
		"revealed":   float64(4),
		"mines":      float64(5),
	}

	params := paramsFromGameData(gameData)

	if !params.Multiplier.Equal(dec(t, "3.5")) {
		t.Fatalf("expected multiplier 3.5, got %s", params.Multiplier)
	}
	if !params.Won {
		t.Fatal("expected won=true")
	}
	if params.HitMine {
		t.Fatal("expected hit_mine=false")
	}
	if params.Revealed != 4 {
		t.Fatalf("expected revealed 4, got %d", params.Revealed)
	}
	if params.Mines != 5 {
		t.Fatalf("expected mines 5, got %d", params.Mines)
	}
}

func TestParamsFromGameDataDefaults(t *testing.T) {
	params := paramsFromGameData(nil)
	if params.Mines != 3 {
		t.Fatalf("expected default mines 3, got %d", params.Mines)
	}
	if params.Won || params.HitMine || params.Revealed != 0 {
		t.Fatalf("expected zero values, got %+v", params)
	}

	// 空 map 与 nil 同样处理
	params = paramsFromGameData(map[string]interface{}{})
	if params.Mines != 3 {
		t.Fatalf("expected default mines 3, got %d", params.Mines)
	}
}

// 非法的 multiplier 字符串直接忽略，不污染判定参数
func TestParamsFromGameDataBadMultiplier(t *testing.T) {
	params := paramsFromGameData(map[string]interface{}{"multiplier": "abc"})
	if !params.Multiplier.IsZero() {
		t.Fatalf("expected zero multiplier, got %s", params.Multiplier)
	}
}
