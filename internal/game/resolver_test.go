package game

import (
	"testing"

	"github.com/shopspring/decimal"

	"pointsgame/internal/model"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestResolveInvalidGameType(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("poker", decimal.NewFromInt(10), Params{})
	if err != ErrInvalidGameType {
		t.Fatalf("expected ErrInvalidGameType, got %v", err)
	}
}

func TestResolveCards(t *testing.T) {
	r := NewResolver()
	bet := decimal.NewFromInt(10)

	outcome, err := r.Resolve(model.GameTypeCards, bet, Params{Won: true})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if !outcome.IsWin() {
		t.Fatalf("expected win, got %s", outcome.Result)
	}
	// 赢固定 2.5 倍，定点小数，必须精确相等
	if !outcome.Multiplier.Equal(mustDecimal(t, "2.5")) {
		t.Fatalf("expected multiplier 2.5, got %s", outcome.Multiplier)
	}

	outcome, err = r.Resolve(model.GameTypeCards, bet, Params{Won: false})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if outcome.IsWin() || !outcome.Multiplier.IsZero() {
		t.Fatalf("expected loss with zero multiplier, got %s x%s", outcome.Result, outcome.Multiplier)
	}
}

func TestResolvePlinko(t *testing.T) {
	r := NewResolver()
	bet := decimal.NewFromInt(10)

	cases := []struct {
		name       string
		params     Params
		wantWin    bool
		wantFactor string
	}{
		{"win multiplier above one", Params{Won: true, Multiplier: mustDecimal(t, "3.5")}, true, "3.5"},
		{"win multiplier exactly one", Params{Won: true, Multiplier: mustDecimal(t, "1")}, true, "1"},
		{"won flag but multiplier below one", Params{Won: true, Multiplier: mustDecimal(t, "0.5")}, false, "0"},
		{"not won", Params{Won: false, Multiplier: mustDecimal(t, "5")}, false, "0"},
	}

	for _, tc := range cases {
		outcome, err := r.Resolve(model.GameTypePlinko, bet, tc.params)
		if err != nil {
			t.Fatalf("%s: resolve error: %v", tc.name, err)
		}
		if outcome.IsWin() != tc.wantWin {
			t.Fatalf("%s: expected win=%v, got %s", tc.name, tc.wantWin, outcome.Result)
		}
		if !outcome.Multiplier.Equal(mustDecimal(t, tc.wantFactor)) {
			t.Fatalf("%s: expected multiplier %s, got %s", tc.name, tc.wantFactor, outcome.Multiplier)
		}
	}
}

func TestResolveWheel(t *testing.T) {
	r := NewResolver()
	bet := decimal.NewFromInt(10)

	// wheel 只要求赔率 > 0
	outcome, err := r.Resolve(model.GameTypeWheel, bet, Params{Won: true, Multiplier: mustDecimal(t, "0.5")})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if !outcome.IsWin() {
		t.Fatalf("expected win for multiplier 0.5, got %s", outcome.Result)
	}

	outcome, err = r.Resolve(model.GameTypeWheel, bet, Params{Won: true, Multiplier: decimal.Zero})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if outcome.IsWin() {
		t.Fatal("expected loss for zero multiplier")
	}
}

func TestResolveMining(t *testing.T) {
	r := NewResolver()
	bet := decimal.NewFromInt(10)

	// 赔率 = 1.0 + revealed * 0.2 * (mines / 3)
	outcome, err := r.Resolve(model.GameTypeMining, bet, Params{HitMine: false, Revealed: 5, Mines: 3})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if !outcome.IsWin() {
		t.Fatalf("expected win, got %s", outcome.Result)
	}
	if !outcome.Multiplier.Equal(mustDecimal(t, "2")) {
		t.Fatalf("expected multiplier 2, got %s", outcome.Multiplier)
	}

	outcome, err = r.Resolve(model.GameTypeMining, bet, Params{HitMine: true, Revealed: 5, Mines: 3})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if outcome.IsWin() {
		t.Fatal("expected loss after hitting mine")
	}

	// 一格未翻不算赢
	outcome, err = r.Resolve(model.GameTypeMining, bet, Params{HitMine: false, Revealed: 0, Mines: 3})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if outcome.IsWin() {
		t.Fatal("expected loss with zero revealed")
	}
}

func TestResolveSlotsThresholds(t *testing.T) {
	bet := decimal.NewFromInt(10)

	cases := []struct {
		rand       float64
		wantWin    bool
		wantFactor string
	}{
		{0.005, true, "10"},
		{0.03, true, "3"},
		{0.1, true, "1.5"},
		{0.5, false, "0"},
		{0.15, false, "0"}, // 边界值归输
	}

	for _, tc := range cases {
		r := NewResolverWithRand(func() float64 { return tc.rand })
		outcome, err := r.Resolve(model.GameTypeSlots, bet, Params{})
		if err != nil {
			t.Fatalf("rand=%v: resolve error: %v", tc.rand, err)
		}
		if outcome.IsWin() != tc.wantWin {
			t.Fatalf("rand=%v: expected win=%v, got %s", tc.rand, tc.wantWin, outcome.Result)
		}
		if !outcome.Multiplier.Equal(mustDecimal(t, tc.wantFactor)) {
			t.Fatalf("rand=%v: expected multiplier %s, got %s", tc.rand, tc.wantFactor, outcome.Multiplier)
		}
	}
}

// slots 不读客户端参数，上传的字段不影响抽奖结果
func TestResolveSlotsIgnoresClientParams(t *testing.T) {
	r := NewResolverWithRand(func() float64 { return 0.9 })
	outcome, err := r.Resolve(model.GameTypeSlots, decimal.NewFromInt(10), Params{Won: true, Multiplier: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if outcome.IsWin() {
		t.Fatal("client-supplied won flag must not affect slots")
	}
}
