package idgen

import (
	"strings"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	Init(1)

	seen := make(map[int64]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := NextID()
		if id <= 0 {
			t.Fatalf("expected positive id, got %d", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id: %d", id)
		}
		seen[id] = true
	}
}

func TestBusinessNoFormat(t *testing.T) {
	cases := []struct {
		prefix   string
		generate func() string
	}{
		{"GAM", GenerateSessionNo},
		{"DEP", GenerateDepositNo},
		{"WDR", GenerateWithdrawalNo},
		{"TXN", GenerateTransactionNo},
		{"ADJ", GenerateAdjustNo},
	}

	for _, tc := range cases {
		no := tc.generate()
		if !strings.HasPrefix(no, tc.prefix) {
			t.Fatalf("expected prefix %s, got %s", tc.prefix, no)
		}
		// 前缀3位 + 时间戳14位 + 雪花ID后8位
		if len(no) != 25 {
			t.Fatalf("expected length 25, got %d (%s)", len(no), no)
		}
	}
}

func TestBusinessNoUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		no := GenerateTransactionNo()
		if seen[no] {
			t.Fatalf("duplicate transaction no: %s", no)
		}
		seen[no] = true
	}
}
