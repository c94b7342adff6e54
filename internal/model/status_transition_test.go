package model

import "testing"

func TestDepositTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{DepositStatusPending, DepositStatusApproved, true},
		{DepositStatusPending, DepositStatusRejected, true},
		// approved / rejected 为终态
		{DepositStatusApproved, DepositStatusRejected, false},
		{DepositStatusApproved, DepositStatusPending, false},
		{DepositStatusRejected, DepositStatusApproved, false},
		{DepositStatusPending, DepositStatusPending, false},
		{"unknown", DepositStatusApproved, false},
	}

	for _, tc := range cases {
		if got := CanDepositTransitionTo(tc.from, tc.to); got != tc.want {
			t.Fatalf("deposit %s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestWithdrawalTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{WithdrawalStatusPending, WithdrawalStatusApproved, true},
		{WithdrawalStatusPending, WithdrawalStatusRejected, true},
		{WithdrawalStatusApproved, WithdrawalStatusPaid, true},
		// pending 不能直接标记已打款
		{WithdrawalStatusPending, WithdrawalStatusPaid, false},
		// approved 之后不允许回头拒绝（积分已承诺给用户）
		{WithdrawalStatusApproved, WithdrawalStatusRejected, false},
		{WithdrawalStatusRejected, WithdrawalStatusApproved, false},
		{WithdrawalStatusPaid, WithdrawalStatusRejected, false},
		{WithdrawalStatusPaid, WithdrawalStatusApproved, false},
		{"unknown", WithdrawalStatusPaid, false},
	}

	for _, tc := range cases {
		if got := CanWithdrawalTransitionTo(tc.from, tc.to); got != tc.want {
			t.Fatalf("withdrawal %s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}
