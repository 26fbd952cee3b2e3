// Package calculator holds the pure settlement math: platform fees, payout
// scheduling, status projection and stats aggregation. Nothing in here does I/O.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultPlatformFeeRate is the fee fraction used when none is configured.
const DefaultPlatformFeeRate = 0.05

// Fee is the split of an order amount between the platform and the wholesaler.
type Fee struct {
	PlatformFee      int64
	WholesalerAmount int64
}

// CalculateFee computes the platform fee and the wholesaler's net amount.
// Based on: platform_fee = floor(order_amount × rate), wholesaler_amount = order_amount - platform_fee
//
// The rate goes through its shortest decimal form, so 0.29 is exactly 29/100 and
// floor never lands one unit low because of binary float error.
// Callers validate inputs with ValidateRate and a non-negative amount first.
func CalculateFee(orderAmount int64, rate float64) Fee {
	fee := decimal.NewFromInt(orderAmount).
		Mul(decimal.NewFromFloat(rate)).
		Floor().
		IntPart()

	return Fee{
		PlatformFee:      fee,
		WholesalerAmount: orderAmount - fee,
	}
}

// ValidateRate checks that rate is a fraction in [0, 1].
func ValidateRate(rate float64) error {
	if rate != rate || rate < 0 || rate > 1 {
		return fmt.Errorf("platform fee rate must be within [0, 1], got %v", rate)
	}
	return nil
}
