package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/settlements/internal/calculator"
	"github.com/mmynk/settlements/internal/metrics"
	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/storage"
)

// PaidOrder is the event the order-payment pipeline emits once per order
// reaching the paid state. Delivery is at-least-once.
type PaidOrder struct {
	OrderID      string
	WholesalerID string
	OrderAmount  int64
	PaidAt       time.Time
}

// Validate checks the event before any settlement math runs.
func (o PaidOrder) Validate() error {
	switch {
	case o.OrderID == "":
		return validationErr("order_id required")
	case o.WholesalerID == "":
		return validationErr("wholesaler_id required")
	case o.OrderAmount < 0:
		return validationErr("order_amount must be >= 0, got %d", o.OrderAmount)
	case o.PaidAt.IsZero():
		return validationErr("paid_at required")
	}
	return nil
}

// Pipeline materializes exactly one settlement per paid order. It holds the
// cross-tenant creation capability and is never reachable from a
// wholesaler's request.
type Pipeline struct {
	creator   storage.SettlementCreator
	rate      float64
	delayDays int
}

// NewPipeline creates a pipeline using the fee rate and payout delay in
// effect for new settlements.
func NewPipeline(creator storage.SettlementCreator, rate float64, delayDays int) (*Pipeline, error) {
	if err := calculator.ValidateRate(rate); err != nil {
		return nil, err
	}
	if delayDays < 0 {
		return nil, fmt.Errorf("payout delay must be >= 0 days, got %d", delayDays)
	}
	return &Pipeline{creator: creator, rate: rate, delayDays: delayDays}, nil
}

// HandlePaidOrder creates the settlement for order. A duplicate trigger is a
// successful no-op: the existing settlement is returned with created=false
// and its amounts are left untouched. Any other failure is returned to the
// caller for retry; nothing is retried here.
func (p *Pipeline) HandlePaidOrder(ctx context.Context, order PaidOrder) (*models.Settlement, bool, error) {
	if err := order.Validate(); err != nil {
		metrics.CreationFailuresTotal.Inc()
		slog.Error("Paid order rejected", "order_id", order.OrderID, "error", err)
		return nil, false, err
	}

	fee := calculator.CalculateFee(order.OrderAmount, p.rate)
	settlement := &models.Settlement{
		OrderID:           order.OrderID,
		WholesalerID:      order.WholesalerID,
		OrderAmount:       order.OrderAmount,
		PlatformFeeRate:   p.rate,
		PlatformFee:       fee.PlatformFee,
		WholesalerAmount:  fee.WholesalerAmount,
		Status:            models.StatusPending,
		PaidAt:            order.PaidAt,
		ScheduledPayoutAt: calculator.SchedulePayout(order.PaidAt, p.delayDays),
	}

	err := p.creator.CreateSettlement(ctx, settlement)
	if errors.Is(err, storage.ErrConflict) {
		existing, getErr := p.creator.GetSettlementByOrderID(ctx, order.OrderID)
		if getErr != nil {
			metrics.CreationFailuresTotal.Inc()
			slog.Error("Duplicate paid order but existing settlement unreadable", "order_id", order.OrderID, "error", getErr)
			return nil, false, classify(getErr)
		}
		metrics.DuplicateTriggersTotal.Inc()
		slog.Info("Settlement already exists for order", "order_id", order.OrderID, "settlement_id", existing.ID)
		return existing, false, nil
	}
	if err != nil {
		metrics.CreationFailuresTotal.Inc()
		slog.Error("Settlement creation failed",
			"order_id", order.OrderID,
			"wholesaler_id", order.WholesalerID,
			"error", err,
		)
		return nil, false, classify(err)
	}

	metrics.SettlementsCreatedTotal.Inc()
	slog.Info("Settlement created",
		"settlement_id", settlement.ID,
		"order_id", settlement.OrderID,
		"wholesaler_id", settlement.WholesalerID,
		"platform_fee", settlement.PlatformFee,
		"scheduled_payout_at", settlement.ScheduledPayoutAt,
	)

	return settlement, true, nil
}
