package service

import (
	"time"

	"github.com/mmynk/settlements/internal/calculator"
	"github.com/mmynk/settlements/internal/models"
)

// Settlement is the wire form of a settlement.
type Settlement struct {
	ID                string     `json:"id"`
	OrderID           string     `json:"order_id"`
	WholesalerID      string     `json:"wholesaler_id"`
	OrderAmount       int64      `json:"order_amount"`
	PlatformFeeRate   float64    `json:"platform_fee_rate"`
	PlatformFee       int64      `json:"platform_fee"`
	WholesalerAmount  int64      `json:"wholesaler_amount"`
	Status            string     `json:"status"`
	PaidAt            time.Time  `json:"paid_at"`
	ScheduledPayoutAt time.Time  `json:"scheduled_payout_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ListSettlementsRequest struct {
	Status       string `json:"status,omitempty"`
	PayoutFrom   string `json:"payout_from,omitempty"`
	PayoutTo     string `json:"payout_to,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	WholesalerID string `json:"wholesaler_id,omitempty"`
	Page         int    `json:"page,omitempty"`
	PageSize     int    `json:"page_size,omitempty"`
	SortBy       string `json:"sort_by,omitempty"`
	SortOrder    string `json:"sort_order,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"total_pages"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
}

type GetSettlementStatsRequest struct{}

type GetSettlementStatsResponse struct {
	TotalAmount      int64 `json:"total_amount"`
	TotalPlatformFee int64 `json:"total_platform_fee"`
	PendingAmount    int64 `json:"pending_amount"`
	PendingCount     int64 `json:"pending_count"`
	CompletedAmount  int64 `json:"completed_amount"`
	CompletedCount   int64 `json:"completed_count"`
}

type GetSettlementDetailRequest struct {
	SettlementID string `json:"settlement_id"`
}

type GetSettlementDetailResponse struct {
	Settlement     *Settlement `json:"settlement"`
	WholesalerName string      `json:"wholesaler_name,omitempty"`
}

type SetSettlementStatusRequest struct {
	SettlementID string `json:"settlement_id"`
	Status       string `json:"status"`
}

type SetSettlementStatusResponse struct {
	Settlement *Settlement `json:"settlement"`
}

func toSettlement(s *models.Settlement) *Settlement {
	return &Settlement{
		ID:                s.ID,
		OrderID:           s.OrderID,
		WholesalerID:      s.WholesalerID,
		OrderAmount:       s.OrderAmount,
		PlatformFeeRate:   s.PlatformFeeRate,
		PlatformFee:       s.PlatformFee,
		WholesalerAmount:  s.WholesalerAmount,
		Status:            string(s.Status),
		PaidAt:            s.PaidAt,
		ScheduledPayoutAt: s.ScheduledPayoutAt,
		CompletedAt:       s.CompletedAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func toSettlements(items []*models.Settlement) []*Settlement {
	out := make([]*Settlement, len(items))
	for i, item := range items {
		out[i] = toSettlement(item)
	}
	return out
}

func toStatsResponse(stats *calculator.Stats) *GetSettlementStatsResponse {
	return &GetSettlementStatsResponse{
		TotalAmount:      stats.TotalAmount,
		TotalPlatformFee: stats.TotalPlatformFee,
		PendingAmount:    stats.PendingAmount,
		PendingCount:     stats.PendingCount,
		CompletedAmount:  stats.CompletedAmount,
		CompletedCount:   stats.CompletedCount,
	}
}
