package calculator

import (
	"time"

	"github.com/mmynk/settlements/internal/models"
)

// Stats summarises the settlements visible in one scope.
type Stats struct {
	TotalAmount      int64 // Σ order_amount
	TotalPlatformFee int64 // Σ platform_fee
	PendingAmount    int64 // Σ wholesaler_amount of projected-pending rows
	PendingCount     int64
	CompletedAmount  int64 // Σ wholesaler_amount of projected-completed rows
	CompletedCount   int64
}

// Aggregate computes Stats over items after projecting each one at now.
//
// Pending and completed amounts are net (wholesaler) amounts, so
// PendingAmount + CompletedAmount equals the sum of WholesalerAmount that a
// list of the same scope reports.
func Aggregate(items []*models.Settlement, now time.Time, loc *time.Location) Stats {
	var stats Stats
	for _, item := range items {
		projected := Project(*item, now, loc)

		stats.TotalAmount += projected.OrderAmount
		stats.TotalPlatformFee += projected.PlatformFee

		switch projected.Status {
		case models.StatusCompleted:
			stats.CompletedAmount += projected.WholesalerAmount
			stats.CompletedCount++
		default:
			stats.PendingAmount += projected.WholesalerAmount
			stats.PendingCount++
		}
	}
	return stats
}
