package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settlements/internal/models"
)

func pendingSettlement(scheduled time.Time) models.Settlement {
	return models.Settlement{
		ID:                "s-1",
		OrderID:           "o-1",
		WholesalerID:      "w-1",
		OrderAmount:       100000,
		PlatformFeeRate:   0.05,
		PlatformFee:       5000,
		WholesalerAmount:  95000,
		Status:            models.StatusPending,
		ScheduledPayoutAt: scheduled,
	}
}

func TestProject(t *testing.T) {
	now := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)

	t.Run("pending past payout date is shown completed", func(t *testing.T) {
		stored := pendingSettlement(yesterday)

		got := Project(stored, now, time.UTC)

		assert.Equal(t, models.StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, yesterday, *got.CompletedAt)

		// stored value untouched
		assert.Equal(t, models.StatusPending, stored.Status)
		assert.Nil(t, stored.CompletedAt)
	})

	t.Run("payout earlier today stays pending", func(t *testing.T) {
		got := Project(pendingSettlement(time.Date(2025, 1, 10, 1, 0, 0, 0, time.UTC)), now, time.UTC)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("future payout stays pending", func(t *testing.T) {
		got := Project(pendingSettlement(now.AddDate(0, 0, 3)), now, time.UTC)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("explicitly completed row is unchanged", func(t *testing.T) {
		completedAt := time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
		stored := pendingSettlement(yesterday)
		stored.Status = models.StatusCompleted
		stored.CompletedAt = &completedAt

		got := Project(stored, now, time.UTC)
		assert.Equal(t, stored, got)
	})

	t.Run("uses business timezone for today", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		// 2025-01-10 02:00 JST is still 2025-01-09 in UTC.
		nowTokyo := time.Date(2025, 1, 9, 17, 0, 0, 0, time.UTC)
		scheduled := time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)

		assert.Equal(t, models.StatusPending, Project(pendingSettlement(scheduled), nowTokyo, time.UTC).Status)
		assert.Equal(t, models.StatusCompleted, Project(pendingSettlement(scheduled), nowTokyo, tokyo).Status)
	})
}

func TestStartOfDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2025, 1, 9, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), StartOfDay(now, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, tokyo), StartOfDay(now, tokyo))
	assert.Equal(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), StartOfDay(now, nil))
}

func TestProjectAll(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	a := pendingSettlement(now.AddDate(0, 0, -2))
	b := pendingSettlement(now.AddDate(0, 0, 2))
	items := []*models.Settlement{&a, &b}

	got := ProjectAll(items, now, time.UTC)

	require.Len(t, got, 2)
	assert.Equal(t, models.StatusCompleted, got[0].Status)
	assert.Equal(t, models.StatusPending, got[1].Status)
	assert.Equal(t, models.StatusPending, items[0].Status, "input must not be modified")
}
