package calculator

import "time"

// DefaultPayoutDelayDays is the number of days between payment and payout.
const DefaultPayoutDelayDays = 7

// SchedulePayout returns the payout timestamp for an order paid at paidAt.
// The result keeps paidAt's location.
func SchedulePayout(paidAt time.Time, delayDays int) time.Time {
	return paidAt.AddDate(0, 0, delayDays)
}
