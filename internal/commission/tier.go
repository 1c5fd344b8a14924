// internal/commission/tier.go
package commission

import (
	"math"
	"time"
)

// Tier is the upfront rate band a deal number falls into.
type Tier struct {
	Level     int     `json:"level"`
	RatePerKw float64 `json:"ratePerKw"`
}

// ResolveTier maps a seller's 1-based deal number to its rate band.
// Deals past 20 have no band of their own and reuse the first band's rate.
func ResolveTier(dealNumber int) Tier {
	switch {
	case dealNumber <= tierOneMaxDeal:
		return Tier{Level: 1, RatePerKw: tierOneRatePerK}
	case dealNumber <= tierTwoMaxDeal:
		return Tier{Level: 2, RatePerKw: tierTwoRatePerK}
	default:
		return Tier{Level: 3, RatePerKw: tierOneRatePerK}
	}
}

// PaymentAmount is the tier rate times system size, stamped at conversion.
func PaymentAmount(dealNumber int, systemSizeKw float64) float64 {
	if math.IsNaN(systemSizeKw) || math.IsInf(systemSizeKw, 0) {
		return 0
	}
	return ResolveTier(dealNumber).RatePerKw * systemSizeKw
}

// SchedulesPayment reports whether the payment date is set automatically.
func SchedulesPayment(dealNumber int) bool {
	return dealNumber <= tierTwoMaxDeal
}

// PaymentFriday returns the Friday of the week after next: the upcoming
// Friday is skipped. On a Friday the upcoming Friday is the one a week out.
func PaymentFriday(now time.Time) time.Time {
	daysUntil := int((time.Friday - now.Weekday() + 7) % 7)
	if daysUntil == 0 {
		daysUntil = 7
	}
	day := now.AddDate(0, 0, daysUntil+7)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}
