package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a percentage discount rule with an activity window.
type Coupon struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Percent     decimal.Decimal `json:"discount_percent"`
	Active      bool            `json:"active"`
	UsedCount   int             `json:"used_count"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      time.Time       `json:"ends_at"`
}

// UsableAt reports whether the coupon is active and now falls inside [StartsAt, EndsAt].
func (c Coupon) UsableAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	return !now.Before(c.StartsAt) && !now.After(c.EndsAt)
}

// Check returns ErrInvalidCoupon when the coupon cannot be redeemed at now.
func (c Coupon) Check(now time.Time) error {
	if !c.UsableAt(now) {
		return Errorf(ErrInvalidCoupon, "invalid coupon code")
	}
	return nil
}

// Snapshot captures the code and percent at the time of application.
func (c Coupon) Snapshot() AppliedCoupon {
	return AppliedCoupon{Code: c.Code, Percent: c.Percent}
}

// AppliedCoupon is the session-held record of the one coupon applied to a cart.
type AppliedCoupon struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"discount_percent"`
}
