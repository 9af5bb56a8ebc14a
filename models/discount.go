package models

import (
	"time"

	"goflare.io/loyalty/models/enum"
)

type Discount struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Percentage  float64             `json:"percentage"`
	Status      enum.DiscountStatus `json:"status"`
	StartDate   time.Time           `json:"start_date"`
	EndDate     time.Time           `json:"end_date"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// IsEligibleAt reports whether the discount participates in the program at
// the given instant. Only ACTIVE discounts inside their inclusive date range
// are eligible.
func (d *Discount) IsEligibleAt(now time.Time) bool {
	if d.Status != enum.DiscountStatusActive {
		return false
	}
	return !d.StartDate.After(now) && !now.After(d.EndDate)
}
