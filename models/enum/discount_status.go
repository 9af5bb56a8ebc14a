package enum

type DiscountStatus string

const (
	DiscountStatusDraft    DiscountStatus = "DRAFT"
	DiscountStatusActive   DiscountStatus = "ACTIVE"
	DiscountStatusExpired  DiscountStatus = "EXPIRED"
	DiscountStatusRejected DiscountStatus = "REJECTED"
)
