package domain

import "context"

type DiscountKind string

const (
	DiscountFlat    DiscountKind = "flat"
	DiscountPercent DiscountKind = "percent"
)

// Discount is a price-adjustment descriptor. For percent discounts Amount is
// expected to be within [0, 100]; the resolver rejects descriptors outside
// that range before they ever reach the price calculator.
type Discount struct {
	Code        string       `json:"code"`
	Kind        DiscountKind `json:"kind"`
	Amount      int64        `json:"amount"`
	Description string       `json:"description,omitempty"`
}

// DiscountRepository resolves discount codes to descriptors. Unknown codes
// fail with ErrDiscountInvalid; codes past their expiry or usage limit fail
// with ErrDiscountExpired.
type DiscountRepository interface {
	Resolve(ctx context.Context, code string) (*Discount, error)
	MarkUsed(ctx context.Context, code string) error
}
