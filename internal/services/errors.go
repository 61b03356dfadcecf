package services

import "errors"

// Engine error taxonomy. Handlers match these with errors.Is and translate
// them to transport responses; none is ever swallowed.
var (
	// ErrInvalidDiscount rejects bad issue parameters. Not retryable.
	ErrInvalidDiscount = errors.New("invalid discount")

	// ErrCodeExhaustion means the bounded collision-retry loop ran out of
	// attempts. Retryable after backoff.
	ErrCodeExhaustion = errors.New("coupon code generation exhausted retries")

	// ErrNotFound means the referenced plan or coupon does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyUsed means the coupon was redeemed before this attempt.
	// Terminal for that code unless an admin releases it.
	ErrAlreadyUsed = errors.New("coupon already used")

	// ErrCouponExpired means the coupon's expiry passed while still unused.
	ErrCouponExpired = errors.New("coupon expired")

	// ErrForbidden means the caller does not own the referenced record.
	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable wraps transient persistence failures. Retryable.
	ErrStoreUnavailable = errors.New("store unavailable")
)
