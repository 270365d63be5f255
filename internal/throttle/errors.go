package throttle

import "errors"

// Provider adapters wrap these sentinels so the executor can decide whether to retry.
var (
	// ErrRateLimited marks an HTTP 429 or a provider-specific quota response.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrPermanent marks a failure that will not change on retry (bad key, bad request).
	ErrPermanent = errors.New("provider rejected request")
)

// Class is the retry classification of a failed attempt.
type Class int

const (
	// ClassTransient covers timeouts, network aborts and 5xx responses.
	ClassTransient Class = iota
	// ClassRateLimited covers 429-equivalent responses.
	ClassRateLimited
	// ClassPermanent is never retried.
	ClassPermanent
)

func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassPermanent:
		return "permanent"
	default:
		return "transient"
	}
}

// Classify maps an attempt error onto a retry class.
func Classify(err error) Class {
	switch {
	case errors.Is(err, ErrPermanent):
		return ClassPermanent
	case errors.Is(err, ErrRateLimited):
		return ClassRateLimited
	default:
		return ClassTransient
	}
}
