package ai

import "errors"

// ErrQuotaExceeded marks a provider rejection for quota or rate reasons.
// Callers map it to 429 rather than treating the narrative as failed.
var ErrQuotaExceeded = errors.New("ai quota exceeded")
