package backoff

import "errors"

// ErrExhausted is returned by Do once maxAttempts have all failed with a
// retryable error.
var ErrExhausted = errors.New("backoff: retry attempts exhausted")
