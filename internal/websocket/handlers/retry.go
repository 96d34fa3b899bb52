package handlers

import (
	"errors"
	"time"

	"github.com/castlelight/gambit/internal/game"
)

// retryPause is the backoff before the single retry of a transient
// failure.
const retryPause = 250 * time.Millisecond

// withRetry invokes fn and retries once after a short pause when the
// failure is transient. Anything else is returned as-is.
func withRetry[T any](deps Deps, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err != nil && errors.Is(err, game.ErrUpstreamUnavailable) {
		deps.Pause(retryPause)
		v, err = fn()
	}
	return v, err
}
