package generic

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// lowTokenWatermark is the amount of remaining tokens under which a request
// is held back until the window resets.
const lowTokenWatermark = 50

// RateLimiter pauses requests when a vendor reports that the token budget of
// the current window is nearly spent. The zero value never waits.
type RateLimiter struct {
	remainingHeader string
	resetHeader     string

	remainingTokens int
	resetTokens     time.Time

	debug bool
}

// NewRateLimiter creates a new limiter using the provided header names.
func NewRateLimiter(remainingHeader, resetHeader string) RateLimiter {
	rl := RateLimiter{
		remainingHeader: strings.ToLower(remainingHeader),
		resetHeader:     strings.ToLower(resetHeader),
	}
	if misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_RATE_LIMIT")) {
		rl.debug = true
	}
	return rl
}

// UpdateFromHeaders extracts rate limit information from a response. Previous
// values are reset first so that stale data never causes a pause.
func (r *RateLimiter) UpdateFromHeaders(h http.Header) error {
	if r.remainingHeader == "" || r.resetHeader == "" {
		return nil
	}

	r.remainingTokens = 0
	r.resetTokens = time.Time{}

	remStr := h.Get(r.remainingHeader)
	if remStr == "" {
		return fmt.Errorf("missing header '%s'", r.remainingHeader)
	}
	rem, err := strconv.Atoi(remStr)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", r.remainingHeader, err)
	}
	r.remainingTokens = rem

	resetStr := h.Get(r.resetHeader)
	if resetStr == "" {
		return fmt.Errorf("missing header '%s'", r.resetHeader)
	}

	if dur, err := time.ParseDuration(resetStr); err == nil {
		r.resetTokens = time.Now().Add(dur)
	} else if ts, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
		r.resetTokens = time.Unix(ts, 0)
	} else if sec, err := strconv.ParseFloat(resetStr, 64); err == nil {
		r.resetTokens = time.Now().Add(time.Duration(sec * float64(time.Second)))
	} else {
		return fmt.Errorf("failed to parse %s: '%v'", r.resetHeader, resetStr)
	}
	if r.debug {
		ancli.Noticef("rate limit: %v tokens remaining, reset at: %v\n", r.remainingTokens, r.resetTokens.Format(time.RFC3339))
	}
	return nil
}

// WaitIfNeeded blocks until the window resets or ctx is done, when close to
// the limit.
func (r *RateLimiter) WaitIfNeeded(ctx context.Context) {
	if r.remainingHeader == "" {
		return
	}
	if r.remainingTokens > lowTokenWatermark || r.resetTokens.IsZero() {
		return
	}

	waitDuration := time.Until(r.resetTokens)
	if waitDuration <= 0 {
		return
	}
	ancli.PrintWarn("rate limit reached, waiting " + waitDuration.Round(time.Second).String() + "\n")
	timer := time.NewTimer(waitDuration)
	select {
	case <-ctx.Done():
		timer.Stop()
	case <-timer.C:
	}
}
