// Package ratelimit bounds outbound call frequency per destination endpoint.
// The window is a fixed-window counter with expiry equal to the window
// length, which is how the rest of the system has always approximated a
// sliding window.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// Limiter admits or rejects one outbound call for an endpoint key. Allow is
// side-effecting: an admitted call increments the window counter, a rejected
// one does not.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyForURL derives a stable counter key from a webhook URL so the raw URL
// (which can embed tokens) never appears in counter storage.
func KeyForURL(webhookURL string) string {
	hash := sha256.Sum256([]byte(webhookURL))
	return fmt.Sprintf("chathook_rate:%x", hash)
}
