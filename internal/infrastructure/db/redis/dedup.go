package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkoutKeyTTL = 24 * time.Hour

// CheckoutDeduper maps checkout idempotency keys to the loan they created.
// Key format: checkout:<idempotency_key>
type CheckoutDeduper struct {
	client *redis.Client
}

// NewCheckoutDeduper creates a CheckoutDeduper wrapping the given Redis client.
func NewCheckoutDeduper(client *redis.Client) *CheckoutDeduper {
	return &CheckoutDeduper{client: client}
}

// Lookup returns the loan id recorded for a previously seen key.
func (d *CheckoutDeduper) Lookup(ctx context.Context, key string) (string, bool, error) {
	loanID, err := d.client.Get(ctx, d.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("checkout dedup lookup: %w", err)
	}
	return loanID, true, nil
}

// Remember records the loan created for the key (expires after checkoutKeyTTL).
func (d *CheckoutDeduper) Remember(ctx context.Context, key, loanID string) error {
	return d.client.Set(ctx, d.key(key), loanID, checkoutKeyTTL).Err()
}

func (d *CheckoutDeduper) key(key string) string {
	return "checkout:" + key
}
