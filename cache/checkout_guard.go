package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkoutKeyPrefix = "checkout:claimed:"

// CheckoutGuard remembers which checkout messages already produced an order
// so SQS redelivery does not create the same order twice.
type CheckoutGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCheckoutGuard(client *redis.Client, ttl time.Duration) *CheckoutGuard {
	return &CheckoutGuard{client: client, ttl: ttl}
}

func (g *CheckoutGuard) getKey(checkoutKey string) string {
	return fmt.Sprintf("%s%s", checkoutKeyPrefix, checkoutKey)
}

// Claim returns true when this caller is the first to see checkoutKey.
func (g *CheckoutGuard) Claim(ctx context.Context, checkoutKey string) (bool, error) {
	return g.client.SetNX(ctx, g.getKey(checkoutKey), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

// Release drops a claim so a retried delivery can try again.
func (g *CheckoutGuard) Release(ctx context.Context, checkoutKey string) error {
	return g.client.Del(ctx, g.getKey(checkoutKey)).Err()
}
