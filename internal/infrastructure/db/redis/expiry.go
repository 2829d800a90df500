package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const expiryTTL = time.Hour

// ExpiryDedup remembers which session tokens already produced a
// session_expired record, so parallel 401s from one browser record once.
// Key format: session:expired:<token_fingerprint>
type ExpiryDedup struct {
	client redis.Cmdable
}

func NewExpiryDedup(client redis.Cmdable) *ExpiryDedup {
	return &ExpiryDedup{client: client}
}

// IsDuplicate reports whether an expiry was already recorded for fp.
func (d *ExpiryDedup) IsDuplicate(ctx context.Context, fp string) (bool, error) {
	n, err := d.client.Exists(ctx, key(fp)).Result()
	if err != nil {
		return false, fmt.Errorf("expiry dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records fp (expires after expiryTTL). Events for one token are
// processed by a single audit worker, so check-then-mark does not race.
func (d *ExpiryDedup) Mark(ctx context.Context, fp string) error {
	if err := d.client.Set(ctx, key(fp), "1", expiryTTL).Err(); err != nil {
		return fmt.Errorf("expiry dedup mark: %w", err)
	}
	return nil
}

func key(fp string) string {
	return "session:expired:" + fp
}
