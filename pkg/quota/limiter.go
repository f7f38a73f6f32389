package quota

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Limiter applies the fixed daily limit over a Store.
//
// The increment happens unconditionally before the comparison, so a rejected
// call still consumes a stored slot. That matches the product's observed
// behavior; flipping to check-before-increment only requires comparing
// against limit instead of count>limit after a read.
type Limiter struct {
	store *Store
	limit int
	now   func() time.Time
	log   zerolog.Logger
}

// NewLimiter builds a limiter with the given daily limit.
func NewLimiter(store *Store, limit int, log zerolog.Logger) *Limiter {
	return &Limiter{
		store: store,
		limit: limit,
		now:   time.Now,
		log:   log.With().Str("component", "quota").Logger(),
	}
}

// Limit returns the configured daily limit.
func (l *Limiter) Limit() int {
	return l.limit
}

// CheckAndIncrement records one call for the user's current UTC day and
// reports whether it is within the limit. Elevated callers are always
// allowed and never create or modify a usage row.
func (l *Limiter) CheckAndIncrement(ctx context.Context, userID string, elevated bool) (bool, error) {
	if elevated {
		return true, nil
	}
	day := l.now().UTC().Format("2006-01-02")
	count, err := l.store.IncrementAndGet(ctx, userID, day)
	if err != nil {
		return false, err
	}
	if count > l.limit {
		l.log.Debug().Str("user_id", userID).Int("count", count).Msg("Daily quota exceeded")
		return false, nil
	}
	return true, nil
}
