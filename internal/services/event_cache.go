package services

import (
	"context"
	"time"

	"github.com/redis/rueidis"
	"github.com/rs/zerolog/log"
)

const eventDedupTTL = 24 * time.Hour

// EventCache suppresses redelivered gateway events. Seen may only report
// true for events whose effects were fully applied: entries are written by
// Mark after the mutation committed, never before, so a delivery that
// failed mid-apply is replayed in full on the gateway's retry.
type EventCache interface {
	Seen(ctx context.Context, eventID string) bool
	Mark(ctx context.Context, eventID string)
}

type redisEventCache struct {
	client rueidis.Client
}

// NewRedisEventCache backs the dedup cache with redis. A miss or a redis
// failure degrades to "not seen" so the paymentId check on the task stays
// the authoritative idempotency guard.
func NewRedisEventCache(client rueidis.Client) EventCache {
	return &redisEventCache{client: client}
}

func (c *redisEventCache) Seen(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return false
	}

	cmd := c.client.B().Get().Key(eventKey(eventID)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		if !rueidis.IsRedisNil(err) {
			log.Warn().Err(err).Msg("webhook: event dedup cache unavailable")
		}
		return false
	}
	return true
}

func (c *redisEventCache) Mark(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}

	cmd := c.client.B().Set().Key(eventKey(eventID)).Value("1").Ex(eventDedupTTL).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		log.Warn().Err(err).Str("event_id", eventID).Msg("webhook: failed to record applied event")
	}
}

func eventKey(eventID string) string {
	return "webhook:event:" + eventID
}
