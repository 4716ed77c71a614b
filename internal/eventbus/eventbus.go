// Package eventbus implements tenant-schema-created delivery as a
// Redis Stream: at-least-once delivery, one consumer group per
// subscribing service, ack-on-success only.
//
// There is no Redis Streams reference in the example pack to adapt
// directly; this is written against redis/go-redis/v9's XAdd/
// XReadGroup/XAck API, extending the same client wiring the rate
// limiter's RedisStore (internal/ratelimit/redis_store.go) already
// establishes for this tree.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// SchemaCreatedEvent is the payload of the tenant.schema.created
// topic.
type SchemaCreatedEvent struct {
	TenantID      tenant.ID `json:"tenantId"`
	SchemaName    string    `json:"schemaName"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"timestamp"`
	IdempotencyKey string   `json:"idempotencyKey"`
}

// Message wraps a delivered event with the stream entry id a consumer
// must echo back to Ack.
type Message struct {
	ID    string
	Event SchemaCreatedEvent
}

// Bus publishes and consumes SchemaCreatedEvent over a single Redis
// Stream, one stream per topic name.
type Bus struct {
	client redis.Cmdable
	stream string
}

func NewBus(client redis.Cmdable, stream string) *Bus {
	return &Bus{client: client, stream: stream}
}

// Publish appends event to the stream via XADD. The orchestrator calls
// this once per successful TenantCreated transition.
func (b *Bus) Publish(ctx context.Context, event SchemaCreatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus: marshal event: %w", err)
	}

	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]interface{}{"payload": payload},
	}).Err(); err != nil {
		return fmt.Errorf("eventbus: publish: %w", err)
	}
	return nil
}

// EnsureGroup creates group on the stream if it doesn't already exist,
// starting from the beginning of the stream so a newly-deployed
// service backfills every event published before it existed.
func (b *Bus) EnsureGroup(ctx context.Context, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, b.stream, group, "0").Err()
	if err != nil && !isBusyGroupErr(err) {
		return fmt.Errorf("eventbus: ensure group %q: %w", group, err)
	}
	return nil
}

// Read blocks up to blockFor for new entries claimed by consumer within
// group, returning whatever is available (possibly nothing).
func (b *Bus) Read(ctx context.Context, group, consumer string, count int64, blockFor time.Duration) ([]Message, error) {
	res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{b.stream, ">"},
		Count:    count,
		Block:    blockFor,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("eventbus: read group: %w", err)
	}

	var messages []Message
	for _, stream := range res {
		for _, entry := range stream.Messages {
			raw, ok := entry.Values["payload"].(string)
			if !ok {
				continue
			}
			var event SchemaCreatedEvent
			if err := json.Unmarshal([]byte(raw), &event); err != nil {
				continue
			}
			messages = append(messages, Message{ID: entry.ID, Event: event})
		}
	}
	return messages, nil
}

// Ack acknowledges id within group — the listener calls this only
// after EnsureReady has succeeded for the event's tenant.
func (b *Bus) Ack(ctx context.Context, group, id string) error {
	if err := b.client.XAck(ctx, b.stream, group, id).Err(); err != nil {
		return fmt.Errorf("eventbus: ack %q: %w", id, err)
	}
	return nil
}

// Claim reclaims messages pending longer than minIdle for consumer,
// so a crashed consumer's in-flight entries get redelivered instead of
// stuck forever.
func (b *Bus) Claim(ctx context.Context, group, consumer string, minIdle time.Duration) ([]Message, error) {
	entries, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   b.stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0",
		Count:    100,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("eventbus: claim: %w", err)
	}

	var messages []Message
	for _, entry := range entries {
		raw, ok := entry.Values["payload"].(string)
		if !ok {
			continue
		}
		var event SchemaCreatedEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			continue
		}
		messages = append(messages, Message{ID: entry.ID, Event: event})
	}
	return messages, nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && len(err.Error()) >= 8 && err.Error()[:8] == "BUSYGROU"
}
