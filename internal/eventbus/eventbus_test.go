package eventbus_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ldp-wms/tenant-core/internal/eventbus"
)

// requireRedis skips unless EVENTBUS_TEST_REDIS_ADDR points at a
// reachable Redis instance — XADD/XREADGROUP/XACK have no in-process
// fake in this tree's dependency set.
func requireRedis(t *testing.T) redis.Cmdable {
	t.Helper()
	addr := os.Getenv("EVENTBUS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EVENTBUS_TEST_REDIS_ADDR not set, skipping integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestBus_PublishAndConsume_RoundTrip(t *testing.T) {
	client := requireRedis(t)
	stream := "test.tenant.schema.created." + time.Now().UTC().Format("20060102150405.000000000")
	bus := eventbus.NewBus(client, stream)

	require.NoError(t, bus.EnsureGroup(context.Background(), "stockservice"))

	event := eventbus.SchemaCreatedEvent{
		TenantID:       "acme",
		SchemaName:     "tenant_acme_schema",
		Version:        1,
		CreatedAt:      time.Now().UTC(),
		IdempotencyKey: "acme-v1",
	}
	require.NoError(t, bus.Publish(context.Background(), event))

	messages, err := bus.Read(context.Background(), "stockservice", "consumer-1", 10, 2*time.Second)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, event.TenantID, messages[0].Event.TenantID)
	require.Equal(t, event.SchemaName, messages[0].Event.SchemaName)

	require.NoError(t, bus.Ack(context.Background(), "stockservice", messages[0].ID))
}

func TestBus_EnsureGroup_IsIdempotent(t *testing.T) {
	client := requireRedis(t)
	stream := "test.tenant.schema.created.idempotent." + time.Now().UTC().Format("20060102150405.000000000")
	bus := eventbus.NewBus(client, stream)

	require.NoError(t, bus.EnsureGroup(context.Background(), "orchestrator"))
	require.NoError(t, bus.EnsureGroup(context.Background(), "orchestrator"))
}
