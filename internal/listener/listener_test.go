package listener_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ldp-wms/tenant-core/internal/eventbus"
	"github.com/ldp-wms/tenant-core/internal/listener"
	"github.com/ldp-wms/tenant-core/internal/schema"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// requireStack mirrors the orchestrator package's integration gate:
// the listener has no in-process fake for either Postgres or Redis.
func requireStack(t *testing.T) (*pgxpool.Pool, redis.Cmdable) {
	t.Helper()
	dsn := os.Getenv("LISTENER_TEST_DATABASE_URL")
	redisAddr := os.Getenv("LISTENER_TEST_REDIS_ADDR")
	if dsn == "" || redisAddr == "" {
		t.Skip("LISTENER_TEST_DATABASE_URL / LISTENER_TEST_REDIS_ADDR not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { client.Close() })

	return pool, client
}

func TestListener_Run_ProvisionsSchemaAndDedupesReplay(t *testing.T) {
	pool, redisClient := requireStack(t)

	suffix := time.Now().UTC().Format("20060102150405.000000000")
	stream := "test.listener." + suffix
	bus := eventbus.NewBus(redisClient, stream)
	require.NoError(t, bus.EnsureGroup(context.Background(), "schema-provisioner"))

	id, err := tenant.NewID("listener-" + suffix[len(suffix)-15:])
	require.NoError(t, err)

	event := eventbus.SchemaCreatedEvent{
		TenantID:   id,
		SchemaName: schema.Resolve(id).String(),
		Version:    1,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, bus.Publish(context.Background(), event))
	// Publish a duplicate (simulating at-least-once redelivery) so the
	// dedup check in the listener's second pass is exercised too.
	require.NoError(t, bus.Publish(context.Background(), event))

	provisioner := schema.NewProvisioner(pool, "file://../../migrations/tenant")
	l := listener.NewListener(bus, pool, provisioner, "schema-provisioner", "consumer-1")

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	err = l.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var logged int
	err = pool.QueryRow(context.Background(),
		`SELECT count(*) FROM schema_provisioning_log WHERE tenant_id = $1 AND consumer_group = $2`,
		id.String(), "schema-provisioner").Scan(&logged)
	require.NoError(t, err)
	require.Equal(t, 1, logged, "dedup on (tenant_id, event_version, consumer_group) must collapse the duplicate publish to one log row")
}
