// Package listener implements the schema-provisioning event listener:
// a Redis Streams consumer group that turns each
// TenantCreated/tenant.schema.created event into a call to the schema
// provisioner, deduped against replay and safe under
// concurrent/crashed consumers.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldp-wms/tenant-core/internal/eventbus"
	"github.com/ldp-wms/tenant-core/internal/schema"
)

// reclaimIdleAfter is how long a message may sit unacked in a
// consumer's pending-entries list before another consumer reclaims it,
// relying on Redis Streams' own redelivery mechanism.
const reclaimIdleAfter = time.Minute

// backoff bounds the pause after a transient provisioning failure,
// before the next poll re-attempts (or a peer reclaims) the message.
var backoff = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}

// Listener consumes tenant.schema.created events and provisions the
// corresponding tenant schema exactly once per (tenant, event version).
type Listener struct {
	bus         *eventbus.Bus
	pool        *pgxpool.Pool
	provisioner *schema.Provisioner
	group       string
	consumer    string

	failureStreak int
}

func NewListener(bus *eventbus.Bus, pool *pgxpool.Pool, provisioner *schema.Provisioner, group, consumer string) *Listener {
	return &Listener{bus: bus, pool: pool, provisioner: provisioner, group: group, consumer: consumer}
}

// Run blocks, polling for new and reclaimed messages until ctx is
// canceled.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.bus.EnsureGroup(ctx, l.group); err != nil {
		return fmt.Errorf("listener: ensure group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := l.pauseForBackoff(ctx); err != nil {
			return err
		}

		messages, err := l.bus.Read(ctx, l.group, l.consumer, 10, 5*time.Second)
		if err != nil {
			slog.ErrorContext(ctx, "listener_read_failed", "error", err)
			l.recordFailure()
			continue
		}

		if len(messages) == 0 {
			reclaimed, err := l.bus.Claim(ctx, l.group, l.consumer, reclaimIdleAfter)
			if err != nil {
				slog.ErrorContext(ctx, "listener_claim_failed", "error", err)
				l.recordFailure()
				continue
			}
			messages = reclaimed
		}

		for _, msg := range messages {
			l.handle(ctx, msg)
		}
	}
}

func (l *Listener) handle(ctx context.Context, msg eventbus.Message) {
	event := msg.Event

	seen, err := l.alreadyProvisioned(ctx, event)
	if err != nil {
		slog.ErrorContext(ctx, "listener_dedup_check_failed", "error", err, "tenant_id", event.TenantID)
		l.recordFailure()
		return
	}
	if seen {
		slog.InfoContext(ctx, "listener_event_already_processed", "tenant_id", event.TenantID, "version", event.Version)
		l.ack(ctx, msg.ID)
		return
	}

	schemaName := schema.Resolve(event.TenantID)
	if err := l.provisioner.EnsureReady(ctx, schemaName); err != nil {
		slog.ErrorContext(ctx, "listener_ensure_ready_failed", "error", err, "tenant_id", event.TenantID)
		l.recordFailure()
		return
	}

	if err := l.recordProvisioned(ctx, event); err != nil {
		slog.ErrorContext(ctx, "listener_record_provisioned_failed", "error", err, "tenant_id", event.TenantID)
		l.recordFailure()
		return
	}

	l.ack(ctx, msg.ID)
	l.failureStreak = 0
	slog.InfoContext(ctx, "listener_schema_provisioned", "tenant_id", event.TenantID, "schema", schemaName.String())
}

func (l *Listener) ack(ctx context.Context, id string) {
	if err := l.bus.Ack(ctx, l.group, id); err != nil {
		slog.ErrorContext(ctx, "listener_ack_failed", "error", err, "entry_id", id)
	}
}

func (l *Listener) alreadyProvisioned(ctx context.Context, event eventbus.SchemaCreatedEvent) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM schema_provisioning_log
			WHERE tenant_id = $1 AND event_version = $2 AND consumer_group = $3
		)
	`, event.TenantID.String(), event.Version, l.group).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (l *Listener) recordProvisioned(ctx context.Context, event eventbus.SchemaCreatedEvent) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO schema_provisioning_log (tenant_id, event_version, consumer_group)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, event_version, consumer_group) DO NOTHING
	`, event.TenantID.String(), event.Version, l.group)
	return err
}

func (l *Listener) recordFailure() {
	if l.failureStreak < len(backoff) {
		l.failureStreak++
	}
}

func (l *Listener) pauseForBackoff(ctx context.Context) error {
	if l.failureStreak == 0 {
		return nil
	}
	delay := backoff[l.failureStreak-1]
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
