package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ldp-wms/tenant-core/internal/audit"
	"github.com/ldp-wms/tenant-core/internal/eventbus"
	"github.com/ldp-wms/tenant-core/internal/schema"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// CRUD event names for actions the lifecycle table doesn't cover —
// Transition already names its own event per move (see lifecycle.go).
const (
	eventTenantUpdated = "TenantUpdated"
	eventTenantDeleted = "TenantDeleted"
)

// Service orchestrates tenant creation and lifecycle transitions.
// Creation publishes the schema-created event on the event bus; a
// transition records its lifecycle event in the audit log only and
// publishes nothing on the bus. It is grounded on the teacher's AuthService.CreateTenant, generalized from
// a single-step create into a full state machine the teacher never
// modeled.
type Service struct {
	repo  *Repository
	bus   *eventbus.Bus
	audit audit.AuditLogger
}

func NewService(repo *Repository, bus *eventbus.Bus, auditLogger audit.AuditLogger) *Service {
	return &Service{repo: repo, bus: bus, audit: auditLogger}
}

// Create provisions a new tenant record in PENDING status and emits
// TenantCreated. Schema provisioning itself is driven asynchronously
// off this event by the listener (component J), not performed inline
// here — a slow CREATE SCHEMA + migration run must never block the
// tenant-create API call.
func (s *Service) Create(ctx context.Context, id tenant.ID, name, contactEmail string, config map[string]string) (tenant.Record, error) {
	rec, err := s.repo.Create(ctx, id, name, contactEmail, config)
	if err != nil {
		return tenant.Record{}, err
	}

	event := eventbus.SchemaCreatedEvent{
		TenantID:       rec.ID,
		SchemaName:     schema.Resolve(rec.ID).String(),
		Version:        1,
		CreatedAt:      time.Now().UTC(),
		IdempotencyKey: fmt.Sprintf("%s-v%d", rec.ID, 1),
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		// The tenant row is already committed; a missed publish is
		// recovered by the on-demand EnsureReady safety net the
		// persistence adapter runs on first write for this tenant,
		// not by rolling back the create here.
		return tenant.Record{}, fmt.Errorf("orchestrator: publish %s: %w", event.TenantID, err)
	}

	s.logAudit(ctx, string(EventTenantCreated), rec.ID, map[string]string{"name": name})
	return rec, nil
}

// Transition moves id from its current status to to, validating the
// move against the lifecycle table and recording the one event the
// table names as an audit entry. The status change is a single
// conditional UPDATE; the audit entry is written after it, not in the
// same transaction, and no event is published on the event bus.
func (s *Service) Transition(ctx context.Context, id tenant.ID, to tenant.Status) (tenant.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return tenant.Record{}, err
	}

	event, err := Transition(rec.Status, to)
	if err != nil {
		return tenant.Record{}, err
	}

	if err := s.repo.UpdateStatus(ctx, id, rec.Status, to); err != nil {
		return tenant.Record{}, err
	}

	from := rec.Status
	rec.Status = to
	rec.UpdatedAt = time.Now().UTC()

	s.logAudit(ctx, string(event), id, map[string]string{"from": string(from), "to": string(to)})
	return rec, nil
}

// Get returns a tenant record by id, for consumption by the tenant
// authority client's realm/status lookups (component D).
func (s *Service) Get(ctx context.Context, id tenant.ID) (tenant.Record, error) {
	return s.repo.Get(ctx, id)
}

// Update overwrites a tenant's name, contact email, and config.
func (s *Service) Update(ctx context.Context, id tenant.ID, name, contactEmail string, config map[string]string) (tenant.Record, error) {
	rec, err := s.repo.Update(ctx, id, name, contactEmail, config)
	if err != nil {
		return tenant.Record{}, err
	}
	s.logAudit(ctx, eventTenantUpdated, id, map[string]string{"name": name})
	return rec, nil
}

// Delete removes a tenant's catalog row outright. It does not emit a
// schema-provisioning event: tearing down a tenant's own schema is an
// operator-driven, out-of-band step, not something this core automates.
func (s *Service) Delete(ctx context.Context, id tenant.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, eventTenantDeleted, id, nil)
	return nil
}

func (s *Service) logAudit(ctx context.Context, action string, tenantID tenant.ID, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	// Tenant lifecycle events have no authenticated user actor at this
	// layer (the operator calling the orchestrator API is attributed
	// upstream, at the gateway); uuid.Nil marks a system-originated
	// entry, same convention as authbff.Service.logAudit on parse failure.
	s.audit.Log(ctx, uuid.Nil, audit.EventType(action), "tenant:"+tenantID.String(), metadata)
}
