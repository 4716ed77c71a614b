package tenant

import "time"

// Status is a tenant's lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusInactive  Status = "INACTIVE"
)

// Record is the tenant master record. It is owned by the orchestrator
// and read by every other component through the tenant authority
// client or directly against the catalog schema.
type Record struct {
	ID             ID                `json:"id"`
	Name           string            `json:"name"`
	ContactEmail   string            `json:"contact_email"`
	Config         map[string]string `json:"config"`
	Status         Status            `json:"status"`
	RealmOverride  string            `json:"realm_override,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Realm returns the effective auth realm for the tenant: the override
// when set, otherwise the tenant id itself.
func (r Record) Realm() string {
	if r.RealmOverride != "" {
		return r.RealmOverride
	}
	return r.ID.String()
}

// ServingTraffic reports whether the tenant may currently be routed
// live requests. Only ACTIVE tenants pass the gateway's status fast
// path.
func (r Record) ServingTraffic() bool {
	return r.Status == StatusActive
}
