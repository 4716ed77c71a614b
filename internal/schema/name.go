// Package schema implements the schema resolver and provisioner:
// deterministic tenant→schema mapping and idempotent, concurrency-safe
// schema provisioning.
package schema

import (
	"regexp"
	"strings"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// Name is a validated Postgres schema name of the form
// tenant_<sanitized>_schema.
type Name string

var namePattern = regexp.MustCompile(`^tenant_[a-z0-9_]+_schema$`)

// sanitize lowercases id and replaces every character outside [a-z0-9_]
// with '_'. The mapping is total and, in practice, injective; two distinct
// tenant ids colliding on the same sanitized form is treated as a
// configuration error caught at tenant-create time (see orchestrator).
func sanitize(id tenant.ID) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id.String()) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Resolve derives the schema name for a tenant id. The mapping is
// idempotent: Resolve(Resolve-equivalent input) always yields the same name.
func Resolve(id tenant.ID) Name {
	return Name("tenant_" + sanitize(id) + "_schema")
}

// Valid reports whether n matches the schema-name shape this system ever
// produces. The persistence adapter (component H) checks this before
// interpolating a schema name into SQL — defense in depth against
// injection even though Resolve can only ever produce valid names.
func (n Name) Valid() bool {
	return namePattern.MatchString(string(n))
}

func (n Name) String() string {
	return string(n)
}
