// Package stockservice is the minimal reference "backing service"
// standing in for the out-of-scope warehouse domain. It exists only
// to exercise the interceptor and persistence adapter contracts end
// to end: GET /api/stock-levels.
package stockservice

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/ldp-wms/tenant-core/internal/httpkit"
	"github.com/ldp-wms/tenant-core/internal/persistence"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// StockLevel is a single SKU's on-hand quantity within one tenant's
// schema (migrations/tenant/0001_init.up.sql).
type StockLevel struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// Handler serves the stock-levels endpoint via the persistence
// adapter, never touching the pool directly.
type Handler struct {
	adapter *persistence.Adapter
}

func NewHandler(adapter *persistence.Adapter) *Handler {
	return &Handler{adapter: adapter}
}

// ListStockLevels handles GET /api/stock-levels. The tenant id comes
// from the context component G already bound; this handler never reads
// a tenant id off a header or query parameter itself.
func (h *Handler) ListStockLevels(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "tenant context required")
		return
	}

	var levels []StockLevel
	err = h.adapter.WithTenant(r.Context(), tc.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, queryErr := tx.Query(ctx, "SELECT sku, quantity FROM stock_levels WHERE "+persistence.TenantFilter+" ORDER BY sku", tc.TenantID.String())
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var sl StockLevel
			if scanErr := rows.Scan(&sl.SKU, &sl.Quantity); scanErr != nil {
				return scanErr
			}
			levels = append(levels, sl)
		}
		return rows.Err()
	})

	if errors.Is(err, persistence.ErrNoTenantBound) || errors.Is(err, persistence.ErrTenantMismatch) {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid tenant scope")
		return
	}
	if err != nil {
		httpkit.RespondError(w, http.StatusInternalServerError, "failed to load stock levels")
		return
	}

	httpkit.RespondJSON(w, http.StatusOK, map[string]any{"stockLevels": levels})
}
