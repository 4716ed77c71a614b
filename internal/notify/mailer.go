// Package notify holds the contract for the notification-delivery
// collaborator this system integrates with but does not implement.
// Warehouse business logic, the identity provider's own notification
// templates, and delivery infrastructure live outside this core; only
// the interface callers would depend on is kept here, with a DevMailer
// stub for local runs.
package notify

import (
	"context"
	"log/slog"
)

// EmailSender is the contract the auth BFF or orchestrator would call
// into for tenant-facing notifications (e.g. a future password-reset
// flow). Nothing in this core calls it yet: login, MFA, refresh, and
// logout carry no email step, and tenant provisioning notifications are
// the operator's concern, not this system's.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, to string, token string, appURL string) error
}

// DevMailer logs instead of sending, for local development.
type DevMailer struct {
	Logger *slog.Logger
}

func (m *DevMailer) SendPasswordReset(ctx context.Context, to string, token string, appURL string) error {
	m.Logger.InfoContext(ctx, "email suppressed in dev",
		"to", to,
		"type", "password_reset",
		"link", appURL+"/auth/reset?token="+token,
	)
	return nil
}
