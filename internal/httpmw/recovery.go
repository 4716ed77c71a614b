package httpmw

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
)

// Recovery captures panics, logs them with a stack trace, reports to Sentry
// if a hub is attached, and answers with a generic 500. A panic reaching a
// handler is always a bug — missing tenant context in service code, for
// instance — never an expected auth/z outcome.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())
				slog.Error("panic_recovered",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"stack", stack,
				)

				if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
					hub.Recover(err)
				}

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
