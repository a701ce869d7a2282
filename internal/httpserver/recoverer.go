package httpserver

import (
	"net/http"
	"runtime/debug"

	apierrors "github.com/gestfact/payments/internal/errors"
	"github.com/gestfact/payments/internal/logger"
)

// recoverer converts handler panics into JSON 500 responses. Unlike chi's
// default it never writes an HTML body, and the stack goes to the structured
// log rather than stderr.
func (h *handlers) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log := logger.FromContext(r.Context())
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("request.panic")

				apierrors.WriteError(w, apierrors.ErrCodeInternalError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
