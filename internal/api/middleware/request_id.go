package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey namespaces values this package stores on request contexts.
type contextKey string

// RequestIDKey is the context key under which RequestID stores the id.
const RequestIDKey contextKey = "request_id"

// RequestID tags every request with an id so a workflow run can be traced
// across the access log and Sentry events. A client-supplied X-Request-ID is
// honored; otherwise a UUID is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from context, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}
