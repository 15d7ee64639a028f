package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestAudit travels with the request so middleware installed outside the
// auth layer can still attribute the request to a merchant after the fact.
type requestAudit struct {
	mchID int64
}

// TraceMiddleware assigns each request a trace identifier and an audit
// record. Inbound trace ids are accepted only when they parse as UUIDs, so
// callers cannot plant arbitrary text in the audit trail.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if uuid.Validate(traceID) != nil {
			traceID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), traceContextKey, traceID)
		ctx = context.WithValue(ctx, auditContextKey, &requestAudit{})
		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func auditFromContext(ctx context.Context) *requestAudit {
	if ctx == nil {
		return nil
	}
	if a, ok := ctx.Value(auditContextKey).(*requestAudit); ok {
		return a
	}
	return nil
}
