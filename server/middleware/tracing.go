package middleware

import (
	"net/http"

	"github.com/kbukum/annotpipe/observability"
)

// Tracing starts an observability.Operation per request. Handlers reach it
// with observability.OperationFrom to tag the job they touched.
func Tracing(service string, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, op := observability.StartOperation(r.Context(), observability.SpanHTTPRequest,
				service, r.Method+" "+r.URL.Path, r.Header.Get(RequestIDHeader), metrics)

			rw := newRecorder(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			var err error
			if rw.status >= 500 {
				err = &statusError{code: rw.status}
			}
			op.End(ctx, rw.status, err)
		})
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }
