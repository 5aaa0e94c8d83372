// Package sse streams Server-Sent Events to a single HTTP client.
//
// A Stream owns the response for the lifetime of the request. Poll drives
// it from a callback, which suits watching a job that is only observable by
// polling:
//
//	stream, err := sse.Open(w, log)
//	if err != nil {
//	    return
//	}
//	_ = stream.Poll(ctx, 100*time.Millisecond, func(ctx context.Context) (sse.Event, bool) {
//	    ...
//	})
package sse
