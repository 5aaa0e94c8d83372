// Package resilience retries operations that fail transiently, such as a
// submission rejected as busy while the pipeline drains.
//
//	res, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 5,
//	    RetryIf:     func(err error) bool { return errors.HasCode(err, errors.ErrCodeBusy) },
//	}, func() (*annotator.Result, error) {
//	    return svc.Annotate(ctx, req)
//	})
package resilience
