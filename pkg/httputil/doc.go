// Package httputil provides HTTP helpers shared by the REST clients of the
// AI providers.
//
// [Backoff.Do] repeats an operation while it fails transiently. A failure
// is transient when it is a 429 or 5xx [StatusError], or when it carries a
// retryable code from the errors package (network, timeout, rate limit):
//
//	err := httputil.DefaultBackoff.Do(ctx, func(ctx context.Context) error {
//	    resp, err := client.Do(req.WithContext(ctx))
//	    if err != nil {
//	        return errs.Wrap(errs.ErrCodeNetwork, err, "post")
//	    }
//	    defer resp.Body.Close()
//	    body, _ := io.ReadAll(resp.Body)
//	    return httputil.CheckStatus(resp, body)
//	})
//
// A Retry-After header on a rate-limited response stretches the next wait.
package httputil
