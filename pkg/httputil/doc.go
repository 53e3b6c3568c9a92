// Package httputil provides retry helpers for backend HTTP clients.
//
// Wrap transient failures (connection errors, 5xx responses) in
// [RetryableError] and run the request through [Retry]:
//
//	err := httputil.Retry(ctx, attempts, 500*time.Millisecond, func() error {
//	    resp, err := http.DefaultClient.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Errors that are not wrapped stop the loop immediately, and a single
// attempt performs no retry at all.
package httputil
