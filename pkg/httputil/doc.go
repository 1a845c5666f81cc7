// Package httputil provides HTTP helpers shared by the overlay client and
// the serve API.
//
//   - [Retry]: retry with exponential backoff for errors marked retryable
//   - [CheckStatus]: map response codes to coded errors, marking 5xx and 429
//     as retryable
//   - [NewHTTPClient]: client with the standard timeout
//
// Usage:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp.StatusCode)
//	})
package httputil
