// Package retry re-runs driver operations that fail transiently: page
// loads that time out, and listings of a rendered timeline that go stale
// while being read.
//
//	handles, err := retry.DoValue(ctx, retry.Policy{
//		Backoff: &retry.JitterBackoff{Min: 2 * time.Second, Max: 4 * time.Second},
//		RetryIf: retry.TransientOnly,
//	}, driver.Handles)
//
// With MaxAttempts 0 the loop only ends on success, on an error RetryIf
// rejects, or when ctx is done. DefaultRetryIf never retries context errors
// or errors typed fatal_config, auth, storage or not_found.
package retry
