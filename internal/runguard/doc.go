// Package runguard rejects a second in-flight bootstrap for the same client run.
//
// A browser page load carries a run key (the X-Bootstrap-Run header). While a
// bootstrap for that key is running, further bootstraps for the key are
// rejected. Entries expire after a TTL so a run whose client went away cannot
// hold its key forever, and the guard is bounded in size with oldest-first
// eviction.
//
// # Usage
//
//	guard := runguard.New(2*time.Minute, 10000)
//	defer guard.Close()
//
//	release, ok := guard.Acquire(runKey)
//	if !ok {
//	    // reject: a bootstrap for this run is already in progress
//	}
//	defer release()
//
// # Thread Safety
//
// All methods are safe for concurrent use. A background goroutine removes
// expired entries once a minute until Close is called.
package runguard
