// Package watcher refreshes analytics on a fixed interval.
//
// Each tick calls the loader's Load. A tick that fires while the previous
// load is still running supersedes it: the loader cancels the older fetch
// and only the newer outcome reaches the handler. Cancelled loads are never
// reported.
//
// Example usage:
//
//	w, err := watcher.New(orch, 5*time.Minute, func(res fetch.Result, err error) {
//		// render res
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher
