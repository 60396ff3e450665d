// Package ledger persists one usage record per gateway response in SQLite.
//
// The in-process monitor keeps running totals that reset with the process
// and the UTC period. The ledger is the durable counterpart: every finalized
// response, cache hits and failures included, becomes a row that can be
// rolled up by day later.
//
// # Usage
//
//	store, err := ledger.Open(ledger.Config{Path: "data/usage.db"})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	gw, err := gateway.New(&gateway.Context{
//		// ...
//		Observers: []gateway.Observer{store},
//	})
//
// Rows older than the retention window are removed with Prune, usually from
// the maintenance scheduler.
package ledger
