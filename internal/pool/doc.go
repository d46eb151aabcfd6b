// Package pool harvests several targets concurrently. Each job runs on its
// own driver and controller; nothing is shared between sessions except the
// sinks and the ledger, which are safe for concurrent use.
//
// Results must be drained while jobs are submitted, and Stop must be called
// once submission is done so that Results is closed:
//
//	p := pool.New(ctx, workers, runner, log)
//	p.Start()
//	go func() {
//		for _, job := range jobs {
//			p.Submit(job)
//		}
//		p.Stop()
//	}()
//	for res := range p.Results() {
//		...
//	}
package pool
