// Package harvest runs the incremental collection loop over a virtualized
// timeline view.
//
// A Controller owns one viewport.Driver and one session.Config. It moves
// through four states:
//
//	Navigating -> ExtractingPass <-> Deciding -> Terminated
//
// Each pass lists the rendered cards, keeps the trailing window of them,
// skips cards whose identity was already seen, and extracts the rest until
// the item budget is reached. After every pass the controller decides, in
// order: success, cancellation, the stagnation ceiling, then refresh or
// scroll. Stale listings are retried in place and consume no budget.
//
// Usage:
//
//	target, err := session.New(session.Options{Kind: session.TargetQuery, Identifier: "golang", MaxItems: 100})
//	if err != nil {
//		return err
//	}
//	res, err := harvest.New(driver, target, harvest.WithPacer(pacer)).Run(ctx)
//
// Run only returns an error for an unusable target. Every other ending is a
// Result whose Reason says why it stopped; Records holds whatever was
// collected up to that point.
package harvest
