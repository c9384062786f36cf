// Package monitor holds the polling session: the sensor address, which panel
// is showing, and the fetch cycle bookkeeping.
//
// A Monitor is driven by three kinds of trigger plus form submissions:
//
//	TriggerStartup  the first cycle; always fetches, even with no address
//	TriggerTick     the repeating poll; skipped while the form is showing
//	                or while another cycle is still in flight
//	TriggerRefresh  a user-requested fetch while the gauge is showing
//	Submit(addr)    a new address from the form; persisted, then fetched
//
// Each accepted trigger yields a Cycle carrying a sequence number. Run does
// the blocking work (persist, fetch) and Complete folds the Outcome back into
// the session. A Submit supersedes any in-flight cycle, and Complete ignores
// outcomes whose sequence number is no longer current, so an old, slow fetch
// can never overwrite a newer result.
//
// Display state follows the last completed cycle:
//
//	fetch error        -> ShowForm
//	non-numeric reply  -> ShowForm, gauge not redrawn
//	numeric reply      -> ShowGauge, gauge redrawn with "<raw> ppm"
package monitor
