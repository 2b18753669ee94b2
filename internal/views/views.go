// Package views implements the subscription managers: per-view registration
// of change-notification callbacks whose snapshots rebuild derived view
// state. Every view releases its subscriptions deterministically in Close
// and discards callbacks that arrive during teardown.
package views

// notifier is a coalesced change signal: waiters see at most one pending
// tick no matter how many snapshots arrived since the last receive.
type notifier struct {
	ch chan struct{}
}

func newNotifier() notifier {
	return notifier{ch: make(chan struct{}, 1)}
}

func (n notifier) notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C returns the channel a consumer waits on for view updates.
func (n notifier) C() <-chan struct{} { return n.ch }
