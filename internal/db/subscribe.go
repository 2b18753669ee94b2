package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/teamflow/internal/store"
)

// broker holds the subscription registry. Its mutex also serialises writes,
// so snapshots computed under it are delivered in commit order.
type broker struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*subscription
}

// subscription delivers snapshots to one handler through a dedicated
// goroutine. Publishing coalesces: when the handler lags, intermediate
// snapshots are replaced by the latest one, never reordered.
type subscription struct {
	collection string
	query      store.Query
	fn         store.SnapshotFunc

	mu      sync.Mutex
	cond    *sync.Cond
	pending []store.Document
	queued  bool
	closed  bool
	done    chan struct{}
}

// Subscribe registers fn against the query and delivers the initial result
// set before any subsequent commit's snapshot.
func (d *DB) Subscribe(ctx context.Context, collection string, q store.Query, fn store.SnapshotFunc) (func(), error) {
	sub := &subscription{
		collection: collection,
		query:      q,
		fn:         fn,
		done:       make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)

	d.broker.mu.Lock()
	defer d.broker.mu.Unlock()

	initial, err := d.QueryDocuments(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("Subscribe: initial snapshot: %w", err)
	}

	if d.broker.subs == nil {
		d.broker.subs = make(map[int64]*subscription)
	}
	d.broker.nextID++
	id := d.broker.nextID
	d.broker.subs[id] = sub

	go sub.run()
	sub.publish(initial)

	unsubscribe := func() {
		d.broker.mu.Lock()
		delete(d.broker.subs, id)
		d.broker.mu.Unlock()
		sub.close()
	}
	return unsubscribe, nil
}

// notifyLocked re-evaluates every subscription on collection and publishes
// the fresh result set. Caller holds d.broker.mu, so publish order matches
// commit order for each subscription.
func (d *DB) notifyLocked(ctx context.Context, collection string) {
	for _, sub := range d.broker.subs {
		if sub.collection != collection {
			continue
		}
		docs, err := d.QueryDocuments(ctx, collection, sub.query)
		if err != nil {
			slog.Warn("db: subscription refresh failed", "collection", collection, "err", err)
			continue
		}
		sub.publish(docs)
	}
}

// closeAll tears down every subscription; used by DB.Close.
func (d *DB) closeAll() {
	d.broker.mu.Lock()
	subs := make([]*subscription, 0, len(d.broker.subs))
	for id, sub := range d.broker.subs {
		subs = append(subs, sub)
		delete(d.broker.subs, id)
	}
	d.broker.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (s *subscription) publish(docs []store.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = docs
	s.queued = true
	s.cond.Signal()
}

// close deregisters delivery and blocks until the delivery goroutine has
// exited, guaranteeing no callback runs after close returns.
func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	<-s.done
}

func (s *subscription) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for !s.queued && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		docs := s.pending
		s.pending, s.queued = nil, false
		s.mu.Unlock()

		s.fn(docs)
	}
}
