// Package watch follows transactions until the rule engine has settled
// them. It polls only while something is PENDING, backing off while nothing
// changes.
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexis/lmsadmin/internal/metrics"
	"github.com/alexis/lmsadmin/internal/models"
)

// Source lists recent transactions. *client.Client satisfies it.
type Source interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
}

// Update reports a transaction whose status moved. Previous is empty for a
// transaction first seen after the initial poll.
type Update struct {
	Transaction models.Transaction       `json:"transaction"`
	Previous    models.TransactionStatus `json:"previous,omitempty"`
}

type Watcher struct {
	source      Source
	interval    time.Duration
	maxInterval time.Duration
	logger      *slog.Logger
	metrics     *metrics.Collector
	kick        chan struct{}

	mu        sync.Mutex
	statuses  map[int64]models.TransactionStatus
	latest    []models.Transaction
	seeded    bool
	listeners []func(Update)
}

// New returns a watcher polling every interval while transactions are
// pending, stretching up to maxInterval while nothing changes.
func New(source Source, interval, maxInterval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if maxInterval < interval {
		maxInterval = interval
	}
	return &Watcher{
		source:      source,
		interval:    interval,
		maxInterval: maxInterval,
		logger:      logger,
		kick:        make(chan struct{}, 1),
		statuses:    map[int64]models.TransactionStatus{},
	}
}

func (w *Watcher) SetMetrics(m *metrics.Collector) { w.metrics = m }

// OnUpdate registers fn for every status change. fn runs on the watcher
// goroutine and must not block.
func (w *Watcher) OnUpdate(fn func(Update)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Kick makes the watcher poll now at the base interval, e.g. after a
// transaction was created.
func (w *Watcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Transactions returns the list seen by the last successful poll.
func (w *Watcher) Transactions() []models.Transaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Transaction{}, w.latest...)
}

// Polled reports whether a poll has succeeded yet.
func (w *Watcher) Polled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seeded
}

// Pending returns the transactions still PENDING at the last poll.
func (w *Watcher) Pending() []models.Transaction {
	var out []models.Transaction
	for _, t := range w.Transactions() {
		if t.Status == models.StatusPending {
			out = append(out, t)
		}
	}
	return out
}

// Run polls until ctx is done. With nothing pending it idles until Kick;
// after a Kick the delay starts again at the base interval.
func (w *Watcher) Run(ctx context.Context) error {
	delay := w.interval
	reset := true
	for {
		changed, pending, err := w.poll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			w.logger.Warn("pending transaction poll failed", "error", err)
		}

		if pending == 0 && err == nil {
			w.metrics.ObservePoll(0, 0)
			w.logger.Debug("no pending transactions, watcher idle")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.kick:
				reset = true
				continue
			}
		}

		if reset {
			delay = w.interval
			reset = false
		} else {
			delay = nextDelay(delay, w.interval, w.maxInterval, changed)
		}
		w.metrics.ObservePoll(pending, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-w.kick:
			timer.Stop()
			reset = true
		case <-timer.C:
		}
	}
}

// nextDelay resets to base after a change and doubles otherwise, capped at max.
func nextDelay(current, base, max time.Duration, changed bool) time.Duration {
	if changed {
		return base
	}
	next := current * 2
	if next > max {
		next = max
	}
	return next
}

// poll fetches the list once and reports whether any status moved and how
// many transactions are pending.
func (w *Watcher) poll(ctx context.Context) (bool, int, error) {
	txs, err := w.source.ListTransactions(ctx)
	if err != nil {
		w.mu.Lock()
		pending := countPending(w.latest)
		w.mu.Unlock()
		return false, pending, err
	}

	var updates []Update
	w.mu.Lock()
	for _, t := range txs {
		prev, known := w.statuses[t.ID]
		switch {
		case known && prev != t.Status:
			updates = append(updates, Update{Transaction: t, Previous: prev})
		case !known && w.seeded:
			updates = append(updates, Update{Transaction: t})
		}
		w.statuses[t.ID] = t.Status
	}
	w.latest = txs
	w.seeded = true
	listeners := append([]func(Update){}, w.listeners...)
	w.mu.Unlock()

	for _, u := range updates {
		w.logger.Info("transaction status changed",
			"id", u.Transaction.ID, "from", u.Previous, "to", u.Transaction.Status)
		for _, fn := range listeners {
			fn(u)
		}
	}
	return len(updates) > 0, countPending(txs), nil
}

func countPending(txs []models.Transaction) int {
	n := 0
	for _, t := range txs {
		if t.Status == models.StatusPending {
			n++
		}
	}
	return n
}
