package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexis/lmsadmin/internal/models"
)

// scripted answers each call with the next response; the last one repeats.
type scripted struct {
	mu        sync.Mutex
	responses [][]models.Transaction
	errs      []error
	calls     int
}

func (s *scripted) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func (s *scripted) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scripted) push(txs []models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, txs)
}

func tx(id int64, status models.TransactionStatus) models.Transaction {
	return models.Transaction{ID: id, MemberID: 1, Amount: 10, Status: status}
}

func TestNextDelay(t *testing.T) {
	base, max := 3*time.Second, 30*time.Second
	tests := []struct {
		name    string
		current time.Duration
		changed bool
		want    time.Duration
	}{
		{"doubles", 3 * time.Second, false, 6 * time.Second},
		{"doubles again", 12 * time.Second, false, 24 * time.Second},
		{"capped", 24 * time.Second, false, 30 * time.Second},
		{"stays capped", 30 * time.Second, false, 30 * time.Second},
		{"resets on change", 24 * time.Second, true, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextDelay(tt.current, base, max, tt.changed))
		})
	}
}

func runWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Error("watcher did not stop")
		}
	})
	return cancel
}

func TestRun_IdleWithoutPending(t *testing.T) {
	src := &scripted{responses: [][]models.Transaction{{tx(1, models.StatusCompleted)}}}
	w := New(src, 5*time.Millisecond, 20*time.Millisecond, nil)
	assert.False(t, w.Polled())
	runWatcher(t, w)

	require.Eventually(t, func() bool { return src.count() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, w.Polled, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, src.count())

	w.Kick()
	require.Eventually(t, func() bool { return src.count() == 2 }, time.Second, time.Millisecond)
}

func TestRun_EmitsStatusChanges(t *testing.T) {
	src := &scripted{responses: [][]models.Transaction{
		{tx(1, models.StatusPending), tx(2, models.StatusCompleted)},
		{tx(1, models.StatusPending), tx(2, models.StatusCompleted)},
		{tx(3, models.StatusPending), tx(1, models.StatusCompleted), tx(2, models.StatusCompleted)},
		{tx(3, models.StatusFailed), tx(1, models.StatusCompleted), tx(2, models.StatusCompleted)},
	}}
	w := New(src, 2*time.Millisecond, 10*time.Millisecond, nil)

	var mu sync.Mutex
	var got []Update
	w.OnUpdate(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, u)
	})
	runWatcher(t, w)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(3), got[0].Transaction.ID)
	assert.Empty(t, got[0].Previous)
	assert.Equal(t, int64(1), got[1].Transaction.ID)
	assert.Equal(t, models.StatusPending, got[1].Previous)
	assert.Equal(t, models.StatusCompleted, got[1].Transaction.Status)
	assert.Equal(t, models.StatusFailed, got[2].Transaction.Status)

	require.Eventually(t, func() bool { return len(w.Pending()) == 0 }, time.Second, time.Millisecond)
	assert.Len(t, w.Transactions(), 3)
}

func TestRun_BacksOffWhileUnchanged(t *testing.T) {
	src := &scripted{responses: [][]models.Transaction{{tx(1, models.StatusPending)}}}
	w := New(src, 10*time.Millisecond, 80*time.Millisecond, nil)
	runWatcher(t, w)

	time.Sleep(200 * time.Millisecond)
	// 10 + 20 + 40 + 80 + 80 ms of waits fit in the window; a fixed
	// interval would have polled about 20 times.
	assert.Less(t, src.count(), 10)
	assert.GreaterOrEqual(t, src.count(), 3)
}

func TestRun_KeepsPollingThroughErrors(t *testing.T) {
	src := &scripted{
		responses: [][]models.Transaction{{tx(1, models.StatusPending)}, nil, {tx(1, models.StatusCompleted)}},
		errs:      []error{nil, errors.New("connection refused")},
	}
	w := New(src, 2*time.Millisecond, 5*time.Millisecond, nil)
	var updates int
	var mu sync.Mutex
	w.OnUpdate(func(Update) {
		mu.Lock()
		updates++
		mu.Unlock()
	})
	runWatcher(t, w)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return updates == 1
	}, time.Second, time.Millisecond)
}

func TestKick_DoesNotBlock(t *testing.T) {
	w := New(&scripted{responses: [][]models.Transaction{nil}}, time.Second, time.Second, nil)
	for i := 0; i < 10; i++ {
		w.Kick()
	}
	assert.Len(t, w.kick, 1)
}

func TestNew_MaxBelowBase(t *testing.T) {
	w := New(&scripted{}, 5*time.Second, time.Second, nil)
	assert.Equal(t, 5*time.Second, w.maxInterval)
}
