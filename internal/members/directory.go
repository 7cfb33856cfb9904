// Package members keeps the member pick-list shared by the dashboard
// screens. The list is fetched once at start-up and replaced on demand; a
// failed refresh keeps serving the previous list.
package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alexis/lmsadmin/internal/models"
)

var ErrClosed = errors.New("member directory closed")

// Source lists members in their trimmed form. *client.Client satisfies it.
type Source interface {
	ListMembersLite(ctx context.Context, limit int) ([]models.MemberLite, error)
}

type Directory struct {
	source Source
	limit  int
	logger *slog.Logger
	group  singleflight.Group

	mu          sync.RWMutex
	members     []models.MemberLite
	byID        map[int64]int
	loaded      bool
	lastErr     error
	refreshedAt time.Time
	closed      bool
	listeners   []func(n int)
}

func New(source Source, limit int, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		source: source,
		limit:  limit,
		logger: logger,
		byID:   map[int64]int{},
	}
}

// OnRefresh registers fn to be called with the member count after every
// successful refresh.
func (d *Directory) OnRefresh(fn func(n int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Init loads the directory unless it already holds a list.
func (d *Directory) Init(ctx context.Context) error {
	d.mu.RLock()
	loaded, closed := d.loaded, d.closed
	d.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if loaded {
		return nil
	}
	return d.Refresh(ctx)
}

// Refresh fetches the list again. Concurrent callers share one fetch.
func (d *Directory) Refresh(ctx context.Context) error {
	if d.isClosed() {
		return ErrClosed
	}
	_, err, _ := d.group.Do("refresh", func() (interface{}, error) {
		return nil, d.refresh(ctx)
	})
	return err
}

func (d *Directory) refresh(ctx context.Context) error {
	list, err := d.source.ListMembersLite(ctx, d.limit)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		d.lastErr = err
		kept := len(d.members)
		d.mu.Unlock()
		d.logger.Warn("member directory refresh failed", "error", err, "kept", kept)
		return fmt.Errorf("refresh members: %w", err)
	}

	byID := make(map[int64]int, len(list))
	for i, m := range list {
		byID[m.ID] = i
	}
	d.members = list
	d.byID = byID
	d.loaded = true
	d.lastErr = nil
	d.refreshedAt = time.Now()
	listeners := append([]func(int){}, d.listeners...)
	d.mu.Unlock()

	d.logger.Debug("member directory refreshed", "members", len(list))
	for _, fn := range listeners {
		fn(len(list))
	}
	return nil
}

// Run refreshes the directory every interval until ctx is done or the
// directory is closed.
func (d *Directory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Refresh(ctx); errors.Is(err, ErrClosed) {
				return
			}
		}
	}
}

// Members returns a copy of the current list in server order.
func (d *Directory) Members() []models.MemberLite {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil
	}
	return append([]models.MemberLite{}, d.members...)
}

func (d *Directory) Lookup(id int64) (models.MemberLite, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.byID[id]
	if !ok || d.closed {
		return models.MemberLite{}, false
	}
	return d.members[i], true
}

// Search matches q against name, email and phone, ignoring case.
func (d *Directory) Search(q string) []models.MemberLite {
	q = strings.ToLower(strings.TrimSpace(q))
	all := d.Members()
	if q == "" {
		return all
	}
	out := all[:0]
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Email), q) ||
			strings.Contains(m.Phone, q) {
			out = append(out, m)
		}
	}
	return out
}

// Loaded reports whether at least one refresh succeeded.
func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Err returns the error of the last refresh, nil if it succeeded.
func (d *Directory) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	return d.lastErr
}

// RefreshedAt returns when the list was last replaced, zero before the
// first successful refresh.
func (d *Directory) RefreshedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshedAt
}

// Close drops the list. Later calls fail with ErrClosed.
func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	d.members = nil
	d.byID = map[int64]int{}
	d.listeners = nil
	return nil
}

func (d *Directory) isClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}
