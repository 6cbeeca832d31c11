// Package console keeps a moderator's working list in step with the server.
// Actions show immediately and are rolled back when the server disagrees.
package console

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"estate_reviews/internal/domain"
)

// Remote is the server side of the console.
type Remote interface {
	List(ctx context.Context, v domain.View) ([]domain.Review, error)
	Moderate(ctx context.Context, ids []string, a domain.Action) (domain.BulkResult, error)
}

type Console struct {
	remote Remote
	now    func() time.Time

	applyMu sync.Mutex // one action in flight at a time

	mu    sync.RWMutex
	view  domain.View
	items []domain.Review
}

func New(r Remote) *Console {
	return &Console{remote: r, now: time.Now, view: domain.ViewPending}
}

// Load replaces the list with the server's records for v.
func (c *Console) Load(ctx context.Context, v domain.View) error {
	rs, err := c.remote.List(ctx, v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.view, c.items = v, cloneAll(rs)
	c.mu.Unlock()
	return nil
}

func (c *Console) View() domain.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Items returns a copy of the current list.
func (c *Console) Items() []domain.Review {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.items)
}

// Apply shows the action locally, then asks the server. On a transport
// error the list is restored and the error returned. On partial success
// only the IDs the server accepted stay applied; the rest are returned.
func (c *Console) Apply(ctx context.Context, ids []string, a domain.Action) ([]string, error) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	snapshot := cloneAll(c.items)
	view := c.view
	c.items = applyLocal(snapshot, view, ids, a, c.now())
	c.mu.Unlock()

	res, err := c.remote.Moderate(ctx, ids, a)
	if err != nil {
		log.Warn().Err(err).Str("action", string(a)).Int("ids", len(ids)).Msg("moderation failed, rolling back")
		c.restore(snapshot, nil, a)
		return nil, err
	}
	if res.AllOK() {
		return nil, nil
	}

	failed := res.Failed()
	log.Warn().Str("action", string(a)).Strs("failed", failed).Msg("moderation partially applied")
	c.restore(snapshot, res.Succeeded(), a)
	return failed, nil
}

// restore puts snapshot back and re-applies a to keep.
func (c *Console) restore(snapshot []domain.Review, keep []string, a domain.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = applyLocal(snapshot, c.view, keep, a, c.now())
}

// applyLocal returns a new list with a applied to ids. Records that leave
// view are dropped; records the action does not fit are left alone.
func applyLocal(items []domain.Review, view domain.View, ids []string, a domain.Action, now time.Time) []domain.Review {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]domain.Review, 0, len(items))
	for _, r := range items {
		r = r.Clone()
		if _, ok := want[r.ID]; ok {
			if next, err := domain.Transition(domain.ModerationState{Status: r.Status, DeletedAt: r.DeletedAt}, a, now); err == nil {
				r.Status, r.DeletedAt = next.Status, next.DeletedAt
			}
		}
		if r.InView(view) {
			out = append(out, r)
		}
	}
	return out
}

func cloneAll(rs []domain.Review) []domain.Review {
	out := make([]domain.Review, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}
