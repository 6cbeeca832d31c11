package app_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"estate_reviews/internal/domain"
)

// ---- fakes ----

type fakeReviews struct {
	mu      sync.Mutex
	rows    map[string]domain.Review
	failIns error
}

func newFakeReviews(rs ...domain.Review) *fakeReviews {
	f := &fakeReviews{rows: map[string]domain.Review{}}
	for _, r := range rs {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeReviews) InsertReview(ctx context.Context, r domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIns != nil {
		return f.failIns
	}
	f.rows[r.ID] = r.Clone()
	return nil
}

func (f *fakeReviews) ApplyAction(ctx context.Context, id string, a domain.Action, now time.Time) (domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	next, err := domain.Transition(domain.ModerationState{Status: r.Status, DeletedAt: r.DeletedAt}, a, now)
	if err != nil {
		return domain.Review{}, err
	}
	r.Status, r.DeletedAt = next.Status, next.DeletedAt
	f.rows[id] = r
	return r.Clone(), nil
}

func (f *fakeReviews) GetReview(ctx context.Context, id string) (domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	return r.Clone(), nil
}

// ListVisible deliberately returns every row for the triple so the service's
// own filter is exercised.
func (f *fakeReviews) ListVisible(ctx context.Context, t domain.Triple) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for _, r := range f.rows {
		if strings.EqualFold(r.County, t.County) && strings.EqualFold(r.Town, t.Town) && strings.EqualFold(r.Estate, t.Estate) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReviews) ListByView(ctx context.Context, v domain.View, limit int) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for _, r := range f.rows {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeReviews) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeSuggestions struct {
	rows map[string]domain.AreaSuggestion
}

func (f *fakeSuggestions) InsertSuggestion(ctx context.Context, s domain.AreaSuggestion) error {
	if f.rows == nil {
		f.rows = map[string]domain.AreaSuggestion{}
	}
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSuggestions) GetSuggestion(ctx context.Context, id string) (domain.AreaSuggestion, error) {
	s, ok := f.rows[id]
	if !ok {
		return domain.AreaSuggestion{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSuggestions) ListSuggestions(ctx context.Context, st domain.Status, limit int) ([]domain.AreaSuggestion, error) {
	var out []domain.AreaSuggestion
	for _, s := range f.rows {
		if s.Status == st {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSuggestions) SetSuggestionStatus(ctx context.Context, id string, a domain.Action) (domain.AreaSuggestion, error) {
	s, ok := f.rows[id]
	if !ok {
		return domain.AreaSuggestion{}, domain.ErrNotFound
	}
	next, err := domain.Transition(domain.ModerationState{Status: s.Status}, a, time.Now())
	if err != nil {
		return domain.AreaSuggestion{}, err
	}
	s.Status = next.Status
	f.rows[id] = s
	return s, nil
}

type fakePlaces struct {
	rows []domain.Place
	err  error
}

func (f *fakePlaces) ListPlaces(ctx context.Context) ([]domain.Place, error) { return f.rows, f.err }
func (f *fakePlaces) UpsertPlaces(ctx context.Context, ps []domain.Place) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, ps...)
	return nil
}

type fakeLog struct {
	mu      sync.Mutex
	entries []domain.SubmissionLogEntry
}

func (f *fakeLog) Append(ctx context.Context, e domain.SubmissionLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLog) CountSince(ctx context.Context, h string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.IPHash == h && !e.InsertedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type fakeCache struct {
	store map[string][]domain.PublicReview
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*[]domain.PublicReview) = append([]domain.PublicReview(nil), v...)
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]domain.PublicReview{}
	}
	c.store[key] = v.([]domain.PublicReview)
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

type fakeCaptcha struct{ ok bool }

func (f fakeCaptcha) Verify(ctx context.Context, token, ip string) (bool, error) {
	return f.ok && token != "", nil
}

type fakeNotifier struct {
	reviews     int
	suggestions int
	err         error
}

func (n *fakeNotifier) ReviewSubmitted(ctx context.Context, r domain.Review) error {
	n.reviews++
	return n.err
}

func (n *fakeNotifier) SuggestionSubmitted(ctx context.Context, s domain.AreaSuggestion) error {
	n.suggestions++
	return n.err
}

type fakeOverpass struct {
	byTown map[string][]domain.OSMElement
	fail   map[string]bool
}

func (f *fakeOverpass) AreasInTown(ctx context.Context, county, town string) ([]domain.OSMElement, error) {
	if f.fail[town] {
		return nil, errors.New("overpass 504")
	}
	return f.byTown[town], nil
}

func ptr[T any](v T) *T { return &v }
