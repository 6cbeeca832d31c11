package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"estate_reviews/internal/domain"
)

// FeedService serves the public review feed. Only approved, non-deleted
// reviews leave this service, whatever the repository returns.
type FeedService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	catalog  *Catalog
	cacheTTL time.Duration
}

func NewFeedService(r domain.ReviewRepository, c domain.Cache, catalog *Catalog, ttl time.Duration) *FeedService {
	return &FeedService{repo: r, cache: c, catalog: catalog, cacheTTL: ttl}
}

// EstatePage is the detail view for one estate.
type EstatePage struct {
	domain.Triple
	Summary domain.ReviewSummary  `json:"summary"`
	Items   []domain.PublicReview `json:"items"`
}

func feedKey(t domain.Triple) string { return "feed:" + tripleKey(t) }

func (s *FeedService) List(ctx context.Context, t domain.Triple) ([]domain.PublicReview, error) {
	t = trimTriple(t)
	v := &domain.InvalidPayloadError{}
	checkTriple(v, t)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if s.catalog != nil && s.catalog.Len() > 0 {
		r, ok := s.catalog.Resolve(t)
		if !ok {
			return nil, domain.ErrNotFound
		}
		t = r
	}

	key := feedKey(t)
	var out []domain.PublicReview
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	rs, err := s.repo.ListVisible(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%w: list reviews", domain.ErrStorageUnavailable)
	}
	out = publicFeed(rs)

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// ListBySlugs serves /{county}/{town}/{estate}.
func (s *FeedService) ListBySlugs(ctx context.Context, county, town, estate string) (EstatePage, error) {
	if s.catalog == nil {
		return EstatePage{}, domain.ErrNotFound
	}
	t, err := s.catalog.ResolveSlugs(county, town, estate)
	if err != nil {
		return EstatePage{}, err
	}
	items, err := s.List(ctx, t)
	if err != nil {
		return EstatePage{}, err
	}
	return EstatePage{Triple: t, Summary: Summarize(items), Items: items}, nil
}

// Invalidate drops the cached feed for t.
func (s *FeedService) Invalidate(ctx context.Context, t domain.Triple) {
	if s.cache == nil {
		return
	}
	if s.catalog != nil {
		if r, ok := s.catalog.Resolve(t); ok {
			t = r
		}
	}
	_ = s.cache.Del(ctx, feedKey(t))
}

// publicFeed keeps visible reviews, newest first, without author emails.
func publicFeed(rs []domain.Review) []domain.PublicReview {
	vis := make([]domain.Review, 0, len(rs))
	for _, r := range rs {
		if r.Visible() {
			vis = append(vis, r)
		}
	}
	sort.SliceStable(vis, func(i, j int) bool { return vis[i].CreatedAt.After(vis[j].CreatedAt) })
	out := make([]domain.PublicReview, len(vis))
	for i, r := range vis {
		out[i] = r.Public()
	}
	return out
}

func Summarize(items []domain.PublicReview) domain.ReviewSummary {
	if len(items) == 0 {
		return domain.ReviewSummary{}
	}
	sum := 0
	for _, it := range items {
		sum += it.Rating
	}
	avg := float64(sum) / float64(len(items))
	return domain.ReviewSummary{Count: len(items), Average: float64(int(avg*10+0.5)) / 10}
}
