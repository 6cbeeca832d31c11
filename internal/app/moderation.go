package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"estate_reviews/internal/adapters/observability"
	"estate_reviews/internal/domain"
)

const (
	MaxBulkIDs       = 200
	defaultListLimit = 200
)

// Per-item error codes reported in bulk results.
const (
	CodeNotFound           = "not_found"
	CodeInvalidTransition  = "invalid_transition"
	CodeStorageUnavailable = "storage_unavailable"
)

type ModerationService struct {
	reviews     domain.ReviewRepository
	suggestions domain.SuggestionRepository
	feed        *FeedService
	catalog     *Catalog
	workers     int
	now         func() time.Time
}

func NewModerationService(r domain.ReviewRepository, sr domain.SuggestionRepository, feed *FeedService, catalog *Catalog) *ModerationService {
	return &ModerationService{reviews: r, suggestions: sr, feed: feed, catalog: catalog, workers: 4, now: time.Now}
}

// List returns one moderation view. Non-deleted views never include deleted rows.
func (s *ModerationService) List(ctx context.Context, v domain.View) ([]domain.Review, error) {
	rs, err := s.reviews.ListByView(ctx, v, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s", domain.ErrStorageUnavailable, v)
	}
	out := make([]domain.Review, 0, len(rs))
	for _, r := range rs {
		if r.InView(v) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Apply runs action on every id. Each id commits on its own, so the result
// can be a partial success.
func (s *ModerationService) Apply(ctx context.Context, ids []string, a domain.Action) (domain.BulkResult, error) {
	ids, err := cleanIDs(ids)
	if err != nil {
		return domain.BulkResult{}, err
	}
	now := s.now()
	res := domain.BulkResult{Action: a, Items: make([]domain.ItemResult, len(ids))}

	var (
		mu      sync.Mutex
		touched []domain.Triple
	)
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			r, err := s.reviews.ApplyAction(ctx, id, a, now)
			res.Items[i] = itemResult(id, r.Status, r.DeletedAt, err)
			observability.ObserveModeration("review", string(a), err == nil)
			if err == nil {
				mu.Lock()
				touched = append(touched, r.Triple())
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidTransition) {
				log.Error().Err(err).Str("id", id).Str("action", string(a)).Msg("moderation action failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.feed != nil {
		seen := map[string]bool{}
		for _, t := range touched {
			if k := tripleKey(t); !seen[k] {
				seen[k] = true
				s.feed.Invalidate(ctx, t)
			}
		}
	}
	return res, nil
}

// ListSuggestions supports the pending, approved and rejected views.
func (s *ModerationService) ListSuggestions(ctx context.Context, v domain.View) ([]domain.AreaSuggestion, error) {
	st := domain.Status(v)
	if !st.Valid() {
		return nil, &domain.InvalidPayloadError{Fields: []domain.FieldError{{Field: "view", Message: "must be pending, approved or rejected"}}}
	}
	out, err := s.suggestions.ListSuggestions(ctx, st, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list suggestions", domain.ErrStorageUnavailable)
	}
	return out, nil
}

// ApplySuggestions approves or rejects suggestions. An approved suggestion
// becomes a place in the table and the live index.
func (s *ModerationService) ApplySuggestions(ctx context.Context, ids []string, a domain.Action) (domain.BulkResult, error) {
	if a != domain.ActionApprove && a != domain.ActionReject {
		return domain.BulkResult{}, &domain.InvalidPayloadError{Fields: []domain.FieldError{{Field: "action", Message: "must be approve or reject"}}}
	}
	ids, err := cleanIDs(ids)
	if err != nil {
		return domain.BulkResult{}, err
	}
	res := domain.BulkResult{Action: a, Items: make([]domain.ItemResult, 0, len(ids))}
	for _, id := range ids {
		var (
			sg  domain.AreaSuggestion
			err error
		)
		if a == domain.ActionApprove {
			err = s.placeSuggestion(ctx, id)
		}
		if err == nil {
			sg, err = s.suggestions.SetSuggestionStatus(ctx, id, a)
		}
		observability.ObserveModeration("suggestion", string(a), err == nil)
		res.Items = append(res.Items, itemResult(id, sg.Status, nil, err))
	}
	return res, nil
}

// placeSuggestion adds the suggested estate to the places table and the live
// index before the approval is stored. A failure leaves the suggestion
// pending, and the upsert makes a retry safe.
func (s *ModerationService) placeSuggestion(ctx context.Context, id string) error {
	sg, err := s.suggestions.GetSuggestion(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: get suggestion", domain.ErrStorageUnavailable)
	}
	if _, err := domain.Transition(domain.ModerationState{Status: sg.Status}, domain.ActionApprove, s.now()); err != nil {
		return err
	}
	if s.catalog == nil {
		return nil
	}
	notes := "suggested"
	if sg.Notes != nil {
		notes = *sg.Notes
	}
	if _, err := s.catalog.AddPlace(ctx, domain.Place{County: sg.County, Town: sg.Town, Estate: sg.ProposedEstate, Source: "suggestion", Notes: notes}); err != nil {
		log.Error().Err(err).Str("id", id).Msg("suggested estate not added to places")
		return fmt.Errorf("%w: add place", domain.ErrStorageUnavailable)
	}
	return nil
}

func itemResult(id string, st domain.Status, deleted *time.Time, err error) domain.ItemResult {
	if err == nil {
		return domain.ItemResult{ID: id, OK: true, Status: st, Deleted: deleted}
	}
	it := domain.ItemResult{ID: id}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		it.Error = CodeNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		it.Error = CodeInvalidTransition
	default:
		it.Error = CodeStorageUnavailable
	}
	return it
}

// cleanIDs trims, drops blanks and duplicates, and enforces the batch size.
func cleanIDs(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	switch {
	case len(out) == 0:
		return nil, &domain.InvalidPayloadError{Fields: []domain.FieldError{{Field: "ids", Message: "required"}}}
	case len(out) > MaxBulkIDs:
		return nil, &domain.InvalidPayloadError{Fields: []domain.FieldError{{Field: "ids", Message: fmt.Sprintf("at most %d per request", MaxBulkIDs)}}}
	}
	return out, nil
}
