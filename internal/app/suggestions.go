package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"estate_reviews/internal/adapters/observability"
	"estate_reviews/internal/domain"
)

type SuggestionInput struct {
	County       string
	Town         string
	Estate       string
	Notes        string
	Email        string
	CaptchaToken string
	Honeypot     string
	RemoteIP     string
}

// SuggestionService takes proposals for estates missing from the index.
type SuggestionService struct {
	repo domain.SuggestionRepository
	in   Intake
	now  func() time.Time
}

func NewSuggestionService(r domain.SuggestionRepository, in Intake) *SuggestionService {
	return &SuggestionService{repo: r, in: in, now: time.Now}
}

func (s *SuggestionService) Suggest(ctx context.Context, in SuggestionInput) (domain.AreaSuggestion, error) {
	t := trimTriple(domain.Triple{County: in.County, Town: in.Town, Estate: in.Estate})
	sg := domain.AreaSuggestion{
		County:         t.County,
		Town:           t.Town,
		ProposedEstate: t.Estate,
		Notes:          optional(in.Notes),
		ContactEmail:   optional(in.Email),
	}
	v := &domain.InvalidPayloadError{}
	checkTriple(v, t)
	if sg.Notes != nil && tooLong(*sg.Notes, maxNotes) {
		v.Add("notes", fmt.Sprintf("must be at most %d characters", maxNotes))
	}
	checkEmail(v, "email", sg.ContactEmail)
	if err := v.Err(); err != nil {
		observability.ObserveSubmission("suggestion", "invalid")
		return domain.AreaSuggestion{}, err
	}
	if trapped("suggestion", in.Honeypot) {
		return domain.AreaSuggestion{}, nil
	}

	// Known counties and towns take the index spelling; the estate is new by definition.
	if s.in.Catalog != nil {
		if c, tw, ok := s.in.Catalog.LookupTown(t.County, t.Town); ok {
			sg.County, sg.Town = c, tw
		}
	}

	hash, err := s.in.admit(ctx, "suggestion", in.CaptchaToken, in.RemoteIP)
	if err != nil {
		return domain.AreaSuggestion{}, err
	}

	sg.ID = uuid.NewString()
	sg.Status = domain.StatusPending
	sg.CreatedAt = s.now().UTC()
	if err := s.repo.InsertSuggestion(ctx, sg); err != nil {
		observability.ObserveSubmission("suggestion", "storage_error")
		log.Error().Err(err).Msg("insert suggestion failed")
		return domain.AreaSuggestion{}, fmt.Errorf("%w: insert suggestion", domain.ErrStorageUnavailable)
	}
	observability.ObserveSubmission("suggestion", "accepted")

	s.in.Guard.Record(ctx, hash)
	if s.in.Notify != nil {
		if err := s.in.Notify.SuggestionSubmitted(ctx, sg); err != nil {
			log.Warn().Err(err).Str("suggestion_id", sg.ID).Msg("moderation notification failed")
		}
	}
	return sg, nil
}
