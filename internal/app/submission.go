package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"estate_reviews/internal/adapters/observability"
	"estate_reviews/internal/domain"
)

type ReviewInput struct {
	County       string
	Town         string
	Estate       string
	Rating       float64
	Title        string
	Body         string
	Name         string
	Email        string
	CaptchaToken string
	Honeypot     string
	RemoteIP     string
}

// Intake holds the collaborators shared by every public submission. Any of
// them may be nil; a missing piece disables its step.
type Intake struct {
	Catalog *Catalog
	Captcha domain.CaptchaVerifier
	Guard   *RateGuard
	Notify  domain.Notifier
}

// SubmissionService accepts public reviews into the moderation queue.
type SubmissionService struct {
	reviews domain.ReviewRepository
	in      Intake
	now     func() time.Time
}

func NewSubmissionService(r domain.ReviewRepository, in Intake) *SubmissionService {
	return &SubmissionService{reviews: r, in: in, now: time.Now}
}

// Submit validates and stores a review as pending. A filled honeypot returns
// a zero Review and no error so bots see the normal success response.
func (s *SubmissionService) Submit(ctx context.Context, in ReviewInput) (domain.Review, error) {
	r, err := s.validate(in)
	if err != nil {
		observability.ObserveSubmission("review", "invalid")
		return domain.Review{}, err
	}
	if trapped("review", in.Honeypot) {
		return domain.Review{}, nil
	}
	if s.in.Catalog != nil && s.in.Catalog.Len() > 0 {
		t, ok := s.in.Catalog.Resolve(r.Triple())
		if !ok {
			observability.ObserveSubmission("review", "not_found")
			return domain.Review{}, domain.ErrNotFound
		}
		r.County, r.Town, r.Estate = t.County, t.Town, t.Estate
	}
	hash, err := s.in.admit(ctx, "review", in.CaptchaToken, in.RemoteIP)
	if err != nil {
		return domain.Review{}, err
	}

	r.ID = uuid.NewString()
	r.Status = domain.StatusPending
	r.CreatedAt = s.now().UTC()
	if err := s.reviews.InsertReview(ctx, r); err != nil {
		observability.ObserveSubmission("review", "storage_error")
		log.Error().Err(err).Str("county", r.County).Str("town", r.Town).Msg("insert review failed")
		return domain.Review{}, fmt.Errorf("%w: insert review", domain.ErrStorageUnavailable)
	}
	observability.ObserveSubmission("review", "accepted")

	s.in.Guard.Record(ctx, hash)
	if s.in.Notify != nil {
		if err := s.in.Notify.ReviewSubmitted(ctx, r); err != nil {
			log.Warn().Err(err).Str("review_id", r.ID).Msg("moderation notification failed")
		}
	}
	return r, nil
}

func (s *SubmissionService) validate(in ReviewInput) (domain.Review, error) {
	t := trimTriple(domain.Triple{County: in.County, Town: in.Town, Estate: in.Estate})
	r := domain.Review{
		County:      t.County,
		Town:        t.Town,
		Estate:      t.Estate,
		Rating:      int(in.Rating),
		Title:       optional(in.Title),
		Body:        strings.TrimSpace(in.Body),
		AuthorName:  optional(in.Name),
		AuthorEmail: optional(in.Email),
	}
	v := &domain.InvalidPayloadError{}
	checkTriple(v, t)
	checkRating(v, in.Rating)
	switch {
	case r.Body == "":
		v.Add("body", "required")
	case tooLong(r.Body, maxBody):
		v.Add("body", fmt.Sprintf("must be at most %d characters", maxBody))
	}
	if r.Title != nil && tooLong(*r.Title, maxTitle) {
		v.Add("title", fmt.Sprintf("must be at most %d characters", maxTitle))
	}
	if r.AuthorName != nil && tooLong(*r.AuthorName, maxName) {
		v.Add("name", fmt.Sprintf("must be at most %d characters", maxName))
	}
	checkEmail(v, "email", r.AuthorEmail)
	return r, v.Err()
}

// trapped reports a filled honeypot. It runs straight after validation so a
// bot gets the normal success response whatever else it sent.
func trapped(kind, honeypot string) bool {
	if strings.TrimSpace(honeypot) == "" {
		return false
	}
	observability.ObserveSubmission(kind, "honeypot")
	log.Info().Str("kind", kind).Msg("honeypot submission dropped")
	return true
}

// admit runs the checks that follow place resolution: captcha and rate
// limit. It returns the client's IP hash for the submission log.
func (in Intake) admit(ctx context.Context, kind, token, ip string) (string, error) {
	if in.Captcha != nil {
		ok, err := in.Captcha.Verify(ctx, token, ip)
		if err != nil {
			log.Warn().Err(err).Msg("captcha verify failed")
		}
		if err != nil || !ok {
			observability.ObserveSubmission(kind, "captcha_failed")
			return "", domain.ErrCaptchaFailed
		}
	}
	hash, err := in.Guard.Check(ctx, ip)
	if err != nil {
		observability.ObserveSubmission(kind, "rate_limited")
		return "", err
	}
	return hash, nil
}
