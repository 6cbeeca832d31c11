package domain

import (
	"context"
	"time"
)

type ReviewRepository interface {
	// Write paths
	InsertReview(ctx context.Context, r Review) error
	// ApplyAction runs Transition for one record inside its own transaction.
	ApplyAction(ctx context.Context, id string, a Action, now time.Time) (Review, error)

	// Read paths
	GetReview(ctx context.Context, id string) (Review, error)
	// ListVisible returns approved, non-deleted reviews for t, newest first.
	ListVisible(ctx context.Context, t Triple) ([]Review, error)
	ListByView(ctx context.Context, v View, limit int) ([]Review, error)
}

type SuggestionRepository interface {
	InsertSuggestion(ctx context.Context, s AreaSuggestion) error
	GetSuggestion(ctx context.Context, id string) (AreaSuggestion, error)
	ListSuggestions(ctx context.Context, st Status, limit int) ([]AreaSuggestion, error)
	SetSuggestionStatus(ctx context.Context, id string, a Action) (AreaSuggestion, error)
}

type PlaceRepository interface {
	ListPlaces(ctx context.Context) ([]Place, error)
	UpsertPlaces(ctx context.Context, ps []Place) error
}

// SubmissionLog counts accepted submissions per hashed IP.
type SubmissionLog interface {
	Append(ctx context.Context, e SubmissionLogEntry) error
	CountSince(ctx context.Context, ipHash string, since time.Time) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type Notifier interface {
	ReviewSubmitted(ctx context.Context, r Review) error
	SuggestionSubmitted(ctx context.Context, s AreaSuggestion) error
}

// OSMElement is one named feature returned by the Overpass API.
type OSMElement struct {
	Type string
	ID   int64
	Lat  *float64
	Lng  *float64
	Tags map[string]string
}

type OverpassClient interface {
	AreasInTown(ctx context.Context, county, town string) ([]OSMElement, error)
}
