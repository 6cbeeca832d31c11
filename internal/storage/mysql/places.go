package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"estate_reviews/internal/domain"
)

const upsertBatch = 500

func (r *Repo) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	rows, err := r.db.QueryContext(ctx, listPlacesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Place
	for rows.Next() {
		var (
			p        domain.Place
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.County, &p.Town, &p.Estate, &lat, &lng, &p.Source, &p.Notes); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			la, ln := lat.Float64, lng.Float64
			p.Lat, p.Lng = &la, &ln
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertPlaces writes rows in batches; existing triples keep their id.
func (r *Repo) UpsertPlaces(ctx context.Context, ps []domain.Place) error {
	for start := 0; start < len(ps); start += upsertBatch {
		end := min(start+upsertBatch, len(ps))
		chunk := ps[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*8)
		for _, p := range chunk {
			id := p.ID
			if id == "" {
				id = uuid.NewString()
			}
			values = append(values, placeholders(8))
			args = append(args, id, p.County, p.Town, p.Estate, valF64(p.Lat), valF64(p.Lng), p.Source, p.Notes)
		}
		q := upsertPlacesPrefix + strings.Join(values, ",") + upsertPlacesOnDup
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// SubmissionLog is the MySQL fallback for the Redis submission log.
type SubmissionLog struct{ db *sql.DB }

func NewSubmissionLog(db *sql.DB) *SubmissionLog { return &SubmissionLog{db: db} }

func (l *SubmissionLog) Append(ctx context.Context, e domain.SubmissionLogEntry) error {
	_, err := l.db.ExecContext(ctx, insertSubmissionSQL, e.IPHash, e.InsertedAt.UTC())
	return err
}

func (l *SubmissionLog) CountSince(ctx context.Context, ipHash string, since time.Time) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, countSubmissionsSQL, ipHash, since.UTC()).Scan(&n)
	return n, err
}
