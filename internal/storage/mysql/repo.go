package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"estate_reviews/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(s rowScanner) (domain.Review, error) {
	var (
		r                  domain.Review
		title, name, email sql.NullString
		status             string
		deleted            sql.NullTime
	)
	if err := s.Scan(&r.ID, &r.County, &r.Town, &r.Estate, &r.Rating, &title, &r.Body, &name, &email, &status, &deleted, &r.CreatedAt); err != nil {
		return domain.Review{}, err
	}
	r.Title, r.AuthorName, r.AuthorEmail = strPtr(title), strPtr(name), strPtr(email)
	r.Status = domain.Status(status)
	if deleted.Valid {
		t := deleted.Time.UTC()
		r.DeletedAt = &t
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func (r *Repo) InsertReview(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID,
		rv.County,
		rv.Town,
		rv.Estate,
		rv.Rating,
		valStr(rv.Title),
		rv.Body,
		valStr(rv.AuthorName),
		valStr(rv.AuthorEmail),
		string(rv.Status),
		valTime(rv.DeletedAt),
		rv.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) GetReview(ctx context.Context, id string) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, getReviewSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, domain.ErrNotFound
	}
	return rv, err
}

// ApplyAction locks the row, runs the state machine and writes the new state
// in one transaction.
func (r *Repo) ApplyAction(ctx context.Context, id string, a domain.Action, now time.Time) (domain.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Review{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rv, err := scanReview(tx.QueryRowContext(ctx, lockReviewSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Review{}, err
	}
	next, err := domain.Transition(domain.ModerationState{Status: rv.Status, DeletedAt: rv.DeletedAt}, a, now)
	if err != nil {
		return domain.Review{}, err
	}
	if _, err := tx.ExecContext(ctx, updateReviewStateSQL, string(next.Status), valTime(next.DeletedAt), id); err != nil {
		return domain.Review{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Review{}, err
	}
	rv.Status, rv.DeletedAt = next.Status, next.DeletedAt
	return rv, nil
}

func (r *Repo) ListVisible(ctx context.Context, t domain.Triple) ([]domain.Review, error) {
	return r.queryReviews(ctx, listVisibleSQL, t.County, t.Town, t.Estate)
}

func (r *Repo) ListByView(ctx context.Context, v domain.View, limit int) ([]domain.Review, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	switch v {
	case domain.ViewDeleted:
		return r.queryReviews(ctx, listDeletedSQL, limit)
	case domain.ViewPending, domain.ViewApproved, domain.ViewRejected:
		return r.queryReviews(ctx, listByStatusSQL, string(v), limit)
	}
	return nil, fmt.Errorf("unknown view %q", v)
}

func (r *Repo) queryReviews(ctx context.Context, q string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Review, 0, 32)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// placeholders returns "(?,?,...)" with n marks.
func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}
