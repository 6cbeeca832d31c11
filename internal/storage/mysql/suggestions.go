package mysql

import (
	"context"
	"database/sql"
	"errors"

	"estate_reviews/internal/domain"
)

func scanSuggestion(s rowScanner) (domain.AreaSuggestion, error) {
	var (
		sg           domain.AreaSuggestion
		notes, email sql.NullString
		status       string
	)
	if err := s.Scan(&sg.ID, &sg.County, &sg.Town, &sg.ProposedEstate, &notes, &email, &status, &sg.CreatedAt); err != nil {
		return domain.AreaSuggestion{}, err
	}
	sg.Notes, sg.ContactEmail = strPtr(notes), strPtr(email)
	sg.Status = domain.Status(status)
	sg.CreatedAt = sg.CreatedAt.UTC()
	return sg, nil
}

func (r *Repo) InsertSuggestion(ctx context.Context, s domain.AreaSuggestion) error {
	_, err := r.db.ExecContext(ctx, insertSuggestionSQL,
		s.ID, s.County, s.Town, s.ProposedEstate,
		valStr(s.Notes), valStr(s.ContactEmail),
		string(s.Status), s.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) GetSuggestion(ctx context.Context, id string) (domain.AreaSuggestion, error) {
	sg, err := scanSuggestion(r.db.QueryRowContext(ctx, getSuggestionSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AreaSuggestion{}, domain.ErrNotFound
	}
	return sg, err
}

func (r *Repo) ListSuggestions(ctx context.Context, st domain.Status, limit int) ([]domain.AreaSuggestion, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx, listSuggestionsSQL, string(st), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AreaSuggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// SetSuggestionStatus applies approve or reject. Suggestions have no deleted state.
func (r *Repo) SetSuggestionStatus(ctx context.Context, id string, a domain.Action) (domain.AreaSuggestion, error) {
	if a != domain.ActionApprove && a != domain.ActionReject {
		return domain.AreaSuggestion{}, domain.ErrInvalidTransition
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.AreaSuggestion{}, err
	}
	defer func() { _ = tx.Rollback() }()

	sg, err := scanSuggestion(tx.QueryRowContext(ctx, lockSuggestionSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AreaSuggestion{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.AreaSuggestion{}, err
	}
	next, err := domain.Transition(domain.ModerationState{Status: sg.Status}, a, sg.CreatedAt)
	if err != nil {
		return domain.AreaSuggestion{}, err
	}
	if _, err := tx.ExecContext(ctx, updateSuggestionStatusSQL, string(next.Status), id); err != nil {
		return domain.AreaSuggestion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.AreaSuggestion{}, err
	}
	sg.Status = next.Status
	return sg, nil
}
