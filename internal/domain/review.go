package domain

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// View selects a moderation list. ViewDeleted is orthogonal to status.
type View string

const (
	ViewPending  View = "pending"
	ViewApproved View = "approved"
	ViewRejected View = "rejected"
	ViewDeleted  View = "deleted"
)

func ParseView(s string) (View, bool) {
	switch v := View(s); v {
	case ViewPending, ViewApproved, ViewRejected, ViewDeleted:
		return v, true
	case "":
		return ViewPending, true
	}
	return "", false
}

type Review struct {
	ID          string     `json:"id"`
	County      string     `json:"county"`
	Town        string     `json:"town"`
	Estate      string     `json:"estate"`
	Rating      int        `json:"rating"`
	Title       *string    `json:"title,omitempty"`
	Body        string     `json:"body"`
	AuthorName  *string    `json:"authorName,omitempty"`
	AuthorEmail *string    `json:"authorEmail,omitempty"`
	Status      Status     `json:"status"`
	DeletedAt   *time.Time `json:"deletedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (r Review) Triple() Triple { return Triple{County: r.County, Town: r.Town, Estate: r.Estate} }

// Visible reports whether the review may be shown to the public.
func (r Review) Visible() bool { return r.Status == StatusApproved && r.DeletedAt == nil }

// InView reports whether the review belongs to the given moderation list.
func (r Review) InView(v View) bool {
	if v == ViewDeleted {
		return r.DeletedAt != nil
	}
	return r.DeletedAt == nil && string(r.Status) == string(v)
}

// Clone returns a copy that shares no pointers with r.
func (r Review) Clone() Review {
	out := r
	out.Title = cloneStr(r.Title)
	out.AuthorName = cloneStr(r.AuthorName)
	out.AuthorEmail = cloneStr(r.AuthorEmail)
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		out.DeletedAt = &t
	}
	return out
}

// PublicReview is the feed shape; the author's email never leaves the server.
type PublicReview struct {
	ID         string    `json:"id"`
	County     string    `json:"county"`
	Town       string    `json:"town"`
	Estate     string    `json:"estate"`
	Rating     int       `json:"rating"`
	Title      *string   `json:"title,omitempty"`
	Body       string    `json:"body"`
	AuthorName *string   `json:"authorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (r Review) Public() PublicReview {
	return PublicReview{
		ID:         r.ID,
		County:     r.County,
		Town:       r.Town,
		Estate:     r.Estate,
		Rating:     r.Rating,
		Title:      cloneStr(r.Title),
		Body:       r.Body,
		AuthorName: cloneStr(r.AuthorName),
		CreatedAt:  r.CreatedAt,
	}
}

type ReviewSummary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
