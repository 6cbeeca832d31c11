package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"estate_reviews/internal/adapters/observability"
	"estate_reviews/internal/domain"
)

// Notifier tells moderators about new submissions. It implements domain.Notifier.
type Notifier struct {
	m       *Mailer
	to      []string
	baseURL string
}

func NewNotifier(m *Mailer, to []string, baseURL string) *Notifier {
	return &Notifier{m: m, to: to, baseURL: strings.TrimRight(baseURL, "/")}
}

func (n *Notifier) ReviewSubmitted(ctx context.Context, r domain.Review) error {
	lines := []string{
		"A new review is waiting for moderation.",
		"",
		fmt.Sprintf("Place:  %s, %s, %s", r.Estate, r.Town, r.County),
		fmt.Sprintf("Rating: %d/5", r.Rating),
	}
	if r.Title != nil {
		lines = append(lines, "Title:  "+*r.Title)
	}
	lines = append(lines, "", r.Body, "", "Review queue: "+n.baseURL+"/moderation")
	return n.send(ctx, "review", fmt.Sprintf("New review for %s, %s", r.Estate, r.Town), lines)
}

func (n *Notifier) SuggestionSubmitted(ctx context.Context, s domain.AreaSuggestion) error {
	lines := []string{
		"A new area was suggested.",
		"",
		fmt.Sprintf("Place: %s, %s, %s", s.ProposedEstate, s.Town, s.County),
	}
	if s.Notes != nil {
		lines = append(lines, "", *s.Notes)
	}
	lines = append(lines, "", "Suggestion queue: "+n.baseURL+"/moderation/suggestions")
	return n.send(ctx, "suggestion", fmt.Sprintf("Area suggestion: %s, %s", s.ProposedEstate, s.Town), lines)
}

func (n *Notifier) send(ctx context.Context, kind, subject string, lines []string) error {
	if len(n.to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text := strings.Join(lines, "\n")
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = html.EscapeString(l)
	}
	start := time.Now()
	_, err := n.m.Send(Message{
		To:      n.to,
		Subject: subject,
		Text:    text,
		HTML:    "<p>" + strings.Join(escaped, "<br>") + "</p>",
	})
	status := 200
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("mail", n.m.ProviderName()+"_"+kind, status, time.Since(start))
	return err
}
