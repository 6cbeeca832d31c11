package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"estate_reviews/internal/app"
	"estate_reviews/internal/domain"
	"estate_reviews/internal/places"
)

func testCatalog() *app.Catalog {
	ix := places.NewIndex()
	ix.Add("Kildare", "Celbridge", "The Grove")
	ix.Add("Kildare", "Celbridge", "Castletown")
	ix.Add("Kildare", "Naas", "")
	ix.Add("Dublin", "Lucan", "Finnstown")
	return app.NewCatalogFromIndex(ix, nil)
}

func validInput() app.ReviewInput {
	return app.ReviewInput{
		County: "Kildare", Town: "Celbridge", Estate: "The Grove",
		Rating: 4, Body: "Quiet, friendly neighbours.", RemoteIP: "203.0.113.7",
	}
}

func TestSubmit_AcceptedAsPending(t *testing.T) {
	repo := newFakeReviews()
	n := &fakeNotifier{}
	svc := app.NewSubmissionService(repo, app.Intake{Catalog: testCatalog(), Notify: n})

	in := validInput()
	in.County, in.Town, in.Estate = "kildare", " CELBRIDGE ", "the grove"
	in.Title = "  Lovely  "
	r, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if r.ID == "" || r.Status != domain.StatusPending {
		t.Fatalf("unexpected review: %+v", r)
	}
	if r.County != "Kildare" || r.Town != "Celbridge" || r.Estate != "The Grove" {
		t.Fatalf("display spelling not applied: %+v", r.Triple())
	}
	if r.Title == nil || *r.Title != "Lovely" || r.AuthorName != nil {
		t.Fatalf("optional fields: title=%v name=%v", r.Title, r.AuthorName)
	}
	if repo.count() != 1 || n.reviews != 1 {
		t.Fatalf("stored=%d notified=%d", repo.count(), n.reviews)
	}
}

func TestSubmit_RatingBounds(t *testing.T) {
	for _, rating := range []float64{0, 6, 3.5, -1} {
		repo := newFakeReviews()
		svc := app.NewSubmissionService(repo, app.Intake{})
		in := validInput()
		in.Rating = rating

		_, err := svc.Submit(context.Background(), in)
		var ip *domain.InvalidPayloadError
		if !errors.As(err, &ip) {
			t.Fatalf("rating %v: want InvalidPayload, got %v", rating, err)
		}
		if len(ip.Fields) != 1 || ip.Fields[0].Field != "rating" {
			t.Fatalf("rating %v: fields %+v", rating, ip.Fields)
		}
		if repo.count() != 0 {
			t.Fatalf("rating %v: review stored", rating)
		}
	}

	svc := app.NewSubmissionService(newFakeReviews(), app.Intake{})
	in := validInput()
	in.Rating = 3
	if _, err := svc.Submit(context.Background(), in); err != nil {
		t.Fatalf("rating 3 rejected: %v", err)
	}
}

func TestSubmit_ReportsEveryField(t *testing.T) {
	svc := app.NewSubmissionService(newFakeReviews(), app.Intake{})
	in := app.ReviewInput{
		Rating: 9,
		Title:  strings.Repeat("t", 121),
		Body:   strings.Repeat("b", 4001),
		Name:   strings.Repeat("n", 81),
		Email:  "not-an-email",
	}
	_, err := svc.Submit(context.Background(), in)
	var ip *domain.InvalidPayloadError
	if !errors.As(err, &ip) {
		t.Fatalf("want InvalidPayload, got %v", err)
	}
	got := map[string]bool{}
	for _, f := range ip.Fields {
		got[f.Field] = true
	}
	for _, want := range []string{"county", "town", "estate", "rating", "title", "body", "name", "email"} {
		if !got[want] {
			t.Errorf("missing field %q in %+v", want, ip.Fields)
		}
	}
}

func TestSubmit_BodyLimitCountsRunes(t *testing.T) {
	svc := app.NewSubmissionService(newFakeReviews(), app.Intake{})
	in := validInput()
	in.Body = strings.Repeat("é", 4000)
	if _, err := svc.Submit(context.Background(), in); err != nil {
		t.Fatalf("4000 runes rejected: %v", err)
	}
}

func TestSubmit_UnknownPlace(t *testing.T) {
	repo := newFakeReviews()
	svc := app.NewSubmissionService(repo, app.Intake{Catalog: testCatalog()})
	in := validInput()
	in.Estate = "Nowhere Park"
	if _, err := svc.Submit(context.Background(), in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if repo.count() != 0 {
		t.Fatal("review stored")
	}
}

func TestSubmit_HoneypotSilentlyDropped(t *testing.T) {
	repo := newFakeReviews()
	n := &fakeNotifier{}
	svc := app.NewSubmissionService(repo, app.Intake{Notify: n})
	in := validInput()
	in.Honeypot = "http://spam.example"

	r, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if r.ID != "" || repo.count() != 0 || n.reviews != 0 {
		t.Fatalf("honeypot created a record: %+v", r)
	}
}

func TestSubmit_Captcha(t *testing.T) {
	repo := newFakeReviews()
	svc := app.NewSubmissionService(repo, app.Intake{Captcha: fakeCaptcha{ok: true}})

	in := validInput()
	if _, err := svc.Submit(context.Background(), in); !errors.Is(err, domain.ErrCaptchaFailed) {
		t.Fatalf("missing token: want ErrCaptchaFailed, got %v", err)
	}
	in.CaptchaToken = "tok"
	if _, err := svc.Submit(context.Background(), in); err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("stored %d", repo.count())
	}
}

func TestSubmit_SixthSubmissionRateLimited(t *testing.T) {
	repo := newFakeReviews()
	sl := &fakeLog{}
	guard := app.NewRateGuard(sl, "secret", 5)
	svc := app.NewSubmissionService(repo, app.Intake{Guard: guard})

	for i := 0; i < 5; i++ {
		if _, err := svc.Submit(context.Background(), validInput()); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
	if _, err := svc.Submit(context.Background(), validInput()); !errors.Is(err, domain.ErrTooManyRequests) {
		t.Fatalf("6th submission: want ErrTooManyRequests, got %v", err)
	}
	if repo.count() != 5 {
		t.Fatalf("stored %d", repo.count())
	}

	other := validInput()
	other.RemoteIP = "198.51.100.1"
	if _, err := svc.Submit(context.Background(), other); err != nil {
		t.Fatalf("other client limited: %v", err)
	}
	for _, e := range sl.entries {
		if strings.Contains(e.IPHash, "203.0.113.7") {
			t.Fatalf("raw ip stored: %q", e.IPHash)
		}
	}
}

func TestSubmit_RateLimitDisabledWithoutSecret(t *testing.T) {
	svc := app.NewSubmissionService(newFakeReviews(), app.Intake{Guard: app.NewRateGuard(&fakeLog{}, "", 1)})
	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(context.Background(), validInput()); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
}

func TestSubmit_StorageFailure(t *testing.T) {
	repo := newFakeReviews()
	repo.failIns = errors.New("dial tcp: connection refused")
	sl := &fakeLog{}
	svc := app.NewSubmissionService(repo, app.Intake{Guard: app.NewRateGuard(sl, "secret", 5)})

	_, err := svc.Submit(context.Background(), validInput())
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("want ErrStorageUnavailable, got %v", err)
	}
	if strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("internal detail leaked: %v", err)
	}
	if len(sl.entries) != 0 {
		t.Fatal("failed submission logged")
	}
}

func TestSubmit_NotificationFailureIgnored(t *testing.T) {
	svc := app.NewSubmissionService(newFakeReviews(), app.Intake{Notify: &fakeNotifier{err: errors.New("smtp down")}})
	if _, err := svc.Submit(context.Background(), validInput()); err != nil {
		t.Fatalf("notification failure surfaced: %v", err)
	}
}

func TestHashIP(t *testing.T) {
	a := app.HashIP([]byte("k"), "203.0.113.7")
	if a != app.HashIP([]byte("k"), "203.0.113.7") || len(a) != 64 {
		t.Fatalf("unstable hash %q", a)
	}
	if a == app.HashIP([]byte("other"), "203.0.113.7") {
		t.Fatal("secret not applied")
	}
}

func TestSuggest(t *testing.T) {
	repo := &fakeSuggestions{}
	n := &fakeNotifier{}
	svc := app.NewSuggestionService(repo, app.Intake{Catalog: testCatalog(), Notify: n})

	s, err := svc.Suggest(context.Background(), app.SuggestionInput{County: "kildare", Town: "celbridge", Estate: "Oldtown Mill", Email: "me@example.com"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if s.Status != domain.StatusPending || s.County != "Kildare" || s.Town != "Celbridge" || s.ProposedEstate != "Oldtown Mill" {
		t.Fatalf("unexpected suggestion: %+v", s)
	}
	if len(repo.rows) != 1 || n.suggestions != 1 {
		t.Fatalf("stored=%d notified=%d", len(repo.rows), n.suggestions)
	}

	_, err = svc.Suggest(context.Background(), app.SuggestionInput{County: "Kildare", Notes: strings.Repeat("x", 1001), Email: "bad"})
	var ip *domain.InvalidPayloadError
	if !errors.As(err, &ip) || len(ip.Fields) != 4 {
		t.Fatalf("want 4 field errors, got %v", err)
	}

	s, err = svc.Suggest(context.Background(), app.SuggestionInput{County: "Kildare", Town: "Naas", Estate: "X", Honeypot: "bot"})
	if err != nil || s.ID != "" || len(repo.rows) != 1 {
		t.Fatalf("honeypot: s=%+v err=%v", s, err)
	}
}

func TestSubmit_HoneypotBeforePlaceLookup(t *testing.T) {
	repo := newFakeReviews()
	svc := app.NewSubmissionService(repo, app.Intake{Catalog: testCatalog()})
	in := validInput()
	in.Estate = "Nowhere Park"
	in.Honeypot = "http://spam.example"

	if r, err := svc.Submit(context.Background(), in); err != nil || r.ID != "" {
		t.Fatalf("want silent success, got r=%+v err=%v", r, err)
	}
	if repo.count() != 0 {
		t.Fatal("honeypot created a record")
	}
}

func TestSubmit_PlaceNameWidths(t *testing.T) {
	repo := newFakeReviews()
	// empty catalog skips resolution, so widths are the only guard
	svc := app.NewSubmissionService(repo, app.Intake{})
	in := validInput()
	in.County = strings.Repeat("c", 121)
	in.Town = strings.Repeat("t", 121)
	in.Estate = strings.Repeat("e", 201)

	_, err := svc.Submit(context.Background(), in)
	var ip *domain.InvalidPayloadError
	if !errors.As(err, &ip) || len(ip.Fields) != 3 {
		t.Fatalf("want county, town and estate errors, got %v", err)
	}
	if repo.count() != 0 {
		t.Fatal("oversized review stored")
	}

	in.County, in.Town, in.Estate = strings.Repeat("c", 120), strings.Repeat("t", 120), strings.Repeat("é", 200)
	if _, err := svc.Submit(context.Background(), in); err != nil {
		t.Fatalf("names at the limit rejected: %v", err)
	}
}

func TestSuggest_RejectsOversizedNames(t *testing.T) {
	repo := &fakeSuggestions{}
	svc := app.NewSuggestionService(repo, app.Intake{Catalog: testCatalog()})

	_, err := svc.Suggest(context.Background(), app.SuggestionInput{
		County: strings.Repeat("c", 500),
		Town:   strings.Repeat("t", 500),
		Estate: strings.Repeat("e", 5000),
	})
	var ip *domain.InvalidPayloadError
	if !errors.As(err, &ip) {
		t.Fatalf("want InvalidPayload, got %v", err)
	}
	got := map[string]bool{}
	for _, f := range ip.Fields {
		got[f.Field] = true
	}
	if !got["county"] || !got["town"] || !got["estate"] {
		t.Fatalf("fields: %+v", ip.Fields)
	}
	if len(repo.rows) != 0 {
		t.Fatal("oversized suggestion stored")
	}
}

func TestSuggest_HoneypotSkipsCaptcha(t *testing.T) {
	repo := &fakeSuggestions{}
	cv := &fakeCaptcha{ok: false}
	svc := app.NewSuggestionService(repo, app.Intake{Captcha: cv})
	s, err := svc.Suggest(context.Background(), app.SuggestionInput{County: "Kildare", Town: "Naas", Estate: "X", Honeypot: "bot"})
	if err != nil || s.ID != "" || len(repo.rows) != 0 {
		t.Fatalf("s=%+v err=%v", s, err)
	}
}
