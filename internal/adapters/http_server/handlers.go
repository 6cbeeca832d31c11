package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"estate_reviews/internal/app"
	"estate_reviews/internal/auth"
	"estate_reviews/internal/domain"
)

const maxBodyBytes = 64 << 10

type Handlers struct {
	Catalog    *app.Catalog
	Feed       *app.FeedService
	Reviews    *app.SubmissionService
	Suggest    *app.SuggestionService
	Moderation *app.ModerationService
	Auth       *auth.Authenticator
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/estates", h.listEstates)
		r.Get("/places/counties", h.counties)
		r.Get("/places/towns", h.towns)
		r.Get("/places/estates", h.estates)
		r.Get("/reviews", h.listReviews)
		r.Post("/reviews", h.submitReview)
		r.Post("/suggestions", h.submitSuggestion)

		r.Post("/moderation/session", h.login)
		r.Group(func(r chi.Router) {
			r.Use(RequireModerator(h.Auth))
			r.Get("/moderation", h.moderationList)
			r.Post("/moderation", h.moderationApply)
			r.Get("/moderation/suggestions", h.suggestionList)
			r.Post("/moderation/suggestions", h.suggestionApply)
		})
	})

	s.mux.Get("/{county}/{town}/{estate}", h.estatePage)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeCached writes v with a weak ETag and answers If-None-Match with 304.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		badJSON(w)
		return false
	}
	return true
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func items[T any](xs []T) listResponse[T] {
	if xs == nil {
		xs = []T{}
	}
	return listResponse[T]{Items: xs}
}

func (h *Handlers) listEstates(w http.ResponseWriter, r *http.Request) {
	ps := h.Catalog.Places()
	if ps == nil {
		ps = []domain.Place{}
	}
	writeCached(w, r, ps)
}

func (h *Handlers) counties(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, items(h.Catalog.Counties(r.URL.Query().Get("q"))))
}

func (h *Handlers) towns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.Catalog.Towns(q.Get("county"), q.Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, items(out))
}

func (h *Handlers) estates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.Catalog.Estates(q.Get("county"), q.Get("town"), q.Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, items(out))
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.Feed.List(r.Context(), domain.Triple{County: q.Get("county"), Town: q.Get("town"), Estate: q.Get("estate")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, items(out))
}

func (h *Handlers) estatePage(w http.ResponseWriter, r *http.Request) {
	page, err := h.Feed.ListBySlugs(r.Context(), chi.URLParam(r, "county"), chi.URLParam(r, "town"), chi.URLParam(r, "estate"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if page.Items == nil {
		page.Items = []domain.PublicReview{}
	}
	writeCached(w, r, page)
}

type reviewRequest struct {
	County       string   `json:"county"`
	Town         string   `json:"town"`
	Estate       string   `json:"estate"`
	Rating       *float64 `json:"rating"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	CaptchaToken string   `json:"captchaToken"`
	Website      string   `json:"website"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var rating float64
	if req.Rating != nil {
		rating = *req.Rating
	}
	_, err := h.Reviews.Submit(r.Context(), app.ReviewInput{
		County: req.County, Town: req.Town, Estate: req.Estate,
		Rating: rating, Title: req.Title, Body: req.Body,
		Name: req.Name, Email: req.Email,
		CaptchaToken: req.CaptchaToken, Honeypot: req.Website,
		RemoteIP: clientIP(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type suggestionRequest struct {
	County       string `json:"county"`
	Town         string `json:"town"`
	Estate       string `json:"estate"`
	Notes        string `json:"notes"`
	Email        string `json:"email"`
	CaptchaToken string `json:"captchaToken"`
	Website      string `json:"website"`
}

func (h *Handlers) submitSuggestion(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	_, err := h.Suggest.Suggest(r.Context(), app.SuggestionInput{
		County: req.County, Town: req.Town, Estate: req.Estate,
		Notes: req.Notes, Email: req.Email,
		CaptchaToken: req.CaptchaToken, Honeypot: req.Website,
		RemoteIP: clientIP(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
