package httpserver

import (
	"errors"
	"net/http"
	"time"

	"estate_reviews/internal/auth"
	"estate_reviews/internal/domain"
)

type moderationRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
}

type moderationResponse struct {
	OK      bool                `json:"ok"`
	Status  string              `json:"status"`
	Results []domain.ItemResult `json:"results"`
}

type reviewsResponse struct {
	OK      bool            `json:"ok"`
	Reviews []domain.Review `json:"reviews"`
}

type suggestionsResponse struct {
	OK          bool                    `json:"ok"`
	Suggestions []domain.AreaSuggestion `json:"suggestions"`
}

// actionStatus is the label the console shows once an action has applied.
var actionStatus = map[domain.Action]string{
	domain.ActionApprove: "approved",
	domain.ActionReject:  "rejected",
	domain.ActionDelete:  "deleted",
	domain.ActionRestore: "restored",
}

func parseView(w http.ResponseWriter, r *http.Request) (domain.View, bool) {
	v, ok := domain.ParseView(r.URL.Query().Get("view"))
	if !ok {
		writeError(w, r, &domain.InvalidPayloadError{Fields: []domain.FieldError{{Field: "view", Message: "must be pending, approved, rejected or deleted"}}})
	}
	return v, ok
}

func parseModeration(w http.ResponseWriter, r *http.Request) (moderationRequest, domain.Action, bool) {
	var req moderationRequest
	if !decodeBody(w, r, &req) {
		return req, "", false
	}
	a, ok := domain.ParseAction(req.Action)
	if !ok {
		writeError(w, r, &domain.InvalidPayloadError{Fields: []domain.FieldError{{Field: "action", Message: "must be approve, reject, delete or restore"}}})
		return req, "", false
	}
	return req, a, true
}

func bulkResponse(w http.ResponseWriter, res domain.BulkResult) {
	writeJSON(w, http.StatusOK, moderationResponse{OK: res.AllOK(), Status: actionStatus[res.Action], Results: res.Items})
}

func (h *Handlers) moderationList(w http.ResponseWriter, r *http.Request) {
	v, ok := parseView(w, r)
	if !ok {
		return
	}
	rs, err := h.Moderation.List(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rs == nil {
		rs = []domain.Review{}
	}
	writeJSON(w, http.StatusOK, reviewsResponse{OK: true, Reviews: rs})
}

func (h *Handlers) moderationApply(w http.ResponseWriter, r *http.Request) {
	req, a, ok := parseModeration(w, r)
	if !ok {
		return
	}
	res, err := h.Moderation.Apply(r.Context(), req.IDs, a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bulkResponse(w, res)
}

func (h *Handlers) suggestionList(w http.ResponseWriter, r *http.Request) {
	v, ok := parseView(w, r)
	if !ok {
		return
	}
	out, err := h.Moderation.ListSuggestions(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []domain.AreaSuggestion{}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{OK: true, Suggestions: out})
}

func (h *Handlers) suggestionApply(w http.ResponseWriter, r *http.Request) {
	req, a, ok := parseModeration(w, r)
	if !ok {
		return
	}
	res, err := h.Moderation.ApplySuggestions(r.Context(), req.IDs, a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bulkResponse(w, res)
}

type sessionRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	OK        bool      `json:"ok"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tok, exp, err := h.Auth.Login(req.Password)
	if errors.Is(err, auth.ErrBadPassword) {
		err = domain.ErrUnauthorized
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{OK: true, Token: tok, ExpiresAt: exp.UTC()})
}
