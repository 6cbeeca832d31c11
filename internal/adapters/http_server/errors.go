package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"estate_reviews/internal/domain"
)

// problem is an RFC 7807 body extended with the fields the web client reads.
type problem struct {
	OK     bool                `json:"ok"`
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Code   string              `json:"code"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, code, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Code: code})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto HTTP. Unknown and storage errors get a
// generic detail; the cause is logged only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var inv *domain.InvalidPayloadError
	switch {
	case errors.As(err, &inv):
		writeProblemBody(w, problem{
			Type: "about:blank", Title: "Invalid Payload", Status: http.StatusBadRequest,
			Detail: "one or more fields are invalid", Code: "invalid_payload", Fields: inv.Fields,
		})
	case errors.Is(err, domain.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", `Bearer realm="moderation"`)
		writeProblem(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", "a valid moderator credential is required")
	case errors.Is(err, domain.ErrCaptchaFailed):
		writeProblem(w, http.StatusForbidden, "captcha_failed", "Captcha Failed", "captcha verification failed")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", "Not Found", "no such county, town or estate")
	case errors.Is(err, domain.ErrTooManyRequests):
		w.Header().Set("Retry-After", "3600")
		writeProblem(w, http.StatusTooManyRequests, "too_many_requests", "Too Many Requests", "submission limit reached, try again later")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "invalid_transition", "Conflict", "action not allowed in the current state")
	case errors.Is(err, domain.ErrStorageUnavailable):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("storage unavailable")
		writeProblem(w, http.StatusServiceUnavailable, "storage_unavailable", "Service Unavailable", "storage is unavailable, try again later")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "internal", "Internal Server Error", "")
	}
}

func badJSON(w http.ResponseWriter) {
	writeProblem(w, http.StatusBadRequest, "invalid_payload", "Invalid Payload", "request body must be a JSON object")
}
