package httpserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"estate_reviews/internal/adapters/observability"
	"estate_reviews/internal/auth"
)

// Timeout answers 503 with a problem body when a handler overruns d.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	body := `{"ok":false,"type":"about:blank","title":"Service Unavailable","status":503,"code":"timeout"}`
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, body) }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// ---- metrics + access log ----

// quietRoutes are counted but not logged.
var quietRoutes = map[string]bool{"/healthz": true, "/metrics": true}

// Instrument records request metrics and writes one access log line per
// request. 5xx log at error, 4xx at warn.
func Instrument(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			route := routePattern(r)
			status := sw.Status()
			observability.ObserveHTTP(route, r.Method, status, dur)
			if quietRoutes[route] {
				return
			}

			ev := l.Info()
			switch {
			case status >= 500:
				ev = l.Error()
			case status >= 400:
				ev = l.Warn()
			}
			ev.Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Dur("duration", dur).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote", clientIP(r)).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

// routePattern is the matched chi pattern, so metrics stay low-cardinality
// for slug routes. Unmatched requests collapse into one label.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ---- Moderator guard ----

// RequireModerator rejects requests without a valid bearer credential before
// any handler runs, so an unauthorised call never touches state.
func RequireModerator(a *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, _ := auth.BearerToken(r.Header.Get("Authorization"))
			if err := a.Check(tok); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the caller's address in canonical form, so one client always
// hashes to the same rate-limit key. TrustProxies has already applied any
// forwarding headers from trusted proxies.
func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return ip.String()
	}
	return host
}
