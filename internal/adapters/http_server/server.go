package httpserver

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 15 * time.Second

type Server struct{ mux *chi.Mux }

// New builds the router. Forwarding headers are honoured only from trusted
// proxies; otherwise the connection address identifies the client.
func New(trusted ...netip.Prefix) *Server {
	m := chi.NewRouter()

	// middlewares must be registered before any route
	m.Use(TrustProxies(trusted))
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(chimw.CleanPath)
	m.Use(Timeout(requestTimeout))
	m.Use(Instrument(log.Logger))

	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "not_found", "Not Found", "no such route")
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed", "")
	})

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches an extra handler such as /metrics.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
