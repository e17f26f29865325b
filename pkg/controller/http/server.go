package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/trustflow/pkg/usecase"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(requestMetaMiddleware)
	r.Use(lookupCacheMiddleware(uc))

	r.Get("/health", healthHandler)

	r.Route("/api/issues", func(r chi.Router) {
		r.Get("/", listIssuesHandler(uc))
		r.Post("/", createIssueHandler(uc))
		r.Get("/analytics/project-wise", projectAnalyticsHandler(uc))
		r.Get("/analytics/user-wise", userAnalyticsHandler(uc))
		r.Get("/user/{userId}/assigned", userIssuesHandler(uc, assigned))
		r.Get("/user/{userId}/reported", userIssuesHandler(uc, reported))
		r.Get("/{id}", getIssueHandler(uc))
		r.Put("/{id}", editIssueHandler(uc))
		r.Put("/{id}/status", updateIssueStatusHandler(uc))
		r.Delete("/{id}", deleteIssueHandler(uc))
	})

	r.Route("/api/activity", func(r chi.Router) {
		r.Get("/recent", recentActivityHandler(uc))
		r.Post("/", sendActivityHandler(uc))
	})

	r.Route("/api/logs", func(r chi.Router) {
		r.Get("/", fetchLogsHandler(uc))
		r.Get("/recent", recentLogsHandler(uc))
		r.Get("/user", userLogsHandler(uc))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, http.StatusOK, "ok", nil)
}
