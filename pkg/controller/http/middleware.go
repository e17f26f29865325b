package http

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/usecase"
)

// UserIDHeader carries the authenticated user. It is set by the upstream auth proxy.
const UserIDHeader = "X-User-ID"

// requestMetaMiddleware attaches the caller description copied into audit events
func requestMetaMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := &model.RequestMeta{
			UserID:        r.Header.Get(UserIDHeader),
			IPAddress:     remoteIP(r.RemoteAddr),
			UserAgent:     r.UserAgent(),
			CorrelationID: middleware.GetReqID(r.Context()),
			Source:        types.ActivitySourceAPI,
		}
		ctx := model.ContextWithRequestMeta(r.Context(), meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// lookupCacheMiddleware gives every request its own lookup cache
func lookupCacheMiddleware(uc *usecase.UseCases) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cache := usecase.NewLookupCache(uc.LookupRepository())
			ctx := usecase.WithLookupCache(r.Context(), cache)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
