package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/auth"
)

type ctxKey string

const principalKey ctxKey = "principal"

func withPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func principalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(auth.Principal)
	return p, ok
}

// TokenHeader carries the session token in both directions.
const TokenHeader = "auth-token"

// requireToken gates a route group behind a valid session token. A missing
// header and an invalid token produce distinct codes. On success the
// principal is placed in the request context and a refreshed token is
// written to the response header, so active clients never expire.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(TokenHeader)
		if raw == "" {
			s.writeError(w, r, apperr.Newf(apperr.KindAuth, apperr.CodeMissingToken, "access denied, token required for %s", r.URL.Path))
			return
		}

		p, err := auth.ValidateToken(raw, s.jwtSecret)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		refreshed, err := auth.IssueToken(p, s.jwtSecret, s.tokenValidity)
		if err != nil {
			s.writeError(w, r, apperr.Wrap(err, apperr.KindStorage, apperr.CodeInternal, "internal error"))
			return
		}
		w.Header().Set(TokenHeader, refreshed)

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

// requireTier gates a route group behind a tier threshold. Must run after
// requireToken. Rejections are logged with the caller's level so lockouts
// can be audited.
func (s *Server) requireTier(required auth.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principalFrom(r.Context())
			if !ok {
				s.writeError(w, r, apperr.ErrMissingToken)
				return
			}

			if err := auth.RequireLevel(p, required); err != nil {
				s.logger.Warn(r.Context(), "authorization rejected", "user_id", p.UserID, "level", p.Level, "required", required.String(), "path", r.URL.Path)
				code := apperr.CodeSupervisor
				if required == auth.TierMaster {
					code = apperr.CodeMaster
				}
				s.writeError(w, r, apperr.Newf(apperr.KindPermission, code, "insufficient user level (%s required)", required))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// cors answers preflight requests and exposes the token header so browser
// clients can read refreshed tokens.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Expose-Headers", TokenHeader)

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+TokenHeader)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags every request with an id and logs it on completion.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}
