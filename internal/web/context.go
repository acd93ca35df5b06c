package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/eda/internal/core"
	"github.com/JonMunkholm/eda/internal/logging"
	"github.com/JonMunkholm/eda/internal/web/middleware"
)

// SessionHeader lets API clients select a session without cookies.
const SessionHeader = middleware.SessionHeader

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithClientInfo(ctx, core.ClientInfo{
		IPAddress: clientIP(r), // already processed by TrustedRealIP
		UserAgent: r.UserAgent(),
	})
}

// withSession resolves the caller's session from the X-Session-ID header or
// the session cookie, creating one when neither names a live session. The ID
// is echoed back in both places and carried on the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested := r.Header.Get(SessionHeader)
		if requested == "" {
			if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
				requested = c.Value
			}
		}

		id, err := s.service.EnsureSession(r.Context(), requested)
		if err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
		if id != requested {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, id)

		ctx := logging.WithSessionID(r.Context(), id)
		ctx = WithRequestMetadata(ctx, r)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the session resolved by withSession.
func sessionID(r *http.Request) string {
	return logging.SessionID(r.Context())
}
