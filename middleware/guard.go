package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

// SessionSource resolves the session a request is acting under. Returning
// false means the request is anonymous; the gate then treats it as a guest.
type SessionSource interface {
	Session(r *http.Request) (session.Session, bool)
}

type sessionContextKey struct{}

// SessionFromContext returns the session Guard attached for an allowed
// request.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return sess, ok
}

// Guard enforces the manager's route policy on every request. Allowed
// requests proceed with the session attached to the context; redirects
// answer 302; policy denials answer 403.
func Guard(manager *goSession.Manager, source SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			var sess session.Session
			if source != nil {
				if resolved, ok := source.Session(r); ok {
					sess = resolved
				}
			}

			ctx := goSession.WithClientIP(r.Context(), clientIP(r))
			ctx = goSession.WithUserAgent(ctx, r.UserAgent())

			decision := manager.Authorize(ctx, r.URL.Path, sess)
			switch decision.Kind {
			case goSession.DecisionRedirect:
				http.Redirect(w, r, decision.Target, http.StatusFound)
				return
			case goSession.DecisionDeny:
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx = context.WithValue(ctx, sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerSource resolves sessions from Authorization headers by verifying
// the access token locally. Requires the manager to be built with
// JWT.VerifyLocally.
type BearerSource struct {
	Manager *goSession.Manager
}

func (s *BearerSource) Session(r *http.Request) (session.Session, bool) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok || s == nil || s.Manager == nil {
		return session.Session{}, false
	}

	claims, err := s.Manager.VerifyAccess(token)
	if err != nil {
		return session.Session{}, false
	}

	sess := session.Session{
		ID:          claims.SessionID,
		SubjectID:   claims.Subject,
		Role:        session.ParseRole(claims.Role),
		AccessToken: token,
	}
	if claims.ExpiresAt != nil {
		sess.AccessExpiresAt = claims.ExpiresAt.Unix()
	}
	return sess, true
}

// SourceFunc adapts a plain function to a [SessionSource].
type SourceFunc func(r *http.Request) (session.Session, bool)

func (f SourceFunc) Session(r *http.Request) (session.Session, bool) {
	return f(r)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
