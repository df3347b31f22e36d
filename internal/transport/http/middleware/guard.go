package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nextwallet-vault/internal/application/guard"
	"github.com/nextwallet-vault/internal/domain"
)

type contextKey string

const SessionKey contextKey = "session"

type evaluator interface {
	Evaluate(ctx context.Context, path string) guard.Result
}

// Guard runs the route guard on every request. Permitted requests carry the
// resolved session in their context; everything else is redirected.
func Guard(g evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := g.Evaluate(r.Context(), r.URL.Path)
			switch res.Decision {
			case guard.Permit:
				ctx := r.Context()
				if res.Session != nil {
					ctx = context.WithValue(ctx, SessionKey, res.Session)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			case guard.RedirectToVerify:
				slog.Debug("guard: resume verification", "path", r.URL.Path, "reason", res.Reason)
				Redirect(w, VerifyPath, reasonCode(res.Reason))
			default:
				slog.Debug("guard: sign in required", "path", r.URL.Path, "reason", res.Reason)
				Redirect(w, SignInPath, reasonCode(res.Reason))
			}
		})
	}
}

// SessionFromContext returns the session the guard resolved for this request.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*domain.Session)
	return s, ok && s != nil
}

func reasonCode(err error) string {
	var (
		stateErr *domain.StateError
		otpErr   *domain.OTPError
		netErr   *domain.NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &stateErr):
		return "state_" + string(stateErr.Reason)
	case errors.As(err, &otpErr):
		return "otp_" + string(otpErr.Reason)
	case errors.As(err, &netErr):
		return "network"
	}
	return "unauthorized"
}
