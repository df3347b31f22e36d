package guard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nextwallet-vault/internal/domain"
)

type sessionSource interface {
	CurrentSession(ctx context.Context) (*domain.Session, error)
}

type ledgerReader interface {
	Latest(ctx context.Context, userID string) (*domain.OTPEntry, error)
}

type hintReader interface {
	ReadVerification(ctx context.Context) (*domain.VerificationState, error)
}

// Result carries the session that was resolved while deciding so handlers do
// not look it up a second time. Session may be nil even on Permit when the
// request targets the verification screen.
type Result struct {
	Outcome
	Session *domain.Session
}

type Service interface {
	Evaluate(ctx context.Context, path string) Result
}

type ServiceDeps struct {
	Identity   sessionSource
	LedgerRepo ledgerReader
	LocalState hintReader
	// VerifyPath is the prefix of the verification screen routes.
	VerifyPath string
	Now        func() time.Time
}

type service struct {
	identity   sessionSource
	ledger     ledgerReader
	local      hintReader
	verifyPath string
	now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		identity:   deps.Identity,
		ledger:     deps.LedgerRepo,
		local:      deps.LocalState,
		verifyPath: deps.VerifyPath,
		now:        deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.verifyPath == "" {
		s.verifyPath = "/v1/verify"
	}
	return s
}

func (s *service) Evaluate(ctx context.Context, path string) Result {
	in := Inputs{OnVerifyScreen: s.onVerifyScreen(path)}

	sess, err := s.identity.CurrentSession(ctx)
	if err != nil {
		slog.Warn("guard: session lookup failed", "path", path, "err", err)
		if in.OnVerifyScreen {
			return Result{Outcome: Outcome{Decision: Permit}}
		}
		return Result{Outcome: Outcome{Decision: RedirectToSignIn, Reason: err}}
	}
	in.HasSession = sess != nil
	if sess != nil {
		in.SessionID = sess.ID
	}

	if sess != nil && !in.OnVerifyScreen {
		latest, err := s.ledger.Latest(ctx, sess.Identity.UserID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			slog.Warn("guard: ledger lookup failed", "user_id", sess.Identity.UserID, "err", err)
			in.LedgerErr = domain.Network("ledger latest", err)
		default:
			in.Latest = latest
		}
		in.Hint = s.hint(ctx, sess)
	}

	return Result{Outcome: Decide(in), Session: sess}
}

func (s *service) onVerifyScreen(path string) bool {
	if !strings.HasPrefix(path, s.verifyPath) {
		return false
	}
	rest := path[len(s.verifyPath):]
	return rest == "" || rest[0] == '/'
}

// hint treats a record written for a different session as absent.
func (s *service) hint(ctx context.Context, sess *domain.Session) HintStatus {
	st, err := s.local.ReadVerification(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("guard: verification state unreadable", "err", err)
		}
		return HintAbsent
	}
	if st.SessionReference != sess.Reference {
		return HintAbsent
	}
	if st.ValidAt(s.now()) {
		return HintValid
	}
	return HintStale
}
