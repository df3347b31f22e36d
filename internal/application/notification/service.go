// Package notification sends best-effort verification outcome events. Nothing
// here can fail or delay the verification flow.
package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nextwallet-vault/internal/domain"
)

const publishTimeout = 5 * time.Second

type publisher interface {
	PublishVerification(ctx context.Context, ev domain.VerificationEvent) error
}

type Service interface {
	// VerificationOutcome returns immediately; delivery happens in the background.
	VerificationOutcome(ev domain.VerificationEvent)
	// Wait blocks until in-flight deliveries finish.
	Wait()
}

type ServiceDeps struct {
	Publisher publisher // nil logs events instead of sending them
}

type service struct {
	pub publisher
	wg  sync.WaitGroup
}

func NewService(deps ServiceDeps) Service {
	return &service{pub: deps.Publisher}
}

func (s *service) VerificationOutcome(ev domain.VerificationEvent) {
	ev.Action = "verification"
	if s.pub == nil {
		slog.Debug("verification event (no publisher)", "user_id", ev.UserID, "success", ev.Success, "method", ev.AuthMethod)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("verification event publisher panicked", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.pub.PublishVerification(ctx, ev); err != nil {
			slog.Warn("failed to publish verification event", "user_id", ev.UserID, "err", err)
		}
	}()
}

func (s *service) Wait() { s.wg.Wait() }
