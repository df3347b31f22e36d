package otp

import (
	"context"
	"time"

	"github.com/nextwallet-vault/internal/domain"
)

// Countdown drives the verification screen timer against the client-side
// deadline. It is independent of the ledger's own expires_at.
type Countdown struct {
	deadline time.Time
	now      func() time.Time
	interval time.Duration

	// The hint the countdown was started for.
	sessionRef string
	issuedAt   time.Time
}

func NewCountdown(deadline time.Time, now func() time.Time, interval time.Duration) *Countdown {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{deadline: deadline, now: now, interval: interval}
}

func (c *Countdown) Deadline() time.Time { return c.deadline }

func (c *Countdown) startedFor(st *domain.VerificationState) bool {
	return st.SessionReference == c.sessionRef && st.IssuedAt.Equal(c.issuedAt)
}

// Run calls onTick with the remaining time on every tick and onExpire exactly
// once when the deadline passes. Cancelling ctx stops the timer without
// calling onExpire. Run reports whether the deadline was reached.
func (c *Countdown) Run(ctx context.Context, onTick func(remaining time.Duration), onExpire func()) bool {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		if ctx.Err() != nil {
			return false
		}
		remaining := c.deadline.Sub(c.now())
		if remaining <= 0 {
			onExpire()
			return true
		}
		onTick(remaining)
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
}
