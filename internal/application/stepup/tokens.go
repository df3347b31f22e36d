package stepup

import (
	"sync"
	"time"

	"github.com/nextwallet-vault/internal/domain"
	pkgtoken "github.com/nextwallet-vault/internal/pkg/token"
)

// Registry holds live step-up tokens in process memory. A token is bound to
// one user and one action and is removed the moment it is consumed.
type Registry struct {
	mu     sync.Mutex
	tokens map[string]domain.StepUpToken
	ttl    time.Duration
	now    func() time.Time
}

func NewRegistry(ttl time.Duration, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{tokens: make(map[string]domain.StepUpToken), ttl: ttl, now: now}
}

func (r *Registry) Issue(userID string, action domain.Action) (*domain.StepUpToken, error) {
	raw, err := pkgtoken.NewOpaque()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for k, t := range r.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.tokens, k)
		}
	}
	t := domain.StepUpToken{ID: raw, UserID: userID, Action: action, ExpiresAt: now.Add(r.ttl)}
	r.tokens[raw] = t
	return &t, nil
}

// Consume spends token for (userID, action). A token presented for the wrong
// user or action is left in place.
func (r *Registry) Consume(token, userID string, action domain.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.UserID != userID {
		return domain.ErrStepUpMissing
	}
	if !r.now().Before(t.ExpiresAt) {
		delete(r.tokens, token)
		return domain.ErrStepUpExpired
	}
	if t.Action != action {
		return domain.ErrStepUpWrongAction
	}
	delete(r.tokens, token)
	return nil
}

// RevokeUser drops every token held by userID.
func (r *Registry) RevokeUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
}
