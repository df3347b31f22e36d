package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdown_TicksThenExpiresOnce(t *testing.T) {
	c := &clock{now: t0}
	cd := NewCountdown(t0.Add(3*time.Second), c.Now, time.Millisecond)

	var ticks []time.Duration
	expired := 0
	reached := cd.Run(context.Background(),
		func(rem time.Duration) {
			ticks = append(ticks, rem)
			c.now = c.now.Add(time.Second)
		},
		func() { expired++ },
	)

	assert.True(t, reached)
	assert.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second, time.Second}, ticks)
	assert.Equal(t, 1, expired)
}

func TestCountdown_CancelStopsWithoutExpiring(t *testing.T) {
	c := &clock{now: t0}
	cd := NewCountdown(t0.Add(10*time.Minute), c.Now, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	expired := false
	ticks := 0
	reached := cd.Run(ctx,
		func(time.Duration) {
			ticks++
			if ticks == 2 {
				cancel()
				// Even if the deadline passes after teardown, onExpire must not fire.
				c.now = t0.Add(time.Hour)
			}
		},
		func() { expired = true },
	)

	assert.False(t, reached)
	assert.False(t, expired)
	assert.Equal(t, 2, ticks)
}

func TestCountdown_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	reached := NewCountdown(t0, func() time.Time { return t0 }, time.Millisecond).
		Run(ctx, func(time.Duration) { called = true }, func() { called = true })

	assert.False(t, reached)
	assert.False(t, called)
}

func TestCountdown_PastDeadlineExpiresImmediately(t *testing.T) {
	expired := 0
	reached := NewCountdown(t0, func() time.Time { return t0.Add(time.Second) }, time.Millisecond).
		Run(context.Background(), func(time.Duration) { t.Fatal("no tick expected") }, func() { expired++ })

	assert.True(t, reached)
	assert.Equal(t, 1, expired)
}
