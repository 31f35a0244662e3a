package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(Settings{
		Name:        "redis-broker",
		MaxFailures: 2,
		Timeout:     time.Minute,
		OnStateChange: func(_ string, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})

	boom := errors.New("boom")
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, "open", cb.State())
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 1})

	for i := 0; i < 3; i++ {
		assert.NoError(t, cb.Execute(func() error { return nil }))
	}
	assert.Equal(t, "closed", cb.State())
}
