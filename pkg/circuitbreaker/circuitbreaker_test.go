package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func TestReadyToTrip(t *testing.T) {
	tests := []struct {
		name   string
		counts gobreaker.Counts
		trip   bool
	}{
		{"no requests", gobreaker.Counts{}, false},
		{"consecutive failures", gobreaker.Counts{Requests: 5, TotalFailures: 5, ConsecutiveFailures: 5}, true},
		{"few failures", gobreaker.Counts{Requests: 4, TotalFailures: 4, ConsecutiveFailures: 4}, false},
		{"ratio below cap", gobreaker.Counts{Requests: 10, TotalFailures: 8, ConsecutiveFailures: 1}, false},
		{"ratio over cap", gobreaker.Counts{Requests: 11, TotalFailures: 7, ConsecutiveFailures: 1}, true},
		{"low ratio", gobreaker.Counts{Requests: 20, TotalFailures: 6, ConsecutiveFailures: 1}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.trip, readyToTrip(tt.counts))
		})
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	fail := errors.New("boom")

	calls := 0
	for i := 0; i < MaxConsecutiveFailures+2; i++ {
		cb.Execute(func() (interface{}, error) {
			calls++
			return nil, fail
		})
	}
	require.Equal(t, MaxConsecutiveFailures, calls)
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return nil, nil })
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
