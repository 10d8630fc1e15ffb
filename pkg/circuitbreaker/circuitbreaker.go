package circuitbreaker

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests ...
	MaxNumOfFailingRequests = 10
	// FailingRatio ...
	FailingRatio = 0.6
	// MaxConsecutiveFailures trips the breaker regardless of the ratio.
	MaxConsecutiveFailures = 5
	// OpenTimeout is how long a tripped breaker rejects requests before
	// letting one through again.
	OpenTimeout = 30 * time.Second
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker named after the guarded
// backend. It trips either when MaxConsecutiveFailures requests in a row have
// failed, or when more than MaxNumOfFailingRequests requests have been served
// with a failing ratio of at least FailingRatio.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		Timeout:     OpenTimeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Debug("circuit breaker state changed")
		},
	})
}

func readyToTrip(counts gobreaker.Counts) bool {
	if int(counts.ConsecutiveFailures) >= MaxConsecutiveFailures {
		return true
	}
	if counts.Requests == 0 {
		return false
	}
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
}
