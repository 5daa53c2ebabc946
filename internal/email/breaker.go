package email

import (
	"context"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerTransport short-circuits delivery while the wrapped provider keeps failing.
type BreakerTransport struct {
	next Transport
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerTransport(name string, next Transport) *BreakerTransport {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[Email] circuit %s: %s -> %s", name, from, to)
		},
	})
	return &BreakerTransport{next: next, cb: cb}
}

func (t *BreakerTransport) Deliver(ctx context.Context, email *Email) error {
	_, err := t.cb.Execute(func() (interface{}, error) {
		return nil, t.next.Deliver(ctx, email)
	})
	return err
}

// State exposes the breaker state for health reporting.
func (t *BreakerTransport) State() string {
	return t.cb.State().String()
}
