package crm

import (
	"context"
	"errors"
	"sync"
	"time"
)

type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	IsFailure        func(error) bool
}

// CircuitBreakerClient shields the service from a flapping CRM. Open state
// fails calls fast; a single half-open probe decides recovery.
type CircuitBreakerClient struct {
	next Client
	cfg  CircuitBreakerConfig

	mu           sync.Mutex
	state        int
	failures     int
	successes    int
	openedAt     time.Time
	halfInFlight bool
}

const (
	cbClosed = iota
	cbOpen
	cbHalfOpen
)

func NewCircuitBreakerClient(next Client, cfg CircuitBreakerConfig) *CircuitBreakerClient {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 2 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool {
			return errors.Is(err, ErrTimeout) || errors.Is(err, ErrServer) || errors.Is(err, context.DeadlineExceeded)
		}
	}
	return &CircuitBreakerClient{next: next, cfg: cfg, state: cbClosed}
}

func (c *CircuitBreakerClient) UpdateRecord(ctx context.Context, module, recordID string, fields map[string]any) error {
	if err := c.beforeCall(); err != nil {
		return err
	}
	err := c.next.UpdateRecord(ctx, module, recordID, fields)
	c.afterCall(err)
	return err
}

func (c *CircuitBreakerClient) AddNote(ctx context.Context, module, recordID, title, body string) error {
	if err := c.beforeCall(); err != nil {
		return err
	}
	err := c.next.AddNote(ctx, module, recordID, title, body)
	c.afterCall(err)
	return err
}

func (c *CircuitBreakerClient) beforeCall() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(c.openedAt) >= c.cfg.OpenTimeout {
			c.state = cbHalfOpen
			c.successes = 0
			c.halfInFlight = false
		} else {
			return ErrCircuitOpen
		}
		fallthrough
	case cbHalfOpen:
		if c.halfInFlight {
			return ErrCircuitOpen
		}
		c.halfInFlight = true
		return nil
	default:
		return ErrCircuitOpen
	}
}

func (c *CircuitBreakerClient) afterCall(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == cbHalfOpen {
		c.halfInFlight = false
	}

	if err == nil {
		switch c.state {
		case cbClosed:
			c.failures = 0
		case cbHalfOpen:
			c.successes++
			if c.successes >= c.cfg.SuccessThreshold {
				c.state = cbClosed
				c.failures = 0
				c.successes = 0
			}
		}
		return
	}

	if !c.cfg.IsFailure(err) {
		return
	}

	switch c.state {
	case cbClosed:
		c.failures++
		if c.failures >= c.cfg.FailureThreshold {
			c.state = cbOpen
			c.openedAt = time.Now().UTC()
			c.successes = 0
			c.halfInFlight = false
		}
	case cbHalfOpen:
		c.state = cbOpen
		c.openedAt = time.Now().UTC()
		c.failures = c.cfg.FailureThreshold
		c.successes = 0
		c.halfInFlight = false
	}
}
