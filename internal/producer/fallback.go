package producer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"skillscope/internal/domain"
	"skillscope/internal/port"
)

// circuitState tracks rate-limit backoff for a single producer.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// Fallback tries producers in order, skipping those with open circuits. A
// rate-limited producer is benched until its Retry-After window passes. It
// implements port.EvidenceProducer, so an LLM producer can degrade to the
// rules producer without the caller noticing.
type Fallback struct {
	producers []port.EvidenceProducer
	circuits  []*circuitState
	names     []string
}

// NewFallback creates a Fallback from an ordered list of producers and their names.
func NewFallback(producers []port.EvidenceProducer, names []string) *Fallback {
	circuits := make([]*circuitState, len(producers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &Fallback{
		producers: producers,
		circuits:  circuits,
		names:     names,
	}
}

func (f *Fallback) Produce(ctx context.Context, input port.ProduceInput) (map[domain.Skill]port.SkillAssessment, error) {
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, p := range f.producers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("producer.Fallback: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := p.Produce(ctx, input)
		if err == nil {
			return out, nil
		}

		log.Printf("producer.Fallback: %s failed: %v", f.names[i], err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		// Everything is benched; surface the earliest time a retry can work.
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", domain.ErrProducerExhausted, int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrProducerExhausted, lastErr)
}
