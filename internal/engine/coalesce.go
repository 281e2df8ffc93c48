package engine

import (
	"context"
	"sync"
	"time"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// inFlightAssessment tracks a single collection pass that multiple callers may wait for.
type inFlightAssessment struct {
	mu      sync.Mutex
	result  models.Assessment
	err     error
	done    bool
	waiters []chan struct{}
}

// assessmentCoalescer merges concurrent on-demand assessments for the same
// rounded coordinates into one collection pass, so a burst of requests for one
// location costs a single set of upstream calls.
type assessmentCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightAssessment
	timeout  time.Duration
}

func newAssessmentCoalescer(timeout time.Duration) *assessmentCoalescer {
	return &assessmentCoalescer{
		inFlight: make(map[string]*inFlightAssessment),
		timeout:  timeout,
	}
}

// GetOrDo returns the in-flight result for key if one exists, otherwise runs
// fn and registers it. Respects context cancellation and the configured
// timeout to prevent indefinite blocking.
func (ac *assessmentCoalescer) GetOrDo(ctx context.Context, key string, fn func() (models.Assessment, error)) (models.Assessment, error) {
	ac.mu.Lock()
	req, exists := ac.inFlight[key]
	if exists {
		notify := make(chan struct{})
		req.mu.Lock()
		if req.done {
			result := req.result
			err := req.err
			req.mu.Unlock()
			ac.mu.Unlock()
			return result, err
		}
		req.waiters = append(req.waiters, notify)
		req.mu.Unlock()
		ac.mu.Unlock()
		return ac.wait(ctx, req, notify)
	}

	req = &inFlightAssessment{
		waiters: make([]chan struct{}, 0),
	}
	ac.inFlight[key] = req
	ac.mu.Unlock()

	go func() {
		result, err := fn()

		req.mu.Lock()
		req.result = result
		req.err = err
		req.done = true
		waiters := req.waiters
		req.waiters = nil
		req.mu.Unlock()

		for _, notify := range waiters {
			close(notify)
		}

		ac.cleanup(key)
	}()

	notify := make(chan struct{})
	req.mu.Lock()
	if req.done {
		result := req.result
		err := req.err
		req.mu.Unlock()
		return result, err
	}
	req.waiters = append(req.waiters, notify)
	req.mu.Unlock()
	return ac.wait(ctx, req, notify)
}

func (ac *assessmentCoalescer) wait(ctx context.Context, req *inFlightAssessment, notify chan struct{}) (models.Assessment, error) {
	waitCtx, cancel := context.WithTimeout(ctx, ac.timeout)
	defer cancel()
	select {
	case <-notify:
		req.mu.Lock()
		result := req.result
		err := req.err
		req.mu.Unlock()
		return result, err
	case <-waitCtx.Done():
		return models.Assessment{}, waitCtx.Err()
	}
}

// cleanup removes the in-flight entry for key after the pass completes.
func (ac *assessmentCoalescer) cleanup(key string) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	delete(ac.inFlight, key)
}
