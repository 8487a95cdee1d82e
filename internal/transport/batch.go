package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/pkg/pool"
)

// ErrLegAborted is reported for a leg that panicked before producing a result.
var ErrLegAborted = errors.New("batch leg aborted")

type Result struct {
	Response *Response
	Err      error
}

// Batch is a set of requests keyed by caller chosen tags.
type Batch struct {
	reqs map[string]Request
}

func NewBatch() *Batch {
	return &Batch{reqs: make(map[string]Request)}
}

func (b *Batch) Add(tag string, req Request) error {
	if tag == "" {
		return &domain.ValidationError{Field: "tag", Reason: "must not be empty"}
	}
	if _, ok := b.reqs[tag]; ok {
		return &domain.ValidationError{Field: "tag", Reason: fmt.Sprintf("duplicate tag %q", tag)}
	}
	b.reqs[tag] = req
	return nil
}

func (b *Batch) Len() int { return len(b.reqs) }

func (b *Batch) Tags() []string {
	tags := make([]string, 0, len(b.reqs))
	for t := range b.reqs {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// ExecBatch runs every leg concurrently and waits for all of them.
// Each tag gets its own Result; one failing leg never hides the others.
func (c *Client) ExecBatch(ctx context.Context, b *Batch) map[string]Result {
	n := b.Len()
	results := make(map[string]Result, n)
	if n == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.BatchTimeout)
	defer cancel()

	var mu sync.Mutex
	t0 := time.Now()

	jobs := make([]func(), 0, n)
	for tag, req := range b.reqs {
		tag, req := tag, req
		jobs = append(jobs, func() {
			resp, err := c.Call(ctx, req)
			mu.Lock()
			results[tag] = Result{Response: resp, Err: err}
			mu.Unlock()
		})
	}

	// One worker per leg. Bulk size is bounded upstream and the limiter throttles.
	pool.Run(n, jobs, pool.WithPanicHandler(func(v any) {
		c.logger.Error("Batch leg panicked", zap.Error(&pool.PanicError{Value: v}))
	}))

	failed := 0
	for tag := range b.reqs {
		r, ok := results[tag]
		if !ok {
			r = Result{Err: ErrLegAborted}
			results[tag] = r
		}
		if r.Err != nil {
			failed++
		}
	}

	durMs := float64(time.Since(t0).Microseconds()) / 1000.0
	c.metrics.ObserveBatch(n, failed, durMs)
	c.logger.Debug("Batch executed",
		zap.Int("legs", n),
		zap.Int("failed", failed),
		zap.Float64("dur_ms", durMs),
	)
	return results
}
