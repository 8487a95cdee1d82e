package pool

import (
	"fmt"
	"sync"
)

// Pool runs submitted jobs on a fixed set of workers.
type Pool struct {
	jobs    chan func()
	wg      sync.WaitGroup
	onPanic func(any)
}

type Option func(*Pool)

// WithPanicHandler recovers job panics and reports them to fn instead of crashing the worker.
func WithPanicHandler(fn func(any)) Option {
	return func(p *Pool) { p.onPanic = fn }
}

func New(n int, opts ...Option) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan func(), n*2),
	}
	for _, o := range opts {
		o(p)
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for f := range p.jobs {
				if f != nil {
					p.run(f)
				}
			}
		}()
	}
	return p
}

func (p *Pool) run(f func()) {
	if p.onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				p.onPanic(r)
			}
		}()
	}
	f()
}

func (p *Pool) Submit(f func()) {
	p.jobs <- f
}

func (p *Pool) Close() {
	close(p.jobs)
}

func (p *Pool) Wait() {
	p.wg.Wait()
}

// Run executes all jobs on at most n workers and returns when every job is done.
func Run(n int, jobs []func(), opts ...Option) {
	if len(jobs) == 0 {
		return
	}
	if n > len(jobs) {
		n = len(jobs)
	}
	p := New(n, opts...)
	for _, j := range jobs {
		p.Submit(j)
	}
	p.Close()
	p.Wait()
}

// PanicError wraps a recovered panic value.
type PanicError struct{ Value any }

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }
