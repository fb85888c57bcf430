package compile

import (
	"context"
	"sync"

	"github.com/jcdickinson/showroom/internal/rpc"
)

// Pool compiles requests on a fixed number of workers. Results arrive on
// Results in completion order, not submission order; callers correlate them
// by MessageID.
type Pool struct {
	compiler *Compiler
	jobs     chan rpc.CompileRequest
	results  chan rpc.CompileResult
	wg       sync.WaitGroup
	close    sync.Once
}

func NewPool(c *Compiler, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		compiler: c,
		jobs:     make(chan rpc.CompileRequest, workers),
		results:  make(chan rpc.CompileResult, workers),
	}
	for range workers {
		p.wg.Add(1)
		go p.work()
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for req := range p.jobs {
		p.results <- p.compiler.Compile(req)
	}
}

// Submit queues req. It blocks while every worker is busy and the queue is
// full. Submit must not be called after Close.
func (p *Pool) Submit(ctx context.Context, req rpc.CompileRequest) error {
	select {
	case p.jobs <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results is closed once the pool is closed and drained.
func (p *Pool) Results() <-chan rpc.CompileResult {
	return p.results
}

// Close stops accepting work. Queued requests still complete.
func (p *Pool) Close() {
	p.close.Do(func() { close(p.jobs) })
}
