package textbook

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one compiler is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances; each costs roughly 200MB.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// CompilerPool hands out Compilers, each with its own browser, so compiles
// can run in parallel. Compilers are built lazily on first Acquire.
type CompilerPool struct {
	size      int
	opts      []Option
	compilers []*Compiler
	sem       chan *Compiler
	mu        sync.Mutex
	created   int
	closed    bool

	// newCompiler is swapped by tests to avoid real browsers.
	newCompiler func(...Option) (*Compiler, error)
}

// NewCompilerPool creates a pool of up to n Compilers built with opts.
func NewCompilerPool(n int, opts ...Option) *CompilerPool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &CompilerPool{
		size:        n,
		opts:        opts,
		compilers:   make([]*Compiler, 0, n),
		sem:         make(chan *Compiler, n),
		newCompiler: NewCompiler,
	}
}

// Acquire returns an idle Compiler, builds a new one while under capacity,
// or waits for a Release. It fails when ctx ends first or the pool is closed.
func (p *CompilerPool) Acquire(ctx context.Context) (*Compiler, error) {
	select {
	case c, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return c, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		c, err := p.newCompiler(p.opts...)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.created--
			return nil, err
		}
		// Close ran while c was being built and never saw it.
		if p.closed {
			_ = c.Close()
			return nil, ErrPoolClosed
		}
		p.compilers = append(p.compilers, c)
		return c, nil
	}
	p.mu.Unlock()

	select {
	case c, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns c to the pool. Releasing after Close is a no-op.
func (p *CompilerPool) Release(c *Compiler) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	// Never blocks: the channel holds every compiler the pool created.
	p.sem <- c
}

// Compile acquires a Compiler, runs one compile and releases it.
func (p *CompilerPool) Compile(ctx context.Context, input Input) (*Result, error) {
	c, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(c)
	return c.Compile(ctx, input)
}

// Close shuts down every browser the pool started.
func (p *CompilerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	compilers := p.compilers
	p.mu.Unlock()

	var errs []error
	for _, c := range compilers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *CompilerPool) Size() int {
	return p.size
}

// ResolvePoolSize picks the pool size: an explicit workers value wins,
// otherwise half of GOMAXPROCS clamped to [MinPoolSize, MaxPoolSize].
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
