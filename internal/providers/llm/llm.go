package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Options are the sampling parameters of one generation call.
type Options struct {
	Temperature float32
	MaxTokens   int
}

type Provider interface {
	// Generate returns the full completion for prompt.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	// Ping performs a cheap availability check.
	Ping(ctx context.Context) error
	Name() string
	Close() error
}

var ErrNotConfigured = errors.New("llm provider is not configured")

// Factory constructs a provider on first use.
type Factory func(ctx context.Context) (Provider, error)

// Lazy defers provider construction until the first call. A failed
// construction is retried on the next call.
type Lazy struct {
	name    string
	factory Factory

	mu sync.Mutex
	p  Provider
}

func NewLazy(name string, f Factory) *Lazy {
	return &Lazy{name: name, factory: f}
}

func (l *Lazy) get(ctx context.Context) (Provider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.p != nil {
		return l.p, nil
	}
	if l.factory == nil {
		return nil, ErrNotConfigured
	}
	p, err := l.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", l.name, err)
	}
	l.p = p
	return p, nil
}

func (l *Lazy) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	p, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return p.Generate(ctx, prompt, opts)
}

func (l *Lazy) Ping(ctx context.Context) error {
	p, err := l.get(ctx)
	if err != nil {
		return err
	}
	return p.Ping(ctx)
}

func (l *Lazy) Name() string { return l.name }

func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.p == nil {
		return nil
	}
	err := l.p.Close()
	l.p = nil
	return err
}

// ProbeConfig bounds the availability probe run before a generation.
type ProbeConfig struct {
	Retries int
	Timeout time.Duration
	Backoff time.Duration
}

// Probe pings p up to cfg.Retries times, sleeping cfg.Backoff between attempts.
// It returns the last error when every attempt fails.
func Probe(ctx context.Context, p Provider, cfg ProbeConfig) error {
	if p == nil {
		return ErrNotConfigured
	}
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = p.Ping(pctx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt == retries-1 || cfg.Backoff <= 0 {
			continue
		}
		t := time.NewTimer(cfg.Backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("%s unavailable after %d attempts: %w", p.Name(), retries, lastErr)
}
