// Package model owns the text-generation model used to compose messages.
//
// A Gateway loads its model lazily on first use and caches the handle (or the
// load failure) for the rest of the process. Neither loading nor invocation is
// retried; callers decide what to do on failure.
package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cold-message/internal/domain"
)

// Loader creates a model handle. Implementations talk to a concrete runtime.
type Loader interface {
	ModelID() string
	Load(ctx context.Context) (domain.ModelHandle, error)
}

// Gateway is the single, lazily created model handle for a process.
type Gateway struct {
	loader      Loader
	loadTimeout time.Duration
	timeout     time.Duration
	logger      *zap.Logger

	once    sync.Once
	handle  domain.ModelHandle
	loadErr error
}

type Option func(*Gateway)

// WithTimeout bounds each invocation. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithLoadTimeout bounds the one-time load. Zero means no bound.
func WithLoadTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.loadTimeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway creates a Gateway for loader. Nothing is loaded until the first
// call to EnsureLoaded.
func NewGateway(loader Loader, opts ...Option) (*Gateway, error) {
	if loader == nil {
		return nil, errors.New("model: loader must not be nil")
	}
	g := &Gateway{loader: loader, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ModelID returns the identifier of the model this gateway serves.
func (g *Gateway) ModelID() string {
	return g.loader.ModelID()
}

// EnsureLoaded returns the cached handle, loading it on the first call.
// Concurrent first callers block until the single load finishes. A failed
// load is cached and returned as a *LoadError on every later call.
//
// The load ignores cancellation of ctx so that one abandoned request cannot
// leave the process without a model; only the load timeout bounds it.
func (g *Gateway) EnsureLoaded(ctx context.Context) (domain.ModelHandle, error) {
	g.once.Do(func() {
		g.handle, g.loadErr = g.load(context.WithoutCancel(ctx))
	})
	return g.handle, g.loadErr
}

func (g *Gateway) load(ctx context.Context) (domain.ModelHandle, error) {
	if g.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.loadTimeout)
		defer cancel()
	}
	started := time.Now()
	h, err := g.loader.Load(ctx)
	if err == nil && h == nil {
		err = errors.New("loader returned no handle")
	}
	if err != nil {
		g.logger.Warn("model load failed", zap.String("model", g.loader.ModelID()), zap.Error(err))
		return nil, &LoadError{Model: g.loader.ModelID(), Err: err}
	}
	g.logger.Info("model loaded",
		zap.String("model", h.ModelID()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return h, nil
}

// Invoke runs prompt through h. Any failure, including a blank result or an
// expired timeout, is returned as a *InvocationError.
func (g *Gateway) Invoke(ctx context.Context, h domain.ModelHandle, prompt string, opts domain.GenerationOptions) (string, error) {
	if h == nil {
		return "", &InvocationError{Model: g.loader.ModelID(), Err: errors.New("handle is nil")}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	out, err := h.Generate(ctx, prompt, opts)
	if err != nil {
		return "", &InvocationError{Model: h.ModelID(), Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &InvocationError{Model: h.ModelID(), Err: errors.New("empty output")}
	}
	return out, nil
}
