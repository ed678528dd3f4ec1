package srvenv

import (
	"context"
	"net/http"

	"github.com/go-sod/quad/internal/database"
	"github.com/go-sod/quad/internal/index"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	index    index.ProvideFn
	metrics  http.Handler
}

func (s *SrvEnv) ProvideIndex() index.ProvideFn {
	return s.index
}

// Metrics returns the exposition handler, nil when metrics are disabled.
func (s *SrvEnv) Metrics() http.Handler {
	return s.metrics
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithIndex(fn index.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.index = fn
		return s
	}
}

func WithMetrics(h http.Handler) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.metrics = h
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
