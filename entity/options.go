package entity

import (
	"time"

	"github.com/entityscheduler/entityscheduler/entity/emit"
)

// SchedulerOptions configures a Scheduler's execution behavior. Zero values
// are valid; the scheduler applies the defaults documented per field.
type SchedulerOptions struct {
	// MaxBatchSize advisorially bounds the number of operations/signals
	// built into one batch (§4.2: "advisory and MUST NOT split the final
	// lock request from the operations preceding it"). Zero means
	// unbounded.
	MaxBatchSize int

	// DefaultOperationTimeout records a per-operation timeout. Neither the
	// Dispatcher nor the Scheduler reads it: handlers run without a
	// deadline whatever its value.
	DefaultOperationTimeout time.Duration

	// OutOfProcess switches operation dispatch to the batched,
	// one-invocation-per-batch mode described in §4.4. NewDispatcher
	// rejects it with ErrOutOfProcessUnsupported as a fatal startup
	// condition (§7); NewOutOfProcessDispatcher sets it and takes the
	// Invoker.
	OutOfProcess bool

	// Metrics, if non-nil, receives Prometheus-compatible scheduler metrics
	// (entity/metrics.go).
	Metrics *SchedulerMetrics

	// Emitter, if non-nil, receives observability events for batch and
	// lock-protocol transitions (entity/emit).
	Emitter emit.Emitter
}

// Option is a functional option for configuring a Scheduler, following the
// teacher's Option func(*engineConfig) error convention (graph/options.go).
type Option func(*schedulerConfig) error

type schedulerConfig struct {
	opts SchedulerOptions
}

// WithMaxBatchSize sets the advisory batch-size limit (§4.2).
func WithMaxBatchSize(n int) Option {
	return func(cfg *schedulerConfig) error {
		cfg.opts.MaxBatchSize = n
		return nil
	}
}

// WithDefaultOperationTimeout sets DefaultOperationTimeout, which dispatch
// does not enforce.
func WithDefaultOperationTimeout(d time.Duration) Option {
	return func(cfg *schedulerConfig) error {
		cfg.opts.DefaultOperationTimeout = d
		return nil
	}
}

// WithOutOfProcess switches to batched out-of-process dispatch (§4.4).
func WithOutOfProcess(enabled bool) Option {
	return func(cfg *schedulerConfig) error {
		cfg.opts.OutOfProcess = enabled
		return nil
	}
}

// WithSchedulerMetrics attaches a Prometheus metrics collector.
func WithSchedulerMetrics(m *SchedulerMetrics) Option {
	return func(cfg *schedulerConfig) error {
		cfg.opts.Metrics = m
		return nil
	}
}

// WithEmitter attaches an observability event sink.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *schedulerConfig) error {
		cfg.opts.Emitter = e
		return nil
	}
}

// resolveOptions applies a mix of SchedulerOptions structs and functional
// Options in order, later values winning — mirroring New's handling of
// mixed Options/Option arguments in the teacher's engine.go.
func resolveOptions(options []interface{}) SchedulerOptions {
	cfg := &schedulerConfig{}
	for _, opt := range options {
		switch v := opt.(type) {
		case SchedulerOptions:
			cfg.opts = v
		case Option:
			_ = v(cfg)
		}
	}
	return cfg.opts
}
