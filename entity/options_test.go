package entity

import (
	"testing"
	"time"
)

func TestResolveOptions_Defaults(t *testing.T) {
	opts := resolveOptions(nil)
	if opts.MaxBatchSize != 0 || opts.OutOfProcess || opts.DefaultOperationTimeout != 0 || opts.Metrics != nil || opts.Emitter != nil {
		t.Errorf("resolveOptions(nil) = %+v, want all zero values", opts)
	}
}

func TestResolveOptions_FunctionalOptions(t *testing.T) {
	opts := resolveOptions([]interface{}{
		WithMaxBatchSize(10),
		WithDefaultOperationTimeout(5 * time.Second),
		WithOutOfProcess(true),
	})

	if opts.MaxBatchSize != 10 {
		t.Errorf("MaxBatchSize = %d, want 10", opts.MaxBatchSize)
	}
	if opts.DefaultOperationTimeout != 5*time.Second {
		t.Errorf("DefaultOperationTimeout = %v, want 5s", opts.DefaultOperationTimeout)
	}
	if !opts.OutOfProcess {
		t.Error("expected OutOfProcess true")
	}
}

func TestResolveOptions_StructOptionOverridesPriorFunctionalOptions(t *testing.T) {
	opts := resolveOptions([]interface{}{
		WithMaxBatchSize(10),
		SchedulerOptions{MaxBatchSize: 99},
	})
	if opts.MaxBatchSize != 99 {
		t.Errorf("MaxBatchSize = %d, want 99: a later SchedulerOptions struct must win", opts.MaxBatchSize)
	}
}

func TestResolveOptions_LaterFunctionalOptionWins(t *testing.T) {
	opts := resolveOptions([]interface{}{
		WithMaxBatchSize(10),
		WithMaxBatchSize(20),
	})
	if opts.MaxBatchSize != 20 {
		t.Errorf("MaxBatchSize = %d, want 20", opts.MaxBatchSize)
	}
}

func TestResolveOptions_IgnoresUnrecognizedValues(t *testing.T) {
	opts := resolveOptions([]interface{}{"not an option", 42, WithMaxBatchSize(3)})
	if opts.MaxBatchSize != 3 {
		t.Errorf("MaxBatchSize = %d, want 3", opts.MaxBatchSize)
	}
}
