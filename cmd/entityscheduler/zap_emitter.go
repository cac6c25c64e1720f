package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/entityscheduler/entityscheduler/entity/emit"
)

// zapEmitter adapts emit.Event into structured zap fields, the same
// adapter-over-interface shape the teacher uses for its OTel emitter —
// here swapping the tracing backend for structured logging.
type zapEmitter struct {
	logger *zap.Logger
}

func newZapEmitter(logger *zap.Logger) *zapEmitter {
	return &zapEmitter{logger: logger}
}

func (z *zapEmitter) Emit(event emit.Event) {
	fields := make([]zap.Field, 0, len(event.Meta)+2)
	fields = append(fields,
		zap.String("instance", event.InstanceID),
		zap.String("class", event.ClassName),
	)
	for k, v := range event.Meta {
		fields = append(fields, zap.Any(k, v))
	}
	z.logger.Info(event.Msg, fields...)
}

func (z *zapEmitter) EmitBatch(_ context.Context, events []emit.Event) error {
	for _, event := range events {
		z.Emit(event)
	}
	return nil
}

func (z *zapEmitter) Flush(_ context.Context) error {
	return z.logger.Sync()
}
