package app

import (
	"context"

	"teachassist/internal/ai"
	"teachassist/internal/platform/logger"
)

// DirectReindexer starts a knowledge-base ingestion job on every request.
type DirectReindexer struct {
	trigger ai.IngestionTrigger
	log     *logger.Logger
}

func NewDirectReindexer(trigger ai.IngestionTrigger, log *logger.Logger) *DirectReindexer {
	return &DirectReindexer{trigger: trigger, log: log}
}

func (r *DirectReindexer) RequestReindex(ctx context.Context, reason string) error {
	jobID, err := r.trigger.StartIngestion(ctx)
	if err != nil {
		return err
	}
	r.log.Info("ingestion job started", "job", jobID, "reason", reason)
	return nil
}

// NoopReindexer is used when re-indexing is switched off.
type NoopReindexer struct{}

func (NoopReindexer) RequestReindex(context.Context, string) error { return nil }
