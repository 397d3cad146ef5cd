package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"teachassist/internal/ai"
	"teachassist/internal/model"
	"teachassist/internal/platform/logger"
)

// ReindexWorker consumes re-index requests and coalesces every request that
// arrives within the debounce window into one ingestion job. Deliveries are
// acked together once the job has been started.
type ReindexWorker struct {
	conn      *amqp.Connection
	trigger   ai.IngestionTrigger
	queueName string
	debounce  time.Duration
	log       *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReindexWorker(conn *amqp.Connection, trigger ai.IngestionTrigger, queueName string, debounce time.Duration, log *logger.Logger) *ReindexWorker {
	if debounce <= 0 {
		debounce = 10 * time.Second
	}
	return &ReindexWorker{
		conn:      conn,
		trigger:   trigger,
		queueName: queueName,
		debounce:  debounce,
		log:       log,
	}
}

func (w *ReindexWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.run(workerCtx, deliveries)
	}()

	return nil
}

type batch struct {
	last    *amqp.Delivery
	reasons []string
}

func (w *ReindexWorker) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	var (
		pending batch
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			var req model.ReindexRequest
			if err := json.Unmarshal(d.Body, &req); err != nil {
				w.log.Warn("reindex worker decode failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			pending.last = &d
			pending.reasons = append(pending.reasons, req.Reason)
			if fire == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}
		case <-fire:
			fire = nil
			w.flush(ctx, pending)
			pending = batch{}
		}
	}
}

func (w *ReindexWorker) flush(ctx context.Context, b batch) {
	if b.last == nil {
		return
	}
	jobID, err := w.trigger.StartIngestion(ctx)
	if err != nil {
		w.log.Error("reindex worker ingestion failed", "requests", len(b.reasons), "error", err)
		_ = b.last.Nack(true, false)
		return
	}
	w.log.Info("ingestion job started", "job", jobID, "requests", len(b.reasons), "reasons", b.reasons)
	_ = b.last.Ack(true)
}

func (w *ReindexWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
