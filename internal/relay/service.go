// Package relay publishes outbox messages staged by CSV ingestion to Kafka.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/config"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/repository"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/mq"
	"github.com/tuanvumaihuynh/catalog-ingest/pkg/outbox"
	"github.com/tuanvumaihuynh/catalog-ingest/pkg/ptr"
)

type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer

	stopChan chan struct{}
}

func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
		stopChan:      make(chan struct{}),
	}
}

type CleanupFunc func()

// Run starts relaying in the background. The returned cleanup waits up to
// cfg.StopTimeout for the current batch before cancelling it.
func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		defer cancel()
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(s.cfg.StopTimeout):
			s.logger.WarnContext(ctx, "relay did not stop in time, cancelling")
			cancel()
			<-stoppedChan
		}
	}
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RelayBatch(ctx); err != nil {
				s.logger.ErrorContext(ctx, "error relaying outbox msgs", slog.Any("error", err))
			}
		}
	}
}

// RelayBatch publishes up to cfg.BatchSize unprocessed messages and marks
// each one processed, recording the produce error for those that failed.
// It returns how many messages were handled.
func (s *Service) RelayBatch(ctx context.Context) (int, error) {
	var handled int

	err := s.db.WithTx(ctx, func(db db.DB) error {
		outboxMsgs, err := s.outboxMsgRepo.
			WithDB(db).
			ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{
				//nolint:gosec
				BatchSize: int32(s.cfg.BatchSize),
			})
		if err != nil {
			return fmt.Errorf("list unprocessed outbox msgs: %w", err)
		}

		if len(outboxMsgs) == 0 {
			return nil
		}

		s.logger.InfoContext(ctx, "relaying outbox msgs", slog.Int("count", len(outboxMsgs)))

		items := make([]repository.BulkUpdateOutboxMsgsItem, 0, len(outboxMsgs))
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)

		for _, msg := range outboxMsgs {
			wg.Go(func() {
				item := repository.BulkUpdateOutboxMsgsItem{ID: msg.ID}

				if err := s.produce(ctx, msg); err != nil {
					s.logger.ErrorContext(ctx,
						"error producing message",
						slog.String("outbox_msg_id", msg.ID.String()),
						slog.String("topic", msg.Topic),
						slog.Any("error", err),
					)
					item.Error = ptr.New(err.Error())
				}

				mu.Lock()
				items = append(items, item)
				mu.Unlock()
			})
		}

		wg.Wait()

		if err := s.outboxMsgRepo.
			WithDB(db).
			BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
				Items: items,
			}); err != nil {
			return fmt.Errorf("bulk update outbox msgs: %w", err)
		}

		handled = len(items)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("db with tx: %w", err)
	}

	return handled, nil
}

// produce publishes msg under the trace and correlation id of the upload that
// staged it.
func (s *Service) produce(ctx context.Context, msg repository.ListUnprocessedOutboxMsgsResult) error {
	msgCtx := outbox.ExtractContextFromHeaders(ctx, msg.Headers)

	if err := s.mqProducer.Produce(msgCtx, mq.ProduceMsg{
		Topic:        msg.Topic,
		Headers:      msg.Headers,
		Payload:      msg.Payload,
		PartitionKey: msg.PartitionKey,
	}); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	return nil
}
