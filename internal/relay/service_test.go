package relay_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/config"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/relay"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/repository"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/mq"
	"github.com/tuanvumaihuynh/catalog-ingest/pkg/correlationid"
	"github.com/tuanvumaihuynh/catalog-ingest/pkg/ptr"
)

type txDB struct{}

func (txDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec")
}

func (txDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (txDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (d txDB) WithTx(_ context.Context, fn func(db.DB) error) error { return fn(d) }

type fakeOutboxRepo struct {
	mu      sync.Mutex
	pending []repository.ListUnprocessedOutboxMsgsResult
	updated []repository.BulkUpdateOutboxMsgsItem
	listErr error
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(context.Context, repository.CreateOutboxMsgParams) error {
	return errors.New("unexpected create")
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(_ context.Context, params repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	n := min(int(params.BatchSize), len(r.pending))
	batch := r.pending[:n]
	r.pending = r.pending[n:]
	return batch, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(_ context.Context, params repository.BulkUpdateOutboxMsgsParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updated = append(r.updated, params.Items...)
	return nil
}

type fakeProducer struct {
	mu             sync.Mutex
	produced       []mq.ProduceMsg
	correlationIDs []string
	failKey        string
}

func (p *fakeProducer) Produce(ctx context.Context, msg mq.ProduceMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if msg.PartitionKey != nil && *msg.PartitionKey == p.failKey {
		return errors.New("broker unavailable")
	}
	id, _ := correlationid.FromContext(ctx)
	p.produced = append(p.produced, msg)
	p.correlationIDs = append(p.correlationIDs, id)
	return nil
}

func newMsg(sku string) repository.ListUnprocessedOutboxMsgsResult {
	return repository.ListUnprocessedOutboxMsgsResult{
		ID:           uuid.Must(uuid.NewV7()),
		Topic:        "catalog.product.ingested",
		Headers:      map[string]string{correlationid.Header: "upload-" + sku},
		Payload:      []byte(`{"sku":"` + sku + `"}`),
		PartitionKey: ptr.New(sku),
	}
}

func newService(repo *fakeOutboxRepo, producer *fakeProducer, batchSize uint32) *relay.Service {
	return relay.NewService(
		config.Relay{BatchSize: batchSize, Interval: 10 * time.Millisecond, StopTimeout: time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		txDB{},
		repo,
		producer,
	)
}

func TestRelayBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Should publish every message and mark it processed", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []repository.ListUnprocessedOutboxMsgsResult{newMsg("TS-001"), newMsg("TS-002")}}
		producer := &fakeProducer{}

		n, err := newService(repo, producer, 10).RelayBatch(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, n)
		assert.Len(t, producer.produced, 2)
		assert.ElementsMatch(t, []string{"upload-TS-001", "upload-TS-002"}, producer.correlationIDs)
		require.Len(t, repo.updated, 2)
		for _, item := range repo.updated {
			assert.Nil(t, item.Error)
		}
	})

	t.Run("Should record produce failures on the message", func(t *testing.T) {
		failing := newMsg("TS-002")
		repo := &fakeOutboxRepo{pending: []repository.ListUnprocessedOutboxMsgsResult{newMsg("TS-001"), failing}}
		producer := &fakeProducer{failKey: "TS-002"}

		n, err := newService(repo, producer, 10).RelayBatch(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, n)
		assert.Len(t, producer.produced, 1)
		for _, item := range repo.updated {
			if item.ID == failing.ID {
				require.NotNil(t, item.Error)
				assert.Contains(t, *item.Error, "broker unavailable")
			} else {
				assert.Nil(t, item.Error)
			}
		}
	})

	t.Run("Should respect the batch size", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []repository.ListUnprocessedOutboxMsgsResult{newMsg("A"), newMsg("B"), newMsg("C")}}

		n, err := newService(repo, &fakeProducer{}, 2).RelayBatch(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, n)
		assert.Len(t, repo.pending, 1)
	})

	t.Run("Should return list errors", func(t *testing.T) {
		repo := &fakeOutboxRepo{listErr: errors.New("deadlock detected")}

		_, err := newService(repo, &fakeProducer{}, 10).RelayBatch(ctx)
		assert.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []repository.ListUnprocessedOutboxMsgsResult{newMsg("TS-001")}}
	producer := &fakeProducer{}

	cleanup := newService(repo, producer, 10).Run(context.Background())

	assert.Eventually(t, func() bool {
		producer.mu.Lock()
		defer producer.mu.Unlock()
		return len(producer.produced) == 1
	}, time.Second, 5*time.Millisecond)

	cleanup()
}
