package event

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/mq"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
	running  bool
	stopped  bool
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	if c.handlers == nil {
		c.handlers = map[string]mq.HandlerFunc{}
	}
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	c.running = true
	return func() { c.stopped = true }, nil
}

func TestService(t *testing.T) {
	var buf bytes.Buffer
	consumer := &fakeConsumer{}
	svc := New(slog.New(slog.NewJSONHandler(&buf, nil)), consumer)

	cleanup, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, consumer.running)

	handler, ok := consumer.handlers[TopicProductIngested]
	require.True(t, ok)

	t.Run("Should handle a product ingested event", func(t *testing.T) {
		payload, err := json.Marshal(ProductIngestedEvent{ProductID: "p-1", Sku: "TS-001", Brand: "CoolThreads", Price: 799})
		require.NoError(t, err)

		require.NoError(t, handler(context.Background(), TopicProductIngested, payload))
		assert.Contains(t, buf.String(), `"sku":"TS-001"`)
	})

	t.Run("Should fail on malformed payload", func(t *testing.T) {
		assert.Error(t, handler(context.Background(), TopicProductIngested, []byte("{")))
	})

	cleanup()
	assert.True(t, consumer.stopped)
}
