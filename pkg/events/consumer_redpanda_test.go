package events

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/hashicorp-forge/contentsearch/pkg/builder"
	"github.com/hashicorp-forge/contentsearch/pkg/indexconfig"
	"github.com/hashicorp-forge/contentsearch/pkg/operations"
	"github.com/hashicorp-forge/contentsearch/pkg/search/adapters/bleve"
)

// createTopic creates a single-partition topic.
func createTopic(t *testing.T, ctx context.Context, brokers, topic string) {
	t.Helper()
	admin, err := kgo.NewClient(kgo.SeedBrokers(brokers))
	require.NoError(t, err)
	defer admin.Close()

	req := kmsg.NewCreateTopicsRequest()
	req.Topics = []kmsg.CreateTopicsRequestTopic{{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}}
	_, err = admin.Request(ctx, &req)
	require.NoError(t, err)
}

func produce(t *testing.T, ctx context.Context, brokers string, records ...*kgo.Record) {
	t.Helper()
	producer, err := kgo.NewClient(kgo.SeedBrokers(brokers))
	require.NoError(t, err)
	defer producer.Close()

	require.NoError(t, producer.ProduceSync(ctx, records...).FirstErr())
}

func TestConsumer_Redpanda(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	logger := hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Debug})

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.4")
	require.NoError(t, err)
	defer func() {
		_ = container.Terminate(ctx)
	}()

	brokers, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err)

	topic := "test.contentsearch-events"
	createTopic(t, ctx, brokers, topic)

	index, err := bleve.NewAdapter(&bleve.Config{IndexName: "events", Logger: logger})
	require.NoError(t, err)
	defer index.Close()

	b, err := builder.New(indexconfig.DefaultDocumentOptions(), nil)
	require.NoError(t, err)

	c, err := New(Config{
		Brokers:          []string{brokers},
		Topic:            topic,
		ConsumerGroup:    "contentsearch-test",
		ConsumeFromStart: true,
		Operations:       operations.New(b),
		Search:           index,
		Logger:           logger,
	})
	require.NoError(t, err)

	runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- c.Start(runCtx)
	}()

	rec := addEvent(t, 0)
	rec.Topic = topic
	produce(t, ctx, brokers, rec)

	objectID := "en_" + eventRecordID.String()
	assert.Eventually(t, func() bool {
		ok, err := index.Has(objectID)
		return err == nil && ok
	}, 30*time.Second, 250*time.Millisecond)

	c.Stop()
	cancel()
	<-done
}
