package events

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/hashicorp-forge/contentsearch/pkg/operations"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
	"github.com/hashicorp-forge/contentsearch/pkg/session"
	"github.com/hashicorp-forge/contentsearch/pkg/updatecontext"
)

// DefaultConsumerGroup is used when Config.ConsumerGroup is empty.
const DefaultConsumerGroup = "contentsearch"

// kafkaClient is the part of *kgo.Client the consumer uses.
type kafkaClient interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	Close()
}

// Consumer indexes lifecycle events read from a topic.
type Consumer struct {
	client     kafkaClient
	ops        *operations.Operations
	search     search.Client
	sessionOpt []session.Option
	logger     hclog.Logger
	stopCh     chan struct{}

	// A batch whose commit failed is retried with the next poll. Its
	// offsets are committed only once it is sent.
	pending        *updatecontext.Batched
	pendingRecords []*kgo.Record
}

// Config holds configuration for the consumer.
type Config struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string

	// ConsumeFromStart reads a new group from the earliest offset instead of
	// the latest.
	ConsumeFromStart bool

	Operations     *operations.Operations
	Search         search.Client
	SessionOptions []session.Option

	Logger hclog.Logger
}

// New creates a Consumer connected to the configured brokers.
func New(cfg Config) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = DefaultConsumerGroup
	}

	offset := kgo.NewOffset().AtEnd()
	if cfg.ConsumeFromStart {
		offset = kgo.NewOffset().AtStart()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(offset),
		kgo.SessionTimeout(10*time.Second),
		kgo.RebalanceTimeout(30*time.Second),
		kgo.DisableAutoCommit(),
		kgo.FetchMaxWait(500*time.Millisecond),
		kgo.FetchMaxBytes(5<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return newConsumer(client, cfg)
}

func newConsumer(client kafkaClient, cfg Config) (*Consumer, error) {
	if cfg.Operations == nil {
		return nil, fmt.Errorf("operations are required")
	}
	if cfg.Search == nil {
		return nil, fmt.Errorf("search client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &Consumer{
		client:     client,
		ops:        cfg.Operations,
		search:     cfg.Search,
		sessionOpt: cfg.SessionOptions,
		logger:     cfg.Logger.Named("consumer"),
		stopCh:     make(chan struct{}),
	}, nil
}

// Start polls until ctx is done or Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting event consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("event consumer stopped by context")
			return ctx.Err()

		case <-c.stopCh:
			c.logger.Info("event consumer stopped")
			return nil

		default:
			fetches := c.client.PollFetches(ctx)
			if fetches.IsClientClosed() {
				return nil
			}
			fetches.EachError(func(topic string, partition int32, err error) {
				if ctx.Err() == nil {
					c.logger.Error("kafka fetch error",
						"topic", topic,
						"partition", partition,
						"error", err)
				}
			})

			if err := c.process(ctx, fetches.Records()); err != nil {
				c.logger.Error("failed to index poll", "error", err)
			}
		}
	}
}

// Stop stops the polling loop and closes the client.
func (c *Consumer) Stop() {
	select {
	case <-c.stopCh:
		return
	default:
		close(c.stopCh)
		c.client.Close()
	}
}

// process runs one session for records and commits their offsets once the
// batch is sent. Undecodable records are skipped.
func (c *Consumer) process(ctx context.Context, records []*kgo.Record) error {
	if len(records) == 0 && c.pending == nil {
		return nil
	}

	var evs []session.Event
	for _, r := range records {
		ev, err := Decode(r.Value)
		if err != nil {
			c.logger.Warn("skipping undecodable event",
				"partition", r.Partition,
				"offset", r.Offset,
				"error", err)
			continue
		}
		evs = append(evs, ev)
	}

	uc := c.pending
	if uc == nil {
		uc = updatecontext.NewBatched(c.search, c.logger)
	}
	all := append(c.pendingRecords, records...)

	result, err := session.New(c.ops, uc, c.sessionOpt...).Run(ctx, evs)
	if err != nil {
		c.pending = uc
		c.pendingRecords = all
		return fmt.Errorf("failed to index %d events: %w", len(evs), err)
	}
	c.pending = nil
	c.pendingRecords = nil

	if result.RecordErrors != nil {
		c.logger.Warn("some events were not indexed", "error", result.RecordErrors)
	}

	if len(all) == 0 {
		return nil
	}
	if err := c.client.CommitRecords(ctx, all...); err != nil {
		c.logger.Warn("failed to commit kafka offsets", "records", len(all), "error", err)
	}

	c.logger.Debug("indexed poll",
		"events", len(evs),
		"added", result.Added,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"committed", result.Committed)
	return nil
}
