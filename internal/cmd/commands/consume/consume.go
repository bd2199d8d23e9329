package consume

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/contentsearch/internal/cmd/base"
	"github.com/hashicorp-forge/contentsearch/internal/indexer"
	"github.com/hashicorp-forge/contentsearch/pkg/events"
)

type Command struct {
	*base.Command

	flagConfig    string
	flagIndex     string
	flagFromStart bool
}

func (c *Command) Synopsis() string {
	return "Index lifecycle events from Kafka or Redpanda"
}

func (c *Command) Help() string {
	return `Usage: contentsearch consume -config=config.hcl -index=<name>

  Consume add, update and delete events from the configured topic. Each poll
  is indexed as one batch and its offsets are committed once the batch has
  been sent.

  Brokers may be overridden with REDPANDA_BROKERS.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("consume", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsearch config file",
	)
	f.StringVar(
		&c.flagIndex, "index", "", "(Required) Name of the index to write to",
	)
	f.BoolVar(
		&c.flagFromStart, "from-start", false,
		"Read a new consumer group from the earliest offset.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagIndex == "" {
		c.UI.Error("index flag is required")
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	ix, err := indexer.New(cfg, c.flagIndex, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing index: %v", err))
		return 1
	}
	defer ix.Close()

	consumer, err := events.New(events.Config{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Kafka.Topic,
		ConsumerGroup:    cfg.Kafka.ConsumerGroup,
		ConsumeFromStart: c.flagFromStart || cfg.Kafka.ConsumeFromStart,
		Operations:       ix.Operations,
		Search:           ix.Search,
		SessionOptions:   ix.SessionOptions(),
		Logger:           c.Log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating consumer: %v", err))
		return 1
	}
	defer consumer.Stop()

	ctx, cancel := c.SignalContext()
	defer cancel()

	c.Log.Info("consuming events",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"index", c.flagIndex)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.UI.Error(fmt.Sprintf("consumer failed: %v", err))
		return 1
	}
	return 0
}
