package index

import (
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/contentsearch/internal/cmd/base"
	"github.com/hashicorp-forge/contentsearch/internal/indexer"
	"github.com/hashicorp-forge/contentsearch/pkg/record"
	"github.com/hashicorp-forge/contentsearch/pkg/session"
	"github.com/hashicorp-forge/contentsearch/pkg/source"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagIndex   string
	flagWorkers int
	flagUpdate  bool

	// Fs defaults to the OS filesystem.
	Fs afero.Fs
}

func (c *Command) Synopsis() string {
	return "Index records from files into a search index"
}

func (c *Command) Help() string {
	return `Usage: contentsearch index -config=config.hcl -index=<name> <path>...

  Load records from the given files or directories, build their documents
  and send them to the configured search backend in one session. In batched
  mode everything is committed at the end.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("index", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsearch config file",
	)
	f.StringVar(
		&c.flagIndex, "index", "", "(Required) Name of the index to write to",
	)
	f.IntVar(
		&c.flagWorkers, "workers", 4, "Number of records built concurrently",
	)
	f.BoolVar(
		&c.flagUpdate, "update", false,
		"Send records as updates instead of adds, deleting hidden records.",
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
	if c.flagWorkers < 1 {
		c.UI.Error("workers must be at least 1")
		return 1
	}
	paths := flags.Args()
	if len(paths) == 0 {
		c.UI.Error("at least one record path is required")
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	loader := source.NewLoader(fs)

	var records []*record.Record
	for _, path := range paths {
		recs, err := loader.Load(path)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading records from %s: %v", path, err))
			return 1
		}
		records = append(records, recs...)
	}

	ix, err := indexer.New(cfg, c.flagIndex, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing index: %v", err))
		return 1
	}
	defer ix.Close()

	eventType := session.EventAdd
	if c.flagUpdate {
		eventType = session.EventUpdate
	}
	events := make([]session.Event, len(records))
	for i, rec := range records {
		events[i] = session.Event{Type: eventType, Record: rec}
	}

	ctx, cancel := c.SignalContext()
	defer cancel()

	result, err := ix.NewSession(session.WithWorkers(c.flagWorkers)).Run(ctx, events)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error indexing records: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Records: %d", len(records)))
	c.UI.Info(fmt.Sprintf("Added: %d, updated: %d, deleted: %d, skipped: %d",
		result.Added, result.Updated, result.Deleted, result.Skipped))
	c.UI.Info(fmt.Sprintf("Committed: %d", result.Committed))

	if result.RecordErrors != nil {
		c.UI.Error(fmt.Sprintf("Errors encountered: %v", result.RecordErrors))
		return 1
	}
	return 0
}
