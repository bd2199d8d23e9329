package remove

import (
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/contentsearch/internal/cmd/base"
	"github.com/hashicorp-forge/contentsearch/internal/indexer"
	"github.com/hashicorp-forge/contentsearch/pkg/session"
	"github.com/hashicorp-forge/contentsearch/pkg/source"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagIndex   string
	flagRecords bool

	// Fs defaults to the OS filesystem.
	Fs afero.Fs
}

func (c *Command) Synopsis() string {
	return "Delete documents from a search index"
}

func (c *Command) Help() string {
	return `Usage: contentsearch delete -config=config.hcl -index=<name> <objectID>...
       contentsearch delete -config=config.hcl -index=<name> -records <path>...

  Delete documents by objectID, or delete the documents of the records in
  the given files, including their indexed variants.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("delete", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsearch config file",
	)
	f.StringVar(
		&c.flagIndex, "index", "", "(Required) Name of the index to delete from",
	)
	f.BoolVar(
		&c.flagRecords, "records", false,
		"Treat arguments as record files or directories instead of objectIDs.",
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
	if flags.NArg() == 0 {
		c.UI.Error("at least one objectID or record path is required")
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	var events []session.Event
	if c.flagRecords {
		fs := c.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		loader := source.NewLoader(fs)
		for _, path := range flags.Args() {
			recs, err := loader.Load(path)
			if err != nil {
				c.UI.Error(fmt.Sprintf("error loading records from %s: %v", path, err))
				return 1
			}
			for _, rec := range recs {
				events = append(events, session.Event{Type: session.EventDelete, Record: rec})
			}
		}
	} else {
		for _, id := range flags.Args() {
			events = append(events, session.Event{Type: session.EventDelete, ObjectID: id})
		}
	}

	ix, err := indexer.New(cfg, c.flagIndex, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing index: %v", err))
		return 1
	}
	defer ix.Close()

	ctx, cancel := c.SignalContext()
	defer cancel()

	result, err := ix.NewSession().Run(ctx, events)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error deleting documents: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Deleted: %d", result.Deleted))
	if result.RecordErrors != nil {
		c.UI.Error(fmt.Sprintf("Errors encountered: %v", result.RecordErrors))
		return 1
	}
	return 0
}
