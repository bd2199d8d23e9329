package build

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/contentsearch/internal/cmd/base"
	"github.com/hashicorp-forge/contentsearch/internal/indexer"
	"github.com/hashicorp-forge/contentsearch/pkg/source"
)

type Command struct {
	*base.Command

	flagConfig string
	flagIndex  string

	// Fs defaults to the OS filesystem.
	Fs afero.Fs
}

func (c *Command) Synopsis() string {
	return "Print the documents built for records without indexing them"
}

func (c *Command) Help() string {
	return `Usage: contentsearch build -config=config.hcl -index=<name> <path>...

  Load records from the given files or directories and print the documents
  the index would receive, one JSON object per line. No search backend is
  contacted.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("build", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsearch config file",
	)
	f.StringVar(
		&c.flagIndex, "index", "", "(Required) Name of the index definition to build for",
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

	ix, err := indexer.New(cfg, c.flagIndex, c.Log, indexer.Offline())
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing index: %v", err))
		return 1
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	loader := source.NewLoader(fs)

	ctx := context.Background()
	failed := 0
	for _, path := range paths {
		records, err := loader.Load(path)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading records from %s: %v", path, err))
			return 1
		}
		for _, rec := range records {
			docs, err := ix.Builder.Build(ctx, rec)
			if err != nil {
				c.UI.Warn(fmt.Sprintf("skipping %s: %v", rec.Path, err))
				failed++
				continue
			}
			for _, doc := range docs {
				out, err := doc.MarshalJSON()
				if err != nil {
					c.UI.Error(fmt.Sprintf("error encoding %s: %v", doc.ObjectID(), err))
					return 1
				}
				c.UI.Output(string(out))
			}
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
