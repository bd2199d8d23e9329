package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/contentsearch/internal/cmd/base"
	"github.com/hashicorp-forge/contentsearch/internal/cmd/commands/build"
	"github.com/hashicorp-forge/contentsearch/internal/cmd/commands/consume"
	"github.com/hashicorp-forge/contentsearch/internal/cmd/commands/remove"
	"github.com/hashicorp-forge/contentsearch/internal/cmd/commands/index"
	"github.com/hashicorp-forge/contentsearch/internal/cmd/commands/version"
)

// Commands returns the command factories.
func Commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	b := base.NewCommand(log, ui)

	return map[string]cli.CommandFactory{
		"build": func() (cli.Command, error) {
			return &build.Command{Command: b}, nil
		},
		"consume": func() (cli.Command, error) {
			return &consume.Command{Command: b}, nil
		},
		"delete": func() (cli.Command, error) {
			return &remove.Command{Command: b}, nil
		},
		"index": func() (cli.Command, error) {
			return &index.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
