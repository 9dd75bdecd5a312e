package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utbest/toolbox/archives"
	"github.com/utbest/toolbox/importer"
	"github.com/utbest/toolbox/shared"
	"github.com/utbest/toolbox/vcs"
)

type cmdImport struct {
	cmd    *cobra.Command
	global *cmdGlobal
}

func (c *cmdImport) command() *cobra.Command {
	c.cmd = &cobra.Command{
		Use:          "import [filename|-]",
		Short:        "Import archives into the repository",
		Args:         cobra.MaximumNArgs(1),
		RunE:         c.run,
		SilenceUsage: true,
	}

	return c.cmd
}

func (c *cmdImport) run(cmd *cobra.Command, args []string) error {
	def, err := getDefinition(definitionName(args), c.global.flagOptions)
	if err != nil {
		return fmt.Errorf("Failed to get definition: %w", err)
	}

	loc, err := def.Location()
	if err != nil {
		return err
	}

	// Build the list first so a bad pattern fails before anything is checked out.
	list, err := archives.List(def.ArchiveDir, def.Patterns, loc)
	if err != nil {
		return fmt.Errorf("Failed to list archives: %w", err)
	}

	c.global.logger.WithField("archives", len(list)).Info("Found archives")

	// svn output is parsed, so it must not be localized.
	shared.SetEnvVariables(shared.Environment{"LC_ALL": {Value: "C", Set: true}})

	client, err := vcs.Load(c.global.ctx, def.Client, c.global.logger)
	if err != nil {
		return fmt.Errorf("Failed to load client %q: %w", def.Client, err)
	}

	imp := importer.New(c.global.logger, client, *def)

	err = imp.Checkout()
	if err != nil {
		return err
	}

	_, err = imp.Run(list)
	if err != nil {
		return err
	}

	return nil
}
