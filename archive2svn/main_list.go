package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/utbest/toolbox/archives"
)

type cmdList struct {
	cmd    *cobra.Command
	global *cmdGlobal
}

func (c *cmdList) command() *cobra.Command {
	c.cmd = &cobra.Command{
		Use:          "list [filename|-]",
		Short:        "List archives in import order",
		Args:         cobra.MaximumNArgs(1),
		RunE:         c.run,
		SilenceUsage: true,
	}

	return c.cmd
}

func (c *cmdList) run(cmd *cobra.Command, args []string) error {
	def, err := getDefinition(definitionName(args), c.global.flagOptions)
	if err != nil {
		return fmt.Errorf("Failed to get definition: %w", err)
	}

	loc, err := def.Location()
	if err != nil {
		return err
	}

	list, err := archives.List(def.ArchiveDir, def.Patterns, loc)
	if err != nil {
		return fmt.Errorf("Failed to list archives: %w", err)
	}

	out, err := yaml.Marshal(list)
	if err != nil {
		return err
	}

	fmt.Print(string(out))

	return nil
}
