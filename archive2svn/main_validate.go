package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type cmdValidate struct {
	cmdValidate *cobra.Command
	global      *cmdGlobal
}

func (c *cmdValidate) command() *cobra.Command {
	c.cmdValidate = &cobra.Command{
		Use:   "validate [filename|-]",
		Short: "Validate definition file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get the import definition
			_, err := getDefinition(definitionName(args), c.global.flagOptions)
			if err != nil {
				return fmt.Errorf("Failed to get definition: %w", err)
			}

			return nil
		},
		SilenceUsage: true,
	}

	return c.cmdValidate
}
