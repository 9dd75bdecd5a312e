package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/utbest/toolbox/definitions"
	"github.com/utbest/toolbox/ldif"
	"github.com/utbest/toolbox/shared"
)

type cmdGlobal struct {
	flagDebug   bool
	flagOptions []string
	flagPasswd  string
	flagGroup   string
	flagOutput  string

	logger *logrus.Logger
}

func main() {
	globalCmd := cmdGlobal{}

	app := &cobra.Command{
		Use:   "passwd2ldif [filename|-]",
		Short: "Convert passwd and group files to LDIF",
		Long: `Convert passwd and group files to LDIF

Users and groups are filtered by name and id range, group members are
resolved against the exported users. Without a definition file the
built-in definition is used.
`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: globalCmd.preRun,
		RunE:              globalCmd.run,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	app.Flags().BoolVar(&globalCmd.flagDebug, "debug", false, "Enable debug output")
	app.Flags().StringSliceVarP(&globalCmd.flagOptions, "options", "o",
		[]string{}, "Override options (list of key=value)"+"``")
	app.Flags().StringVar(&globalCmd.flagPasswd, "passwd", "", "Path to the passwd file"+"``")
	app.Flags().StringVar(&globalCmd.flagGroup, "group", "", "Path to the group file"+"``")
	app.Flags().StringVar(&globalCmd.flagOutput, "output", "", "Path to the LDIF file"+"``")

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func (c *cmdGlobal) preRun(cmd *cobra.Command, args []string) error {
	var err error

	c.logger, err = shared.GetLogger(c.flagDebug)
	if err != nil {
		return fmt.Errorf("Failed to get logger: %w", err)
	}

	return nil
}

func (c *cmdGlobal) run(cmd *cobra.Command, args []string) error {
	fname := ""
	if len(args) > 0 {
		fname = args[0]
	}

	options := append([]string{}, c.flagOptions...)

	if c.flagPasswd != "" {
		options = append(options, "users.file="+c.flagPasswd)
	}

	if c.flagGroup != "" {
		options = append(options, "groups.file="+c.flagGroup)
	}

	if c.flagOutput != "" {
		options = append(options, "output="+c.flagOutput)
	}

	def, err := getDefinition(fname, options)
	if err != nil {
		return fmt.Errorf("Failed to get definition: %w", err)
	}

	return ldif.Export(*def, c.logger)
}

func getDefinition(fname string, options []string) (*shared.DirectoryDefinition, error) {
	var (
		data []byte
		err  error
	)

	// Use the built-in definition if none was given, read from stdin for "-"
	switch fname {
	case "":
		data = definitions.Passwd2ldif
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(fname)
	}

	if err != nil {
		return nil, err
	}

	// Parse the yaml input
	var def shared.DirectoryDefinition

	err = yaml.UnmarshalStrict(data, &def)
	if err != nil {
		return nil, err
	}

	overrides, err := shared.ParseOptions(options)
	if err != nil {
		return nil, err
	}

	// Set options from the command line
	for key, value := range overrides {
		err := def.SetValue(key, value)
		if err != nil {
			return nil, fmt.Errorf("Failed to set option %s: %w", key, err)
		}
	}

	// Apply some defaults on top of the provided configuration
	def.SetDefaults()

	// Validate the result
	err = def.Validate()
	if err != nil {
		return nil, err
	}

	return &def, nil
}
