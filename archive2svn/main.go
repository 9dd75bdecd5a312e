package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/utbest/toolbox/definitions"
	"github.com/utbest/toolbox/shared"
)

type cmdGlobal struct {
	flagDebug   bool
	flagOptions []string
	flagTimeout uint

	interrupt chan os.Signal
	logger    *logrus.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func main() {
	// Global flags
	globalCmd := cmdGlobal{}

	app := &cobra.Command{
		Use:   "archive2svn",
		Short: "Import series of release archives into a Subversion repository",
		Long: `Import series of release archives into a Subversion repository

Every archive becomes one revision whose date is set to the date of the
archive. The repository needs a pre-revprop-change hook which allows
changing svn:date.

Without a definition file the built-in definition is used.
`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error

			globalCmd.logger, err = shared.GetLogger(globalCmd.flagDebug)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to get logger: %s\n", err)
				os.Exit(1)
			}

			if globalCmd.flagTimeout == 0 {
				globalCmd.ctx, globalCmd.cancel = context.WithCancel(context.Background())
			} else {
				globalCmd.ctx, globalCmd.cancel = context.WithTimeout(context.Background(), time.Duration(globalCmd.flagTimeout)*time.Second)
			}

			go func() {
				for {
					select {
					case <-globalCmd.interrupt:
						globalCmd.cancel()
						globalCmd.logger.Info("Interrupted")
						return
					case <-globalCmd.ctx.Done():
						if globalCmd.flagTimeout > 0 {
							globalCmd.logger.Info("Timed out")
						}
						return
					}
				}
			}()
		},
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	app.PersistentFlags().BoolVar(&globalCmd.flagDebug, "debug", false, "Enable debug output")
	app.PersistentFlags().StringSliceVarP(&globalCmd.flagOptions, "options", "o",
		[]string{}, "Override options (list of key=value)"+"``")
	app.PersistentFlags().UintVarP(&globalCmd.flagTimeout, "timeout", "t", 0,
		"Timeout in seconds"+"``")

	importCmd := cmdImport{global: &globalCmd}
	app.AddCommand(importCmd.command())

	listCmd := cmdList{global: &globalCmd}
	app.AddCommand(listCmd.command())

	validateCmd := cmdValidate{global: &globalCmd}
	app.AddCommand(validateCmd.command())

	globalCmd.interrupt = make(chan os.Signal, 1)
	signal.Notify(globalCmd.interrupt, os.Interrupt)

	// Run the main command and handle errors
	err := app.Execute()
	if globalCmd.cancel != nil {
		globalCmd.cancel()
	}

	if err != nil {
		os.Exit(1)
	}
}

// definitionName returns the definition file argument, if any.
func definitionName(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}

func getDefinition(fname string, options []string) (*shared.Definition, error) {
	var (
		data []byte
		err  error
	)

	// Use the built-in definition if none was given, read from stdin for "-"
	switch fname {
	case "":
		data = definitions.Archive2svn
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(fname)
	}

	if err != nil {
		return nil, err
	}

	// Parse the yaml input
	var def shared.Definition

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
