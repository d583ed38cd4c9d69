package main

import (
	"os"

	"github.com/birdayz/kplan/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var a *app

	cmd := &cobra.Command{
		Use:           "kplan",
		Short:         "Author, validate and hand off logical plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, exists := os.LookupEnv("NO_COLOR"); exists {
				color.NoColor = true
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err = newApp(cfg, cmd.OutOrStdout())
			return err
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	get := func() *app { return a }
	cmd.AddCommand(
		newValidateCommand(get),
		newDescribeCommand(get),
		newSaveCommand(get),
		newListCommand(get),
		newSubmitCommand(get),
	)
	return cmd
}
