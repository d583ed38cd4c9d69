package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newValidateCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate plan files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			results := make([]error, len(args))

			// A plain group does not cancel on error, so every file is
			// validated; Wait reports whether any failed.
			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range args {
				g.Go(func() error {
					d, err := a.loadPlan(path)
					if err == nil {
						err = d.Validate()
					}
					results[i] = err
					return err
				})
			}
			waitErr := g.Wait()

			failed := 0
			for i, err := range results {
				if err != nil {
					failed++
					fmt.Fprintln(a.out, color.RedString("FAIL"), args[i]+":", err)
					continue
				}
				fmt.Fprintln(a.out, color.GreenString("OK  "), args[i])
			}
			if waitErr != nil {
				return fmt.Errorf("%d of %d plans are invalid", failed, len(args))
			}
			return nil
		},
	}
}
