package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newSaveCommand(get func() *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "save FILE",
		Short: "Validate a plan and store it in the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a := get()
			d, err := a.loadPlan(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = planName(args[0])
			}

			catalog, closeStore, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, closeStore()) }()

			rev, err := catalog.Save(cmd.Context(), name, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "saved %s revision %s\n", rev.Name, rev.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Plan name (default: file name without extension)")
	return cmd
}

func newListCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the plans in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a := get()
			catalog, closeStore, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, closeStore()) }()

			revs, err := catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, rev := range revs {
				fmt.Fprintf(a.out, "%s\t%s\t%s\n", rev.Name, rev.ID, rev.SavedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func planName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
