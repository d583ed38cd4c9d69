package main

import (
	"fmt"

	"github.com/birdayz/kplan/ksubmit"
	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

func newSubmitCommand(get func() *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Validate a plan and hand it to the scheduler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.loadPlan(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = planName(args[0])
			}

			kc := a.cfg.Kafka
			kcl, err := kgo.NewClient(kgo.SeedBrokers(kc.Brokers...))
			if err != nil {
				return err
			}
			defer kcl.Close()

			if err := ksubmit.EnsureTopic(cmd.Context(), kadm.NewClient(kcl), kc.Topic, kc.Partitions, kc.ReplicationFactor); err != nil {
				return err
			}

			id, err := ksubmit.NewSubmitter(kcl, kc.Topic, a.codec, ksubmit.WithLog(a.log)).Submit(cmd.Context(), name, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "submitted %s as %s\n", name, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Plan name (default: file name without extension)")
	return cmd
}
