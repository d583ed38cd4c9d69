package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/kdag"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDescribeCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "Print the operators, ports and streams of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.loadPlan(args[0])
			if err != nil {
				return err
			}
			return describe(a.out, d)
		},
	}
}

func describe(w io.Writer, d *kdag.DAG) error {
	heading := color.New(color.Bold).SprintFunc()

	fmt.Fprintln(w, heading("Settings"))
	printAttrs(w, "  ", d.Attributes())

	fmt.Fprintln(w, heading("Operators"))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range d.Operators() {
		fmt.Fprintf(tw, "  %s\t%s\n", o.ID(), o.ClassName())
		inputs, err := o.InputPorts()
		if err != nil {
			return err
		}
		for _, in := range inputs {
			fmt.Fprintf(tw, "    in  %s\t%s\t%s\n", in.Name(), in.Port().PayloadType(), portState(in.Optional(), in.Stream()))
		}
		outputs, err := o.OutputPorts()
		if err != nil {
			return err
		}
		for _, out := range outputs {
			fmt.Fprintf(tw, "    out %s\t%s\t%s\n", out.Name(), out.Port().PayloadType(), portState(out.Optional(), out.Stream()))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, heading("Streams"))
	for _, s := range d.Streams() {
		source := "-"
		if s.Source() != nil {
			source = s.Source().String()
		}
		sinks := make([]string, 0, len(s.Sinks()))
		for _, sink := range s.Sinks() {
			sinks = append(sinks, sink.String())
		}
		line := fmt.Sprintf("  %s: %s -> [%s]", s.ID(), source, strings.Join(sinks, ", "))
		if s.Codec() != "" {
			line += " codec=" + s.Codec()
		}
		if s.Inline() {
			line += " inline"
		}
		fmt.Fprintln(w, line)
	}

	roots := make([]string, 0)
	for _, o := range d.RootOperators() {
		roots = append(roots, o.ID())
	}
	fmt.Fprintln(w, heading("Roots"), strings.Join(roots, ", "))
	return nil
}

func portState(optional bool, s *kdag.StreamMeta) string {
	state := "required"
	if optional {
		state = "optional"
	}
	if s != nil {
		return state + ", stream " + s.ID()
	}
	return state
}

func printAttrs(w io.Writer, indent string, m *kattr.Map) {
	for _, k := range m.Keys() {
		fmt.Fprintf(w, "%s%s = %v\n", indent, k.Name(), m.ValueOrDefault(k))
	}
}
