package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:          "graph [root]",
	Short:        "Export the include graph",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runGraph,
}

func init() {
	graphCmd.Flags().String("format", "dot", "output format (dot|msgpack)")
	graphCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}

func runGraph(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if format != "dot" && format != "msgpack" {
		return fmt.Errorf("unknown format: %s", format)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	root, err := resolveRoot(arg)
	if err != nil {
		return err
	}
	d, err := s.openDriver(cmd.Context(), root, nil, nil)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}
	if format == "msgpack" {
		return d.Graph().WriteMsgpack(out, d.Root())
	}
	_, err = io.WriteString(out, d.Dot())
	return err
}
