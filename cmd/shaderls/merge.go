package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shaderls/internal/source"
)

var mergeCmd = &cobra.Command{
	Use:          "merge <entry>",
	Short:        "Print the flattened translation unit of an entry",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runMerge,
}

func init() {
	mergeCmd.Flags().Bool("table", false, "print the file table to stderr")
}

func runMerge(cmd *cobra.Command, args []string) error {
	showTable, err := cmd.Flags().GetBool("table")
	if err != nil {
		return fmt.Errorf("failed to get table flag: %w", err)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	path := source.CanonicalPath(args[0])
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}
	d, err := s.openDriver(cmd.Context(), root, nil, nil)
	if err != nil {
		return err
	}
	text, table, err := d.Merge(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(cmd.OutOrStdout(), text); err != nil {
		return err
	}
	if showTable {
		errOut := cmd.ErrOrStderr()
		for id := range table.Len() {
			p, _ := table.Path(id)
			fmt.Fprintf(errOut, "%d\t%s\n", id, relPath(root, p))
		}
	}
	return nil
}
