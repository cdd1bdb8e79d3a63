package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"shaderls/internal/driver"
	"shaderls/internal/source"
)

var linksCmd = &cobra.Command{
	Use:          "links <file>",
	Short:        "List the include directives of a file and where they resolve",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runLinks,
}

func runLinks(cmd *cobra.Command, args []string) error {
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
	if !d.Tracked(path) {
		return fmt.Errorf("%s: %w", path, driver.ErrNotTracked)
	}
	file, err := source.NewFileSet().Load(path)
	if err != nil {
		return err
	}
	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	color.NoColor = !colored

	out := cmd.OutOrStdout()
	for _, l := range d.Links(path) {
		renderLink(out, root, file.Line(l.Line), l)
	}
	return nil
}

var (
	missingColor = color.New(color.FgRed)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

func renderLink(out io.Writer, root, line string, l driver.Link) {
	target := relPath(root, l.Target)
	if !l.Exists {
		target = missingColor.Sprint(target + " (missing)")
	}
	fmt.Fprintf(out, "%d:%d-%d -> %s\n", l.Line+1, l.ColStart, l.ColEnd, target)
	fmt.Fprintf(out, "    %s\n", line)
	fmt.Fprintf(out, "    %s\n", caretColor.Sprint(underline(line, l.ColStart, l.ColEnd)))
}

// underline returns padding up to rune column start followed by carets up
// to end, measured in display cells. Tabs are kept so the padding lines up.
func underline(line string, start, end int) string {
	var b strings.Builder
	col := 0
	for _, r := range line {
		if col >= end {
			break
		}
		w := runewidth.RuneWidth(r)
		switch {
		case col < start && r == '\t':
			b.WriteByte('\t')
		case col < start:
			b.WriteString(strings.Repeat(" ", w))
		default:
			b.WriteString(strings.Repeat("^", max(w, 1)))
		}
		col++
	}
	if n := utf8.RuneCountInString(line); end > n {
		b.WriteString(strings.Repeat("^", end-max(n, start)))
	}
	return b.String()
}
