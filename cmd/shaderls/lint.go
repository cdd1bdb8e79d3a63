package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shaderls/internal/diag"
	"shaderls/internal/driver"
	"shaderls/internal/observ"
	"shaderls/internal/source"
)

var errLintFailed = errors.New("validation reported errors")

var lintCmd = &cobra.Command{
	Use:          "lint [path...]",
	Short:        "Validate entry programs and print diagnostics against the original files",
	SilenceUsage: true,
	RunE:         runLint,
}

func init() {
	lintCmd.Flags().String("root", "", "workspace root (default: derived from the first path or the working directory)")
	lintCmd.Flags().Int("jobs", 0, "max parallel validator processes (0=GOMAXPROCS)")
	lintCmd.Flags().Bool("timings", false, "print phase timings to stderr")
	lintCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	lintCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runLint(cmd *cobra.Command, args []string) error {
	rootFlag, err := cmd.Flags().GetString("root")
	if err != nil {
		return fmt.Errorf("failed to get root flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rootArg := rootFlag
	if rootArg == "" && len(args) > 0 {
		rootArg = args[0]
	}
	root, err := resolveRoot(rootArg)
	if err != nil {
		return err
	}
	timer := observ.NewTimer()
	d, err := s.openDriver(cmd.Context(), root, timer, nil)
	if err != nil {
		return err
	}

	var (
		results []driver.LintResult
		lintErr error
	)
	switch {
	case len(args) == 0 && shouldUseTUI(mode, format):
		results, lintErr = runLintWithUI(cmd.Context(), d, root, d.Entries(), jobs)
	case len(args) == 0:
		results, lintErr = d.LintEntries(cmd.Context(), d.Entries(), jobs)
	default:
		var errs []error
		for _, arg := range args {
			res, err := d.LintPath(cmd.Context(), source.CanonicalPath(arg))
			if err != nil {
				errs = append(errs, err)
			}
			results = append(results, res...)
		}
		lintErr = errors.Join(errs...)
	}
	report := driver.Combine(results)

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := renderReportJSON(out, report, root); err != nil {
			return err
		}
	} else {
		colored, err := useColor(cmd, os.Stdout)
		if err != nil {
			return err
		}
		color.NoColor = !colored
		renderReportPretty(out, report, root)
	}
	if timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if lintErr != nil {
		return lintErr
	}
	if report.HasErrors() {
		return errLintFailed
	}
	return nil
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	pathColor    = color.New(color.Bold)
)

func renderReportPretty(out io.Writer, report diag.Report, root string) {
	for _, path := range report.Paths() {
		for _, d := range report[path].Items() {
			sev := errorColor.Sprint("error")
			if d.Severity == diag.SevWarning {
				sev = warningColor.Sprint("warning")
			}
			loc := pathColor.Sprintf("%s:%d", relPath(root, path), d.Line+1)
			if d.Code != "" {
				fmt.Fprintf(out, "%s: %s %s: %s\n", loc, sev, d.Code, d.Message)
			} else {
				fmt.Fprintf(out, "%s: %s: %s\n", loc, sev, d.Message)
			}
		}
	}
	fmt.Fprintf(out, "%d files checked, %d diagnostics\n", len(report), report.Count())
}

type jsonDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

func renderReportJSON(out io.Writer, report diag.Report, root string) error {
	items := make([]jsonDiagnostic, 0, report.Count())
	for _, path := range report.Paths() {
		for _, d := range report[path].Items() {
			items = append(items, jsonDiagnostic{
				File:     relPath(root, path),
				Line:     d.Line + 1,
				Severity: strings.ToLower(d.Severity.String()),
				Code:     d.Code,
				Message:  d.Message,
			})
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
