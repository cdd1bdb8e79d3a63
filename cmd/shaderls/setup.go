package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shaderls/internal/config"
	"shaderls/internal/driver"
	"shaderls/internal/observ"
	"shaderls/internal/prof"
	"shaderls/internal/project"
	"shaderls/internal/source"
	"shaderls/internal/validator"
	"shaderls/internal/version"
)

// session is the process-wide state every subcommand starts from.
type session struct {
	cfg      *config.Config
	log      *slog.Logger
	level    *slog.LevelVar
	tp       *observ.TracerProvider
	profiles *prof.Session
}

// newSession reads the configuration, then sets up logging, tracing and the
// runtime profilers.
// Close must be called when the command ends.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level := new(slog.LevelVar)
	if l, err := config.ParseLevel(cfg.Log.Level); err == nil {
		level.Set(l)
	}
	log := observ.NewLogger(os.Stderr, cfg.Log.Format, level)

	tp, err := observ.InitTracing(cmd.Context(), observ.TracingConfig{
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	profiles, err := setupProfiling(cmd)
	if err != nil {
		_ = tp.Shutdown(cmd.Context())
		return nil, err
	}
	return &session{cfg: cfg, log: log, level: level, tp: tp, profiles: profiles}, nil
}

func (s *session) Close() {
	if err := s.profiles.Stop(); err != nil {
		s.log.Warn("failed to write profiles", "err", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tp.Shutdown(ctx); err != nil {
		s.log.Warn("failed to flush traces", "err", err)
	}
}

// setupProfiling starts the profilers named by the persistent profiling
// flags.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	cpuProfile, err := flags.GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := flags.GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := flags.GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return prof.Start(prof.Options{CPU: cpuProfile, Mem: memProfile, Trace: tracePath})
}

// openDriver builds a driver for root with the configured validator and the
// workspace manifest. A non-nil extra overrides the manifest's extensions.
func (s *session) openDriver(ctx context.Context, root string, timer *observ.Timer, extra []string) (*driver.Driver, error) {
	v, err := validator.NewCommand(s.cfg.Validator.Command, s.cfg.Validator.Vendor, s.cfg.Validator.Timeout)
	if err != nil {
		return nil, err
	}
	manifest, err := project.LoadWorkspaceManifest(root)
	if err != nil {
		return nil, err
	}
	return driver.New(ctx, driver.Options{
		Root:            root,
		Validator:       v,
		Manifest:        manifest,
		ExtraExtensions: extra,
		Log:             s.log,
		Timer:           timer,
	})
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	overrides := make(map[string]any)
	for _, f := range []struct{ flag, key string }{
		{"log-level", "log.level"},
		{"log-format", "log.format"},
		{"vendor", "validator.vendor"},
	} {
		value, err := flags.GetString(f.flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", f.flag, err)
		}
		if value != "" {
			overrides[f.key] = value
		}
	}
	command, err := flags.GetString("validator")
	if err != nil {
		return nil, fmt.Errorf("failed to get validator flag: %w", err)
	}
	if command != "" {
		overrides["validator.command"] = strings.Fields(command)
	}
	return config.Load(path, overrides)
}

// resolveRoot maps a path argument to the workspace root: the nearest
// directory holding shaderls.toml, or the directory itself.
func resolveRoot(arg string) (string, error) {
	if arg == "" {
		arg = "."
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", arg, err)
	}
	dir := arg
	if !info.IsDir() {
		dir = filepath.Dir(source.CanonicalPath(arg))
	}
	root, err := project.FindProjectRoot(dir)
	if err != nil {
		return "", err
	}
	return source.CanonicalPath(root), nil
}

func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(f)), nil
}
