package lsp

import (
	"encoding/json"

	"shaderls/internal/config"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	return s.applySettings(params.Settings)
}

// applySettings updates the log level and rebuilds the graph with the new
// extension set, the same as a fresh initialize.
func (s *Server) applySettings(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.log.Warn("invalid configuration", "err", err)
		return nil
	}
	cfg := settings.MCGLSL
	if cfg == nil {
		return nil
	}
	s.log.Info("got updated configuration", "logLevel", cfg.LogLevel, "extraExtension", cfg.ExtraExtension)
	if cfg.LogLevel != "" && s.opts.Level != nil {
		level, err := config.ParseLevel(cfg.LogLevel)
		if err != nil {
			s.log.Warn("ignoring log level", "level", cfg.LogLevel, "err", err)
		} else {
			s.opts.Level.Set(level)
		}
	}

	s.extra = cfg.ExtraExtension
	s.log.Info("rebuilding dependency graph with changed configuration")
	if err := s.sendStatus("loading", "Rebuilding dependency graph...", iconLoading); err != nil {
		return err
	}
	if err := s.driver.SetExtraExtensions(s.baseCtx, s.extra); err != nil {
		s.log.Error("failed to rebuild dependency graph", "err", err)
		if err := s.sendStatus("failed", "Failed to rebuild dependency graph", iconError); err != nil {
			return err
		}
		return s.showError("Failed to rebuild dependency graph: " + err.Error())
	}
	s.startWatching()
	return s.sendStatus("ready", "Project reinitialized", iconReady)
}
