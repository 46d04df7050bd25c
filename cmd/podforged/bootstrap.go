package main

import (
	"log/slog"

	"podforge/internal/config"
	"podforge/internal/speech"
)

// newSynthesizer picks the speech engine the config names. Validation has
// already constrained the engine value, so anything unexpected falls back to
// the command engine defaults.
func newSynthesizer(cfg *config.Config, logger *slog.Logger) speech.Synthesizer {
	if cfg.Speech.Engine == "http" {
		return speech.NewHTTPEngine(speech.HTTPEngineConfig{
			URL:            cfg.Speech.URL,
			Voice:          cfg.Speech.Voice,
			TimeoutSeconds: cfg.Speech.TimeoutSeconds,
		}, logger)
	}
	return speech.NewCommandEngine(speech.CommandEngineConfig{
		Command:        cfg.Speech.Command,
		Args:           cfg.Speech.CommandArgs,
		Voice:          cfg.Speech.Voice,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
	}, logger)
}
