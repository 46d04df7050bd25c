// Package logging constructs the slog loggers used across podforge and
// standardizes the structured fields they emit.
//
// Loggers are built from config (console or json format, level string) and
// shared by the daemon, the HTTP API, and the orchestrator. Components attach
// themselves with NewComponentLogger so every line carries a component field,
// and job-scoped loggers add the job id once instead of repeating it at every
// call site.
//
// Use the attr helpers (String, Int, Error, ...) rather than raw slog calls so
// field keys stay consistent across packages.
package logging
