// Package config loads, normalizes, and validates podforge configuration.
//
// Configuration lives in a TOML file resolved from an explicit path, then
// ~/.config/podforge/config.toml, then ./podforge.toml. Defaults cover every
// field so the daemon runs with no config file at all; normalization expands
// tilde paths and pulls the script API key from the environment when the file
// omits it. Validation rejects configurations the daemon could not operate
// under (missing storage dir, unknown speech engine, non-positive intervals).
//
// All other packages receive a *Config by injection; nothing here reads
// configuration lazily at call time.
package config
