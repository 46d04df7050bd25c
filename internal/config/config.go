package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StorageDir    string `toml:"storage_dir"`
	MaterialsDir1 string `toml:"materials_dir_1"`
	MaterialsDir2 string `toml:"materials_dir_2"`
	Bind          string `toml:"bind"`
	BaseURL       string `toml:"base_url"`
	LockFile      string `toml:"lock_file"`
}

// Script contains configuration for the remote script-generation backend.
// An empty APIKey disables the remote path entirely; script production then
// always uses the deterministic local composer.
type Script struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Speech contains configuration for the text-to-speech engine.
type Speech struct {
	Engine         string   `toml:"engine"`
	Command        string   `toml:"command"`
	CommandArgs    []string `toml:"command_args"`
	URL            string   `toml:"url"`
	Voice          string   `toml:"voice"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Workflow contains orchestration pacing settings.
type Workflow struct {
	CheckpointIntervalMS int `toml:"checkpoint_interval_ms"`
	ScriptCheckpoints    int `toml:"script_checkpoints"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for podforge.
//
// Sections by subsystem:
//   - Paths: storage/materials directories, bind address, public base URL
//   - Script: remote script-generation credentials and model selection
//   - Speech: TTS engine selection (external command or HTTP service)
//   - Workflow: orchestrator checkpoint pacing
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Script   Script   `toml:"script"`
	Speech   Speech   `toml:"speech"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podforge/config.toml")
}

// Sample returns the embedded sample configuration file contents.
func Sample() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes to. Materials
// directories are created best-effort; an episode with no materials on disk is
// a valid (placeholder-script) run, not a startup failure.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StorageDir, 0o755); err != nil {
		return fmt.Errorf("create storage directory %q: %w", c.Paths.StorageDir, err)
	}
	if dir := filepath.Dir(c.Paths.LockFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create lock directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.MaterialsDir1, c.Paths.MaterialsDir2} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// MaterialsDir resolves a materials-set selector to a directory. Set "2" maps
// to the second root; everything else (including empty) maps to the first.
func (c *Config) MaterialsDir(set string) string {
	if strings.TrimSpace(set) == "2" {
		return c.Paths.MaterialsDir2
	}
	return c.Paths.MaterialsDir1
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
