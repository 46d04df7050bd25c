package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScript()
	c.normalizeSpeech()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		c.Paths.StorageDir = defaultStorageDir
	}
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if c.Paths.MaterialsDir1, err = expandPath(c.Paths.MaterialsDir1); err != nil {
		return fmt.Errorf("paths.materials_dir_1: %w", err)
	}
	if c.Paths.MaterialsDir2, err = expandPath(c.Paths.MaterialsDir2); err != nil {
		return fmt.Errorf("paths.materials_dir_2: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		c.Paths.LockFile = defaultLockFile
	}
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	c.Paths.Bind = strings.TrimSpace(c.Paths.Bind)
	if c.Paths.Bind == "" {
		c.Paths.Bind = defaultBind
	}
	c.Paths.BaseURL = strings.TrimRight(strings.TrimSpace(c.Paths.BaseURL), "/")
	if c.Paths.BaseURL == "" {
		c.Paths.BaseURL = defaultBaseURL
	}
	return nil
}

func (c *Config) normalizeScript() {
	c.Script.APIKey = strings.TrimSpace(c.Script.APIKey)
	if c.Script.APIKey == "" {
		if value, ok := os.LookupEnv("PODFORGE_OPENAI_API_KEY"); ok {
			c.Script.APIKey = strings.TrimSpace(value)
		}
	}
	c.Script.BaseURL = strings.TrimRight(strings.TrimSpace(c.Script.BaseURL), "/")
	if c.Script.BaseURL == "" {
		c.Script.BaseURL = defaultScriptBaseURL
	}
	c.Script.Model = strings.TrimSpace(c.Script.Model)
	if c.Script.Model == "" {
		c.Script.Model = defaultScriptModel
	}
	if c.Script.TimeoutSeconds <= 0 {
		c.Script.TimeoutSeconds = defaultScriptTimeoutSeconds
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Engine = strings.ToLower(strings.TrimSpace(c.Speech.Engine))
	if c.Speech.Engine == "" {
		c.Speech.Engine = defaultSpeechEngine
	}
	c.Speech.Command = strings.TrimSpace(c.Speech.Command)
	if c.Speech.Command == "" {
		c.Speech.Command = defaultSpeechCommand
	}
	if len(c.Speech.CommandArgs) == 0 {
		c.Speech.CommandArgs = Default().Speech.CommandArgs
	}
	c.Speech.URL = strings.TrimSpace(c.Speech.URL)
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.CheckpointIntervalMS <= 0 {
		c.Workflow.CheckpointIntervalMS = defaultCheckpointIntervalMS
	}
	if c.Workflow.ScriptCheckpoints <= 0 {
		c.Workflow.ScriptCheckpoints = defaultScriptCheckpoints
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
