package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.Paths.Bind == "" {
		return errors.New("paths.bind must be set")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	switch c.Speech.Engine {
	case "command":
		if c.Speech.Command == "" {
			return errors.New("speech.command must be set when speech.engine is \"command\"")
		}
	case "http":
		if c.Speech.URL == "" {
			return errors.New("speech.url must be set when speech.engine is \"http\"")
		}
	default:
		return fmt.Errorf("speech.engine: unsupported value %q (expected \"command\" or \"http\")", c.Speech.Engine)
	}
	if c.Speech.TimeoutSeconds <= 0 {
		return errors.New("speech.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.CheckpointIntervalMS <= 0 {
		return errors.New("workflow.checkpoint_interval_ms must be positive")
	}
	// Checkpoint i reports progress i/10, so more than 9 checkpoints would
	// push progress past 1.0.
	if c.Workflow.ScriptCheckpoints <= 0 || c.Workflow.ScriptCheckpoints > 9 {
		return errors.New("workflow.script_checkpoints must be between 1 and 9")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
