package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"podforge/internal/logging"
)

const defaultCommandTimeout = 120 * time.Second

// CommandEngine shells out to a local TTS binary. Argument templates carry
// {text}, {output}, and {voice} placeholders that are substituted per
// request, so any command-line synthesizer with a file output flag can be
// wired in.
type CommandEngine struct {
	command string
	args    []string
	voice   string
	timeout time.Duration
	logger  *slog.Logger
}

// CommandEngineConfig configures the external synthesizer invocation.
type CommandEngineConfig struct {
	Command        string
	Args           []string
	Voice          string
	TimeoutSeconds int
}

// NewCommandEngine builds a command engine. The default invocation targets
// espeak-ng's wav output.
func NewCommandEngine(cfg CommandEngineConfig, logger *slog.Logger) *CommandEngine {
	if logger == nil {
		logger = logging.NewNop()
	}
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		command = "espeak-ng"
	}
	args := cfg.Args
	if len(args) == 0 {
		args = []string{"-w", "{output}", "-v", "{voice}", "{text}"}
	}
	timeout := defaultCommandTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &CommandEngine{
		command: command,
		args:    args,
		voice:   cfg.Voice,
		timeout: timeout,
		logger:  logger.With(logging.String(logging.FieldComponent, "speech")),
	}
}

// Synthesize runs the configured command and verifies it produced a non-empty
// audio file at the requested path.
func (e *CommandEngine) Synthesize(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("speech synthesize: text required")
	}
	if req.OutputPath == "" {
		return errors.New("speech synthesize: output path required")
	}
	voice := req.Voice
	if voice == "" {
		voice = e.voice
	}
	if voice == "" {
		voice = "en"
	}

	args := make([]string, 0, len(e.args))
	replacer := strings.NewReplacer(
		"{text}", req.Text,
		"{output}", req.OutputPath,
		"{voice}", voice,
	)
	for _, arg := range e.args {
		args = append(args, replacer.Replace(arg))
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("speech synthesize: %s: %w: %s",
			e.command, err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return fmt.Errorf("speech synthesize: %s produced no output file: %w", e.command, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("speech synthesize: %s produced an empty file", e.command)
	}
	e.logger.Debug("synthesized audio",
		logging.String("path", req.OutputPath),
		logging.Int("bytes", int(info.Size())))
	return nil
}
