package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"podforge/internal/logging"
)

const (
	defaultHTTPTimeout  = 300 * time.Second
	generateSpeechPath  = "/api/generate-speech"
	outputFilePerms     = 0o644
	errDetailFallback   = "unreadable error body"
	maxErrorBodySummary = 200
)

// HTTPEngine posts synthesis requests to a standalone TTS service and writes
// the returned audio bytes to the requested output path.
type HTTPEngine struct {
	baseURL    string
	voice      string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPEngineConfig configures the TTS service connection.
type HTTPEngineConfig struct {
	URL            string
	Voice          string
	TimeoutSeconds int
}

// NewHTTPEngine builds an HTTP engine for the service at cfg.URL.
func NewHTTPEngine(cfg HTTPEngineConfig, logger *slog.Logger) *HTTPEngine {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &HTTPEngine{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		voice:      cfg.Voice,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(logging.String(logging.FieldComponent, "speech")),
	}
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type speechErrorResponse struct {
	Detail string `json:"detail"`
}

// Synthesize posts the request text and writes the audio response to
// req.OutputPath.
func (e *HTTPEngine) Synthesize(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("speech synthesize: text required")
	}
	if req.OutputPath == "" {
		return errors.New("speech synthesize: output path required")
	}
	if e.baseURL == "" {
		return errors.New("speech synthesize: service url required")
	}
	voice := req.Voice
	if voice == "" {
		voice = e.voice
	}

	body, err := json.Marshal(speechRequest{Text: req.Text, Voice: voice})
	if err != nil {
		return fmt.Errorf("speech synthesize: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+generateSpeechPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("speech synthesize: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("speech synthesize: request to %s: %w", e.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return e.statusError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("speech synthesize: read audio: %w", err)
	}
	if len(audio) == 0 {
		return errors.New("speech synthesize: service returned empty audio")
	}
	if err := os.WriteFile(req.OutputPath, audio, outputFilePerms); err != nil {
		return fmt.Errorf("speech synthesize: write audio: %w", err)
	}
	e.logger.Debug("synthesized audio",
		logging.String("path", req.OutputPath),
		logging.Int("bytes", len(audio)))
	return nil
}

func (e *HTTPEngine) statusError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("speech synthesize: http %d: %s", resp.StatusCode, errDetailFallback)
	}
	var parsed speechErrorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return fmt.Errorf("speech synthesize: http %d: %s", resp.StatusCode, parsed.Detail)
	}
	summary := strings.Join(strings.Fields(string(body)), " ")
	if len(summary) > maxErrorBodySummary {
		summary = summary[:maxErrorBodySummary]
	}
	return fmt.Errorf("speech synthesize: http %d: %s", resp.StatusCode, summary)
}
