package script

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"podforge/internal/logging"
	"podforge/internal/materials"
)

const (
	dialogueSystemPrompt = "You are a careful writer. Produce a complete, natural two-host conversation in clear US English. " +
		"Hosts are named 'Host A' and 'Host B'. Be faithful to the provided notes, avoid inventing facts, " +
		"use smooth transitions, and aim for an 8-12 minute episode."

	pillarSystemPrompt = "You are a careful writer. Produce a complete two-host conversation in clear US English. " +
		"Hosts are 'Host A' and 'Host B'. Be faithful to the provided structured pillar (topics, subtopics, summaries, or chunks of text); " +
		"avoid inventing facts; use smooth transitions; aim for ~8-12 minutes."
)

// Producer generates episode scripts. With a client it asks the remote model
// first; without one, or whenever the remote call fails or returns nothing,
// it falls back to the deterministic local composer.
type Producer struct {
	client *Client
	logger *slog.Logger
}

// NewProducer builds a producer. A nil client selects local-only composition.
func NewProducer(client *Client, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Producer{
		client: client,
		logger: logger.With(logging.String(logging.FieldComponent, "script")),
	}
}

// BuildPrompt assembles the user prompt for flat-text generation: episode
// metadata, writing guidance, then the source notes.
func BuildPrompt(title, description, materialsText string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("Title: " + title + "\n")
	}
	if description != "" {
		b.WriteString("Description: " + description + "\n")
	}
	b.WriteString("\nWrite a complete conversational podcast script in clear US English with TWO hosts (Host A and Host B).\n" +
		"Requirements: natural dialogue, faithful to the provided notes, no invented facts, smooth transitions.\n" +
		"Structure: intro, 3-6 topical segments with back-and-forth discussion, and an outro with concise takeaways.\n" +
		"Aim for a substantial episode (roughly 8-12 minutes of audio).\n")
	b.WriteString("\nSOURCE NOTES (from PDFs/JSON):\n" + materialsText)
	return b.String()
}

// FromMaterials produces a script from flat materials text.
func (p *Producer) FromMaterials(ctx context.Context, title, description, materialsText string) string {
	if p.client == nil {
		return ComposeFromText(materialsText)
	}
	prompt := BuildPrompt(title, description, materialsText)
	content, err := p.client.Complete(ctx, dialogueSystemPrompt, prompt)
	if err != nil {
		p.logger.Warn("remote script generation failed, using local composer",
			logging.Error(err))
		return ComposeFromText(materialsText)
	}
	return content
}

// FromPillar produces a script from a structured content pillar.
func (p *Producer) FromPillar(ctx context.Context, pillar *materials.Pillar) string {
	if p.client == nil {
		return ComposeFromPillar(pillar)
	}
	encoded, err := json.Marshal(pillar)
	if err != nil {
		return ComposeFromPillar(pillar)
	}
	content, err := p.client.Complete(ctx, pillarSystemPrompt, "CONTENT PILLAR JSON:\n"+string(encoded))
	if err != nil {
		p.logger.Warn("remote pillar script generation failed, using local composer",
			logging.Error(err))
		return ComposeFromPillar(pillar)
	}
	return content
}
