package script

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"podforge/internal/materials"
)

const (
	// Readable sentences are between these rune lengths with a letter ratio
	// of at least minLetterRatio, and carry no URL or markup tokens.
	minSentenceRunes = 20
	maxSentenceRunes = 260
	minLetterRatio   = 0.55

	// maxChunkSentences caps locally composed episodes built from chunked
	// pillars so OCR dumps do not produce hour-long scripts.
	maxChunkSentences = 180

	limitedNotesLine = "We received limited structured notes, so this will be a brief overview."
)

var symbolRunRE = regexp.MustCompile("[_*/#=<>{}\\\\\\[\\]|`~^]+")

func hostA(s string) string { return "[Host A] " + s }
func hostB(s string) string { return "[Host B] " + s }

// splitSentences breaks text after sentence punctuation followed by
// whitespace. Abbreviation-heavy text over-merges rather than over-splits,
// which is the safer direction for spoken dialogue.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if (ch == '.' || ch == '!' || ch == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// readableSentence reports whether a sentence is worth speaking aloud:
// mid-length prose, mostly letters, free of URLs, handles, and markup
// artifacts.
func readableSentence(s string) bool {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) < minSentenceRunes || len(runes) > maxSentenceRunes {
		return false
	}
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if float64(letters)/float64(len(runes)) < minLetterRatio {
		return false
	}
	for _, token := range []string{"http://", "https://", "www.", "@", "#", "__"} {
		if strings.Contains(s, token) {
			return false
		}
	}
	return true
}

func lowerFirst(s string) string {
	runes := []rune(s)
	if len(runes) < 2 {
		return s
	}
	return string(unicode.ToLower(runes[0])) + string(runes[1:])
}

// segmentTitle shortens a sentence into a header line.
func segmentTitle(s string) string {
	runes := []rune(s)
	if len(runes) > 90 {
		return string(runes[:87]) + "…"
	}
	return s
}

// ComposeFromText builds a deterministic two-host dialogue from flat
// materials text. It quotes and condenses lines from the input instead of
// generating new claims: file headers and JSON fragments are dropped, short
// lines merge into paragraphs, and each paragraph with readable sentences
// becomes a segment with alternating speakers.
func ComposeFromText(materialsText string) string {
	text := strings.ReplaceAll(materialsText, "\r", "\n")

	var contentLines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			contentLines = append(contentLines, "")
			continue
		}
		low := strings.ToLower(line)
		if strings.HasPrefix(low, "--- file:") ||
			strings.HasPrefix(low, "page ") ||
			strings.HasPrefix(low, "json:") ||
			line == "{" || line == "}" || line == "[" || line == "]" {
			continue
		}
		contentLines = append(contentLines, line)
	}

	// Short lines merge until the paragraph is long enough and ends on
	// sentence punctuation.
	var paragraphs []string
	var buf []string
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if p := strings.TrimSpace(strings.Join(buf, " ")); p != "" {
			paragraphs = append(paragraphs, p)
		}
		buf = buf[:0]
	}
	for _, line := range contentLines {
		if line == "" {
			flush()
			continue
		}
		buf = append(buf, line)
		joined := strings.Join(buf, " ")
		trimmed := strings.TrimRight(joined, " \t")
		if len([]rune(joined)) >= 220 && strings.ContainsAny(lastRune(trimmed), ".!?") {
			flush()
		}
	}
	flush()

	if len(paragraphs) == 0 {
		var nonEmpty []string
		for _, line := range contentLines {
			if line != "" {
				nonEmpty = append(nonEmpty, line)
			}
		}
		paragraphs = []string{strings.TrimSpace(strings.Join(nonEmpty, " "))}
	}

	lines := []string{
		hostA("Welcome to the podcast."),
		hostB("In this episode, we will walk through the provided materials in clear English and connect the ideas step by step."),
	}

	segIdx := 1
	lineCounter := 0
	for _, para := range paragraphs {
		p := strings.Join(strings.Fields(para), " ")
		var readable []string
		for _, s := range splitSentences(p) {
			if readableSentence(s) {
				readable = append(readable, s)
			}
		}
		if len(readable) == 0 {
			continue
		}

		lines = append(lines, hostA(fmt.Sprintf("Segment %d: %s", segIdx, segmentTitle(readable[0]))))
		segIdx++

		spoken := readable
		if len(spoken) > 5 {
			spoken = spoken[:5]
		}
		for j, s := range spoken {
			line := s
			switch j {
			case 0:
				line = "Key point: " + s
			case 1:
				line = "Put simply, " + lowerFirst(s)
			}
			if (lineCounter+j)%2 == 0 {
				lines = append(lines, hostA(line))
			} else {
				lines = append(lines, hostB(line))
			}
		}
		lineCounter += len(spoken)

		if segIdx%6 == 0 {
			lines = append(lines, hostB("Quick recap so far: we are staying close to the source text and moving in order."))
		}
	}

	lines = append(lines,
		hostA("That brings us to the end of today’s walkthrough."),
		hostB("For full context, review the original materials alongside this episode. Thanks for listening."),
	)
	return strings.Join(lines, "\n")
}

func lastRune(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[len(runes)-1])
}

// ComposeFromPillar builds a deterministic two-host dialogue from a
// structured pillar. Topic pillars walk the topics in order; chunked pillars
// condense the chunk text into readable-sentence segments.
func ComposeFromPillar(pillar *materials.Pillar) string {
	title := strings.TrimSpace(pillar.Title)
	if title == "" {
		title = "the document"
	}

	lines := []string{
		hostA("Welcome to the podcast."),
		hostB(fmt.Sprintf("Today we dive into %s, using the provided content as our guide.", title)),
		hostA("We will move topic by topic and keep the language clear and practical."),
	}

	if len(pillar.Topics) > 0 {
		for i, topic := range pillar.Topics {
			idx := i + 1
			name := strings.TrimSpace(topic.Name)
			if name == "" {
				name = fmt.Sprintf("Topic %d", idx)
			}
			lines = append(lines, hostA(fmt.Sprintf("Segment %d: %s", idx, name)))
			if summary := strings.TrimSpace(topic.Summary); summary != "" {
				lines = append(lines, hostB("Big picture: "+summary))
			}
			for j, sub := range topic.Subtopics {
				subName := strings.TrimSpace(sub.Name)
				if subName == "" {
					subName = fmt.Sprintf("Key point %d", j+1)
				}
				lines = append(lines, hostA("— "+subName+"."))
				if summary := strings.TrimSpace(sub.Summary); summary != "" {
					lines = append(lines, hostB("In short: "+summary))
				}
			}
			if idx%3 == 0 {
				lines = append(lines, hostB("Quick recap so far: we are following the pillar structure and keeping close to its summaries."))
			}
		}
	} else {
		sents := sentencesFromChunks(pillar.Chunks)
		if len(sents) == 0 {
			lines = append(lines, hostB(limitedNotesLine))
		} else {
			if len(sents) > maxChunkSentences {
				sents = sents[:maxChunkSentences]
			}
			seg := 1
			for i := 0; i < len(sents); {
				window := sents[i:min(i+7, len(sents))]
				lines = append(lines, hostA(fmt.Sprintf("Segment %d: %s", seg, segmentTitle(window[0]))))
				for j, s := range window {
					line := s
					switch j {
					case 0:
						line = "Key point: " + s
					case 1:
						line = "Put simply, " + lowerFirst(s)
					}
					if (i+j)%2 == 0 {
						lines = append(lines, hostA(line))
					} else {
						lines = append(lines, hostB(line))
					}
				}
				seg++
				i += max(5, min(7, len(window)))
				if seg%4 == 0 {
					lines = append(lines, hostB("Quick checkpoint: we’re moving in order and summarizing concisely."))
				}
			}
		}
	}

	lines = append(lines,
		hostA("That wraps up our walkthrough of the content pillar."),
		hostB("For full context, review the original documents alongside these notes. Thanks for listening."),
	)
	return strings.Join(lines, "\n")
}

// sentencesFromChunks flattens pillar chunk text into readable sentences,
// scrubbing markup symbol runs first.
func sentencesFromChunks(chunks []string) []string {
	var out []string
	for _, chunk := range chunks {
		t := symbolRunRE.ReplaceAllString(chunk, " ")
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		for _, s := range splitSentences(t) {
			if readableSentence(s) {
				out = append(out, s)
			}
		}
	}
	return out
}
