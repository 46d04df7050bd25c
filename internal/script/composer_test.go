package script

import (
	"strings"
	"testing"

	"podforge/internal/materials"
)

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First point here. Second point!  Third?No split without space.")
	want := []string{"First point here.", "Second point!", "Third?No split without space."}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadableSentence(t *testing.T) {
	cases := []struct {
		sentence string
		want     bool
	}{
		{"This sentence is a perfectly ordinary length.", true},
		{"Too short.", false},
		{strings.Repeat("Very long sentence body here. ", 10), false},
		{"1234 5678 9012 3456 78", false},
		{"See https://example.com for all the gory details.", false},
		{"Contact me at someone@example.com to learn more.", false},
		{"Look at the __emphasis__ markers scattered around here.", false},
	}
	for _, tc := range cases {
		if got := readableSentence(tc.sentence); got != tc.want {
			t.Fatalf("readableSentence(%q) = %v, want %v", tc.sentence, got, tc.want)
		}
	}
}

func TestComposeFromTextDeterministic(t *testing.T) {
	text := "--- FILE: notes.txt ---\n" +
		"The first idea is that caching reduces repeated work across requests.\n" +
		"The second idea is that invalidation is the hard part of any cache design.\n"

	first := ComposeFromText(text)
	second := ComposeFromText(text)
	if first != second {
		t.Fatalf("composer output is not deterministic")
	}
	if !strings.HasPrefix(first, "[Host A] Welcome to the podcast.") {
		t.Fatalf("missing intro:\n%s", first)
	}
	if !strings.Contains(first, "Segment 1:") {
		t.Fatalf("missing segment header:\n%s", first)
	}
	if !strings.Contains(first, "Key point: The first idea is that caching reduces repeated work across requests.") {
		t.Fatalf("first sentence not spoken as key point:\n%s", first)
	}
	if !strings.Contains(first, "Put simply, the second idea") {
		t.Fatalf("second sentence not paraphrase-started:\n%s", first)
	}
	if !strings.Contains(first, "Thanks for listening.") {
		t.Fatalf("missing outro:\n%s", first)
	}
}

func TestComposeFromTextSkipsStructuralLines(t *testing.T) {
	text := "--- FILE: data.json ---\n" +
		"JSON:\n" +
		"{\n" +
		"Page 4\n" +
		"Only this line of real prose should survive into the dialogue.\n" +
		"}\n"

	out := ComposeFromText(text)
	if strings.Contains(out, "FILE:") || strings.Contains(out, "{") {
		t.Fatalf("structural lines leaked into script:\n%s", out)
	}
	if !strings.Contains(out, "Only this line of real prose should survive into the dialogue.") {
		t.Fatalf("prose line missing:\n%s", out)
	}
}

func TestComposeFromTextAlternatesSpeakers(t *testing.T) {
	text := "Alpha sentences keep arriving one after the other here. " +
		"Beta sentences keep arriving one after the other here. " +
		"Gamma sentences keep arriving one after the other here."

	out := ComposeFromText(text)
	if !strings.Contains(out, "[Host A] Key point:") {
		t.Fatalf("first spoken line should be Host A:\n%s", out)
	}
	if !strings.Contains(out, "[Host B] Put simply,") {
		t.Fatalf("second spoken line should be Host B:\n%s", out)
	}
}

func TestComposeFromPillarTopics(t *testing.T) {
	pillar := &materials.Pillar{
		Title: "Distributed Consensus",
		Topics: []materials.Topic{
			{Name: "Leader election", Summary: "Choosing a coordinator"},
			{Name: "Log replication", Subtopics: []materials.Subtopic{
				{Name: "Append entries", Summary: "Followers mirror the leader"},
			}},
			{Name: "Safety"},
		},
	}

	out := ComposeFromPillar(pillar)
	checks := []string{
		"Today we dive into Distributed Consensus",
		"Segment 1: Leader election",
		"Big picture: Choosing a coordinator",
		"— Append entries.",
		"In short: Followers mirror the leader",
		"Segment 3: Safety",
		"Quick recap so far: we are following the pillar structure",
		"That wraps up our walkthrough of the content pillar.",
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestComposeFromPillarNamelessTopicGetsPlaceholder(t *testing.T) {
	out := ComposeFromPillar(&materials.Pillar{Topics: []materials.Topic{{}}})
	if !strings.Contains(out, "Segment 1: Topic 1") {
		t.Fatalf("unnamed topic should get a numbered placeholder:\n%s", out)
	}
	if !strings.Contains(out, "Today we dive into the document") {
		t.Fatalf("untitled pillar should use the generic title:\n%s", out)
	}
}

func TestComposeFromPillarChunks(t *testing.T) {
	pillar := &materials.Pillar{
		Chunks: []string{
			"The scanner emits tokens as it walks the source text. " +
				"Each token records its position for later error reporting. " +
				"## markdown ## noise that should be scrubbed away entirely ##",
		},
	}

	out := ComposeFromPillar(pillar)
	if !strings.Contains(out, "Key point: The scanner emits tokens as it walks the source text.") {
		t.Fatalf("chunk sentence not spoken:\n%s", out)
	}
	if strings.Contains(out, "##") {
		t.Fatalf("symbol runs leaked:\n%s", out)
	}
}

func TestComposeFromPillarEmptyChunksIsBriefOverview(t *testing.T) {
	out := ComposeFromPillar(&materials.Pillar{Chunks: []string{"short"}})
	if !strings.Contains(out, limitedNotesLine) {
		t.Fatalf("expected limited-notes line:\n%s", out)
	}
}

func TestSegmentTitleTruncation(t *testing.T) {
	long := strings.Repeat("a", 120)
	got := segmentTitle(long)
	if len([]rune(got)) != 88 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected truncation: %q (%d runes)", got, len([]rune(got)))
	}
	if segmentTitle("short title") != "short title" {
		t.Fatalf("short titles must pass through unchanged")
	}
}
