package materials

import "encoding/json"

// Pillar is the structured form of a materials set. Either Topics or Chunks
// may be populated; a pillar with both drives the topic path first.
type Pillar struct {
	Title  string
	Topics []Topic
	Chunks []string
}

// Topic is a named section of a pillar with an optional summary and
// subtopics.
type Topic struct {
	Name      string
	Summary   string
	Subtopics []Subtopic
}

// Subtopic is a named point under a topic.
type Subtopic struct {
	Name    string
	Summary string
}

// ParsePillar decodes raw JSON into a Pillar. Pipeline exports often wrap the
// document in an "output" envelope, and field names drift between producers,
// so several aliases are accepted: topics or sections, subtopics or items,
// name or title, summary or overview or notes. Returns false when the
// document is not an object or carries none of the recognized collections.
func ParsePillar(data []byte) (*Pillar, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	if inner, ok := raw["output"].(map[string]any); ok {
		raw = inner
	}

	topics := listValue(raw, "topics")
	if len(topics) == 0 {
		topics = listValue(raw, "sections")
	}
	chunks := listValue(raw, "chunks")
	if len(topics) == 0 && len(chunks) == 0 {
		return nil, false
	}

	p := &Pillar{Title: firstString(raw, "title", "document_title")}
	for _, entry := range topics {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		topic := Topic{
			Name:    firstString(m, "name", "title"),
			Summary: firstString(m, "summary", "overview"),
		}
		subs := listValue(m, "subtopics")
		if len(subs) == 0 {
			subs = listValue(m, "items")
		}
		for _, sub := range subs {
			sm, ok := sub.(map[string]any)
			if !ok {
				continue
			}
			topic.Subtopics = append(topic.Subtopics, Subtopic{
				Name:    firstString(sm, "name", "title"),
				Summary: firstString(sm, "summary", "notes"),
			})
		}
		p.Topics = append(p.Topics, topic)
	}
	for _, entry := range chunks {
		switch v := entry.(type) {
		case string:
			p.Chunks = append(p.Chunks, v)
		case map[string]any:
			if text, ok := v["text"].(string); ok {
				p.Chunks = append(p.Chunks, text)
			}
		}
	}
	return p, true
}

func listValue(m map[string]any, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
