package materials

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"podforge/internal/logging"
)

const (
	// perFileCharCap bounds how much text a single file contributes.
	perFileCharCap = 200_000
	// globalCharCap bounds the combined flat-text result.
	globalCharCap = 500_000
)

var flatTextExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".pdf":  true,
}

// Resolver turns a materials-set selector into episode source content.
type Resolver struct {
	primaryDir   string
	secondaryDir string
	logger       *slog.Logger
}

// NewResolver builds a resolver over the two materials roots. Either root may
// be empty, in which case the corresponding set resolves to nothing.
func NewResolver(primaryDir, secondaryDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		primaryDir:   primaryDir,
		secondaryDir: secondaryDir,
		logger:       logger.With(logging.String(logging.FieldComponent, "materials")),
	}
}

// Resolve returns the structured pillar for the set when one exists,
// otherwise the concatenated flat text of every readable material file.
// Both results empty means the set has no usable content.
func (r *Resolver) Resolve(set string) (*Pillar, string) {
	dir := r.dirFor(set)
	if dir == "" {
		return nil, ""
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, ""
	}
	if pillar := r.findPillar(dir); pillar != nil {
		return pillar, ""
	}
	return nil, r.flatText(dir)
}

func (r *Resolver) dirFor(set string) string {
	if set == "2" {
		return r.secondaryDir
	}
	return r.primaryDir
}

// findPillar scans the tree for JSON documents that parse as a content
// pillar. Files whose name mentions "pillar" are tried first so a curated
// export wins over incidental JSON.
func (r *Resolver) findPillar(dir string) *Pillar {
	var preferred, rest []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".json") {
			return nil
		}
		if strings.Contains(name, "pillar") {
			preferred = append(preferred, path)
		} else {
			rest = append(rest, path)
		}
		return nil
	})
	sort.Strings(preferred)
	sort.Strings(rest)
	for _, path := range append(preferred, rest...) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if pillar, ok := ParsePillar(data); ok {
			r.logger.Debug("resolved content pillar", logging.String("path", path))
			return pillar
		}
	}
	return nil
}

// flatText concatenates the readable material files in lexical order, each
// introduced by a FILE header, under the per-file and global character caps.
func (r *Resolver) flatText(dir string) string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if flatTextExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	var b strings.Builder
	total := 0
	for _, path := range files {
		text := r.readFileText(path)
		if text == "" {
			continue
		}
		snippet := truncateRunes(text, perFileCharCap)
		header := "\n--- FILE: " + filepath.Base(path) + " ---\n"
		headerLen := len([]rune(header))
		snippetLen := len([]rune(snippet))
		if total+headerLen+snippetLen > globalCharCap {
			remaining := globalCharCap - total - headerLen
			if remaining <= 0 {
				break
			}
			snippet = truncateRunes(snippet, remaining)
			snippetLen = len([]rune(snippet))
		}
		b.WriteString(header)
		b.WriteString(snippet)
		total += headerLen + snippetLen
		if total >= globalCharCap {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// readFileText extracts plain text from a single material file. JSON content
// is passed through verbatim behind a JSON marker so downstream composition
// can skip it when picking readable sentences. Unreadable files yield "".
func (r *Resolver) readFileText(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return string(data)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return "JSON\n" + string(data)
	case ".pdf":
		return extractPDFText(path)
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
