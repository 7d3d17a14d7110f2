package diagnostic

import (
	"path/filepath"
	"strings"
	"sync"
)

// Source is a script's text plus the name it is displayed under.
type Source struct {
	Name    string // Display name ("script.hsl", "<eval>", "<repl>")
	Path    string // Full file path (empty for eval/REPL input)
	Content string

	once  sync.Once
	lines []string
}

// NewSource creates a source with the given display name.
func NewSource(name, content string) *Source {
	return &Source{Name: name, Content: content}
}

// NewEvalSource creates a source for inline evaluation.
func NewEvalSource(content string) *Source {
	return &Source{Name: "<eval>", Content: content}
}

// FromFile creates a source from a file path and its content.
func FromFile(path, content string) *Source {
	return &Source{Name: filepath.Base(path), Path: path, Content: content}
}

// Lines returns the source split into lines (cached).
func (s *Source) Lines() []string {
	s.once.Do(func() {
		s.lines = strings.Split(s.Content, "\n")
	})
	return s.lines
}

// Line returns the 1-based line without its line terminator, or "" when out of range.
func (s *Source) Line(n int) string {
	lines := s.Lines()
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}

// DisplayPath prefers the file path and falls back to the name.
func (s *Source) DisplayPath() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Name
}
