package filter

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// FileStore reads and writes a plain-text blocklist, one entry per line.
// A missing file reads as empty: blocklists are optional.
type FileStore struct {
	path string
}

// NewFileStore creates a store over the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the file's lines, including blanks so validation can report
// real line numbers.
func (s *FileStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blocklist %s: %w", s.path, err)
	}
	content := strings.TrimRight(string(data), "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}

// Entries returns the trimmed, non-blank lines.
func (s *FileStore) Entries() ([]string, error) {
	lines, err := s.Load()
	if err != nil {
		return nil, err
	}
	entries := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			entries = append(entries, trimmed)
		}
	}
	return entries, nil
}

// Replace writes the given entries back, one per line, atomically via a
// temp file rename.
func (s *FileStore) Replace(entries []string) error {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry)
		b.WriteString("\n")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write blocklist %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace blocklist %s: %w", s.path, err)
	}
	return nil
}

// Append adds an entry unless an equal entry (case-insensitive) exists.
// Returns false when the entry was already present.
func (s *FileStore) Append(entry string) (bool, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return false, errors.New("blocklist entry is empty")
	}
	entries, err := s.Entries()
	if err != nil {
		return false, err
	}
	for _, existing := range entries {
		if strings.EqualFold(existing, entry) {
			return false, nil
		}
	}
	return true, s.Replace(append(entries, entry))
}

// Remove deletes every entry equal to the given one, case-insensitively.
// Returns false when nothing matched.
func (s *FileStore) Remove(entry string) (bool, error) {
	entry = strings.TrimSpace(entry)
	entries, err := s.Entries()
	if err != nil {
		return false, err
	}
	kept := entries[:0]
	removed := false
	for _, existing := range entries {
		if strings.EqualFold(existing, entry) {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return false, nil
	}
	return true, s.Replace(kept)
}
