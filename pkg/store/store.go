package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/lestrrat-go/strftime"

	"github.com/herlein/ookclone/pkg/pulse"
)

const (
	// DefaultNamePattern names captures by local time.
	DefaultNamePattern = "capture-%Y%m%d-%H%M%S"

	// Ext is appended to names that do not already end in it.
	Ext = ".json"
)

// Entry describes one stored capture.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is a directory of capture files.
type Store struct {
	dir     string
	pattern *strftime.Strftime
}

// Open creates dir if needed. pattern is a strftime pattern used by NewName;
// empty means DefaultNamePattern.
func Open(dir, pattern string) (*Store, error) {
	if pattern == "" {
		pattern = DefaultNamePattern
	}
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern %q: %w", pattern, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &Error{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{dir: dir, pattern: p}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// NewName formats the name pattern at t.
func (s *Store) NewName(t time.Time) string {
	return s.pattern.FormatString(t)
}

// Path resolves name to a file. Names containing a path separator are used
// as given; bare names live in the store directory. Ext is added unless name
// already ends in it, so every saved file shows up in List.
func (s *Store) Path(name string) string {
	if !strings.HasSuffix(name, Ext) {
		name += Ext
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Save writes seq under name and returns the file path. The file is replaced
// atomically: readers see either the old document or the complete new one.
func (s *Store) Save(name string, seq pulse.Sequence) (string, error) {
	path := s.Path(name)
	data, err := Encode(seq)
	if err != nil {
		return "", &Error{Op: "encode", Path: path, Err: err}
	}
	if err := writeFile(path, data, 0644); err != nil {
		return "", &Error{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// Load reads the capture stored under name.
func (s *Store) Load(name string) (pulse.Sequence, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	seq, err := Decode(data)
	if err != nil {
		return nil, &Error{Op: "decode", Path: path, Err: err}
	}
	return seq, nil
}

// List returns the captures in the store directory, oldest first.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &Error{Op: "list", Path: s.dir, Err: err}
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != Ext || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    strings.TrimSuffix(de.Name(), Ext),
			Path:    filepath.Join(s.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return renameio.WriteFile(path, data, perm)
}
