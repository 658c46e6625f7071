// Package audio stores generated question audio and temporary candidate uploads.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or malformed audio file names.
var ErrNotFound = errors.New("audio file not found")

// URLPrefix is the server-relative path under which generated audio is served.
const URLPrefix = "/audio/"

const questionPrefix = "question-"

// Store keeps generated MP3 files in one directory and short-lived uploads in another.
type Store struct {
	dir       string
	uploadDir string
}

// NewStore creates both directories if needed.
func NewStore(dir, uploadDir string) (*Store, error) {
	for _, d := range []string{dir, uploadDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &Store{dir: dir, uploadDir: uploadDir}, nil
}

// URL returns the server-relative URL for a generated file name.
func URL(name string) string {
	return URLPrefix + name
}

// SaveQuestion writes MP3 data under a fresh unique name and returns the name.
func (s *Store) SaveQuestion(data []byte) (string, error) {
	name := questionPrefix + uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return name, nil
}

// Open returns the generated file with the given name. Names that are not a
// plain file name are rejected with ErrNotFound.
func (s *Store) Open(name string) (*os.File, os.FileInfo, error) {
	if !validName(name) {
		return nil, nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}
	return f, info, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}

// SaveUpload copies r to a uniquely named file in the upload directory and
// returns its path. The extension is kept so the transcoder can probe it.
func (s *Store) SaveUpload(r io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp(s.uploadDir, uuid.NewString()+"-*."+ext)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}

// RemoveUpload deletes a file created by SaveUpload. Missing files are not an error.
func (s *Store) RemoveUpload(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PurgeOlderThan removes generated question files last modified before cutoff
// and returns how many were deleted.
func (s *Store) PurgeOlderThan(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), questionPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
