package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := NewStore(filepath.Join(root, "audio"), filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return s
}

func TestSaveQuestionAndOpen(t *testing.T) {
	s := newTestStore(t)

	name, err := s.SaveQuestion([]byte("mp3"))
	if err != nil {
		t.Fatalf("SaveQuestion() error: %v", err)
	}
	if !strings.HasPrefix(name, "question-") || !strings.HasSuffix(name, ".mp3") {
		t.Errorf("name = %q, want question-<uuid>.mp3", name)
	}
	if URL(name) != "/audio/"+name {
		t.Errorf("URL() = %q, want %q", URL(name), "/audio/"+name)
	}

	other, _ := s.SaveQuestion([]byte("mp3"))
	if other == name {
		t.Error("SaveQuestion() should generate unique names")
	}

	f, info, err := s.Open(name)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "mp3" {
		t.Errorf("content = %q, want %q", data, "mp3")
	}
	if info.Size() != 3 {
		t.Errorf("size = %d, want 3", info.Size())
	}
}

func TestOpenRejectsBadNames(t *testing.T) {
	s := newTestStore(t)

	names := []string{"", ".", "..", "../uploads/x.webm", "a/b.mp3", `..\x.mp3`, "missing.mp3"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.Open(name); !errors.Is(err, ErrNotFound) {
				t.Errorf("Open(%q) error = %v, want ErrNotFound", name, err)
			}
		})
	}
}

func TestSaveAndRemoveUpload(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SaveUpload(strings.NewReader("webm-bytes"), "webm")
	if err != nil {
		t.Fatalf("SaveUpload() error: %v", err)
	}
	if filepath.Ext(path) != ".webm" {
		t.Errorf("ext = %q, want .webm", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "webm-bytes" {
		t.Errorf("upload content = %q, %v", data, err)
	}

	if err := s.RemoveUpload(path); err != nil {
		t.Errorf("RemoveUpload() error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("upload should be removed")
	}
	if err := s.RemoveUpload(path); err != nil {
		t.Errorf("second RemoveUpload() error = %v, want nil", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestSaveUploadCleansUpOnError(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.SaveUpload(failingReader{}, "wav"); err == nil {
		t.Fatal("SaveUpload() should fail")
	}
	entries, _ := os.ReadDir(s.uploadDir)
	if len(entries) != 0 {
		t.Errorf("upload dir has %d files, want 0", len(entries))
	}
}

func TestPurgeOlderThan(t *testing.T) {
	s := newTestStore(t)

	oldName, _ := s.SaveQuestion([]byte("old"))
	newName, _ := s.SaveQuestion([]byte("new"))
	keep := filepath.Join(s.dir, "not-a-question.txt")
	_ = os.WriteFile(keep, []byte("x"), 0o644)

	past := time.Now().Add(-48 * time.Hour)
	for _, p := range []string{filepath.Join(s.dir, oldName), keep} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.PurgeOlderThan(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PurgeOlderThan() error: %v", err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if _, _, err := s.Open(oldName); !errors.Is(err, ErrNotFound) {
		t.Error("old question audio should be purged")
	}
	if _, _, err := s.Open(newName); err != nil {
		t.Errorf("recent audio should survive, got %v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("non-question files should not be purged")
	}
}
