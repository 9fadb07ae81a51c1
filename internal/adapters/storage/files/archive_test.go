package files_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avillegas/chatrelay/internal/adapters/storage/files"
	"github.com/avillegas/chatrelay/internal/domain"
)

func newArchive(t *testing.T) *files.Archive {
	t.Helper()

	a, err := files.NewArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewArchive failed: %v", err)
	}
	return a
}

func testConversation(title, date string) *domain.Conversation {
	return &domain.Conversation{
		Title:     title,
		Date:      date,
		SessionID: "s1",
		Messages: []*domain.Message{
			{ID: "u1", Role: domain.RoleUser, Parts: []string{"Hi"}, CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
			{ID: "m1", Role: domain.RoleModel, Parts: []string{"Hello!"}, CreatedAt: time.Date(2024, 1, 1, 12, 0, 1, 0, time.UTC)},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	a := newArchive(t)
	ctx := context.Background()

	conv := testConversation("My Chat", "2024-06-01T10:00:00Z")

	filename, err := a.Save(ctx, conv)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(filename, "My Chat-") || !strings.HasSuffix(filename, ".json") {
		t.Errorf("unexpected filename %q", filename)
	}

	loaded, err := a.Load(ctx, filename)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Title != conv.Title || loaded.SessionID != conv.SessionID {
		t.Errorf("loaded record differs: %+v", loaded)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(loaded.Messages))
	}
	for i, msg := range loaded.Messages {
		want := conv.Messages[i]
		if msg.ID != want.ID || msg.Role != want.Role || msg.Parts[0] != want.Parts[0] || !msg.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("message %d differs: got %+v, want %+v", i, msg, want)
		}
	}
}

func TestSaveEmptySessionFails(t *testing.T) {
	a := newArchive(t)

	_, err := a.Save(context.Background(), &domain.Conversation{Title: "Empty", SessionID: "s1"})
	if !errors.Is(err, domain.ErrEmptySession) {
		t.Fatalf("expected ErrEmptySession, got %v", err)
	}
}

func TestSaveSanitizesTitle(t *testing.T) {
	a := newArchive(t)

	filename, err := a.Save(context.Background(), testConversation("a/b:c?*Chat 42  ", "2024-01-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(filename, "abcChat 42-") {
		t.Errorf("expected sanitized prefix, got %q", filename)
	}
}

func TestSameTitleNeverCollides(t *testing.T) {
	a := newArchive(t)
	ctx := context.Background()

	first, err := a.Save(ctx, testConversation("Twice", "2024-01-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second, err := a.Save(ctx, testConversation("Twice", "2024-01-02T00:00:00Z"))
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct filenames, both were %q", first)
	}
}

func TestListSortsByDateDescending(t *testing.T) {
	a := newArchive(t)
	ctx := context.Background()

	if _, err := a.Save(ctx, testConversation("Older", "2024-01-01T00:00:00Z")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := a.Save(ctx, testConversation("Newer", "2024-06-01T00:00:00Z")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	summaries, err := a.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Title != "Newer" || summaries[1].Title != "Older" {
		t.Errorf("expected newest first, got %q then %q", summaries[0].Title, summaries[1].Title)
	}
}

func TestListSkipsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	a, err := files.NewArchive(dir)
	if err != nil {
		t.Fatalf("NewArchive failed: %v", err)
	}
	ctx := context.Background()

	if _, err := a.Save(ctx, testConversation("Good", "2024-01-01T00:00:00Z")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	summaries, err := a.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Title != "Good" {
		t.Fatalf("expected only the good record, got %+v", summaries)
	}
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	a, err := files.NewArchive(dir)
	if err != nil {
		t.Fatalf("NewArchive failed: %v", err)
	}
	ctx := context.Background()

	if _, err := a.Load(ctx, "missing.json"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}
	if _, err := a.Load(ctx, "broken.json"); !errors.Is(err, domain.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}

	if _, err := a.Load(ctx, "../escape.json"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected traversal to be rejected, got %v", err)
	}
}

func TestUploadStoreRoundTrip(t *testing.T) {
	u, err := files.NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore failed: %v", err)
	}

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	filename, err := u.Save(data)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(filename, ".jpg") {
		t.Errorf("unexpected upload name %q", filename)
	}

	path, err := u.Path(filename)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading upload: %v", err)
	}
	if string(got) != string(data) {
		t.Error("stored bytes differ from the upload")
	}

	if _, err := u.Path("../../etc/passwd"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected traversal to be rejected, got %v", err)
	}
	if _, err := u.Path("absent.jpg"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent file, got %v", err)
	}
}
