// Package files implements conversation and attachment storage on a local
// filesystem: one JSON document per saved conversation, one file per
// uploaded image, all under randomly generated names that are never
// mutated in place.
package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/avillegas/chatrelay/internal/domain"
	"github.com/avillegas/chatrelay/internal/observability"
)

// Archive stores conversation snapshots as JSON files in a flat directory.
type Archive struct {
	dir string
}

// NewArchive creates the directory if needed.
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating conversations dir: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Save writes conv as a new JSON file and returns its filename. The name
// is derived from the sanitized title plus a short random token, so two
// saves with the same title never collide.
func (a *Archive) Save(ctx context.Context, conv *domain.Conversation) (string, error) {
	if len(conv.Messages) == 0 {
		return "", domain.ErrEmptySession
	}

	filename := fmt.Sprintf("%s-%s.json", sanitizeTitle(conv.Title), uuid.NewString()[:8])

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding conversation: %w", err)
	}

	if err := os.WriteFile(filepath.Join(a.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("writing conversation file: %w", err)
	}

	return filename, nil
}

// List enumerates all saved conversations, newest date first. Unreadable
// or corrupt records are skipped and logged so one bad file cannot take
// down the whole listing.
func (a *Archive) List(ctx context.Context) ([]*domain.ConversationSummary, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("reading conversations dir: %w", err)
	}

	log := observability.LoggerFromContext(ctx)

	summaries := []*domain.ConversationSummary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		conv, err := a.read(entry.Name())
		if err != nil {
			log.Warn("skipping unreadable conversation file", "filename", entry.Name(), "error", err)
			continue
		}

		summaries = append(summaries, &domain.ConversationSummary{
			Filename: entry.Name(),
			Title:    conv.Title,
			Date:     conv.Date,
		})
	}

	// Dates are ISO-8601 strings, so lexicographic order is chronological.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Date > summaries[j].Date
	})

	return summaries, nil
}

// Load returns the full record for filename.
func (a *Archive) Load(ctx context.Context, filename string) (*domain.Conversation, error) {
	if filepath.Base(filename) != filename || filename == "." || filename == ".." {
		return nil, domain.ErrNotFound
	}
	return a.read(filename)
}

func (a *Archive) read(filename string) (*domain.Conversation, error) {
	data, err := os.ReadFile(filepath.Join(a.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading conversation file: %w", err)
	}

	var conv domain.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return &conv, nil
}

// sanitizeTitle keeps letters, digits and spaces, and trims trailing
// whitespace. A title with nothing left gets a generic name.
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimRight(b.String(), " ")
	if safe == "" {
		safe = "conversation"
	}
	return safe
}
