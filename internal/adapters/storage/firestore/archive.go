package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/avillegas/chatrelay/internal/domain"
	"github.com/avillegas/chatrelay/internal/observability"
)

// Archive stores conversation snapshots in a Firestore collection instead
// of local JSON files. Document IDs play the role of filenames so it
// satisfies the same interface as the files backend.
type Archive struct {
	client *firestore.Client
}

// NewArchive creates a Firestore-backed conversation archive.
func NewArchive(ctx context.Context, projectID string) (*Archive, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore archive")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Archive{client: client}, nil
}

func (a *Archive) conversationsCol() *firestore.CollectionRef {
	return a.client.Collection("conversations")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	Title     string       `firestore:"title"`
	Date      string       `firestore:"date"`
	SessionID string       `firestore:"session_id"`
	Messages  []messageDoc `firestore:"messages"`
}

type messageDoc struct {
	MessageID string    `firestore:"message_id"`
	Role      string    `firestore:"role"`
	Parts     []string  `firestore:"parts"`
	CreatedAt time.Time `firestore:"timestamp"`
	HasImage  bool      `firestore:"has_image"`
	ImagePath string    `firestore:"image_path"`
}

// ─────────────────────────────────────────
// ConversationArchive implementation
// ─────────────────────────────────────────

func (a *Archive) Save(ctx context.Context, conv *domain.Conversation) (string, error) {
	if len(conv.Messages) == 0 {
		return "", domain.ErrEmptySession
	}

	docID := uuid.NewString()

	doc := conversationDoc{
		Title:     conv.Title,
		Date:      conv.Date,
		SessionID: string(conv.SessionID),
		Messages:  toMessageDocs(conv.Messages),
	}

	if _, err := a.conversationsCol().Doc(docID).Create(ctx, doc); err != nil {
		return "", fmt.Errorf("firestore Save: %w", err)
	}
	return docID, nil
}

func (a *Archive) List(ctx context.Context) ([]*domain.ConversationSummary, error) {
	log := observability.LoggerFromContext(ctx)

	q := a.conversationsCol().OrderBy("date", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.ConversationSummary{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore List: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			log.Warn("skipping undecodable conversation document", "doc_id", snap.Ref.ID, "error", err)
			continue
		}

		out = append(out, &domain.ConversationSummary{
			Filename: snap.Ref.ID,
			Title:    doc.Title,
			Date:     doc.Date,
		})
	}
	return out, nil
}

func (a *Archive) Load(ctx context.Context, filename string) (*domain.Conversation, error) {
	snap, err := a.conversationsCol().Doc(filename).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore Load: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	return &domain.Conversation{
		Title:     doc.Title,
		Date:      doc.Date,
		SessionID: domain.SessionID(doc.SessionID),
		Messages:  toMessages(doc.Messages),
	}, nil
}

func toMessageDocs(msgs []*domain.Message) []messageDoc {
	out := make([]messageDoc, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageDoc{
			MessageID: string(m.ID),
			Role:      string(m.Role),
			Parts:     m.Parts,
			CreatedAt: m.CreatedAt,
			HasImage:  m.HasImage,
			ImagePath: m.ImagePath,
		})
	}
	return out
}

func toMessages(docs []messageDoc) []*domain.Message {
	out := make([]*domain.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Message{
			ID:        domain.MessageID(d.MessageID),
			Role:      domain.Role(d.Role),
			Parts:     d.Parts,
			CreatedAt: d.CreatedAt,
			HasImage:  d.HasImage,
			ImagePath: d.ImagePath,
		})
	}
	return out
}
