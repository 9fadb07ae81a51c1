// Package chat implements the request-level protocol for a conversation
// turn: record the user's message, relay the full transcript to the
// generation client, and record the reply.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avillegas/chatrelay/internal/domain"
	"github.com/avillegas/chatrelay/internal/observability"
)

type Service struct {
	gen         domain.GenerationClient
	transcripts domain.TranscriptStore
	archive     domain.ConversationArchive
	uploads     domain.AttachmentStore
	now         func() time.Time
}

func NewService(
	gen domain.GenerationClient,
	transcripts domain.TranscriptStore,
	archive domain.ConversationArchive,
	uploads domain.AttachmentStore,
) *Service {
	return &Service{
		gen:         gen,
		transcripts: transcripts,
		archive:     archive,
		uploads:     uploads,
		now:         time.Now,
	}
}

type SendMessageInput struct {
	SessionID domain.SessionID
	MessageID domain.MessageID
	Text      string
	IsEdited  bool
}

type SendMessageOutput struct {
	Reply         string
	SessionID     domain.SessionID
	UserMessageID domain.MessageID
	BotMessageID  domain.MessageID
}

// SendMessage runs one text turn. An edited turn rewrites the matching
// user message and drops everything after it; if the message was never
// recorded, the edit flag is ignored and the text is appended as new.
// On generation failure the user's message stays in the transcript so
// the turn can be retried or edited.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	messageID := in.MessageID
	if messageID == "" {
		messageID = domain.MessageID(uuid.NewString())
	}

	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	s.transcripts.Ensure(sessionID)

	if !in.IsEdited || !s.transcripts.EditUserMessage(sessionID, messageID, in.Text) {
		s.transcripts.Append(sessionID, &domain.Message{
			ID:        messageID,
			Role:      domain.RoleUser,
			Parts:     []string{in.Text},
			CreatedAt: s.now(),
		})
	}

	history := s.transcripts.Export(sessionID)

	reply, err := s.gen.GenerateReply(ctx, history)
	if err != nil {
		log.Error("generation failed", "error", err)
		return nil, &domain.GenerationError{Err: err}
	}

	botMsg := s.transcripts.Append(sessionID, &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      domain.RoleModel,
		Parts:     []string{reply},
		CreatedAt: s.now(),
	})

	log.Info("turn completed", "user_message_id", messageID, "bot_message_id", botMsg.ID)

	return &SendMessageOutput{
		Reply:         reply,
		SessionID:     sessionID,
		UserMessageID: messageID,
		BotMessageID:  botMsg.ID,
	}, nil
}

type SendImageMessageInput struct {
	SessionID domain.SessionID
	MessageID domain.MessageID
	Text      string
	MimeType  string
	ImageData []byte
}

type SendImageMessageOutput struct {
	Reply         string
	SessionID     domain.SessionID
	UserMessageID domain.MessageID
	BotMessageID  domain.MessageID
	ImageURL      string
}

// SendImageMessage runs one image-bearing turn: the image is stored under
// a generated name, referenced from the user message, and sent inline to
// the multimodal model.
func (s *Service) SendImageMessage(ctx context.Context, in SendImageMessageInput) (*SendImageMessageOutput, error) {
	if len(in.ImageData) == 0 {
		return nil, domain.ErrEmptyAttachment
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	messageID := in.MessageID
	if messageID == "" {
		messageID = domain.MessageID(uuid.NewString())
	}
	text := in.Text
	if text == "" {
		text = "Analyze this image"
	}

	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	filename, err := s.uploads.Save(in.ImageData)
	if err != nil {
		log.Error("failed to store upload", "error", err)
		return nil, err
	}

	s.transcripts.Ensure(sessionID)
	s.transcripts.Append(sessionID, &domain.Message{
		ID:        messageID,
		Role:      domain.RoleUser,
		Parts:     []string{text},
		CreatedAt: s.now(),
		HasImage:  true,
		ImagePath: filename,
	})

	history := s.transcripts.Export(sessionID)

	reply, err := s.gen.GenerateWithImage(ctx, history, in.MimeType, in.ImageData)
	if err != nil {
		log.Error("generation failed", "error", err)
		return nil, &domain.GenerationError{Err: err}
	}

	botMsg := s.transcripts.Append(sessionID, &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      domain.RoleModel,
		Parts:     []string{reply},
		CreatedAt: s.now(),
	})

	log.Info("image turn completed", "user_message_id", messageID, "bot_message_id", botMsg.ID, "image", filename)

	return &SendImageMessageOutput{
		Reply:         reply,
		SessionID:     sessionID,
		UserMessageID: messageID,
		BotMessageID:  botMsg.ID,
		ImageURL:      "/uploads/" + filename,
	}, nil
}

// Reset empties the session's transcript. Unknown sessions stay unknown.
func (s *Service) Reset(ctx context.Context, sessionID domain.SessionID) domain.SessionID {
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	s.transcripts.Reset(sessionID)
	observability.LoggerFromContext(ctx).Info("session reset", "session_id", sessionID)
	return sessionID
}

// Save snapshots the session's transcript into the archive and returns
// the generated record name.
func (s *Service) Save(ctx context.Context, sessionID domain.SessionID, title string) (string, error) {
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	now := s.now()
	if title == "" {
		title = "Conversation-" + now.Format("20060102-150405")
	}

	conv := &domain.Conversation{
		Title:     title,
		Date:      now.Format(time.RFC3339),
		SessionID: sessionID,
		Messages:  s.transcripts.Export(sessionID),
	}

	filename, err := s.archive.Save(ctx, conv)
	if err != nil {
		return "", err
	}

	observability.LoggerFromContext(ctx).Info("conversation saved", "session_id", sessionID, "filename", filename)
	return filename, nil
}

// UploadPath resolves a stored attachment name to a servable file path.
func (s *Service) UploadPath(filename string) (string, error) {
	return s.uploads.Path(filename)
}

// ListSaved enumerates archived conversations, newest first.
func (s *Service) ListSaved(ctx context.Context) ([]*domain.ConversationSummary, error) {
	return s.archive.List(ctx)
}

// Load restores an archived conversation into a fresh session so it never
// collides with a live one.
func (s *Service) Load(ctx context.Context, filename string) (domain.SessionID, *domain.Conversation, error) {
	conv, err := s.archive.Load(ctx, filename)
	if err != nil {
		return "", nil, err
	}

	newID := s.transcripts.LoadIntoNewSession(conv.Messages)
	observability.LoggerFromContext(ctx).Info("conversation loaded", "filename", filename, "session_id", newID)
	return newID, conv, nil
}
