package domain

import "context"

// GenerationClient defines how the core application talks to the
// generative model. History is the full transcript in append order;
// the last entry is the turn being answered.
type GenerationClient interface {
	GenerateReply(ctx context.Context, history []*Message) (string, error)
	GenerateWithImage(ctx context.Context, history []*Message, mimeType string, data []byte) (string, error)
}

// TranscriptStore owns the live per-session message sequences.
type TranscriptStore interface {
	Ensure(sessionID SessionID)
	Append(sessionID SessionID, msg *Message) *Message
	EditUserMessage(sessionID SessionID, messageID MessageID, newText string) bool
	Reset(sessionID SessionID)
	LoadIntoNewSession(msgs []*Message) SessionID
	Export(sessionID SessionID) []*Message
}

// ConversationArchive persists transcript snapshots as named records.
type ConversationArchive interface {
	Save(ctx context.Context, conv *Conversation) (filename string, err error)
	List(ctx context.Context) ([]*ConversationSummary, error)
	Load(ctx context.Context, filename string) (*Conversation, error)
}

// AttachmentStore keeps uploaded image bytes under generated names.
type AttachmentStore interface {
	Save(data []byte) (filename string, err error)
	Path(filename string) (string, error)
}
