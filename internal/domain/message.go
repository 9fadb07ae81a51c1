package domain

// Message represents one turn in a transcript (user or model).
type Message struct {
	ID        MessageID `json:"message_id"`
	Role      Role      `json:"role"`
	Parts     []string  `json:"parts"`
	CreatedAt Timestamp `json:"timestamp"`

	// Set on image-bearing user turns. ImagePath points at a file owned
	// by the upload store; the bytes are not carried by the message.
	HasImage  bool   `json:"has_image,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}

// Conversation is the persisted snapshot of a session's transcript.
type Conversation struct {
	Title     string     `json:"title"`
	Date      string     `json:"date"`
	SessionID SessionID  `json:"session_id"`
	Messages  []*Message `json:"messages"`
}

// ConversationSummary is one entry in a saved-conversation listing.
type ConversationSummary struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Date     string `json:"date"`
}
