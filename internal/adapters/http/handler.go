package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/avillegas/chatrelay/internal/app/chat"
	"github.com/avillegas/chatrelay/internal/domain"
)

// apologyMessage is returned in place of a reply when the generation
// client fails. The user's message stays recorded so the turn can be
// retried or edited.
const apologyMessage = "I'm sorry, I encountered an error processing your request. Please try again."

type Server struct {
	svc            *chat.Service
	maxUploadBytes int64
}

func NewServer(svc *chat.Service, maxUploadBytes int64) http.Handler {
	s := &Server{svc: svc, maxUploadBytes: maxUploadBytes}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(withRequestContext)
	r.Use(withLogging)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))
	r.Use(withCORS)

	r.Post("/chat", s.handleChat)
	r.Post("/chat-with-image", s.handleChatWithImage)
	r.Get("/uploads/{filename}", s.handleUploadedFile)
	r.Post("/save-conversation", s.handleSaveConversation)
	r.Get("/get-conversations", s.handleGetConversations)
	r.Get("/load-conversation/{filename}", s.handleLoadConversation)
	r.Post("/reset", s.handleReset)

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	IsEdited  bool   `json:"is_edited,omitempty"`
}

type chatResponse struct {
	Response      string `json:"response"`
	SessionID     string `json:"session_id"`
	UserMessageID string `json:"user_message_id"`
	BotMessageID  string `json:"bot_message_id"`
	ImageURL      string `json:"image_url,omitempty"`
}

type chatErrorResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

type saveConversationRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Title     string `json:"title,omitempty"`
}

type saveConversationResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

type conversationListResponse struct {
	Conversations []*domain.ConversationSummary `json:"conversations"`
}

type loadConversationResponse struct {
	Status    string            `json:"status"`
	SessionID string            `json:"session_id"`
	Title     string            `json:"title"`
	Messages  []*domain.Message `json:"messages"`
}

type resetRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type resetResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	sessionID := domain.SessionID(req.SessionID)
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	out, err := s.svc.SendMessage(r.Context(), chat.SendMessageInput{
		SessionID: sessionID,
		MessageID: domain.MessageID(req.MessageID),
		Text:      req.Message,
		IsEdited:  req.IsEdited,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, chatErrorResponse{
			Response:  apologyMessage,
			SessionID: string(sessionID),
			Error:     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:      out.Reply,
		SessionID:     string(out.SessionID),
		UserMessageID: string(out.UserMessageID),
		BotMessageID:  string(out.BotMessageID),
	})
}

func (s *Server) handleChatWithImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, domain.ErrMissingAttachment)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		errorJSON(w, http.StatusBadRequest, domain.ErrEmptyAttachment)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, domain.ErrEmptyAttachment)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	out, err := s.svc.SendImageMessage(r.Context(), chat.SendImageMessageInput{
		SessionID: domain.SessionID(r.FormValue("session_id")),
		MessageID: domain.MessageID(r.FormValue("message_id")),
		Text:      r.FormValue("message"),
		MimeType:  mimeType,
		ImageData: data,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyAttachment) {
			errorJSON(w, http.StatusBadRequest, err)
			return
		}
		errorJSON(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:      out.Reply,
		SessionID:     string(out.SessionID),
		UserMessageID: string(out.UserMessageID),
		BotMessageID:  string(out.BotMessageID),
		ImageURL:      out.ImageURL,
	})
}

func (s *Server) handleUploadedFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := s.svc.UploadPath(filename)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, path)
}

func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var req saveConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	filename, err := s.svc.Save(r.Context(), domain.SessionID(req.SessionID), req.Title)
	if err != nil {
		if errors.Is(err, domain.ErrEmptySession) {
			badRequest(w, "No conversation to save")
			return
		}
		errorJSON(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, saveConversationResponse{
		Status:   "success",
		Message:  "Conversation saved successfully",
		Filename: filename,
	})
}

func (s *Server) handleGetConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.svc.ListSaved(r.Context())
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, conversationListResponse{Conversations: summaries})
}

func (s *Server) handleLoadConversation(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	sessionID, conv, err := s.svc.Load(r.Context(), filename)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, loadConversationResponse{
		Status:    "success",
		SessionID: string(sessionID),
		Title:     conv.Title,
		Messages:  conv.Messages,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	// Reset is idempotent and never fails; an unreadable body just means
	// the default session.
	_ = json.NewDecoder(r.Body).Decode(&req)

	sessionID := s.svc.Reset(r.Context(), domain.SessionID(req.SessionID))

	writeJSON(w, http.StatusOK, resetResponse{
		Status:    "success",
		Message:   "Conversation reset successfully",
		SessionID: string(sessionID),
	})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func errorJSON(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}
