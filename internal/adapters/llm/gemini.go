package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/avillegas/chatrelay/internal/config"
	"github.com/avillegas/chatrelay/internal/domain"
)

// GeminiClient implements domain.GenerationClient on the Gemini SDK.
// Plain text turns use the lightweight text model, image-bearing turns
// the multimodal one.
type GeminiClient struct {
	client      *genai.Client
	textModel   string
	visionModel string
}

// NewGeminiClient creates a generation client. An API key selects the
// Gemini API backend; otherwise the client talks to Vertex AI using the
// configured project and location.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	var clientCfg *genai.ClientConfig
	if cfg.APIKey != "" {
		clientCfg = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	} else {
		if cfg.GCPProjectID == "" || cfg.GCPLocation == "" {
			return nil, fmt.Errorf("RELAY_GCP_PROJECT and RELAY_GCP_LOCATION must be set when GEMINI_API_KEY is empty")
		}
		clientCfg = &genai.ClientConfig{
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}, nil
}

// GenerateReply implements domain.GenerationClient for text-only turns.
func (g *GeminiClient) GenerateReply(ctx context.Context, history []*domain.Message) (string, error) {
	contents := toContents(history)
	return g.generate(ctx, g.textModel, contents)
}

// GenerateWithImage implements domain.GenerationClient for image-bearing
// turns. The final user turn carries the image bytes inline.
func (g *GeminiClient) GenerateWithImage(ctx context.Context, history []*domain.Message, mimeType string, data []byte) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("empty history for image turn")
	}

	contents := toContents(history[:len(history)-1])

	last := history[len(history)-1]
	parts := make([]*genai.Part, 0, len(last.Parts)+1)
	for _, text := range last.Parts {
		parts = append(parts, genai.NewPartFromText(text))
	}
	parts = append(parts, genai.NewPartFromBytes(data, mimeType))
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	return g.generate(ctx, g.visionModel, contents)
}

func (g *GeminiClient) generate(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	temp := float32(0.7)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: outputTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}

	return text, nil
}

func toContents(history []*domain.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range history {
		var role genai.Role
		switch m.Role {
		case domain.RoleModel:
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}

		for _, text := range m.Parts {
			contents = append(contents, genai.NewContentFromText(text, role))
		}
	}
	return contents
}
