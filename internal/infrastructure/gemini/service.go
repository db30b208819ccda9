package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	domain "github.com/matteolinarello/Web-App-SIGEP/internal/domain/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

const providerName = "gemini"

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Service calls the Gemini generateContent API. Without an API key it stays
// usable and fails every call with an auth error.
type Service struct {
	mu     sync.RWMutex
	client *genai.Client
	model  string
}

func NewService(ctx context.Context, cfg Config) (*Service, error) {
	logger.Info(logger.PROVIDER, "Initialising Gemini service")

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	if cfg.APIKey == "" {
		logger.Warn(logger.PROVIDER, "Gemini service not configured - GEMINI_API_KEY missing, every turn will fail")
		return &Service{model: cfg.Model}, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Service{client: client, model: cfg.Model}, nil
}

func (s *Service) Name() string {
	return providerName
}

func (s *Service) Model() string {
	return s.model
}

// Generate sends the prompt as a single user text and joins the text parts
// of the first candidate.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil {
		return "", domain.NewProviderError(domain.KindAuth, providerName, domain.ErrMissingCredential)
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", domain.NewProviderError(classify(err), providerName, fmt.Errorf("generate content: %w", err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", domain.NewProviderError(domain.KindEmptyResponse, providerName, domain.ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", domain.NewProviderError(domain.KindEmptyResponse, providerName, domain.ErrEmptyResponse)
	}

	if resp.UsageMetadata != nil {
		logger.Debug(logger.PROVIDER, "Gemini tokens: prompt=%d, response=%d, total=%d",
			resp.UsageMetadata.PromptTokenCount,
			resp.UsageMetadata.CandidatesTokenCount,
			resp.UsageMetadata.TotalTokenCount)
	}

	return text, nil
}

func classify(err error) domain.ErrorKind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.KindAuth
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return domain.KindTimeout
		case http.StatusBadRequest:
			// an invalid key is reported as 400 with reason API_KEY_INVALID
			if hasReason(apiErr.Details, "API_KEY_INVALID") {
				return domain.KindAuth
			}
		}
		return domain.KindProvider
	}
	return domain.Classify(err)
}

func hasReason(details []map[string]any, reason string) bool {
	for _, detail := range details {
		if r, ok := detail["reason"].(string); ok && r == reason {
			return true
		}
	}
	return false
}
