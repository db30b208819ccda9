package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"

	domain "github.com/matteolinarello/Web-App-SIGEP/internal/domain/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

const providerName = "openai"

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Service struct {
	mu     sync.RWMutex
	client *openai.Client
	model  string
}

func NewService(cfg Config) *Service {
	logger.Info(logger.PROVIDER, "Initialising OpenAI service")

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	if cfg.APIKey == "" {
		logger.Warn(logger.PROVIDER, "OpenAI service not configured - OPENAI_KEY missing, every turn will fail")
		return &Service{model: cfg.Model}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Service{
		mu:     sync.RWMutex{},
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (s *Service) GetClient() *openai.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Service) Name() string {
	return providerName
}

func (s *Service) Model() string {
	return s.model
}

// Generate sends the prompt as one user message and returns the first choice
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	client := s.GetClient()
	if client == nil {
		return "", domain.NewProviderError(domain.KindAuth, providerName, domain.ErrMissingCredential)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", domain.NewProviderError(classify(err), providerName, fmt.Errorf("chat completion: %w", err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", domain.NewProviderError(domain.KindEmptyResponse, providerName, domain.ErrEmptyResponse)
	}

	logger.Debug(logger.PROVIDER, "OpenAI tokens: prompt=%d, completion=%d, total=%d",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}

func classify(err error) domain.ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.KindAuth
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return domain.KindTimeout
		}
		return domain.KindProvider
	}
	return domain.Classify(err)
}
