package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/matteolinarello/Web-App-SIGEP/internal/config"
	domain "github.com/matteolinarello/Web-App-SIGEP/internal/domain/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/internal/infrastructure/gemini"
	"github.com/matteolinarello/Web-App-SIGEP/internal/infrastructure/openai"
	"github.com/matteolinarello/Web-App-SIGEP/internal/infrastructure/redis"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/directory"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/referencedata"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/session"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	assistantService *assistant.Service
	directoryService *directory.Service
	loader           *referencedata.Loader
	redisService     *redis.Service
	sessionService   *session.Service
}

// InitializeServices wires the reference data, the generation provider and
// the panel services from the environment.
func InitializeServices(ctx context.Context) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	assistantConfig, err := config.GetAssistantConfig()
	if err != nil {
		return nil, err
	}

	dataConfig := config.GetReferenceDataConfig()
	loader := referencedata.NewLoader(dataConfig.ExhibitorsPath, dataConfig.EventsPath,
		referencedata.WithBundledFallback(!dataConfig.DisableBundled))
	data := loader.Load()
	log.Info().
		Str("exhibitors", dataConfig.ExhibitorsPath).
		Str("events", dataConfig.EventsPath).
		Int("diagnostics", len(loader.Diagnostics())).
		Msg("Initializing reference data")
	if data.Empty() {
		log.Warn().Msg("No reference data available - answers will not be grounded")
	}

	provider, err := NewProvider(ctx, assistantConfig)
	if err != nil {
		log.Error().Err(err).Str("provider", assistantConfig.Provider).Msg("Failed to initialize generation provider")
		return nil, fmt.Errorf("failed to initialize %s provider: %w", assistantConfig.Provider, err)
	}

	assistantService := assistant.NewService(provider, loader, assistant.Options{
		Timeout:     assistantConfig.Timeout,
		IdleTimeout: assistantConfig.IdleTimeout,
		Grounding:   NewGrounding(assistantConfig),
	})
	log.Info().Msg("Initializing assistant service")

	directoryService := directory.NewService(loader)

	// Redis is optional; panel cookies fall back to memory
	redisService, err := redis.NewService(ctx, redis.Config{
		URL:      config.GetRedisURL(),
		Password: config.GetRedisPassword(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable - panel sessions will be kept in memory")
		redisService = nil
	}

	sessionService := session.NewService(redisService)
	log.Info().Msg("Initializing session service")

	log.Info().Msg("All services initialized successfully")

	return &Services{
		assistantService: assistantService,
		directoryService: directoryService,
		loader:           loader,
		redisService:     redisService,
		sessionService:   sessionService,
	}, nil
}

// NewProvider builds the configured generation provider. A missing key is
// not an error: the provider is built unconfigured and every turn fails.
func NewProvider(ctx context.Context, cfg config.AssistantConfig) (domain.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewService(openai.Config{
			APIKey:  config.GetOpenAIKey(),
			Model:   cfg.Model,
			BaseURL: config.GetOpenAIBaseURL(),
		}), nil
	case config.ProviderGemini:
		service, err := gemini.NewService(ctx, gemini.Config{
			APIKey:  config.GetGeminiAPIKey(),
			Model:   cfg.Model,
			BaseURL: config.GetGeminiBaseURL(),
		})
		if err != nil {
			return nil, err
		}
		return service, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func NewGrounding(cfg config.AssistantConfig) assistant.Grounding {
	if cfg.Grounding == config.GroundingLexical {
		return assistant.LexicalGrounding{Limit: cfg.GroundingLimit}
	}
	return assistant.FullGrounding{}
}

// Close releases the Redis connection if one was opened
func (s *Services) Close() error {
	if s.redisService != nil {
		return s.redisService.Close()
	}
	return nil
}

func (s *Services) GetAssistantService() *assistant.Service {
	return s.assistantService
}

func (s *Services) GetDirectoryService() *directory.Service {
	return s.directoryService
}

func (s *Services) GetReferenceDataLoader() *referencedata.Loader {
	return s.loader
}

func (s *Services) GetSessionService() *session.Service {
	return s.sessionService
}
