package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/matteolinarello/Web-App-SIGEP/internal/domain/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/referencedata"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

const (
	DefaultTimeout = 30 * time.Second

	// DefaultIdleTimeout matches the lifetime of the panel cookie
	DefaultIdleTimeout = time.Hour
)

// DataSource supplies the reference datasets; *referencedata.Loader implements it
type DataSource interface {
	Load() referencedata.Data
}

// Options tune every session opened by a Service
type Options struct {
	Timeout     time.Duration
	IdleTimeout time.Duration
	Grounding   Grounding
	Now         func() time.Time
}

// Service keeps the open panels of the process. Sessions live in memory only.
type Service struct {
	provider domain.Provider
	source   DataSource
	opts     Options
	sessions sync.Map
}

func NewService(provider domain.Provider, source DataSource, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Grounding == nil {
		opts.Grounding = FullGrounding{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	name := "none"
	if provider != nil {
		name = provider.Name()
	}
	logger.Info(logger.ASSISTANT, "Assistant service ready: provider=%s grounding=%s timeout=%s",
		name, opts.Grounding.Name(), opts.Timeout)

	return &Service{
		provider: provider,
		source:   source,
		opts:     opts,
	}
}

// Open starts a fresh panel seeded with the greeting
func (s *Service) Open() *Session {
	var data referencedata.Data
	if s.source != nil {
		data = s.source.Load()
	}

	session := newSession(uuid.New().String(), s.provider, data, s.opts)
	s.sessions.Store(session.ID(), session)

	logger.Debug(logger.ASSISTANT, "Opened assistant session %s", session.ID())
	return session
}

func (s *Service) Get(id string) (*Session, error) {
	value, ok := s.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return value.(*Session), nil
}

// Close discards the panel and its transcript
func (s *Service) Close(id string) error {
	value, ok := s.sessions.LoadAndDelete(id)
	if !ok {
		return ErrSessionNotFound
	}
	value.(*Session).Close()

	logger.Debug(logger.ASSISTANT, "Closed assistant session %s", id)
	return nil
}

// EvictIdle closes every panel idle for longer than the idle timeout and
// returns how many it closed.
func (s *Service) EvictIdle() int {
	now := s.opts.Now()
	evicted := 0
	s.sessions.Range(func(key, value interface{}) bool {
		session := value.(*Session)
		if !session.idle(now, s.opts.IdleTimeout) {
			return true
		}
		if _, loaded := s.sessions.LoadAndDelete(key); loaded {
			session.Close()
			evicted++
		}
		return true
	})

	if evicted > 0 {
		logger.Info(logger.ASSISTANT, "Evicted %d idle assistant sessions", evicted)
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done
func (s *Service) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// Count returns the number of open panels
func (s *Service) Count() int {
	count := 0
	s.sessions.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

func (s *Service) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}
