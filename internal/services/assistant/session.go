package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	domain "github.com/matteolinarello/Web-App-SIGEP/internal/domain/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/referencedata"
)

var (
	ErrBlankInput      = errors.New("blank input")
	ErrTurnInProgress  = errors.New("a turn is already in progress")
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one open assistant panel. Its transcript is append-only and at
// most one turn is in flight at a time.
type Session struct {
	id        string
	provider  domain.Provider
	grounding Grounding
	prompt    *GroundingPrompt
	data      referencedata.Data
	timeout   time.Duration
	now       func() time.Time

	mu         sync.RWMutex
	messages   []Message
	seq        uint64
	waiting    bool
	closed     bool
	lastActive time.Time
}

func newSession(id string, provider domain.Provider, data referencedata.Data, opts Options) *Session {
	s := &Session{
		id:        id,
		provider:  provider,
		grounding: opts.Grounding,
		prompt:    NewGroundingPrompt(),
		data:      data,
		timeout:   opts.Timeout,
		now:       opts.Now,
	}
	s.appendLocked(SenderBot, Greeting)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the transcript and the waiting flag
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	return Snapshot{SessionID: s.id, Messages: messages, IsWaiting: s.waiting}
}

func (s *Session) IsWaiting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.waiting
}

// Submit runs one turn and returns the bot message appended for it. The only
// errors are rejections (ErrBlankInput, ErrTurnInProgress, ErrSessionClosed),
// which leave the transcript untouched. Provider failures become the
// Apology message.
func (s *Session) Submit(ctx context.Context, text string) (Message, error) {
	if _, err := s.begin(text); err != nil {
		return Message{}, err
	}
	return s.finish(ctx, text), nil
}

// SubmitAsync appends the user message, then runs the rest of the turn in the
// background and hands the bot message to done. The returned snapshot shows
// the session waiting for the reply.
func (s *Session) SubmitAsync(ctx context.Context, text string, done func(Message)) (Snapshot, error) {
	snapshot, err := s.begin(text)
	if err != nil {
		return Snapshot{}, err
	}

	go func() {
		reply := s.finish(ctx, text)
		if done != nil {
			done(reply)
		}
	}()

	return snapshot, nil
}

// Touch marks the panel as in use without changing its transcript
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
}

// idle reports whether the panel has had no activity for longer than timeout.
// A panel waiting for a reply is never idle.
func (s *Session) idle(now time.Time, timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.waiting && now.Sub(s.lastActive) > timeout
}

// Close discards the panel. Later submissions are rejected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) begin(text string) (Snapshot, error) {
	if strings.TrimSpace(text) == "" {
		return Snapshot{}, ErrBlankInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}
	if s.waiting {
		return Snapshot{}, ErrTurnInProgress
	}

	s.appendLocked(SenderUser, text)
	s.waiting = true

	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	return Snapshot{SessionID: s.id, Messages: messages, IsWaiting: true}, nil
}

func (s *Session) finish(ctx context.Context, question string) Message {
	reply := s.answer(ctx, question)

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.appendLocked(SenderBot, reply)
	s.waiting = false
	return msg
}

func (s *Session) answer(ctx context.Context, question string) (reply string) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("session_id", s.id).
				Interface("panic", r).
				Msg("Provider panicked during turn")
			reply = Apology
		}
	}()

	text, err := s.generate(ctx, question)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.NewProviderError(domain.KindEmptyResponse, s.providerName(), domain.ErrEmptyResponse)
	}
	if err != nil {
		log.Warn().
			Err(err).
			Str("session_id", s.id).
			Str("provider", s.providerName()).
			Str("kind", string(domain.Classify(err))).
			Dur("elapsed", time.Since(start)).
			Msg("Assistant turn failed")
		return Apology
	}

	log.Info().
		Str("session_id", s.id).
		Str("provider", s.providerName()).
		Int("reply_length", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Assistant turn answered")
	return text
}

type generation struct {
	text string
	err  error
}

// generate enforces the turn timeout even when the provider ignores ctx
func (s *Session) generate(ctx context.Context, question string) (string, error) {
	if s.provider == nil {
		return "", domain.NewProviderError(domain.KindAuth, "none", domain.ErrMissingCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	grounded := s.grounding.Select(s.data, question)
	prompt := s.prompt.Render(grounded.Exhibitors, grounded.Events, question)

	log.Debug().
		Str("session_id", s.id).
		Str("grounding", s.grounding.Name()).
		Int("prompt_length", len(prompt)).
		Msg("Sending grounding prompt")

	result := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- generation{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		text, err := s.provider.Generate(ctx, prompt)
		result <- generation{text: text, err: err}
	}()

	select {
	case res := <-result:
		return res.text, res.err
	case <-ctx.Done():
		kind := domain.KindTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			kind = domain.KindNetwork
		}
		return "", domain.NewProviderError(kind, s.providerName(), ctx.Err())
	}
}

func (s *Session) providerName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

func (s *Session) appendLocked(sender Sender, text string) Message {
	s.seq++
	msg := Message{
		ID:        uuid.New().String(),
		Seq:       s.seq,
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
	}
	s.messages = append(s.messages, msg)
	s.lastActive = msg.Timestamp
	return msg
}
