package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services/referencedata"
)

func TestServiceSessionLifecycle(t *testing.T) {
	provider := &MockProvider{}
	provider.On("Generate", mock.Anything, mock.Anything).Return("risposta", nil)

	service := newTestService(provider, referencedata.Data{Exhibitors: testExhibitors}, time.Second)
	assert.Equal(t, 0, service.Count())
	assert.Equal(t, "mock", service.ProviderName())

	first := service.Open()
	second := service.Open()
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 2, service.Count())

	got, err := service.Get(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)

	_, err = first.Submit(context.Background(), "Bindi")
	require.NoError(t, err)
	assert.Len(t, first.Snapshot().Messages, 3)
	assert.Len(t, second.Snapshot().Messages, 1, "sessions do not share transcripts")

	require.NoError(t, service.Close(first.ID()))
	assert.Equal(t, 1, service.Count())

	_, err = service.Get(first.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, service.Close(first.ID()), ErrSessionNotFound)

	reopened := service.Open()
	snapshot := reopened.Snapshot()
	require.Len(t, snapshot.Messages, 1, "a reopened panel starts from the greeting")
	assert.Equal(t, Greeting, snapshot.Messages[0].Text)
	assert.False(t, snapshot.IsWaiting)
}

func TestServiceDefaults(t *testing.T) {
	service := NewService(nil, nil, Options{})

	assert.Equal(t, DefaultTimeout, service.opts.Timeout)
	assert.Equal(t, "full", service.opts.Grounding.Name())
	assert.Equal(t, "none", service.ProviderName())
	assert.Equal(t, DefaultIdleTimeout, service.opts.IdleTimeout)
	assert.NotNil(t, service.opts.Now)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestEvictIdle(t *testing.T) {
	clock := &testClock{now: fixedNow()}
	release := make(chan struct{})
	provider := funcProvider(func(ctx context.Context, prompt string) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "risposta", nil
	})

	service := NewService(provider, staticSource{}, Options{
		Timeout:     time.Minute,
		IdleTimeout: 10 * time.Minute,
		Now:         clock.Now,
	})

	abandoned := service.Open()
	touched := service.Open()
	busy := service.Open()

	for i := 0; i < 1000; i++ {
		service.Open()
	}
	assert.Equal(t, 1003, service.Count())

	replied := make(chan struct{})
	_, err := busy.SubmitAsync(context.Background(), "Bindi", func(Message) { close(replied) })
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	touched.Touch()
	assert.Equal(t, 0, service.EvictIdle(), "nothing is idle yet")

	clock.Advance(6 * time.Minute)
	assert.Equal(t, 1001, service.EvictIdle())
	assert.Equal(t, 2, service.Count())

	_, err = service.Get(abandoned.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = abandoned.Submit(context.Background(), "ancora qui?")
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = service.Get(touched.ID())
	assert.NoError(t, err, "touched panel survives")
	_, err = service.Get(busy.ID())
	assert.NoError(t, err, "a turn in flight keeps the panel")

	close(release)
	<-replied

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 2, service.EvictIdle())
	assert.Equal(t, 0, service.Count())
}

func TestRunEvictionStopsWithContext(t *testing.T) {
	clock := &testClock{now: fixedNow()}
	service := NewService(nil, staticSource{}, Options{IdleTimeout: time.Minute, Now: clock.Now})
	service.Open()
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.RunEviction(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return service.Count() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
