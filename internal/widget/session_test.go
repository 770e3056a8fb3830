package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/portfolio/backend/internal/chatcontext"
	"github.com/portfolio/backend/internal/llm"
	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/storage/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLoader struct {
	snap    chatcontext.Snapshot
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (l *fakeLoader) Snapshot(ctx context.Context) chatcontext.Snapshot {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	if l.release != nil {
		<-l.release
	}
	snap := l.snap
	snap.Loaded = true
	return snap
}

type fakeGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	release  chan struct{}
	requests []llm.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	release := g.release
	g.mu.Unlock()
	if release != nil {
		<-release
	}
	return g.reply, g.err
}

func liveSnapshot() chatcontext.Snapshot {
	return chatcontext.Snapshot{
		Profile:   &models.Profile{Name: "Sam"},
		Companies: []models.Company{{Name: "Acme", Position: "Developer"}},
		Projects:  []models.Project{{Title: "Relay"}},
	}
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, time.Second, time.Millisecond)
}

func TestNewSessionStartsClosedWithGreeting(t *testing.T) {
	s := NewSession(&fakeLoader{}, &fakeGenerator{}, Options{})

	assert.Equal(t, StateClosed, s.State())
	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, RoleAssistant, transcript[0].Role)
	assert.Equal(t, chatcontext.Greeting, transcript[0].Content)
}

func TestAskRejections(t *testing.T) {
	s := NewSession(&fakeLoader{}, &fakeGenerator{reply: "hi"}, Options{})

	_, err := s.Ask(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrClosed)

	s.Open(context.Background())
	_, err = s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.Transcript(), 1)
}

func TestOpenIsIdempotent(t *testing.T) {
	loader := &fakeLoader{snap: liveSnapshot()}
	s := NewSession(loader, &fakeGenerator{}, Options{})

	s.Open(context.Background())
	s.Open(context.Background())

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 1, loader.calls)
}

func TestAskReturnsModelReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Sam works at Acme."}
	s := NewSession(&fakeLoader{snap: liveSnapshot()}, gen, Options{Resume: resume.Default()})
	s.Open(context.Background())

	var mu sync.Mutex
	var states []State
	s.OnState(func(st State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	msg, err := s.Ask(context.Background(), "Where does Sam work?")
	require.NoError(t, err)
	assert.Equal(t, "Sam works at Acme.", msg.Content)
	assert.False(t, msg.Fallback)
	assert.Equal(t, StateReady, s.State())

	transcript := s.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, RoleUser, transcript[1].Role)
	assert.Equal(t, "Where does Sam work?", transcript[1].Content)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, "Where does Sam work?", gen.requests[0].Question)
	assert.Contains(t, gen.requests[0].Prompt, "You are Sam's AI assistant")
	assert.Contains(t, gen.requests[0].Prompt, "- Acme: Developer")
	assert.Contains(t, gen.requests[0].Prompt, "User Question: Where does Sam work?")

	mu.Lock()
	assert.Equal(t, []State{StateWaitingForReply, StateReady}, states)
	mu.Unlock()
}

func TestAskWhileLoadingReturnsWaitingMessage(t *testing.T) {
	loader := &fakeLoader{snap: liveSnapshot(), release: make(chan struct{})}
	gen := &fakeGenerator{reply: "unused"}
	s := NewSession(loader, gen, Options{Resume: resume.Default()})

	opened := make(chan struct{})
	go func() {
		s.Open(context.Background())
		close(opened)
	}()
	waitForState(t, s, StateLoadingContext)

	msg, err := s.Ask(context.Background(), "hello?")
	require.NoError(t, err)
	assert.Equal(t, chatcontext.WaitingMessage(resume.Default().Name()), msg.Content)
	assert.Empty(t, gen.requests)

	close(loader.release)
	<-opened
	assert.Equal(t, StateReady, s.State())
}

func TestFailedReplyUsesFallback(t *testing.T) {
	gen := &fakeGenerator{err: llm.ErrModelLoading}
	s := NewSession(&fakeLoader{snap: liveSnapshot()}, gen, Options{})
	s.Open(context.Background())

	var mu sync.Mutex
	var states []State
	s.OnState(func(st State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	msg, err := s.Ask(context.Background(), "Tell me about your projects")
	require.NoError(t, err)
	assert.True(t, msg.Fallback)
	assert.Equal(t, "Sam has 1 projects, including Relay. Check out the Projects section!", msg.Content)
	assert.Equal(t, StateReady, s.State())

	mu.Lock()
	assert.Equal(t, []State{StateWaitingForReply, StateErrorShown, StateReady}, states)
	mu.Unlock()
}

func TestEmptyReplyUsesFallback(t *testing.T) {
	s := NewSession(&fakeLoader{snap: liveSnapshot()}, &fakeGenerator{reply: "  "}, Options{})
	s.Open(context.Background())

	msg, err := s.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, msg.Fallback)
}

func TestAskWhilePendingIsBusy(t *testing.T) {
	gen := &fakeGenerator{reply: "done", release: make(chan struct{})}
	s := NewSession(&fakeLoader{snap: liveSnapshot()}, gen, Options{})
	s.Open(context.Background())

	first := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "first")
		first <- err
	}()
	waitForState(t, s, StateWaitingForReply)

	_, err := s.Ask(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.release)
	require.NoError(t, <-first)
	assert.Equal(t, StateReady, s.State())
}

func TestReplyArrivesAfterClose(t *testing.T) {
	gen := &fakeGenerator{reply: "late answer", release: make(chan struct{})}
	s := NewSession(&fakeLoader{snap: liveSnapshot()}, gen, Options{})
	s.Open(context.Background())

	var got []Message
	var mu sync.Mutex
	s.OnMessage(func(m Message) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	asked := make(chan error, 1)
	go func() {
		_, err := s.Ask(ctx, "question")
		asked <- err
	}()
	waitForState(t, s, StateWaitingForReply)

	cancel()
	assert.True(t, errors.Is(<-asked, context.Canceled))
	s.Close()

	close(gen.release)
	s.Wait()

	assert.Equal(t, StateClosed, s.State())
	transcript := s.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, "late answer", transcript[2].Content)

	mu.Lock()
	require.Len(t, got, 2)
	assert.Equal(t, "late answer", got[1].Content)
	mu.Unlock()
}

func TestTrimIncompleteReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Sam builds APIs. Sam loves Go! The latest project"}
	s := NewSession(&fakeLoader{snap: liveSnapshot()}, gen, Options{TrimIncomplete: true})
	s.Open(context.Background())

	msg, err := s.Ask(context.Background(), "What does Sam do?")
	require.NoError(t, err)
	assert.Equal(t, "Sam builds APIs. Sam loves Go!", msg.Content)
}

func TestReopenReloadsContext(t *testing.T) {
	loader := &fakeLoader{snap: liveSnapshot()}
	s := NewSession(loader, &fakeGenerator{reply: "ok"}, Options{})

	s.Open(context.Background())
	s.Close()
	s.Open(context.Background())

	assert.Equal(t, 2, loader.calls)
	assert.Equal(t, StateReady, s.State())
}

func TestSubscriberAddedDuringNotificationSeesLaterMessages(t *testing.T) {
	s := NewSession(&fakeLoader{snap: liveSnapshot()}, &fakeGenerator{reply: "hello back"}, Options{})
	s.Open(context.Background())

	var mu sync.Mutex
	var first, second []string
	s.OnMessage(func(m Message) {
		mu.Lock()
		first = append(first, m.Content)
		register := len(first) == 1
		mu.Unlock()
		if register {
			s.OnMessage(func(m Message) {
				mu.Lock()
				second = append(second, m.Content)
				mu.Unlock()
			})
		}
	})

	_, err := s.Ask(context.Background(), "hello")
	require.NoError(t, err)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello", "hello back"}, first)
	assert.Equal(t, []string{"hello back"}, second)
}
