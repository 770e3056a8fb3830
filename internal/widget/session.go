// Package widget implements the chat companion's conversation state: when
// portfolio data is loaded, which messages have been exchanged and whether a
// reply is pending.
package widget

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/chatcontext"
	"github.com/portfolio/backend/internal/llm"
	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/pkg/logger"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrClosed       = errors.New("chat is closed")
	ErrBusy         = errors.New("a reply is already pending")
)

type State string

const (
	StateClosed          State = "closed"
	StateLoadingContext  State = "loading-context"
	StateReady           State = "ready"
	StateWaitingForReply State = "waiting-for-reply"
	StateErrorShown      State = "error-shown"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role     Role      `json:"role"`
	Content  string    `json:"content"`
	Time     time.Time `json:"time"`
	Fallback bool      `json:"fallback,omitempty"`
}

// Loader supplies the live portfolio data when the chat opens.
type Loader interface {
	Snapshot(ctx context.Context) chatcontext.Snapshot
}

// Generator produces a reply for a fully built prompt.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

type Options struct {
	Resume resume.Record
	// TrimIncomplete drops a trailing sentence cut off by the token limit.
	TrimIncomplete bool
	Now            func() time.Time
}

type Session struct {
	loader Loader
	gen    Generator
	rec    resume.Record
	trim   bool
	now    func() time.Time

	mu         sync.Mutex
	state      State
	snap       chatcontext.Snapshot
	transcript []Message
	pending    bool
	onMessage  []func(Message)
	onState    []func(State)

	replies sync.WaitGroup
}

func NewSession(loader Loader, gen Generator, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		loader: loader,
		gen:    gen,
		rec:    opts.Resume,
		trim:   opts.TrimIncomplete,
		now:    now,
		state:  StateClosed,
	}
	s.transcript = []Message{{Role: RoleAssistant, Content: chatcontext.Greeting, Time: now()}}
	return s
}

// OnMessage registers fn to be called with every message appended after
// registration.
func (s *Session) OnMessage(fn func(Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = append(s.onMessage, fn)
}

// OnState registers fn to be called on every state transition.
func (s *Session) OnState(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = append(s.onState, fn)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.transcript...)
}

// Open loads portfolio data and makes the session ready. Opening a session
// that is not closed does nothing.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateClosed {
		s.mu.Unlock()
		return
	}
	notify := s.setState(StateLoadingContext)
	s.snap = chatcontext.Snapshot{}
	s.mu.Unlock()
	notify()

	snap := s.loader.Snapshot(ctx)

	s.mu.Lock()
	s.snap = snap
	notify = func() {}
	if s.state == StateLoadingContext {
		notify = s.setState(StateReady)
	}
	s.mu.Unlock()
	notify()

	logger.Debug("Chat context loaded",
		zap.Int("companies", len(snap.Companies)),
		zap.Int("projects", len(snap.Projects)),
		zap.Int("skills", len(snap.Skills)),
	)
}

// Close hides the chat. Any pending reply is still appended when it arrives.
func (s *Session) Close() {
	s.mu.Lock()
	notify := s.setState(StateClosed)
	s.mu.Unlock()
	notify()
}

// Ask appends the user's message and returns the assistant's reply. The
// model call is detached from ctx: if ctx ends first Ask returns its error,
// and the reply is appended to the transcript once it arrives.
func (s *Session) Ask(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	switch {
	case s.state == StateClosed:
		s.mu.Unlock()
		return Message{}, ErrClosed
	case s.pending:
		s.mu.Unlock()
		return Message{}, ErrBusy
	}

	notifyUser := s.appendLocked(Message{Role: RoleUser, Content: text, Time: s.now()})

	if !s.snap.Loaded {
		reply := Message{
			Role:    RoleAssistant,
			Content: chatcontext.WaitingMessage(chatcontext.SubjectName(s.snap, s.rec)),
			Time:    s.now(),
		}
		notifyReply := s.appendLocked(reply)
		s.mu.Unlock()
		notifyUser()
		notifyReply()
		return reply, nil
	}

	s.pending = true
	notifyState := s.setState(StateWaitingForReply)
	snap := s.snap
	s.mu.Unlock()
	notifyUser()
	notifyState()

	done := make(chan Message, 1)
	s.replies.Add(1)
	go func() {
		defer s.replies.Done()
		done <- s.reply(context.WithoutCancel(ctx), snap, text)
	}()

	select {
	case msg := <-done:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Wait blocks until every pending reply has been appended.
func (s *Session) Wait() {
	s.replies.Wait()
}

func (s *Session) reply(ctx context.Context, snap chatcontext.Snapshot, question string) Message {
	name := chatcontext.SubjectName(snap, s.rec)
	prompt := chatcontext.BuildPrompt(name, chatcontext.Assemble(snap, s.rec), question)

	text, err := s.gen.Generate(ctx, llm.Request{Prompt: prompt, Question: question})
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrUnexpectedShape
	}

	var notifications []func()
	msg := Message{Role: RoleAssistant, Time: s.now()}

	s.mu.Lock()
	if err != nil {
		logger.Warn("Chat reply failed, using fallback",
			zap.String("kind", string(llm.Classify(err))),
			zap.Error(err),
		)
		msg.Content = chatcontext.Fallback(snap, s.rec, question)
		msg.Fallback = true
		if s.state == StateWaitingForReply {
			notifications = append(notifications, s.setState(StateErrorShown))
		}
	} else {
		if s.trim {
			text = llm.TrimIncompleteSentence(text)
		}
		msg.Content = text
	}

	s.pending = false
	notifications = append(notifications, s.appendLocked(msg))
	if s.state == StateWaitingForReply || s.state == StateErrorShown {
		notifications = append(notifications, s.setState(StateReady))
	}
	s.mu.Unlock()

	for _, n := range notifications {
		n()
	}
	return msg
}

// appendLocked adds msg and returns the subscriber notification to run
// after the lock is released.
func (s *Session) appendLocked(msg Message) func() {
	s.transcript = append(s.transcript, msg)
	subs := slices.Clone(s.onMessage)
	return func() {
		for _, fn := range subs {
			fn(msg)
		}
	}
}

func (s *Session) setState(next State) func() {
	if s.state == next {
		return func() {}
	}
	s.state = next
	subs := slices.Clone(s.onState)
	return func() {
		for _, fn := range subs {
			fn(next)
		}
	}
}
