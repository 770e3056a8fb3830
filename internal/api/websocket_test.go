package api

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio/backend/internal/auth"
	"github.com/portfolio/backend/internal/llm"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/storage/storagetest"
	"github.com/portfolio/backend/internal/widget"
)

// gatedGenerator holds every reply until release is closed.
type gatedGenerator struct {
	reply   string
	release chan struct{}
	once    sync.Once
}

func (g *gatedGenerator) Generate(ctx context.Context, _ llm.Request) (string, error) {
	select {
	case <-g.release:
		return g.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedGenerator) open() {
	g.once.Do(func() { close(g.release) })
}

type serverFrame struct {
	Type     string           `json:"type"`
	State    widget.State     `json:"state"`
	Message  widget.Message   `json:"message"`
	Messages []widget.Message `json:"messages"`
	Error    string           `json:"error"`
}

// startWidgetServer serves the app on a real socket so the upgrade path runs
// end to end.
func startWidgetServer(t *testing.T, gen widget.Generator) string {
	t.Helper()

	store := storagetest.NewSQLite(t)
	svc := portfolio.NewService(store)
	client, err := llm.NewClient(upstream(t, 200, `[]`), llm.Config{Template: llm.TemplateNone})
	require.NoError(t, err)

	app := NewApp(Options{}, Deps{
		Portfolio: svc,
		Auth:      auth.NewStatic(adminUser, adminPass),
		Generator: client,
		NewSession: func() *widget.Session {
			return widget.NewSession(svc, gen, widget.Options{Resume: resume.Default()})
		},
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(5 * time.Second) })

	return "ws://" + ln.Addr().String() + "/ws/chat"
}

func dialWidget(t *testing.T, url string) *fastws.Conn {
	t.Helper()

	conn, resp, err := fastws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *fastws.Conn) serverFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame serverFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func send(t *testing.T, conn *fastws.Conn, kind, content string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": kind, "content": content}))
}

func expectState(t *testing.T, conn *fastws.Conn, want widget.State) {
	t.Helper()
	frame := readFrame(t, conn)
	require.Equal(t, "state", frame.Type, "frame: %+v", frame)
	assert.Equal(t, want, frame.State)
}

func expectMessage(t *testing.T, conn *fastws.Conn, role widget.Role) widget.Message {
	t.Helper()
	frame := readFrame(t, conn)
	require.Equal(t, "message", frame.Type, "frame: %+v", frame)
	assert.Equal(t, role, frame.Message.Role)
	return frame.Message
}

func expectError(t *testing.T, conn *fastws.Conn, want string) {
	t.Helper()
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type, "frame: %+v", frame)
	assert.Equal(t, want, frame.Error)
}

func TestWidgetSocketConversation(t *testing.T) {
	gen := &gatedGenerator{reply: "Go and TypeScript.", release: make(chan struct{})}
	gen.open()
	conn := dialWidget(t, startWidgetServer(t, gen))

	hello := readFrame(t, conn)
	require.Equal(t, "transcript", hello.Type)
	assert.Equal(t, widget.StateClosed, hello.State)
	require.Len(t, hello.Messages, 1)
	assert.Equal(t, widget.RoleAssistant, hello.Messages[0].Role)

	send(t, conn, "ask", "too early")
	expectError(t, conn, "Chat is closed")

	send(t, conn, "open", "")
	expectState(t, conn, widget.StateLoadingContext)
	expectState(t, conn, widget.StateReady)

	send(t, conn, "ask", "   ")
	expectError(t, conn, "Message is empty")

	send(t, conn, "ask", "What languages?")
	assert.Equal(t, "What languages?", expectMessage(t, conn, widget.RoleUser).Content)
	expectState(t, conn, widget.StateWaitingForReply)
	assert.Equal(t, "Go and TypeScript.", expectMessage(t, conn, widget.RoleAssistant).Content)
	expectState(t, conn, widget.StateReady)

	send(t, conn, "transcript", "")
	frame := readFrame(t, conn)
	require.Equal(t, "transcript", frame.Type)
	assert.Equal(t, widget.StateReady, frame.State)
	assert.Len(t, frame.Messages, 3)

	send(t, conn, "bogus", "")
	expectError(t, conn, "Unknown message type")
}

func TestWidgetSocketBusyAndReplyAfterClose(t *testing.T) {
	gen := &gatedGenerator{reply: "Three projects.", release: make(chan struct{})}
	conn := dialWidget(t, startWidgetServer(t, gen))
	// Runs before shutdown so a failed assertion cannot leave the reply parked.
	t.Cleanup(gen.open)

	require.Equal(t, "transcript", readFrame(t, conn).Type)

	send(t, conn, "open", "")
	expectState(t, conn, widget.StateLoadingContext)
	expectState(t, conn, widget.StateReady)

	send(t, conn, "ask", "Which projects?")
	expectMessage(t, conn, widget.RoleUser)
	expectState(t, conn, widget.StateWaitingForReply)

	send(t, conn, "ask", "Hello?")
	expectError(t, conn, "Please wait for the current reply")

	send(t, conn, "close", "")
	expectState(t, conn, widget.StateClosed)

	gen.open()
	reply := expectMessage(t, conn, widget.RoleAssistant)
	assert.Equal(t, "Three projects.", reply.Content)
	assert.False(t, reply.Fallback)

	send(t, conn, "transcript", "")
	frame := readFrame(t, conn)
	require.Equal(t, "transcript", frame.Type)
	assert.Equal(t, widget.StateClosed, frame.State)
	require.Len(t, frame.Messages, 3)
	assert.Equal(t, "Three projects.", frame.Messages[2].Content)
}
