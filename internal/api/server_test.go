package api

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofiber/fiber/v2"

	"github.com/portfolio/backend/internal/auth"
	"github.com/portfolio/backend/internal/llm"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/storage/storagetest"
	"github.com/portfolio/backend/internal/widget"
)

const (
	adminUser = "admin"
	adminPass = "secret"
)

type testEnv struct {
	app   *fiber.App
	store *storagetest.Failing
}

func newTestEnv(t *testing.T, gen llm.Transport) *testEnv {
	t.Helper()

	store := storagetest.NewFailing(storagetest.NewSQLite(t))
	svc := portfolio.NewService(store)

	client, err := llm.NewClient(gen, llm.Config{
		Template:          llm.TemplateNone,
		MaxAttempts:       2,
		RetryInitialDelay: time.Millisecond,
	})
	require.NoError(t, err)

	app := NewApp(Options{}, Deps{
		Portfolio: svc,
		Auth:      auth.NewStatic(adminUser, adminPass),
		Generator: client,
		NewSession: func() *widget.Session {
			return widget.NewSession(svc, client, widget.Options{Resume: resume.Default()})
		},
	})

	return &testEnv{app: app, store: store}
}

// upstream fakes the inference API with a fixed status and body.
func upstream(t *testing.T, status int, body string) llm.Transport {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return llm.NewHuggingFaceTransport(srv.URL, "hf_test", "test/model", llm.DefaultParameters(), 5*time.Second)
}

func (e *testEnv) do(t *testing.T, method, path, body string, basic bool) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if basic {
		token := base64.StdEncoding.EncodeToString([]byte(adminUser + ":" + adminPass))
		req.Header.Set("Authorization", "Basic "+token)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "GET", "/api/health", "", false)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Backend server is running", body["message"])
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, _ := env.do(t, "GET", "/api/health", "", false)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "connect-src 'self'")
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestChatRelaySuccess(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[{"generated_text":"  Hello there.  "}]`))

	resp, body := env.do(t, "POST", "/api/chat", `{"prompt":"Say hi"}`, false)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Hello there.", body["response"])
}

func TestChatRelayRequiresPrompt(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "POST", "/api/chat", `{"prompt":"   "}`, false)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Prompt is required", body["error"])
}

func TestChatRelayMirrorsUpstreamStatus(t *testing.T) {
	env := newTestEnv(t, upstream(t, 401, `Invalid credentials in Authorization header`))

	resp, body := env.do(t, "POST", "/api/chat", `{"prompt":"hi"}`, false)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "Inference API error: 401", body["error"])
	assert.Equal(t, "Invalid credentials in Authorization header", body["details"])
}

func TestChatRelayBadShape(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `{"unexpected":true}`))

	resp, body := env.do(t, "POST", "/api/chat", `{"prompt":"hi"}`, false)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Invalid response format from inference API", body["error"])
}

func TestChatRelayMissingKey(t *testing.T) {
	transport := llm.NewHuggingFaceTransport("http://127.0.0.1:1", "", "test/model", llm.DefaultParameters(), time.Second)
	env := newTestEnv(t, transport)

	resp, body := env.do(t, "POST", "/api/chat", `{"prompt":"hi"}`, false)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Inference API key is not configured", body["error"])
}

func TestContentPlaceholders(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "GET", "/api/content/skills", "", false)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["empty"])
	assert.Equal(t, "No skills added yet.", body["placeholder"])

	resp, body = env.do(t, "GET", "/api/content/hobbies", "", false)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Unknown section", body["error"])

	resp, _ = env.do(t, "GET", "/api/profile", "", false)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestContentReadFailureShowsEmpty(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))
	env.store.Fail("list:projects")

	resp, body := env.do(t, "GET", "/api/content/projects", "", false)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["empty"])
}

func TestAllContentInPageOrder(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "GET", "/api/content", "", false)
	assert.Equal(t, 200, resp.StatusCode)

	sections, ok := body["sections"].([]any)
	require.True(t, ok)
	require.Len(t, sections, len(portfolio.SectionNames))
	for i, name := range portfolio.SectionNames {
		assert.Equal(t, name, sections[i].(map[string]any)["name"])
	}
	assert.NotContains(t, body, "profile")
}

func TestAdminRequiresCredentials(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "GET", "/api/admin/skills", "", false)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "POST", "/api/admin/login", `{"username":"admin","password":"secret"}`, false)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["authenticated"])

	resp, body = env.do(t, "POST", "/api/admin/login", `{"username":"admin","password":"nope"}`, false)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestAdminCRUDAppearsInPublicView(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, created := env.do(t, "POST", "/api/admin/companies",
		`{"name":"Acme","position":"Engineer","startDate":"2023-01","description":"Built things","technologies":["Go"]}`, true)
	require.Equal(t, 201, resp.StatusCode)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	_, section := env.do(t, "GET", "/api/content/companies", "", false)
	assert.Equal(t, false, section["empty"])

	resp, updated := env.do(t, "PUT", "/api/admin/companies/"+id,
		`{"name":"Acme Corp","position":"Lead","startDate":"2023-01","description":"Built more"}`, true)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Acme Corp", updated["name"])

	resp, _ = env.do(t, "DELETE", "/api/admin/companies/"+id, "", true)
	assert.Equal(t, 204, resp.StatusCode)

	_, section = env.do(t, "GET", "/api/content/companies", "", false)
	assert.Equal(t, true, section["empty"])
	assert.Equal(t, "No experience added yet.", section["placeholder"])
}

func TestAdminErrors(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "GET", "/api/admin/hobbies", "", true)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Unknown collection", body["error"])

	resp, body = env.do(t, "PUT", "/api/admin/companies/missing", `{"name":"Ghost"}`, true)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Company not found", body["error"])

	env.store.Fail("add:skills")
	resp, body = env.do(t, "POST", "/api/admin/skills", `{"name":"Go"}`, true)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Failed to add skill.", body["error"])
}

func TestAdminBulkAddSkills(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "POST", "/api/admin/skills/bulk", `{"names":"Go, Rust,, SQL ","category":"Languages","level":80}`, true)
	require.Equal(t, 201, resp.StatusCode)
	assert.EqualValues(t, 3, body["count"])

	resp, body = env.do(t, "POST", "/api/admin/skills/bulk", `{"names":" , "}`, true)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "At least one name is required", body["error"])

	env.store.Fail("add:technologies")
	resp, body = env.do(t, "POST", "/api/admin/technologies/bulk", `{"names":"Docker"}`, true)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Failed to add technologies.", body["error"])
}

func TestAdminProfile(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "PUT", "/api/admin/profile", `{"name":"Alex Morgan","title":"Engineer"}`, true)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Alex Morgan", body["name"])

	resp, body = env.do(t, "GET", "/api/profile", "", false)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Engineer", body["title"])
}

func TestContactSubmission(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, body := env.do(t, "POST", "/api/contact", `{"name":"Sam","email":"sam@example.com","message":"Hello"}`, false)
	require.Equal(t, 201, resp.StatusCode)
	assert.NotEmpty(t, body["id"])
	assert.NotEmpty(t, body["timestamp"])

	resp, body = env.do(t, "POST", "/api/contact", `{"name":"Sam"}`, false)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Name, email and message are required", body["error"])

	env.store.Fail("add:messages")
	resp, body = env.do(t, "POST", "/api/contact", `{"name":"Sam","email":"sam@example.com","message":"Hello"}`, false)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Failed to send message.", body["error"])
}

func TestContactMessagesNotExposedToAdmin(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, _ := env.do(t, "POST", "/api/contact", `{"name":"Sam","email":"sam@example.com","message":"Hello"}`, false)
	require.Equal(t, 201, resp.StatusCode)

	resp, body := env.do(t, "GET", "/api/admin/messages", "", true)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Unknown collection", body["error"])

	resp, body = env.do(t, "POST", "/api/admin/messages", `{"name":"Forged"}`, true)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Unknown collection", body["error"])
}

func TestWidgetSocketRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, upstream(t, 200, `[]`))

	resp, _ := env.do(t, "GET", "/ws/chat", "", false)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
