package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AXI0MH1VE/State-Inverant/config"
	"github.com/AXI0MH1VE/State-Inverant/controllers"
	"github.com/AXI0MH1VE/State-Inverant/database"
	"github.com/AXI0MH1VE/State-Inverant/models"
	"github.com/AXI0MH1VE/State-Inverant/repositories"
	"github.com/AXI0MH1VE/State-Inverant/services"
)

type testApp struct {
	server   *httptest.Server
	client   *http.Client
	services *services.Services
}

func newTestApp(t *testing.T, source services.AuditSource, submitter services.Submitter) *testApp {
	t.Helper()
	return newTestAppWithOptions(t, source, submitter, routerOptions{})
}

func newTestAppWithOptions(t *testing.T, source services.AuditSource, submitter services.Submitter, opts routerOptions) *testApp {
	t.Helper()

	require.NoError(t, database.InitializeDatabase(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { database.CloseDB() })

	repos := repositories.NewRepositories(database.GetDB())
	srvs := services.NewServices(repos, source, submitter, services.CommandOptions{
		Delay:     10 * time.Millisecond,
		RateLimit: rate.Inf,
		Burst:     1,
	})
	ctrl := controllers.NewControllers(srvs, controllers.Options{Version: config.Version})

	r, err := setupRouter(ctrl, repos, opts)
	require.NoError(t, err)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		server:   server,
		client:   &http.Client{Jar: jar, Timeout: 5 * time.Second},
		services: srvs,
	}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) postJSON(t *testing.T, prompt string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/command", strings.NewReader(url.Values{"prompt": {prompt}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestDashboard_RendersFixtureStream(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	resp, body := app.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, body, "Axiom Hive")
	assert.Contains(t, body, "v1.0.0")
	assert.Contains(t, body, "ASL-1.0 Compliant")
	assert.Contains(t, body, "Safety Verified")
	assert.Equal(t, 3, strings.Count(body, "data-entry-id="))
	assert.Equal(t, 3, strings.Count(body, `data-status="safe"`))
	assert.Equal(t, 3, strings.Count(body, "bg-green-500"+`" data-indicator`))

	legal := strings.Index(body, "Legal Guardian")
	safety := strings.Index(body, "Safety Guardian")
	drone := strings.Index(body, "Drone Fleet")
	require.True(t, legal > 0 && safety > 0 && drone > 0)
	assert.Less(t, legal, safety)
	assert.Less(t, safety, drone)

	for _, link := range []string{`href="/"`, `href="/audit"`, `href="/docs"`} {
		assert.Contains(t, body, link)
	}
}

func TestDashboard_EmptyPromptDisablesSubmit(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	_, body := app.get(t, "/")

	button := body[strings.Index(body, `id="submit-button"`):]
	button = button[:strings.Index(button, ">")]
	fields := strings.Fields(button)
	assert.Equal(t, "disabled", fields[len(fields)-1])
}

// openTag returns the fields of the opening tag that contains marker
func openTag(t *testing.T, body, marker string) []string {
	t.Helper()
	start := strings.Index(body, marker)
	require.GreaterOrEqual(t, start, 0, "marker %q not found", marker)
	tag := body[start:]
	return strings.Fields(tag[:strings.Index(tag, ">")])
}

func TestDashboard_DisablesFormWhileSubmitting(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	app := newTestApp(t, services.NewFixtureSource(), services.SubmitterFunc(func(context.Context, string) error {
		started <- struct{}{}
		<-release
		return nil
	}))

	// Establish the session cookie before the long-running post
	app.get(t, "/")

	done := make(chan int, 1)
	go func() {
		resp, err := app.client.PostForm(app.server.URL+"/command", url.Values{"prompt": {"Explain compliance rules"}})
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not start")
	}

	_, body := app.get(t, "/")
	close(release)

	textarea := openTag(t, body, `<textarea id="prompt"`)
	assert.Equal(t, "disabled", textarea[len(textarea)-1])
	assert.Contains(t, body, "Explain compliance rules</textarea>")

	button := openTag(t, body, `id="submit-button"`)
	assert.Equal(t, "disabled", button[len(button)-1])
	label := body[strings.Index(body, `id="submit-button"`):]
	label = label[strings.Index(label, ">")+1 : strings.Index(label, "</button>")]
	assert.Equal(t, "Processing...", strings.TrimSpace(label))

	assert.Equal(t, http.StatusOK, <-done)

	_, after := app.get(t, "/")
	textarea = openTag(t, after, `<textarea id="prompt"`)
	assert.NotEqual(t, "disabled", textarea[len(textarea)-1])
}

func TestCommand_SubmitScenario(t *testing.T) {
	got := make(chan string, 1)
	app := newTestApp(t, services.NewLiveSource(10), services.SubmitterFunc(func(_ context.Context, prompt string) error {
		got <- prompt
		return nil
	}))

	resp, body := app.postJSON(t, "Explain compliance rules")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(services.OutcomeSubmitted), body["outcome"])

	state := body["state"].(map[string]interface{})
	assert.Equal(t, "", state["prompt"])
	assert.Equal(t, false, state["is_loading"])
	assert.Equal(t, "Explain compliance rules", <-got)

	_, stateBody := app.get(t, "/command/state")
	var current models.CommandState
	require.NoError(t, json.Unmarshal([]byte(stateBody), &current))
	assert.Equal(t, models.CommandState{}, current)

	entries, err := app.services.Audit.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, services.CommandServiceName, entries[0].Service)
}

func TestCommand_BlankPromptIgnored(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SubmitterFunc(func(context.Context, string) error {
		t.Error("blank prompt must not be submitted")
		return nil
	}))

	resp, body := app.postJSON(t, "   ")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(services.OutcomeIgnored), body["outcome"])
	state := body["state"].(map[string]interface{})
	assert.Equal(t, false, state["is_loading"])
	assert.Equal(t, false, state["can_submit"])
}

func TestCommand_FailurePreservesPrompt(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SubmitterFunc(func(context.Context, string) error {
		return assert.AnError
	}))

	resp, body := app.postJSON(t, "Summarize the audit trail")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, string(services.OutcomeFailed), body["outcome"])
	assert.NotEmpty(t, body["error"])

	state := body["state"].(map[string]interface{})
	assert.Equal(t, "Summarize the audit trail", state["prompt"])
	assert.Equal(t, false, state["is_loading"])
}

func TestCommand_FormSubmitRedirectsWithFlash(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	resp, err := app.client.PostForm(app.server.URL+"/command", url.Values{"prompt": {"Explain compliance rules"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Contains(t, string(body), `data-flash="success"`)
	assert.Contains(t, string(body), "></textarea>")

	// The flash is shown once
	_, again := app.get(t, "/")
	assert.NotContains(t, again, "data-flash=")
}

func TestCommand_RequestIsLogged(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	app.postJSON(t, "Explain compliance rules")

	require.Eventually(t, func() bool {
		entries, err := app.services.RequestLog.ListRecent(context.Background(), 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)

	_, body := app.get(t, "/audit")
	assert.Contains(t, body, "POST")
	assert.Contains(t, body, "/command")
	assert.Contains(t, body, "anonymous")
}

func TestAudit_Export(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	resp, body := app.get(t, "/audit/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "audit-log-")

	var export services.AuditExport
	require.NoError(t, json.Unmarshal([]byte(body), &export))
	assert.Equal(t, 3, export.Count)
	require.Len(t, export.Entries, 3)
	assert.Equal(t, "Legal Guardian", export.Entries[0].Service)
}

func TestAudit_ExportPDF(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	resp, body := app.get(t, "/audit/export?format=pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".pdf")
	assert.True(t, strings.HasPrefix(body, "%PDF-"))
}

func TestAudit_StreamUnavailableForFixture(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	resp, _ := app.get(t, "/audit/stream")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAudit_StreamDeliversLiveEntries(t *testing.T) {
	live := services.NewLiveSource(10)
	app := newTestApp(t, live, services.SimulatedSubmitter{})

	wsURL := "ws" + strings.TrimPrefix(app.server.URL, "http") + "/audit/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return live.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, app.services.Audit.Record(context.Background(), models.AuditEntry{
		Timestamp: time.Now(),
		Service:   "Legal Guardian",
		Status:    models.StatusDanger,
		Message:   "Request blocked",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg controllers.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "audit_entry", msg.Type)
	assert.Equal(t, "Legal Guardian", msg.Payload.Service)
	assert.Equal(t, models.StatusDanger, msg.Payload.Status)
	assert.Equal(t, "bg-red-500", msg.Payload.IndicatorClass)
	assert.Equal(t, "axiom-status-danger", msg.Payload.BadgeClass)
	assert.NotEmpty(t, msg.Payload.ID)
}

func TestAudit_StreamRequiresLoginWhenEnabled(t *testing.T) {
	live := services.NewLiveSource(10)
	app := newTestAppWithOptions(t, live, services.SimulatedSubmitter{}, routerOptions{AuthEnabled: true})

	wsURL := "ws" + strings.TrimPrefix(app.server.URL, "http") + "/audit/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, 0, live.SubscriberCount())
}

func TestHealthAndDocs(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	resp, body := app.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, config.Version, health["version"])

	resp, body = app.get(t, "/docs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="documentation"`)
	assert.Contains(t, body, "<table>")
}

func TestLogin_DisabledWithoutProvider(t *testing.T) {
	app := newTestApp(t, services.NewFixtureSource(), services.SimulatedSubmitter{})

	resp, _ := app.get(t, "/login")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartScheduler(t *testing.T) {
	srvs := services.NewServices(&repositories.Repositories{}, services.NewFixtureSource(), services.SimulatedSubmitter{}, services.CommandOptions{})

	scheduler, err := startScheduler(srvs.Command)
	require.NoError(t, err)
	defer scheduler.Stop()

	entries := scheduler.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Next.After(time.Now()))
}
