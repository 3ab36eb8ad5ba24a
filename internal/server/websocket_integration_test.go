package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/huddle/internal/config"
	"github.com/nfrund/huddle/internal/domain"
	"github.com/nfrund/huddle/internal/protocol"
	"github.com/nfrund/huddle/internal/server"
	"github.com/nfrund/huddle/internal/session"
)

// setupIntegrationTest builds a full server around an httptest listener and
// runs its engine and bridge until the test ends.
func setupIntegrationTest(t *testing.T, env map[string]string) (*server.Server, *httptest.Server) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	s, err := server.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Bridge.Start(ctx, s.PubSub))
	go s.Engine.Run(ctx)

	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = s.Shutdown(shutdownCtx)
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, username string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?username=" + url.QueryEscape(username)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func next(t *testing.T, conn *websocket.Conn, event string) protocol.Frame {
	t.Helper()
	for range 20 {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		f, err := protocol.DecodeFrame(data)
		require.NoError(t, err)
		if f.Event == event {
			return f
		}
	}
	t.Fatalf("did not receive %q", event)
	return protocol.Frame{}
}

func emit(t *testing.T, conn *websocket.Conn, event string, args ...any) {
	t.Helper()
	data, err := protocol.Encode(event, args...)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := setupIntegrationTest(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "huddle_connections_active")
	assert.Contains(t, string(body), "huddle_requests_total")
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>huddle</h1>"), 0o644))

	_, ts := setupIntegrationTest(t, map[string]string{"HUDDLE_STATIC_DIR": dir})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "huddle")
}

func TestChatRoundTrip(t *testing.T) {
	_, ts := setupIntegrationTest(t, nil)

	alice := dial(t, ts, "alice")
	next(t, alice, session.EventUserCount)
	bob := dial(t, ts, "bob")
	next(t, bob, session.EventUserCount)

	joined := next(t, alice, session.EventUserJoined)
	var who domain.Identity
	require.NoError(t, json.Unmarshal(joined.Args[0], &who))
	assert.Equal(t, "bob", who.Name)

	emit(t, bob, protocol.InChatMessage, "hi :)")
	f := next(t, alice, session.EventChatMessage)

	var msg domain.Message
	require.NoError(t, json.Unmarshal(f.Args[0], &msg))
	assert.Equal(t, "bob", msg.User.Name)
	assert.Equal(t, "hi 😊", msg.Text)

	emit(t, alice, protocol.InMessageReaction, msg.ID, "👍")
	for _, conn := range []*websocket.Conn{alice, bob} {
		r := next(t, conn, session.EventMessageReaction)
		assert.JSONEq(t, `{"👍":["alice"]}`, string(r.Args[1]))
	}
}

func TestRenameAndRejectionNotice(t *testing.T) {
	_, ts := setupIntegrationTest(t, map[string]string{"HUDDLE_NOTIFY_REJECTIONS": "true"})

	alice := dial(t, ts, "alice")
	next(t, alice, session.EventUserCount)

	emit(t, alice, protocol.InChatMessage, "/nick Alicia")
	renamed := next(t, alice, session.EventUserRenamed)
	assert.JSONEq(t, `"alice"`, string(renamed.Args[0]))

	emit(t, alice, protocol.InChatMessage, strings.Repeat("a", 501))
	rejected := next(t, alice, session.EventRejected)
	var r session.Rejection
	require.NoError(t, json.Unmarshal(rejected.Args[0], &r))
	assert.Equal(t, session.ReasonTooLong, r.Reason)
}

func TestInvalidUsernameIsRefused(t *testing.T) {
	_, ts := setupIntegrationTest(t, nil)

	conn := dial(t, ts, "")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}
