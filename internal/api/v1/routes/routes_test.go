package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1handlers "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/handlers"
	v1websocket "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/handlers/websocket"
	"github.com/matteolinarello/Web-App-SIGEP/internal/config"
	"github.com/matteolinarello/Web-App-SIGEP/internal/connections"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/directory"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/referencedata"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/session"
)

type staticSource referencedata.Data

func (s staticSource) Load() referencedata.Data {
	return referencedata.Data(s)
}

// gatedProvider answers once release is closed, or immediately when it is nil
type gatedProvider struct {
	reply   string
	release chan struct{}
}

func (p *gatedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.reply, nil
}

func (p *gatedProvider) Name() string {
	return "test"
}

var testData = staticSource{
	Exhibitors: "card-digitalprofile-name,card-digitalprofile-position,line-clamp-2\n" +
		"BINDI S.p.A.,Pad. B1 Stand 045,B1 Dessert\n" +
		"Carpigiani,Pad. A5 Stand 101,A5 Gelato\n",
	Events: "card-event-title,times,label\n" +
		"Gelato World Cup,10:00 - 13:00,Arena Gelato\n",
}

func newTestServer(t *testing.T, provider *gatedProvider) *httptest.Server {
	t.Helper()
	restore := config.SetJWTSecret([]byte("test-secret"))
	t.Cleanup(restore)

	deps := v1handlers.Dependencies{
		Assistant:   assistant.NewService(provider, testData, assistant.Options{Timeout: 5 * time.Second}),
		Directory:   directory.NewService(testData),
		Session:     session.NewService(nil),
		Connections: connections.NewManager(connections.DefaultTimeouts),
	}

	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(server.Close)
	return server
}

func decodeSnapshot(t *testing.T, resp *http.Response) assistant.Snapshot {
	t.Helper()
	defer resp.Body.Close()
	var snapshot assistant.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	return snapshot
}

func openPanel(t *testing.T, server *httptest.Server) (assistant.Snapshot, *http.Cookie) {
	t.Helper()
	resp, err := http.Post(server.URL+"/v1/assistant/sessions", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == config.GetSessionCookieName() {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "panel cookie is set")

	return decodeSnapshot(t, resp), cookie
}

func submit(t *testing.T, server *httptest.Server, id, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/v1/assistant/sessions/"+id+"/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestPanelLifecycle(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "BINDI S.p.A. è al Pad. B1 Stand 045"})

	opened, cookie := openPanel(t, server)
	require.Len(t, opened.Messages, 1)
	assert.Equal(t, assistant.Greeting, opened.Messages[0].Text)
	assert.False(t, opened.IsWaiting)

	t.Run("current panel from cookie", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/v1/assistant/sessions/current", nil)
		req.AddCookie(cookie)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, opened.SessionID, decodeSnapshot(t, resp).SessionID)
	})

	t.Run("submit appends question and reply", func(t *testing.T) {
		resp := submit(t, server, opened.SessionID, `{"text": "Dove trovo Bindi?"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		snapshot := decodeSnapshot(t, resp)
		require.Len(t, snapshot.Messages, 3)
		assert.Equal(t, assistant.SenderUser, snapshot.Messages[1].Sender)
		assert.Equal(t, "Dove trovo Bindi?", snapshot.Messages[1].Text)
		assert.Equal(t, "BINDI S.p.A. è al Pad. B1 Stand 045", snapshot.Messages[2].Text)
	})

	t.Run("blank submit leaves the transcript unchanged", func(t *testing.T) {
		resp := submit(t, server, opened.SessionID, `{"text": "   "}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeSnapshot(t, resp).Messages, 3)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := submit(t, server, opened.SessionID, `{"text":`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("close panel", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, server.URL+"/v1/assistant/sessions/"+opened.SessionID, nil)
		req.AddCookie(cookie)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Len(t, resp.Cookies(), 1, "own cookie is expired")
		assert.Negative(t, resp.Cookies()[0].MaxAge)

		resp, err = http.Get(server.URL + "/v1/assistant/sessions/" + opened.SessionID)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCloseOtherPanelKeepsCookie(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "ok"})

	mine, cookie := openPanel(t, server)
	other, _ := openPanel(t, server)

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/v1/assistant/sessions/"+other.SessionID, nil)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "cookie bound to another panel is left alone")

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/v1/assistant/sessions/current", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, mine.SessionID, decodeSnapshot(t, resp).SessionID)
}

func TestSubmitWhileWaiting(t *testing.T) {
	provider := &gatedProvider{reply: "ok", release: make(chan struct{})}
	server := newTestServer(t, provider)
	opened, _ := openPanel(t, server)

	first := make(chan *http.Response, 1)
	go func() {
		resp, err := http.Post(server.URL+"/v1/assistant/sessions/"+opened.SessionID+"/messages",
			"application/json", strings.NewReader(`{"text": "prima domanda"}`))
		if err == nil {
			first <- resp
		}
		close(first)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/v1/assistant/sessions/" + opened.SessionID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var snapshot assistant.Snapshot
		return json.NewDecoder(resp.Body).Decode(&snapshot) == nil && snapshot.IsWaiting
	}, 2*time.Second, 10*time.Millisecond)

	resp := submit(t, server, opened.SessionID, `{"text": "seconda domanda"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(provider.release)
	firstResp, ok := <-first
	require.True(t, ok)
	snapshot := decodeSnapshot(t, firstResp)
	require.Len(t, snapshot.Messages, 3)
	assert.Equal(t, "prima domanda", snapshot.Messages[1].Text)
}

func TestUnknownPanel(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "ok"})

	resp, err := http.Get(server.URL + "/v1/assistant/sessions/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = submit(t, server, "missing", `{"text": "ciao"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(server.URL + "/v1/assistant/sessions/current")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no cookie means no current panel")
}

func TestDirectoryListings(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "ok"})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		key        string
		wantCount  int
	}{
		{name: "exhibitors", path: "/v1/exhibitors", wantStatus: http.StatusOK, key: "exhibitors", wantCount: 2},
		{name: "exhibitors limited", path: "/v1/exhibitors?limit=1", wantStatus: http.StatusOK, key: "exhibitors", wantCount: 1},
		{name: "events", path: "/v1/events", wantStatus: http.StatusOK, key: "events", wantCount: 1},
		{name: "invalid limit", path: "/v1/events?limit=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.key == "" {
				return
			}
			var body map[string][]json.RawMessage
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Len(t, body[tt.key], tt.wantCount)
		})
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "ok"})
	openPanel(t, server)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Status   string `json:"status"`
		Provider string `json:"provider"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Provider)
	assert.Equal(t, 1, body.Sessions)
}

func TestInvalidEndpoint(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "ok"})

	resp, err := http.Get(server.URL + "/invalid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func readEvent(t *testing.T, ws *websocket.Conn) v1websocket.ServerEvent {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event v1websocket.ServerEvent
	require.NoError(t, ws.ReadJSON(&event))
	return event
}

func TestPanelWebSocket(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "Gelato World Cup alle 10:00"})

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/v1/assistant/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	greeting := readEvent(t, ws)
	require.Equal(t, v1websocket.EventSnapshot, greeting.Type)
	require.NotNil(t, greeting.Snapshot)
	assert.Len(t, greeting.Snapshot.Messages, 1)

	// blank frames are ignored without a reply
	require.NoError(t, ws.WriteJSON(v1websocket.ClientFrame{Type: v1websocket.FrameSubmit, Text: " "}))
	require.NoError(t, ws.WriteJSON(v1websocket.ClientFrame{Type: v1websocket.FrameSubmit, Text: "Quando è la Gelato World Cup?"}))

	waiting := readEvent(t, ws)
	require.NotNil(t, waiting.Snapshot)
	assert.True(t, waiting.Snapshot.IsWaiting)
	assert.Len(t, waiting.Snapshot.Messages, 2)

	answered := readEvent(t, ws)
	require.NotNil(t, answered.Snapshot)
	assert.False(t, answered.Snapshot.IsWaiting)
	require.Len(t, answered.Snapshot.Messages, 3)
	assert.Equal(t, "Gelato World Cup alle 10:00", answered.Snapshot.Messages[2].Text)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, v1websocket.EventError, readEvent(t, ws).Type)

	require.NoError(t, ws.WriteJSON(v1websocket.ClientFrame{Type: v1websocket.FrameClose}))
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestRequestBodyIgnoredOnOpen(t *testing.T) {
	server := newTestServer(t, &gatedProvider{reply: "ok"})

	resp, err := http.Post(server.URL+"/v1/assistant/sessions", "application/json", bytes.NewBufferString(`{"ignored": true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
