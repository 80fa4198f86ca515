package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

// frame is a decoded outbound envelope.
type frame struct {
	Event string          `json:"event"`
	Ack   string          `json:"ack"`
	Data  json.RawMessage `json:"data"`
}

type testEnv struct {
	srv   *Server
	http  *httptest.Server
	wsURL string
}

// newTestEnv starts a Server behind httptest. mutate may adjust the default
// test configuration first.
func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{testOrigin}
	cfg.ShutdownTimeout = 2 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		cancel()
		_ = srv.Shutdown(context.Background())
	})

	return &testEnv{
		srv:   srv,
		http:  ts,
		wsURL: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

func (e *testEnv) dialWithOrigin(origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return dialer.Dial(e.wsURL, headers)
}

// connect dials the websocket endpoint and returns the connection with the
// id announced in the connected greeting.
func (e *testEnv) connect(t *testing.T) (*websocket.Conn, string) {
	t.Helper()

	conn, resp, err := e.dialWithOrigin(testOrigin)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var greeting struct {
		ID string `json:"id"`
	}
	decodeData(t, readEvent(t, conn, "connected"), &greeting)
	require.NotEmpty(t, greeting.ID)
	return conn, greeting.ID
}

func (e *testEnv) get(t *testing.T, path string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.http.URL+path, http.NoBody)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func emit(t *testing.T, conn *websocket.Conn, event string, data any, ack string) {
	t.Helper()

	env := map[string]any{"event": event}
	if data != nil {
		env["data"] = data
	}
	if ack != "" {
		env["ack"] = ack
	}
	require.NoError(t, conn.WriteJSON(env))
}

// readEvent reads frames until one with the given event name arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	return readMatching(t, conn, func(f frame) bool { return f.Event == event })
}

// readAck reads frames until the ack carrying token arrives.
func readAck(t *testing.T, conn *websocket.Conn, token string) frame {
	t.Helper()
	return readMatching(t, conn, func(f frame) bool { return f.Event == "ack" && f.Ack == token })
}

func readMatching(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var f frame
		require.NoError(t, json.Unmarshal(raw, &f), "every frame is one JSON envelope: %s", raw)
		if match(f) {
			return f
		}
	}
}

// drain collects every frame that arrives within d.
func drain(conn *websocket.Conn, d time.Duration) []frame {
	var frames []frame
	_ = conn.SetReadDeadline(time.Now().Add(d))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return frames
		}
		var f frame
		if json.Unmarshal(raw, &f) == nil {
			frames = append(frames, f)
		}
	}
}

func decodeData(t *testing.T, f frame, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(f.Data, v))
}

// join sends a join and waits for the joiner's initial history.
func join(t *testing.T, conn *websocket.Conn, username, room string) {
	t.Helper()
	emit(t, conn, "join", map[string]string{"username": username, "room": room}, "")
	readEvent(t, conn, "initial_messages")
}
