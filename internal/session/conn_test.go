package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserchat/internal/apperrors"
)

// fakeAgent serves one websocket endpoint and runs handle for each client.
func fakeAgent(t *testing.T, handle func(ws *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handle(ws)
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func nextEvent(t *testing.T, events <-chan ConnEvent) ConnEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed early")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connection event")
		return ConnEvent{}
	}
}

func requireDrained(t *testing.T, events <-chan ConnEvent) {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.False(t, ok, "unexpected event %s", ev.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("event channel was not closed")
	}
}

func TestConnDeliversFramesInOrderAndSends(t *testing.T) {
	received := make(chan string, 1)
	endpoint := fakeAgent(t, func(ws *websocket.Conn) {
		_, task, err := ws.ReadMessage()
		if err != nil {
			return
		}
		received <- string(task)
		for _, frame := range []string{`{"type":"status","message":"one"}`, `{"type":"status","message":"two"}`, `three`} {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		_, _, _ = ws.ReadMessage()
	})

	conn := NewConn(endpoint)
	assert.Equal(t, endpoint, conn.Endpoint())
	conn.Open(context.Background())

	require.Equal(t, ConnOpened, nextEvent(t, conn.Events()).Kind)
	assert.True(t, conn.Connected())

	require.NoError(t, conn.Send([]byte(`{"task":"search for laptops","task_type":"search"}`)))
	select {
	case task := <-received:
		assert.JSONEq(t, `{"task":"search for laptops","task_type":"search"}`, task)
	case <-time.After(5 * time.Second):
		t.Fatal("agent never received the task")
	}

	for _, want := range []string{`{"type":"status","message":"one"}`, `{"type":"status","message":"two"}`, `three`} {
		ev := nextEvent(t, conn.Events())
		require.Equal(t, ConnFrame, ev.Kind)
		assert.Equal(t, want, string(ev.Frame))
	}

	closed := nextEvent(t, conn.Events())
	assert.Equal(t, ConnClosed, closed.Kind)
	assert.False(t, conn.Connected())
	requireDrained(t, conn.Events())

	assert.ErrorIs(t, conn.Send([]byte("late")), apperrors.ErrNotConnected)
}

func TestConnAbnormalDropReportsTransportError(t *testing.T) {
	endpoint := fakeAgent(t, func(ws *websocket.Conn) {
		_ = ws.UnderlyingConn().Close()
	})

	conn := NewConn(endpoint)
	conn.Open(context.Background())

	require.Equal(t, ConnOpened, nextEvent(t, conn.Events()).Kind)
	failed := nextEvent(t, conn.Events())
	require.Equal(t, ConnTransportError, failed.Kind)
	assert.Error(t, failed.Err)
	assert.Equal(t, ConnClosed, nextEvent(t, conn.Events()).Kind)
	requireDrained(t, conn.Events())
}

func TestConnDialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ts.Close()

	conn := NewConn(endpoint, WithHandshakeTimeout(time.Second))
	conn.Open(context.Background())

	failed := nextEvent(t, conn.Events())
	require.Equal(t, ConnTransportError, failed.Kind)
	assert.Equal(t, "Conn.Open", apperrors.Op(failed.Err))
	assert.Equal(t, ConnClosed, nextEvent(t, conn.Events()).Kind)
	requireDrained(t, conn.Events())
	assert.False(t, conn.Connected())
}

func TestConnSendBeforeOpen(t *testing.T) {
	conn := NewConn("ws://127.0.0.1:1/ws")
	err := conn.Send([]byte(`{"task":"x"}`))
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)
	assert.NoError(t, conn.Close())
}

func TestConnCloseIsIdempotentAndQuiet(t *testing.T) {
	endpoint := fakeAgent(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn := NewConn(endpoint)
	conn.Open(context.Background())
	conn.Open(context.Background())
	require.Equal(t, ConnOpened, nextEvent(t, conn.Events()).Kind)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.False(t, conn.Connected())

	assert.Equal(t, ConnClosed, nextEvent(t, conn.Events()).Kind, "a requested close is not a transport error")
	requireDrained(t, conn.Events())
}

func TestConnEventsDriveSession(t *testing.T) {
	endpoint := fakeAgent(t, func(ws *websocket.Conn) {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
		frames := []string{
			`{"type":"action","action":"navigate","message":"Opening browser"}`,
			`{"type":"result","data":"{\"products\":[{\"name\":\"a\",\"price\":\"1\"}]}"}`,
			`{"type":"status","message":"✅ Task complete"}`,
		}
		for _, f := range frames {
			_ = ws.WriteMessage(websocket.TextMessage, []byte(f))
		}
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = ws.ReadMessage()
	})

	conn := NewConn(endpoint)
	s := New(conn)
	conn.Open(context.Background())

	s.Handle(nextEvent(t, conn.Events()))
	require.True(t, s.Connected())
	require.True(t, s.Submit("search for laptops"))

	for ev := range conn.Events() {
		s.Handle(ev)
	}

	var texts []string
	for _, msg := range s.Transcript() {
		texts = append(texts, string(msg.Role)+"/"+string(msg.Kind))
	}
	assert.Equal(t, []string{
		"system/plain",
		"user/plain",
		"agent/action",
		"agent/products",
		"agent/completion",
		"system/plain",
	}, texts)
	assert.False(t, s.Connected())
}
