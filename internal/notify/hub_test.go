package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/notify"
)

func startHub(t *testing.T) (*notify.Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := notify.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) notify.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event notify.Event
	require.NoError(t, json.Unmarshal(data, &event))

	return event
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	txID := uuid.New()
	hub.Publish(context.Background(), notify.Event{
		Type:          notify.EventPending,
		TransactionID: txID,
		CustomerID:    uuid.New(),
		Message:       "requires pre-authorization",
	})

	event := readEvent(t, conn)
	assert.Equal(t, notify.EventPending, event.Type)
	assert.Equal(t, txID, event.TransactionID)
}

func TestHub_FiltersByCustomer(t *testing.T) {
	hub, srv := startHub(t)

	mine := uuid.New()
	conn := dial(t, srv, "?customer_id="+mine.String())

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), notify.Event{Type: notify.EventApproved, CustomerID: uuid.New()})
	hub.Publish(context.Background(), notify.Event{Type: notify.EventRevoked, CustomerID: mine})

	event := readEvent(t, conn)
	assert.Equal(t, notify.EventRevoked, event.Type)
	assert.Equal(t, mine, event.CustomerID)
}

func TestHub_RejectsBadCustomerID(t *testing.T) {
	_, srv := startHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?customer_id=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHub_CustomerScope(t *testing.T) {
	hub := notify.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)
	scoped := uuid.New()

	req := httptest.NewRequestWithContext(
		notify.WithCustomerScope(context.Background(), scoped),
		"GET", "/?customer_id="+uuid.NewString(), nil,
	)
	w := httptest.NewRecorder()

	hub.ServeWS(w, req)

	assert.Equal(t, 403, w.Code)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.Nop{}.Publish(context.Background(), notify.Event{Type: notify.EventCanceled})
	})
}
