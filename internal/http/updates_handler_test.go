package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/trainer-scheduler/internal/events"
	"github.com/example/trainer-scheduler/internal/scheduler"
	"github.com/example/trainer-scheduler/internal/testfixtures"
)

type hubSource struct {
	*events.Hub
	current []scheduler.Event
}

func (s hubSource) Events() []scheduler.Event {
	return s.current
}

func readUpdate(t *testing.T, conn *websocket.Conn) updateMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg updateMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestUpdatesHandlerStreamsHubUpdates(t *testing.T) {
	existing := testfixtures.NewEventFixture(testfixtures.WithEventID("E1")).Domain()
	source := hubSource{Hub: events.NewHub(nil), current: []scheduler.Event{existing}}

	srv := httptest.NewServer(NewUpdatesHandler(source, nil))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	snapshot := readUpdate(t, conn)
	assert.Equal(t, "snapshot", snapshot.Kind)
	require.Len(t, snapshot.Events, 1)
	assert.Equal(t, "E1", snapshot.Events[0].ID)
	require.Equal(t, 1, source.Len())

	created := testfixtures.NewEventFixture(testfixtures.WithEventID("E2")).Domain()
	source.Publish(context.Background(), events.Update{
		Kind:    events.KindCreated,
		Changed: []scheduler.Event{created},
		Events:  []scheduler.Event{existing, created},
	})
	source.Publish(context.Background(), events.Update{
		Kind:       events.KindDeleted,
		RemovedIDs: []string{"E1"},
		Events:     []scheduler.Event{created},
	})

	msg := readUpdate(t, conn)
	assert.Equal(t, "created", msg.Kind)
	require.Len(t, msg.Changed, 1)
	assert.Equal(t, "E2", msg.Changed[0].ID)
	assert.Len(t, msg.Events, 2)

	msg = readUpdate(t, conn)
	assert.Equal(t, "deleted", msg.Kind)
	assert.Equal(t, []string{"E1"}, msg.RemovedIDs)
	assert.Empty(t, msg.Changed)
}

func TestUpdatesHandlerUnsubscribesOnClose(t *testing.T) {
	source := hubSource{Hub: events.NewHub(nil)}

	srv := httptest.NewServer(NewUpdatesHandler(source, nil))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	readUpdate(t, conn)
	require.Equal(t, 1, source.Len())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return source.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestWSClientDropsSlowConsumer(t *testing.T) {
	client := &wsClient{send: make(chan []byte, 1), logger: defaultLogger(nil)}
	client.enqueue([]byte("first"))
	client.enqueue([]byte("second"))
	client.enqueue([]byte("third"))
	client.close()

	first, ok := <-client.send
	require.True(t, ok)
	assert.Equal(t, "first", string(first))
	_, ok = <-client.send
	assert.False(t, ok, "expected the stream to be closed after overflow")
}
