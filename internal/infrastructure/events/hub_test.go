package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"camwall/internal/core/domain"
)

func newTestHub() *Hub {
	return NewHub(50*time.Millisecond, 200*time.Millisecond, 100*time.Millisecond, 8, nil, zap.NewNop().Sugar())
}

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestClientReceivesBroadcast(t *testing.T) {
	hub := newTestHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishFeed(domain.FeedEvent{
		Type:   "feed_state",
		Status: domain.FeedStatus{Position: 2, State: domain.FeedPlaying},
	})

	event := readEvent(t, conn)
	assert.Equal(t, "feed_state", event["type"])
}

func TestClientReceivesSnapshotFirst(t *testing.T) {
	hub := newTestHub()
	hub.SetSnapshot(func() []interface{} {
		return []interface{}{
			domain.WallEvent{Type: "wall_state", Wall: domain.NewWall()},
		}
	})

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	event := readEvent(t, conn)
	assert.Equal(t, "wall_state", event["type"])
}

func TestWallEventRoundTrip(t *testing.T) {
	hub := newTestHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishWall(domain.WallEvent{
		Type: "wall_state",
		Wall: domain.Wall{Layout: domain.LayoutFocus, Focused: 1, Audible: 1},
	})

	event := readEvent(t, conn)
	require.Equal(t, "wall_state", event["type"])

	wall, ok := event["wall"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "focus", wall["layout"])
	assert.Equal(t, float64(1), wall["focused"])
}

func TestDisconnectDropsClient(t *testing.T) {
	hub := newTestHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := newTestHub()
	// Must not panic or block.
	hub.PublishFeed(domain.FeedEvent{Type: "feed_state"})
	assert.Zero(t, hub.ClientCount())
}
