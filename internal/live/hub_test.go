package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/domain"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(nil, nil)
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 5*time.Second, 10*time.Millisecond)
}

func record(id string, net float64) *domain.SnapshotRecord {
	snap := domain.EmptySnapshot()
	snap.ProfitLoss.NetProfitLoss = net
	return &domain.SnapshotRecord{
		SnapshotID: id,
		ComputedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Snapshot:   snap,
	}
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub, url := newTestHub(t)

	a := dial(t, url)
	b := dial(t, url)
	waitForClients(t, hub, 2)

	dropped, err := hub.Broadcast(record("s1", 42))
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeSnapshot, msg.Type)
		assert.Equal(t, "s1", msg.SnapshotID)
		require.NotNil(t, msg.Snapshot)
		assert.Equal(t, 42.0, msg.Snapshot.ProfitLoss.NetProfitLoss)
	}
}

func TestHub_NewClientReceivesLatest(t *testing.T) {
	hub, url := newTestHub(t)

	_, err := hub.Broadcast(record("before-connect", 7))
	require.NoError(t, err)

	conn := dial(t, url)
	msg := readMessage(t, conn)
	assert.Equal(t, "before-connect", msg.SnapshotID)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, url := newTestHub(t)

	conn := dial(t, url)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastRejectsEmpty(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	_, err := hub.Broadcast(nil)
	assert.Error(t, err)
	_, err = hub.Broadcast(&domain.SnapshotRecord{SnapshotID: "x"})
	assert.Error(t, err)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, url := newTestHub(t)

	conn := dial(t, url)
	waitForClients(t, hub, 1)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.ClientCount())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_RejectsClientsAfterClose(t *testing.T) {
	hub, url := newTestHub(t)
	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_CloseDuringConnectLeavesNoClients(t *testing.T) {
	hub, url := newTestHub(t)

	const dialers = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns []*websocket.Conn
	)
	start := make(chan struct{})
	for i := 0; i < dialers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}()
	}

	close(start)
	require.NoError(t, hub.Close())
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, err := conn.ReadMessage()
		assert.Error(t, err)
		conn.Close()
	}
}
