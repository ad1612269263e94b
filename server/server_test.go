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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/oddroll/monitor"
	"github.com/wfunc/oddroll/network"
	"github.com/wfunc/oddroll/persistence"
	"github.com/wfunc/oddroll/room"
	"github.com/wfunc/oddroll/services"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T, opts Options) (*GameServer, *persistence.Memory, string) {
	t.Helper()
	rooms := room.NewRoomManager(room.DefaultSettings(), nil)
	history := persistence.NewMemory(10)
	mon := monitor.NewMonitor("oddroll_test", prometheus.NewRegistry())
	engine := services.NewGameService(rooms, history, mon, 200)
	s := NewGameServer(opts, rooms, engine, mon)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, history, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(msgID uint16, v interface{}) {
	c.t.Helper()
	var data []byte
	if v != nil {
		var err error
		data, err = json.Marshal(v)
		require.NoError(c.t, err)
	}
	packet, err := network.EncodePacket(msgID, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.BinaryMessage, packet))
}

// expect reads until a packet with msgID arrives and decodes it into v.
func (c *testClient) expect(msgID uint16, v interface{}) {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", network.MsgName(msgID))
		packet, err := network.DecodePacket(data)
		require.NoError(c.t, err)
		if packet.MsgID != msgID {
			continue
		}
		if v != nil {
			require.NoError(c.t, json.Unmarshal(packet.Data, v))
		}
		return
	}
}

func TestServer_JoinStartAndForfeit(t *testing.T) {
	_, history, url := newTestServer(t, Options{})

	a := dial(t, url)
	a.send(network.MsgTypeJoinRoom, network.JoinRoomRequest{PlayerName: "Ann", RoomKey: "table"})
	var joined services.JoinSuccess
	a.expect(network.MsgTypeJoinSuccess, &joined)
	assert.Equal(t, "table", joined.RoomKey)
	assert.NotEmpty(t, joined.PlayerID)

	b := dial(t, url)
	b.send(network.MsgTypeJoinRoom, network.JoinRoomRequest{PlayerName: "Bob", RoomKey: "table"})
	b.expect(network.MsgTypeJoinSuccess, nil)

	var update services.PlayersUpdate
	a.expect(network.MsgTypePlayerJoined, &update)
	assert.Len(t, update.Players, 2)

	a.send(network.MsgTypeStartGame, nil)
	var started services.GameStarted
	a.expect(network.MsgTypeGameStarted, &started)
	b.expect(network.MsgTypeGameStarted, nil)
	assert.Equal(t, joined.PlayerID, started.CurrentPlayer.ID)

	b.send(network.MsgTypeRollDice, nil)
	b.expect(network.MsgTypeNotYourTurn, nil)

	// Bob drops: Ann is the last one alive
	require.NoError(t, b.conn.Close())
	a.expect(network.MsgTypePlayerLeft, nil)
	var over services.GameOver
	a.expect(network.MsgTypeGameOver, &over)
	assert.Equal(t, "Ann", over.Winner.Name)

	assert.Eventually(t, func() bool {
		games, err := history.RecentGameRecords(context.Background(), 1)
		return err == nil && len(games) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestServer_RateLimited(t *testing.T) {
	_, _, url := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 1})

	c := dial(t, url)
	c.send(network.MsgTypeGetGameState, nil)
	var first services.Notice
	c.expect(network.MsgTypeActionFailed, &first)
	assert.Equal(t, "not_in_room", first.Code)

	c.send(network.MsgTypeGetGameState, nil)
	var second services.Notice
	c.expect(network.MsgTypeActionFailed, &second)
	assert.Equal(t, "rate_limited", second.Code)
}

func TestServer_Heartbeat(t *testing.T) {
	_, _, url := newTestServer(t, Options{Heartbeat: time.Minute})

	c := dial(t, url)
	c.send(network.MsgTypeHeartbeat, nil)
	c.expect(network.MsgTypeHeartbeat, nil)
}

func TestServer_Metrics(t *testing.T) {
	s, _, url := newTestServer(t, Options{})
	c := dial(t, url)
	c.send(network.MsgTypeJoinRoom, network.JoinRoomRequest{PlayerName: "Ann", RoomKey: "table"})
	c.expect(network.MsgTypeJoinSuccess, nil)
	s.RefreshStats()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "oddroll_test_active_rooms 1")
	assert.Contains(t, rec.Body.String(), "oddroll_test_online_sessions 1")
}

func TestServer_Shutdown(t *testing.T) {
	s, _, url := newTestServer(t, Options{})
	c := dial(t, url)
	c.send(network.MsgTypeJoinRoom, network.JoinRoomRequest{PlayerName: "Ann", RoomKey: "table"})
	c.expect(network.MsgTypeJoinSuccess, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.Equal(t, 0, s.Sessions().Count())
	assert.Equal(t, 0, s.roomManager.Count())
}
