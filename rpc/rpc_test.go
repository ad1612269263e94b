package rpc

import (
	"context"
	"net/rpc"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/oddroll/models"
	"github.com/wfunc/oddroll/persistence"
	"github.com/wfunc/oddroll/room"
)

func startServer(t *testing.T, rooms *room.Manager, history History) *rpc.Client {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", NewGameService(rooms, history))
	require.NoError(t, err)
	go srv.Start()
	t.Cleanup(srv.Stop)

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestListRooms(t *testing.T) {
	rooms := room.NewRoomManager(room.DefaultSettings(), nil)
	_, err := rooms.Join("s1", "beta", "Ann", 0)
	require.NoError(t, err)
	_, err = rooms.Join("s2", "alpha", "Bob", 3)
	require.NoError(t, err)

	client := startServer(t, rooms, nil)

	var reply ListRoomsReply
	require.NoError(t, client.Call(ServiceName+".ListRooms", &ListRoomsArgs{}, &reply))
	require.Len(t, reply.Rooms, 2)
	assert.Equal(t, "alpha", reply.Rooms[0].ID)
	assert.Equal(t, 3, reply.Rooms[0].Capacity)
	assert.Equal(t, "lobby", reply.Rooms[1].Phase)
	assert.Equal(t, 2, reply.Players)

	var active ListRoomsReply
	require.NoError(t, client.Call(ServiceName+".ListRooms", &ListRoomsArgs{Phase: "active"}, &active))
	assert.Empty(t, active.Rooms)
}

func TestRecentGames(t *testing.T) {
	history := persistence.NewMemory(10)
	now := time.Now()
	for _, id := range []string{"g1", "g2", "g3"} {
		require.NoError(t, history.SaveGameRecord(context.Background(), &models.GameRecord{
			ID:         id,
			RoomID:     "t",
			StartedAt:  now,
			FinishedAt: now,
		}))
	}

	client := startServer(t, room.NewRoomManager(room.DefaultSettings(), nil), history)

	var reply RecentGamesReply
	require.NoError(t, client.Call(ServiceName+".RecentGames", &RecentGamesArgs{Limit: 2}, &reply))
	require.Len(t, reply.Games, 2)
	assert.Equal(t, "g3", reply.Games[0].ID)
	assert.Equal(t, "g2", reply.Games[1].ID)
}

func TestRecentGames_NoHistory(t *testing.T) {
	client := startServer(t, room.NewRoomManager(room.DefaultSettings(), nil), nil)

	var reply RecentGamesReply
	err := client.Call(ServiceName+".RecentGames", &RecentGamesArgs{}, &reply)
	assert.Error(t, err)
}
