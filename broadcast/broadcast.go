// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"

	"github.com/wfunc/oddroll/logger"
	"github.com/wfunc/oddroll/services"
	"github.com/wfunc/oddroll/session"
)

// 广播接口
type Broadcaster interface {
	Deliver(events []services.Event)
	BroadcastToAll(msgID uint16, data []byte)
	BroadcastToUsers(sessionIDs []string, msgID uint16, data []byte)
}

// 基于会话的广播器. Recipients come resolved with each event, so the
// broadcaster never takes a room lock.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

// Deliver sends each event to its recipients in order. The payload is encoded
// once per event.
func (b *RoomBroadcaster) Deliver(events []services.Event) {
	for _, e := range events {
		if len(e.Recipients) == 0 {
			continue
		}
		data, err := json.Marshal(e.Payload)
		if err != nil {
			logger.Log.Errorf("Failed to encode message %d: %v", e.MsgID, err)
			continue
		}
		b.BroadcastToUsers(e.Recipients, e.MsgID, data)
	}
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) {
	for _, s := range b.sessionManager.All() {
		b.send(s, msgID, data)
	}
}

// BroadcastToUsers skips sessions that have already gone away.
func (b *RoomBroadcaster) BroadcastToUsers(sessionIDs []string, msgID uint16, data []byte) {
	for _, id := range sessionIDs {
		s, ok := b.sessionManager.Get(id)
		if !ok {
			continue
		}
		b.send(s, msgID, data)
	}
}

func (b *RoomBroadcaster) send(s *session.Session, msgID uint16, data []byte) {
	if err := s.Send(msgID, data); err != nil {
		// 发送失败: 读循环会发现连接断开并清理
		logger.Log.Debugf("Send %d to session %s failed: %v", msgID, s.ID, err)
	}
}
