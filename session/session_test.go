package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/oddroll/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{}, 0, 0)

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_All(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("session1", &MockConnection{}, 0, 0))
	manager.Add(NewSession("session2", &MockConnection{}, 0, 0))

	if got := len(manager.All()); got != 2 {
		t.Errorf("Expected 2 sessions, got %d", got)
	}
}

func TestSession_Allow(t *testing.T) {
	unlimited := NewSession("free", &MockConnection{}, 0, 0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow() {
			t.Fatal("A session without a limit should always be allowed")
		}
	}

	limited := NewSession("limited", &MockConnection{}, 1, 3)
	allowed := 0
	for i := 0; i < 10; i++ {
		if limited.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("Expected the burst of 3 to pass, got %d", allowed)
	}
}

func TestSession_SendAndTouch(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s", conn, 0, 0)
	before := sess.LastActive()

	time.Sleep(time.Millisecond)
	sess.Touch()
	if !sess.LastActive().After(before) {
		t.Error("Touch should move LastActive forward")
	}

	if err := sess.Send(network.MsgTypeGameState, []byte("{}")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeGameState {
		t.Errorf("Expected one gameState packet, got %v", conn.sent)
	}
}
