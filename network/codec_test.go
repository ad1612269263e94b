package network

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodePacket(t *testing.T) {
	payload := []byte(`{"roomKey":"abc"}`)

	raw, err := EncodePacket(MsgTypeJoinRoom, payload)
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}
	if len(raw) != 4+len(payload) {
		t.Fatalf("Expected %d bytes, got %d", 4+len(payload), len(raw))
	}

	packet, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if packet.MsgID != MsgTypeJoinRoom {
		t.Errorf("Expected msgID %d, got %d", MsgTypeJoinRoom, packet.MsgID)
	}
	if int(packet.Length) != len(payload) {
		t.Errorf("Expected length %d, got %d", len(payload), packet.Length)
	}
	if !bytes.Equal(packet.Data, payload) {
		t.Errorf("Expected data %q, got %q", payload, packet.Data)
	}
}

func TestDecodePacket_Short(t *testing.T) {
	if _, err := DecodePacket([]byte{0, 1}); err != io.ErrShortBuffer {
		t.Errorf("Expected io.ErrShortBuffer for a truncated header, got %v", err)
	}

	// header claims 10 bytes but only 2 follow
	if _, err := DecodePacket([]byte{0, 1, 0, 10, 'a', 'b'}); err != io.ErrShortBuffer {
		t.Errorf("Expected io.ErrShortBuffer for a truncated body, got %v", err)
	}
}

func TestDecodePacket_EmptyPayload(t *testing.T) {
	raw, _ := EncodePacket(MsgTypeRollDice, nil)
	packet, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if packet.MsgID != MsgTypeRollDice || len(packet.Data) != 0 {
		t.Errorf("Unexpected packet %+v", packet)
	}
}

func TestEncodePacket_TooLarge(t *testing.T) {
	if _, err := EncodePacket(MsgTypeSendChat, make([]byte, 70000)); err != ErrPayloadTooLarge {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestMsgName(t *testing.T) {
	if MsgName(MsgTypeDiceRolled) != "diceRolled" {
		t.Errorf("Expected diceRolled, got %s", MsgName(MsgTypeDiceRolled))
	}
	if MsgName(9999) != "unknown" {
		t.Errorf("Expected unknown, got %s", MsgName(9999))
	}
}
