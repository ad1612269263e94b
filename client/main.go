package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/oddroll/network"
)

const usage = `commands:
  join <room> <name> [max]
  start
  roll
  shoot <playerId> <box>
  chat <text>
  state
  leave
  quit`

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	var data []byte
	if v != nil {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// command turns one input line into a request. ok is false for bad input.
func command(line string) (msgID uint16, payload interface{}, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, false
	}
	switch fields[0] {
	case "join":
		if len(fields) < 3 {
			return 0, nil, false
		}
		req := network.JoinRoomRequest{RoomKey: fields[1], PlayerName: fields[2]}
		if len(fields) > 3 {
			n, err := strconv.Atoi(fields[3])
			if err != nil {
				return 0, nil, false
			}
			req.MaxPlayers = n
		}
		return network.MsgTypeJoinRoom, req, true
	case "start":
		return network.MsgTypeStartGame, nil, true
	case "roll":
		return network.MsgTypeRollDice, nil, true
	case "shoot":
		if len(fields) != 3 {
			return 0, nil, false
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return 0, nil, false
		}
		return network.MsgTypeShootPlayer, network.ShootPlayerRequest{TargetID: fields[1], DisableNumber: n}, true
	case "chat":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "chat"))
		return network.MsgTypeSendChat, network.SendChatRequest{Message: text}, true
	case "state":
		return network.MsgTypeGetGameState, nil, true
	case "leave":
		return network.MsgTypeLeaveRoom, nil, true
	}
	return 0, nil, false
}

func main() {
	addr := flag.String("addr", "localhost:3000", "game server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			if packet.MsgID == network.MsgTypeHeartbeat {
				continue
			}
			log.Printf("<- %s: %s", network.MsgName(packet.MsgID), string(packet.Data))
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	log.Println("Client started.\n" + usage)

	// all writes happen on this goroutine; gorilla allows one writer at a time
	heartbeat := time.NewTicker(10 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
				log.Println("Write error:", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "quit" {
				c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			msgID, payload, valid := command(line)
			if !valid {
				log.Println(usage)
				continue
			}
			if err := send(c, msgID, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> %s", network.MsgName(msgID))
		}
	}
}
