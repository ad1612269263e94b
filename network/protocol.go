package network

// 客户端 -> 服务器
const (
	MsgTypeHeartbeat    = 1
	MsgTypeJoinRoom     = 101
	MsgTypeLeaveRoom    = 102
	MsgTypeStartGame    = 103
	MsgTypeRollDice     = 201
	MsgTypeShootPlayer  = 202
	MsgTypeSendChat     = 203
	MsgTypeGetGameState = 204
)

// 服务器 -> 客户端
const (
	MsgTypeJoinSuccess  = 301
	MsgTypeJoinFailed   = 302
	MsgTypePlayerJoined = 303
	MsgTypePlayerLeft   = 304
	MsgTypeGameStarted  = 305
	MsgTypeDiceRolled   = 306
	MsgTypeTurnChanged  = 307
	MsgTypeNotYourTurn  = 308
	MsgTypePlayerShot   = 309
	MsgTypeShootFailed  = 310
	MsgTypeGameOver     = 311
	MsgTypeGameState    = 312
	MsgTypeChatMessage  = 313
	MsgTypeActionFailed = 314
	MsgTypeServerError  = 399
)

var msgNames = map[uint16]string{
	MsgTypeHeartbeat:    "heartbeat",
	MsgTypeJoinRoom:     "joinRoom",
	MsgTypeLeaveRoom:    "leaveRoom",
	MsgTypeStartGame:    "startGame",
	MsgTypeRollDice:     "rollDice",
	MsgTypeShootPlayer:  "shootPlayer",
	MsgTypeSendChat:     "sendChat",
	MsgTypeGetGameState: "getGameState",
	MsgTypeJoinSuccess:  "joinSuccess",
	MsgTypeJoinFailed:   "joinFailed",
	MsgTypePlayerJoined: "playerJoined",
	MsgTypePlayerLeft:   "playerLeft",
	MsgTypeGameStarted:  "gameStarted",
	MsgTypeDiceRolled:   "diceRolled",
	MsgTypeTurnChanged:  "turnChanged",
	MsgTypeNotYourTurn:  "notYourTurn",
	MsgTypePlayerShot:   "playerShot",
	MsgTypeShootFailed:  "shootFailed",
	MsgTypeGameOver:     "gameOver",
	MsgTypeGameState:    "gameState",
	MsgTypeChatMessage:  "chatMessage",
	MsgTypeActionFailed: "actionFailed",
	MsgTypeServerError:  "serverError",
}

// MsgName returns the protocol name of a message ID, for logs and the CLI client.
func MsgName(msgID uint16) string {
	if name, ok := msgNames[msgID]; ok {
		return name
	}
	return "unknown"
}

// JoinRoomRequest joins, or creates, the room with the given key.
type JoinRoomRequest struct {
	PlayerName string `json:"playerName"`
	RoomKey    string `json:"roomKey"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
}

type ShootPlayerRequest struct {
	TargetID      string `json:"targetId"`
	DisableNumber int    `json:"disableNumber"`
}

type SendChatRequest struct {
	Message string `json:"message"`
}
