package ws

import "encoding/json"

// Envelope is the wire frame for both directions: an event name plus a
// JSON payload, mirroring the socket.io shape the frontend speaks.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EvCreateRoom = "createRoom"
	EvJoinRoom   = "joinRoom"
	EvMove       = "move"
	EvSetAddress = "setAddress"
)

// Outbound event names.
const (
	EvRoomCreated        = "roomCreated"
	EvRoomJoined         = "roomJoined"
	EvPlayerColor        = "playerColor"
	EvGameStart          = "gameStart"
	EvMoveMade           = "moveMade"
	EvGameEnd            = "gameEnd"
	EvRoomError          = "roomError"
	EvInvalidMove        = "invalidMove"
	EvPlayerDisconnected = "playerDisconnected"
)

type createRoomReq struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	PlayerID string `json:"playerId"`
}

type joinRoomReq struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	PlayerID string `json:"playerId"`
}

type moveReq struct {
	RoomID string `json:"roomId"`
	Move   struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"move"`
}

type roomState struct {
	RoomID string `json:"roomId"`
	FEN    string `json:"fen"`
}

type gameStart struct {
	FEN string `json:"fen"`
}

type moveMade struct {
	FEN      string `json:"fen"`
	Turn     string `json:"turn"`
	InCheck  bool   `json:"inCheck"`
	GameOver bool   `json:"gameOver"`
}

type gameEnd struct {
	Winner    string `json:"winner"`
	Signature string `json:"signature,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
}
