package core

import (
	"encoding/json"

	"github.com/dkeye/RoomChat/internal/domain"
)

// Event names exchanged over the signal channel.
const (
	EventJoinRequest       = "join-request"
	EventJoinPending       = "join-pending"
	EventJoinSuccess       = "join-success"
	EventJoinDenied        = "join-denied"
	EventApprovalRequest   = "approval-request"
	EventApproveJoin       = "approve-join"
	EventDenyJoin          = "deny-join"
	EventAdminNotification = "admin-notification"
	EventUserJoined        = "user-joined"
	EventLeft              = "left"
	EventSend              = "send"
	EventSendMedia         = "send-media"
	EventReceive           = "receive"

	EventPing   = "ping"
	EventPong   = "pong"
	EventWhoAmI = "whoami"
	EventError  = "error"
)

const (
	KindText  = "text"
	KindImage = "image"
	KindFile  = "file"
)

// Envelope is the wire form of every event.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps data into an Envelope of the given type.
func Encode(event string, data any) (Frame, error) {
	env := struct {
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}{Type: event, Data: data}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}

type JoinRequest struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

type ApproveJoin struct {
	ConnectionID SessionID `json:"connectionId"`
	Room         string    `json:"room"`
}

type DenyJoin struct {
	ConnectionID SessionID `json:"connectionId"`
}

type SendMedia struct {
	File     json.RawMessage `json:"file"`
	FileName string          `json:"fileName"`
	Type     string          `json:"type"`
}

type Notice struct {
	Message string `json:"message"`
}

type JoinSuccess struct {
	Name string          `json:"name"`
	Room domain.RoomName `json:"room"`
	Role domain.Role     `json:"role"`
}

type ApprovalRequest struct {
	ConnectionID SessionID       `json:"connectionId"`
	Name         string          `json:"name"`
	Room         domain.RoomName `json:"room"`
}

type UserJoined struct {
	Name string `json:"name"`
}

type Left struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// Receive is a relayed chat or media event. Message is a string for text and
// the sender's opaque blob for media.
type Receive struct {
	Message  any    `json:"message"`
	FileName string `json:"fileName,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

type WhoAmI struct {
	ConnectionID SessionID       `json:"connectionId"`
	Status       string          `json:"status"`
	Name         string          `json:"name,omitempty"`
	Room         domain.RoomName `json:"room,omitempty"`
	Role         domain.Role     `json:"role,omitempty"`
}
