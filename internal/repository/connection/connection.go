package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Peer is the outbound side of a client connection.
type Peer interface {
	Send(msg any) error
}

// Session is what a connection acts as. It is unbound until the connection
// joins a room.
type Session struct {
	Id       string
	RoomId   string
	Username string
	IsBound  bool
}
