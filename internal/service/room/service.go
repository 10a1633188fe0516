package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
)

var (
	ErrNotJoined        = errors.New("connection has not joined a room")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStaleRoom        = errors.New("stale room reference")
)

type iRoomRepo interface {
	AddMember(context.Context, *room.AddMemberParams) (room.AddMemberResponse, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) (room.RemoveMemberResponse, error)
	UpdateMember(context.Context, *room.UpdateMemberParams) (room.Room, error)
	AddVideo(context.Context, *room.AddVideoParams) (room.Room, error)
	RemoveFirstVideo(context.Context, string) (room.RemoveFirstVideoResponse, error)
	GetRoom(context.Context, string) (room.Room, error)
}

type iConnRepo interface {
	Add(string, connection.Peer) error
	Remove(string) (connection.Session, error)
	GetPeer(string) (connection.Peer, error)
	GetSession(string) (connection.Session, error)
	BindSession(id, roomId, username string) error
	UnbindSession(string) error
}

type iRoomMirror interface {
	Publish(room.Snapshot)
	Remove(string)
}

type iGenerator interface {
	NewId() string
}

type Config struct {
	// HostOnlyControls restricts remove-first-item and sync-action to the
	// room host.
	HostOnlyControls bool
	// Mirror receives a snapshot after every membership or playlist change.
	// Optional.
	Mirror iRoomMirror
}

// service serializes every operation behind mu. Outbound messages are queued
// on the recipients' peers before mu is released, so members of a room see
// events in the order they were applied.
type service struct {
	roomRepo         iRoomRepo
	connRepo         iConnRepo
	mirror           iRoomMirror
	generator        iGenerator
	hostOnlyControls bool
	mu               sync.Mutex
	logger           *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo:         roomRepo,
		connRepo:         connRepo,
		mirror:           cfg.Mirror,
		generator:        uuidGenerator{},
		hostOnlyControls: cfg.HostOnlyControls,
		logger:           logger,
	}
}
