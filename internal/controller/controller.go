package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/room"
	roomService "github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/wsrouter"
	"golang.org/x/sync/singleflight"
)

type iRoomService interface {
	ConnectMember(context.Context, *roomService.ConnectMemberParams) (roomService.ConnectMemberResponse, error)
	JoinRoom(context.Context, *roomService.JoinRoomParams) (roomService.JoinRoomResponse, error)
	DisconnectMember(context.Context, *roomService.DisconnectMemberParams) (roomService.DisconnectMemberResponse, error)
	AddVideo(context.Context, *roomService.AddVideoParams) (roomService.AddVideoResponse, error)
	RemoveFirstVideo(context.Context, *roomService.RemoveFirstVideoParams) (roomService.RemoveFirstVideoResponse, error)
	SyncPlayer(context.Context, *roomService.SyncPlayerParams) (roomService.SyncPlayerResponse, error)
	SendChat(context.Context, *roomService.SendChatParams) error
	SendEmoji(context.Context, *roomService.SendEmojiParams) error
	GetRoomState(context.Context, string) (room.Snapshot, error)
}

type Config struct {
	// StaticDir is served at the root when not empty.
	StaticDir string
	// SendBuffer is the number of outbound messages queued per connection
	// before it is considered too slow and closed.
	SendBuffer int
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	wsmux       *wsrouter.WSRouter
	snapshots   *singleflight.Group
	staticDir   string
	sendBuffer  int
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger, cfg *Config) *controller {
	c := &controller{
		roomService: roomService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		snapshots:  &singleflight.Group{},
		staticDir:  cfg.StaticDir,
		sendBuffer: cfg.SendBuffer,
		logger:     logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
