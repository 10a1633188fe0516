package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
	roomService "github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

// absorbedErrors are stale or malformed requests. They are dropped without
// telling the client.
var absorbedErrors = []error{
	room.ErrRoomNotFound,
	room.ErrMemberNotFound,
	room.ErrPlaylistEmpty,
	connection.ErrNotFound,
	roomService.ErrNotJoined,
	roomService.ErrStaleRoom,
	roomService.ErrPermissionDenied,
	wsrouter.ErrInvalidPayload,
}

func (c controller) handleWSError(ctx context.Context, conn *websocket.Conn, err error) {
	for _, target := range absorbedErrors {
		if errors.Is(err, target) {
			c.logger.DebugContext(ctx, "request ignored", "error", err)
			return
		}
	}

	if errors.Is(err, wsrouter.ErrUnknownMessageType) {
		c.logger.DebugContext(ctx, "unknown message type", "error", err)
		if peer := c.getPeerFromCtx(ctx); peer != nil {
			if err := peer.Send(&roomService.Message{
				Type:    "error",
				Payload: errorPayload{Message: err.Error()},
			}); err != nil {
				c.logger.InfoContext(ctx, "failed to send error", "error", err)
			}
		}
		return
	}

	c.logger.WarnContext(ctx, "failed to handle message", "error", err)
}

type errorPayload struct {
	Message string `json:"message"`
}
