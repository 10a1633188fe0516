package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/room"
	roomService "github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/wsconn"
)

const maxMessageSize = 64 << 10

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	peer := wsconn.New(ws, c.sendBuffer)
	defer peer.Close()

	connectResp, err := c.roomService.ConnectMember(r.Context(), &roomService.ConnectMemberParams{
		Peer: peer,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect member", "error", err)
		return
	}

	// the request context is cancelled once the handler returns
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	ctx = ctxlogger.AppendCtx(ctx, slog.String("session_id", connectResp.SessionId))
	ctx = context.WithValue(ctx, sessionIdCtxKey, connectResp.SessionId)
	ctx = context.WithValue(ctx, peerCtxKey, peer)

	defer c.disconnect(ctx, connectResp.SessionId)

	go func() {
		if err := peer.WritePump(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.InfoContext(ctx, "write pump stopped", "error", err)
		}
	}()

	c.logger.InfoContext(ctx, "connection opened")
	if err := c.wsmux.ServeConn(ctx, ws); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
			return
		}
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, sessionId string) {
	disconnectResp, err := c.roomService.DisconnectMember(ctx, &roomService.DisconnectMemberParams{
		SenderId: sessionId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if disconnectResp.NewHost != nil {
		c.logger.InfoContext(ctx, "host migrated", "new_host", *disconnectResp.NewHost)
	}
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	// concurrent polls of one room share a single read of the state
	v, err, _ := c.snapshots.Do(roomId, func() (any, error) {
		return c.roomService.GetRoomState(r.Context(), roomId)
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.writeJSON(w, r, http.StatusNotFound, envelope{"error": err.Error()})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get room state", "error", err)
		c.writeJSON(w, r, http.StatusInternalServerError, envelope{"error": "internal error"})
		return
	}

	c.writeJSON(w, r, http.StatusOK, v.(room.Snapshot))
}
