package controller

import (
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, "ping", c.handlePing)

	// room
	wsrouter.Handle(mux, "join-room", c.handleJoinRoom)

	// playlist
	wsrouter.Handle(mux, "add-to-playlist", c.handleAddToPlaylist)
	wsrouter.Handle(mux, "remove-first-item", c.handleRemoveFirstItem)

	// player
	wsrouter.Handle(mux, "sync-action", c.handleSyncAction)

	// chat
	wsrouter.Handle(mux, "send-chat", c.handleSendChat)
	wsrouter.Handle(mux, "send-emoji", c.handleSendEmoji)

	return mux
}
