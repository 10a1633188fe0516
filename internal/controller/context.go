package controller

import (
	"context"

	"github.com/sharetube/watchparty/pkg/wsconn"
)

type contextKey int

const (
	sessionIdCtxKey contextKey = iota
	peerCtxKey
)

func (c controller) getSessionIdFromCtx(ctx context.Context) string {
	sessionId, ok := ctx.Value(sessionIdCtxKey).(string)
	if !ok {
		return ""
	}

	return sessionId
}

func (c controller) getPeerFromCtx(ctx context.Context) *wsconn.Conn {
	peer, ok := ctx.Value(peerCtxKey).(*wsconn.Conn)
	if !ok {
		return nil
	}

	return peer
}
