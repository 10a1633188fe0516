package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service/room"
)

type EmptyStruct struct{}

func (es *EmptyStruct) UnmarshalJSON([]byte) error {
	return nil
}

func (c controller) handlePing(ctx context.Context, conn *websocket.Conn, input EmptyStruct) error {
	return nil
}

type JoinRoomInput struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, input JoinRoomInput) error {
	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		SenderId: c.getSessionIdFromCtx(ctx),
		RoomId:   input.RoomId,
		Username: input.Username,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.logger.DebugContext(ctx, "joined room", "room_id", input.RoomId, "host", joinRoomResp.Host, "is_room_created", joinRoomResp.IsRoomCreated)

	return nil
}

type AddToPlaylistInput struct {
	RoomId  string `json:"roomId"`
	VideoId string `json:"videoId"`
}

func (c controller) handleAddToPlaylist(ctx context.Context, conn *websocket.Conn, input AddToPlaylistInput) error {
	if _, err := c.roomService.AddVideo(ctx, &room.AddVideoParams{
		SenderId: c.getSessionIdFromCtx(ctx),
		RoomId:   input.RoomId,
		VideoId:  input.VideoId,
	}); err != nil {
		return fmt.Errorf("failed to add video: %w", err)
	}

	return nil
}

type RemoveFirstItemInput struct {
	RoomId string `json:"roomId"`
}

func (c controller) handleRemoveFirstItem(ctx context.Context, conn *websocket.Conn, input RemoveFirstItemInput) error {
	removeResp, err := c.roomService.RemoveFirstVideo(ctx, &room.RemoveFirstVideoParams{
		SenderId: c.getSessionIdFromCtx(ctx),
		RoomId:   input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to remove first video: %w", err)
	}

	c.logger.DebugContext(ctx, "video removed", "video_id", removeResp.RemovedVideoId)

	return nil
}

// SyncActionInput keeps the whole payload so it can be relayed untouched.
type SyncActionInput struct {
	RoomId string          `json:"roomId"`
	Action string          `json:"action"`
	Raw    json.RawMessage `json:"-"`
}

func (i *SyncActionInput) UnmarshalJSON(data []byte) error {
	var fields struct {
		RoomId string `json:"roomId"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	i.RoomId = fields.RoomId
	i.Action = fields.Action
	i.Raw = slices.Clone(data)

	return nil
}

func (c controller) handleSyncAction(ctx context.Context, conn *websocket.Conn, input SyncActionInput) error {
	if _, err := c.roomService.SyncPlayer(ctx, &room.SyncPlayerParams{
		SenderId: c.getSessionIdFromCtx(ctx),
		RoomId:   input.RoomId,
		Action:   input.Action,
		Payload:  input.Raw,
	}); err != nil {
		return fmt.Errorf("failed to sync player: %w", err)
	}

	return nil
}

type SendChatInput struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username"`
	Msg      string `json:"msg"`
}

func (c controller) handleSendChat(ctx context.Context, conn *websocket.Conn, input SendChatInput) error {
	if err := c.roomService.SendChat(ctx, &room.SendChatParams{
		SenderId: c.getSessionIdFromCtx(ctx),
		RoomId:   input.RoomId,
		Username: input.Username,
		Msg:      input.Msg,
	}); err != nil {
		return fmt.Errorf("failed to send chat: %w", err)
	}

	return nil
}

type SendEmojiInput struct {
	RoomId string `json:"roomId"`
	Emoji  string `json:"emoji"`
}

func (c controller) handleSendEmoji(ctx context.Context, conn *websocket.Conn, input SendEmojiInput) error {
	if err := c.roomService.SendEmoji(ctx, &room.SendEmojiParams{
		SenderId: c.getSessionIdFromCtx(ctx),
		RoomId:   input.RoomId,
		Emoji:    input.Emoji,
	}); err != nil {
		return fmt.Errorf("failed to send emoji: %w", err)
	}

	return nil
}
