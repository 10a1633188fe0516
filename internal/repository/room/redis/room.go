package redis

import (
	"context"

	"github.com/sharetube/watchparty/internal/repository/room"
)

func (r repo) getStateKey(roomId string) string {
	return "room:" + roomId + ":state"
}

func (r repo) getUsersKey(roomId string) string {
	return "room:" + roomId + ":users"
}

func (r repo) getPlaylistKey(roomId string) string {
	return "room:" + roomId + ":playlist"
}

// SaveRoom replaces the stored snapshot of a room and refreshes its expiry.
func (r repo) SaveRoom(ctx context.Context, snapshot *room.Snapshot) error {
	r.logger.DebugContext(ctx, "called", "room_id", snapshot.RoomId)
	stateKey := r.getStateKey(snapshot.RoomId)
	usersKey := r.getUsersKey(snapshot.RoomId)
	playlistKey := r.getPlaylistKey(snapshot.RoomId)

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, usersKey, playlistKey)
	pipe.HSet(ctx, stateKey, "host", snapshot.Host, "users_count", len(snapshot.Users))
	if len(snapshot.Users) > 0 {
		pipe.RPush(ctx, usersKey, toAny(snapshot.Users)...)
	}
	if len(snapshot.Playlist) > 0 {
		pipe.RPush(ctx, playlistKey, toAny(snapshot.Playlist)...)
	}
	pipe.Expire(ctx, stateKey, r.expireDuration)
	pipe.Expire(ctx, usersKey, r.expireDuration)
	pipe.Expire(ctx, playlistKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) DeleteRoom(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	res, err := r.rc.Del(ctx, r.getStateKey(roomId), r.getUsersKey(roomId), r.getPlaylistKey(roomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if res == 0 {
		return room.ErrRoomNotFound
	}

	return nil
}
