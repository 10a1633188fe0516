package room

import (
	"context"

	"github.com/google/uuid"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
)

type uuidGenerator struct{}

func (uuidGenerator) NewId() string {
	return uuid.NewString()
}

func (s *service) send(ctx context.Context, memberId string, msg *Message) {
	peer, err := s.connRepo.GetPeer(memberId)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to get peer", "member_id", memberId, "error", err)
		return
	}

	// a failed send closes the peer; its disconnect removes it from the room
	if err := peer.Send(msg); err != nil {
		s.logger.InfoContext(ctx, "failed to send message", "member_id", memberId, "type", msg.Type, "error", err)
	}
}

func (s *service) broadcast(ctx context.Context, members []room.Member, msg *Message) {
	for _, member := range members {
		s.send(ctx, member.Id, msg)
	}
}

func (s *service) broadcastExcept(ctx context.Context, members []room.Member, exceptId string, msg *Message) {
	for _, member := range members {
		if member.Id == exceptId {
			continue
		}
		s.send(ctx, member.Id, msg)
	}
}

func usersMessage(r *room.Room) *Message {
	return &Message{
		Type: EventUpdateUsers,
		Payload: UsersPayload{
			Users: r.Usernames(),
			Host:  r.Host().Username,
		},
	}
}

func playlistMessage(r *room.Room) *Message {
	playlist := make([]string, len(r.Playlist))
	copy(playlist, r.Playlist)

	return &Message{
		Type:    EventUpdatePlaylist,
		Payload: playlist,
	}
}

func systemChatMessage(msg string) *Message {
	return &Message{
		Type: EventReceiveChat,
		Payload: ChatPayload{
			Username: systemUsername,
			Msg:      msg,
		},
	}
}

func (s *service) publish(r *room.Room) {
	if s.mirror != nil {
		s.mirror.Publish(r.Snapshot())
	}
}

func (s *service) unpublish(roomId string) {
	if s.mirror != nil {
		s.mirror.Remove(roomId)
	}
}

// boundSession resolves the room a connection acts in. A non-empty roomId
// from the payload must match the binding.
func (s *service) boundSession(senderId, roomId string) (connection.Session, error) {
	session, err := s.connRepo.GetSession(senderId)
	if err != nil {
		return connection.Session{}, err
	}

	if !session.IsBound {
		return connection.Session{}, ErrNotJoined
	}

	if roomId != "" && roomId != session.RoomId {
		return connection.Session{}, ErrStaleRoom
	}

	return session, nil
}

func (s *service) checkIfHost(r *room.Room, memberId string) error {
	if s.hostOnlyControls && r.HostId != memberId {
		return ErrPermissionDenied
	}

	return nil
}
