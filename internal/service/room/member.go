package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
)

type ConnectMemberParams struct {
	Peer connection.Peer
}

type ConnectMemberResponse struct {
	SessionId string
}

// ConnectMember registers a new, unjoined connection.
func (s *service) ConnectMember(ctx context.Context, params *ConnectMemberParams) (ConnectMemberResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionId := s.generator.NewId()
	if err := s.connRepo.Add(sessionId, params.Peer); err != nil {
		s.logger.InfoContext(ctx, "failed to add connection", "error", err)
		return ConnectMemberResponse{}, err
	}

	return ConnectMemberResponse{SessionId: sessionId}, nil
}

type JoinRoomParams struct {
	SenderId string
	RoomId   string
	Username string
}

type JoinRoomResponse struct {
	Users         []string
	Host          string
	Playlist      []string
	IsRoomCreated bool
}

// JoinRoom adds the connection to the room, creating it with the joiner as
// host if needed. A connection that is already in another room leaves it
// first; joining the current room again only refreshes the joiner.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.connRepo.GetSession(params.SenderId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get session", "error", err)
		return JoinRoomResponse{}, err
	}

	if session.IsBound && session.RoomId == params.RoomId {
		return s.rejoin(ctx, params)
	}

	if session.IsBound {
		s.logger.DebugContext(ctx, "connection switching rooms", "previous_room_id", session.RoomId)
		if err := s.leave(ctx, session); err != nil {
			return JoinRoomResponse{}, err
		}
	}

	addMemberResp, err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomId:   params.RoomId,
		MemberId: params.SenderId,
		Username: params.Username,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to add member", "error", err)
		return JoinRoomResponse{}, err
	}

	if err := s.connRepo.BindSession(params.SenderId, params.RoomId, params.Username); err != nil {
		s.logger.InfoContext(ctx, "failed to bind session", "error", err)
		return JoinRoomResponse{}, err
	}

	r := addMemberResp.Room
	s.broadcast(ctx, r.Members, usersMessage(&r))
	s.send(ctx, params.SenderId, playlistMessage(&r))
	s.broadcastExcept(ctx, r.Members, params.SenderId, systemChatMessage(fmt.Sprintf("%s joined!", params.Username)))
	s.publish(&r)

	if addMemberResp.IsRoomCreated {
		s.logger.InfoContext(ctx, "room created", "room_id", params.RoomId)
	}

	return JoinRoomResponse{
		Users:         r.Usernames(),
		Host:          r.Host().Username,
		Playlist:      r.Playlist,
		IsRoomCreated: addMemberResp.IsRoomCreated,
	}, nil
}

// rejoin keeps the member's place, host role and the playlist. Only the
// display name may change.
func (s *service) rejoin(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	r, err := s.roomRepo.UpdateMember(ctx, &room.UpdateMemberParams{
		RoomId:   params.RoomId,
		MemberId: params.SenderId,
		Username: params.Username,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to update member", "error", err)
		return JoinRoomResponse{}, err
	}

	if err := s.connRepo.BindSession(params.SenderId, params.RoomId, params.Username); err != nil {
		s.logger.InfoContext(ctx, "failed to bind session", "error", err)
		return JoinRoomResponse{}, err
	}

	s.broadcast(ctx, r.Members, usersMessage(&r))
	s.send(ctx, params.SenderId, playlistMessage(&r))
	s.publish(&r)

	return JoinRoomResponse{
		Users:    r.Usernames(),
		Host:     r.Host().Username,
		Playlist: r.Playlist,
	}, nil
}

type DisconnectMemberParams struct {
	SenderId string
}

type DisconnectMemberResponse struct {
	Users         []string
	Host          string
	NewHost       *string
	IsRoomDeleted bool
}

// DisconnectMember discards the connection's session and, if it was in a
// room, removes it from the room.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.connRepo.Remove(params.SenderId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to remove connection", "error", err)
		return DisconnectMemberResponse{}, err
	}

	if !session.IsBound {
		return DisconnectMemberResponse{}, nil
	}

	removeMemberResp, err := s.removeMember(ctx, session)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	resp := DisconnectMemberResponse{
		IsRoomDeleted: removeMemberResp.IsRoomDeleted,
	}
	if !removeMemberResp.IsRoomDeleted {
		resp.Users = removeMemberResp.Room.Usernames()
		resp.Host = removeMemberResp.Room.Host().Username
	}
	if removeMemberResp.NewHost != nil {
		resp.NewHost = &removeMemberResp.NewHost.Username
	}

	return resp, nil
}

// leave unbinds a still-open connection from its room.
func (s *service) leave(ctx context.Context, session connection.Session) error {
	if _, err := s.removeMember(ctx, session); err != nil && !errors.Is(err, room.ErrRoomNotFound) {
		return err
	}

	if err := s.connRepo.UnbindSession(session.Id); err != nil {
		s.logger.InfoContext(ctx, "failed to unbind session", "error", err)
		return err
	}

	return nil
}

func (s *service) removeMember(ctx context.Context, session connection.Session) (room.RemoveMemberResponse, error) {
	removeMemberResp, err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		RoomId:   session.RoomId,
		MemberId: session.Id,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to remove member", "room_id", session.RoomId, "error", err)
		return room.RemoveMemberResponse{}, err
	}

	if removeMemberResp.IsRoomDeleted {
		s.logger.InfoContext(ctx, "room deleted", "room_id", session.RoomId)
		s.unpublish(session.RoomId)
		return removeMemberResp, nil
	}

	r := removeMemberResp.Room
	if removeMemberResp.NewHost != nil {
		s.broadcast(ctx, r.Members, systemChatMessage(fmt.Sprintf("The host left. %s is now the host!", removeMemberResp.NewHost.Username)))
	}
	s.broadcast(ctx, r.Members, usersMessage(&r))
	s.publish(&r)

	return removeMemberResp, nil
}
