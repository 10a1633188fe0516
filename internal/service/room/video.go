package room

import (
	"context"

	"github.com/sharetube/watchparty/internal/repository/room"
)

type AddVideoParams struct {
	SenderId string
	RoomId   string
	VideoId  string
}

type AddVideoResponse struct {
	Playlist []string
}

// AddVideo appends a video to the end of the room's queue.
func (s *service) AddVideo(ctx context.Context, params *AddVideoParams) (AddVideoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.boundSession(params.SenderId, params.RoomId)
	if err != nil {
		return AddVideoResponse{}, err
	}

	r, err := s.roomRepo.AddVideo(ctx, &room.AddVideoParams{
		RoomId:  session.RoomId,
		VideoId: params.VideoId,
	})
	if err != nil {
		s.logger.DebugContext(ctx, "failed to add video", "error", err)
		return AddVideoResponse{}, err
	}

	s.broadcast(ctx, r.Members, playlistMessage(&r))
	s.publish(&r)

	return AddVideoResponse{Playlist: r.Playlist}, nil
}

type RemoveFirstVideoParams struct {
	SenderId string
	RoomId   string
}

type RemoveFirstVideoResponse struct {
	RemovedVideoId string
	Playlist       []string
}

// RemoveFirstVideo pops the head of the room's queue.
func (s *service) RemoveFirstVideo(ctx context.Context, params *RemoveFirstVideoParams) (RemoveFirstVideoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.boundSession(params.SenderId, params.RoomId)
	if err != nil {
		return RemoveFirstVideoResponse{}, err
	}

	current, err := s.roomRepo.GetRoom(ctx, session.RoomId)
	if err != nil {
		return RemoveFirstVideoResponse{}, err
	}

	if err := s.checkIfHost(&current, params.SenderId); err != nil {
		return RemoveFirstVideoResponse{}, err
	}

	removeResp, err := s.roomRepo.RemoveFirstVideo(ctx, session.RoomId)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to remove first video", "error", err)
		return RemoveFirstVideoResponse{}, err
	}

	r := removeResp.Room
	s.broadcast(ctx, r.Members, playlistMessage(&r))
	s.publish(&r)

	return RemoveFirstVideoResponse{
		RemovedVideoId: removeResp.RemovedVideoId,
		Playlist:       r.Playlist,
	}, nil
}
