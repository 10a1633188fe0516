package room

import (
	"context"

	"github.com/sharetube/watchparty/internal/repository/room"
)

func (s *service) GetRoomState(ctx context.Context, roomId string) (room.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return room.Snapshot{}, err
	}

	return r.Snapshot(), nil
}
