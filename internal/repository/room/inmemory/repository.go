package inmemory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/room"
)

type roomState struct {
	members  []room.Member
	hostId   string
	playlist []string
}

// repo is the room registry. A room exists iff it has at least one member and
// its host is always one of its members.
type repo struct {
	rooms  map[string]*roomState
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*roomState),
		logger: logger,
	}
}

func (r *repo) detach(roomId string, state *roomState) room.Room {
	return room.Room{
		Id:       roomId,
		Members:  slices.Clone(state.members),
		HostId:   state.hostId,
		Playlist: slices.Clone(state.playlist),
	}
}

// AddMember appends a member to the room, creating the room with the member
// as host when it does not exist yet.
func (r *repo) AddMember(ctx context.Context, params *room.AddMemberParams) (room.AddMemberResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.DebugContext(ctx, "called", "params", params)
	state, ok := r.rooms[params.RoomId]
	if !ok {
		state = &roomState{
			members:  []room.Member{},
			hostId:   params.MemberId,
			playlist: []string{},
		}
		r.rooms[params.RoomId] = state
	}

	if slices.ContainsFunc(state.members, func(m room.Member) bool { return m.Id == params.MemberId }) {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberAlreadyExists)
		return room.AddMemberResponse{}, room.ErrMemberAlreadyExists
	}

	state.members = append(state.members, room.Member{
		Id:       params.MemberId,
		Username: params.Username,
	})

	return room.AddMemberResponse{
		Room:          r.detach(params.RoomId, state),
		IsRoomCreated: !ok,
	}, nil
}

// RemoveMember removes the member and keeps the registry invariants: a
// departing host is replaced by the longest-tenured remaining member and an
// emptied room is deleted.
func (r *repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) (room.RemoveMemberResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.DebugContext(ctx, "called", "params", params)
	state, ok := r.rooms[params.RoomId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.RemoveMemberResponse{}, room.ErrRoomNotFound
	}

	index := slices.IndexFunc(state.members, func(m room.Member) bool { return m.Id == params.MemberId })
	if index == -1 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.RemoveMemberResponse{}, room.ErrMemberNotFound
	}

	removed := state.members[index]
	state.members = slices.Delete(state.members, index, index+1)

	if len(state.members) == 0 {
		delete(r.rooms, params.RoomId)
		return room.RemoveMemberResponse{
			Room:          room.Room{Id: params.RoomId},
			RemovedMember: removed,
			IsRoomDeleted: true,
		}, nil
	}

	resp := room.RemoveMemberResponse{RemovedMember: removed}
	if removed.Id == state.hostId {
		newHost := state.members[0]
		state.hostId = newHost.Id
		resp.NewHost = &newHost
	}
	resp.Room = r.detach(params.RoomId, state)

	return resp, nil
}

// UpdateMember renames a member in place, keeping its position and host role.
func (r *repo) UpdateMember(ctx context.Context, params *room.UpdateMemberParams) (room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.DebugContext(ctx, "called", "params", params)
	state, ok := r.rooms[params.RoomId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	index := slices.IndexFunc(state.members, func(m room.Member) bool { return m.Id == params.MemberId })
	if index == -1 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.Room{}, room.ErrMemberNotFound
	}

	state.members[index].Username = params.Username

	return r.detach(params.RoomId, state), nil
}

func (r *repo) AddVideo(ctx context.Context, params *room.AddVideoParams) (room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.DebugContext(ctx, "called", "params", params)
	state, ok := r.rooms[params.RoomId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	state.playlist = append(state.playlist, params.VideoId)

	return r.detach(params.RoomId, state), nil
}

func (r *repo) RemoveFirstVideo(ctx context.Context, roomId string) (room.RemoveFirstVideoResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	state, ok := r.rooms[roomId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.RemoveFirstVideoResponse{}, room.ErrRoomNotFound
	}

	if len(state.playlist) == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrPlaylistEmpty)
		return room.RemoveFirstVideoResponse{}, room.ErrPlaylistEmpty
	}

	removed := state.playlist[0]
	state.playlist = slices.Delete(state.playlist, 0, 1)

	return room.RemoveFirstVideoResponse{
		Room:           r.detach(roomId, state),
		RemovedVideoId: removed,
	}, nil
}

func (r *repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rooms[roomId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	return r.detach(roomId, state), nil
}

func (r *repo) RoomsCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
