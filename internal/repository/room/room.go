package room

// Room is a detached copy of a room's state. Mutating it has no effect on the
// registry.
type Room struct {
	Id       string
	Members  []Member
	HostId   string
	Playlist []string
}

// Snapshot is the externally visible view of a room, keyed by display names.
type Snapshot struct {
	RoomId   string   `json:"room_id"`
	Users    []string `json:"users"`
	Host     string   `json:"host"`
	Playlist []string `json:"playlist"`
}

func (r Room) Usernames() []string {
	usernames := make([]string, 0, len(r.Members))
	for _, member := range r.Members {
		usernames = append(usernames, member.Username)
	}

	return usernames
}

func (r Room) Host() Member {
	for _, member := range r.Members {
		if member.Id == r.HostId {
			return member
		}
	}

	return Member{}
}

func (r Room) Snapshot() Snapshot {
	playlist := make([]string, len(r.Playlist))
	copy(playlist, r.Playlist)

	return Snapshot{
		RoomId:   r.Id,
		Users:    r.Usernames(),
		Host:     r.Host().Username,
		Playlist: playlist,
	}
}
