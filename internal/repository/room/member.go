package room

type Member struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

type AddMemberParams struct {
	RoomId   string
	MemberId string
	Username string
}

type AddMemberResponse struct {
	Room          Room
	IsRoomCreated bool
}

type RemoveMemberParams struct {
	RoomId   string
	MemberId string
}

type RemoveMemberResponse struct {
	Room          Room
	RemovedMember Member
	// NewHost is set when the removed member was the host and someone took
	// over.
	NewHost       *Member
	IsRoomDeleted bool
}

type UpdateMemberParams struct {
	RoomId   string
	MemberId string
	Username string
}
