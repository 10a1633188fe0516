package room

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrPlaylistEmpty       = errors.New("playlist is empty")
)
