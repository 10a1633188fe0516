package room

type AddVideoParams struct {
	RoomId  string
	VideoId string
}

type RemoveFirstVideoResponse struct {
	Room           Room
	RemovedVideoId string
}
