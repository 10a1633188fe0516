package room

import "context"

type SendChatParams struct {
	SenderId string
	RoomId   string
	Username string
	Msg      string
}

// SendChat relays a chat line to everyone in the room but the sender, who
// renders its own message locally.
func (s *service) SendChat(ctx context.Context, params *SendChatParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.boundSession(params.SenderId, params.RoomId)
	if err != nil {
		return err
	}

	r, err := s.roomRepo.GetRoom(ctx, session.RoomId)
	if err != nil {
		return err
	}

	s.broadcastExcept(ctx, r.Members, params.SenderId, &Message{
		Type: EventReceiveChat,
		Payload: ChatPayload{
			Username: params.Username,
			Msg:      params.Msg,
		},
	})

	return nil
}

type SendEmojiParams struct {
	SenderId string
	RoomId   string
	Emoji    string
}

// SendEmoji relays a reaction to every member, the sender included.
func (s *service) SendEmoji(ctx context.Context, params *SendEmojiParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.boundSession(params.SenderId, params.RoomId)
	if err != nil {
		return err
	}

	r, err := s.roomRepo.GetRoom(ctx, session.RoomId)
	if err != nil {
		return err
	}

	s.broadcast(ctx, r.Members, &Message{
		Type:    EventShowEmoji,
		Payload: params.Emoji,
	})

	return nil
}
