package room

import (
	"context"
	"encoding/json"
	"fmt"
)

type SyncPlayerParams struct {
	SenderId string
	RoomId   string
	Action   string
	// Payload is relayed to the other members unchanged.
	Payload json.RawMessage
}

type SyncPlayerResponse struct {
	IsNarrated bool
}

func narration(actor, action string) string {
	verb := "paused"
	if action == "play" {
		verb = "resumed"
	}

	return fmt.Sprintf("%s %s the video.", actor, verb)
}

// SyncPlayer relays a playback action to everyone in the room but the sender.
// Every action except load is also narrated in chat.
func (s *service) SyncPlayer(ctx context.Context, params *SyncPlayerParams) (SyncPlayerResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.boundSession(params.SenderId, params.RoomId)
	if err != nil {
		return SyncPlayerResponse{}, err
	}

	r, err := s.roomRepo.GetRoom(ctx, session.RoomId)
	if err != nil {
		return SyncPlayerResponse{}, err
	}

	if err := s.checkIfHost(&r, params.SenderId); err != nil {
		return SyncPlayerResponse{}, err
	}

	isNarrated := params.Action != ActionLoad
	if isNarrated {
		s.broadcastExcept(ctx, r.Members, params.SenderId, systemChatMessage(narration(session.Username, params.Action)))
	}

	s.broadcastExcept(ctx, r.Members, params.SenderId, &Message{
		Type:    EventApplySync,
		Payload: params.Payload,
	})

	return SyncPlayerResponse{IsNarrated: isNarrated}, nil
}
