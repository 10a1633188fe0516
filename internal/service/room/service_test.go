package room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	"github.com/sharetube/watchparty/internal/repository/room"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePeer struct {
	mu   sync.Mutex
	msgs []*Message
}

func (p *fakePeer) Send(msg any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg.(*Message))
	return nil
}

// drain returns and forgets the messages received so far.
func (p *fakePeer) drain() []*Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.msgs
	p.msgs = nil
	return msgs
}

type fakeMirror struct {
	published []room.Snapshot
	removed   []string
}

func (m *fakeMirror) Publish(s room.Snapshot) { m.published = append(m.published, s) }
func (m *fakeMirror) Remove(id string)        { m.removed = append(m.removed, id) }

type client struct {
	id   string
	peer *fakePeer
}

func newTestService(t *testing.T, cfg *Config) *service {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}

	return NewService(roomInmemory.NewRepo(slog.Default()), inmemory.NewRepo(slog.Default()), cfg, slog.Default())
}

func connect(t *testing.T, s *service) client {
	t.Helper()

	peer := &fakePeer{}
	resp, err := s.ConnectMember(context.Background(), &ConnectMemberParams{Peer: peer})
	require.NoError(t, err)

	return client{id: resp.SessionId, peer: peer}
}

func join(t *testing.T, s *service, c client, roomId, username string) JoinRoomResponse {
	t.Helper()

	resp, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		SenderId: c.id,
		RoomId:   roomId,
		Username: username,
	})
	require.NoError(t, err)

	return resp
}

func chat(msg string) *Message {
	return systemChatMessage(msg)
}

func TestJoinLeaveScenario(t *testing.T) {
	ctx := context.Background()
	mirror := &fakeMirror{}
	s := newTestService(t, &Config{Mirror: mirror})

	alice := connect(t, s)
	bob := connect(t, s)

	resp := join(t, s, alice, "R1", "Alice")
	assert.True(t, resp.IsRoomCreated)
	assert.Equal(t, "Alice", resp.Host)
	assert.Equal(t, []string{"Alice"}, resp.Users)
	assert.Equal(t, []*Message{
		{Type: EventUpdateUsers, Payload: UsersPayload{Users: []string{"Alice"}, Host: "Alice"}},
		{Type: EventUpdatePlaylist, Payload: []string{}},
	}, alice.peer.drain())

	resp = join(t, s, bob, "R1", "Bob")
	assert.False(t, resp.IsRoomCreated)
	assert.Equal(t, "Alice", resp.Host)
	assert.Equal(t, []string{"Alice", "Bob"}, resp.Users)

	users := &Message{Type: EventUpdateUsers, Payload: UsersPayload{Users: []string{"Alice", "Bob"}, Host: "Alice"}}
	assert.Equal(t, []*Message{users, chat("Bob joined!")}, alice.peer.drain())
	assert.Equal(t, []*Message{users, {Type: EventUpdatePlaylist, Payload: []string{}}}, bob.peer.drain())

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: alice.id})
	require.NoError(t, err)
	assert.False(t, disconnectResp.IsRoomDeleted)
	assert.Equal(t, "Bob", disconnectResp.Host)
	assert.Equal(t, []string{"Bob"}, disconnectResp.Users)
	require.NotNil(t, disconnectResp.NewHost)
	assert.Equal(t, "Bob", *disconnectResp.NewHost)
	assert.Equal(t, []*Message{
		chat("The host left. Bob is now the host!"),
		{Type: EventUpdateUsers, Payload: UsersPayload{Users: []string{"Bob"}, Host: "Bob"}},
	}, bob.peer.drain())
	assert.Empty(t, alice.peer.drain(), "a disconnected member receives nothing")

	disconnectResp, err = s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: bob.id})
	require.NoError(t, err)
	assert.True(t, disconnectResp.IsRoomDeleted)
	assert.Empty(t, bob.peer.drain())

	_, err = s.GetRoomState(ctx, "R1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	assert.Equal(t, []string{"R1"}, mirror.removed)
	require.NotEmpty(t, mirror.published)
	assert.Equal(t, "Bob", mirror.published[len(mirror.published)-1].Host)
}

func TestNonHostLeaveDoesNotAnnounce(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	alice := connect(t, s)
	bob := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	join(t, s, bob, "R1", "Bob")
	alice.peer.drain()

	_, err := s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: bob.id})
	require.NoError(t, err)
	assert.Equal(t, []*Message{
		{Type: EventUpdateUsers, Payload: UsersPayload{Users: []string{"Alice"}, Host: "Alice"}},
	}, alice.peer.drain())
}

func TestDuplicateUsernamesDoNotEvictEachOther(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	first := connect(t, s)
	second := connect(t, s)
	join(t, s, first, "R1", "Alice")
	join(t, s, second, "R1", "Alice")

	_, err := s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: second.id})
	require.NoError(t, err)

	state, err := s.GetRoomState(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, state.Users)
}

func TestRejoinDoesNotDuplicateMember(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	alice := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	_, err := s.AddVideo(ctx, &AddVideoParams{SenderId: alice.id, VideoId: "v1"})
	require.NoError(t, err)
	alice.peer.drain()

	resp := join(t, s, alice, "R1", "Alice")
	assert.False(t, resp.IsRoomCreated)
	assert.Equal(t, []string{"v1"}, resp.Playlist)
	assert.Equal(t, []*Message{
		{Type: EventUpdateUsers, Payload: UsersPayload{Users: []string{"Alice"}, Host: "Alice"}},
		{Type: EventUpdatePlaylist, Payload: []string{"v1"}},
	}, alice.peer.drain())

	state, err := s.GetRoomState(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, room.Snapshot{RoomId: "R1", Users: []string{"Alice"}, Host: "Alice", Playlist: []string{"v1"}}, state)

	join(t, s, alice, "R2", "Alice")
	_, err = s.GetRoomState(ctx, "R1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound, "moving to another room must release the previous one")

	state, err = s.GetRoomState(ctx, "R2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", state.Host)
}

func TestHostRejoinKeepsHostAndPosition(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	alice := connect(t, s)
	bob := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	join(t, s, bob, "R1", "Bob")
	alice.peer.drain()
	bob.peer.drain()

	resp := join(t, s, alice, "R1", "Alicia")
	assert.Equal(t, "Alicia", resp.Host)
	assert.Equal(t, []string{"Alicia", "Bob"}, resp.Users)

	users := &Message{Type: EventUpdateUsers, Payload: UsersPayload{Users: []string{"Alicia", "Bob"}, Host: "Alicia"}}
	assert.Equal(t, []*Message{users}, bob.peer.drain(), "no host change or join line for the others")
	assert.Equal(t, []*Message{users, {Type: EventUpdatePlaylist, Payload: []string{}}}, alice.peer.drain())

	// later actions use the new name
	_, err := s.SyncPlayer(ctx, &SyncPlayerParams{SenderId: alice.id, Action: "play"})
	require.NoError(t, err)
	assert.Equal(t, chat("Alicia resumed the video."), bob.peer.drain()[0])
}

func TestPlaylist(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	alice := connect(t, s)
	bob := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	join(t, s, bob, "R1", "Bob")
	alice.peer.drain()
	bob.peer.drain()

	_, err := s.AddVideo(ctx, &AddVideoParams{SenderId: alice.id, RoomId: "R1", VideoId: "v1"})
	require.NoError(t, err)
	addResp, err := s.AddVideo(ctx, &AddVideoParams{SenderId: bob.id, VideoId: "v2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, addResp.Playlist)

	removeResp, err := s.RemoveFirstVideo(ctx, &RemoveFirstVideoParams{SenderId: bob.id, RoomId: "R1"})
	require.NoError(t, err)
	assert.Equal(t, "v1", removeResp.RemovedVideoId)
	assert.Equal(t, []string{"v2"}, removeResp.Playlist)

	want := []*Message{
		{Type: EventUpdatePlaylist, Payload: []string{"v1"}},
		{Type: EventUpdatePlaylist, Payload: []string{"v1", "v2"}},
		{Type: EventUpdatePlaylist, Payload: []string{"v2"}},
	}
	assert.Equal(t, want, alice.peer.drain())
	assert.Equal(t, want, bob.peer.drain())

	_, err = s.RemoveFirstVideo(ctx, &RemoveFirstVideoParams{SenderId: bob.id})
	require.NoError(t, err)
	_, err = s.RemoveFirstVideo(ctx, &RemoveFirstVideoParams{SenderId: bob.id})
	assert.ErrorIs(t, err, room.ErrPlaylistEmpty)
	alice.peer.drain()

	// a joiner receives the current queue
	carol := connect(t, s)
	_, err = s.AddVideo(ctx, &AddVideoParams{SenderId: alice.id, VideoId: "v3"})
	require.NoError(t, err)
	join(t, s, carol, "R1", "Carol")
	msgs := carol.peer.drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, &Message{Type: EventUpdatePlaylist, Payload: []string{"v3"}}, msgs[1])
}

func TestRejoinAfterDeletionStartsWithEmptyPlaylist(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	alice := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	_, err := s.AddVideo(ctx, &AddVideoParams{SenderId: alice.id, VideoId: "v1"})
	require.NoError(t, err)
	_, err = s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: alice.id})
	require.NoError(t, err)

	bob := connect(t, s)
	resp := join(t, s, bob, "R1", "Bob")
	assert.True(t, resp.IsRoomCreated)
	assert.Empty(t, resp.Playlist)
	assert.Equal(t, "Bob", resp.Host)
}

func TestSyncPlayer(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	alice := connect(t, s)
	bob := connect(t, s)
	carol := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	join(t, s, bob, "R1", "Bob")
	join(t, s, carol, "R1", "Carol")
	alice.peer.drain()
	bob.peer.drain()
	carol.peer.drain()

	load := json.RawMessage(`{"roomId":"R1","action":"load","videoId":"v1"}`)
	resp, err := s.SyncPlayer(ctx, &SyncPlayerParams{SenderId: alice.id, RoomId: "R1", Action: "load", Payload: load})
	require.NoError(t, err)
	assert.False(t, resp.IsNarrated)
	assert.Empty(t, alice.peer.drain(), "the sender must not receive its own action")
	assert.Equal(t, []*Message{{Type: EventApplySync, Payload: load}}, bob.peer.drain())
	assert.Equal(t, []*Message{{Type: EventApplySync, Payload: load}}, carol.peer.drain())

	play := json.RawMessage(`{"roomId":"R1","action":"play","time":12.5}`)
	resp, err = s.SyncPlayer(ctx, &SyncPlayerParams{SenderId: bob.id, Action: "play", Payload: play})
	require.NoError(t, err)
	assert.True(t, resp.IsNarrated)
	assert.Empty(t, bob.peer.drain())
	want := []*Message{chat("Bob resumed the video."), {Type: EventApplySync, Payload: play}}
	assert.Equal(t, want, alice.peer.drain())
	assert.Equal(t, want, carol.peer.drain())

	pause := json.RawMessage(`{"action":"pause","time":13}`)
	_, err = s.SyncPlayer(ctx, &SyncPlayerParams{SenderId: carol.id, Action: "pause", Payload: pause})
	require.NoError(t, err)
	assert.Equal(t, []*Message{chat("Carol paused the video."), {Type: EventApplySync, Payload: pause}}, alice.peer.drain())
}

func TestChatAndEmojiFanout(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	alice := connect(t, s)
	bob := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	join(t, s, bob, "R1", "Bob")
	alice.peer.drain()
	bob.peer.drain()

	require.NoError(t, s.SendEmoji(ctx, &SendEmojiParams{SenderId: alice.id, RoomId: "R1", Emoji: "🎉"}))
	emoji := []*Message{{Type: EventShowEmoji, Payload: "🎉"}}
	assert.Equal(t, emoji, alice.peer.drain(), "reactions reach the sender too")
	assert.Equal(t, emoji, bob.peer.drain())

	require.NoError(t, s.SendChat(ctx, &SendChatParams{SenderId: alice.id, RoomId: "R1", Username: "Alice", Msg: "hi"}))
	assert.Empty(t, alice.peer.drain(), "chat is not echoed to the sender")
	assert.Equal(t, []*Message{{Type: EventReceiveChat, Payload: ChatPayload{Username: "Alice", Msg: "hi"}}}, bob.peer.drain())
}

func TestStaleAndUnjoinedAreNoops(t *testing.T) {
	ctx := context.Background()
	mirror := &fakeMirror{}
	s := newTestService(t, &Config{Mirror: mirror})

	lurker := connect(t, s)
	alice := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	alice.peer.drain()
	published := len(mirror.published)

	_, err := s.AddVideo(ctx, &AddVideoParams{SenderId: lurker.id, RoomId: "R1", VideoId: "v1"})
	assert.ErrorIs(t, err, ErrNotJoined)
	_, err = s.RemoveFirstVideo(ctx, &RemoveFirstVideoParams{SenderId: lurker.id})
	assert.ErrorIs(t, err, ErrNotJoined)
	_, err = s.SyncPlayer(ctx, &SyncPlayerParams{SenderId: lurker.id, Action: "play"})
	assert.ErrorIs(t, err, ErrNotJoined)
	assert.ErrorIs(t, s.SendChat(ctx, &SendChatParams{SenderId: lurker.id, Msg: "hi"}), ErrNotJoined)
	assert.ErrorIs(t, s.SendEmoji(ctx, &SendEmojiParams{SenderId: lurker.id, Emoji: "🎉"}), ErrNotJoined)

	// a payload naming another room is stale
	_, err = s.AddVideo(ctx, &AddVideoParams{SenderId: alice.id, RoomId: "R9", VideoId: "v1"})
	assert.ErrorIs(t, err, ErrStaleRoom)
	_, err = s.SyncPlayer(ctx, &SyncPlayerParams{SenderId: alice.id, RoomId: "R9", Action: "play"})
	assert.ErrorIs(t, err, ErrStaleRoom)
	assert.ErrorIs(t, s.SendEmoji(ctx, &SendEmojiParams{SenderId: alice.id, RoomId: "R9", Emoji: "🎉"}), ErrStaleRoom)

	assert.Empty(t, alice.peer.drain())
	assert.Empty(t, lurker.peer.drain())
	assert.Len(t, mirror.published, published)

	state, err := s.GetRoomState(ctx, "R1")
	require.NoError(t, err)
	assert.Empty(t, state.Playlist)

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: lurker.id})
	require.NoError(t, err)
	assert.Equal(t, DisconnectMemberResponse{}, disconnectResp)
	assert.Empty(t, alice.peer.drain())
}

func TestHostOnlyControls(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &Config{HostOnlyControls: true})

	alice := connect(t, s)
	bob := connect(t, s)
	join(t, s, alice, "R1", "Alice")
	join(t, s, bob, "R1", "Bob")
	_, err := s.AddVideo(ctx, &AddVideoParams{SenderId: bob.id, VideoId: "v1"})
	require.NoError(t, err, "anyone may enqueue")
	alice.peer.drain()

	_, err = s.RemoveFirstVideo(ctx, &RemoveFirstVideoParams{SenderId: bob.id})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = s.SyncPlayer(ctx, &SyncPlayerParams{SenderId: bob.id, Action: "play"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, alice.peer.drain())

	_, err = s.RemoveFirstVideo(ctx, &RemoveFirstVideoParams{SenderId: alice.id})
	require.NoError(t, err)
}

func TestHostInvariantUnderChurn(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	clients := make([]client, 0, 6)
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		c := connect(t, s)
		join(t, s, c, "R1", name)
		clients = append(clients, c)
	}

	for _, i := range []int{0, 3, 1, 5, 2} {
		_, err := s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: clients[i].id})
		require.NoError(t, err)

		state, err := s.GetRoomState(ctx, "R1")
		require.NoError(t, err)
		assert.Contains(t, state.Users, state.Host)
	}

	state, err := s.GetRoomState(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, room.Snapshot{RoomId: "R1", Users: []string{"E"}, Host: "E", Playlist: []string{}}, state)
}

func TestConcurrentJoinsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	const n = 32
	clients := make([]client, n)
	for i := range clients {
		clients[i] = connect(t, s)
	}

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(c client) {
			defer wg.Done()
			_, err := s.JoinRoom(ctx, &JoinRoomParams{SenderId: c.id, RoomId: "R1", Username: "user"})
			assert.NoError(t, err)
		}(clients[i])
	}
	wg.Wait()

	state, err := s.GetRoomState(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, state.Users, n)

	for i := range clients {
		wg.Add(1)
		go func(c client) {
			defer wg.Done()
			_, err := s.DisconnectMember(ctx, &DisconnectMemberParams{SenderId: c.id})
			assert.NoError(t, err)
		}(clients[i])
	}
	wg.Wait()

	_, err = s.GetRoomState(ctx, "R1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}
