package mirror

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sharetube/watchparty/internal/repository/room"
)

type iRoomStore interface {
	SaveRoom(context.Context, *room.Snapshot) error
	DeleteRoom(context.Context, string) error
}

type job struct {
	snapshot *room.Snapshot
	roomId   string
}

// Mirror copies room snapshots into a store on its own goroutine. Publish and
// Remove never block; when the queue is full the update is dropped and the
// store catches up on the room's next change or expiry.
type Mirror struct {
	store  iRoomStore
	jobs   chan job
	logger *slog.Logger
}

func New(store iRoomStore, queueSize int, logger *slog.Logger) *Mirror {
	return &Mirror{
		store:  store,
		jobs:   make(chan job, queueSize),
		logger: logger,
	}
}

func (m *Mirror) enqueue(j job) {
	select {
	case m.jobs <- j:
	default:
		m.logger.Warn("mirror queue full, dropping update", "room_id", j.roomId)
	}
}

func (m *Mirror) Publish(snapshot room.Snapshot) {
	m.enqueue(job{snapshot: &snapshot, roomId: snapshot.RoomId})
}

func (m *Mirror) Remove(roomId string) {
	m.enqueue(job{roomId: roomId})
}

// Run applies queued updates until ctx is done.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-m.jobs:
			m.apply(ctx, j)
		}
	}
}

func (m *Mirror) apply(ctx context.Context, j job) {
	if j.snapshot != nil {
		if err := m.store.SaveRoom(ctx, j.snapshot); err != nil {
			m.logger.WarnContext(ctx, "failed to save room snapshot", "room_id", j.roomId, "error", err)
		}
		return
	}

	if err := m.store.DeleteRoom(ctx, j.roomId); err != nil && !errors.Is(err, room.ErrRoomNotFound) {
		m.logger.WarnContext(ctx, "failed to delete room snapshot", "room_id", j.roomId, "error", err)
	}
}
