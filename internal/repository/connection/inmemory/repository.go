package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/connection"
)

type entry struct {
	peer    connection.Peer
	session connection.Session
}

type repo struct {
	idList map[string]*entry
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		idList: make(map[string]*entry),
		logger: logger,
	}
}

func (r *repo) Add(id string, peer connection.Peer) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "id", id)
	if _, ok := r.idList[id]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.idList[id] = &entry{
		peer:    peer,
		session: connection.Session{Id: id},
	}

	return nil
}

// Remove discards the connection and returns its last session.
func (r *repo) Remove(id string) (connection.Session, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "id", id)
	e, ok := r.idList[id]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.Session{}, connection.ErrNotFound
	}

	delete(r.idList, id)

	return e.session, nil
}

func (r *repo) GetPeer(id string) (connection.Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.idList[id]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return e.peer, nil
}

func (r *repo) GetSession(id string) (connection.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.idList[id]
	if !ok {
		return connection.Session{}, connection.ErrNotFound
	}

	return e.session, nil
}

func (r *repo) BindSession(id, roomId, username string) error {
	funcName := "connection.inmemory.BindSession"
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.idList[id]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	e.session.RoomId = roomId
	e.session.Username = username
	e.session.IsBound = true

	r.logger.Debug(funcName, "id", id, "room_id", roomId)
	return nil
}

func (r *repo) UnbindSession(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.idList[id]
	if !ok {
		return connection.ErrNotFound
	}

	e.session = connection.Session{Id: id}

	return nil
}
