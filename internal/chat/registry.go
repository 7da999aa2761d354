package chat

import (
	"log/slog"
	"sync"
)

// Registry maps room names to open rooms. It lives for the server's lifetime
// and is handed to every session; all name-based create/lookup races resolve
// under its lock.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	cipher Cipher
	logger *slog.Logger
}

func NewRegistry(cipher Cipher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:  make(map[string]*Room),
		cipher: cipher,
		logger: logger,
	}
}

// Create registers a new room and admits the founder as its first member,
// without a handshake. Check-and-insert happens under one lock so two
// concurrent creates with the same name cannot both succeed.
func (g *Registry) Create(name, password string, founder *Session) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.rooms[name]; exists {
		return nil, ErrRoomInUse
	}

	room := newRoom(name, password, g, g.cipher, g.logger)
	g.rooms[name] = room
	go room.run(founder)
	founder.setRoom(room)

	g.logger.Info("room created", "room", name, "founder", founder.Name())
	return room, nil
}

func (g *Registry) Lookup(name string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	room, exists := g.rooms[name]
	if !exists {
		return nil, ErrNoRoomFound
	}
	return room, nil
}

// Remove is idempotent. The pointer comparison keeps a closed room's
// late removal from evicting a fresh room that reused the name.
func (g *Registry) Remove(room *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, exists := g.rooms[room.name]; exists && current == room {
		delete(g.rooms, room.name)
	}
}

// CloseAll closes every open room and waits for their loops to finish.
// Used at server shutdown.
func (g *Registry) CloseAll() {
	g.mu.RLock()
	open := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		open = append(open, room)
	}
	g.mu.RUnlock()

	for _, room := range open {
		room.Close()
	}
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
