package chat

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wavyrn1/shroudserver/internal/proto"
	"github.com/wavyrn1/shroudserver/internal/transport"
)

type State int

const (
	StateAwaitingName State = iota
	StateOutsideRoom
	StateInRoom
	StateClosed
)

// Session drives one connected client: it reads lines, parses them into
// requests and executes them against the registry and its current room.
// The room reference is set by the room's own goroutine on join and cleared
// on leave or kick, under the session's lock.
type Session struct {
	id       string
	conn     transport.Conn
	out      chan string
	mailbox  *Mailbox
	registry *Registry
	logger   *slog.Logger

	mu    sync.Mutex
	name  string
	room  *Room
	state State
}

func NewSession(conn transport.Conn, registry *Registry, logger *slog.Logger, mailboxLimit int) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:       uuid.NewString(),
		conn:     conn,
		out:      make(chan string, 32),
		mailbox:  NewMailbox(mailboxLimit),
		registry: registry,
		logger:   logger,
		state:    StateAwaitingName,
	}
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Run owns the session until the client exits or the transport fails.
func (s *Session) Run() {
	defer s.shutdown()

	StartOutboundWriter(s.conn, s.out)

	ConnectedSessions.Inc()
	defer ConnectedSessions.Dec()

	// The first line is the display name, nothing else.
	line, err := s.conn.ReadLine()
	if err != nil {
		return
	}
	name := strings.TrimSpace(line)

	s.mu.Lock()
	s.name = name
	s.state = StateOutsideRoom
	s.mu.Unlock()

	s.logger.Info("session named", "session", s.id, "name", name)

	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			return
		}
		req, err := proto.Parse(line)
		if err != nil {
			RequestsTotal.WithLabelValues("invalid").Inc()
			s.reply("invalid request")
			continue
		}
		RequestsTotal.WithLabelValues(req.Method.String()).Inc()

		if s.execute(req) {
			return
		}
	}
}

// execute runs one request against the current state. It reports whether
// the session is done.
func (s *Session) execute(req proto.Request) bool {
	if req.Method == proto.MethodExit {
		return true
	}

	state, room := s.snapshot()
	switch state {
	case StateOutsideRoom:
		switch req.Method {
		case proto.MethodJoin:
			s.handleJoin(req.Argument)
		case proto.MethodCreate:
			s.handleCreate(req.Argument)
		default:
			s.reply("not in a room")
		}
	case StateInRoom:
		switch req.Method {
		case proto.MethodGet:
			s.handleGet()
		case proto.MethodSend:
			s.handleSend(room, req.Argument)
		case proto.MethodLeave:
			s.handleLeave(room)
		case proto.MethodUsers:
			s.handleUsers(room)
		default:
			s.reply("already in a room")
		}
	}
	return false
}

func (s *Session) handleJoin(arg string) {
	fields := strings.Fields(arg)
	room, err := s.registry.Lookup(fields[0])
	if err != nil {
		s.reply("room not found")
		return
	}

	switch err := room.Join(s, fields[1]); err {
	case nil:
	case ErrInvalidPassword:
		s.reply("invalid password")
	case ErrRoomClosed:
		// Lost the race with the room closing; to this client it never existed.
		s.reply("room not found")
	default:
		s.reply("invalid request")
	}
}

func (s *Session) handleCreate(arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		s.reply("invalid request")
		return
	}

	if _, err := s.registry.Create(fields[0], fields[1], s); err != nil {
		s.reply("room in use")
	}
}

func (s *Session) handleGet() {
	line, ok := s.mailbox.Pop()
	if !ok {
		s.reply("empty")
		return
	}
	s.reply(line)
}

func (s *Session) handleSend(room *Room, text string) {
	if room == nil {
		s.reply("not in a room")
		return
	}
	text = strings.ReplaceAll(text, "\n", "")
	_ = room.Send(s.Name(), text)
}

func (s *Session) handleLeave(room *Room) {
	if room == nil {
		s.reply("not in a room")
		return
	}
	_ = room.Leave(s)
}

func (s *Session) handleUsers(room *Room) {
	if room == nil {
		s.reply("not in a room")
		return
	}
	names, err := room.Users()
	if err != nil {
		s.reply("not in a room")
		return
	}
	s.reply(strings.Join(names, ","))
}

// deliver enqueues a broadcast line for later retrieval via "get".
func (s *Session) deliver(line string) {
	s.mailbox.Put(line)
}

// setRoom is called by the room loop once the session is a member.
func (s *Session) setRoom(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = r
	if s.state != StateClosed {
		s.state = StateInRoom
	}
}

// clearRoom is called by the room loop when the session leaves.
func (s *Session) clearRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = nil
	if s.state == StateInRoom {
		s.state = StateOutsideRoom
	}
}

// kick is called by a closing room: membership is gone, the connection stays.
func (s *Session) kick(r *Room) {
	s.clearRoom()
	s.mailbox.Put("kicked from " + r.Name())
}

func (s *Session) snapshot() (State, *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.room
}

func (s *Session) shutdown() {
	_, room := s.snapshot()
	if room != nil {
		_ = room.Leave(s)
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	close(s.out)
	_ = s.conn.Close()

	s.logger.Info("session closed", "session", s.id, "name", s.Name())
}

// reply writes a direct response line. Non-blocking so a wedged connection
// cannot stall command processing.
func (s *Session) reply(line string) {
	select {
	case s.out <- line:
	default:
	}
}
