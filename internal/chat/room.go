package chat

import (
	"log/slog"
	"sort"
	"sync"
)

type roomEventKind int

const (
	eventBroadcast roomEventKind = iota
	eventJoin
	eventLeave
	eventUsers
)

type roomEvent struct {
	kind    roomEventKind
	session *Session
	token   string
	line    string
	reply   chan error
	names   chan []string
}

// Room is a named, password-gated broadcast group. All membership and
// delivery state is owned by the run goroutine; sessions talk to it through
// the events channel, which totally orders joins, leaves and broadcasts.
type Room struct {
	name     string
	password string

	registry *Registry
	cipher   Cipher
	logger   *slog.Logger

	events    chan roomEvent
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

func newRoom(name, password string, registry *Registry, cipher Cipher, logger *slog.Logger) *Room {
	return &Room{
		name:     name,
		password: password,
		registry: registry,
		cipher:   cipher,
		logger:   logger,
		events:   make(chan roomEvent, 64),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (r *Room) Name() string { return r.name }

// run is the room's broadcast loop. The founder is admitted before the
// first event is processed, without a handshake.
func (r *Room) run(founder *Session) {
	defer close(r.doneCh)

	OpenRooms.Inc()
	defer OpenRooms.Dec()

	// Single-writer ownership: this slice is only touched by this goroutine.
	members := []*Session{founder}

	for {
		select {
		case ev := <-r.events:
			switch ev.kind {
			case eventBroadcast:
				r.deliverAll(members, ev.line)
				MessagesBroadcast.Inc()
			case eventJoin:
				if err := r.verify(ev.session, ev.token); err != nil {
					HandshakeFailures.Inc()
					ev.reply <- err
					continue
				}
				members = append(members, ev.session)
				ev.session.setRoom(r)
				ev.reply <- nil
				r.logger.Info("member joined", "room", r.name, "name", ev.session.Name())
				r.deliverAll(members, "server: "+ev.session.Name()+" has joined the room")
			case eventLeave:
				if !isMember(members, ev.session) {
					ev.reply <- nil
					continue
				}
				members = removeMember(members, ev.session)
				ev.session.clearRoom()
				ev.reply <- nil
				r.logger.Info("member left", "room", r.name, "name", ev.session.Name())
				r.deliverAll(members, "server: "+ev.session.Name()+" has left the room")
				// Last one out closes the room. Joins serialize through this
				// loop, so none can be in flight here.
				if len(members) == 0 {
					r.shutdown(nil)
					return
				}
			case eventUsers:
				names := make([]string, len(members))
				for i, m := range members {
					names[i] = m.Name()
				}
				sort.Strings(names)
				ev.names <- names
			}
		case <-r.stopCh:
			r.shutdown(members)
			return
		}
	}
}

// Join runs the authenticated handshake for a non-founder member. The token
// must decrypt, under the room password, to "join <display name>".
func (r *Room) Join(s *Session, token string) error {
	reply := make(chan error, 1)
	if err := r.post(roomEvent{kind: eventJoin, session: s, token: token, reply: reply}); err != nil {
		return err
	}
	return r.await(reply)
}

// Leave removes the session from the room. It returns once the loop has
// processed the removal, so the caller observes its cleared membership.
func (r *Room) Leave(s *Session) error {
	reply := make(chan error, 1)
	if err := r.post(roomEvent{kind: eventLeave, session: s, reply: reply}); err != nil {
		return err
	}
	return r.await(reply)
}

// Send queues one formatted line for broadcast to every current member.
func (r *Room) Send(sender, text string) error {
	return r.post(roomEvent{kind: eventBroadcast, line: sender + ": " + text})
}

// Users returns the display names of all current members, sorted.
func (r *Room) Users() ([]string, error) {
	names := make(chan []string, 1)
	if err := r.post(roomEvent{kind: eventUsers, names: names}); err != nil {
		return nil, err
	}
	select {
	case ns := <-names:
		return ns, nil
	case <-r.doneCh:
		select {
		case ns := <-names:
			return ns, nil
		default:
			return nil, ErrRoomClosed
		}
	}
}

// Close kicks every member and stops the loop. Safe to call more than once
// and after the room already closed itself.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

func (r *Room) post(ev roomEvent) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.doneCh:
		return ErrRoomClosed
	}
}

func (r *Room) await(reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-r.doneCh:
		// The loop may have answered just before closing.
		select {
		case err := <-reply:
			return err
		default:
			return ErrRoomClosed
		}
	}
}

func (r *Room) verify(s *Session, token string) error {
	plain, err := r.cipher.Decrypt(r.password, token)
	if err != nil {
		return ErrInvalidPassword
	}
	if plain != "join "+s.Name() {
		return ErrInvalidPassword
	}
	return nil
}

func (r *Room) deliverAll(members []*Session, line string) {
	for _, m := range members {
		m.deliver(line)
	}
}

func (r *Room) shutdown(members []*Session) {
	for _, m := range members {
		m.kick(r)
	}
	r.registry.Remove(r)
	r.logger.Info("room closed", "room", r.name)

	// Reject whatever raced into the queue before doneCh closes.
	for {
		select {
		case ev := <-r.events:
			if ev.reply != nil {
				ev.reply <- ErrRoomClosed
			}
		default:
			return
		}
	}
}

func isMember(members []*Session, s *Session) bool {
	for _, m := range members {
		if m == s {
			return true
		}
	}
	return false
}

func removeMember(members []*Session, s *Session) []*Session {
	out := members[:0]
	for _, m := range members {
		if m != s {
			out = append(out, m)
		}
	}
	return out
}
