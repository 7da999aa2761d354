package chat

import "sync"

// Mailbox is a session's FIFO of lines awaiting delivery through "get".
// Rooms enqueue from their own goroutines; only the owning session dequeues.
type Mailbox struct {
	mu    sync.Mutex
	lines []string
	limit int
}

func NewMailbox(limit int) *Mailbox {
	if limit <= 0 {
		limit = 256
	}
	return &Mailbox{limit: limit}
}

// Put appends a line, dropping the oldest line first when the mailbox is
// full so a client that never polls cannot grow memory without bound.
func (m *Mailbox) Put(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.lines) >= m.limit {
		m.lines = m.lines[1:]
	}
	m.lines = append(m.lines, line)
}

// Pop removes and returns the oldest line. It never blocks.
func (m *Mailbox) Pop() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.lines) == 0 {
		return "", false
	}
	line := m.lines[0]
	m.lines = m.lines[1:]
	return line, true
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}
