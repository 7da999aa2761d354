package chat

import (
	"testing"

	"github.com/wavyrn1/shroudserver/internal/crypto"
)

func joinToken(t *testing.T, password, name string) string {
	t.Helper()
	token, err := crypto.NewCipher().Encrypt(password, "join "+name)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	return token
}

func popAll(m *Mailbox) []string {
	var lines []string
	for {
		line, ok := m.Pop()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestRoom_FounderAdmittedWithoutHandshake(t *testing.T) {
	reg := newTestRegistry(t)
	alice := newTestSession(reg, "alice")

	room, err := reg.Create("lounge", "pw", alice)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	if state, got := alice.snapshot(); state != StateInRoom || got != room {
		t.Fatalf("founder state = %v room %p, want InRoom in %p", state, got, room)
	}
	names, err := room.Users()
	if err != nil {
		t.Fatalf("Users error: %v", err)
	}
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("Users = %v, want [alice]", names)
	}
}

func TestRoom_JoinRejectsBadToken(t *testing.T) {
	reg := newTestRegistry(t)
	room, err := reg.Create("lounge", "pw", newTestSession(reg, "alice"))
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	bob := newTestSession(reg, "bob")
	if err := room.Join(bob, "garbage"); err != ErrInvalidPassword {
		t.Fatalf("Join error = %v, want ErrInvalidPassword", err)
	}

	if state, _ := bob.snapshot(); state != StateOutsideRoom {
		t.Fatalf("bob state = %v, want OutsideRoom", state)
	}
	names, _ := room.Users()
	if len(names) != 1 {
		t.Fatalf("member count = %d after failed join, want 1", len(names))
	}
}

func TestRoom_JoinTokenBoundToName(t *testing.T) {
	reg := newTestRegistry(t)
	room, err := reg.Create("lounge", "pw", newTestSession(reg, "alice"))
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	// A valid token for bob must not admit carol.
	token := joinToken(t, "pw", "bob")
	carol := newTestSession(reg, "carol")
	if err := room.Join(carol, token); err != ErrInvalidPassword {
		t.Fatalf("Join error = %v, want ErrInvalidPassword", err)
	}
}

func TestRoom_JoinWithValidToken(t *testing.T) {
	reg := newTestRegistry(t)
	room, err := reg.Create("lounge", "pw", newTestSession(reg, "alice"))
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	bob := newTestSession(reg, "bob")
	if err := room.Join(bob, joinToken(t, "pw", "bob")); err != nil {
		t.Fatalf("Join error: %v", err)
	}

	if state, got := bob.snapshot(); state != StateInRoom || got != room {
		t.Fatalf("bob state = %v, want InRoom", state)
	}
	names, _ := room.Users()
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("Users = %v, want [alice bob]", names)
	}
}

func TestRoom_BroadcastsInOrderToAllMembers(t *testing.T) {
	reg := newTestRegistry(t)
	alice := newTestSession(reg, "alice")
	room, err := reg.Create("lounge", "pw", alice)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	bob := newTestSession(reg, "bob")
	if err := room.Join(bob, joinToken(t, "pw", "bob")); err != nil {
		t.Fatalf("Join error: %v", err)
	}

	for _, text := range []string{"one", "two", "three"} {
		if err := room.Send("alice", text); err != nil {
			t.Fatalf("Send error: %v", err)
		}
	}

	waitFor(t, "bob's mailbox", func() bool { return bob.mailbox.Len() == 4 })
	got := popAll(bob.mailbox)
	want := []string{
		"server: bob has joined the room",
		"alice: one",
		"alice: two",
		"alice: three",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bob line %d = %q, want %q", i, got[i], want[i])
		}
	}

	waitFor(t, "alice's mailbox", func() bool { return alice.mailbox.Len() == 4 })
	if got := popAll(alice.mailbox); got[1] != "alice: one" {
		t.Fatalf("alice line 1 = %q, want %q", got[1], "alice: one")
	}
}

func TestRoom_LateJoinerMissesEarlierMessages(t *testing.T) {
	reg := newTestRegistry(t)
	room, err := reg.Create("lounge", "pw", newTestSession(reg, "alice"))
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	if err := room.Send("alice", "before"); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	bob := newTestSession(reg, "bob")
	if err := room.Join(bob, joinToken(t, "pw", "bob")); err != nil {
		t.Fatalf("Join error: %v", err)
	}

	// Join returned, so the earlier broadcast has been processed too.
	for _, line := range popAll(bob.mailbox) {
		if line == "alice: before" {
			t.Fatal("bob received a message sent before he joined")
		}
	}
}

func TestRoom_LeaveKeepsRoomOpenUntilEmpty(t *testing.T) {
	reg := newTestRegistry(t)
	alice := newTestSession(reg, "alice")
	room, err := reg.Create("lounge", "pw", alice)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	bob := newTestSession(reg, "bob")
	if err := room.Join(bob, joinToken(t, "pw", "bob")); err != nil {
		t.Fatalf("Join error: %v", err)
	}

	if err := room.Leave(bob); err != nil {
		t.Fatalf("Leave error: %v", err)
	}
	if state, _ := bob.snapshot(); state != StateOutsideRoom {
		t.Fatalf("bob state = %v, want OutsideRoom", state)
	}
	if _, err := reg.Lookup("lounge"); err != nil {
		t.Fatalf("room closed while still occupied: %v", err)
	}

	if err := room.Leave(alice); err != nil {
		t.Fatalf("Leave error: %v", err)
	}
	waitFor(t, "room removal", func() bool {
		_, err := reg.Lookup("lounge")
		return err == ErrNoRoomFound
	})
	if _, err := reg.Create("lounge", "pw", newTestSession(reg, "carol")); err != nil {
		t.Fatalf("create after auto-close error: %v", err)
	}
}

func TestRoom_CloseKicksMembers(t *testing.T) {
	reg := newTestRegistry(t)
	alice := newTestSession(reg, "alice")
	room, err := reg.Create("lounge", "pw", alice)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	bob := newTestSession(reg, "bob")
	if err := room.Join(bob, joinToken(t, "pw", "bob")); err != nil {
		t.Fatalf("Join error: %v", err)
	}

	room.Close()

	for _, s := range []*Session{alice, bob} {
		state, current := s.snapshot()
		if state != StateOutsideRoom || current != nil {
			t.Fatalf("%s state = %v room %v after close, want OutsideRoom", s.Name(), state, current)
		}
		lines := popAll(s.mailbox)
		if len(lines) == 0 || lines[len(lines)-1] != "kicked from lounge" {
			t.Fatalf("%s mailbox %v missing kick notice", s.Name(), lines)
		}
	}

	if err := room.Send("alice", "hello"); err != ErrRoomClosed {
		t.Fatalf("Send after close error = %v, want ErrRoomClosed", err)
	}
	carol := newTestSession(reg, "carol")
	if err := room.Join(carol, joinToken(t, "pw", "carol")); err != ErrRoomClosed {
		t.Fatalf("Join after close error = %v, want ErrRoomClosed", err)
	}
}
