package kvstore

import (
	"path/filepath"
	"testing"
	"time"

	"redvale.gg/internal/room"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "room.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPlayerRecordRoundtrip(t *testing.T) {
	s := openTestStore(t)
	seen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.UpsertPlayerRecord("u_alice", "alice", "downtown", "", seen)
	s.UpsertPlayerRecord("u_alice", "alice", "docks", "worker", seen.Add(time.Hour))
	s.Flush()

	username, mapID, roleID, lastSeen, err := s.PlayerRecord("u_alice")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if username != "alice" || mapID != "docks" || roleID != "worker" {
		t.Errorf("record = %s/%s/%s", username, mapID, roleID)
	}
	if !lastSeen.Equal(seen.Add(time.Hour)) {
		t.Errorf("lastSeen = %v", lastSeen)
	}
}

func TestChatHistoryOrderLimitAndPurge(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.AppendChatMessage(room.ChatMessage{
			UserID:   "u_alice",
			Username: "alice",
			Text:     string(rune('a' + i)),
			At:       base.Add(time.Duration(i) * time.Minute),
		})
	}
	s.Flush()

	// Most recent three, oldest first.
	msgs, err := s.ListRecentChat(3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Text != "c" || msgs[2].Text != "e" {
		t.Fatalf("msgs = %+v", msgs)
	}

	s.PurgeChatBefore(base.Add(4 * time.Minute))
	s.Flush()
	msgs, err = s.ListRecentChat(10)
	if err != nil {
		t.Fatalf("list after purge: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "e" {
		t.Fatalf("after purge = %+v", msgs)
	}
}
