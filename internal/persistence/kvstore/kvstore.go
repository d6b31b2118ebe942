// Package kvstore is the room's external persistence: a sqlite file
// holding player records and chat history. The room treats it as an
// eventually consistent KV surface; in-memory state stays authoritative
// and writes never block the room loop.
package kvstore

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"redvale.gg/internal/room"
)

type reqKind int

const (
	reqPlayer reqKind = iota + 1
	reqChat
	reqPurge
)

type req struct {
	kind   reqKind
	player playerRow
	chat   room.ChatMessage
	cutoff time.Time
	done   chan struct{}
}

type playerRow struct {
	UserID   string
	Username string
	MapID    string
	RoleID   string
	LastSeen time.Time
}

// Store wraps the sqlite file with a single writer goroutine. Writes go
// through a buffered channel and are dropped with a log line if the
// writer falls behind.
type Store struct {
	db  *sql.DB
	log *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func Open(path string, logger *log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:  db,
		log: logger,
		ch:  make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-heavy chat workload.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			user_id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			map_id TEXT NOT NULL,
			role_id TEXT,
			last_seen TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chat (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL,
			text TEXT NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_at ON chat(at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Store) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.log.Printf("kvstore: queue full, dropping write kind=%d", r.kind)
	}
}

func (s *Store) UpsertPlayerRecord(userID, username, mapID, roleID string, lastSeen time.Time) {
	s.enqueue(req{kind: reqPlayer, player: playerRow{
		UserID:   userID,
		Username: username,
		MapID:    mapID,
		RoleID:   roleID,
		LastSeen: lastSeen,
	}})
}

func (s *Store) AppendChatMessage(msg room.ChatMessage) {
	s.enqueue(req{kind: reqChat, chat: msg})
}

func (s *Store) PurgeChatBefore(cutoff time.Time) {
	s.enqueue(req{kind: reqPurge, cutoff: cutoff})
}

// ListRecentChat reads synchronously; it runs on the room loop only for
// the infrequent history request.
func (s *Store) ListRecentChat(limit int) ([]room.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT user_id, username, text, at FROM chat ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []room.ChatMessage
	for rows.Next() {
		var m room.ChatMessage
		var at string
		if err := rows.Scan(&m.UserID, &m.Username, &m.Text, &at); err != nil {
			return nil, err
		}
		m.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Oldest first for replay into the client.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// PlayerRecord reads one persisted player row, for ops tooling.
func (s *Store) PlayerRecord(userID string) (username, mapID, roleID string, lastSeen time.Time, err error) {
	var at string
	err = s.db.QueryRow(
		`SELECT username, map_id, role_id, last_seen FROM players WHERE user_id = ?`, userID).
		Scan(&username, &mapID, &roleID, &at)
	if err != nil {
		return "", "", "", time.Time{}, err
	}
	lastSeen, _ = time.Parse(time.RFC3339Nano, at)
	return username, mapID, roleID, lastSeen, nil
}

// Flush blocks until everything queued before the call was applied.
func (s *Store) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{done: done}
	<-done
}

func (s *Store) loop() {
	upsertPlayer, _ := s.db.Prepare(
		`INSERT INTO players(user_id,username,map_id,role_id,last_seen) VALUES(?,?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET username=excluded.username, map_id=excluded.map_id,
		   role_id=excluded.role_id, last_seen=excluded.last_seen`)
	insertChat, _ := s.db.Prepare(
		`INSERT INTO chat(user_id,username,text,at) VALUES(?,?,?,?)`)
	purgeChat, _ := s.db.Prepare(`DELETE FROM chat WHERE at < ?`)
	defer func() {
		if upsertPlayer != nil {
			_ = upsertPlayer.Close()
		}
		if insertChat != nil {
			_ = insertChat.Close()
		}
		if purgeChat != nil {
			_ = purgeChat.Close()
		}
	}()

	for r := range s.ch {
		var err error
		switch r.kind {
		case reqPlayer:
			p := r.player
			if upsertPlayer != nil {
				_, err = upsertPlayer.Exec(p.UserID, p.Username, p.MapID, p.RoleID,
					p.LastSeen.UTC().Format(time.RFC3339Nano))
			}
		case reqChat:
			m := r.chat
			if insertChat != nil {
				_, err = insertChat.Exec(m.UserID, m.Username, m.Text,
					m.At.UTC().Format(time.RFC3339Nano))
			}
		case reqPurge:
			if purgeChat != nil {
				_, err = purgeChat.Exec(r.cutoff.UTC().Format(time.RFC3339Nano))
			}
		}
		if err != nil {
			s.log.Printf("kvstore: write kind=%d: %v", r.kind, err)
		}
		if r.done != nil {
			close(r.done)
		}
	}
}
