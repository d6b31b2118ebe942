package room

import (
	"errors"
	"strings"
	"time"

	"redvale.gg/internal/protocol"
)

var (
	ErrBadUsername = errors.New("username required")
	ErrBadVersion  = errors.New("unsupported protocol version")
)

// Session is one user's presence in the room. UserID is the stable
// identity derived from the username; the session id is per-connection.
// A session survives an unconsented disconnect as Online=false until the
// sweep reaps it, so balances and inventory outlive brief drops.
type Session struct {
	ID           string
	UserID       string
	Username     string
	MapID        string
	RoleID       string
	Online       bool
	LastActivity time.Time

	out chan []byte
}

func deriveUserID(username string) string {
	return "u_" + strings.ToLower(strings.TrimSpace(username))
}

// Join admits a connection, reviving the user's previous session state
// if one exists. The returned WELCOME carries catalog digests so the
// client can cache static data.
func (r *Room) Join(username, mapID, roleID, version string, out chan []byte) (protocol.WelcomeMsg, *Session, error) {
	if strings.TrimSpace(username) == "" {
		return protocol.WelcomeMsg{}, nil, ErrBadUsername
	}
	if version != "" && version != protocol.Version {
		return protocol.WelcomeMsg{}, nil, ErrBadVersion
	}
	if mapID == "" {
		mapID = r.cfg.DefaultMapID
	}
	userID := deriveUserID(username)

	// Reconnect: drop the stale session entry; any pending offline mark
	// for it no-ops because the pointer no longer matches. The assigned
	// role carries over unless the hello names a new one.
	if prev := r.byUser[userID]; prev != nil {
		if roleID == "" {
			roleID = prev.RoleID
		}
		delete(r.sessions, prev.ID)
	}

	s := &Session{
		ID:           r.newSessionID(),
		UserID:       userID,
		Username:     strings.TrimSpace(username),
		MapID:        mapID,
		RoleID:       roleID,
		Online:       true,
		LastActivity: r.now(),
		out:          out,
	}
	r.sessions[s.ID] = s
	r.byUser[userID] = s

	r.ledger.EnsureAccount(userID)
	r.inv.Create(userID)
	r.persistRecord(s)
	r.audit("session.join", userID, map[string]any{"sessionId": s.ID, "mapId": mapID})
	r.log.Printf("join user=%s session=%s map=%s", userID, s.ID, mapID)

	c := r.cfg.Catalogs
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.ID,
		UserID:          userID,
		MapID:           mapID,
		RoomID:          r.cfg.ID,
		Catalogs: protocol.CatalogDigests{
			ItemsDigest:  c.Items.Digest,
			ShopsDigest:  c.Shops.Digest,
			JobsDigest:   c.Jobs.Digest,
			SpawnsDigest: c.Spawns.Digest,
		},
	}, s, nil
}

// Leave ends a session. A consented leave removes it immediately; a
// dropped connection gets a grace window first, then is marked offline
// and left for the sweep.
func (r *Room) Leave(sessionID string, consented bool) {
	s := r.sessions[sessionID]
	if s == nil {
		return
	}
	if consented {
		r.purgeSession(s, "leave")
		return
	}
	grace := time.Duration(r.cfg.Tuning.Session.LeaveGraceMs) * time.Millisecond
	r.tasks.Schedule(r.now().Add(grace), func() {
		if r.sessions[s.ID] != s {
			return
		}
		s.Online = false
		s.LastActivity = r.now()
		r.log.Printf("offline user=%s session=%s", s.UserID, s.ID)
	})
}

func (r *Room) purgeSession(s *Session, cause string) {
	delete(r.sessions, s.ID)
	if r.byUser[s.UserID] == s {
		delete(r.byUser, s.UserID)
	}
	// An abandoned job is discarded, not settled.
	_ = r.jobs.Cancel(s.UserID)
	r.persistRecord(s)
	r.audit("session."+cause, s.UserID, map[string]any{"sessionId": s.ID})
	r.log.Printf("%s user=%s session=%s", cause, s.UserID, s.ID)
}

func (r *Room) persistRecord(s *Session) {
	if r.cfg.Store == nil {
		return
	}
	r.cfg.Store.UpsertPlayerRecord(s.UserID, s.Username, s.MapID, s.RoleID, r.now())
}

func (r *Room) scheduleSweep() {
	every := time.Duration(r.cfg.Tuning.Session.SweepEveryMs) * time.Millisecond
	if every <= 0 {
		return
	}
	r.tasks.Schedule(r.now().Add(every), func() {
		r.sweep()
		r.scheduleSweep()
	})
}

// sweep reaps sessions that stayed offline past the TTL and trims aged
// chat history from the store.
func (r *Room) sweep() {
	ttl := time.Duration(r.cfg.Tuning.Session.OfflineTTLMs) * time.Millisecond
	now := r.now()
	for _, s := range r.sessions {
		if !s.Online && now.Sub(s.LastActivity) >= ttl {
			r.purgeSession(s, "reap")
		}
	}
	if r.cfg.Store != nil {
		keep := time.Duration(r.cfg.Tuning.Chat.RetentionHrs) * time.Hour
		if keep > 0 {
			r.cfg.Store.PurgeChatBefore(now.Add(-keep))
		}
	}
}
