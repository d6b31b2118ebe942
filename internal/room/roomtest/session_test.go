package roomtest

import (
	"testing"
	"time"

	"redvale.gg/internal/protocol"
)

func TestJoin_WelcomeCarriesIdentityAndDigests(t *testing.T) {
	h := New(t)
	out := make(chan []byte, 8)
	w, s, err := h.Room.Join("Alice", "", "", protocol.Version, out)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if w.UserID != "u_alice" || w.MapID != "downtown" || w.RoomID != "room-test" {
		t.Errorf("welcome = %+v", w)
	}
	if w.Catalogs.ItemsDigest != "items-test" || w.Catalogs.SpawnsDigest != "spawns-test" {
		t.Errorf("digests = %+v", w.Catalogs)
	}
	if s.ID == "" || s.ID != w.SessionID {
		t.Errorf("session id mismatch: %q vs %q", s.ID, w.SessionID)
	}
}

func TestJoin_Rejections(t *testing.T) {
	h := New(t)
	if _, _, err := h.Room.Join("  ", "", "", protocol.Version, nil); err == nil {
		t.Errorf("blank username accepted")
	}
	if _, _, err := h.Room.Join("alice", "", "", "0.9", nil); err == nil {
		t.Errorf("version 0.9 accepted")
	}
}

func TestLeave_ConsentedRemovesImmediately(t *testing.T) {
	h := New(t)
	sid := h.Join("alice", "", "")

	h.Send(sid, protocol.MsgSessionLeave, nil)
	if st := h.Room.Stats(); st.Sessions != 0 {
		t.Fatalf("sessions = %d after consented leave", st.Sessions)
	}
	// A dangling session id is ignored, not an error.
	h.Send(sid, protocol.MsgSessionHeartbeat, nil)
}

func TestLeave_GraceThenOfflineThenReaped(t *testing.T) {
	h := New(t)
	sid := h.Join("alice", "", "")

	h.Room.Leave(sid, false)
	if st := h.Room.Stats(); st.Online != 1 {
		t.Fatalf("went offline before grace expired")
	}

	// Grace (2s) elapses: marked offline but still registered.
	h.AdvanceAndStep(3 * time.Second)
	st := h.Room.Stats()
	if st.Sessions != 1 || st.Online != 0 {
		t.Fatalf("after grace: %+v", st)
	}

	// Offline TTL (60s) plus a sweep (every 30s) reaps it.
	h.AdvanceAndStep(70 * time.Second)
	if st := h.Room.Stats(); st.Sessions != 0 {
		t.Fatalf("after sweep: %+v", st)
	}
}

func TestLeave_TrafficDuringGraceKeepsSessionAlive(t *testing.T) {
	h := New(t)
	sid := h.Join("alice", "", "")

	h.Room.Leave(sid, false)
	h.Clock.Advance(1 * time.Second)
	h.Send(sid, protocol.MsgSessionHeartbeat, nil)

	// The offline mark still fires but inbound traffic counts as
	// liveness again afterwards.
	h.AdvanceAndStep(2 * time.Second)
	h.Send(sid, protocol.MsgSessionHeartbeat, nil)
	if st := h.Room.Stats(); st.Online != 1 {
		t.Fatalf("heartbeat did not revive session: %+v", st)
	}
}

func TestRejoin_KeepsBalancesAndRole(t *testing.T) {
	h := New(t)
	sid := h.Join("alice", "", "")
	h.Send(sid, protocol.MsgEconomyDeposit, map[string]any{"amount": 100.0})
	h.Drain(sid)
	h.Send(sid, protocol.MsgJobsRoleAssign, map[string]any{"jobId": "scrapper"})
	h.Drain(sid)

	// Connection drops without consent; the user comes back.
	h.Room.Leave(sid, false)
	sid2 := h.Join("alice", "", "")
	if sid2 == sid {
		t.Fatalf("rejoin reused session id")
	}

	h.Send(sid2, protocol.MsgEconomyRequest, nil)
	var bank struct {
		Amount float64 `json:"amount"`
	}
	h.Expect(sid2, protocol.MsgEconomyBank, &bank)
	if bank.Amount != 99 { // 100 deposited minus 1% fee
		t.Errorf("bank after rejoin = %v, want 99", bank.Amount)
	}

	// Role survived the reconnect: the gated job starts.
	h.Send(sid2, protocol.MsgJobsStart, map[string]any{"jobId": "scrapper"})
	h.Expect(sid2, protocol.MsgJobsStarted, nil)
}

func TestMove_SwitchesMapAndSendsSpawnState(t *testing.T) {
	h := New(t)
	sid := h.Join("alice", "", "")

	h.Send(sid, protocol.MsgSessionMove, map[string]any{"map_id": "docks"})
	var state struct {
		MapID  string `json:"mapId"`
		Spawns []any  `json:"spawns"`
	}
	h.Expect(sid, protocol.MsgItemsState, &state)
	if state.MapID != "docks" || len(state.Spawns) != 0 {
		t.Errorf("state = %+v", state)
	}
}

func TestDispatch_UnknownTypeErrors(t *testing.T) {
	h := New(t)
	sid := h.Join("alice", "", "")
	h.Send(sid, "nope:nothing", nil)
	h.ExpectError(sid, protocol.MsgSessionError, protocol.ErrBadRequest)
}
