// Package roomtest is a black-box harness for driving a room through
// its dispatch surface with a fake clock, without any transport.
package roomtest

import (
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/protocol"
	"redvale.gg/internal/room"
	"redvale.gg/internal/tuning"
)

// Clock is a manually advanced time source.
type Clock struct {
	t time.Time
}

func NewClock() *Clock {
	return &Clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time          { return c.t }
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Frame is one decoded server->client message.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Harness struct {
	T     *testing.T
	Room  *room.Room
	Clock *Clock

	outs map[string]chan []byte
}

// Catalogs returns the fixture game data every scenario runs against.
func Catalogs() *catalogs.Catalogs {
	one := 1
	five := 5
	return &catalogs.Catalogs{
		Items: catalogs.ItemCatalog{Digest: "items-test", ByID: map[string]catalogs.ItemDef{
			"apple": {ID: "apple", Name: "Apple", Type: "consumable", Weight: 0.2, MaxStack: 10,
				Effects: []catalogs.EffectDef{{Kind: "food", Amount: 5}}},
			"voucher": {ID: "voucher", Name: "Voucher", Type: "consumable", Weight: 0, MaxStack: 5,
				Effects: []catalogs.EffectDef{{Kind: "currency", Amount: 25}}},
			"hammer": {ID: "hammer", Name: "Hammer", Type: "tool", Weight: 3, MaxStack: 1},
		}},
		Shops: catalogs.ShopCatalog{Digest: "shops-test", ByID: map[string]catalogs.ShopDef{
			"market": {ID: "market", Name: "Market", MapID: "downtown", Entries: []catalogs.ShopEntry{
				{ItemID: "apple", Price: 30, Stock: &five},
				{ItemID: "hammer", Price: 120, Stock: &one},
			}},
		}},
		Jobs: catalogs.JobCatalog{Digest: "jobs-test", ByID: map[string]catalogs.JobDef{
			"scrapper": {ID: "scrapper", Name: "Scrapper", MapID: "downtown", RoleID: "worker",
				Kind: catalogs.JobKindProgress, BasePay: 5, MaxProgress: 10, RewardItemID: "voucher"},
		}},
		Spawns: catalogs.SpawnCatalog{Digest: "spawns-test", ByMap: map[string][]catalogs.SpawnDef{
			"downtown": {
				{ID: "sp1", MapID: "downtown", Pos: [3]float64{0, 0, 0}, ItemID: "apple",
					Quantity: 2, RespawnSeconds: 30,
					Candidates: [][3]float64{{0, 0, 0}, {50, 0, 0}}},
				{ID: "sp2", MapID: "downtown", Pos: [3]float64{100, 0, 0}, ItemID: "hammer", Quantity: 1},
			},
		}},
	}
}

func New(t *testing.T) *Harness {
	t.Helper()
	clock := NewClock()
	r := room.New(room.Config{
		ID:           "room-test",
		DefaultMapID: "downtown",
		Tuning:       tuning.Defaults(),
		Catalogs:     Catalogs(),
		Logger:       log.New(os.Stderr, "[roomtest] ", 0),
		Now:          clock.Now,
	})
	return &Harness{T: t, Room: r, Clock: clock, outs: map[string]chan []byte{}}
}

// Join admits a user and returns the session id. Fails the test on any
// handshake error.
func (h *Harness) Join(username, mapID, roleID string) string {
	h.T.Helper()
	out := make(chan []byte, 64)
	w, s, err := h.Room.Join(username, mapID, roleID, protocol.Version, out)
	if err != nil {
		h.T.Fatalf("join %s: %v", username, err)
	}
	if w.SessionID != s.ID {
		h.T.Fatalf("welcome session %s != %s", w.SessionID, s.ID)
	}
	h.outs[s.ID] = out
	return s.ID
}

// Send dispatches one message as the session.
func (h *Harness) Send(sessionID, msgType string, payload any) {
	h.T.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			h.T.Fatalf("marshal %s payload: %v", msgType, err)
		}
		raw = b
	}
	h.Room.HandleMessage(sessionID, protocol.Envelope{Type: msgType, Payload: raw})
}

// Drain decodes everything queued for the session.
func (h *Harness) Drain(sessionID string) []Frame {
	h.T.Helper()
	out := h.outs[sessionID]
	var frames []Frame
	for {
		select {
		case b := <-out:
			var f Frame
			if err := json.Unmarshal(b, &f); err != nil {
				h.T.Fatalf("bad frame %q: %v", b, err)
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// Expect drains the session and decodes the payload of the last frame
// of the given type, failing if none arrived.
func (h *Harness) Expect(sessionID, msgType string, v any) {
	h.T.Helper()
	found := false
	for _, f := range h.Drain(sessionID) {
		if f.Type != msgType {
			continue
		}
		found = true
		if v != nil {
			if err := json.Unmarshal(f.Payload, v); err != nil {
				h.T.Fatalf("decode %s payload: %v", msgType, err)
			}
		}
	}
	if !found {
		h.T.Fatalf("no %s frame for session %s", msgType, sessionID)
	}
}

// ExpectError drains the session and asserts the last error frame on
// the channel carries the given code.
func (h *Harness) ExpectError(sessionID, errType, code string) {
	h.T.Helper()
	var p protocol.ErrorPayload
	h.Expect(sessionID, errType, &p)
	if p.Code != code {
		h.T.Fatalf("%s code = %s, want %s", errType, p.Code, code)
	}
	if !protocol.IsKnownCode(p.Code) {
		h.T.Fatalf("%s carries unknown code %s", errType, p.Code)
	}
}

// AdvanceAndStep moves the clock and runs the tasks that came due.
func (h *Harness) AdvanceAndStep(d time.Duration) int {
	h.Clock.Advance(d)
	return h.Room.StepOnce()
}
