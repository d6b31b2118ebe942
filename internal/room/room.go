package room

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/money"
	"redvale.gg/internal/room/economy"
	"redvale.gg/internal/room/inventory"
	"redvale.gg/internal/room/jobs"
	"redvale.gg/internal/room/shop"
	"redvale.gg/internal/room/spawner"
	"redvale.gg/internal/tuning"
)

// ChatMessage is a persisted room chat line.
type ChatMessage struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Persistence is the external KV capability the room writes through.
// Writes are fire-and-forget; the room state stays authoritative in
// memory and never blocks on the store.
type Persistence interface {
	UpsertPlayerRecord(userID, username, mapID, roleID string, lastSeen time.Time)
	AppendChatMessage(msg ChatMessage)
	ListRecentChat(limit int) ([]ChatMessage, error)
	PurgeChatBefore(cutoff time.Time)
}

// AuditEntry is one line in the append-only economy/ops audit stream.
type AuditEntry struct {
	At      time.Time      `json:"at"`
	Kind    string         `json:"kind"`
	UserID  string         `json:"userId,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type AuditWriter interface {
	WriteAudit(e AuditEntry)
}

type Config struct {
	ID           string
	DefaultMapID string
	Tuning       tuning.Tuning
	Catalogs     *catalogs.Catalogs
	Logger       *log.Logger

	// Now overrides the clock; nil means time.Now. Tests drive it.
	Now func() time.Time

	// Store and Audit are optional; nil disables the concern.
	Store Persistence
	Audit AuditWriter
}

// Room owns all live state for one game room: the session registry plus
// the economy, inventory, spawner, job and shop subsystems. Every
// mutation runs on the room loop goroutine, so none of the subsystems
// lock.
type Room struct {
	cfg Config
	log *log.Logger
	now func() time.Time

	sessions map[string]*Session // by session id
	byUser   map[string]*Session // one session per user

	ledger *economy.Ledger
	inv    *inventory.Manager
	spawns *spawner.Spawner
	jobs   *jobs.Machine
	shops  *shop.Gateway

	tasks *scheduler

	// statsSnap is republished by the loop so Stats can be read from
	// other goroutines (the metrics handler) without touching live maps.
	statsSnap atomic.Value

	newSessionID func() string

	JoinC    chan JoinRequest
	LeaveC   chan LeaveRequest
	InboundC chan Inbound
}

func New(cfg Config) *Room {
	if cfg.ID == "" {
		cfg.ID = "room-1"
	}
	if cfg.DefaultMapID == "" {
		cfg.DefaultMapID = "downtown"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	t := cfg.Tuning
	r := &Room{
		cfg:          cfg,
		log:          cfg.Logger,
		now:          now,
		sessions:     map[string]*Session{},
		byUser:       map[string]*Session{},
		tasks:        newScheduler(),
		newSessionID: uuid.NewString,
		JoinC:        make(chan JoinRequest),
		LeaveC:       make(chan LeaveRequest, 16),
		InboundC:     make(chan Inbound, 256),
	}

	r.ledger = economy.NewLedger(economy.Config{
		StartingWallet:   money.FromMajor(t.Economy.StartingWallet),
		StartingBank:     money.FromMajor(t.Economy.StartingBank),
		DepositRate:      t.Economy.DepositFeeRate,
		WithdrawRate:     t.Economy.WithdrawFeeRate,
		TransferRate:     t.Economy.TransferFeeRate,
		MinFee:           money.FromMajor(t.Economy.MinFee),
		DailyDepositCap:  money.FromMajor(t.Economy.DailyDepositCap),
		DailyWithdrawCap: money.FromMajor(t.Economy.DailyWithdrawCap),
		DailyTransferCap: money.FromMajor(t.Economy.DailyTransferCap),
		LedgerKeep:       t.Economy.LedgerKeep,
	}, now)
	r.inv = inventory.NewManager(cfg.Catalogs.Items, inventory.Config{}, r.ledger)
	r.spawns = spawner.New(cfg.Catalogs.Spawns, t.Spawner.MinSeparation)
	r.jobs = jobs.NewMachine(cfg.Catalogs.Jobs, r.ledger, now)
	r.shops = shop.NewGateway(cfg.Catalogs.Shops, r.ledger, purchaseGranter{inv: r.inv}, now)

	r.scheduleSweep()
	return r
}

// purchaseGranter adapts the inventory manager to the shop's delivery
// capability.
type purchaseGranter struct {
	inv *inventory.Manager
}

func (p purchaseGranter) GrantPurchase(userID, itemID string, qty int) error {
	_, err := p.inv.Grant(userID, itemID, qty)
	return err
}

// Stats is a point-in-time view of the registry, for ops and tests.
type Stats struct {
	Sessions int
	Online   int
	Tasks    int
}

// Stats returns the loop-published snapshot when Run is active, or a
// direct reading when the caller owns the room (tests, setup).
func (r *Room) Stats() Stats {
	if v := r.statsSnap.Load(); v != nil {
		return v.(Stats)
	}
	return r.computeStats()
}

func (r *Room) computeStats() Stats {
	st := Stats{Sessions: len(r.sessions), Tasks: r.tasks.Len()}
	for _, s := range r.sessions {
		if s.Online {
			st.Online++
		}
	}
	return st
}

func (r *Room) audit(kind, userID string, details map[string]any) {
	if r.cfg.Audit == nil {
		return
	}
	r.cfg.Audit.WriteAudit(AuditEntry{At: r.now(), Kind: kind, UserID: userID, Details: details})
}
