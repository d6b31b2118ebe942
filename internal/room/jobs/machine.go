package jobs

import (
	"errors"
	"math"
	"time"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/money"
)

var (
	ErrUnknownJob      = errors.New("unknown job")
	ErrActiveJob       = errors.New("another job is already active")
	ErrNoActiveJob     = errors.New("no active job")
	ErrWrongRole       = errors.New("role does not match job")
	ErrWrongMap        = errors.New("job is on another map")
	ErrWrongKind       = errors.New("message does not apply to this job kind")
	ErrUnknownWaypoint = errors.New("not the current waypoint")
	ErrBadProgress     = errors.New("progress out of range")
)

// Wallet is the narrow ledger capability used for payouts.
type Wallet interface {
	CreditWallet(userID string, amount money.Amount, reason string)
}

// Instance is a session's live job. At most one exists per user.
type Instance struct {
	JobID         string    `json:"jobId"`
	Kind          string    `json:"kind"`
	StartedAt     time.Time `json:"startedAt"`
	Progress      int       `json:"progress"`
	WaypointIndex int       `json:"waypointIndex"`
	WaitUntil     time.Time `json:"-"`
	RoutePaid     money.Amount
}

type WaypointResult struct {
	// WaitSeconds > 0 means the hit was early: nothing advanced.
	WaitSeconds int
	StopPay     money.Amount
	Next        *catalogs.WaypointDef
	RouteDone   bool
}

type CompleteResult struct {
	JobID        string
	Payout       money.Amount
	RewardItemID string
	RewardQty    int
}

// Machine owns the per-user active-job table.
type Machine struct {
	defs   catalogs.JobCatalog
	active map[string]*Instance
	wallet Wallet
	now    func() time.Time
}

func NewMachine(defs catalogs.JobCatalog, wallet Wallet, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{
		defs:   defs,
		active: map[string]*Instance{},
		wallet: wallet,
		now:    now,
	}
}

func (m *Machine) Def(jobID string) (catalogs.JobDef, bool) {
	d, ok := m.defs.ByID[jobID]
	return d, ok
}

func (m *Machine) List() []catalogs.JobDef {
	out := make([]catalogs.JobDef, 0, len(m.defs.ByID))
	for _, d := range m.defs.ByID {
		out = append(out, d)
	}
	return out
}

func (m *Machine) Active(userID string) *Instance { return m.active[userID] }

// Start enforces single-active-job plus role and map gating.
func (m *Machine) Start(userID, jobID, roleID, mapID string) (*Instance, error) {
	def, ok := m.defs.ByID[jobID]
	if !ok {
		return nil, ErrUnknownJob
	}
	if m.active[userID] != nil {
		return nil, ErrActiveJob
	}
	if def.RoleID != "" && def.RoleID != roleID {
		return nil, ErrWrongRole
	}
	if def.MapID != "" && def.MapID != mapID {
		return nil, ErrWrongMap
	}

	inst := &Instance{JobID: jobID, Kind: def.Kind, StartedAt: m.now()}
	if def.Kind == catalogs.JobKindRoute && len(def.Waypoints) > 0 {
		inst.WaitUntil = inst.StartedAt.Add(time.Duration(def.Waypoints[0].WaitSeconds) * time.Second)
	}
	m.active[userID] = inst
	return inst, nil
}

// Progress records client-reported progress for a progress job, clamped
// to the job's maximum. Progress never moves backwards.
func (m *Machine) SetProgress(userID string, progress int) (*Instance, error) {
	inst := m.active[userID]
	if inst == nil {
		return nil, ErrNoActiveJob
	}
	def := m.defs.ByID[inst.JobID]
	if def.Kind != catalogs.JobKindProgress {
		return nil, ErrWrongKind
	}
	if progress < 0 {
		return nil, ErrBadProgress
	}
	if def.MaxProgress > 0 && progress > def.MaxProgress {
		progress = def.MaxProgress
	}
	if progress > inst.Progress {
		inst.Progress = progress
	}
	return inst, nil
}

// WaypointHit advances a route job by one stop. Arriving before the
// stop's mandatory wait elapsed returns the remaining seconds without
// advancing. Per-stop pay is credited immediately.
func (m *Machine) WaypointHit(userID, waypointID string) (WaypointResult, error) {
	inst := m.active[userID]
	if inst == nil {
		return WaypointResult{}, ErrNoActiveJob
	}
	def := m.defs.ByID[inst.JobID]
	if def.Kind != catalogs.JobKindRoute {
		return WaypointResult{}, ErrWrongKind
	}
	if inst.WaypointIndex >= len(def.Waypoints) {
		return WaypointResult{RouteDone: true}, nil
	}
	wp := def.Waypoints[inst.WaypointIndex]
	if wp.ID != waypointID {
		return WaypointResult{}, ErrUnknownWaypoint
	}
	now := m.now()
	if now.Before(inst.WaitUntil) {
		wait := int(math.Ceil(inst.WaitUntil.Sub(now).Seconds()))
		return WaypointResult{WaitSeconds: wait}, nil
	}

	pay := money.FromMajor(wp.Pay)
	if pay > 0 {
		m.wallet.CreditWallet(userID, pay, "job:"+inst.JobID+":stop")
		inst.RoutePaid += pay
	}
	inst.WaypointIndex++
	res := WaypointResult{StopPay: pay}
	if inst.WaypointIndex < len(def.Waypoints) {
		next := def.Waypoints[inst.WaypointIndex]
		inst.WaitUntil = now.Add(time.Duration(next.WaitSeconds) * time.Second)
		res.Next = &next
	} else {
		res.RouteDone = true
	}
	return res, nil
}

// Complete settles and destroys the active job. Payout depends on the
// job shape:
//   - progress: basePay x progress (plus optional item reward)
//   - route: completion bonus, only once every waypoint was hit;
//     per-stop pay was already credited along the way
//   - timed: rate per elapsed whole tick, capped by max duration
func (m *Machine) Complete(userID string) (CompleteResult, error) {
	inst := m.active[userID]
	if inst == nil {
		return CompleteResult{}, ErrNoActiveJob
	}
	def := m.defs.ByID[inst.JobID]

	var payout money.Amount
	res := CompleteResult{JobID: inst.JobID}
	switch def.Kind {
	case catalogs.JobKindProgress:
		payout = money.FromMajor(def.BasePay) * money.Amount(inst.Progress)
		if def.RewardItemID != "" && inst.Progress > 0 {
			res.RewardItemID = def.RewardItemID
			res.RewardQty = 1
		}
	case catalogs.JobKindRoute:
		if inst.WaypointIndex < len(def.Waypoints) {
			return CompleteResult{}, ErrBadProgress
		}
		payout = money.FromMajor(def.CompletionBonus)
	case catalogs.JobKindTimed:
		tick := def.TickSeconds
		if tick <= 0 {
			tick = 1
		}
		elapsed := int(m.now().Sub(inst.StartedAt).Seconds())
		if def.MaxSeconds > 0 && elapsed > def.MaxSeconds {
			elapsed = def.MaxSeconds
		}
		payout = money.FromMajor(def.PayPerTick) * money.Amount(elapsed/tick)
	}
	if payout > 0 {
		m.wallet.CreditWallet(userID, payout, "job:"+inst.JobID)
	}
	res.Payout = payout
	delete(m.active, userID)
	return res, nil
}

// Cancel discards the active job. Unsettled progress and route state is
// lost; per-stop pay already credited stays credited.
func (m *Machine) Cancel(userID string) error {
	if m.active[userID] == nil {
		return ErrNoActiveJob
	}
	delete(m.active, userID)
	return nil
}
