package room

import (
	"context"
	"time"

	"redvale.gg/internal/protocol"
)

type JoinRequest struct {
	Username        string
	MapID           string
	RoleID          string
	ProtocolVersion string
	Out             chan []byte
	Resp            chan JoinResponse
}

type JoinResponse struct {
	Welcome   protocol.WelcomeMsg
	SessionID string
	Err       error
}

type LeaveRequest struct {
	SessionID string
	Consented bool
}

type Inbound struct {
	SessionID string
	Envelope  protocol.Envelope
}

// Run is the room loop: the single goroutine that touches room state.
// Transport goroutines only ever talk to it through the three channels;
// the ticker drives the scheduler.
func (r *Room) Run(ctx context.Context) {
	tick := time.Duration(r.cfg.Tuning.Session.TickEveryMs) * time.Millisecond
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	r.log.Printf("room %s running", r.cfg.ID)
	for {
		r.statsSnap.Store(r.computeStats())
		select {
		case <-ctx.Done():
			r.shutdown()
			return
		case req := <-r.JoinC:
			w, s, err := r.Join(req.Username, req.MapID, req.RoleID, req.ProtocolVersion, req.Out)
			resp := JoinResponse{Welcome: w, Err: err}
			if s != nil {
				resp.SessionID = s.ID
			}
			req.Resp <- resp
		case req := <-r.LeaveC:
			r.Leave(req.SessionID, req.Consented)
		case in := <-r.InboundC:
			r.HandleMessage(in.SessionID, in.Envelope)
		case <-ticker.C:
			r.tasks.RunDue(r.now())
		}
	}
}

// StepOnce runs every task due at the current clock reading. Harnesses
// drive it directly instead of the loop ticker.
func (r *Room) StepOnce() int {
	return r.tasks.RunDue(r.now())
}

// PendingTasks reports the scheduler backlog.
func (r *Room) PendingTasks() int {
	return r.tasks.Len()
}

// shutdown cancels every pending task and flushes player records. Out
// queues are left to the transports to drain.
func (r *Room) shutdown() {
	r.tasks.CancelAll()
	for _, s := range r.sessions {
		r.persistRecord(s)
	}
	r.log.Printf("room %s stopped, %d sessions flushed", r.cfg.ID, len(r.sessions))
}
