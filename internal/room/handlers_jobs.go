package room

import (
	"encoding/json"
	"errors"
	"sort"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/protocol"
	"redvale.gg/internal/room/jobs"
)

func jobErrCode(err error) string {
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		return protocol.ErrNotFound
	case errors.Is(err, jobs.ErrActiveJob), errors.Is(err, jobs.ErrNoActiveJob):
		return protocol.ErrConflict
	case errors.Is(err, jobs.ErrWrongRole), errors.Is(err, jobs.ErrWrongMap):
		return protocol.ErrNoPermission
	case errors.Is(err, jobs.ErrWrongKind),
		errors.Is(err, jobs.ErrUnknownWaypoint),
		errors.Is(err, jobs.ErrBadProgress):
		return protocol.ErrBadRequest
	}
	return protocol.ErrInternal
}

type jobsListPayload struct {
	Jobs []catalogs.JobDef `json:"jobs"`
}

func handleJobsList(r *Room, s *Session, _ json.RawMessage) {
	list := r.jobs.List()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	r.push(s, protocol.MsgJobsListData, jobsListPayload{Jobs: list})
}

type jobDataPayload struct {
	Job    catalogs.JobDef `json:"job"`
	RoleID string          `json:"roleId,omitempty"`
}

func handleJobsRequest(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.JobRequestReq
	if !r.decode(s, protocol.MsgJobsError, raw, &req) {
		return
	}
	def, ok := r.jobs.Def(req.JobID)
	if !ok {
		r.pushError(s, protocol.MsgJobsError, protocol.ErrNotFound, "unknown job")
		return
	}
	r.push(s, protocol.MsgJobsData, jobDataPayload{Job: def})
}

// handleJobsRoleAssign takes the job's role for the session. The role
// survives reconnects and gates both job starts and shop access.
func handleJobsRoleAssign(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.RoleAssignReq
	if !r.decode(s, protocol.MsgJobsError, raw, &req) {
		return
	}
	def, ok := r.jobs.Def(req.JobID)
	if !ok {
		r.pushError(s, protocol.MsgJobsError, protocol.ErrNotFound, "unknown job")
		return
	}
	s.RoleID = def.RoleID
	r.persistRecord(s)
	r.audit("jobs.role", s.UserID, map[string]any{"jobId": req.JobID, "roleId": def.RoleID})
	r.push(s, protocol.MsgJobsData, jobDataPayload{Job: def, RoleID: def.RoleID})
}

type jobStartedPayload struct {
	Instance *jobs.Instance `json:"instance"`
}

func handleJobsStart(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.JobStartReq
	if !r.decode(s, protocol.MsgJobsError, raw, &req) {
		return
	}
	inst, err := r.jobs.Start(s.UserID, req.JobID, s.RoleID, s.MapID)
	if err != nil {
		r.pushError(s, protocol.MsgJobsError, jobErrCode(err), err.Error())
		return
	}
	r.audit("jobs.start", s.UserID, map[string]any{"jobId": req.JobID})
	r.push(s, protocol.MsgJobsStarted, jobStartedPayload{Instance: inst})
}

type jobProgressPayload struct {
	JobID    string `json:"jobId"`
	Progress int    `json:"progress"`
}

func handleJobsProgress(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.JobProgressReq
	if !r.decode(s, protocol.MsgJobsError, raw, &req) {
		return
	}
	inst, err := r.jobs.SetProgress(s.UserID, req.Progress)
	if err != nil {
		r.pushError(s, protocol.MsgJobsError, jobErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgJobsProgressD, jobProgressPayload{JobID: inst.JobID, Progress: inst.Progress})
}

type jobWaitPayload struct {
	WaypointID  string `json:"waypointId"`
	WaitSeconds int    `json:"waitSeconds"`
}

type jobNextPayload struct {
	StopPay   float64               `json:"stopPay"`
	Next      *catalogs.WaypointDef `json:"next,omitempty"`
	RouteDone bool                  `json:"routeDone"`
}

func handleJobsWaypointHit(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.WaypointHitReq
	if !r.decode(s, protocol.MsgJobsError, raw, &req) {
		return
	}
	res, err := r.jobs.WaypointHit(s.UserID, req.WaypointID)
	if err != nil {
		r.pushError(s, protocol.MsgJobsError, jobErrCode(err), err.Error())
		return
	}
	if res.WaitSeconds > 0 {
		r.push(s, protocol.MsgJobsWait, jobWaitPayload{WaypointID: req.WaypointID, WaitSeconds: res.WaitSeconds})
		return
	}
	r.push(s, protocol.MsgJobsNext, jobNextPayload{
		StopPay:   res.StopPay.Major(),
		Next:      res.Next,
		RouteDone: res.RouteDone,
	})
	if res.StopPay > 0 {
		r.pushBalances(s.UserID)
	}
}

type jobCompletedPayload struct {
	JobID        string  `json:"jobId"`
	Payout       float64 `json:"payout"`
	RewardItemID string  `json:"rewardItemId,omitempty"`
	RewardQty    int     `json:"rewardQty,omitempty"`
}

func handleJobsComplete(r *Room, s *Session, raw json.RawMessage) {
	res, err := r.jobs.Complete(s.UserID)
	if err != nil {
		r.pushError(s, protocol.MsgJobsError, jobErrCode(err), err.Error())
		return
	}
	if res.RewardItemID != "" {
		if _, err := r.inv.Grant(s.UserID, res.RewardItemID, res.RewardQty); err != nil {
			r.log.Printf("job reward lost user=%s item=%s: %v", s.UserID, res.RewardItemID, err)
		} else {
			r.pushInventory(s, protocol.MsgInventoryData)
		}
	}
	r.audit("jobs.complete", s.UserID, map[string]any{"jobId": res.JobID, "payout": res.Payout.Major()})
	r.push(s, protocol.MsgJobsCompleted, jobCompletedPayload{
		JobID:        res.JobID,
		Payout:       res.Payout.Major(),
		RewardItemID: res.RewardItemID,
		RewardQty:    res.RewardQty,
	})
	r.pushBalances(s.UserID)
}

type jobCancelledPayload struct {
	JobID string `json:"jobId,omitempty"`
}

func handleJobsCancel(r *Room, s *Session, _ json.RawMessage) {
	var jobID string
	if inst := r.jobs.Active(s.UserID); inst != nil {
		jobID = inst.JobID
	}
	if err := r.jobs.Cancel(s.UserID); err != nil {
		r.pushError(s, protocol.MsgJobsError, jobErrCode(err), err.Error())
		return
	}
	r.audit("jobs.cancel", s.UserID, map[string]any{"jobId": jobID})
	r.push(s, protocol.MsgJobsCancelled, jobCancelledPayload{JobID: jobID})
}
