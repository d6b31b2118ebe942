package room

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"redvale.gg/internal/money"
	"redvale.gg/internal/protocol"
	"redvale.gg/internal/room/economy"
)

type balancePayload struct {
	Amount float64 `json:"amount"`
}

type ledgerEntryView struct {
	Type           string    `json:"type"`
	Amount         float64   `json:"amount"`
	BalanceAfter   float64   `json:"balanceAfter"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	CounterpartyID string    `json:"counterpartyId,omitempty"`
}

type ledgerPayload struct {
	Entries []ledgerEntryView `json:"entries"`
}

type limitsPayload struct {
	DailyDepositCap  float64 `json:"dailyDepositCap"`
	DailyWithdrawCap float64 `json:"dailyWithdrawCap"`
	DailyTransferCap float64 `json:"dailyTransferCap"`
	DepositFeeRate   float64 `json:"depositFeeRate"`
	WithdrawFeeRate  float64 `json:"withdrawFeeRate"`
	TransferFeeRate  float64 `json:"transferFeeRate"`
	MinFee           float64 `json:"minFee"`
}

type limitsUsedPayload struct {
	Deposit  float64 `json:"deposit"`
	Withdraw float64 `json:"withdraw"`
	Transfer float64 `json:"transfer"`
}

// majorAmount validates a wire amount and converts it to minor units.
func majorAmount(v float64) (money.Amount, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return money.FromMajor(v), true
}

func econErrCode(err error) string {
	switch {
	case errors.Is(err, economy.ErrBadAmount), errors.Is(err, economy.ErrSameUser):
		return protocol.ErrBadRequest
	case errors.Is(err, economy.ErrInsufficientFunds):
		return protocol.ErrNoFunds
	case errors.Is(err, economy.ErrDailyCap):
		return protocol.ErrDailyCap
	case errors.Is(err, economy.ErrUnknownCounterparty):
		return protocol.ErrNotFound
	}
	return protocol.ErrInternal
}

func (r *Room) pushBalances(userID string) {
	a := r.ledger.Account(userID)
	r.pushToUser(userID, protocol.MsgEconomyWallet, balancePayload{Amount: a.Wallet.Major()})
	r.pushToUser(userID, protocol.MsgEconomyBank, balancePayload{Amount: a.Bank.Major()})
}

func (r *Room) pushLimitsUsed(s *Session) {
	u := r.ledger.Usage(s.UserID)
	r.push(s, protocol.MsgEconomyLimitsUsed, limitsUsedPayload{
		Deposit:  u.Deposit.Major(),
		Withdraw: u.Withdraw.Major(),
		Transfer: u.Transfer.Major(),
	})
}

func (r *Room) pushLedger(s *Session) {
	entries := r.ledger.Entries(s.UserID)
	out := ledgerPayload{Entries: make([]ledgerEntryView, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, ledgerEntryView{
			Type:           string(e.Type),
			Amount:         e.Amount.Major(),
			BalanceAfter:   e.BalanceAfter.Major(),
			Reason:         e.Reason,
			Timestamp:      e.Timestamp,
			CounterpartyID: e.CounterpartyID,
		})
	}
	r.push(s, protocol.MsgEconomyLedger, out)
}

// handleEconomyRequest replies with the full economy snapshot: both
// balances, the ledger, the configured limits and today's usage.
func handleEconomyRequest(r *Room, s *Session, _ json.RawMessage) {
	r.pushBalances(s.UserID)
	r.pushLedger(s)
	e := r.cfg.Tuning.Economy
	r.push(s, protocol.MsgEconomyLimits, limitsPayload{
		DailyDepositCap:  e.DailyDepositCap,
		DailyWithdrawCap: e.DailyWithdrawCap,
		DailyTransferCap: e.DailyTransferCap,
		DepositFeeRate:   e.DepositFeeRate,
		WithdrawFeeRate:  e.WithdrawFeeRate,
		TransferFeeRate:  e.TransferFeeRate,
		MinFee:           e.MinFee,
	})
	r.pushLimitsUsed(s)
}

func handleEconomyDeposit(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.DepositReq
	if !r.decode(s, protocol.MsgEconomyError, raw, &req) {
		return
	}
	amt, ok := majorAmount(req.Amount)
	if !ok {
		r.pushError(s, protocol.MsgEconomyError, protocol.ErrBadRequest, "amount must be positive")
		return
	}
	if err := r.ledger.Deposit(s.UserID, amt, req.Reason); err != nil {
		r.pushError(s, protocol.MsgEconomyError, econErrCode(err), err.Error())
		return
	}
	r.audit("economy.deposit", s.UserID, map[string]any{"amount": req.Amount})
	r.pushBalances(s.UserID)
	r.pushLimitsUsed(s)
}

func handleEconomyWithdraw(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.WithdrawReq
	if !r.decode(s, protocol.MsgEconomyError, raw, &req) {
		return
	}
	amt, ok := majorAmount(req.Amount)
	if !ok {
		r.pushError(s, protocol.MsgEconomyError, protocol.ErrBadRequest, "amount must be positive")
		return
	}
	if err := r.ledger.Withdraw(s.UserID, amt, req.Reason); err != nil {
		r.pushError(s, protocol.MsgEconomyError, econErrCode(err), err.Error())
		return
	}
	r.audit("economy.withdraw", s.UserID, map[string]any{"amount": req.Amount})
	r.pushBalances(s.UserID)
	r.pushLimitsUsed(s)
}

func handleEconomyTransfer(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.TransferReq
	if !r.decode(s, protocol.MsgEconomyError, raw, &req) {
		return
	}
	amt, ok := majorAmount(req.Amount)
	if !ok {
		r.pushError(s, protocol.MsgEconomyError, protocol.ErrBadRequest, "amount must be positive")
		return
	}
	// The room vouches for counterparties it has seen; the ledger itself
	// refuses transfers into accounts nobody vouched for.
	if r.byUser[req.ToUserID] != nil {
		r.ledger.EnsureAccount(req.ToUserID)
	}
	if err := r.ledger.Transfer(s.UserID, req.ToUserID, amt, req.Reason); err != nil {
		r.pushError(s, protocol.MsgEconomyError, econErrCode(err), err.Error())
		return
	}
	r.audit("economy.transfer", s.UserID, map[string]any{"to": req.ToUserID, "amount": req.Amount})
	r.pushBalances(s.UserID)
	r.pushLimitsUsed(s)
	r.pushBalances(req.ToUserID)
}
