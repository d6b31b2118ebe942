package economy

import (
	"errors"
	"time"

	"redvale.gg/internal/money"
)

// TreasuryID is the sink account that accumulates collected fees.
const TreasuryID = "treasury"

var (
	ErrBadAmount           = errors.New("amount must be positive")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrDailyCap            = errors.New("daily cap exceeded")
	ErrSameUser            = errors.New("cannot transfer to self")
	ErrUnknownCounterparty = errors.New("unknown counterparty")
)

type EntryType string

const (
	EntryDeposit     EntryType = "deposit"
	EntryWithdraw    EntryType = "withdraw"
	EntryTransferIn  EntryType = "transfer-in"
	EntryTransferOut EntryType = "transfer-out"
)

// Entry is one immutable balance-affecting event. Amount is signed from
// the bank's point of view; BalanceAfter is the bank balance after the
// event applied.
type Entry struct {
	UserID         string
	Type           EntryType
	Amount         money.Amount
	BalanceAfter   money.Amount
	Reason         string
	Timestamp      time.Time
	CounterpartyID string
}

// Account holds the two per-user currency pools. Both stay non-negative
// by construction: every debit is checked before any field changes.
type Account struct {
	Wallet money.Amount
	Bank   money.Amount
}

type DailyUsage struct {
	Deposit  money.Amount
	Withdraw money.Amount
	Transfer money.Amount
}

type Config struct {
	StartingWallet money.Amount
	StartingBank   money.Amount

	DepositRate  float64
	WithdrawRate float64
	TransferRate float64
	MinFee       money.Amount

	// 0 disables the cap.
	DailyDepositCap  money.Amount
	DailyWithdrawCap money.Amount
	DailyTransferCap money.Amount

	// Entries kept per user, most recent first. Defaults to 100.
	LedgerKeep int
}

type usageKey struct {
	userID string
	date   string
}

// Ledger is the single writer for all wallet/bank balances in a room.
// It is not safe for concurrent use; the room's synchronous dispatch is
// what makes every operation atomic.
type Ledger struct {
	cfg      Config
	accounts map[string]*Account
	entries  map[string][]Entry
	usage    map[usageKey]*DailyUsage
	treasury money.Amount
	now      func() time.Time
}

func NewLedger(cfg Config, now func() time.Time) *Ledger {
	if cfg.LedgerKeep <= 0 {
		cfg.LedgerKeep = 100
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		cfg:      cfg,
		accounts: map[string]*Account{},
		entries:  map[string][]Entry{},
		usage:    map[usageKey]*DailyUsage{},
		now:      now,
	}
}

// Account returns a copy of the user's account, creating it with the
// configured starting balances on first touch.
func (l *Ledger) Account(userID string) Account {
	return *l.account(userID)
}

func (l *Ledger) account(userID string) *Account {
	a := l.accounts[userID]
	if a == nil {
		a = &Account{Wallet: l.cfg.StartingWallet, Bank: l.cfg.StartingBank}
		l.accounts[userID] = a
	}
	return a
}

func (l *Ledger) HasAccount(userID string) bool {
	_, ok := l.accounts[userID]
	return ok
}

// Entries returns the user's ledger, most recent first.
func (l *Ledger) Entries(userID string) []Entry {
	src := l.entries[userID]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

func (l *Ledger) Usage(userID string) DailyUsage {
	u := l.usage[l.usageKeyFor(userID)]
	if u == nil {
		return DailyUsage{}
	}
	return *u
}

func (l *Ledger) Treasury() money.Amount { return l.treasury }

func (l *Ledger) usageKeyFor(userID string) usageKey {
	return usageKey{userID: userID, date: l.now().Format("2006-01-02")}
}

func (l *Ledger) usageFor(userID string) *DailyUsage {
	k := l.usageKeyFor(userID)
	u := l.usage[k]
	if u == nil {
		u = &DailyUsage{}
		l.usage[k] = u
	}
	return u
}

func capExceeded(used, requested, cap money.Amount) bool {
	return cap > 0 && used+requested > cap
}

// Deposit moves amount from wallet to bank, minus the fee which is
// routed to the treasury. The full amount leaves the wallet; the bank
// is credited amount-fee.
func (l *Ledger) Deposit(userID string, amount money.Amount, reason string) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	a := l.account(userID)
	u := l.usageFor(userID)
	if capExceeded(u.Deposit, amount, l.cfg.DailyDepositCap) {
		return ErrDailyCap
	}
	if a.Wallet < amount {
		return ErrInsufficientFunds
	}
	fee := money.Fee(amount, l.cfg.DepositRate, l.cfg.MinFee)
	if fee > amount {
		return ErrInsufficientFunds
	}

	a.Wallet -= amount
	a.Bank += amount - fee
	l.treasury += fee
	u.Deposit += amount
	l.appendEntry(Entry{
		UserID:       userID,
		Type:         EntryDeposit,
		Amount:       amount - fee,
		BalanceAfter: a.Bank,
		Reason:       reason,
		Timestamp:    l.now(),
	})
	return nil
}

// Withdraw moves amount from bank to wallet; the fee is charged on top
// and both must fit the bank balance.
func (l *Ledger) Withdraw(userID string, amount money.Amount, reason string) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	a := l.account(userID)
	u := l.usageFor(userID)
	if capExceeded(u.Withdraw, amount, l.cfg.DailyWithdrawCap) {
		return ErrDailyCap
	}
	fee := money.Fee(amount, l.cfg.WithdrawRate, l.cfg.MinFee)
	if a.Bank < amount+fee {
		return ErrInsufficientFunds
	}

	a.Bank -= amount + fee
	a.Wallet += amount
	l.treasury += fee
	u.Withdraw += amount
	l.appendEntry(Entry{
		UserID:       userID,
		Type:         EntryWithdraw,
		Amount:       -(amount + fee),
		BalanceAfter: a.Bank,
		Reason:       reason,
		Timestamp:    l.now(),
	})
	return nil
}

// Transfer moves amount bank-to-bank; the sender additionally pays the
// fee. The counterparty must already be known to the ledger or vouched
// for by the caller via EnsureAccount.
func (l *Ledger) Transfer(fromID, toID string, amount money.Amount, reason string) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	if fromID == toID {
		return ErrSameUser
	}
	if !l.HasAccount(toID) {
		return ErrUnknownCounterparty
	}
	from := l.account(fromID)
	to := l.account(toID)
	u := l.usageFor(fromID)
	if capExceeded(u.Transfer, amount, l.cfg.DailyTransferCap) {
		return ErrDailyCap
	}
	fee := money.Fee(amount, l.cfg.TransferRate, l.cfg.MinFee)
	if from.Bank < amount+fee {
		return ErrInsufficientFunds
	}

	from.Bank -= amount + fee
	to.Bank += amount
	l.treasury += fee
	u.Transfer += amount
	ts := l.now()
	l.appendEntry(Entry{
		UserID:         fromID,
		Type:           EntryTransferOut,
		Amount:         -(amount + fee),
		BalanceAfter:   from.Bank,
		Reason:         reason,
		Timestamp:      ts,
		CounterpartyID: toID,
	})
	l.appendEntry(Entry{
		UserID:         toID,
		Type:           EntryTransferIn,
		Amount:         amount,
		BalanceAfter:   to.Bank,
		Reason:         reason,
		Timestamp:      ts,
		CounterpartyID: fromID,
	})
	return nil
}

// EnsureAccount materializes an account for a user the room has vetted,
// so transfers to them pass the counterparty check.
func (l *Ledger) EnsureAccount(userID string) {
	l.account(userID)
}

// CreditWallet is the cross-subsystem entry point for job payouts and
// consumable currency effects.
func (l *Ledger) CreditWallet(userID string, amount money.Amount, reason string) {
	if amount <= 0 {
		return
	}
	l.account(userID).Wallet += amount
}

// ChargeWallet debits the wallet if funds allow. Fails closed: on a
// short wallet nothing changes and false is returned.
func (l *Ledger) ChargeWallet(userID string, amount money.Amount, reason string) bool {
	if amount <= 0 {
		return amount == 0
	}
	a := l.account(userID)
	if a.Wallet < amount {
		return false
	}
	a.Wallet -= amount
	return true
}

func (l *Ledger) appendEntry(e Entry) {
	list := l.entries[e.UserID]
	list = append([]Entry{e}, list...)
	if len(list) > l.cfg.LedgerKeep {
		list = list[:l.cfg.LedgerKeep]
	}
	l.entries[e.UserID] = list
}
