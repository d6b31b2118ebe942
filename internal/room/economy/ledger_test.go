package economy

import (
	"testing"
	"time"

	"redvale.gg/internal/money"
)

func testConfig() Config {
	return Config{
		StartingWallet:   money.FromMajor(500),
		StartingBank:     0,
		DepositRate:      0.01,
		WithdrawRate:     0.01,
		TransferRate:     0.01,
		MinFee:           money.FromMajor(1),
		DailyDepositCap:  money.FromMajor(5000),
		DailyWithdrawCap: money.FromMajor(5000),
		DailyTransferCap: money.FromMajor(2500),
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDeposit_FeeAndBalances(t *testing.T) {
	l := NewLedger(testConfig(), fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	// Deposit 100.00 at 1% with a 1.00 minimum from a 500.00 wallet:
	// fee 1.00, wallet -> 400.00, bank -> 99.00.
	if err := l.Deposit("u1", money.FromMajor(100), "payday"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	a := l.Account("u1")
	if a.Wallet != money.FromMajor(400) {
		t.Errorf("wallet = %s, want 400.00", a.Wallet)
	}
	if a.Bank != money.FromMajor(99) {
		t.Errorf("bank = %s, want 99.00", a.Bank)
	}
	if l.Treasury() != money.FromMajor(1) {
		t.Errorf("treasury = %s, want 1.00", l.Treasury())
	}

	entries := l.Entries("u1")
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != EntryDeposit || e.Amount != money.FromMajor(99) || e.BalanceAfter != money.FromMajor(99) {
		t.Errorf("entry = %+v", e)
	}
	if e.Reason != "payday" {
		t.Errorf("reason = %q", e.Reason)
	}
}

func TestDeposit_Rejections(t *testing.T) {
	l := NewLedger(testConfig(), fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	if err := l.Deposit("u1", money.FromMajor(600), ""); err != ErrInsufficientFunds {
		t.Errorf("overdrawn deposit: err = %v, want ErrInsufficientFunds", err)
	}
	if err := l.Deposit("u1", 0, ""); err != ErrBadAmount {
		t.Errorf("zero deposit: err = %v, want ErrBadAmount", err)
	}
	if err := l.Deposit("u1", money.FromMajor(6000), ""); err != ErrDailyCap {
		t.Errorf("over-cap deposit: err = %v, want ErrDailyCap", err)
	}
	// Nothing moved on any failing path.
	a := l.Account("u1")
	if a.Wallet != money.FromMajor(500) || a.Bank != 0 || l.Treasury() != 0 {
		t.Errorf("account mutated on failure: %+v treasury=%s", a, l.Treasury())
	}
	if len(l.Entries("u1")) != 0 {
		t.Errorf("entries written on failure")
	}
}

func TestWithdraw_FeeOnTop(t *testing.T) {
	l := NewLedger(testConfig(), fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	if err := l.Deposit("u1", money.FromMajor(200), ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// Bank is 198.00. Withdrawing 198.00 needs 198.00 + 1.98 fee: rejected.
	if err := l.Withdraw("u1", money.FromMajor(198), ""); err != ErrInsufficientFunds {
		t.Fatalf("withdraw at exact bank: err = %v, want ErrInsufficientFunds", err)
	}
	if err := l.Withdraw("u1", money.FromMajor(100), ""); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	a := l.Account("u1")
	if a.Bank != money.FromMajor(97) { // 198 - 100 - 1
		t.Errorf("bank = %s, want 97.00", a.Bank)
	}
	if a.Wallet != money.FromMajor(400) { // 300 + 100
		t.Errorf("wallet = %s, want 400.00", a.Wallet)
	}
}

func TestTransfer_ExactBankAtZeroRate(t *testing.T) {
	cfg := testConfig()
	cfg.TransferRate = 0
	cfg.MinFee = 0
	cfg.StartingWallet = 0
	cfg.StartingBank = money.FromMajor(20)
	l := NewLedger(cfg, fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	l.EnsureAccount("bob")

	if err := l.Transfer("alice", "bob", money.FromMajor(20), "rent"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.Account("alice").Bank; got != 0 {
		t.Errorf("sender bank = %s, want 0.00", got)
	}
	if got := l.Account("bob").Bank; got != money.FromMajor(40) {
		t.Errorf("recipient bank = %s, want 40.00", got)
	}

	out := l.Entries("alice")
	in := l.Entries("bob")
	if len(out) != 1 || out[0].Type != EntryTransferOut || out[0].CounterpartyID != "bob" {
		t.Errorf("sender entries = %+v", out)
	}
	if len(in) != 1 || in[0].Type != EntryTransferIn || in[0].CounterpartyID != "alice" {
		t.Errorf("recipient entries = %+v", in)
	}
}

func TestTransfer_Rejections(t *testing.T) {
	l := NewLedger(testConfig(), fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	if err := l.Transfer("u1", "u1", money.FromMajor(5), ""); err != ErrSameUser {
		t.Errorf("self transfer: err = %v", err)
	}
	if err := l.Transfer("u1", "nobody", money.FromMajor(5), ""); err != ErrUnknownCounterparty {
		t.Errorf("unknown counterparty: err = %v", err)
	}
	l.EnsureAccount("u2")
	if err := l.Transfer("u1", "u2", money.FromMajor(5), ""); err != ErrInsufficientFunds {
		t.Errorf("empty bank transfer: err = %v", err)
	}
}

func TestDailyCaps_RollOverByDate(t *testing.T) {
	day := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	l := NewLedger(testConfig(), func() time.Time { return day })

	if err := l.Deposit("u1", money.FromMajor(500), ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := l.Usage("u1").Deposit; got != money.FromMajor(500) {
		t.Errorf("usage = %s", got)
	}

	// Next calendar day: counter starts fresh.
	day = day.Add(2 * time.Hour)
	if got := l.Usage("u1").Deposit; got != 0 {
		t.Errorf("usage after rollover = %s, want 0.00", got)
	}
}

func TestChargeWallet_FailsClosed(t *testing.T) {
	l := NewLedger(testConfig(), fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	if ok := l.ChargeWallet("u1", money.FromMajor(501), "shop"); ok {
		t.Fatalf("charge beyond wallet succeeded")
	}
	if got := l.Account("u1").Wallet; got != money.FromMajor(500) {
		t.Errorf("wallet mutated on failed charge: %s", got)
	}
	if ok := l.ChargeWallet("u1", money.FromMajor(500), "shop"); !ok {
		t.Fatalf("charge at exact wallet failed")
	}
	if got := l.Account("u1").Wallet; got != 0 {
		t.Errorf("wallet = %s, want 0.00", got)
	}
}

func TestLedger_CapsAtKeepLimit(t *testing.T) {
	cfg := testConfig()
	cfg.LedgerKeep = 5
	cfg.DailyDepositCap = 0
	cfg.DailyWithdrawCap = 0
	cfg.StartingWallet = money.FromMajor(100000)
	l := NewLedger(cfg, fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	for i := 0; i < 8; i++ {
		if err := l.Deposit("u1", money.FromMajor(10), ""); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}
	entries := l.Entries("u1")
	if len(entries) != 5 {
		t.Fatalf("entries = %d, want 5", len(entries))
	}
}

// Conservation: over any accepted op sequence on a closed user set,
// wallets + banks + treasury stays equal to the value injected from
// outside (starting balances and wallet credits, minus wallet charges).
func TestConservation(t *testing.T) {
	cfg := testConfig()
	l := NewLedger(cfg, fixedNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	users := []string{"a", "b", "c"}
	for _, u := range users {
		l.EnsureAccount(u)
	}
	injected := money.Amount(int64(len(users))) * cfg.StartingWallet

	l.CreditWallet("a", money.FromMajor(250), "job")
	injected += money.FromMajor(250)
	if l.ChargeWallet("b", money.FromMajor(30), "shop") {
		injected -= money.FromMajor(30)
	}

	ops := []func() error{
		func() error { return l.Deposit("a", money.FromMajor(300), "") },
		func() error { return l.Deposit("b", money.FromMajor(123.45), "") },
		func() error { return l.Withdraw("a", money.FromMajor(50), "") },
		func() error { return l.Transfer("a", "b", money.FromMajor(75), "") },
		func() error { return l.Transfer("b", "c", money.FromMajor(10.01), "") },
		func() error { return l.Withdraw("b", money.FromMajor(20), "") },
		func() error { return l.Deposit("c", money.FromMajor(9999), "") }, // cap reject, no-op
	}
	for i, op := range ops {
		_ = op() // rejections must not move value either
		var total money.Amount
		for _, u := range users {
			a := l.Account(u)
			if a.Wallet < 0 || a.Bank < 0 {
				t.Fatalf("op %d: negative balance for %s: %+v", i, u, a)
			}
			total += a.Wallet + a.Bank
		}
		total += l.Treasury()
		if total != injected {
			t.Fatalf("op %d: total = %s, injected = %s", i, total, injected)
		}
	}
}
