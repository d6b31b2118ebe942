package inventory

import (
	"fmt"
	"testing"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/money"
)

func testCatalog() catalogs.ItemCatalog {
	return catalogs.ItemCatalog{ByID: map[string]catalogs.ItemDef{
		"apple": {ID: "apple", Name: "Apple", Type: "consumable", Weight: 0.2, MaxStack: 10,
			Effects: []catalogs.EffectDef{{Kind: "food", Amount: 5}}},
		"voucher": {ID: "voucher", Name: "Cash Voucher", Type: "consumable", Weight: 0.1, MaxStack: 5,
			Effects: []catalogs.EffectDef{{Kind: "currency", Amount: 25}}},
		"pickaxe": {ID: "pickaxe", Name: "Pickaxe", Type: "tool", Weight: 3, MaxStack: 1},
		"hammer":  {ID: "hammer", Name: "Hammer", Type: "tool", Weight: 2.5, MaxStack: 1},
	}}
}

func newTestManager(wallet Wallet) *Manager {
	m := NewManager(testCatalog(), Config{MaxSlots: 4, MaxWeight: 50}, wallet)
	n := 0
	m.newID = func() string { n++; return fmt.Sprintf("i%d", n) }
	return m
}

func checkInvariants(t *testing.T, s *State) {
	t.Helper()
	seen := map[int]bool{}
	for _, it := range s.Items {
		if it.Slot < 0 || it.Slot >= s.MaxSlots {
			t.Fatalf("slot %d out of range for %s", it.Slot, it.ID)
		}
		if seen[it.Slot] {
			t.Fatalf("duplicate slot %d", it.Slot)
		}
		seen[it.Slot] = true
		if it.Quantity < 1 {
			t.Fatalf("item %s has quantity %d", it.ID, it.Quantity)
		}
	}
	if s.UsedSlots() != len(s.Items) {
		t.Fatalf("usedSlots %d != |items| %d", s.UsedSlots(), len(s.Items))
	}
}

func TestCreate_Idempotent(t *testing.T) {
	m := newTestManager(nil)
	a := m.Create("u1")
	a.Gold = 42
	if b := m.Create("u1"); b != a || b.Gold != 42 {
		t.Fatalf("Create returned a different state")
	}
}

func TestGrant_StacksThenAppends(t *testing.T) {
	m := newTestManager(nil)

	if _, err := m.Grant("u1", "apple", 6); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := m.Grant("u1", "apple", 6); err != nil {
		t.Fatalf("grant: %v", err)
	}
	s := m.State("u1")
	checkInvariants(t, s)
	if len(s.Items) != 2 {
		t.Fatalf("items = %d, want 2 (one full stack + remainder)", len(s.Items))
	}
	if s.Items[0].Quantity != 10 || s.Items[1].Quantity != 2 {
		t.Fatalf("quantities = %d,%d, want 10,2", s.Items[0].Quantity, s.Items[1].Quantity)
	}
	if got := s.CurrentWeight(); got != 0.2*12 {
		t.Fatalf("weight = %v, want %v", got, 0.2*12)
	}
}

func TestGrant_SkipsEquippedStacks(t *testing.T) {
	m := newTestManager(nil)
	granted, err := m.Grant("u1", "voucher", 2)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := m.Equip("u1", granted[0].ID); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if _, err := m.Grant("u1", "voucher", 1); err != nil {
		t.Fatalf("grant: %v", err)
	}
	s := m.State("u1")
	checkInvariants(t, s)
	if len(s.Items) != 2 {
		t.Fatalf("items = %d, want equipped stack untouched + new stack", len(s.Items))
	}
	if s.Items[0].Quantity != 2 {
		t.Fatalf("equipped stack grew: %d", s.Items[0].Quantity)
	}
}

func TestGrant_SlotsFull(t *testing.T) {
	m := newTestManager(nil)
	for _, id := range []string{"pickaxe", "hammer"} {
		if _, err := m.Grant("u1", id, 1); err != nil {
			t.Fatalf("grant %s: %v", id, err)
		}
	}
	// 2 slots left, pickaxe max stack 1: third and fourth fit, fifth does not.
	if _, err := m.Grant("u1", "pickaxe", 2); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := m.Grant("u1", "pickaxe", 1); err != ErrSlotsFull {
		t.Fatalf("err = %v, want ErrSlotsFull", err)
	}
	checkInvariants(t, m.State("u1"))
}

func TestGrant_PartialFitLeavesNothingBehind(t *testing.T) {
	m := newTestManager(nil)
	for _, id := range []string{"pickaxe", "hammer", "pickaxe"} {
		if _, err := m.Grant("u1", id, 1); err != nil {
			t.Fatalf("grant %s: %v", id, err)
		}
	}
	if _, err := m.Grant("u1", "apple", 8); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Two more apples would stack, but the remainder has no free slot:
	// the grant must fail without touching the existing stack.
	if _, err := m.Grant("u1", "apple", 5); err != ErrSlotsFull {
		t.Fatalf("err = %v, want ErrSlotsFull", err)
	}
	s := m.State("u1")
	checkInvariants(t, s)
	if len(s.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(s.Items))
	}
	for _, it := range s.Items {
		if it.ItemID == "apple" && it.Quantity != 8 {
			t.Fatalf("apple stack = %d after failed grant, want 8", it.Quantity)
		}
	}
	if !m.CanAccept("u1", "apple", 2) || m.CanAccept("u1", "apple", 3) {
		t.Fatalf("CanAccept disagrees with Grant")
	}
}

func TestEnsureSlots_IdempotentAndUnique(t *testing.T) {
	items := []*Item{
		{ID: "a", Slot: 2},
		{ID: "b", Slot: -1},
		{ID: "c", Slot: 2}, // duplicate: first claimant keeps it
		{ID: "d", Slot: 99},
	}
	EnsureSlots(items, 8)
	want := []int{2, 0, 1, 3}
	for i, it := range items {
		if it.Slot != want[i] {
			t.Fatalf("after first pass: slots = %v, want %v", slots(items), want)
		}
	}
	EnsureSlots(items, 8)
	for i, it := range items {
		if it.Slot != want[i] {
			t.Fatalf("not idempotent: slots = %v, want %v", slots(items), want)
		}
	}
}

func slots(items []*Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Slot
	}
	return out
}

func TestRemove(t *testing.T) {
	m := newTestManager(nil)
	granted, _ := m.Grant("u1", "apple", 5)
	if _, err := m.Remove("u1", granted[0].ID, 3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	s := m.State("u1")
	checkInvariants(t, s)
	if s.Items[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", s.Items[0].Quantity)
	}
	if _, err := m.Remove("u1", granted[0].ID, 5); err != ErrBadQuantity {
		t.Fatalf("over-remove: err = %v", err)
	}
	if _, err := m.Remove("u1", granted[0].ID, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(m.State("u1").Items) != 0 {
		t.Fatalf("empty stack not dropped")
	}
}

type fakeWallet struct {
	credits map[string]money.Amount
}

func (w *fakeWallet) CreditWallet(userID string, amount money.Amount, reason string) {
	if w.credits == nil {
		w.credits = map[string]money.Amount{}
	}
	w.credits[userID] += amount
}

func TestUse_CurrencyEffectWired(t *testing.T) {
	w := &fakeWallet{}
	m := newTestManager(w)
	granted, _ := m.Grant("u1", "voucher", 1)

	res, err := m.Use("u1", granted[0].ID)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if !res.Removed {
		t.Errorf("expected last unit consumed")
	}
	if len(res.Effects) != 1 || !res.Effects[0].Handled {
		t.Fatalf("effects = %+v, want handled currency effect", res.Effects)
	}
	if got := w.credits["u1"]; got != money.FromMajor(25) {
		t.Fatalf("credited %s, want 25.00", got)
	}
	checkInvariants(t, m.State("u1"))
}

func TestUse_UnhandledEffectReported(t *testing.T) {
	m := newTestManager(&fakeWallet{})
	granted, _ := m.Grant("u1", "apple", 2)

	res, err := m.Use("u1", granted[0].ID)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if len(res.Effects) != 1 || res.Effects[0].Handled {
		t.Fatalf("effects = %+v, want unhandled food effect", res.Effects)
	}
	if res.Removed || m.State("u1").Items[0].Quantity != 1 {
		t.Fatalf("quantity not decremented once")
	}
}

func TestUse_NonConsumableRejected(t *testing.T) {
	m := newTestManager(nil)
	granted, _ := m.Grant("u1", "pickaxe", 1)
	if _, err := m.Use("u1", granted[0].ID); err != ErrNotConsumable {
		t.Fatalf("err = %v, want ErrNotConsumable", err)
	}
}

func TestEquip_ImplicitSameTypeUnequip(t *testing.T) {
	m := newTestManager(nil)
	g1, _ := m.Grant("u1", "pickaxe", 1)
	g2, _ := m.Grant("u1", "hammer", 1)

	if _, err := m.Equip("u1", g1[0].ID); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if _, err := m.Equip("u1", g2[0].ID); err != nil {
		t.Fatalf("equip: %v", err)
	}
	s := m.State("u1")
	if s.Items[0].IsEquipped {
		t.Errorf("pickaxe still equipped after equipping another tool")
	}
	if !s.Items[1].IsEquipped {
		t.Errorf("hammer not equipped")
	}
	if _, err := m.Unequip("u1", g2[0].ID); err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if s.Items[1].IsEquipped {
		t.Errorf("hammer still equipped")
	}
}

func TestReplace_RebuildsFromCatalog(t *testing.T) {
	m := newTestManager(nil)
	s, err := m.Replace("u1", WireState{
		Gold: 12,
		Items: []WireItem{
			{ID: "x1", ItemID: "apple", Quantity: 99, Slot: 1}, // clamped to stack
			{ID: "", ItemID: "pickaxe", Quantity: 1, Slot: 1},  // dup slot, missing id
		},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	checkInvariants(t, s)
	if s.Items[0].Quantity != 10 {
		t.Errorf("quantity = %d, want clamped 10", s.Items[0].Quantity)
	}
	if s.Items[0].Weight != 0.2 || s.Items[0].Name != "Apple" {
		t.Errorf("display fields not re-enriched: %+v", s.Items[0])
	}
	if s.Items[1].ID == "" {
		t.Errorf("missing instance id not regenerated")
	}
	if s.Gold != 12 {
		t.Errorf("gold = %v", s.Gold)
	}
}

func TestReplace_ShapeRejections(t *testing.T) {
	m := newTestManager(nil)
	if _, err := m.Replace("u1", WireState{Items: []WireItem{{ItemID: "nope", Quantity: 1}}}); err != ErrUnknownItem {
		t.Errorf("unknown item: err = %v", err)
	}
	if _, err := m.Replace("u1", WireState{Items: []WireItem{{ItemID: "apple", Quantity: 0}}}); err != ErrBadShape {
		t.Errorf("zero quantity: err = %v", err)
	}
	items := make([]WireItem, 5)
	for i := range items {
		items[i] = WireItem{ItemID: "pickaxe", Quantity: 1}
	}
	if _, err := m.Replace("u1", WireState{Items: items}); err != ErrBadShape {
		t.Errorf("too many items: err = %v", err)
	}
}
