package inventory

import (
	"errors"

	"github.com/google/uuid"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/money"
)

var (
	ErrUnknownItem   = errors.New("unknown catalog item")
	ErrItemNotFound  = errors.New("item not in inventory")
	ErrSlotsFull     = errors.New("no free inventory slot")
	ErrNotConsumable = errors.New("item is not consumable")
	ErrBadQuantity   = errors.New("quantity must be positive")
	ErrBadShape      = errors.New("malformed inventory payload")
)

// Item is one inventory entry. ID is instance-unique; ItemID is the
// catalog key. Display fields are enriched from the catalog and never
// trusted from clients.
type Item struct {
	ID          string  `json:"id"`
	ItemID      string  `json:"itemId"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Rarity      string  `json:"rarity,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	MaxStack    int     `json:"maxStack"`
	Weight      float64 `json:"weight"`
	Slot        int     `json:"slot"`
	IsEquipped  bool    `json:"isEquipped"`
}

// State is a user's inventory. UsedSlots and CurrentWeight are derived
// on the way out, never stored, so they cannot drift.
type State struct {
	Items     []*Item
	MaxSlots  int
	MaxWeight float64
	Gold      float64
}

func (s *State) UsedSlots() int { return len(s.Items) }

func (s *State) CurrentWeight() float64 {
	var w float64
	for _, it := range s.Items {
		w += it.Weight * float64(it.Quantity)
	}
	return w
}

// View is the wire shape of State.
type View struct {
	Items         []*Item `json:"items"`
	MaxSlots      int     `json:"maxSlots"`
	UsedSlots     int     `json:"usedSlots"`
	Gold          float64 `json:"gold"`
	MaxWeight     float64 `json:"maxWeight"`
	CurrentWeight float64 `json:"currentWeight"`
}

func (s *State) View() View {
	items := s.Items
	if items == nil {
		items = []*Item{}
	}
	return View{
		Items:         items,
		MaxSlots:      s.MaxSlots,
		UsedSlots:     s.UsedSlots(),
		Gold:          s.Gold,
		MaxWeight:     s.MaxWeight,
		CurrentWeight: s.CurrentWeight(),
	}
}

// Wallet is the narrow ledger capability consumed when a currency
// consumable is used.
type Wallet interface {
	CreditWallet(userID string, amount money.Amount, reason string)
}

type Config struct {
	MaxSlots  int
	MaxWeight float64
}

// Manager owns every per-user inventory table in a room. Single writer;
// no locking by design.
type Manager struct {
	catalog catalogs.ItemCatalog
	cfg     Config
	states  map[string]*State
	wallet  Wallet
	newID   func() string
}

func NewManager(catalog catalogs.ItemCatalog, cfg Config, wallet Wallet) *Manager {
	if cfg.MaxSlots <= 0 {
		cfg.MaxSlots = 40
	}
	if cfg.MaxWeight <= 0 {
		cfg.MaxWeight = 120
	}
	return &Manager{
		catalog: catalog,
		cfg:     cfg,
		states:  map[string]*State{},
		wallet:  wallet,
		newID:   uuid.NewString,
	}
}

// Create is idempotent: repeated calls return the same state.
func (m *Manager) Create(userID string) *State {
	s := m.states[userID]
	if s == nil {
		s = &State{MaxSlots: m.cfg.MaxSlots, MaxWeight: m.cfg.MaxWeight}
		m.states[userID] = s
	}
	return s
}

func (m *Manager) State(userID string) *State { return m.Create(userID) }

// Grant is the server-authoritative add path used by spawner pickups,
// job rewards and shop purchases. It stacks onto a compatible,
// non-equipped, non-full entry first and appends new entries for the
// remainder. All-or-nothing: when the remainder does not fit the free
// slots, nothing is mutated and ErrSlotsFull comes back. The weight cap
// is deliberately not enforced here: granted rewards always land.
func (m *Manager) Grant(userID, itemID string, qty int) ([]*Item, error) {
	if qty <= 0 {
		return nil, ErrBadQuantity
	}
	def, ok := m.catalog.ByID[itemID]
	if !ok {
		return nil, ErrUnknownItem
	}
	s := m.Create(userID)
	if !fits(s, def, qty) {
		return nil, ErrSlotsFull
	}

	remaining := qty
	var touched []*Item
	for _, it := range s.Items {
		if remaining == 0 {
			break
		}
		if it.ItemID != itemID || it.IsEquipped || it.Quantity >= it.MaxStack {
			continue
		}
		take := it.MaxStack - it.Quantity
		if take > remaining {
			take = remaining
		}
		it.Quantity += take
		remaining -= take
		touched = append(touched, it)
	}
	for remaining > 0 {
		take := def.MaxStack
		if take > remaining {
			take = remaining
		}
		it := m.newItem(def, take)
		s.Items = append(s.Items, it)
		EnsureSlots(s.Items, s.MaxSlots)
		remaining -= take
		touched = append(touched, it)
	}
	return touched, nil
}

// CanAccept reports whether Grant would succeed for the given item and
// quantity, without mutating anything. Used to pre-check pickups so a
// world spawn is never consumed into a full inventory.
func (m *Manager) CanAccept(userID, itemID string, qty int) bool {
	if qty <= 0 {
		return false
	}
	def, ok := m.catalog.ByID[itemID]
	if !ok {
		return false
	}
	return fits(m.Create(userID), def, qty)
}

// fits models Grant's stack-then-append placement without mutating.
func fits(s *State, def catalogs.ItemDef, qty int) bool {
	remaining := qty
	for _, it := range s.Items {
		if it.ItemID == def.ID && !it.IsEquipped && it.Quantity < it.MaxStack {
			remaining -= it.MaxStack - it.Quantity
		}
	}
	if remaining <= 0 {
		return true
	}
	free := s.MaxSlots - s.UsedSlots()
	need := (remaining + def.MaxStack - 1) / def.MaxStack
	return need <= free
}

func (m *Manager) newItem(def catalogs.ItemDef, qty int) *Item {
	return &Item{
		ID:          m.newID(),
		ItemID:      def.ID,
		Name:        def.Name,
		Type:        def.Type,
		Rarity:      def.Rarity,
		Description: def.Description,
		Quantity:    qty,
		MaxStack:    def.MaxStack,
		Weight:      def.Weight,
		Slot:        -1,
	}
}

// Remove takes qty off the identified stack, dropping the entry when it
// empties.
func (m *Manager) Remove(userID, instanceID string, qty int) (*Item, error) {
	if qty <= 0 {
		return nil, ErrBadQuantity
	}
	s := m.Create(userID)
	idx := indexOf(s.Items, instanceID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := s.Items[idx]
	if qty > it.Quantity {
		return nil, ErrBadQuantity
	}
	it.Quantity -= qty
	if it.Quantity == 0 {
		s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
	}
	return it, nil
}

// Equip marks the item equipped, implicitly unequipping any other item
// of the same type.
func (m *Manager) Equip(userID, instanceID string) (*Item, error) {
	s := m.Create(userID)
	idx := indexOf(s.Items, instanceID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	target := s.Items[idx]
	for _, it := range s.Items {
		if it != target && it.Type == target.Type && it.IsEquipped {
			it.IsEquipped = false
		}
	}
	target.IsEquipped = true
	return target, nil
}

func (m *Manager) Unequip(userID, instanceID string) (*Item, error) {
	s := m.Create(userID)
	idx := indexOf(s.Items, instanceID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	s.Items[idx].IsEquipped = false
	return s.Items[idx], nil
}

func (m *Manager) SetGold(userID string, gold float64) *State {
	s := m.Create(userID)
	s.Gold = gold
	return s
}

func indexOf(items []*Item, instanceID string) int {
	for i, it := range items {
		if it.ID == instanceID {
			return i
		}
	}
	return -1
}
