package inventory

// WireItem is the client-submitted sync shape. Everything except
// instance identity, quantity, slot and equip flag is recomputed from
// the catalog on the way in.
type WireItem struct {
	ID         string `json:"id"`
	ItemID     string `json:"itemId"`
	Quantity   int    `json:"quantity"`
	Slot       int    `json:"slot"`
	IsEquipped bool   `json:"isEquipped"`
}

type WireState struct {
	Items []WireItem `json:"items"`
	Gold  float64    `json:"gold"`
}

// Replace is the client-submitted sync path. It validates shape and
// catalog references, then rebuilds the state server-side: display
// fields, weights and stack limits come from the catalog, quantities are
// clamped to the stack limit, and slots are reassigned through
// EnsureSlots. Business rules beyond that are not enforced on this path.
func (m *Manager) Replace(userID string, proposed WireState) (*State, error) {
	s := m.Create(userID)
	if len(proposed.Items) > s.MaxSlots {
		return nil, ErrBadShape
	}

	rebuilt := make([]*Item, 0, len(proposed.Items))
	seen := map[string]bool{}
	for _, w := range proposed.Items {
		def, ok := m.catalog.ByID[w.ItemID]
		if !ok {
			return nil, ErrUnknownItem
		}
		if w.Quantity < 1 {
			return nil, ErrBadShape
		}
		id := w.ID
		if id == "" || seen[id] {
			id = m.newID()
		}
		seen[id] = true
		it := m.newItem(def, w.Quantity)
		it.ID = id
		if it.Quantity > it.MaxStack {
			it.Quantity = it.MaxStack
		}
		it.Slot = w.Slot
		it.IsEquipped = w.IsEquipped
		rebuilt = append(rebuilt, it)
	}
	EnsureSlots(rebuilt, s.MaxSlots)
	s.Items = rebuilt
	s.Gold = proposed.Gold
	return s, nil
}
