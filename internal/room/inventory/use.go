package inventory

import "redvale.gg/internal/money"

const itemTypeConsumable = "consumable"

// Effect kinds the catalog may declare. Only currency is wired to
// gameplay; the rest report as unhandled instead of silently succeeding.
const (
	EffectCurrency = "currency"
	EffectHealth   = "health"
	EffectFood     = "food"
)

type AppliedEffect struct {
	Kind    string  `json:"kind"`
	Amount  float64 `json:"amount"`
	Handled bool    `json:"handled"`
}

type UseResult struct {
	Item    *Item           `json:"item"`
	Removed bool            `json:"removed"`
	Effects []AppliedEffect `json:"effects"`
}

// Use consumes one unit of a consumable and applies its catalog-declared
// effects. Unknown effect kinds come back with Handled=false.
func (m *Manager) Use(userID, instanceID string) (UseResult, error) {
	s := m.Create(userID)
	idx := indexOf(s.Items, instanceID)
	if idx < 0 {
		return UseResult{}, ErrItemNotFound
	}
	it := s.Items[idx]
	if it.Type != itemTypeConsumable {
		return UseResult{}, ErrNotConsumable
	}
	def, ok := m.catalog.ByID[it.ItemID]
	if !ok {
		return UseResult{}, ErrUnknownItem
	}

	res := UseResult{Item: it}
	for _, eff := range def.Effects {
		applied := AppliedEffect{Kind: eff.Kind, Amount: eff.Amount}
		switch eff.Kind {
		case EffectCurrency:
			if m.wallet != nil {
				m.wallet.CreditWallet(userID, money.FromMajor(eff.Amount), "use:"+it.ItemID)
				applied.Handled = true
			}
		default:
			// Explicit unhandled arm: health/food and anything new the
			// catalog grows are accepted but not implemented.
		}
		res.Effects = append(res.Effects, applied)
	}

	it.Quantity--
	if it.Quantity == 0 {
		s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
		res.Removed = true
	}
	return res, nil
}
