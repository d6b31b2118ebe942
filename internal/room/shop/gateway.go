package shop

import (
	"errors"
	"time"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/money"
)

var (
	ErrUnknownShop       = errors.New("unknown shop")
	ErrUnknownEntry      = errors.New("item not sold here")
	ErrAccessDenied      = errors.New("shop access denied")
	ErrOutOfStock        = errors.New("not enough stock")
	ErrBadQuantity       = errors.New("quantity must be positive")
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
	ErrGrantFailed       = errors.New("could not deliver purchase")
)

// Wallet is the narrow ledger capability for purchases; ChargeWallet
// fails closed on short funds.
type Wallet interface {
	ChargeWallet(userID string, amount money.Amount, reason string) bool
	CreditWallet(userID string, amount money.Amount, reason string)
}

// Granter is the narrow inventory capability for delivering purchases.
type Granter interface {
	GrantPurchase(userID, itemID string, qty int) error
}

type EntryView struct {
	ItemID string  `json:"itemId"`
	Price  float64 `json:"price"`
	Stock  *int    `json:"stock,omitempty"`
}

type ShopView struct {
	ShopID       string      `json:"shopId"`
	Name         string      `json:"name"`
	MapID        string      `json:"mapId"`
	RequiredRole string      `json:"requiredRole,omitempty"`
	Entries      []EntryView `json:"entries,omitempty"`
}

type BuyResult struct {
	ShopID    string       `json:"shopId"`
	ItemID    string       `json:"itemId"`
	Quantity  int          `json:"quantity"`
	TotalPaid money.Amount `json:"-"`
	Total     float64      `json:"total"`
	Stock     *int         `json:"stock,omitempty"`
}

// Gateway serves the per-shop catalogs and runs the charge-then-grant
// purchase transaction. Mutable stock lives here; the static defs stay
// in the catalog.
type Gateway struct {
	defs   catalogs.ShopCatalog
	wallet Wallet
	grants Granter
	now    func() time.Time
	stock  map[string]map[string]int
}

func NewGateway(defs catalogs.ShopCatalog, wallet Wallet, grants Granter, now func() time.Time) *Gateway {
	if now == nil {
		now = time.Now
	}
	g := &Gateway{
		defs:   defs,
		wallet: wallet,
		grants: grants,
		now:    now,
		stock:  map[string]map[string]int{},
	}
	for id, sh := range defs.ByID {
		g.stock[id] = map[string]int{}
		for _, e := range sh.Entries {
			if e.Stock != nil {
				g.stock[id][e.ItemID] = *e.Stock
			}
		}
	}
	return g
}

// List returns every shop without entries; access is checked on open.
func (g *Gateway) List() []ShopView {
	out := make([]ShopView, 0, len(g.defs.ByID))
	for _, sh := range g.defs.ByID {
		out = append(out, ShopView{
			ShopID:       sh.ID,
			Name:         sh.Name,
			MapID:        sh.MapID,
			RequiredRole: sh.RequiredRole,
		})
	}
	return out
}

// Open returns the shop's catalog with live stock, after the access
// predicate passes.
func (g *Gateway) Open(shopID, roleID string) (ShopView, error) {
	sh, ok := g.defs.ByID[shopID]
	if !ok {
		return ShopView{}, ErrUnknownShop
	}
	if !g.accessAllowed(sh, roleID) {
		return ShopView{}, ErrAccessDenied
	}
	v := ShopView{ShopID: sh.ID, Name: sh.Name, MapID: sh.MapID, RequiredRole: sh.RequiredRole}
	for _, e := range sh.Entries {
		ev := EntryView{ItemID: e.ItemID, Price: e.Price}
		if e.Stock != nil {
			n := g.stock[sh.ID][e.ItemID]
			ev.Stock = &n
		}
		v.Entries = append(v.Entries, ev)
	}
	return v, nil
}

// Buy validates stock, charges the wallet and only then grants the item
// and decrements stock. A failed delivery refunds the charge.
func (g *Gateway) Buy(userID, shopID, itemID string, qty int, roleID string) (BuyResult, error) {
	if qty <= 0 {
		return BuyResult{}, ErrBadQuantity
	}
	sh, ok := g.defs.ByID[shopID]
	if !ok {
		return BuyResult{}, ErrUnknownShop
	}
	if !g.accessAllowed(sh, roleID) {
		return BuyResult{}, ErrAccessDenied
	}
	var entry *catalogs.ShopEntry
	for i := range sh.Entries {
		if sh.Entries[i].ItemID == itemID {
			entry = &sh.Entries[i]
			break
		}
	}
	if entry == nil {
		return BuyResult{}, ErrUnknownEntry
	}
	tracked := entry.Stock != nil
	if tracked && g.stock[shopID][itemID] < qty {
		return BuyResult{}, ErrOutOfStock
	}

	total := money.FromMajor(entry.Price) * money.Amount(qty)
	if !g.wallet.ChargeWallet(userID, total, "shop:"+shopID+":"+itemID) {
		return BuyResult{}, ErrInsufficientFunds
	}
	if err := g.grants.GrantPurchase(userID, itemID, qty); err != nil {
		g.wallet.CreditWallet(userID, total, "shop:refund:"+shopID+":"+itemID)
		return BuyResult{}, ErrGrantFailed
	}

	res := BuyResult{ShopID: shopID, ItemID: itemID, Quantity: qty, TotalPaid: total, Total: total.Major()}
	if tracked {
		g.stock[shopID][itemID] -= qty
		n := g.stock[shopID][itemID]
		res.Stock = &n
	}
	return res, nil
}

// accessAllowed applies the access predicate: every condition present on
// the shop must pass.
func (g *Gateway) accessAllowed(sh catalogs.ShopDef, roleID string) bool {
	if sh.RequiredRole != "" && sh.RequiredRole != roleID {
		return false
	}
	if sh.OpenHour != nil && sh.CloseHour != nil {
		h := g.now().Hour()
		open, close := *sh.OpenHour, *sh.CloseHour
		if open <= close {
			if h < open || h >= close {
				return false
			}
		} else {
			// Window wraps midnight, e.g. 20..4.
			if h < open && h >= close {
				return false
			}
		}
	}
	return true
}
