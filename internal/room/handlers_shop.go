package room

import (
	"encoding/json"
	"errors"
	"sort"

	"redvale.gg/internal/protocol"
	"redvale.gg/internal/room/shop"
)

func shopErrCode(err error) string {
	switch {
	case errors.Is(err, shop.ErrUnknownShop), errors.Is(err, shop.ErrUnknownEntry):
		return protocol.ErrNotFound
	case errors.Is(err, shop.ErrAccessDenied):
		return protocol.ErrNoPermission
	case errors.Is(err, shop.ErrOutOfStock):
		return protocol.ErrConflict
	case errors.Is(err, shop.ErrBadQuantity):
		return protocol.ErrBadRequest
	case errors.Is(err, shop.ErrInsufficientFunds):
		return protocol.ErrNoFunds
	case errors.Is(err, shop.ErrGrantFailed):
		return protocol.ErrFull
	}
	return protocol.ErrInternal
}

type shopListPayload struct {
	Shops []shop.ShopView `json:"shops"`
}

func handleShopList(r *Room, s *Session, _ json.RawMessage) {
	list := r.shops.List()
	sort.Slice(list, func(i, j int) bool { return list[i].ShopID < list[j].ShopID })
	r.push(s, protocol.MsgShopListData, shopListPayload{Shops: list})
}

func handleShopRequest(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.ShopRequestReq
	if !r.decode(s, protocol.MsgShopError, raw, &req) {
		return
	}
	v, err := r.shops.Open(req.ShopID, s.RoleID)
	if err != nil {
		r.pushError(s, protocol.MsgShopError, shopErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgShopData, v)
}

func handleShopBuy(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.BuyReq
	if !r.decode(s, protocol.MsgShopError, raw, &req) {
		return
	}
	res, err := r.shops.Buy(s.UserID, req.ShopID, req.ItemID, req.Quantity, s.RoleID)
	if err != nil {
		r.pushError(s, protocol.MsgShopError, shopErrCode(err), err.Error())
		return
	}
	r.audit("shop.buy", s.UserID, map[string]any{
		"shopId": req.ShopID, "itemId": req.ItemID, "quantity": req.Quantity, "total": res.Total,
	})
	r.push(s, protocol.MsgShopSuccess, res)
	r.pushInventory(s, protocol.MsgInventoryData)
	r.pushBalances(s.UserID)
}
