package room

import (
	"encoding/json"
	"errors"

	"redvale.gg/internal/protocol"
	"redvale.gg/internal/room/inventory"
)

func invErrCode(err error) string {
	switch {
	case errors.Is(err, inventory.ErrUnknownItem), errors.Is(err, inventory.ErrItemNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, inventory.ErrSlotsFull):
		return protocol.ErrFull
	case errors.Is(err, inventory.ErrNotConsumable),
		errors.Is(err, inventory.ErrBadQuantity),
		errors.Is(err, inventory.ErrBadShape):
		return protocol.ErrBadRequest
	}
	return protocol.ErrInternal
}

func (r *Room) pushInventory(s *Session, typ string) {
	r.push(s, typ, r.inv.State(s.UserID).View())
}

func handleInventoryRequest(r *Room, s *Session, _ json.RawMessage) {
	r.pushInventory(s, protocol.MsgInventoryData)
}

// handleInventoryUpdate is the client sync path: the proposed state is
// validated and rebuilt server-side before it replaces anything.
func handleInventoryUpdate(r *Room, s *Session, raw json.RawMessage) {
	var req inventory.WireState
	if !r.decode(s, protocol.MsgInventoryError, raw, &req) {
		return
	}
	st, err := r.inv.Replace(s.UserID, req)
	if err != nil {
		r.pushError(s, protocol.MsgInventoryError, invErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgInventoryUpdated, st.View())
}

type itemsTouchedPayload struct {
	Items []*inventory.Item `json:"items"`
}

func handleInventoryAddItem(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.AddItemReq
	if !r.decode(s, protocol.MsgInventoryError, raw, &req) {
		return
	}
	touched, err := r.inv.Grant(s.UserID, req.ItemID, req.Quantity)
	if err != nil {
		r.pushError(s, protocol.MsgInventoryError, invErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgInventoryItemAdded, itemsTouchedPayload{Items: touched})
	r.pushInventory(s, protocol.MsgInventoryData)
}

type itemRemovedPayload struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

func handleInventoryRemoveItem(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.RemoveItemReq
	if !r.decode(s, protocol.MsgInventoryError, raw, &req) {
		return
	}
	if _, err := r.inv.Remove(s.UserID, req.ID, req.Quantity); err != nil {
		r.pushError(s, protocol.MsgInventoryError, invErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgInventoryRemoved, itemRemovedPayload{ID: req.ID, Quantity: req.Quantity})
	r.pushInventory(s, protocol.MsgInventoryData)
}

func handleInventoryUseItem(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.UseItemReq
	if !r.decode(s, protocol.MsgInventoryError, raw, &req) {
		return
	}
	instanceID := req.ItemID
	if instanceID == "" {
		// Fall back to slot addressing.
		for _, it := range r.inv.State(s.UserID).Items {
			if it.Slot == req.Slot {
				instanceID = it.ID
				break
			}
		}
	}
	res, err := r.inv.Use(s.UserID, instanceID)
	if err != nil {
		r.pushError(s, protocol.MsgInventoryError, invErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgInventoryUsed, res)
	for _, eff := range res.Effects {
		if eff.Handled && eff.Kind == inventory.EffectCurrency {
			r.pushBalances(s.UserID)
			break
		}
	}
}

type itemPayload struct {
	Item *inventory.Item `json:"item"`
}

func handleInventoryEquip(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.EquipItemReq
	if !r.decode(s, protocol.MsgInventoryError, raw, &req) {
		return
	}
	it, err := r.inv.Equip(s.UserID, req.ID)
	if err != nil {
		r.pushError(s, protocol.MsgInventoryError, invErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgInventoryEquipped, itemPayload{Item: it})
}

func handleInventoryUnequip(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.EquipItemReq
	if !r.decode(s, protocol.MsgInventoryError, raw, &req) {
		return
	}
	it, err := r.inv.Unequip(s.UserID, req.ID)
	if err != nil {
		r.pushError(s, protocol.MsgInventoryError, invErrCode(err), err.Error())
		return
	}
	r.push(s, protocol.MsgInventoryUnequipped, itemPayload{Item: it})
}

type goldPayload struct {
	Gold float64 `json:"gold"`
}

func handleInventoryUpdateGold(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.UpdateGoldReq
	if !r.decode(s, protocol.MsgInventoryError, raw, &req) {
		return
	}
	st := r.inv.SetGold(s.UserID, req.Gold)
	r.push(s, protocol.MsgInventoryGold, goldPayload{Gold: st.Gold})
}
