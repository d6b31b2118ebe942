package room

import (
	"encoding/json"

	"redvale.gg/internal/protocol"
)

type handlerFunc func(r *Room, s *Session, payload json.RawMessage)

// handlers routes every post-handshake message. Handlers run on the
// room loop; each one decodes its own payload and replies through push.
var handlers = map[string]handlerFunc{
	protocol.MsgSessionHeartbeat: handleHeartbeat,
	protocol.MsgSessionMove:      handleMove,
	protocol.MsgSessionLeave:     handleLeave,

	protocol.MsgChatSend:    handleChatSend,
	protocol.MsgChatHistory: handleChatHistory,

	protocol.MsgEconomyRequest:  handleEconomyRequest,
	protocol.MsgEconomyDeposit:  handleEconomyDeposit,
	protocol.MsgEconomyWithdraw: handleEconomyWithdraw,
	protocol.MsgEconomyTransfer: handleEconomyTransfer,

	protocol.MsgInventoryRequest:    handleInventoryRequest,
	protocol.MsgInventoryUpdate:     handleInventoryUpdate,
	protocol.MsgInventoryAddItem:    handleInventoryAddItem,
	protocol.MsgInventoryRemoveItem: handleInventoryRemoveItem,
	protocol.MsgInventoryUseItem:    handleInventoryUseItem,
	protocol.MsgInventoryEquip:      handleInventoryEquip,
	protocol.MsgInventoryUnequip:    handleInventoryUnequip,
	protocol.MsgInventoryUpdateGold: handleInventoryUpdateGold,

	protocol.MsgItemsRequest: handleItemsRequest,
	protocol.MsgItemsCollect: handleItemsCollect,

	protocol.MsgJobsList:        handleJobsList,
	protocol.MsgJobsRequest:     handleJobsRequest,
	protocol.MsgJobsRoleAssign:  handleJobsRoleAssign,
	protocol.MsgJobsStart:       handleJobsStart,
	protocol.MsgJobsProgress:    handleJobsProgress,
	protocol.MsgJobsWaypointHit: handleJobsWaypointHit,
	protocol.MsgJobsCancel:      handleJobsCancel,
	protocol.MsgJobsComplete:    handleJobsComplete,

	protocol.MsgShopList:    handleShopList,
	protocol.MsgShopRequest: handleShopRequest,
	protocol.MsgShopBuy:     handleShopBuy,
}

// HandleMessage is the room's synchronous dispatch entry point. Any
// inbound traffic proves liveness, so it refreshes the activity clock
// and revives a grace-period session.
func (r *Room) HandleMessage(sessionID string, env protocol.Envelope) {
	s := r.sessions[sessionID]
	if s == nil {
		return
	}
	s.LastActivity = r.now()
	s.Online = true

	h := handlers[env.Type]
	if h == nil {
		r.pushError(s, protocol.MsgSessionError, protocol.ErrBadRequest, "unknown message type "+env.Type)
		return
	}
	h(r, s, env.Payload)
}

// decode unmarshals a payload, replying on the domain's error channel
// when it is malformed.
func (r *Room) decode(s *Session, errType string, payload json.RawMessage, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		r.pushError(s, errType, protocol.ErrBadRequest, "malformed payload")
		return false
	}
	return true
}
