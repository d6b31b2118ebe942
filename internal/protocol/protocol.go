package protocol

import "encoding/json"

const Version = "1.0"

// Handshake message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Envelope is the post-handshake client->server frame. Type is a
// namespaced "domain:action" name; Payload is decoded by the handler.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is the server->client frame, both for direct replies and
// broadcasts.
type Reply struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Client->server message names.
const (
	MsgSessionHeartbeat = "session:heartbeat"
	MsgSessionMove      = "session:move"
	MsgSessionLeave     = "session:leave"

	MsgChatSend    = "chat:send"
	MsgChatHistory = "chat:history"

	MsgEconomyRequest  = "economy:request"
	MsgEconomyDeposit  = "economy:deposit"
	MsgEconomyWithdraw = "economy:withdraw"
	MsgEconomyTransfer = "economy:transfer"

	MsgInventoryRequest    = "inventory:request"
	MsgInventoryUpdate     = "inventory:update"
	MsgInventoryAddItem    = "inventory:add-item"
	MsgInventoryRemoveItem = "inventory:remove-item"
	MsgInventoryUseItem    = "inventory:use-item"
	MsgInventoryEquip      = "inventory:equip-item"
	MsgInventoryUnequip    = "inventory:unequip-item"
	MsgInventoryUpdateGold = "inventory:update-gold"

	MsgItemsRequest = "items:request"
	MsgItemsCollect = "items:collect"

	MsgJobsList        = "jobs:list"
	MsgJobsRequest     = "jobs:request"
	MsgJobsRoleAssign  = "jobs:role:assign"
	MsgJobsStart       = "jobs:start"
	MsgJobsProgress    = "jobs:progress"
	MsgJobsWaypointHit = "jobs:waypointHit"
	MsgJobsCancel      = "jobs:cancel"
	MsgJobsComplete    = "jobs:complete"

	MsgShopList    = "shop:list"
	MsgShopRequest = "shop:request"
	MsgShopBuy     = "shop:buy"
)

// Server->client message names.
const (
	MsgChatMessage = "chat:message"

	MsgEconomyWallet     = "economy:wallet"
	MsgEconomyBank       = "economy:bank"
	MsgEconomyLedger     = "economy:ledger"
	MsgEconomyLimits     = "economy:limits"
	MsgEconomyLimitsUsed = "economy:limitsUsed"
	MsgEconomyError      = "economy:error"

	MsgInventoryData       = "inventory:data"
	MsgInventoryUpdated    = "inventory:updated"
	MsgInventoryItemAdded  = "inventory:item-added"
	MsgInventoryRemoved    = "inventory:item-removed"
	MsgInventoryUsed       = "inventory:item-used"
	MsgInventoryEquipped   = "inventory:item-equipped"
	MsgInventoryUnequipped = "inventory:item-unequipped"
	MsgInventoryGold       = "inventory:gold-updated"
	MsgInventoryError      = "inventory:error"

	MsgItemsState     = "items:state"
	MsgItemsUpdate    = "items:update"
	MsgItemsCollected = "items:collected"
	MsgItemsError     = "items:error"

	MsgJobsListData  = "jobs:list"
	MsgJobsData      = "jobs:data"
	MsgJobsStarted   = "jobs:started"
	MsgJobsProgressD = "jobs:progress"
	MsgJobsNext      = "jobs:next"
	MsgJobsWait      = "jobs:wait"
	MsgJobsCompleted = "jobs:completed"
	MsgJobsCancelled = "jobs:cancelled"
	MsgJobsError     = "jobs:error"

	MsgShopListData = "shop:list"
	MsgShopData     = "shop:data"
	MsgShopSuccess  = "shop:success"
	MsgShopError    = "shop:error"

	MsgSessionError = "session:error"
	MsgChatError    = "chat:error"
)
