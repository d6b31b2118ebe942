package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Username        string `json:"username"`
	MapID           string `json:"map_id,omitempty"`
	RoleID          string `json:"role_id,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	UserID          string         `json:"user_id"`
	MapID           string         `json:"map_id"`
	RoomID          string         `json:"room_id"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ItemsDigest  string `json:"items_digest"`
	ShopsDigest  string `json:"shops_digest"`
	JobsDigest   string `json:"jobs_digest"`
	SpawnsDigest string `json:"spawns_digest"`
}

// Session domain.
type MoveReq struct {
	MapID string `json:"map_id"`
}

// Chat domain.
type ChatSendReq struct {
	Text string `json:"text"`
}

type ChatHistoryReq struct {
	Limit int `json:"limit,omitempty"`
}

// Economy domain. Amounts on the wire are major units; the ledger
// converts to minor units at the boundary.
type DepositReq struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

type WithdrawReq struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

type TransferReq struct {
	ToUserID string  `json:"toUserId"`
	Amount   float64 `json:"amount"`
	Reason   string  `json:"reason,omitempty"`
}

// Inventory domain.
type AddItemReq struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type RemoveItemReq struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type UseItemReq struct {
	ItemID string `json:"itemId"`
	Slot   int    `json:"slot"`
}

type EquipItemReq struct {
	ID string `json:"id"`
}

type UpdateGoldReq struct {
	Gold float64 `json:"gold"`
}

// Items (world spawns) domain.
type ItemsRequestReq struct {
	MapID string `json:"mapId"`
}

type CollectReq struct {
	MapID   string `json:"mapId"`
	SpawnID string `json:"spawnId"`
}

// Jobs domain.
type JobRequestReq struct {
	JobID string `json:"jobId"`
}

type RoleAssignReq struct {
	JobID string `json:"jobId"`
}

type JobStartReq struct {
	JobID string `json:"jobId"`
}

type JobProgressReq struct {
	Progress int `json:"progress"`
}

type WaypointHitReq struct {
	WaypointID string `json:"waypointId"`
}

// Shop domain.
type ShopRequestReq struct {
	ShopID string `json:"shopId"`
}

type BuyReq struct {
	ShopID   string `json:"shopId"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}
