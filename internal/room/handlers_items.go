package room

import (
	"encoding/json"
	"errors"
	"time"

	"redvale.gg/internal/protocol"
	"redvale.gg/internal/room/inventory"
	"redvale.gg/internal/room/spawner"
)

type itemsStatePayload struct {
	MapID  string         `json:"mapId"`
	Spawns []spawner.View `json:"spawns"`
}

type spawnUpdatePayload struct {
	MapID       string       `json:"mapId"`
	SpawnID     string       `json:"spawnId"`
	Position    spawner.Vec3 `json:"position"`
	IsCollected bool         `json:"isCollected"`
}

type collectedPayload struct {
	MapID    string            `json:"mapId"`
	SpawnID  string            `json:"spawnId"`
	ItemID   string            `json:"itemId"`
	Quantity int               `json:"quantity"`
	Items    []*inventory.Item `json:"items"`
}

func handleItemsRequest(r *Room, s *Session, raw json.RawMessage) {
	mapID := s.MapID
	if len(raw) > 0 {
		var req protocol.ItemsRequestReq
		if !r.decode(s, protocol.MsgItemsError, raw, &req) {
			return
		}
		if req.MapID != "" {
			mapID = req.MapID
		}
	}
	r.push(s, protocol.MsgItemsState, itemsStatePayload{MapID: mapID, Spawns: r.spawns.MapState(mapID)})
}

// handleItemsCollect runs the pickup transaction: capacity is checked
// before the spawn is consumed so a full inventory never eats a spawn.
func handleItemsCollect(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.CollectReq
	if !r.decode(s, protocol.MsgItemsError, raw, &req) {
		return
	}
	mapID := req.MapID
	if mapID == "" {
		mapID = s.MapID
	}
	itemID, qty, ok := r.spawns.Template(mapID, req.SpawnID)
	if !ok {
		r.pushError(s, protocol.MsgItemsError, protocol.ErrNotFound, "unknown spawn")
		return
	}
	if !r.inv.CanAccept(s.UserID, itemID, qty) {
		r.pushError(s, protocol.MsgItemsError, protocol.ErrFull, "no room for pickup")
		return
	}
	itemID, qty, respawnSeconds, err := r.spawns.Collect(mapID, req.SpawnID)
	if err != nil {
		code := protocol.ErrNotFound
		if errors.Is(err, spawner.ErrAlreadyCollected) {
			code = protocol.ErrConflict
		}
		r.pushError(s, protocol.MsgItemsError, code, err.Error())
		return
	}
	touched, err := r.inv.Grant(s.UserID, itemID, qty)
	if err != nil {
		// CanAccept made this unreachable; log if it ever happens.
		r.log.Printf("collect grant failed user=%s spawn=%s: %v", s.UserID, req.SpawnID, err)
	}

	r.broadcastMap(mapID, protocol.MsgItemsUpdate, spawnUpdatePayload{
		MapID:       mapID,
		SpawnID:     req.SpawnID,
		IsCollected: true,
	})
	r.push(s, protocol.MsgItemsCollected, collectedPayload{
		MapID:    mapID,
		SpawnID:  req.SpawnID,
		ItemID:   itemID,
		Quantity: qty,
		Items:    touched,
	})
	r.audit("items.collect", s.UserID, map[string]any{"spawnId": req.SpawnID, "itemId": itemID, "quantity": qty})

	if respawnSeconds > 0 {
		delay := time.Duration(respawnSeconds) * time.Second
		r.tasks.Schedule(r.now().Add(delay), func() {
			r.attemptRespawn(mapID, req.SpawnID, false)
		})
	}
}

// attemptRespawn places a collected spawn back into the world. When no
// candidate position clears the minimum separation the first attempt
// backs off once; the retry always places.
func (r *Room) attemptRespawn(mapID, spawnID string, isRetry bool) {
	pos, placed := r.spawns.Respawn(mapID, spawnID)
	if !placed {
		if isRetry {
			r.log.Printf("respawn gave up map=%s spawn=%s", mapID, spawnID)
			return
		}
		delay := time.Duration(r.cfg.Tuning.Spawner.RetryDelayMs) * time.Millisecond
		r.tasks.Schedule(r.now().Add(delay), func() {
			r.attemptRespawn(mapID, spawnID, true)
		})
		return
	}
	r.broadcastMap(mapID, protocol.MsgItemsUpdate, spawnUpdatePayload{
		MapID:    mapID,
		SpawnID:  spawnID,
		Position: pos,
	})
}
