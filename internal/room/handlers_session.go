package room

import (
	"encoding/json"
	"strings"

	"redvale.gg/internal/protocol"
)

const maxChatLen = 500

func handleHeartbeat(r *Room, s *Session, _ json.RawMessage) {
	// Dispatch already refreshed LastActivity; nothing else to do.
}

func handleMove(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.MoveReq
	if !r.decode(s, protocol.MsgSessionError, raw, &req) {
		return
	}
	if req.MapID == "" {
		r.pushError(s, protocol.MsgSessionError, protocol.ErrBadRequest, "map_id required")
		return
	}
	s.MapID = req.MapID
	// Arriving on a map, the client needs that map's spawn state.
	r.push(s, protocol.MsgItemsState, itemsStatePayload{
		MapID:  req.MapID,
		Spawns: r.spawns.MapState(req.MapID),
	})
}

func handleLeave(r *Room, s *Session, _ json.RawMessage) {
	r.Leave(s.ID, true)
}

type chatMessagePayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
	At       string `json:"at"`
}

func handleChatSend(r *Room, s *Session, raw json.RawMessage) {
	var req protocol.ChatSendReq
	if !r.decode(s, protocol.MsgChatError, raw, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || len(text) > maxChatLen {
		r.pushError(s, protocol.MsgChatError, protocol.ErrBadRequest, "text empty or too long")
		return
	}
	at := r.now()
	if r.cfg.Store != nil {
		r.cfg.Store.AppendChatMessage(ChatMessage{UserID: s.UserID, Username: s.Username, Text: text, At: at})
	}
	r.broadcast(protocol.MsgChatMessage, chatMessagePayload{
		UserID:   s.UserID,
		Username: s.Username,
		Text:     text,
		At:       at.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

type chatHistoryPayload struct {
	Messages []chatMessagePayload `json:"messages"`
}

func handleChatHistory(r *Room, s *Session, raw json.RawMessage) {
	limit := r.cfg.Tuning.Chat.HistoryLimit
	if len(raw) > 0 {
		var req protocol.ChatHistoryReq
		if !r.decode(s, protocol.MsgChatError, raw, &req) {
			return
		}
		if req.Limit > 0 && req.Limit < limit {
			limit = req.Limit
		}
	}
	out := chatHistoryPayload{Messages: []chatMessagePayload{}}
	if r.cfg.Store != nil {
		msgs, err := r.cfg.Store.ListRecentChat(limit)
		if err != nil {
			r.pushError(s, protocol.MsgChatError, protocol.ErrInternal, "history unavailable")
			return
		}
		for _, m := range msgs {
			out.Messages = append(out.Messages, chatMessagePayload{
				UserID:   m.UserID,
				Username: m.Username,
				Text:     m.Text,
				At:       m.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			})
		}
	}
	r.push(s, protocol.MsgChatHistory, out)
}
