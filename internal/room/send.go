package room

import (
	"encoding/json"

	"redvale.gg/internal/protocol"
)

// sendLatest enqueues without ever blocking the room loop: when the
// session's queue is full the oldest frame is dropped to make space.
// An unbuffered channel has no space to make; the frame is dropped
// unless a reader is already waiting.
func sendLatest(ch chan []byte, b []byte) {
	if ch == nil {
		return
	}
	if cap(ch) == 0 {
		select {
		case ch <- b:
		default:
		}
		return
	}
	for {
		select {
		case ch <- b:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (r *Room) push(s *Session, typ string, payload any) {
	raw, err := json.Marshal(protocol.Reply{Type: typ, Payload: payload})
	if err != nil {
		r.log.Printf("marshal %s: %v", typ, err)
		return
	}
	sendLatest(s.out, raw)
}

func (r *Room) pushToUser(userID, typ string, payload any) {
	if s := r.byUser[userID]; s != nil && s.Online {
		r.push(s, typ, payload)
	}
}

func (r *Room) pushError(s *Session, typ, code, message string) {
	r.push(s, typ, protocol.ErrorPayload{Code: code, Message: message})
}

func (r *Room) broadcast(typ string, payload any) {
	for _, s := range r.sessions {
		if s.Online {
			r.push(s, typ, payload)
		}
	}
}

func (r *Room) broadcastMap(mapID, typ string, payload any) {
	for _, s := range r.sessions {
		if s.Online && s.MapID == mapID {
			r.push(s, typ, payload)
		}
	}
}
