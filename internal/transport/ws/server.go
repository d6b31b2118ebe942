package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"redvale.gg/internal/protocol"
	"redvale.gg/internal/room"
)

type Server struct {
	room *room.Room
	log  *log.Logger

	queueDepth int
	upgrader   websocket.Upgrader
}

func NewServer(r *room.Room, queueDepth int, logger *log.Logger) *Server {
	if queueDepth <= 0 {
		queueDepth = 32
	}
	return &Server{
		room:       r,
		log:        logger,
		queueDepth: queueDepth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine: drains the room's out queue for this session.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. A consented leave is signalled in-band by the
		// session:leave message; a broken read is an unconsented drop.
		consented := false
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			var env protocol.Envelope
			if err := json.Unmarshal(msg, &env); err != nil || env.Type == "" {
				continue
			}
			if env.Type == protocol.MsgSessionLeave {
				consented = true
			}
			s.room.InboundC <- room.Inbound{SessionID: sessionID, Envelope: env}
			if consented {
				break
			}
		}

		if !consented {
			s.room.LeaveC <- room.LeaveRequest{SessionID: sessionID, Consented: false}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}

	out = make(chan []byte, s.queueDepth)
	respCh := make(chan room.JoinResponse, 1)
	s.room.JoinC <- room.JoinRequest{
		Username:        hello.Username,
		MapID:           hello.MapID,
		RoleID:          hello.RoleID,
		ProtocolVersion: hello.ProtocolVersion,
		Out:             out,
		Resp:            respCh,
	}
	resp := <-respCh
	if resp.Err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, resp.Err.Error()),
			time.Now().Add(time.Second))
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		// The session was registered; let the grace/sweep path reap it.
		s.room.LeaveC <- room.LeaveRequest{SessionID: resp.SessionID, Consented: false}
		return "", nil
	}
	return resp.SessionID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
