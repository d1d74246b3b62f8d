package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tieubaoca/docqa-be/types"
)

// WebSocketService streams query answers token by token. The client
// sends a query request and receives the retrieved sources first, then
// completion deltas, then a done marker.
type WebSocketService struct {
	queryService *QueryService
	upgrader     websocket.Upgrader
}

func NewWebSocketService(queryService *QueryService) *WebSocketService {
	return &WebSocketService{
		queryService: queryService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleQuery(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("websocket read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			s.sendError(conn, "invalid message")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketQuery:
			var payload types.QueryRequest
			if err := json.Unmarshal(req.Payload, &payload); err != nil {
				s.sendError(conn, "invalid query payload")
				continue
			}
			s.streamAnswer(ctx, conn, payload)
		case types.TypeWebsocketPing:
			conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketPong})
		default:
			s.sendError(conn, "unknown message type")
		}
	}
}

func (s *WebSocketService) streamAnswer(ctx context.Context, conn *websocket.Conn, req types.QueryRequest) {
	err := s.queryService.AnswerStream(ctx, req,
		func(sources []types.SourceChunk) {
			conn.WriteJSON(types.WebsocketResponse{
				Type:    types.TypeWebsocketSources,
				Payload: sources,
			})
		},
		func(delta string) {
			if delta == "" {
				return
			}
			conn.WriteJSON(types.WebsocketResponse{
				Type:    types.TypeWebsocketDelta,
				Payload: delta,
			})
		},
	)
	if err != nil {
		log.Error().Err(err).Msg("streaming answer failed")
		s.sendError(conn, err.Error())
		return
	}
	conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketDone})
}

func (s *WebSocketService) sendError(conn *websocket.Conn, message string) {
	conn.WriteJSON(types.WebsocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: message,
	})
}
