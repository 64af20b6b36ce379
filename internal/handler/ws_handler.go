package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/hub"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/service"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub     *hub.Hub
	service service.Coordinator
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.Coordinator) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
	}
}

// HandleWebSocket handles WebSocket upgrade and message routing.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.L()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	client := &hub.Client{
		ID:      clientID,
		Hub:     h.hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Session: domain.NewSession(clientID),
	}

	client.SetDisconnectHandler(func(c *hub.Client) {
		h.service.Disconnect(c)
	})

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeJoinAudioSession:
		var msg domain.JoinAudioSessionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid join-audio-session message"))
			return
		}
		h.service.JoinAudio(ctx, client, msg)

	case domain.MsgTypeLeaveAudioSession:
		h.service.LeaveAudio(ctx, client)

	case domain.MsgTypeJoinMusicSession:
		var msg domain.JoinMusicSessionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid join-music-session message"))
			return
		}
		h.service.JoinMusic(ctx, client, msg)

	case domain.MsgTypeMusicControl:
		var msg domain.MusicControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid music-control message"))
			return
		}
		h.service.MusicControl(ctx, client, msg)

	case domain.MsgTypeTakeControl:
		var msg domain.TakeControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid music-take-control message"))
			return
		}
		h.service.TakeControl(ctx, client, msg)

	case domain.MsgTypeReleaseControl:
		var msg domain.ReleaseControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid music-release-control message"))
			return
		}
		h.service.ReleaseControl(ctx, client, msg)

	case domain.MsgTypePlaylistUpdate:
		var msg domain.PlaylistUpdateMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid playlist-update message"))
			return
		}
		h.service.PlaylistUpdate(ctx, client, msg)

	case domain.MsgTypePositionSync:
		var msg domain.PositionSyncMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid music-position-sync message"))
			return
		}
		h.service.PositionSync(ctx, client, msg)

	case domain.MsgTypeInitDevice:
		var msg domain.InitDeviceMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid init-device message"))
			return
		}
		h.service.InitDevice(client, msg)

	case domain.MsgTypeTransportOffer:
		var msg domain.TransportOfferMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid transport-offer message"))
			return
		}
		h.service.TransportOffer(client, msg)

	case domain.MsgTypeTransportICE:
		var msg domain.TransportICEMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid transport-ice message"))
			return
		}
		h.service.TransportICE(client, msg)

	case domain.MsgTypeProduce:
		var msg domain.ProduceMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid produce message"))
			return
		}
		h.service.Produce(client, msg)

	case domain.MsgTypePauseProducer:
		var msg domain.ProducerControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid pause-producer message"))
			return
		}
		h.service.PauseProducer(client, msg)

	case domain.MsgTypeResumeProducer:
		var msg domain.ProducerControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid resume-producer message"))
			return
		}
		h.service.ResumeProducer(client, msg)

	case domain.MsgTypeConsume:
		var msg domain.ConsumeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid consume message"))
			return
		}
		h.service.Consume(client, msg)

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWebSocket)
}
