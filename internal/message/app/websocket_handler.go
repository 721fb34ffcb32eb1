package app

import (
	"context"
	"encoding/json"
	"time"

	"pairva_message_service/internal/message/domain"
	"pairva_message_service/internal/message/repository"
	"pairva_message_service/pkg/logger"
	"pairva_message_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// GatewayHandler owns inbound websocket connections, routes client events to
// the use cases and pushes outbound events through the session registry
type GatewayHandler struct {
	registry *SessionRegistry
	convUC   *ConversationUseCase
	msgUC    *MessageUseCase
	presence repository.PresenceRepository

	sweepLimit int64
}

// NewGatewayHandler create GatewayHandler, presence may be nil
func NewGatewayHandler(
	registry *SessionRegistry,
	convUC *ConversationUseCase,
	msgUC *MessageUseCase,
	presence repository.PresenceRepository,
	sweepLimit int64,
) *GatewayHandler {
	if sweepLimit <= 0 {
		sweepLimit = readBatchSize
	}
	return &GatewayHandler{
		registry:   registry,
		convUC:     convUC,
		msgUC:      msgUC,
		presence:   presence,
		sweepLimit: sweepLimit,
	}
}

// HandleConnection websocket entry point, the JWT middleware already verified
// the handshake credential and stored the user id in conn locals
func (h *GatewayHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	tokenUser := conn.Locals(middlewares.TokenUserID)
	userID, ok := tokenUser.(string)
	if !ok || userID == "" {
		// middleware rejects before the upgrade, reaching here without an
		// identity is a transport failure, close immediately
		h.sendErrorRaw(conn, "missing identity")
		conn.Close()
		return
	}
	logger.Log.Info("websocket connected", zap.String("user_id", userID))

	client := NewClient(userID, conn)

	ticker := time.NewTicker(30 * time.Second)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		cancel()
		h.registry.Unregister(client)
		if h.presence != nil {
			if err := h.presence.Down(context.Background(), userID); err != nil {
				logger.Log.Errorf("presence down err:", err, zap.String("user_id", userID))
			}
		}
		logger.Log.Info("websocket close", zap.String("user_id", userID))
		conn.Close()
	}()

	// one active connection per user, the replaced one is closed
	if old := h.registry.Register(client); old != nil {
		old.Close()
	}

	if h.presence != nil {
		if err := h.presence.Up(ctx, userID); err != nil {
			logger.Log.Errorf("presence up err:", err, zap.String("user_id", userID))
		}
	}

	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		return nil
	})

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// ping keeps the connection alive and refreshes the presence TTL
	go func() {
		for {
			select {
			case <-ticker.C:
				client.mu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, []byte("ping"))
				client.mu.Unlock()
				if err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
				if h.presence != nil {
					if err := h.presence.Refresh(ctxClose, userID); err != nil {
						logger.Log.Errorf("presence refresh err:", err, zap.String("user_id", userID))
					}
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	convIDs := h.joinActiveRooms(ctx, userID)

	// connect sweep, the recipient just came online so its pending SENT
	// messages become DELIVERED and each sender learns about it
	h.sweepAndReport(ctx, userID)

	if err := client.Send(domain.WSResponse{
		Event:   string(domain.EventConnectionSuccess),
		Success: true,
		Data:    domain.ConnectionSuccessEvent{UserID: userID, ConversationIDs: convIDs},
	}); err != nil {
		logger.Log.Errorf("connection-success push err:", err)
	}

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			h.sendError(client, "unknown message type")
			continue
		}
		if keep := h.handleEvent(ctx, client, message); !keep {
			return
		}
	}
}

// joinActiveRooms load the user's ACTIVE conversations and join one room each
func (h *GatewayHandler) joinActiveRooms(ctx context.Context, userID string) []string {
	convs, err := h.convUC.GetConversations(ctx, userID)
	if err != nil {
		logger.Log.Errorf("load conversations err:", err, zap.String("user_id", userID))
		return nil
	}
	ids := make([]string, 0, len(convs))
	for _, conv := range convs {
		h.registry.JoinRoom(conv.ID, userID)
		ids = append(ids, conv.ID)
	}
	return ids
}

// sweepAndReport run the one-time DELIVERED sweep and push a status update
// per message to its sender when the sender is online
func (h *GatewayHandler) sweepAndReport(ctx context.Context, userID string) {
	delivered, err := h.msgUC.SweepDelivered(ctx, userID, h.registry.Rooms(userID), h.sweepLimit)
	if err != nil {
		logger.Log.Errorf("delivered sweep err:", err, zap.String("user_id", userID))
		return
	}
	for _, msg := range delivered {
		h.pushToUser(msg.SenderID, domain.WSResponse{
			Event:   string(domain.EventMessageStatusUpdate),
			Success: true,
			Data: domain.MessageStatusUpdateEvent{
				ConversationID: msg.ConversationID,
				MessageID:      msg.ID,
				RecipientID:    userID,
				Status:         domain.StatusDelivered,
				Timestamp:      msg.DeliveryStatus[userID].UpdatedAt,
			},
		})
	}
}

// handleEvent dispatch one inbound event, reports whether the connection
// stays alive, unknown events and malformed payloads are transport failures
func (h *GatewayHandler) handleEvent(ctx context.Context, client *Client, raw []byte) bool {
	var req domain.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Log.Errorf("event decode err:", err, zap.String("user_id", client.UserID))
		h.sendError(client, "malformed event payload")
		return false
	}

	switch domain.EventName(req.Event) {
	case domain.EventSendMessage:
		var data domain.SendMessageReq
		if !h.decode(client, req.Data, &data) {
			return false
		}
		h.onSendMessage(ctx, client, data)

	case domain.EventReadMessages:
		var data domain.ReadMessagesReq
		if !h.decode(client, req.Data, &data) {
			return false
		}
		h.onReadMessages(ctx, client, data)

	case domain.EventTyping:
		var data domain.TypingReq
		if !h.decode(client, req.Data, &data) {
			return false
		}
		h.onTyping(client, data)

	case domain.EventCreateConversation:
		var data domain.CreateConversationReq
		if !h.decode(client, req.Data, &data) {
			return false
		}
		h.onCreateConversation(ctx, client, data)

	case domain.EventArchiveConversation:
		var data domain.ArchiveConversationReq
		if !h.decode(client, req.Data, &data) {
			return false
		}
		h.onArchiveConversation(ctx, client, data)

	default:
		logger.Log.Error("unknown event", zap.String("event", req.Event), zap.String("user_id", client.UserID))
		h.sendError(client, "unknown event name")
		return false
	}
	return true
}

func (h *GatewayHandler) decode(client *Client, raw json.RawMessage, out interface{}) bool {
	if len(raw) == 0 {
		h.sendError(client, "missing event payload")
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		h.sendError(client, "malformed event payload")
		return false
	}
	return true
}

func (h *GatewayHandler) onSendMessage(ctx context.Context, client *Client, data domain.SendMessageReq) {
	msg, err := h.msgUC.SendMessage(ctx, data.ConversationID, client.UserID, data.Content, domain.MessageType(data.Type), data.Metadata)
	if err != nil {
		h.sendEventError(client, domain.EventSendMessage, err)
		return
	}

	// ack the sender, then fan out to everyone joined to the room
	if err := client.Send(domain.WSResponse{
		Event:   string(domain.EventSendMessage),
		Success: true,
		Data:    domain.MessageAck{MessageID: msg.ID, Timestamp: msg.CreatedAt},
	}); err != nil {
		logger.Log.Errorf("send ack err:", err)
	}

	h.broadcastRoom(msg.ConversationID, domain.WSResponse{
		Event:   string(domain.EventNewMessage),
		Success: true,
		Data:    domain.NewMessageEvent{Message: *msg},
	}, "")
}

func (h *GatewayHandler) onReadMessages(ctx context.Context, client *Client, data domain.ReadMessagesReq) {
	changed, err := h.msgUC.MarkConversationRead(ctx, data.ConversationID, client.UserID)
	if err != nil {
		h.sendEventError(client, domain.EventReadMessages, err)
		return
	}

	if err := client.Send(domain.WSResponse{
		Event:   string(domain.EventReadMessages),
		Success: true,
	}); err != nil {
		logger.Log.Errorf("read ack err:", err)
	}

	if len(changed) == 0 {
		return
	}

	// read receipts go to whoever sent the messages, not to the room
	now := time.Now().UnixMilli()
	bySender := make(map[string][]string)
	for _, msg := range changed {
		bySender[msg.SenderID] = append(bySender[msg.SenderID], msg.ID)
	}
	for senderID, ids := range bySender {
		h.pushToUser(senderID, domain.WSResponse{
			Event:   string(domain.EventMessagesRead),
			Success: true,
			Data: domain.MessagesReadEvent{
				ConversationID: data.ConversationID,
				MessageIDs:     ids,
				ReaderID:       client.UserID,
				Timestamp:      now,
			},
		})
	}
}

func (h *GatewayHandler) onTyping(client *Client, data domain.TypingReq) {
	// broadcast only, never persisted, no ack
	h.broadcastRoom(data.ConversationID, domain.WSResponse{
		Event:   string(domain.EventUserTyping),
		Success: true,
		Data: domain.UserTypingEvent{
			ConversationID: data.ConversationID,
			UserID:         client.UserID,
			IsTyping:       data.IsTyping,
			Timestamp:      time.Now().UnixMilli(),
		},
	}, client.UserID)
}

func (h *GatewayHandler) onCreateConversation(ctx context.Context, client *Client, data domain.CreateConversationReq) {
	participants := append([]string{client.UserID}, data.ParticipantIDs...)
	conv, err := h.convUC.CreateConversation(ctx, participants, data.Metadata)
	if err != nil {
		h.sendEventError(client, domain.EventCreateConversation, err)
		return
	}

	h.registry.JoinRoom(conv.ID, client.UserID)
	for _, p := range conv.Participants {
		if p == client.UserID {
			continue
		}
		if !h.registry.IsOnline(p) {
			continue
		}
		h.registry.JoinRoom(conv.ID, p)
		h.pushToUser(p, domain.WSResponse{
			Event:   string(domain.EventNewConversation),
			Success: true,
			Data:    domain.NewConversationEvent{Conversation: *conv},
		})
	}

	if err := client.Send(domain.WSResponse{
		Event:   string(domain.EventCreateConversation),
		Success: true,
		Data:    domain.NewConversationEvent{Conversation: *conv},
	}); err != nil {
		logger.Log.Errorf("create ack err:", err)
	}
}

func (h *GatewayHandler) onArchiveConversation(ctx context.Context, client *Client, data domain.ArchiveConversationReq) {
	conv, err := h.convUC.ArchiveConversation(ctx, data.ConversationID, client.UserID)
	if err != nil {
		h.sendEventError(client, domain.EventArchiveConversation, err)
		return
	}

	h.registry.LeaveRoom(conv.ID, client.UserID)

	if err := client.Send(domain.WSResponse{
		Event:   string(domain.EventArchiveConversation),
		Success: true,
	}); err != nil {
		logger.Log.Errorf("archive ack err:", err)
	}
}

// broadcastRoom push to every connection joined to the room, excludeUser may be empty
func (h *GatewayHandler) broadcastRoom(roomID string, resp domain.WSResponse, excludeUser string) {
	for _, c := range h.registry.RoomClients(roomID) {
		if excludeUser != "" && c.UserID == excludeUser {
			continue
		}
		if err := c.Send(resp); err != nil {
			logger.Log.Errorf("room push err:", err, zap.String("user_id", c.UserID))
		}
	}
}

// pushToUser best effort, events to offline users are dropped, the REST
// surface is how an offline client catches up
func (h *GatewayHandler) pushToUser(userID string, resp domain.WSResponse) {
	c, ok := h.registry.Client(userID)
	if !ok {
		return
	}
	if err := c.Send(resp); err != nil {
		logger.Log.Errorf("user push err:", err, zap.String("user_id", userID))
	}
}

// sendEventError emit an error event on the originating connection only
func (h *GatewayHandler) sendEventError(client *Client, event domain.EventName, err error) {
	logger.Log.Error("websocket err",
		zap.String("user_id", client.UserID),
		zap.String("event", string(event)),
		zap.String("err", err.Error()),
	)
	if sendErr := client.Send(domain.WSResponse{
		Event:   string(event),
		Success: false,
		Error:   err.Error(),
	}); sendErr != nil {
		logger.Log.Errorf("error push err:", sendErr)
	}
}

func (h *GatewayHandler) sendError(client *Client, errorMsg string) {
	if err := client.Send(domain.WSResponse{
		Event:   string(domain.EventError),
		Success: false,
		Error:   errorMsg,
	}); err != nil {
		logger.Log.Errorf("error push err:", err)
	}
}

// sendErrorRaw best effort error event before the client wrapper exists
func (h *GatewayHandler) sendErrorRaw(conn *websocket.Conn, errorMsg string) {
	b, _ := json.Marshal(domain.WSResponse{
		Event:   string(domain.EventError),
		Success: false,
		Error:   errorMsg,
	})
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}
