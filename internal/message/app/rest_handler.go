package app

import (
	"fmt"

	"pairva_message_service/internal/message/domain"
	errprocess "pairva_message_service/pkg/err"
	"pairva_message_service/pkg/logger"
	"pairva_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RestHandler HTTP fallback surface, same use cases as the websocket gateway
type RestHandler struct {
	convUC *ConversationUseCase
	msgUC  *MessageUseCase

	sweepLimit int64
}

// NewRestHandler create RestHandler
func NewRestHandler(convUC *ConversationUseCase, msgUC *MessageUseCase, sweepLimit int64) *RestHandler {
	if sweepLimit <= 0 {
		sweepLimit = readBatchSize
	}
	return &RestHandler{
		convUC:     convUC,
		msgUC:      msgUC,
		sweepLimit: sweepLimit,
	}
}

func (h *RestHandler) currentUser(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(middlewares.TokenUserID).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("c.Locals(%s) is nil", middlewares.TokenUserID)
	}
	return userID, nil
}

func (h *RestHandler) fail(c *fiber.Ctx, err error) error {
	return c.Status(errprocess.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

// CreateConversation create or revive a conversation
// @Summary Create conversation
// @Description Creates a conversation for the participant set, or returns the existing one
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body domain.CreateConversationReq true "participant ids"
// @Success 200 {object} domain.Conversation "conversation"
// @Failure 400 {object} string "invalid request"
// @Router /conversations [post]
func (h *RestHandler) CreateConversation(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req domain.CreateConversationReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("CreateConversation request", zap.String("user_id", userID), zap.Strings("participants", req.ParticipantIDs))

	conv, err := h.convUC.CreateConversation(c.Context(), append([]string{userID}, req.ParticipantIDs...), req.Metadata)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(conv)
}

// GetConversations list the caller's active conversations
// @Summary List conversations
// @Description Returns the caller's ACTIVE conversations, most recent activity first
// @Tags Conversations
// @Produce json
// @Success 200 {array} domain.Conversation "conversations"
// @Failure 500 {object} string "server error"
// @Router /conversations [get]
func (h *RestHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	convs, err := h.convUC.GetConversations(c.Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// SendMessage append a message to a conversation
// @Summary Send message
// @Description Persists a message and fans it out to the conversation
// @Tags Messages
// @Accept json
// @Produce json
// @Param conversation_id path string true "conversation id"
// @Param request body domain.SendMessageReq true "message body"
// @Success 200 {object} domain.Message "message"
// @Failure 400 {object} string "invalid request"
// @Failure 403 {object} string "not a participant"
// @Failure 404 {object} string "conversation not found"
// @Router /conversations/{conversation_id}/messages [post]
func (h *RestHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req domain.SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	msg, err := h.msgUC.SendMessage(c.Context(), c.Params("conversation_id"), userID, req.Content, domain.MessageType(req.Type), req.Metadata)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(msg)
}

// GetMessages page through a conversation's history
// @Summary Get messages
// @Description Returns messages ordered by creation time, fetching implies delivery
// @Tags Messages
// @Produce json
// @Param conversation_id path string true "conversation id"
// @Param limit query int false "page size, default 50, max 100"
// @Param before query int false "only messages created before this unix ms"
// @Param after query int false "only messages created after this unix ms"
// @Success 200 {array} domain.Message "messages"
// @Failure 403 {object} string "not a participant"
// @Failure 404 {object} string "conversation not found"
// @Router /conversations/{conversation_id}/messages [get]
func (h *RestHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	conversationID := c.Params("conversation_id")
	limit := int64(c.QueryInt("limit"))
	before := int64(c.QueryInt("before"))
	after := int64(c.QueryInt("after"))

	msgs, err := h.msgUC.GetMessages(c.Context(), conversationID, userID, limit, before, after)
	if err != nil {
		return h.fail(c, err)
	}

	// a poll fetch is a receive, promote the caller's pending copies
	if _, err := h.msgUC.SweepDelivered(c.Context(), userID, []string{conversationID}, h.sweepLimit); err != nil {
		logger.Log.Errorf("delivered sweep err:", err, zap.String("user_id", userID))
	}

	return c.JSON(fiber.Map{"messages": msgs})
}

// MarkRead mark the conversation read for the caller
// @Summary Mark conversation read
// @Description Promotes every unread message in the conversation to READ for the caller
// @Tags Messages
// @Produce json
// @Param conversation_id path string true "conversation id"
// @Success 200 {object} string "count of updated messages"
// @Failure 403 {object} string "not a participant"
// @Failure 404 {object} string "conversation not found"
// @Router /conversations/{conversation_id}/read [post]
func (h *RestHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	changed, err := h.msgUC.MarkConversationRead(c.Context(), c.Params("conversation_id"), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"updated": len(changed)})
}

// ArchiveConversation archive a conversation for its participants
// @Summary Archive conversation
// @Description Moves the conversation to ARCHIVED, a later send revives it
// @Tags Conversations
// @Produce json
// @Param conversation_id path string true "conversation id"
// @Success 200 {object} domain.Conversation "conversation"
// @Failure 403 {object} string "not a participant"
// @Failure 404 {object} string "conversation not found"
// @Router /conversations/{conversation_id}/archive [post]
func (h *RestHandler) ArchiveConversation(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	conv, err := h.convUC.ArchiveConversation(c.Context(), c.Params("conversation_id"), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(conv)
}

// UpdateMessageStatus explicit delivery acknowledgement
// @Summary Update message status
// @Description Applies one monotonic delivery transition, a stale transition is a no-op
// @Tags Messages
// @Accept json
// @Produce json
// @Param message_id path string true "message id"
// @Param request body object true "new status"
// @Success 200 {object} domain.Message "message"
// @Failure 403 {object} string "not a recipient"
// @Failure 404 {object} string "message not found"
// @Router /messages/{message_id}/status [post]
func (h *RestHandler) UpdateMessageStatus(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req struct {
		Status domain.DeliveryState `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	msg, err := h.msgUC.UpdateMessageStatus(c.Context(), c.Params("message_id"), userID, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(msg)
}

// DeleteMessage soft delete a message the caller sent
// @Summary Delete message
// @Description Replaces the message content with a placeholder, sender only
// @Tags Messages
// @Produce json
// @Param message_id path string true "message id"
// @Success 200 {object} string "delete success"
// @Failure 403 {object} string "not the sender"
// @Failure 404 {object} string "message not found"
// @Router /messages/{message_id} [delete]
func (h *RestHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.msgUC.DeleteMessage(c.Context(), c.Params("message_id"), userID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "delete success"})
}

// GetUnreadCount total unread messages across the caller's conversations
// @Summary Unread count
// @Description Counts messages still below READ for the caller, deleted excluded
// @Tags Messages
// @Produce json
// @Success 200 {object} string "unread count"
// @Failure 500 {object} string "server error"
// @Router /messages/unread-count [get]
func (h *RestHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := h.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	count, err := h.msgUC.GetUnreadCount(c.Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}
