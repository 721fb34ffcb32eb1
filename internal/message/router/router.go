package router

import (
	"context"

	"pairva_message_service/internal/message/app"
	"pairva_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes wire the websocket gateway and the REST fallback
func RegisterRoutes(r *fiber.App, gateway *app.GatewayHandler, rest *app.RestHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)

	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		gateway.HandleConnection(context.Background(), c)
	}))

	r.Post("/conversations", rest.CreateConversation)
	r.Get("/conversations", rest.GetConversations)
	r.Post("/conversations/:conversation_id/messages", rest.SendMessage)
	r.Get("/conversations/:conversation_id/messages", rest.GetMessages)
	r.Post("/conversations/:conversation_id/read", rest.MarkRead)
	r.Post("/conversations/:conversation_id/archive", rest.ArchiveConversation)
	r.Post("/messages/:message_id/status", rest.UpdateMessageStatus)
	r.Delete("/messages/:message_id", rest.DeleteMessage)
	r.Get("/messages/unread-count", rest.GetUnreadCount)
}
