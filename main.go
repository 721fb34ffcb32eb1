package main

import (
	"pairva_message_service/internal/message/router"

	"github.com/gofiber/fiber/v2"
)

// swagger generation entry point, the runnable service lives in cmd/
// swag init output ./docs
func main() {
	app := fiber.New()

	router.RegisterRoutes(app, nil, nil)
}
