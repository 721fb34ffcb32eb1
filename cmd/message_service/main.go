package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	_ "pairva_message_service/docs"
	"pairva_message_service/internal/message/app"
	"pairva_message_service/internal/message/repository"
	"pairva_message_service/internal/message/router"
	"pairva_message_service/pkg/config"
	"pairva_message_service/pkg/database"
	"pairva_message_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

const defaultPresenceTTL = 90 * time.Second

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MessageService, config.EnvConfig.MessageServiceLogPath)
	cfg := config.LoadConfig[config.Message](config.EnvConfig.MessageService, config.EnvConfig.MessageServiceYAMLPath)

	ctx := context.Background()
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("conversation indexes err : %v", err))
	}
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("message indexes err : %v", err))
	}

	presenceTTL := cfg.PresenceTTL
	if presenceTTL <= 0 {
		presenceTTL = defaultPresenceTTL
	}
	presence := repository.NewRedisPresenceRepository(redisClient, presenceTTL)

	// push notifications are optional, without brokers offline recipients
	// simply catch up through the REST surface
	var notifier repository.PushNotifier
	if len(cfg.Push.Brokers) > 0 {
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Push.Brokers,
			Topic:         cfg.Push.Topic,
			RetryCount:    cfg.Push.RetryCount,
			RetryInterval: time.Duration(cfg.Push.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("connect kafka err : %v", err))
		}
		defer writer.Close()
		notifier = repository.NewKafkaPushNotifier(writer)
	} else {
		logger.Log.Warn("push brokers not configured, offline push disabled")
	}

	convUC := app.NewConversationUseCase(convRepo)
	msgUC := app.NewMessageUseCase(convRepo, msgRepo, presence, notifier)

	registry := app.NewSessionRegistry()
	gateway := app.NewGatewayHandler(registry, convUC, msgUC, presence, cfg.SweepBatchSize)
	rest := app.NewRestHandler(convUC, msgUC, cfg.SweepBatchSize)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MessageServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, gateway, rest)

	port := ":" + cfg.Port
	log.Printf("Message Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
