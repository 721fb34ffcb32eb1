package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"pairva_message_service/internal/message/domain"
	"pairva_message_service/internal/message/repository"
	"pairva_message_service/pkg/database"
	"pairva_message_service/pkg/logger"
	"pairva_message_service/pkg/middlewares"
	testtool "pairva_message_service/pkg/test_tool"
	"pairva_message_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	mongoContainer testcontainers.Container
	redisContainer testcontainers.Container
	gatewayApp     *fiber.App

	testConvUC  *ConversationUseCase
	testMsgUC   *MessageUseCase
	testMsgRepo repository.MessageRepository
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()
	var err error

	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start Redis container: %v", err)
	}

	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_message_db")
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongo.Close(ctx)

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("conversation indexes err: %v", err)
	}
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("message indexes err: %v", err)
	}
	presence := repository.NewRedisPresenceRepository(redisClient, time.Minute)
	testMsgRepo = msgRepo

	testConvUC = NewConversationUseCase(convRepo)
	testMsgUC = NewMessageUseCase(convRepo, msgRepo, presence, nil)

	registry := NewSessionRegistry()
	gateway := NewGatewayHandler(registry, testConvUC, testMsgUC, presence, 100)

	gatewayApp = fiber.New()
	gatewayApp.Use(middlewares.JWTMiddleware())
	gatewayApp.Get("/ws", websocket.New(func(c *websocket.Conn) {
		gateway.HandleConnection(context.Background(), c)
	}))

	go func() {
		if err := gatewayApp.Listen(":8082"); err != nil {
			log.Fatalf("Failed to start WebSocket server: %v", err)
		}
	}()
	time.Sleep(3 * time.Second)

	code := m.Run()

	_ = gatewayApp.Shutdown()
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)

	os.Exit(code)
}

// dialGateway connect as userID, the middleware reads the credential from
// the auth query parameter during the handshake
func dialGateway(t *testing.T, userID string) *gws.Conn {
	t.Helper()
	jwtStr, err := token.GenerateJWT(userID, string(token.RoleUser), "test")
	require.NoError(t, err)

	conn, _, err := gws.DefaultDialer.Dial("ws://127.0.0.1:8082/ws?auth="+jwtStr, nil)
	require.NoError(t, err)
	return conn
}

// readEvent read outbound frames until one with the wanted event arrives
func readEvent(t *testing.T, conn *gws.Conn, event string) domain.WSResponse {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var resp domain.WSResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		if resp.Event == event {
			return resp
		}
	}
	t.Fatalf("event %q never arrived", event)
	return domain.WSResponse{}
}

func sendEvent(t *testing.T, conn *gws.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	req, err := json.Marshal(domain.WSRequest{Event: event, Data: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gws.TextMessage, req))
}

func decodeData(t *testing.T, resp domain.WSResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestGatewayConnection(t *testing.T) {
	conn := dialGateway(t, "conn-user")
	defer conn.Close()

	resp := readEvent(t, conn, string(domain.EventConnectionSuccess))
	assert.True(t, resp.Success)

	var data domain.ConnectionSuccessEvent
	decodeData(t, resp, &data)
	assert.Equal(t, "conn-user", data.UserID)
}

func TestGatewayUnknownEventDisconnects(t *testing.T) {
	conn := dialGateway(t, "proto-user")
	defer conn.Close()
	readEvent(t, conn, string(domain.EventConnectionSuccess))

	sendEvent(t, conn, "bogus-event", fiber.Map{})

	resp := readEvent(t, conn, string(domain.EventError))
	assert.False(t, resp.Success)

	// the server drops the connection after a protocol violation
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

// full offline catch-up round trip: the recipient is away while the message
// is sent, connects, the copy turns DELIVERED, reading turns it READ
func TestOfflineDeliveryFlow(t *testing.T) {
	ctx := context.Background()

	conv, err := testConvUC.CreateConversation(ctx, []string{"alice", "bob"}, nil)
	require.NoError(t, err)

	aliceConn := dialGateway(t, "alice")
	defer aliceConn.Close()
	readEvent(t, aliceConn, string(domain.EventConnectionSuccess))

	// bob is offline while alice sends
	sendEvent(t, aliceConn, string(domain.EventSendMessage), domain.SendMessageReq{
		ConversationID: conv.ID,
		Content:        "are you there?",
	})
	ack := readEvent(t, aliceConn, string(domain.EventSendMessage))
	require.True(t, ack.Success)

	var ackData domain.MessageAck
	decodeData(t, ack, &ackData)
	require.NotEmpty(t, ackData.MessageID)

	count, err := testMsgUC.GetUnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// bob connects, the sweep promotes his copy and tells alice
	bobConn := dialGateway(t, "bob")
	defer bobConn.Close()
	readEvent(t, bobConn, string(domain.EventConnectionSuccess))

	statusUpdate := readEvent(t, aliceConn, string(domain.EventMessageStatusUpdate))
	var statusData domain.MessageStatusUpdateEvent
	decodeData(t, statusUpdate, &statusData)
	assert.Equal(t, ackData.MessageID, statusData.MessageID)
	assert.Equal(t, "bob", statusData.RecipientID)
	assert.Equal(t, domain.StatusDelivered, statusData.Status)

	// bob opens the conversation
	sendEvent(t, bobConn, string(domain.EventReadMessages), domain.ReadMessagesReq{
		ConversationID: conv.ID,
	})
	readEvent(t, bobConn, string(domain.EventReadMessages))

	readReceipt := readEvent(t, aliceConn, string(domain.EventMessagesRead))
	var readData domain.MessagesReadEvent
	decodeData(t, readReceipt, &readData)
	assert.Equal(t, "bob", readData.ReaderID)
	assert.Contains(t, readData.MessageIDs, ackData.MessageID)

	count, err = testMsgUC.GetUnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

// read order follows the stored creation time, not the order the writes
// reached the store
func TestMessageOrderFollowsCreationTime(t *testing.T) {
	ctx := context.Background()

	conv, err := testConvUC.CreateConversation(ctx, []string{"pat", "quinn"}, nil)
	require.NoError(t, err)

	base := time.Now().UnixMilli()
	second := domain.Message{
		ID:             "order-m2",
		ConversationID: conv.ID,
		SenderID:       "pat",
		Type:           domain.MessageTypeText,
		Content:        "second",
		CreatedAt:      base + 10,
		DeliveryStatus: domain.NewDeliveryStatus(conv.Participants, "pat", base+10),
	}
	first := domain.Message{
		ID:             "order-m1",
		ConversationID: conv.ID,
		SenderID:       "pat",
		Type:           domain.MessageTypeText,
		Content:        "first",
		CreatedAt:      base,
		DeliveryStatus: domain.NewDeliveryStatus(conv.Participants, "pat", base),
	}

	// the later message wins the write race
	require.NoError(t, testMsgRepo.Insert(ctx, &second))
	require.NoError(t, testMsgRepo.Insert(ctx, &first))

	msgs, err := testMsgUC.GetMessages(ctx, conv.ID, "quinn", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "order-m2", msgs[0].ID)
	assert.Equal(t, "order-m1", msgs[1].ID)
}

func TestTypingBroadcast(t *testing.T) {
	ctx := context.Background()

	conv, err := testConvUC.CreateConversation(ctx, []string{"carol", "dave"}, nil)
	require.NoError(t, err)

	carolConn := dialGateway(t, "carol")
	defer carolConn.Close()
	readEvent(t, carolConn, string(domain.EventConnectionSuccess))

	daveConn := dialGateway(t, "dave")
	defer daveConn.Close()
	readEvent(t, daveConn, string(domain.EventConnectionSuccess))

	sendEvent(t, carolConn, string(domain.EventTyping), domain.TypingReq{
		ConversationID: conv.ID,
		IsTyping:       true,
	})

	resp := readEvent(t, daveConn, string(domain.EventUserTyping))
	var data domain.UserTypingEvent
	decodeData(t, resp, &data)
	assert.Equal(t, "carol", data.UserID)
	assert.True(t, data.IsTyping)
}

func TestCreateConversationOverGateway(t *testing.T) {
	eveConn := dialGateway(t, "eve")
	defer eveConn.Close()
	readEvent(t, eveConn, string(domain.EventConnectionSuccess))

	frankConn := dialGateway(t, "frank")
	defer frankConn.Close()
	readEvent(t, frankConn, string(domain.EventConnectionSuccess))

	sendEvent(t, eveConn, string(domain.EventCreateConversation), domain.CreateConversationReq{
		ParticipantIDs: []string{"frank"},
	})

	ack := readEvent(t, eveConn, string(domain.EventCreateConversation))
	var ackData domain.NewConversationEvent
	decodeData(t, ack, &ackData)
	assert.ElementsMatch(t, []string{"eve", "frank"}, ackData.Conversation.Participants)

	// the online counterpart is told right away
	notify := readEvent(t, frankConn, string(domain.EventNewConversation))
	var notifyData domain.NewConversationEvent
	decodeData(t, notify, &notifyData)
	assert.Equal(t, ackData.Conversation.ID, notifyData.Conversation.ID)
}
