package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/pkg/database"
	"ephemeral_message_service/pkg/logger"
	testtool "ephemeral_message_service/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// **測試用的容器**
var postgresContainer testcontainers.Container
var mongoContainer testcontainers.Container
var redisContainer testcontainers.Container

// **共用的 UseCases**
var testMsgRepo repository.MessageRepository
var testViewRepo repository.ViewRepository
var testPresenceRepo repository.PresenceRepository
var testSendUC *SendMessageUseCase
var testViewUC *ViewUseCase
var testPresenceUC *PresenceUseCase
var testSweeper *CleanupSweeper

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	logger.SetNewNop()
	ctx := context.Background()
	var err error

	// **啟動 PostgreSQL**
	postgresContainer, postgresHost, postgresPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "postgres:latest",
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}
	fmt.Printf("✅ PostgreSQL running at %s:%s\n", postgresHost, postgresPort)

	// **啟動 MongoDB**
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}
	fmt.Printf("✅ MongoDB running at %s:%s\n", mongoHost, mongoPort)

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start Redis container: %v", err)
	}
	fmt.Printf("✅ Redis running at %s:%s\n", redisHost, redisPort)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", postgresHost, postgresPort)

	// **初始化 PostgreSQL (GORM)**
	gormDB, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    5,
		RetryInterval: 5,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}

	// **初始化 PostgreSQL (pgx)**
	pgPool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    5,
		RetryInterval: 5,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL (pgx): %v", err)
	}

	// **初始化 MongoDB**
	mongoDB, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_message_db")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(ctx)

	// **初始化 Redis**
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	// **初始化 Repository**
	chatRepo := repository.NewMongoChatRepository(mongoDB.Database)
	testMsgRepo = repository.NewMessageRepository(gormDB)
	testViewRepo = repository.NewViewRepository(gormDB)
	testPresenceRepo = repository.NewPresenceRepository(pgPool)
	presenceRepo := testPresenceRepo
	pubsub := repository.NewRedisPubSub(redisClient)

	if err := testMsgRepo.AutoMigrate(); err != nil {
		log.Fatalf("❌ messages migrate failed: %v", err)
	}
	if err := testViewRepo.AutoMigrate(); err != nil {
		log.Fatalf("❌ message_views migrate failed: %v", err)
	}
	if err := presenceRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("❌ chat_presence schema failed: %v", err)
	}

	// **初始化 UseCases**
	fanout := NewNotificationFanout(pubsub, nil)
	testSweeper = NewCleanupSweeper(testMsgRepo, chatRepo, presenceRepo, fanout)
	testSendUC = NewSendMessageUseCase(chatRepo, testMsgRepo, fanout)
	testViewUC = NewViewUseCase(chatRepo, testMsgRepo, testViewRepo, fanout)
	testPresenceUC = NewPresenceUseCase(presenceRepo, nil)

	// **執行測試**
	code := m.Run()

	// **停止測試容器**
	_ = postgresContainer.Terminate(ctx)
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)

	os.Exit(code)
}

// ✅ 完整的消失訊息流程：發送 → 觀看 → 雙方離開 → 清掃
func TestDisappearingMessageFlow(t *testing.T) {
	ctx := context.Background()

	chat, err := testSendUC.OpenDirectChat(ctx, "flow-user-a", "flow-user-b")
	assert.NoError(t, err)
	assert.True(t, chat.IsDisappearing())

	// A、B 先進聊天室
	assert.NoError(t, testPresenceUC.Enter(ctx, chat.ID, "flow-user-a"))
	assert.NoError(t, testPresenceUC.Enter(ctx, chat.ID, "flow-user-b"))

	msg, err := testSendUC.Execute(ctx, chat.ID, "flow-user-a", "see you once", "", domain.MediaNone)
	assert.NoError(t, err)
	assert.True(t, msg.IsDisappearing)

	// 還沒人看過，清掃不該動它
	assert.NoError(t, testSweeper.RunSweep(ctx))
	stored, err := testMsgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)
	assert.False(t, stored.ViewedByRecipient)

	// B 看過
	assert.NoError(t, testViewUC.MarkViewed(ctx, msg.ID, "flow-user-b"))
	stored, err = testMsgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)
	assert.True(t, stored.ViewedByRecipient)
	assert.NotNil(t, stored.ViewedAt)

	// 看過但還在場，仍不可刪
	assert.NoError(t, testSweeper.RunSweep(ctx))
	_, err = testMsgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)

	// 只有一方離開，仍不可刪
	assert.NoError(t, testPresenceUC.Leave(ctx, chat.ID, "flow-user-b"))
	assert.NoError(t, testSweeper.RunSweep(ctx))
	_, err = testMsgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)

	// 雙方都離開後訊息消失，view 事實一併清掉
	assert.NoError(t, testPresenceUC.Leave(ctx, chat.ID, "flow-user-a"))
	assert.NoError(t, testSweeper.RunSweep(ctx))

	_, err = testMsgRepo.FindByID(ctx, msg.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	views, err := testViewRepo.FindByMessage(ctx, msg.ID)
	assert.NoError(t, err)
	assert.Empty(t, views)

	// 重跑清掃是冪等的
	assert.NoError(t, testSweeper.RunSweep(ctx))
}

// ✅ 重複觀看只留一筆 view，viewed_at 不變
func TestViewIsIdempotent(t *testing.T) {
	ctx := context.Background()

	chat, err := testSendUC.OpenDirectChat(ctx, "idem-user-a", "idem-user-b")
	assert.NoError(t, err)

	msg, err := testSendUC.Execute(ctx, chat.ID, "idem-user-a", "hello", "", domain.MediaNone)
	assert.NoError(t, err)

	assert.NoError(t, testViewUC.MarkViewed(ctx, msg.ID, "idem-user-b"))
	first, err := testMsgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, testViewUC.MarkViewed(ctx, msg.ID, "idem-user-b"))

	second, err := testMsgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.ViewedAt.UnixNano(), second.ViewedAt.UnixNano())

	views, err := testViewRepo.FindByMessage(ctx, msg.ID)
	assert.NoError(t, err)
	assert.Len(t, views, 1)
}

// ✅ presence 採 last-writer-wins，較舊的寫入不會蓋掉較新的狀態
func TestPresenceUpsertLastWriterWins(t *testing.T) {
	ctx := context.Background()
	base := time.Now()

	// 較新的 leave 先落地
	assert.NoError(t, testPresenceRepo.Upsert(ctx, &domain.ChatPresence{
		ChatID:    "lww-chat",
		UserID:    "lww-user",
		IsActive:  false,
		LastSeen:  base.Add(time.Second),
		UpdatedAt: base.Add(time.Second),
	}))

	// 亂序遲到的 enter，updated_at 比較舊，不得覆寫
	assert.NoError(t, testPresenceRepo.Upsert(ctx, &domain.ChatPresence{
		ChatID:    "lww-chat",
		UserID:    "lww-user",
		IsActive:  true,
		LastSeen:  base,
		UpdatedAt: base,
	}))

	p, err := testPresenceRepo.FindOne(ctx, "lww-chat", "lww-user")
	assert.NoError(t, err)
	assert.False(t, p.IsActive)

	// 更新的寫入照常覆寫
	assert.NoError(t, testPresenceRepo.Upsert(ctx, &domain.ChatPresence{
		ChatID:    "lww-chat",
		UserID:    "lww-user",
		IsActive:  true,
		LastSeen:  base.Add(2 * time.Second),
		UpdatedAt: base.Add(2 * time.Second),
	}))

	p, err = testPresenceRepo.FindOne(ctx, "lww-chat", "lww-user")
	assert.NoError(t, err)
	assert.True(t, p.IsActive)
}
