package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ephemeral_message_service/internal/message/app"
	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/internal/message/router"
	"ephemeral_message_service/pkg/config"
	"ephemeral_message_service/pkg/database"
	"ephemeral_message_service/pkg/logger"
	testtool "ephemeral_message_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MessageService, config.EnvConfig.MessageServiceLogPath)
	cfg := config.LoadConfig[config.MessageService](config.EnvConfig.MessageService, config.EnvConfig.MessageServiceYAMLPath)

	// 非 production 環境開 pprof
	testtool.StartPprof()

	ctx := context.Background()

	// 1. PostgreSQL：訊息與 view 走 GORM，presence 走 pgx
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	gormDB, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", dsn)),
			zap.Error(err),
		)
	}

	pgPool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL (pgx) after retries", zap.Error(err))
	}
	defer pgPool.Close()

	// 2. Mongo：聊天室資料
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

	// 3. Redis：事件 fan-out 與排程去重
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 4. 初始化 Repository
	chatRepo := repository.NewMongoChatRepository(mongo.Database)
	msgRepo := repository.NewMessageRepository(gormDB)
	viewRepo := repository.NewViewRepository(gormDB)
	presenceRepo := repository.NewPresenceRepository(pgPool)
	pubsub := repository.NewRedisPubSub(redisClient)

	if err := msgRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("messages migrate failed", zap.Error(err))
	}
	if err := viewRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("message_views migrate failed", zap.Error(err))
	}
	if err := presenceRepo.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal("chat_presence schema failed", zap.Error(err))
	}

	// 5. Kafka journal（沒設定 brokers 時略過）
	var journal repository.EventJournal
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("connect kafka err", zap.Error(err))
		}
		defer writer.Close()
		journal = repository.NewKafkaEventJournal(writer)
	}

	fanout := app.NewNotificationFanout(pubsub, journal)

	// 6. 定向清掃排程：有 rabbitMQ 就交給 sweeper_service，否則行程內跑
	debounce := cfg.SweepDebounce
	if debounce <= 0 {
		debounce = 5 * time.Second
	}

	var scheduler app.SweepScheduler
	if cfg.RabbitMQ.Host != "" {
		conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
			ConnectStr:    fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port),
			RetryCount:    cfg.RabbitMQ.RetryCount,
			RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("connect rabbitMQ err", zap.Error(err))
		}
		defer conn.Close()

		ch, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
		if err != nil {
			logger.Log.Fatal("rabbitMQ channel err", zap.Error(err))
		}
		if _, err := database.DeclareQueueWithRetry(ch, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval)); err != nil {
			logger.Log.Fatal("rabbitMQ queue declare err", zap.Error(err))
		}

		queue := repository.NewRabbitSweepQueue(database.NewRabbitRepository(ch), cfg.RabbitMQ.Queue)
		dedup := database.NewRedisRepository[domain.SweepJob](redisClient)
		scheduler = app.NewQueueSweepScheduler(queue, dedup, debounce)
	} else {
		sweeper := app.NewCleanupSweeper(msgRepo, chatRepo, presenceRepo, fanout)
		scheduler = app.NewLocalSweepScheduler(debounce, sweeper)
	}

	// 7. 初始化 UseCases
	sendUC := app.NewSendMessageUseCase(chatRepo, msgRepo, fanout)
	viewUC := app.NewViewUseCase(chatRepo, msgRepo, viewRepo, fanout)
	presenceUC := app.NewPresenceUseCase(presenceRepo, scheduler)

	// 8. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MessageServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r,
		app.NewMessageHTTPHandler(sendUC, viewUC, presenceUC),
		app.NewChatWebsocketHandler(sendUC, viewUC, presenceUC, fanout),
	)

	port := ":" + cfg.Port
	log.Printf("Message Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
