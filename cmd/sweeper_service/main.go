package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ephemeral_message_service/internal/message/app"
	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/pkg/config"
	"ephemeral_message_service/pkg/database"
	"ephemeral_message_service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.SweeperService, config.EnvConfig.SweeperServiceLogPath)
	cfg := config.LoadConfig[config.Sweeper](config.EnvConfig.SweeperService, config.EnvConfig.SweeperServiceYAMLPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. PostgreSQL
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	gormDB, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries", zap.Error(err))
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

	// 2. Mongo
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.Error(err))
	}
	defer mongo.Close(ctx)

	// 3. Redis
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	chatRepo := repository.NewMongoChatRepository(mongo.Database)
	msgRepo := repository.NewMessageRepository(gormDB)
	presenceRepo := repository.NewPresenceRepository(pgPool)
	pubsub := repository.NewRedisPubSub(redisClient)

	// 4. Kafka journal（沒設定 brokers 時略過）
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
	sweeper := app.NewCleanupSweeper(msgRepo, chatRepo, presenceRepo, fanout)

	// 5. 消費定向清掃任務
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
		if err := queue.Consume(ctx, func(job domain.SweepJob) error {
			// 等到 FireAt 再清，確保離開後的緩衝時間已過
			if wait := time.Until(time.Unix(job.FireAt, 0)); wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := sweeper.RunSweepChat(ctx, job.ChatID); err != nil {
				return err
			}
			// 清完釋放 dedup 鍵，下一次 leave 不用等 TTL 到期
			if err := dedup.Del(ctx, app.SweepDedupKey(job.ChatID)); err != nil {
				logger.Log.Warn("release sweep dedup key failed", zap.String("chat_id", job.ChatID), zap.Error(err))
			}
			return nil
		}); err != nil {
			logger.Log.Fatal("sweep queue consume err", zap.Error(err))
		}
	}

	// 6. 週期性全域清掃（補上任何漏掉的定向清掃）
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	logger.Log.Info("Sweeper Service started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sweeper.RunSweep(ctx); err != nil {
				logger.Log.Error("periodic sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Log.Info("Sweeper Service shutting down")
			return
		}
	}
}
