package repository

import (
	"context"
	"time"

	"ephemeral_message_service/internal/message/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ChatRepository definition chat room
type ChatRepository interface {
	CreateChat(ctx context.Context, chat *domain.Chat) error
	FindByID(ctx context.Context, chatID string) (*domain.Chat, error)
	FindOneDirectChat(ctx context.Context, userA, userB string) (*domain.Chat, error)
}

type chatRepository struct {
	chatsColl *mongo.Collection
}

// NewMongoChatRepository create new mongo chat
func NewMongoChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{
		chatsColl: db.Collection("chats"),
	}
}

// CreateChat create chat
func (r *chatRepository) CreateChat(ctx context.Context, chat *domain.Chat) error {
	if chat.CreatedAt == 0 {
		chat.CreatedAt = time.Now().Unix()
	}
	_, err := r.chatsColl.InsertOne(ctx, chat)
	return err
}

// FindByID find chat by id
func (r *chatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.chatsColl.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindOneDirectChat find the 1 on 1 chat of two users
func (r *chatRepository) FindOneDirectChat(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	filter := bson.M{
		"chat_type": domain.ChatTypeDirect,
		"participants": bson.M{
			"$all": []string{userA, userB},
		},
	}
	var chat domain.Chat
	err := r.chatsColl.FindOne(ctx, filter).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}
