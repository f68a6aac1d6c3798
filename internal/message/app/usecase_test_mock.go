package app

import (
	"context"
	"time"

	"ephemeral_message_service/internal/message/domain"

	"github.com/stretchr/testify/mock"
)

// MockChatRepository Mock ChatRepository
type MockChatRepository struct {
	mock.Mock
}

// CreateChat mock create chat
func (m *MockChatRepository) CreateChat(ctx context.Context, chat *domain.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

// FindByID mock find chat by chat id
func (m *MockChatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindOneDirectChat mock find the 1 on 1 chat of two users
func (m *MockChatRepository) FindOneDirectChat(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// AutoMigrate mock migrate
func (m *MockMessageRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// Create mock create message
func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID mock find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByChat mock find messages by chat id
func (m *MockMessageRepository) FindByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkViewed mock guarded viewed update
func (m *MockMessageRepository) MarkViewed(ctx context.Context, messageID string, viewedAt time.Time) (bool, error) {
	args := m.Called(ctx, messageID, viewedAt)
	return args.Bool(0), args.Error(1)
}

// FindSweepCandidates mock find sweep candidates
func (m *MockMessageRepository) FindSweepCandidates(ctx context.Context, chatID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteEligible mock transactional delete
func (m *MockMessageRepository) DeleteEligible(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

// MockViewRepository Mock ViewRepository
type MockViewRepository struct {
	mock.Mock
}

// AutoMigrate mock migrate
func (m *MockViewRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// Insert mock insert view fact
func (m *MockViewRepository) Insert(ctx context.Context, view *domain.MessageView) (bool, error) {
	args := m.Called(ctx, view)
	return args.Bool(0), args.Error(1)
}

// FindByMessage mock find views by message id
func (m *MockViewRepository) FindByMessage(ctx context.Context, messageID string) ([]domain.MessageView, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.MessageView), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// EnsureSchema mock schema create
func (m *MockPresenceRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Upsert mock presence upsert
func (m *MockPresenceRepository) Upsert(ctx context.Context, p *domain.ChatPresence) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// FindByChat mock find presences by chat id
func (m *MockPresenceRepository) FindByChat(ctx context.Context, chatID string) ([]domain.ChatPresence, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatPresence), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindOne mock find one presence row
func (m *MockPresenceRepository) FindOne(ctx context.Context, chatID, userID string) (*domain.ChatPresence, error) {
	args := m.Called(ctx, chatID, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatPresence), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEventPubSub Mock EventPubSub
type MockEventPubSub struct {
	mock.Mock
}

// Publish mock publisher
func (m *MockEventPubSub) Publish(ctx context.Context, event domain.ChatEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Subscribe mock subscriber
func (m *MockEventPubSub) Subscribe(ctx context.Context, chatID string, handler func(event domain.ChatEvent)) error {
	args := m.Called(chatID, handler)
	return args.Error(0)
}

// MockEventJournal Mock EventJournal
type MockEventJournal struct {
	mock.Mock
}

// Append mock journal append
func (m *MockEventJournal) Append(ctx context.Context, event domain.ChatEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockSweepQueue Mock SweepQueue
type MockSweepQueue struct {
	mock.Mock
}

// Enqueue mock enqueue sweep job
func (m *MockSweepQueue) Enqueue(job domain.SweepJob) error {
	args := m.Called(job)
	return args.Error(0)
}

// Consume mock consume sweep jobs
func (m *MockSweepQueue) Consume(ctx context.Context, handler func(job domain.SweepJob) error) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

// MockSweepDedup Mock RedisRepository for sweep dedup
type MockSweepDedup struct {
	mock.Mock
}

// SetNX mock set if not exists
func (m *MockSweepDedup) SetNX(ctx context.Context, key string, value domain.SweepJob, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

// Del mock delete key
func (m *MockSweepDedup) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
