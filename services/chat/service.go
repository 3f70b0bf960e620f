package chat

import (
	"context"
	"time"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"
	"unplan-backend/services/trip"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db            *gorm.DB
	node          *snowflake.Node
	conversations repository.Repository[Conversation]
	messages      repository.Repository[Message]
	plans         repository.Repository[trip.TravelPlan]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:            p.DB,
		node:          p.Node,
		conversations: repository.ProvideStore[Conversation](p.DB),
		messages:      repository.ProvideStore[Message](p.DB),
		plans:         repository.ProvideStore[trip.TravelPlan](p.DB),
	}
}

// GetOrCreate returns the traveler's thread with the plan's host, creating it
// on first contact.
func (s *Service) GetOrCreate(ctx context.Context, travelerID, travelPlanID string) (*Conversation, error) {
	conv, err := s.conversations.FindOne(ctx, &Conversation{TravelPlanID: travelPlanID, TravelerID: travelerID})
	if err != nil {
		return nil, errutil.Internal("failed to open conversation", err)
	}
	if conv != nil {
		return conv, nil
	}

	plan, err := s.plans.FindOne(ctx, &trip.TravelPlan{ID: travelPlanID})
	if err != nil {
		return nil, errutil.Internal("failed to open conversation", err)
	}
	if plan == nil {
		return nil, errutil.NotFound("travel plan not found", nil)
	}
	if plan.HostID == travelerID {
		return nil, errutil.BadRequest("cannot open a conversation with yourself", nil)
	}

	conv = &Conversation{
		ID:           s.node.Generate().String(),
		TravelPlanID: travelPlanID,
		TravelerID:   travelerID,
		HostID:       plan.HostID,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		// a concurrent first message won the insert; reuse its thread
		existing, findErr := s.conversations.FindOne(ctx, &Conversation{TravelPlanID: travelPlanID, TravelerID: travelerID})
		if findErr == nil && existing != nil {
			return existing, nil
		}
		zap.L().Error("failed to create conversation", zap.String("travel_plan_id", travelPlanID), zap.Error(err))
		return nil, errutil.Internal("failed to open conversation", err)
	}

	return conv, nil
}

func (s *Service) participant(conv *Conversation, userID string) bool {
	return conv.TravelerID == userID || conv.HostID == userID
}

func (s *Service) SendMessage(ctx context.Context, senderID, conversationID, body string) (*Message, error) {
	conv, err := s.conversations.FindOne(ctx, &Conversation{ID: conversationID})
	if err != nil {
		return nil, errutil.Internal("failed to send message", err)
	}
	if conv == nil {
		return nil, errutil.NotFound("conversation not found", nil)
	}
	if !s.participant(conv, senderID) {
		return nil, errutil.Forbidden("not a participant of this conversation", nil)
	}

	msg := &Message{
		ID:             s.node.Generate().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		zap.L().Error("failed to create message", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, errutil.Internal("failed to send message", err)
	}

	return msg, nil
}

// ListMessages returns the thread oldest first and marks the other side's
// unread messages as read.
func (s *Service) ListMessages(ctx context.Context, userID, conversationID string) ([]*Message, error) {
	conv, err := s.conversations.FindOne(ctx, &Conversation{ID: conversationID})
	if err != nil {
		return nil, errutil.Internal("failed to list messages", err)
	}
	if conv == nil {
		return nil, errutil.NotFound("conversation not found", nil)
	}
	if !s.participant(conv, userID) {
		return nil, errutil.Forbidden("not a participant of this conversation", nil)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, userID).
		Update("read_at", now).Error; err != nil {
		zap.L().Error("failed to mark messages read", zap.String("conversation_id", conversationID), zap.Error(err))
	}

	msgs, err := s.messages.Find(ctx, &Message{ConversationID: conversationID}, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	})
	if err != nil {
		return nil, errutil.Internal("failed to list messages", err)
	}
	return msgs, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	var out []*Conversation
	if err := s.db.WithContext(ctx).
		Where("traveler_id = ? OR host_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, errutil.Internal("failed to list conversations", err)
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.traveler_id = ? OR conversations.host_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.read_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, errutil.Internal("failed to count unread messages", err)
	}
	return count, nil
}
