package support

import (
	"context"
	"fmt"
	"io"
	"path"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"
	"unplan-backend/pkg/sequence"
	"unplan-backend/pkg/task"
	"unplan-backend/services/notification"

	"github.com/bwmarrin/snowflake"
	miniogo "github.com/minio/minio-go/v7"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	config  *config.Config
	seq     sequence.Generator
	asynq   task.Enqueuer
	storage *miniogo.Client
	tickets repository.Repository[SupportTicket]
	replies repository.Repository[TicketReply]
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Node    *snowflake.Node
	Config  *config.Config
	Seq     sequence.Generator `optional:"true"`
	Asynq   task.Enqueuer      `optional:"true"`
	Storage *miniogo.Client    `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		node:    p.Node,
		config:  p.Config,
		seq:     p.Seq,
		asynq:   p.Asynq,
		storage: p.Storage,
		tickets: repository.ProvideStore[SupportTicket](p.DB),
		replies: repository.ProvideStore[TicketReply](p.DB),
	}
}

type OpenInput struct {
	Subject  string         `json:"subject" binding:"required"`
	Body     string         `json:"body" binding:"required"`
	Priority TicketPriority `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH"`
	Metadata datatypes.JSON `json:"metadata"`
}

// Attachment is an optional file streamed to object storage alongside the
// ticket. The upload happens before the row insert so a failed upload fails
// the whole open, never the other way around.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

func (s *Service) Open(ctx context.Context, requesterID string, in OpenInput, att *Attachment) (*SupportTicket, error) {
	zapLog := zap.L().With(zap.String("requester_id", requesterID))

	id := s.node.Generate().String()
	code := ""
	if s.seq != nil {
		var err error
		code, err = s.seq.NextTicketCode(ctx)
		if err != nil {
			zapLog.Warn("failed to generate ticket code, falling back to id", zap.Error(err))
		}
	}
	if code == "" {
		code = "TCK-" + id
	}

	attachmentURL := ""
	if att != nil {
		if s.storage == nil {
			return nil, errutil.UnprocessableEntity("attachments are not enabled", nil)
		}
		objectName := path.Join("tickets", id, att.Filename)
		if _, err := s.storage.PutObject(ctx, s.config.Minio.BucketName, objectName, att.Reader, att.Size, miniogo.PutObjectOptions{
			ContentType: att.ContentType,
		}); err != nil {
			zapLog.Error("failed to upload ticket attachment", zap.Error(err))
			return nil, errutil.Internal("failed to upload attachment", err)
		}
		attachmentURL = fmt.Sprintf("%s/%s", s.config.Minio.BucketName, objectName)
	}

	priority := in.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	t := &SupportTicket{
		ID:            id,
		Code:          code,
		RequesterID:   requesterID,
		Subject:       in.Subject,
		Body:          in.Body,
		Status:        StatusOpen,
		Priority:      priority,
		AttachmentURL: attachmentURL,
		Metadata:      in.Metadata,
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		zapLog.Error("failed to create support ticket", zap.Error(err))
		return nil, errutil.Internal("failed to open ticket", err)
	}

	return t, nil
}

func (s *Service) Get(ctx context.Context, userID string, isAdmin bool, ticketID string) (*SupportTicket, error) {
	t, err := s.tickets.FindOne(ctx, &SupportTicket{ID: ticketID})
	if err != nil {
		return nil, errutil.Internal("failed to get ticket", err)
	}
	if t == nil {
		return nil, errutil.NotFound("ticket not found", nil)
	}
	if !isAdmin && t.RequesterID != userID {
		return nil, errutil.Forbidden("ticket belongs to another user", nil)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, userID string, isAdmin bool) ([]*SupportTicket, error) {
	query := &SupportTicket{}
	if !isAdmin {
		query.RequesterID = userID
	}
	out, err := s.tickets.Find(ctx, query)
	if err != nil {
		return nil, errutil.Internal("failed to list tickets", err)
	}
	return out, nil
}

// Reply appends to the thread and, when the author is not the requester,
// queues an email to the requester. The enqueue is best effort.
func (s *Service) Reply(ctx context.Context, userID string, isAdmin bool, ticketID, body string) (*TicketReply, error) {
	t, err := s.Get(ctx, userID, isAdmin, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusClosed {
		return nil, errutil.UnprocessableEntity("ticket is closed", nil)
	}

	reply := &TicketReply{
		ID:       s.node.Generate().String(),
		TicketID: t.ID,
		AuthorID: userID,
		Body:     body,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		zap.L().Error("failed to create ticket reply", zap.String("ticket_id", t.ID), zap.Error(err))
		return nil, errutil.Internal("failed to reply to ticket", err)
	}

	if userID != t.RequesterID {
		s.enqueueReplied(t, reply)
	}

	return reply, nil
}

func (s *Service) ListReplies(ctx context.Context, userID string, isAdmin bool, ticketID string) ([]*TicketReply, error) {
	if _, err := s.Get(ctx, userID, isAdmin, ticketID); err != nil {
		return nil, err
	}
	out, err := s.replies.Find(ctx, &TicketReply{TicketID: ticketID}, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	})
	if err != nil {
		return nil, errutil.Internal("failed to list ticket replies", err)
	}
	return out, nil
}

// transitions maps each status to the statuses it may move to.
var transitions = map[TicketStatus][]TicketStatus{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed},
	StatusResolved:   {StatusClosed, StatusInProgress},
	StatusClosed:     {},
}

func (s *Service) Transition(ctx context.Context, ticketID string, target TicketStatus) (*SupportTicket, error) {
	t, err := s.tickets.FindOne(ctx, &SupportTicket{ID: ticketID})
	if err != nil {
		return nil, errutil.Internal("failed to transition ticket", err)
	}
	if t == nil {
		return nil, errutil.NotFound("ticket not found", nil)
	}

	allowed := false
	for _, next := range transitions[t.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errutil.UnprocessableEntity(
			fmt.Sprintf("cannot transition ticket from %s to %s", t.Status, target), nil)
	}

	if err := s.tickets.Update(ctx, t.ID, map[string]any{"status": target}); err != nil {
		return nil, errutil.Internal("failed to transition ticket", err)
	}

	return s.tickets.FindOne(ctx, &SupportTicket{ID: ticketID})
}

func (s *Service) enqueueReplied(t *SupportTicket, reply *TicketReply) {
	if s.asynq == nil {
		return
	}

	taskMsg, err := notification.NewTicketRepliedTask(notification.TicketRepliedPayload{
		TicketID:    t.ID,
		TicketCode:  t.Code,
		RequesterID: t.RequesterID,
		AuthorID:    reply.AuthorID,
		Body:        reply.Body,
	})
	if err == nil {
		_, err = s.asynq.Enqueue(taskMsg)
	}
	if err != nil {
		zap.L().Error("failed to enqueue ticket replied task", zap.String("ticket_id", t.ID), zap.Error(err))
	}
}
