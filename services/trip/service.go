package trip

import (
	"context"
	"time"

	"unplan-backend/pkg/db/option"
	"unplan-backend/pkg/db/pagination"
	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[TravelPlan]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: repository.ProvideStore[TravelPlan](p.DB),
	}
}

type CreateInput struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	Country         string    `json:"country" binding:"required"`
	City            string    `json:"city" binding:"required"`
	StartDate       time.Time `json:"start_date" binding:"required"`
	EndDate         time.Time `json:"end_date" binding:"required"`
	PriceAmount     int64     `json:"price_amount" binding:"required,gt=0"`
	Currency        string    `json:"currency"`
	MaxParticipants int       `json:"max_participants"`
}

func (s *Service) Create(ctx context.Context, hostID string, in CreateInput) (*TravelPlan, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("host_id", hostID),
	)

	if !in.EndDate.After(in.StartDate) {
		return nil, errutil.BadRequest("end_date must be after start_date", nil)
	}

	slugName := slug.Make(in.Title)
	exist, err := s.repo.FindOne(ctx, &TravelPlan{Slug: slugName})
	if err != nil {
		zapLog.Error("failed to query travel plan by slug", zap.Error(err))
		return nil, errutil.Internal("failed to create travel plan", err)
	}
	if exist != nil {
		// keep slugs unique without failing the create
		slugName = slugName + "-" + s.node.Generate().String()
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	maxParticipants := in.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 1
	}

	plan := &TravelPlan{
		ID:              s.node.Generate().String(),
		HostID:          hostID,
		Title:           in.Title,
		Slug:            slugName,
		Description:     in.Description,
		Country:         in.Country,
		City:            in.City,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		PriceAmount:     in.PriceAmount,
		Currency:        currency,
		MaxParticipants: maxParticipants,
		Status:          StatusDraft,
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		zapLog.Error("failed to create travel plan", zap.Error(err))
		return nil, errutil.Internal("failed to create travel plan", err)
	}

	return plan, nil
}

type UpdateInput struct {
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	PriceAmount     *int64      `json:"price_amount"`
	MaxParticipants *int        `json:"max_participants"`
	Status          *PlanStatus `json:"status"`
}

func (s *Service) Update(ctx context.Context, hostID, planID string, in UpdateInput) (*TravelPlan, error) {
	plan, err := s.repo.FindOne(ctx, &TravelPlan{ID: planID})
	if err != nil {
		return nil, errutil.Internal("failed to update travel plan", err)
	}
	if plan == nil {
		return nil, errutil.NotFound("travel plan not found", nil)
	}
	if plan.HostID != hostID {
		return nil, errutil.Forbidden("travel plan belongs to another host", nil)
	}

	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.PriceAmount != nil {
		if *in.PriceAmount <= 0 {
			return nil, errutil.BadRequest("price_amount must be positive", nil)
		}
		updates["price_amount"] = *in.PriceAmount
	}
	if in.MaxParticipants != nil {
		updates["max_participants"] = *in.MaxParticipants
	}
	if in.Status != nil {
		switch *in.Status {
		case StatusDraft, StatusActive, StatusInactive:
			updates["status"] = *in.Status
		default:
			return nil, errutil.BadRequest("invalid status", nil)
		}
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, planID, updates); err != nil {
			zap.L().Error("failed to update travel plan", zap.String("plan_id", planID), zap.Error(err))
			return nil, errutil.Internal("failed to update travel plan", err)
		}
	}

	return s.repo.FindOne(ctx, &TravelPlan{ID: planID})
}

// ListActive returns one page of publicly bookable plans, newest first.
func (s *Service) ListActive(ctx context.Context, pag pagination.Pagination) ([]*TravelPlan, *pagination.PageInfo, error) {
	limit := pag.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "desc", Allow: map[string]bool{"id": true}}),
		option.WithLimit(limit + 1),
	}
	if pag.Cursor != "" {
		cur, err := pagination.DecodeCursor(pag.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.LT, Value: cur.ID}))
	}

	plans, err := s.repo.Find(ctx, &TravelPlan{Status: StatusActive}, opts...)
	if err != nil {
		zap.L().Error("failed to list travel plans", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list travel plans", err)
	}

	info := pagination.BuildPageInfo(plans, limit, func(p *TravelPlan) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{ID: p.ID})
		return c
	})
	if len(plans) > limit {
		plans = plans[:limit]
	}

	return plans, info, nil
}

func (s *Service) ListByHost(ctx context.Context, hostID string) ([]*TravelPlan, error) {
	plans, err := s.repo.Find(ctx, &TravelPlan{HostID: hostID})
	if err != nil {
		return nil, errutil.Internal("failed to list travel plans", err)
	}
	return plans, nil
}

func (s *Service) GetBySlug(ctx context.Context, slugName string) (*TravelPlan, error) {
	plan, err := s.repo.FindOne(ctx, &TravelPlan{Slug: slugName})
	if err != nil {
		return nil, errutil.Internal("failed to get travel plan", err)
	}
	if plan == nil {
		return nil, errutil.NotFound("travel plan not found", nil)
	}
	return plan, nil
}
