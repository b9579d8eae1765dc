package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/clock"
	"github.com/smallbiznis/mesa/internal/session/domain"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Logs  repository.TenantScoped[domain.UsageLog]
	Items repository.TenantScoped[domain.OrderItem]
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	logs  repository.TenantScoped[domain.UsageLog]
	items repository.TenantScoped[domain.OrderItem]
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("session.service"),
		logs:  p.Logs,
		items: p.Items,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.UsageLog, error) {
	usageLog, err := s.logs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if usageLog == nil {
		return nil, domain.ErrNotFound
	}
	return usageLog, nil
}

func (s *Service) AddOrderItem(ctx context.Context, usageLogID snowflake.ID, req domain.AddItemRequest) (*domain.OrderItem, error) {
	if strings.TrimSpace(req.ProductName) == "" {
		return nil, domain.ErrInvalidProduct
	}
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if req.UnitPrice < 0 {
		return nil, domain.ErrInvalidPrice
	}

	usageLog, err := s.Get(ctx, usageLogID)
	if err != nil {
		return nil, err
	}
	if !usageLog.Open() {
		return nil, domain.ErrSessionClosed
	}

	item := &domain.OrderItem{
		ID:          s.genID.Generate(),
		UsageLogID:  usageLog.ID,
		ProductName: strings.TrimSpace(req.ProductName),
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		LineTotal:   float64(req.Quantity) * req.UnitPrice,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Items(ctx context.Context, usageLogID snowflake.ID) ([]*domain.OrderItem, error) {
	return s.items.Find(ctx, &domain.OrderItem{UsageLogID: usageLogID})
}
