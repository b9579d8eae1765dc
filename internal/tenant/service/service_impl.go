package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/tenant/domain"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Store repository.Admin[domain.Tenant]
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	store repository.Admin[domain.Tenant]
	genID *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("tenant.service"),
		store: p.Store,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, tenant *domain.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	if tenant.ID == 0 {
		tenant.ID = s.genID.Generate()
	}
	if err := s.store.Create(ctx, tenant); err != nil {
		return err
	}
	s.log.Info("tenant created", zap.Int64("tenant_id", int64(tenant.ID)), zap.String("name", tenant.Name))
	return nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	tenant, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	return tenant, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Tenant, error) {
	return s.store.Find(ctx, &domain.Tenant{})
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, values map[string]any) (*domain.Tenant, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, gorm.ErrRecordNotFound
	}

	merged := *current
	if v, ok := values["name"].(string); ok {
		merged.Name = v
	}
	if v, ok := values["hourly_rate"].(float64); ok {
		merged.HourlyRate = v
	}
	if v, ok := values["tax_rate_percent"].(float64); ok {
		merged.TaxRatePercent = v
	}
	if v, ok := values["tax_name"].(string); ok {
		merged.TaxName = v
	}
	if v, ok := values["tax_exempt"].(bool); ok {
		merged.TaxExempt = v
	}
	if v, ok := values["currency"].(string); ok {
		merged.Currency = v
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Updates(ctx, id, values); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
