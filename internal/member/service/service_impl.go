package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/member/domain"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Store repository.TenantScoped[domain.Member]
}

type Service struct {
	log   *zap.Logger
	store repository.TenantScoped[domain.Member]
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("member.service"),
		store: p.Store,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Member, error) {
	member, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return member, nil
}
