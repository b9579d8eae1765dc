package member

import (
	"github.com/smallbiznis/mesa/internal/member/domain"
	"github.com/smallbiznis/mesa/internal/member/service"
	"github.com/smallbiznis/mesa/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.ProvideStore[domain.Member]),
	fx.Provide(service.NewService),
)
