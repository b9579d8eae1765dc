// Package authorization enforces the role policy behind the tenant
// isolation gate: which roles may run table operations, settle payments,
// close shifts, and administer tenants.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectTenant  = "tenant"
	ObjectTable   = "table"
	ObjectSession = "session"
	ObjectPayment = "payment"
	ObjectShift   = "shift"
	ObjectAudit   = "audit"
)

const (
	ActionTableOperate  = "table.operate"
	ActionTableManage   = "table.manage"
	ActionTableView     = "table.view"
	ActionSessionAppend = "session.append"
	ActionSessionView   = "session.view"
	ActionPaymentWrite  = "payment.register"
	ActionShiftView     = "shift.view"
	ActionShiftClose    = "shift.close"
	ActionAuditSweep    = "audit.sweep"
	ActionTenantAdmin   = "tenant.admin"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidRole = errors.New("invalid_role")
)

// Service answers "may this role perform this action".
type Service interface {
	Authorize(ctx context.Context, object, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, object, action string) error {
	scope, ok := tenantctx.FromContext(ctx)
	if !ok {
		return ErrForbidden
	}
	role := strings.ToLower(strings.TrimSpace(scope.Role))
	if role == "" {
		return ErrInvalidRole
	}

	allowed, err := s.enforcer.Enforce("role:"+role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.Bool("security", true),
			zap.String("actor", scope.Actor),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Cashier: day-to-day floor operations.
		{"role:cashier", ObjectTable, ActionTableOperate},
		{"role:cashier", ObjectTable, ActionTableView},
		{"role:cashier", ObjectSession, ActionSessionAppend},
		{"role:cashier", ObjectSession, ActionSessionView},
		{"role:cashier", ObjectPayment, ActionPaymentWrite},
		{"role:cashier", ObjectShift, ActionShiftView},

		// Manager: shift closure and repairs on top of floor operations.
		{"role:manager", ObjectTable, ActionTableManage},
		{"role:manager", ObjectShift, ActionShiftClose},
		{"role:manager", ObjectAudit, ActionAuditSweep},

		// Owner: tenant administration.
		{"role:owner", ObjectTenant, ActionTenantAdmin},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{"role:manager", "role:cashier"},
		{"role:owner", "role:manager"},
		{"role:system", "role:owner"},
	}
	for _, grouping := range groupings {
		if _, err := enforcer.AddGroupingPolicy(grouping[0], grouping[1]); err != nil {
			return err
		}
	}
	return nil
}

// Module wires the casbin enforcer and authorization service.
var Module = fx.Module("authorization.service",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
