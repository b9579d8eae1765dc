// Package server wires the HTTP surface: route registration, tenant scope
// extraction, role checks, and error mapping.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/mesa/internal/auditor"
	"github.com/smallbiznis/mesa/internal/authorization"
	"github.com/smallbiznis/mesa/internal/config"
	"github.com/smallbiznis/mesa/internal/costs"
	"github.com/smallbiznis/mesa/internal/member"
	obsmetrics "github.com/smallbiznis/mesa/internal/observability/metrics"
	"github.com/smallbiznis/mesa/internal/payment"
	paymentdomain "github.com/smallbiznis/mesa/internal/payment/domain"
	"github.com/smallbiznis/mesa/internal/providers/document"
	paymentprovider "github.com/smallbiznis/mesa/internal/providers/payment"
	"github.com/smallbiznis/mesa/internal/session"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	"github.com/smallbiznis/mesa/internal/shift"
	shiftdomain "github.com/smallbiznis/mesa/internal/shift/domain"
	"github.com/smallbiznis/mesa/internal/table"
	tabledomain "github.com/smallbiznis/mesa/internal/table/domain"
	"github.com/smallbiznis/mesa/internal/tax"
	"github.com/smallbiznis/mesa/internal/tenant"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(registerGin),
	authorization.Module,
	tenant.Module,
	tax.Module,
	member.Module,
	session.Module,
	table.Module,
	payment.Module,
	document.Module,
	paymentprovider.Module,
	auditor.Module,
	costs.Module,
	shift.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(m)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	authzSvc   authorization.Service
	tenantSvc  tenantdomain.Service
	tableSvc   tabledomain.Service
	sessionSvc sessiondomain.Service
	paymentSvc paymentdomain.Service
	shiftSvc   shiftdomain.Service
	auditorSvc *auditor.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	AuthzSvc   authorization.Service
	TenantSvc  tenantdomain.Service
	TableSvc   tabledomain.Service
	SessionSvc sessiondomain.Service
	PaymentSvc paymentdomain.Service
	ShiftSvc   shiftdomain.Service
	AuditorSvc *auditor.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		authzSvc:   p.AuthzSvc,
		tenantSvc:  p.TenantSvc,
		tableSvc:   p.TableSvc,
		sessionSvc: p.SessionSvc,
		paymentSvc: p.PaymentSvc,
		shiftSvc:   p.ShiftSvc,
		auditorSvc: p.AuditorSvc,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", ScopeMiddleware(), RequireTenant())

	tables := v1.Group("/tables")
	{
		tables.GET("", s.authorize(authorization.ObjectTable, authorization.ActionTableView), s.ListTables)
		tables.POST("", s.authorize(authorization.ObjectTable, authorization.ActionTableManage), s.CreateTable)
		tables.GET("/:id", s.authorize(authorization.ObjectTable, authorization.ActionTableView), s.GetTable)
		tables.POST("/:id/start", s.authorize(authorization.ObjectTable, authorization.ActionTableOperate), s.StartSession)
		tables.POST("/:id/stop", s.authorize(authorization.ObjectTable, authorization.ActionTableOperate), s.StopSession)
		tables.POST("/:id/defer", s.authorize(authorization.ObjectTable, authorization.ActionTableOperate), s.DeferPayment)
		tables.POST("/:id/ready", s.authorize(authorization.ObjectTable, authorization.ActionTableOperate), s.FinishCleaning)
	}

	sessions := v1.Group("/sessions")
	{
		sessions.GET("/:id", s.authorize(authorization.ObjectSession, authorization.ActionSessionView), s.GetSession)
		sessions.GET("/:id/items", s.authorize(authorization.ObjectSession, authorization.ActionSessionView), s.ListOrderItems)
		sessions.POST("/:id/items", s.authorize(authorization.ObjectSession, authorization.ActionSessionAppend), s.AddOrderItem)
	}

	v1.POST("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentWrite), s.RegisterPayment)

	shifts := v1.Group("/shifts")
	{
		shifts.GET("", s.authorize(authorization.ObjectShift, authorization.ActionShiftView), s.ListShifts)
		shifts.POST("/close", s.authorize(authorization.ObjectShift, authorization.ActionShiftClose), s.CloseShift)
		shifts.GET("/:id", s.authorize(authorization.ObjectShift, authorization.ActionShiftView), s.GetShift)
		shifts.GET("/:id/verify", s.authorize(authorization.ObjectShift, authorization.ActionShiftView), s.VerifyShift)
	}

	v1.POST("/audit/sweep", s.authorize(authorization.ObjectAudit, authorization.ActionAuditSweep), s.RunSweep)
}

// Admin routes carry no tenant requirement: tenant provisioning happens
// before a tenant scope exists. The admin store itself gates mutations on
// a privileged role.
func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/v1/admin", ScopeMiddleware(),
		s.authorize(authorization.ObjectTenant, authorization.ActionTenantAdmin))

	admin.POST("/tenants", s.CreateTenant)
	admin.GET("/tenants", s.ListTenants)
	admin.GET("/tenants/:id", s.GetTenant)
	admin.PATCH("/tenants/:id", s.UpdateTenant)
}

func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return Authorize(s.authzSvc, object, action)
}

func parseID(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param(name))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return 0, false
	}
	return id, true
}
