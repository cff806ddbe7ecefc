package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/authorization"
	billingcycledomain "github.com/smallbiznis/recaudo/internal/billingcycle/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	geodomain "github.com/smallbiznis/recaudo/internal/geo/domain"
	"github.com/smallbiznis/recaudo/internal/observability"
	obslogger "github.com/smallbiznis/recaudo/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	obstracing "github.com/smallbiznis/recaudo/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	receiptdomain "github.com/smallbiznis/recaudo/internal/receipt/domain"
	reportdomain "github.com/smallbiznis/recaudo/internal/report/domain"
	sededomain "github.com/smallbiznis/recaudo/internal/sede/domain"
	tariffdomain "github.com/smallbiznis/recaudo/internal/tariff/domain"
	visitdomain "github.com/smallbiznis/recaudo/internal/visit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine          *gin.Engine
	log             *zap.Logger
	clock           clock.Clock
	billing         *config.BillingConfigHolder
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	geoSvc          geodomain.Service
	sedeSvc         sededomain.Service
	clientSvc       clientdomain.Service
	tariffSvc       tariffdomain.Service
	billingCycleSvc billingcycledomain.Service
	debtSvc         debtdomain.Service
	paymentSvc      paymentdomain.Service
	receiptSvc      receiptdomain.Service
	visitSvc        visitdomain.Service
	reportSvc       reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Log             *zap.Logger
	Clock           clock.Clock
	Billing         *config.BillingConfigHolder `optional:"true"`
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	GeoSvc          geodomain.Service
	SedeSvc         sededomain.Service
	ClientSvc       clientdomain.Service
	TariffSvc       tariffdomain.Service
	BillingCycleSvc billingcycledomain.Service
	DebtSvc         debtdomain.Service
	PaymentSvc      paymentdomain.Service
	ReceiptSvc      receiptdomain.Service
	VisitSvc        visitdomain.Service
	ReportSvc       reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	svc := &Server{
		engine:          p.Gin,
		log:             p.Log.Named("http.server"),
		clock:           p.Clock,
		billing:         billing,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		geoSvc:          p.GeoSvc,
		sedeSvc:         p.SedeSvc,
		clientSvc:       p.ClientSvc,
		tariffSvc:       p.TariffSvc,
		billingCycleSvc: p.BillingCycleSvc,
		debtSvc:         p.DebtSvc,
		paymentSvc:      p.PaymentSvc,
		receiptSvc:      p.ReceiptSvc,
		visitSvc:        p.VisitSvc,
		reportSvc:       p.ReportSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(ActorContext())

	// -------- Geo --------
	api.POST("/geo", s.authorize(authorization.ObjectGeo, authorization.ActionManage), s.CreateGeoNode)
	api.GET("/geo", s.authorize(authorization.ObjectGeo, authorization.ActionView), s.ListGeoNodes)
	api.GET("/geo/:id", s.authorize(authorization.ObjectGeo, authorization.ActionView), s.GetGeoNode)
	api.GET("/geo/:id/ancestors", s.authorize(authorization.ObjectGeo, authorization.ActionView), s.ListGeoAncestors)
	api.GET("/geo/:id/descendants", s.authorize(authorization.ObjectGeo, authorization.ActionView), s.ListGeoDescendants)
	api.DELETE("/geo/:id", s.authorize(authorization.ObjectGeo, authorization.ActionManage), s.DeleteGeoNode)

	// -------- Sedes --------
	api.POST("/sedes", s.authorize(authorization.ObjectSede, authorization.ActionManage), s.CreateSede)
	api.GET("/sedes", s.authorize(authorization.ObjectSede, authorization.ActionView), s.ListSedes)

	// -------- Clients --------
	api.POST("/clients", s.authorize(authorization.ObjectClient, authorization.ActionManage), s.CreateClient)
	api.GET("/clients", s.authorize(authorization.ObjectClient, authorization.ActionView), s.ListClients)
	api.GET("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionView), s.GetClient)
	api.PATCH("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionManage), s.UpdateClient)
	api.GET("/clients/:id/services", s.authorize(authorization.ObjectClient, authorization.ActionView), s.ListClientServices)
	api.POST("/clients/:id/services", s.authorize(authorization.ObjectClient, authorization.ActionManage), s.AddClientService)
	api.GET("/clients/:id/credit", s.authorize(authorization.ObjectClient, authorization.ActionView), s.GetClientCredit)
	api.PATCH("/services/:id", s.authorize(authorization.ObjectClient, authorization.ActionManage), s.ChangeServiceStatus)

	// -------- Tariffs --------
	api.GET("/tariff", s.authorize(authorization.ObjectTariff, authorization.ActionView), s.ResolveTariff)
	api.POST("/tariffs", s.authorize(authorization.ObjectTariff, authorization.ActionManage), s.CreateTariff)
	api.GET("/tariffs", s.authorize(authorization.ObjectTariff, authorization.ActionView), s.ListTariffs)
	api.DELETE("/tariffs/:id", s.authorize(authorization.ObjectTariff, authorization.ActionManage), s.DeactivateTariff)

	// -------- Billing cycles --------
	api.POST("/billing-cycles/:month/generate", s.authorize(authorization.ObjectBillingCycle, authorization.ActionBillingCycleGenerate), s.GenerateBillingCycle)
	api.GET("/billing-cycles/runs", s.authorize(authorization.ObjectBillingCycle, authorization.ActionView), s.ListBillingRuns)

	// -------- Debts --------
	api.GET("/debts", s.authorize(authorization.ObjectDebt, authorization.ActionView), s.ListDebts)
	api.POST("/debts/sweep", s.authorize(authorization.ObjectDebt, authorization.ActionDebtSweep), s.SweepDebts)

	// -------- Payments --------
	api.POST("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentSubmit), s.SubmitPayment)
	api.GET("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
	api.GET("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPayment)
	api.PATCH("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentValidate), s.DecidePayment)
	api.POST("/payments/:id/cancel", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentCancel), s.CancelPayment)
	api.GET("/payments/:id/receipt", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentReceipt), s.RenderReceipt)

	// -------- Visits --------
	api.POST("/visits", s.authorize(authorization.ObjectVisit, authorization.ActionVisitRecord), s.RecordVisit)
	api.GET("/visits", s.authorize(authorization.ObjectVisit, authorization.ActionView), s.ListVisits)

	// -------- Reports --------
	api.GET("/reports/dashboard", s.authorize(authorization.ObjectReport, authorization.ActionView), s.GetDashboard)
	api.GET("/reports/debtors", s.authorize(authorization.ObjectReport, authorization.ActionView), s.ListDebtors)
	api.GET("/reports/revenue", s.authorize(authorization.ObjectReport, authorization.ActionView), s.GetRevenue)
	api.GET("/reports/collectors", s.authorize(authorization.ObjectReport, authorization.ActionReportCollectors), s.ListCollectorTotals)

	// -------- Audit --------
	api.GET("/audit", s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditEntries)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

// today is the current date in the billing timezone.
func (s *Server) today() time.Time {
	return clock.Date(s.clock.Now().In(s.billing.Get().Location()))
}
