package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicestudio/backend/internal/auth"
	"github.com/invoicestudio/backend/internal/client"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	"github.com/invoicestudio/backend/internal/clock"
	"github.com/invoicestudio/backend/internal/config"
	"github.com/invoicestudio/backend/internal/dashboard"
	"github.com/invoicestudio/backend/internal/email"
	emaildomain "github.com/invoicestudio/backend/internal/email/domain"
	"github.com/invoicestudio/backend/internal/fxrate"
	"github.com/invoicestudio/backend/internal/invoice"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/item"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	emailprovider "github.com/invoicestudio/backend/internal/providers/email"
	"github.com/invoicestudio/backend/internal/providers/pdf"
	"github.com/invoicestudio/backend/internal/user"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	auth.Module,
	user.Module,
	client.Module,
	item.Module,
	invoice.Module,
	emailprovider.Module,
	pdf.Module,
	fxrate.Module,
	email.Module,
	dashboard.Module,
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	clock        clock.Clock
	tokens       *auth.Manager
	userSvc      userdomain.Service
	clientSvc    clientdomain.Service
	itemSvc      itemdomain.Service
	invoiceSvc   invoicedomain.Service
	emailSvc     emaildomain.Service
	dashboardSvc dashboard.Service
	rates        fxrate.Provider
	pdfRenderer  pdf.Renderer
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Clock        clock.Clock
	Tokens       *auth.Manager
	UserSvc      userdomain.Service
	ClientSvc    clientdomain.Service
	ItemSvc      itemdomain.Service
	InvoiceSvc   invoicedomain.Service
	EmailSvc     emaildomain.Service
	DashboardSvc dashboard.Service
	Rates        fxrate.Provider
	PDFRenderer  pdf.Renderer
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		clock:        p.Clock,
		tokens:       p.Tokens,
		userSvc:      p.UserSvc,
		clientSvc:    p.ClientSvc,
		itemSvc:      p.ItemSvc,
		invoiceSvc:   p.InvoiceSvc,
		emailSvc:     p.EmailSvc,
		dashboardSvc: p.DashboardSvc,
		rates:        p.Rates,
		pdfRenderer:  p.PDFRenderer,
	}
}

func RegisterRoutes(s *Server) {
	s.registerAuthRoutes()
	s.registerAPIRoutes()
}

// Engine exposes the underlying router, mainly for tests that mount the
// server inside httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	grp := s.engine.Group("/auth")
	grp.POST("/register", s.Register)
	grp.POST("/login", s.Login)

	me := grp.Group("", s.AuthRequired())
	me.GET("/me", s.Me)
	me.PATCH("/profile", s.UpdateProfile)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	invoices := api.Group("/invoices")
	invoices.GET("", s.ListInvoices)
	invoices.POST("", s.CreateInvoice)
	invoices.GET("/:id", s.GetInvoiceByID)
	invoices.PATCH("/:id", s.UpdateInvoice)
	invoices.DELETE("/:id", s.DeleteInvoice)
	invoices.GET("/:id/history", s.GetInvoiceHistory)

	clients := api.Group("/clients")
	clients.GET("", s.ListClients)
	clients.POST("", s.CreateClient)
	clients.GET("/:id", s.GetClientByID)
	clients.PATCH("/:id", s.UpdateClient)
	clients.DELETE("/:id", s.DeleteClient)

	items := api.Group("/items")
	items.GET("", s.ListItems)
	items.POST("", s.CreateItem)
	items.GET("/:id", s.GetItemByID)
	items.PATCH("/:id", s.UpdateItem)
	items.DELETE("/:id", s.DeleteItem)

	api.GET("/fx/latest", s.GetLatestRates)

	api.GET("/pdf/templates", s.ListTemplates)
	api.GET("/pdf/:id/generate", s.GeneratePDF)

	mail := api.Group("/email")
	mail.GET("/history", s.GetEmailOutbox)
	mail.GET("/invoices/:id/draft", s.GetEmailDraft)
	mail.POST("/invoices/:id/send", s.SendInvoiceEmail)
	mail.POST("/invoices/:id/send-custom", s.SendCustomInvoiceEmail)
	mail.GET("/invoices/:id/history", s.GetInvoiceEmailHistory)

	api.GET("/dashboard/summary", s.GetDashboardSummary)
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("listening", zap.String("addr", srv.Addr))
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
