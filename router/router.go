package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/fantasteak-pos/controllers"
	"github.com/yeremiapane/fantasteak-pos/kds"
	"github.com/yeremiapane/fantasteak-pos/middlewares"
	"github.com/yeremiapane/fantasteak-pos/printer"
	"github.com/yeremiapane/fantasteak-pos/receipt"
	"github.com/yeremiapane/fantasteak-pos/services"
)

// Deps is everything one console process serves its screens with.
type Deps struct {
	Client   *services.SyncClient
	Orphans  controllers.OrphanStore
	Printer  printer.Transport
	Hub      *kds.Hub
	Business receipt.Business
	Session  controllers.SessionConfig
	// CORSOrigin defaults to "*".
	CORSOrigin string
}

func SetupRouter(deps Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	if deps.CORSOrigin == "" {
		deps.CORSOrigin = "*"
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())

	sessionCtrl, err := controllers.NewSessionController(deps.Session)
	if err != nil {
		return nil, err
	}
	orderCtrl := controllers.NewOrderController(deps.Client, deps.Orphans, deps.Hub, deps.Business.WhatsApp)
	receiptCtrl := controllers.NewReceiptController(deps.Client, deps.Business, deps.Printer, deps.Hub)
	adminCtrl := controllers.NewAdminController(deps.Client)
	kdsCtrl := controllers.NewKDSController(deps.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk passcode gate
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter().RateLimit())
	{
		public.POST("/session", sessionCtrl.Unlock)
	}

	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware(deps.Session.Secret))
	{
		wsGroup.GET("", kdsCtrl.Connect)
	}

	// ----------------------------------------------------------------
	//                      SESSION ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.SessionAuth(deps.Session.Secret))

	staff := middlewares.RequireRole(services.RoleCashier, services.RoleAdmin)
	admin := middlewares.RequireRole(services.RoleAdmin)

	// CUSTOMER
	auth.POST("/orders", middlewares.RequireRole(services.RoleCustomer), orderCtrl.CreateOrder)

	// CASHIER / ADMIN
	auth.GET("/orders", staff, orderCtrl.GetAllOrders)
	auth.POST("/orders/refresh", staff, orderCtrl.Refresh)
	auth.GET("/orders/:order_id", staff, orderCtrl.GetOrderByID)
	auth.PATCH("/orders/:order_id/status", staff, orderCtrl.UpdateStatus)
	auth.GET("/orders/:order_id/receipt", staff, receiptCtrl.GetReceipt)
	auth.GET("/orders/:order_id/receipt.pdf", staff, receiptCtrl.DownloadPDF)
	auth.POST("/orders/:order_id/print", staff, middlewares.PrintLoggerMiddleware(), receiptCtrl.Print)

	// ADMIN
	auth.GET("/admin/stats", admin, adminCtrl.GetDashboardStats)
	auth.GET("/admin/stats/chart.png", admin, adminCtrl.GetRevenueChart)
	auth.GET("/admin/orphans", admin, orderCtrl.GetOrphans)
	auth.DELETE("/admin/orphans/:order_id", admin, orderCtrl.DeleteOrphan)

	return r, nil
}
