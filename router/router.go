package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/live"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps is everything the router needs to build its controllers.
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Signer   *session.Signer
	Hub      *live.Hub
	Forecast *services.ForecastClient

	CORSOrigin        string
	SecureCookie      bool
	LowStockThreshold int
	// Requests per second per IP across the whole API; 0 disables the limiter.
	RateLimitRPS float64
	// Login, feedback and waiter-call requests per minute per IP.
	LoginRatePerMinute int
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.SecurityHeaders(d.SecureCookie))
	if d.RateLimitRPS > 0 {
		burst := int(d.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		r.Use(middlewares.NewRateLimiter(rate.Limit(d.RateLimitRPS), burst*2).RateLimit())
	}

	// Services
	actionLog := services.NewActionLogger(d.DB)
	staffSvc := services.NewStaffService(d.DB, actionLog)
	catalogSvc := services.NewCatalogService(d.DB, actionLog)
	tableSvc := services.NewTableService(d.DB, actionLog)
	orderSvc := services.NewOrderService(d.DB, actionLog)
	paymentSvc := services.NewPaymentService(d.DB, actionLog)
	expenseSvc := services.NewExpenseService(d.DB, actionLog)
	feedbackSvc := services.NewFeedbackService(d.DB, actionLog)
	reportSvc := services.NewReportService(d.DB, d.LowStockThreshold)

	// Controllers
	authCtrl := controllers.NewAuthController(staffSvc, d.Sessions, d.Signer, d.SecureCookie)
	customerCtrl := controllers.NewCustomerController(catalogSvc, feedbackSvc, tableSvc, d.Sessions, d.Hub)
	tableCtrl := controllers.NewTableController(tableSvc, d.Sessions, d.Hub)
	orderCtrl := controllers.NewOrderController(orderSvc, paymentSvc, catalogSvc, d.Sessions, d.Hub, d.LowStockThreshold)
	staffCtrl := controllers.NewStaffController(staffSvc, d.Sessions)
	categoryCtrl := controllers.NewCategoryController(catalogSvc)
	productCtrl := controllers.NewProductController(catalogSvc)
	expenseCtrl := controllers.NewExpenseController(expenseSvc)
	feedbackCtrl := controllers.NewFeedbackController(feedbackSvc)
	logCtrl := controllers.NewLogController(actionLog)
	reportCtrl := controllers.NewReportController(reportSvc, d.Forecast)
	liveCtrl := controllers.NewLiveController(d.Hub, d.CORSOrigin)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/menu", customerCtrl.Menu)
	r.GET("/feedback-types", customerCtrl.FeedbackTypes)

	limited := r.Group("/")
	limited.Use(middlewares.NewStrictRateLimiter(d.LoginRatePerMinute).RateLimit())
	{
		limited.POST("/login", authCtrl.Login)
		limited.POST("/feedback", customerCtrl.SubmitFeedback)
		limited.POST("/tables/:table_id/call-waiter", customerCtrl.CallWaiter)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.SessionAuth(d.Sessions, d.Signer))
	auth.POST("/logout", authCtrl.Logout)
	auth.GET("/me", authCtrl.Me)
	auth.GET("/live/ws", liveCtrl.Connect)

	// WAITER (managers can do everything a waiter can)
	waiter := auth.Group("/waiter")
	waiter.Use(middlewares.RequireRole(models.RoleWaiter, models.RoleManager))
	{
		waiter.GET("/tables", tableCtrl.Floor)
		waiter.GET("/tables/:table_id/order", orderCtrl.OrderPage)
		waiter.POST("/tables/:table_id/items", orderCtrl.AddItem)
		waiter.DELETE("/tables/:table_id/items/:product_id", orderCtrl.RemoveItem)
		waiter.POST("/tables/:table_id/reservation", tableCtrl.ToggleReservation)

		waiter.GET("/orders/active", orderCtrl.ActiveOrders)
		waiter.PUT("/orders/:order_id/note", orderCtrl.SaveNote)
		waiter.PUT("/orders/:order_id/status", orderCtrl.ChangeStatus)
		waiter.POST("/orders/:order_id/payment", orderCtrl.TakePayment)
		waiter.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)

		waiter.GET("/calls", customerCtrl.WaiterCalls)
		waiter.GET("/payment-methods", orderCtrl.PaymentMethods)
	}

	// ADMIN
	admin := auth.Group("/admin")
	admin.Use(middlewares.RequireRole(models.RoleManager))
	{
		admin.GET("/dashboard", reportCtrl.Dashboard)
		admin.GET("/alerts", reportCtrl.Alerts)

		admin.GET("/staff", staffCtrl.GetAllStaff)
		admin.POST("/staff", staffCtrl.CreateStaff)
		admin.PUT("/staff/:id", staffCtrl.UpdateStaff)
		admin.DELETE("/staff/:id", staffCtrl.DeleteStaff)

		admin.GET("/orders", orderCtrl.History)

		admin.GET("/categories", categoryCtrl.GetAllCategories)
		admin.POST("/categories", categoryCtrl.CreateCategory)
		admin.PUT("/categories/:id", categoryCtrl.UpdateCategory)
		admin.DELETE("/categories/:id", categoryCtrl.DeleteCategory)
		admin.POST("/categories/:id/move-to-other", categoryCtrl.MoveToOther)

		admin.GET("/products", productCtrl.GetAllProducts)
		admin.POST("/products", productCtrl.CreateProduct)
		admin.PUT("/products/:id", productCtrl.UpdateProduct)
		admin.DELETE("/products/:id", productCtrl.DeleteProduct)

		admin.GET("/tables", tableCtrl.GetAllTables)
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PUT("/tables/:id", tableCtrl.UpdateTable)
		admin.DELETE("/tables/:id", tableCtrl.DeleteTable)

		admin.GET("/expenses", expenseCtrl.GetAllExpenses)
		admin.POST("/expenses", expenseCtrl.CreateExpense)
		admin.PUT("/expenses/:id", expenseCtrl.UpdateExpense)
		admin.DELETE("/expenses/:id", expenseCtrl.DeleteExpense)
		admin.GET("/expense-categories", expenseCtrl.GetExpenseCategories)

		admin.GET("/feedback", feedbackCtrl.GetAllFeedback)
		admin.DELETE("/feedback/:id", feedbackCtrl.DeleteFeedback)

		admin.GET("/logs", logCtrl.GetLogs)

		admin.GET("/reports", reportCtrl.Report)
		admin.GET("/reports/pdf", reportCtrl.PDF)
		admin.GET("/reports/xlsx", reportCtrl.XLSX)
		admin.GET("/reports/forecast", reportCtrl.Forecast)
	}

	return r
}
