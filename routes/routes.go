package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hotel-pms/controllers"
	"hotel-pms/middleware"
)

// Controllers bundles every handler set the router mounts.
type Controllers struct {
	Auth         *controllers.AuthController
	Rooms        *controllers.RoomController
	Guests       *controllers.GuestController
	Agents       *controllers.TravelAgentController
	Reservations *controllers.ReservationController
	Expenses     *controllers.ExpenseController
	Invoices     *controllers.InvoiceController
}

type Options struct {
	CORSOrigins []string
	JWTSecret   string
	Logger      *zap.Logger
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

// SetupRouter wires middleware and every API route. Reads are open; writes
// need an authenticated admin.
func SetupRouter(h Controllers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(middleware.Actor(opts.JWTSecret))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	write := middleware.RequireActor()

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", write, h.Auth.Me)
	}

	rooms := api.Group("/rooms")
	{
		rooms.GET("", h.Rooms.List)
		// static segments before /:id
		rooms.GET("/available", h.Rooms.Available)
		rooms.GET("/housekeeping", h.Rooms.Housekeeping)
		rooms.GET("/:id", h.Rooms.Get)
		rooms.POST("", write, h.Rooms.Create)
		rooms.PUT("/:id", write, h.Rooms.Update)
		rooms.PUT("/:id/status", write, h.Rooms.UpdateStatus)
		rooms.DELETE("/:id", write, h.Rooms.Delete)
	}

	guests := api.Group("/guests")
	{
		guests.GET("", h.Guests.List)
		guests.GET("/:id", h.Guests.Get)
		guests.POST("", write, h.Guests.Create)
		guests.PUT("/:id", write, h.Guests.Update)
		guests.DELETE("/:id", write, h.Guests.Delete)
	}

	agents := api.Group("/travel-agents")
	{
		agents.GET("", h.Agents.List)
		agents.GET("/:id", h.Agents.Get)
		agents.POST("", write, h.Agents.Create)
		agents.PUT("/:id", write, h.Agents.Update)
		agents.PUT("/:id/balance", write, h.Agents.AdjustBalance)
		agents.DELETE("/:id", write, h.Agents.Delete)
	}

	reservations := api.Group("/reservations")
	{
		reservations.GET("", h.Reservations.List)
		reservations.GET("/date-range", h.Reservations.ListByDateRange)
		reservations.GET("/status/:status", h.Reservations.ListByStatus)
		reservations.GET("/:id", h.Reservations.Get)
		reservations.GET("/:id/invoice", h.Invoices.GetByReservation)
		reservations.POST("", write, h.Reservations.Create)
		reservations.PUT("/:id", write, h.Reservations.Update)
		reservations.PUT("/:id/check-in", write, h.Reservations.CheckIn)
		reservations.PUT("/:id/check-out", write, h.Reservations.CheckOut)
		reservations.PUT("/:id/cancel", write, h.Reservations.Cancel)
		reservations.DELETE("/:id", write, h.Reservations.Delete)
	}

	expenses := api.Group("/expenses")
	{
		expenses.GET("", h.Expenses.List)
		expenses.GET("/:id", h.Expenses.Get)
		expenses.POST("", write, h.Expenses.Create)
		expenses.PUT("/:id", write, h.Expenses.Update)
		expenses.DELETE("/:id", write, h.Expenses.Delete)
	}

	invoices := api.Group("/invoices")
	{
		invoices.GET("", h.Invoices.List)
		invoices.GET("/:id", h.Invoices.Get)
		invoices.POST("/generate", write, h.Invoices.Generate)
		invoices.PUT("/:id/payment", write, h.Invoices.AddPayment)
		invoices.DELETE("/:id", write, h.Invoices.Void)
	}

	return r
}
