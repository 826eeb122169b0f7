package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/clearfund/backend/api/handler"
)

type Handlers struct {
	Campaign   *apiHandler.CampaignHandler
	Donation   *apiHandler.DonationHandler
	Expense    *apiHandler.ExpenseHandler
	Withdrawal *apiHandler.WithdrawalHandler
	Events     *apiHandler.EventsHandler
	Health     *apiHandler.HealthHandler
}

// New builds the route table. Reads are public; every mutating route goes
// through the caller-identity middleware.
func New(handlers Handlers, identity func(fasthttp.RequestHandler) fasthttp.RequestHandler, metricsHandler fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if metricsHandler != nil {
		r.GET("/metrics", metricsHandler)
	}

	// Read surface
	r.GET("/api/v1/campaigns", handlers.Campaign.List)
	r.GET("/api/v1/stats", handlers.Campaign.Count)
	r.GET("/api/v1/campaigns/{id}", handlers.Campaign.Get)
	r.GET("/api/v1/campaigns/{id}/balance", handlers.Campaign.Balance)
	r.GET("/api/v1/campaigns/{id}/expenses", handlers.Expense.List)
	r.GET("/api/v1/campaigns/{id}/donations/{donor}", handlers.Donation.DonorAmount)
	r.GET("/api/v1/campaigns/{id}/events", handlers.Events.ByCampaign)

	// Mutations
	r.POST("/api/v1/campaigns", identity(handlers.Campaign.Create))
	r.POST("/api/v1/campaigns/{id}/donations", identity(handlers.Donation.Donate))
	r.POST("/api/v1/campaigns/{id}/expenses", identity(handlers.Expense.Record))
	r.POST("/api/v1/campaigns/{id}/withdrawals", identity(handlers.Withdrawal.Withdraw))
	r.POST("/api/v1/campaigns/{id}/toggle", identity(handlers.Campaign.Toggle))

	return r
}
