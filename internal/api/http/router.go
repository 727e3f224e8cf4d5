package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/engagement-marketplace/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Account        *handlers.AccountHandler
	Tasks          *handlers.TasksHandler
	Admin          *handlers.AdminHandler
	Campaigns      *handlers.CampaignsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)
	app.Get("/leaderboard", cfg.Tasks.Leaderboard)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/me", cfg.Account.Me)
	protected.Put("/me/contact", cfg.Account.UpdateContact)
	protected.Get("/me/balance", cfg.Account.Balance)
	protected.Get("/me/ledger", cfg.Account.Ledger)
	protected.Get("/me/submissions", cfg.Account.MySubmissions)
	protected.Get("/me/withdrawals", cfg.Account.MyWithdrawals)
	protected.Post("/subscription", cfg.Account.Subscribe)

	protected.Get("/tasks", cfg.Tasks.ListTasks)
	protected.Post("/submissions", cfg.Tasks.SubmitTask)
	protected.Post("/withdrawals", cfg.Tasks.RequestWithdrawal)

	protected.Post("/campaigns", cfg.Campaigns.CreateCampaign)
	protected.Get("/campaigns", cfg.Campaigns.ListCampaigns)
	protected.Post("/campaigns/:id/pause", cfg.Campaigns.PauseCampaign)
	protected.Post("/campaigns/:id/resume", cfg.Campaigns.ResumeCampaign)

	admin := protected.Group("/admin")
	admin.Get("/submissions", cfg.Admin.ListSubmissions)
	admin.Post("/submissions/:id/review", cfg.Admin.ReviewSubmission)
	admin.Get("/withdrawals", cfg.Admin.ListWithdrawals)
	admin.Post("/withdrawals/:id/review", cfg.Admin.ReviewWithdrawal)
	admin.Post("/users/:id/verify", cfg.Admin.VerifyUser)
}
