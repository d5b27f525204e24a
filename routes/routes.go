package routes

import (
	"catalog/auth"
	"catalog/models"
	"catalog/services"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Deps are the collaborators the handlers need. UploadsDir is served under
// /uploads when set; Gatherer defaults to the Prometheus default registry.
type Deps struct {
	DB         *gorm.DB
	Tokens     *auth.TokenManager
	Accounts   *services.AccountService
	Categories *services.CategoryService
	Products   *services.ProductService
	Banners    *services.BannerService
	UploadsDir string
	Gatherer   prometheus.Gatherer
}

func SetupRoutes(app *fiber.App, d Deps) {
	if d.UploadsDir != "" {
		app.Static("/uploads", d.UploadsDir)
	}
	app.Get("/health", health(d.DB))
	app.Get("/metrics", metricsHandler(d.Gatherer))

	api := app.Group("/api")
	authed := RequireAuth(d.Tokens)
	admin := []fiber.Handler{authed, RequireRole(models.RoleAdmin)}

	// Auth routes
	a := &authHandler{accounts: d.Accounts, tokens: d.Tokens}
	api.Post("/auth/admin/register", a.registerAdmin)
	api.Post("/auth/admin/login", a.login(models.RoleAdmin))
	api.Post("/auth/user/register", a.registerUser)
	api.Post("/auth/user/login", a.login(models.RoleUser))
	api.Get("/auth/me", authed, a.me)
	api.Put("/auth/password", authed, a.changePassword)

	// Category routes
	cat := &categoryHandler{categories: d.Categories}
	api.Get("/categories", cat.list)
	api.Get("/categories/:id", cat.get)
	api.Post("/categories", append(admin, cat.create)...)
	api.Put("/categories/:id", append(admin, cat.update)...)
	api.Delete("/categories/:id", append(admin, cat.delete)...)

	// Product routes
	prod := &productHandler{products: d.Products}
	api.Get("/products", prod.list)
	api.Get("/products/:id", prod.get)
	api.Post("/products", append(admin, prod.create)...)
	api.Put("/products/:id", append(admin, prod.update)...)
	api.Delete("/products/:id", append(admin, prod.delete)...)

	// Banner routes
	ban := &bannerHandler{banners: d.Banners}
	api.Get("/banners", ban.list)
	api.Get("/banners/:id", ban.get)
	api.Post("/banners", append(admin, ban.create)...)
	api.Put("/banners/:id", append(admin, ban.update)...)
	api.Delete("/banners/:id", append(admin, ban.delete)...)
}
