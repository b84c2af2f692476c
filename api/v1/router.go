package v1

import (
	"go_crm/api/v1/auth"
	"go_crm/api/v1/companies"
	"go_crm/api/v1/contacts"
	"go_crm/api/v1/invoices"
	"go_crm/api/v1/items"
	"go_crm/api/v1/middleware"
	"go_crm/api/v1/payments"
	"go_crm/api/v1/projects"
	"go_crm/api/v1/quotations"
	"go_crm/api/v1/statements"
	"go_crm/api/v1/users"
	internalauth "go_crm/internal/auth"
	"go_crm/internal/config"
	"go_crm/internal/httpx"
	"go_crm/internal/model"
	"go_crm/internal/statement"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps carries the shared services the API routes need.
type Deps struct {
	DB      *gorm.DB
	Hub     *ws.Hub
	Revoker *internalauth.RevocationStore
	Logger  *logrus.Entry
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, cfg *config.Config, deps Deps) {
	src := statement.NewSource(deps.DB)
	engine := statement.NewEngine(src, src, deps.Logger)

	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(deps.DB, cfg))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(deps.Revoker))
		{
			protected.GET("/me", meHandler)
			protected.POST("/auth/logout", auth.LogoutHandler(deps.Revoker))

			// Projects routes (admin-managed)
			projectsHandler := projects.NewHandler(deps.DB, deps.Hub)
			projectsGroup := protected.Group("/projects")
			{
				projectsGroup.GET("", projectsHandler.List)

				adminOnly := projectsGroup.Group("")
				adminOnly.Use(middleware.RequireRole(model.RoleAdmin))
				{
					adminOnly.POST("/create", projectsHandler.Create)
					adminOnly.POST("/update", projectsHandler.Update)
					adminOnly.POST("/delete", projectsHandler.Delete)
				}
			}

			// Users routes (admin only)
			usersHandler := users.NewHandler(deps.DB)
			usersGroup := protected.Group("/users")
			usersGroup.Use(middleware.RequireRole(model.RoleAdmin))
			{
				usersGroup.GET("", usersHandler.List)
				usersGroup.POST("/create", usersHandler.Create)
				usersGroup.POST("/update", usersHandler.Update)
				usersGroup.POST("/delete", usersHandler.Delete)
			}

			// Writes need at least the manager role; viewers read only.
			write := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

			// Companies routes
			companiesHandler := companies.NewHandler(deps.DB, deps.Hub)
			companiesGroup := protected.Group("/companies")
			{
				companiesGroup.GET("", companiesHandler.List)
				companiesGroup.POST("/create", write, companiesHandler.Create)
				companiesGroup.POST("/update", write, companiesHandler.Update)
				companiesGroup.POST("/delete", write, companiesHandler.Delete)
			}

			// Contacts routes
			contactsHandler := contacts.NewHandler(deps.DB, deps.Hub)
			contactsGroup := protected.Group("/contacts")
			{
				contactsGroup.GET("", contactsHandler.List)
				contactsGroup.POST("/create", write, contactsHandler.Create)
				contactsGroup.POST("/update", write, contactsHandler.Update)
				contactsGroup.POST("/delete", write, contactsHandler.Delete)
			}

			// Items routes
			itemsHandler := items.NewHandler(deps.DB, deps.Hub)
			itemsGroup := protected.Group("/items")
			{
				itemsGroup.GET("", itemsHandler.List)
				itemsGroup.POST("/create", write, itemsHandler.Create)
				itemsGroup.POST("/update", write, itemsHandler.Update)
				itemsGroup.POST("/delete", write, itemsHandler.Delete)
			}

			// Quotations routes
			quotationsHandler := quotations.NewHandler(deps.DB, deps.Hub)
			quotationsGroup := protected.Group("/quotations")
			{
				quotationsGroup.GET("", quotationsHandler.List)
				quotationsGroup.POST("/create", write, quotationsHandler.Create)
				quotationsGroup.POST("/update", write, quotationsHandler.Update)
				quotationsGroup.POST("/delete", write, quotationsHandler.Delete)
				quotationsGroup.POST("/convert", write, quotationsHandler.Convert)
			}

			// Invoices routes
			invoicesHandler := invoices.NewHandler(deps.DB, deps.Hub)
			invoicesGroup := protected.Group("/invoices")
			{
				invoicesGroup.GET("", invoicesHandler.List)
				invoicesGroup.POST("/create", write, invoicesHandler.Create)
				invoicesGroup.POST("/update", write, invoicesHandler.Update)
				invoicesGroup.POST("/delete", write, invoicesHandler.Delete)
			}

			// Payments routes
			paymentsHandler := payments.NewHandler(deps.DB, deps.Hub)
			paymentsGroup := protected.Group("/payments")
			{
				paymentsGroup.GET("", paymentsHandler.List)
				paymentsGroup.POST("/create", write, paymentsHandler.Create)
				paymentsGroup.POST("/delete", write, paymentsHandler.Delete)
			}

			// Statements routes
			statementsHandler := statements.NewHandler(engine)
			statementsGroup := protected.Group("/statements")
			{
				statementsGroup.GET("", statementsHandler.Generate)
				statementsGroup.GET("/export", statementsHandler.Export)
			}
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	uid, _ := c.Get("uid")
	username, _ := c.Get("username")
	role, _ := c.Get("role")

	httpx.OK(c, gin.H{
		"uid":      uid,
		"username": username,
		"role":     role,
	})
}
