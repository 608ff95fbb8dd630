package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/lingoflow/backend/config"
	"github.com/lingoflow/backend/internal/handler"
	"github.com/lingoflow/backend/internal/middleware"
	"github.com/lingoflow/backend/internal/service"
)

func Setup(
	cfg *config.Config,
	users *service.UserService,
	projectHandler *handler.ProjectHandler,
	rowHandler *handler.RowHandler,
	translateHandler *handler.TranslateHandler,
	approvalHandler *handler.ApprovalHandler,
	templateHandler *handler.TemplateHandler,
	glossaryHandler *handler.GlossaryHandler,
	userHandler *handler.UserHandler,
	auditHandler *handler.AuditHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	api := r.Group("/api")

	api.POST("/auth/login", userHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(users))
	{
		authed.GET("/auth/me", userHandler.Me)

		projects := authed.Group("/projects")
		{
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Load)

			edit := projects.Group("")
			edit.Use(middleware.RequireCapability(service.CapProjectEdit))
			{
				edit.POST("", projectHandler.Create)
				edit.PUT("/:id", projectHandler.Update)
				edit.DELETE("/:id", projectHandler.Delete)
				edit.POST("/:id/pages", projectHandler.AddPage)
				edit.PUT("/:id/pages/:pageId", projectHandler.RenamePage)
				edit.DELETE("/:id/pages/:pageId", projectHandler.DeletePage)
				edit.POST("/:id/import", projectHandler.Import)
			}
			projects.GET("/:id/export", projectHandler.Export)

			rows := projects.Group("")
			rows.Use(middleware.RequireCapability(service.CapRowEdit))
			{
				rows.POST("/:id/rows", rowHandler.Add)
				rows.PUT("/:id/rows/:rowId", rowHandler.Update)
				rows.DELETE("/:id/rows", rowHandler.Delete)
				rows.POST("/:id/review", approvalHandler.SendForReview)
			}

			review := projects.Group("")
			review.Use(middleware.RequireCapability(service.CapApprovalAct))
			{
				review.GET("/:id/pending", approvalHandler.Pending)
				review.POST("/:id/rows/:rowId/marks", approvalHandler.SaveMarks)
				review.POST("/:id/rows/:rowId/reassign", approvalHandler.Reassign)
			}
		}

		authed.GET("/pending",
			middleware.RequireCapability(service.CapApprovalAct), approvalHandler.PendingAll)
		authed.POST("/translate",
			middleware.RequireCapability(service.CapTranslateRun), translateHandler.Run)

		templates := authed.Group("/templates")
		{
			templates.GET("", templateHandler.List)
			templates.GET("/:id", templateHandler.Get)

			edit := templates.Group("")
			edit.Use(middleware.RequireCapability(service.CapTemplateEdit))
			{
				edit.POST("", templateHandler.Create)
				edit.PUT("/:id", templateHandler.Update)
				edit.POST("/:id/default", templateHandler.SetDefault)
				edit.DELETE("/:id", templateHandler.Delete)
			}
		}

		glossary := authed.Group("/glossary")
		{
			glossary.GET("/terms", glossaryHandler.ListTerms)
			glossary.GET("/categories", glossaryHandler.ListCategories)

			edit := glossary.Group("")
			edit.Use(middleware.RequireCapability(service.CapGlossaryEdit))
			{
				edit.POST("/terms", glossaryHandler.CreateTerm)
				edit.PUT("/terms/:id", glossaryHandler.UpdateTerm)
				edit.DELETE("/terms/:id", glossaryHandler.DeleteTerm)
				edit.POST("/categories", glossaryHandler.CreateCategory)
				edit.DELETE("/categories/:id", glossaryHandler.DeleteCategory)
			}
		}

		usersGroup := authed.Group("/users")
		usersGroup.Use(middleware.RequireCapability(service.CapUserManage))
		{
			usersGroup.POST("", userHandler.Create)
			usersGroup.GET("", userHandler.List)
			usersGroup.PUT("/:id", userHandler.Update)
			usersGroup.DELETE("/:id", userHandler.Delete)
		}

		authed.GET("/audit",
			middleware.RequireCapability(service.CapAuditView), auditHandler.List)
	}

	return r
}
