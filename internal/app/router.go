package app

import (
	"interview_prep_backend/docs"
	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/middleware"
	"interview_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		a.registerPrepRoutes(authGroup, c)
		a.registerGamificationRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerPrepRoutes(r *gin.RouterGroup, c *controllers) {
	resume := r.Group("/resume")
	{
		resume.POST("/upload", c.resume.Upload)
		resume.GET("/latest", c.resume.Latest)
	}

	analysis := r.Group("/analysis")
	{
		analysis.POST("/jd", c.resume.SaveJobDescription)
		analysis.GET("/skill-gap", c.analysis.SkillGap)
	}

	test := r.Group("/test")
	{
		test.POST("/generate", c.test.GenerateTest)
		test.POST("/check", c.test.CheckTest)
		test.GET("/history", c.test.History)
	}

	r.GET("/roadmap/", c.roadmap.GetRoadmap)
	r.GET("/dashboard/", c.dashboard.GetDashboard)

	progress := r.Group("/progress")
	{
		progress.GET("/", c.progress.Get)
		progress.PATCH("/update", c.progress.Update)
	}

	coach := r.Group("/coach")
	{
		coach.POST("/chat", c.coach.Chat)
		coach.DELETE("/session", c.coach.Reset)
	}
}

func (a *App) registerGamificationRoutes(r *gin.RouterGroup, c *controllers) {
	g := r.Group("/gamification")
	{
		g.POST("/add-xp", c.gamification.AddXP)
		g.POST("/badge", c.gamification.AwardBadge)
		g.POST("/project/step", c.gamification.UpdateProjectStep)
	}
}
