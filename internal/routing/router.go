package routing

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"graveyard-manager/internal/config"
	"graveyard-manager/internal/handlers"
	"graveyard-manager/internal/managers"
	"graveyard-manager/internal/middleware"
	"graveyard-manager/internal/schemas"
	"graveyard-manager/internal/utils"
)

func InitRouter(cfg *config.Config, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, tokenMgr managers.TokenMgr,
	revocationMgr managers.RevocationMgr) *gin.Engine {
	// Initialize router with logging and recovery middleware
	router := gin.New()
	sessionGate := middleware.NewSessionGate(databaseMgr, tokenMgr, cfg)
	// Initialize middleware
	setupCommonMiddleware(router, cfg, sessionGate)
	// Set up routes
	setupRoutes(router, cfg, databaseMgr, mailMgr, tokenMgr, revocationMgr, sessionGate)

	return router
}

func setupCommonMiddleware(router *gin.Engine, cfg *config.Config, sessionGate *middleware.SessionGate) {
	router.Use(middleware.InjectTrace())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", "Origin"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Trace-Id", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(sessions.Sessions(utils.FlashCookieName, utils.NewFlashStore(cfg.SecretKey, cfg.IsProduction())))
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
	router.Use(sessionGate.ResolveSession())
}

func setupRoutes(router *gin.Engine, cfg *config.Config, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr,
	tokenMgr managers.TokenMgr, revocationMgr managers.RevocationMgr, sessionGate *middleware.SessionGate) {
	pageHdl := handlers.NewPageHandler(databaseMgr)
	userHdl := handlers.NewUserHandler(databaseMgr, tokenMgr, mailMgr, revocationMgr, sessionGate, cfg)
	graveHdl := handlers.NewGraveHandler(databaseMgr)
	adminHdl := handlers.NewAdminHandler(databaseMgr, mailMgr)

	// Set up public routes
	router.GET("/", pageHdl.IndexPage)
	router.GET("/health", pageHdl.Health)
	router.NoRoute(pageHdl.NotFoundPage)

	// Set up account routes
	router.GET("/logout", userHdl.LogoutUser)
	router.GET("/confirm_email/:token", userHdl.ConfirmEmail)
	router.GET("/pw_recovery/:token", userHdl.CompleteRecovery)
	anonymousRoutes(router.Group("", middleware.RequireAnonymous()), userHdl)

	// The following routes require the user to be logged in
	loggedInRouter := router.Group("", middleware.RequireLogin())
	userRoutes(loggedInRouter, userHdl)
	graveRoutes(loggedInRouter, graveHdl)

	// Admin routes are hidden from everybody else
	adminRoutes(loggedInRouter.Group("", middleware.RequireAdmin()), adminHdl)
}

func anonymousRoutes(anonymousRouter *gin.RouterGroup, userHdl handlers.UserHdl) {
	anonymousRouter.GET("/login", userHdl.LoginPage)
	anonymousRouter.POST("/login", middleware.ValidateAndSanitizeForm[schemas.LoginRequest]("login"), userHdl.LoginUser)
	anonymousRouter.GET("/register", userHdl.RegisterPage)
	anonymousRouter.POST("/register", middleware.ValidateAndSanitizeForm[schemas.RegistrationRequest]("register"), userHdl.RegisterUser)
	anonymousRouter.GET("/pw_recovery", userHdl.RecoveryPage)
	anonymousRouter.POST("/pw_recovery", middleware.ValidateAndSanitizeForm[schemas.EmailRequest]("pw_recovery"), userHdl.RequestRecovery)
}

func userRoutes(userRouter *gin.RouterGroup, userHdl handlers.UserHdl) {
	userRouter.GET("/user", middleware.WithUser(userHdl.UserPage))
	userRouter.POST("/user", middleware.WithUser(userHdl.UserPage))
	userRouter.GET("/user/password", middleware.WithUser(userHdl.ChangePasswordPage))
	userRouter.POST("/user/password", middleware.ValidateAndSanitizeForm[schemas.ChangePasswordRequest]("user_password"), middleware.WithUser(userHdl.ChangePassword))
	userRouter.GET("/user/data", middleware.WithUser(userHdl.ChangeDataPage))
	userRouter.POST("/user/data", middleware.ValidateAndSanitizeForm[schemas.ChangeDataRequest]("user_data"), middleware.WithUser(userHdl.ChangeData))
}

func graveRoutes(graveRouter *gin.RouterGroup, graveHdl handlers.GraveHdl) {
	graveRouter.GET("/add_grave/:parcel_id", middleware.WithUser(graveHdl.AddGravePage))
	graveRouter.POST("/add_grave/:parcel_id", middleware.ValidateAndSanitizeForm[schemas.GraveRequest]("add_grave"), middleware.WithUser(graveHdl.AddGrave))
	graveRouter.GET("/grave/:grave_id", middleware.WithUser(graveHdl.GravePage))
	graveRouter.POST("/grave/:grave_id", middleware.ValidateAndSanitizeForm[schemas.EditGraveRequest]("grave"), middleware.WithUser(graveHdl.EditGrave))
	graveRouter.POST("/delete/:grave_id", middleware.WithUser(graveHdl.DeleteGrave))
}

func adminRoutes(adminRouter *gin.RouterGroup, adminHdl handlers.AdminHdl) {
	adminRouter.GET("/admin", middleware.WithUser(adminHdl.AdminPage))
	adminRouter.POST("/admin", middleware.WithUser(adminHdl.HandleAdminAction))
	adminRouter.GET("/message/:id/edit", middleware.WithUser(adminHdl.EditMessagePage))
	adminRouter.POST("/message/:id/edit", middleware.ValidateAndSanitizeForm[schemas.MessageRequest]("message_edit"), middleware.WithUser(adminHdl.EditMessage))
	adminRouter.GET("/message/:id/delete", middleware.WithUser(adminHdl.DeleteMessagePage))
	adminRouter.POST("/message/:id/delete", middleware.WithUser(adminHdl.DeleteMessage))
	adminRouter.GET("/obituary/:id/edit", middleware.WithUser(adminHdl.EditObituaryPage))
	adminRouter.POST("/obituary/:id/edit", middleware.ValidateAndSanitizeForm[schemas.ObituaryRequest]("obituary_edit"), middleware.WithUser(adminHdl.EditObituary))
	adminRouter.GET("/obituary/:id/delete", middleware.WithUser(adminHdl.DeleteObituaryPage))
	adminRouter.POST("/obituary/:id/delete", middleware.WithUser(adminHdl.DeleteObituary))
}
