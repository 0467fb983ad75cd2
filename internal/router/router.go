package router

import (
	"net/http"
	"time"

	"github.com/andytwoods/iceplunge/internal/config"
	"github.com/andytwoods/iceplunge/internal/handlers"
	"github.com/andytwoods/iceplunge/internal/repository"
	"github.com/andytwoods/iceplunge/internal/services"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}
func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later."})
}

func Setup(log *zap.Logger, store *repository.Store, sessionService *services.SessionService, scheduler *services.NotificationScheduler) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	cookieStore := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("iceplunge", cookieStore))
	router.Use(UserLoaderMiddleware(log, store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	authHandler := handlers.NewAuthHandler(log, store)
	sessionHandler := handlers.NewSessionHandler(log, sessionService)
	plungeHandler := handlers.NewPlungeHandler(log, store, scheduler)
	notificationsHandler := handlers.NewNotificationsHandler(log, store)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	{
		api.POST("/register", limiter, authHandler.Register)
		api.POST("/login", limiter, authHandler.Login)
		api.POST("/logout", authHandler.Logout)

		authorized := api.Group("/")
		authorized.Use(AuthRequired())
		{
			sessionRoutes := authorized.Group("/sessions")
			{
				sessionRoutes.POST("/start", sessionHandler.Start)
				sessionRoutes.POST("/practice/:taskType", sessionHandler.StartPractice)
				sessionRoutes.POST("/submit", sessionHandler.Submit)
				sessionRoutes.POST("/skip", sessionHandler.Skip)
				sessionRoutes.POST("/meta", sessionHandler.Meta)
				sessionRoutes.POST("/:id/complete", sessionHandler.Complete)
			}

			authorized.POST("/plunges", plungeHandler.Create)

			notificationRoutes := authorized.Group("/notifications")
			{
				notificationRoutes.POST("/register-device", notificationsHandler.RegisterDevice)
				notificationRoutes.POST("/preferences", notificationsHandler.UpdatePreferences)
				notificationRoutes.POST("/opened", notificationsHandler.PromptOpened)
			}
		}
	}

	return router
}
