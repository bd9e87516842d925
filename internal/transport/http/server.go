package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "studyassist/internal/app"
	"studyassist/internal/bootstrap"
	"studyassist/internal/repository"
	"studyassist/internal/transport/http/handler"
	"studyassist/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     app.Config.CORS.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	docRepo := repository.NewDocumentRepository(app.DB)
	chunkRepo := repository.NewChunkRepository(app.DB)
	sessionRepo := repository.NewChatSessionRepository(app.DB)
	messageRepo := repository.NewChatMessageRepository(app.DB)
	studyRepo := repository.NewStudyRepository(app.DB)

	opts := appsvc.ProcessingOptions{
		ChunkSize:    app.Config.Processing.ChunkSize,
		ChunkOverlap: app.Config.Processing.ChunkOverlap,
		TopK:         app.Config.Processing.TopK,
		Multilingual: app.Config.Processing.EnableMultilingual,
	}

	authService := appsvc.NewAuthService(
		userRepo,
		docRepo,
		app.Config.Auth.Enabled,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	docService := appsvc.NewDocumentService(
		docRepo,
		chunkRepo,
		sessionRepo,
		messageRepo,
		studyRepo,
		app.VectorStore,
		app.Embedder,
		app.Config.Upload.Directory,
		app.Config.Upload.MaxSize,
		opts,
	)

	// Interface fields must stay untyped nil when the backing service is
	// down, so the chat service's nil checks keep working.
	var publisher appsvc.AsyncMessagePublisher
	if app.Publisher != nil {
		publisher = app.Publisher
	}
	var historyCache appsvc.HistoryCache
	if app.HistoryCache != nil {
		historyCache = app.HistoryCache
	}

	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		docRepo,
		app.VectorStore,
		app.Embedder,
		app.Completer,
		publisher,
		historyCache,
		opts,
		app.Config.LLM.MaxContextMessage,
	)
	studyService := appsvc.NewStudyService(docRepo, studyRepo, opts)

	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService)
	chatHandler := handler.NewChatHandler(chatService)
	studyHandler := handler.NewStudyHandler(studyService)

	demoIdentity := func() (string, string, error) {
		demo, err := authService.DemoUser()
		if err != nil {
			return "", "", err
		}
		return demo.ID, demo.Username, nil
	}
	authMW := middleware.Auth(app.Config.Auth.JWTSecret, app.Config.Auth.Enabled, demoIdentity)

	api := router.Group(app.Config.App.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/profile", authMW, authHandler.Profile)

	docGroup := api.Group("/documents")
	docGroup.Use(authMW)
	docGroup.POST("/upload", docHandler.Upload)
	docGroup.GET("", docHandler.List)
	docGroup.GET("/:id", docHandler.Get)
	docGroup.DELETE("/:id", docHandler.Delete)
	docGroup.POST("/search", docHandler.Search)

	chatGroup := api.Group("/chat")
	chatGroup.Use(authMW)
	chatGroup.POST("/message", chatHandler.SendMessage)
	chatGroup.POST("/message/stream", chatHandler.StreamMessage)
	chatGroup.GET("/history/:documentID", chatHandler.GetHistory)
	chatGroup.POST("/history/save", chatHandler.SaveHistory)
	chatGroup.GET("/export/:documentID", chatHandler.Export)

	studyGroup := api.Group("/study-tools")
	studyGroup.Use(authMW)
	studyGroup.POST("/flashcards", studyHandler.GenerateFlashcards)
	studyGroup.POST("/summary", studyHandler.GenerateSummary)
	studyGroup.POST("/quiz", studyHandler.GenerateQuiz)
	studyGroup.GET("/quiz/:documentID", studyHandler.GetQuiz)

	return router
}
