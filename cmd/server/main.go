package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/castlelight/gambit/internal/api/handlers"
	"github.com/castlelight/gambit/internal/api/middleware"
	"github.com/castlelight/gambit/internal/auth"
	"github.com/castlelight/gambit/internal/config"
	"github.com/castlelight/gambit/internal/crypto"
	"github.com/castlelight/gambit/internal/database"
	"github.com/castlelight/gambit/internal/engine"
	"github.com/castlelight/gambit/internal/game"
	"github.com/castlelight/gambit/internal/logger"
	"github.com/castlelight/gambit/internal/models"
	"github.com/castlelight/gambit/internal/websocket"
	wshandlers "github.com/castlelight/gambit/internal/websocket/handlers"
)

func main() {
	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Infof("Initializing JWT manager...")
	jwtManager, err := crypto.NewJWTManager(cfg.MasterSecret)
	if err != nil {
		logger.Errorf("Failed to create JWT manager: %v", err)
		os.Exit(1)
	}
	gate := auth.NewGate(&auth.JWTVerifier{Manager: jwtManager})

	// Orchestrator over the durable store and the rules oracle.
	store := &game.SQLStore{DB: db.DB, Queries: models.New(db.DB)}
	games := game.NewService(store, engine.New())

	logger.Infof("Initializing Socket.IO server...")
	socketIOServer := websocket.NewSocketIOServer(gate, wshandlers.NewDeps(games, nil))
	defer socketIOServer.Close()

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.Use(middleware.LoggingMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.String(200, "Welcome to Gambit Server!")
	})

	playersHandler := handlers.NewPlayersHandler(db.DB, jwtManager)
	gamesHandler := handlers.NewGamesHandler(games)

	v1 := router.Group("/v1")
	{
		v1.POST("/players", playersHandler.PostPlayer)
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(gate))
	{
		protected.GET("/players/me", playersHandler.GetMe)
		protected.GET("/games/:id", gamesHandler.GetGame)
	}

	// Socket.IO endpoint, mounted outside the authed groups; auth runs
	// in the connection handshake.
	router.Any("/v1/socket", socketIOServer.HandleSocketIO())
	router.Any("/v1/socket/*any", socketIOServer.HandleSocketIO())

	logger.Infof("Server starting on %s", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		logger.Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}
