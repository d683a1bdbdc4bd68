package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/midtrans/midtrans-go"
	"github.com/spf13/viper"

	_ "github.com/jackc/pgx/v5/stdlib"

	"busker-platform/internal/handlers"
	"busker-platform/internal/middleware"
	"busker-platform/internal/payout"
	"busker-platform/internal/service"
	"busker-platform/internal/store"
	"busker-platform/internal/websocket"
)

// This struct will hold our loaded configuration
type Config struct {
	DSN                 string `mapstructure:"DSN"`
	JWT_SECRET          string `mapstructure:"JWT_SECRET"`
	MIDTRANS_SERVER_KEY string `mapstructure:"MIDTRANS_SERVER_KEY"`
	IRIS_API_KEY        string `mapstructure:"IRIS_API_KEY"`
	PAYOUT_DEFAULT_BANK string `mapstructure:"PAYOUT_DEFAULT_BANK"`
}

// Function loads the config.env file from the root folder
func loadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

func main() {
	log.Println("Starting busker platform server...")

	// Load Configuration
	config, err := loadConfig()
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	// Connect to the Database
	db, err := sqlx.Connect("pgx", config.DSN)
	if err != nil {
		log.Fatal("cannot connect to database:", err)
	}
	defer db.Close()
	log.Println("Successfully connected to Supabase (PostgreSQL)!")

	if err := store.RunMigrations(db); err != nil {
		log.Fatal("cannot run migrations:", err)
	}

	// Stores own all persistent mutation; nothing else writes wallet or
	// roster rows.
	users := store.NewUsers(db)
	profiles := store.NewProfiles(db)
	rosters := store.NewRosters(db)
	wallets := store.NewWallets(db)
	invites := store.NewInvites(db)
	tips := store.NewTips(db)
	withdrawals := store.NewWithdrawals(db)

	irisGateway := payout.NewIrisGateway(config.IRIS_API_KEY, config.PAYOUT_DEFAULT_BANK, midtrans.Sandbox)

	engine := service.NewTipDistributionEngine(tips, rosters, wallets, profiles)
	inviteService := service.NewInviteService(invites, rosters, profiles, users)
	withdrawalService := service.NewWithdrawalService(withdrawals, wallets, rosters, profiles, irisGateway)

	// The websocket hub pushes live tip alerts to profile dashboards
	hub := websocket.NewHub()
	go hub.Run()

	// Set up our Gin router
	r := gin.Default()
	r.Use(cors.Default())

	// Simple test route
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Create an instance of the handlers
	authHandler := handlers.NewAuthHandler(users, config.JWT_SECRET)
	profileHandler := handlers.NewProfileHandler(profiles, rosters, wallets)
	tipHandler := handlers.NewTipHandler(tips, profiles, engine, config.MIDTRANS_SERVER_KEY, hub)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	wsHandler := handlers.NewWebSocketHandler(profiles, hub)

	r.GET("/ws/:widgetToken", wsHandler.ServeWs)

	// All API routes under /api
	api := r.Group("/api")
	{
		// Auth Endpoint
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Public endpoints
		api.POST("/tips/:profileName", tipHandler.CreateTip)
		api.POST("/webhook/payment", tipHandler.HandlePaymentNotification)
		api.GET("/invites/token/:token", inviteHandler.LookupToken)

		// Protected Endpoint
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(config.JWT_SECRET))
		{
			protected.GET("/me", profileHandler.GetMe)
			protected.GET("/me/wallet", profileHandler.GetWallet)
			protected.PATCH("/profiles/:profileId/bank-account", profileHandler.SetBankAccount)

			protected.POST("/invites/send", inviteHandler.Send)
			protected.GET("/invites/profile/:profileId", inviteHandler.ListForProfile)
			protected.GET("/invites/me", inviteHandler.ListMine)
			protected.POST("/invites/accept", inviteHandler.Accept)
			protected.POST("/invites/reject", inviteHandler.Reject)
			protected.DELETE("/invites/:id", inviteHandler.Cancel)

			protected.POST("/withdrawals/request", withdrawalHandler.Request)
			protected.GET("/withdrawals/:profileId", withdrawalHandler.ListForProfile)
			protected.PATCH("/withdrawals/:id/approve", withdrawalHandler.Approve)
			protected.PATCH("/withdrawals/:id/reject", withdrawalHandler.Reject)
			protected.PATCH("/withdrawals/:id/mark-completed", withdrawalHandler.MarkCompleted)
		}
	}

	// Start the server
	log.Println("Server starting on http://localhost:8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatal("could not start server:", err)
	}
}
