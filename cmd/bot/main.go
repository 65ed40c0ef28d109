package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/edirpay/configs"
	"github.com/anjiri1684/edirpay/database"
	"github.com/anjiri1684/edirpay/handlers"
	"github.com/anjiri1684/edirpay/jobs"
	"github.com/anjiri1684/edirpay/notifications"
	"github.com/anjiri1684/edirpay/routes"
	"github.com/anjiri1684/edirpay/services"
	"github.com/anjiri1684/edirpay/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := database.ConnectDB(cfg.DatabaseURL)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("🔥 Bot init failed: %v", err)
	}
	botAPI.Debug = false

	notifier := notifications.NewTelegramNotifier(botAPI)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	ledger := services.NewLedger(db)
	reports := services.NewReports(ledger)
	pipeline := services.NewPipeline(ledger, services.NewCorrelator(ledger), notifier, services.PipelineConfig{
		GroupID:   cfg.GroupID,
		Approvers: cfg.Approvers,
	}).WithEvents(hub)
	if cfg.CloudinaryURL != "" {
		archiver, err := services.NewCloudinaryArchiver(cfg.CloudinaryURL, notifier.FileURL)
		if err != nil {
			log.Printf("⚠️ Receipt archive disabled: %v", err)
		} else {
			pipeline.WithArchiver(archiver)
			log.Println("✅ Receipt archive enabled.")
		}
	}
	approvals := services.NewApprovals(ledger, notifier, services.ApprovalConfig{
		GroupID:   cfg.GroupID,
		Approvers: cfg.Approvers,
	}).WithEvents(hub)

	backup := jobs.NewBackup(reports, notifier)
	var backupChat int64
	if len(cfg.AdminIDs) > 0 {
		backupChat = cfg.AdminIDs[0]
	}
	scheduled := jobs.New(ledger, notifier, backup, jobs.Config{
		PendingTTL:    cfg.PendingTTL,
		ReminderAfter: cfg.ReminderAfter,
		BackupSpec:    cfg.BackupSpec,
		BackupChatID:  backupChat,
	})
	c := cron.New()
	if err := scheduled.Schedule(c); err != nil {
		log.Fatalf("🔥 Invalid job schedule: %v", err)
	}
	c.Start()
	defer c.Stop()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:      "EdirPay",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Telegram-Init-Data, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods: "GET, POST, OPTIONS",
		MaxAge:       86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Africa/Addis_Ababa",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	dashboard := handlers.NewDashboard(ledger, reports, pipeline, hub, handlers.DashboardConfig{
		JWTSecret:    cfg.JWTSecret,
		PasswordHash: cfg.DashboardHash,
	})
	routes.Setup(app, dashboard, cfg.JWTSecret, cfg.BotToken)

	go func() {
		log.Printf("✅ Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("🔥 Server stopped: %v", err)
		}
	}()

	bot := handlers.NewBotHandler(botAPI, ledger, pipeline, approvals, reports, backup, handlers.BotConfig{
		MiniAppURL: cfg.MiniAppURL,
		AdminIDs:   cfg.AdminIDs,
	})

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	log.Printf("🚀 EdirPay started as @%s", botAPI.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down...")
			botAPI.StopReceivingUpdates()
			if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
				log.Printf("⚠️ HTTP shutdown: %v", err)
			}
			return
		case upd := <-updates:
			bot.HandleUpdate(ctx, upd)
		}
	}
}
