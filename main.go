package main

import (
	"context"
	"log"
	"os"

	"github.com/example/nextalk-server/config"
	"github.com/example/nextalk-server/modules/account"
	"github.com/example/nextalk-server/modules/api"
	"github.com/example/nextalk-server/modules/broadcast"
	"github.com/example/nextalk-server/modules/chat"
	"github.com/example/nextalk-server/modules/history"
	"github.com/example/nextalk-server/modules/rooms"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== NexTalk chat server ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Room membership is shared by the broadcaster (room fan-out) and the
	// chat relay (join/leave).
	roomManager := rooms.NewManager()

	broadcastModule := broadcast.NewModule(cfg.SendBuffer, roomManager, logger.WithModule("broadcast"))
	historyModule := history.NewModule(
		history.NewConfig(
			history.WithBackend(cfg.HistoryBackend),
			history.WithDefaultLimit(cfg.HistoryLimit),
			history.WithSQLitePath(cfg.SQLitePath),
			history.WithDatabaseURL(cfg.DatabaseURL),
			history.WithRedis(cfg.RedisAddr, cfg.RedisPrefix),
		),
		logger.WithModule("history"),
	)
	chatModule := chat.NewModule(broadcastModule.Broadcaster(), roomManager, cfg.HistoryLimit, logger.WithModule("chat"))
	accountModule := account.NewModule(cfg.AccountDBPath, cfg.BcryptCost, logger.WithModule("account"))
	apiModule := api.NewModule(
		cfg.Addr(),
		cfg.AllowedOrigins(),
		cfg.HistoryLimit,
		chatModule.Relay(),
		broadcastModule.Hub(),
		logger.WithModule("api"),
	)

	// Independent modules first, then the ones that depend on them.
	app.Register(broadcastModule)
	app.Register(historyModule)
	app.Register(accountModule)
	app.Register(chatModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("  History backend: %s (last %d messages per room)", cfg.HistoryBackend, cfg.HistoryLimit)
	log.Printf("  Accounts database: %s", cfg.AccountDBPath)
	log.Println("")
	log.Printf("WebSocket endpoint: ws://localhost:%d/ws", cfg.Port)
	log.Println("  Inbound events: register, join_room, send_message, typing, stop_typing")
	log.Println("  Outbound events: online_users, chat_history, receive_message, display_typing, hide_typing")
	log.Println("")
	log.Printf("HTTP endpoints (http://localhost:%d):", cfg.Port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  GET    /api/v1/online                 - Online usernames")
	log.Println("  GET    /api/v1/rooms                  - Rooms with members")
	log.Println("  GET    /api/v1/rooms/:room/history    - Recent messages")
	log.Println("  POST   /signup                        - Create an account")
	log.Println("  POST   /login                         - Check credentials")
	log.Println("  GET    /users                         - Registered usernames")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
