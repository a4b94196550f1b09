package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/Tyrowin/roomchat/internal/server"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := server.LoadDotEnv(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "roomchat",
		Usage: "real-time room chat over WebSockets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen address, e.g. :8080 (env SERVER_PORT)"},
			&cli.StringFlag{Name: "allowed-origins", Usage: "comma separated WebSocket origins, * for any (env ALLOWED_ORIGINS)"},
			&cli.Int64Flag{Name: "max-message-size", Usage: "largest inbound frame in bytes (env MAX_MESSAGE_SIZE)"},
			&cli.IntFlag{Name: "send-buffer-size", Usage: "queued outbound frames per connection (env SEND_BUFFER_SIZE)"},
			&cli.IntFlag{Name: "rate-limit-burst", Usage: "frames allowed per refill interval (env RATE_LIMIT_BURST)"},
			&cli.DurationFlag{Name: "rate-limit-refill", Usage: "token bucket refill interval (env RATE_LIMIT_REFILL_INTERVAL)"},
		},
		Action: run,
	}
}

// configFromCommand starts from the environment and lets explicit flags win.
func configFromCommand(cmd *cli.Command) *server.Config {
	cfg := server.NewConfigFromEnv()

	if cmd.IsSet("port") {
		cfg.Port = cmd.String("port")
	}
	if cmd.IsSet("allowed-origins") {
		cfg.AllowedOrigins = server.ParseOrigins(cmd.String("allowed-origins"))
	}
	if cmd.IsSet("max-message-size") {
		cfg.MaxMessageSize = cmd.Int64("max-message-size")
	}
	if cmd.IsSet("send-buffer-size") {
		cfg.SendBufferSize = cmd.Int("send-buffer-size")
	}
	if cmd.IsSet("rate-limit-burst") {
		cfg.RateLimit.Burst = cmd.Int("rate-limit-burst")
	}
	if cmd.IsSet("rate-limit-refill") {
		cfg.RateLimit.RefillInterval = cmd.Duration("rate-limit-refill")
	}

	return cfg
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := server.SetConfig(configFromCommand(cmd))
	log.Printf("Starting room chat server on %s (origins %v)", cfg.Port, cfg.AllowedOrigins)

	app := server.NewApp(room.NewRegistry())
	app.Start()

	httpServer := server.CreateServer(cfg.Port, server.SetupRoutes(app))
	go func() {
		if err := server.StartServer(httpServer); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(context.Context) error {
				return server.ShutdownServer(httpServer, shutdownTimeout)
			},
			"hub": func(context.Context) error {
				return app.Shutdown(shutdownTimeout)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
	return nil
}
