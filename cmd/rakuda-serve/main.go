// Command rakuda-serve is a minimal demo binary wiring an Application onto
// the default net/http Transport. It exists as runnable scaffolding for
// the core (spec.md's "process startup/CLI" is explicitly out of scope for
// the routing/middleware/WebSocket core itself), kept intentionally thin.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/go-rakuda/rakuda"
	"github.com/go-rakuda/rakuda/rakudamiddleware"
	"github.com/go-rakuda/rakuda/wshub"
)

func main() {
	addr := pflag.StringP("addr", "a", ":8080", "address to listen on")
	basePath := pflag.StringP("base-path", "b", "", "base path prefix for every route")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	app := rakuda.New(rakuda.WithBasePath(*basePath), rakuda.WithLogger(logger))
	app.Use(rakudamiddleware.Recovery)
	app.Use(rakudamiddleware.HTTPLog)
	app.Use(rakudamiddleware.CORS(nil))

	if err := app.Get("/healthz", func(*rakuda.RequestEvent) (rakuda.Responder, error) {
		return rakuda.Text("ok"), nil
	}); err != nil {
		logger.Error("failed to register route", "error", err)
		os.Exit(1)
	}

	app.WS("/echo", echoHandler(app.Hub()))

	PrintRoutes(app)

	logger.Info("listening", "addr", *addr)
	if err := app.Serve(*addr); err != nil && err != http.ErrServerClosed {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// PrintRoutes writes the registered route table to stdout on startup.
func PrintRoutes(app *rakuda.App) {
	rakuda.PrintRoutes(os.Stdout, app)
	fmt.Fprintln(os.Stdout)
}

// echoHandler subscribes every connecting peer to a single "broadcast"
// channel and echoes every inbound message to that channel, demonstrating
// the hub's pub/sub fan-out end to end.
func echoHandler(hub *wshub.Hub) wshub.Handler {
	return func(ev wshub.Event) {
		switch ev.Kind {
		case wshub.EventOpen:
			ev.Peer.Subscribe("broadcast")
		case wshub.EventMessage:
			if ev.IsBytes {
				hub.PublishBytes("broadcast", ev.Bytes)
			} else {
				hub.Publish("broadcast", ev.Text)
			}
		}
	}
}
