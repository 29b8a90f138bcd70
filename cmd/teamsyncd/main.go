package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/BergQuester/client/internal/config"
	"github.com/BergQuester/client/internal/orchestrator"
	"github.com/BergQuester/client/internal/remote/rpc"
	"github.com/BergQuester/client/internal/store"
	"github.com/BergQuester/client/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "teamsyncd",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	client := rpc.New(cfg.ServerURL, cfg.SessionToken, logger)

	st, err := store.New(logger)
	if err != nil {
		log.Fatal(err)
	}

	orc := orchestrator.New(client, client, st, cfg.Username, logger)
	dispatcher, err := orchestrator.NewDispatcher(orc, logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := ws.NewFeed(cfg.GregorWSURL, cfg.SessionToken, dispatcher.Dispatch, logger)
	go feed.Run(ctx)

	// Prime the cache with the current roster and push state.
	dispatcher.Dispatch(orchestrator.Event{Kind: orchestrator.KindGetTeams})

	logger.Info("teamsyncd running", "server", cfg.ServerURL)
	dispatcher.Run(ctx)
}
