package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"naasprov/internal/cli"

	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.WithError(err).Error("naasprov failed")
		os.Exit(cli.GetExitCode(err))
	}
}
