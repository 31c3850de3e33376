package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/synth/cli"
	"github.com/ardnew/synth/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Error("run failed", slog.Any("error", err)) // LogValue renders the attrs
		os.Exit(1)
	}
}
