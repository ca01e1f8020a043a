package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardtrack/cardtrack/internal/build"
	"github.com/cardtrack/cardtrack/internal/cmd/root"
	"github.com/cardtrack/cardtrack/internal/iostreams"
)

var (
	// version, commit and date may be overridden by the linker.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func registerSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			fmt.Fprintln(os.Stderr, "received", sig, ", terminating...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func main() {
	ctx, cancel := registerSignalHandler()
	code := root.Execute(ctx, iostreams.GetOSIOStreams(), &build.Info{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	cancel()
	os.Exit(code)
}
