// Command wordfreq-refserver runs a local word frequency service that
// answers /upload and /upload-chunk.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/pflag"

	"github.com/hamedshahidi/word-frequency/config"
	"github.com/hamedshahidi/word-frequency/logging"
	"github.com/hamedshahidi/word-frequency/refserver"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML config file")
	pflag.String("listen", "", "address to serve on")
	pflag.Int("cache-size", 0, "number of results to cache")
	pflag.String("log-level", "", "debug, info, warn or error")
	pflag.Parse()

	cfg, err := config.Load(*configPath,
		config.WithDotEnv(".env"),
		config.WithFlag("refserver.listen", pflag.Lookup("listen")),
		config.WithFlag("refserver.cache_size", pflag.Lookup("cache-size")),
		config.WithFlag("log.level", pflag.Lookup("log-level")))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(os.Stderr, "wordfreq-refserver", cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := serve(ctx, cfg, logger); err != nil {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	server, err := refserver.New(cfg.Refserver.CacheSize, log.With(logger, "component", "Server"))
	if err != nil {
		return err
	}
	httpServer := &http.Server{Addr: cfg.Refserver.Listen, Handler: server.Router()}
	errs := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening", "addr", cfg.Refserver.Listen, "cache_size", cfg.Refserver.CacheSize)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	level.Info(logger).Log("msg", "shut down")
	return nil
}
