// Command wordfreq-ui serves the upload API and progress stream for a
// browser front end.
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

	wordfreq "github.com/hamedshahidi/word-frequency"
	"github.com/hamedshahidi/word-frequency/backend"
	"github.com/hamedshahidi/word-frequency/config"
	"github.com/hamedshahidi/word-frequency/logging"
	"github.com/hamedshahidi/word-frequency/ui"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML config file")
	pflag.String("listen", "", "address to serve on")
	pflag.String("backend-url", "", "address of the word frequency service")
	pflag.String("log-level", "", "debug, info, warn or error")
	pflag.Parse()

	cfg, err := config.Load(*configPath,
		config.WithDotEnv(".env"),
		config.WithFlag("ui.listen", pflag.Lookup("listen")),
		config.WithFlag("backend.url", pflag.Lookup("backend-url")),
		config.WithFlag("log.level", pflag.Lookup("log-level")))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(os.Stderr, "wordfreq-ui", cfg.Log.Level)
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
	client, err := backend.NewHTTPBackend(cfg.Backend.URL, &http.Client{Timeout: cfg.Backend.Timeout})
	if err != nil {
		return err
	}
	uploader, err := wordfreq.NewUploader(client,
		wordfreq.WithChunkSize(cfg.Upload.ChunkSize),
		wordfreq.WithLogger(log.With(logger, "component", "Uploader")))
	if err != nil {
		return err
	}
	defer uploader.Close()
	// Closing the server cancels an in-flight upload; uploader.Close then
	// waits for it to return to idle.
	server := ui.NewServer(uploader, log.With(logger, "component", "Hub"))
	defer server.Close()

	httpServer := &http.Server{Addr: cfg.UI.Listen, Handler: server.Router()}
	errs := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening", "addr", cfg.UI.Listen, "backend", client.URL())
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
