// Command wordfreq uploads a text file to the word frequency service in
// chunks and prints the K most frequent words.
//
//	wordfreq --file words.txt --k 5 [--config wordfreq.yml]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/pflag"

	wordfreq "github.com/hamedshahidi/word-frequency"
	"github.com/hamedshahidi/word-frequency/backend"
	"github.com/hamedshahidi/word-frequency/config"
	"github.com/hamedshahidi/word-frequency/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run returns 0 on success, 1 when the upload fails and 2 for bad input.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	stderr = log.NewSyncWriter(stderr)
	flags := pflag.NewFlagSet("wordfreq", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	file := flags.StringP("file", "f", "", "text file to analyze")
	k := flags.StringP("k", "k", "", "number of most frequent words to show")
	configPath := flags.StringP("config", "c", "", "YAML config file")
	flags.String("backend-url", "", "address of the word frequency service")
	flags.Duration("timeout", 0, "timeout of each request, 0 for none")
	flags.Int64("chunk-size", 0, "bytes per uploaded chunk")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Bool("quiet", false, "do not print progress")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath,
		config.WithDotEnv(".env"),
		config.WithFlag("backend.url", flags.Lookup("backend-url")),
		config.WithFlag("backend.timeout", flags.Lookup("timeout")),
		config.WithFlag("upload.chunk_size", flags.Lookup("chunk-size")),
		config.WithFlag("log.level", flags.Lookup("log-level")))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger, err := logging.New(stderr, "wordfreq", cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	client, err := backend.NewHTTPBackend(cfg.Backend.URL, &http.Client{Timeout: cfg.Backend.Timeout})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	uploader, err := wordfreq.NewUploader(client,
		wordfreq.WithChunkSize(cfg.Upload.ChunkSize),
		wordfreq.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer uploader.Close()

	quiet, _ := flags.GetBool("quiet")
	printed := make(chan struct{})
	updates, unsubscribe := uploader.Subscribe()
	go func() {
		defer close(printed)
		for snapshot := range updates {
			if !quiet && snapshot.Phase != wordfreq.PhaseIdle {
				fmt.Fprintln(stderr, snapshot)
			}
		}
	}()
	defer func() {
		unsubscribe()
		<-printed
	}()

	job, err := uploader.Submit(ctx, wordfreq.Submission{File: *file, K: *k})
	if err != nil {
		var verr *wordfreq.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(stderr, verr.Message)
			return 2
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	result, err := job.Wait()
	if err != nil {
		level.Error(logger).Log("msg", "upload failed", "file", *file, "err", err)
		fmt.Fprintf(stderr, "Upload failed: %v\n", err)
		return 1
	}

	if err := printTable(stdout, result); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// printTable writes the result rows as two aligned columns.
func printTable(w io.Writer, result wordfreq.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tFREQUENCY")
	for _, row := range result.Rows {
		fmt.Fprintf(tw, "%s\t%d\n", row.Word, row.Frequency)
	}
	if result.Unpaired > 0 {
		fmt.Fprintf(tw, "(%d unpaired entries dropped)\t\n", result.Unpaired)
	}
	return tw.Flush()
}
