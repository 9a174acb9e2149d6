// Package logging builds the go-kit loggers used by the wordfreq commands.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logfmt logger writing to w that drops records below lvl
// (debug, info, warn or error) and tags each record with svc, a UTC
// timestamp and the caller.
func New(w io.Writer, svc, lvl string) (log.Logger, error) {
	allow, err := allowed(lvl)
	if err != nil {
		return nil, err
	}
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(w)
		logger = log.NewSyncLogger(logger)
		logger = level.NewFilter(logger, allow)
		logger = log.With(logger,
			"svc", svc,
			"ts", log.DefaultTimestampUTC,
			"caller", log.DefaultCaller,
		)
	}
	return logger, nil
}

func allowed(lvl string) (level.Option, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, fmt.Errorf("unknown log level %q", lvl)
}
