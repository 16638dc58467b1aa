package log

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"slidesmith/app/internal/config"
)

// New builds the process logger from the log configuration. Output is JSON so
// structured fields like run_id survive into whatever collects the logs.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	logger.SetLevel(logrus.InfoLevel)

	if cfg.Level == "" {
		return logger, nil
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level: %s", cfg.Level)
	}
	logger.SetLevel(level)

	return logger, nil
}
