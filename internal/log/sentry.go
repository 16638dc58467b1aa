package log

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"slidesmith/app/internal/config"
)

// sentryLevels are the logrus levels forwarded to Sentry. Generation runs log
// degraded-quality markers at Warn; those stay local.
var sentryLevels = []logrus.Level{
	logrus.ErrorLevel,
	logrus.FatalLevel,
	logrus.PanicLevel,
}

const sentryFlushTimeout = 2 * time.Second

// InitSentry attaches Sentry error reporting to the logger when a DSN is
// configured and returns a flush function to call before the process exits.
// Without a DSN it is a no-op so local runs never need a Sentry account.
func InitSentry(logger *logrus.Logger, cfg config.SentryConfig, environment, release string) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, eris.Wrap(err, "initialising sentry client")
	}

	logger.AddHook(sentrylogrus.NewLogHookFromClient(sentryLevels, client))

	return func() {
		client.Flush(sentryFlushTimeout)
	}, nil
}
