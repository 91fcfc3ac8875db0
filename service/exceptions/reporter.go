package exceptions

import (
	"time"

	"github.com/getsentry/sentry-go"
)

const defaultFlushTimeout = time.Second * 5

// Reporter sends unexpected errors to an external source. Tags describe
// the request that failed.
type Reporter interface {
	ReportException(err error, tags map[string]string)
}

// New returns a SentryReporter, or a NoopReporter when dsn is empty
func New(dsn, env string) (Reporter, error) {
	if dsn == "" {
		return &NoopReporter{}, nil
	}
	return NewSentryReporter(dsn, env)
}

// NoopReporter is a no-op exception reporter
type NoopReporter struct{}

// ReportException does nothing
func (r *NoopReporter) ReportException(error, map[string]string) {}

// SentryReporter is a Reporter that sends error information to Sentry
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter creates and returns an instance of SentryReporter
func NewSentryReporter(dsn, env string) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: dsn, Environment: env})
	if err != nil {
		return nil, err
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// ReportException sends err to Sentry and waits for delivery
func (r *SentryReporter) ReportException(err error, tags map[string]string) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
	r.hub.Flush(defaultFlushTimeout)
}
