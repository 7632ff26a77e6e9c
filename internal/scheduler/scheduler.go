package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Jahvion/ControlDeJavi/internal/expiry"
	"github.com/Jahvion/ControlDeJavi/internal/logging"
	"github.com/Jahvion/ControlDeJavi/internal/metrics"
	"github.com/Jahvion/ControlDeJavi/internal/notify"
	"github.com/Jahvion/ControlDeJavi/internal/store"
)

// DigestHeader prefixes every scheduled digest message.
const DigestHeader = "⏰ ControlDeJavi — daily expiration check\n"

// Config holds scheduler configuration.
type Config struct {
	Enabled  bool
	Hour     int
	Minute   int
	Timezone string
}

// ProductLister is the subset of the store needed by the digest job.
type ProductLister interface {
	List(categoryFilter string) ([]store.Product, error)
}

// Scheduler runs the daily expiration digest at a fixed wall-clock time in
// the configured timezone. Only one job is ever registered; overlapping runs
// are skipped, and a panicking run is recovered and logged so the entry
// stays eligible for its next occurrence.
type Scheduler struct {
	cron       *cron.Cron
	location   *time.Location
	products   ProductLister
	summarizer *expiry.Summarizer
	notifier   notify.Notifier
	metrics    *metrics.Set
	config     Config
	logger     logging.Logger
	stopped    chan struct{}
	stopOnce   sync.Once
}

// New creates a Scheduler. The timezone must resolve via the tz database;
// an unresolvable name is an error rather than a silent UTC fallback because
// the digest time is a wall-clock contract.
func New(cfg Config, products ProductLister, summarizer *expiry.Summarizer, notifier notify.Notifier, set *metrics.Set, logger logging.Logger) (*Scheduler, error) {
	logger = logging.OrNop(logger)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.Hour < 0 || cfg.Hour > 23 || cfg.Minute < 0 || cfg.Minute > 59 {
		return nil, fmt.Errorf("invalid notify time %02d:%02d", cfg.Hour, cfg.Minute)
	}
	if summarizer == nil {
		summarizer = expiry.NewSummarizer()
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}

	return &Scheduler{
		cron:       newCron(location, logger),
		location:   location,
		products:   products,
		summarizer: summarizer,
		notifier:   notifier,
		metrics:    set,
		config:     cfg,
		logger:     logger,
		stopped:    make(chan struct{}),
	}, nil
}

func newCron(location *time.Location, logger logging.Logger) *cron.Cron {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	cronLogger := cron.PrintfLogger(printfAdapter{logger})
	return cron.New(
		cron.WithParser(parser),
		cron.WithLocation(location),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)
}

// printfAdapter bridges logging.Logger to cron's printf-style logger.
type printfAdapter struct {
	logger logging.Logger
}

func (a printfAdapter) Printf(format string, args ...any) {
	a.logger.Warn(format, args...)
}

// Start registers the daily digest entry and starts the cron loop. The
// schedule is re-derived from the cron expression in the configured location
// on every start, so restarts and DST transitions land on the same
// wall-clock time.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("scheduler disabled by config")
		return nil
	}

	schedule := fmt.Sprintf("%d %d * * *", s.config.Minute, s.config.Hour)
	if _, err := s.cron.AddFunc(schedule, func() {
		s.RunDigest(context.Background())
	}); err != nil {
		return fmt.Errorf("register daily digest: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started: daily digest at %02d:%02d %s",
		s.config.Hour, s.config.Minute, s.location)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to return.
// Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("scheduler stopping...")
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		close(s.stopped)
		s.logger.Info("scheduler stopped")
	})
}

// Done returns a channel that is closed when the scheduler has fully stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.stopped
}

// NextRun reports the next scheduled execution time, zero when no entry is
// registered.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunDigest executes one digest cycle: list products, summarize with "today"
// resolved in the configured timezone, dispatch with the fixed header. It is
// the cron job body and is also invoked synchronously by the HTTP test
// endpoint and the notify CLI verb. Failures are contained and reported as
// false.
func (s *Scheduler) RunDigest(ctx context.Context) bool {
	return s.runDigest(ctx, DigestHeader)
}

// RunDigestWithHeader is RunDigest with a caller-chosen header line.
func (s *Scheduler) RunDigestWithHeader(ctx context.Context, header string) bool {
	return s.runDigest(ctx, header)
}

func (s *Scheduler) runDigest(ctx context.Context, header string) bool {
	products, err := s.products.List("")
	if err != nil {
		s.logger.Error("digest: listing products failed: %v", err)
		s.countFailure()
		return false
	}

	today := time.Now().In(s.location)
	report := s.summarizer.Summarize(today, products)

	ok := s.notifier.Send(ctx, header+report)
	if ok {
		s.logger.Info("digest dispatched: %d products considered", len(products))
		if s.metrics != nil {
			s.metrics.NotificationsSent.Inc()
		}
	} else {
		s.logger.Warn("digest dispatch failed")
		s.countFailure()
	}
	return ok
}

func (s *Scheduler) countFailure() {
	if s.metrics != nil {
		s.metrics.NotificationsFailed.Inc()
	}
}
