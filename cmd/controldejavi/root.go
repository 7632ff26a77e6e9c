package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Jahvion/ControlDeJavi/internal/config"
	"github.com/Jahvion/ControlDeJavi/internal/expiry"
	"github.com/Jahvion/ControlDeJavi/internal/httpapi"
	"github.com/Jahvion/ControlDeJavi/internal/logging"
	"github.com/Jahvion/ControlDeJavi/internal/metrics"
	"github.com/Jahvion/ControlDeJavi/internal/notify"
	"github.com/Jahvion/ControlDeJavi/internal/scheduler"
	"github.com/Jahvion/ControlDeJavi/internal/store"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "controldejavi",
		Short: "Perishable product tracker with daily expiration digests",
		Long: "ControlDeJavi tracks perishable products over a small HTTP API and " +
			"sends a daily Telegram digest of items that are expired or about to expire.",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newNotifyCommand())
	return root
}

// deps bundles the wired components shared by the serve and notify verbs.
type deps struct {
	cfg      config.Config
	logger   logging.Logger
	store    *store.Store
	notifier notify.Notifier
	metrics  *metrics.Set
	sched    *scheduler.Scheduler
}

func buildDeps(schedulerEnabled bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	productStore, err := store.Open(cfg.DataFile, logging.WithComponent(logger, "Store"))
	if err != nil {
		return nil, fmt.Errorf("open product store: %w", err)
	}

	notifier := notify.NewTelegramNotifier(
		cfg.TelegramBotToken,
		cfg.TelegramChatID,
		logging.WithComponent(logger, "Telegram"),
	)

	set, err := metrics.New()
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.New(scheduler.Config{
		Enabled:  schedulerEnabled && cfg.SchedulerEnabled,
		Hour:     cfg.NotifyHour,
		Minute:   cfg.NotifyMinute,
		Timezone: cfg.Timezone,
	}, productStore, expiry.NewSummarizer(), notifier, set, logging.WithComponent(logger, "Scheduler"))
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	return &deps{
		cfg:      cfg,
		logger:   logger,
		store:    productStore,
		notifier: notifier,
		metrics:  set,
		sched:    sched,
	}, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily digest scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Best-effort startup announcement, matching the digest channel.
			startupMsg := fmt.Sprintf("✅ ControlDeJavi backend up. Daily notifications at %02d:%02d (%s).",
				d.cfg.NotifyHour, d.cfg.NotifyMinute, d.cfg.Timezone)
			if !d.notifier.Send(ctx, startupMsg) {
				d.logger.Warn("startup announcement not delivered")
			}

			if err := d.sched.Start(ctx); err != nil {
				return err
			}

			engine := httpapi.NewRouter(httpapi.Config{
				APIKey:      d.cfg.APIKey,
				Port:        d.cfg.Port,
				FrontendDir: d.cfg.FrontendDir,
			}, d.store, d.sched, d.metrics, logging.WithComponent(d.logger, "HTTP"))

			server := httpapi.NewServer(httpapi.Config{Port: d.cfg.Port}, engine,
				logging.WithComponent(d.logger, "HTTP"))

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return server.Run(groupCtx)
			})

			err = group.Wait()
			d.sched.Stop()
			<-d.sched.Done()
			return err
		},
	}
}

func newNotifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send one expiration digest now and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(false)
			if err != nil {
				return err
			}

			if !d.sched.RunDigest(cmd.Context()) {
				return fmt.Errorf("digest dispatch failed")
			}
			return nil
		},
	}
}
