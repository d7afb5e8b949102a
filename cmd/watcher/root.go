package main

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iiviie/liveblog-watch/internal/config"
	"github.com/iiviie/liveblog-watch/internal/logger"
	"github.com/iiviie/liveblog-watch/internal/notifier"
	"github.com/iiviie/liveblog-watch/internal/scraper"
	"github.com/iiviie/liveblog-watch/internal/storage"
	"github.com/iiviie/liveblog-watch/internal/watcher"
)

type globalFlags struct {
	configFile string
	debug      bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "watcher",
		Short: "Notify about new posts on a live blog",
		Long: `Checks the live blog once: new posts are sent as notifications and
recorded so the next run skips them. Schedule it externally (cron, systemd
timer) and never run two checks against the same store at once.

Exit status is 0 on success, 1 on a fatal error and 2 when some
notifications failed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newHistoryCommand(flags))

	return cmd
}

// setup loads .env, the configuration and the logger
func setup(flags *globalFlags) (*config.Config, logger.Logger, error) {
	// A missing .env is normal; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(flags.configFile)
	if err != nil {
		return nil, nil, err
	}
	if flags.debug {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func runCheck(cmd *cobra.Command, flags *globalFlags) error {
	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("Checking live blog",
		logger.String("page_url", cfg.Page.URL),
		logger.String("store_path", cfg.Store.Path),
		logger.String("notifier", cfg.Notifier.Type),
	)

	n, err := newNotifier(cfg)
	if err != nil {
		log.Error("Failed to configure notifier", logger.Error(err))
		return &loggedError{err: err}
	}

	var journal storage.Journal
	if cfg.Journal.Path != "" {
		j, err := storage.NewSQLiteJournal(cfg.Journal.Path)
		if err != nil {
			log.Error("Failed to open run journal", logger.String("path", cfg.Journal.Path), logger.Error(err))
			return &loggedError{err: err}
		}
		defer j.Close()
		journal = j
	}

	runner := watcher.NewRunner(watcher.Options{
		Fetcher:   scraper.NewPageFetcher(cfg.Page.URL, cfg.Page.UserAgent, cfg.Page.Timeout),
		LoadStore: storage.CSVLoader(cfg.Store.Path),
		Notifier:  n,
		Journal:   journal,
		Logger:    log,
		PageURL:   cfg.Page.URL,
		URLTitle:  cfg.Notifier.URLTitle,
	})

	res, err := runner.Run(cmd.Context())
	switch {
	case errors.Is(err, watcher.ErrPartialDelivery):
		log.Error("Run finished with failed notifications",
			logger.Int("notified", res.Notified),
			logger.Int("failed", res.Failed),
			logger.Strings("failed_ids", res.FailedIDs),
		)
		return err
	case err != nil:
		log.Error("Run failed", logger.Error(err))
		return &loggedError{err: err}
	}

	log.Info("Run finished",
		logger.Int("found", res.Found),
		logger.Int("new", res.New),
		logger.Int("notified", res.Notified),
	)
	return nil
}

func newNotifier(cfg *config.Config) (notifier.Notifier, error) {
	switch cfg.Notifier.Type {
	case config.NotifierDiscord:
		return notifier.NewDiscord(cfg.Notifier.Discord.WebhookURL, cfg.Notifier.Timeout)
	case config.NotifierPushover:
		creds, err := notifier.LoadPushoverConfig(cfg.Notifier.ConfigPath, notifier.PushoverConfig{
			APIToken: cfg.Notifier.Pushover.APIToken,
			UserKey:  cfg.Notifier.Pushover.UserKey,
		})
		if err != nil {
			return nil, err
		}
		return notifier.NewPushover(creds, cfg.Notifier.Pushover.Endpoint, cfg.Notifier.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown notifier type %q", cfg.Notifier.Type)
	}
}
