package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"relboard/internal/config"
	"relboard/internal/feed"
	appLog "relboard/internal/log"
	"relboard/internal/model"
	"relboard/internal/store"
	"relboard/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("relboard starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"feed_count", len(conf.Feeds),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	st := store.New()

	cacheDir := "/var/lib/relboard/feed-cache"
	if flags.debug {
		cacheDir = "./cache/feed-cache"
	}
	refresh := makeRefresh(conf, st, cacheDir)

	// Initial import so the API serves data immediately.
	if err := refresh(ctx); err != nil {
		appLog.Error("initial feed refresh failed", err)
	}

	if flags.once {
		releases, refreshedAt := st.Snapshot()
		appLog.Info("single-shot refresh complete",
			"releases", len(releases),
			"refreshed_at", refreshedAt.Format(time.RFC3339),
		)
		return
	}

	// Periodic refresh on the configured cron schedule.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := refresh(ctx); err != nil {
			appLog.Error("scheduled feed refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	go func() {
		if err := web.StartServer(ctx, conf, st, refresh); err != nil {
			appLog.Error("HTTP server stopped", err)
			cancel()
		}
	}()

	<-ctx.Done()
	appLog.Info("relboard exiting")
}

// makeRefresh builds the feed-import closure shared by the cron schedule
// and POST /api/refresh: fetch all configured feeds, parse, expand release
// trains within the horizon, and swap the result into the store.
func makeRefresh(conf *config.Config, st *store.Store, cacheDir string) web.RefreshFunc {
	fetcher := feed.NewFetcher(cacheDir)

	return func(ctx context.Context) error {
		var local []model.Release
		if conf.ReleasesFile != "" {
			var err error
			local, err = loadReleasesFile(conf.ReleasesFile)
			if err != nil {
				// A broken local file is a config error worth failing loudly
				// on; feed problems stay soft.
				return err
			}
		}

		sources := make([]feed.Source, 0, len(conf.Feeds))
		for _, fc := range conf.Feeds {
			if fc.URL == "" {
				continue
			}
			id := fc.ID
			if id == "" {
				if fc.Name != "" {
					id = fc.Name
				} else {
					id = fc.URL
				}
			}
			sources = append(sources, feed.Source{ID: id, URL: fc.URL})
		}

		if len(sources) == 0 {
			st.Replace(local)
			return nil
		}

		results, fetchErrs := fetcher.FetchAll(ctx, sources)
		if len(fetchErrs) > 0 {
			appLog.Error("one or more feed fetches failed", errorsAggregate(fetchErrs), "error_count", len(fetchErrs))
		}

		events := make([]feed.ReleaseEvent, 0)
		for _, res := range results {
			evs, err := feed.Parse(res.Source, res.Body)
			if err != nil {
				appLog.Error("feed parse failed for source", err, "id", res.Source.ID)
				continue
			}
			events = append(events, evs...)
		}

		now := time.Now().UTC()
		expanded, err := feed.Expand(events, feed.ExpandConfig{
			RangeStart: now.AddDate(0, 0, -conf.HorizonDays),
			RangeEnd:   now.AddDate(0, 0, conf.HorizonDays),
		})
		if err != nil {
			return err
		}

		all := append(local, expanded.Releases...)
		st.Replace(all)
		appLog.Info("feed refresh complete",
			"sources", len(sources),
			"releases", len(all),
			"truncated", len(expanded.TruncatedUIDs),
		)

		if len(results) == 0 && len(fetchErrs) > 0 {
			return errors.New("all feed fetches failed")
		}
		return nil
	}
}

// loadReleasesFile reads a hand-curated JSON release list and validates it
// through the same boundary as any other release input.
func loadReleasesFile(path string) ([]model.Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ins []model.ReleaseInput
	if err := json.Unmarshal(data, &ins); err != nil {
		return nil, fmt.Errorf("releases file %s: %w", path, err)
	}
	releases, err := model.ParseReleases(ins)
	if err != nil {
		return nil, fmt.Errorf("releases file %s: %w", path, err)
	}
	return releases, nil
}

func errorsAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/relboard/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one feed refresh and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and local cache paths")

	flag.Parse()

	return cfg
}
