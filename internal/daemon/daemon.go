// Package daemon runs the long-lived imgstack service: the plugin IPC server,
// the fsnotify-backed vault index, and the optional periodic normalize sweep.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/imgstack/internal/config"
	"git.home.luguber.info/inful/imgstack/internal/journal"
	"git.home.luguber.info/inful/imgstack/internal/logfields"
	"git.home.luguber.info/inful/imgstack/internal/metrics"
	"git.home.luguber.info/inful/imgstack/internal/vault"
)

// Daemon wires the daemon components together and owns their lifecycle.
type Daemon struct {
	cfg      *config.Config
	vault    *vault.Vault
	index    *Index
	journal  *journal.Store
	recorder *metrics.PrometheusRecorder
	registry *prom.Registry
	watcher  *Watcher
	server   *http.Server
}

// New constructs a daemon from validated configuration.
func New(cfg *config.Config) (*Daemon, error) {
	v, err := vault.New(cfg.Vault)
	if err != nil {
		return nil, err
	}

	index := NewIndex()
	v.SetIndex(index)

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	var jnl *journal.Store
	if cfg.Journal.Path != "" {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
	}

	watcher, err := NewWatcher(v, index, recorder, cfg.Daemon.WatchDebounceDuration())
	if err != nil {
		if jnl != nil {
			_ = jnl.Close()
		}
		return nil, err
	}

	ipc := NewServer(v, cfg.StackMode(), jnl, recorder, registry)
	srv := &http.Server{
		Addr:              cfg.Daemon.Listen,
		Handler:           ipc.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Daemon{
		cfg:      cfg,
		vault:    v,
		index:    index,
		journal:  jnl,
		recorder: recorder,
		registry: registry,
		watcher:  watcher,
		server:   srv,
	}, nil
}

// Run blocks until ctx is canceled or the HTTP server fails.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("Building vault index", logfields.Vault(d.vault.Root()))
	if err := d.index.Build(ctx, d.vault); err != nil {
		return fmt.Errorf("build vault index: %w", err)
	}
	d.recorder.SetIndexSize(d.index.Len())

	if err := d.watcher.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := d.watcher.Stop(); err != nil {
			slog.Warn("Failed to stop vault watcher", logfields.Error(err))
		}
	}()

	scheduler, err := d.startSweep(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Failed to stop sweep scheduler", logfields.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("IPC server listening", slog.String("addr", d.cfg.Daemon.Listen))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown incomplete", logfields.Error(err))
		}
	case err := <-errCh:
		return fmt.Errorf("ipc server: %w", err)
	}

	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			slog.Warn("Failed to close journal", logfields.Error(err))
		}
	}
	return nil
}

// startSweep schedules the periodic normalize sweep when configured.
func (d *Daemon) startSweep(ctx context.Context) (gocron.Scheduler, error) {
	interval := d.cfg.Daemon.SweepIntervalDuration()
	if interval <= 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create sweep scheduler: %w", err)
	}

	sweeper := NewSweeper(d.vault, d.cfg.StackMode(), d.journal, d.recorder)
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := sweeper.Run(ctx); err != nil {
				slog.Warn("Normalize sweep aborted", logfields.Error(err))
			}
		}),
		gocron.WithName("normalize-sweep"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule normalize sweep: %w", err)
	}

	scheduler.Start()
	slog.Info("Normalize sweep scheduled", slog.Duration("interval", interval))
	return scheduler, nil
}
