package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"linkvault/internal/api"
	"linkvault/internal/config"
	"linkvault/internal/logging"
	"linkvault/internal/pipeline"
	"linkvault/internal/store"
)

// Daemon owns the pipeline service and the HTTP API, and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	pipeline *pipeline.Service
	posts    *api.PostService

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, pipe *pipeline.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || pipe == nil {
		return nil, errors.New("daemon requires config, store, and pipeline service")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "linkvaultd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		pipeline: pipe,
		posts:    api.NewPostService(st, pipe),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.server = server
	return d, nil
}

// Start acquires the daemon lock, begins queue processing, and brings the
// HTTP API up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another linkvault daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pipeline.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.server.start(runCtx); err != nil {
		d.pipeline.Stop()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("linkvault daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.server.addr()),
	)
	return nil
}

// Stop shuts the API down, drains the pipeline, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.server.stop()
	d.pipeline.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("linkvault daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr reports the bound API address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.addr()
}

// Status reports daemon runtime information.
func (d *Daemon) Status() api.DaemonStatus {
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueLength:  d.pipeline.QueueLen(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
