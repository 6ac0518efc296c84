// Package daemon implements the foamdictd lifecycle: load the case
// dictionaries, serve the API, and reload on SIGHUP.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/psaab/foamdict/pkg/api"
	"github.com/psaab/foamdict/pkg/cli"
	"github.com/psaab/foamdict/pkg/dictionary"
	"github.com/psaab/foamdict/pkg/dictstore"
	"github.com/psaab/foamdict/pkg/logging"
)

// Options configures the daemon.
type Options struct {
	Name        string
	CaseFiles   []string
	Policy      dictionary.MergePolicy
	Parse       dictionary.ParseOptions
	SavePath    string
	HistorySize int

	APIAddr  string // empty disables the API
	AuthFile string // dictionary file with users and apiKeys
	TLSCert  string
	TLSKey   string
	AllowEnv bool

	// Shell runs the interactive shell on the terminal.
	Shell       bool
	HistoryFile string

	Logs *logging.RecordBuffer
}

// Daemon is the main foamdictd daemon.
type Daemon struct {
	opts  Options
	store *dictstore.Store
}

// New creates a new Daemon.
func New(opts Options) *Daemon {
	return &Daemon{
		opts: opts,
		store: dictstore.New(dictstore.Options{
			Name:        opts.Name,
			Files:       opts.CaseFiles,
			Policy:      opts.Policy,
			Parse:       opts.Parse,
			HistorySize: opts.HistorySize,
			SavePath:    opts.SavePath,
		}),
	}
}

// Store returns the daemon's dictionary store.
func (d *Daemon) Store() *dictstore.Store { return d.store }

// Run starts the daemon and blocks until shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("starting foamdict daemon",
		"files", d.opts.CaseFiles,
		"policy", d.opts.Policy.String(),
		"pid", os.Getpid())

	if err := d.store.Load(); err != nil {
		slog.Warn("failed to load case files, starting with empty dictionary", "err", err)
	} else {
		slog.Info("case loaded", "entries", d.store.Stats().Entries, "digest", d.store.Active().Digest())
	}

	var auth *api.AuthConfig
	if d.opts.AuthFile != "" {
		cfg, err := api.LoadAuthConfig(d.opts.AuthFile)
		if err != nil {
			return err
		}
		auth = cfg
	}

	// Handle signals for clean shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if d.opts.APIAddr != "" {
		srv := api.NewServer(api.Config{
			Addr:     d.opts.APIAddr,
			TLSCert:  d.opts.TLSCert,
			TLSKey:   d.opts.TLSKey,
			Auth:     auth,
			Store:    d.store,
			Logs:     d.opts.Logs,
			AllowEnv: d.opts.AllowEnv,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				errCh <- fmt.Errorf("API: %w", err)
			}
		}()
	}

	if d.opts.Shell {
		shell := cli.New(d.store, cli.Options{
			HistoryFile: d.opts.HistoryFile,
			AllowEnv:    d.opts.AllowEnv,
			Logs:        d.opts.Logs,
		})
		// The shell blocks on the terminal; it is not waited for.
		go func() {
			if err := shell.Run(); err != nil {
				errCh <- fmt.Errorf("CLI: %w", err)
				return
			}
			stop()
		}()
	}

	var runErr error
loop:
	for {
		select {
		case <-hup:
			d.reload()
		case err := <-errCh:
			runErr = err
			break loop
		case <-ctx.Done():
			slog.Info("shutting down")
			break loop
		}
	}

	stop()
	wg.Wait()
	slog.Info("shutdown complete", "commits", d.store.Stats().Commits)
	return runErr
}

// reload re-reads the case files. A failed reload keeps the current
// dictionary.
func (d *Daemon) reload() {
	before := d.store.Active().Digest()
	if err := d.store.Load(); err != nil {
		slog.Warn("reload failed, keeping current dictionary", "err", err)
		return
	}
	after := d.store.Active().Digest()
	slog.Info("case reloaded", "changed", before != after, "digest", after)
}
