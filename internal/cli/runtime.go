package cli

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/forge-provisioner/internal/config"
	"github.com/blackwell-systems/forge-provisioner/internal/logging"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
	"github.com/blackwell-systems/forge-provisioner/internal/provision"
	"github.com/blackwell-systems/forge-provisioner/internal/report"
	"github.com/blackwell-systems/forge-provisioner/internal/repository"
	"github.com/blackwell-systems/forge-provisioner/internal/store"
	"github.com/blackwell-systems/forge-provisioner/internal/telemetry"
)

const serviceName = "forge-provision"

// env is everything a provisioning command needs for one invocation.
type env struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *store.GormStore
	prov     *provision.Provisioner
	shutdown func(context.Context) error
}

func newEnv(ctx context.Context, stderr io.Writer) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		// Tracing is diagnostics only.
		log.Warn().Err(err).Msg("tracing disabled")
	}

	s, err := store.Open(cfg.StoreDSN, log)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("open store: %w", err)
	}

	var repos repository.Service
	if cfg.RepoRoot != "" {
		repos = repository.NewGitService(cfg.RepoRoot, cfg.GitBinary)
	}

	return &env{
		cfg:   cfg,
		log:   log,
		store: s,
		prov: provision.New(s, repos, log, provision.Settings{
			AdminUsername:  cfg.AdminUsername,
			DefaultOrgName: cfg.DefaultOrg.Name,
			DefaultOrgPath: cfg.DefaultOrg.Path,
		}),
		shutdown: shutdown,
	}, nil
}

func (e *env) close(ctx context.Context) {
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("close store")
	}
	if err := e.shutdown(ctx); err != nil {
		e.log.Warn().Err(err).Msg("flush traces")
	}
}

// run is the single recover boundary of a provisioning command. fn returns
// the exit status after writing its own output; a setup error or a panic is
// reported on stdout in the same protocol.
func run(cmd *cobra.Command, fn func(ctx context.Context, e *env) int) (err error) {
	out := cmd.OutOrStdout()
	defer func() {
		if r := recover(); r != nil {
			report.Panic(out, r, debug.Stack())
			err = errFailed
		}
	}()

	ctx := cmd.Context()
	e, err := newEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		report.Write(out, outcome.Failure(outcome.Classify(err)))
		return errFailed
	}
	defer e.close(ctx)

	if fn(ctx, e) != report.ExitOK {
		return errFailed
	}
	return nil
}
