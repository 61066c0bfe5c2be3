package cli

import (
	"context"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/forge-provisioner/internal/config"
	"github.com/blackwell-systems/forge-provisioner/internal/repository"
	"github.com/blackwell-systems/forge-provisioner/internal/store"
)

// componentStatus represents the health of one dependency
type componentStatus int

const (
	componentUnknown componentStatus = iota
	componentUp
	componentDown
	componentDisabled
)

type componentCheck struct {
	name   string
	status componentStatus
	detail string
}

const checkTimeout = 5 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the store and repository backends",
	Long:  `Verify that the store is reachable and migrated, and that git can serve the repository root.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()

		checks := []componentCheck{
			checkStore(ctx, cfg),
			checkGit(ctx, cfg),
			checkRepoRoot(cfg),
		}

		// Print status
		color.Cyan("Component        Status        Detail")
		color.Cyan("────────────────────────────────────────────────")

		healthy := true
		for _, c := range checks {
			printComponentStatus(c)
			if c.status != componentUp && c.status != componentDisabled {
				healthy = false
			}
		}
		if !healthy {
			return errFailed
		}
		return nil
	},
}

func checkStore(ctx context.Context, cfg *config.Config) componentCheck {
	c := componentCheck{name: "Store", detail: cfg.StoreDSN}
	if file, ok := store.SQLiteFile(cfg.StoreDSN); ok {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			// Created and migrated by the first provisioning command.
			c.status, c.detail = componentUp, file+" (not created yet)"
			return c
		}
	}

	s, err := store.Connect(cfg.StoreDSN, zerolog.Nop())
	if err != nil {
		c.status, c.detail = componentDown, err.Error()
		return c
	}
	defer s.Close()

	if err := s.Ping(ctx); err != nil {
		c.status, c.detail = componentDown, err.Error()
		return c
	}
	c.status = componentUp
	return c
}

func checkGit(ctx context.Context, cfg *config.Config) componentCheck {
	c := componentCheck{name: "Git"}
	if cfg.RepoRoot == "" {
		c.status, c.detail = componentDisabled, "no repo-root"
		return c
	}
	version, err := repository.NewGitService(cfg.RepoRoot, cfg.GitBinary).Check(ctx)
	if err != nil {
		c.status, c.detail = componentDown, err.Error()
		return c
	}
	c.status, c.detail = componentUp, version
	return c
}

func checkRepoRoot(cfg *config.Config) componentCheck {
	c := componentCheck{name: "Repository root", detail: cfg.RepoRoot}
	if cfg.RepoRoot == "" {
		c.status = componentDisabled
		return c
	}
	info, err := os.Stat(cfg.RepoRoot)
	switch {
	case os.IsNotExist(err):
		// Created on first use.
		c.status, c.detail = componentUp, cfg.RepoRoot+" (not created yet)"
	case err != nil:
		c.status, c.detail = componentDown, err.Error()
	case !info.IsDir():
		c.status, c.detail = componentDown, cfg.RepoRoot+" is not a directory"
	default:
		c.status = componentUp
	}
	return c
}

func printComponentStatus(c componentCheck) {
	var statusText string
	switch c.status {
	case componentUp:
		statusText = color.GreenString("✓ UP      ")
	case componentDown:
		statusText = color.RedString("✗ DOWN    ")
	case componentDisabled:
		statusText = color.YellowString("- DISABLED")
	default:
		statusText = color.RedString("✗ UNKNOWN ")
	}

	color.New().Printf("%-16s %s    %s\n", c.name, statusText, c.detail)
}
