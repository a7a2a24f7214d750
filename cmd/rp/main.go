package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kmorrill/review-placer/internal/adapter/cli"
	"github.com/kmorrill/review-placer/internal/adapter/findings"
	"github.com/kmorrill/review-placer/internal/adapter/git"
	githubadapter "github.com/kmorrill/review-placer/internal/adapter/github"
	"github.com/kmorrill/review-placer/internal/adapter/store/sqlite"
	"github.com/kmorrill/review-placer/internal/config"
	"github.com/kmorrill/review-placer/internal/domain"
	"github.com/kmorrill/review-placer/internal/observability"
	"github.com/kmorrill/review-placer/internal/usecase/placement"
	"github.com/kmorrill/review-placer/internal/usecase/publish"
	"github.com/kmorrill/review-placer/internal/usecase/review"
	"github.com/kmorrill/review-placer/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "rp",
		EnvPrefix:   "RP",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := observability.NewDefaultLogger(
		observability.ParseLevel(cfg.Logging.Level),
		observability.ParseFormat(cfg.Logging.Format),
	)

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	gitEngine := git.NewEngine(repoDir)

	threshold, err := domain.ParseSeverity(strings.ToUpper(cfg.Placement.SeverityThreshold))
	if err != nil {
		return fmt.Errorf("invalid severity threshold: %w", err)
	}

	pipeline, err := placement.New(placement.Config{
		MaxComments:       cfg.Placement.MaxComments,
		PlatformCeiling:   cfg.Placement.PlatformCeiling,
		SeverityThreshold: threshold,
		AdjustTolerance:   cfg.Placement.AdjustTolerance,
	}, githubadapter.FormatCommentBody)
	if err != nil {
		return fmt.Errorf("build placement pipeline: %w", err)
	}

	loader := findings.NewLoader(labelSeverities(cfg.Placement.LabelSeverities))

	// Diagnostics persistence is best effort: a broken store degrades
	// to an in-memory-only run instead of failing the command.
	var diagStore review.DiagnosticsStore
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				diagStore = sqliteStore
				defer sqliteStore.Close()
			}
		}
	}

	var publisher review.BatchPublisher
	if githubToken := os.Getenv("GITHUB_TOKEN"); githubToken != "" {
		githubClient := githubadapter.NewClient(githubToken)
		publisher = publish.NewPoster(githubClient, logger)
	}

	orchestrator := review.NewOrchestrator(review.OrchestratorDeps{
		Diff:      gitEngine,
		Pipeline:  pipeline,
		Publisher: publisher,
		Store:     diagStore,
		Logger:    logger,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Placer:       orchestrator,
		Loader:       loader,
		DefaultOwner: cfg.GitHub.Owner,
		DefaultRepo:  cfg.GitHub.Repo,
		Version:      version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func labelSeverities(raw map[string]string) map[string]domain.Severity {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]domain.Severity, len(raw))
	for label, sev := range raw {
		parsed, err := domain.ParseSeverity(strings.ToUpper(sev))
		if err != nil {
			// Validate already rejected unknown severities.
			continue
		}
		out[label] = parsed
	}
	return out
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rp"))
	}
	return paths
}
