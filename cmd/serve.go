package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/assistants"
	"github.com/82deutschmark/MagicalFarmStories/internal/adapter/llm"
	"github.com/82deutschmark/MagicalFarmStories/internal/config"
	"github.com/82deutschmark/MagicalFarmStories/internal/hub"
	"github.com/82deutschmark/MagicalFarmStories/internal/policy"
	"github.com/82deutschmark/MagicalFarmStories/internal/repository"
	"github.com/82deutschmark/MagicalFarmStories/internal/runflow"
	"github.com/82deutschmark/MagicalFarmStories/internal/service"
	transport "github.com/82deutschmark/MagicalFarmStories/internal/transport/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	log.Info("starting farmstory",
		"port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"mode", cfg.Mode,
		"assistants", cfg.UsesAssistants())

	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := hub.NewHub()
	go progress.Run(ctx)

	svc, err := newService(ctx, cfg, db, progress)
	if err != nil {
		return err
	}

	server := transport.NewServer(svc, progress)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down farmstory")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("failed to shutdown server gracefully", "err", err)
	}

	log.Info("farmstory stopped")
	return nil
}

// newService wires the workflows. The assistant runner is only built when an
// assistant is configured and mock mode is off.
func newService(ctx context.Context, cfg *config.Config, db repository.Store, progress service.Publisher) (*service.Service, error) {
	generator := llm.NewGenerator(llm.Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		VisionModel: cfg.VisionModel,
		StoryModel:  cfg.StoryModel,
		ImageModel:  cfg.ImageModel,
		Timeout:     cfg.RequestTimeout,
		Mock:        cfg.IsMock(),
	})

	var runner *runflow.Runner
	if !cfg.IsMock() && (cfg.UsesAssistants() || cfg.AnalysisAssistantID != "") {
		client := assistants.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.RequestTimeout)
		runner = runflow.NewRunner(client, nil)
	}

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	return service.New(db, runner, generator, cfg, policyEngine, progress), nil
}
