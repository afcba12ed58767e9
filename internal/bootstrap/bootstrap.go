package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/handout-assistant/internal/config"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
	"github.com/kirillkom/handout-assistant/internal/core/usecase"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/storage/localfs"
)

// App holds the wiring shared by the API and the highlight worker.
type App struct {
	Config config.Config

	Queue         ports.HighlightQueue
	Executor      *resilience.Executor
	Handouts      *usecase.HandoutUseCase
	HighlightJobs *usecase.HighlightJobProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init handout storage: %w", err)
	}

	executor := NewExecutor(cfg)
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{Executor: executor})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init highlight queue: %w", err)
	}

	assistant, err := NewAssistant(ctx, cfg, executor)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	repo := postgres.NewHandoutRepository(db)
	journal := postgres.NewQuestionJournal(db)

	return &App{
		Config:        cfg,
		Queue:         queue,
		Executor:      executor,
		Handouts:      usecase.NewHandoutUseCase(repo, storage, journal, queue, assistant),
		HighlightJobs: usecase.NewHighlightJobProcessor(repo, storage, NewHighlighter()),

		closeFn: func() {
			assistant.Close()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
