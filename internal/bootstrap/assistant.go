package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/handout-assistant/internal/config"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
	"github.com/kirillkom/handout-assistant/internal/core/usecase"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/cache/memory"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/highlight/pdfmark"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/qa/huggingface"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/segmentation/ai21"
)

// Assistant is a question answerer bound to the configured remote services.
type Assistant struct {
	*usecase.HandoutAssistant
	closeFn func()
}

func (a *Assistant) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func NewExecutor(cfg config.Config) *resilience.Executor {
	policy := resilience.DefaultConfig()
	policy.RetryMaxAttempts = cfg.RetryMaxAttempts
	policy.RetryInitialBackoff = cfg.RetryInitialBackoff
	policy.RetryMaxBackoff = cfg.RetryMaxBackoff
	policy.BreakerEnabled = cfg.BreakerEnabled
	policy.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	return resilience.NewExecutor(policy)
}

// NewAssistant wires extraction, segmentation, ranking and generation.
// executor may be nil, in which case one is built from cfg.
func NewAssistant(ctx context.Context, cfg config.Config, executor *resilience.Executor) (*Assistant, error) {
	if executor == nil {
		executor = NewExecutor(cfg)
	}

	generator, closeFn, err := newGenerator(ctx, cfg, executor)
	if err != nil {
		return nil, err
	}

	segmenter := ai21.New(cfg.AI21BaseURL, cfg.AI21APIKey, cfg.SegmentationTimeout, executor)
	scorer := huggingface.New(huggingface.Options{
		BaseURL:           cfg.HFBaseURL,
		APIKey:            cfg.HFAPIKey,
		Model:             cfg.HFModel,
		Timeout:           cfg.ScoringTimeout,
		RequestsPerSecond: cfg.HFRequestsPerSecond,
		Burst:             cfg.HFBurst,
	}, executor)
	ranker := usecase.NewRanker(scorer, usecase.RankerOptions{
		Threshold:   cfg.RankThreshold,
		TopK:        cfg.RankTopK,
		Concurrency: cfg.RankConcurrency,
	})

	qa := usecase.NewHandoutAssistant(pdftext.New(), segmenter, ranker, generator, usecase.StageTimeouts{
		Extract:  cfg.ExtractTimeout,
		Segment:  cfg.SegmentationTimeout,
		Rank:     cfg.RankTimeout,
		Generate: cfg.GenerationTimeout,
	})
	if cfg.SegmentCacheTTL > 0 {
		qa = qa.WithSegmentCache(memory.NewSegmentCache(cfg.SegmentCacheTTL, cfg.SegmentCacheSize))
	}

	slog.Info("assistant_configured",
		"generator_backend", cfg.GeneratorBackend,
		"qa_model", cfg.HFModel,
		"rank_concurrency", cfg.RankConcurrency,
		"segment_cache", cfg.SegmentCacheTTL > 0,
	)
	return &Assistant{HandoutAssistant: qa, closeFn: closeFn}, nil
}

func newGenerator(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.AnswerGenerator, func(), error) {
	switch cfg.GeneratorBackend {
	case config.BackendOpenAI, "":
		return openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.GenerationTimeout, executor), func() {}, nil
	case config.BackendOllama:
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, cfg.GenerationTimeout, executor), func() {}, nil
	case config.BackendGemini:
		generator, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini generator: %w", err)
		}
		return generator, func() {
			if err := generator.Close(); err != nil {
				slog.Warn("gemini_close_failed", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown generator backend %q", cfg.GeneratorBackend)
	}
}

// NewHighlighter wires the PDF phrase locator and annotation writer.
func NewHighlighter() *usecase.HighlightUseCase {
	return usecase.NewHighlightUseCase(pdfmark.NewLocator(), pdfmark.NewWriter())
}
