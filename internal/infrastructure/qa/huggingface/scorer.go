package huggingface

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/handout-assistant/internal/infrastructure/httpjson"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "distilbert-base-cased-distilled-squad"

	operation = "huggingface question answering"
)

type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond paces calls client side; zero disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// Scorer asks an extractive question-answering model how confidently a
// context answers a question.
type Scorer struct {
	http     *httpjson.Client
	path     string
	limiter  *rate.Limiter
	executor *resilience.Executor
}

func New(opts Options, executor *resilience.Executor) *Scorer {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Scorer{
		http:     httpjson.New(opts.BaseURL, opts.Timeout, httpjson.WithBearer(opts.APIKey)),
		path:     "/models/" + url.PathEscape(opts.Model),
		limiter:  limiter,
		executor: executor,
	}
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaRequest struct {
	Inputs qaInputs `json:"inputs"`
}

type qaResponse struct {
	Score  float64 `json:"score"`
	Answer string  `json:"answer"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

func (s *Scorer) Score(ctx context.Context, question, passage string) (float64, error) {
	request := qaRequest{Inputs: qaInputs{Question: question, Context: passage}}

	var response qaResponse
	call := func(callCtx context.Context) error {
		if s.limiter != nil {
			if err := s.limiter.Wait(callCtx); err != nil {
				return fmt.Errorf("wait for rate limiter: %w", err)
			}
		}
		response = qaResponse{}
		return s.http.PostJSON(callCtx, s.path, request, &response, operation)
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, operation, call, resilience.ClassifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return 0, resilience.ScoringKinds.Wrap(operation, err)
	}
	return clampScore(response.Score), nil
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
