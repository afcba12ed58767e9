package openai

import (
	"context"
	"errors"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/httpjson"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/llm/completion"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-3.5-turbo-instruct"

	completionsPath = "/v1/completions"
	operation       = "openai completion"
)

// Generator calls an OpenAI compatible text completion endpoint.
type Generator struct {
	http     *httpjson.Client
	model    string
	params   completion.Params
	executor *resilience.Executor
}

func New(baseURL, apiKey, model string, timeout time.Duration, executor *resilience.Executor) *Generator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		http:     httpjson.New(baseURL, timeout, httpjson.WithBearer(apiKey)),
		model:    model,
		params:   completion.DefaultParams(),
		executor: executor,
	}
}

type completionRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt"`
	Temperature      float32 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float32 `json:"top_p"`
	FrequencyPenalty float32 `json:"frequency_penalty"`
	PresencePenalty  float32 `json:"presence_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GeneratedAnswer, error) {
	request := completionRequest{
		Model:            g.model,
		Prompt:           prompt,
		Temperature:      g.params.Temperature,
		MaxTokens:        g.params.MaxTokens,
		TopP:             g.params.TopP,
		FrequencyPenalty: g.params.FrequencyPenalty,
		PresencePenalty:  g.params.PresencePenalty,
	}

	var response completionResponse
	call := func(callCtx context.Context) error {
		response = completionResponse{}
		return g.http.PostJSON(callCtx, completionsPath, request, &response, operation)
	}

	var err error
	if g.executor != nil {
		err = g.executor.Execute(ctx, operation, call, resilience.ClassifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.GeneratedAnswer{}, resilience.GenerationKinds.Wrap(operation, err)
	}
	if len(response.Choices) == 0 {
		return domain.GeneratedAnswer{}, domain.WrapError(domain.ErrGenerationService, operation, errors.New("response has no choices"))
	}
	return completion.Parse(response.Choices[0].Text), nil
}
