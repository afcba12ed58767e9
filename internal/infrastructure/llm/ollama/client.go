package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/httpjson"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/llm/completion"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
)

const operation = "ollama generate"

// Generator answers prompts with a local Ollama model.
type Generator struct {
	http     *httpjson.Client
	model    string
	params   completion.Params
	executor *resilience.Executor
}

func New(baseURL, model string, timeout time.Duration, executor *resilience.Executor) *Generator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Generator{
		http:     httpjson.New(strings.TrimRight(baseURL, "/"), timeout, nil),
		model:    model,
		params:   completion.DefaultParams(),
		executor: executor,
	}
}

type generateOptions struct {
	Temperature      float32 `json:"temperature"`
	NumPredict       int     `json:"num_predict"`
	TopP             float32 `json:"top_p"`
	FrequencyPenalty float32 `json:"frequency_penalty"`
	PresencePenalty  float32 `json:"presence_penalty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GeneratedAnswer, error) {
	request := generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature:      g.params.Temperature,
			NumPredict:       g.params.MaxTokens,
			TopP:             g.params.TopP,
			FrequencyPenalty: g.params.FrequencyPenalty,
			PresencePenalty:  g.params.PresencePenalty,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return g.http.PostJSON(callCtx, "/api/generate", request, &response, operation)
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
	return completion.Parse(response.Response), nil
}
