package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/llm/completion"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
)

const (
	DefaultModel = "gemini-2.5-flash"

	operation = "gemini generate"
)

// contentGenerator is the subset of *genai.GenerativeModel the generator uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Generator struct {
	client   *genai.Client
	model    contentGenerator
	executor *resilience.Executor
}

func New(ctx context.Context, apiKey, modelName string, executor *resilience.Executor) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	params := completion.DefaultParams()
	model := client.GenerativeModel(modelName)
	model.SetTemperature(params.Temperature)
	model.SetTopP(params.TopP)
	model.SetMaxOutputTokens(int32(params.MaxTokens))

	return &Generator{client: client, model: model, executor: executor}, nil
}

func (g *Generator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GeneratedAnswer, error) {
	var raw string
	call := func(callCtx context.Context) error {
		resp, err := g.model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			return err
		}
		raw = responseText(resp)
		return nil
	}

	var err error
	if g.executor != nil {
		err = g.executor.Execute(ctx, operation, call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.GeneratedAnswer{}, wrapGeminiError(err)
	}
	return completion.Parse(raw), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
		break
	}
	return strings.Join(parts, "")
}

func classifyGeminiError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	st, ok := status.FromError(err)
	if !ok {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Aborted:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
}

// wrapGeminiError reports rejected requests as service errors with the HTTP
// equivalent of the RPC code; transport failures become unavailable.
func wrapGeminiError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return domain.WrapError(domain.ErrGenerationUnavailable, operation, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.Unknown:
		return domain.WrapError(domain.ErrGenerationUnavailable, operation, err)
	}
	return &domain.ServiceError{
		Kind:       domain.ErrGenerationService,
		Operation:  operation,
		StatusCode: httpStatusFromCode(st.Code()),
		Body:       st.Message(),
	}
}

func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
