package ai21

import (
	"context"
	"time"

	"github.com/kirillkom/handout-assistant/internal/infrastructure/httpjson"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api.ai21.com"

	segmentationPath = "/studio/v1/segmentation"
	operation        = "ai21 segmentation"
)

type Client struct {
	http     *httpjson.Client
	executor *resilience.Executor
}

func New(baseURL, apiKey string, timeout time.Duration, executor *resilience.Executor) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:     httpjson.New(baseURL, timeout, httpjson.WithBearer(apiKey)),
		executor: executor,
	}
}

type segmentationRequest struct {
	SourceType string `json:"sourceType"`
	Source     string `json:"source"`
}

type segmentationResponse struct {
	ID       string `json:"id"`
	Segments []struct {
		SegmentText string `json:"segmentText"`
		SegmentType string `json:"segmentType"`
	} `json:"segments"`
}

// Segment returns segment texts in service order. Whitespace-only segments are kept
// as returned so ids stay aligned with the service output.
func (c *Client) Segment(ctx context.Context, text string) ([]string, error) {
	request := segmentationRequest{SourceType: "TEXT", Source: text}

	var response segmentationResponse
	call := func(callCtx context.Context) error {
		response = segmentationResponse{}
		return c.http.PostJSON(callCtx, segmentationPath, request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, resilience.ClassifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, resilience.SegmentationKinds.Wrap(operation, err)
	}

	out := make([]string, 0, len(response.Segments))
	for _, segment := range response.Segments {
		out = append(out, segment.SegmentText)
	}
	return out, nil
}
